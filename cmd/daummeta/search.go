package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/daummeta/internal/app/resolve"
	"github.com/John-Robertt/daummeta/internal/domain"
	"github.com/John-Robertt/daummeta/internal/library"
)

func newSearchCommand(a *app, g *globalFlags) *cobra.Command {
	var year int
	var best bool
	var path string

	cmd := &cobra.Command{
		Use:   "search movie|show [NAME]",
		Short: "搜索候选条目（输出 JSON 候选列表，按源顺序）",
		Example: `  daummeta search movie 인셉션 --year 2010
  daummeta search show 미생 --best
  daummeta search movie --path "/movies/Inception (2010)/Inception.mkv"`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				return usageErrorf("需要 kind 参数")
			}
			if _, err := domain.ParseKind(args[0]); err != nil {
				return usageError{err}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, _ := domain.ParseKind(args[0])
			name := strings.TrimSpace(strings.Join(args[1:], " "))
			if path != "" {
				h, err := library.ParseName(path)
				if err != nil {
					return usageError{err}
				}
				if name == "" {
					name = h.Name
				}
				if !cmd.Flags().Changed("year") {
					year = h.Year
				}
			}
			if name == "" {
				return usageErrorf("需要 NAME 或 --path")
			}
			if year < 0 {
				return usageErrorf("--year 不能为负数，实际是 %d", year)
			}

			e, err := a.engine(cmd, g)
			if err != nil {
				return err
			}
			cands, err := e.Search(cmd.Context(), domain.Query{Name: name, Year: year, Kind: kind})
			if err != nil {
				return err
			}

			var v any = cands
			if best {
				c, ok := resolve.Best(cands)
				if !ok {
					return fmt.Errorf("没有找到与 %q 匹配的%s", name, kindLabel(kind))
				}
				v = c
			}
			b, err := marshalJSON(v)
			if err != nil {
				return err
			}
			return a.writeResult(b, "")
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "年份（未知时省略）")
	cmd.Flags().BoolVar(&best, "best", false, "只输出得分最高的候选（并列取源顺序靠前者）")
	cmd.Flags().StringVar(&path, "path", "", "从媒体文件/目录路径推断 NAME 与年份（显式参数优先）")
	return cmd
}

func kindLabel(k domain.Kind) string {
	if k == domain.KindShow {
		return "剧集"
	}
	return "电影"
}
