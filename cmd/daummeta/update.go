package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/daummeta/internal/domain"
	"github.com/John-Robertt/daummeta/internal/library"
	"github.com/John-Robertt/daummeta/internal/nfo"
)

const (
	formatJSON = "json"
	formatNFO  = "nfo"
)

func newUpdateCommand(a *app, g *globalFlags) *cobra.Command {
	var (
		title   string
		seasons []string
		format  string
		out     string
		libDir  string
	)

	cmd := &cobra.Command{
		Use:   "update movie|show ID",
		Short: "解析条目元数据（输出 JSON 记录或 NFO）",
		Example: `  daummeta update movie 61203
  daummeta update show 70716 --title 미생 --seasons 1,2 --format nfo --out tvshow.nfo
  daummeta update show 70716 --library "/tv/미생 (2014)"`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return usageErrorf("需要 kind 与 ID 两个参数")
			}
			if _, err := domain.ParseKind(args[0]); err != nil {
				return usageError{err}
			}
			if strings.TrimSpace(args[1]) == "" {
				return usageErrorf("ID 不能为空")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, _ := domain.ParseKind(args[0])
			format = strings.ToLower(strings.TrimSpace(format))
			if format != formatJSON && format != formatNFO {
				return usageErrorf("--format 只能是 json 或 nfo，实际是 %q", format)
			}
			if libDir != "" {
				if kind != domain.KindShow {
					return usageErrorf("--library 只用于剧集")
				}
				if !filepath.IsAbs(libDir) {
					libDir = filepath.Join(a.cwd, libDir)
				}
				if strings.TrimSpace(title) == "" {
					if h, err := library.ParseName(libDir); err == nil {
						title = h.Name
					}
				}
				found, err := library.ScanSeasons(libDir, nil)
				if err != nil {
					return fmt.Errorf("扫描媒体库目录失败：%w", err)
				}
				seasons = append(seasons, found...)
			}
			if kind == domain.KindShow && strings.TrimSpace(title) == "" {
				return usageErrorf("update show 需要 --title（剧集详情页按节目名定位）")
			}

			e, err := a.engine(cmd, g)
			if err != nil {
				return err
			}
			rec, err := e.Update(cmd.Context(), kind, domain.UpdateRequest{
				ID:      strings.TrimSpace(args[1]),
				Title:   strings.TrimSpace(title),
				Seasons: seasons,
			})
			if err != nil {
				return err
			}

			var b []byte
			switch {
			case format == formatJSON:
				b, err = marshalJSON(rec)
			case kind == domain.KindShow:
				b, err = nfo.EncodeShow(rec)
			default:
				b, err = nfo.EncodeMovie(rec)
			}
			if err != nil {
				return err
			}
			return a.writeResult(b, out)
		},
	}
	f := cmd.Flags()
	f.StringVar(&title, "title", "", "节目名（仅剧集）")
	f.StringSliceVar(&seasons, "seasons", nil, "媒体库已有的季号，逗号分隔（仅剧集）")
	f.StringVar(&format, "format", formatJSON, "输出格式：json|nfo")
	f.StringVarP(&out, "out", "o", "", "写入文件而不是 stdout（原子替换）")
	f.StringVar(&libDir, "library", "", "剧集在媒体库中的目录：补全 --title 并扫描已有季号（仅剧集）")
	return cmd
}
