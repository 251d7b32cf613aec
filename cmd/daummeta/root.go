package main

import (
	"github.com/spf13/cobra"

	"github.com/John-Robertt/daummeta/internal/app/resolve"
	"github.com/John-Robertt/daummeta/internal/config"
)

// globalFlags 是所有子命令共享的配置覆盖项。
type globalFlags struct {
	configPath   string
	ratingSystem string
	maxPosters   int
	maxArt       int
	logLevel     string
}

func newRootCommand(a *app) *cobra.Command {
	var g globalFlags

	rootCmd := &cobra.Command{
		Use:   "daummeta",
		Short: "从 Daum 检索电影/剧集元数据",
		Long: `daummeta 在 Daum 上检索电影与剧集，并把选中的条目解析为结构化元数据。

stdout 只输出结果（JSON 或 NFO）；日志与摘要写到 stderr。`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	// 帮助与用法同样写到 stderr：stdout 只留给结果。
	rootCmd.SetOut(a.stderr)
	rootCmd.SetErr(a.stderr)
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "配置文件路径（默认读取当前目录下的 "+config.FileName+"，不存在则忽略）")
	pf.StringVar(&g.ratingSystem, "rating-system", "", "分级体系：KMRB|MPAA")
	pf.IntVar(&g.maxPosters, "max-posters", 0, "最多保留的海报数")
	pf.IntVar(&g.maxArt, "max-art", 0, "最多保留的剧照/背景数")
	pf.StringVar(&g.logLevel, "log-level", "", "日志级别：debug|info|warn|error")

	rootCmd.AddCommand(newSearchCommand(a, &g))
	rootCmd.AddCommand(newUpdateCommand(a, &g))
	return rootCmd
}

// engine 合并配置并装配 Engine；只在真正需要网络时调用。
func (a *app) engine(cmd *cobra.Command, g *globalFlags) (*resolve.Engine, error) {
	flags := cmd.Flags()
	eff, err := config.LoadEffective(a.cwd, config.CLIArgs{
		ConfigPath:      g.configPath,
		RatingSystem:    g.ratingSystem,
		RatingSystemSet: flags.Changed("rating-system"),
		MaxPosters:      g.maxPosters,
		MaxPostersSet:   flags.Changed("max-posters"),
		MaxArt:          g.maxArt,
		MaxArtSet:       flags.Changed("max-art"),
		LogLevel:        g.logLevel,
		LogLevelSet:     flags.Changed("log-level"),
	})
	if err != nil {
		return nil, err
	}

	log := newLogger(a.stderr, eff.LogLevel)
	log.Debug("配置（生效）",
		"config", eff.ConfigPath,
		"rating_system", eff.RatingSystem,
		"max_posters", eff.MaxPosters,
		"max_art", eff.MaxArt,
		"proxy", formatProxy(eff.ProxyURL),
		"cache_dir", eff.CacheDir,
		"cache_ttl", eff.CacheTTL,
		"verify_images", eff.VerifyImages,
	)

	e, err := a.build(eff, log)
	if err != nil {
		return nil, err
	}
	e.Observer = &summary{w: a.stderr}
	return e, nil
}
