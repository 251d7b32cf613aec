package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/John-Robertt/daummeta/internal/artwork"
	"github.com/John-Robertt/daummeta/internal/config"
	"github.com/John-Robertt/daummeta/internal/domain"
	"github.com/John-Robertt/daummeta/internal/infra/cache"
	"github.com/John-Robertt/daummeta/internal/infra/httpx"
	"github.com/John-Robertt/daummeta/internal/infra/imgx"
	"github.com/John-Robertt/daummeta/internal/match"
	"github.com/John-Robertt/daummeta/internal/provider"
	"github.com/John-Robertt/daummeta/internal/provider/daummovie"
	"github.com/John-Robertt/daummeta/internal/provider/daumtv"
)

// Engine 按 kind 把 search/update 分派给对应 provider。
//
// Engine 不重新排序候选，也不跨记录共享状态；抓取层（含缓存）由 provider 共享。
type Engine struct {
	Registry provider.Registry
	Observer Observer
	Log      *slog.Logger
}

// Build 按最终配置装配抓取层与全部 provider。进程启动时调用一次，之后只读。
func Build(eff config.EffectiveConfig, log *slog.Logger) (*Engine, error) {
	if log == nil {
		log = provider.NullLogger()
	}

	hc := httpx.Config{ProxyURL: eff.ProxyURL, CacheTTL: eff.CacheTTL}
	if eff.CacheTTL <= 0 {
		hc.CacheTTL = -1
	} else if eff.CacheDir != "" {
		hc.Disk = cache.New(eff.CacheDir, false, eff.CacheTTL)
	}
	f, err := httpx.NewFetcher(hc, log)
	if err != nil {
		return nil, &config.Error{Code: config.ErrCodeInvalid, Path: eff.ConfigPath, Err: fmt.Errorf("proxy.url 无效：%w", err)}
	}

	opts := provider.Options{
		RatingSystem: eff.RatingSystem,
		Limits:       artwork.Limits{MaxPosters: eff.MaxPosters, MaxArt: eff.MaxArt},
		Scorer:       match.Scorer{Similarity: match.BlocksRatio},
	}
	if eff.VerifyImages {
		opts.Prober = imgx.Prober{Source: f}
	}

	reg, err := provider.NewRegistry(
		daummovie.Provider{Fetch: f, Options: opts, Log: log},
		daumtv.Provider{Fetch: f, Options: opts, Log: log},
	)
	if err != nil {
		return nil, err
	}
	return &Engine{Registry: reg, Log: log}, nil
}

func (e *Engine) logger() *slog.Logger {
	if e.Log == nil {
		return provider.NullLogger()
	}
	return e.Log
}

func (e *Engine) provider(kind domain.Kind) (provider.Provider, error) {
	p, ok := e.Registry.Get(kind)
	if !ok {
		return nil, fmt.Errorf("没有可处理 kind=%q 的 provider", kind)
	}
	return p, nil
}

// Search 返回全部候选（源顺序，已打分）；无结果时返回空切片而不是 nil。
func (e *Engine) Search(ctx context.Context, q domain.Query) ([]domain.Candidate, error) {
	p, err := e.provider(q.Kind)
	if err != nil {
		return nil, err
	}
	e.start(OpSearch, q.Kind)
	started := time.Now()

	cands, err := p.Search(ctx, q)
	if err == nil && cands == nil {
		cands = []domain.Candidate{}
	}
	e.done(OpSearch, q.Kind, map[string]any{"candidates": len(cands)}, err, time.Since(started))
	if err != nil {
		return nil, err
	}
	e.logger().Info("搜索完成", "kind", q.Kind, "name", q.Name, "year", q.Year, "candidates", len(cands))
	return cands, nil
}

// Update 构建 id 对应的元数据记录。
func (e *Engine) Update(ctx context.Context, kind domain.Kind, req domain.UpdateRequest) (domain.MetadataRecord, error) {
	p, err := e.provider(kind)
	if err != nil {
		return domain.MetadataRecord{}, err
	}
	e.start(OpUpdate, kind)
	started := time.Now()

	rec, err := p.Update(ctx, req)
	e.done(OpUpdate, kind, map[string]any{
		"posters": len(rec.Posters),
		"art":     len(rec.Art),
		"roles":   len(rec.Roles),
		"seasons": len(rec.Seasons),
	}, err, time.Since(started))
	if err != nil {
		return domain.MetadataRecord{}, err
	}
	return rec, nil
}

// Best 返回得分最高的候选；并列时取源顺序靠前者。
func Best(cands []domain.Candidate) (domain.Candidate, bool) {
	return match.Best(cands)
}

func (e *Engine) start(op string, kind domain.Kind) {
	if e.Observer != nil {
		e.Observer.OnStart(op, kind)
	}
}

func (e *Engine) done(op string, kind domain.Kind, fields map[string]any, err error, dur time.Duration) {
	if e.Observer != nil {
		e.Observer.OnDone(op, kind, fields, err, dur)
	}
}
