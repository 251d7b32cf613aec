package provider

import (
	"context"
	"io"
	"log/slog"

	"github.com/John-Robertt/daummeta/internal/artwork"
	"github.com/John-Robertt/daummeta/internal/domain"
	"github.com/John-Robertt/daummeta/internal/match"
	"github.com/John-Robertt/daummeta/internal/rating"
)

// Provider 把“站点变化”限制在 provider 包内部；上层只依赖统一接口与稳定的 domain 类型。
//
// 约束：
// - Search 按源顺序返回全部候选（已打分，不重新排序）；无结果不是错误
// - Update 每次从零构建 MetadataRecord；只有整步失败（抓取失败）才返回 error
// - 缓存/重试/限速由 Fetcher 统一实现，provider 不关心
type Provider interface {
	Name() string
	Kind() domain.Kind
	Search(ctx context.Context, q domain.Query) ([]domain.Candidate, error)
	Update(ctx context.Context, req domain.UpdateRequest) (domain.MetadataRecord, error)
}

// Fetcher 是文档抓取协作者（由 httpx.Fetcher 实现）。
type Fetcher interface {
	Get(ctx context.Context, u string) ([]byte, error)
	GetJSON(ctx context.Context, u string, v any) error
}

// Options 是 provider 共享的解析选项（来自配置，构造后只读）。
type Options struct {
	RatingSystem rating.System
	Limits       artwork.Limits
	Scorer       match.Scorer

	// Prober 非空时逐张校验图片引用，失败的条目被丢弃。
	Prober artwork.Prober
}

// NullLogger 返回丢弃所有输出的 logger。
func NullLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
