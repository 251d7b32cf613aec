// Package artwork 从照片列表中挑选海报与背景图。
package artwork

import (
	"context"
	"log/slog"

	"github.com/John-Robertt/daummeta/internal/domain"
)

// Photo 是站点照片列表中的一项。
type Photo struct {
	Category  string // "1"=海报，"2"/"50"=剧照/背景
	FullURL   string
	Thumbnail string
}

// Limits 是每类图片的上限（来自配置）。
type Limits struct {
	MaxPosters int
	MaxArt     int
}

// Selection 是挑选结果。
type Selection struct {
	Posters []domain.Artwork
	Art     []domain.Artwork
}

func isPoster(cat string) bool { return cat == "1" }

func isArt(cat string) bool { return cat == "2" || cat == "50" }

// Select 按源顺序扫描照片：
//   - 原图地址为空的条目直接跳过，不占名额
//   - 每类的 SortOrder 从 1 开始按接受顺序递增
//   - 某一类达到上限后不再接受，但继续为另一类扫描
//   - 一张海报都没接受且 fallbackPoster 非空时，以它作为唯一海报
func Select(photos []Photo, lim Limits, fallbackPoster string) Selection {
	var sel Selection
	for _, p := range photos {
		if p.FullURL == "" {
			continue
		}
		switch {
		case isPoster(p.Category) && len(sel.Posters) < lim.MaxPosters:
			sel.Posters = append(sel.Posters, domain.Artwork{
				URL:        p.FullURL,
				PreviewURL: p.Thumbnail,
				SortOrder:  len(sel.Posters) + 1,
			})
		case isArt(p.Category) && len(sel.Art) < lim.MaxArt:
			sel.Art = append(sel.Art, domain.Artwork{
				URL:        p.FullURL,
				PreviewURL: p.Thumbnail,
				SortOrder:  len(sel.Art) + 1,
			})
		}
	}
	if len(sel.Posters) == 0 && fallbackPoster != "" {
		sel.Posters = []domain.Artwork{{URL: fallbackPoster, SortOrder: 1}}
	}
	return sel
}

// Prober 检查一张图片引用是否可用（由 imgx 实现）。
type Prober interface {
	Probe(ctx context.Context, u string) error
}

// Verify 逐张检查图片；失败的条目被丢弃并记录日志，不影响其它条目。
// 保留下来的条目 SortOrder 不重排。
func Verify(ctx context.Context, p Prober, items []domain.Artwork, log *slog.Logger) []domain.Artwork {
	if p == nil || len(items) == 0 {
		return items
	}
	out := make([]domain.Artwork, 0, len(items))
	for _, it := range items {
		u := it.PreviewURL
		if u == "" {
			u = it.URL
		}
		if err := p.Probe(ctx, u); err != nil {
			if log != nil {
				log.Debug("图片不可用，已跳过", "url", u, "err", err)
			}
			continue
		}
		out = append(out, it)
	}
	return out
}
