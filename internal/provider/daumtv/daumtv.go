package daumtv

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/John-Robertt/daummeta/internal/artwork"
	"github.com/John-Robertt/daummeta/internal/doc"
	"github.com/John-Robertt/daummeta/internal/domain"
	"github.com/John-Robertt/daummeta/internal/match"
	providerx "github.com/John-Robertt/daummeta/internal/provider"
)

// Provider 实现 Daum 剧集（综合搜索页中的电视节目）的搜索与详情抽取。
//
// 约束：
// - 节目详情页 URL 需要节目名 + irk，因此 Update 依赖 UpdateRequest.Title
// - 顶层页面抓取失败是整步失败；必需字段缺失只记 WARN，季信息照常解析
// - 每次 Update 清空类型/国家/演员后重建，评分始终为空
type Provider struct {
	Fetch   providerx.Fetcher
	Options providerx.Options
	Log     *slog.Logger

	// BaseURL 为空时使用 https://search.daum.net。
	BaseURL string
}

func (Provider) Name() string { return "daum-tv" }

func (Provider) Kind() domain.Kind { return domain.KindShow }

func (p Provider) baseURL() string {
	u := strings.TrimSpace(p.BaseURL)
	if u == "" {
		return "https://search.daum.net"
	}
	return strings.TrimRight(u, "/")
}

func (p Provider) logger() *slog.Logger {
	if p.Log == nil {
		return providerx.NullLogger()
	}
	return p.Log
}

func (p Provider) searchURL(name string) string {
	return p.baseURL() + "/search?w=tot&q=" + url.QueryEscape(name)
}

func (p Provider) detailURL(name, id string) string {
	return p.baseURL() + "/search?w=tv&q=" + url.QueryEscape(name) + "&irk=" + url.QueryEscape(id) + "&irt=tv-program&DA=TVP"
}

// Search 抓取综合搜索页，按源顺序返回全部已打分候选。
func (p Provider) Search(ctx context.Context, q domain.Query) ([]domain.Candidate, error) {
	if p.Fetch == nil {
		return nil, errors.New("fetcher 不能为空")
	}
	name := match.NormalizeQuery(q.Name)
	if name == "" {
		return nil, errors.New("查询名不能为空")
	}

	u := p.searchURL(name)
	b, err := p.Fetch.Get(ctx, u)
	if err != nil {
		return nil, providerx.Wrap(p.Name(), providerx.StageSearch, u, err)
	}
	d, err := doc.Parse(b)
	if err != nil {
		return nil, providerx.Wrap(p.Name(), providerx.StageSearch, u, err)
	}

	cands := p.Options.Scorer.Rank(q, ParseSearch(d))
	log := p.logger()
	for _, c := range cands {
		log.Debug("搜索候选", "provider", p.Name(), "id", c.ID, "title", c.Title, "year", c.Year, "score", c.Score)
	}
	return cands, nil
}

// Update 从零构建一条剧集元数据，并解析 req.Seasons 中请求的季。
func (p Provider) Update(ctx context.Context, req domain.UpdateRequest) (domain.MetadataRecord, error) {
	if p.Fetch == nil {
		return domain.MetadataRecord{}, errors.New("fetcher 不能为空")
	}
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return domain.MetadataRecord{}, errors.New("id 不能为空")
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return domain.MetadataRecord{}, errors.New("剧集 update 需要节目名（title）")
	}
	log := p.logger().With("provider", p.Name(), "id", id)

	u := p.detailURL(title, id)
	b, err := p.Fetch.Get(ctx, u)
	if err != nil {
		return domain.MetadataRecord{}, providerx.Wrap(p.Name(), providerx.StageDetail, u, err)
	}
	top, err := doc.Parse(b)
	if err != nil {
		return domain.MetadataRecord{}, providerx.Wrap(p.Name(), providerx.StageDetail, u, err)
	}

	rec := domain.MetadataRecord{ID: id}
	rec.FillEmpty()

	if det, err := ParseShowDetail(top); err != nil {
		log.Warn("详情页抽取失败，跳过该步骤", "err", providerx.Wrap(p.Name(), providerx.StageDetail, u, err))
	} else {
		rec.Title = det.Title
		rec.TitleSort = det.TitleSort
		rec.Studio = det.Studio
		rec.Released = det.Released
		rec.Summary = det.Summary
		if det.Genre != "" {
			rec.Genres = []string{det.Genre}
		}
		if det.PosterURL != "" {
			rec.Posters = p.verify(ctx, []domain.Artwork{{URL: det.PosterURL, SortOrder: 1}}, log)
		}
	}

	seasons, err := p.resolveSeasons(ctx, top, req.Seasons, log)
	if err != nil {
		return domain.MetadataRecord{}, providerx.Wrap(p.Name(), providerx.StageSeason, u, err)
	}
	if len(seasons) > 0 {
		rec.Seasons = seasons
	}
	log.Info("剧集解析完成", "seasons", len(rec.Seasons), "posters", len(rec.Posters))

	rec.FillEmpty()
	return rec, nil
}

func (p Provider) verify(ctx context.Context, items []domain.Artwork, log *slog.Logger) []domain.Artwork {
	if p.Options.Prober == nil {
		return items
	}
	return artwork.Verify(ctx, p.Options.Prober, items, log)
}
