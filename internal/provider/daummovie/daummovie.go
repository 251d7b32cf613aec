package daummovie

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/John-Robertt/daummeta/internal/artwork"
	"github.com/John-Robertt/daummeta/internal/credits"
	"github.com/John-Robertt/daummeta/internal/doc"
	"github.com/John-Robertt/daummeta/internal/domain"
	"github.com/John-Robertt/daummeta/internal/match"
	providerx "github.com/John-Robertt/daummeta/internal/provider"
)

// Provider 实现 Daum 电影的搜索与详情抽取。
//
// 约束：
// - 搜索、演职员、照片走 JSON 接口；详情走 HTML 页面
// - 详情页是隔离边界：抓取或必需字段失败只记 WARN，演职员与图片照常进行
// - 演职员/照片接口失败是整步失败，Update 返回 *provider.Error
// - 不做缓存/重试（由 Fetcher 统一控制）
type Provider struct {
	Fetch   providerx.Fetcher
	Options providerx.Options
	Log     *slog.Logger

	// BaseURL 为空时使用 http://movie.daum.net。
	BaseURL string
}

func (Provider) Name() string { return "daum-movie" }

func (Provider) Kind() domain.Kind { return domain.KindMovie }

func (p Provider) baseURL() string {
	u := strings.TrimSpace(p.BaseURL)
	if u == "" {
		return "http://movie.daum.net"
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
	return p.baseURL() + "/data/movie/search/v2/movie.json?size=20&start=1&searchText=" + url.QueryEscape(name)
}

func (p Provider) detailURL(id string) string {
	return p.baseURL() + "/moviedb/main?movieId=" + url.QueryEscape(id)
}

func (p Provider) castURL(id string) string {
	return p.baseURL() + "/data/movie/movie_info/cast_crew.json?pageNo=1&pageSize=100&movieId=" + url.QueryEscape(id)
}

func (p Provider) photoURL(id string) string {
	return p.baseURL() + "/data/movie/photo/movie/list.json?pageNo=1&pageSize=200&id=" + url.QueryEscape(id)
}

// Search 查询站点电影目录，按源顺序返回全部已打分候选。
func (p Provider) Search(ctx context.Context, q domain.Query) ([]domain.Candidate, error) {
	if p.Fetch == nil {
		return nil, errors.New("fetcher 不能为空")
	}
	name := match.NormalizeQuery(q.Name)
	if name == "" {
		return nil, errors.New("查询名不能为空")
	}

	u := p.searchURL(name)
	var resp searchResponse
	if err := p.Fetch.GetJSON(ctx, u, &resp); err != nil {
		return nil, providerx.Wrap(p.Name(), providerx.StageSearch, u, err)
	}

	entries := make([]domain.Candidate, 0, len(resp.Data))
	for _, it := range resp.Data {
		id := string(it.MovieID)
		if id == "" {
			continue
		}
		entries = append(entries, domain.Candidate{
			ID:    id,
			Title: strings.TrimSpace(doc.StripTags(it.TitleKo)),
			Year:  yearText(string(it.ProdYear)),
		})
	}

	cands := p.Options.Scorer.Rank(q, entries)
	log := p.logger()
	for _, c := range cands {
		log.Debug("搜索候选", "provider", p.Name(), "id", c.ID, "title", c.Title, "year", c.Year, "score", c.Score)
	}
	return cands, nil
}

// Update 从零构建一条电影元数据。
func (p Provider) Update(ctx context.Context, req domain.UpdateRequest) (domain.MetadataRecord, error) {
	if p.Fetch == nil {
		return domain.MetadataRecord{}, errors.New("fetcher 不能为空")
	}
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return domain.MetadataRecord{}, errors.New("id 不能为空")
	}
	log := p.logger().With("provider", p.Name(), "id", id)
	rec := domain.MetadataRecord{ID: id}

	poster := ""
	if det, err := p.detail(ctx, id); err != nil {
		log.Warn("详情页抽取失败，跳过该步骤", "err", err)
	} else {
		applyDetail(&rec, det)
		poster = det.PosterURL
	}

	castURL := p.castURL(id)
	var cast castResponse
	if err := p.Fetch.GetJSON(ctx, castURL, &cast); err != nil {
		return domain.MetadataRecord{}, providerx.Wrap(p.Name(), providerx.StageCast, castURL, err)
	}
	credits.Apply(&rec, credits.Classify(cast.entries()))

	photoURL := p.photoURL(id)
	var photos photoResponse
	if err := p.Fetch.GetJSON(ctx, photoURL, &photos); err != nil {
		return domain.MetadataRecord{}, providerx.Wrap(p.Name(), providerx.StagePhoto, photoURL, err)
	}
	sel := artwork.Select(photos.photos(), p.Options.Limits, poster)
	if p.Options.Prober != nil {
		sel.Posters = artwork.Verify(ctx, p.Options.Prober, sel.Posters, log)
		sel.Art = artwork.Verify(ctx, p.Options.Prober, sel.Art, log)
	}
	rec.Posters, rec.Art = sel.Posters, sel.Art
	log.Info("图片挑选完成", "posters", len(rec.Posters), "art", len(rec.Art))

	rec.FillEmpty()
	return rec, nil
}

func (p Provider) detail(ctx context.Context, id string) (Detail, error) {
	u := p.detailURL(id)
	b, err := p.Fetch.Get(ctx, u)
	if err != nil {
		return Detail{}, providerx.Wrap(p.Name(), providerx.StageDetail, u, err)
	}
	d, err := doc.Parse(b)
	if err != nil {
		return Detail{}, providerx.Wrap(p.Name(), providerx.StageDetail, u, err)
	}
	det, err := ParseDetail(d, p.Options.RatingSystem)
	if err != nil {
		return Detail{}, providerx.Wrap(p.Name(), providerx.StageDetail, u, err)
	}
	return det, nil
}

func applyDetail(rec *domain.MetadataRecord, det Detail) {
	rec.Title = det.Title
	rec.Year = det.Year
	rec.OriginalTitle = det.OriginalTitle
	rec.Rating = det.Rating
	rec.Genres = credits.Replace(rec.Genres, det.Genres)
	rec.Countries = credits.Replace(rec.Countries, det.Countries)
	rec.Released = det.Released
	rec.DurationMin = det.DurationMin
	rec.ContentRating = det.ContentRating
	rec.Summary = det.Summary
}

// yearText 把站点年份规整为 4 位年份文本；无法识别时为空。
func yearText(s string) string {
	s = strings.TrimSpace(s)
	if len(s) != 4 || s == "0000" {
		return ""
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return s
}
