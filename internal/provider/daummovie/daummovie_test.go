package daummovie

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/John-Robertt/daummeta/internal/artwork"
	"github.com/John-Robertt/daummeta/internal/doc"
	"github.com/John-Robertt/daummeta/internal/domain"
	providerx "github.com/John-Robertt/daummeta/internal/provider"
	"github.com/John-Robertt/daummeta/internal/rating"
)

const base = "http://movie.test"

type stubFetcher map[string]string

func (s stubFetcher) Get(ctx context.Context, u string) ([]byte, error) {
	b, ok := s[u]
	if !ok {
		return nil, fmt.Errorf("unexpected url: %s", u)
	}
	return []byte(b), nil
}

func (s stubFetcher) GetJSON(ctx context.Context, u string, v any) error {
	b, err := s.Get(ctx, u)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

type failProber map[string]bool

func (f failProber) Probe(ctx context.Context, u string) error {
	if f[u] {
		return errors.New("broken")
	}
	return nil
}

func movieHTML(title string, dds ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="subject_movie">`)
	if title != "" {
		b.WriteString(`<strong class="tit_movie">` + title + `</strong>`)
	}
	b.WriteString(`<span class="txt_movie">Inception</span><a href="#"><em class="emph_grade">9.1</em></a></div>`)
	b.WriteString(`<dl class="list_movie">`)
	for _, dd := range dds {
		b.WriteString("<dd>" + dd + "</dd>")
	}
	b.WriteString(`</dl>`)
	b.WriteString(`<div class="desc_movie"><p>꿈 속에서<br>  생각을 훔친다 <b>코브</b></p></div>`)
	b.WriteString(`<img class="img_summary" src="http://img.test/summary.jpg">`)
	b.WriteString(`</body></html>`)
	return b.String()
}

func parse(t *testing.T, html string, sys rating.System) (Detail, error) {
	t.Helper()
	d, err := doc.Parse([]byte(html))
	if err != nil {
		t.Fatalf("解析 HTML 失败：%v", err)
	}
	return ParseDetail(d, sys)
}

func TestParseDetail_Full(t *testing.T) {
	html := movieHTML("인셉션 (2010)", "액션/SF/ 드라마", "미국, 영국", "2010.07.21 개봉", "2015.01.21 (재개봉)", "147분, 12세이상관람가")
	got, err := parse(t, html, rating.KMRB)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	r := 9.1
	want := Detail{
		Title:         "인셉션",
		Year:          2010,
		OriginalTitle: "Inception",
		Rating:        &r,
		Genres:        []string{"액션", "SF", "드라마"},
		Countries:     []string{"미국", "영국"},
		Released:      "2010-07-21",
		DurationMin:   147,
		ContentRating: "kr/12",
		Summary:       "꿈 속에서\n생각을 훔친다\n코브",
		PosterURL:     "http://img.test/summary.jpg",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Detail 不一致（-want +got）：\n%s", diff)
	}
}

func TestParseDetail_CursorAlignment(t *testing.T) {
	// 没有上映/重映片段时，片长仍然对齐到第三个 <dd>。
	got, err := parse(t, movieHTML("인셉션 (2010)", "드라마", "한국", "120분, 15세이상관람가"), rating.KMRB)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if got.Released != "" {
		t.Fatalf("Released=%q, want 空", got.Released)
	}
	if got.DurationMin != 120 || got.ContentRating != "kr/15" {
		t.Fatalf("duration=%d rating=%q", got.DurationMin, got.ContentRating)
	}

	// 片长片段不带分级注记。
	got, err = parse(t, movieHTML("인셉션 (2010)", "드라마", "한국", "2010.07.21 개봉", "99분"), rating.KMRB)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if got.Released != "2010-07-21" || got.DurationMin != 99 || got.ContentRating != "" {
		t.Fatalf("released=%q duration=%d rating=%q", got.Released, got.DurationMin, got.ContentRating)
	}

	// 无法识别的片段不被消费，后续字段不会错位成它。
	got, err = parse(t, movieHTML("인셉션 (2010)", "드라마", "한국", "기타 정보", "99분"), rating.KMRB)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if got.DurationMin != 0 {
		t.Fatalf("duration=%d, want 0", got.DurationMin)
	}
}

func TestParseDetail_RereleaseDiscarded(t *testing.T) {
	got, err := parse(t, movieHTML("인셉션 (2010)", "SF", "미국", "2015.01.21 (재개봉)", "147분"), rating.KMRB)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if got.Released != "" {
		t.Fatalf("重映日期不应写入 Released：%q", got.Released)
	}
	if got.DurationMin != 147 {
		t.Fatalf("duration=%d", got.DurationMin)
	}
}

func TestParseDetail_ContentRatingSystems(t *testing.T) {
	cases := []struct {
		dd   string
		sys  rating.System
		want string
	}{
		{dd: "147분, 15세이상관람가", sys: rating.MPAA, want: "PG-13"},
		{dd: "147분, 15세이상관람가", sys: rating.KMRB, want: "kr/15"},
		{dd: "147분, 미국 PG-13 등급", sys: rating.KMRB, want: "PG-13"},
		{dd: "147분, 등급보류", sys: rating.MPAA, want: "kr/등급보류"},
	}
	for _, tc := range cases {
		got, err := parse(t, movieHTML("인셉션 (2010)", "SF", "미국", tc.dd), tc.sys)
		if err != nil {
			t.Fatalf("不期望错误：%v", err)
		}
		if got.ContentRating != tc.want {
			t.Fatalf("dd=%q sys=%s: got %q, want %q", tc.dd, tc.sys, got.ContentRating, tc.want)
		}
	}
}

func TestParseDetail_MissingTitle(t *testing.T) {
	for _, title := range []string{"", "제목만 있음"} {
		_, err := parse(t, movieHTML(title, "SF"), rating.KMRB)
		if !errors.Is(err, doc.ErrMissing) {
			t.Fatalf("title=%q: 期望 ErrMissing，实际 %v", title, err)
		}
	}
}

func TestParseDetail_Idempotent(t *testing.T) {
	d, err := doc.Parse([]byte(movieHTML("인셉션 (2010)", "액션/SF", "미국", "2010.07.21 개봉", "147분, 12세이상관람가")))
	if err != nil {
		t.Fatalf("解析 HTML 失败：%v", err)
	}
	a, err := ParseDetail(d, rating.MPAA)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	b, err := ParseDetail(d, rating.MPAA)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("两次抽取结果不同：\n%s", diff)
	}
}

func TestSearch_ExactSingleResult(t *testing.T) {
	p := Provider{BaseURL: base, Fetch: stubFetcher{
		base + "/data/movie/search/v2/movie.json?size=20&start=1&searchText=%EC%9D%B8%EC%85%89%EC%85%98": `{"data":[{"movieId":61203,"titleKo":"<b>인셉션</b>","prodYear":2010}]}`,
	}}
	got, err := p.Search(context.Background(), domain.Query{Name: "인셉션", Year: 2010, Kind: domain.KindMovie})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	want := []domain.Candidate{{ID: "61203", Title: "인셉션", Year: "2010", Score: 100}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("候选不一致（-want +got）：\n%s", diff)
	}
}

func TestSearch_SourceOrderAndBlankYear(t *testing.T) {
	p := Provider{BaseURL: base, Fetch: stubFetcher{
		base + "/data/movie/search/v2/movie.json?size=20&start=1&searchText=abc": `{"data":[
			{"movieId":"1","titleKo":"xyz","prodYear":"1999"},
			{"movieId":"2","titleKo":"abc","prodYear":null},
			{"movieId":"","titleKo":"abc","prodYear":2000}
		]}`,
	}}
	got, err := p.Search(context.Background(), domain.Query{Name: "abc", Year: 2000, Kind: domain.KindMovie})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	want := []domain.Candidate{
		{ID: "1", Title: "xyz", Year: "1999", Score: 10},
		{ID: "2", Title: "abc", Year: "", Score: 25},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("候选不一致（-want +got）：\n%s", diff)
	}
}

func TestSearch_TransportError(t *testing.T) {
	p := Provider{BaseURL: base, Fetch: stubFetcher{}}
	_, err := p.Search(context.Background(), domain.Query{Name: "abc"})
	var pe *providerx.Error
	if !errors.As(err, &pe) || pe.Stage != providerx.StageSearch {
		t.Fatalf("期望 search 阶段的 provider.Error，实际 %v", err)
	}
}

const castJSON = `{"data":[
	{"castcrew":{"castcrewCastName":"감독","castcrewTitleKo":""},"nameKo":"크리스토퍼 놀란","nameEn":"Christopher Nolan","photo":{"fullname":"http://img.test/nolan.jpg"}},
	{"castcrew":{"castcrewCastName":"주연","castcrewTitleKo":"코브"},"nameKo":"","nameEn":"Leonardo DiCaprio","photo":{"fullname":""}},
	{"castcrew":{"castcrewCastName":"촬영","castcrewTitleKo":""},"nameKo":"월리 피스터","nameEn":"","photo":{"fullname":""}}
]}`

const photoJSON = `{"data":[
	{"photoCategory":"1","fullname":"http://img.test/p1.jpg","thumbnail":"http://img.test/p1_t.jpg"},
	{"photoCategory":2,"fullname":"http://img.test/a1.jpg","thumbnail":"http://img.test/a1_t.jpg"},
	{"photoCategory":"1","fullname":"","thumbnail":"http://img.test/empty_t.jpg"},
	{"photoCategory":"1","fullname":"http://img.test/p2.jpg","thumbnail":"http://img.test/p2_t.jpg"},
	{"photoCategory":"1","fullname":"http://img.test/p3.jpg","thumbnail":"http://img.test/p3_t.jpg"},
	{"photoCategory":"3","fullname":"http://img.test/x.jpg","thumbnail":""}
]}`

func movieFixtures(detail, photos string) stubFetcher {
	return stubFetcher{
		base + "/moviedb/main?movieId=61203":                                          detail,
		base + "/data/movie/movie_info/cast_crew.json?pageNo=1&pageSize=100&movieId=61203": castJSON,
		base + "/data/movie/photo/movie/list.json?pageNo=1&pageSize=200&id=61203":         photos,
	}
}

func TestUpdate_Full(t *testing.T) {
	p := Provider{
		BaseURL: base,
		Fetch:   movieFixtures(movieHTML("인셉션 (2010)", "액션/SF", "미국, 영국", "2010.07.21 개봉", "147분, 15세이상관람가"), photoJSON),
		Options: providerx.Options{
			RatingSystem: rating.MPAA,
			Limits:       artwork.Limits{MaxPosters: 2, MaxArt: 10},
		},
	}
	got, err := p.Update(context.Background(), domain.UpdateRequest{ID: "61203"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	r := 9.1
	want := domain.MetadataRecord{
		ID:            "61203",
		Title:         "인셉션",
		OriginalTitle: "Inception",
		Year:          2010,
		Rating:        &r,
		DurationMin:   147,
		ContentRating: "PG-13",
		Summary:       "꿈 속에서\n생각을 훔친다\n코브",
		Released:      "2010-07-21",
		Genres:        []string{"액션", "SF"},
		Countries:     []string{"미국", "영국"},
		Directors:     []domain.Person{{Name: "크리스토퍼 놀란", Photo: "http://img.test/nolan.jpg"}},
		Producers:     []domain.Person{},
		Writers:       []domain.Person{},
		Roles:         []domain.Role{{Role: "코브", Name: "Leonardo DiCaprio"}},
		Posters: []domain.Artwork{
			{URL: "http://img.test/p1.jpg", PreviewURL: "http://img.test/p1_t.jpg", SortOrder: 1},
			{URL: "http://img.test/p2.jpg", PreviewURL: "http://img.test/p2_t.jpg", SortOrder: 2},
		},
		Art: []domain.Artwork{
			{URL: "http://img.test/a1.jpg", PreviewURL: "http://img.test/a1_t.jpg", SortOrder: 1},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("记录不一致（-want +got）：\n%s", diff)
	}
}

func TestUpdate_DetailFailureStillRunsCastAndPhotos(t *testing.T) {
	p := Provider{
		BaseURL: base,
		Fetch:   movieFixtures(movieHTML("", "SF"), `{"data":[]}`),
		Options: providerx.Options{Limits: artwork.Limits{MaxPosters: 5, MaxArt: 10}},
	}
	got, err := p.Update(context.Background(), domain.UpdateRequest{ID: "61203"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if got.Title != "" || len(got.Genres) != 0 {
		t.Fatalf("详情失败时不应写入详情字段：%+v", got)
	}
	if len(got.Directors) != 1 || len(got.Roles) != 1 {
		t.Fatalf("演职员应照常写入：%+v %+v", got.Directors, got.Roles)
	}
	// 详情失败时没有简介海报可兜底。
	if len(got.Posters) != 0 {
		t.Fatalf("posters=%v", got.Posters)
	}
}

func TestUpdate_FallbackPoster(t *testing.T) {
	p := Provider{
		BaseURL: base,
		Fetch:   movieFixtures(movieHTML("인셉션 (2010)", "SF"), `{"data":[{"photoCategory":"2","fullname":"http://img.test/a1.jpg","thumbnail":""}]}`),
		Options: providerx.Options{Limits: artwork.Limits{MaxPosters: 5, MaxArt: 10}},
	}
	got, err := p.Update(context.Background(), domain.UpdateRequest{ID: "61203"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	want := []domain.Artwork{{URL: "http://img.test/summary.jpg", SortOrder: 1}}
	if diff := cmp.Diff(want, got.Posters); diff != "" {
		t.Fatalf("posters 不一致（-want +got）：\n%s", diff)
	}
}

func TestUpdate_VerifyDropsBrokenImages(t *testing.T) {
	p := Provider{
		BaseURL: base,
		Fetch:   movieFixtures(movieHTML("인셉션 (2010)", "SF"), photoJSON),
		Options: providerx.Options{
			Limits: artwork.Limits{MaxPosters: 5, MaxArt: 10},
			Prober: failProber{"http://img.test/p2_t.jpg": true},
		},
	}
	got, err := p.Update(context.Background(), domain.UpdateRequest{ID: "61203"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	var urls []string
	for _, a := range got.Posters {
		urls = append(urls, a.URL)
	}
	want := []string{"http://img.test/p1.jpg", "http://img.test/p3.jpg"}
	if diff := cmp.Diff(want, urls); diff != "" {
		t.Fatalf("posters 不一致（-want +got）：\n%s", diff)
	}
}

func TestUpdate_CastFailureIsTerminal(t *testing.T) {
	f := movieFixtures(movieHTML("인셉션 (2010)", "SF"), photoJSON)
	delete(f, base+"/data/movie/movie_info/cast_crew.json?pageNo=1&pageSize=100&movieId=61203")
	p := Provider{BaseURL: base, Fetch: f}

	_, err := p.Update(context.Background(), domain.UpdateRequest{ID: "61203"})
	var pe *providerx.Error
	if !errors.As(err, &pe) {
		t.Fatalf("期望 provider.Error，实际 %v", err)
	}
	if pe.Provider != "daum-movie" || pe.Stage != providerx.StageCast {
		t.Fatalf("provider=%q stage=%q", pe.Provider, pe.Stage)
	}
}

func TestUpdate_RequiresID(t *testing.T) {
	p := Provider{BaseURL: base, Fetch: stubFetcher{}}
	if _, err := p.Update(context.Background(), domain.UpdateRequest{ID: "  "}); err == nil {
		t.Fatalf("期望空 id 报错")
	}
}
