package daumtv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"

	"github.com/John-Robertt/daummeta/internal/doc"
	"github.com/John-Robertt/daummeta/internal/domain"
	providerx "github.com/John-Robertt/daummeta/internal/provider"
)

const base = "https://search.test"

// recordingFetcher 按 URL 返回固定页面，并记录抓取顺序。
type recordingFetcher struct {
	pages map[string]string
	calls []string
}

func (f *recordingFetcher) Get(ctx context.Context, u string) ([]byte, error) {
	f.calls = append(f.calls, u)
	b, ok := f.pages[u]
	if !ok {
		return nil, fmt.Errorf("unexpected url: %s", u)
	}
	return []byte(b), nil
}

func (f *recordingFetcher) GetJSON(ctx context.Context, u string, v any) error {
	return errors.New("not used")
}

const searchHTML = `<html><body><div id="tvpColl">
<div class="head_cont">
  <a class="tit_info" href="?w=tv&amp;q=%EB%AF%B8%EC%83%9D&amp;irk=70716&amp;irt=tv-program">미생</a>
  <span class="txt_summary">tvN</span><span class="txt_summary">2014.10.17~2014.12.20</span>
</div>
<div id="tab_content">
  <div id="tv_series"><ul>
    <li><a class="f_link_b" href="?w=tv&amp;q=x&amp;irk=111&amp;irt=tv-program">미생 프리퀄</a><span class="f_nb">2013.5.</span></li>
    <li><a class="f_link_b" href="?w=tv&amp;q=y">아이디 없음</a><span class="f_nb">2012.1.</span></li>
    <li><span class="f_nb">2011.</span></li>
  </ul></div>
  <dl>
    <dt>동명 콘텐츠 <span>2</span></dt>
    <dd>
      <a class="f_link" href="?w=tv&amp;irk=222&amp;irt=x">미생 (웹툰)</a><span class="f_eb">(웹툰, 2012)</span>
      <a class="f_link" href="?w=tv&amp;irk=333&amp;irt=x">미생 (드라마)</a><span class="f_eb">(미상)</span>
    </dd>
  </dl>
</div>
</div></body></html>`

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	d, err := doc.Parse([]byte(html))
	if err != nil {
		t.Fatalf("解析 HTML 失败：%v", err)
	}
	return d
}

func TestParseSearch_ThreeSources(t *testing.T) {
	got := ParseSearch(parseDoc(t, searchHTML))
	want := []domain.Candidate{
		{ID: "70716", Title: "미생", Year: "2014"},
		{ID: "111", Title: "미생 프리퀄", Year: "2013"},
		{ID: "222", Title: "미생 (웹툰)", Year: "2012"},
		{ID: "333", Title: "미생 (드라마)", Year: ""},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("候选不一致（-want +got）：\n%s", diff)
	}
}

func TestParseSearch_MissingSections(t *testing.T) {
	if got := ParseSearch(parseDoc(t, `<html><body><p>검색결과 없음</p></body></html>`)); len(got) != 0 {
		t.Fatalf("期望无候选，实际 %v", got)
	}
	only := `<div id="tvpColl"><div class="head_cont"><a class="tit_info" href="?irk=9">단막극</a></div></div>`
	want := []domain.Candidate{{ID: "9", Title: "단막극", Year: ""}}
	if diff := cmp.Diff(want, ParseSearch(parseDoc(t, only))); diff != "" {
		t.Fatalf("候选不一致（-want +got）：\n%s", diff)
	}
}

func TestSearch_ScoresInSourceOrder(t *testing.T) {
	p := Provider{BaseURL: base}
	f := &recordingFetcher{pages: map[string]string{p.searchURL("미생"): searchHTML}}
	p.Fetch = f

	got, err := p.Search(context.Background(), domain.Query{Name: " 미생 ", Year: 2014, Kind: domain.KindShow})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	var ids []string
	var scores []int
	for _, c := range got {
		ids = append(ids, c.ID)
		scores = append(scores, c.Score)
	}
	if diff := cmp.Diff([]string{"70716", "111", "222", "333"}, ids); diff != "" {
		t.Fatalf("顺序不一致：\n%s", diff)
	}
	// 미생 vs 미생 프리퀄：2*2/(2+6)=0.5 → 7；미생 (웹툰)：4/9 → 6；미생 (드라마)：4/10 → 6
	if diff := cmp.Diff([]int{100, 17, 16, 16}, scores); diff != "" {
		t.Fatalf("得分不一致：\n%s", diff)
	}
}

func TestSearch_TransportError(t *testing.T) {
	p := Provider{BaseURL: base, Fetch: &recordingFetcher{}}
	_, err := p.Search(context.Background(), domain.Query{Name: "미생"})
	var pe *providerx.Error
	if !errors.As(err, &pe) || pe.Stage != providerx.StageSearch || pe.Provider != "daum-tv" {
		t.Fatalf("期望 search 阶段的 provider.Error，实际 %v", err)
	}
}

func showHTML(title string, series ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body>`)
	if title != "" {
		b.WriteString(`<div class="tit_program"><strong>` + title + `</strong></div>`)
	}
	b.WriteString(`<div class="txt_summary"><span>tvN</span><span>20부작</span><span>2014.10.17~2014.12.20</span></div>`)
	b.WriteString(`<dl><dt>장르</dt><dd>드라마&nbsp;(한국)</dd><dt>소개</dt><dd>  바둑이 인생의 전부였던 장그래  </dd></dl>`)
	b.WriteString(`<div class="info_cont"><div class="wrap_thumb"><a href="#"><img src="https://thumb.test/C232x336?fname=http%3A%2F%2Fimg.test%2Fposter.jpg"></a></div></div>`)
	b.WriteString(`<div id="series"><ul>`)
	for _, href := range series {
		b.WriteString(`<li><a class="f_link_b" href="` + href + `">시즌</a></li>`)
	}
	b.WriteString(`</ul></div></body></html>`)
	return b.String()
}

func seasonHTML(summary, fname string) string {
	return `<html><body><dl><dt>소개</dt><dd>  ` + summary + ` <b>강조</b></dd></dl>` +
		`<div class="info_cont"><div class="wrap_thumb"><a><img src="https://thumb.test/x?fname=` + fname + `"></a></div></div></body></html>`
}

func TestParseShowDetail(t *testing.T) {
	got, err := ParseShowDetail(parseDoc(t, showHTML("미생")))
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	want := ShowDetail{
		Title:     "미생",
		TitleSort: "\u1106 미생",
		Genre:     "드라마",
		Studio:    "tvN",
		Released:  "2014-10-17",
		Summary:   "바둑이 인생의 전부였던 장그래",
		PosterURL: "http://img.test/poster.jpg",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ShowDetail 不一致（-want +got）：\n%s", diff)
	}
}

func TestParseShowDetail_StripsTagsInSummary(t *testing.T) {
	html := `<div class="tit_program"><strong>Misaeng</strong></div><dl><dt>소개</dt><dd>&lt;b&gt;장그래&lt;/b&gt;의 이야기</dd></dl>`
	got, err := ParseShowDetail(parseDoc(t, html))
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if got.Summary != "장그래의 이야기" {
		t.Fatalf("summary=%q", got.Summary)
	}
	if got.TitleSort != "M Misaeng" {
		t.Fatalf("title_sort=%q", got.TitleSort)
	}
	if got.Genre != "" || got.Studio != "" || got.Released != "" || got.PosterURL != "" {
		t.Fatalf("可选字段应保持默认值：%+v", got)
	}
}

func TestParseShowDetail_MultilineDefinitions(t *testing.T) {
	html := `<div class="tit_program"><strong>미생</strong></div><dl>
<dt>장르</dt><dd>
  드라마 (20부작)
</dd>
<dt>소개</dt><dd>
  첫줄<br>둘째줄
</dd></dl>`
	got, err := ParseShowDetail(parseDoc(t, html))
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if got.Genre != "드라마 (20부작)" {
		t.Fatalf("genre=%q", got.Genre)
	}
	if got.Summary != "첫줄\n둘째줄" {
		t.Fatalf("summary=%q", got.Summary)
	}

	nbsp := `<dl><dt>장르</dt><dd>
  드라마&nbsp;(한국)
</dd><dt>소개</dt><dd>시즌 2<br>후반부</dd></dl>`
	got, err = ParseShowDetail(parseDoc(t, `<div class="tit_program"><strong>미생</strong></div>`+nbsp))
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if got.Genre != "드라마" {
		t.Fatalf("genre=%q", got.Genre)
	}
	if s := ParseSeasonDetail(parseDoc(t, nbsp)); s.Summary != "시즌 2\n후반부" {
		t.Fatalf("season summary=%q", s.Summary)
	}
}

func TestParseShowDetail_MissingTitle(t *testing.T) {
	_, err := ParseShowDetail(parseDoc(t, showHTML("")))
	if !errors.Is(err, doc.ErrMissing) {
		t.Fatalf("期望 ErrMissing，实际 %v", err)
	}
}

func TestChainLinks_Mapping(t *testing.T) {
	d := parseDoc(t, showHTML("미생",
		"?w=tv&amp;q=%EB%AF%B8%EC%83%9D4&amp;irk=404&amp;irt=tv-program",
		"?w=tv&amp;q=broken",
		"?w=tv&amp;q=%EB%AF%B8%EC%83%9D2&amp;irk=202&amp;irt=tv-program",
	))
	got := ChainLinks(d)
	want := map[int]SeasonLink{
		4: {Name: "미생4", ID: "404"},
		2: {Name: "미생2", ID: "202"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("季链接不一致（-want +got）：\n%s", diff)
	}
}

func TestUpdate_SeasonChain(t *testing.T) {
	p := Provider{BaseURL: base}
	top := showHTML("미생",
		"?w=tv&amp;q=%EB%AF%B8%EC%83%9D4&amp;irk=404&amp;irt=tv-program",
		"?w=tv&amp;q=%EB%AF%B8%EC%83%9D3&amp;irk=303&amp;irt=tv-program",
		"?w=tv&amp;q=%EB%AF%B8%EC%83%9D2&amp;irk=202&amp;irt=tv-program",
	)
	f := &recordingFetcher{pages: map[string]string{
		p.detailURL("미생", "70716"): top,
		p.detailURL("미생3", "303"):  seasonHTML("시즌 3", "http%3A%2F%2Fimg.test%2Fs3.jpg"),
		p.detailURL("미생4", "404"):  seasonHTML("시즌 4", "http%3A%2F%2Fimg.test%2Fs4.jpg"),
	}}
	p.Fetch = f

	// 季 3 对应第 N-3+2=2 个链接；季 5 > N+1 被静默跳过；季 0 不参与。
	got, err := p.Update(context.Background(), domain.UpdateRequest{
		ID:      "70716",
		Title:   "미생",
		Seasons: []string{"5", "4", "0", "1", "3"},
	})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	want := domain.SeasonMap{
		"1": {Summary: "바둑이 인생의 전부였던 장그래", Posters: []domain.Artwork{{URL: "http://img.test/poster.jpg", SortOrder: 1}}},
		"3": {Summary: "시즌 3", Posters: []domain.Artwork{{URL: "http://img.test/s3.jpg", SortOrder: 1}}},
		"4": {Summary: "시즌 4", Posters: []domain.Artwork{{URL: "http://img.test/s4.jpg", SortOrder: 1}}},
	}
	if diff := cmp.Diff(want, got.Seasons); diff != "" {
		t.Fatalf("季信息不一致（-want +got）：\n%s", diff)
	}

	// 顶层页面之后按季号升序抓取。
	wantCalls := []string{p.detailURL("미생", "70716"), p.detailURL("미생3", "303"), p.detailURL("미생4", "404")}
	if diff := cmp.Diff(wantCalls, f.calls); diff != "" {
		t.Fatalf("抓取顺序不一致（-want +got）：\n%s", diff)
	}
}

func TestUpdate_ShowRecord(t *testing.T) {
	p := Provider{BaseURL: base}
	p.Fetch = &recordingFetcher{pages: map[string]string{p.detailURL("미생", "70716"): showHTML("미생")}}

	got, err := p.Update(context.Background(), domain.UpdateRequest{ID: "70716", Title: "미생"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	want := domain.MetadataRecord{
		ID:        "70716",
		Title:     "미생",
		TitleSort: "\u1106 미생",
		Studio:    "tvN",
		Released:  "2014-10-17",
		Summary:   "바둑이 인생의 전부였던 장그래",
		Genres:    []string{"드라마"},
		Countries: []string{},
		Directors: []domain.Person{},
		Producers: []domain.Person{},
		Writers:   []domain.Person{},
		Roles:     []domain.Role{},
		Posters:   []domain.Artwork{{URL: "http://img.test/poster.jpg", SortOrder: 1}},
		Art:       []domain.Artwork{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("记录不一致（-want +got）：\n%s", diff)
	}
}

func TestUpdate_SeasonFetchFailureIsSkipped(t *testing.T) {
	p := Provider{BaseURL: base}
	p.Fetch = &recordingFetcher{pages: map[string]string{
		p.detailURL("미생", "70716"): showHTML("미생", "?w=tv&amp;q=%EB%AF%B8%EC%83%9D2&amp;irk=202&amp;irt=tv-program"),
	}}
	got, err := p.Update(context.Background(), domain.UpdateRequest{ID: "70716", Title: "미생", Seasons: []string{"2"}})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(got.Seasons) != 0 {
		t.Fatalf("抓取失败的季应被跳过：%v", got.Seasons)
	}
}

func TestUpdate_MissingTitleStillResolvesSeasons(t *testing.T) {
	p := Provider{BaseURL: base}
	p.Fetch = &recordingFetcher{pages: map[string]string{p.detailURL("미생", "70716"): showHTML("")}}

	got, err := p.Update(context.Background(), domain.UpdateRequest{ID: "70716", Title: "미생", Seasons: []string{"1"}})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if got.Title != "" || len(got.Posters) != 0 {
		t.Fatalf("详情失败时不应写入详情字段：%+v", got)
	}
	if _, ok := got.Seasons["1"]; !ok {
		t.Fatalf("季 1 应照常解析：%v", got.Seasons)
	}
}

func TestUpdate_Errors(t *testing.T) {
	p := Provider{BaseURL: base, Fetch: &recordingFetcher{}}
	ctx := context.Background()

	if _, err := p.Update(ctx, domain.UpdateRequest{ID: "70716"}); err == nil {
		t.Fatalf("期望缺少 title 报错")
	}
	_, err := p.Update(ctx, domain.UpdateRequest{ID: "70716", Title: "미생"})
	var pe *providerx.Error
	if !errors.As(err, &pe) || pe.Stage != providerx.StageDetail {
		t.Fatalf("期望 detail 阶段的 provider.Error，实际 %v", err)
	}
}

func TestUpdate_CanceledContext(t *testing.T) {
	p := Provider{BaseURL: base}
	p.Fetch = &recordingFetcher{pages: map[string]string{p.detailURL("미생", "70716"): showHTML("미생")}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Update(ctx, domain.UpdateRequest{ID: "70716", Title: "미생", Seasons: []string{"1"}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("期望 context.Canceled，实际 %v", err)
	}
}
