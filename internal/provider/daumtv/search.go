package daumtv

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/John-Robertt/daummeta/internal/doc"
	"github.com/John-Robertt/daummeta/internal/domain"
)

var (
	irkRE        = regexp.MustCompile(`irk=([^&]+)`)
	irkAmpRE     = regexp.MustCompile(`irk=([^&]+)&`)
	headYearRE   = regexp.MustCompile(`(\d{4})(\.\d*\.\d*~)?`)
	seriesYearRE = regexp.MustCompile(`(\d{4})\.`)
	sameYearRE   = regexp.MustCompile(`(\d{4})\)`)
)

const sameNameLabel = "동명 콘텐츠"

// ParseSearch 从综合搜索页按固定顺序收集候选：头条节目 → 系列列表 → 同名内容。
//
// 三处来源都是可选的；缺少 id 或标题的条目被跳过，年份无法识别时为空。
// 返回的候选未打分。
func ParseSearch(d *goquery.Document) []domain.Candidate {
	coll, ok := doc.Optional(d.Selection, "#tvpColl")
	if !ok {
		return nil
	}

	var out []domain.Candidate
	add := func(id, title, year string) {
		id, title = strings.TrimSpace(id), strings.TrimSpace(title)
		if id == "" || title == "" {
			return
		}
		out = append(out, domain.Candidate{ID: id, Title: title, Year: year})
	}

	if head, ok := doc.Optional(coll, "div.head_cont"); ok {
		if a, ok := doc.Optional(head, "a.tit_info"); ok {
			href, _ := a.Attr("href")
			year := ""
			if spans := doc.All(head, "span.txt_summary"); len(spans) > 0 {
				year = group(headYearRE, spans[len(spans)-1].Text())
			}
			add(group(irkRE, href), a.Text(), year)
		}
	}

	for _, li := range doc.All(coll, "#tv_series ul > li") {
		a, ok := doc.Optional(li, "a.f_link_b")
		if !ok {
			continue
		}
		href, _ := a.Attr("href")
		year := ""
		if n, ok := doc.Optional(li, "span.f_nb"); ok {
			year = group(seriesYearRE, n.Text())
		}
		add(group(irkRE, href), a.Text(), year)
	}

	if dds, ok := sameNameDefs(coll); ok {
		years := doc.All(dds, "span.f_eb")
		for i, a := range doc.All(dds, "a.f_link") {
			href, _ := a.Attr("href")
			year := ""
			if i < len(years) {
				year = group(sameYearRE, years[i].Text())
			}
			add(group(irkAmpRE, href), a.Text(), year)
		}
	}
	return out
}

// sameNameDefs 返回“同名内容”标题之后的全部 <dd>。
func sameNameDefs(sel *goquery.Selection) (*goquery.Selection, bool) {
	var dds *goquery.Selection
	sel.Find("dt").EachWithBreak(func(_ int, dt *goquery.Selection) bool {
		if !strings.Contains(dt.Text(), sameNameLabel) {
			return true
		}
		dds = dt.NextAllFiltered("dd")
		return false
	})
	if dds == nil || dds.Length() == 0 {
		return nil, false
	}
	return dds, true
}

// group 返回 re 在 s 中第一个子匹配；无匹配时为空。
func group(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
