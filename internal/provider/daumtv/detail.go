package daumtv

import (
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"

	"github.com/John-Robertt/daummeta/internal/doc"
)

// ShowDetail 是节目详情页的抽取结果。
type ShowDetail struct {
	Title     string
	TitleSort string
	Genre     string
	Studio    string
	Released  string // ISO 日期
	Summary   string
	PosterURL string
}

// SeasonDetail 是单季页面的抽取结果。
type SeasonDetail struct {
	Summary   string
	PosterURL string
}

var (
	genreRE = regexp.MustCompile(`(?s)^(.*?)(?:\x{00A0}(\(.*\)))?$`)
	airedRE = regexp.MustCompile(`(\d+\.\d+\.\d+)~(\d+\.\d+\.\d+)?`)
	fnameRE = regexp.MustCompile(`fname=(.*)`)
)

const posterSel = "div.info_cont > div.wrap_thumb > a > img"

// ParseShowDetail 从节目详情页抽取字段；标题是唯一的必需字段。
func ParseShowDetail(d *goquery.Document) (ShowDetail, error) {
	root := d.Selection

	head, err := doc.Required(root, "div.tit_program > strong", "title")
	if err != nil {
		return ShowDetail{}, err
	}
	title := strings.TrimSpace(head.Text())
	if title == "" {
		return ShowDetail{}, &doc.MissingFieldError{Field: "title", Selector: "div.tit_program > strong"}
	}
	det := ShowDetail{Title: title, TitleSort: titleSort(title)}

	if dd, ok := doc.DefinitionFor(root, "장르"); ok {
		det.Genre = strings.TrimSpace(group(genreRE, strings.TrimSpace(doc.OwnText(dd))))
	}

	if summary, ok := doc.Optional(root, "div.txt_summary"); ok {
		spans := summary.ChildrenFiltered("span")
		if spans.Length() > 0 {
			det.Studio = strings.TrimSpace(spans.Eq(0).Text())
		}
		if spans.Length() > 2 {
			if m := airedRE.FindStringSubmatch(spans.Eq(2).Text()); m != nil {
				det.Released = isoDate(m[1])
			}
		}
	}

	if dd, ok := doc.DefinitionFor(root, "소개"); ok {
		det.Summary = strings.TrimSpace(doc.StripTags(strings.Join(doc.OwnLines(dd), "\n")))
	}
	det.PosterURL = posterURL(root)
	return det, nil
}

// ParseSeasonDetail 从单季页面抽取海报与简介；两者都是可选的。
func ParseSeasonDetail(d *goquery.Document) SeasonDetail {
	var s SeasonDetail
	if dd, ok := doc.DefinitionFor(d.Selection, "소개"); ok {
		s.Summary = strings.Join(doc.OwnLines(dd), "\n")
	}
	s.PosterURL = posterURL(d.Selection)
	return s
}

// posterURL 从缩略图代理地址的 fname 参数还原原图地址。
func posterURL(sel *goquery.Selection) string {
	src, ok := doc.OptionalAttr(sel, posterSel, "src")
	if !ok {
		return ""
	}
	raw := group(fnameRE, src)
	if raw == "" {
		return ""
	}
	if u, err := url.PathUnescape(raw); err == nil {
		return u
	}
	return raw
}

// titleSort 以标题首字的 NFKD 首个码点作为排序前缀（韩文音节分解为首个字母）。
func titleSort(title string) string {
	r, _ := utf8.DecodeRuneInString(title)
	if r == utf8.RuneError {
		return title
	}
	first, _ := utf8.DecodeRuneInString(norm.NFKD.String(string(r)))
	return string(first) + " " + title
}

// isoDate 把 "2015.1.9" 这类日期转为 ISO 格式；无法识别时为空。
func isoDate(s string) string {
	t, err := time.Parse("2006.1.2", s)
	if err != nil {
		return ""
	}
	return t.Format(time.DateOnly)
}
