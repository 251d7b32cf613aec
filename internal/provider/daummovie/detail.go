package daummovie

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/John-Robertt/daummeta/internal/doc"
	"github.com/John-Robertt/daummeta/internal/rating"
)

// Detail 是电影详情页的抽取结果（纯数据，不含演职员与图片）。
type Detail struct {
	Title         string
	Year          int
	OriginalTitle string
	Rating        *float64

	Genres        []string
	Countries     []string
	Released      string // ISO 日期
	DurationMin   int
	ContentRating string

	Summary   string
	PosterURL string // 简介区海报，照片列表无海报时作为兜底
}

var (
	titleRE     = regexp.MustCompile(`(.*?) \((\d{4})\)`)
	releaseRE   = regexp.MustCompile(`(\d{4}\.\d{2}\.\d{2})\s*개봉`)
	rereleaseRE = regexp.MustCompile(`(\d{4}\.\d{2}\.\d{2})\s*\(재개봉\)`)
	durationRE  = regexp.MustCompile(`(\d+)분(?:, (.*?)\s*$)?`)
)

const (
	titleSelector = "div.subject_movie > strong"
	ddSelector    = "dl.list_movie > dd"
)

// ParseDetail 从详情页文档抽取字段。
//
// 标题是唯一的必需字段：缺失或格式无法识别时返回 doc.ErrMissing，其它字段缺失只留默认值。
// <dd> 序列按位置对应 类型 → 国家 → 上映 → 重映 → 片长/分级，用 doc.Cursor 逐个消费。
// 纯函数：同一文档多次调用结果一致。
func ParseDetail(d *goquery.Document, sys rating.System) (Detail, error) {
	root := d.Selection

	head, err := doc.Required(root, titleSelector, "title")
	if err != nil {
		return Detail{}, err
	}
	m := titleRE.FindStringSubmatch(head.Text())
	if m == nil {
		return Detail{}, fmt.Errorf("标题格式无法识别（%q）：%w", strings.TrimSpace(head.Text()), doc.ErrMissing)
	}
	year, _ := strconv.Atoi(m[2])
	det := Detail{Title: strings.TrimSpace(m[1]), Year: year}

	if n, ok := doc.Optional(root, "span.txt_movie"); ok {
		det.OriginalTitle = strings.TrimSpace(n.Text())
	}
	if n, ok := doc.Optional(root, "div.subject_movie > a > em"); ok {
		if v, err := strconv.ParseFloat(strings.TrimSpace(n.Text()), 64); err == nil {
			det.Rating = &v
		}
	}

	var frags []string
	for _, dd := range doc.All(root, ddSelector) {
		frags = append(frags, doc.OwnText(dd))
	}
	cur := doc.NewCursor(frags)

	if s, ok := cur.Next(); ok {
		det.Genres = splitList(s, "/")
	}
	if s, ok := cur.Next(); ok {
		det.Countries = splitList(s, ",")
	}
	if m, ok := cur.ConsumeIf(releaseRE); ok {
		if t, err := time.Parse("2006.01.02", m[1]); err == nil {
			det.Released = t.Format(time.DateOnly)
		}
	}
	// 重映日期只占位，不写入记录。
	cur.ConsumeIf(rereleaseRE)
	if m, ok := cur.ConsumeIf(durationRE); ok {
		det.DurationMin, _ = strconv.Atoi(m[1])
		det.ContentRating = rating.Resolve(m[2], sys)
	}

	var lines []string
	for _, p := range doc.All(root, "div.desc_movie > p") {
		for _, t := range doc.TextNodes(p) {
			lines = append(lines, strings.TrimSpace(t))
		}
	}
	det.Summary = strings.Join(lines, "\n")

	if src, ok := doc.OptionalAttr(root, "img.img_summary", "src"); ok {
		det.PosterURL = src
	}
	return det, nil
}

func splitList(s, sep string) []string {
	var out []string
	for _, v := range strings.Split(s, sep) {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
