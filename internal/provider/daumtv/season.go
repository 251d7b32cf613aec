package daumtv

import (
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/John-Robertt/daummeta/internal/doc"
	"github.com/John-Robertt/daummeta/internal/domain"
)

// SeasonLink 是系列列表中指向某一季页面的链接参数。
type SeasonLink struct {
	Name string // q=，已反转义
	ID   string // irk=
}

var seasonNameRE = regexp.MustCompile(`q=([^&]+)&`)

// ChainLinks 把顶层文档中的系列列表映射为 季号 → 链接。
//
// 列表按“最新在前”排列：共 N 项时第 i 项（从 1 开始）对应季号 N-i+2，
// 季 1 是顶层文档本身，不在映射中。缺少链接或参数的项不产生条目。
func ChainLinks(d *goquery.Document) map[int]SeasonLink {
	lis := doc.All(d.Selection, "div#series > ul > li")
	n := len(lis)
	out := make(map[int]SeasonLink, n)
	for i, li := range lis {
		href, ok := doc.OptionalAttr(li, "a.f_link_b", "href")
		if !ok {
			continue
		}
		name, id := group(seasonNameRE, href), group(irkAmpRE, href)
		if name == "" || id == "" {
			continue
		}
		if v, err := url.PathUnescape(name); err == nil {
			name = v
		}
		out[n-(i+1)+2] = SeasonLink{Name: name, ID: id}
	}
	return out
}

// wantedSeasons 去掉季 0 与重复项，按数值升序返回；非数字季号被丢弃。
func wantedSeasons(in []string, log *slog.Logger) []int {
	seen := make(map[int]bool, len(in))
	out := make([]int, 0, len(in))
	for _, s := range in {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || n < 0 {
			log.Debug("季号无法识别，跳过", "season", s)
			continue
		}
		if n == 0 || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// resolveSeasons 按季号升序逐个解析请求的季：季 1 复用顶层文档，其它季按链接抓取。
// 链接不存在、格式错误或抓取失败的季静默跳过；只有 ctx 取消会中止并返回错误。
func (p Provider) resolveSeasons(ctx context.Context, top *goquery.Document, wanted []string, log *slog.Logger) (domain.SeasonMap, error) {
	nums := wantedSeasons(wanted, log)
	if len(nums) == 0 {
		return nil, nil
	}
	links := ChainLinks(top)

	out := make(domain.SeasonMap, len(nums))
	for _, n := range nums {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d := top
		if n != 1 {
			link, ok := links[n]
			if !ok {
				log.Debug("季链接不存在，跳过", "season", n)
				continue
			}
			u := p.detailURL(link.Name, link.ID)
			b, err := p.Fetch.Get(ctx, u)
			if err != nil {
				log.Debug("季页面抓取失败，跳过", "season", n, "url", u, "err", err)
				continue
			}
			if d, err = doc.Parse(b); err != nil {
				log.Debug("季页面解析失败，跳过", "season", n, "url", u, "err", err)
				continue
			}
		}

		sd := ParseSeasonDetail(d)
		rec := domain.SeasonRecord{Summary: sd.Summary, Posters: []domain.Artwork{}}
		if sd.PosterURL != "" {
			rec.Posters = p.verify(ctx, []domain.Artwork{{URL: sd.PosterURL, SortOrder: 1}}, log)
		}
		out[strconv.Itoa(n)] = rec
	}
	return out, nil
}
