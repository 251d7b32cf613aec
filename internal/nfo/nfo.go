package nfo

import (
	"encoding/xml"
	"strings"

	"github.com/John-Robertt/daummeta/internal/domain"
)

// 约定：输出带 standalone="yes" 的 XML 头，便于与常见刮削器产物兼容。
const header = `<?xml version="1.0" encoding="UTF-8" standalone="yes" ?>` + "\n"

type movie struct {
	XMLName xml.Name `xml:"movie"`

	Title         string   `xml:"title"`
	OriginalTitle string   `xml:"originaltitle,omitempty"`
	SortTitle     string   `xml:"sorttitle,omitempty"`
	UniqueID      uniqueID `xml:"uniqueid"`

	Year      int      `xml:"year,omitempty"`
	Premiered string   `xml:"premiered,omitempty"`
	Runtime   int      `xml:"runtime,omitempty"`
	MPAA      string   `xml:"mpaa,omitempty"`
	Rating    *float64 `xml:"rating,omitempty"`
	Plot      string   `xml:"plot,omitempty"`
	Studio    string   `xml:"studio,omitempty"`

	Countries []string `xml:"country,omitempty"`
	Genres    []string `xml:"genre,omitempty"`
	Directors []string `xml:"director,omitempty"`
	Producers []string `xml:"producer,omitempty"`
	Credits   []string `xml:"credits,omitempty"`
	Actors    []actor  `xml:"actor,omitempty"`

	Thumbs []thumb  `xml:"thumb,omitempty"`
	Fanart *fanart  `xml:"fanart,omitempty"`
}

type tvshow struct {
	XMLName xml.Name `xml:"tvshow"`

	Title     string   `xml:"title"`
	SortTitle string   `xml:"sorttitle,omitempty"`
	UniqueID  uniqueID `xml:"uniqueid"`

	Premiered string   `xml:"premiered,omitempty"`
	Plot      string   `xml:"plot,omitempty"`
	Studio    string   `xml:"studio,omitempty"`
	Genres    []string `xml:"genre,omitempty"`
	Actors    []actor  `xml:"actor,omitempty"`

	Thumbs  []thumb  `xml:"thumb,omitempty"`
	Seasons []season `xml:"season,omitempty"`
}

type uniqueID struct {
	Type    string `xml:"type,attr"`
	Default bool   `xml:"default,attr"`
	ID      string `xml:",chardata"`
}

type actor struct {
	Name  string `xml:"name"`
	Role  string `xml:"role,omitempty"`
	Thumb string `xml:"thumb,omitempty"`
	Order int    `xml:"order"`
}

type thumb struct {
	Aspect  string `xml:"aspect,attr,omitempty"`
	Type    string `xml:"type,attr,omitempty"`
	Season  string `xml:"season,attr,omitempty"`
	Preview string `xml:"preview,attr,omitempty"`
	URL     string `xml:",chardata"`
}

type fanart struct {
	Thumbs []thumb `xml:"thumb"`
}

type season struct {
	Number string `xml:"number,attr"`
	Plot   string `xml:"plot,omitempty"`
}

// EncodeMovie 把电影记录转成 Kodi/Jellyfin/Emby 可读取的 NFO（XML）。
//
// 规则：
// - 字段缺失允许为空；集合去空白、去重、保持输入顺序
// - 图片引用原样输出为远程地址（不下载）
func EncodeMovie(rec domain.MetadataRecord) ([]byte, error) {
	m := movie{
		Title:         strings.TrimSpace(rec.Title),
		OriginalTitle: strings.TrimSpace(rec.OriginalTitle),
		SortTitle:     strings.TrimSpace(rec.TitleSort),
		UniqueID:      uniqueID{Type: "daum", Default: true, ID: rec.ID},

		Year:      rec.Year,
		Premiered: rec.Released,
		Runtime:   rec.DurationMin,
		MPAA:      rec.ContentRating,
		Rating:    rec.Rating,
		Plot:      strings.TrimSpace(rec.Summary),
		Studio:    strings.TrimSpace(rec.Studio),

		Countries: normList(rec.Countries),
		Genres:    normList(rec.Genres),
		Directors: normList(names(rec.Directors)),
		Producers: normList(names(rec.Producers)),
		Credits:   normList(names(rec.Writers)),
		Actors:    actors(rec.Roles),
		Thumbs:    thumbs(rec.Posters, "poster", ""),
	}
	if art := thumbs(rec.Art, "", ""); len(art) > 0 {
		m.Fanart = &fanart{Thumbs: art}
	}
	return marshal(m)
}

// EncodeShow 把剧集记录转成 tvshow.nfo；季海报以 type="season" 的 thumb 输出，季简介以 <season> 输出。
func EncodeShow(rec domain.MetadataRecord) ([]byte, error) {
	s := tvshow{
		Title:     strings.TrimSpace(rec.Title),
		SortTitle: strings.TrimSpace(rec.TitleSort),
		UniqueID:  uniqueID{Type: "daum", Default: true, ID: rec.ID},

		Premiered: rec.Released,
		Plot:      strings.TrimSpace(rec.Summary),
		Studio:    strings.TrimSpace(rec.Studio),
		Genres:    normList(rec.Genres),
		Actors:    actors(rec.Roles),
		Thumbs:    thumbs(rec.Posters, "poster", ""),
	}
	for _, num := range rec.SeasonNumbers() {
		sr := rec.Seasons[num]
		s.Thumbs = append(s.Thumbs, thumbs(sr.Posters, "poster", num)...)
		s.Seasons = append(s.Seasons, season{Number: num, Plot: strings.TrimSpace(sr.Summary)})
	}
	return marshal(s)
}

func marshal(v any) ([]byte, error) {
	b, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(header), b...), nil
}

func names(ps []domain.Person) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Name)
	}
	return out
}

func actors(roles []domain.Role) []actor {
	if len(roles) == 0 {
		return nil
	}
	out := make([]actor, 0, len(roles))
	for _, r := range roles {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			continue
		}
		out = append(out, actor{Name: name, Role: strings.TrimSpace(r.Role), Thumb: r.Photo, Order: len(out)})
	}
	return out
}

// thumbs 保持输入顺序；seasonNum 非空时标记为该季的图片。
func thumbs(items []domain.Artwork, aspect, seasonNum string) []thumb {
	out := make([]thumb, 0, len(items))
	for _, a := range items {
		u := strings.TrimSpace(a.URL)
		if u == "" {
			continue
		}
		t := thumb{Aspect: aspect, Preview: a.PreviewURL, URL: u}
		if seasonNum != "" {
			t.Type, t.Season = "season", seasonNum
		}
		out = append(out, t)
	}
	return out
}

func normList(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	m := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := m[s]; ok {
			continue
		}
		m[s] = struct{}{}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
