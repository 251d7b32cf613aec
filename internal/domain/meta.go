package domain

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
)

// MetadataRecord 是一个目录条目解析得到的结构化元数据。
//
// 约束：
// - 每次 update 都从零构建，不与旧记录做增量合并
// - Genres/Countries 不包含空字符串
// - 可选字段缺失时保持零值（Rating 为 nil 表示“无评分”）
type MetadataRecord struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	OriginalTitle string   `json:"original_title,omitempty"`
	TitleSort     string   `json:"title_sort,omitempty"`
	Year          int      `json:"year,omitempty"`
	Rating        *float64 `json:"rating,omitempty"`
	DurationMin   int      `json:"duration_min,omitempty"`
	ContentRating string   `json:"content_rating,omitempty"`
	Summary       string   `json:"summary,omitempty"`
	Released      string   `json:"released,omitempty"` // ISO date, e.g. "2010-07-21"
	Studio        string   `json:"studio,omitempty"`

	Genres    []string `json:"genres"`
	Countries []string `json:"countries"`

	Directors []Person `json:"directors"`
	Producers []Person `json:"producers"`
	Writers   []Person `json:"writers"`
	Roles     []Role   `json:"roles"`

	Posters []Artwork `json:"posters"`
	Art     []Artwork `json:"art"`

	// Seasons 仅剧集使用：key 为季号文本（"1"、"2"...）。
	Seasons SeasonMap `json:"seasons,omitempty"`
}

// Person 是导演/制作/编剧等职员。
type Person struct {
	Name  string `json:"name"`
	Photo string `json:"photo,omitempty"`
}

// Role 是演员条目；Role 保留站点给出的角色名（主演/助演/客串等）。
type Role struct {
	Role  string `json:"role"`
	Name  string `json:"name"`
	Photo string `json:"photo,omitempty"`
}

// Artwork 是一张图片引用。URL（原图地址）同时作为去重 key；
// PreviewURL 为空时表示直接使用原图。
type Artwork struct {
	URL        string `json:"url"`
	PreviewURL string `json:"preview_url,omitempty"`
	SortOrder  int    `json:"sort_order"`
}

// SeasonRecord 是单季的元数据（海报 + 简介）。
type SeasonRecord struct {
	Summary string    `json:"summary,omitempty"`
	Posters []Artwork `json:"posters"`
}

// SeasonMap 是季号文本到单季元数据的映射；JSON 输出按季号数值排序。
type SeasonMap map[string]SeasonRecord

// Numbers 返回按数值升序排列的季号（非数字 key 排在最后，按字典序）。
func (s SeasonMap) Numbers() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	SortSeasonNumbers(out)
	return out
}

// MarshalJSON 按 Numbers 的顺序写出 key（"2" 在 "10" 之前）。
func (s SeasonMap) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	var b bytes.Buffer
	b.WriteByte('{')
	for i, k := range s.Numbers() {
		if i > 0 {
			b.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(s[k])
		if err != nil {
			return nil, err
		}
		b.Write(kb)
		b.WriteByte(':')
		b.Write(vb)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// SeasonNumbers 返回按数值升序排列的季号。
func (m MetadataRecord) SeasonNumbers() []string { return m.Seasons.Numbers() }

// SortSeasonNumbers 原地按数值排序季号文本。
func SortSeasonNumbers(nums []string) {
	sort.SliceStable(nums, func(i, j int) bool {
		a, aerr := strconv.Atoi(nums[i])
		b, berr := strconv.Atoi(nums[j])
		switch {
		case aerr == nil && berr == nil:
			return a < b
		case aerr == nil:
			return true
		case berr == nil:
			return false
		default:
			return nums[i] < nums[j]
		}
	})
}

// FillEmpty 把 nil 集合替换为空集合，使 JSON 输出稳定为 [] 而不是 null。
func (m *MetadataRecord) FillEmpty() {
	if m.Genres == nil {
		m.Genres = []string{}
	}
	if m.Countries == nil {
		m.Countries = []string{}
	}
	if m.Directors == nil {
		m.Directors = []Person{}
	}
	if m.Producers == nil {
		m.Producers = []Person{}
	}
	if m.Writers == nil {
		m.Writers = []Person{}
	}
	if m.Roles == nil {
		m.Roles = []Role{}
	}
	if m.Posters == nil {
		m.Posters = []Artwork{}
	}
	if m.Art == nil {
		m.Art = []Artwork{}
	}
	for k, s := range m.Seasons {
		if s.Posters == nil {
			s.Posters = []Artwork{}
			m.Seasons[k] = s
		}
	}
}
