package domain

import (
	"fmt"
	"strings"
)

// Kind 区分检索目标：电影或剧集。两者的搜索页、详情页结构完全不同。
type Kind string

const (
	KindMovie Kind = "movie"
	KindShow  Kind = "show"
)

// ParseKind 解析 CLI/配置中的 kind 字符串（大小写不敏感）。
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindMovie:
		return KindMovie, nil
	case KindShow:
		return KindShow, nil
	default:
		return "", fmt.Errorf("kind 只能是 movie 或 show，实际是 %q", s)
	}
}

// Query 是一次搜索的不可变输入。
//
// Year 为 0 表示未知；未知年份永远不会与候选年份“相等”。
type Query struct {
	Name string
	Year int
	Kind Kind
}

// Candidate 是搜索阶段的一个候选条目，由调用方挑选其 ID 进入 update 阶段。
type Candidate struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Year  string `json:"year"` // 可能为空（站点未提供或无法解析）
	Score int    `json:"score"`
}

// UpdateRequest 是 update 阶段的输入。
//
// Title 与 Seasons 只对剧集有意义：剧集详情页 URL 需要节目名，
// Seasons 是调用方（媒体库）已知的季号集合。
type UpdateRequest struct {
	ID      string
	Title   string
	Seasons []string
}
