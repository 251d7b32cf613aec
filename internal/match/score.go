// Package match 实现搜索阶段的评分模型。
//
// 评分 = 基础分 + 标题相似度加成：
//   - 候选年份与查询年份相同：85
//   - 否则，若候选集合只有一个条目：75
//   - 否则：10
//   - 加成 = int(15 * ratio)，截断而非四舍五入
//
// 结果天然落在 [10,100]，不再额外截断。
package match

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/John-Robertt/daummeta/internal/domain"
)

const (
	baseYearMatch = 85
	baseUnique    = 75
	baseOther     = 10
	maxBonus      = 15
)

// Scorer 持有可替换的相似度函数；零值使用 BlocksRatio。
type Scorer struct {
	Similarity Similarity
}

// NormalizeQuery 对查询文本做 NFKC 规范化并去掉首尾空白。
// 只规范化查询，不规范化候选标题。
func NormalizeQuery(s string) string {
	return strings.TrimSpace(norm.NFKC.String(s))
}

// Score 计算单个候选的得分。query 应已经过 NormalizeQuery。
func (s Scorer) Score(query string, queryYear int, title, year string, total int) int {
	base := baseOther
	switch {
	case queryYear > 0 && strings.TrimSpace(year) == strconv.Itoa(queryYear):
		base = baseYearMatch
	case total == 1:
		base = baseUnique
	}

	sim := s.Similarity
	if sim == nil {
		sim = BlocksRatio
	}
	ratio := sim(title, query)
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	return base + int(maxBonus*ratio)
}

// Rank 按源顺序为全部候选打分（不重新排序；由调用方挑选）。
// entries 的 Score 字段会被覆盖。
func (s Scorer) Rank(q domain.Query, entries []domain.Candidate) []domain.Candidate {
	query := NormalizeQuery(q.Name)
	out := make([]domain.Candidate, 0, len(entries))
	for _, e := range entries {
		e.Score = s.Score(query, q.Year, e.Title, e.Year, len(entries))
		out = append(out, e)
	}
	return out
}

// Best 返回得分最高的候选；并列时取源顺序靠前者。
func Best(cands []domain.Candidate) (domain.Candidate, bool) {
	if len(cands) == 0 {
		return domain.Candidate{}, false
	}
	best := cands[0]
	for _, c := range cands[1:] {
		if c.Score > best.Score {
			best = c
		}
	}
	return best, true
}
