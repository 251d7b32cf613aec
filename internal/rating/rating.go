// Package rating 把 Daum 的韩国分级标签映射为目标分级体系。
package rating

import (
	"fmt"
	"regexp"
	"strings"
)

// System 是目标分级体系。
type System string

const (
	KMRB System = "KMRB" // 韩国影像物等级委员会，输出形如 "kr/15"
	MPAA System = "MPAA"
)

// ParseSystem 解析配置值（大小写不敏感）。
func ParseSystem(s string) (System, error) {
	switch System(strings.ToUpper(strings.TrimSpace(s))) {
	case KMRB:
		return KMRB, nil
	case MPAA:
		return MPAA, nil
	default:
		return "", fmt.Errorf("content_rating_system 只能是 KMRB 或 MPAA，实际是 %q", s)
	}
}

// LocalePrefix 是未知标签的回退前缀。
const LocalePrefix = "kr/"

type row struct{ kmrb, mpaa string }

var table = map[string]row{
	"전체관람가":   {"kr/A", "G"},
	"12세이상관람가": {"kr/12", "PG"},
	"15세이상관람가": {"kr/15", "PG-13"},
	"청소년관람불가": {"kr/R", "R"},
	"제한상영가":   {"kr/X", "NC-17"},
}

var usRatingRE = regexp.MustCompile(`미국 (.*) 등급`)

// Lookup 只查表；ok=false 表示标签未知。
func Lookup(label string, sys System) (string, bool) {
	r, ok := table[label]
	if !ok {
		return "", false
	}
	if sys == MPAA {
		return r.mpaa, true
	}
	return r.kmrb, true
}

// Resolve 把详情页“片长”之后的分级注记转换为最终 content_rating：
//  1. "미국 <label> 등급"：原样保存 label
//  2. 已知韩国标签：按 sys 映射
//  3. 其它：LocalePrefix + 原始标签
//
// 空注记返回空串。未知标签永远不是错误。
func Resolve(annotation string, sys System) string {
	if annotation == "" {
		return ""
	}
	if m := usRatingRE.FindStringSubmatch(annotation); m != nil {
		return m[1]
	}
	if v, ok := Lookup(annotation, sys); ok {
		return v
	}
	return LocalePrefix + annotation
}
