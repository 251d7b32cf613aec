// Package doc 封装详情页/搜索页上的结构化查询。
//
// 每个字段都必须显式选择查询基数：
//   - Required：至少命中一个节点（取第一个），否则返回 *MissingFieldError
//   - Optional：最多取一个节点，缺失返回 ok=false
//   - All：零个或多个节点
//
// 选择器命中多个节点时 Required/Optional 只取第一个。
package doc

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	nethtml "golang.org/x/net/html"
)

// ErrMissing 可用于 errors.Is 判断“必填字段缺失”。
var ErrMissing = errors.New("required field missing")

// MissingFieldError 表示必填字段缺失或不匹配固定模式。
type MissingFieldError struct {
	Field    string
	Selector string
}

func (e *MissingFieldError) Error() string {
	if e.Selector == "" {
		return fmt.Sprintf("必填字段缺失：%s", e.Field)
	}
	return fmt.Sprintf("必填字段缺失：%s（selector=%s）", e.Field, e.Selector)
}

func (e *MissingFieldError) Is(target error) bool { return target == ErrMissing }

// Parse 把 HTML 字节解析为可查询文档。
func Parse(b []byte) (*goquery.Document, error) {
	if len(b) == 0 {
		return nil, errors.New("html 为空")
	}
	return goquery.NewDocumentFromReader(bytes.NewReader(b))
}

// Required 返回 sel 下 selector 命中的第一个节点；无命中时报 field 缺失。
func Required(sel *goquery.Selection, selector, field string) (*goquery.Selection, error) {
	s := sel.Find(selector)
	if s.Length() == 0 {
		return nil, &MissingFieldError{Field: field, Selector: selector}
	}
	return s.First(), nil
}

// Optional 返回 sel 下 selector 命中的第一个节点。
func Optional(sel *goquery.Selection, selector string) (*goquery.Selection, bool) {
	s := sel.Find(selector)
	if s.Length() == 0 {
		return nil, false
	}
	return s.First(), true
}

// All 返回 sel 下 selector 命中的全部节点（可能为空）。
func All(sel *goquery.Selection, selector string) []*goquery.Selection {
	s := sel.Find(selector)
	out := make([]*goquery.Selection, 0, s.Length())
	s.Each(func(_ int, n *goquery.Selection) {
		out = append(out, n)
	})
	return out
}

// OptionalAttr 返回第一个命中节点的属性值（去首尾空白）；缺失或为空时 ok=false。
func OptionalAttr(sel *goquery.Selection, selector, attr string) (string, bool) {
	n, ok := Optional(sel, selector)
	if !ok {
		return "", false
	}
	v, ok := n.Attr(attr)
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// DefinitionFor 返回文本恰好等于 label 的 <dt> 之后的第一个兄弟 <dd>。
func DefinitionFor(sel *goquery.Selection, label string) (*goquery.Selection, bool) {
	var dd *goquery.Selection
	sel.Find("dt").EachWithBreak(func(_ int, dt *goquery.Selection) bool {
		if strings.TrimSpace(dt.Text()) != label {
			return true
		}
		n := dt.NextAllFiltered("dd").First()
		if n.Length() == 0 {
			return true
		}
		dd = n
		return false
	})
	return dd, dd != nil
}

// OwnText 返回节点自身的直接文本子节点（不含子元素内的文本），原样拼接。
func OwnText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, n := range sel.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == nethtml.TextNode {
				b.WriteString(c.Data)
			}
		}
	}
	return b.String()
}

// OwnLines 返回节点自身的直接文本子节点，逐个去掉首尾空白并丢弃空行；
// 被 <br> 等子元素隔开的文本因此保留为独立的行。
func OwnLines(sel *goquery.Selection) []string {
	var out []string
	for _, n := range sel.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != nethtml.TextNode {
				continue
			}
			if t := strings.TrimSpace(c.Data); t != "" {
				out = append(out, t)
			}
		}
	}
	return out
}

// TextNodes 按文档顺序返回 sel 下所有后代文本节点。
func TextNodes(sel *goquery.Selection) []string {
	var out []string
	var walk func(n *nethtml.Node)
	walk = func(n *nethtml.Node) {
		if n.Type == nethtml.TextNode {
			out = append(out, n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return out
}

var tagRE = regexp.MustCompile(`<[^>]*>`)

// StripTags 去掉 HTML 标签并解码实体（站点在 JSON/文本中混入了 <b> 等高亮标签）。
func StripTags(s string) string {
	return html.UnescapeString(tagRE.ReplaceAllString(s, ""))
}

// NormSpace 把连续空白折叠为单个空格。
func NormSpace(s string) string { return strings.Join(strings.Fields(s), " ") }
