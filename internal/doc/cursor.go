package doc

import "regexp"

// Cursor 是有序文档片段上的游标。
//
// 详情页的若干可选字段共用同一串 <dd>，字段与片段的对应关系由位置决定：
// 匹配成功的字段消费（移除）队首片段，失败的字段不动队列，
// 下一个字段继续与同一个队首比较。不要改成按字段独立查找，否则会错位。
type Cursor struct {
	frags []string
}

func NewCursor(frags []string) *Cursor {
	return &Cursor{frags: append([]string(nil), frags...)}
}

// Len 返回剩余片段数。
func (c *Cursor) Len() int { return len(c.frags) }

// Peek 返回队首片段但不消费。
func (c *Cursor) Peek() (string, bool) {
	if len(c.frags) == 0 {
		return "", false
	}
	return c.frags[0], true
}

// Next 无条件消费队首片段。
func (c *Cursor) Next() (string, bool) {
	s, ok := c.Peek()
	if ok {
		c.frags = c.frags[1:]
	}
	return s, ok
}

// ConsumeIf 仅当队首片段匹配 re 时消费它，并返回子匹配。
func (c *Cursor) ConsumeIf(re *regexp.Regexp) ([]string, bool) {
	s, ok := c.Peek()
	if !ok {
		return nil, false
	}
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil, false
	}
	c.frags = c.frags[1:]
	return m, true
}
