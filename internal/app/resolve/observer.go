package resolve

import (
	"time"

	"github.com/John-Robertt/daummeta/internal/domain"
)

// 操作名（Observer 事件中的 op）。
const (
	OpSearch = "search"
	OpUpdate = "update"
)

// Observer 用于把“阶段/结果”从核心流程中解耦出来。
//
// 约束：
// - resolve 包只负责发事件，不做任何输出（避免污染 stdout 的 JSON 契约）。
// - Observer 的实现必须并发安全：调用方可能并发解析不同记录。
type Observer interface {
	// OnStart 在一次 search/update 开始时调用。
	OnStart(op string, kind domain.Kind)
	// OnDone 在一次 search/update 结束时调用；fields 是该操作的统计（候选数、季数等）。
	OnDone(op string, kind domain.Kind, fields map[string]any, err error, dur time.Duration)
}
