package provider

import "fmt"

// 抓取/解析阶段（用于错误追溯与日志）。
const (
	StageSearch = "search"
	StageDetail = "detail"
	StageCast   = "cast"
	StagePhoto  = "photo"
	StageSeason = "season"
)

// Error 是 provider 阶段的可追溯错误。
// 上层据此生成可操作的提示（见 resolve.Humanize）。
type Error struct {
	Provider string
	Stage    string
	URL      string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider=%s stage=%s: %v", e.Provider, e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap 把 err 包装为 *Error；err 为 nil 时返回 nil。
func Wrap(providerName, stage, u string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Provider: providerName, Stage: stage, URL: u, Err: err}
}
