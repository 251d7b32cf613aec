package resolve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/John-Robertt/daummeta/internal/doc"
	"github.com/John-Robertt/daummeta/internal/infra/httpx"
	"github.com/John-Robertt/daummeta/internal/provider"
)

// Humanize 把错误转换为面向用户的一行提示（尽量给出可操作建议）。
func Humanize(err error) string {
	if err == nil {
		return ""
	}
	var pe *provider.Error
	if errors.As(err, &pe) {
		return humanizeFetchError(pe.Provider+" "+pe.Stage, pe.Err)
	}
	return err.Error()
}

func humanizeFetchError(what string, err error) string {
	if err == nil {
		return what + " 失败"
	}

	// HTTP 非 2xx：反爬/限流与下架是最常见问题。
	var hs *httpx.StatusError
	if errors.As(err, &hs) {
		switch hs.StatusCode {
		case 403, 429:
			return fmt.Sprintf("%s 返回 HTTP %d（可能触发反爬/限流）。建议稍后重试或配置 proxy.url。", what, hs.StatusCode)
		case 404:
			return fmt.Sprintf("%s 返回 HTTP 404（该 id 可能不存在或已下架）。", what)
		default:
			return fmt.Sprintf("%s 返回 HTTP %d。", what, hs.StatusCode)
		}
	}

	switch {
	case errors.Is(err, context.Canceled):
		return what + " 已取消。"
	case httpx.IsTimeout(err):
		return fmt.Sprintf("%s 抓取超时。建议检查网络/代理后重试。", what)
	case errors.Is(err, httpx.ErrTooLarge):
		return fmt.Sprintf("%s 响应体超过 %d MiB 上限。", what, httpx.MaxBodySize>>20)
	case errors.Is(err, doc.ErrMissing):
		return fmt.Sprintf("%s 解析失败（站点结构可能变化或返回了非详情页内容）：%v", what, err)
	}

	var se *json.SyntaxError
	if errors.As(err, &se) {
		return fmt.Sprintf("%s 返回了非 JSON 内容（可能被重定向到验证页）。", what)
	}
	return fmt.Sprintf("%s 失败：%v", what, err)
}
