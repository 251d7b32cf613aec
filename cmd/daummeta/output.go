package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/John-Robertt/daummeta/internal/app/resolve"
	"github.com/John-Robertt/daummeta/internal/domain"
	"github.com/John-Robertt/daummeta/internal/infra/fsx"
)

var _ resolve.Observer = (*summary)(nil)

// summary 在每次 search/update 结束时向 stderr 写一行摘要，不污染 stdout。
type summary struct {
	w  io.Writer
	mu sync.Mutex
}

func (s *summary) OnStart(op string, kind domain.Kind) {}

func (s *summary) OnDone(op string, kind domain.Kind, fields map[string]any, err error, dur time.Duration) {
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	switch op {
	case resolve.OpSearch:
		fmt.Fprintf(s.w, "完成：search %s candidates=%d (%s)\n",
			kind, intField(fields, "candidates"), formatShortDuration(dur),
		)
	case resolve.OpUpdate:
		fmt.Fprintf(s.w, "完成：update %s posters=%d art=%d roles=%d seasons=%d (%s)\n",
			kind,
			intField(fields, "posters"),
			intField(fields, "art"),
			intField(fields, "roles"),
			intField(fields, "seasons"),
			formatShortDuration(dur),
		)
	default:
		fmt.Fprintf(s.w, "完成：%s %s (%s)\n", op, kind, formatShortDuration(dur))
	}
}

// newLogger 构造写到 w 的文本日志。
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// writeResult 把结果写到 stdout，或在 out 非空时原子写入文件。
func (a *app) writeResult(b []byte, out string) error {
	if out == "" {
		_, err := a.stdout.Write(b)
		return err
	}
	if !filepath.IsAbs(out) {
		out = filepath.Join(a.cwd, out)
	}
	if err := fsx.WriteFile(out, b); err != nil {
		return fmt.Errorf("写入 %s 失败：%w", out, err)
	}
	fmt.Fprintf(a.stderr, "out: %s\n", out)
	return nil
}

func marshalJSON(v any) ([]byte, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func formatProxy(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "off"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "on"
	}
	auth := "off"
	if u.User != nil {
		auth = "on"
	}
	return fmt.Sprintf("on (%s://%s, auth=%s)", u.Scheme, u.Host, auth)
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func intField(fields map[string]any, key string) int {
	v, ok := fields[key]
	if !ok {
		return 0
	}
	switch x := v.(type) {
	case int:
		return x
	case int64:
		return int(x)
	default:
		return 0
	}
}
