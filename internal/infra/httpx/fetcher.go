package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/John-Robertt/daummeta/internal/infra/cache"
)

const (
	// DefaultCacheTTL 是文档缓存的默认有效期。
	DefaultCacheTTL = 12 * time.Hour

	// MaxBodySize 是单个响应体的上限（JSON 接口偶尔会返回异常巨大的列表）。
	MaxBodySize = 10 * 1024 * 1024
)

// StatusError 表示站点返回了非 2xx 的 HTTP 状态码。
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// ErrTooLarge 表示响应体超过 MaxBodySize。
var ErrTooLarge = errors.New("response body too large")

// Config 是进程级的抓取配置：启动时构造一次，之后不再修改。
type Config struct {
	ProxyURL string
	CacheTTL time.Duration // 0 表示使用 DefaultCacheTTL；<0 表示禁用内存缓存
	Disk     *cache.Store  // 可选的磁盘缓存
}

// Fetcher 按“内存缓存 -> 磁盘缓存 -> 网络”的顺序取文档。
// 可被多个 goroutine 共享。
type Fetcher struct {
	client *http.Client
	mem    *gocache.Cache
	disk   *cache.Store
	log    *slog.Logger
}

// NewFetcher 根据 cfg 构造 Fetcher。log 为 nil 时丢弃日志。
func NewFetcher(cfg Config, log *slog.Logger) (*Fetcher, error) {
	c, err := NewClient(cfg.ProxyURL)
	if err != nil {
		return nil, err
	}
	return newFetcher(c, cfg, log), nil
}

// NewFetcherWithClient 使用调用方提供的 client（测试或自定义 transport）。
func NewFetcherWithClient(c *http.Client, cfg Config, log *slog.Logger) *Fetcher {
	if c == nil {
		c = http.DefaultClient
	}
	return newFetcher(c, cfg, log)
}

func newFetcher(c *http.Client, cfg Config, log *slog.Logger) *Fetcher {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	f := &Fetcher{client: c, disk: cfg.Disk, log: log}
	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = DefaultCacheTTL
	}
	if ttl > 0 {
		f.mem = gocache.New(ttl, 2*ttl)
	}
	return f
}

// Get 返回 u 的响应体。
func (f *Fetcher) Get(ctx context.Context, u string) ([]byte, error) {
	if f.mem != nil {
		if v, ok := f.mem.Get(u); ok {
			if b, ok := v.([]byte); ok {
				return b, nil
			}
		}
	}
	if f.disk != nil {
		if b, ok, err := f.disk.ReadDocument(u); err == nil && ok {
			f.remember(u, b)
			return b, nil
		} else if err != nil {
			f.log.Debug("读取磁盘缓存失败", "url", u, "err", err)
		}
	}

	b, err := f.fetch(ctx, u)
	if err != nil {
		return nil, err
	}
	f.remember(u, b)
	if f.disk != nil && !f.disk.ReadOnly {
		if err := f.disk.WriteDocument(u, b); err != nil {
			f.log.Debug("写入磁盘缓存失败", "url", u, "err", err)
		}
	}
	return b, nil
}

// GetJSON 取回 u 并解码到 v。
func (f *Fetcher) GetJSON(ctx context.Context, u string, v any) error {
	b, err := f.Get(ctx, u)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("解析 JSON 失败：%w", err)
	}
	return nil
}

func (f *Fetcher) remember(u string, b []byte) {
	if f.mem != nil {
		f.mem.Set(u, b, gocache.DefaultExpiration)
	}
}

func (f *Fetcher) fetch(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	started := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{URL: u, StatusCode: resp.StatusCode}
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize+1))
	if err != nil {
		return nil, err
	}
	if len(b) > MaxBodySize {
		return nil, ErrTooLarge
	}
	f.log.Debug("fetched", "url", u, "bytes", len(b), "dur", time.Since(started).Round(time.Millisecond))
	return b, nil
}

// IsTimeout 粗略判断 err 是否为超时类错误（用于生成可读提示）。
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "timeout")
}
