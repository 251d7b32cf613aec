package httpx

import (
	"errors"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	defaultTimeout  = 20 * time.Second
	defaultRetryMax = 2
	defaultBackoff  = 300 * time.Millisecond

	// DefaultAccept 与站点协商：详情页是 HTML，搜索/职员/照片接口是 JSON。
	DefaultAccept = "text/html, application/json"

	// DefaultAcceptLanguage 让站点返回韩文标题与分级标签（解析规则依赖韩文文本）。
	DefaultAcceptLanguage = "ko-KR,ko;q=0.9,en;q=0.5"
)

// DefaultHeader 返回 Daum 请求默认补齐的请求头。
func DefaultHeader() http.Header {
	h := http.Header{}
	h.Set("Accept", DefaultAccept)
	h.Set("Accept-Language", DefaultAcceptLanguage)
	return h
}

// Transport 把 UA 池、默认请求头与有界重试固化为统一策略。
//
// provider 只负责拼 URL 与解析文档，不关心网络策略细节。
// 只有传输层错误会重试；HTTP 状态码由 Fetcher 解释。
type Transport struct {
	Base *http.Transport

	ua *uaPool

	// Header 中的每个头只在请求未设置同名头时补上。
	Header http.Header

	// RetryMax 表示最大重试次数（不含首次尝试）。例如 2 表示最多 3 次尝试。
	RetryMax int

	// Backoff 是第 n 次重试前的等待时间（n 从 1 开始）；为 0 时立即重试。
	Backoff time.Duration
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	if t.Base == nil {
		return nil, errors.New("nil base transport")
	}

	// GET/HEAD 且无 body 才可重放。
	canRetry := (req.Method == http.MethodGet || req.Method == http.MethodHead) && req.Body == nil
	max := t.RetryMax
	if max < 0 || !canRetry {
		max = 0
	}

	var lastErr error
	for attempt := 0; attempt <= max; attempt++ {
		if attempt > 0 && !t.wait(req, attempt) {
			return nil, lastErr
		}
		r := req.Clone(req.Context())
		if r.Header.Get("User-Agent") == "" && t.ua != nil {
			r.Header.Set("User-Agent", t.ua.random())
		}
		for k, vs := range t.Header {
			if r.Header.Get(k) == "" && len(vs) > 0 {
				r.Header.Set(k, vs[0])
			}
		}

		resp, err := t.Base.RoundTrip(r)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if req.Context().Err() != nil {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

// wait 在重试前线性退避；ctx 结束时返回 false。
func (t *Transport) wait(req *http.Request, attempt int) bool {
	if t.Backoff <= 0 {
		return true
	}
	timer := time.NewTimer(time.Duration(attempt) * t.Backoff)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-req.Context().Done():
		return false
	}
}

// NewClient 构造抓取用的 HTTP client。
//
// proxyURL 非空时所有请求走代理，并禁用 keep-alive（代理池轮换依赖每请求新连接）。
func NewClient(proxyURL string) (*http.Client, error) {
	base := &http.Transport{
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
	}

	proxyURL = strings.TrimSpace(proxyURL)
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, err
		}
		base.Proxy = http.ProxyURL(u)
		base.DisableKeepAlives = true
	}

	return &http.Client{
		Transport: &Transport{
			Base:     base,
			ua:       globalUA,
			Header:   DefaultHeader(),
			RetryMax: defaultRetryMax,
			Backoff:  defaultBackoff,
		},
		Timeout: defaultTimeout,
	}, nil
}

type uaPool struct {
	mu  sync.Mutex
	rnd *rand.Rand
	uas []string
}

func (p *uaPool) random() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.uas[p.rnd.Intn(len(p.uas))]
}

var globalUA = newUAPool()

func newUAPool() *uaPool {
	uas := []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_5) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15",
		"Mozilla/5.0 (Linux; Android 14; SM-S918N) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Mobile Safari/537.36",
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Mobile/15E148 Safari/604.1",
	}
	return &uaPool{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
		uas: uas,
	}
}
