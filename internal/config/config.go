package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/John-Robertt/daummeta/internal/rating"
)

const (
	// ErrCodeNotFound 表示 --config 指定的配置文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

// FileName 是 cwd 下自动发现的配置文件名。
const FileName = "daummeta.json"

const (
	DefaultRatingSystem  = rating.KMRB
	DefaultMaxPosters    = 5
	DefaultMaxArt        = 10
	DefaultCacheTTLHours = 12
	DefaultLogLevel      = slog.LevelInfo
)

// CLIArgs 是 CLI 可覆盖的配置项，并保留“是否显式指定”的信息。
// 这能保证覆盖优先级可实现：例如 --max-posters=0 必须能覆盖 config.max_posters=5。
type CLIArgs struct {
	// ConfigPath 为空时尝试读取 <cwd>/daummeta.json（可选）；非空时文件必须存在。
	ConfigPath string

	RatingSystem    string
	RatingSystemSet bool

	MaxPosters    int
	MaxPostersSet bool

	MaxArt    int
	MaxArtSet bool

	LogLevel    string
	LogLevelSet bool
}

// FileConfig 对应 daummeta.json 的解析结构。
type FileConfig struct {
	ContentRatingSystem string       `json:"content_rating_system"`
	MaxPosters          *int         `json:"max_posters"`
	MaxArt              *int         `json:"max_art"`
	Proxy               *ProxyConfig `json:"proxy"`
	CacheDir            string       `json:"cache_dir"`
	CacheTTLHours       *int         `json:"cache_ttl_hours"`
	VerifyImages        bool         `json:"verify_images"`
	LogLevel            string       `json:"log_level"`
}

type ProxyConfig struct {
	URL string `json:"url"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	// ConfigPath 是实际读取到的配置文件；未读取时为空。
	ConfigPath string

	RatingSystem rating.System
	MaxPosters   int
	MaxArt       int

	ProxyURL string
	// CacheDir 为空表示只用内存缓存。
	CacheDir string
	// CacheTTL 为 0 表示禁用文档缓存。
	CacheTTL time.Duration

	VerifyImages bool
	LogLevel     slog.Level
}

// Default 返回不读任何文件时的配置。
func Default() EffectiveConfig {
	return EffectiveConfig{
		RatingSystem: DefaultRatingSystem,
		MaxPosters:   DefaultMaxPosters,
		MaxArt:       DefaultMaxArt,
		CacheTTL:     DefaultCacheTTLHours * time.Hour,
		LogLevel:     DefaultLogLevel,
	}
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 发现并读取配置文件，然后与 CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) CLI 提供 --config：读取该文件（必选，不存在报 config_not_found）
// 2) 否则尝试读取 <cwd>/daummeta.json（可选）
//
// 覆盖优先级（固定）：
// - content_rating_system / max_posters / max_art / log_level：CLI > config > 默认
// - 其他字段：仅由 config 控制（CLI 不暴露）
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	required := strings.TrimSpace(cli.ConfigPath) != ""
	cfgPath := filepath.Join(cwdAbs, FileName)
	if required {
		cfgPath = absCleanFrom(cwdAbs, cli.ConfigPath)
	}

	fc, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if !exists {
		if required {
			return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
		}
		cfgPath = ""
	}

	// cache_dir 相对于配置文件所在目录；没有配置文件时相对于 cwd。
	base := cwdAbs
	if cfgPath != "" {
		base = filepath.Dir(cfgPath)
	}
	return merge(base, cli, fc, cfgPath)
}

func merge(base string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	eff := Default()
	eff.ConfigPath = cfgPath
	invalid := func(err error) (EffectiveConfig, error) {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	// content_rating_system：CLI > config > 默认
	sys := ""
	if cli.RatingSystemSet {
		sys = cli.RatingSystem
	} else if strings.TrimSpace(fc.ContentRatingSystem) != "" {
		sys = fc.ContentRatingSystem
	}
	if sys != "" {
		v, err := rating.ParseSystem(sys)
		if err != nil {
			return invalid(err)
		}
		eff.RatingSystem = v
	}

	// max_posters / max_art：CLI > config > 默认；负数不合法。
	if fc.MaxPosters != nil {
		eff.MaxPosters = *fc.MaxPosters
	}
	if cli.MaxPostersSet {
		eff.MaxPosters = cli.MaxPosters
	}
	if eff.MaxPosters < 0 {
		return invalid(fmt.Errorf("max_posters 不能为负数：%d", eff.MaxPosters))
	}
	if fc.MaxArt != nil {
		eff.MaxArt = *fc.MaxArt
	}
	if cli.MaxArtSet {
		eff.MaxArt = cli.MaxArt
	}
	if eff.MaxArt < 0 {
		return invalid(fmt.Errorf("max_art 不能为负数：%d", eff.MaxArt))
	}

	if fc.Proxy != nil {
		eff.ProxyURL = strings.TrimSpace(fc.Proxy.URL)
	}
	if eff.ProxyURL != "" {
		u, err := url.Parse(eff.ProxyURL)
		if err != nil {
			return invalid(fmt.Errorf("proxy.url 无效：%w", err))
		}
		if u.Scheme == "" || u.Host == "" {
			return invalid(fmt.Errorf("proxy.url 无效：%q", eff.ProxyURL))
		}
	}

	if fc.CacheTTLHours != nil {
		if *fc.CacheTTLHours < 0 {
			return invalid(fmt.Errorf("cache_ttl_hours 不能为负数：%d", *fc.CacheTTLHours))
		}
		eff.CacheTTL = time.Duration(*fc.CacheTTLHours) * time.Hour
	}
	if strings.TrimSpace(fc.CacheDir) != "" {
		eff.CacheDir = absCleanFrom(base, fc.CacheDir)
	}
	eff.VerifyImages = fc.VerifyImages

	// log_level：CLI > config > 默认
	lvl := ""
	if cli.LogLevelSet {
		lvl = cli.LogLevel
	} else if strings.TrimSpace(fc.LogLevel) != "" {
		lvl = fc.LogLevel
	}
	if lvl != "" {
		v, err := ParseLogLevel(lvl)
		if err != nil {
			return invalid(err)
		}
		eff.LogLevel = v
	}
	return eff, nil
}

// ParseLogLevel 解析 debug/info/warn/error（大小写不敏感）。
func ParseLogLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("log_level 只能是 debug/info/warn/error，实际是 %q", s)
	}
	return l, nil
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
// - p 若已是绝对路径：直接 Clean
// - p 若是相对路径：Join(base, p) 后 Clean
func absCleanFrom(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 JSON 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
