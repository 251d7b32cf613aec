package imgx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // 站点偶尔返回 gif 占位图
	_ "image/jpeg" // 注册解码器：只读取头部尺寸，不解码像素
	_ "image/png"
)

// Getter 取回 URL 的内容（由 httpx.Fetcher 实现，自带缓存）。
type Getter interface {
	Get(ctx context.Context, u string) ([]byte, error)
}

// Prober 惰性地解析图片引用：只有调用 Probe 时才真正下载。
//
// 约束：
// - 只校验“能取回 + 头部可识别为图片 + 尺寸有效”
// - 不做转码/裁切
type Prober struct {
	Source Getter
}

// Probe 取回 u 并校验其为有效图片。
func (p Prober) Probe(ctx context.Context, u string) error {
	if p.Source == nil {
		return errors.New("image getter 为空")
	}
	b, err := p.Source.Get(ctx, u)
	if err != nil {
		return err
	}
	_, err = Config(b)
	return err
}

// Config 读取图片头部信息。
func Config(b []byte) (image.Config, error) {
	if len(b) == 0 {
		return image.Config{}, errors.New("图片为空")
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return image.Config{}, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return image.Config{}, fmt.Errorf("图片尺寸无效（%s %dx%d）", format, cfg.Width, cfg.Height)
	}
	return cfg, nil
}
