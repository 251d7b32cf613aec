package provider

import (
	"fmt"
	"strings"

	"github.com/John-Robertt/daummeta/internal/domain"
)

// Registry 是 provider 的只读注册表（按 kind 索引，每个 kind 一个 provider）。
type Registry struct {
	byKind map[domain.Kind]Provider
}

func NewRegistry(providers ...Provider) (Registry, error) {
	byKind := make(map[domain.Kind]Provider, len(providers))
	for _, p := range providers {
		if p == nil {
			return Registry{}, fmt.Errorf("provider 不能为空")
		}
		if strings.TrimSpace(p.Name()) == "" {
			return Registry{}, fmt.Errorf("provider.Name 不能为空")
		}
		k := p.Kind()
		if _, err := domain.ParseKind(string(k)); err != nil {
			return Registry{}, fmt.Errorf("provider %q：%w", p.Name(), err)
		}
		if old, ok := byKind[k]; ok {
			return Registry{}, fmt.Errorf("kind %q 重复注册：%q 与 %q", k, old.Name(), p.Name())
		}
		byKind[k] = p
	}
	return Registry{byKind: byKind}, nil
}

func (r Registry) Get(kind domain.Kind) (Provider, bool) {
	if r.byKind == nil {
		return nil, false
	}
	p, ok := r.byKind[kind]
	return p, ok
}
