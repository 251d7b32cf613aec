package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/John-Robertt/daummeta/internal/infra/fsx"
)

// Store 提供 <root>/documents/ 下的文档缓存读写，按 URL 的 sha1 分片存放。
//
// 约束：
// - ReadOnly=true 时只允许读
// - TTL>0 时，修改时间早于 now-TTL 的条目视为未命中
type Store struct {
	Root     string
	ReadOnly bool
	TTL      time.Duration

	now func() time.Time
}

var ErrReadOnly = errors.New("cache: read-only")

func New(root string, readOnly bool, ttl time.Duration) *Store {
	return &Store{
		Root:     filepath.Clean(strings.TrimSpace(root)),
		ReadOnly: readOnly,
		TTL:      ttl,
		now:      time.Now,
	}
}

// DocumentPath 返回 key 对应缓存文件的绝对路径。
func (s *Store) DocumentPath(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("cache key 不能为空")
	}
	dir, name := s.locate(key)
	return filepath.Join(dir, name), nil
}

// ReadDocument 读取 key 对应的缓存；不存在或已过期返回 ok=false。
func (s *Store) ReadDocument(key string) ([]byte, bool, error) {
	path, err := s.DocumentPath(key)
	if err != nil {
		return nil, false, err
	}
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if s.TTL > 0 && s.clock().Sub(fi.ModTime()) > s.TTL {
		return nil, false, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

// WriteDocument 原子写入（覆盖）key 对应的缓存。
func (s *Store) WriteDocument(key string, b []byte) error {
	if s.ReadOnly {
		return ErrReadOnly
	}
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("cache key 不能为空")
	}
	dir, name := s.locate(key)
	return fsx.WriteFileAtomicReplace(dir, name, b)
}

func (s *Store) locate(key string) (dir, name string) {
	sum := sha1.Sum([]byte(key))
	h := hex.EncodeToString(sum[:])
	return filepath.Join(s.Root, "documents", h[:2]), h + ".body"
}

func (s *Store) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}
