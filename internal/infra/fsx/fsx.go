package fsx

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const defaultPerm os.FileMode = 0o644

// 可替换的函数指针，让测试能稳定模拟 rename 失败。
var renameFunc = os.Rename

// WriteFile 原子写入 path；目标已存在时保留其权限位。
//
// 用于 CLI 的 --out：媒体库里的 nfo 可能被其它程序同时读取，读者要么看到旧内容，要么看到完整的新内容。
func WriteFile(path string, data []byte) error {
	path = filepath.Clean(strings.TrimSpace(path))
	dir, name := filepath.Split(path)
	if name == "" || name == "." {
		return fmt.Errorf("无效的输出路径：%q", path)
	}
	if dir == "" {
		dir = "."
	}
	perm := defaultPerm
	if fi, err := os.Stat(path); err == nil {
		if !fi.Mode().IsRegular() {
			return fmt.Errorf("输出路径不是普通文件：%s", path)
		}
		perm = fi.Mode().Perm()
	}
	return writeFileAtomic(filepath.Clean(dir), name, data, perm)
}

// WriteFileAtomicReplace 在 dir 下原子写入 name（同目录临时文件 + rename），目标存在则覆盖。
// 文档缓存使用它：缓存条目总是 0644。
func WriteFileAtomicReplace(dir, name string, data []byte) error {
	return writeFileAtomic(filepath.Clean(dir), name, data, defaultPerm)
}

func writeFileAtomic(dir, name string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	// 临时文件前缀带 '.'，避免被当作正式缓存条目或媒体库文件。
	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := renameFunc(tmpName, filepath.Join(dir, name)); err != nil {
		return err
	}

	// 目录 fsync：best-effort。
	_ = syncDir(dir)
	return nil
}

func syncDir(dir string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
