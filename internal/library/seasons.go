package library

import (
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	seasonDirRE = regexp.MustCompile(`(?i)^(?:(?:season|series|시즌)[\s._-]*(\d{1,3})|s(\d{1,3}))$`)
	specialsRE  = regexp.MustCompile(`(?i)^(?:specials?|스페셜|특별편)$`)
)

// ScanSeasons 扫描剧集目录，返回媒体库中已有的季号（去重，按数值升序）。
//
// 每个视频文件贡献一个季号：文件名中的 SxxEyy 标记，否则取最近的季目录，
// 都没有时视为季 1。隐藏目录与 excludeDirs（相对 root）被跳过。
// 扫描只看文件名，不读文件内容。
func ScanSeasons(root string, excludeDirs []string) ([]string, error) {
	root = filepath.Clean(root)
	excluded := buildExcluded(root, excludeDirs)

	seen := map[int]bool{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path != root && (isExcluded(path, excluded) || strings.HasPrefix(d.Name(), ".")) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !isVideoExt(strings.ToLower(filepath.Ext(d.Name()))) {
			return nil
		}

		if m := episodeRE.FindStringSubmatch(d.Name()); m != nil {
			n, _ := strconv.Atoi(m[1])
			seen[n] = true
			return nil
		}
		if n, ok := enclosingSeason(root, filepath.Dir(path)); ok {
			seen[n] = true
			return nil
		}
		seen[1] = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	nums := make([]int, 0, len(seen))
	for n := range seen {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	out := make([]string, 0, len(nums))
	for _, n := range nums {
		out = append(out, strconv.Itoa(n))
	}
	return out, nil
}

// seasonDirNumber 识别 "Season 2"、"S02"、"시즌 2" 与 "Specials"（季 0）。
func seasonDirNumber(name string) (int, bool) {
	name = strings.TrimSpace(name)
	if specialsRE.MatchString(name) {
		return 0, true
	}
	m := seasonDirRE.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	v := m[1]
	if v == "" {
		v = m[2]
	}
	n, err := strconv.Atoi(v)
	return n, err == nil
}

// enclosingSeason 从 dir 向上查找到 root（含）为止最近的季目录。
func enclosingSeason(root, dir string) (int, bool) {
	for isUnder(dir, root) {
		if n, ok := seasonDirNumber(filepath.Base(dir)); ok {
			return n, true
		}
		if dir == root {
			break
		}
		dir = filepath.Dir(dir)
	}
	return 0, false
}

func buildExcluded(root string, excludeDirs []string) []string {
	excluded := make([]string, 0, len(excludeDirs))
	for _, x := range excludeDirs {
		x = strings.TrimSpace(x)
		if x == "" {
			continue
		}
		if filepath.IsAbs(x) {
			excluded = append(excluded, filepath.Clean(x))
			continue
		}
		excluded = append(excluded, filepath.Clean(filepath.Join(root, x)))
	}
	sort.Strings(excluded)
	return excluded
}

func isExcluded(path string, excluded []string) bool {
	path = filepath.Clean(path)
	for _, base := range excluded {
		if isUnder(path, base) {
			return true
		}
	}
	return false
}

func isUnder(path, base string) bool {
	if path == base {
		return true
	}
	sep := string(filepath.Separator)
	return strings.HasPrefix(path, base+sep)
}
