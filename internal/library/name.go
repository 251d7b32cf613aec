package library

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Hint 是从媒体库路径推断出的搜索输入。Year 为 0 表示未知。
type Hint struct {
	Name string
	Year int
}

// UnmatchedError 表示路径中没有可用作名称的部分。
type UnmatchedError struct {
	Path string
}

func (e *UnmatchedError) Error() string {
	return "无法从路径解析出名称：" + e.Path
}

var (
	// 年份两侧必须是分隔符，避免把 "x2010" 或分辨率当成年份。
	yearRE = regexp.MustCompile(`(?:^|[\s._(\[-])((?:19|20)\d{2})(?:$|[\s._)\]-])`)

	// 常见发布标签：没有年份时名称截止于第一个标签。
	releaseTagRE = regexp.MustCompile(`(?i)[\s._\[(-](?:2160p|1080p|720p|480p|4k|uhd|blu-?ray|web-?dl|webrip|hdtv|dvdrip|remux|hevc|x26[45]|h\.?26[45])(?:$|[\s._)\]-])`)

	episodeRE = regexp.MustCompile(`(?i)(?:^|[^a-z0-9])s(\d{1,2})e\d{1,3}`)
)

// ParseName 从视频文件或目录路径推断名称与年份。
//
// 优先使用文件名（去掉视频扩展名）；文件名只剩集标记或是季目录时向上取目录名。
// 名称相同但缺年份时，从最近的非季目录补年份。
func ParseName(path string) (Hint, error) {
	path = filepath.Clean(strings.TrimSpace(path))
	levels := nameLevels(path)

	var h Hint
	for i, s := range levels {
		c := parseHint(s)
		if c.Name == "" {
			continue
		}
		h = c
		if h.Year == 0 && i+1 < len(levels) {
			if up := parseHint(levels[i+1]); up.Year != 0 && strings.EqualFold(up.Name, h.Name) {
				h.Year = up.Year
			}
		}
		break
	}
	if h.Name == "" {
		return Hint{}, &UnmatchedError{Path: path}
	}
	return h, nil
}

// nameLevels 返回 path 自身与祖先目录的名称（最多三级），季目录被跳过。
func nameLevels(path string) []string {
	out := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		base := filepath.Base(path)
		if base == "." || base == string(filepath.Separator) {
			break
		}
		if i == 0 && isVideoExt(strings.ToLower(filepath.Ext(base))) {
			base = strings.TrimSuffix(base, filepath.Ext(base))
		}
		if _, ok := seasonDirNumber(base); !ok {
			out = append(out, base)
		}
		parent := filepath.Dir(path)
		if parent == path {
			break
		}
		path = parent
	}
	return out
}

func parseHint(s string) Hint {
	s = strings.TrimSpace(s)
	if m := episodeRE.FindStringIndex(s); m != nil {
		s = s[:m[0]]
	}
	for _, m := range yearRE.FindAllStringSubmatchIndex(s, -1) {
		name := cleanName(s[:m[0]])
		if name == "" {
			// 名称本身就是年份，例如 "1917 (2019)"。
			continue
		}
		y, _ := strconv.Atoi(s[m[2]:m[3]])
		return Hint{Name: name, Year: y}
	}
	if m := releaseTagRE.FindStringIndex(s); m != nil {
		s = s[:m[0]]
	}
	return Hint{Name: cleanName(s)}
}

func cleanName(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '.' || r == '_' {
			return ' '
		}
		return r
	}, s)
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimRight(s, " -([")
}

func isVideoExt(ext string) bool {
	switch ext {
	case ".mp4", ".mkv", ".avi", ".m4v", ".ts", ".wmv":
		return true
	default:
		return false
	}
}
