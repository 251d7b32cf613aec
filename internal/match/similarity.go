package match

// Similarity 返回 a 与 b 的相似度，取值范围 [0,1]。
// 评分模型只依赖该函数的排序性质，不要求与某个实现逐位一致。
type Similarity func(a, b string) float64

// BlocksRatio 是默认的相似度：最长匹配块比例 2*M/(len(a)+len(b))。
//
// 做法：在 a[alo:ahi] 与 b[blo:bhi] 中找最长公共子串，再对左右两段递归，
// M 为所有匹配块长度之和。按 rune 计算（标题以韩文为主，按字节会失真）。
// 两者都为空时视为完全相同。
func BlocksRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	m := matchedRunes(ra, rb)
	return 2 * float64(m) / float64(total)
}

func matchedRunes(a, b []rune) int {
	b2j := make(map[rune][]int, len(b))
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}

	type span struct{ alo, ahi, blo, bhi int }
	queue := []span{{0, len(a), 0, len(b)}}
	matched := 0
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		i, j, k := longestMatch(a, b2j, s.alo, s.ahi, s.blo, s.bhi)
		if k == 0 {
			continue
		}
		matched += k
		if s.alo < i && s.blo < j {
			queue = append(queue, span{s.alo, i, s.blo, j})
		}
		if i+k < s.ahi && j+k < s.bhi {
			queue = append(queue, span{i + k, s.ahi, j + k, s.bhi})
		}
	}
	return matched
}

// longestMatch 返回 a[alo:ahi] 与 b[blo:bhi] 的最长公共子串 (i, j, size)。
// 并列时取 a 中最靠前者，再取 b 中最靠前者。
func longestMatch(a []rune, b2j map[rune][]int, alo, ahi, blo, bhi int) (int, int, int) {
	besti, bestj, bestsize := alo, blo, 0
	j2len := map[int]int{}
	for i := alo; i < ahi; i++ {
		next := map[int]int{}
		for _, j := range b2j[a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			next[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = next
	}
	return besti, bestj, bestsize
}
