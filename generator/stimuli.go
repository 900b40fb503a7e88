package generator

import "math/rand/v2"

// StimulusCount 是随机刺激法需要的词数，每个词绑定一个方案位置。
const StimulusCount = 3

// SampleStimuli draws count distinct words from the flattened pool without
// replacement. A pool with fewer words yields all of them. r may be nil.
func SampleStimuli(pool [][]string, count int, r *rand.Rand) []string {
	if count <= 0 {
		return []string{}
	}
	// 复制一份工作集，避免修改共享词库。
	var available []string
	seen := make(map[string]bool)
	for _, group := range pool {
		for _, w := range group {
			if w == "" || seen[w] {
				continue
			}
			seen[w] = true
			available = append(available, w)
		}
	}

	selected := make([]string, 0, min(count, len(available)))
	for i := 0; i < count && len(available) > 0; i++ {
		var idx int
		if r != nil {
			idx = r.IntN(len(available))
		} else {
			idx = rand.IntN(len(available))
		}
		selected = append(selected, available[idx])
		available = append(available[:idx], available[idx+1:]...)
	}
	return selected
}
