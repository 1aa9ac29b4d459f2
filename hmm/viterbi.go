package hmm

// Decode performs Viterbi decoding to find the best tag sequence.
// The sequence always ends in TagE or TagS.
func (m *Model) Decode(runes []rune) []int {
	n := len(runes)
	if n == 0 {
		return []int{}
	}

	// dp[i][tag] = max log probability of a path ending at i with tag
	dp := make([][numTags]float64, n)
	// path[i][tag] = previous tag that gave max score
	path := make([][numTags]int, n)

	for tag := 0; tag < numTags; tag++ {
		dp[0][tag] = m.Start[tag] + m.emit(tag, runes[0])
	}

	for i := 1; i < n; i++ {
		for curr := 0; curr < numTags; curr++ {
			emission := m.emit(curr, runes[i])
			maxScore := 0.0
			bestPrev := -1
			for prev := 0; prev < numTags; prev++ {
				score := dp[i-1][prev] + m.Trans[prev][curr] + emission
				if bestPrev < 0 || score > maxScore {
					maxScore = score
					bestPrev = prev
				}
			}
			dp[i][curr] = maxScore
			path[i][curr] = bestPrev
		}
	}

	bestEnd := TagE
	if dp[n-1][TagS] > dp[n-1][TagE] {
		bestEnd = TagS
	}

	tags := make([]int, n)
	tags[n-1] = bestEnd
	for i := n - 1; i > 0; i-- {
		tags[i-1] = path[i][tags[i]]
	}
	return tags
}
