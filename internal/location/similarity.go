package location

// jaroWinkler returns the Jaro-Winkler similarity of two lowercase words,
// 0 for nothing in common and 1 for identical.
func jaroWinkler(s1, s2 string) float64 {
	jaro := jaro(s1, s2)
	prefix := 0
	for i := 0; i < min(len(s1), len(s2), 4); i++ {
		if s1[i] != s2[i] {
			break
		}
		prefix++
	}
	return jaro + float64(prefix)*0.1*(1-jaro)
}

func jaro(s1, s2 string) float64 {
	if s1 == s2 {
		return 1
	}
	if len(s1) == 0 || len(s2) == 0 {
		return 0
	}
	window := max(max(len(s1), len(s2))/2-1, 0)
	m1 := make([]bool, len(s1))
	m2 := make([]bool, len(s2))
	matches := 0
	for i := 0; i < len(s1); i++ {
		lo, hi := max(0, i-window), min(len(s2), i+window+1)
		for j := lo; j < hi; j++ {
			if m2[j] || s1[i] != s2[j] {
				continue
			}
			m1[i], m2[j] = true, true
			matches++
			break
		}
	}
	if matches == 0 {
		return 0
	}
	transpositions, k := 0, 0
	for i := 0; i < len(s1); i++ {
		if !m1[i] {
			continue
		}
		for !m2[k] {
			k++
		}
		if s1[i] != s2[k] {
			transpositions++
		}
		k++
	}
	m := float64(matches)
	t := float64(transpositions) / 2
	return (m/float64(len(s1)) + m/float64(len(s2)) + (m-t)/m) / 3
}

// sameWord treats short words strictly and lets longer ones absorb a typo.
func sameWord(a, b string) bool {
	if a == b {
		return true
	}
	if len(a) < 4 || len(b) < 4 {
		return false
	}
	return jaroWinkler(a, b) >= 0.92
}
