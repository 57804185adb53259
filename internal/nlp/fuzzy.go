package nlp

// SimilarTokens reports whether two tokens are close spellings of each other.
// Both must be longer than 3 runes, the shorter at least 60% the length of the
// longer, and the characters equal at the same position (aligned from index 0)
// must cover more than 70% of the shorter token.
func SimilarTokens(a, b string) bool {
	ra, rb := []rune(a), []rune(b)
	if len(ra) <= 3 || len(rb) <= 3 {
		return false
	}
	short, long := ra, rb
	if len(short) > len(long) {
		short, long = long, short
	}
	if float64(len(short)) < 0.6*float64(len(long)) {
		return false
	}
	matches := 0
	for i := range short {
		if short[i] == long[i] {
			matches++
		}
	}
	return float64(matches) > 0.7*float64(len(short))
}
