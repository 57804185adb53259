package nlp

import (
	"strings"
	"unicode/utf8"
)

// Tokenizer splits normalized text into tokens. MinLen is measured in runes.
type Tokenizer struct {
	MinLen         int
	MaxEquivalents int
}

var (
	// SearchTokenizer is used by text search, the feedback learner and ranking.
	SearchTokenizer = Tokenizer{MinLen: 2, MaxEquivalents: 3}
	// VectorTokenizer feeds TF-IDF vector construction. Expansion happens
	// after vectorization, as a score boost, never inside the vectors.
	VectorTokenizer = Tokenizer{MinLen: 3, MaxEquivalents: 0}
)

// Tokenize splits on whitespace and drops stop words and short tokens.
// Order and duplicates are preserved.
func (t Tokenizer) Tokenize(normalized string) []string {
	fields := strings.Fields(normalized)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) < t.MinLen {
			continue
		}
		if IsStopWord(f) {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// TokenizeExpanded is Tokenize followed by semantic expansion: each token
// with an entry in the equivalents table appends up to MaxEquivalents of its
// listed equivalents to the stream.
func (t Tokenizer) TokenizeExpanded(normalized string) []string {
	tokens := t.Tokenize(normalized)
	if t.MaxEquivalents <= 0 {
		return tokens
	}
	expanded := make([]string, 0, len(tokens)*2)
	expanded = append(expanded, tokens...)
	for _, tok := range tokens {
		expanded = append(expanded, t.equivalents(tok)...)
	}
	return expanded
}

// ExpansionSet returns the equivalents TokenizeExpanded would add for tokens,
// minus the tokens themselves.
func (t Tokenizer) ExpansionSet(tokens []string) map[string]struct{} {
	own := TokenSet(tokens)
	set := make(map[string]struct{})
	for _, tok := range tokens {
		for _, eq := range t.equivalents(tok) {
			if _, isOwn := own[eq]; !isOwn {
				set[eq] = struct{}{}
			}
		}
	}
	return set
}

func (t Tokenizer) equivalents(tok string) []string {
	if t.MaxEquivalents <= 0 {
		return nil
	}
	eq := Equivalents(tok)
	if len(eq) > t.MaxEquivalents {
		eq = eq[:t.MaxEquivalents]
	}
	return eq
}

// TokenizeText normalizes raw text and tokenizes it.
func (t Tokenizer) TokenizeText(text string) []string {
	return t.Tokenize(Normalize(text))
}

// TokenSet returns the distinct tokens of a slice.
func TokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return set
}

// IsStopWord reports whether a normalized token is in the combined
// Portuguese and English stop-word list.
func IsStopWord(tok string) bool {
	_, ok := stopWords[tok]
	return ok
}

var stopWords = func() map[string]struct{} {
	words := []string{
		// Portuguese articles, prepositions, contractions
		"a", "o", "as", "os", "um", "uma", "uns", "umas",
		"de", "do", "da", "dos", "das", "em", "no", "na", "nos", "nas",
		"ao", "aos", "por", "pelo", "pela", "pelos", "pelas", "para", "pra", "pro",
		"com", "sem", "sob", "sobre", "entre", "ate", "apos", "desde", "num", "numa",
		"dum", "duma", "neste", "nesta", "nesse", "nessa", "naquele", "naquela",
		// Portuguese conjunctions and pronouns
		"e", "ou", "mas", "que", "se", "porque", "como", "quando", "onde", "pois",
		"nem", "tambem", "ja", "mais", "menos", "muito", "muita", "muitos", "muitas",
		"eu", "tu", "ele", "ela", "vos", "eles", "elas", "voce", "voces",
		"me", "te", "lhe", "lhes", "meu", "minha", "seu", "sua", "seus", "suas",
		"este", "esta", "estes", "estas", "esse", "essa", "esses", "essas",
		"isso", "isto", "aquilo", "aquele", "aquela", "qual", "quais",
		// Portuguese common verb forms
		"ser", "sou", "foi", "era", "sao", "estar", "estou", "estao", "estava",
		"ter", "tem", "tenho", "tinha", "ha", "haver", "houve", "fica", "ficou",
		"fazer", "faz", "fez", "vai", "vou", "pode", "podem", "consegue", "consigo",
		"conseguem", "conseguir", "sendo", "sido", "seria", "hoje",
		// English articles, prepositions, conjunctions
		"the", "an", "and", "or", "but", "of", "to", "in", "on", "at", "by",
		"for", "with", "from", "into", "about", "as", "if", "then", "than",
		"this", "that", "these", "those", "it", "its", "there", "here",
		"i", "you", "he", "she", "we", "they", "my", "your", "our", "their",
		// English common verb forms
		"is", "are", "was", "were", "be", "been", "being", "am",
		"has", "have", "had", "do", "does", "did", "can", "could",
		"will", "would", "should", "may", "might", "must", "not", "no",
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}()
