// Package nlp holds the text pipeline shared by classification, similarity
// and ranking: normalization, bilingual tokenization, semantic expansion and
// TF-IDF vectorization.
package nlp

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// plainRunes covers accented characters that survive decomposition in some
// inputs (precomposed forms outside the Latin-1 blocks, legacy encodings).
var plainRunes = map[rune]rune{
	'à': 'a', 'á': 'a', 'â': 'a', 'ã': 'a', 'ä': 'a', 'å': 'a',
	'è': 'e', 'é': 'e', 'ê': 'e', 'ë': 'e',
	'ì': 'i', 'í': 'i', 'î': 'i', 'ï': 'i',
	'ò': 'o', 'ó': 'o', 'ô': 'o', 'õ': 'o', 'ö': 'o',
	'ù': 'u', 'ú': 'u', 'û': 'u', 'ü': 'u',
	'ç': 'c', 'ñ': 'n', 'ý': 'y', 'ÿ': 'y',
}

// abbreviations are expanded after punctuation removal. Expansions must not
// contain any key, otherwise Normalize stops being idempotent.
var abbreviations = map[string]string{
	"vc":     "voce",
	"vcs":    "voces",
	"pq":     "porque",
	"tb":     "tambem",
	"tbm":    "tambem",
	"qdo":    "quando",
	"hj":     "hoje",
	"msg":    "mensagem",
	"usr":    "usuario",
	"usu":    "usuario",
	"cfg":    "configuracao",
	"config": "configuracao",
	"sist":   "sistema",
	"obs":    "observacao",
	"db":     "database",
	"bd":     "banco dados",
	"pwd":    "password",
	"info":   "informacao",
}

// StripDiacritics removes combining marks after canonical decomposition and
// maps the remaining accented runes to their plain form.
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Map(func(r rune) rune {
		if p, ok := plainRunes[r]; ok {
			return p
		}
		return r
	}, out)
}

func isWordRune(r rune) bool {
	return r == '_' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Normalize lowercases text, strips diacritics, replaces everything that is
// not a word character or hyphen with a space, expands common abbreviations
// and collapses whitespace. Empty input yields an empty string.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	s := StripDiacritics(strings.ToLower(text))
	s = strings.Map(func(r rune) rune {
		if isWordRune(r) {
			return r
		}
		return ' '
	}, s)

	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	for i, f := range fields {
		if exp, ok := abbreviations[f]; ok {
			fields[i] = exp
		}
	}
	return strings.Join(fields, " ")
}
