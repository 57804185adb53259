package nlp

import (
	"errors"
	"math"
	"sort"
	"strings"
)

// ErrEmptyVocabulary is returned by Fit when the corpus yields no terms.
var ErrEmptyVocabulary = errors.New("empty vocabulary: corpus contains no usable terms")

// MaxNgram is the longest n-gram span a Vectorizer accepts.
const MaxNgram = 4

// Vector is a sparse TF-IDF vector keyed by vocabulary index.
type Vector map[int]float64

// Vectorizer builds a TF-IDF space over token sequences. Vocabulary units are
// the contiguous n-grams of length 1..NgramMax of each sequence. Weights use
// raw term counts and smoothed idf, ln((1+n)/(1+df))+1, and every vector is
// L2-normalized.
type Vectorizer struct {
	NgramMax    int
	MaxFeatures int // 0 keeps every term

	vocab map[string]int
	idf   []float64
}

// NewVectorizer clamps ngramMax to [1, MaxNgram].
func NewVectorizer(ngramMax, maxFeatures int) *Vectorizer {
	if ngramMax < 1 {
		ngramMax = 1
	}
	if ngramMax > MaxNgram {
		ngramMax = MaxNgram
	}
	if maxFeatures < 0 {
		maxFeatures = 0
	}
	return &Vectorizer{NgramMax: ngramMax, MaxFeatures: maxFeatures}
}

// Ngrams returns the n-grams of tokens for n = 1..max, unigrams first.
func Ngrams(tokens []string, max int) []string {
	out := make([]string, 0, len(tokens)*max)
	for n := 1; n <= max; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}

// Fit learns the vocabulary and idf weights from docs.
func (v *Vectorizer) Fit(docs [][]string) error {
	if len(docs) == 0 {
		return ErrEmptyVocabulary
	}

	df := make(map[string]int)
	total := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, term := range Ngrams(doc, v.NgramMax) {
			total[term]++
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}
	if len(df) == 0 {
		return ErrEmptyVocabulary
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	if v.MaxFeatures > 0 && len(terms) > v.MaxFeatures {
		sort.Slice(terms, func(i, j int) bool {
			if total[terms[i]] != total[terms[j]] {
				return total[terms[i]] > total[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:v.MaxFeatures]
	}
	sort.Strings(terms)

	n := float64(len(docs))
	v.vocab = make(map[string]int, len(terms))
	v.idf = make([]float64, len(terms))
	for i, term := range terms {
		v.vocab[term] = i
		v.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	return nil
}

// Transform maps a token sequence into the fitted space. Terms outside the
// vocabulary are ignored; an unfitted vectorizer returns an empty vector.
func (v *Vectorizer) Transform(tokens []string) Vector {
	vec := make(Vector)
	if v.vocab == nil {
		return vec
	}
	for _, term := range Ngrams(tokens, v.NgramMax) {
		if idx, ok := v.vocab[term]; ok {
			vec[idx]++
		}
	}
	var norm float64
	for idx, tf := range vec {
		w := tf * v.idf[idx]
		vec[idx] = w
		norm += w * w
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for idx := range vec {
		vec[idx] /= norm
	}
	return vec
}

// FitTransform fits docs and returns their vectors in order.
func (v *Vectorizer) FitTransform(docs [][]string) ([]Vector, error) {
	if err := v.Fit(docs); err != nil {
		return nil, err
	}
	out := make([]Vector, len(docs))
	for i, doc := range docs {
		out[i] = v.Transform(doc)
	}
	return out, nil
}

// VocabularySize is zero until Fit succeeds.
func (v *Vectorizer) VocabularySize() int {
	return len(v.vocab)
}

// Cosine returns the cosine similarity of two sparse vectors, 0 when either
// has zero norm.
func Cosine(a, b Vector) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot, na, nb float64
	for idx, x := range a {
		dot += x * b[idx]
		na += x * x
	}
	for _, y := range b {
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// VectorizerState is the serializable form of a fitted Vectorizer.
type VectorizerState struct {
	NgramMax int       `json:"ngramMax"`
	Terms    []string  `json:"terms"`
	IDF      []float64 `json:"idf"`
}

// State exports the fitted vocabulary, ordered by index.
func (v *Vectorizer) State() VectorizerState {
	terms := make([]string, len(v.vocab))
	for term, idx := range v.vocab {
		terms[idx] = term
	}
	idf := make([]float64, len(v.idf))
	copy(idf, v.idf)
	return VectorizerState{NgramMax: v.NgramMax, Terms: terms, IDF: idf}
}

// VectorizerFromState rebuilds a fitted Vectorizer.
func VectorizerFromState(s VectorizerState) (*Vectorizer, error) {
	if len(s.Terms) == 0 {
		return nil, ErrEmptyVocabulary
	}
	if len(s.Terms) != len(s.IDF) {
		return nil, errors.New("vectorizer state: terms and idf lengths differ")
	}
	v := NewVectorizer(s.NgramMax, 0)
	v.vocab = make(map[string]int, len(s.Terms))
	v.idf = make([]float64, len(s.IDF))
	copy(v.idf, s.IDF)
	for i, term := range s.Terms {
		v.vocab[term] = i
	}
	return v, nil
}
