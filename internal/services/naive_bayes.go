package services

import (
	"errors"
	"math"
	"sort"

	"github.com/osassistant/backend/internal/nlp"
)

const (
	nbMaxFeatures = 500
	nbAlpha       = 1.0
)

// NaiveBayes is a multinomial naive Bayes text classifier over TF-IDF
// features. Exported fields are the persisted form.
type NaiveBayes struct {
	Vectorizer    nlp.VectorizerState `json:"vectorizer"`
	Labels        []string            `json:"labels"`
	LogPrior      []float64           `json:"logPrior"`
	LogLikelihood [][]float64         `json:"logLikelihood"`

	vec *nlp.Vectorizer
}

// TrainNaiveBayes fits a classifier on parallel slices of texts and labels.
func TrainNaiveBayes(texts, labels []string) (*NaiveBayes, error) {
	if len(texts) != len(labels) {
		return nil, errors.New("texts and labels differ in length")
	}

	docs := make([][]string, len(texts))
	for i, text := range texts {
		docs[i] = nlp.VectorTokenizer.TokenizeText(text)
	}
	vec := nlp.NewVectorizer(1, nbMaxFeatures)
	vectors, err := vec.FitTransform(docs)
	if err != nil {
		return nil, err
	}

	labelIdx := make(map[string]int)
	for _, l := range labels {
		labelIdx[l] = 0
	}
	sorted := make([]string, 0, len(labelIdx))
	for l := range labelIdx {
		sorted = append(sorted, l)
	}
	sort.Strings(sorted)
	for i, l := range sorted {
		labelIdx[l] = i
	}

	nFeatures := vec.VocabularySize()
	counts := make([][]float64, len(sorted))
	for i := range counts {
		counts[i] = make([]float64, nFeatures)
	}
	docsPerLabel := make([]float64, len(sorted))
	for i, v := range vectors {
		li := labelIdx[labels[i]]
		docsPerLabel[li]++
		for f, w := range v {
			counts[li][f] += w
		}
	}

	nb := &NaiveBayes{
		Vectorizer:    vec.State(),
		Labels:        sorted,
		LogPrior:      make([]float64, len(sorted)),
		LogLikelihood: make([][]float64, len(sorted)),
		vec:           vec,
	}
	for li := range sorted {
		nb.LogPrior[li] = math.Log(docsPerLabel[li] / float64(len(texts)))
		var total float64
		for _, c := range counts[li] {
			total += c
		}
		denom := total + nbAlpha*float64(nFeatures)
		ll := make([]float64, nFeatures)
		for f, c := range counts[li] {
			ll[f] = math.Log((c + nbAlpha) / denom)
		}
		nb.LogLikelihood[li] = ll
	}
	return nb, nil
}

// restore rebuilds the vectorizer after the model was decoded from JSON.
func (nb *NaiveBayes) restore() error {
	vec, err := nlp.VectorizerFromState(nb.Vectorizer)
	if err != nil {
		return err
	}
	if len(nb.Labels) == 0 || len(nb.LogPrior) != len(nb.Labels) || len(nb.LogLikelihood) != len(nb.Labels) {
		return errors.New("naive bayes state is inconsistent")
	}
	nb.vec = vec
	return nil
}

// Predict returns the most probable label; the first label in sorted order
// wins ties. ok is false when the model is unusable.
func (nb *NaiveBayes) Predict(text string) (label string, ok bool) {
	if nb == nil || nb.vec == nil || len(nb.Labels) == 0 {
		return "", false
	}
	x := nb.vec.Transform(nlp.VectorTokenizer.TokenizeText(text))

	best, bestScore := 0, math.Inf(-1)
	for li := range nb.Labels {
		score := nb.LogPrior[li]
		for f, w := range x {
			if f < len(nb.LogLikelihood[li]) {
				score += w * nb.LogLikelihood[li][f]
			}
		}
		if score > bestScore {
			best, bestScore = li, score
		}
	}
	return nb.Labels[best], true
}
