package services

import (
	"sort"
	"strings"

	"github.com/osassistant/backend/internal/logger"
	"github.com/osassistant/backend/internal/models"
	"github.com/osassistant/backend/internal/nlp"
)

const (
	cosineThreshold   = 0.1
	enhancedThreshold = 0.05
	semanticBoostUnit = 0.1
	systemMatchBoost  = 0.2

	exactTokenWeight    = 5.0
	semanticTokenWeight = 2.0
	fuzzyTokenWeight    = 1.0
	substringWeight     = 0.8
	searchThreshold     = 0.5
)

// SimilarityEngine compares problem text against a case corpus.
type SimilarityEngine struct {
	ngramMax int
}

func NewSimilarityEngine(ngramMax int) *SimilarityEngine {
	return &SimilarityEngine{ngramMax: ngramMax}
}

// cosineScores fits a TF-IDF space over the corpus plus the query and returns
// the cosine of the query against each case, in corpus order.
func (e *SimilarityEngine) cosineScores(query string, corpus []models.Case) ([]float64, error) {
	docs := make([][]string, 0, len(corpus)+1)
	for i := range corpus {
		docs = append(docs, nlp.VectorTokenizer.TokenizeText(corpus[i].ProblemDescription))
	}
	docs = append(docs, nlp.VectorTokenizer.TokenizeText(query))

	vec := nlp.NewVectorizer(e.ngramMax, 0)
	vectors, err := vec.FitTransform(docs)
	if err != nil {
		return nil, err
	}
	q := vectors[len(vectors)-1]
	scores := make([]float64, len(corpus))
	for i := range corpus {
		scores[i] = nlp.Cosine(q, vectors[i])
	}
	return scores, nil
}

// FindSimilar returns up to limit cases whose plain cosine similarity to the
// query exceeds 0.1, best first. Vectorization failures yield an empty list.
func (e *SimilarityEngine) FindSimilar(query string, corpus []models.Case, limit int) []models.ScoredCase {
	if len(corpus) == 0 || limit <= 0 {
		return []models.ScoredCase{}
	}
	scores, err := e.cosineScores(query, corpus)
	if err != nil {
		logger.WithError(err, "similarity").Warn("Vectorization failed, no similar cases")
		return []models.ScoredCase{}
	}

	var out []models.ScoredCase
	for i, s := range scores {
		if s > cosineThreshold {
			out = append(out, scored(corpus[i], s))
		}
	}
	return topN(out, limit)
}

// FindSimilarEnhanced scores each case as cosine + semantic boost (+0.1 for
// each listed equivalent of a query token found in the case) + system boost
// (+0.2 when the detected system is known and equals the case's system).
// Cases scoring above 0.05 are returned, so a same-system case qualifies on
// the system boost alone.
func (e *SimilarityEngine) FindSimilarEnhanced(query, detectedSystem string, corpus []models.Case, limit int) ([]models.ScoredCase, error) {
	if len(corpus) == 0 || limit <= 0 {
		return []models.ScoredCase{}, nil
	}
	scores, err := e.cosineScores(query, corpus)
	if err != nil {
		logger.WithError(err, "similarity").Warn("Vectorization failed, no similar cases")
		return []models.ScoredCase{}, err
	}

	queryTokens := distinct(nlp.SearchTokenizer.TokenizeText(query))
	var out []models.ScoredCase
	for i := range corpus {
		caseTokens := nlp.TokenSet(nlp.SearchTokenizer.TokenizeText(corpus[i].ProblemDescription))
		total := scores[i] + semanticBoost(queryTokens, caseTokens)
		if detectedSystem != models.UnknownSystem && detectedSystem != "" && corpus[i].SystemType == detectedSystem {
			total += systemMatchBoost
		}
		if total > enhancedThreshold {
			out = append(out, scored(corpus[i], total))
		}
	}
	return topN(out, limit), nil
}

func semanticBoost(queryTokens []string, caseTokens map[string]struct{}) float64 {
	var boost float64
	for _, tok := range queryTokens {
		for _, eq := range nlp.Equivalents(tok) {
			if _, ok := caseTokens[eq]; ok {
				boost += semanticBoostUnit
			}
		}
	}
	return boost
}

// Search ranks cases by token overlap with the query: 5 per exact token, 2
// per token reached through an equivalent, 1 per query token with a close
// spelling, and 0.8 per query word found verbatim in the case text. Cases
// scoring above 0.5 are returned best first. An empty query returns the
// system-filtered corpus unchanged; a query with no usable tokens falls back
// to a plain substring match.
func (e *SimilarityEngine) Search(query, systemFilter string, corpus []models.Case) []models.Case {
	filtered := filterBySystem(corpus, systemFilter)
	if strings.TrimSpace(query) == "" {
		return filtered
	}

	queryTokens := distinct(nlp.SearchTokenizer.TokenizeText(query))
	if len(queryTokens) == 0 {
		return substringSearch(query, filtered)
	}
	equivalents := nlp.SearchTokenizer.ExpansionSet(queryTokens)
	queryWords := strings.Fields(nlp.Normalize(query))

	var hits []models.ScoredCase
	for i := range filtered {
		if score := searchScore(queryTokens, equivalents, queryWords, &filtered[i]); score > searchThreshold {
			hits = append(hits, scored(filtered[i], score))
		}
	}
	sortScored(hits)

	out := make([]models.Case, len(hits))
	for i := range hits {
		out[i] = hits[i].Case
	}
	return out
}

func searchScore(queryTokens []string, equivalents map[string]struct{}, queryWords []string, c *models.Case) float64 {
	text := nlp.Normalize(c.Text())
	caseTokens := distinct(nlp.SearchTokenizer.Tokenize(text))
	caseSet := nlp.TokenSet(caseTokens)

	var score float64
	for _, tok := range queryTokens {
		if _, ok := caseSet[tok]; ok {
			score += exactTokenWeight
			continue
		}
		for _, ct := range caseTokens {
			if nlp.SimilarTokens(tok, ct) {
				score += fuzzyTokenWeight
				break
			}
		}
	}
	for eq := range equivalents {
		if _, ok := caseSet[eq]; ok {
			score += semanticTokenWeight
		}
	}
	for _, w := range queryWords {
		if len([]rune(w)) > 2 && strings.Contains(text, w) {
			score += substringWeight
		}
	}
	return score
}

func substringSearch(query string, corpus []models.Case) []models.Case {
	needle := strings.ToLower(strings.TrimSpace(query))
	out := []models.Case{}
	for _, c := range corpus {
		if strings.Contains(strings.ToLower(c.Text()), needle) {
			out = append(out, c)
		}
	}
	return out
}

func filterBySystem(corpus []models.Case, system string) []models.Case {
	system = strings.TrimSpace(system)
	if system == "" {
		out := make([]models.Case, len(corpus))
		copy(out, corpus)
		return out
	}
	out := []models.Case{}
	for _, c := range corpus {
		if strings.EqualFold(c.SystemType, system) {
			out = append(out, c)
		}
	}
	return out
}

// calculateRelevance converts a similarity score to a relevance bucket
func calculateRelevance(score float64) string {
	if score >= 0.5 {
		return "high"
	} else if score >= 0.25 {
		return "medium"
	}
	return "low"
}

func scored(c models.Case, score float64) models.ScoredCase {
	return models.ScoredCase{Case: c, Score: score, Relevance: calculateRelevance(score)}
}

// sortScored orders by score, descending; equal scores keep corpus order.
func sortScored(s []models.ScoredCase) {
	sort.SliceStable(s, func(i, j int) bool { return s[i].Score > s[j].Score })
}

func topN(s []models.ScoredCase, n int) []models.ScoredCase {
	sortScored(s)
	if len(s) > n {
		s = s[:n]
	}
	if s == nil {
		return []models.ScoredCase{}
	}
	return s
}
