package services

import (
	"math/rand"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/osassistant/backend/internal/models"
	"github.com/osassistant/backend/internal/nlp"
)

const (
	maxSuggestions      = 5
	maxSimilarSources   = 5
	maxCaseSuggestions  = 3
	minSuggestions      = 3
	varietyKeepTop      = 3
	baseConfidence      = 0.5
	degradedPenalty     = 0.2
	maxTechnicalBonus   = 0.2
	technicalTermBonus  = 0.05
	lengthBonusStep     = 50
	lengthBonusMaxSteps = 3
)

var wordPattern = regexp.MustCompile(`\p{L}+`)

type candidate struct {
	text  string
	score float64
}

// SolutionRanker merges suggestions from similar cases, pattern rules and
// system-specific templates and orders them by learned effectiveness.
type SolutionRanker struct {
	rules   *RuleSet
	learner *LearningEngine

	varietyMu sync.Mutex
	variety   *rand.Rand
}

// NewSolutionRanker builds a deterministic ranker when varietySeed is 0.
// Any other seed shuffles the suggestions ranked below the top three before
// the list is cut to five.
func NewSolutionRanker(rules *RuleSet, learner *LearningEngine, varietySeed int64) *SolutionRanker {
	r := &SolutionRanker{rules: rules, learner: learner}
	if varietySeed != 0 {
		r.variety = rand.New(rand.NewSource(varietySeed))
	}
	return r
}

// Rank returns at most five suggestions for the problem.
func (r *SolutionRanker) Rank(problem, detectedSystem string, similar []models.Case) []string {
	seen := make(map[string]struct{})
	var ranked []candidate

	// prior solutions of similar cases, best three by effectiveness
	var fromCases []candidate
	local := make(map[string]struct{})
	for i := range similar {
		if i == maxSimilarSources {
			break
		}
		sol := strings.TrimSpace(r.ToInfinitive(similar[i].Solution))
		key := nlp.Normalize(sol)
		if key == "" {
			continue
		}
		if _, dup := local[key]; dup {
			continue
		}
		local[key] = struct{}{}
		fromCases = append(fromCases, candidate{text: sol, score: r.learner.Effectiveness(sol, problem)})
	}
	sortCandidates(fromCases)
	if len(fromCases) > maxCaseSuggestions {
		fromCases = fromCases[:maxCaseSuggestions]
	}
	for _, c := range fromCases {
		seen[nlp.Normalize(c.text)] = struct{}{}
		ranked = append(ranked, c)
	}

	// pattern rules and system templates fill the remaining slots
	var fromRules []candidate
	addRule := func(sol string) {
		key := nlp.Normalize(sol)
		if key == "" {
			return
		}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		fromRules = append(fromRules, candidate{text: sol, score: r.learner.Effectiveness(sol, problem)})
	}
	for _, cat := range r.MatchingCategories(problem) {
		for _, sol := range cat.Solutions {
			addRule(sol)
		}
	}
	for _, sol := range r.rules.SystemSolutions[detectedSystem] {
		addRule(sol)
	}
	sortCandidates(fromRules)
	for _, c := range fromRules {
		if len(ranked) >= maxSuggestions {
			break
		}
		ranked = append(ranked, c)
	}

	if len(ranked) < minSuggestions {
		for _, sol := range append([]string{r.rules.Escalation}, r.rules.GenericSteps...) {
			key := nlp.Normalize(sol)
			if _, dup := seen[key]; dup || key == "" {
				continue
			}
			seen[key] = struct{}{}
			ranked = append(ranked, candidate{text: sol, score: r.learner.Effectiveness(sol, problem)})
		}
	}

	if r.learner.HasRankingWeights() {
		for i := range ranked {
			ranked[i].score = r.learner.RankingScore(ranked[i].text, problem, ranked[i].score)
		}
	}
	sortCandidates(ranked)
	r.shuffleTail(ranked)

	if len(ranked) > maxSuggestions {
		ranked = ranked[:maxSuggestions]
	}
	out := make([]string, len(ranked))
	for i, c := range ranked {
		out[i] = r.ToInfinitive(c.text)
	}
	return out
}

func (r *SolutionRanker) shuffleTail(ranked []candidate) {
	if r.variety == nil || len(ranked) <= varietyKeepTop+1 {
		return
	}
	tail := ranked[varietyKeepTop:]
	r.varietyMu.Lock()
	r.variety.Shuffle(len(tail), func(i, j int) { tail[i], tail[j] = tail[j], tail[i] })
	r.varietyMu.Unlock()
}

// MatchingCategories returns the rule categories with at least one keyword
// that prefixes a problem token, in table order.
func (r *SolutionRanker) MatchingCategories(problem string) []SolutionCategory {
	tokens := distinct(nlp.SearchTokenizer.TokenizeText(problem))
	var out []SolutionCategory
	for _, cat := range r.rules.Categories {
		if categoryMatches(cat, tokens) {
			out = append(out, cat)
		}
	}
	return out
}

func categoryMatches(cat SolutionCategory, tokens []string) bool {
	for _, kw := range cat.Keywords {
		if kw == "" {
			continue
		}
		for _, tok := range tokens {
			if strings.HasPrefix(tok, kw) {
				return true
			}
		}
	}
	return false
}

// ToInfinitive rewrites known past participles ("corrigida") to the
// infinitive ("corrigir"), keeping an initial capital.
func (r *SolutionRanker) ToInfinitive(text string) string {
	if len(r.rules.Participles) == 0 {
		return text
	}
	return wordPattern.ReplaceAllStringFunc(text, func(w string) string {
		inf, ok := r.rules.Participles[strings.ToLower(w)]
		if !ok {
			return w
		}
		first, _ := utf8.DecodeRuneInString(w)
		if unicode.IsUpper(first) {
			head, size := utf8.DecodeRuneInString(inf)
			return string(unicode.ToUpper(head)) + inf[size:]
		}
		return inf
	})
}

// Confidence scores an analysis: 0.5 base, +0.1 per 50 characters of problem
// text (at most +0.3), +0.2 for a known system, +0.1 for three or more
// suggestions and +0.05 per technical term (at most +0.2), clamped to [0,1].
func (r *SolutionRanker) Confidence(problem, system string, suggestions []string) float64 {
	conf := baseConfidence

	steps := utf8.RuneCountInString(problem) / lengthBonusStep
	if steps > lengthBonusMaxSteps {
		steps = lengthBonusMaxSteps
	}
	conf += 0.1 * float64(steps)

	if system != "" && system != models.UnknownSystem {
		conf += 0.2
	}
	if len(suggestions) >= minSuggestions {
		conf += 0.1
	}

	lower := strings.ToLower(problem)
	terms := 0
	for _, term := range r.rules.TechnicalTerms {
		if term != "" && strings.Contains(lower, term) {
			terms++
		}
	}
	bonus := technicalTermBonus * float64(terms)
	if bonus > maxTechnicalBonus {
		bonus = maxTechnicalBonus
	}
	conf += bonus

	return clamp(conf, 0, 1)
}

func sortCandidates(c []candidate) {
	sort.SliceStable(c, func(i, j int) bool { return c[i].score > c[j].score })
}
