package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osassistant/backend/internal/models"
	"github.com/osassistant/backend/internal/nlp"
)

func oracleCase() models.Case {
	return models.Case{
		ID:                 1,
		ProblemDescription: "erro de conexão com banco de dados Oracle",
		Solution:           "1. Verificar conectividade\n2. Reiniciar serviço",
		SystemType:         "Tasy",
	}
}

func TestFindSimilarScenario(t *testing.T) {
	e := NewSimilarityEngine(3)
	got := e.FindSimilar("banco de dados não conecta", []models.Case{oracleCase()}, 5)

	require.Len(t, got, 1)
	assert.Equal(t, uint(1), got[0].Case.ID)
	assert.InDelta(t, 0.171, got[0].Score, 0.005)
	assert.Equal(t, "low", got[0].Relevance)
}

func TestFindSimilarZeroOverlap(t *testing.T) {
	e := NewSimilarityEngine(3)
	corpus := []models.Case{
		{ID: 1, ProblemDescription: "impressora não imprime"},
		{ID: 2, ProblemDescription: "senha expirada no tasy"},
	}

	got := e.FindSimilar("rede lenta hoje", corpus, 5)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFindSimilarOrderAndLimit(t *testing.T) {
	e := NewSimilarityEngine(2)
	corpus := []models.Case{
		{ID: 1, ProblemDescription: "fila de impressão travada"},
		{ID: 2, ProblemDescription: "impressora travada na fila de impressão do setor"},
		{ID: 3, ProblemDescription: "impressora travada"},
		{ID: 4, ProblemDescription: "senha expirada"},
	}

	got := e.FindSimilar("impressora travada", corpus, 2)
	require.Len(t, got, 2)
	assert.Equal(t, uint(3), got[0].Case.ID)
	assert.InDelta(t, 1.0, got[0].Score, 1e-9)
	assert.GreaterOrEqual(t, got[0].Score, got[1].Score)

	assert.Empty(t, e.FindSimilar("impressora", nil, 5))
	assert.Empty(t, e.FindSimilar("impressora", corpus, 0))
}

func TestFindSimilarDegenerateCorpus(t *testing.T) {
	e := NewSimilarityEngine(3)
	corpus := []models.Case{{ID: 1, ProblemDescription: "a b"}}

	assert.Empty(t, e.FindSimilar("ok", corpus, 5))

	got, err := e.FindSimilarEnhanced("ok", models.UnknownSystem, corpus, 5)
	assert.ErrorIs(t, err, ErrDegenerateCorpus)
	assert.Empty(t, got)
}

func TestFindSimilarEnhancedBoosts(t *testing.T) {
	e := NewSimilarityEngine(3)
	corpus := []models.Case{oracleCase()}

	plain := e.FindSimilar("banco de dados não conecta", corpus, 5)
	require.Len(t, plain, 1)

	// "banco" reaches "dados" and "conecta" reaches "conexao": +0.2
	enhanced, err := e.FindSimilarEnhanced("banco de dados não conecta", "Database", corpus, 5)
	require.NoError(t, err)
	require.Len(t, enhanced, 1)
	assert.InDelta(t, plain[0].Score+0.2, enhanced[0].Score, 1e-9)

	boosted, err := e.FindSimilarEnhanced("banco de dados não conecta", "Tasy", corpus, 5)
	require.NoError(t, err)
	require.Len(t, boosted, 1)
	assert.InDelta(t, enhanced[0].Score+0.2, boosted[0].Score, 1e-9)
}

func TestFindSimilarEnhancedSemanticOnly(t *testing.T) {
	e := NewSimilarityEngine(3)
	corpus := []models.Case{
		{ID: 1, ProblemDescription: "password reset necessário", SystemType: "Tasy"},
		{ID: 2, ProblemDescription: "impressora travada", SystemType: "Network"},
	}

	got, err := e.FindSimilarEnhanced("senha bloqueada", "Database", corpus, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint(1), got[0].Case.ID)
	assert.InDelta(t, 0.1, got[0].Score, 1e-9)
}

func TestFindSimilarEnhancedSystemMatchAlone(t *testing.T) {
	e := NewSimilarityEngine(3)
	corpus := []models.Case{
		{ID: 1, ProblemDescription: "impressora nao imprime etiquetas", SystemType: "Tasy"},
		{ID: 2, ProblemDescription: "monitor piscando tela preta", SystemType: "Network"},
	}

	got, err := e.FindSimilarEnhanced("paciente prontuario lento", "Tasy", corpus, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint(1), got[0].Case.ID)
	assert.InDelta(t, systemMatchBoost, got[0].Score, 1e-9)
	assert.Equal(t, "low", got[0].Relevance)

	got, err = e.FindSimilarEnhanced("paciente prontuario lento", models.UnknownSystem, corpus, 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func searchCorpus() []models.Case {
	return []models.Case{
		{ID: 1, ProblemDescription: "senha expirada", Solution: "orientar troca", SystemType: "Tasy"},
		{ID: 2, ProblemDescription: "password expired", Solution: "reset via portal", SystemType: "SGU"},
		{ID: 3, ProblemDescription: "impressora travada", Solution: "limpar fila", SystemType: "tasy"},
		{ID: 4, ProblemDescription: "Erro ?? na tela", Solution: "recarregar", SystemType: "SGU"},
	}
}

func TestSearchScoringWeights(t *testing.T) {
	corpus := searchCorpus()
	tokens := []string{"senha"}
	equivalents := nlp.SearchTokenizer.ExpansionSet(tokens)
	words := []string{"senha"}

	exact := searchScore(tokens, equivalents, words, &corpus[0])
	viaEquivalent := searchScore(tokens, equivalents, words, &corpus[1])

	assert.InDelta(t, exactTokenWeight+substringWeight, exact, 1e-9)
	assert.InDelta(t, semanticTokenWeight, viaEquivalent, 1e-9)
	assert.Greater(t, exact, viaEquivalent)
}

func TestSearchFuzzyMatch(t *testing.T) {
	c := models.Case{ProblemDescription: "conexoes instáveis"}
	score := searchScore([]string{"conexao"}, nil, nil, &c)
	assert.InDelta(t, fuzzyTokenWeight, score, 1e-9)
}

func TestSearch(t *testing.T) {
	e := NewSimilarityEngine(3)
	corpus := searchCorpus()

	got := e.Search("senha", "", corpus)
	require.Len(t, got, 2)
	assert.Equal(t, uint(1), got[0].ID)
	assert.Equal(t, uint(2), got[1].ID)

	got = e.Search("senha", "sgu", corpus)
	require.Len(t, got, 1)
	assert.Equal(t, uint(2), got[0].ID)
}

func TestSearchEmptyQueryFiltersOnly(t *testing.T) {
	e := NewSimilarityEngine(3)
	corpus := searchCorpus()

	all := e.Search("   ", "", corpus)
	assert.Len(t, all, len(corpus))

	tasy := e.Search("", "TASY", corpus)
	require.Len(t, tasy, 2)
	assert.Equal(t, uint(1), tasy[0].ID)
	assert.Equal(t, uint(3), tasy[1].ID)
}

func TestSearchWithoutTokensFallsBackToSubstring(t *testing.T) {
	e := NewSimilarityEngine(3)
	got := e.Search("??", "", searchCorpus())
	require.Len(t, got, 1)
	assert.Equal(t, uint(4), got[0].ID)
}

func TestCalculateRelevance(t *testing.T) {
	assert.Equal(t, "high", calculateRelevance(0.5))
	assert.Equal(t, "medium", calculateRelevance(0.25))
	assert.Equal(t, "low", calculateRelevance(0.11))
}
