package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", "  \t\n ", ""},
		{"accents and case", "Erro de Conexão com Banco", "erro de conexao com banco"},
		{"cedilla and tilde", "Ação não funcionará", "acao nao funcionara"},
		{"punctuation becomes space", "senha!!expirada...(urgente)", "senha expirada urgente"},
		{"hyphen kept", "e-mail fora-do-ar", "e-mail fora-do-ar"},
		{"abbreviation expanded", "vc nao consegue acessar o sist", "voce nao consegue acessar o sistema"},
		{"db expands", "DB lento", "database lento"},
		{"collapses runs", "a    b\t\tc", "a b c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	samples := []string{
		"Erro de conexão com banco de dados Oracle",
		"Usuário não consegue fazer login no Tasy - senha expirada",
		"vc pq tb msg cfg config bd db pwd",
		"Impressora HP não imprime!!! Fila travada???",
		"ÀÁÂÃÄ èéêë ìíîï òóôõö ùúûü ç ñ",
		"Tela de agendamento apresenta erro 500_interno",
		"",
		"   ",
		"e-mail — “aspas” 'simples' ≥ 3",
	}
	for _, s := range samples {
		once := Normalize(s)
		assert.Equal(t, once, Normalize(once), "input %q", s)
	}
}

func TestStripDiacritics(t *testing.T) {
	assert.Equal(t, "conexao", StripDiacritics("conexão"))
	assert.Equal(t, "ACAO", StripDiacritics("AÇÃO"))
	assert.Equal(t, "pinguim", StripDiacritics("pingüim"))
}

func TestTokenizeVariants(t *testing.T) {
	normalized := Normalize("O banco de dados não conecta no TI")

	search := SearchTokenizer.Tokenize(normalized)
	assert.Equal(t, []string{"banco", "dados", "nao", "conecta", "ti"}, search)

	vector := VectorTokenizer.Tokenize(normalized)
	assert.Equal(t, []string{"banco", "dados", "nao", "conecta"}, vector)
}

func TestTokenizeKeepsDuplicatesAndOrder(t *testing.T) {
	got := SearchTokenizer.Tokenize("erro erro senha erro")
	assert.Equal(t, []string{"erro", "erro", "senha", "erro"}, got)
}

func TestTokenizeExpanded(t *testing.T) {
	got := SearchTokenizer.TokenizeExpanded("senha expirada")
	require.GreaterOrEqual(t, len(got), 2)
	assert.Equal(t, []string{"senha", "expirada"}, got[:2])
	assert.Contains(t, got, "password")

	limited := Tokenizer{MinLen: 2, MaxEquivalents: 1}.TokenizeExpanded("senha")
	assert.Equal(t, []string{"senha", "password"}, limited)

	assert.Equal(t, []string{"senha"}, VectorTokenizer.TokenizeExpanded("senha"))
}

func TestExpansionSet(t *testing.T) {
	set := SearchTokenizer.ExpansionSet([]string{"senha", "password"})
	assert.Contains(t, set, "credencial")
	assert.NotContains(t, set, "senha")
	assert.NotContains(t, set, "password")
	assert.Empty(t, SearchTokenizer.ExpansionSet([]string{"xyzzy"}))

	limited := Tokenizer{MinLen: 2, MaxEquivalents: 1}.ExpansionSet([]string{"senha"})
	assert.Equal(t, map[string]struct{}{"password": {}}, limited)
	assert.Empty(t, VectorTokenizer.ExpansionSet([]string{"senha"}))
}

func TestEquivalentsNeverListTheirKey(t *testing.T) {
	for key, eqs := range semanticEquivalents {
		assert.NotContains(t, eqs, key, "entry %q", key)
	}
	got := SearchTokenizer.TokenizeExpanded("reiniciar")
	assert.Equal(t, []string{"reiniciar", "restart", "reboot", "reinicio"}, got)
}

func TestNgrams(t *testing.T) {
	got := Ngrams([]string{"a", "b", "c"}, 3)
	assert.Equal(t, []string{"a", "b", "c", "a b", "b c", "a b c"}, got)
	assert.Equal(t, []string{"a"}, Ngrams([]string{"a"}, 3))
	assert.Empty(t, Ngrams(nil, 2))
}

func TestVectorizerCosine(t *testing.T) {
	doc := VectorTokenizer.TokenizeText("erro de conexão com banco de dados Oracle")
	query := VectorTokenizer.TokenizeText("banco de dados não conecta")

	v := NewVectorizer(3, 0)
	vecs, err := v.FitTransform([][]string{doc, query})
	require.NoError(t, err)
	require.Len(t, vecs, 2)

	sim := Cosine(vecs[1], vecs[0])
	assert.InDelta(t, 0.171, sim, 0.005)
	assert.InDelta(t, 1.0, Cosine(vecs[0], vecs[0]), 1e-9)
}

func TestVectorizerDisjointIsZero(t *testing.T) {
	v := NewVectorizer(2, 0)
	vecs, err := v.FitTransform([][]string{{"impressora", "fila"}, {"senha", "expirada"}})
	require.NoError(t, err)
	assert.Zero(t, Cosine(vecs[0], vecs[1]))
}

func TestVectorizerDegenerate(t *testing.T) {
	v := NewVectorizer(3, 0)
	assert.ErrorIs(t, v.Fit(nil), ErrEmptyVocabulary)
	assert.ErrorIs(t, v.Fit([][]string{{}, {}}), ErrEmptyVocabulary)
	assert.Empty(t, v.Transform([]string{"senha"}))
}

func TestVectorizerMaxFeatures(t *testing.T) {
	v := NewVectorizer(1, 2)
	require.NoError(t, v.Fit([][]string{{"rede", "rede", "senha", "erro"}, {"rede", "senha"}}))
	assert.Equal(t, 2, v.VocabularySize())
	assert.Empty(t, v.Transform([]string{"erro"}))
}

func TestNewVectorizerClampsNgram(t *testing.T) {
	assert.Equal(t, MaxNgram, NewVectorizer(9, 0).NgramMax)
	assert.Equal(t, 1, NewVectorizer(0, 0).NgramMax)
}

func TestSimilarTokens(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"conexao", "conexoes", true},
		{"impressora", "impresora", false}, // misaligned after the first mismatch
		{"senha", "senhas", true},
		{"rede", "redes", true},
		{"abc", "abd", false},
		{"servidor", "serv", false},
		{"banco", "bloco", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SimilarTokens(tt.a, tt.b), "%s ~ %s", tt.a, tt.b)
	}
}

func TestVectorizerStateRoundTrip(t *testing.T) {
	v := NewVectorizer(2, 0)
	docs := [][]string{{"senha", "expirada"}, {"rede", "lenta", "senha"}}
	require.NoError(t, v.Fit(docs))

	restored, err := VectorizerFromState(v.State())
	require.NoError(t, err)
	assert.Equal(t, v.Transform(docs[1]), restored.Transform(docs[1]))

	_, err = VectorizerFromState(VectorizerState{})
	assert.ErrorIs(t, err, ErrEmptyVocabulary)
}
