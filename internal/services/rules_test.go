package services

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRuleSet(t *testing.T) {
	rules := DefaultRuleSet()
	require.NoError(t, rules.Validate())

	systems := rules.SupportedSystems()
	assert.True(t, sort.StringsAreSorted(systems), "systems are evaluated alphabetically")
	assert.Contains(t, systems, "Tasy")
	assert.Contains(t, systems, "Database")

	// fresh copy each call
	rules.Systems[0].System = "changed"
	assert.NotEqual(t, "changed", DefaultRuleSet().Systems[0].System)
}

func TestLoadRuleSetDefaults(t *testing.T) {
	rules, err := LoadRuleSet("")
	require.NoError(t, err)
	assert.Equal(t, DefaultRuleSet(), rules)

	rules, err = LoadRuleSet(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultRuleSet(), rules)
}

func TestLoadRuleSetOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	yaml := `
systems:
  - system: Laboratório
    keywords: [LAUDO, exame]
  - system: Tasy
    keywords: [tasy]
categories:
  - name: lab
    keywords: [Laudo]
    solutions: ["Reprocessar laudo no LIS"]
escalation: "Abrir chamado no service desk"
system_solutions:
  Laboratório: ["Verificar integração com o LIS"]
participles:
  Reprocessado: reprocessar
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	rules, err := LoadRuleSet(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"Laboratório", "Tasy"}, rules.SupportedSystems())
	assert.Equal(t, []string{"laudo", "exame"}, rules.Systems[0].Keywords)
	assert.Equal(t, "Abrir chamado no service desk", rules.Escalation)
	assert.Equal(t, DefaultRuleSet().GenericSteps, rules.GenericSteps, "sections missing from the file keep defaults")
	assert.Contains(t, rules.SystemSolutions, "Tasy")
	assert.Equal(t, "reprocessar", rules.Participles["reprocessado"])

	c := NewSystemClassifier(rules, nil)
	assert.Equal(t, "Laboratório", c.Classify("Laudo do exame não aparece"))

	r := NewSolutionRanker(rules, NewLearningEngine(nil), 0)
	cats := r.MatchingCategories("laudo pendente")
	require.Len(t, cats, 1)
	assert.Equal(t, "lab", cats[0].Name)
}

func TestLoadRuleSetErrors(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("systems: [unclosed"), 0644))
	_, err := LoadRuleSet(bad)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("systems:\n  - system: Tasy\n    keywords: []\n  - system: SGU\n"), 0644))
	_, err = LoadRuleSet(invalid)
	assert.Error(t, err)
}
