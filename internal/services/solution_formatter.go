package services

import (
	"regexp"
	"strings"
)

// SolutionStep is one numbered step of a formatted solution.
type SolutionStep struct {
	Number      int    `json:"number"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

var stepPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d+\.\s*(.+)$`),
	regexp.MustCompile(`(?i)^step\s*\d+:\s*(.+)$`),
	regexp.MustCompile(`^-\s*(.+)$`),
	regexp.MustCompile(`^•\s*(.+)$`),
}

var stepIcons = []struct {
	icon  string
	words []string
}{
	{"log-in", []string{"acessar", "login", "entrar"}},
	{"navigation", []string{"navegar", "ir para", "abrir"}},
	{"search", []string{"localizar", "encontrar", "procurar"}},
	{"refresh-cw", []string{"resetar", "redefinir", "alterar"}},
	{"check-circle", []string{"verificar", "validar", "checar"}},
	{"play", []string{"testar", "teste"}},
	{"message-circle", []string{"orientar", "instruir", "comunicar"}},
	{"file-text", []string{"documentar", "registrar"}},
	{"copy", []string{"copiar", "exportar"}},
	{"settings", []string{"aplicar", "configurar", "parametrizar"}},
	{"activity", []string{"monitorar", "acompanhar"}},
	{"power", []string{"reiniciar", "restart"}},
}

const defaultStepIcon = "arrow-right"

// FormatSolutionSteps splits a solution into steps. Lines starting with a
// step marker ("1.", "Step 1:", "-", "•") open a new step; other lines are
// appended to the previous one.
func FormatSolutionSteps(solution string) []SolutionStep {
	steps := []SolutionStep{}
	for _, line := range strings.Split(strings.TrimSpace(solution), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		content := stepContent(line)
		if content == "" && len(steps) > 0 {
			last := &steps[len(steps)-1]
			last.Description += " " + line
			continue
		}
		if content == "" {
			content = line
		}
		steps = append(steps, SolutionStep{
			Number:      len(steps) + 1,
			Description: content,
			Icon:        stepIcon(content),
		})
	}
	return steps
}

func stepContent(line string) string {
	for _, p := range stepPatterns {
		if m := p.FindStringSubmatch(line); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

func stepIcon(content string) string {
	lower := strings.ToLower(content)
	for _, si := range stepIcons {
		for _, w := range si.words {
			if strings.Contains(lower, w) {
				return si.icon
			}
		}
	}
	return defaultStepIcon
}
