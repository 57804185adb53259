package services

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/osassistant/backend/internal/logger"
	"github.com/osassistant/backend/internal/nlp"
)

// SystemKeywords lists the phrases that identify one system. Keywords are
// matched as substrings of the lowercased, unnormalized problem text, so
// accented spellings need their own entries.
type SystemKeywords struct {
	System   string   `yaml:"system"`
	Keywords []string `yaml:"keywords"`
}

// SolutionCategory is a pattern rule: when any problem token starts with one
// of Keywords, Solutions are offered.
type SolutionCategory struct {
	Name      string   `yaml:"name"`
	Keywords  []string `yaml:"keywords"`
	Solutions []string `yaml:"solutions"`
}

// RuleSet holds every product-specific table used by classification and
// ranking. Systems are kept in the order they are evaluated, which is also
// the tie-break order.
type RuleSet struct {
	Systems         []SystemKeywords    `yaml:"systems"`
	Categories      []SolutionCategory  `yaml:"categories"`
	SystemSolutions map[string][]string `yaml:"system_solutions"`
	Escalation      string              `yaml:"escalation"`
	GenericSteps    []string            `yaml:"generic_steps"`
	TechnicalTerms  []string            `yaml:"technical_terms"`
	Participles     map[string]string   `yaml:"participles"`
}

// SupportedSystems returns the system labels in evaluation order.
func (r *RuleSet) SupportedSystems() []string {
	out := make([]string, 0, len(r.Systems))
	for _, s := range r.Systems {
		out = append(out, s.System)
	}
	return out
}

// Validate rejects tables the classifier and ranker cannot work with.
func (r *RuleSet) Validate() error {
	if len(r.Systems) == 0 {
		return errors.New("rule set has no systems")
	}
	seen := make(map[string]struct{}, len(r.Systems))
	for _, s := range r.Systems {
		if strings.TrimSpace(s.System) == "" {
			return errors.New("rule set has a system without a label")
		}
		if _, dup := seen[s.System]; dup {
			return fmt.Errorf("system %q defined twice", s.System)
		}
		seen[s.System] = struct{}{}
		if len(s.Keywords) == 0 {
			return fmt.Errorf("system %q has no keywords", s.System)
		}
	}
	for _, c := range r.Categories {
		if len(c.Keywords) == 0 || len(c.Solutions) == 0 {
			return fmt.Errorf("category %q needs keywords and solutions", c.Name)
		}
	}
	if strings.TrimSpace(r.Escalation) == "" {
		return errors.New("rule set has no escalation line")
	}
	return nil
}

// prepare lowercases system keywords and normalizes category keywords so the
// hot paths compare without re-normalizing.
func (r *RuleSet) prepare() {
	for i := range r.Systems {
		for j, kw := range r.Systems[i].Keywords {
			r.Systems[i].Keywords[j] = strings.ToLower(strings.TrimSpace(kw))
		}
	}
	for i := range r.Categories {
		for j, kw := range r.Categories[i].Keywords {
			r.Categories[i].Keywords[j] = nlp.Normalize(kw)
		}
	}
	for i, term := range r.TechnicalTerms {
		r.TechnicalTerms[i] = strings.ToLower(strings.TrimSpace(term))
	}
	participles := make(map[string]string, len(r.Participles))
	for from, to := range r.Participles {
		participles[strings.ToLower(from)] = to
	}
	r.Participles = participles
}

// LoadRuleSet reads a YAML rule table. Sections missing from the file keep
// their built-in defaults; an empty path or a missing file yields the
// defaults unchanged.
func LoadRuleSet(path string) (*RuleSet, error) {
	rules := DefaultRuleSet()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn("Rule table not found, using built-in rules", map[string]interface{}{
			"path": path,
		})
		return rules, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read rule table: %w", err)
	}

	var file RuleSet
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rule table %s: %w", path, err)
	}

	if len(file.Systems) > 0 {
		rules.Systems = file.Systems
	}
	if len(file.Categories) > 0 {
		rules.Categories = file.Categories
	}
	for system, solutions := range file.SystemSolutions {
		rules.SystemSolutions[system] = solutions
	}
	if file.Escalation != "" {
		rules.Escalation = file.Escalation
	}
	if len(file.GenericSteps) > 0 {
		rules.GenericSteps = file.GenericSteps
	}
	if len(file.TechnicalTerms) > 0 {
		rules.TechnicalTerms = file.TechnicalTerms
	}
	for from, to := range file.Participles {
		rules.Participles[from] = to
	}

	rules.prepare()
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rule table %s: %w", path, err)
	}
	logger.Info("Rule table loaded", map[string]interface{}{
		"path":       path,
		"systems":    len(rules.Systems),
		"categories": len(rules.Categories),
	})
	return rules, nil
}

// DefaultRuleSet returns a fresh copy of the built-in tables. Systems are
// listed alphabetically by label.
func DefaultRuleSet() *RuleSet {
	rules := &RuleSet{
		Systems: []SystemKeywords{
			{System: "Administrative", Keywords: []string{"administrativo", "admin", "rh", "financeiro", "contabil", "contábil", "gestao", "gestão"}},
			{System: "Application Server", Keywords: []string{"servidor", "server", "apache", "nginx", "tomcat", "iis", "aplicacao", "aplicação"}},
			{System: "Autorizador", Keywords: []string{"autorizador", "autorizacao", "autorização", "autorizar", "procedimento", "guia"}},
			{System: "Database", Keywords: []string{"banco", "database", "sql", "mysql", "postgres", "oracle", "mongodb"}},
			{System: "Healthcare", Keywords: []string{"saude", "saúde", "health", "emr", "ehr", "clinico", "clínico", "diagnostico", "diagnóstico", "exame"}},
			{System: "Network", Keywords: []string{"rede", "network", "router", "switch", "firewall", "ip", "dns", "dhcp"}},
			{System: "SGU", Keywords: []string{"sgu", "sistema de gestao", "sistema de gestão", "gestao hospitalar", "gestão hospitalar", "modulo sgu", "módulo sgu"}},
			{System: "SGU Card", Keywords: []string{"sgu card", "cartao", "cartão", "card", "credenciamento", "carteirinha"}},
			{System: "Tasy", Keywords: []string{"tasy", "hospitalar", "hospital", "prontuario", "prontuário", "paciente", "atendimento", "medico", "médico"}},
		},
		Categories: []SolutionCategory{
			{
				Name:     "authentication",
				Keywords: []string{"senha", "password", "login", "acesso", "acessar", "permiss", "autentica", "credencia", "bloquead"},
				Solutions: []string{
					"Verificar permissões de usuário",
					"Resetar senha do usuário e orientar a troca no primeiro acesso",
					"Validar credenciais e grupos de acesso",
				},
			},
			{
				Name:     "network",
				Keywords: []string{"rede", "network", "conect", "conex", "internet", "vpn", "wifi", "dns", "firewall"},
				Solutions: []string{
					"Testar conectividade de rede",
					"Verificar configurações de firewall",
					"Validar resolução DNS",
				},
			},
			{
				Name:     "database",
				Keywords: []string{"banco", "database", "sql", "query", "tabela", "lento", "lentidao", "slow", "memoria", "memory", "timeout"},
				Solutions: []string{
					"Verificar conexão com banco de dados",
					"Checar logs do banco e consultas lentas",
					"Verificar uso de memória e limpar cache",
				},
			},
			{
				Name:     "system_error",
				Keywords: []string{"erro", "error", "falha", "exception", "trava", "congel", "fecha", "crash"},
				Solutions: []string{
					"Verificar logs do sistema para identificar a causa do erro",
					"Reiniciar o serviço afetado",
				},
			},
			{
				Name:     "hardware",
				Keywords: []string{"impress", "printer", "monitor", "teclado", "mouse", "disco", "disk", "scanner", "leitor"},
				Solutions: []string{
					"Verificar conexões físicas e alimentação do equipamento",
					"Reinstalar o driver do dispositivo",
					"Verificar espaço em disco",
				},
			},
		},
		SystemSolutions: map[string][]string{
			"Tasy": {
				"Verificar configurações do módulo Tasy específico",
				"Consultar logs do sistema Tasy",
				"Checar configurações de usuário no Tasy",
			},
			"SGU": {
				"Verificar status dos serviços SGU",
				"Consultar logs de erro do SGU",
				"Validar configurações de módulos SGU",
			},
			"SGU Card": {
				"Verificar serviços de credenciamento",
				"Checar sincronização de dados de carteirinha",
				"Validar configurações de impressão de cartões",
			},
			"Autorizador": {
				"Verificar fila de autorizações pendentes",
				"Checar conectividade com operadoras",
				"Validar regras de autorização",
			},
			"Healthcare": {
				"Verificar conectividade com sistemas de saúde",
				"Validar protocolos de comunicação HL7/FHIR",
			},
			"Network": {
				"Verificar configurações de switch/router",
				"Testar conectividade com ping/traceroute",
				"Verificar configurações de VLAN",
			},
			"Database": {
				"Verificar performance de queries",
				"Analisar locks e deadlocks",
				"Checar espaço em tablespaces",
			},
			"Application Server": {
				"Verificar status do serviço de aplicação",
				"Consultar logs do servidor de aplicação",
			},
			"Administrative": {
				"Validar perfil de acesso do usuário no módulo administrativo",
			},
		},
		Escalation: "Se o problema não for resolvido, abrir chamado para a Nexdow",
		GenericSteps: []string{
			"Verificar logs do sistema para mais detalhes",
			"Documentar os passos que levaram ao problema",
			"Contactar o suporte técnico se o problema persistir",
		},
		TechnicalTerms: []string{"erro", "falha", "exception", "timeout", "connection", "database", "server"},
		Participles: map[string]string{
			"verificado": "verificar", "verificada": "verificar",
			"reiniciado": "reiniciar", "reiniciada": "reiniciar",
			"corrigido": "corrigir", "corrigida": "corrigir",
			"ajustado": "ajustar", "ajustada": "ajustar",
			"configurado": "configurar", "configurada": "configurar",
			"alterado": "alterar", "alterada": "alterar",
			"atualizado": "atualizar", "atualizada": "atualizar",
			"liberado": "liberar", "liberada": "liberar",
			"resetado": "resetar", "resetada": "resetar",
			"redefinido": "redefinir", "redefinida": "redefinir",
			"reinstalado": "reinstalar", "reinstalada": "reinstalar",
			"realizado": "realizar", "realizada": "realizar",
			"orientado": "orientar", "orientada": "orientar",
			"cadastrado": "cadastrar", "cadastrada": "cadastrar",
			"removido": "remover", "removida": "remover",
			"desbloqueado": "desbloquear", "desbloqueada": "desbloquear",
			"limpo": "limpar", "limpa": "limpar",
			"parametrizado": "parametrizar", "parametrizada": "parametrizar",
		},
	}
	rules.prepare()
	return rules
}
