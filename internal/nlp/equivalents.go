package nlp

// semanticEquivalents maps a normalized token to related terms across
// Portuguese and English. Earlier entries are the closer synonyms; expansion
// only takes the first few.
var semanticEquivalents = map[string][]string{
	// password / access
	"senha":        {"password", "credencial", "acesso"},
	"password":     {"senha", "credencial", "login"},
	"credencial":   {"senha", "password", "login"},
	"login":        {"acesso", "entrar", "autenticacao"},
	"acesso":       {"login", "permissao", "entrar"},
	"acessar":      {"entrar", "login", "acesso"},
	"permissao":    {"acesso", "perfil", "permission"},
	"permissoes":   {"permissao", "acesso", "perfil"},
	"usuario":      {"user", "login", "conta"},
	"user":         {"usuario", "conta", "login"},
	"bloqueado":    {"bloqueio", "locked", "bloqueada"},
	"expirada":     {"expirado", "vencida", "expired"},
	"autenticacao": {"login", "authentication", "acesso"},

	// network
	"rede":         {"network", "conexao", "internet"},
	"network":      {"rede", "conexao", "conectividade"},
	"conexao":      {"connection", "conectividade", "rede"},
	"connection":   {"conexao", "conectividade", "rede"},
	"conecta":      {"conexao", "conectar", "connection"},
	"conectar":     {"conexao", "connection", "conecta"},
	"internet":     {"rede", "network", "navegacao"},
	"vpn":          {"rede", "acesso", "remoto"},
	"wifi":         {"rede", "wireless", "internet"},
	"firewall":     {"bloqueio", "rede", "porta"},
	"dns":          {"rede", "resolucao", "nome"},

	// system / error
	"erro":         {"error", "falha", "problema"},
	"error":        {"erro", "falha", "problema"},
	"falha":        {"erro", "failure", "problema"},
	"problema":     {"erro", "falha", "issue"},
	"sistema":      {"system", "aplicacao", "software"},
	"system":       {"sistema", "aplicacao", "software"},
	"lento":        {"lentidao", "slow", "performance"},
	"lentidao":     {"lento", "performance", "demora"},
	"travando":     {"travado", "congelado", "lento"},
	"travado":      {"travando", "congelado", "parado"},
	"indisponivel": {"fora", "offline", "parado"},
	"timeout":      {"tempo", "lentidao", "demora"},
	"banco":        {"database", "dados", "bd"},
	"database":     {"banco", "dados", "sql"},
	"servidor":     {"server", "host", "maquina"},
	"server":       {"servidor", "host", "maquina"},
	"impressora":   {"printer", "impressao", "imprimir"},
	"imprime":      {"impressao", "impressora", "imprimir"},
	"email":        {"e-mail", "correio", "mail"},

	// actions
	"reiniciar":    {"restart", "reboot", "reinicio"},
	"restart":      {"reiniciar", "reboot", "reinicio"},
	"resetar":      {"reset", "redefinir", "reiniciar"},
	"reset":        {"resetar", "redefinir", "reiniciar"},
	"redefinir":    {"resetar", "reset", "alterar"},
	"configurar":   {"parametrizar", "ajustar", "setup"},
	"parametrizar": {"configurar", "ajustar", "perfil"},
	"instalar":     {"install", "reinstalar", "setup"},
	"atualizar":    {"update", "upgrade", "atualizacao"},
	"verificar":    {"checar", "validar", "conferir"},
	"liberar":      {"permitir", "desbloquear", "acesso"},

	// medical / hospital
	"paciente":     {"patient", "prontuario", "atendimento"},
	"prontuario":   {"registro", "paciente", "historico"},
	"medico":       {"doctor", "profissional", "atendimento"},
	"exame":        {"exam", "laudo", "resultado"},
	"laudo":        {"exame", "resultado", "relatorio"},
	"guia":         {"autorizacao", "procedimento", "guias"},
	"autorizacao":  {"guia", "autorizar", "liberacao"},
	"carteirinha":  {"cartao", "card", "credenciamento"},
	"farmacia":     {"medicamento", "estoque", "dispensacao"},
	"internacao":   {"admissao", "leito", "paciente"},
}

// Equivalents returns the listed equivalents of a normalized token, or nil.
// The returned slice must not be modified.
func Equivalents(token string) []string {
	return semanticEquivalents[token]
}

// HasEquivalents reports whether token is a key of the equivalents table.
func HasEquivalents(token string) bool {
	_, ok := semanticEquivalents[token]
	return ok
}
