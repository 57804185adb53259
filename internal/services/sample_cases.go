package services

import (
	"context"
	"errors"

	"github.com/osassistant/backend/internal/logger"
)

type sampleCase struct {
	problem, solution, system string
}

var sampleCases = []sampleCase{
	{
		problem:  "Sistema Tasy apresentando erro de conexão com banco de dados Oracle. Usuários não conseguem acessar módulo de prontuário eletrônico. Erro: ORA-12154 TNS could not resolve the connect identifier.",
		solution: "1. Verificar conectividade de rede com servidor Oracle\n2. Validar configurações do tnsnames.ora\n3. Testar conexão usando sqlplus\n4. Reiniciar listener do Oracle se necessário\n5. Verificar logs do Tasy para detalhes adicionais\n6. Se problema persistir, abrir chamado para Nexdow",
		system:   "Tasy",
	},
	{
		problem:  "SGU não consegue processar admissões. Erro \"Timeout na comunicação com base de dados\" aparece ao tentar registrar novos pacientes. Módulo de gestão hospitalar indisponível.",
		solution: "1. Verificar status dos serviços SGU no servidor\n2. Testar conectividade com banco de dados SGU\n3. Analisar logs de erro do SGU\n4. Verificar configurações de timeout\n5. Reiniciar serviços SGU se necessário\n6. Caso não resolva, escalar para Nexdow",
		system:   "SGU",
	},
	{
		problem:  "SGU Card não imprime carteirinhas de pacientes. Impressora conectada mas recebe dados corrompidos. Erro \"Falha na geração de layout\" no módulo de cartões.",
		solution: "1. Verificar driver da impressora de cartões\n2. Testar impressão manual de arquivo teste\n3. Validar template de layout no SGU Card\n4. Verificar dados do paciente no sistema\n5. Limpar cache do módulo Card\n6. Se necessário, abrir chamado Nexdow para revisão do layout",
		system:   "SGU Card",
	},
	{
		problem:  "Autorizador não processa guias de consulta. Fila com 500+ autorizações pendentes. Erro \"Falha na comunicação com operadora\" em todas as tentativas.",
		solution: "1. Verificar conectividade com APIs das operadoras\n2. Validar certificados digitais expirados\n3. Testar manualmente autorização de uma guia\n4. Verificar configurações de proxy/firewall\n5. Processar fila manualmente se urgente\n6. Contatar Nexdow para problemas de integração com operadoras",
		system:   "Autorizador",
	},
	{
		problem:  "Tasy módulo farmácia lento para dispensar medicamentos. Consulta de estoque demora mais de 2 minutos. Pacientes aguardando na fila da farmácia.",
		solution: "1. Analisar performance de queries no módulo farmácia\n2. Verificar índices das tabelas de estoque\n3. Executar reorganização de índices\n4. Limpar dados antigos da tabela de logs\n5. Considerar aumento de memória do servidor\n6. Se problema persistir, solicitar análise Nexdow",
		system:   "Tasy",
	},
	{
		problem:  "Rede hospitalar com perda de pacotes na VLAN dos equipamentos médicos. Monitores cardíacos perdendo conexão intermitentemente. Setor UTI afetado.",
		solution: "1. Verificar cabos de rede na UTI\n2. Analisar logs dos switches da VLAN médica\n3. Testar largura de banda disponível\n4. Verificar configurações QoS para tráfego médico\n5. Substituir cabos defeituosos se identificados\n6. Priorizar tráfego crítico nos switches",
		system:   "Network",
	},
}

// PopulateSampleCases adds the demonstration cases and retrains the
// classifier on the whole corpus. It returns the number of cases added and
// whether the classifier was trained.
func (ks *KnowledgeService) PopulateSampleCases(ctx context.Context) (int, bool, error) {
	added := 0
	for _, s := range sampleCases {
		c, err := newCase(s.problem, s.solution, s.system, nil)
		if err != nil {
			return added, false, err
		}
		if err := ks.store.Create(ctx, c); err != nil {
			return added, false, err
		}
		added++
	}

	trained, err := ks.TrainModels(ctx)
	if errors.Is(err, ErrNotEnoughCases) || errors.Is(err, ErrNotEnoughLabels) {
		err = nil
	}
	logger.Info("Sample cases added", map[string]interface{}{
		"added":   added,
		"trained": trained,
	})
	return added, trained, err
}
