package extraction

const policySpec = `RETORNE um JSON com esta estrutura EXATA:
{
  "dados_pessoais": {
    "nome": "string ou null",
    "document": "string ou null",
    "email": "string ou null",
    "telefone": "string ou null",
    "endereco": "string ou null",
    "numero": "string ou null",
    "complemento": "string ou null",
    "cep": "string ou null",
    "cidade": "string ou null",
    "pais": "string ou null"
  },
  "apolice": {
    "numero_apolice": "string",
    "numero_endosso": "string ou null",
    "proposta_numero": "string ou null",
    "susep_processo": "string ou null",
    "tipo_seguro": "string",
    "data_emissao": "YYYY-MM-DD",
    "inicio_vigencia": "YYYY-MM-DD",
    "fim_vigencia": "YYYY-MM-DD",
    "condicoes_gerais": "string ou null",

    "segurado_nome": "string",
    "segurado_cnpj": "string",
    "telefone": "string ou null",
    "email": "string ou null",
    "endereco": "string ou null",

    "condutor_nome": "string ou null",
    "condutor_cpf": "string ou null",
    "condutor_idade": number ou null,
    "condutor_estado_civil": "string ou null",
    "condutor_residencia": "string ou null",
    "condutores_18_25": boolean ou null,

    "veiculo_modelo": "string ou null",
    "veiculo_placa": "string ou null",
    "veiculo_ano_modelo": "string ou null",
    "veiculo_chassi": "string ou null",
    "veiculo_fipe_codigo": "string ou null",
    "veiculo_zero_km": boolean ou null,
    "categoria_risco": "string ou null",
    "finalidade_uso": "string ou null",
    "cep_pernoite": "string ou null",
    "kit_gas": boolean ou null,

    "casco_fipe_percent": number ou null,
    "casco_premio": number ou null,
    "rcf_danos_materiais": number ou null,
    "rcf_danos_materiais_premio": number ou null,
    "rcf_danos_corporais": number ou null,
    "rcf_danos_corporais_premio": number ou null,
    "rcf_danos_morais": number ou null,
    "rcf_danos_morais_premio": number ou null,
    "app_morte": number ou null,
    "app_morte_premio": number ou null,
    "app_invalidez": number ou null,
    "app_invalidez_premio": number ou null,
    "carta_verde_materiais_usd": number ou null,
    "carta_verde_materiais_premio": number ou null,
    "carta_verde_corporais_usd": number ou null,
    "carta_verde_corporais_premio": number ou null,

    "assistencia_plano": "string ou null",
    "assistencia_premio": number ou null,
    "vidros_plano": "string ou null",
    "vidros_premio": number ou null,
    "carro_reserva_dias": number ou null,
    "carro_reserva_premio": number ou null,

    "franquia_tipo": "string ou null",
    "franquia_valor": number ou null,

    "preco_liquido": number ou null,
    "preco_total": number ou null,
    "iof": number ou null,
    "forma_pagamento": "string ou null",
    "parcelas": number ou null,
    "valor_parcela": number ou null,

    "corretor_nome": "string ou null",
    "corretor_email": "string ou null",
    "corretor_telefone": "string ou null",
    "corretor_codigo": "string ou null",
    "corretor_susep": "string ou null",
    "corretor_filial": "string ou null",

    "seguradora_nome": "string ou null",
    "seguradora_cnpj": "string ou null",
    "seguradora_codigo": "string ou null",
    "seguradora_ie": "string ou null",
    "seguradora_endereco": "string ou null",
    "seguradora_telefones": "string ou null",
    "seguradora_sac": "string ou null",
    "seguradora_ouvidoria": "string ou null",
    "seguradora_pcd": "string ou null",
    "seguradora_presidente": "string ou null",
    "seguradora_local_emissao": "string ou null"
  }
}

IMPORTANTE: Retorne APENAS o JSON, sem texto adicional.`

const genericSpec = `Retorne em formato JSON com a seguinte estrutura:
{
  "dados_pessoais": {
    "nome": "string ou null",
    "document": "string ou null",
    "email": "string ou null",
    "telefone": "string ou null",
    "endereco": "string ou null",
    "cidade": "string ou null",
    "cep": "string ou null"
  },
  "dados_documento": {
    "cnpj": "CPF ou CNPJ do titular, string ou null"
  }
}

Adicione em "dados_documento" todos os campos relevantes encontrados no documento.
IMPORTANTE: Retorne APENAS o JSON, sem texto adicional.`

var specs = map[Category]string{
	CategoryAutoPolicy: policySpec,
	CategoryPolicy:     policySpec,
}

// Spec returns the response specification appended to every prompt for a
// category. Specifications are not overridable so the response shape always
// matches the category schema.
func Spec(c Category) string {
	if text, ok := specs[c]; ok {
		return text
	}
	return genericSpec
}
