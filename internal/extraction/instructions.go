package extraction

const baseInstructions = `Você é um assistente especializado em extrair dados estruturados de documentos de seguros.
Analise este documento e extraia TODOS os dados em formato JSON.
Se não encontrar algum campo, deixe como null.
Para valores monetários, use números sem símbolos (ex: 1500.50).
Para datas, use formato YYYY-MM-DD.
Para booleanos, use true/false.`

const policyInstructions = baseInstructions + `

O documento é uma apólice de seguro. Identifique o segurado (nome e CPF/CNPJ),
o período de vigência, o veículo e o condutor principal quando houver, todas as
coberturas com importâncias seguradas e prêmios, franquias, forma de pagamento,
e os dados do corretor e da seguradora.`

const genericInstructions = baseInstructions + `

Extraia todos os dados pessoais do titular do documento e todos os campos
relevantes encontrados no próprio documento.`

var instructions = map[Category]string{
	CategoryAutoPolicy: policyInstructions,
	CategoryPolicy:     policyInstructions,
}

// Instructions returns the default instructions for a category. Categories
// without a dedicated template use the generic instructions.
func Instructions(c Category) string {
	if text, ok := instructions[c]; ok {
		return text
	}
	return genericInstructions
}
