package extraction

import (
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Numbers are accepted as strings too ("R$ 1.234,56"); the payload types
// normalize them after validation.
const policySchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["apolice"],
  "properties": {
    "dados_pessoais": {"$ref": "#/$defs/personal"},
    "apolice": {
      "type": "object",
      "properties": {
        "numero_apolice": {"type": ["string", "number", "null"]},
        "data_emissao": {"$ref": "#/$defs/date"},
        "inicio_vigencia": {"$ref": "#/$defs/date"},
        "fim_vigencia": {"$ref": "#/$defs/date"},
        "segurado_nome": {"type": ["string", "null"]},
        "segurado_cnpj": {"type": ["string", "number", "null"]},
        "condutor_idade": {"$ref": "#/$defs/number"},
        "condutores_18_25": {"$ref": "#/$defs/flag"},
        "veiculo_zero_km": {"$ref": "#/$defs/flag"},
        "kit_gas": {"$ref": "#/$defs/flag"},
        "casco_premio": {"$ref": "#/$defs/number"},
        "franquia_valor": {"$ref": "#/$defs/number"},
        "preco_liquido": {"$ref": "#/$defs/number"},
        "preco_total": {"$ref": "#/$defs/number"},
        "iof": {"$ref": "#/$defs/number"},
        "parcelas": {"$ref": "#/$defs/number"},
        "valor_parcela": {"$ref": "#/$defs/number"}
      }
    }
  },
  "$defs": {
    "personal": {"type": ["object", "null"]},
    "date": {"type": ["string", "null"]},
    "number": {"type": ["number", "string", "null"]},
    "flag": {"type": ["boolean", "string", "null"]}
  }
}`

const genericSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "dados_pessoais": {"type": ["object", "null"]},
    "dados_documento": {"type": ["object", "null"]}
  }
}`

var schemaSources = map[Category]string{
	CategoryAutoPolicy: policySchema,
	CategoryPolicy:     policySchema,
}

var (
	schemaOnce sync.Once
	schemaErr  error
	compiled   map[Category]*jsonschema.Schema
	generic    *jsonschema.Schema
)

func compileSchemas() {
	compiled = make(map[Category]*jsonschema.Schema, len(schemaSources))

	for c, src := range schemaSources {
		s, err := compileSchema(string(c)+".json", src)
		if err != nil {
			schemaErr = err
			return
		}
		compiled[c] = s
	}

	generic, schemaErr = compileSchema("generic.json", genericSchema)
}

func compileSchema(name, src string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(src)); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", name, err)
	}
	s, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return s, nil
}

// Validate checks a decoded JSON document against the category schema.
func Validate(c Category, doc any) error {
	schemaOnce.Do(compileSchemas)
	if schemaErr != nil {
		return schemaErr
	}

	s, ok := compiled[c]
	if !ok {
		s = generic
	}

	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedExtraction, err)
	}
	return nil
}
