package extraction

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// PersonalData is the "dados_pessoais" block: the document holder's contact.
type PersonalData struct {
	Name       *string `json:"nome,omitempty"`
	Document   *string `json:"document,omitempty"`
	Email      *string `json:"email,omitempty"`
	Phone      *string `json:"telefone,omitempty"`
	Address    *string `json:"endereco,omitempty"`
	Number     *string `json:"numero,omitempty"`
	Extra      *string `json:"complemento,omitempty"`
	PostalCode *string `json:"cep,omitempty"`
	City       *string `json:"cidade,omitempty"`
	Country    *string `json:"pais,omitempty"`
}

// AutoPolicyFields is the "apolice" block of a policy extraction. JSON keys
// match the auto_policies column names.
type AutoPolicyFields struct {
	NumeroApolice   *string `json:"numero_apolice"`
	NumeroEndosso   *string `json:"numero_endosso"`
	PropostaNumero  *string `json:"proposta_numero"`
	SusepProcesso   *string `json:"susep_processo"`
	TipoSeguro      *string `json:"tipo_seguro"`
	DataEmissao     *Date   `json:"data_emissao"`
	InicioVigencia  *Date   `json:"inicio_vigencia"`
	FimVigencia     *Date   `json:"fim_vigencia"`
	CondicoesGerais *string `json:"condicoes_gerais"`

	SeguradoNome *string `json:"segurado_nome"`
	SeguradoCNPJ *string `json:"segurado_cnpj"`
	Telefone     *string `json:"telefone"`
	Email        *string `json:"email"`
	Endereco     *string `json:"endereco"`

	CondutorNome        *string `json:"condutor_nome"`
	CondutorCPF         *string `json:"condutor_cpf"`
	CondutorIdade       *Count  `json:"condutor_idade"`
	CondutorEstadoCivil *string `json:"condutor_estado_civil"`
	CondutorResidencia  *string `json:"condutor_residencia"`
	Condutores1825      *Flag   `json:"condutores_18_25"`

	VeiculoModelo     *string `json:"veiculo_modelo"`
	VeiculoPlaca      *string `json:"veiculo_placa"`
	VeiculoAnoModelo  *string `json:"veiculo_ano_modelo"`
	VeiculoChassi     *string `json:"veiculo_chassi"`
	VeiculoFipeCodigo *string `json:"veiculo_fipe_codigo"`
	VeiculoZeroKm     *Flag   `json:"veiculo_zero_km"`
	CategoriaRisco    *string `json:"categoria_risco"`
	FinalidadeUso     *string `json:"finalidade_uso"`
	CepPernoite       *string `json:"cep_pernoite"`
	KitGas            *Flag   `json:"kit_gas"`

	CascoFipePercent          *Amount `json:"casco_fipe_percent"`
	CascoPremio               *Amount `json:"casco_premio"`
	RCFDanosMateriais         *Amount `json:"rcf_danos_materiais"`
	RCFDanosMateriaisPremio   *Amount `json:"rcf_danos_materiais_premio"`
	RCFDanosCorporais         *Amount `json:"rcf_danos_corporais"`
	RCFDanosCorporaisPremio   *Amount `json:"rcf_danos_corporais_premio"`
	RCFDanosMorais            *Amount `json:"rcf_danos_morais"`
	RCFDanosMoraisPremio      *Amount `json:"rcf_danos_morais_premio"`
	APPMorte                  *Amount `json:"app_morte"`
	APPMortePremio            *Amount `json:"app_morte_premio"`
	APPInvalidez              *Amount `json:"app_invalidez"`
	APPInvalidezPremio        *Amount `json:"app_invalidez_premio"`
	CartaVerdeMateriaisUSD    *Amount `json:"carta_verde_materiais_usd"`
	CartaVerdeMateriaisPremio *Amount `json:"carta_verde_materiais_premio"`
	CartaVerdeCorporaisUSD    *Amount `json:"carta_verde_corporais_usd"`
	CartaVerdeCorporaisPremio *Amount `json:"carta_verde_corporais_premio"`

	AssistenciaPlano   *string `json:"assistencia_plano"`
	AssistenciaPremio  *Amount `json:"assistencia_premio"`
	VidrosPlano        *string `json:"vidros_plano"`
	VidrosPremio       *Amount `json:"vidros_premio"`
	CarroReservaDias   *Count  `json:"carro_reserva_dias"`
	CarroReservaPremio *Amount `json:"carro_reserva_premio"`

	FranquiaTipo  *string `json:"franquia_tipo"`
	FranquiaValor *Amount `json:"franquia_valor"`

	PrecoLiquido   *Amount `json:"preco_liquido"`
	PrecoTotal     *Amount `json:"preco_total"`
	IOF            *Amount `json:"iof"`
	FormaPagamento *string `json:"forma_pagamento"`
	Parcelas       *Count  `json:"parcelas"`
	ValorParcela   *Amount `json:"valor_parcela"`

	CorretorNome     *string `json:"corretor_nome"`
	CorretorEmail    *string `json:"corretor_email"`
	CorretorTelefone *string `json:"corretor_telefone"`
	CorretorCodigo   *string `json:"corretor_codigo"`
	CorretorSusep    *string `json:"corretor_susep"`
	CorretorFilial   *string `json:"corretor_filial"`

	SeguradoraNome         *string `json:"seguradora_nome"`
	SeguradoraCNPJ         *string `json:"seguradora_cnpj"`
	SeguradoraCodigo       *string `json:"seguradora_codigo"`
	SeguradoraIE           *string `json:"seguradora_ie"`
	SeguradoraEndereco     *string `json:"seguradora_endereco"`
	SeguradoraTelefones    *string `json:"seguradora_telefones"`
	SeguradoraSAC          *string `json:"seguradora_sac"`
	SeguradoraOuvidoria    *string `json:"seguradora_ouvidoria"`
	SeguradoraPCD          *string `json:"seguradora_pcd"`
	SeguradoraPresidente   *string `json:"seguradora_presidente"`
	SeguradoraLocalEmissao *string `json:"seguradora_local_emissao"`
}

// Payload is the typed form of an extraction. Exactly one of AutoPolicy or
// Document is set, depending on the category. Keys outside the category's
// field set land in Extra; they are stored but never read by the pipeline.
type Payload struct {
	Category   Category
	Personal   *PersonalData
	AutoPolicy *AutoPolicyFields
	Document   map[string]any
	Extra      map[string]json.RawMessage
}

// Identity is the owner information derived from a payload.
type Identity struct {
	TaxID       string
	DisplayName string
	Email       string
	Phone       string
	Address     string
	Number      string
	Extra       string
	PostalCode  string
	City        string
	Country     string
}

const (
	keyPersonal = "dados_pessoais"
	keyPolicy   = "apolice"
	keyDocument = "dados_documento"
)

var (
	policyKeys = jsonKeys(reflect.TypeFor[AutoPolicyFields](), nil)
	textKeys   = jsonKeys(reflect.TypeFor[AutoPolicyFields](), reflect.TypeFor[*string]())
)

// Decode builds a Payload from a JSON object for the given category.
func Decode(c Category, raw []byte) (*Payload, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedExtraction, err)
	}
	if top == nil {
		return nil, fmt.Errorf("%w: payload is not an object", ErrMalformedExtraction)
	}

	p := &Payload{Category: c, Extra: make(map[string]json.RawMessage)}

	if v, ok := top[keyPersonal]; ok {
		delete(top, keyPersonal)
		if !isNull(v) {
			p.Personal = &PersonalData{}
			if err := json.Unmarshal(quoteNumbers(v), p.Personal); err != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrMalformedExtraction, keyPersonal, err)
			}
		}
	}

	if c.RecordBearing() {
		v, ok := top[keyPolicy]
		if !ok || isNull(v) {
			return nil, fmt.Errorf("%w: missing %s block", ErrMalformedExtraction, keyPolicy)
		}
		delete(top, keyPolicy)

		fields, extra, err := decodePolicy(v)
		if err != nil {
			return nil, err
		}
		p.AutoPolicy = fields
		for k, v := range extra {
			p.Extra[keyPolicy+"."+k] = v
		}
	}

	if v, ok := top[keyDocument]; ok {
		delete(top, keyDocument)
		if !isNull(v) {
			if err := json.Unmarshal(v, &p.Document); err != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrMalformedExtraction, keyDocument, err)
			}
		}
	}
	if !c.RecordBearing() && p.Document == nil {
		p.Document = map[string]any{}
	}

	for k, v := range top {
		p.Extra[k] = v
	}

	return p, nil
}

// DecodePolicyFields decodes a standalone "apolice" block, as supplied by a
// reviewer at confirmation time.
func DecodePolicyFields(raw []byte) (*AutoPolicyFields, map[string]json.RawMessage, error) {
	return decodePolicy(raw)
}

func decodePolicy(raw []byte) (*AutoPolicyFields, map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrMalformedExtraction, keyPolicy, err)
	}

	if all == nil {
		return nil, nil, fmt.Errorf("%w: %s is not an object", ErrMalformedExtraction, keyPolicy)
	}

	extra := make(map[string]json.RawMessage)
	for k, v := range all {
		if _, known := policyKeys[k]; !known {
			extra[k] = v
			continue
		}
		_, text := textKeys[k]
		switch {
		case text && isNumber(v):
			all[k] = json.RawMessage(strconv.Quote(string(v)))
		case !text && strings.TrimSpace(string(v)) == `""`:
			all[k] = null
		}
	}

	normalized, err := json.Marshal(all)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrMalformedExtraction, keyPolicy, err)
	}

	var fields AutoPolicyFields
	if err := json.Unmarshal(normalized, &fields); err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrMalformedExtraction, keyPolicy, err)
	}
	return &fields, extra, nil
}

// Identity derives the owner identity. The tax id is taken from
// dados_documento.cnpj, then apolice.segurado_cnpj, then
// dados_pessoais.document; contact fields prefer dados_pessoais.
func (p *Payload) Identity() Identity {
	var id Identity

	if s := docString(p.Document, "cnpj"); s != "" {
		id.TaxID = s
	} else if p.AutoPolicy != nil && deref(p.AutoPolicy.SeguradoCNPJ) != "" {
		id.TaxID = deref(p.AutoPolicy.SeguradoCNPJ)
	} else if p.Personal != nil {
		id.TaxID = deref(p.Personal.Document)
	}

	if p.AutoPolicy != nil {
		id.DisplayName = deref(p.AutoPolicy.SeguradoNome)
		id.Email = deref(p.AutoPolicy.Email)
		id.Phone = deref(p.AutoPolicy.Telefone)
		id.Address = deref(p.AutoPolicy.Endereco)
	}
	if id.DisplayName == "" {
		for _, k := range []string{"segurado", "razao_social", "nome"} {
			if s := docString(p.Document, k); s != "" {
				id.DisplayName = s
				break
			}
		}
	}

	if pd := p.Personal; pd != nil {
		if id.DisplayName == "" {
			id.DisplayName = deref(pd.Name)
		}
		id.Email = firstNonEmpty(deref(pd.Email), id.Email)
		id.Phone = firstNonEmpty(deref(pd.Phone), id.Phone)
		id.Address = firstNonEmpty(deref(pd.Address), id.Address)
		id.Number = deref(pd.Number)
		id.Extra = deref(pd.Extra)
		id.PostalCode = deref(pd.PostalCode)
		id.City = deref(pd.City)
		id.Country = deref(pd.Country)
	}

	return id
}

// jsonKeys lists the JSON names of t's fields, restricted to fields of
// type only when only is non-nil.
func jsonKeys(t reflect.Type, only reflect.Type) map[string]struct{} {
	keys := make(map[string]struct{}, t.NumField())
	for i := range t.NumField() {
		f := t.Field(i)
		if only != nil && f.Type != only {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name != "" && name != "-" {
			keys[name] = struct{}{}
		}
	}
	return keys
}

// quoteNumbers turns numeric members of a flat object into strings.
// Anything that is not an object is returned unchanged.
func quoteNumbers(raw json.RawMessage) json.RawMessage {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(raw, &all); err != nil || all == nil {
		return raw
	}
	for k, v := range all {
		if isNumber(v) {
			all[k] = json.RawMessage(strconv.Quote(string(v)))
		}
	}
	out, err := json.Marshal(all)
	if err != nil {
		return raw
	}
	return out
}

func isNumber(raw json.RawMessage) bool {
	t := strings.TrimSpace(string(raw))
	return t != "" && (t[0] == '-' || (t[0] >= '0' && t[0] <= '9'))
}

func docString(doc map[string]any, key string) string {
	switch v := doc[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}

func isNull(raw json.RawMessage) bool {
	t := strings.TrimSpace(string(raw))
	return t == "" || t == "null"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
