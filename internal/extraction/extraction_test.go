package extraction_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexliaai/corretor/internal/extraction"
)

const policyText = "Segue o resultado:\n```json\n" + `{
  "dados_pessoais": {
    "nome": "Maria Souza",
    "document": "123.456.789-09",
    "email": "maria@example.com",
    "cidade": "Curitiba"
  },
  "apolice": {
    "numero_apolice": 5312024,
    "segurado_nome": "Maria Souza",
    "segurado_cnpj": "123.456.789-09",
    "inicio_vigencia": "01/03/2024",
    "fim_vigencia": "2025-03-01",
    "condutor_idade": "42",
    "kit_gas": "não",
    "preco_total": "R$ 2.345,67",
    "parcelas": 10,
    "franquia_valor": "",
    "cobertura_extra_vidros": "sim"
  },
  "observacoes": "ok"
}` + "\n```【4:2†source】"

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"apolice_auto", false},
		{"contrato_social", false},
		{"Apolice", true},
		{"apolice-auto", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := extraction.ParseCategory(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, extraction.ErrInvalidCategory)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, extraction.Category(tt.in), c)
		})
	}
}

func TestCategoryTraits(t *testing.T) {
	assert.True(t, extraction.CategoryAutoPolicy.RecordBearing())
	assert.True(t, extraction.CategoryPolicy.RecordBearing())
	assert.False(t, extraction.Category("rg").RecordBearing())
	assert.True(t, extraction.CategoryAutoPolicy.Known())
	assert.False(t, extraction.Category("rg").Known())
}

func TestParsePolicy(t *testing.T) {
	parsed, err := extraction.Parse(extraction.CategoryAutoPolicy, policyText)
	require.NoError(t, err)

	p := parsed.Payload
	require.NotNil(t, p.AutoPolicy)
	assert.Nil(t, p.Document)

	f := p.AutoPolicy
	require.NotNil(t, f.NumeroApolice)
	assert.Equal(t, "5312024", *f.NumeroApolice)
	require.NotNil(t, f.InicioVigencia)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), f.InicioVigencia.Time)
	require.NotNil(t, f.CondutorIdade)
	assert.Equal(t, extraction.Count(42), *f.CondutorIdade)
	require.NotNil(t, f.KitGas)
	assert.False(t, bool(*f.KitGas))
	require.NotNil(t, f.PrecoTotal)
	assert.InDelta(t, 2345.67, float64(*f.PrecoTotal), 0.001)
	assert.Nil(t, f.FranquiaValor)

	assert.Contains(t, p.Extra, "apolice.cobertura_extra_vidros")
	assert.Contains(t, p.Extra, "observacoes")

	assert.True(t, strings.HasPrefix(string(parsed.JSON), "{"))
}

func TestParseGeneric(t *testing.T) {
	text := `{"dados_pessoais": {"nome": "Loja Azul"}, "dados_documento": {"cnpj": "12.345.678/0001-95", "razao_social": "Loja Azul LTDA"}}`

	parsed, err := extraction.Parse("contrato_social", text)
	require.NoError(t, err)
	assert.Nil(t, parsed.Payload.AutoPolicy)
	assert.Equal(t, "Loja Azul LTDA", parsed.Payload.Document["razao_social"])

	id := parsed.Payload.Identity()
	assert.Equal(t, "12.345.678/0001-95", id.TaxID)
	assert.Equal(t, "Loja Azul LTDA", id.DisplayName)
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name     string
		category extraction.Category
		text     string
	}{
		{"not json", extraction.CategoryAutoPolicy, "não consegui ler o documento"},
		{"array", extraction.CategoryAutoPolicy, `[1, 2, 3]`},
		{"missing policy block", extraction.CategoryAutoPolicy, `{"dados_pessoais": {"nome": "x"}}`},
		{"policy block wrong type", extraction.CategoryPolicy, `{"apolice": "5312024"}`},
		{"bad date", extraction.CategoryAutoPolicy, `{"apolice": {"inicio_vigencia": "amanhã"}}`},
		{"generic wrong type", "rg", `{"dados_pessoais": "Maria"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := extraction.Parse(tt.category, tt.text)
			assert.ErrorIs(t, err, extraction.ErrMalformedExtraction)
		})
	}
}

func TestIdentityPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		category extraction.Category
		raw      string
		taxID    string
		display  string
	}{
		{
			name:     "document cnpj wins",
			category: extraction.CategoryAutoPolicy,
			raw:      `{"dados_documento": {"cnpj": "11"}, "apolice": {"segurado_cnpj": "22"}, "dados_pessoais": {"document": "33"}}`,
			taxID:    "11",
		},
		{
			name:     "policy insured before personal",
			category: extraction.CategoryAutoPolicy,
			raw:      `{"apolice": {"segurado_cnpj": "22", "segurado_nome": "Segurado"}, "dados_pessoais": {"document": "33", "nome": "Pessoa"}}`,
			taxID:    "22",
			display:  "Segurado",
		},
		{
			name:     "personal fallback",
			category: extraction.CategoryAutoPolicy,
			raw:      `{"apolice": {}, "dados_pessoais": {"document": 12345678909, "nome": "Pessoa"}}`,
			taxID:    "12345678909",
			display:  "Pessoa",
		},
		{
			name:     "nothing",
			category: "rg",
			raw:      `{}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := extraction.Decode(tt.category, []byte(tt.raw))
			require.NoError(t, err)

			id := p.Identity()
			assert.Equal(t, tt.taxID, id.TaxID)
			assert.Equal(t, tt.display, id.DisplayName)
		})
	}
}

func TestIdentityContactPrefersPersonal(t *testing.T) {
	raw := `{"apolice": {"email": "apolice@example.com", "telefone": "1111"}, "dados_pessoais": {"email": "pessoal@example.com", "cep": "80000-000"}}`

	p, err := extraction.Decode(extraction.CategoryAutoPolicy, []byte(raw))
	require.NoError(t, err)

	id := p.Identity()
	assert.Equal(t, "pessoal@example.com", id.Email)
	assert.Equal(t, "1111", id.Phone)
	assert.Equal(t, "80000-000", id.PostalCode)
}

func TestDecodePolicyFields(t *testing.T) {
	fields, extra, err := extraction.DecodePolicyFields([]byte(`{"numero_apolice": "A-1", "parcelas": "3", "desconhecido": true}`))
	require.NoError(t, err)
	require.NotNil(t, fields.NumeroApolice)
	assert.Equal(t, "A-1", *fields.NumeroApolice)
	require.NotNil(t, fields.Parcelas)
	assert.Equal(t, extraction.Count(3), *fields.Parcelas)
	assert.Contains(t, extra, "desconhecido")

	_, _, err = extraction.DecodePolicyFields([]byte(`"x"`))
	assert.ErrorIs(t, err, extraction.ErrMalformedExtraction)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1500.50", 1500.50},
		{"R$ 1.500,50", 1500.50},
		{"US$ 30000.00", 30000},
		{"12,5%", 12.5},
		{"0", 0},
		{"R$ 2.000", 2000},
		{"R$ 1.500", 1500},
		{"1,500.00", 1500},
		{"1.234.567", 1234567},
		{"1.234.567,89", 1234567.89},
		{"1,234,567", 1234567},
		{"R$ 1,5", 1.5},
		{"0.125", 0.125},
		{"2.50", 2.50},
		{"-1.500", -1500},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := extraction.ParseAmount(tt.in)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, float64(got), 0.0001)
		})
	}

	_, err := extraction.ParseAmount("abc")
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	for _, in := range []string{"2024-03-01", "01/03/2024", "01-03-2024", "2024-03-01T00:00:00Z"} {
		d, err := extraction.ParseDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, "2024-03-01", d.Format(time.DateOnly), in)
	}

	_, err := extraction.ParseDate("março de 2024")
	assert.Error(t, err)
}

type fakeOverrides struct {
	text string
	ok   bool
	err  error
}

func (f fakeOverrides) Instructions(_ context.Context, _ string) (string, bool, error) {
	return f.text, f.ok, f.err
}

func TestComposePrompt(t *testing.T) {
	ctx := context.Background()
	spec := extraction.Spec(extraction.CategoryAutoPolicy)

	t.Run("defaults", func(t *testing.T) {
		got, err := extraction.ComposePrompt(ctx, nil, extraction.CategoryAutoPolicy)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(got, extraction.Instructions(extraction.CategoryAutoPolicy)))
		assert.True(t, strings.HasSuffix(got, spec))
	})

	t.Run("override", func(t *testing.T) {
		got, err := extraction.ComposePrompt(ctx, fakeOverrides{text: "Extraia só o número.", ok: true}, extraction.CategoryAutoPolicy)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(got, "Extraia só o número."))
		assert.True(t, strings.HasSuffix(got, spec))
	})

	t.Run("blank override ignored", func(t *testing.T) {
		got, err := extraction.ComposePrompt(ctx, fakeOverrides{text: "  ", ok: true}, extraction.CategoryAutoPolicy)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(got, extraction.Instructions(extraction.CategoryAutoPolicy)))
	})

	t.Run("override failure", func(t *testing.T) {
		_, err := extraction.ComposePrompt(ctx, fakeOverrides{err: errors.New("db down")}, extraction.CategoryAutoPolicy)
		assert.Error(t, err)
	})

	t.Run("generic category", func(t *testing.T) {
		got, err := extraction.ComposePrompt(ctx, nil, "rg")
		require.NoError(t, err)
		assert.Contains(t, got, extraction.Spec("rg"))
		assert.NotEqual(t, spec, extraction.Spec("rg"))
	})
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{extraction.ErrProviderUnavailable, http.StatusBadGateway},
		{extraction.ErrProviderTimeout, http.StatusGatewayTimeout},
		{extraction.ErrMalformedExtraction, http.StatusUnprocessableEntity},
		{extraction.ErrInvalidCategory, http.StatusBadRequest},
		{extraction.ErrInvalidChecksum, http.StatusUnauthorized},
		{errors.New("other"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, extraction.MapHTTPStatus(tt.err), tt.err.Error())
	}
}
