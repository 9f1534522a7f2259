package heuristics

import (
	"strings"

	"github.com/joseph-ayodele/fichas/constants"
)

// Rule assigns a line to Field when its lowercase form contains any Keyword.
type Rule struct {
	Keywords []string
	Field    string
	Value    func(line string) string
}

// Matches reports whether the lowercased line hits one of the rule keywords.
func (r Rule) Matches(lower string) bool {
	for _, k := range r.Keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// DefaultRules is the ordered rule table; the first match wins per line.
func DefaultRules() []Rule {
	return []Rule{
		{Keywords: []string{"cliente"}, Field: constants.FieldCliente, Value: afterLast(":")},
		{Keywords: []string{"data"}, Field: constants.FieldData, Value: afterLast(":")},
		{Keywords: []string{"celular", "tel"}, Field: constants.FieldTelefone, Value: afterLast(":")},
		{Keywords: []string{"marca"}, Field: constants.FieldMarca, Value: afterLast(":")},
		{Keywords: []string{"modelo"}, Field: constants.FieldModelo, Value: afterLast(":")},
		{Keywords: []string{"motor"}, Field: constants.FieldMotor, Value: afterLast(":")},
		{Keywords: []string{"placa"}, Field: constants.FieldPlaca, Value: afterLast(":")},
		{Keywords: []string{"ano"}, Field: constants.FieldAno, Value: afterLast(":")},
		{Keywords: []string{"garantia"}, Field: constants.FieldGarantia, Value: strings.TrimSpace},
		{Keywords: []string{"valor total"}, Field: constants.FieldValorTotal, Value: afterLast("R$")},
		{Keywords: []string{"valor unit"}, Field: constants.FieldValorUnitario, Value: afterLast("R$")},
		{Keywords: []string{"quant"}, Field: constants.FieldQuantidade, Value: afterLast(":")},
		{Keywords: []string{"desconto"}, Field: constants.FieldDesconto, Value: afterLast("R$")},
	}
}

// ServiceKeywords mark lines that describe the work done on the vehicle.
var ServiceKeywords = []string{"eixo", "bomba"}

// afterLast returns the trimmed text after the last sep, or the whole trimmed
// line when sep is absent. Matching on sep is case-sensitive.
func afterLast(sep string) func(string) string {
	return func(line string) string {
		if i := strings.LastIndex(line, sep); i >= 0 {
			return strings.TrimSpace(line[i+len(sep):])
		}
		return strings.TrimSpace(line)
	}
}
