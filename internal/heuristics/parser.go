// Package heuristics turns raw OCR text from a service ticket into schema
// fields using keyword rules. It never fails: unmatched text yields empty fields.
package heuristics

import (
	"strings"

	"github.com/joseph-ayodele/fichas/constants"
	"github.com/joseph-ayodele/fichas/internal/entity"
)

type Parser struct {
	rules           []Rule
	serviceKeywords []string
}

func NewParser() *Parser {
	return &Parser{rules: DefaultRules(), serviceKeywords: ServiceKeywords}
}

// Parse runs the keyword rules line by line, then the service accumulation pass.
// Later lines overwrite earlier values of the same field.
func (p *Parser) Parse(text string) entity.Fields {
	fields := entity.EmptyFields()
	lines := strings.Split(text, "\n")

	for _, line := range lines {
		lower := strings.ToLower(line)
		for _, r := range p.rules {
			if r.Matches(lower) {
				fields[r.Field] = r.Value(line)
				break
			}
		}
	}

	var svc strings.Builder
	for _, line := range lines {
		lower := strings.ToLower(line)
		for _, k := range p.serviceKeywords {
			if strings.Contains(lower, k) {
				svc.WriteString(strings.TrimSpace(line))
				svc.WriteString("; ")
				break
			}
		}
	}
	fields[constants.FieldServico] += svc.String()

	return fields
}

var defaultParser = NewParser()

// Parse is a shorthand for the default rule table.
func Parse(text string) entity.Fields {
	return defaultParser.Parse(text)
}
