package llm

import (
	"strings"

	"github.com/joseph-ayodele/fichas/constants"
)

// BuildExtractionPrompt returns the Portuguese instruction sent with the image.
// The JSON template lists every schema key in canonical order.
func BuildExtractionPrompt() string {
	var b strings.Builder
	b.WriteString("Analise esta imagem de uma ficha de serviço automotivo e extraia as seguintes informações em formato JSON:\n")
	b.WriteString(fieldTemplate())
	b.WriteString("\n\nSe algum campo não estiver presente na imagem, deixe-o vazio (\"\").")
	b.WriteString("\nPara valores monetários (")
	b.WriteString(strings.Join(constants.MoneyFields, ", "))
	b.WriteString("), extraia apenas os números, sem R$ ou outros símbolos.")
	b.WriteString("\nResponda apenas com o objeto JSON, sem texto adicional.")
	return b.String()
}

func fieldTemplate() string {
	var b strings.Builder
	b.WriteString("{\n")
	names := constants.FieldNames()
	for i, n := range names {
		b.WriteString(`    "`)
		b.WriteString(n)
		b.WriteString(`": ""`)
		if i < len(names)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString("}")
	return b.String()
}
