package constants

import "strings"

// Method selects the extraction strategy for a batch.
type Method string

const (
	MethodChatGPT Method = "chatgpt"
	MethodOCR     Method = "ocr"
)

// ParseMethod maps a request value to a Method. Anything other than "ocr" selects chatgpt.
func ParseMethod(s string) Method {
	if strings.EqualFold(strings.TrimSpace(s), string(MethodOCR)) {
		return MethodOCR
	}
	return MethodChatGPT
}
