package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/joseph-ayodele/fichas/constants"
	"github.com/joseph-ayodele/fichas/internal/entity"
)

// ErrNoJSONObject is returned when a reply holds no {...} span.
var ErrNoJSONObject = errors.New("no json object in reply")

// ExtractJSONObject returns the text between the first '{' and the last '}', inclusive.
func ExtractJSONObject(content string) (string, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return "", ErrNoJSONObject
	}
	return content[start : end+1], nil
}

// FieldsFromContent decodes a model reply into schema fields.
// - slices the reply to its outer JSON object
// - matches keys to schema keys ignoring case, accents, and a "(R$)" suffix
// - stringifies non-string scalars
// - drops unknown keys
// On any decode failure it returns EmptyFields() together with the error.
func FieldsFromContent(content string, logger *slog.Logger) (entity.Fields, []byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fields := entity.EmptyFields()

	obj, err := ExtractJSONObject(content)
	if err != nil {
		return fields, nil, err
	}
	raw := []byte(obj)

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return fields, raw, fmt.Errorf("decode reply: %w", err)
	}

	var dropped []string
	for k, v := range m {
		name, ok := canonicalField(k)
		if !ok {
			dropped = append(dropped, k)
			continue
		}
		fields[name] = stringify(v)
	}
	if len(dropped) > 0 {
		logger.Debug("llm.sanitize.dropped_keys", "keys", dropped)
	}
	return fields, raw, nil
}

var foldedFields = func() map[string]string {
	out := make(map[string]string)
	for _, n := range constants.FieldNames() {
		out[foldKey(n)] = n
	}
	return out
}()

func canonicalField(key string) (string, bool) {
	name, ok := foldedFields[foldKey(key)]
	return name, ok
}

// foldKey lowercases, strips accents and a trailing "(R$)", and collapses spaces.
func foldKey(k string) string {
	k = strings.TrimSpace(k)
	k = strings.TrimSpace(strings.TrimSuffix(k, "(R$)"))
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if s, _, err := transform.String(t, k); err == nil {
		k = s
	}
	k = strings.ReplaceAll(k, "_", " ")
	return strings.Join(strings.Fields(strings.ToLower(k)), " ")
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
