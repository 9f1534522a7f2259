package entity

import (
	"strings"

	"github.com/joseph-ayodele/fichas/constants"
)

// Fields maps every schema key to its extracted text value.
type Fields map[string]string

// EmptyFields returns a fresh Fields with every schema key set to "".
func EmptyFields() Fields {
	names := constants.FieldNames()
	f := make(Fields, len(names))
	for _, n := range names {
		f[n] = ""
	}
	return f
}

// IsEmpty reports whether no schema key carries a non-blank value.
// Keys outside the schema are ignored.
func (f Fields) IsEmpty() bool {
	for _, n := range constants.FieldNames() {
		if strings.TrimSpace(f[n]) != "" {
			return false
		}
	}
	return true
}

// Normalize returns a copy holding exactly the schema keys: unknown keys are
// dropped and missing ones filled with "".
func (f Fields) Normalize() Fields {
	out := EmptyFields()
	for k, v := range f {
		if _, ok := out[k]; ok {
			out[k] = v
		}
	}
	return out
}

// NonEmpty counts the schema keys with a non-blank value.
func (f Fields) NonEmpty() int {
	n := 0
	for _, k := range constants.FieldNames() {
		if strings.TrimSpace(f[k]) != "" {
			n++
		}
	}
	return n
}
