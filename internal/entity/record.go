package entity

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/joseph-ayodele/fichas/constants"
)

// Record is an accepted ticket: the schema fields plus the stored file name.
type Record struct {
	Fields Fields
	File   string
}

// NewRecord builds a Record whose Fields hold exactly the schema keys.
func NewRecord(fields Fields, file string) Record {
	return Record{Fields: fields.Normalize(), File: file}
}

// MarshalJSON writes the schema keys in canonical order followed by Arquivo.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range constants.FieldNames() {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writePair(&buf, name, r.Fields[name]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte(',')
	if err := writePair(&buf, constants.FileKey, r.File); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts any JSON object; non-string values are stringified.
func (r *Record) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	fields := EmptyFields()
	for k, v := range m {
		if k == constants.FileKey {
			r.File = fmt.Sprint(valueOrEmpty(v))
			continue
		}
		if _, ok := fields[k]; ok {
			fields[k] = fmt.Sprint(valueOrEmpty(v))
		}
	}
	r.Fields = fields
	return nil
}

// Row flattens the record for tabular export.
func (r Record) Row() map[string]any {
	row := make(map[string]any, len(r.Fields)+1)
	for k, v := range r.Fields {
		row[k] = v
	}
	row[constants.FileKey] = r.File
	return row
}

func writePair(buf *bytes.Buffer, key, value string) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}

func valueOrEmpty(v any) any {
	if v == nil {
		return ""
	}
	return v
}
