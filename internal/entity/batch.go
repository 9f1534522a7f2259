package entity

import (
	"fmt"

	"github.com/joseph-ayodele/fichas/constants"
)

// Batch aggregates the outcome of one upload request.
type Batch struct {
	ID          string
	Method      constants.Method
	Records     []Record
	Files       []string
	Errors      []string
	Diagnostics []string
}

func NewBatch(id string, method constants.Method) *Batch {
	return &Batch{
		ID:          id,
		Method:      method,
		Records:     []Record{},
		Files:       []string{},
		Errors:      []string{},
		Diagnostics: []string{},
	}
}

// Accept appends an accepted record and its file name.
func (b *Batch) Accept(rec Record) {
	b.Records = append(b.Records, rec)
	b.Files = append(b.Files, rec.File)
}

// Fail records a per-file error message.
func (b *Batch) Fail(msg string) {
	b.Errors = append(b.Errors, msg)
}

// AddDiagnostic keeps the raw output of an extraction attempt, labeled with
// the method that produced it and the file it came from.
func (b *Batch) AddDiagnostic(file string, res AnalysisResult) {
	b.Diagnostics = append(b.Diagnostics, fmt.Sprintf("[%s] %s: %s", res.Method, file, res.Diagnostic))
}

// Exhausted reports whether no image was accepted.
func (b *Batch) Exhausted() bool {
	return len(b.Records) == 0
}
