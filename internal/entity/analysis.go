package entity

import "github.com/joseph-ayodele/fichas/constants"

// AnalysisResult is the outcome of one extraction attempt on one image.
// It is never persisted.
type AnalysisResult struct {
	Fields     Fields
	Diagnostic string // raw OCR text, raw model reply, or an error description
	Method     constants.Method
	Err        error
}

// Empty reports whether the attempt produced no usable field.
func (r AnalysisResult) Empty() bool {
	return r.Fields.IsEmpty()
}
