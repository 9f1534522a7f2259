package pipeline

import (
	"context"
	"io"

	"github.com/joseph-ayodele/fichas/internal/entity"
	"github.com/joseph-ayodele/fichas/internal/ingest"
	"github.com/joseph-ayodele/fichas/internal/ocr"
)

// TextExtractor is the OCR capability the OCR stage depends on.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (ocr.ExtractionResult, error)
}

// TextStage runs the local OCR path over one stored image.
type TextStage interface {
	Run(ctx context.Context, path string) entity.AnalysisResult
}

// Saver persists an upload before analysis.
type Saver interface {
	SaveUpload(original string, r io.Reader) (ingest.SavedFile, error)
}

// Upload is one file of a multipart request.
type Upload struct {
	Filename string
	Open     func() (io.ReadCloser, error)
}
