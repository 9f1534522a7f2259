package llm

import (
	"context"

	"github.com/joseph-ayodele/fichas/internal/entity"
)

// ImageRequest identifies the ticket photo to analyze.
type ImageRequest struct {
	Path         string
	FilenameHint string
}

// VisionExtractor reads schema fields straight from an image.
// Failures are reported inside the result (Err, Diagnostic) with empty Fields.
type VisionExtractor interface {
	ExtractImage(ctx context.Context, req ImageRequest) entity.AnalysisResult
}
