package pipeline

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/fichas/constants"
	"github.com/joseph-ayodele/fichas/internal/common"
	"github.com/joseph-ayodele/fichas/internal/entity"
	"github.com/joseph-ayodele/fichas/internal/heuristics"
)

// OCRStage extracts text locally and parses it with the keyword heuristics.
type OCRStage struct {
	TextExtractor TextExtractor
	Parser        *heuristics.Parser
	Logger        *slog.Logger
}

func NewOCRStage(tx TextExtractor, parser *heuristics.Parser, logger *slog.Logger) *OCRStage {
	if logger == nil {
		logger = slog.Default()
	}
	if parser == nil {
		parser = heuristics.NewParser()
	}
	return &OCRStage{TextExtractor: tx, Parser: parser, Logger: logger}
}

// Run never fails: extractor errors become empty fields plus an error diagnostic.
func (s *OCRStage) Run(ctx context.Context, path string) entity.AnalysisResult {
	res, err := s.TextExtractor.Extract(ctx, path)
	if err != nil {
		s.Logger.Error("pipeline.ocr.failed", "path", path, "error", err)
		return entity.AnalysisResult{
			Fields:     entity.EmptyFields(),
			Diagnostic: "Erro na análise com OCR: " + err.Error(),
			Method:     constants.MethodOCR,
			Err:        common.ExtractionError(err),
		}
	}

	fields := s.Parser.Parse(res.Text)
	s.Logger.Debug("pipeline.ocr.parsed",
		"path", path,
		"confidence", res.Confidence,
		"filled", fields.NonEmpty(),
	)
	return entity.AnalysisResult{
		Fields:     fields,
		Diagnostic: res.Text,
		Method:     constants.MethodOCR,
	}
}
