package ocr

import (
	"context"
	"log/slog"
)

const (
	EngineTesseract = "tesseract"
	EngineGosseract = "gosseract"
)

// Recognition is the raw engine output for one preprocessed image.
type Recognition struct {
	Text       string
	Confidence float32 // mean word confidence in 0..1; 0 when the engine does not report one
	Warnings   []string
}

// Engine recognizes text in an image file.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, imagePath string) (Recognition, error)
}

type engineFactory func(cfg Config, runner Runner, logger *slog.Logger) Engine

// engines holds the available OCR engines; gosseract registers itself when
// built with -tags gosseract.
var engines = map[string]engineFactory{
	EngineTesseract: func(cfg Config, runner Runner, _ *slog.Logger) Engine {
		return &tesseractEngine{cfg: cfg, runner: runner}
	},
}

// Engines lists the engine names compiled into this binary.
func Engines() []string {
	names := make([]string, 0, len(engines))
	for n := range engines {
		names = append(names, n)
	}
	return names
}
