//go:build gosseract

package ocr

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/otiai10/gosseract/v2"
)

func init() {
	engines[EngineGosseract] = func(cfg Config, _ Runner, logger *slog.Logger) Engine {
		return &gosseractEngine{cfg: cfg, logger: logger}
	}
}

// gosseractEngine calls libtesseract in-process. A client is created per image
// because gosseract.Client is not safe for concurrent use.
type gosseractEngine struct {
	cfg    Config
	logger *slog.Logger
}

func (g *gosseractEngine) Name() string { return EngineGosseract }

func (g *gosseractEngine) Recognize(ctx context.Context, path string) (Recognition, error) {
	if err := ctx.Err(); err != nil {
		return Recognition{}, err
	}

	client := gosseract.NewClient()
	defer func() {
		if err := client.Close(); err != nil {
			g.logger.Warn("ocr.gosseract.close_error", "error", err)
		}
	}()

	if g.cfg.TessdataDir != "" {
		if err := client.SetTessdataPrefix(g.cfg.TessdataDir); err != nil {
			return Recognition{}, fmt.Errorf("gosseract tessdata: %w", err)
		}
	}
	if err := client.SetLanguage(g.cfg.TesseractLang); err != nil {
		return Recognition{}, fmt.Errorf("gosseract language: %w", err)
	}
	if g.cfg.PSM > 0 {
		if err := client.SetPageSegMode(gosseract.PageSegMode(g.cfg.PSM)); err != nil {
			return Recognition{}, fmt.Errorf("gosseract psm: %w", err)
		}
	}
	if err := client.SetImage(path); err != nil {
		return Recognition{}, fmt.Errorf("gosseract image: %w", err)
	}

	txt, err := client.Text()
	if err != nil {
		return Recognition{}, fmt.Errorf("gosseract: %w", err)
	}
	return Recognition{Text: txt}, nil
}
