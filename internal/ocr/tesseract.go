package ocr

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// tesseractEngine shells out to the tesseract CLI.
type tesseractEngine struct {
	cfg    Config
	runner Runner
}

func (t *tesseractEngine) Name() string { return EngineTesseract }

func (t *tesseractEngine) Recognize(ctx context.Context, path string) (Recognition, error) {
	// tesseract <file> stdout -l <lang> [--psm N] [--oem N] [--tessdata-dir D]
	out, errb, err := t.runner.Run(ctx, t.cfg.Tesseract, t.args(path)...)
	if err != nil {
		return Recognition{Warnings: stderrWarnings(errb)}, fmt.Errorf("tesseract: %w", err)
	}

	rec := Recognition{Text: string(out)}
	if t.cfg.EnableTSVConfidence {
		conf, err := t.tsvConfidence(ctx, path)
		if err != nil {
			rec.Warnings = append(rec.Warnings, err.Error())
		} else {
			rec.Confidence = conf
		}
	}
	return rec, nil
}

func (t *tesseractEngine) args(path string, extra ...string) []string {
	args := []string{path, "stdout", "-l", t.cfg.TesseractLang}
	if t.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(t.cfg.PSM))
	}
	if t.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(t.cfg.OEM))
	}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}
	return append(args, extra...)
}

// tsvConfidence runs tesseract in TSV mode and returns the mean word confidence in 0..1.
func (t *tesseractEngine) tsvConfidence(ctx context.Context, path string) (float32, error) {
	out, _, err := t.runner.Run(ctx, t.cfg.Tesseract, t.args(path, "tsv")...)
	if err != nil {
		return 0, fmt.Errorf("tesseract tsv: %w", err)
	}
	return meanTSVConfidence(string(out)), nil
}

// meanTSVConfidence averages the last (conf) column, skipping the header and -1 rows.
func meanTSVConfidence(tsv string) float32 {
	var sum, n float64
	for i, ln := range strings.Split(tsv, "\n") {
		if i == 0 || ln == "" {
			continue
		}
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 {
			continue
		}
		confStr := strings.TrimSpace(cols[10])
		if confStr == "" || confStr == "-1" {
			continue
		}
		if v, err := strconv.ParseFloat(confStr, 64); err == nil && v >= 0 {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float32(sum / n / 100.0)
}

func stderrWarnings(b []byte) []string {
	s := strings.TrimSpace(string(b))
	if s == "" {
		return nil
	}
	return []string{truncate(s, 2<<10)}
}
