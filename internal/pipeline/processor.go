package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/fichas/constants"
	"github.com/joseph-ayodele/fichas/internal/common"
	"github.com/joseph-ayodele/fichas/internal/entity"
	"github.com/joseph-ayodele/fichas/internal/llm"
)

// Outcome is the analysis of one image: the final result plus every attempt made.
type Outcome struct {
	Final    entity.AnalysisResult
	Attempts []entity.AnalysisResult
	State    constants.ImageState
}

// FellBack reports whether the OCR stage ran after a vision attempt.
func (o Outcome) FellBack() bool {
	return len(o.Attempts) > 1
}

// Processor coordinates the vision model and the OCR stage for a single image.
type Processor struct {
	Logger *slog.Logger
	Vision llm.VisionExtractor // nil when no API key is configured
	OCR    TextStage
}

func NewProcessor(logger *slog.Logger, vision llm.VisionExtractor, ocr TextStage) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, Vision: vision, OCR: ocr}
}

// Analyze runs the strategy selected by method on the image at path.
//   - chatgpt: vision model; when its fields are empty the OCR stage runs and
//     its result is final even if also empty.
//   - ocr: OCR stage only.
//
// Without a vision extractor chatgpt goes straight to OCR and records why.
func (p *Processor) Analyze(ctx context.Context, path string, method constants.Method) Outcome {
	start := time.Now()
	name := filepath.Base(path)
	rid := common.RequestIDFromContext(ctx)
	var out Outcome

	p.transition(rid, name, constants.ImageReceived)

	if method == constants.MethodChatGPT {
		if p.Vision == nil {
			out.Attempts = append(out.Attempts, entity.AnalysisResult{
				Fields:     entity.EmptyFields(),
				Diagnostic: "ChatGPT indisponível (OPENAI_API_KEY não configurada); usando OCR",
				Method:     constants.MethodChatGPT,
			})
		} else {
			p.transition(rid, name, constants.ImageRequesting)
			res := p.Vision.ExtractImage(ctx, llm.ImageRequest{Path: path, FilenameHint: name})
			out.Attempts = append(out.Attempts, res)
			if !res.Empty() {
				return p.finish(rid, name, out, res, start)
			}
			p.Logger.Info("pipeline.image.fallback", "request_id", rid, "file", name, "from", constants.MethodChatGPT, "to", constants.MethodOCR)
		}
	}

	p.transition(rid, name, constants.ImagePreprocessing)
	res := p.OCR.Run(ctx, path)
	out.Attempts = append(out.Attempts, res)
	return p.finish(rid, name, out, res, start)
}

func (p *Processor) finish(rid, name string, out Outcome, final entity.AnalysisResult, start time.Time) Outcome {
	p.transition(rid, name, constants.ImageParsed)
	out.Final = final
	out.State = constants.ImageAccepted
	if final.Empty() {
		out.State = constants.ImageRejected
	}
	p.Logger.Info("pipeline.image.done",
		"request_id", rid,
		"file", name,
		"state", out.State,
		"method", final.Method,
		"attempts", len(out.Attempts),
		"filled", final.Fields.NonEmpty(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out
}

func (p *Processor) transition(rid, name string, state constants.ImageState) {
	p.Logger.Debug("pipeline.image.state", "request_id", rid, "file", name, "state", state)
}
