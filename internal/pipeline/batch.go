package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/fichas/constants"
	"github.com/joseph-ayodele/fichas/internal/common"
	"github.com/joseph-ayodele/fichas/internal/entity"
	"github.com/joseph-ayodele/fichas/internal/ingest"
)

// BatchProcessor stores and analyzes the images of one request, in order.
type BatchProcessor struct {
	Logger    *slog.Logger
	Store     Saver
	Processor *Processor
}

func NewBatchProcessor(logger *slog.Logger, store Saver, proc *Processor) *BatchProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchProcessor{Logger: logger, Store: store, Processor: proc}
}

// Run processes every upload sequentially. A failing image never stops the
// batch; its error is recorded and the next image proceeds.
func (b *BatchProcessor) Run(ctx context.Context, uploads []Upload, method constants.Method) *entity.Batch {
	start := time.Now()
	id := common.RequestIDFromContext(ctx)
	if id == "" {
		id = uuid.NewString()
		ctx = common.WithRequestID(ctx, id)
	}
	batch := entity.NewBatch(id, method)

	b.Logger.Info("pipeline.batch.start", "request_id", id, "images", len(uploads), "method", method)

	for _, up := range uploads {
		b.processOne(ctx, batch, up, method)
	}

	b.Logger.Info("pipeline.batch.done",
		"request_id", id,
		"accepted", len(batch.Records),
		"errors", len(batch.Errors),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return batch
}

func (b *BatchProcessor) processOne(ctx context.Context, batch *entity.Batch, up Upload, method constants.Method) {
	saved, err := b.save(up)
	if err != nil {
		b.Logger.Warn("pipeline.image.save_failed", "request_id", batch.ID, "file", up.Filename, "error", err)
		batch.Fail(common.PublicMessage(err))
		return
	}

	out := b.Processor.Analyze(ctx, saved.Path, method)
	for _, a := range out.Attempts {
		batch.AddDiagnostic(saved.Name, a)
	}
	if out.State != constants.ImageAccepted {
		batch.Fail(fmt.Sprintf("Nenhum dado significativo extraído de %s", saved.Name))
		return
	}
	batch.Accept(entity.NewRecord(out.Final.Fields, saved.Name))
}

func (b *BatchProcessor) save(up Upload) (ingest.SavedFile, error) {
	if err := ingest.CheckUploadName(up.Filename); err != nil {
		return ingest.SavedFile{}, err
	}
	rc, err := up.Open()
	if err != nil {
		return ingest.SavedFile{}, common.NewAppError("STORAGE_ERROR",
			fmt.Sprintf("Erro ao ler %s", up.Filename), fmt.Errorf("%w: %w", common.ErrStorage, err))
	}
	defer func() {
		if err := rc.Close(); err != nil {
			b.Logger.Warn("pipeline.image.close_error", "file", up.Filename, "error", err)
		}
	}()
	return b.Store.SaveUpload(up.Filename, rc)
}
