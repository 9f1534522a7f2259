// Package server exposes the image analysis pipeline over HTTP.
package server

import (
	"log/slog"
	"time"

	"github.com/joseph-ayodele/fichas/internal/export"
	"github.com/joseph-ayodele/fichas/internal/ingest"
	"github.com/joseph-ayodele/fichas/internal/pipeline"
)

// multipartMemory is how much of a multipart body is kept in memory before
// spilling parts to temporary files.
const multipartMemory = 8 << 20

type Options struct {
	MaxUploadBytes int64
	RequestTimeout time.Duration
}

type Server struct {
	batch    *pipeline.BatchProcessor
	exporter *export.Service
	store    *ingest.Store
	opts     Options
	logger   *slog.Logger
	now      func() time.Time
}

func NewServer(batch *pipeline.BatchProcessor, exporter *export.Service, store *ingest.Store, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 5 * time.Minute
	}
	return &Server{
		batch:    batch,
		exporter: exporter,
		store:    store,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}
