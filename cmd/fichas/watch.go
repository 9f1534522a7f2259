package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/fichas/constants"
	"github.com/joseph-ayodele/fichas/internal/async"
	"github.com/joseph-ayodele/fichas/internal/entity"
	"github.com/joseph-ayodele/fichas/internal/export"
	"github.com/joseph-ayodele/fichas/internal/ingest"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var method string
	var out string
	var initialScan bool
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch <dir>...",
		Short: "Analyze images as they appear in the given directories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			u := newUI(cmd.OutOrStdout())
			m := constants.ParseMethod(method)

			var mu sync.Mutex
			var records []entity.Record
			queue := async.NewWorkerQueue(func(jobCtx context.Context, job async.Job) {
				name := filepath.Base(job.Path)
				outcome := a.Processor.Analyze(jobCtx, job.Path, m)
				if outcome.State != constants.ImageAccepted {
					u.fail("Nenhum dado significativo extraído de %s", name)
					return
				}
				rec := entity.NewRecord(outcome.Final.Fields, name)
				u.success("%s: %d campos via %s", name, rec.Fields.NonEmpty(), outcome.Final.Method)

				mu.Lock()
				defer mu.Unlock()
				records = append(records, rec)
				if err := writeWorkbook(jobCtx, a.Exporter, records, out); err != nil {
					u.warn("%v", err)
				}
			}, a.Logger, async.WithJobTimeout(a.Config.RequestTimeout()))

			paths, errs, err := ingest.StartWatcher(cmd.Context(), ingest.WatchConfig{
				Roots:       args,
				InitialScan: initialScan,
				SkipHidden:  true,
				Debounce:    debounce,
			}, a.Logger)
			if err != nil {
				queue.Shutdown(context.Background())
				return err
			}
			u.info("observando %d diretório(s); Ctrl+C para sair", len(args))

			for paths != nil || errs != nil {
				select {
				case path, ok := <-paths:
					if !ok {
						paths = nil
						continue
					}
					if err := queue.Enqueue(cmd.Context(), async.Job{Path: path}); err != nil {
						u.warn("%s: %v", filepath.Base(path), err)
					}
				case err, ok := <-errs:
					if !ok {
						errs = nil
						continue
					}
					u.warn("watch: %v", err)
				}
			}

			drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			queue.Shutdown(drainCtx)

			mu.Lock()
			defer mu.Unlock()
			u.info("%d imagens processadas", len(records))
			return nil
		},
	}

	cmd.Flags().StringVarP(&method, "method", "m", string(constants.MethodChatGPT), "Analysis method: chatgpt or ocr")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Rewrite this XLSX file after every accepted image")
	cmd.Flags().BoolVar(&initialScan, "initial-scan", true, "Analyze images already present at startup")
	cmd.Flags().DurationVar(&debounce, "debounce", 750*time.Millisecond, "Wait for writes to settle before analyzing a file")
	return cmd
}

// writeWorkbook replaces out atomically; an empty out disables it.
func writeWorkbook(ctx context.Context, exporter *export.Service, records []entity.Record, out string) error {
	if out == "" {
		return nil
	}
	data, err := exporter.WriteXLSX(ctx, export.RecordRows(records), constants.FileKey)
	if err != nil {
		return err
	}
	tmp := out + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	return os.Rename(tmp, out)
}
