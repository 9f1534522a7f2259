package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/fichas/constants"
	"github.com/joseph-ayodele/fichas/internal/entity"
	"github.com/joseph-ayodele/fichas/internal/export"
	"github.com/joseph-ayodele/fichas/internal/ingest"
)

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var method string
	var out string
	var skipHidden bool
	var showDiagnostics bool

	cmd := &cobra.Command{
		Use:   "extract <path>...",
		Short: "Analyze images or directories of images and print the extracted fields",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			u := newUI(cmd.OutOrStdout())

			paths, stats, err := ingest.CollectImages(args, skipHidden, a.Logger)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				u.warn("nenhuma imagem encontrada (%d arquivos verificados)", stats.Scanned)
				return nil
			}

			m := constants.ParseMethod(method)
			var records []entity.Record
			for _, path := range paths {
				name := filepath.Base(path)
				outcome := a.Processor.Analyze(cmd.Context(), path, m)
				if showDiagnostics {
					for _, att := range outcome.Attempts {
						u.info("[%s] %s: %s", att.Method, name, att.Diagnostic)
					}
				}
				if outcome.State != constants.ImageAccepted {
					u.fail("Nenhum dado significativo extraído de %s", name)
					continue
				}
				via := string(outcome.Final.Method)
				if outcome.FellBack() {
					via += " (fallback)"
				}
				u.success("%s: %d campos via %s", name, outcome.Final.Fields.NonEmpty(), via)
				records = append(records, entity.NewRecord(outcome.Final.Fields, name))
			}

			if len(records) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), renderRecords(records))
			}
			u.info("%d/%d imagens processadas com sucesso", len(records), len(paths))

			if out == "" {
				return nil
			}
			data, err := a.Exporter.WriteXLSX(cmd.Context(), export.RecordRows(records), constants.FileKey)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			u.success("planilha gravada em %s", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&method, "method", "m", string(constants.MethodChatGPT), "Analysis method: chatgpt or ocr")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the records to this XLSX file")
	cmd.Flags().BoolVar(&skipHidden, "skip-hidden", true, "Skip hidden files and directories")
	cmd.Flags().BoolVar(&showDiagnostics, "diagnostics", false, "Print the raw output of every extraction attempt")
	return cmd
}

// renderRecords shows one row per record with the file name and the fields
// that carry a value in at least one record.
func renderRecords(records []entity.Record) string {
	var cols []string
	for _, f := range constants.FieldNames() {
		for _, r := range records {
			if r.Fields[f] != "" {
				cols = append(cols, f)
				break
			}
		}
	}
	headers := append([]string{"#", constants.FileKey}, cols...)
	rows := make([][]string, 0, len(records))
	for i, r := range records {
		row := []string{strconv.Itoa(i + 1), r.File}
		for _, c := range cols {
			row = append(row, r.Fields[c])
		}
		rows = append(rows, row)
	}
	return renderTable(headers, rows, 32)
}
