package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/fichas/constants"
	"github.com/joseph-ayodele/fichas/internal/heuristics"
)

func newOCRCommand(ctx *commandContext) *cobra.Command {
	var parse bool

	cmd := &cobra.Command{
		Use:   "ocr <image>...",
		Short: "Preprocess and OCR images, printing the recognized text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			u := newUI(cmd.OutOrStdout())
			parser := heuristics.NewParser()

			var failed int
			for _, path := range args {
				name := filepath.Base(path)
				res, err := a.OCR.Extract(cmd.Context(), path)
				if err != nil {
					failed++
					u.fail("%s: %v", name, err)
					continue
				}
				u.success("%s: engine=%s lang=%s confidence=%.2f elapsed=%s",
					name, res.Engine, res.Language, res.Confidence, res.Duration.Round(time.Millisecond))
				for _, w := range res.Warnings {
					u.warn("%s", w)
				}
				fmt.Fprintln(cmd.OutOrStdout(), res.Text)

				if parse {
					fields := parser.Parse(res.Text)
					rows := make([][]string, 0, len(fields))
					for _, f := range constants.FieldNames() {
						rows = append(rows, []string{f, fields[f]})
					}
					fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Campo", "Valor"}, rows, 60))
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d images failed", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&parse, "parse", "p", false, "Also run the heuristic field parser on the text")
	return cmd
}
