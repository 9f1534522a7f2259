package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/fichas/constants"
)

func newXLSXCommand(ctx *commandContext) *cobra.Command {
	var out string
	var keepFile bool

	cmd := &cobra.Command{
		Use:   "xlsx <records.json|->",
		Short: "Convert records JSON ({\"records\": [...]} or a bare list) to a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp()
			if err != nil {
				return err
			}

			var raw []byte
			if args[0] == "-" {
				raw, err = io.ReadAll(cmd.InOrStdin())
			} else {
				raw, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}
			rows, err := decodeRecords(raw)
			if err != nil {
				return err
			}

			var drop []string
			if !keepFile {
				drop = append(drop, constants.FileKey)
			}
			data, err := a.Exporter.WriteXLSX(cmd.Context(), rows, drop...)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			newUI(cmd.OutOrStdout()).success("%d registros gravados em %s", len(rows), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "fichas_resultado.xlsx", "Output XLSX path")
	cmd.Flags().BoolVar(&keepFile, "keep-file-column", false, "Keep the "+constants.FileKey+" column")
	return cmd
}

// decodeRecords accepts the /generate-excel body or a bare JSON array.
func decodeRecords(raw []byte) ([]map[string]any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var rows []map[string]any
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, fmt.Errorf("decode records: %w", err)
		}
		return rows, nil
	}
	var body struct {
		Records *[]map[string]any `json:"records"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	if body.Records == nil {
		return nil, errors.New("records key missing")
	}
	return *body.Records, nil
}
