package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/fichas/internal/ocr"
)

func newPreprocessCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "preprocess <image>",
		Short: "Write the binarized image the OCR engine would see",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := args[0]
			if out == "" {
				out = strings.TrimSuffix(in, filepath.Ext(in)) + "_ocr.png"
			}
			img, err := ocr.PreprocessFile(in)
			if err != nil {
				return err
			}
			if err := imaging.Save(img, out); err != nil {
				return fmt.Errorf("save %s: %w", out, err)
			}
			newUI(cmd.OutOrStdout()).success("%s -> %s (%dx%d)", in, out, img.Bounds().Dx(), img.Bounds().Dy())
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output PNG path (default <image>_ocr.png)")
	return cmd
}
