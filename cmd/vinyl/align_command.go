package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/align"
)

func newAlignCommand() *cobra.Command {
	var hypothesis, reference, referenceFile string
	var keepLatest, asJSON bool

	cmd := &cobra.Command{
		Use:         "align",
		Short:       "Find the reference window that best matches a hypothesis",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(hypothesis) == "" {
				return errors.New("--hypothesis is required")
			}
			if referenceFile != "" {
				if reference != "" {
					return errors.New("specify only one of --reference or --reference-file")
				}
				data, err := os.ReadFile(referenceFile)
				if err != nil {
					return fmt.Errorf("read reference: %w", err)
				}
				reference = string(data)
			}

			result := align.Aligner{KeepLatestOnTie: keepLatest}.Align(hypothesis, reference)
			if asJSON {
				return writeJSON(cmd, map[string]any{
					"text":  result.Text,
					"score": result.Score,
					"start": result.Start,
					"end":   result.End,
					"found": result.Found(),
				})
			}
			out := cmd.OutOrStdout()
			if !result.Found() {
				fmt.Fprintln(out, "No reference window matched")
				return nil
			}
			fmt.Fprint(out, renderTable([]column{
				{Header: "Tokens", Align: alignRight},
				{Header: "WER", Align: alignRight},
				{Header: "Text"},
			}, [][]string{{
				fmt.Sprintf("%d-%d", result.Start, result.End),
				strconv.FormatFloat(result.Score, 'f', 3, 64),
				result.Text,
			}}))
			return nil
		},
	}

	cmd.Flags().StringVar(&hypothesis, "hypothesis", "", "Recognized text to align")
	cmd.Flags().StringVar(&reference, "reference", "", "Reference transcript")
	cmd.Flags().StringVar(&referenceFile, "reference-file", "", "Read the reference transcript from a file")
	cmd.Flags().BoolVar(&keepLatest, "keep-latest", false, "Prefer the latest window among equal scores")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
