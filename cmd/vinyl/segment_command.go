package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/audio"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/pipeline"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/segment"
)

type segmentRow struct {
	Index       int    `json:"index"`
	SampleStart int    `json:"sample_start"`
	SampleEnd   int    `json:"sample_end"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
}

func newSegmentCommand(ctx *commandContext) *cobra.Command {
	var topDB float64
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "segment <file>",
		Short: "Split an audio file on silence and list the non-silent ranges",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			loader := audio.NewLoader(cfg.YouTube.FFmpegBinary)
			sig, err := loader.LoadFile(cmd.Context(), args[0], cfg.ASR.SampleRate)
			if err != nil {
				return err
			}

			opts := segment.Options{
				TopDB:       cfg.Segmenter.TopDB,
				FrameLength: cfg.Segmenter.FrameLength,
				HopLength:   cfg.Segmenter.HopLength,
			}
			if topDB > 0 {
				opts.TopDB = topDB
			}
			ranges := segment.Split(sig.Samples, opts)

			rows := make([]segmentRow, len(ranges))
			for i, r := range ranges {
				rows[i] = segmentRow{
					Index:       i + 1,
					SampleStart: r.Start,
					SampleEnd:   r.End,
					StartTime:   pipeline.FormatSeconds(r.Start, sig.SampleRate),
					EndTime:     pipeline.FormatSeconds(r.End, sig.SampleRate),
				}
			}
			if asJSON {
				return writeJSON(cmd, rows)
			}

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No speech found")
				return nil
			}
			table := make([][]string, len(rows))
			for i, row := range rows {
				table[i] = []string{
					strconv.Itoa(row.Index),
					strconv.Itoa(row.SampleStart),
					strconv.Itoa(row.SampleEnd),
					row.StartTime,
					row.EndTime,
				}
			}
			fmt.Fprint(out, renderTable([]column{
				{Header: "#", Align: alignRight},
				{Header: "Start sample", Align: alignRight},
				{Header: "End sample", Align: alignRight},
				{Header: "Start (s)", Align: alignRight},
				{Header: "End (s)", Align: alignRight},
			}, table))
			fmt.Fprintf(out, "%d segments in %s of audio\n", len(rows), sig.Duration())
			return nil
		},
	}

	cmd.Flags().Float64Var(&topDB, "top-db", 0, "Silence threshold in dB below peak (defaults to segmenter.top_db)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
