package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/api"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/config"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/docstore"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/queue"
)

type sourceDetail struct {
	*docstore.SourceAudio
	Speaker *docstore.Speaker `json:"speaker,omitempty"`
	Tasks   []api.Task        `json:"tasks,omitempty"`
}

func newSourcesCommand(ctx *commandContext) *cobra.Command {
	sourcesCmd := &cobra.Command{
		Use:   "sources",
		Short: "Inspect source audio documents",
	}
	sourcesCmd.AddCommand(newSourcesListCommand(ctx))
	sourcesCmd.AddCommand(newSourcesShowCommand(ctx))
	sourcesCmd.AddCommand(newSourcesSpeakersCommand(ctx))
	sourcesCmd.AddCommand(newSourcesAnnotateCommand(ctx))
	sourcesCmd.AddCommand(newSourcesSetSpeakerCommand(ctx))
	return sourcesCmd
}

func newSourcesListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List source audios",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDocStore(func(store *docstore.Store) error {
				sources, err := store.ListSourceAudios(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, sources)
				}
				if len(sources) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No source audios")
					return nil
				}
				rows := make([][]string, 0, len(sources))
				for _, src := range sources {
					rows = append(rows, []string{
						src.ID,
						src.Name,
						src.SpeakerID,
						yesNo(src.PreProcessDone),
						yesNo(src.IsAnnotated),
						src.StorageRefPath,
					})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable([]column{
					{Header: "ID"},
					{Header: "Name"},
					{Header: "Speaker"},
					{Header: "Processed"},
					{Header: "Annotated"},
					{Header: "Storage path"},
				}, rows))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newSourcesShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a source audio with its speaker, snippets and tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStores(func(cfg *config.Config, docs *docstore.Store, tasks *queue.Store) error {
				src, err := docs.GetSourceAudio(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if src == nil {
					return fmt.Errorf("source audio %s not found", args[0])
				}
				if src.Snippets, err = docs.ListSnippets(cmd.Context(), src.ID); err != nil {
					return err
				}
				detail := sourceDetail{SourceAudio: src}
				if src.SpeakerID != "" {
					if detail.Speaker, err = docs.GetSpeaker(cmd.Context(), src.SpeakerID); err != nil {
						return err
					}
				}
				related, err := tasks.ListBySourceAudio(cmd.Context(), src.ID)
				if err != nil {
					return err
				}
				detail.Tasks = api.FromTasks(related, cfg.QueuePath())
				if asJSON {
					return writeJSON(cmd, detail)
				}

				speaker := src.SpeakerID
				if detail.Speaker != nil {
					speaker = fmt.Sprintf("%s (%s)", detail.Speaker.Name, detail.Speaker.ID)
				}
				out := cmd.OutOrStdout()
				fmt.Fprint(out, renderTable([]column{{Header: "Field"}, {Header: "Value"}}, [][]string{
					{"ID", src.ID},
					{"Name", src.Name},
					{"Speaker", speaker},
					{"Storage path", src.StorageRefPath},
					{"YouTube", src.YouTubeURL},
					{"Processed", yesNo(src.PreProcessDone)},
					{"Annotated", yesNo(src.IsAnnotated)},
					{"Snippets", strconv.Itoa(len(src.Snippets))},
					{"Tasks", strconv.Itoa(len(detail.Tasks))},
				}))
				if len(src.Snippets) > 0 {
					rows := make([][]string, 0, len(src.Snippets))
					for i, snip := range src.Snippets {
						rows = append(rows, []string{
							strconv.Itoa(i + 1),
							strconv.FormatFloat(snip.StartTime, 'f', 3, 64),
							strconv.FormatFloat(snip.EndTime, 'f', 3, 64),
							snip.Text,
						})
					}
					fmt.Fprint(out, renderTable([]column{
						{Header: "#", Align: alignRight},
						{Header: "Start", Align: alignRight},
						{Header: "End", Align: alignRight},
						{Header: "Text"},
					}, rows))
				}
				if len(detail.Tasks) > 0 {
					rows := make([][]string, 0, len(detail.Tasks))
					for _, task := range detail.Tasks {
						rows = append(rows, []string{
							strconv.FormatInt(task.ID, 10),
							task.Status,
							strconv.Itoa(task.Attempts),
							task.CreatedAt,
							task.ErrorMessage,
						})
					}
					fmt.Fprint(out, renderTable([]column{
						{Header: "Task", Align: alignRight},
						{Header: "Status"},
						{Header: "Attempts", Align: alignRight},
						{Header: "Created"},
						{Header: "Error"},
					}, rows))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newSourcesSpeakersCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "speakers",
		Short: "List known speakers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDocStore(func(store *docstore.Store) error {
				speakers, err := store.ListSpeakers(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, speakers)
				}
				if len(speakers) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No speakers")
					return nil
				}
				rows := make([][]string, 0, len(speakers))
				for _, speaker := range speakers {
					rows = append(rows, []string{speaker.ID, speaker.Name})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable([]column{{Header: "ID"}, {Header: "Name"}}, rows))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newSourcesAnnotateCommand(ctx *commandContext) *cobra.Command {
	var unset bool

	cmd := &cobra.Command{
		Use:   "annotate <id>",
		Short: "Mark a source audio as annotated",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDocStore(func(store *docstore.Store) error {
				if err := store.SetAnnotated(cmd.Context(), args[0], !unset); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Source audio %s annotated: %s\n", args[0], yesNo(!unset))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&unset, "unset", false, "Clear the annotated flag instead")
	return cmd
}

func newSourcesSetSpeakerCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set-speaker <id> <speaker-id>",
		Short: "Assign a known speaker to a source audio",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDocStore(func(store *docstore.Store) error {
				speaker, err := store.GetSpeaker(cmd.Context(), args[1])
				if err != nil {
					return err
				}
				if speaker == nil {
					return fmt.Errorf("speaker %s not found", args[1])
				}
				if err := store.SetSpeaker(cmd.Context(), args[0], speaker.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Source audio %s now belongs to %s\n", args[0], speaker.Name)
				return nil
			})
		},
	}
}
