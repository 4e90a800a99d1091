package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/api"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/config"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the task queue",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueShowCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))

	return queueCmd
}

func parseStatuses(values []string) ([]queue.Status, error) {
	statuses := make([]queue.Status, 0, len(values))
	for _, value := range values {
		status, ok := queue.ParseStatus(value)
		if !ok {
			return nil, fmt.Errorf("unknown queue status %q", value)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func parsePositiveIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid task id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseStatuses(listStatuses)
			if err != nil {
				return err
			}
			return ctx.withQueueStore(func(cfg *config.Config, store *queue.Store) error {
				tasks, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, api.FromTasks(tasks, cfg.QueuePath()))
				}
				if len(tasks) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				rows := make([][]string, 0, len(tasks))
				for _, task := range tasks {
					rows = append(rows, []string{
						strconv.FormatInt(task.ID, 10),
						task.SourceAudioUID,
						string(task.Status),
						strconv.Itoa(task.Attempts),
						task.CreatedAt.Local().Format(time.DateTime),
					})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable([]column{
					{Header: "ID", Align: alignRight},
					{Header: "Source audio"},
					{Header: "Status"},
					{Header: "Attempts", Align: alignRight},
					{Header: "Created"},
				}, rows))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by task status (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a single task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}
			return ctx.withQueueStore(func(cfg *config.Config, store *queue.Store) error {
				task, err := store.GetByID(cmd.Context(), ids[0])
				if err != nil {
					return err
				}
				if task == nil {
					return fmt.Errorf("task %d not found", ids[0])
				}
				dto := api.FromTask(task, cfg.QueuePath())
				if asJSON {
					return writeJSON(cmd, dto)
				}
				rows := [][]string{
					{"Name", dto.Name},
					{"Status", dto.Status},
					{"Source audio", dto.SourceAudioUID},
					{"Target", dto.TargetURL},
					{"Attempts", strconv.Itoa(dto.Attempts)},
					{"Deadline", dto.DispatchDeadline},
					{"Created", dto.CreatedAt},
					{"Updated", dto.UpdatedAt},
				}
				if dto.ErrorMessage != "" {
					rows = append(rows, []string{"Error", dto.ErrorMessage})
				}
				rows = append(rows, []string{"Payload", string(dto.Payload)})
				fmt.Fprint(cmd.OutOrStdout(), renderTable([]column{{Header: "Field"}, {Header: "Value"}}, rows))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [id...]",
		Short: "Move failed tasks back to pending (all failed tasks when no ids are given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}
			return ctx.withQueueStore(func(_ *config.Config, store *queue.Store) error {
				updated, err := store.Retry(cmd.Context(), ids...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Retried %d failed tasks\n", updated)
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var clearStatuses []string
	var all bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove tasks by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseStatuses(clearStatuses)
			if err != nil {
				return err
			}
			if len(statuses) == 0 && !all {
				return errors.New("specify --status or --all")
			}
			if len(statuses) > 0 && all {
				return errors.New("specify only one of --status or --all")
			}
			return ctx.withQueueStore(func(_ *config.Config, store *queue.Store) error {
				removed, err := store.Clear(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				label := "queue"
				if len(statuses) > 0 {
					parts := make([]string, len(statuses))
					for i, s := range statuses {
						parts[i] = string(s)
					}
					label = strings.Join(parts, "/")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d %s tasks\n", removed, label)
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVarP(&clearStatuses, "status", "s", nil, "Status to clear (repeatable)")
	cmd.Flags().BoolVar(&all, "all", false, "Clear every task")
	return cmd
}
