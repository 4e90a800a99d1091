package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/api"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the running service's status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			status, err := fetchStatus(cmd, cfg.LocalServiceURL())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, status)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			var lines []string
			lines = append(lines, renderSectionHeader("Service", colorize)...)
			lines = append(lines, renderStatusLine("Listening", statusOK, fmt.Sprintf("%s (pid %d)", status.Listen, status.PID), colorize))
			workerKind := statusOK
			if !status.Worker.Running {
				workerKind = statusError
			}
			lines = append(lines, renderStatusLine("Worker", workerKind, fmt.Sprintf("running=%s dispatched=%d", yesNo(status.Worker.Running), status.Worker.Dispatched), colorize))
			if status.Worker.LastError != "" {
				lines = append(lines, renderStatusLine("Last error", statusWarn, status.Worker.LastError, colorize))
			}

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Queue "+status.Worker.QueuePath, colorize)...)
			for _, st := range queue.AllStatuses() {
				lines = append(lines, renderStatusLine(string(st), statusInfo, fmt.Sprintf("%d", status.Worker.QueueStats[string(st)]), colorize))
			}

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
			for _, dep := range status.Dependencies {
				kind, message := statusOK, dep.Command
				if !dep.Available {
					kind, message = statusError, dep.Detail
					if dep.Optional {
						kind = statusWarn
					}
				}
				lines = append(lines, renderStatusLine(dep.Name, kind, message, colorize))
			}
			fmt.Fprintln(out, strings.Join(lines, "\n"))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func fetchStatus(cmd *cobra.Command, baseURL string) (api.DaemonStatus, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, baseURL+"/api/status", nil)
	if err != nil {
		return api.DaemonStatus{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return api.DaemonStatus{}, fmt.Errorf("connect to vinyl service at %s: %w (start it with `vinyl serve`)", baseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return api.DaemonStatus{}, fmt.Errorf("status request returned %d", resp.StatusCode)
	}
	var status api.DaemonStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return api.DaemonStatus{}, fmt.Errorf("decode status: %w", err)
	}
	return status, nil
}
