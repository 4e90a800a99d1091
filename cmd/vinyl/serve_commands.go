package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/asr"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/daemon"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/deps"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/logging"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/worker"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the orchestration service (queue intake, worker, snippet sink)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg, "vinyl")
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			stores, err := daemon.Open(runCtx, cfg)
			if err != nil {
				return err
			}
			d, err := daemon.New(cfg, stores, logger, worker.NewManager(cfg, stores.Queue, logger))
			if err != nil {
				stores.Bucket.Close()
				stores.Docs.Close()
				stores.Queue.Close()
				return err
			}
			defer d.Close()

			for _, dep := range deps.CheckBinaries(deps.ServiceRequirements(cfg)) {
				if !dep.Available {
					logger.Warn("optional dependency unavailable",
						logging.String("dependency", dep.Name),
						logging.String("detail", dep.Detail),
						logging.String(logging.FieldErrorHint, dep.Description),
					)
				}
			}

			if err := d.Start(runCtx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "vinyl listening on %s (queue %s)\n", d.Addr(), cfg.QueuePath())

			<-runCtx.Done()
			logger.Info("vinyl shutting down")
			return nil
		},
	}
}

func newASRCommand(ctx *commandContext) *cobra.Command {
	asrCmd := &cobra.Command{
		Use:   "asr",
		Short: "ASR backend commands",
	}
	asrCmd.AddCommand(newASRServeCommand(ctx))
	return asrCmd
}

func newASRServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the ASR backend serving /asr-predict",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg, "vinyl-asr")
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			if missing := deps.Missing(deps.CheckBinaries(deps.ASRRequirements(cfg))); len(missing) > 0 {
				return fmt.Errorf("%s unavailable: %s", missing[0].Name, missing[0].Detail)
			}

			recognizer, err := asr.NewRecognizer(cfg)
			if err != nil {
				return err
			}

			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			srv := asr.NewServer(cfg, recognizer, logger)
			if err := srv.Start(runCtx); err != nil {
				return err
			}
			defer srv.Stop()
			fmt.Fprintf(cmd.OutOrStdout(), "asr backend listening on %s (engine %s)\n", srv.Addr(), cfg.ASR.Engine)

			<-runCtx.Done()
			logger.Info("asr backend shutting down")
			return nil
		},
	}
}

