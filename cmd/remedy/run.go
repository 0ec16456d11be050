package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/remedyhq/remedy/internal/ai"
	"github.com/remedyhq/remedy/internal/analyzer"
	"github.com/remedyhq/remedy/internal/events"
	"github.com/remedyhq/remedy/internal/executor"
	"github.com/remedyhq/remedy/internal/gate"
	"github.com/remedyhq/remedy/internal/mission"
	"github.com/remedyhq/remedy/internal/poller"
	"github.com/remedyhq/remedy/internal/review"
	"github.com/remedyhq/remedy/internal/synthesizer"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the remediation daemon",
	Long: `Start the mission poller and process healing missions until interrupted.

Missions are discovered from the shared store every poll interval, claimed,
and run through analysis, synthesis, the decision gate, and execution.
High-confidence low-risk fixes apply autonomously; everything else lands in
the review outbox. Press Ctrl+C for a graceful shutdown that drains
in-flight missions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		st, kv, err := openStore()
		if err != nil {
			return err
		}
		defer kv.Close()

		// Collaborators: LLM-backed when enabled, heuristic otherwise
		var (
			anz mission.Analyzer
			syn synthesizer.Synthesizer
		)
		if cfg.EnableAI {
			engine, err := ai.NewEngine(&ai.Config{Logger: logger})
			if err != nil {
				return fmt.Errorf("failed to create AI engine: %w", err)
			}
			anz = engine
			syn = engine
			logger.Info("AI analysis enabled", "model", ai.GetModel())
		} else {
			h, err := analyzer.NewHeuristic(cfg.WorkspaceRoot, logger)
			if err != nil {
				return fmt.Errorf("failed to create analyzer: %w", err)
			}
			anz = h
			syn = synthesizer.NewTemplate(logger)
		}

		fs, err := executor.NewOSFileSystem(cfg.WorkspaceRoot)
		if err != nil {
			return fmt.Errorf("failed to open workspace %s: %w", cfg.WorkspaceRoot, err)
		}

		outbox, err := review.NewOutbox(filepath.Join(filepath.Dir(cfg.StorePath), "reviews"), logger)
		if err != nil {
			return err
		}

		exec, err := executor.New(&executor.Config{
			FileSystem: fs,
			Router:     outbox,
			Store:      st,
			Logger:     logger,
		})
		if err != nil {
			return err
		}

		orch, err := mission.NewOrchestrator(&mission.Config{
			Store:       st,
			Analyzer:    anz,
			Synthesizer: syn,
			Executor:    exec,
			Thresholds: gate.Thresholds{
				AutoApplyThreshold:      cfg.AutoApplyThreshold,
				HighConfidenceThreshold: cfg.HighConfidenceThreshold,
			},
			Sink:                events.Multi{events.LogSink{Logger: logger}, events.StoreSink{Store: kv, Logger: logger}},
			Logger:              logger,
			CollaboratorTimeout: cfg.CollaboratorTimeout,
		})
		if err != nil {
			return err
		}

		p, err := poller.New(&poller.Config{
			Source:        st,
			Orchestrator:  orch,
			Interval:      cfg.PollInterval,
			MaxConcurrent: cfg.MaxConcurrentMissions,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		if err := p.Start(ctx); err != nil {
			return err
		}
		fmt.Printf("Remedy running (workspace %s, store %s). Press Ctrl+C to stop.\n",
			cfg.WorkspaceRoot, cfg.StorePath)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		fmt.Println("\nShutting down...")
		if err := p.Stop(ctx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		fmt.Println("Stopped.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
