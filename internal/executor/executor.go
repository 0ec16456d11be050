// Package executor applies gate-approved fixes to the workspace and routes
// declined fixes to human review.
package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/remedyhq/remedy/internal/gate"
	"github.com/remedyhq/remedy/internal/review"
	"github.com/remedyhq/remedy/internal/types"
)

// FixStore persists fix records for audit
type FixStore interface {
	SaveFix(ctx context.Context, fix *types.Fix) error
}

// Executor performs fix file operations or prepares review artifacts
type Executor struct {
	fs     FileSystem
	router review.Router
	store  FixStore
	logger *slog.Logger
}

// Config holds executor configuration
type Config struct {
	FileSystem FileSystem
	Router     review.Router
	Store      FixStore
	Logger     *slog.Logger
}

// New creates a fix executor
func New(cfg *Config) (*Executor, error) {
	if cfg.FileSystem == nil {
		return nil, fmt.Errorf("filesystem is required")
	}
	if cfg.Router == nil {
		return nil, fmt.Errorf("review router is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("fix store is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		fs:     cfg.FileSystem,
		router: cfg.Router,
		store:  cfg.Store,
		logger: logger,
	}, nil
}

// Execute carries out the gate's decision for a fix. On the auto-apply path
// it applies changes in order, stopping at the first conflict; already
// applied changes are NOT rolled back (that is version control's job). On
// the review path it submits the artifact and leaves the fix in generated
// status for the reviewer to advance.
//
// The fix is persisted for audit in every outcome.
func (e *Executor) Execute(ctx context.Context, mission *types.Mission, fix *types.Fix, decision gate.Decision) error {
	if decision.AutoApproved() {
		return e.apply(ctx, fix)
	}
	return e.submitForReview(ctx, mission, fix, decision)
}

func (e *Executor) apply(ctx context.Context, fix *types.Fix) error {
	for i := range fix.Changes {
		if err := e.applyChange(ctx, &fix.Changes[i]); err != nil {
			fix.Status = types.FixFailed
			if saveErr := e.store.SaveFix(ctx, fix); saveErr != nil {
				e.logger.Error("failed to persist failed fix", "fix", fix.ID, "error", saveErr)
			}
			return fmt.Errorf("change %d (%s %s) failed: %w", i, fix.Changes[i].Operation, fix.Changes[i].Path, err)
		}
		e.logger.Info("change applied", "fix", fix.ID, "op", fix.Changes[i].Operation, "path", fix.Changes[i].Path)
	}

	fix.Status = types.FixApplied
	if err := e.store.SaveFix(ctx, fix); err != nil {
		return fmt.Errorf("fix %s applied but audit record not persisted: %w", fix.ID, err)
	}
	return nil
}

func (e *Executor) applyChange(ctx context.Context, change *types.FileChange) error {
	switch change.Operation {
	case types.OpCreate:
		exists, err := e.fs.Exists(ctx, change.Path)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%s: %w", change.Path, ErrAlreadyExists)
		}
		return e.fs.Write(ctx, change.Path, change.NewContent)

	case types.OpModify:
		current, err := e.fs.Read(ctx, change.Path)
		if err != nil {
			return err
		}
		if current != change.OriginalContent {
			return fmt.Errorf("%s: %w", change.Path, ErrContentMismatch)
		}
		return e.fs.Write(ctx, change.Path, change.NewContent)

	case types.OpDelete:
		return e.fs.Delete(ctx, change.Path)
	}
	return fmt.Errorf("unknown operation %q for %s", change.Operation, change.Path)
}

func (e *Executor) submitForReview(ctx context.Context, mission *types.Mission, fix *types.Fix, decision gate.Decision) error {
	title := review.Title(mission, fix)
	body := review.Body(mission, fix, decision.AggregateConfidence, decision.Reason)

	if err := e.router.SubmitForReview(ctx, fix.ID, title, body); err != nil {
		return fmt.Errorf("failed to submit fix %s for review: %w", fix.ID, err)
	}

	// The fix stays generated; advancing it is the reviewer's call.
	if err := e.store.SaveFix(ctx, fix); err != nil {
		return fmt.Errorf("fix %s routed for review but audit record not persisted: %w", fix.ID, err)
	}

	e.logger.Info("fix routed for review", "fix", fix.ID, "reason", decision.Reason)
	return nil
}
