// Package mission drives one healing mission through its state machine:
// pending -> analyzing -> fixing -> completed|failed. Zero findings
// short-circuit analyzing -> completed as a no-op. Every transition is
// persisted before the next step runs, so a crash mid-mission leaves the
// last durable status for re-polling to pick up.
package mission

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/remedyhq/remedy/internal/events"
	"github.com/remedyhq/remedy/internal/gate"
	"github.com/remedyhq/remedy/internal/synthesizer"
	"github.com/remedyhq/remedy/internal/types"
)

// Analyzer diagnoses an anomaly into findings
type Analyzer interface {
	Analyze(ctx context.Context, anomaly types.Anomaly) ([]types.Finding, error)
}

// FixExecutor carries out the gate's decision for a fix
type FixExecutor interface {
	Execute(ctx context.Context, mission *types.Mission, fix *types.Fix, decision gate.Decision) error
}

// Store persists mission records
type Store interface {
	SaveMission(ctx context.Context, m *types.Mission) error
}

// DefaultCollaboratorTimeout bounds every analyzer/synthesizer/executor
// call; expiry is treated as a failed transition rather than hanging the
// mission forever.
const DefaultCollaboratorTimeout = 2 * time.Minute

// Orchestrator runs missions to a terminal state
type Orchestrator struct {
	store       Store
	analyzer    Analyzer
	synthesizer synthesizer.Synthesizer
	executor    FixExecutor
	thresholds  gate.Thresholds
	sink        events.Sink
	logger      *slog.Logger
	timeout     time.Duration
}

// Config holds orchestrator configuration
type Config struct {
	Store               Store
	Analyzer            Analyzer
	Synthesizer         synthesizer.Synthesizer
	Executor            FixExecutor
	Thresholds          gate.Thresholds // zero value means defaults
	Sink                events.Sink     // optional; nil drops events
	Logger              *slog.Logger
	CollaboratorTimeout time.Duration
}

// NewOrchestrator creates a mission orchestrator
func NewOrchestrator(cfg *Config) (*Orchestrator, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Analyzer == nil {
		return nil, fmt.Errorf("analyzer is required")
	}
	if cfg.Synthesizer == nil {
		return nil, fmt.Errorf("synthesizer is required")
	}
	if cfg.Executor == nil {
		return nil, fmt.Errorf("executor is required")
	}

	th := cfg.Thresholds
	if th.AutoApplyThreshold == 0 && th.HighConfidenceThreshold == 0 {
		th = gate.DefaultThresholds()
	}
	timeout := cfg.CollaboratorTimeout
	if timeout == 0 {
		timeout = DefaultCollaboratorTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		store:       cfg.Store,
		analyzer:    cfg.Analyzer,
		synthesizer: cfg.Synthesizer,
		executor:    cfg.Executor,
		thresholds:  th,
		sink:        cfg.Sink,
		logger:      logger,
		timeout:     timeout,
	}, nil
}

// Process runs the full state machine for one mission and returns its
// terminal status. Errors never escape this boundary: every failure path,
// panics included, lands the mission in failed with the status persisted.
// Claim release is the caller's guaranteed-cleanup responsibility.
func (o *Orchestrator) Process(ctx context.Context, key string, m *types.Mission) (status types.MissionStatus) {
	logger := o.logger.With("mission", key, "anomaly", m.Anomaly.ID)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("mission panicked", "panic", r)
			o.fail(ctx, logger, m, fmt.Errorf("panic: %v", r))
			status = types.MissionFailed
		}
	}()

	// pending -> analyzing
	now := time.Now()
	m.StartedAt = &now
	if err := o.transition(ctx, m, types.MissionAnalyzing); err != nil {
		o.fail(ctx, logger, m, err)
		return types.MissionFailed
	}
	logger.Info("mission started", "goal", m.Goal, "priority", m.Priority)

	findings, err := o.analyze(ctx, m)
	if err != nil {
		o.fail(ctx, logger, m, fmt.Errorf("analysis failed: %w", err))
		return types.MissionFailed
	}

	// analyzing -> completed: nothing actionable, no fix produced
	if len(findings) == 0 {
		o.complete(ctx, logger, m, nil, gate.Decision{})
		return types.MissionCompleted
	}

	// analyzing -> fixing
	if err := o.transition(ctx, m, types.MissionFixing); err != nil {
		o.fail(ctx, logger, m, err)
		return types.MissionFailed
	}

	fix, err := o.synthesize(ctx, m, findings)
	if err != nil {
		o.fail(ctx, logger, m, fmt.Errorf("synthesis failed: %w", err))
		return types.MissionFailed
	}

	decision := gate.EvaluateWith(fix, o.thresholds)
	logger.Info("decision gate evaluated",
		"fix", fix.ID,
		"outcome", decision.Outcome,
		"aggregate_confidence", decision.AggregateConfidence,
		"reason", decision.Reason)

	if err := o.execute(ctx, m, fix, decision); err != nil {
		o.fail(ctx, logger, m, fmt.Errorf("execution failed: %w", err))
		return types.MissionFailed
	}

	// fixing -> completed: fix applied or routed for review
	o.complete(ctx, logger, m, fix, decision)
	return types.MissionCompleted
}

// analyze wraps the analyzer collaborator call with the timeout
func (o *Orchestrator) analyze(ctx context.Context, m *types.Mission) ([]types.Finding, error) {
	cctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	return o.analyzer.Analyze(cctx, m.Anomaly)
}

func (o *Orchestrator) synthesize(ctx context.Context, m *types.Mission, findings []types.Finding) (*types.Fix, error) {
	cctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	return o.synthesizer.Synthesize(cctx, m, findings)
}

func (o *Orchestrator) execute(ctx context.Context, m *types.Mission, fix *types.Fix, decision gate.Decision) error {
	cctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	return o.executor.Execute(cctx, m, fix, decision)
}

// transition persists the mission under its new status
func (o *Orchestrator) transition(ctx context.Context, m *types.Mission, to types.MissionStatus) error {
	m.Status = to
	if err := o.store.SaveMission(ctx, m); err != nil {
		return fmt.Errorf("failed to persist %s transition: %w", to, err)
	}
	return nil
}

// complete lands the mission in completed and emits the analytics event.
// fix is nil for no-op completions.
func (o *Orchestrator) complete(ctx context.Context, logger *slog.Logger, m *types.Mission, fix *types.Fix, decision gate.Decision) {
	now := time.Now()
	m.CompletedAt = &now
	if err := o.transition(ctx, m, types.MissionCompleted); err != nil {
		// The work is done; a persist failure here must not undo it.
		// The stale record expires with its TTL.
		logger.Error("failed to persist completed status", "error", err)
	}

	fixID := ""
	confidence := 0.0
	riskLevel := ""
	filesChanged := 0
	autoApplied := false
	if fix != nil {
		fixID = fix.ID
		confidence = decision.AggregateConfidence
		riskLevel = string(fix.RiskAssessment.Level)
		filesChanged = fix.FilesChanged()
		autoApplied = decision.AutoApproved() && fix.Status == types.FixApplied
	}
	o.emit(ctx, events.NewHealingCompleted(m.Key, m.Anomaly.Type, fixID, confidence, riskLevel, filesChanged, autoApplied))
	if autoApplied {
		o.emit(ctx, events.NewFixApplied(m.Key, fixID, filesChanged))
	}

	logger.Info("mission completed", "fix", fixID, "auto_applied", autoApplied)
}

// fail lands the mission in failed with the status persisted before the
// caller releases the claim.
func (o *Orchestrator) fail(ctx context.Context, logger *slog.Logger, m *types.Mission, cause error) {
	logger.Error("mission failed", "error", cause)

	now := time.Now()
	m.CompletedAt = &now
	if err := o.transition(ctx, m, types.MissionFailed); err != nil {
		logger.Error("failed to persist failed status", "error", err)
	}
	o.emit(ctx, events.NewMissionFailed(m.Key, m.Anomaly.Type, cause.Error()))
}

func (o *Orchestrator) emit(ctx context.Context, event events.Event) {
	if o.sink == nil {
		return
	}
	o.sink.Emit(ctx, event)
}
