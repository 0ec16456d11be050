// Package poller discovers missions awaiting processing and admits them into
// orchestration under a concurrency cap. It runs on a fixed timer; a failed
// poll cycle is logged and the next interval retries.
package poller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/remedyhq/remedy/internal/types"
)

// Defaults for the poll loop
const (
	DefaultInterval              = 10 * time.Second
	DefaultMaxConcurrentMissions = 3
)

// MissionSource lists and loads mission records from the shared store
type MissionSource interface {
	ListMissionKeys(ctx context.Context) ([]string, error)
	GetMission(ctx context.Context, key string) (*types.Mission, bool, error)
}

// Orchestrator runs one mission to a terminal state
type Orchestrator interface {
	Process(ctx context.Context, key string, m *types.Mission) types.MissionStatus
}

// Poller drives the discovery loop
type Poller struct {
	instanceID string
	source     MissionSource
	orch       Orchestrator
	claims     *ClaimTable
	interval   time.Duration
	logger     *slog.Logger

	stopCh chan struct{}
	doneCh chan struct{}

	// missionsWg tracks in-flight orchestrations so Stop can drain them
	missionsWg sync.WaitGroup

	mu      sync.RWMutex
	running bool
}

// Config holds poller configuration
type Config struct {
	Source        MissionSource
	Orchestrator  Orchestrator
	Interval      time.Duration // default 10s
	MaxConcurrent int           // default 3
	Logger        *slog.Logger
}

// New creates a poller
func New(cfg *Config) (*Poller, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("mission source is required")
	}
	if cfg.Orchestrator == nil {
		return nil, fmt.Errorf("orchestrator is required")
	}

	interval := cfg.Interval
	if interval == 0 {
		interval = DefaultInterval
	}
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent == 0 {
		maxConcurrent = DefaultMaxConcurrentMissions
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	instanceID := uuid.New().String()
	return &Poller{
		instanceID: instanceID,
		source:     cfg.Source,
		orch:       cfg.Orchestrator,
		claims:     NewClaimTable(maxConcurrent),
		interval:   interval,
		logger:     logger.With("poller", instanceID[:8]),
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}, nil
}

// InstanceID identifies this poller process in logs and diagnostics
func (p *Poller) InstanceID() string {
	return p.instanceID
}

// Start launches the poll loop. The first cycle runs immediately so freshly
// seeded missions are not stuck waiting a full interval.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("poller is already running")
	}
	p.running = true
	p.mu.Unlock()

	go p.loop(ctx)
	p.logger.Info("poller started", "interval", p.interval)
	return nil
}

// Stop signals shutdown, waits for the loop to exit, and drains all
// in-flight mission orchestrations.
func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return fmt.Errorf("poller is not running")
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
	case <-ctx.Done():
		return ctx.Err()
	}

	// Drain in-flight missions; each runs to its terminal state
	drained := make(chan struct{})
	go func() {
		p.missionsWg.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-ctx.Done():
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	p.logger.Info("poller stopped")
	return nil
}

// IsRunning reports whether the poll loop is active
func (p *Poller) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}

// ActiveMissions returns the number of currently claimed missions
func (p *Poller) ActiveMissions() int {
	return p.claims.Len()
}

func (p *Poller) loop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.pollOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

// pollOnce runs a single discovery cycle. Errors are logged and never
// propagate; the next interval retries.
func (p *Poller) pollOnce(ctx context.Context) {
	if p.claims.Full() {
		p.logger.Debug("skipping poll cycle, concurrency limit reached", "active", p.claims.Len())
		return
	}

	keys, err := p.source.ListMissionKeys(ctx)
	if err != nil {
		p.logger.Error("poll cycle failed to list missions", "error", err)
		return
	}

	for _, key := range keys {
		if p.claims.Full() {
			return
		}
		if p.claims.Has(key) {
			continue
		}

		m, found, err := p.source.GetMission(ctx, key)
		if err != nil {
			p.logger.Error("poll cycle failed to load mission", "mission", key, "error", err)
			continue
		}
		if !found || m.IsTerminal() {
			continue
		}

		// Atomic check-then-insert; a concurrent release between Has and
		// here only makes TryClaim succeed, never double-claims.
		if !p.claims.TryClaim(key) {
			continue
		}
		p.launch(ctx, key, m)
	}
}

// launch runs one mission orchestration in its own goroutine. The claim is
// released in guaranteed cleanup regardless of outcome.
func (p *Poller) launch(ctx context.Context, key string, m *types.Mission) {
	p.missionsWg.Add(1)
	go func() {
		defer p.missionsWg.Done()
		defer p.claims.Release(key)

		status := p.orch.Process(ctx, key, m)
		p.logger.Info("mission finished", "mission", key, "status", status)
	}()
}
