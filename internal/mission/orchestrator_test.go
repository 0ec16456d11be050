package mission

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remedyhq/remedy/internal/events"
	"github.com/remedyhq/remedy/internal/executor"
	"github.com/remedyhq/remedy/internal/review"
	"github.com/remedyhq/remedy/internal/store"
	"github.com/remedyhq/remedy/internal/synthesizer"
	"github.com/remedyhq/remedy/internal/types"
)

// stubAnalyzer returns canned findings or an error
type stubAnalyzer struct {
	findings []types.Finding
	err      error
	panics   bool
}

func (s *stubAnalyzer) Analyze(ctx context.Context, anomaly types.Anomaly) ([]types.Finding, error) {
	if s.panics {
		panic("analyzer exploded")
	}
	return s.findings, s.err
}

// captureSink records emitted analytics events
type captureSink struct {
	events []events.Event
}

func (c *captureSink) Emit(ctx context.Context, e events.Event) {
	c.events = append(c.events, e)
}

// captureRouter records review submissions
type captureRouter struct {
	calls int
	body  string
	err   error
}

func (c *captureRouter) SubmitForReview(ctx context.Context, fixID, title, body string) error {
	c.calls++
	c.body = body
	return c.err
}

type fixture struct {
	orch   *Orchestrator
	store  *store.Store
	fs     *executor.MemFileSystem
	router *captureRouter
	sink   *captureSink
}

func newFixture(t *testing.T, an Analyzer, files map[string]string) *fixture {
	t.Helper()
	st := store.New(store.NewMemory())
	fs := executor.NewMemFileSystem(files)
	router := &captureRouter{}
	sink := &captureSink{}
	logger := slog.New(slog.DiscardHandler)

	exec, err := executor.New(&executor.Config{
		FileSystem: fs,
		Router:     router,
		Store:      st,
		Logger:     logger,
	})
	require.NoError(t, err)

	orch, err := NewOrchestrator(&Config{
		Store:       st,
		Analyzer:    an,
		Synthesizer: synthesizer.NewTemplate(logger),
		Executor:    exec,
		Sink:        sink,
		Logger:      logger,
	})
	require.NoError(t, err)

	return &fixture{orch: orch, store: st, fs: fs, router: router, sink: sink}
}

func newMission(key string) *types.Mission {
	return &types.Mission{
		Key:       key,
		Goal:      "restore /api/x",
		Priority:  types.PriorityHigh,
		Anomaly:   types.Anomaly{ID: "anom-" + key, Type: "endpoint_failure", AffectedEndpoint: "/api/x"},
		Status:    types.MissionPending,
		CreatedAt: time.Now(),
	}
}

func TestProcessZeroFindingsCompletesAsNoOp(t *testing.T) {
	f := newFixture(t, &stubAnalyzer{}, nil)
	m := newMission("m-1")

	status := f.orch.Process(context.Background(), m.Key, m)
	assert.Equal(t, types.MissionCompleted, status)
	assert.NotNil(t, m.StartedAt)
	assert.NotNil(t, m.CompletedAt)

	// Persisted record reflects the terminal state
	stored, found, err := f.store.GetMission(context.Background(), m.Key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, types.MissionCompleted, stored.Status)

	// No fix was created
	fixes, err := f.store.ListRecentFixes(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, fixes)

	// Completion event carries no fix id and autoApplied=false
	require.Len(t, f.sink.events, 1)
	e := f.sink.events[0]
	assert.Equal(t, events.EventHealingCompleted, e.Type)
	assert.Equal(t, "", e.Data["fixId"])
	assert.Equal(t, false, e.Data["autoApplied"])
}

func TestProcessAutoApplyPath(t *testing.T) {
	an := &stubAnalyzer{findings: []types.Finding{{
		FilePath:     "api/x.go",
		IssueType:    types.IssueMissingFile,
		Description:  "handler missing",
		SuggestedFix: "package api\n",
		Confidence:   95,
		RiskLevel:    types.RiskLow,
	}}}
	f := newFixture(t, an, nil)
	m := newMission("m-2")

	status := f.orch.Process(context.Background(), m.Key, m)
	assert.Equal(t, types.MissionCompleted, status)
	assert.Equal(t, 0, f.router.calls, "auto-apply must not route for review")

	// The change landed on disk
	content, err := f.fs.Read(context.Background(), "api/x.go")
	require.NoError(t, err)
	assert.Equal(t, "package api\n", content)

	// Fix audit record is applied
	fixes, err := f.store.ListRecentFixes(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, fixes, 1)
	assert.Equal(t, types.FixApplied, fixes[0].Status)

	// healing_completed reports auto application at aggregate 95
	var completed *events.Event
	for i := range f.sink.events {
		if f.sink.events[i].Type == events.EventHealingCompleted {
			completed = &f.sink.events[i]
		}
	}
	require.NotNil(t, completed)
	assert.Equal(t, true, completed.Data["autoApplied"])
	assert.Equal(t, 95.0, completed.Data["confidence"])
}

func TestProcessMediumRiskRoutesForReview(t *testing.T) {
	an := &stubAnalyzer{findings: []types.Finding{{
		FilePath:     "api/x.go",
		IssueType:    types.IssueMissingFile,
		SuggestedFix: "package api\n",
		Confidence:   90,
		RiskLevel:    types.RiskMedium,
	}}}
	f := newFixture(t, an, nil)
	m := newMission("m-3")

	status := f.orch.Process(context.Background(), m.Key, m)
	assert.Equal(t, types.MissionCompleted, status, "review submission still completes the mission")
	assert.Equal(t, 1, f.router.calls)
	assert.Contains(t, f.router.body, "missing_file")

	// Nothing was written to the workspace
	exists, err := f.fs.Exists(context.Background(), "api/x.go")
	require.NoError(t, err)
	assert.False(t, exists)

	// Fix stays generated; aggregate is 90-10=80
	fixes, err := f.store.ListRecentFixes(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, fixes, 1)
	assert.Equal(t, types.FixGenerated, fixes[0].Status)

	require.NotEmpty(t, f.sink.events)
	completed := f.sink.events[len(f.sink.events)-1]
	assert.Equal(t, events.EventHealingCompleted, completed.Type)
	assert.Equal(t, false, completed.Data["autoApplied"])
	assert.Equal(t, 80.0, completed.Data["confidence"])
}

func TestProcessAnalyzerErrorFailsMission(t *testing.T) {
	f := newFixture(t, &stubAnalyzer{err: errors.New("store unavailable")}, nil)
	m := newMission("m-4")

	status := f.orch.Process(context.Background(), m.Key, m)
	assert.Equal(t, types.MissionFailed, status)
	assert.NotNil(t, m.CompletedAt)

	stored, found, err := f.store.GetMission(context.Background(), m.Key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, types.MissionFailed, stored.Status, "terminal state is persisted, never silent")

	require.Len(t, f.sink.events, 1)
	assert.Equal(t, events.EventMissionFailed, f.sink.events[0].Type)
}

func TestProcessExecutionConflictFailsMission(t *testing.T) {
	an := &stubAnalyzer{findings: []types.Finding{{
		FilePath:     "api/x.go",
		IssueType:    types.IssueMissingFile,
		SuggestedFix: "package api\n",
		Confidence:   95,
		RiskLevel:    types.RiskLow,
	}}}
	// The target already exists, so the create conflicts
	f := newFixture(t, an, map[string]string{"api/x.go": "already here"})
	m := newMission("m-5")

	status := f.orch.Process(context.Background(), m.Key, m)
	assert.Equal(t, types.MissionFailed, status)

	// The conflicting file was not overwritten
	content, err := f.fs.Read(context.Background(), "api/x.go")
	require.NoError(t, err)
	assert.Equal(t, "already here", content)

	// The fix audit record shows failed
	fixes, err := f.store.ListRecentFixes(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, fixes, 1)
	assert.Equal(t, types.FixFailed, fixes[0].Status)
}

func TestProcessRecoversFromPanic(t *testing.T) {
	f := newFixture(t, &stubAnalyzer{panics: true}, nil)
	m := newMission("m-6")

	var status types.MissionStatus
	require.NotPanics(t, func() {
		status = f.orch.Process(context.Background(), m.Key, m)
	})
	assert.Equal(t, types.MissionFailed, status)

	stored, found, err := f.store.GetMission(context.Background(), m.Key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, types.MissionFailed, stored.Status)
}

func TestProcessReviewRouterErrorFailsMission(t *testing.T) {
	an := &stubAnalyzer{findings: []types.Finding{{
		FilePath:   "api/x.go",
		IssueType:  types.IssueLogicError,
		Confidence: 60,
		RiskLevel:  types.RiskMedium,
	}}}
	f := newFixture(t, an, nil)
	f.router.err = errors.New("review system down")
	m := newMission("m-7")

	status := f.orch.Process(context.Background(), m.Key, m)
	assert.Equal(t, types.MissionFailed, status)
}

type failingStore struct {
	failAfter int
	calls     int
	inner     Store
}

func (f *failingStore) SaveMission(ctx context.Context, m *types.Mission) error {
	f.calls++
	if f.calls > f.failAfter {
		return errors.New("store write failed")
	}
	return f.inner.SaveMission(ctx, m)
}

func TestProcessPersistFailureOnFirstTransition(t *testing.T) {
	st := store.New(store.NewMemory())
	logger := slog.New(slog.DiscardHandler)
	exec, err := executor.New(&executor.Config{
		FileSystem: executor.NewMemFileSystem(nil),
		Router:     &captureRouter{},
		Store:      st,
		Logger:     logger,
	})
	require.NoError(t, err)

	orch, err := NewOrchestrator(&Config{
		Store:       &failingStore{failAfter: 0, inner: st},
		Analyzer:    &stubAnalyzer{},
		Synthesizer: synthesizer.NewTemplate(logger),
		Executor:    exec,
		Logger:      logger,
	})
	require.NoError(t, err)

	m := newMission("m-8")
	status := orch.Process(context.Background(), m.Key, m)
	assert.Equal(t, types.MissionFailed, status)
}

var _ review.Router = (*captureRouter)(nil)
