package analyzer

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remedyhq/remedy/internal/types"
)

func newAnalyzer(t *testing.T) (*Heuristic, string) {
	t.Helper()
	root := t.TempDir()
	h, err := NewHeuristic(root, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	return h, root
}

func TestFingerprintStable(t *testing.T) {
	a := types.Anomaly{ID: "anom-1", Type: "endpoint_failure", AffectedEndpoint: "/api/x"}
	b := types.Anomaly{ID: "anom-1", Type: "endpoint_failure", AffectedEndpoint: "/api/x"}
	assert.Equal(t, Fingerprint(a), Fingerprint(b))

	b.AffectedEndpoint = "/api/y"
	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
}

func TestAnalyzeMissingHandler(t *testing.T) {
	h, _ := newAnalyzer(t)

	findings, err := h.Analyze(context.Background(), types.Anomaly{
		ID: "anom-1", Type: "endpoint_failure", AffectedEndpoint: "/api/x",
	})
	require.NoError(t, err)
	require.Len(t, findings, 1)

	f := findings[0]
	assert.Equal(t, types.IssueMissingFile, f.IssueType)
	assert.Equal(t, "api/x.go", f.FilePath)
	assert.Equal(t, 95, f.Confidence)
	assert.Equal(t, types.RiskLow, f.RiskLevel)
	require.NoError(t, f.Validate())
}

func TestAnalyzeExistingHandler(t *testing.T) {
	h, root := newAnalyzer(t)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "api"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "api", "x.go"), []byte("package api\n"), 0644))

	findings, err := h.Analyze(context.Background(), types.Anomaly{
		ID: "anom-2", Type: "endpoint_failure", AffectedEndpoint: "/api/x",
	})
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, types.IssueLogicError, findings[0].IssueType)
	assert.Equal(t, types.RiskMedium, findings[0].RiskLevel)
}

func TestAnalyzeDeterministic(t *testing.T) {
	h, _ := newAnalyzer(t)
	anomaly := types.Anomaly{ID: "anom-3", Type: "import_failure", AffectedEndpoint: "/api/orders"}

	first, err := h.Analyze(context.Background(), anomaly)
	require.NoError(t, err)
	second, err := h.Analyze(context.Background(), anomaly)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAnalyzeCachedResultIsACopy(t *testing.T) {
	h, _ := newAnalyzer(t)
	anomaly := types.Anomaly{ID: "anom-4", Type: "syntax_failure", AffectedEndpoint: "/api/carts"}

	first, err := h.Analyze(context.Background(), anomaly)
	require.NoError(t, err)
	first[0].Confidence = 1 // caller mutation must not poison the cache

	second, err := h.Analyze(context.Background(), anomaly)
	require.NoError(t, err)
	assert.Equal(t, 92, second[0].Confidence)
}

func TestAnalyzeUnknownTypeYieldsNoFindings(t *testing.T) {
	h, _ := newAnalyzer(t)

	findings, err := h.Analyze(context.Background(), types.Anomaly{
		ID: "anom-5", Type: "cosmic_rays",
	})
	require.NoError(t, err)
	assert.Empty(t, findings, "unknown anomaly types are a valid no-op")
}

func TestAnalyzeRequiresAnomalyID(t *testing.T) {
	h, _ := newAnalyzer(t)

	_, err := h.Analyze(context.Background(), types.Anomaly{Type: "endpoint_failure"})
	assert.Error(t, err)
}

func TestEndpointPathSanitized(t *testing.T) {
	h, _ := newAnalyzer(t)

	findings, err := h.Analyze(context.Background(), types.Anomaly{
		ID: "anom-6", Type: "endpoint_failure", AffectedEndpoint: "/api/v1/users?id=1",
	})
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "api/v1/users_id_1.go", findings[0].FilePath)
}
