// Package analyzer maps detected anomalies to candidate root-cause findings.
//
// Analysis is a pure function of the anomaly and the current code state:
// the same anomaly fingerprint against the same workspace always yields the
// same findings. Zero findings is a valid outcome meaning nothing actionable
// was identified.
package analyzer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/remedyhq/remedy/internal/types"
)

// Analyzer diagnoses an anomaly into zero or more findings
type Analyzer interface {
	Analyze(ctx context.Context, anomaly types.Anomaly) ([]types.Finding, error)
}

// Fingerprint returns the stable identity of an anomaly used for caching and
// determinism checks.
func Fingerprint(a types.Anomaly) string {
	sum := sha256.Sum256([]byte(a.ID + "|" + a.Type + "|" + a.AffectedEndpoint))
	return hex.EncodeToString(sum[:])
}

// Heuristic is the built-in rule-based analyzer. It inspects the workspace
// for the files an anomaly implicates and emits findings whose confidence
// depends on what it can actually observe on disk.
type Heuristic struct {
	root   string
	cache  *lru.Cache[string, []types.Finding]
	logger *slog.Logger
}

// cacheSize bounds the analysis result cache; repeated polls of the same
// anomaly skip the workspace walk entirely.
const cacheSize = 256

// NewHeuristic creates a rule-based analyzer rooted at the given workspace
func NewHeuristic(root string, logger *slog.Logger) (*Heuristic, error) {
	if root == "" {
		return nil, fmt.Errorf("workspace root is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	cache, err := lru.New[string, []types.Finding](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis cache: %w", err)
	}
	return &Heuristic{root: root, cache: cache, logger: logger}, nil
}

// Analyze diagnoses the anomaly against the workspace
func (h *Heuristic) Analyze(ctx context.Context, anomaly types.Anomaly) ([]types.Finding, error) {
	if anomaly.ID == "" {
		return nil, fmt.Errorf("anomaly id is required")
	}

	fp := Fingerprint(anomaly)
	if findings, ok := h.cache.Get(fp); ok {
		return cloneFindings(findings), nil
	}

	findings := h.diagnose(anomaly)
	h.logger.Info("analysis complete",
		"anomaly", anomaly.ID,
		"type", anomaly.Type,
		"findings", len(findings))

	h.cache.Add(fp, findings)
	return cloneFindings(findings), nil
}

// diagnose applies the rule table for the anomaly type
func (h *Heuristic) diagnose(anomaly types.Anomaly) []types.Finding {
	switch anomaly.Type {
	case "endpoint_failure", "endpoint_error":
		return h.diagnoseEndpoint(anomaly)
	case "import_failure", "module_not_found":
		return []types.Finding{{
			FilePath:     h.endpointPath(anomaly),
			IssueType:    types.IssueImportError,
			Description:  fmt.Sprintf("unresolved import reported for %s", anomaly.AffectedEndpoint),
			SuggestedFix: "restore the missing import path",
			Confidence:   88,
			RiskLevel:    types.RiskLow,
		}}
	case "syntax_failure", "parse_error":
		return []types.Finding{{
			FilePath:    h.endpointPath(anomaly),
			IssueType:   types.IssueSyntaxError,
			Description: fmt.Sprintf("source for %s no longer parses", anomaly.AffectedEndpoint),
			Confidence:  92,
			RiskLevel:   types.RiskLow,
		}}
	case "type_failure":
		return []types.Finding{{
			FilePath:    h.endpointPath(anomaly),
			IssueType:   types.IssueTypeError,
			Description: fmt.Sprintf("type mismatch detected around %s", anomaly.AffectedEndpoint),
			Confidence:  85,
			RiskLevel:   types.RiskMedium,
		}}
	}
	// Unknown anomaly type: nothing actionable. The mission completes as
	// a no-op rather than guessing.
	return nil
}

// diagnoseEndpoint checks whether the handler file an endpoint maps to is
// present, and reports either a missing file or a probable logic error.
func (h *Heuristic) diagnoseEndpoint(anomaly types.Anomaly) []types.Finding {
	path := h.endpointPath(anomaly)
	abs := filepath.Join(h.root, filepath.FromSlash(path))

	if _, err := os.Stat(abs); os.IsNotExist(err) {
		return []types.Finding{{
			FilePath:     path,
			IssueType:    types.IssueMissingFile,
			Description:  fmt.Sprintf("handler for %s does not exist", anomaly.AffectedEndpoint),
			SuggestedFix: fmt.Sprintf("create %s with a handler stub", path),
			Confidence:   95,
			RiskLevel:    types.RiskLow,
		}}
	}

	return []types.Finding{{
		FilePath:     path,
		IssueType:    types.IssueLogicError,
		Description:  fmt.Sprintf("handler for %s exists but the endpoint is failing", anomaly.AffectedEndpoint),
		SuggestedFix: "review recent changes to the handler",
		Confidence:   70,
		RiskLevel:    types.RiskMedium,
	}}
}

// endpointPath maps an affected endpoint to its conventional handler path,
// e.g. /api/users -> api/users.go. Anomalies without an endpoint map to a
// stable placeholder so findings stay deterministic.
func (h *Heuristic) endpointPath(anomaly types.Anomaly) string {
	endpoint := strings.Trim(anomaly.AffectedEndpoint, "/")
	if endpoint == "" {
		return filepath.ToSlash(filepath.Join("unknown", anomaly.ID+".go"))
	}
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '/', r == '_', r == '-':
			return r
		}
		return '_'
	}, endpoint)
	return clean + ".go"
}

func cloneFindings(findings []types.Finding) []types.Finding {
	if findings == nil {
		return nil
	}
	out := make([]types.Finding, len(findings))
	copy(out, findings)
	return out
}
