// Package ai provides the LLM-backed analysis and synthesis engine. It is
// optional: the pipeline runs on the heuristic analyzer and template
// synthesizer unless an API key is configured.
package ai

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/remedyhq/remedy/internal/types"
)

// ModelDefault is the model for analysis and synthesis
const ModelDefault = "claude-sonnet-4-5-20250929"

// GetModel returns the configured model, honoring the REMEDY_MODEL env var
func GetModel() string {
	if model := os.Getenv("REMEDY_MODEL"); model != "" {
		return model
	}
	return ModelDefault
}

// Engine calls the Anthropic API to diagnose anomalies and synthesize
// fixes. Calls are bounded by a concurrency semaphore and a rate limiter so
// a burst of missions cannot stampede the API.
type Engine struct {
	client  *anthropic.Client
	model   string
	sem     *semaphore.Weighted
	limiter *rate.Limiter
	logger  *slog.Logger
}

// Config holds engine configuration
type Config struct {
	APIKey             string // if empty, reads ANTHROPIC_API_KEY
	Model              string // default: GetModel()
	MaxConcurrentCalls int    // default 2
	CallsPerMinute     int    // default 30
	Logger             *slog.Logger
}

// NewEngine creates an LLM engine
func NewEngine(cfg *Config) (*Engine, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
	}

	model := cfg.Model
	if model == "" {
		model = GetModel()
	}
	maxConcurrent := cfg.MaxConcurrentCalls
	if maxConcurrent == 0 {
		maxConcurrent = 2
	}
	callsPerMinute := cfg.CallsPerMinute
	if callsPerMinute == 0 {
		callsPerMinute = 30
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Engine{
		client:  &client,
		model:   model,
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		limiter: rate.NewLimiter(rate.Limit(float64(callsPerMinute)/60.0), callsPerMinute),
		logger:  logger,
	}, nil
}

// call makes one bounded API call and returns the concatenated text blocks
func (e *Engine) call(ctx context.Context, prompt string) (string, error) {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("failed to acquire AI call slot: %w", err)
	}
	defer e.sem.Release(1)

	if err := e.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter interrupted: %w", err)
	}

	start := time.Now()
	resp, err := e.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(e.model),
		MaxTokens: 4096,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call failed: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	e.logger.Debug("AI call complete",
		"model", e.model,
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"duration", time.Since(start))
	return text, nil
}

// Analyze diagnoses an anomaly into findings using the LLM
func (e *Engine) Analyze(ctx context.Context, anomaly types.Anomaly) ([]types.Finding, error) {
	text, err := e.call(ctx, analysisPrompt(anomaly))
	if err != nil {
		return nil, err
	}
	findings, err := parseFindings(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse analysis response: %w", err)
	}
	for i := range findings {
		if err := findings[i].Validate(); err != nil {
			return nil, fmt.Errorf("analysis produced invalid finding %d: %w", i, err)
		}
	}
	return findings, nil
}

// Synthesize builds a fix from findings using the LLM
func (e *Engine) Synthesize(ctx context.Context, mission *types.Mission, findings []types.Finding) (*types.Fix, error) {
	if len(findings) == 0 {
		return nil, fmt.Errorf("cannot synthesize a fix from zero findings")
	}

	text, err := e.call(ctx, synthesisPrompt(mission, findings))
	if err != nil {
		return nil, err
	}
	draft, err := parseFixDraft(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse synthesis response: %w", err)
	}

	level := types.RiskLow
	for _, f := range findings {
		level = types.MaxRisk(level, f.RiskLevel)
	}
	// The model may argue for a higher level than the findings imply,
	// never a lower one.
	if draft.RiskLevel.IsValid() {
		level = types.MaxRisk(level, draft.RiskLevel)
	}

	fix := &types.Fix{
		ID:         uuid.New().String(),
		MissionRef: mission.Anomaly.ID,
		Findings:   make([]types.Finding, len(findings)),
		Changes:    draft.Changes,
		TestPlan:   draft.TestPlan,
		RiskAssessment: types.RiskAssessment{
			Level:       level,
			Concerns:    draft.Concerns,
			Mitigations: draft.Mitigations,
		},
		Status:    types.FixGenerated,
		CreatedAt: time.Now(),
	}
	copy(fix.Findings, findings)

	if len(fix.Changes) > 0 && len(fix.TestPlan) == 0 {
		fix.TestPlan = []string{"run the project test suite"}
	}
	if err := fix.Validate(); err != nil {
		return nil, fmt.Errorf("synthesized fix is invalid: %w", err)
	}
	return fix, nil
}
