// Package events defines the analytics events the pipeline produces and the
// sink boundary the external analytics collaborator implements.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// EventType identifies the kind of analytics event
type EventType string

const (
	// EventHealingCompleted is emitted when a mission reaches completed
	EventHealingCompleted EventType = "autonomous_healing_completed"
	// EventMissionFailed is emitted when a mission reaches failed
	EventMissionFailed EventType = "mission_failed"
	// EventFixApplied is emitted when a fix's changes are applied
	EventFixApplied EventType = "fix_applied"
)

// Event is one analytics record
type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"event"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// Sink consumes analytics events. Emission failures are the sink's problem
// to log; the pipeline treats Emit as best-effort.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// NewHealingCompleted builds the completion event with the fields the
// analytics contract requires.
func NewHealingCompleted(missionID, anomalyType, fixID string, confidence float64, riskLevel string, filesChanged int, autoApplied bool) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      EventHealingCompleted,
		Timestamp: time.Now(),
		Data: map[string]any{
			"missionId":    missionID,
			"anomalyType":  anomalyType,
			"fixId":        fixID,
			"confidence":   confidence,
			"riskLevel":    riskLevel,
			"filesChanged": filesChanged,
			"autoApplied":  autoApplied,
		},
	}
}

// NewMissionFailed builds the failure event
func NewMissionFailed(missionID, anomalyType, reason string) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      EventMissionFailed,
		Timestamp: time.Now(),
		Data: map[string]any{
			"missionId":   missionID,
			"anomalyType": anomalyType,
			"reason":      reason,
		},
	}
}

// NewFixApplied builds the fix-applied event
func NewFixApplied(missionID, fixID string, filesChanged int) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      EventFixApplied,
		Timestamp: time.Now(),
		Data: map[string]any{
			"missionId":    missionID,
			"fixId":        fixID,
			"filesChanged": filesChanged,
		},
	}
}

// LogSink writes events to a structured logger
type LogSink struct {
	Logger *slog.Logger
}

// Emit logs the event at info level
func (s LogSink) Emit(ctx context.Context, event Event) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "analytics event", "event", event.Type, "id", event.ID, "data", event.Data)
}

// KV is the subset of the store the audit sink writes through
type KV interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// EventPrefix namespaces audit copies of analytics events in the store
const EventPrefix = "healing_event:"

// EventTTL matches the fix audit retention window
const EventTTL = 7 * 24 * time.Hour

// StoreSink persists an audit copy of each event in the shared store
type StoreSink struct {
	Store  KV
	Logger *slog.Logger
}

// Emit writes the event under its id; failures are logged and swallowed
func (s StoreSink) Emit(ctx context.Context, event Event) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	data, err := json.Marshal(event)
	if err != nil {
		logger.ErrorContext(ctx, "failed to marshal analytics event", "event", event.Type, "error", err)
		return
	}
	key := fmt.Sprintf("%s%s", EventPrefix, event.ID)
	if err := s.Store.Set(ctx, key, data, EventTTL); err != nil {
		logger.ErrorContext(ctx, "failed to persist analytics event", "event", event.Type, "error", err)
	}
}

// Multi fans an event out to several sinks
type Multi []Sink

// Emit sends the event to every sink
func (m Multi) Emit(ctx context.Context, event Event) {
	for _, sink := range m {
		sink.Emit(ctx, event)
	}
}
