package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/remedyhq/remedy/internal/types"
)

// Key prefixes and retention windows for pipeline records. Mission records
// are refreshed to a 1 hour TTL on every write; fix records are kept 7 days
// for audit.
const (
	MissionPrefix = "healing_mission:"
	FixPrefix     = "autonomous_fix:"

	MissionTTL = time.Hour
	FixTTL     = 7 * 24 * time.Hour
)

// Store is the typed mission/fix adapter over a KV backend
type Store struct {
	kv KV
}

// New wraps a KV backend in the typed adapter
func New(kv KV) *Store {
	return &Store{kv: kv}
}

// MissionKey returns the store key for a mission id. Ids that already carry
// the namespace prefix are used as-is.
func MissionKey(id string) string {
	if strings.HasPrefix(id, MissionPrefix) {
		return id
	}
	return MissionPrefix + id
}

// FixKey returns the audit key for a fix id
func FixKey(id string) string {
	if strings.HasPrefix(id, FixPrefix) {
		return id
	}
	return FixPrefix + id
}

// SaveMission persists a mission record, refreshing its TTL
func (s *Store) SaveMission(ctx context.Context, m *types.Mission) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal mission %s: %w", m.Key, err)
	}
	if err := s.kv.Set(ctx, MissionKey(m.Key), data, MissionTTL); err != nil {
		return fmt.Errorf("failed to save mission %s: %w", m.Key, err)
	}
	return nil
}

// GetMission loads a mission record by key; found=false for absent keys
func (s *Store) GetMission(ctx context.Context, key string) (*types.Mission, bool, error) {
	data, found, err := s.kv.Get(ctx, MissionKey(key))
	if err != nil {
		return nil, false, fmt.Errorf("failed to get mission %s: %w", key, err)
	}
	if !found {
		return nil, false, nil
	}
	var m types.Mission
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal mission %s: %w", key, err)
	}
	return &m, true, nil
}

// ListMissionKeys returns all live mission keys
func (s *Store) ListMissionKeys(ctx context.Context) ([]string, error) {
	keys, err := s.kv.ListKeys(ctx, MissionPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list mission keys: %w", err)
	}
	return keys, nil
}

// SaveFix persists a fix audit record
func (s *Store) SaveFix(ctx context.Context, fix *types.Fix) error {
	data, err := json.Marshal(fix)
	if err != nil {
		return fmt.Errorf("failed to marshal fix %s: %w", fix.ID, err)
	}
	if err := s.kv.Set(ctx, FixKey(fix.ID), data, FixTTL); err != nil {
		return fmt.Errorf("failed to save fix %s: %w", fix.ID, err)
	}
	return nil
}

// GetFix loads a fix audit record by id; found=false for absent ids
func (s *Store) GetFix(ctx context.Context, id string) (*types.Fix, bool, error) {
	data, found, err := s.kv.Get(ctx, FixKey(id))
	if err != nil {
		return nil, false, fmt.Errorf("failed to get fix %s: %w", id, err)
	}
	if !found {
		return nil, false, nil
	}
	var fix types.Fix
	if err := json.Unmarshal(data, &fix); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal fix %s: %w", id, err)
	}
	return &fix, true, nil
}

// ListActiveMissions returns all missions that have not reached a terminal
// state, ordered by creation time.
func (s *Store) ListActiveMissions(ctx context.Context) ([]*types.Mission, error) {
	missions, err := s.listMissions(ctx)
	if err != nil {
		return nil, err
	}
	active := missions[:0]
	for _, m := range missions {
		if !m.IsTerminal() {
			active = append(active, m)
		}
	}
	return active, nil
}

// ListRecentFixes returns up to limit fix audit records, newest first
func (s *Store) ListRecentFixes(ctx context.Context, limit int) ([]*types.Fix, error) {
	keys, err := s.kv.ListKeys(ctx, FixPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list fix keys: %w", err)
	}

	var fixes []*types.Fix
	for _, key := range keys {
		data, found, err := s.kv.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to get fix %s: %w", key, err)
		}
		if !found {
			// Expired between list and get
			continue
		}
		var fix types.Fix
		if err := json.Unmarshal(data, &fix); err != nil {
			return nil, fmt.Errorf("failed to unmarshal fix %s: %w", key, err)
		}
		fixes = append(fixes, &fix)
	}

	sort.Slice(fixes, func(i, j int) bool {
		return fixes[i].CreatedAt.After(fixes[j].CreatedAt)
	})
	if limit > 0 && len(fixes) > limit {
		fixes = fixes[:limit]
	}
	return fixes, nil
}

// MissionStats is the read-only aggregate exposed for dashboards and tests
type MissionStats struct {
	Total         int     `json:"total"`
	Completed     int     `json:"completed"`
	Failed        int     `json:"failed"`
	Active        int     `json:"active"`
	AvgConfidence float64 `json:"avg_confidence"`
}

// GetMissionStats aggregates mission counts and the average confidence of
// recorded fixes (mean of per-fix mean finding confidence).
func (s *Store) GetMissionStats(ctx context.Context) (*MissionStats, error) {
	missions, err := s.listMissions(ctx)
	if err != nil {
		return nil, err
	}

	stats := &MissionStats{Total: len(missions)}
	for _, m := range missions {
		switch m.Status {
		case types.MissionCompleted:
			stats.Completed++
		case types.MissionFailed:
			stats.Failed++
		default:
			stats.Active++
		}
	}

	fixes, err := s.ListRecentFixes(ctx, 0)
	if err != nil {
		return nil, err
	}
	if len(fixes) > 0 {
		total := 0.0
		for _, fix := range fixes {
			total += fix.AverageConfidence()
		}
		stats.AvgConfidence = total / float64(len(fixes))
	}

	return stats, nil
}

func (s *Store) listMissions(ctx context.Context) ([]*types.Mission, error) {
	keys, err := s.ListMissionKeys(ctx)
	if err != nil {
		return nil, err
	}

	var missions []*types.Mission
	for _, key := range keys {
		m, found, err := s.GetMission(ctx, key)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		missions = append(missions, m)
	}
	sort.Slice(missions, func(i, j int) bool {
		return missions[i].CreatedAt.Before(missions[j].CreatedAt)
	})
	return missions, nil
}
