package events

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureKV struct {
	mu   sync.Mutex
	sets map[string][]byte
}

func (c *captureKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sets == nil {
		c.sets = make(map[string][]byte)
	}
	c.sets[key] = value
	return nil
}

func TestNewHealingCompletedPayload(t *testing.T) {
	e := NewHealingCompleted("healing_mission:m-1", "endpoint_failure", "fix-1", 95.0, "low", 2, true)

	assert.Equal(t, EventHealingCompleted, e.Type)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "healing_mission:m-1", e.Data["missionId"])
	assert.Equal(t, "endpoint_failure", e.Data["anomalyType"])
	assert.Equal(t, "fix-1", e.Data["fixId"])
	assert.Equal(t, 95.0, e.Data["confidence"])
	assert.Equal(t, "low", e.Data["riskLevel"])
	assert.Equal(t, 2, e.Data["filesChanged"])
	assert.Equal(t, true, e.Data["autoApplied"])
}

func TestEventIDsUnique(t *testing.T) {
	a := NewMissionFailed("m-1", "endpoint_failure", "boom")
	b := NewMissionFailed("m-1", "endpoint_failure", "boom")
	assert.NotEqual(t, a.ID, b.ID)
}

func TestStoreSinkPersistsEvent(t *testing.T) {
	kv := &captureKV{}
	sink := StoreSink{Store: kv}

	e := NewFixApplied("m-1", "fix-1", 3)
	sink.Emit(context.Background(), e)

	require.Len(t, kv.sets, 1)
	data, ok := kv.sets[EventPrefix+e.ID]
	require.True(t, ok)

	var decoded Event
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, EventFixApplied, decoded.Type)
	assert.Equal(t, "fix-1", decoded.Data["fixId"])
}

func TestMultiFansOut(t *testing.T) {
	kv1, kv2 := &captureKV{}, &captureKV{}
	m := Multi{StoreSink{Store: kv1}, StoreSink{Store: kv2}}

	m.Emit(context.Background(), NewMissionFailed("m-1", "endpoint_failure", "x"))
	assert.Len(t, kv1.sets, 1)
	assert.Len(t, kv2.sets, 1)
}
