package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotDue(t *testing.T) {
	tests := []struct {
		version int
		want    bool
	}{
		{0, false},
		{1, false},
		{9, false},
		{10, true},
		{11, false},
		{20, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SnapshotDue(tt.version), "version %d", tt.version)
	}
}

// ============================================
// In-memory event store
// ============================================

type recordingPublisher struct {
	keys []string
	err  error
}

func (p *recordingPublisher) Publish(ctx context.Context, key string, event any) error {
	p.keys = append(p.keys, key)
	return p.err
}

func TestEventStore_AppendAssignsVersionsAndPublishes(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	es := NewEventStore(pub)

	first, err := es.Append(ctx, "ORD-1", "Order", "OrderPlaced", map[string]int{"total": 2265})
	require.NoError(t, err)
	second, err := es.Append(ctx, "ORD-1", "Order", "OrderStatusChanged", map[string]string{"status": "confirmed"})
	require.NoError(t, err)

	assert.Equal(t, 1, first.Version)
	assert.Equal(t, 2, second.Version)
	assert.Equal(t, []string{"ORD-1", "ORD-1"}, pub.keys)

	events, err := es.GetEventsFromVersion(ctx, "ORD-1", 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "OrderStatusChanged", events[0].EventType)
}

func TestEventStore_PublishFailureKeepsCommittedEvent(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{err: errors.New("broker unreachable")}
	es := NewEventStore(pub)

	event, err := es.Append(ctx, "ORD-1", "Order", "OrderPlaced", map[string]int{"total": 2265})

	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, []string{"ORD-1"}, pub.keys)

	events, err := es.GetEvents(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestEventStore_Snapshots(t *testing.T) {
	ctx := context.Background()
	es := NewEventStore(nil)

	snap, err := es.GetSnapshot(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Nil(t, snap)

	state, _ := json.Marshal(map[string]string{"status": "shipped"})
	require.NoError(t, es.SaveSnapshot(ctx, &Snapshot{AggregateID: "ORD-1", AggregateType: "Order", Version: 10, State: state}))

	snap, err = es.GetSnapshot(ctx, "ORD-1")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 10, snap.Version)
	assert.JSONEq(t, `{"status":"shipped"}`, string(snap.State))
}

// ============================================
// In-memory read store
// ============================================

func TestReadStore_UpdateMissingReturnsFalse(t *testing.T) {
	ctx := context.Background()
	rs := NewReadStore()

	ok, err := rs.Update(ctx, "orders", "missing", func(current any) any { return current })
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, rs.Set(ctx, "orders", "ORD-1", "pending"))
	ok, err = rs.Update(ctx, "orders", "ORD-1", func(current any) any { return "confirmed" })
	require.NoError(t, err)
	assert.True(t, ok)

	v, found, err := rs.Get(ctx, "orders", "ORD-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "confirmed", v)
}

func TestPostgresReadStore_UnknownCollection(t *testing.T) {
	rs := NewPostgresReadStore(nil)
	_, _, err := rs.Get(context.Background(), "carts", "x")
	assert.ErrorIs(t, err, ErrUnknownCollection)
}
