package kinesis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/example/eri-mobile-shop/internal/infrastructure/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderPlacedImage(id string) map[string]events.DynamoDBAttributeValue {
	return map[string]events.DynamoDBAttributeValue{
		"id":             events.NewStringAttribute(id),
		"aggregate_id":   events.NewStringAttribute("ORD-1A2B3C4D"),
		"aggregate_type": events.NewStringAttribute("Order"),
		"event_type":     events.NewStringAttribute("OrderPlaced"),
		"data":           events.NewStringAttribute(`{"order_id":"ORD-1A2B3C4D","total":2265}`),
		"created_at":     events.NewStringAttribute("2026-01-15T10:30:00.123456789Z"),
		"version":        events.NewNumberAttribute("1"),
	}
}

func kinesisRecord(t *testing.T, seq, eventName string, image map[string]events.DynamoDBAttributeValue) events.KinesisEventRecord {
	t.Helper()
	data, err := json.Marshal(events.DynamoDBEventRecord{
		EventName: eventName,
		Change:    events.DynamoDBStreamRecord{NewImage: image},
	})
	require.NoError(t, err)
	return events.KinesisEventRecord{
		EventID: "shard-0:" + seq,
		Kinesis: events.KinesisRecord{Data: data, SequenceNumber: seq},
	}
}

func TestEventFromImage(t *testing.T) {
	tests := []struct {
		name    string
		image   map[string]events.DynamoDBAttributeValue
		wantErr bool
	}{
		{name: "valid event", image: orderPlacedImage("event-123")},
		{name: "nil image", image: nil, wantErr: true},
		{
			name:    "missing required fields",
			image:   map[string]events.DynamoDBAttributeValue{"id": events.NewStringAttribute("event-123")},
			wantErr: true,
		},
		{
			name: "bad timestamp",
			image: func() map[string]events.DynamoDBAttributeValue {
				img := orderPlacedImage("event-123")
				img["created_at"] = events.NewStringAttribute("yesterday")
				return img
			}(),
			wantErr: true,
		},
		{
			name: "data not json",
			image: func() map[string]events.DynamoDBAttributeValue {
				img := orderPlacedImage("event-123")
				img["data"] = events.NewStringAttribute("{oops")
				return img
			}(),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := eventFromImage(tt.image)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "event-123", event.ID)
			assert.Equal(t, "ORD-1A2B3C4D", event.AggregateID)
			assert.Equal(t, "Order", event.AggregateType)
			assert.Equal(t, "OrderPlaced", event.EventType)
			assert.Equal(t, 1, event.Version)
			assert.JSONEq(t, `{"order_id":"ORD-1A2B3C4D","total":2265}`, string(event.Data))
			assert.True(t, event.Timestamp.Equal(time.Date(2026, 1, 15, 10, 30, 0, 123456789, time.UTC)))
		})
	}
}

func TestConvertFromDynamoDBStreamRecord_IgnoresNonInserts(t *testing.T) {
	for _, name := range []string{"MODIFY", "REMOVE"} {
		event, err := ConvertFromDynamoDBStreamRecord(events.DynamoDBEventRecord{EventName: name})
		require.NoError(t, err)
		assert.Nil(t, event, name)
	}
}

func TestConvertFromKinesisRecord(t *testing.T) {
	event, err := ConvertFromKinesisRecord(kinesisRecord(t, "1", "INSERT", orderPlacedImage("event-123")))

	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, "event-123", event.ID)
}

func TestHandle_ReportsOnlyFailedRecords(t *testing.T) {
	batch := events.KinesisEvent{Records: []events.KinesisEventRecord{
		kinesisRecord(t, "100", "INSERT", orderPlacedImage("event-1")),
		kinesisRecord(t, "101", "MODIFY", nil),
		{EventID: "shard-0:102", Kinesis: events.KinesisRecord{Data: []byte("invalid json"), SequenceNumber: "102"}},
		kinesisRecord(t, "103", "INSERT", orderPlacedImage("event-poison")),
	}}

	var handled []string
	resp := Handle(context.Background(), batch, func(ctx context.Context, event store.Event) error {
		if event.ID == "event-poison" {
			return errors.New("projection failed")
		}
		handled = append(handled, event.ID)
		return nil
	})

	assert.Equal(t, []string{"event-1"}, handled)
	require.Len(t, resp.BatchItemFailures, 2)
	assert.Equal(t, "102", resp.BatchItemFailures[0].ItemIdentifier)
	assert.Equal(t, "103", resp.BatchItemFailures[1].ItemIdentifier)
}
