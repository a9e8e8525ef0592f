// Package kinesis turns DynamoDB change records delivered over Kinesis into
// store events for the Lambda consumers.
package kinesis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/example/eri-mobile-shop/internal/infrastructure/store"
	log "github.com/sirupsen/logrus"
)

var ErrMissingImage = errors.New("change record has no new image")

// EventHandler receives one decoded store event
type EventHandler func(ctx context.Context, event store.Event) error

// ConvertFromKinesisRecord decodes a record carrying a DynamoDB stream change.
// Anything other than an INSERT yields (nil, nil): the event table is append-only.
func ConvertFromKinesisRecord(record events.KinesisEventRecord) (*store.Event, error) {
	var change events.DynamoDBEventRecord
	if err := json.Unmarshal(record.Kinesis.Data, &change); err != nil {
		return nil, fmt.Errorf("failed to unmarshal DynamoDB record: %w", err)
	}
	return ConvertFromDynamoDBStreamRecord(change)
}

// ConvertFromDynamoDBStreamRecord decodes a DynamoDB stream change directly
func ConvertFromDynamoDBStreamRecord(record events.DynamoDBEventRecord) (*store.Event, error) {
	if record.EventName != "INSERT" {
		return nil, nil
	}
	return eventFromImage(record.Change.NewImage)
}

func eventFromImage(image map[string]events.DynamoDBAttributeValue) (*store.Event, error) {
	if image == nil {
		return nil, ErrMissingImage
	}

	str := func(name string) string {
		if v, ok := image[name]; ok && v.DataType() == events.DataTypeString {
			return v.String()
		}
		return ""
	}

	event := &store.Event{
		ID:            str("id"),
		AggregateID:   str("aggregate_id"),
		AggregateType: str("aggregate_type"),
		EventType:     str("event_type"),
	}
	if event.ID == "" || event.AggregateID == "" || event.EventType == "" {
		return nil, fmt.Errorf("missing required fields: id=%q aggregate_id=%q event_type=%q",
			event.ID, event.AggregateID, event.EventType)
	}

	if data := str("data"); data != "" {
		if !json.Valid([]byte(data)) {
			return nil, fmt.Errorf("event %s: data is not valid JSON", event.ID)
		}
		event.Data = json.RawMessage(data)
	}

	if created := str("created_at"); created != "" {
		t, err := time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		event.Timestamp = t
	}

	if v, ok := image["version"]; ok {
		version, err := v.Integer()
		if err != nil {
			return nil, fmt.Errorf("failed to parse version: %w", err)
		}
		event.Version = int(version)
	}

	return event, nil
}

// Handle passes every decodable INSERT in the batch to handler. Records that
// fail to decode or apply are reported back so Lambda retries only those.
func Handle(ctx context.Context, batch events.KinesisEvent, handler EventHandler) events.KinesisEventResponse {
	var resp events.KinesisEventResponse

	for _, record := range batch.Records {
		event, err := ConvertFromKinesisRecord(record)
		if err == nil && event != nil {
			err = handler(ctx, *event)
		}
		if err != nil {
			log.WithField("record", record.EventID).Errorf("Failed to process record: %v", err)
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.KinesisBatchItemFailure{
				ItemIdentifier: record.Kinesis.SequenceNumber,
			})
		}
	}

	return resp
}
