package stream

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishJSON(t *testing.T) {
	writer := &recordingWriter{}
	producer := NewProducerWithWriter(writer, "match-events")

	event := map[string]string{"type": "match.created", "match_id": "m1"}
	if err := producer.PublishJSON(context.Background(), "svc-1", event, map[string]string{"event_type": "match.created"}); err != nil {
		t.Fatalf("PublishJSON() error = %v", err)
	}

	if len(writer.messages) != 1 {
		t.Fatalf("wrote %d messages, want 1", len(writer.messages))
	}
	msg := writer.messages[0]
	if string(msg.Key) != "svc-1" {
		t.Errorf("key = %q, want svc-1", msg.Key)
	}

	var decoded map[string]string
	if err := json.Unmarshal(msg.Value, &decoded); err != nil || decoded["match_id"] != "m1" {
		t.Errorf("value = %s (err %v)", msg.Value, err)
	}
	if len(msg.Headers) != 1 || msg.Headers[0].Key != "event_type" {
		t.Errorf("headers = %+v", msg.Headers)
	}

	if err := producer.Close(); err != nil || !writer.closed {
		t.Error("Close() did not close writer")
	}
}

func TestPublishJSONWriteError(t *testing.T) {
	producer := NewProducerWithWriter(&recordingWriter{err: errors.New("broker down")}, "match-events")
	if err := producer.PublishJSON(context.Background(), "k", 1, nil); err == nil {
		t.Fatal("PublishJSON() expected error")
	}
}
