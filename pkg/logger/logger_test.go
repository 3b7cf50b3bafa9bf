package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func newBufferedLogger(t *testing.T, format string) (*Logger, *bytes.Buffer) {
	t.Helper()
	log, err := NewLogger(&Config{Level: DebugLevel, Format: format, AppName: "SupportMatch", Version: "test"})
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	return log, buf
}

func TestJSONFormatterFields(t *testing.T) {
	log, buf := newBufferedLogger(t, "json")

	log.WithReportID("r-1").WithError(errors.New("boom")).Error("matching failed")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	want := map[string]string{
		"message":   "matching failed",
		"level":     "error",
		"report_id": "r-1",
		"error":     "boom",
		"app":       "SupportMatch",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("entry[%q] = %v, want %q", k, entry[k], v)
		}
	}
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	log, buf := newBufferedLogger(t, "text")

	child := log.WithMatchID("m-1")
	log.Info("parent")
	if strings.Contains(buf.String(), "match_id") {
		t.Errorf("parent logger carries child field: %s", buf.String())
	}

	buf.Reset()
	child.Info("child")
	if !strings.Contains(buf.String(), "match_id=m-1") {
		t.Errorf("child logger missing field: %s", buf.String())
	}
}

func TestWithContext(t *testing.T) {
	log, buf := newBufferedLogger(t, "text")

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-42")
	ctx = context.WithValue(ctx, "user_id", "u-7") //nolint:staticcheck // gin stores plain string keys
	log.WithContext(ctx).Info("hello")

	out := buf.String()
	if !strings.Contains(out, "request_id=req-42") || !strings.Contains(out, "user_id=u-7") {
		t.Errorf("context fields missing: %s", out)
	}
}

func TestLogAPIRequestLevel(t *testing.T) {
	log, buf := newBufferedLogger(t, "json")

	log.LogAPIRequest("POST", "/api/v1/reports", 503, 0, "")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["level"] != "error" {
		t.Errorf("level = %v, want error for 5xx", entry["level"])
	}
	if _, ok := entry["user_id"]; ok {
		t.Error("anonymous request must not carry user_id")
	}
}
