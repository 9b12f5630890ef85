package logging

import (
	"fmt"
	"testing"
	"time"
)

func TestFieldsChaining(t *testing.T) {
	f := NewFields().
		Component("store").
		Operation("reinforce_pattern").
		Resource("coding_pattern", "pat-123").
		Duration(250 * time.Millisecond).
		Count(3).
		Size(1024).
		Version("v1").
		Custom("confidence", 0.82)

	logrusFields := f.ToLogrus()

	tests := map[string]interface{}{
		"component":     "store",
		"operation":     "reinforce_pattern",
		"resource_type": "coding_pattern",
		"resource_name": "pat-123",
		"duration_ms":   int64(250),
		"count":         3,
		"size_bytes":    int64(1024),
		"version":       "v1",
		"confidence":    0.82,
	}

	for key, want := range tests {
		got, ok := logrusFields[key]
		if !ok {
			t.Errorf("expected field %q to be set", key)
			continue
		}
		if got != want {
			t.Errorf("field %q = %v, want %v", key, got, want)
		}
	}
}

func TestFieldsResourceOmitsEmptyName(t *testing.T) {
	f := NewFields().Resource("table", "")
	if _, ok := f["resource_name"]; ok {
		t.Errorf("expected resource_name to be omitted when empty")
	}
	if f["resource_type"] != "table" {
		t.Errorf("expected resource_type to be set")
	}
}

func TestFieldsErrorNoop(t *testing.T) {
	f := NewFields().Error(nil)
	if _, ok := f["error"]; ok {
		t.Errorf("expected error field to be omitted for nil error")
	}

	f2 := NewFields().Error(fmt.Errorf("dial tcp: connection refused"))
	if f2["error"] != "dial tcp: connection refused" {
		t.Errorf("expected error field to hold error message")
	}
}

func TestFieldsOptionalIdentifiers(t *testing.T) {
	f := NewFields().UserID("").RequestID("req-1").TraceID("trace-1")
	if _, ok := f["user_id"]; ok {
		t.Errorf("expected user_id to be omitted for empty string")
	}
	if f["request_id"] != "req-1" {
		t.Errorf("expected request_id to be set")
	}
	if f["trace_id"] != "trace-1" {
		t.Errorf("expected trace_id to be set")
	}
}

func TestDatabaseFields(t *testing.T) {
	f := DatabaseFields("upsert", "coding_patterns")
	lr := f.ToLogrus()

	if lr["component"] != "database" {
		t.Errorf("component = %v, want database", lr["component"])
	}
	if lr["operation"] != "upsert" {
		t.Errorf("operation = %v, want upsert", lr["operation"])
	}
	if lr["resource_type"] != "table" || lr["resource_name"] != "coding_patterns" {
		t.Errorf("resource fields not set as expected: %v", lr)
	}
}

func TestHTTPFields(t *testing.T) {
	f := HTTPFields("POST", "/v1/memories", 201)
	lr := f.ToLogrus()

	if lr["component"] != "http" || lr["method"] != "POST" || lr["url"] != "/v1/memories" || lr["status_code"] != 201 {
		t.Errorf("unexpected http fields: %v", lr)
	}
}

func TestWorkflowFields(t *testing.T) {
	f := WorkflowFields("extract_patterns", "task-42")
	lr := f.ToLogrus()

	if lr["component"] != "workflow" || lr["operation"] != "extract_patterns" {
		t.Errorf("unexpected workflow fields: %v", lr)
	}
	if lr["resource_type"] != "workflow" || lr["resource_name"] != "task-42" {
		t.Errorf("unexpected workflow resource fields: %v", lr)
	}
}
