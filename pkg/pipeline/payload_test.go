package pipeline

import (
	"testing"

	"github.com/devmemory/learning-engine/pkg/store"
)

func TestPayloadInt64(t *testing.T) {
	cases := []struct {
		name    string
		payload store.JSONMap
		key     string
		want    int64
		wantOK  bool
	}{
		{"int64 value", store.JSONMap{"memory_id": int64(42)}, "memory_id", 42, true},
		{"int value", store.JSONMap{"memory_id": 42}, "memory_id", 42, true},
		{"float64 value (jsonb round-trip)", store.JSONMap{"memory_id": float64(42)}, "memory_id", 42, true},
		{"missing key", store.JSONMap{}, "memory_id", 0, false},
		{"wrong type", store.JSONMap{"memory_id": "42"}, "memory_id", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := payloadInt64(tc.payload, tc.key)
			if got != tc.want || ok != tc.wantOK {
				t.Errorf("payloadInt64(%v, %q) = (%d, %v), want (%d, %v)", tc.payload, tc.key, got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestPayloadString(t *testing.T) {
	payload := store.JSONMap{"project_name": "acme"}
	if got := payloadString(payload, "project_name"); got != "acme" {
		t.Errorf("payloadString = %q, want acme", got)
	}
	if got := payloadString(payload, "missing"); got != "" {
		t.Errorf("payloadString(missing) = %q, want empty", got)
	}
	if got := payloadString(store.JSONMap{"n": 5}, "n"); got != "" {
		t.Errorf("payloadString(non-string) = %q, want empty", got)
	}
}
