package insights

import (
	"testing"

	"github.com/devmemory/learning-engine/pkg/store"
)

func TestPriorityFor(t *testing.T) {
	tests := []struct {
		confidence float64
		want       store.InsightPriority
	}{
		{0.9, store.PriorityHigh},
		{0.85, store.PriorityHigh},
		{0.7, store.PriorityMedium},
		{0.6, store.PriorityMedium},
		{0.2, store.PriorityLow},
	}
	for _, tt := range tests {
		if got := priorityFor(tt.confidence); got != tt.want {
			t.Errorf("priorityFor(%v) = %v, want %v", tt.confidence, got, tt.want)
		}
	}
}

func TestClamp01(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-0.5, 0}, {0, 0}, {0.5, 0.5}, {1, 1}, {1.5, 1},
	}
	for _, tt := range tests {
		if got := clamp01(tt.in); got != tt.want {
			t.Errorf("clamp01(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMatchTechnologies(t *testing.T) {
	matches := matchTechnologies("We moved the cache layer onto Redis and deploy with Docker and Terraform.")
	names := map[string]bool{}
	for _, m := range matches {
		names[m.name] = true
	}
	for _, want := range []string{"redis", "docker", "terraform"} {
		if !names[want] {
			t.Errorf("expected %q in matches, got %v", want, names)
		}
	}
	if names["kafka"] {
		t.Errorf("did not expect kafka to match, got %v", names)
	}
}

func TestMatchTechnologiesNoMatch(t *testing.T) {
	if matches := matchTechnologies("Nothing interesting here."); len(matches) != 0 {
		t.Errorf("expected no matches, got %v", matches)
	}
}
