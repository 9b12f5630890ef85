package pipeline

import (
	"testing"

	"github.com/devmemory/learning-engine/pkg/store"
)

func TestTaskMemoryTitle(t *testing.T) {
	cases := []struct {
		insightType store.InsightType
		title       string
		want        string
	}{
		{store.InsightAntipattern, "duplicated retry logic", "Review and fix duplicated retry logic"},
		{store.InsightWarning, "unbounded goroutine growth", "Review and fix unbounded goroutine growth"},
		{store.InsightOptimization, "N+1 query in list handler", "Improve code quality for N+1 query in list handler"},
		{store.InsightBestPractice, "context propagation", "Document context propagation"},
		{store.InsightTrend, "rising test flake rate", "Document rising test flake rate"},
		{store.InsightPreference, "prefers table-driven tests", "Document prefers table-driven tests"},
	}
	for _, tc := range cases {
		ins := store.MetaInsight{InsightType: tc.insightType, InsightTitle: tc.title}
		if got := taskMemoryTitle(ins); got != tc.want {
			t.Errorf("taskMemoryTitle(%s, %q) = %q, want %q", tc.insightType, tc.title, got, tc.want)
		}
	}
}
