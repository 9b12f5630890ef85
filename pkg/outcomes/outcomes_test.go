package outcomes

import (
	"testing"

	"github.com/devmemory/learning-engine/pkg/store"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		rate     float64
		n        int
		want     store.CorrelationStrength
		wantConf float64
	}{
		{0.95, 5, store.StrongPositive, 0.9},
		{0.8, 2, store.StrongPositive, 0.8},
		{0.7, 4, store.ModeratePositive, 0.7},
		{0.6, 2, store.ModeratePositive, 0.6},
		{0.5, 3, store.CorrelationNeutral, 0.5},
		{0.4, 3, store.ModerateNegative, 0.65},
		{0.3, 3, store.ModerateNegative, 0.65},
		{0.2, 2, store.StrongNegative, 0.8},
		{0.1, 2, store.StrongNegative, 0.8},
	}
	for _, tt := range tests {
		gotStrength, gotConf := classify(tt.rate, tt.n)
		if gotStrength != tt.want {
			t.Errorf("classify(%v, %d) strength = %v, want %v", tt.rate, tt.n, gotStrength, tt.want)
		}
		if gotConf != tt.wantConf {
			t.Errorf("classify(%v, %d) confidence = %v, want %v", tt.rate, tt.n, gotConf, tt.wantConf)
		}
	}
}

func TestClassifyConfidenceCapped(t *testing.T) {
	_, conf := classify(0.9, 100)
	if conf != 0.9 {
		t.Errorf("classify confidence = %v, want capped at 0.9", conf)
	}
}

func TestOutcomeCounts(t *testing.T) {
	outcomes := []store.PatternOutcome{
		{OutcomeType: store.OutcomeSuccess},
		{OutcomeType: store.OutcomePerformanceGain},
		{OutcomeType: store.OutcomeBug},
		{OutcomeType: store.OutcomeFailure},
		{OutcomeType: store.OutcomeNeutral},
	}
	succ, fail := outcomeCounts(outcomes)
	if succ != 2 || fail != 2 {
		t.Errorf("outcomeCounts() = (%d, %d), want (2, 2)", succ, fail)
	}
}

func TestOutcomeCountsEmpty(t *testing.T) {
	succ, fail := outcomeCounts(nil)
	if succ != 0 || fail != 0 {
		t.Errorf("outcomeCounts(nil) = (%d, %d), want (0, 0)", succ, fail)
	}
}

func TestSignificantEventsMapping(t *testing.T) {
	tests := []struct {
		event string
		want  store.OutcomeType
		ok    bool
	}{
		{"project_completion", store.OutcomeSuccess, true},
		{"bug_report", store.OutcomeBug, true},
		{"major_bug", store.OutcomeFailure, true},
		{"performance_improvement", store.OutcomePerformanceGain, true},
		{"test_failure", store.OutcomeFailure, true},
		{"security_issue", store.OutcomeFailure, true},
		{"deployment_success", store.OutcomeSuccess, true},
		{"refactor_completion", store.OutcomeSuccess, true},
		{"unrecognized_event", "", false},
	}
	for _, tt := range tests {
		got, ok := significantEvents[tt.event]
		if ok != tt.ok {
			t.Errorf("significantEvents[%q] ok = %v, want %v", tt.event, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("significantEvents[%q] = %v, want %v", tt.event, got, tt.want)
		}
	}
}

func TestSignificantCorrelationEvents(t *testing.T) {
	for event := range significantCorrelationEvents {
		if _, ok := significantEvents[event]; !ok {
			t.Errorf("significantCorrelationEvents[%q] has no matching significantEvents entry", event)
		}
	}
	if significantCorrelationEvents["bug_report"] {
		t.Errorf("bug_report should not trigger an immediate correlation sweep")
	}
}
