package pipeline

import "testing"

func TestClassifyHealth(t *testing.T) {
	cases := []struct {
		rate float64
		want HealthStatus
	}{
		{0, HealthHealthy},
		{0.049, HealthHealthy},
		{0.05, HealthDegraded},
		{0.1, HealthDegraded},
		{0.149, HealthDegraded},
		{0.15, HealthUnhealthy},
		{1, HealthUnhealthy},
	}
	for _, tc := range cases {
		if got := classifyHealth(tc.rate); got != tc.want {
			t.Errorf("classifyHealth(%.3f) = %s, want %s", tc.rate, got, tc.want)
		}
	}
}

func TestErrorRate(t *testing.T) {
	if got := errorRate(0, 0); got != 0 {
		t.Errorf("errorRate(0, 0) = %v, want 0", got)
	}
	if got := errorRate(90, 10); got != 0.1 {
		t.Errorf("errorRate(90, 10) = %v, want 0.1", got)
	}
	if got := errorRate(0, 5); got != 1 {
		t.Errorf("errorRate(0, 5) = %v, want 1", got)
	}
}

func TestCoveragePercent(t *testing.T) {
	if got := coveragePercent(0, 0); got != 100 {
		t.Errorf("coveragePercent(0, 0) = %v, want 100", got)
	}
	if got := coveragePercent(50, 200); got != 25 {
		t.Errorf("coveragePercent(50, 200) = %v, want 25", got)
	}
	if got := coveragePercent(200, 200); got != 100 {
		t.Errorf("coveragePercent(200, 200) = %v, want 100", got)
	}
}
