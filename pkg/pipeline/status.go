package pipeline

import (
	"context"
	"time"

	"github.com/devmemory/learning-engine/pkg/store"
)

// HealthStatus is the pipeline's own assessment of itself, derived from its
// 24-hour task failure rate (spec §4.1 "Status reporting").
type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

const (
	degradedErrorRate  = 0.05
	unhealthyErrorRate = 0.15
)

// TaskTypeStatus is the per-task-type slice of the snapshot.
type TaskTypeStatus struct {
	TaskType      store.TaskType
	LastRun       *time.Time
	NextScheduled *time.Time
	PendingCount  int
}

// Status is the full pipeline snapshot: queue depth by status, pattern and
// insight rollups, per-task-type scheduling state, memory coverage, and a
// recent health classification.
type Status struct {
	QueueCounts map[store.TaskStatus]int
	TaskTypes   []TaskTypeStatus

	PatternCount         int
	PatternAvgConfidence float64
	PatternProjectCount  int

	InsightCountsByType map[store.InsightType]int

	MemoriesCovered int
	MemoriesTotal   int
	CoveragePercent float64

	Succeeded24h int
	Failed24h    int
	ErrorRate24h float64
	Health       HealthStatus
}

// Snapshot aggregates the reporting surface spec §4.1 requires. It issues a
// handful of read-only queries; callers (the /status HTTP handler, health
// checks) are expected to call it on demand rather than cache it themselves.
func (c *Controller) Snapshot(ctx context.Context) (Status, error) {
	var s Status

	counts, err := c.st.QueueCounts(ctx)
	if err != nil {
		return s, err
	}
	s.QueueCounts = counts

	taskStats, err := c.st.TaskTypeStats(ctx)
	if err != nil {
		return s, err
	}
	for _, t := range taskStats {
		s.TaskTypes = append(s.TaskTypes, TaskTypeStatus{
			TaskType:      t.TaskType,
			LastRun:       t.LastRun,
			NextScheduled: t.NextScheduled,
			PendingCount:  t.PendingCount,
		})
	}

	patternCount, avgConfidence, projectCount, err := c.st.PatternSummary(ctx)
	if err != nil {
		return s, err
	}
	s.PatternCount, s.PatternAvgConfidence, s.PatternProjectCount = patternCount, avgConfidence, projectCount

	insightCounts, err := c.st.InsightCountsByType(ctx)
	if err != nil {
		return s, err
	}
	s.InsightCountsByType = insightCounts

	covered, total, err := c.st.MemoryCoverage(ctx)
	if err != nil {
		return s, err
	}
	s.MemoriesCovered, s.MemoriesTotal = covered, total
	s.CoveragePercent = coveragePercent(covered, total)

	succeeded, failed, err := c.st.RecentSuccessFailure(ctx)
	if err != nil {
		return s, err
	}
	s.Succeeded24h, s.Failed24h = succeeded, failed
	s.ErrorRate24h = errorRate(succeeded, failed)
	s.Health = classifyHealth(s.ErrorRate24h)

	return s, nil
}

func coveragePercent(covered, total int) float64 {
	if total == 0 {
		return 100
	}
	return float64(covered) / float64(total) * 100
}

func errorRate(succeeded, failed int) float64 {
	n := succeeded + failed
	if n == 0 {
		return 0
	}
	return float64(failed) / float64(n)
}

func classifyHealth(errRate float64) HealthStatus {
	switch {
	case errRate < degradedErrorRate:
		return HealthHealthy
	case errRate < unhealthyErrorRate:
		return HealthDegraded
	default:
		return HealthUnhealthy
	}
}
