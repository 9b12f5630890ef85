package store

import (
	"context"
	"time"

	sharederrors "github.com/devmemory/learning-engine/pkg/shared/errors"
)

// TaskTypeStat summarizes one recurring task type's recent queue activity,
// for the Pipeline Controller's status snapshot (spec §4.1 "per-task-type
// last-run & next-scheduled & pending count").
type TaskTypeStat struct {
	TaskType      TaskType
	LastRun       *time.Time
	NextScheduled *time.Time
	PendingCount  int
}

// TaskTypeStats returns one row per task_type currently or previously
// present in the queue.
func (p *Pool) TaskTypeStats(ctx context.Context) ([]TaskTypeStat, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT task_type,
		       max(completed_at) FILTER (WHERE status = 'completed') AS last_run,
		       min(scheduled_for) FILTER (WHERE status IN ('pending', 'retry')) AS next_scheduled,
		       count(*) FILTER (WHERE status = 'pending') AS pending_count
		FROM learning_processing_queue
		GROUP BY task_type
	`)
	if err != nil {
		return nil, sharederrors.WithKind(sharederrors.ErrStore, "task type stats", err)
	}
	defer rows.Close()

	var stats []TaskTypeStat
	for rows.Next() {
		var s TaskTypeStat
		if err := rows.Scan(&s.TaskType, &s.LastRun, &s.NextScheduled, &s.PendingCount); err != nil {
			return nil, sharederrors.WithKind(sharederrors.ErrStore, "scan task type stat", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// RecentSuccessFailure returns how many tasks completed vs failed within
// the last 24 hours, for the status snapshot's health classification.
func (p *Pool) RecentSuccessFailure(ctx context.Context) (succeeded, failed int, err error) {
	err = p.pool.QueryRow(ctx, `
		SELECT
			count(*) FILTER (WHERE status = 'completed' AND completed_at > now() - interval '24 hours'),
			count(*) FILTER (WHERE status = 'failed' AND completed_at > now() - interval '24 hours')
		FROM learning_processing_queue
	`).Scan(&succeeded, &failed)
	if err != nil {
		return 0, 0, sharederrors.WithKind(sharederrors.ErrStore, "recent success/failure counts", err)
	}
	return succeeded, failed, nil
}

// PatternSummary aggregates the coding_patterns table for the status
// snapshot: total count, average confidence, and unique projects across all
// patterns' projects_seen sets.
func (p *Pool) PatternSummary(ctx context.Context) (count int, avgConfidence float64, uniqueProjects int, err error) {
	err = p.pool.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM coding_patterns),
			(SELECT coalesce(avg(confidence_score), 0) FROM coding_patterns),
			(SELECT count(DISTINCT proj) FROM coding_patterns, unnest(projects_seen) AS proj)
	`).Scan(&count, &avgConfidence, &uniqueProjects)
	if err != nil {
		return 0, 0, 0, sharederrors.WithKind(sharederrors.ErrStore, "pattern summary", err)
	}
	return count, avgConfidence, uniqueProjects, nil
}

// InsightCountsByType returns the number of meta_insights rows per
// insight_type.
func (p *Pool) InsightCountsByType(ctx context.Context) (map[InsightType]int, error) {
	rows, err := p.pool.Query(ctx, `SELECT insight_type, count(*) FROM meta_insights GROUP BY insight_type`)
	if err != nil {
		return nil, sharederrors.WithKind(sharederrors.ErrStore, "insight counts by type", err)
	}
	defer rows.Close()

	counts := map[InsightType]int{}
	for rows.Next() {
		var t InsightType
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, sharederrors.WithKind(sharederrors.ErrStore, "scan insight count", err)
		}
		counts[t] = n
	}
	return counts, rows.Err()
}

// MemoryCoverage reports how many memories have at least one pattern
// occurrence recorded against them, and the total memory count, for the
// status snapshot's coverage percentage.
func (p *Pool) MemoryCoverage(ctx context.Context) (covered, total int, err error) {
	err = p.pool.QueryRow(ctx, `
		SELECT
			(SELECT count(DISTINCT memory_id) FROM pattern_occurrences),
			(SELECT count(*) FROM memories)
	`).Scan(&covered, &total)
	if err != nil {
		return 0, 0, sharederrors.WithKind(sharederrors.ErrStore, "memory coverage", err)
	}
	return covered, total, nil
}
