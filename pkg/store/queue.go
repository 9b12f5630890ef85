package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	sharederrors "github.com/devmemory/learning-engine/pkg/shared/errors"
)

// EnqueueTask inserts a new pending task, optionally scheduled in the
// future via a non-zero delay.
func (p *Pool) EnqueueTask(ctx context.Context, taskType TaskType, priority TaskPriority, payload JSONMap, delay time.Duration, maxRetries int) (int64, error) {
	var id int64
	err := p.pool.QueryRow(ctx, `
		INSERT INTO learning_processing_queue
			(task_type, task_priority, task_payload, status, scheduled_for, retry_count, max_retries, created_at)
		VALUES ($1, $2, $3, 'pending', now() + ($4 * interval '1 second'), 0, $5, now())
		RETURNING id
	`, string(taskType), int(priority), payload, delay.Seconds(), maxRetries).Scan(&id)
	if err != nil {
		return 0, sharederrors.WithKind(sharederrors.ErrStore, "enqueue task", err)
	}
	return id, nil
}

// ClaimTasks claims up to limit due tasks — pending for the first attempt,
// retry once their backoff has elapsed — in priority order using
// SELECT ... FOR UPDATE SKIP LOCKED, transitioning each to processing within
// the same transaction. The caller must commit or rollback tx.
func ClaimTasks(ctx context.Context, tx pgx.Tx, limit int) ([]LearningTask, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, task_type, task_priority, task_payload, status, scheduled_for,
		       started_at, completed_at, retry_count, max_retries, error_message,
		       processing_duration_ms, result_summary, created_at
		FROM learning_processing_queue
		WHERE status IN ('pending', 'retry') AND scheduled_for <= now()
		ORDER BY task_priority ASC, scheduled_for ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, sharederrors.WithKind(sharederrors.ErrStore, "claim tasks", err)
	}
	defer rows.Close()

	var tasks []LearningTask
	for rows.Next() {
		var t LearningTask
		if err := rows.Scan(&t.ID, &t.TaskType, &t.TaskPriority, &t.TaskPayload, &t.Status,
			&t.ScheduledFor, &t.StartedAt, &t.CompletedAt, &t.RetryCount, &t.MaxRetries,
			&t.ErrorMessage, &t.ProcessingDurationMs, &t.ResultSummary, &t.CreatedAt); err != nil {
			return nil, sharederrors.WithKind(sharederrors.ErrStore, "scan claimed task", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, sharederrors.WithKind(sharederrors.ErrStore, "iterate claimed tasks", err)
	}

	ids := make([]int64, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	if len(ids) > 0 {
		if _, err := tx.Exec(ctx, `
			UPDATE learning_processing_queue SET status = 'processing', started_at = now()
			WHERE id = ANY($1)
		`, ids); err != nil {
			return nil, sharederrors.WithKind(sharederrors.ErrStore, "mark tasks processing", err)
		}
		for i := range tasks {
			now := time.Now()
			tasks[i].Status = StatusProcessing
			tasks[i].StartedAt = &now
		}
	}

	return tasks, nil
}

// CompleteTask marks a task completed with the given result summary and
// measured processing duration.
func (p *Pool) CompleteTask(ctx context.Context, taskID int64, summary string, duration time.Duration) error {
	_, err := p.pool.Exec(ctx, `
		UPDATE learning_processing_queue
		SET status = 'completed', completed_at = now(), processing_duration_ms = $2, result_summary = $3
		WHERE id = $1
	`, taskID, duration.Milliseconds(), summary)
	if err != nil {
		return sharederrors.WithKind(sharederrors.ErrStore, "complete task", err)
	}
	return nil
}

// FailOrRetryTask implements the spec §4.7 fail→retry / fail→dead
// transition: retry with exponential backoff (2^retry_count minutes) while
// under max_retries, otherwise permanently fail.
func (p *Pool) FailOrRetryTask(ctx context.Context, task LearningTask, taskErr error) error {
	nextRetry := task.RetryCount + 1
	if nextRetry <= task.MaxRetries {
		backoff := time.Duration(1<<uint(nextRetry)) * time.Minute
		_, err := p.pool.Exec(ctx, `
			UPDATE learning_processing_queue
			SET status = 'retry', retry_count = $2, scheduled_for = now() + ($3 * interval '1 second'), error_message = $4
			WHERE id = $1
		`, task.ID, nextRetry, backoff.Seconds(), taskErr.Error())
		if err != nil {
			return sharederrors.WithKind(sharederrors.ErrStore, "reschedule task", err)
		}
		return nil
	}

	_, err := p.pool.Exec(ctx, `
		UPDATE learning_processing_queue
		SET status = 'failed', completed_at = now(), retry_count = $2, error_message = $3
		WHERE id = $1
	`, task.ID, nextRetry, taskErr.Error())
	if err != nil {
		return sharederrors.WithKind(sharederrors.ErrStore, "fail task", err)
	}
	return nil
}

// SweepStuckTasks resets tasks stuck in processing beyond threshold back to
// retry (spec §4.7 "stuck sweep"), scheduled 5 minutes out.
func (p *Pool) SweepStuckTasks(ctx context.Context, threshold time.Duration) (int64, error) {
	tag, err := p.pool.Exec(ctx, `
		UPDATE learning_processing_queue
		SET status = 'retry', scheduled_for = now() + interval '5 minutes'
		WHERE status = 'processing' AND started_at < now() - ($1 * interval '1 second') AND retry_count < max_retries
	`, threshold.Seconds())
	if err != nil {
		return 0, sharederrors.WithKind(sharederrors.ErrStore, "sweep stuck tasks", err)
	}
	return tag.RowsAffected(), nil
}

// GCCompletedTasks deletes completed tasks older than retention.
func (p *Pool) GCCompletedTasks(ctx context.Context, retention time.Duration) (int64, error) {
	tag, err := p.pool.Exec(ctx, `
		DELETE FROM learning_processing_queue
		WHERE status = 'completed' AND completed_at < now() - ($1 * interval '1 second')
	`, retention.Seconds())
	if err != nil {
		return 0, sharederrors.WithKind(sharederrors.ErrStore, "gc completed tasks", err)
	}
	return tag.RowsAffected(), nil
}

// QueueCounts returns the number of tasks per status, for the pipeline's
// status snapshot.
func (p *Pool) QueueCounts(ctx context.Context) (map[TaskStatus]int, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT status, count(*) FROM learning_processing_queue GROUP BY status
	`)
	if err != nil {
		return nil, sharederrors.WithKind(sharederrors.ErrStore, "count queue by status", err)
	}
	defer rows.Close()

	counts := map[TaskStatus]int{}
	for rows.Next() {
		var status TaskStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, sharederrors.WithKind(sharederrors.ErrStore, "scan queue count", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
