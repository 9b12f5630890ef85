package store

import (
	"context"

	sharederrors "github.com/devmemory/learning-engine/pkg/shared/errors"
)

// RecordOutcome appends an immutable outcome observation for a pattern
// within a project. Outcomes are never updated in place; the correlation
// computed from them is the mutable summary.
func (p *Pool) RecordOutcome(ctx context.Context, projectID, patternID int64, outcomeType OutcomeType, value float64, description string, metrics JSONMap) (int64, error) {
	var id int64
	err := p.pool.QueryRow(ctx, `
		INSERT INTO pattern_outcomes
			(project_id, pattern_id, outcome_type, outcome_value, description, metrics, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING id
	`, projectID, patternID, string(outcomeType), value, description, metrics).Scan(&id)
	if err != nil {
		return 0, sharederrors.WithKind(sharederrors.ErrStore, "record outcome", err)
	}
	return id, nil
}

// OutcomesForPattern returns every recorded outcome for a pattern, oldest
// first, for the correlator to fold over.
func (p *Pool) OutcomesForPattern(ctx context.Context, patternID int64) ([]PatternOutcome, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, project_id, pattern_id, outcome_type, outcome_value, description, metrics, recorded_at
		FROM pattern_outcomes
		WHERE pattern_id = $1
		ORDER BY recorded_at ASC
	`, patternID)
	if err != nil {
		return nil, sharederrors.WithKind(sharederrors.ErrStore, "list pattern outcomes", err)
	}
	defer rows.Close()

	var outcomes []PatternOutcome
	for rows.Next() {
		var o PatternOutcome
		if err := rows.Scan(&o.ID, &o.ProjectID, &o.PatternID, &o.OutcomeType, &o.OutcomeValue,
			&o.Description, &o.Metrics, &o.RecordedAt); err != nil {
			return nil, sharederrors.WithKind(sharederrors.ErrStore, "scan pattern outcome", err)
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

// PatternsNeedingCorrelation returns pattern IDs with at least minOutcomes
// recorded outcomes and no correlation row newer than their latest outcome,
// for the correlator's scheduled sweep.
func (p *Pool) PatternsNeedingCorrelation(ctx context.Context, minOutcomes int) ([]int64, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT po.pattern_id
		FROM pattern_outcomes po
		LEFT JOIN pattern_correlations pc ON pc.pattern_id = po.pattern_id
		GROUP BY po.pattern_id, pc.updated_at
		HAVING count(*) >= $1 AND (pc.updated_at IS NULL OR max(po.recorded_at) > pc.updated_at)
	`, minOutcomes)
	if err != nil {
		return nil, sharederrors.WithKind(sharederrors.ErrStore, "list patterns needing correlation", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, sharederrors.WithKind(sharederrors.ErrStore, "scan pattern id", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpsertCorrelation writes the single current correlation row for a
// pattern, replacing whatever was there before: correlations are a
// recomputed summary, not a reinforced accumulator.
func (p *Pool) UpsertCorrelation(ctx context.Context, c PatternCorrelation) (int64, error) {
	var id int64
	err := p.pool.QueryRow(ctx, `
		INSERT INTO pattern_correlations
			(pattern_id, correlation_strength, confidence_score, sample_size, analysis_method, insights, metadata, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (pattern_id) DO UPDATE SET
			correlation_strength = $2,
			confidence_score = $3,
			sample_size = $4,
			analysis_method = $5,
			insights = $6,
			metadata = $7,
			updated_at = now()
		RETURNING id
	`, c.PatternID, string(c.CorrelationStrength), c.ConfidenceScore, c.SampleSize,
		string(c.AnalysisMethod), c.Insights, c.Metadata).Scan(&id)
	if err != nil {
		return 0, sharederrors.WithKind(sharederrors.ErrStore, "upsert pattern correlation", err)
	}
	return id, nil
}

// CorrelationForPattern fetches the current correlation row for a pattern,
// if one has been computed.
func (p *Pool) CorrelationForPattern(ctx context.Context, patternID int64) (*PatternCorrelation, error) {
	var c PatternCorrelation
	err := p.pool.QueryRow(ctx, `
		SELECT id, pattern_id, correlation_strength, confidence_score, sample_size, analysis_method,
		       insights, metadata, updated_at
		FROM pattern_correlations WHERE pattern_id = $1
	`, patternID).Scan(&c.ID, &c.PatternID, &c.CorrelationStrength, &c.ConfidenceScore, &c.SampleSize,
		&c.AnalysisMethod, &c.Insights, &c.Metadata, &c.UpdatedAt)
	if err != nil {
		return nil, sharederrors.WithKind(sharederrors.ErrNotFound, "correlation for pattern", err)
	}
	return &c, nil
}
