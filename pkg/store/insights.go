package store

import (
	"context"

	"github.com/pgvector/pgvector-go"

	sharederrors "github.com/devmemory/learning-engine/pkg/shared/errors"
)

// NewInsight is the write side of a meta-insight produced by one of the
// synthesizer's six generators, before it's known whether it reinforces an
// existing title or creates a new row.
type NewInsight struct {
	Type               InsightType
	Category           string
	Title              string
	Description        string
	ConfidenceLevel    float64
	EvidenceStrength   float64
	ProjectsInvolved   []string
	SupportingPatterns []int64
	Metadata           JSONMap
	Actionable         bool
	Priority           InsightPriority
	Embedding          []float32
}

// UpsertInsight implements spec §4.5's reinforcement rule keyed by
// insight_title: on conflict, evidence_strength takes the max of old and
// new, confidence_level averages, metadata merges (new keys win), projects
// and supporting patterns union, last_reinforced bumps; otherwise a new row
// is inserted. It returns the resulting row so callers can act on exactly
// the insight touched by this call, not the whole historical table.
func (p *Pool) UpsertInsight(ctx context.Context, ni NewInsight) (MetaInsight, error) {
	var vec *pgvector.Vector
	if len(ni.Embedding) > 0 {
		v := pgvector.NewVector(ni.Embedding)
		vec = &v
	}

	var out MetaInsight
	err := p.pool.QueryRow(ctx, `
		INSERT INTO meta_insights
			(insight_type, insight_category, insight_title, description, confidence_level,
			 evidence_strength, projects_involved, supporting_patterns, metadata, actionable,
			 priority, insight_embedding, created_at, last_reinforced)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now(), now())
		ON CONFLICT (insight_title) DO UPDATE SET
			description = $4,
			confidence_level = (meta_insights.confidence_level + $5) / 2.0,
			evidence_strength = GREATEST(meta_insights.evidence_strength, $6),
			projects_involved = (
				SELECT array_agg(DISTINCT x) FROM unnest(meta_insights.projects_involved || $7) AS x
			),
			supporting_patterns = (
				SELECT array_agg(DISTINCT x) FROM unnest(meta_insights.supporting_patterns || $8) AS x
			),
			metadata = meta_insights.metadata || $9,
			actionable = $10,
			priority = $11,
			last_reinforced = now()
		RETURNING id, insight_type, insight_category, insight_title, description, confidence_level,
		          evidence_strength, projects_involved, supporting_patterns, metadata, actionable,
		          priority, created_at, last_reinforced
	`, string(ni.Type), ni.Category, ni.Title, ni.Description, ni.ConfidenceLevel,
		ni.EvidenceStrength, ni.ProjectsInvolved, ni.SupportingPatterns, ni.Metadata, ni.Actionable,
		string(ni.Priority), vec,
	).Scan(&out.ID, &out.InsightType, &out.InsightCategory, &out.InsightTitle, &out.Description,
		&out.ConfidenceLevel, &out.EvidenceStrength, &out.ProjectsInvolved, &out.SupportingPatterns,
		&out.Metadata, &out.Actionable, &out.Priority, &out.CreatedAt, &out.LastReinforced)
	if err != nil {
		return MetaInsight{}, sharederrors.WithKind(sharederrors.ErrStore, "upsert meta insight", err)
	}
	return out, nil
}

// InsightFilter bounds the get_insights tool query.
type InsightFilter struct {
	Type          InsightType
	Category      string
	MinPriority   InsightPriority
	MinConfidence float64
	Actionable    *bool
	Limit         int
}

// ListInsights returns insights matching filter, highest-evidence first.
func (p *Pool) ListInsights(ctx context.Context, filter InsightFilter) ([]MetaInsight, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 15
	}

	rows, err := p.pool.Query(ctx, `
		SELECT id, insight_type, insight_category, insight_title, description, confidence_level,
		       evidence_strength, projects_involved, supporting_patterns, metadata, actionable,
		       priority, created_at, last_reinforced
		FROM meta_insights
		WHERE ($1 = '' OR insight_type = $1)
		  AND ($2 = '' OR insight_category = $2)
		  AND ($3 = '' OR priority = $3)
		  AND confidence_level >= $4
		  AND ($5::bool IS NULL OR actionable = $5)
		ORDER BY evidence_strength DESC, confidence_level DESC
		LIMIT $6
	`, string(filter.Type), filter.Category, string(filter.MinPriority), filter.MinConfidence, filter.Actionable, limit)
	if err != nil {
		return nil, sharederrors.WithKind(sharederrors.ErrStore, "list insights", err)
	}
	defer rows.Close()

	var insights []MetaInsight
	for rows.Next() {
		var ins MetaInsight
		if err := rows.Scan(&ins.ID, &ins.InsightType, &ins.InsightCategory, &ins.InsightTitle,
			&ins.Description, &ins.ConfidenceLevel, &ins.EvidenceStrength, &ins.ProjectsInvolved,
			&ins.SupportingPatterns, &ins.Metadata, &ins.Actionable, &ins.Priority,
			&ins.CreatedAt, &ins.LastReinforced); err != nil {
			return nil, sharederrors.WithKind(sharederrors.ErrStore, "scan insight", err)
		}
		insights = append(insights, ins)
	}
	return insights, rows.Err()
}

// GetInsightByTitle fetches a single insight by its upsert key.
func (p *Pool) GetInsightByTitle(ctx context.Context, title string) (*MetaInsight, error) {
	var ins MetaInsight
	err := p.pool.QueryRow(ctx, `
		SELECT id, insight_type, insight_category, insight_title, description, confidence_level,
		       evidence_strength, projects_involved, supporting_patterns, metadata, actionable,
		       priority, created_at, last_reinforced
		FROM meta_insights WHERE insight_title = $1
	`, title).Scan(&ins.ID, &ins.InsightType, &ins.InsightCategory, &ins.InsightTitle,
		&ins.Description, &ins.ConfidenceLevel, &ins.EvidenceStrength, &ins.ProjectsInvolved,
		&ins.SupportingPatterns, &ins.Metadata, &ins.Actionable, &ins.Priority,
		&ins.CreatedAt, &ins.LastReinforced)
	if err != nil {
		return nil, sharederrors.WithKind(sharederrors.ErrNotFound, "insight title "+title, err)
	}
	return &ins, nil
}
