package store

import (
	"context"

	"github.com/pgvector/pgvector-go"

	sharederrors "github.com/devmemory/learning-engine/pkg/shared/errors"
	"github.com/devmemory/learning-engine/pkg/shared/mathutil"
)

// UpsertPatternResult reports whether the call created a new pattern row or
// reinforced an existing one, and the pattern's current frequency.
type UpsertPatternResult struct {
	PatternID      int64
	Created        bool
	FrequencyCount int
}

// NewPattern is the write side of a pattern discovered by the extractor,
// before it's known whether it reinforces an existing signature or creates
// a new row.
type NewPattern struct {
	Signature   string
	Category    PatternCategory
	Type        PatternType
	Name        string
	Description string
	Languages   []string
	Example     string
	Confidence  float64
	Metadata    JSONMap
	Embedding   []float32
}

// UpsertPattern implements spec §4.4's reinforce-vs-create rule keyed by
// pattern_signature: on conflict, frequency_count increments, projects_seen
// union-merges, confidence is boosted and clamped, last_reinforced bumps;
// otherwise a new row is inserted.
func (p *Pool) UpsertPattern(ctx context.Context, np NewPattern, projectName string, memoryID int64, confidenceBoost float64) (*UpsertPatternResult, error) {
	var vec *pgvector.Vector
	if len(np.Embedding) > 0 {
		v := pgvector.NewVector(np.Embedding)
		vec = &v
	}

	var result UpsertPatternResult
	err := p.pool.QueryRow(ctx, `
		INSERT INTO coding_patterns
			(pattern_signature, pattern_category, pattern_type, pattern_name, pattern_description,
			 languages, projects_seen, frequency_count, confidence_score, pattern_embedding,
			 example_code, metadata, last_reinforced, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, ARRAY[$7::text], 1, $8, $9, $10, $11, now(), now(), now())
		ON CONFLICT (pattern_signature) DO UPDATE SET
			frequency_count = coding_patterns.frequency_count + 1,
			projects_seen = (
				SELECT array_agg(DISTINCT x) FROM unnest(coding_patterns.projects_seen || ARRAY[$7::text]) AS x
			),
			confidence_score = LEAST(coding_patterns.confidence_score + $12, 1.0),
			metadata = coding_patterns.metadata || $11,
			last_reinforced = now(),
			updated_at = now()
		RETURNING id, frequency_count, (xmax = 0) AS created
	`, np.Signature, string(np.Category), string(np.Type), np.Name, np.Description,
		np.Languages, projectName, mathutil.Clamp(np.Confidence, 0, 1), vec, np.Example, np.Metadata,
		confidenceBoost,
	).Scan(&result.PatternID, &result.FrequencyCount, &result.Created)
	if err != nil {
		return nil, sharederrors.WithKind(sharederrors.ErrStore, "upsert pattern", err)
	}

	if _, err := p.pool.Exec(ctx, `
		INSERT INTO pattern_occurrences (pattern_id, memory_id, project_id, occurred_at)
		SELECT $1, $2, pr.id, now() FROM projects pr WHERE pr.name = $3
	`, result.PatternID, memoryID, projectName); err != nil {
		return nil, sharederrors.WithKind(sharederrors.ErrStore, "record pattern occurrence", err)
	}

	return &result, nil
}

// PatternFilter bounds the get_coding_patterns tool query.
type PatternFilter struct {
	Category      PatternCategory
	Type          PatternType
	Language      string
	MinConfidence float64
	MinFrequency  int
	Limit         int
}

// ListPatterns returns patterns matching filter, most-confident first.
func (p *Pool) ListPatterns(ctx context.Context, filter PatternFilter) ([]CodingPattern, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 15
	}

	rows, err := p.pool.Query(ctx, `
		SELECT id, pattern_signature, pattern_category, pattern_type, pattern_name, pattern_description,
		       languages, projects_seen, frequency_count, confidence_score, example_code, metadata,
		       last_reinforced, created_at, updated_at
		FROM coding_patterns
		WHERE ($1 = '' OR pattern_category = $1)
		  AND ($2 = '' OR pattern_type = $2)
		  AND ($3 = '' OR $3 = ANY(languages))
		  AND confidence_score >= $4
		  AND frequency_count >= $5
		ORDER BY confidence_score DESC, frequency_count DESC
		LIMIT $6
	`, string(filter.Category), string(filter.Type), filter.Language, filter.MinConfidence, filter.MinFrequency, limit)
	if err != nil {
		return nil, sharederrors.WithKind(sharederrors.ErrStore, "list patterns", err)
	}
	defer rows.Close()

	var patterns []CodingPattern
	for rows.Next() {
		var pat CodingPattern
		if err := rows.Scan(&pat.ID, &pat.PatternSignature, &pat.PatternCategory, &pat.PatternType,
			&pat.PatternName, &pat.PatternDesc, &pat.Languages, &pat.ProjectsSeen, &pat.FrequencyCount,
			&pat.ConfidenceScore, &pat.ExampleCode, &pat.Metadata, &pat.LastReinforced,
			&pat.CreatedAt, &pat.UpdatedAt); err != nil {
			return nil, sharederrors.WithKind(sharederrors.ErrStore, "scan pattern", err)
		}
		patterns = append(patterns, pat)
	}
	return patterns, rows.Err()
}

// GetPatternBySignature fetches a single pattern by its upsert key, or nil
// if it doesn't exist.
func (p *Pool) GetPatternBySignature(ctx context.Context, signature string) (*CodingPattern, error) {
	var pat CodingPattern
	err := p.pool.QueryRow(ctx, `
		SELECT id, pattern_signature, pattern_category, pattern_type, pattern_name, pattern_description,
		       languages, projects_seen, frequency_count, confidence_score, example_code, metadata,
		       last_reinforced, created_at, updated_at
		FROM coding_patterns WHERE pattern_signature = $1
	`, signature).Scan(&pat.ID, &pat.PatternSignature, &pat.PatternCategory, &pat.PatternType,
		&pat.PatternName, &pat.PatternDesc, &pat.Languages, &pat.ProjectsSeen, &pat.FrequencyCount,
		&pat.ConfidenceScore, &pat.ExampleCode, &pat.Metadata, &pat.LastReinforced,
		&pat.CreatedAt, &pat.UpdatedAt)
	if err != nil {
		return nil, sharederrors.WithKind(sharederrors.ErrNotFound, "pattern signature "+signature, err)
	}
	return &pat, nil
}

// EvolutionBuckets aggregates pattern_occurrences into monthly counts over
// the last `months` months, for the Evolution insight generator, and
// refreshes learning_evolution with the rollup.
func (p *Pool) EvolutionBuckets(ctx context.Context, patternID int64, months int) ([]LearningEvolution, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT pattern_id, to_char(date_trunc('month', occurred_at), 'YYYY-MM') AS bucket, count(*)
		FROM pattern_occurrences
		WHERE pattern_id = $1 AND occurred_at > now() - ($2 * interval '1 month')
		GROUP BY pattern_id, bucket
		ORDER BY bucket ASC
	`, patternID, months)
	if err != nil {
		return nil, sharederrors.WithKind(sharederrors.ErrStore, "bucket pattern occurrences", err)
	}
	defer rows.Close()

	var buckets []LearningEvolution
	for rows.Next() {
		var b LearningEvolution
		if err := rows.Scan(&b.PatternID, &b.MonthBucket, &b.OccurrenceCount); err != nil {
			return nil, sharederrors.WithKind(sharederrors.ErrStore, "scan evolution bucket", err)
		}
		buckets = append(buckets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, b := range buckets {
		if _, err := p.pool.Exec(ctx, `
			INSERT INTO learning_evolution (pattern_id, month_bucket, occurrence_count)
			VALUES ($1, $2, $3)
			ON CONFLICT (pattern_id, month_bucket) DO UPDATE SET occurrence_count = $3
		`, b.PatternID, b.MonthBucket, b.OccurrenceCount); err != nil {
			return nil, sharederrors.WithKind(sharederrors.ErrStore, "refresh learning_evolution", err)
		}
	}

	return buckets, nil
}

// UpsertTechPreference records/updates a technology mention rollup for a
// project, used by the Tech Preference generator.
func (p *Pool) UpsertTechPreference(ctx context.Context, projectID int64, technology, category string, importance float64) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO tech_preferences (project_id, technology, category, mention_count, avg_importance, last_seen)
		VALUES ($1, $2, $3, 1, $4, now())
		ON CONFLICT (project_id, technology) DO UPDATE SET
			mention_count = tech_preferences.mention_count + 1,
			avg_importance = (tech_preferences.avg_importance * tech_preferences.mention_count + $4)
			                  / (tech_preferences.mention_count + 1),
			last_seen = now()
	`, projectID, technology, category, importance)
	if err != nil {
		return sharederrors.WithKind(sharederrors.ErrStore, "upsert tech preference", err)
	}
	return nil
}

// ListTechPreferences returns a project's recorded technology preferences,
// most-mentioned first.
func (p *Pool) ListTechPreferences(ctx context.Context, projectID int64, minMentions int) ([]TechPreference, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, project_id, technology, category, mention_count, avg_importance, last_seen
		FROM tech_preferences
		WHERE project_id = $1 AND mention_count >= $2
		ORDER BY mention_count DESC
	`, projectID, minMentions)
	if err != nil {
		return nil, sharederrors.WithKind(sharederrors.ErrStore, "list tech preferences", err)
	}
	defer rows.Close()

	var prefs []TechPreference
	for rows.Next() {
		var t TechPreference
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Technology, &t.Category, &t.MentionCount, &t.AvgImportance, &t.LastSeen); err != nil {
			return nil, sharederrors.WithKind(sharederrors.ErrStore, "scan tech preference", err)
		}
		prefs = append(prefs, t)
	}
	return prefs, rows.Err()
}

// RecordDecisionPattern links a design-decision keyword occurrence to the
// pattern it produced within a project.
func (p *Pool) RecordDecisionPattern(ctx context.Context, projectID, patternID int64, keyword string) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO decision_patterns (project_id, decision_keyword, pattern_id, occurrence_count)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (project_id, decision_keyword, pattern_id) DO UPDATE SET
			occurrence_count = decision_patterns.occurrence_count + 1
	`, projectID, keyword, patternID)
	if err != nil {
		return sharederrors.WithKind(sharederrors.ErrStore, "record decision pattern", err)
	}
	return nil
}
