package store

import (
	"context"

	sharederrors "github.com/devmemory/learning-engine/pkg/shared/errors"
)

// AllMemoriesByTypes fetches memories of any of the given types across all
// projects, created within the last `days` days, for insight generators
// that scan content by regex/keyword rather than by a single project
// (Tech Preference, Team Pattern).
func (p *Pool) AllMemoriesByTypes(ctx context.Context, types []MemoryType, days int) ([]Memory, error) {
	strTypes := make([]string, len(types))
	for i, t := range types {
		strTypes[i] = string(t)
	}

	rows, err := p.pool.Query(ctx, `
		SELECT id, project_id, session_id, content, memory_type, embedding_model,
		       importance_score, tags, created_at, updated_at
		FROM memories
		WHERE memory_type = ANY($1) AND created_at > now() - ($2 * interval '1 day')
		ORDER BY created_at DESC
	`, strTypes, days)
	if err != nil {
		return nil, sharederrors.WithKind(sharederrors.ErrStore, "list memories by types", err)
	}
	defer rows.Close()

	var memories []Memory
	for rows.Next() {
		var m Memory
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.SessionID, &m.Content, &m.MemoryType,
			&m.EmbeddingModel, &m.ImportanceScore, &m.Tags, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, sharederrors.WithKind(sharederrors.ErrStore, "scan memory", err)
		}
		memories = append(memories, m)
	}
	return memories, rows.Err()
}

// ProjectMemoryTypeCounts returns the count of memories per type for a
// project within the last `days` days, plus the total, used by the Team
// Pattern and Quality insight generators.
func (p *Pool) ProjectMemoryTypeCounts(ctx context.Context, projectID int64, days int) (map[MemoryType]int, int, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT memory_type, count(*)
		FROM memories
		WHERE project_id = $1 AND created_at > now() - ($2 * interval '1 day')
		GROUP BY memory_type
	`, projectID, days)
	if err != nil {
		return nil, 0, sharederrors.WithKind(sharederrors.ErrStore, "count memories by type", err)
	}
	defer rows.Close()

	counts := map[MemoryType]int{}
	total := 0
	for rows.Next() {
		var t MemoryType
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, 0, sharederrors.WithKind(sharederrors.ErrStore, "scan memory type count", err)
		}
		counts[t] = n
		total += n
	}
	return counts, total, rows.Err()
}

// PatternsForBestPractice returns patterns eligible for the Best Practice
// generator: confidence and frequency above threshold, seen in at least
// minProjects distinct projects, and not already tagged anti_pattern.
func (p *Pool) PatternsForBestPractice(ctx context.Context, minConfidence float64, minFrequency, minProjects int) ([]CodingPattern, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, pattern_signature, pattern_category, pattern_type, pattern_name, pattern_description,
		       languages, projects_seen, frequency_count, confidence_score, example_code, metadata,
		       last_reinforced, created_at, updated_at
		FROM coding_patterns
		WHERE confidence_score >= $1
		  AND frequency_count >= $2
		  AND cardinality(projects_seen) >= $3
		  AND pattern_category != 'anti_pattern'
		ORDER BY confidence_score DESC
	`, minConfidence, minFrequency, minProjects)
	if err != nil {
		return nil, sharederrors.WithKind(sharederrors.ErrStore, "list best-practice candidate patterns", err)
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

// AntiPatternCooccurrence is one (project, pattern) pair where a pattern's
// occurrences repeatedly coincide with bug-type memories in the same
// project, within the Anti-pattern generator's time window.
type AntiPatternCooccurrence struct {
	ProjectID   int64
	ProjectName string
	PatternID   int64
	Signature   string
	Count       int
}

// AntiPatternCooccurrences joins pattern_occurrences against bug-type
// memories in the same project within +/-windowDays, grouping by
// (project, pattern) and keeping groups with at least minCooccurrence
// matches (spec §4.5 Anti-pattern generator).
func (p *Pool) AntiPatternCooccurrences(ctx context.Context, windowDays, minCooccurrence int) ([]AntiPatternCooccurrence, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT po.project_id, pr.name, po.pattern_id, cp.pattern_signature, count(DISTINCT m.id)
		FROM pattern_occurrences po
		JOIN projects pr ON pr.id = po.project_id
		JOIN coding_patterns cp ON cp.id = po.pattern_id
		JOIN memories m ON m.project_id = po.project_id
		                AND m.memory_type = 'bug'
		                AND m.created_at BETWEEN po.occurred_at - ($1 * interval '1 day')
		                                      AND po.occurred_at + ($1 * interval '1 day')
		GROUP BY po.project_id, pr.name, po.pattern_id, cp.pattern_signature
		HAVING count(DISTINCT m.id) >= $2
	`, windowDays, minCooccurrence)
	if err != nil {
		return nil, sharederrors.WithKind(sharederrors.ErrStore, "list anti-pattern cooccurrences", err)
	}
	defer rows.Close()

	var out []AntiPatternCooccurrence
	for rows.Next() {
		var c AntiPatternCooccurrence
		if err := rows.Scan(&c.ProjectID, &c.ProjectName, &c.PatternID, &c.Signature, &c.Count); err != nil {
			return nil, sharederrors.WithKind(sharederrors.ErrStore, "scan anti-pattern cooccurrence", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// PatternsUsedInProject returns distinct pattern IDs reinforced by a
// project's memories within the last `days` days, used by
// TriggerOutcomeAnalysis to know which patterns an event applies to.
func (p *Pool) PatternsUsedInProject(ctx context.Context, projectID int64, days int) ([]int64, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT DISTINCT pattern_id
		FROM pattern_occurrences
		WHERE project_id = $1 AND occurred_at > now() - ($2 * interval '1 day')
	`, projectID, days)
	if err != nil {
		return nil, sharederrors.WithKind(sharederrors.ErrStore, "list patterns used in project", err)
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

// ProjectByName fetches a single project by name without creating it,
// returning ErrNotFound if absent.
func (p *Pool) ProjectByName(ctx context.Context, name string) (*Project, error) {
	var pr Project
	err := p.pool.QueryRow(ctx, `
		SELECT id, name, description, created_at, updated_at FROM projects WHERE name = $1
	`, name).Scan(&pr.ID, &pr.Name, &pr.Description, &pr.CreatedAt, &pr.UpdatedAt)
	if err != nil {
		return nil, sharederrors.WithKind(sharederrors.ErrNotFound, "project "+name, err)
	}
	return &pr, nil
}

// ProjectNameByID resolves a project's name from its id, for handlers that
// only carry the id (memory rows, pattern occurrences).
func (p *Pool) ProjectNameByID(ctx context.Context, id int64) (string, error) {
	var name string
	err := p.pool.QueryRow(ctx, `SELECT name FROM projects WHERE id = $1`, id).Scan(&name)
	if err != nil {
		return "", sharederrors.WithKind(sharederrors.ErrNotFound, "project id", err)
	}
	return name, nil
}

// ProjectStats is the memory/session/pattern rollup the get_projects tool
// attaches per project when include_stats is requested.
type ProjectStats struct {
	MemoryCount  int
	SessionCount int
	PatternCount int
}

// ProjectStatsByID aggregates counts for a single project for the tool
// surface's optional include_stats response field.
func (p *Pool) ProjectStatsByID(ctx context.Context, projectID int64) (ProjectStats, error) {
	var s ProjectStats
	err := p.pool.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM memories WHERE project_id = $1),
			(SELECT count(*) FROM sessions WHERE project_id = $1),
			(SELECT count(DISTINCT pattern_id) FROM pattern_occurrences WHERE project_id = $1)
	`, projectID).Scan(&s.MemoryCount, &s.SessionCount, &s.PatternCount)
	if err != nil {
		return s, sharederrors.WithKind(sharederrors.ErrStore, "project stats", err)
	}
	return s, nil
}
