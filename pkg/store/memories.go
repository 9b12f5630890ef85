package store

import (
	"context"

	"github.com/pgvector/pgvector-go"

	sharederrors "github.com/devmemory/learning-engine/pkg/shared/errors"
)

// EnsureProject looks up a project by name, creating it if absent.
func (p *Pool) EnsureProject(ctx context.Context, name, description string) (*Project, error) {
	var proj Project
	err := p.pool.QueryRow(ctx, `
		INSERT INTO projects (name, description, created_at, updated_at)
		VALUES ($1, $2, now(), now())
		ON CONFLICT (name) DO UPDATE SET updated_at = projects.updated_at
		RETURNING id, name, description, created_at, updated_at
	`, name, description).Scan(&proj.ID, &proj.Name, &proj.Description, &proj.CreatedAt, &proj.UpdatedAt)
	if err != nil {
		return nil, sharederrors.WithKind(sharederrors.ErrStore, "ensure project", err)
	}
	return &proj, nil
}

// EnsureSession looks up a session by (project_id, name), creating it if
// absent.
func (p *Pool) EnsureSession(ctx context.Context, projectID int64, name string, sessionType SessionType) (*Session, error) {
	var s Session
	err := p.pool.QueryRow(ctx, `
		INSERT INTO sessions (project_id, name, type, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (project_id, name) DO UPDATE SET updated_at = sessions.updated_at
		RETURNING id, project_id, name, type, created_at, updated_at
	`, projectID, name, string(sessionType)).Scan(&s.ID, &s.ProjectID, &s.Name, &s.Type, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, sharederrors.WithKind(sharederrors.ErrStore, "ensure session", err)
	}
	return &s, nil
}

// InsertMemory persists a new memory row. Invariant: len(embedding) must
// equal the store-wide embedding dimension, enforced by the caller
// (embedding client) before this is ever reached.
func (p *Pool) InsertMemory(ctx context.Context, m *Memory) (int64, error) {
	var id int64
	var vec *pgvector.Vector
	if len(m.Embedding) > 0 {
		v := pgvector.NewVector(m.Embedding)
		vec = &v
	}

	err := p.pool.QueryRow(ctx, `
		INSERT INTO memories
			(project_id, session_id, content, memory_type, embedding, embedding_model,
			 importance_score, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING id
	`, m.ProjectID, m.SessionID, m.Content, string(m.MemoryType), vec, m.EmbeddingModel,
		m.ImportanceScore, m.Tags).Scan(&id)
	if err != nil {
		return 0, sharederrors.WithKind(sharederrors.ErrStore, "insert memory", err)
	}
	return id, nil
}

// SearchParams bounds a semantic similarity search over memories.
type SearchParams struct {
	ProjectName   string
	MemoryType    MemoryType
	Limit         int
	MinSimilarity float64
}

// MemorySearchResult pairs a memory with its cosine similarity to the query
// vector.
type MemorySearchResult struct {
	Memory     Memory
	Similarity float64
}

// SearchMemories orders memories by `1 - (embedding <=> query)` (cosine
// similarity via pgvector's `<=>` distance operator) descending, filtering
// by project/type and a minimum similarity threshold.
func (p *Pool) SearchMemories(ctx context.Context, queryVec []float32, params SearchParams) ([]MemorySearchResult, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT m.id, m.project_id, m.session_id, m.content, m.memory_type, m.embedding_model,
		       m.importance_score, m.tags, m.created_at, m.updated_at,
		       1 - (m.embedding <=> $1) AS similarity
		FROM memories m
		JOIN projects pr ON pr.id = m.project_id
		WHERE m.embedding IS NOT NULL
		  AND 1 - (m.embedding <=> $1) >= $2
		  AND ($3 = '' OR pr.name = $3)
		  AND ($4 = '' OR m.memory_type = $4)
		ORDER BY similarity DESC
		LIMIT $5
	`

	vec := pgvector.NewVector(queryVec)
	rows, err := p.pool.Query(ctx, query, vec, params.MinSimilarity, params.ProjectName, string(params.MemoryType), limit)
	if err != nil {
		return nil, sharederrors.WithKind(sharederrors.ErrStore, "search memories", err)
	}
	defer rows.Close()

	var results []MemorySearchResult
	for rows.Next() {
		var r MemorySearchResult
		if err := rows.Scan(&r.Memory.ID, &r.Memory.ProjectID, &r.Memory.SessionID, &r.Memory.Content,
			&r.Memory.MemoryType, &r.Memory.EmbeddingModel, &r.Memory.ImportanceScore, &r.Memory.Tags,
			&r.Memory.CreatedAt, &r.Memory.UpdatedAt, &r.Similarity); err != nil {
			return nil, sharederrors.WithKind(sharederrors.ErrStore, "scan memory search result", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ListProjects returns every project, for the get_projects tool.
func (p *Pool) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, name, description, created_at, updated_at FROM projects ORDER BY name`)
	if err != nil {
		return nil, sharederrors.WithKind(sharederrors.ErrStore, "list projects", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var pr Project
		if err := rows.Scan(&pr.ID, &pr.Name, &pr.Description, &pr.CreatedAt, &pr.UpdatedAt); err != nil {
			return nil, sharederrors.WithKind(sharederrors.ErrStore, "scan project", err)
		}
		projects = append(projects, pr)
	}
	return projects, rows.Err()
}

// ListSessions returns a project's sessions, optionally only those with
// memories created in the last 24 hours ("active").
func (p *Pool) ListSessions(ctx context.Context, projectName string, activeOnly bool) ([]Session, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT s.id, s.project_id, s.name, s.type, s.created_at, s.updated_at
		FROM sessions s
		JOIN projects pr ON pr.id = s.project_id
		WHERE pr.name = $1
		  AND ($2 = false OR EXISTS (
		        SELECT 1 FROM memories m WHERE m.session_id = s.id AND m.created_at > now() - interval '24 hours'
		      ))
		ORDER BY s.updated_at DESC
	`, projectName, activeOnly)
	if err != nil {
		return nil, sharederrors.WithKind(sharederrors.ErrStore, "list sessions", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.ProjectID, &s.Name, &s.Type, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, sharederrors.WithKind(sharederrors.ErrStore, "scan session", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// MemoriesByType fetches memories of a given type for a project created
// within the last `days` days, used by the Pattern Extractor and Insight
// Synthesizer generators.
func (p *Pool) MemoriesByType(ctx context.Context, projectID int64, memoryType MemoryType, days int) ([]Memory, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, project_id, session_id, content, memory_type, embedding_model,
		       importance_score, tags, created_at, updated_at
		FROM memories
		WHERE project_id = $1 AND memory_type = $2 AND created_at > now() - ($3 * interval '1 day')
		ORDER BY created_at DESC
	`, projectID, string(memoryType), days)
	if err != nil {
		return nil, sharederrors.WithKind(sharederrors.ErrStore, "list memories by type", err)
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
