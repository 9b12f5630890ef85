package tools

import (
	"context"

	sharederrors "github.com/devmemory/learning-engine/pkg/shared/errors"
)

// GetProjectsInput is the get_projects tool's input schema (spec §6).
// IncludeStats is a pointer so omission can be told apart from an explicit
// false, since the spec default is true.
type GetProjectsInput struct {
	IncludeStats *bool `json:"include_stats"`
}

// ProjectEntry is one row in the get_projects response, with stats attached
// only when requested.
type ProjectEntry struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	MemoryCount  *int   `json:"memory_count,omitempty"`
	SessionCount *int   `json:"session_count,omitempty"`
	PatternCount *int   `json:"pattern_count,omitempty"`
}

// GetProjects lists every project, optionally attaching a memory/session/
// pattern count rollup per project (include_stats defaults true).
func (s *Surface) GetProjects(ctx context.Context, in GetProjectsInput) Result {
	includeStats := true
	if in.IncludeStats != nil {
		includeStats = *in.IncludeStats
	}

	projects, err := s.st.ListProjects(ctx)
	if err != nil {
		return errorResult(err)
	}

	entries := make([]ProjectEntry, 0, len(projects))
	for _, p := range projects {
		entry := ProjectEntry{Name: p.Name, Description: p.Description}
		if includeStats {
			stats, err := s.st.ProjectStatsByID(ctx, p.ID)
			if err != nil {
				return errorResult(err)
			}
			entry.MemoryCount = &stats.MemoryCount
			entry.SessionCount = &stats.SessionCount
			entry.PatternCount = &stats.PatternCount
		}
		entries = append(entries, entry)
	}

	return textResult(jsonOrFallback(map[string]any{
		"count":    len(entries),
		"projects": entries,
	}))
}

// GetProjectSessionsInput is the get_project_sessions tool's input schema.
type GetProjectSessionsInput struct {
	ProjectName string `json:"project_name" validate:"required"`
	ActiveOnly  bool   `json:"active_only"`
}

// GetProjectSessions lists a project's sessions, optionally filtered to
// those with memories created in the last 24 hours.
func (s *Surface) GetProjectSessions(ctx context.Context, in GetProjectSessionsInput) Result {
	if err := s.validate.Struct(in); err != nil {
		return errorResult(sharederrors.ValidationError("get_project_sessions", err.Error()))
	}

	sessions, err := s.st.ListSessions(ctx, in.ProjectName, in.ActiveOnly)
	if err != nil {
		return errorResult(err)
	}

	return textResult(jsonOrFallback(map[string]any{
		"project_name": in.ProjectName,
		"count":        len(sessions),
		"sessions":     sessions,
	}))
}
