package tools

import (
	"context"

	sharederrors "github.com/devmemory/learning-engine/pkg/shared/errors"
	"github.com/devmemory/learning-engine/pkg/store"
)

// SearchMemoriesInput is the search_memories tool's input schema (spec §6).
type SearchMemoriesInput struct {
	Query         string  `json:"query" validate:"required"`
	ProjectName   string  `json:"project_name"`
	MemoryType    string  `json:"memory_type"`
	Limit         int     `json:"limit" validate:"omitempty,min=1,max=50"`
	MinSimilarity float64 `json:"min_similarity" validate:"omitempty,min=0,max=1"`
}

// SearchMemoriesEntry is one ranked hit in the search_memories response.
type SearchMemoriesEntry struct {
	MemoryID        int64    `json:"memory_id"`
	Content         string   `json:"content"`
	MemoryType      string   `json:"memory_type"`
	Similarity      float64  `json:"similarity"`
	ImportanceScore float64  `json:"importance_score"`
	Tags            []string `json:"tags"`
}

// SearchMemories embeds the query and orders memories by cosine similarity
// descending, filtered by project/type and a minimum similarity threshold.
func (s *Surface) SearchMemories(ctx context.Context, in SearchMemoriesInput) Result {
	if in.Limit == 0 {
		in.Limit = 10
	}
	if in.MinSimilarity == 0 {
		in.MinSimilarity = 0.7
	}
	if err := s.validate.Struct(in); err != nil {
		return errorResult(sharederrors.ValidationError("search_memories", err.Error()))
	}

	queryVec, _, err := s.emb.Embed(ctx, in.Query, "")
	if err != nil {
		return errorResult(err)
	}

	results, err := s.st.SearchMemories(ctx, queryVec, store.SearchParams{
		ProjectName:   in.ProjectName,
		MemoryType:    store.MemoryType(in.MemoryType),
		Limit:         in.Limit,
		MinSimilarity: in.MinSimilarity,
	})
	if err != nil {
		return errorResult(err)
	}

	entries := make([]SearchMemoriesEntry, 0, len(results))
	for _, r := range results {
		entries = append(entries, SearchMemoriesEntry{
			MemoryID:        r.Memory.ID,
			Content:         r.Memory.Content,
			MemoryType:      string(r.Memory.MemoryType),
			Similarity:      r.Similarity,
			ImportanceScore: r.Memory.ImportanceScore,
			Tags:            r.Memory.Tags,
		})
	}

	return textResult(jsonOrFallback(map[string]any{
		"query":   in.Query,
		"count":   len(entries),
		"results": entries,
	}))
}
