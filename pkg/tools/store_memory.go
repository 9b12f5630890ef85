package tools

import (
	"context"
	"time"

	"github.com/devmemory/learning-engine/pkg/pipeline"
	sharederrors "github.com/devmemory/learning-engine/pkg/shared/errors"
	"github.com/devmemory/learning-engine/pkg/store"
)

// StoreMemoryInput is the store_memory tool's input schema (spec §6).
type StoreMemoryInput struct {
	Content         string   `json:"content" validate:"required"`
	ProjectName     string   `json:"project_name" validate:"required"`
	SessionName     string   `json:"session_name"`
	MemoryType      string   `json:"memory_type"`
	ImportanceScore *float64 `json:"importance_score" validate:"omitempty,min=0,max=1"`
	Tags            []string `json:"tags"`
}

// StoreMemory upserts the project/session, embeds the content, inserts the
// memory row, and fires the pipeline's real-time onMemoryAdded hook.
func (s *Surface) StoreMemory(ctx context.Context, in StoreMemoryInput) Result {
	if in.SessionName == "" {
		in.SessionName = "default"
	}
	if in.MemoryType == "" {
		in.MemoryType = string(store.MemoryTypeGeneral)
	}
	importance := 0.5
	if in.ImportanceScore != nil {
		importance = *in.ImportanceScore
	}

	if err := s.validate.Struct(in); err != nil {
		return errorResult(sharederrors.ValidationError("store_memory", err.Error()))
	}

	fields := s.fields("store_memory").Resource("project", in.ProjectName)
	s.logger.WithFields(fields.ToLogrus()).Debug("storing memory")

	proj, err := s.st.EnsureProject(ctx, in.ProjectName, "")
	if err != nil {
		return errorResult(err)
	}
	sess, err := s.st.EnsureSession(ctx, proj.ID, in.SessionName, store.SessionTypeMemory)
	if err != nil {
		return errorResult(err)
	}

	vec, model, err := s.emb.Embed(ctx, in.Content, "")
	if err != nil {
		return errorResult(err)
	}

	memory := &store.Memory{
		ProjectID:       proj.ID,
		SessionID:       &sess.ID,
		Content:         in.Content,
		MemoryType:      store.MemoryType(in.MemoryType),
		Embedding:       vec,
		EmbeddingModel:  model,
		ImportanceScore: importance,
		Tags:            in.Tags,
	}
	id, err := s.st.InsertMemory(ctx, memory)
	if err != nil {
		return errorResult(err)
	}

	if s.pipe != nil {
		s.pipe.OnMemoryAdded(ctx, pipeline.BufferedMemory{
			MemoryID:    id,
			ProjectID:   proj.ID,
			ProjectName: proj.Name,
			Content:     in.Content,
			MemoryType:  memory.MemoryType,
			OccurredAt:  time.Now(),
		})
	}

	return textResult(formatStoredMemory(id, proj.Name, sess.Name, in.MemoryType))
}

func formatStoredMemory(id int64, project, session, memoryType string) string {
	return jsonOrFallback(map[string]any{
		"memory_id":    id,
		"project_name": project,
		"session_name": session,
		"memory_type":  memoryType,
		"status":       "stored",
	})
}
