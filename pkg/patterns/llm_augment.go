package patterns

import (
	"context"
	"strings"

	"github.com/devmemory/learning-engine/pkg/llm"
	"github.com/devmemory/learning-engine/pkg/store"
)

// AugmentWithLLM runs an optional LLM-assisted pass over a batch of memories
// (spec §4.4: "Optionally, for each batch of memories, an LLM-augmented
// analysis may produce additional patterns"). It degrades to a no-op when no
// LLM client is wired, and a parse failure yields an empty slice rather than
// an error so one bad response never blocks the keyword-based extractors
// that already ran.
func AugmentWithLLM(ctx context.Context, llmClient *llm.Client, memories []store.Memory) ([]Candidate, error) {
	if !llmClientAvailable(llmClient) || len(memories) == 0 {
		return nil, nil
	}

	var excerpts strings.Builder
	for i, m := range memories {
		if i >= 20 {
			break
		}
		excerpts.WriteString(string(m.MemoryType))
		excerpts.WriteString(": ")
		excerpts.WriteString(snippet(m.Content))
		excerpts.WriteString("\n")
	}

	analysis, err := llmClient.Generate(ctx,
		"Identify recurring coding patterns across these developer memories, one per numbered line, with a short name followed by a colon and a description.",
		excerpts.String(), llm.AnalysisPatternAnalysis)
	if err != nil {
		return nil, err
	}

	sections := llm.ParseNumberedSections(analysis.Content)
	var out []Candidate
	for _, section := range sections {
		name, desc := splitNameDescription(section)
		if name == "" {
			continue
		}
		confidence := analysis.Confidence
		if c, ok := llm.ParseConfidence(section); ok {
			confidence = c
		}
		out = append(out, Candidate{
			Signature:       "llm_" + slug(name),
			Category:        store.CategoryArchitectural,
			RawType:         "llm",
			Name:            name,
			Description:     desc,
			Confidence:      confidence,
			ConfidenceBoost: 0.05,
			DetectionMethod: "llm",
			Metadata:        store.JSONMap{"detection_method": "llm", "model": analysis.Model},
		})
	}
	return out, nil
}

func splitNameDescription(section string) (string, string) {
	idx := strings.Index(section, ":")
	if idx == -1 {
		return "", ""
	}
	name := strings.TrimSpace(section[:idx])
	desc := strings.TrimSpace(section[idx+1:])
	if name == "" || desc == "" {
		return "", ""
	}
	return name, desc
}
