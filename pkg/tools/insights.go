package tools

import (
	"context"

	sharederrors "github.com/devmemory/learning-engine/pkg/shared/errors"
	"github.com/devmemory/learning-engine/pkg/store"
)

// GetInsightsInput is the get_insights tool's input schema (spec §6).
type GetInsightsInput struct {
	InsightType   string  `json:"insight_type"`
	MinConfidence float64 `json:"min_confidence" validate:"omitempty,min=0,max=1"`
	Limit         int     `json:"limit" validate:"omitempty,min=1"`
}

// GetInsights lists meta insights matching type/confidence filters,
// highest-evidence first.
func (s *Surface) GetInsights(ctx context.Context, in GetInsightsInput) Result {
	if in.MinConfidence == 0 {
		in.MinConfidence = 0.7
	}
	if in.Limit == 0 {
		in.Limit = 20
	}
	if err := s.validate.Struct(in); err != nil {
		return errorResult(sharederrors.ValidationError("get_insights", err.Error()))
	}

	insights, err := s.st.ListInsights(ctx, store.InsightFilter{
		Type:          store.InsightType(in.InsightType),
		MinConfidence: in.MinConfidence,
		Limit:         in.Limit,
	})
	if err != nil {
		return errorResult(err)
	}

	return textResult(jsonOrFallback(map[string]any{
		"count":    len(insights),
		"insights": insights,
	}))
}

// GetCodingPatternsInput is the get_coding_patterns tool's input schema
// (spec §6).
type GetCodingPatternsInput struct {
	PatternCategory string  `json:"pattern_category"`
	PatternType     string  `json:"pattern_type"`
	Language        string  `json:"language"`
	MinConfidence   float64 `json:"min_confidence" validate:"omitempty,min=0,max=1"`
	MinFrequency    int     `json:"min_frequency" validate:"omitempty,min=1"`
	Limit           int     `json:"limit" validate:"omitempty,min=1"`
}

// GetCodingPatterns lists coding patterns matching category/type/language/
// confidence/frequency filters, most-confident first.
func (s *Surface) GetCodingPatterns(ctx context.Context, in GetCodingPatternsInput) Result {
	if in.MinConfidence == 0 {
		in.MinConfidence = 0.6
	}
	if in.MinFrequency == 0 {
		in.MinFrequency = 2
	}
	if in.Limit == 0 {
		in.Limit = 15
	}
	if err := s.validate.Struct(in); err != nil {
		return errorResult(sharederrors.ValidationError("get_coding_patterns", err.Error()))
	}

	patterns, err := s.st.ListPatterns(ctx, store.PatternFilter{
		Category:      store.PatternCategory(in.PatternCategory),
		Type:          store.PatternType(in.PatternType),
		Language:      in.Language,
		MinConfidence: in.MinConfidence,
		MinFrequency:  in.MinFrequency,
		Limit:         in.Limit,
	})
	if err != nil {
		return errorResult(err)
	}

	return textResult(jsonOrFallback(map[string]any{
		"count":    len(patterns),
		"patterns": patterns,
	}))
}
