package tools

import (
	"context"
	"io"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

func newTestSurface() *Surface {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return &Surface{validate: validator.New(), logger: logger}
}

func TestStoreMemoryValidation(t *testing.T) {
	s := newTestSurface()
	res := s.StoreMemory(context.Background(), StoreMemoryInput{})
	if !res.IsError {
		t.Fatalf("expected validation error for missing content/project_name, got %+v", res)
	}
}

func TestStoreMemoryImportanceScoreOutOfRange(t *testing.T) {
	s := newTestSurface()
	bad := 1.5
	res := s.StoreMemory(context.Background(), StoreMemoryInput{
		Content:         "x",
		ProjectName:     "p",
		ImportanceScore: &bad,
	})
	if !res.IsError {
		t.Fatalf("expected validation error for importance_score > 1, got %+v", res)
	}
}

func TestSearchMemoriesRequiresQuery(t *testing.T) {
	s := newTestSurface()
	res := s.SearchMemories(context.Background(), SearchMemoriesInput{})
	if !res.IsError {
		t.Fatalf("expected validation error for missing query, got %+v", res)
	}
}

func TestSearchMemoriesRejectsLimitAboveFifty(t *testing.T) {
	s := newTestSurface()
	res := s.SearchMemories(context.Background(), SearchMemoriesInput{Query: "x", Limit: 51})
	if !res.IsError {
		t.Fatalf("expected validation error for limit > 50, got %+v", res)
	}
}

func TestGetProjectSessionsRequiresProjectName(t *testing.T) {
	s := newTestSurface()
	res := s.GetProjectSessions(context.Background(), GetProjectSessionsInput{})
	if !res.IsError {
		t.Fatalf("expected validation error for missing project_name, got %+v", res)
	}
}

func TestGetInsightsRejectsConfidenceAboveOne(t *testing.T) {
	s := newTestSurface()
	res := s.GetInsights(context.Background(), GetInsightsInput{MinConfidence: 1.2})
	if !res.IsError {
		t.Fatalf("expected validation error for min_confidence > 1, got %+v", res)
	}
}

func TestGetCodingPatternsRejectsNegativeFrequency(t *testing.T) {
	s := newTestSurface()
	res := s.GetCodingPatterns(context.Background(), GetCodingPatternsInput{MinFrequency: -1})
	if !res.IsError {
		t.Fatalf("expected validation error for negative min_frequency, got %+v", res)
	}
}
