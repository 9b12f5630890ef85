package patterns

import (
	"testing"

	"github.com/devmemory/learning-engine/pkg/store"
)

func TestExtractExplicitPatterns(t *testing.T) {
	m := store.Memory{
		MemoryType: store.MemoryTypeSystemPatterns,
		Content:    "Pattern: Circuit Breaker\nUsed to stop cascading failures when the SLM endpoint flakes.",
	}
	candidates := ExtractEnhanced(m)

	var found *Candidate
	for i := range candidates {
		if candidates[i].Signature == "explicit_circuit_breaker" {
			found = &candidates[i]
		}
	}
	if found == nil {
		t.Fatalf("expected explicit_circuit_breaker candidate, got %+v", candidates)
	}
	if found.DetectionMethod != "user_explicit" {
		t.Errorf("detection method = %q, want user_explicit", found.DetectionMethod)
	}
	if got := clamp01(found.Confidence + found.ConfidenceBoost); got != 1.0 {
		t.Errorf("combined confidence = %v, want 1.0", got)
	}
}

func TestCodeMemoryGeneralKeywords(t *testing.T) {
	m := store.Memory{
		MemoryType: store.MemoryTypeCode,
		Content:    "Wrapped the handler in a try catch block and exposed it over a REST API.",
	}
	candidates := ExtractEnhanced(m)

	sigs := map[string]bool{}
	for _, c := range candidates {
		sigs[c.Signature] = true
	}
	if !sigs["try_catch_pattern"] {
		t.Errorf("expected try_catch_pattern in %v", sigs)
	}
	if !sigs["rest_api"] {
		t.Errorf("expected rest_api in %v", sigs)
	}
}

func TestExtractArchitecture(t *testing.T) {
	m := store.Memory{
		MemoryType: store.MemoryTypeArchitecture,
		Content:    "We split the monolith into microservices behind an API gateway.",
	}
	candidates := dispatch(m)
	if len(candidates) == 0 {
		t.Fatal("expected at least one architecture candidate")
	}
	if candidates[0].Category != store.CategoryArchitectural {
		t.Errorf("category = %v, want architectural", candidates[0].Category)
	}
}

func TestExtractTechStackRequiresTwoComponents(t *testing.T) {
	single := extractTechStack("We use mongodb for storage.")
	if len(single) != 0 {
		t.Errorf("expected no stack match on a single component, got %v", single)
	}

	two := extractTechStack("Our stack is mongodb, express, and node with a react frontend.")
	if len(two) == 0 {
		t.Fatal("expected MERN stack to match with 4 components present")
	}
}

func TestExtractAntiPatterns(t *testing.T) {
	m := store.Memory{
		MemoryType: store.MemoryTypeBug,
		Content:    "Root cause was a god object holding all the business logic plus copy paste handlers everywhere.",
	}
	candidates := extractAntiPatterns(m.Content)
	if len(candidates) != 2 {
		t.Fatalf("expected 2 anti-pattern matches, got %d: %+v", len(candidates), candidates)
	}
	for _, c := range candidates {
		if c.Category != store.CategoryAntiPattern {
			t.Errorf("category = %v, want anti_pattern", c.Category)
		}
	}
}

func TestExtractLessonsLearned(t *testing.T) {
	content := "We should have validated the payload before writing it. Next time, add a schema check first."
	candidates := extractLessonsLearned(content)
	if len(candidates) != 2 {
		t.Fatalf("expected 2 lessons, got %d: %+v", len(candidates), candidates)
	}
}

func TestNormalizeType(t *testing.T) {
	tests := []struct {
		raw  string
		want store.PatternType
	}{
		{"architectural", store.PatternTypeAPIDesign},
		{"microservices", store.PatternTypeAPIDesign},
		{"design", store.PatternTypeFunctionStruct},
		{"anti_pattern", store.PatternTypeErrorHandling},
		{"auth", store.PatternTypeSecurity},
		{"anything-else", store.PatternTypeFunctionStruct},
	}
	for _, tt := range tests {
		if got := NormalizeType(tt.raw); got != tt.want {
			t.Errorf("NormalizeType(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestDedupeBySignature(t *testing.T) {
	in := []Candidate{
		{Signature: "a", Name: "first"},
		{Signature: "b", Name: "second"},
		{Signature: "a", Name: "duplicate"},
	}
	out := dedupeBySignature(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 deduped candidates, got %d", len(out))
	}
	if out[0].Name != "first" {
		t.Errorf("expected first occurrence to win, got %q", out[0].Name)
	}
}

func TestSlug(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Circuit Breaker", "circuit_breaker"},
		{"  Spaced  Out  ", "spaced_out"},
		{"REST/JSON API!", "rest_json_api"},
	}
	for _, tt := range tests {
		if got := slug(tt.in); got != tt.want {
			t.Errorf("slug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
