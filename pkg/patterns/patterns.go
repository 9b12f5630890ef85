// Package patterns mines recurring coding patterns out of free-form memory
// content. Extraction is memory-type-dispatched (spec §4.4): each memory
// type gets a dedicated extractor tuned to its shape (explicit "Pattern:"
// lines, architecture keywords, design-pattern keywords, ...), and the
// result is always unioned with a general keyword catalog spanning a closed
// set of ~40 pattern families, deduplicated by signature.
package patterns

import (
	"context"
	"regexp"
	"strings"

	"github.com/devmemory/learning-engine/pkg/embedding"
	"github.com/devmemory/learning-engine/pkg/llm"
	sharederrors "github.com/devmemory/learning-engine/pkg/shared/errors"
	"github.com/devmemory/learning-engine/pkg/store"
)

// Candidate is one pattern surfaced by an extractor, before it's known
// whether it creates a new coding_patterns row or reinforces an existing
// one (spec §4.4 "Per-pattern fields").
type Candidate struct {
	Signature       string
	Category        store.PatternCategory
	RawType         string
	Name            string
	Description     string
	Languages       []string
	Example         string
	Confidence      float64
	ConfidenceBoost float64
	DetectionMethod string
	Metadata        store.JSONMap
}

// maxExampleLen caps the stored example snippet (spec §4.4: "example ≤500 chars").
const maxExampleLen = 500

func truncateExample(s string) string {
	if len(s) <= maxExampleLen {
		return s
	}
	return s[:maxExampleLen]
}

// ExtractEnhanced implements spec §4.4's extractPatternsEnhanced: the union
// of the memory-type-dispatched extractor and the general keyword
// extractor, deduplicated by signature (first occurrence wins).
func ExtractEnhanced(m store.Memory) []Candidate {
	var all []Candidate
	all = append(all, dispatch(m)...)
	all = append(all, generalExtractor(m.Content, nil)...)
	return dedupeBySignature(all)
}

func dedupeBySignature(cs []Candidate) []Candidate {
	seen := make(map[string]bool, len(cs))
	var out []Candidate
	for _, c := range cs {
		if seen[c.Signature] {
			continue
		}
		seen[c.Signature] = true
		out = append(out, c)
	}
	return out
}

// dispatch routes to the memory-type-specific extractor per spec §4.4's
// dispatch table.
func dispatch(m store.Memory) []Candidate {
	switch m.MemoryType {
	case store.MemoryTypeSystemPatterns:
		return extractExplicitPatterns(m.Content)
	case store.MemoryTypeArchitecture:
		return extractArchitecture(m.Content)
	case store.MemoryTypeDesignDecisions:
		return extractDesignDecisions(m.Content)
	case store.MemoryTypeCode, store.MemoryTypeImplementationNotes:
		return generalExtractor(m.Content, codeCategoryFilter)
	case store.MemoryTypeTechContext:
		return extractTechStack(m.Content)
	case store.MemoryTypeBug:
		return extractAntiPatterns(m.Content)
	case store.MemoryTypeLessonsLearned:
		return extractLessonsLearned(m.Content)
	default:
		return nil
	}
}

var codeCategoryFilter = map[store.PatternCategory]bool{
	store.CategoryErrorHandling: true,
	store.CategoryPerformance:   true,
	store.CategoryTesting:       true,
	store.CategoryAPIPatterns:   true,
}

// explicitPatternRe matches a user-authored "Pattern: NAME" line, the
// strongest detection signal the extractor recognizes (spec §4.4 row 1).
var explicitPatternRe = regexp.MustCompile(`(?im)^\s*Pattern:\s*(.+)$`)

func extractExplicitPatterns(content string) []Candidate {
	matches := explicitPatternRe.FindAllStringSubmatch(content, -1)
	var out []Candidate
	for _, m := range matches {
		name := strings.TrimSpace(m[1])
		if name == "" {
			continue
		}
		out = append(out, Candidate{
			Signature:       "explicit_" + slug(name),
			Category:        store.CategoryArchitectural,
			RawType:         "explicit",
			Name:            name,
			Description:     "User-declared pattern: " + name,
			Example:         truncateExample(content),
			Confidence:      0.9,
			ConfidenceBoost: 0.2,
			DetectionMethod: "user_explicit",
			Metadata:        store.JSONMap{"detection_method": "user_explicit"},
		})
	}
	return out
}

var architectureKeywords = []struct {
	name, signature string
	keywords        []string
}{
	{"Microservices", "arch_microservices", []string{"microservice", "microservices"}},
	{"Monolithic", "arch_monolithic", []string{"monolith", "monolithic"}},
	{"Serverless", "arch_serverless", []string{"serverless", "lambda function", "faas"}},
	{"Event-Driven", "arch_event_driven", []string{"event driven", "event-driven", "event bus"}},
	{"Layered", "arch_layered", []string{"layered architecture", "n-tier", "three-tier"}},
	{"Hexagonal", "arch_hexagonal", []string{"hexagonal", "ports and adapters"}},
}

func extractArchitecture(content string) []Candidate {
	lower := strings.ToLower(content)
	var out []Candidate
	for _, kw := range architectureKeywords {
		if !containsAny(lower, kw.keywords) {
			continue
		}
		out = append(out, Candidate{
			Signature:       kw.signature,
			Category:        store.CategoryArchitectural,
			RawType:         "architectural",
			Name:            kw.name + " Architecture",
			Description:     kw.name + " architectural style referenced in: " + snippet(content),
			Example:         truncateExample(content),
			Confidence:      0.8,
			ConfidenceBoost: 0.05,
			DetectionMethod: "memory_type",
			Metadata:        store.JSONMap{"detection_method": "memory_type"},
		})
	}
	return out
}

var designPatternKeywords = []struct {
	name, signature string
	category        store.PatternCategory
	keywords        []string
}{
	{"Singleton", "design_singleton", store.CategoryCreational, []string{"singleton"}},
	{"Factory", "design_factory", store.CategoryCreational, []string{"factory pattern", "factory method"}},
	{"Builder", "design_builder", store.CategoryCreational, []string{"builder pattern"}},
	{"Adapter", "design_adapter", store.CategoryStructural, []string{"adapter pattern"}},
	{"Decorator", "design_decorator", store.CategoryStructural, []string{"decorator pattern"}},
	{"Observer", "design_observer", store.CategoryBehavioral, []string{"observer pattern", "pub/sub", "publish-subscribe"}},
	{"Strategy", "design_strategy", store.CategoryBehavioral, []string{"strategy pattern"}},
	{"Repository", "design_repository", store.CategoryDataProcessing, []string{"repository pattern"}},
}

func extractDesignDecisions(content string) []Candidate {
	lower := strings.ToLower(content)
	var out []Candidate
	for _, kw := range designPatternKeywords {
		if !containsAny(lower, kw.keywords) {
			continue
		}
		out = append(out, Candidate{
			Signature:       kw.signature,
			Category:        kw.category,
			RawType:         "design",
			Name:            kw.name + " Pattern",
			Description:     kw.name + " design decision: " + snippet(content),
			Example:         truncateExample(content),
			Confidence:      0.8,
			ConfidenceBoost: 0.05,
			DetectionMethod: "memory_type",
			Metadata:        store.JSONMap{"detection_method": "memory_type", "decision_keyword": strings.ToLower(kw.name)},
		})
	}
	return out
}

var techStacks = []struct {
	name, signature string
	components      []string
}{
	{"MEAN Stack", "tech_mean_stack", []string{"mongodb", "express", "angular", "node"}},
	{"MERN Stack", "tech_mern_stack", []string{"mongodb", "express", "react", "node"}},
	{"LAMP Stack", "tech_lamp_stack", []string{"linux", "apache", "mysql", "php"}},
	{"JAMstack", "tech_jamstack", []string{"javascript", "api", "markup", "static site"}},
}

// extractTechStack requires at least two component keywords from a stack's
// component list to match before declaring the stack present (spec §4.4
// row "tech_context"); confidence is the match ratio.
func extractTechStack(content string) []Candidate {
	lower := strings.ToLower(content)
	var out []Candidate
	for _, stack := range techStacks {
		matches := 0
		for _, comp := range stack.components {
			if strings.Contains(lower, comp) {
				matches++
			}
		}
		if matches < 2 {
			continue
		}
		confidence := float64(matches) / float64(len(stack.components))
		out = append(out, Candidate{
			Signature:       stack.signature,
			Category:        store.CategoryTechStack,
			RawType:         "tech_stack",
			Name:            stack.name,
			Description:     stack.name + " technology stack referenced in: " + snippet(content),
			Example:         truncateExample(content),
			Confidence:      confidence,
			ConfidenceBoost: 0.05,
			DetectionMethod: "memory_type",
			Metadata:        store.JSONMap{"detection_method": "memory_type", "component_matches": matches},
		})
	}
	return out
}

var antiPatternKeywords = []struct {
	name, signature string
	keywords        []string
}{
	{"God Object", "anti_god_object", []string{"god object", "god class"}},
	{"Spaghetti Code", "anti_spaghetti_code", []string{"spaghetti code", "spaghetti"}},
	{"Copy-Paste Programming", "anti_copy_paste", []string{"copy paste", "copy-paste", "copy/paste"}},
	{"Magic Numbers", "anti_magic_numbers", []string{"magic number", "magic numbers"}},
	{"Callback Hell", "anti_callback_hell", []string{"callback hell", "pyramid of doom"}},
}

func extractAntiPatterns(content string) []Candidate {
	lower := strings.ToLower(content)
	var out []Candidate
	for _, kw := range antiPatternKeywords {
		if !containsAny(lower, kw.keywords) {
			continue
		}
		out = append(out, Candidate{
			Signature:       kw.signature,
			Category:        store.CategoryAntiPattern,
			RawType:         "anti_pattern",
			Name:            kw.name,
			Description:     kw.name + " anti-pattern observed in a bug report: " + snippet(content),
			Example:         truncateExample(content),
			Confidence:      0.6,
			ConfidenceBoost: 0.05,
			DetectionMethod: "memory_type",
			Metadata:        store.JSONMap{"detection_method": "memory_type"},
		})
	}
	return out
}

// lessonsRe matches the two hedge phrases spec §4.4's lessons_learned row
// names: "should have X" and "next time Y".
var lessonsRe = regexp.MustCompile(`(?i)(should have [^.\n]+|next time[, ][^.\n]+)`)

func extractLessonsLearned(content string) []Candidate {
	matches := lessonsRe.FindAllString(content, -1)
	var out []Candidate
	for _, m := range matches {
		clean := strings.TrimSpace(m)
		out = append(out, Candidate{
			Signature:       "lesson_" + slug(clean),
			Category:        store.CategoryProcessMethodology,
			RawType:         "lesson",
			Name:            "Lesson: " + clean,
			Description:     clean,
			Example:         truncateExample(content),
			Confidence:      0.8,
			ConfidenceBoost: 0.05,
			DetectionMethod: "memory_type",
			Metadata:        store.JSONMap{"detection_method": "memory_type"},
		})
	}
	return out
}

// NormalizeType implements spec §4.4's "Type normalization" table, mapping
// a candidate's free-form RawType onto the closed PatternType enum the
// store accepts.
func NormalizeType(rawType string) store.PatternType {
	switch rawType {
	case "architectural", "microservices", "explicit":
		return store.PatternTypeAPIDesign
	case "design":
		return store.PatternTypeFunctionStruct
	case "anti_pattern":
		return store.PatternTypeErrorHandling
	case "auth":
		return store.PatternTypeSecurity
	default:
		return store.PatternTypeFunctionStruct
	}
}

func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}

func snippet(content string) string {
	content = strings.TrimSpace(content)
	if len(content) > 160 {
		return content[:160]
	}
	return content
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// Result pairs an extracted candidate with the store's upsert outcome, for
// callers that report what the pattern-detection task actually did.
type Result struct {
	Candidate Candidate
	Upsert    store.UpsertPatternResult
}

// Process runs ExtractEnhanced over a memory, embeds each candidate's
// description, and upserts every candidate through the store's
// reinforce-vs-create path (spec §4.4). Per-candidate embedding or store
// failures are collected and joined rather than aborting the whole batch,
// so one bad candidate doesn't sink the rest of a memory's patterns.
func Process(ctx context.Context, st *store.Pool, emb *embedding.Client, m store.Memory, projectName string) ([]Result, error) {
	candidates := ExtractEnhanced(m)

	var results []Result
	var errs []error
	for _, c := range candidates {
		var vec []float32
		if emb != nil {
			v, _, err := emb.Embed(ctx, c.Description, "")
			if err != nil {
				errs = append(errs, sharederrors.WithKind(sharederrors.ErrEmbedding, "embed pattern description for "+c.Signature, err))
			} else {
				vec = v
			}
		}

		np := store.NewPattern{
			Signature:   c.Signature,
			Category:    c.Category,
			Type:        NormalizeType(c.RawType),
			Name:        c.Name,
			Description: c.Description,
			Languages:   c.Languages,
			Example:     c.Example,
			Confidence:  clamp01(c.Confidence + c.ConfidenceBoost),
			Metadata:    mergeMetadata(c.Metadata, m.ID),
			Embedding:   vec,
		}

		res, err := st.UpsertPattern(ctx, np, projectName, m.ID, c.ConfidenceBoost)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results = append(results, Result{Candidate: c, Upsert: *res})

		if c.RawType == "design" {
			if keyword, ok := c.Metadata["decision_keyword"].(string); ok {
				if err := st.RecordDecisionPattern(ctx, m.ProjectID, res.PatternID, keyword); err != nil {
					errs = append(errs, err)
				}
			}
		}
	}

	return results, sharederrors.Chain(errs...)
}

func mergeMetadata(base store.JSONMap, memoryID int64) store.JSONMap {
	out := store.JSONMap{}
	for k, v := range base {
		out[k] = v
	}
	out["example_memories"] = []int64{memoryID}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// llmClientAvailable lets AugmentWithLLM degrade to a no-op when no LLM
// client is wired (spec §4.4: the LLM-augmented pass is optional).
func llmClientAvailable(c *llm.Client) bool { return c != nil }
