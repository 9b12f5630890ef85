package llm

import "strings"

// SystemPromptFor returns the system prompt paired with each analysis type
// (spec §4.3 step 3: "Prompt selection is keyed by analysisType").
func SystemPromptFor(t AnalysisType) string {
	switch t {
	case AnalysisPatternAnalysis:
		return "You are a senior software engineer reviewing a developer's " +
			"stored memories to surface recurring coding patterns. Identify " +
			"the pattern, its category (best_practice, anti_pattern, " +
			"preference, or workflow), and a one-sentence justification. " +
			"Be concrete and cite the evidence you used."
	case AnalysisInsightGeneration:
		return "You are synthesizing meta-insights from a developer's coding " +
			"history across projects. Produce a short, actionable statement " +
			"a developer could act on immediately, and note your confidence."
	case AnalysisOutcomeCorrelation:
		return "You are correlating a coding pattern's historical outcomes " +
			"(success/failure/neutral) to judge whether the pattern is " +
			"worth recommending. Summarize the correlation strength and " +
			"the evidence behind it."
	default:
		return "You are an assistant analyzing developer memory records. " +
			"Answer concisely and note any uncertainty explicitly."
	}
}

// ParseNumberedSections splits a numbered-list response ("1. Foo\n2. Bar")
// into an ordered slice of section bodies, tolerating the markdown headers
// (`##`) the teacher's prompts frequently produce.
func ParseNumberedSections(content string) []string {
	var sections []string
	var current strings.Builder

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if isSectionHeader(trimmed) {
			if current.Len() > 0 {
				sections = append(sections, strings.TrimSpace(current.String()))
				current.Reset()
			}
			trimmed = stripHeaderMarker(trimmed)
		}
		if trimmed != "" {
			current.WriteString(trimmed)
			current.WriteString("\n")
		}
	}
	if current.Len() > 0 {
		sections = append(sections, strings.TrimSpace(current.String()))
	}
	return sections
}

func isSectionHeader(line string) bool {
	if strings.HasPrefix(line, "##") {
		return true
	}
	if len(line) > 1 && line[0] >= '1' && line[0] <= '9' && (line[1] == '.' || line[1] == ')') {
		return true
	}
	return false
}

func stripHeaderMarker(line string) string {
	line = strings.TrimLeft(line, "#")
	line = strings.TrimSpace(line)
	for i, r := range line {
		if r == '.' || r == ')' {
			return strings.TrimSpace(line[i+1:])
		}
		if r < '0' || r > '9' {
			break
		}
	}
	return line
}

// ParseConfidence looks for an explicit "confidence: 0.NN" style line the
// model may have included and returns it, falling back to ok=false so the
// caller can use HeuristicConfidence instead.
func ParseConfidence(content string) (float64, bool) {
	lower := strings.ToLower(content)
	idx := strings.Index(lower, "confidence")
	if idx == -1 {
		return 0, false
	}
	rest := lower[idx:]
	colon := strings.IndexAny(rest, ":")
	if colon == -1 {
		return 0, false
	}
	rest = strings.TrimSpace(rest[colon+1:])

	var numEnd int
	for numEnd < len(rest) && (rest[numEnd] == '.' || (rest[numEnd] >= '0' && rest[numEnd] <= '9')) {
		numEnd++
	}
	if numEnd == 0 {
		return 0, false
	}
	return parseFloatSafe(rest[:numEnd])
}

func parseFloatSafe(s string) (float64, bool) {
	var whole, frac float64
	var fracDiv float64 = 1
	seenDot := false
	matched := false
	for _, r := range s {
		switch {
		case r == '.' && !seenDot:
			seenDot = true
		case r >= '0' && r <= '9':
			matched = true
			digit := float64(r - '0')
			if seenDot {
				fracDiv *= 10
				frac += digit / fracDiv
			} else {
				whole = whole*10 + digit
			}
		default:
			return 0, false
		}
	}
	if !matched {
		return 0, false
	}
	return clamp(whole+frac, 0, 1), true
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
