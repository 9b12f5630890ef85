package insights

import (
	"context"
	"strings"

	"github.com/devmemory/learning-engine/internal/config"
	"github.com/devmemory/learning-engine/pkg/store"
)

// BestPractice surfaces patterns confident and widely-reinforced enough to
// recommend outright (spec §4.5 generator 1): confidence above a fixed
// floor, frequency and project-spread above the configured thresholds,
// excluding anything tagged anti_pattern (enforced in the store query).
func BestPractice(ctx context.Context, st *store.Pool, thresholds config.ThresholdConfig) ([]store.NewInsight, error) {
	patterns, err := st.PatternsForBestPractice(ctx, bestPracticeMinConfidence, thresholds.PatternMinFrequency, thresholds.PreferenceMinProjects)
	if err != nil {
		return nil, err
	}

	out := make([]store.NewInsight, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, store.NewInsight{
			Type:               store.InsightBestPractice,
			Category:           string(p.PatternCategory),
			Title:              titlef("Best Practice: %s", p.PatternName),
			Description:        titlef("%s has been reinforced %d times across %d project(s) with %.0f%% confidence: %s", p.PatternName, p.FrequencyCount, len(p.ProjectsSeen), p.ConfidenceScore*100, p.PatternDesc),
			ConfidenceLevel:    p.ConfidenceScore,
			EvidenceStrength:   float64(p.FrequencyCount),
			ProjectsInvolved:   p.ProjectsSeen,
			SupportingPatterns: []int64{p.ID},
			Metadata:           store.JSONMap{"generator": "best_practice", "pattern_signature": p.PatternSignature},
			Actionable:         true,
			Priority:           priorityFor(p.ConfidenceScore),
		})
	}
	return out, nil
}

// AntiPattern flags patterns that repeatedly co-occur with bug reports in
// the same project within a short window (spec §4.5 generator 2) — a
// pattern that keeps showing up near bug memories is a liability candidate
// regardless of how confidently it was originally extracted.
func AntiPattern(ctx context.Context, st *store.Pool, thresholds config.ThresholdConfig) ([]store.NewInsight, error) {
	cooccurrences, err := st.AntiPatternCooccurrences(ctx, antiPatternWindowDays, thresholds.PatternMinFrequency)
	if err != nil {
		return nil, err
	}

	out := make([]store.NewInsight, 0, len(cooccurrences))
	for _, c := range cooccurrences {
		confidence := clamp01(float64(c.Count) / 10.0)
		out = append(out, store.NewInsight{
			Type:               store.InsightAntipattern,
			Category:           "anti_pattern",
			Title:              titlef("Anti-pattern Risk: %s in %s", c.Signature, c.ProjectName),
			Description:        titlef("Pattern %s has co-occurred with %d bug report(s) in %s within a %d-day window.", c.Signature, c.Count, c.ProjectName, antiPatternWindowDays),
			ConfidenceLevel:    confidence,
			EvidenceStrength:   float64(c.Count),
			ProjectsInvolved:   []string{c.ProjectName},
			SupportingPatterns: []int64{c.PatternID},
			Metadata:           store.JSONMap{"generator": "anti_pattern", "window_days": antiPatternWindowDays},
			Actionable:         true,
			Priority:           store.PriorityHigh,
		})
	}
	return out, nil
}

// techCatalog is a small single-technology keyword list the Tech Preference
// generator matches against tech_context memories (distinct from
// pkg/patterns' multi-component stack dictionary, which requires several
// simultaneous matches).
var techCatalog = []struct{ name, category string }{
	{"docker", "devops"}, {"kubernetes", "devops"}, {"postgres", "database"},
	{"redis", "database"}, {"react", "frontend"}, {"vue", "frontend"},
	{"angular", "frontend"}, {"python", "language"}, {"golang", "language"},
	{"typescript", "language"}, {"graphql", "api"}, {"grpc", "api"},
	{"kafka", "messaging"}, {"terraform", "infrastructure"}, {"aws", "cloud"},
	{"mongodb", "database"},
}

// matchTechnologies returns every techCatalog entry whose name appears in
// content, pulled out of TechPreference so the match logic is testable
// without a store.
func matchTechnologies(content string) []struct{ name, category string } {
	lower := " " + strings.ToLower(content) + " "
	var matches []struct{ name, category string }
	for _, tech := range techCatalog {
		if strings.Contains(lower, tech.name) {
			matches = append(matches, tech)
		}
	}
	return matches
}

// TechPreference rolls up technology mentions per project from tech_context
// memories into tech_preferences, then reports the ones mentioned often
// enough to call a preference (spec §4.5 generator 3).
func TechPreference(ctx context.Context, st *store.Pool, thresholds config.ThresholdConfig) ([]store.NewInsight, error) {
	memories, err := st.AllMemoriesByTypes(ctx, []store.MemoryType{store.MemoryTypeTechContext}, teamPatternWindowDays)
	if err != nil {
		return nil, err
	}

	importance := func(m store.Memory) float64 {
		if m.ImportanceScore > 0 {
			return m.ImportanceScore
		}
		return 0.5
	}

	for _, m := range memories {
		for _, tech := range matchTechnologies(m.Content) {
			if err := st.UpsertTechPreference(ctx, m.ProjectID, tech.name, tech.category, importance(m)); err != nil {
				return nil, err
			}
		}
	}

	projects, err := st.ListProjects(ctx)
	if err != nil {
		return nil, err
	}

	var out []store.NewInsight
	for _, proj := range projects {
		prefs, err := st.ListTechPreferences(ctx, proj.ID, thresholds.PreferenceMinProjects)
		if err != nil {
			return nil, err
		}
		for _, pref := range prefs {
			out = append(out, store.NewInsight{
				Type:             store.InsightPreference,
				Category:         pref.Category,
				Title:            titlef("Tech Preference: %s uses %s", proj.Name, pref.Technology),
				Description:      titlef("%s has mentioned %s %d times (avg importance %.2f) in recent tech_context memories.", proj.Name, pref.Technology, pref.MentionCount, pref.AvgImportance),
				ConfidenceLevel:  clamp01(pref.AvgImportance),
				EvidenceStrength: float64(pref.MentionCount),
				ProjectsInvolved: []string{proj.Name},
				Metadata:         store.JSONMap{"generator": "tech_preference", "technology": pref.Technology},
				Actionable:       false,
				Priority:         store.PriorityLow,
			})
		}
	}
	return out, nil
}

// Evolution tracks a pattern's monthly occurrence trend and flags patterns
// whose usage has changed materially over the window (spec §4.5 generator
// 4), using pattern_occurrences bucketed by EvolutionBuckets.
func Evolution(ctx context.Context, st *store.Pool, thresholds config.ThresholdConfig) ([]store.NewInsight, error) {
	patterns, err := st.ListPatterns(ctx, store.PatternFilter{Limit: 500})
	if err != nil {
		return nil, err
	}

	var out []store.NewInsight
	for _, p := range patterns {
		buckets, err := st.EvolutionBuckets(ctx, p.ID, evolutionWindowMonths)
		if err != nil {
			return nil, err
		}
		if len(buckets) < 2 {
			continue
		}
		first, last := buckets[0].OccurrenceCount, buckets[len(buckets)-1].OccurrenceCount
		if first == 0 {
			continue
		}
		change := float64(last-first) / float64(first)
		if change < thresholds.EvolutionMinChange && change > -thresholds.EvolutionMinChange {
			continue
		}

		direction := "increased"
		if change < 0 {
			direction = "decreased"
		}
		out = append(out, store.NewInsight{
			Type:               store.InsightTrend,
			Category:           string(p.PatternCategory),
			Title:              titlef("Evolution: %s usage %s", p.PatternName, direction),
			Description:        titlef("%s went from %d to %d occurrence(s)/month over the last %d months (%.0f%% change).", p.PatternName, first, last, evolutionWindowMonths, change*100),
			ConfidenceLevel:    clamp01(p.ConfidenceScore),
			EvidenceStrength:   float64(p.FrequencyCount),
			ProjectsInvolved:   p.ProjectsSeen,
			SupportingPatterns: []int64{p.ID},
			Metadata:           store.JSONMap{"generator": "evolution", "change_ratio": change},
			Actionable:         false,
			Priority:           store.PriorityLow,
		})
	}
	return out, nil
}

// TeamPattern characterizes a project's recent memory-type mix: a bug-heavy
// mix is flagged as a warning, a design-heavy mix as a positive trend (spec
// §4.5 generator 5).
func TeamPattern(ctx context.Context, st *store.Pool, thresholds config.ThresholdConfig) ([]store.NewInsight, error) {
	projects, err := st.ListProjects(ctx)
	if err != nil {
		return nil, err
	}

	var out []store.NewInsight
	for _, proj := range projects {
		counts, total, err := st.ProjectMemoryTypeCounts(ctx, proj.ID, teamPatternWindowDays)
		if err != nil {
			return nil, err
		}
		if total < thresholds.InsightMinEvidence {
			continue
		}

		bugRatio := float64(counts[store.MemoryTypeBug]) / float64(total)
		designRatio := float64(counts[store.MemoryTypeArchitecture]+counts[store.MemoryTypeDesignDecisions]) / float64(total)

		switch {
		case bugRatio >= 0.3:
			out = append(out, store.NewInsight{
				Type:             store.InsightWarning,
				Category:         "team_pattern",
				Title:            titlef("Team Pattern: %s is bug-heavy", proj.Name),
				Description:      titlef("%.0f%% of %s's recent memories are bug reports (%d of %d).", bugRatio*100, proj.Name, counts[store.MemoryTypeBug], total),
				ConfidenceLevel:  clamp01(bugRatio),
				EvidenceStrength: float64(total),
				ProjectsInvolved: []string{proj.Name},
				Metadata:         store.JSONMap{"generator": "team_pattern", "bug_ratio": bugRatio},
				Actionable:       true,
				Priority:         store.PriorityHigh,
			})
		case designRatio >= 0.3:
			out = append(out, store.NewInsight{
				Type:             store.InsightTrend,
				Category:         "team_pattern",
				Title:            titlef("Team Pattern: %s invests in up-front design", proj.Name),
				Description:      titlef("%.0f%% of %s's recent memories are architecture/design decisions (%d of %d).", designRatio*100, proj.Name, counts[store.MemoryTypeArchitecture]+counts[store.MemoryTypeDesignDecisions], total),
				ConfidenceLevel:  clamp01(designRatio),
				EvidenceStrength: float64(total),
				ProjectsInvolved: []string{proj.Name},
				Metadata:         store.JSONMap{"generator": "team_pattern", "design_ratio": designRatio},
				Actionable:       false,
				Priority:         store.PriorityLow,
			})
		}
	}
	return out, nil
}

// Quality flags patterns whose recorded outcomes correlate negatively with
// project success once enough outcomes have accumulated (spec §4.5
// generator 6), reusing the Outcome Correlator's rule-based classification
// rather than recomputing it.
func Quality(ctx context.Context, st *store.Pool, thresholds config.ThresholdConfig) ([]store.NewInsight, error) {
	patterns, err := st.ListPatterns(ctx, store.PatternFilter{Limit: 500})
	if err != nil {
		return nil, err
	}

	var out []store.NewInsight
	for _, p := range patterns {
		corr, err := st.CorrelationForPattern(ctx, p.ID)
		if err != nil {
			continue // no correlation computed yet: not an error, just nothing to report
		}
		if corr.SampleSize < qualityMinSampleSize {
			continue
		}
		if corr.CorrelationStrength != store.ModerateNegative && corr.CorrelationStrength != store.StrongNegative {
			continue
		}

		out = append(out, store.NewInsight{
			Type:               store.InsightWarning,
			Category:           string(p.PatternCategory),
			Title:              titlef("Quality Risk: %s correlates with worse outcomes", p.PatternName),
			Description:        titlef("%s has a %s outcome correlation across %d sample(s): %s", p.PatternName, corr.CorrelationStrength, corr.SampleSize, corr.Insights),
			ConfidenceLevel:    corr.ConfidenceScore,
			EvidenceStrength:   float64(corr.SampleSize),
			ProjectsInvolved:   p.ProjectsSeen,
			SupportingPatterns: []int64{p.ID},
			Metadata:           store.JSONMap{"generator": "quality", "correlation_strength": string(corr.CorrelationStrength)},
			Actionable:         true,
			Priority:           store.PriorityHigh,
		})
	}
	return out, nil
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

