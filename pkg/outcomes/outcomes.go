// Package outcomes records how a coding pattern's use in a project actually
// turned out, and correlates the append-only outcome log into a single
// classified strength per pattern (spec §4.6).
package outcomes

import (
	"context"
	"fmt"

	"github.com/devmemory/learning-engine/pkg/llm"
	"github.com/devmemory/learning-engine/pkg/store"
)

// significantEvents maps the fixed set of external lifecycle events
// TriggerOutcomeAnalysis recognizes onto the outcome type
// they record against every pattern used recently in the triggering
// project (spec §4.6 "triggerOutcomeAnalysis").
var significantEvents = map[string]store.OutcomeType{
	"project_completion":      store.OutcomeSuccess,
	"bug_report":              store.OutcomeBug,
	"major_bug":               store.OutcomeFailure,
	"performance_improvement": store.OutcomePerformanceGain,
	"test_failure":            store.OutcomeFailure,
	"security_issue":          store.OutcomeFailure,
	"deployment_success":      store.OutcomeSuccess,
	"refactor_completion":     store.OutcomeSuccess,
}

// outcomeWindowDays bounds how recently a pattern must have been reinforced
// in a project to be considered "used" by a triggering event.
const outcomeWindowDays = 30

// RecordPatternOutcome resolves a project and pattern by name/signature and
// appends one outcome observation for it.
func RecordPatternOutcome(ctx context.Context, st *store.Pool, projectName, patternSignature string, outcomeType store.OutcomeType, value float64, description string, metrics store.JSONMap) (int64, error) {
	proj, err := st.ProjectByName(ctx, projectName)
	if err != nil {
		return 0, err
	}
	pattern, err := st.GetPatternBySignature(ctx, patternSignature)
	if err != nil {
		return 0, err
	}
	return st.RecordOutcome(ctx, proj.ID, pattern.ID, outcomeType, value, description, metrics)
}

// ruleBasedMinOutcomes / llmMinOutcomes are spec §4.6 step 2's sample-size
// floors: the rule-based path tolerates thinner evidence than the LLM path.
const ruleBasedMinOutcomes = 2
const llmMinOutcomes = 3

// significantCorrelationEvents is the subset of significantEvents that also
// triggers an immediate correlation sweep (spec §4.6 "triggerOutcomeAnalysis"
// final sentence).
var significantCorrelationEvents = map[string]bool{
	"project_completion":      true,
	"major_bug":               true,
	"performance_improvement": true,
}

// TriggerOutcomeAnalysis implements spec §4.6's significant-event hook: an
// external caller reports that eventType happened in projectName, and every
// pattern recently used in that project gets one outcome row recorded
// against the event's fixed outcome type. For the subset of events the spec
// calls out as significant, it also runs an immediate correlation sweep.
func TriggerOutcomeAnalysis(ctx context.Context, st *store.Pool, llmClient *llm.Client, projectName, eventType string) (int, error) {
	outcomeType, ok := significantEvents[eventType]
	if !ok {
		return 0, nil
	}

	proj, err := st.ProjectByName(ctx, projectName)
	if err != nil {
		return 0, err
	}

	patternIDs, err := st.PatternsUsedInProject(ctx, proj.ID, outcomeWindowDays)
	if err != nil {
		return 0, err
	}

	value := 1.0
	if outcomeType == store.OutcomeFailure || outcomeType == store.OutcomeBug {
		value = 0.0
	}

	for _, patternID := range patternIDs {
		if _, err := st.RecordOutcome(ctx, proj.ID, patternID, outcomeType, value,
			fmt.Sprintf("triggered by event %q", eventType), store.JSONMap{"event_type": eventType}); err != nil {
			return 0, err
		}
	}

	if significantCorrelationEvents[eventType] {
		if _, err := AnalyzeCorrelations(ctx, st, llmClient); err != nil {
			return len(patternIDs), err
		}
	}

	return len(patternIDs), nil
}

// outcomeCounts folds a pattern's outcome log per spec §4.6 step 3: only
// success/performance_gain and failure/bug outcomes enter the rate; neutral
// outcomes are recorded but don't move it either way.
func outcomeCounts(outcomes []store.PatternOutcome) (succ, fail int) {
	for _, o := range outcomes {
		switch o.OutcomeType {
		case store.OutcomeSuccess, store.OutcomePerformanceGain:
			succ++
		case store.OutcomeFailure, store.OutcomeBug:
			fail++
		}
	}
	return succ, fail
}

// classify implements spec §4.6 step 3's rule-based thresholds and
// confidence formula, n being the count of outcomes the rate was computed
// over (succ+fail).
func classify(rate float64, n int) (store.CorrelationStrength, float64) {
	switch {
	case rate >= 0.8:
		return store.StrongPositive, minf(0.9, 0.6+0.1*float64(n))
	case rate >= 0.6:
		return store.ModeratePositive, minf(0.7, 0.5+0.05*float64(n))
	case rate <= 0.2:
		return store.StrongNegative, minf(0.9, 0.6+0.1*float64(n))
	case rate <= 0.4:
		return store.ModerateNegative, minf(0.7, 0.5+0.05*float64(n))
	default:
		return store.CorrelationNeutral, 0.5
	}
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// AnalyzeCorrelations finds every pattern with enough accumulated outcomes
// to (re)compute a correlation, classifies each by success rate, optionally
// asks the LLM client for a short narrative when the sample is large enough,
// and writes the result (spec §4.6 "analyzePatternOutcomeCorrelations").
// llmClient may be nil, in which case every pattern uses the rule-based path.
func AnalyzeCorrelations(ctx context.Context, st *store.Pool, llmClient *llm.Client) (int, error) {
	patternIDs, err := st.PatternsNeedingCorrelation(ctx, ruleBasedMinOutcomes)
	if err != nil {
		return 0, err
	}

	var written int
	for _, patternID := range patternIDs {
		patternOutcomes, err := st.OutcomesForPattern(ctx, patternID)
		if err != nil {
			return written, err
		}

		succ, fail := outcomeCounts(patternOutcomes)
		n := succ + fail
		if n < ruleBasedMinOutcomes {
			continue
		}
		rate := float64(succ) / float64(n)
		strength, confidence := classify(rate, n)

		narrative := fmt.Sprintf("%s correlation observed across %d outcome(s) (success rate %.0f%%).", strength, n, rate*100)
		method := store.AnalysisRuleBased
		if llmClient != nil && n >= llmMinOutcomes {
			analysis, err := llmClient.Generate(ctx,
				"Summarize this pattern's outcome correlation in one or two sentences, naming the correlation strength.",
				narrative, llm.AnalysisOutcomeCorrelation)
			if err == nil && analysis.Content != "" {
				narrative = analysis.Content
				method = store.AnalysisLLMPowered
			}
		}

		if _, err := st.UpsertCorrelation(ctx, store.PatternCorrelation{
			PatternID:           patternID,
			CorrelationStrength: strength,
			ConfidenceScore:     confidence,
			SampleSize:          n,
			AnalysisMethod:      method,
			Insights:            narrative,
			Metadata:            store.JSONMap{"success_rate": rate},
		}); err != nil {
			return written, err
		}
		written++
	}

	return written, nil
}
