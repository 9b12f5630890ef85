// Package insights synthesizes cross-memory, cross-pattern meta-insights
// (spec §4.5): six independent generators each produce candidate insights,
// which are embedded and upserted through the store's title-keyed
// reinforce-vs-create path, same shape as pkg/patterns' pattern upsert.
package insights

import (
	"context"
	"fmt"

	"github.com/devmemory/learning-engine/internal/config"
	"github.com/devmemory/learning-engine/pkg/embedding"
	sharederrors "github.com/devmemory/learning-engine/pkg/shared/errors"
	"github.com/devmemory/learning-engine/pkg/store"
)

// bestPracticeMinConfidence is the fixed confidence floor the Best Practice
// generator requires in addition to the configurable frequency/project
// thresholds (spec §4.5 generator 1).
const bestPracticeMinConfidence = 0.75

// evolutionWindowMonths bounds how far back the Evolution generator looks
// when bucketing pattern_occurrences.
const evolutionWindowMonths = 6

// antiPatternWindowDays is the +/- co-occurrence window the Anti-pattern
// generator uses when joining pattern_occurrences to bug memories.
const antiPatternWindowDays = 14

// teamPatternWindowDays bounds the Team Pattern generator's memory-type mix
// analysis.
const teamPatternWindowDays = 30

// qualityMinSampleSize is the minimum correlation sample size the Quality
// generator requires before flagging a pattern as risky.
const qualityMinSampleSize = 5

// Generator produces zero or more candidate insights from the store's
// current state. Each of the six spec §4.5 generators implements this
// shape.
type Generator func(ctx context.Context, st *store.Pool, thresholds config.ThresholdConfig) ([]store.NewInsight, error)

// Generators lists the six synthesizer passes in the order spec §4.5
// enumerates them.
var Generators = []Generator{
	BestPractice,
	AntiPattern,
	TechPreference,
	Evolution,
	TeamPattern,
	Quality,
}

// RunAll executes every generator, embeds each candidate insight's
// description, and upserts it. A single generator's failure doesn't stop
// the others; all errors are joined in the returned error. The returned
// insights are exactly the rows touched by this call (newly created or
// reinforced), not the full historical table.
func RunAll(ctx context.Context, st *store.Pool, emb *embedding.Client, thresholds config.ThresholdConfig) ([]store.MetaInsight, error) {
	var touched []store.MetaInsight
	var errs []error

	for _, gen := range Generators {
		ins, err := RunOne(ctx, st, emb, thresholds, gen)
		touched = append(touched, ins...)
		if err != nil {
			errs = append(errs, err)
		}
	}

	return touched, sharederrors.Chain(errs...)
}

// RunOne executes a single generator and upserts its candidates, for
// callers (the preference_analysis / evolution_tracking task handlers) that
// want to run one generator in isolation rather than the full sweep. It
// returns the insight rows touched by this call.
func RunOne(ctx context.Context, st *store.Pool, emb *embedding.Client, thresholds config.ThresholdConfig, gen Generator) ([]store.MetaInsight, error) {
	var touched []store.MetaInsight
	var errs []error

	candidates, err := gen(ctx, st, thresholds)
	if err != nil {
		return nil, err
	}
	for _, ni := range candidates {
		if emb != nil {
			vec, _, err := emb.Embed(ctx, ni.Description, "")
			if err != nil {
				errs = append(errs, sharederrors.WithKind(sharederrors.ErrEmbedding, "embed insight description for "+ni.Title, err))
			} else {
				ni.Embedding = vec
			}
		}
		ins, err := st.UpsertInsight(ctx, ni)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		touched = append(touched, ins)
	}

	return touched, sharederrors.Chain(errs...)
}

func priorityFor(confidence float64) store.InsightPriority {
	switch {
	case confidence >= 0.85:
		return store.PriorityHigh
	case confidence >= 0.6:
		return store.PriorityMedium
	default:
		return store.PriorityLow
	}
}

func titlef(format string, args ...interface{}) string {
	return fmt.Sprintf(format, args...)
}
