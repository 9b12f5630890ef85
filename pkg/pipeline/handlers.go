package pipeline

import (
	"context"
	"fmt"

	"github.com/devmemory/learning-engine/pkg/insights"
	"github.com/devmemory/learning-engine/pkg/outcomes"
	"github.com/devmemory/learning-engine/pkg/patterns"
	"github.com/devmemory/learning-engine/pkg/store"
)

// taskHandler runs one claimed task, returning a short result summary
// stored on the queue row.
type taskHandler func(ctx context.Context, c *Controller, task store.LearningTask) (string, error)

// handlers dispatches by task_type (spec §4.7's four task types).
var handlers = map[store.TaskType]taskHandler{
	store.TaskPatternDetection:   handlePatternDetection,
	store.TaskInsightGeneration:  handleInsightGeneration,
	store.TaskPreferenceAnalysis: handlePreferenceAnalysis,
	store.TaskEvolutionTracking:  handleEvolutionTracking,
}

// patternSweepTypes is the global (scheduled) pattern_detection task's
// memory-type scan scope: every type pkg/patterns' dispatch table handles.
var patternSweepTypes = []store.MemoryType{
	store.MemoryTypeSystemPatterns,
	store.MemoryTypeArchitecture,
	store.MemoryTypeDesignDecisions,
	store.MemoryTypeCode,
	store.MemoryTypeImplementationNotes,
	store.MemoryTypeTechContext,
	store.MemoryTypeBug,
	store.MemoryTypeLessonsLearned,
}

// handlePatternDetection processes either a single real-time-drained memory
// (payload carries memory_id/project_id/content) or, for the scheduled
// global task, sweeps recently created memories across every project.
func handlePatternDetection(ctx context.Context, c *Controller, task store.LearningTask) (string, error) {
	if memoryID, ok := payloadInt64(task.TaskPayload, "memory_id"); ok {
		projectID, _ := payloadInt64(task.TaskPayload, "project_id")
		m := store.Memory{
			ID:         memoryID,
			ProjectID:  projectID,
			Content:    payloadString(task.TaskPayload, "content"),
			MemoryType: store.MemoryType(payloadString(task.TaskPayload, "memory_type")),
		}
		projectName := payloadString(task.TaskPayload, "project_name")
		results, err := patterns.Process(ctx, c.st, c.emb, m, projectName)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("processed memory %d, %d pattern(s)", memoryID, len(results)), nil
	}

	memories, err := c.st.AllMemoriesByTypes(ctx, patternSweepTypes, patternSweepWindowDays)
	if err != nil {
		return "", err
	}

	projectNames := map[int64]string{}
	var processed, found int
	for _, m := range memories {
		projectName, ok := projectNames[m.ProjectID]
		if !ok {
			projectName, err = c.st.ProjectNameByID(ctx, m.ProjectID)
			if err != nil {
				continue
			}
			projectNames[m.ProjectID] = projectName
		}
		results, err := patterns.Process(ctx, c.st, c.emb, m, projectName)
		if err != nil {
			continue
		}
		processed++
		found += len(results)
	}
	return fmt.Sprintf("swept %d memor(ies), %d pattern(s)", processed, found), nil
}

// handleInsightGeneration runs the full six-generator synthesis pass, then
// synthesizes a task memory for every insight touched by this pass that's
// actionable and non-low-priority (spec §4.5 "After generation..."). Scoping
// to this pass's own results, rather than re-scanning every actionable
// insight in the store, keeps a long-lived insight from generating a fresh
// task memory on every recurring run.
func handleInsightGeneration(ctx context.Context, c *Controller, task store.LearningTask) (string, error) {
	touched, err := insights.RunAll(ctx, c.st, c.emb, c.cfg.Threshold)
	if err != nil && len(touched) == 0 {
		return "", err
	}

	for _, ins := range touched {
		if !ins.Actionable || ins.Priority == store.PriorityLow || len(ins.ProjectsInvolved) == 0 {
			continue
		}
		synthesizeTaskMemory(ctx, c, ins)
	}

	return fmt.Sprintf("synthesized %d insight(s)", len(touched)), err
}

// synthesizeTaskMemory writes a task memory into an insight's first
// involved project, titled per spec §4.5's three templates. Failures here
// don't fail the insight_generation task itself.
func synthesizeTaskMemory(ctx context.Context, c *Controller, ins store.MetaInsight) {
	proj, err := c.st.EnsureProject(ctx, ins.ProjectsInvolved[0], "")
	if err != nil {
		return
	}
	title := taskMemoryTitle(ins)
	_, _ = c.st.InsertMemory(ctx, &store.Memory{
		ProjectID:  proj.ID,
		Content:    title + ": " + ins.Description,
		MemoryType: store.MemoryTypeTask,
	})
}

func taskMemoryTitle(ins store.MetaInsight) string {
	switch ins.InsightType {
	case store.InsightAntipattern, store.InsightWarning:
		return "Review and fix " + ins.InsightTitle
	case store.InsightOptimization:
		return "Improve code quality for " + ins.InsightTitle
	default:
		return "Document " + ins.InsightTitle
	}
}

// handlePreferenceAnalysis runs only the Tech Preference generator, for the
// dedicated preference_analysis task type.
func handlePreferenceAnalysis(ctx context.Context, c *Controller, task store.LearningTask) (string, error) {
	touched, err := insights.RunOne(ctx, c.st, c.emb, c.cfg.Threshold, insights.TechPreference)
	return fmt.Sprintf("upserted %d tech preference insight(s)", len(touched)), err
}

// handleEvolutionTracking runs the Evolution generator and then sweeps the
// outcome correlator over any pattern with enough accumulated outcomes.
func handleEvolutionTracking(ctx context.Context, c *Controller, task store.LearningTask) (string, error) {
	touched, err := insights.RunOne(ctx, c.st, c.emb, c.cfg.Threshold, insights.Evolution)
	if err != nil {
		return "", err
	}
	correlated, cerr := outcomes.AnalyzeCorrelations(ctx, c.st, c.llmClient)
	return fmt.Sprintf("upserted %d evolution insight(s), %d correlation(s)", len(touched), correlated), cerr
}
