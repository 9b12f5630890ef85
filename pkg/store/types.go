// Package store is the pgvector-backed persistence layer: projects,
// sessions, memories, coding patterns, insights, outcomes, correlations, the
// learning task queue, and the LLM analysis cache.
package store

import "time"

// MemoryType enumerates the closed set of memory content categories the
// pattern extractor dispatches on.
type MemoryType string

const (
	MemoryTypeCode                MemoryType = "code"
	MemoryTypeImplementationNotes MemoryType = "implementation_notes"
	MemoryTypeArchitecture        MemoryType = "architecture"
	MemoryTypeDesignDecisions     MemoryType = "design_decisions"
	MemoryTypeTechContext         MemoryType = "tech_context"
	MemoryTypeSystemPatterns      MemoryType = "system_patterns"
	MemoryTypeBug                 MemoryType = "bug"
	MemoryTypeLessonsLearned      MemoryType = "lessons_learned"
	MemoryTypeTask                MemoryType = "task"
	MemoryTypeGeneral             MemoryType = "general"
)

// SessionType enumerates the kinds of development session a memory can
// belong to.
type SessionType string

const (
	SessionTypeMemory   SessionType = "memory"
	SessionTypeThinking SessionType = "thinking"
	SessionTypeMixed    SessionType = "mixed"
)

// Project is the top-level owner of sessions and memories.
type Project struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Session groups memories recorded within one development session.
type Session struct {
	ID        int64       `db:"id" json:"id"`
	ProjectID int64       `db:"project_id" json:"project_id"`
	Name      string      `db:"name" json:"name"`
	Type      SessionType `db:"type" json:"type"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
}

// Memory is one ingested unit of free-form developer text, optionally
// embedded into a fixed-dimension vector.
type Memory struct {
	ID              int64      `db:"id" json:"id"`
	ProjectID       int64      `db:"project_id" json:"project_id"`
	SessionID       *int64     `db:"session_id" json:"session_id,omitempty"`
	Content         string     `db:"content" json:"content"`
	MemoryType      MemoryType `db:"memory_type" json:"memory_type"`
	Embedding       []float32  `db:"embedding" json:"-"`
	EmbeddingModel  string     `db:"embedding_model" json:"embedding_model"`
	ImportanceScore float64    `db:"importance_score" json:"importance_score"`
	Tags            []string   `db:"tags" json:"tags"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// PatternCategory is the closed set a coding pattern's category is
// normalized into before insert (spec §4.4 type-normalization table).
type PatternCategory string

const (
	CategoryArchitectural        PatternCategory = "architectural"
	CategoryCreational           PatternCategory = "creational"
	CategoryStructural           PatternCategory = "structural"
	CategoryBehavioral           PatternCategory = "behavioral"
	CategoryConcurrency          PatternCategory = "concurrency"
	CategoryDataProcessing       PatternCategory = "data_processing"
	CategoryAPIPatterns          PatternCategory = "api_patterns"
	CategoryMessaging            PatternCategory = "messaging"
	CategoryDatabase             PatternCategory = "database"
	CategoryDistributed          PatternCategory = "distributed"
	CategorySecurity             PatternCategory = "security"
	CategoryPerformance          PatternCategory = "performance"
	CategoryErrorHandling        PatternCategory = "error_handling"
	CategoryTesting              PatternCategory = "testing"
	CategoryFrontend             PatternCategory = "frontend"
	CategoryMobile               PatternCategory = "mobile"
	CategoryDevOps               PatternCategory = "devops"
	CategoryCodeOrganization     PatternCategory = "code_organization"
	CategoryProcessMethodology   PatternCategory = "process_methodology"
	CategoryCloudPlatforms       PatternCategory = "cloud_platforms"
	CategoryDataEngineering      PatternCategory = "data_engineering"
	CategoryAlgorithms           PatternCategory = "algorithms"
	CategoryReliability          PatternCategory = "reliability"
	CategoryObservability        PatternCategory = "observability"
	CategoryDeployment           PatternCategory = "deployment"
	CategoryProgrammingParadigms PatternCategory = "programming_paradigms"
	CategoryNetworkProtocols     PatternCategory = "network_protocols"
	CategoryUserExperience       PatternCategory = "user_experience"
	CategoryQualityAssurance     PatternCategory = "quality_assurance"
	CategoryInfrastructureOps    PatternCategory = "infrastructure_ops"

	// CategoryAntiPattern is not part of the general keyword catalog's 30
	// categories but is the category assigned to patterns extracted from
	// bug-type memories (spec §4.4's anti-pattern dictionary); the Best
	// Practice generator excludes it explicitly (spec §4.5 generator 1).
	CategoryAntiPattern PatternCategory = "anti_pattern"

	// CategoryTechStack is likewise outside the general catalog; it's the
	// category assigned to patterns extracted from tech_context memories
	// (spec §4.4's tech-stack dictionary).
	CategoryTechStack PatternCategory = "tech_stack"
)

// PatternType is the closed enum a pattern's extracted type is normalized
// into (spec §4.4 "Type normalization").
type PatternType string

const (
	PatternTypeAPIDesign        PatternType = "api_design"
	PatternTypeFunctionStruct   PatternType = "function_structure"
	PatternTypeSecurity         PatternType = "security"
	PatternTypeErrorHandling    PatternType = "error_handling"
)

// CodingPattern is a recurring pattern mined from memories, identified by
// its globally-unique signature.
type CodingPattern struct {
	ID               int64           `db:"id" json:"id"`
	PatternSignature string          `db:"pattern_signature" json:"pattern_signature"`
	PatternCategory  PatternCategory `db:"pattern_category" json:"pattern_category"`
	PatternType      PatternType     `db:"pattern_type" json:"pattern_type"`
	PatternName      string          `db:"pattern_name" json:"pattern_name"`
	PatternDesc      string          `db:"pattern_description" json:"pattern_description"`
	Languages        []string        `db:"languages" json:"languages"`
	ProjectsSeen     []string        `db:"projects_seen" json:"projects_seen"`
	FrequencyCount   int             `db:"frequency_count" json:"frequency_count"`
	ConfidenceScore  float64         `db:"confidence_score" json:"confidence_score"`
	PatternEmbedding []float32       `db:"pattern_embedding" json:"-"`
	ExampleCode      string          `db:"example_code" json:"example_code,omitempty"`
	Metadata         JSONMap         `db:"metadata" json:"metadata"`
	LastReinforced   time.Time       `db:"last_reinforced" json:"last_reinforced"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// OutcomeType enumerates how a pattern's use in a project turned out.
type OutcomeType string

const (
	OutcomeSuccess        OutcomeType = "success"
	OutcomeFailure        OutcomeType = "failure"
	OutcomeNeutral        OutcomeType = "neutral"
	OutcomeBug            OutcomeType = "bug"
	OutcomePerformanceGain OutcomeType = "performance_gain"
)

// PatternOutcome is one append-only record of a pattern's real-world result
// in a project.
type PatternOutcome struct {
	ID          int64       `db:"id" json:"id"`
	ProjectID   int64       `db:"project_id" json:"project_id"`
	PatternID   int64       `db:"pattern_id" json:"pattern_id"`
	OutcomeType OutcomeType `db:"outcome_type" json:"outcome_type"`
	OutcomeValue float64    `db:"outcome_value" json:"outcome_value"`
	Description string      `db:"description" json:"description"`
	Metrics     JSONMap     `db:"metrics" json:"metrics"`
	RecordedAt  time.Time   `db:"recorded_at" json:"recorded_at"`
}

// CorrelationStrength is the closed classification of a pattern's
// success-rate-based correlation with project outcomes.
type CorrelationStrength string

const (
	StrongPositive   CorrelationStrength = "strong_positive"
	ModeratePositive CorrelationStrength = "moderate_positive"
	CorrelationNeutral CorrelationStrength = "neutral"
	ModerateNegative CorrelationStrength = "moderate_negative"
	StrongNegative   CorrelationStrength = "strong_negative"
)

// AnalysisMethod records whether a correlation was computed purely from
// success-rate rules or with LLM-assisted narrative augmentation.
type AnalysisMethod string

const (
	AnalysisRuleBased AnalysisMethod = "rule_based"
	AnalysisLLMPowered AnalysisMethod = "llm_powered"
)

// PatternCorrelation is the single current correlation row per pattern.
type PatternCorrelation struct {
	ID                  int64               `db:"id" json:"id"`
	PatternID           int64               `db:"pattern_id" json:"pattern_id"`
	CorrelationStrength CorrelationStrength `db:"correlation_strength" json:"correlation_strength"`
	ConfidenceScore     float64             `db:"confidence_score" json:"confidence_score"`
	SampleSize          int                 `db:"sample_size" json:"sample_size"`
	AnalysisMethod      AnalysisMethod      `db:"analysis_method" json:"analysis_method"`
	Insights            string              `db:"insights" json:"insights"`
	Metadata            JSONMap             `db:"metadata" json:"metadata"`
	UpdatedAt           time.Time           `db:"updated_at" json:"updated_at"`
}

// InsightType is the closed set of meta-insight families the synthesizer
// produces.
type InsightType string

const (
	InsightBestPractice InsightType = "best_practice"
	InsightAntipattern  InsightType = "antipattern"
	InsightPreference   InsightType = "preference"
	InsightTrend        InsightType = "trend"
	InsightWarning      InsightType = "warning"
	InsightOptimization InsightType = "optimization"
)

// InsightPriority is the closed priority band attached to an insight.
type InsightPriority string

const (
	PriorityLow    InsightPriority = "low"
	PriorityMedium InsightPriority = "medium"
	PriorityHigh   InsightPriority = "high"
)

// MetaInsight is a synthesized, cross-memory/pattern/outcome observation,
// upserted by its title.
type MetaInsight struct {
	ID                 int64           `db:"id" json:"id"`
	InsightType        InsightType     `db:"insight_type" json:"insight_type"`
	InsightCategory    string          `db:"insight_category" json:"insight_category"`
	InsightTitle       string          `db:"insight_title" json:"insight_title"`
	Description        string          `db:"description" json:"description"`
	ConfidenceLevel    float64         `db:"confidence_level" json:"confidence_level"`
	EvidenceStrength   float64         `db:"evidence_strength" json:"evidence_strength"`
	ProjectsInvolved   []string        `db:"projects_involved" json:"projects_involved"`
	SupportingPatterns []int64         `db:"supporting_patterns" json:"supporting_patterns"`
	Metadata           JSONMap         `db:"metadata" json:"metadata"`
	Actionable         bool            `db:"actionable" json:"actionable"`
	Priority           InsightPriority `db:"priority" json:"priority"`
	InsightEmbedding   []float32       `db:"insight_embedding" json:"-"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
	LastReinforced     time.Time       `db:"last_reinforced" json:"last_reinforced"`
}

// TaskType is the closed set of recurring learning analyses the pipeline
// schedules and the real-time hook enqueues.
type TaskType string

const (
	TaskPatternDetection    TaskType = "pattern_detection"
	TaskInsightGeneration   TaskType = "insight_generation"
	TaskPreferenceAnalysis  TaskType = "preference_analysis"
	TaskEvolutionTracking   TaskType = "evolution_tracking"
)

// TaskPriority is the closed set of queue priorities in use; lower values
// are served earlier.
type TaskPriority int

const (
	PriorityPatternDetection   TaskPriority = 3
	PriorityInsightGeneration  TaskPriority = 4
	PriorityPreferenceAnalysis TaskPriority = 5
	PriorityEvolutionTracking  TaskPriority = 6
)

// TaskStatus is the learning task's state-machine position.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusProcessing TaskStatus = "processing"
	StatusCompleted  TaskStatus = "completed"
	StatusFailed     TaskStatus = "failed"
	StatusRetry      TaskStatus = "retry"
)

// LearningTask is one row in the durable priority task queue.
type LearningTask struct {
	ID                    int64        `db:"id" json:"id"`
	TaskType              TaskType     `db:"task_type" json:"task_type"`
	TaskPriority          TaskPriority `db:"task_priority" json:"task_priority"`
	TaskPayload           JSONMap      `db:"task_payload" json:"task_payload"`
	Status                TaskStatus   `db:"status" json:"status"`
	ScheduledFor          time.Time    `db:"scheduled_for" json:"scheduled_for"`
	StartedAt             *time.Time   `db:"started_at" json:"started_at,omitempty"`
	CompletedAt           *time.Time   `db:"completed_at" json:"completed_at,omitempty"`
	RetryCount            int          `db:"retry_count" json:"retry_count"`
	MaxRetries            int          `db:"max_retries" json:"max_retries"`
	ErrorMessage          string       `db:"error_message" json:"error_message,omitempty"`
	ProcessingDurationMs  int64        `db:"processing_duration_ms" json:"processing_duration_ms,omitempty"`
	ResultSummary         string       `db:"result_summary" json:"result_summary,omitempty"`
	CreatedAt             time.Time    `db:"created_at" json:"created_at"`
}

// LLMAnalysisCache is the durable, content-hash-keyed cache row backing the
// LLM client's second cache layer.
type LLMAnalysisCache struct {
	ContentHash    string    `db:"content_hash" json:"content_hash"`
	AnalysisType   string    `db:"analysis_type" json:"analysis_type"`
	ModelUsed       string    `db:"model_used" json:"model_used"`
	InputData       string    `db:"input_data" json:"input_data"`
	AnalysisResult  string    `db:"analysis_result" json:"analysis_result"`
	ConfidenceScore float64   `db:"confidence_score" json:"confidence_score"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	ExpiresAt       time.Time `db:"expires_at" json:"expires_at"`
}

// PatternOccurrence is one reinforcement event for a pattern, materializing
// Open Question #1 branch (a): required for evolution-bucket analysis.
type PatternOccurrence struct {
	ID         int64     `db:"id" json:"id"`
	PatternID  int64     `db:"pattern_id" json:"pattern_id"`
	MemoryID   int64     `db:"memory_id" json:"memory_id"`
	ProjectID  int64     `db:"project_id" json:"project_id"`
	OccurredAt time.Time `db:"occurred_at" json:"occurred_at"`
}

// TechPreference is an upserted per-project technology-usage rollup written
// by the Tech Preference generator.
type TechPreference struct {
	ID            int64     `db:"id" json:"id"`
	ProjectID     int64     `db:"project_id" json:"project_id"`
	Technology    string    `db:"technology" json:"technology"`
	Category      string    `db:"category" json:"category"`
	MentionCount  int       `db:"mention_count" json:"mention_count"`
	AvgImportance float64   `db:"avg_importance" json:"avg_importance"`
	LastSeen      time.Time `db:"last_seen" json:"last_seen"`
}

// LearningEvolution is a monthly occurrence rollup for a pattern, refreshed
// by the evolution-tracking task from PatternOccurrence rows.
type LearningEvolution struct {
	ID              int64  `db:"id" json:"id"`
	PatternID       int64  `db:"pattern_id" json:"pattern_id"`
	MonthBucket     string `db:"month_bucket" json:"month_bucket"`
	OccurrenceCount int    `db:"occurrence_count" json:"occurrence_count"`
}

// DecisionPattern links a design-decision keyword to the pattern it
// produced within a project. The pattern extractor writes these rows; no
// insight generator reads them.
type DecisionPattern struct {
	ID              int64  `db:"id" json:"id"`
	ProjectID       int64  `db:"project_id" json:"project_id"`
	DecisionKeyword string `db:"decision_keyword" json:"decision_keyword"`
	PatternID       int64  `db:"pattern_id" json:"pattern_id"`
	OccurrenceCount int    `db:"occurrence_count" json:"occurrence_count"`
}

// JSONMap is the schemaless structured value used for task payloads and
// metadata blobs (spec §9 "Dynamic JSON metadata").
type JSONMap map[string]interface{}
