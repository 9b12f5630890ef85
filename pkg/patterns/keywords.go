package patterns

import (
	"strings"

	"github.com/devmemory/learning-engine/pkg/store"
)

// generalEntry is one row of the closed ~40-pattern keyword catalog the
// general extractor matches against every memory regardless of type (spec
// §4.4's "general keyword extractor").
type generalEntry struct {
	category store.PatternCategory
	rawType  string
	name     string
	signature string
	keywords []string
}

// generalCatalog spans the 30 closed pattern categories with one or two
// representative entries each.
var generalCatalog = []generalEntry{
	{store.CategoryArchitectural, "architectural", "Microservices Architecture", "kw_microservices", []string{"microservice", "microservices"}},
	{store.CategoryArchitectural, "architectural", "Event-Driven Architecture", "kw_event_driven", []string{"event driven", "event-driven", "event bus"}},
	{store.CategoryCreational, "design", "Singleton Pattern", "kw_singleton", []string{"singleton"}},
	{store.CategoryCreational, "design", "Factory Pattern", "kw_factory", []string{"factory pattern", "factory method"}},
	{store.CategoryStructural, "design", "Adapter Pattern", "kw_adapter", []string{"adapter pattern"}},
	{store.CategoryStructural, "design", "Decorator Pattern", "kw_decorator", []string{"decorator pattern"}},
	{store.CategoryBehavioral, "design", "Observer Pattern", "kw_observer", []string{"observer pattern", "pub/sub", "publish subscribe"}},
	{store.CategoryBehavioral, "design", "Strategy Pattern", "kw_strategy", []string{"strategy pattern"}},
	{store.CategoryConcurrency, "concurrency", "Worker Pool", "kw_worker_pool", []string{"worker pool", "goroutine pool"}},
	{store.CategoryConcurrency, "concurrency", "Mutex Locking", "kw_mutex", []string{"mutex", "sync.mutex"}},
	{store.CategoryDataProcessing, "data", "ETL Pipeline", "kw_etl", []string{"etl pipeline", "extract transform load"}},
	{store.CategoryAPIPatterns, "architectural", "REST API Design", "rest_api", []string{"rest api", "restful", "rest endpoint", " rest "}},
	{store.CategoryAPIPatterns, "architectural", "GraphQL API", "kw_graphql", []string{"graphql"}},
	{store.CategoryMessaging, "messaging", "Message Queue", "kw_message_queue", []string{"message queue", "rabbitmq", "kafka"}},
	{store.CategoryDatabase, "data", "Database Connection Pooling", "kw_conn_pool", []string{"connection pool", "connection pooling"}},
	{store.CategoryDistributed, "architectural", "Distributed Locking", "kw_distributed_lock", []string{"distributed lock"}},
	{store.CategorySecurity, "auth", "OAuth Authentication", "kw_oauth", []string{"oauth"}},
	{store.CategorySecurity, "auth", "JWT Token Auth", "kw_jwt", []string{"jwt", "json web token"}},
	{store.CategoryPerformance, "performance", "Caching Strategy", "kw_caching", []string{"cache", "caching"}},
	{store.CategoryErrorHandling, "anti_pattern", "Try/Catch Error Handling", "try_catch_pattern", []string{"try catch", "try/catch", "try-catch"}},
	{store.CategoryTesting, "testing", "Unit Test Coverage", "kw_unit_tests", []string{"unit test", "unit tests"}},
	{store.CategoryFrontend, "frontend", "Component-Based UI", "kw_component_ui", []string{"react component", "component-based"}},
	{store.CategoryMobile, "mobile", "Offline-First Sync", "kw_offline_first", []string{"offline first", "offline-first"}},
	{store.CategoryDevOps, "devops", "CI/CD Pipeline", "kw_cicd", []string{"ci/cd", "continuous integration", "continuous deployment"}},
	{store.CategoryCodeOrganization, "design", "Repository Pattern", "kw_repository", []string{"repository pattern"}},
	{store.CategoryProcessMethodology, "process", "Code Review Process", "kw_code_review", []string{"code review"}},
	{store.CategoryCloudPlatforms, "architectural", "Serverless Functions", "kw_serverless", []string{"serverless", "lambda function"}},
	{store.CategoryDataEngineering, "data", "Data Pipeline Orchestration", "kw_data_pipeline", []string{"data pipeline", "airflow"}},
	{store.CategoryAlgorithms, "algorithms", "Binary Search", "kw_binary_search", []string{"binary search"}},
	{store.CategoryReliability, "reliability", "Circuit Breaker", "kw_circuit_breaker", []string{"circuit breaker"}},
	{store.CategoryObservability, "observability", "Structured Logging", "kw_structured_logging", []string{"structured logging"}},
	{store.CategoryDeployment, "deployment", "Blue-Green Deployment", "kw_blue_green", []string{"blue-green", "blue green deployment"}},
	{store.CategoryProgrammingParadigms, "paradigm", "Functional Composition", "kw_functional", []string{"functional programming", "pure function"}},
	{store.CategoryNetworkProtocols, "network", "gRPC Service", "kw_grpc", []string{"grpc"}},
	{store.CategoryUserExperience, "ux", "Progressive Disclosure", "kw_progressive_disclosure", []string{"progressive disclosure"}},
	{store.CategoryQualityAssurance, "qa", "Test-Driven Development", "kw_tdd", []string{"test driven", "tdd", "test-driven"}},
	{store.CategoryInfrastructureOps, "infra", "Infrastructure as Code", "kw_iac", []string{"infrastructure as code", "terraform"}},
}

// generalExtractor matches content against generalCatalog. When filter is
// non-nil, only entries whose category is in filter are considered (spec
// §4.4's code/implementation_notes row: "filtered to {error_handling,
// performance, testing, api_patterns}").
func generalExtractor(content string, filter map[store.PatternCategory]bool) []Candidate {
	lower := toLower(content)
	var out []Candidate
	for _, e := range generalCatalog {
		if filter != nil && !filter[e.category] {
			continue
		}
		if !containsAny(lower, e.keywords) {
			continue
		}
		out = append(out, Candidate{
			Signature:       e.signature,
			Category:        e.category,
			RawType:         e.rawType,
			Name:            e.name,
			Description:     e.name + " referenced in: " + snippet(content),
			Example:         truncateExample(content),
			Confidence:      0.7,
			ConfidenceBoost: 0.05,
			DetectionMethod: "keyword",
			Metadata:        store.JSONMap{"detection_method": "keyword"},
		})
	}
	return out
}

func toLower(s string) string {
	return " " + strings.ToLower(s) + " "
}
