// Package llm is the prompt-to-structured-analysis client: provider
// routing, a two-layer cache (in-memory LRU plus a durable content-hash
// row), a hard timeout/abort, and a heuristic confidence score (spec §4.3).
package llm

import (
	"context"
	"crypto/md5" //nolint:gosec // cache key, not a security boundary
	"crypto/sha256"
	"encoding/hex"
	"io"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/devmemory/learning-engine/internal/config"
	sharederrors "github.com/devmemory/learning-engine/pkg/shared/errors"
	"github.com/devmemory/learning-engine/pkg/shared/logging"
	"github.com/devmemory/learning-engine/pkg/store"
)

// AnalysisType selects the system prompt and cache namespace for a request.
type AnalysisType string

const (
	AnalysisPatternAnalysis    AnalysisType = "patternAnalysis"
	AnalysisInsightGeneration  AnalysisType = "insightGeneration"
	AnalysisOutcomeCorrelation AnalysisType = "outcomeCorrelation"
	AnalysisGeneral            AnalysisType = "general"
)

// CallOptions carries the generation knobs spec §4.3 step 4 requires.
type CallOptions struct {
	Temperature float32
	MaxTokens   int
	TopP        float32
	TopK        int
}

// DefaultCallOptions mirrors the spec's suggested defaults.
func DefaultCallOptions() CallOptions {
	return CallOptions{Temperature: 0.1, MaxTokens: 4000, TopP: 0.9, TopK: 40}
}

// Provider is the adapter interface a chat/generate backend implements.
type Provider interface {
	Name() string
	// IsModelAvailable checks whether model is ready to serve requests.
	IsModelAvailable(ctx context.Context, model string) (bool, error)
	// PullModel attempts to make model available; providers that don't
	// support pulling (hosted APIs) should return nil unconditionally.
	PullModel(ctx context.Context, model string) error
	// Generate issues the chat/completion call and returns the raw text
	// and a token count (0 if the provider doesn't report one).
	Generate(ctx context.Context, systemPrompt, userPrompt string, opts CallOptions) (content string, tokens int, err error)
}

// Analysis is the structured result returned to every caller (spec §4.3
// "Output").
type Analysis struct {
	Content       string
	Model         string
	Tokens        int
	TotalDuration time.Duration
	Confidence    float64
	Metadata      map[string]interface{}
}

// Client dispatches prompts to a Provider behind an in-memory LRU, a
// circuit breaker, and a hard timeout, and write-throughs non-trivial
// results to the durable cache.
type Client struct {
	provider Provider
	store    *store.Pool
	logger   *logrus.Logger
	model    string
	timeout  time.Duration

	cache   *lru.Cache[string, *Analysis]
	breaker *gobreaker.CircuitBreaker
}

// NewClient builds an LLM Client. store may be nil, in which case the
// durable write-through and lookup become no-ops (useful for tests and for
// callers that only want the hot in-memory path).
func NewClient(cfg config.LLMConfig, provider Provider, st *store.Pool, logger *logrus.Logger) (*Client, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}

	cacheSize := cfg.CacheSize
	if cacheSize <= 0 {
		cacheSize = 500
	}
	cache, err := lru.New[string, *Analysis](cacheSize)
	if err != nil {
		return nil, sharederrors.FailedTo("create llm analysis LRU cache", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "llm-provider-" + provider.Name(),
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	return &Client{
		provider: provider,
		store:    st,
		logger:   logger,
		model:    cfg.Model,
		timeout:  timeout,
		cache:    cache,
		breaker:  breaker,
	}, nil
}

// cacheKey implements spec §4.3 step 1: md5(prompt||":"||model||":"||analysisType).
func cacheKey(prompt, model string, analysisType AnalysisType) string {
	sum := md5.Sum([]byte(prompt + ":" + model + ":" + string(analysisType))) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// contentHash implements spec §4.3 step 6's durable cache key:
// sha256(prompt).
func contentHash(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

// LookupDurable checks the durable content-hash cache for prompt, without
// touching the in-memory LRU. Per spec §4.3, this is offered but is the
// caller's responsibility to invoke before calling Generate if the durable
// path is desired.
func (c *Client) LookupDurable(ctx context.Context, prompt string) (*Analysis, bool, error) {
	if c.store == nil {
		return nil, false, nil
	}
	entry, err := c.store.GetCachedAnalysis(ctx, contentHash(prompt))
	if err != nil {
		return nil, false, nil // NotFound or expired: treat as a miss, not an error
	}
	return &Analysis{
		Content:    entry.AnalysisResult,
		Model:      entry.ModelUsed,
		Confidence: entry.ConfidenceScore,
		Metadata:   map[string]interface{}{"source": "durable_cache", "analysis_type": entry.AnalysisType},
	}, true, nil
}

// Generate implements spec §4.3's full behavior: in-memory cache check,
// model-availability verification (with a pull attempt), system-prompt
// selection, a hard-timeout provider call, heuristic confidence scoring,
// and cache write-through (memory always, durable when non-trivial).
func (c *Client) Generate(ctx context.Context, prompt, analysisContext string, analysisType AnalysisType) (*Analysis, error) {
	model := c.model
	fullPrompt := buildUserPrompt(prompt, analysisContext)

	key := cacheKey(fullPrompt, model, analysisType)
	if cached, ok := c.cache.Get(key); ok {
		return cached, nil
	}

	available, err := c.provider.IsModelAvailable(ctx, model)
	if err != nil {
		return nil, sharederrors.WithKind(sharederrors.ErrLlmProvider, "check model availability", err)
	}
	if !available {
		if err := c.provider.PullModel(ctx, model); err != nil {
			return nil, sharederrors.WithKind(sharederrors.ErrLlmProvider, "pull model "+model, err)
		}
	}

	systemPrompt := SystemPromptFor(analysisType)
	opts := DefaultCallOptions()

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	result, err := c.breaker.Execute(func() (interface{}, error) {
		content, tokens, genErr := c.provider.Generate(callCtx, systemPrompt, fullPrompt, opts)
		return struct {
			content string
			tokens  int
		}{content, tokens}, genErr
	})
	duration := time.Since(start)

	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			return nil, sharederrors.WithKind(sharederrors.ErrLlmTimeout, "llm call exceeded timeout", err)
		}
		c.logger.WithFields(logging.NewFields().Component("llm").Operation("generate").Error(err).ToLogrus()).Warn("llm provider call failed")
		return nil, sharederrors.WithKind(sharederrors.ErrLlmProvider, "provider "+c.provider.Name()+" generate call", err)
	}

	out := result.(struct {
		content string
		tokens  int
	})

	analysis := &Analysis{
		Content:       out.content,
		Model:         model,
		Tokens:        out.tokens,
		TotalDuration: duration,
		Confidence:    HeuristicConfidence(out.content),
		Metadata:      map[string]interface{}{"analysis_type": string(analysisType)},
	}

	c.cache.Add(key, analysis)

	if c.store != nil && len(analysis.Content) > 100 {
		entry := store.LLMAnalysisCache{
			ContentHash:     contentHash(fullPrompt),
			AnalysisType:    string(analysisType),
			ModelUsed:       model,
			InputData:       fullPrompt,
			AnalysisResult:  analysis.Content,
			ConfidenceScore: analysis.Confidence,
			ExpiresAt:       time.Now().Add(30 * 24 * time.Hour),
		}
		if err := c.store.PutCachedAnalysis(ctx, entry); err != nil {
			c.logger.WithFields(logging.NewFields().Component("llm").Operation("durable_cache_put").Error(err).ToLogrus()).Warn("failed to persist durable llm cache entry")
		}
	}

	return analysis, nil
}

func buildUserPrompt(prompt, analysisContext string) string {
	if analysisContext == "" {
		return prompt
	}
	return prompt + "\n\nContext:\n" + analysisContext
}

// HeuristicConfidence scores response text per spec §4.3 step 5: longer,
// more structured responses score higher; hedging language pulls the score
// down. The result is always clamped to [0,1].
func HeuristicConfidence(content string) float64 {
	if content == "" {
		return 0
	}

	confidence := 0.3
	length := len(content)
	switch {
	case length > 1000:
		confidence += 0.3
	case length > 400:
		confidence += 0.2
	case length > 100:
		confidence += 0.1
	}

	for _, marker := range []string{"##", "1.", "confidence"} {
		if containsFold(content, marker) {
			confidence += 0.1
		}
	}
	for _, marker := range []string{"might", "possibly", "unclear"} {
		if containsFold(content, marker) {
			confidence -= 0.1
		}
	}

	return clamp(confidence, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
