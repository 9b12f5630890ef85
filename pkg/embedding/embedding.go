// Package embedding turns free-form text into fixed-dimension vectors,
// routing through a configured provider adapter and caching hot lookups in
// an in-memory LRU keyed by content hash (spec §4.2).
package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/devmemory/learning-engine/internal/config"
	sharederrors "github.com/devmemory/learning-engine/pkg/shared/errors"
	"github.com/devmemory/learning-engine/pkg/shared/logging"
)

// Provider is the adapter interface a backing embedding service implements:
// a local inference endpoint or a remote API.
type Provider interface {
	// Embed returns the raw vector for text. It must not validate the
	// dimension; that is the Client's job so every provider is held to the
	// same contract.
	Embed(ctx context.Context, text string) ([]float32, error)
	Name() string
}

// ModelConfig describes one entry in the model registry: which provider
// backs it, its fixed dimensionality, and whether it is presently usable.
type ModelConfig struct {
	Name       string
	Provider   string
	Dimensions int
	Available  bool
	Default    bool
}

// Client resolves a model name, checks the LRU, dispatches to the provider
// adapter, validates the returned dimension, and caches the result.
type Client struct {
	logger    *logrus.Logger
	providers map[string]Provider
	registry  map[string]ModelConfig
	cache     *lru.Cache[string, []float32]
	maxCache  int
}

// NewClient builds an embedding Client. A nil logger is replaced with a
// discard logger rather than panicking.
func NewClient(cfg config.EmbeddingConfig, providers map[string]Provider, logger *logrus.Logger) (*Client, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}

	maxCache := cfg.CacheSize
	if maxCache <= 0 {
		maxCache = 1000
	}
	cache, err := lru.New[string, []float32](maxCache)
	if err != nil {
		return nil, sharederrors.FailedTo("create embedding LRU cache", err)
	}

	registry := defaultRegistry(cfg)

	return &Client{
		logger:    logger,
		providers: providers,
		registry:  registry,
		cache:     cache,
		maxCache:  maxCache,
	}, nil
}

// defaultRegistry seeds the model registry from configuration, with the
// configured model marked as default.
func defaultRegistry(cfg config.EmbeddingConfig) map[string]ModelConfig {
	name := cfg.Model
	if name == "" {
		name = "all-MiniLM-L6-v2"
	}
	dims := cfg.Dimensions
	if dims <= 0 {
		dims = 384
	}
	provider := cfg.Provider
	if provider == "" {
		provider = "local"
	}

	registry := map[string]ModelConfig{
		name: {Name: name, Provider: provider, Dimensions: dims, Available: true, Default: true},
	}
	// A remote alternative is always registered so callers can pass an
	// explicit modelName without reconfiguring the registry.
	if provider != "openai" {
		registry["text-embedding-3-small"] = ModelConfig{Name: "text-embedding-3-small", Provider: "openai", Dimensions: 1536, Available: false}
	}
	if provider != "bedrock" {
		registry["amazon.titan-embed-text-v2"] = ModelConfig{Name: "amazon.titan-embed-text-v2", Provider: "bedrock", Dimensions: 1024, Available: false}
	}
	return registry
}

// RegisterModel adds or replaces a model registry entry, e.g. to mark a
// remote provider available once its credentials are confirmed.
func (c *Client) RegisterModel(mc ModelConfig) {
	c.registry[mc.Name] = mc
}

// resolveModel implements spec §4.2 step 1: given name wins; else the
// unique default; else the smallest available model.
func (c *Client) resolveModel(name string) (ModelConfig, error) {
	if name != "" {
		mc, ok := c.registry[name]
		if !ok {
			return ModelConfig{}, sharederrors.WithKind(sharederrors.ErrEmbedding, "unknown embedding model "+name, nil)
		}
		return mc, nil
	}

	var defaults []ModelConfig
	for _, mc := range c.registry {
		if mc.Default {
			defaults = append(defaults, mc)
		}
	}
	if len(defaults) == 1 {
		return defaults[0], nil
	}

	var available []ModelConfig
	for _, mc := range c.registry {
		if mc.Available {
			available = append(available, mc)
		}
	}
	if len(available) == 0 {
		return ModelConfig{}, sharederrors.WithKind(sharederrors.ErrEmbedding, "no available embedding model", nil)
	}
	sort.Slice(available, func(i, j int) bool { return available[i].Dimensions < available[j].Dimensions })
	return available[0], nil
}

// cacheKey implements spec §4.2 step 2: sha256(modelName || ":" || text).
func cacheKey(modelName, text string) string {
	sum := sha256.Sum256([]byte(modelName + ":" + text))
	return hex.EncodeToString(sum[:])
}

// Embed resolves modelName (or the registry default), serves from the LRU
// on a hit, otherwise dispatches to the provider adapter, validates the
// returned dimension, and caches the result.
func (c *Client) Embed(ctx context.Context, text string, modelName string) ([]float32, string, error) {
	mc, err := c.resolveModel(modelName)
	if err != nil {
		return nil, "", err
	}
	if !mc.Available {
		return nil, "", sharederrors.WithKind(sharederrors.ErrEmbedding, "model "+mc.Name+" is not available", nil)
	}

	key := cacheKey(mc.Name, text)
	if v, ok := c.cache.Get(key); ok {
		return v, mc.Name, nil
	}

	provider, ok := c.providers[mc.Provider]
	if !ok {
		return nil, "", sharederrors.WithKind(sharederrors.ErrEmbedding, "no provider adapter registered for "+mc.Provider, nil)
	}

	vec, err := provider.Embed(ctx, text)
	if err != nil {
		c.logger.WithFields(logging.NewFields().Component("embedding").Operation("embed").Error(err).ToLogrus()).Warn("embedding provider call failed")
		return nil, "", sharederrors.WithKind(sharederrors.ErrEmbedding, "provider "+mc.Provider+" embed call", err)
	}
	if len(vec) != mc.Dimensions {
		return nil, "", sharederrors.WithKind(sharederrors.ErrEmbedding, fmt.Sprintf("dimension mismatch: expected %d got %d", mc.Dimensions, len(vec)), nil)
	}

	c.cache.Add(key, vec)
	return vec, mc.Name, nil
}

// Dimensions reports the configured dimensionality of a registered model.
func (c *Client) Dimensions(modelName string) (int, bool) {
	mc, ok := c.registry[modelName]
	if !ok {
		return 0, false
	}
	return mc.Dimensions, true
}

// Cosine returns the cosine similarity of two equal-length float32 vectors,
// or 0 on a dimension mismatch (spec §4.2 "Similarity primitive").
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
