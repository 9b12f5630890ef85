package embedding

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	sharederrors "github.com/devmemory/learning-engine/pkg/shared/errors"
)

// LocalProvider deterministically derives a normalized embedding from text
// by hashing overlapping token shingles into buckets of a fixed-dimension
// vector, grounded on the teacher's LocalEmbeddingService
// (pkg/storage/vector): no network call, consistent output for identical
// input, and an L2-normalized result.
type LocalProvider struct {
	dimensions int
}

// NewLocalProvider builds a LocalProvider producing vectors of dimensions
// length. dimensions<=0 falls back to 384, matching the teacher's default.
func NewLocalProvider(dimensions int) *LocalProvider {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &LocalProvider{dimensions: dimensions}
}

func (p *LocalProvider) Name() string { return "local" }

// Embed hashes each word (and adjacent word pairs, for a little bigram
// signal) into a deterministic bucket and accumulates a signed weight, then
// L2-normalizes. Empty text yields the zero vector.
func (p *LocalProvider) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float64, p.dimensions)
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		out := make([]float32, p.dimensions)
		return out, nil
	}

	for i, w := range words {
		bucketHash(vec, w, 1.0)
		if i+1 < len(words) {
			bucketHash(vec, w+"_"+words[i+1], 0.5)
		}
	}

	var sumSquares float64
	for _, v := range vec {
		sumSquares += v * v
	}
	out := make([]float32, p.dimensions)
	if sumSquares == 0 {
		return out, nil
	}
	norm := math.Sqrt(sumSquares)
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out, nil
}

func bucketHash(vec []float64, token string, weight float64) {
	sum := sha256.Sum256([]byte(token))
	idx := int(sum[0])<<8 | int(sum[1])
	idx %= len(vec)
	sign := 1.0
	if sum[2]%2 == 1 {
		sign = -1.0
	}
	vec[idx] += sign * weight
}

// HTTPProvider calls a remote OpenAI-compatible embeddings endpoint over
// plain net/http, mirroring the shape of the teacher's local-inference
// client (pkg/ai/llm, same Provider/Endpoint/Timeout knobs, reused here for
// the embedding side of the same host).
type HTTPProvider struct {
	name     string
	endpoint string
	model    string
	apiKey   string
	client   *http.Client
}

// NewHTTPProvider builds an HTTPProvider targeting endpoint (an
// OpenAI-compatible `/embeddings` route) with the given bearer apiKey.
func NewHTTPProvider(name, endpoint, model, apiKey string, timeout time.Duration) *HTTPProvider {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPProvider{
		name:     name,
		endpoint: endpoint,
		model:    model,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

func (p *HTTPProvider) Name() string { return p.name }

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed issues a single-item embeddings request and extracts the first
// result's vector. Any network error, non-2xx status, or missing embedding
// field surfaces as an EmbeddingError via the Client (this adapter returns
// the raw error; the Client annotates the kind).
func (p *HTTPProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embeddingRequest{Model: p.model, Input: text})
	if err != nil {
		return nil, sharederrors.FailedTo("marshal embedding request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, sharederrors.FailedTo("build embedding request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, sharederrors.NetworkError("call embedding endpoint", p.endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("embedding endpoint returned status %d: %s", resp.StatusCode, string(raw))
	}

	var out embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, sharederrors.ParseError("embedding response", "json", err)
	}
	if len(out.Data) == 0 || out.Data[0].Embedding == nil {
		return nil, sharederrors.WithKind(sharederrors.ErrEmbedding, "embedding response missing data[0].embedding", nil)
	}
	return out.Data[0].Embedding, nil
}

// BedrockProvider calls AWS Bedrock's runtime InvokeModel API for Titan-style
// embedding models, reusing the teacher's aws-sdk-go-v2 wiring
// (aws-sdk-go-v2/service/bedrockruntime, aws-sdk-go-v2/config) for a third
// provider surface alongside the local and OpenAI-compatible adapters.
type BedrockProvider struct {
	modelID string
	rt      *bedrockruntime.Client
}

// NewBedrockProvider wraps an already-configured bedrockruntime.Client.
func NewBedrockProvider(rt *bedrockruntime.Client, modelID string) *BedrockProvider {
	return &BedrockProvider{rt: rt, modelID: modelID}
}

func (p *BedrockProvider) Name() string { return "bedrock" }

type titanEmbedRequest struct {
	InputText string `json:"inputText"`
}

type titanEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (p *BedrockProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(titanEmbedRequest{InputText: text})
	if err != nil {
		return nil, sharederrors.FailedTo("marshal bedrock embedding request", err)
	}

	out, err := p.rt.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(p.modelID),
		ContentType: aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, sharederrors.NetworkError("invoke bedrock embedding model", p.modelID, err)
	}

	var resp titanEmbedResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return nil, sharederrors.ParseError("bedrock embedding response", "json", err)
	}
	if resp.Embedding == nil {
		return nil, sharederrors.WithKind(sharederrors.ErrEmbedding, "bedrock response missing embedding field", nil)
	}
	return resp.Embedding, nil
}
