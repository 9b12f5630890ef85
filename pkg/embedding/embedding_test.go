package embedding_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/devmemory/learning-engine/internal/config"
	"github.com/devmemory/learning-engine/pkg/embedding"
	sharederrors "github.com/devmemory/learning-engine/pkg/shared/errors"
)

type fakeProvider struct {
	name     string
	vec      []float32
	err      error
	calls    int
}

func (f *fakeProvider) Name() string { return f.name }
func (f *fakeProvider) Embed(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vec, nil
}

var _ = Describe("LocalProvider", func() {
	It("produces a normalized, deterministic vector", func() {
		p := embedding.NewLocalProvider(384)
		v1, err := p.Embed(context.Background(), "pattern: circuit breaker retry logic")
		Expect(err).NotTo(HaveOccurred())
		Expect(v1).To(HaveLen(384))

		v2, err := p.Embed(context.Background(), "pattern: circuit breaker retry logic")
		Expect(err).NotTo(HaveOccurred())
		Expect(v1).To(Equal(v2))

		var sumSquares float64
		for _, x := range v1 {
			sumSquares += float64(x) * float64(x)
		}
		Expect(sumSquares).To(BeNumerically("~", 1.0, 0.01))
	})

	It("returns the zero vector for empty text", func() {
		p := embedding.NewLocalProvider(128)
		v, err := p.Embed(context.Background(), "")
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(HaveLen(128))
		for _, x := range v {
			Expect(x).To(Equal(float32(0)))
		}
	})

	It("produces different vectors for different text", func() {
		p := embedding.NewLocalProvider(256)
		v1, _ := p.Embed(context.Background(), "memory leak in goroutine pool")
		v2, _ := p.Embed(context.Background(), "rest api authentication middleware")
		Expect(v1).NotTo(Equal(v2))
	})
})

var _ = Describe("Client", func() {
	var provider *fakeProvider

	BeforeEach(func() {
		provider = &fakeProvider{name: "local", vec: make([]float32, 8)}
	})

	buildClient := func() *embedding.Client {
		cfg := config.EmbeddingConfig{Provider: "local", Model: "test-model", Dimensions: 8, CacheSize: 10}
		c, err := embedding.NewClient(cfg, map[string]embedding.Provider{"local": provider}, nil)
		Expect(err).NotTo(HaveOccurred())
		return c
	}

	It("resolves the default model when none is given", func() {
		c := buildClient()
		vec, model, err := c.Embed(context.Background(), "hello world", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(model).To(Equal("test-model"))
		Expect(vec).To(HaveLen(8))
	})

	It("caches repeated lookups and does not re-call the provider", func() {
		c := buildClient()
		_, _, err := c.Embed(context.Background(), "repeated text", "test-model")
		Expect(err).NotTo(HaveOccurred())
		_, _, err = c.Embed(context.Background(), "repeated text", "test-model")
		Expect(err).NotTo(HaveOccurred())
		Expect(provider.calls).To(Equal(1))
	})

	It("fails on dimension mismatch", func() {
		provider.vec = make([]float32, 4)
		c := buildClient()
		_, _, err := c.Embed(context.Background(), "bad dims", "test-model")
		Expect(err).To(HaveOccurred())
	})

	It("fails for an unknown model name", func() {
		c := buildClient()
		_, _, err := c.Embed(context.Background(), "x", "nonexistent-model")
		Expect(err).To(HaveOccurred())
	})

	It("surfaces provider errors as embedding errors", func() {
		provider.err = errors.New("connection refused")
		c := buildClient()
		_, _, err := c.Embed(context.Background(), "x", "test-model")
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, sharederrors.ErrEmbedding)).To(BeTrue())
	})
})

var _ = Describe("Cosine", func() {
	It("is 1.0 for identical vectors", func() {
		v := []float32{1, 2, 3}
		Expect(embedding.Cosine(v, v)).To(BeNumerically("~", 1.0, 0.0001))
	})

	It("is 0 on dimension mismatch", func() {
		Expect(embedding.Cosine([]float32{1, 2}, []float32{1, 2, 3})).To(Equal(0.0))
	})
})
