package llm_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/devmemory/learning-engine/internal/config"
	"github.com/devmemory/learning-engine/pkg/llm"
)

type fakeProvider struct {
	name      string
	content   string
	tokens    int
	err       error
	available bool
	calls     int
	pulls     int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) IsModelAvailable(ctx context.Context, model string) (bool, error) {
	return f.available, nil
}

func (f *fakeProvider) PullModel(ctx context.Context, model string) error {
	f.pulls++
	return nil
}

func (f *fakeProvider) Generate(ctx context.Context, systemPrompt, userPrompt string, opts llm.CallOptions) (string, int, error) {
	f.calls++
	if f.err != nil {
		return "", 0, f.err
	}
	return f.content, f.tokens, nil
}

var _ = Describe("Client", func() {
	var cfg config.LLMConfig

	BeforeEach(func() {
		cfg = config.LLMConfig{Model: "test-model", Timeout: 2 * time.Second, CacheSize: 10}
	})

	It("returns analysis and caches the result in memory", func() {
		provider := &fakeProvider{name: "fake", content: "## Finding\n1. Use contexts for cancellation.", available: true}
		client, err := llm.NewClient(cfg, provider, nil, nil)
		Expect(err).NotTo(HaveOccurred())

		a1, err := client.Generate(context.Background(), "analyze this", "", llm.AnalysisPatternAnalysis)
		Expect(err).NotTo(HaveOccurred())
		Expect(a1.Content).To(ContainSubstring("Use contexts"))
		Expect(a1.Model).To(Equal("test-model"))
		Expect(provider.calls).To(Equal(1))

		a2, err := client.Generate(context.Background(), "analyze this", "", llm.AnalysisPatternAnalysis)
		Expect(err).NotTo(HaveOccurred())
		Expect(a2).To(Equal(a1))
		Expect(provider.calls).To(Equal(1), "second call should be served from the in-memory cache")
	})

	It("attempts a pull when the model is unavailable", func() {
		provider := &fakeProvider{name: "fake", content: "ok", available: false}
		client, err := llm.NewClient(cfg, provider, nil, nil)
		Expect(err).NotTo(HaveOccurred())

		_, err = client.Generate(context.Background(), "prompt", "", llm.AnalysisGeneral)
		Expect(err).NotTo(HaveOccurred())
		Expect(provider.pulls).To(Equal(1))
	})

	It("wraps provider errors", func() {
		provider := &fakeProvider{name: "fake", available: true, err: errors.New("boom")}
		client, err := llm.NewClient(cfg, provider, nil, nil)
		Expect(err).NotTo(HaveOccurred())

		_, err = client.Generate(context.Background(), "prompt", "", llm.AnalysisGeneral)
		Expect(err).To(HaveOccurred())
	})

	It("times out when the provider never returns", func() {
		cfg.Timeout = 10 * time.Millisecond
		provider := &slowProvider{name: "slow", delay: 200 * time.Millisecond}
		client, err := llm.NewClient(cfg, provider, nil, nil)
		Expect(err).NotTo(HaveOccurred())

		_, err = client.Generate(context.Background(), "prompt", "", llm.AnalysisGeneral)
		Expect(err).To(HaveOccurred())
	})
})

type slowProvider struct {
	name  string
	delay time.Duration
}

func (s *slowProvider) Name() string { return s.name }
func (s *slowProvider) IsModelAvailable(ctx context.Context, model string) (bool, error) {
	return true, nil
}
func (s *slowProvider) PullModel(ctx context.Context, model string) error { return nil }
func (s *slowProvider) Generate(ctx context.Context, systemPrompt, userPrompt string, opts llm.CallOptions) (string, int, error) {
	select {
	case <-time.After(s.delay):
		return "done", 1, nil
	case <-ctx.Done():
		return "", 0, ctx.Err()
	}
}

var _ = Describe("HeuristicConfidence", func() {
	It("scores a short hedged response lower than a long structured one", func() {
		short := llm.HeuristicConfidence("maybe it might work")
		long := llm.HeuristicConfidence("## Analysis\n1. This pattern is consistently used across every project we examined and the evidence is unambiguous. " +
			"2. Confidence: 0.95\n" + string(make([]byte, 900)))
		Expect(long).To(BeNumerically(">", short))
	})

	It("returns 0 for empty content", func() {
		Expect(llm.HeuristicConfidence("")).To(Equal(0.0))
	})
})

var _ = Describe("ParseNumberedSections", func() {
	It("splits a numbered response into sections", func() {
		sections := llm.ParseNumberedSections("1. First point\nmore detail\n2. Second point")
		Expect(sections).To(HaveLen(2))
		Expect(sections[0]).To(ContainSubstring("First point"))
		Expect(sections[1]).To(ContainSubstring("Second point"))
	})
})

var _ = Describe("ParseConfidence", func() {
	It("extracts an explicit confidence value", func() {
		v, ok := llm.ParseConfidence("Summary text.\nConfidence: 0.82")
		Expect(ok).To(BeTrue())
		Expect(v).To(BeNumerically("~", 0.82, 0.001))
	})

	It("reports no match when absent", func() {
		_, ok := llm.ParseConfidence("no signal here")
		Expect(ok).To(BeFalse())
	})
})
