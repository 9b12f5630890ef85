package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	bedrocktypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	sharederrors "github.com/devmemory/learning-engine/pkg/shared/errors"
)

// AnthropicProvider calls Claude models through the official SDK.
type AnthropicProvider struct {
	client anthropic.Client
}

// NewAnthropicProvider builds a Provider backed by api key authentication.
func NewAnthropicProvider(apiKey string) *AnthropicProvider {
	return &AnthropicProvider{client: anthropic.NewClient(option.WithAPIKey(apiKey))}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

// IsModelAvailable always reports true: Anthropic's hosted models are
// addressed by name and need no local readiness check.
func (p *AnthropicProvider) IsModelAvailable(ctx context.Context, model string) (bool, error) {
	return true, nil
}

// PullModel is a no-op: Anthropic's hosted API has nothing to pull.
func (p *AnthropicProvider) PullModel(ctx context.Context, model string) error { return nil }

func (p *AnthropicProvider) Generate(ctx context.Context, systemPrompt, userPrompt string, opts CallOptions) (string, int, error) {
	maxTokens := int64(opts.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4000
	}

	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(defaultString(claudeModel, claudeModel)),
		MaxTokens: maxTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return "", 0, sharederrors.WithKind(sharederrors.ErrLlmProvider, "anthropic messages.new", err)
	}

	var content string
	for _, block := range msg.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}

	tokens := int(msg.Usage.InputTokens + msg.Usage.OutputTokens)
	return content, tokens, nil
}

const claudeModel = "claude-3-5-sonnet-latest"

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// BedrockProvider calls Claude/Titan text models through AWS Bedrock's
// Converse API, mirroring the non-streaming chat path the teacher pack's
// Bedrock client implements.
type BedrockProvider struct {
	client *bedrockruntime.Client
}

// NewBedrockProvider builds a Provider from the default AWS config chain.
func NewBedrockProvider(ctx context.Context, region string) (*BedrockProvider, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, sharederrors.FailedTo("load aws config for bedrock", err)
	}
	return &BedrockProvider{client: bedrockruntime.NewFromConfig(cfg)}, nil
}

func (p *BedrockProvider) Name() string { return "bedrock" }

func (p *BedrockProvider) IsModelAvailable(ctx context.Context, model string) (bool, error) {
	return true, nil
}

func (p *BedrockProvider) PullModel(ctx context.Context, model string) error { return nil }

func (p *BedrockProvider) Generate(ctx context.Context, systemPrompt, userPrompt string, opts CallOptions) (string, int, error) {
	maxTokens := int32(opts.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4000
	}

	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(claudeModel),
		System:  []bedrocktypes.SystemContentBlock{&bedrocktypes.SystemContentBlockMemberText{Value: systemPrompt}},
		Messages: []bedrocktypes.Message{
			{
				Role:    bedrocktypes.ConversationRoleUser,
				Content: []bedrocktypes.ContentBlock{&bedrocktypes.ContentBlockMemberText{Value: userPrompt}},
			},
		},
		InferenceConfig: &bedrocktypes.InferenceConfiguration{
			MaxTokens:   aws.Int32(maxTokens),
			Temperature: aws.Float32(opts.Temperature),
		},
	}

	output, err := p.client.Converse(ctx, input)
	if err != nil {
		return "", 0, sharederrors.WithKind(sharederrors.ErrLlmProvider, "bedrock converse", err)
	}

	var content string
	if msg, ok := output.Output.(*bedrocktypes.ConverseOutputMemberMessage); ok {
		for _, block := range msg.Value.Content {
			if textBlock, ok := block.(*bedrocktypes.ContentBlockMemberText); ok {
				content += textBlock.Value
			}
		}
	}

	tokens := 0
	if output.Usage != nil {
		tokens = int(aws.ToInt32(output.Usage.TotalTokens))
	}

	return content, tokens, nil
}

// LangchainProvider routes through langchaingo's llms.Model interface,
// letting the same Client serve any backend langchaingo supports (Ollama
// for local/self-hosted models, OpenAI-compatible endpoints otherwise).
type LangchainProvider struct {
	model llms.Model
	name  string
}

// NewOllamaLangchainProvider builds a LangchainProvider backed by a local
// or self-hosted Ollama server.
func NewOllamaLangchainProvider(serverURL, model string) (*LangchainProvider, error) {
	m, err := ollama.New(ollama.WithServerURL(serverURL), ollama.WithModel(model))
	if err != nil {
		return nil, sharederrors.FailedTo("create ollama langchain model", err)
	}
	return &LangchainProvider{model: m, name: "langchain-ollama"}, nil
}

// NewOpenAILangchainProvider builds a LangchainProvider backed by an
// OpenAI-compatible endpoint.
func NewOpenAILangchainProvider(apiKey, baseURL, model string) (*LangchainProvider, error) {
	opts := []openai.Option{openai.WithToken(apiKey), openai.WithModel(model)}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	m, err := openai.New(opts...)
	if err != nil {
		return nil, sharederrors.FailedTo("create openai langchain model", err)
	}
	return &LangchainProvider{model: m, name: "langchain-openai"}, nil
}

func (p *LangchainProvider) Name() string { return p.name }

func (p *LangchainProvider) IsModelAvailable(ctx context.Context, model string) (bool, error) {
	return true, nil
}

func (p *LangchainProvider) PullModel(ctx context.Context, model string) error { return nil }

func (p *LangchainProvider) Generate(ctx context.Context, systemPrompt, userPrompt string, opts CallOptions) (string, int, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}

	callOpts := []llms.CallOption{
		llms.WithTemperature(float64(opts.Temperature)),
		llms.WithTopP(float64(opts.TopP)),
	}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxTokens))
	}
	if opts.TopK > 0 {
		callOpts = append(callOpts, llms.WithTopK(opts.TopK))
	}

	resp, err := p.model.GenerateContent(ctx, content, callOpts...)
	if err != nil {
		return "", 0, sharederrors.WithKind(sharederrors.ErrLlmProvider, fmt.Sprintf("%s generate content", p.name), err)
	}
	if len(resp.Choices) == 0 {
		return "", 0, sharederrors.WithKind(sharederrors.ErrLlmProvider, p.name+" returned no choices", nil)
	}

	tokens := 0
	if resp.Choices[0].GenerationInfo != nil {
		if total, ok := resp.Choices[0].GenerationInfo["TotalTokens"].(int); ok {
			tokens = total
		}
	}

	return resp.Choices[0].Content, tokens, nil
}
