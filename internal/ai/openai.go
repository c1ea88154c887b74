package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/kozaktomas/mask-sentry/internal/constants"
)

// OpenAIOptions configures an OpenAI compatible chat completion endpoint
// (OpenAI itself, Groq, or any server speaking the same API).
type OpenAIOptions struct {
	APIKey       string
	BaseURL      string // empty uses the SDK default
	Model        string
	MaxImageSize int
	Timeout      time.Duration
	Pricing      RequestPricing
}

type OpenAIProvider struct {
	usageTracker
	client       *openai.Client
	model        string
	maxImageSize int
	timeout      time.Duration
}

func NewOpenAIProvider(opts OpenAIOptions) *OpenAIProvider {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		// A failed call is reported, never repeated
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultClassifierTimeout
	}

	client := openai.NewClient(reqOpts...)
	return &OpenAIProvider{
		usageTracker: usageTracker{pricing: opts.Pricing},
		client:       &client,
		model:        opts.Model,
		maxImageSize: opts.MaxImageSize,
		timeout:      timeout,
	}
}

func (p *OpenAIProvider) Name() string {
	return p.model
}

func (p *OpenAIProvider) ClassifyMask(ctx context.Context, imageData []byte) (*Verdict, error) {
	data, mimeType, err := prepareImage(imageData, p.maxImageSize)
	if err != nil {
		return nil, err
	}
	imageURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfArrayOfContentParts: []openai.ChatCompletionContentPartUnionParam{
							openai.TextContentPart(maskCheckPrompt),
							openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
								URL: imageURL,
							}),
						},
					},
				},
			},
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
		MaxTokens: openai.Int(constants.ClassifierMaxTokens),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: OpenAI API error: %w", ErrTransport, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrTransport, errors.New("no response from model"))
	}

	if resp.Usage.PromptTokens > 0 || resp.Usage.CompletionTokens > 0 {
		p.trackUsage(resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	}

	return ParseVerdict(resp.Choices[0].Message.Content)
}
