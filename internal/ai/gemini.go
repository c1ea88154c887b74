package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/kozaktomas/mask-sentry/internal/constants"
)

type GeminiOptions struct {
	APIKey       string
	Model        string
	MaxImageSize int
	Timeout      time.Duration
	Pricing      RequestPricing
}

type GeminiProvider struct {
	usageTracker
	client       *genai.Client
	model        string
	maxImageSize int
	timeout      time.Duration
}

func NewGeminiProvider(ctx context.Context, opts GeminiOptions) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultClassifierTimeout
	}

	return &GeminiProvider{
		usageTracker: usageTracker{pricing: opts.Pricing},
		client:       client,
		model:        opts.Model,
		maxImageSize: opts.MaxImageSize,
		timeout:      timeout,
	}, nil
}

func (p *GeminiProvider) Name() string {
	return p.model
}

func (p *GeminiProvider) ClassifyMask(ctx context.Context, imageData []byte) (*Verdict, error) {
	data, mimeType, err := prepareImage(imageData, p.maxImageSize)
	if err != nil {
		return nil, err
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: maskCheckPrompt},
				{InlineData: &genai.Blob{Data: data, MIMEType: mimeType}},
			},
		},
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	result, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("%w: gemini API error: %w", ErrTransport, err)
	}

	if result.UsageMetadata != nil {
		p.trackUsage(int64(result.UsageMetadata.PromptTokenCount), int64(result.UsageMetadata.CandidatesTokenCount))
	}

	content := result.Text()
	if content == "" {
		return nil, fmt.Errorf("%w: %w", ErrTransport, errors.New("no response from Gemini"))
	}

	return ParseVerdict(content)
}
