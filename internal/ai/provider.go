package ai

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/kozaktomas/mask-sentry/internal/config"
	"github.com/kozaktomas/mask-sentry/internal/constants"
	"github.com/kozaktomas/mask-sentry/internal/imaging"
)

//go:embed prompts/mask_check.txt
var maskCheckPrompt string

// Failure classes of a classification call. Every error returned by a
// Classifier wraps exactly one of them.
var (
	ErrTransport        = errors.New("classifier transport failure")
	ErrMalformedVerdict = errors.New("classifier returned a malformed verdict")
)

// FailureKind names the failure class of err: "transport", "parse" or "".
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedVerdict):
		return "parse"
	default:
		return "transport"
	}
}

// Classifier asks an external vision model whether a face mask is worn.
// Calls are not cached; the same image may yield different verdicts.
type Classifier interface {
	Name() string
	ClassifyMask(ctx context.Context, imageData []byte) (*Verdict, error)
	GetUsage() Usage
}

// Verdict is the model's claim about the image. Reason is free text for operators.
type Verdict struct {
	MaskDetected bool   `json:"mask_detected"`
	Reason       string `json:"reason"`
}

// Usage tracks token usage and calculates cost.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalCost    float64 // in USD
}

// RequestPricing holds input/output prices per 1M tokens
type RequestPricing struct {
	Input  float64
	Output float64
}

// usageTracker is embedded by providers; safe for concurrent requests.
type usageTracker struct {
	mu      sync.Mutex
	usage   Usage
	pricing RequestPricing
}

func (u *usageTracker) trackUsage(inputTokens, outputTokens int64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.usage.InputTokens += int(inputTokens)
	u.usage.OutputTokens += int(outputTokens)
	u.usage.TotalCost += float64(inputTokens) / 1_000_000 * u.pricing.Input
	u.usage.TotalCost += float64(outputTokens) / 1_000_000 * u.pricing.Output
}

func (u *usageTracker) GetUsage() Usage {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.usage
}

// prepareImage optionally downscales the image and reports its MIME type.
func prepareImage(imageData []byte, maxSize int) ([]byte, string, error) {
	if maxSize > 0 {
		resized, err := imaging.Resize(imageData, maxSize)
		if err != nil {
			return nil, "", fmt.Errorf("%w: failed to resize image: %w", ErrTransport, err)
		}
		return resized, "image/jpeg", nil
	}
	return imageData, http.DetectContentType(imageData), nil
}

// NewClassifier builds the provider selected by cfg.Classifier.Provider.
func NewClassifier(ctx context.Context, cfg *config.Config) (Classifier, error) {
	c := cfg.Classifier
	model := c.Model

	switch c.Provider {
	case "gemini":
		if model == "" {
			model = constants.DefaultGeminiModel
		}
		p := cfg.GetModelPricing(model).Standard
		return NewGeminiProvider(ctx, GeminiOptions{
			APIKey:       c.GeminiAPIKey,
			Model:        model,
			MaxImageSize: c.MaxImageSize,
			Timeout:      c.Timeout,
			Pricing:      RequestPricing{Input: p.Input, Output: p.Output},
		})
	case "openai":
		if model == "" {
			model = constants.DefaultOpenAIModel
		}
		p := cfg.GetModelPricing(model).Standard
		return NewOpenAIProvider(OpenAIOptions{
			APIKey:       c.OpenAIToken,
			BaseURL:      c.BaseURL,
			Model:        model,
			MaxImageSize: c.MaxImageSize,
			Timeout:      c.Timeout,
			Pricing:      RequestPricing{Input: p.Input, Output: p.Output},
		}), nil
	case "groq", "":
		if model == "" {
			model = constants.DefaultGroqModel
		}
		baseURL := c.BaseURL
		if baseURL == "" {
			baseURL = constants.DefaultGroqBaseURL
		}
		p := cfg.GetModelPricing(model).Standard
		return NewOpenAIProvider(OpenAIOptions{
			APIKey:       c.GroqAPIKey,
			BaseURL:      baseURL,
			Model:        model,
			MaxImageSize: c.MaxImageSize,
			Timeout:      c.Timeout,
			Pricing:      RequestPricing{Input: p.Input, Output: p.Output},
		}), nil
	default:
		return nil, fmt.Errorf("unknown classifier provider %q", c.Provider)
	}
}
