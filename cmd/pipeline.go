package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/kozaktomas/mask-sentry/internal/ai"
	"github.com/kozaktomas/mask-sentry/internal/alert"
	"github.com/kozaktomas/mask-sentry/internal/config"
	"github.com/kozaktomas/mask-sentry/internal/facedetect"
	"github.com/kozaktomas/mask-sentry/internal/imaging"
	"github.com/kozaktomas/mask-sentry/internal/metrics"
	"github.com/kozaktomas/mask-sentry/internal/pipeline"
)

// app is everything a command needs to inspect images.
type app struct {
	cfg        *config.Config
	pipeline   *pipeline.Pipeline
	classifier ai.Classifier
	logger     *slog.Logger
}

// buildApp loads configuration and wires the pipeline. It refuses to
// build anything when required settings or the cascade asset are missing.
// m may be nil when metrics are not exported.
func buildApp(ctx context.Context, logger *slog.Logger, m *metrics.Metrics) (*app, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := os.Stat(cfg.Detector.CascadePath); err != nil {
		return nil, fmt.Errorf("%w: %v", facedetect.ErrCascadeUnavailable, err)
	}

	classifier, err := ai.NewClassifier(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating classifier: %w", err)
	}

	sinks := []alert.Sink{
		alert.NewEmailSink(cfg.Email, cfg.Alerts.Timeout),
		alert.NewWhatsAppSink(cfg.WhatsApp),
	}

	opts := pipeline.Options{
		Locator:       facedetect.NewCascadeLocator(cfg.Detector.CascadePath, facedetect.DefaultParams()),
		Classifier:    classifier,
		Dispatcher:    alert.NewDispatcher(sinks, cfg.Alerts.Timeout, logger),
		AlertsEnabled: cfg.Alerts.Enabled,
		Logger:        logger,
	}
	if m != nil {
		opts.Recorder = m
	}

	logger.Debug("pipeline ready",
		"classifier", classifier.Name(),
		"cascade", cfg.Detector.CascadePath,
		"alerts_enabled", cfg.Alerts.Enabled)

	return &app{
		cfg:        cfg,
		pipeline:   pipeline.New(opts),
		classifier: classifier,
		logger:     logger,
	}, nil
}

// loadImage reads and decodes one image file.
func loadImage(path string) (*imaging.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	img, err := imaging.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}

// printUsage prints token usage and cost the way the other commands do.
func printUsage(classifier ai.Classifier) {
	usage := classifier.GetUsage()
	if usage.InputTokens > 0 || usage.OutputTokens > 0 {
		fmt.Printf("\nAPI Usage:\n")
		fmt.Printf("  Input tokens: %d\n", usage.InputTokens)
		fmt.Printf("  Output tokens: %d\n", usage.OutputTokens)
		fmt.Printf("  Total cost: $%.4f\n", usage.TotalCost)
	}
}
