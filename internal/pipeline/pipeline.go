// Package pipeline runs one inspection: face check, mask classification,
// violation decision and alert dispatch, strictly in that order.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/mask-sentry/internal/ai"
	"github.com/kozaktomas/mask-sentry/internal/alert"
	"github.com/kozaktomas/mask-sentry/internal/decision"
	"github.com/kozaktomas/mask-sentry/internal/imaging"
)

// FaceLocator finds faces in an image.
type FaceLocator interface {
	Locate(img *imaging.Image) (*imaging.Detection, error)
}

// Dispatcher sends a violation event to every sink.
type Dispatcher interface {
	Dispatch(ctx context.Context, evt alert.Event) *alert.Result
}

// Recorder receives run statistics; satisfied by *metrics.Metrics.
type Recorder interface {
	RunFinished(state string, d time.Duration)
	ClassifierFailed(kind string)
	AlertDelivered(sink string, ok bool)
}

type noopRecorder struct{}

func (noopRecorder) RunFinished(string, time.Duration) {}
func (noopRecorder) ClassifierFailed(string) {}
func (noopRecorder) AlertDelivered(string, bool) {}

type Options struct {
	Locator    FaceLocator
	Classifier ai.Classifier
	Dispatcher Dispatcher
	// AlertsEnabled is the process wide toggle.
	AlertsEnabled bool
	Logger        *slog.Logger
	Recorder      Recorder
}

// Pipeline holds no state between runs and is safe for concurrent use when
// its collaborators are.
type Pipeline struct {
	locator       FaceLocator
	classifier    ai.Classifier
	dispatcher    Dispatcher
	alertsEnabled bool
	logger        *slog.Logger
	recorder      Recorder
}

func New(opts Options) *Pipeline {
	p := &Pipeline{
		locator:       opts.Locator,
		classifier:    opts.Classifier,
		dispatcher:    opts.Dispatcher,
		alertsEnabled: opts.AlertsEnabled,
		logger:        opts.Logger,
		recorder:      opts.Recorder,
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.recorder == nil {
		p.recorder = noopRecorder{}
	}
	return p
}

// RunOptions adjust a single run.
type RunOptions struct {
	// DisableAlerts suppresses dispatch for this run. It can only narrow the
	// process wide toggle, never enable alerts that are switched off.
	DisableAlerts bool
}

// Run inspects img. It never returns an error: every failure is recorded in
// the report together with the state the run stopped in.
func (p *Pipeline) Run(ctx context.Context, img *imaging.Image, opts RunOptions) *Report {
	report := &Report{
		ID:            uuid.NewString(),
		StartedAt:     time.Now(),
		AlertsEnabled: p.alertsEnabled && !opts.DisableAlerts,
	}
	report.enter(StateIdle)
	log := p.logger.With("invocation", report.ID)

	defer func() {
		report.Duration = time.Since(report.StartedAt)
		p.recorder.RunFinished(string(report.State), report.Duration)
		log.Info("inspection finished", "state", report.State, "duration", report.Duration)
	}()

	// Stage 1: face presence
	report.enter(StateFaceCheck)
	det, err := p.locate(img)
	if err != nil {
		report.DetectionError = err.Error()
		report.Annotated = img.Bytes()
		log.Error("face detection failed", "error", err)
	} else {
		report.Boxes = det.Boxes
		report.FaceCount = det.Count()
		report.Annotated = det.Annotated
	}
	log.Info("face check complete", "faces", report.FaceCount)

	if report.FaceCount == 0 {
		report.Decision = decision.Decide(0, nil)
		report.enter(StateNoFace)
		return report
	}

	// Stage 2: classification
	report.enter(StateClassifying)
	report.Classifier = p.classifier.Name()
	verdict, err := p.classifier.ClassifyMask(ctx, img.Bytes())
	if err != nil {
		report.ClassifierFailure = ai.FailureKind(err)
		report.ClassifierError = err.Error()
		p.recorder.ClassifierFailed(report.ClassifierFailure)
		log.Error("mask classification failed", "kind", report.ClassifierFailure, "error", err)
		verdict = nil
	} else {
		report.Verdict = verdict
		log.Info("mask classification complete", "mask_detected", verdict.MaskDetected, "reason", verdict.Reason)
	}

	// Stage 3: decision
	report.Decision = decision.Decide(report.FaceCount, verdict)
	switch report.Decision {
	case decision.Indeterminate:
		report.enter(StateIndeterminate)
		return report
	case decision.MaskOK:
		report.enter(StateMaskOK)
		return report
	}
	report.enter(StateViolation)

	// Stage 4: alerts
	if !report.AlertsEnabled {
		log.Warn("violation detected, alerts disabled")
		report.enter(StateAlertsSkipped)
		return report
	}

	log.Warn("violation detected, dispatching alerts")
	report.Alerts = p.dispatcher.Dispatch(ctx, alert.NewViolationEvent(verdict.Reason, attachment(img)))
	for _, d := range report.Alerts.Deliveries {
		p.recorder.AlertDelivered(d.Sink, d.OK())
	}
	report.enter(StateAlertsSent)
	return report
}

// locate converts a detector panic into an error so no failure leaves the stage.
func (p *Pipeline) locate(img *imaging.Image) (det *imaging.Detection, err error) {
	defer func() {
		if r := recover(); r != nil {
			det, err = nil, fmt.Errorf("face detector panicked: %v", r)
		}
	}()
	return p.locator.Locate(img)
}

// attachment is the JPEG sent with the email; the original bytes if re-encoding fails.
func attachment(img *imaging.Image) []byte {
	data, err := img.JPEG()
	if err != nil {
		return img.Bytes()
	}
	return data
}
