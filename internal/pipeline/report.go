package pipeline

import (
	"fmt"
	"time"

	"github.com/kozaktomas/mask-sentry/internal/ai"
	"github.com/kozaktomas/mask-sentry/internal/alert"
	"github.com/kozaktomas/mask-sentry/internal/decision"
	"github.com/kozaktomas/mask-sentry/internal/imaging"
)

// Report describes how far one inspection got and why it stopped.
type Report struct {
	ID        string            `json:"id"`
	State     State             `json:"state"`
	Trail     []State           `json:"trail"`
	Decision  decision.Outcome  `json:"decision"`
	FaceCount int               `json:"face_count"`
	Boxes     []imaging.FaceBox `json:"boxes"`
	// Annotated is the detection copy with face rectangles, for display only.
	Annotated []byte `json:"-"`

	DetectionError string `json:"detection_error,omitempty"`

	Classifier        string      `json:"classifier,omitempty"`
	Verdict           *ai.Verdict `json:"verdict,omitempty"`
	ClassifierFailure string      `json:"classifier_failure,omitempty"` // transport or parse
	ClassifierError   string      `json:"classifier_error,omitempty"`

	AlertsEnabled bool          `json:"alerts_enabled"`
	Alerts        *alert.Result `json:"alerts,omitempty"`

	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
}

func (r *Report) enter(s State) {
	r.State = s
	r.Trail = append(r.Trail, s)
}

// Reason explains the final state in one sentence for operators.
func (r *Report) Reason() string {
	switch r.State {
	case StateNoFace:
		if r.DetectionError != "" {
			return "face detection failed: " + r.DetectionError
		}
		return "no faces were detected, mask analysis skipped"
	case StateIndeterminate:
		return fmt.Sprintf("classifier gave no usable verdict (%s failure): %s", r.ClassifierFailure, r.ClassifierError)
	case StateMaskOK:
		return "mask detected: " + r.Verdict.Reason
	case StateAlertsSkipped:
		return "violation detected, alerts are disabled: " + r.Verdict.Reason
	case StateAlertsSent:
		failed := 0
		if r.Alerts != nil {
			failed = len(r.Alerts.Failed())
		}
		if failed > 0 {
			return fmt.Sprintf("violation detected, alerts attempted (%d of %d failed): %s",
				failed, len(r.Alerts.Deliveries), r.Verdict.Reason)
		}
		return "violation detected, alerts sent: " + r.Verdict.Reason
	default:
		return "inspection did not finish"
	}
}
