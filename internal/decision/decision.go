// Package decision turns a face count and a classifier verdict into an action.
package decision

import "github.com/kozaktomas/mask-sentry/internal/ai"

// Outcome is the result of Decide.
type Outcome string

const (
	// NoFaces means nothing was classified.
	NoFaces Outcome = "no_faces"
	// Indeterminate means faces were found but the classifier gave no usable verdict.
	Indeterminate Outcome = "indeterminate"
	// MaskOK means the classifier saw a correctly worn mask.
	MaskOK Outcome = "mask_ok"
	// Violation means the classifier saw no correctly worn mask.
	Violation Outcome = "violation"
)

// Decide applies the rules in order: no faces, absent verdict, mask worn, violation.
func Decide(faceCount int, verdict *ai.Verdict) Outcome {
	switch {
	case faceCount <= 0:
		return NoFaces
	case verdict == nil:
		return Indeterminate
	case verdict.MaskDetected:
		return MaskOK
	default:
		return Violation
	}
}

// Actionable reports whether the outcome calls for alert dispatch.
func (o Outcome) Actionable() bool {
	return o == Violation
}
