package decision

import (
	"testing"

	"github.com/kozaktomas/mask-sentry/internal/ai"
)

func TestDecide(t *testing.T) {
	masked := &ai.Verdict{MaskDetected: true, Reason: "mask covers nose and mouth"}
	unmasked := &ai.Verdict{MaskDetected: false, Reason: "visible nose and mouth"}

	tests := []struct {
		name      string
		faceCount int
		verdict   *ai.Verdict
		expected  Outcome
	}{
		{"no faces without verdict", 0, nil, NoFaces},
		{"no faces wins over violation verdict", 0, unmasked, NoFaces},
		{"no faces wins over mask verdict", 0, masked, NoFaces},
		{"absent verdict", 1, nil, Indeterminate},
		{"mask worn", 1, masked, MaskOK},
		{"violation", 1, unmasked, Violation},
		{"violation with several faces", 2, unmasked, Violation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.faceCount, tt.verdict)
			if got != tt.expected {
				t.Errorf("Decide(%d, %+v) = %s, expected %s", tt.faceCount, tt.verdict, got, tt.expected)
			}
		})
	}
}

func TestOutcome_Actionable(t *testing.T) {
	for _, o := range []Outcome{NoFaces, Indeterminate, MaskOK} {
		if o.Actionable() {
			t.Errorf("expected %s not to be actionable", o)
		}
	}
	if !Violation.Actionable() {
		t.Error("expected violation to be actionable")
	}
}

func TestDecide_IndeterminateIsNotMaskOK(t *testing.T) {
	if Decide(3, nil) == MaskOK {
		t.Error("absent verdict must stay distinct from mask_ok")
	}
}
