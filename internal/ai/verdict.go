package ai

import (
	"encoding/json"
	"fmt"
)

// ParseVerdict strictly decodes a model response into a Verdict.
// The content must be a JSON object with a boolean "mask_detected" and a
// string "reason"; anything else is ErrMalformedVerdict.
func ParseVerdict(content string) (*Verdict, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &fields); err != nil {
		return nil, fmt.Errorf("%w: not a JSON object: %v (response: %s)", ErrMalformedVerdict, err, content)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: null response", ErrMalformedVerdict)
	}

	rawMask, ok := fields["mask_detected"]
	if !ok {
		return nil, fmt.Errorf("%w: missing key mask_detected", ErrMalformedVerdict)
	}
	rawReason, ok := fields["reason"]
	if !ok {
		return nil, fmt.Errorf("%w: missing key reason", ErrMalformedVerdict)
	}

	var v Verdict
	if err := json.Unmarshal(rawMask, &v.MaskDetected); err != nil || string(rawMask) == "null" {
		return nil, fmt.Errorf("%w: mask_detected is not a boolean: %s", ErrMalformedVerdict, rawMask)
	}
	if err := json.Unmarshal(rawReason, &v.Reason); err != nil || string(rawReason) == "null" {
		return nil, fmt.Errorf("%w: reason is not a string: %s", ErrMalformedVerdict, rawReason)
	}

	return &v, nil
}
