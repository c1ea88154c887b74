package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/mask-sentry/internal/ai"
	"github.com/kozaktomas/mask-sentry/internal/decision"
	"github.com/kozaktomas/mask-sentry/internal/imaging"
	"github.com/kozaktomas/mask-sentry/internal/pipeline"
)

type fakeInspector struct {
	report *pipeline.Report
	calls  int
	opts   pipeline.RunOptions
	img    *imaging.Image
}

func (f *fakeInspector) Run(ctx context.Context, img *imaging.Image, opts pipeline.RunOptions) *pipeline.Report {
	f.calls++
	f.opts = opts
	f.img = img
	return f.report
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for y := range 30 {
		for x := range 40 {
			img.Set(x, y, color.RGBA{R: 200, G: 180, B: 160, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

func multipartRequest(t *testing.T, fields map[string]string, image []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("writing field: %v", err)
		}
	}
	if image != nil {
		fw, err := mw.CreateFormFile("image", "entrance.png")
		if err != nil {
			t.Fatalf("creating form file: %v", err)
		}
		if _, err := io.Copy(fw, bytes.NewReader(image)); err != nil {
			t.Fatalf("writing image: %v", err)
		}
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/inspect", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func violationReport() *pipeline.Report {
	return &pipeline.Report{
		ID:            "run-1",
		State:         pipeline.StateAlertsSkipped,
		Trail:         []pipeline.State{pipeline.StateIdle, pipeline.StateFaceCheck, pipeline.StateClassifying, pipeline.StateViolation, pipeline.StateAlertsSkipped},
		Decision:      decision.Violation,
		FaceCount:     1,
		Boxes:         []imaging.FaceBox{{X: 4, Y: 5, Width: 20, Height: 20}},
		Annotated:     []byte("annotated-jpeg"),
		Verdict:       &ai.Verdict{MaskDetected: false, Reason: "mouth and nose uncovered"},
		AlertsEnabled: false,
	}
}

func TestInspect_ReturnsReport(t *testing.T) {
	inspector := &fakeInspector{report: violationReport()}
	h := NewInspectHandler(inspector, quietLogger())

	recorder := httptest.NewRecorder()
	h.Inspect(recorder, multipartRequest(t, map[string]string{"alerts": "false"}, pngBytes(t)))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if inspector.calls != 1 {
		t.Fatalf("expected one run, got %d", inspector.calls)
	}
	if !inspector.opts.DisableAlerts {
		t.Error("alerts=false should disable alerts for the run")
	}
	if inspector.img.Format() != "png" {
		t.Errorf("expected png image, got %q", inspector.img.Format())
	}

	var resp InspectResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.State != pipeline.StateAlertsSkipped {
		t.Errorf("state = %q", resp.State)
	}
	if resp.MaskDetected == nil || *resp.MaskDetected {
		t.Errorf("mask_detected = %v, want false", resp.MaskDetected)
	}
	if resp.Reason != "mouth and nose uncovered" {
		t.Errorf("reason = %q", resp.Reason)
	}
	if len(resp.Boxes) != 1 || resp.FaceCount != 1 {
		t.Errorf("boxes = %v, face_count = %d", resp.Boxes, resp.FaceCount)
	}
	decoded, err := base64.StdEncoding.DecodeString(resp.Annotated)
	if err != nil || string(decoded) != "annotated-jpeg" {
		t.Errorf("annotated = %q (%v)", resp.Annotated, err)
	}
	if resp.Stopped == "" {
		t.Error("expected stop explanation")
	}
}

func TestInspect_AlertsDefaultToProcessSetting(t *testing.T) {
	inspector := &fakeInspector{report: violationReport()}
	h := NewInspectHandler(inspector, quietLogger())

	recorder := httptest.NewRecorder()
	h.Inspect(recorder, multipartRequest(t, nil, pngBytes(t)))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	if inspector.opts.DisableAlerts {
		t.Error("alerts should not be disabled without the field")
	}
}

func TestInspect_NoFaceHasEmptyBoxes(t *testing.T) {
	inspector := &fakeInspector{report: &pipeline.Report{
		ID:    "run-2",
		State: pipeline.StateNoFace,
		Trail: []pipeline.State{pipeline.StateIdle, pipeline.StateFaceCheck, pipeline.StateNoFace},
	}}
	h := NewInspectHandler(inspector, quietLogger())

	recorder := httptest.NewRecorder()
	h.Inspect(recorder, multipartRequest(t, nil, pngBytes(t)))

	var raw map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &raw); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	boxes, ok := raw["boxes"].([]any)
	if !ok || len(boxes) != 0 {
		t.Errorf("boxes = %v, want empty array", raw["boxes"])
	}
	if _, ok := raw["mask_detected"]; ok {
		t.Error("mask_detected must be absent without a verdict")
	}
}

func TestInspect_BadRequests(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		image  []byte
	}{
		{"missing image", nil, nil},
		{"not an image", nil, []byte("plain text, not pixels")},
		{"invalid alerts flag", map[string]string{"alerts": "sometimes"}, []byte("x")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			inspector := &fakeInspector{report: violationReport()}
			h := NewInspectHandler(inspector, quietLogger())

			recorder := httptest.NewRecorder()
			h.Inspect(recorder, multipartRequest(t, tc.fields, tc.image))

			if recorder.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", recorder.Code)
			}
			if inspector.calls != 0 {
				t.Error("pipeline must not run for a rejected upload")
			}
		})
	}
}

func TestInspect_NotMultipart(t *testing.T) {
	h := NewInspectHandler(&fakeInspector{}, quietLogger())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/inspect", bytes.NewReader([]byte("{}")))
	req.Header.Set("Content-Type", "application/json")

	recorder := httptest.NewRecorder()
	h.Inspect(recorder, req)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", recorder.Code)
	}
}
