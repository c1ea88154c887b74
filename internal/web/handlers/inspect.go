package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/kozaktomas/mask-sentry/internal/alert"
	"github.com/kozaktomas/mask-sentry/internal/constants"
	"github.com/kozaktomas/mask-sentry/internal/imaging"
	"github.com/kozaktomas/mask-sentry/internal/pipeline"
)

// Inspector runs one inspection. Satisfied by *pipeline.Pipeline.
type Inspector interface {
	Run(ctx context.Context, img *imaging.Image, opts pipeline.RunOptions) *pipeline.Report
}

// InspectHandler accepts an uploaded still image and runs it through the pipeline.
type InspectHandler struct {
	inspector Inspector
	logger    *slog.Logger
}

// NewInspectHandler creates a new inspect handler.
func NewInspectHandler(inspector Inspector, logger *slog.Logger) *InspectHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &InspectHandler{inspector: inspector, logger: logger}
}

// InspectResponse is the JSON body returned for a finished inspection.
type InspectResponse struct {
	ID             string            `json:"id"`
	State          pipeline.State    `json:"state"`
	Trail          []pipeline.State  `json:"trail"`
	Decision       string            `json:"decision"`
	FaceCount      int               `json:"face_count"`
	Boxes          []imaging.FaceBox `json:"boxes"`
	MaskDetected   *bool             `json:"mask_detected,omitempty"`
	Reason         string            `json:"reason,omitempty"`
	Failure        string            `json:"failure,omitempty"`
	FailureMessage string            `json:"failure_message,omitempty"`
	DetectionError string            `json:"detection_error,omitempty"`
	AlertsEnabled  bool              `json:"alerts_enabled"`
	Deliveries     []alert.Delivery  `json:"deliveries,omitempty"`
	Annotated      string            `json:"annotated,omitempty"` // base64 JPEG
	Stopped        string            `json:"stopped"`
	DurationMS     int64             `json:"duration_ms"`
}

func newInspectResponse(rep *pipeline.Report) InspectResponse {
	resp := InspectResponse{
		ID:             rep.ID,
		State:          rep.State,
		Trail:          rep.Trail,
		Decision:       string(rep.Decision),
		FaceCount:      rep.FaceCount,
		Boxes:          rep.Boxes,
		Failure:        rep.ClassifierFailure,
		FailureMessage: rep.ClassifierError,
		DetectionError: rep.DetectionError,
		AlertsEnabled:  rep.AlertsEnabled,
		Stopped:        rep.Reason(),
		DurationMS:     rep.Duration.Milliseconds(),
	}
	if rep.Boxes == nil {
		resp.Boxes = []imaging.FaceBox{}
	}
	if rep.Verdict != nil {
		masked := rep.Verdict.MaskDetected
		resp.MaskDetected = &masked
		resp.Reason = rep.Verdict.Reason
	}
	if rep.Alerts != nil {
		resp.Deliveries = rep.Alerts.Deliveries
	}
	if len(rep.Annotated) > 0 {
		resp.Annotated = base64.StdEncoding.EncodeToString(rep.Annotated)
	}
	return resp
}

// Inspect handles POST /api/v1/inspect with multipart field "image" and
// optional field "alerts" (false suppresses dispatch for this run).
func (h *InspectHandler) Inspect(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadSize)
	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "image exceeds upload limit")
			return
		}
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	opts := pipeline.RunOptions{}
	if v := r.FormValue("alerts"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "alerts must be true or false")
			return
		}
		opts.DisableAlerts = !enabled
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "image is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read image")
		return
	}

	img, err := imaging.Decode(data)
	if err != nil {
		h.logger.Warn("rejected upload", "filename", sanitizeForLog(header.Filename), "error", err)
		respondError(w, http.StatusBadRequest, "upload is not a supported image")
		return
	}

	rep := h.inspector.Run(r.Context(), img, opts)
	respondJSON(w, http.StatusOK, newInspectResponse(rep))
}
