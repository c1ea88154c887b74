// Package facedetect locates frontal faces with an OpenCV Haar cascade.
package facedetect

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"

	"gocv.io/x/gocv"

	"github.com/kozaktomas/mask-sentry/internal/constants"
	"github.com/kozaktomas/mask-sentry/internal/imaging"
)

// ErrCascadeUnavailable means the cascade model file is missing or could not be parsed.
var ErrCascadeUnavailable = errors.New("face cascade unavailable")

// boxColor is blue; gocv maps RGBA onto the BGR channel order of the image.
var boxColor = color.RGBA{R: 0, G: 0, B: 255, A: 0}

// Params are the cascade tuning knobs.
type Params struct {
	ScaleFactor  float64
	MinNeighbors int
	MinSize      int
}

// DefaultParams returns the thresholds used for frontal face detection.
func DefaultParams() Params {
	return Params{
		ScaleFactor:  constants.CascadeScaleFactor,
		MinNeighbors: constants.CascadeMinNeighbors,
		MinSize:      constants.CascadeMinFaceSize,
	}
}

// CascadeLocator runs a pretrained feature cascade over a still image.
// The classifier is loaded per call so a locator is safe for concurrent use.
type CascadeLocator struct {
	cascadePath string
	params      Params
}

// NewCascadeLocator creates a locator for the cascade XML file at cascadePath.
func NewCascadeLocator(cascadePath string, params Params) *CascadeLocator {
	return &CascadeLocator{cascadePath: cascadePath, params: params}
}

// Locate detects faces in img and returns their boxes with an annotated copy.
func (l *CascadeLocator) Locate(img *imaging.Image) (*imaging.Detection, error) {
	if _, err := os.Stat(l.cascadePath); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCascadeUnavailable, l.cascadePath, err)
	}

	classifier := gocv.NewCascadeClassifier()
	defer classifier.Close()

	if !classifier.Load(l.cascadePath) {
		return nil, fmt.Errorf("%w: failed to load %s", ErrCascadeUnavailable, l.cascadePath)
	}

	// IMDecode yields BGR, the order the cascade was trained on
	mat, err := gocv.IMDecode(img.Bytes(), gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, errors.New("failed to decode image: empty pixel grid")
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)

	minSize := image.Pt(l.params.MinSize, l.params.MinSize)
	rects := classifier.DetectMultiScaleWithParams(gray, l.params.ScaleFactor, l.params.MinNeighbors, 0, minSize, image.Point{})

	annotated := mat.Clone()
	defer annotated.Close()

	boxes := make([]imaging.FaceBox, 0, len(rects))
	for _, r := range rects {
		boxes = append(boxes, imaging.FaceBoxFromRect(r))
		gocv.Rectangle(&annotated, r, boxColor, constants.BoxThickness)
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, annotated)
	if err != nil {
		return nil, fmt.Errorf("failed to encode annotated image: %w", err)
	}
	defer buf.Close()

	return &imaging.Detection{
		Boxes:     boxes,
		Annotated: append([]byte(nil), buf.GetBytes()...),
	}, nil
}
