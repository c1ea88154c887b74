package imaging

import "image"

// FaceBox is a detected face region in pixel coordinates.
type FaceBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// FaceBoxFromRect converts an image rectangle into a FaceBox.
func FaceBoxFromRect(r image.Rectangle) FaceBox {
	return FaceBox{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// Rect converts the box back into an image rectangle.
func (b FaceBox) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// Detection is the output of one face locator run.
// Box order is detector defined; only the count drives decisions.
type Detection struct {
	Boxes []FaceBox
	// Annotated is a JPEG copy of the input with a rectangle over every box,
	// for operator review only.
	Annotated []byte
}

// Count returns the number of detected faces.
func (d *Detection) Count() int {
	if d == nil {
		return 0
	}
	return len(d.Boxes)
}
