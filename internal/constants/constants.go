// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

import "time"

// Face detection constants
const (
	// CascadeScaleFactor is the image pyramid step used by the Haar cascade
	CascadeScaleFactor = 1.1

	// CascadeMinNeighbors is the minimum number of overlapping candidate
	// rectangles required to keep a detection
	CascadeMinNeighbors = 5

	// CascadeMinFaceSize is the smallest face (width and height, in pixels) the
	// detector reports
	CascadeMinFaceSize = 30

	// BoxThickness is the line width of annotation rectangles
	BoxThickness = 2

	// DefaultCascadePath is the frontal face cascade shipped with OpenCV
	DefaultCascadePath = "haarcascade_frontalface_default.xml"
)

// Classifier constants
const (
	// DefaultClassifierProvider is used when CLASSIFIER_PROVIDER is unset
	DefaultClassifierProvider = "groq"

	// DefaultGroqBaseURL is Groq's OpenAI compatible endpoint
	DefaultGroqBaseURL = "https://api.groq.com/openai/v1/"

	// DefaultGroqModel is the vision model used on Groq
	DefaultGroqModel = "meta-llama/llama-4-scout-17b-16e-instruct"

	// DefaultOpenAIModel is the vision model used on OpenAI
	DefaultOpenAIModel = "gpt-4.1-mini"

	// DefaultGeminiModel is the vision model used on Gemini
	DefaultGeminiModel = "gemini-2.5-flash"

	// ClassifierMaxTokens caps the verdict completion length
	ClassifierMaxTokens = 200

	// DefaultClassifierTimeout bounds a single vision model call
	DefaultClassifierTimeout = 30 * time.Second
)

// Alert constants
const (
	// DefaultSMTPHost is the mail submission host
	DefaultSMTPHost = "smtp.gmail.com"

	// DefaultSMTPPort is the STARTTLS submission port
	DefaultSMTPPort = 587

	// DefaultAlertTimeout bounds a single sink delivery
	DefaultAlertTimeout = 20 * time.Second

	// AttachmentName is the filename of the image attached to alert emails
	AttachmentName = "violation_capture.jpg"

	// ViolationSubject is the subject line of violation alerts
	ViolationSubject = "ALERT: Face Mask Violation Detected!"
)

// Upload constants
const (
	// MaxUploadSize is the maximum accepted image upload in bytes
	MaxUploadSize = 10 << 20

	// JPEGQuality is used whenever an image has to be re-encoded
	JPEGQuality = 90
)
