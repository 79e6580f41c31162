package model

// CapturedInput is what a strategy's capture step produced: a photo file
// handle, a scanned QR string, a device location fix, or a face token.
type CapturedInput struct {
	ImageURI string    `json:"imageUri,omitempty"`
	QRData   string    `json:"qrData,omitempty"`
	Position *Location `json:"position,omitempty"`
	FaceScan string    `json:"faceScan,omitempty"`
}

type MatchDetails struct {
	Similarity      float64  `json:"similarity"`
	ObjectsDetected []string `json:"objectsDetected"`
}

// FaceMetrics are cosmetic per-attempt analysis values from the face service.
type FaceMetrics struct {
	FaceDetected     bool   `json:"faceDetected"`
	EyesOpen         bool   `json:"eyesOpen"`
	FacingCamera     bool   `json:"facingCamera"`
	LightingQuality  string `json:"lightingQuality"`
	ImageQuality     string `json:"imageQuality"`
	SpoofingDetected string `json:"spoofingDetection"`
}

// VerificationResult is the outcome of one verify call. It lives for a single
// attempt and is discarded on retry or close; it is never persisted.
type VerificationResult struct {
	Success        bool    `json:"success"`
	Confidence     float64 `json:"confidence"`
	Message        string  `json:"message"`
	ProcessingTime int64   `json:"processingTime"` // milliseconds, display only

	QRData       string        `json:"qrData,omitempty"`
	MatchDetails *MatchDetails `json:"matchDetails,omitempty"`
	FaceMetrics  *FaceMetrics  `json:"faceMetrics,omitempty"`
}
