package model

import (
	"errors"
	"time"
)

type TaskID string

type CompletionMethod string

const (
	MethodQRCode      CompletionMethod = "QR_CODE"
	MethodGeolocation CompletionMethod = "GEOLOCATION"
	MethodFaceID      CompletionMethod = "FACE_ID"
	MethodPhoto       CompletionMethod = "PHOTO"
)

var ErrInvalidMethod = errors.New("invalid completion method")

func ParseMethod(s string) (CompletionMethod, error) {
	switch CompletionMethod(s) {
	case MethodQRCode, MethodGeolocation, MethodFaceID, MethodPhoto:
		return CompletionMethod(s), nil
	}
	return "", ErrInvalidMethod
}

// Retryable reports whether a failed verification for this method offers a
// fresh capture. QR and geolocation flows re-enter from the scanner instead.
func (m CompletionMethod) Retryable() bool {
	return m == MethodPhoto || m == MethodFaceID
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

type Task struct {
	ID          TaskID           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Datetime    string           `json:"datetime"` // ISO-8601, stored as given
	Method      CompletionMethod `json:"completionMethod"`
	Completed   bool             `json:"completed"`

	// Exactly one of these is populated, matching Method.
	QRCode   string    `json:"qrCode,omitempty"`
	Location *Location `json:"location,omitempty"`
	PhotoURI string    `json:"photoUri,omitempty"`
	FaceData string    `json:"faceData,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Payload returns the method-specific setup value carried by the task.
func (t Task) Payload() (string, bool) {
	switch t.Method {
	case MethodQRCode:
		return t.QRCode, t.QRCode != ""
	case MethodPhoto:
		return t.PhotoURI, t.PhotoURI != ""
	case MethodFaceID:
		return t.FaceData, t.FaceData != ""
	case MethodGeolocation:
		return "", t.Location != nil
	}
	return "", false
}
