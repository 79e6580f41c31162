package verify

import (
	"context"
	"fmt"

	"github.com/DenisKurek/memoract/internal/capture"
	"github.com/DenisKurek/memoract/internal/config"
	"github.com/DenisKurek/memoract/internal/model"
)

var photoSuccessMessages = []string{
	"Photo verification successful! Image matches the reference with high accuracy.",
	"Visual match confirmed. The captured photo meets all requirements.",
	"AI analysis complete. Photo verified successfully.",
	"Content verified. Image matches expected criteria.",
	"Photo validation passed. All visual elements confirmed.",
}

var photoFailureMessages = []string{
	"Photo verification failed. Image doesn't match the reference sufficiently.",
	"Unable to verify photo. Content doesn't meet the required criteria.",
	"Verification unsuccessful. Please ensure the photo captures the correct subject.",
	"Photo mismatch detected. Try capturing the image from a different angle.",
	"Verification failed. Lighting or focus issues detected in the image.",
}

var detectableObjects = []string{
	"document", "person", "product", "location marker", "text",
	"barcode", "logo", "building", "equipment",
}

// PhotoStrategy compares a freshly captured photo against the task's
// reference image through the simulated photo-match backend.
type PhotoStrategy struct {
	sim    *simulator
	camera capture.Camera
}

func NewPhotoStrategy(tuning config.ServiceTuning, camera capture.Camera, opts Options) *PhotoStrategy {
	return &PhotoStrategy{
		sim:    newSimulator(tuning, opts),
		camera: camera,
	}
}

func (s *PhotoStrategy) Method() model.CompletionMethod {
	return model.MethodPhoto
}

func (s *PhotoStrategy) Capture(ctx context.Context, _ model.Task) (model.CapturedInput, error) {
	uri, err := s.camera.TakePhoto(ctx)
	if err != nil {
		return model.CapturedInput{}, fmt.Errorf("photo capture: %w", err)
	}
	return model.CapturedInput{ImageURI: uri}, nil
}

func (s *PhotoStrategy) Verify(ctx context.Context, _ model.Task, in model.CapturedInput) (model.VerificationResult, error) {
	if in.ImageURI == "" {
		return model.VerificationResult{}, fmt.Errorf("photo verify without captured image: %w", ErrServiceUnavailable)
	}

	elapsed := s.sim.process(ctx)

	// The branch is decided before any scores are computed; confidence and
	// similarity only dress the chosen outcome.
	success := s.sim.draw()

	var confidence, similarity float64
	var message string
	if success {
		confidence = s.sim.between(0.75, 1.0)
		similarity = s.sim.between(0.8, 1.0)
		message = s.sim.pick(photoSuccessMessages)
	} else {
		confidence = s.sim.between(0.15, 0.6)
		similarity = s.sim.between(0.2, 0.7)
		message = s.sim.pick(photoFailureMessages)
	}

	objects := s.sim.sample(detectableObjects, 3)

	return model.VerificationResult{
		Success:        success,
		Confidence:     confidence,
		Message:        message,
		ProcessingTime: elapsed,
		MatchDetails: &model.MatchDetails{
			Similarity:      similarity,
			ObjectsDetected: objects,
		},
	}, nil
}
