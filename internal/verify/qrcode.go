package verify

import (
	"context"
	"fmt"

	"github.com/DenisKurek/memoract/internal/capture"
	"github.com/DenisKurek/memoract/internal/config"
	"github.com/DenisKurek/memoract/internal/model"
)

var qrSuccessMessages = []string{
	"QR code verified successfully!",
	"QR code scanned and validated.",
	"Verification complete. QR code is valid.",
	"QR code authenticated successfully.",
}

var qrFailureMessages = []string{
	"QR code verification failed. No valid data found.",
	"Unable to verify QR code. Please try again.",
}

// QRCodeStrategy verifies a scanned barcode. The backend accepts any
// non-empty scan; the task's stored token is never consulted, matching the
// shipped client behavior.
type QRCodeStrategy struct {
	sim    *simulator
	camera capture.Camera
}

func NewQRCodeStrategy(tuning config.ServiceTuning, camera capture.Camera, opts Options) *QRCodeStrategy {
	return &QRCodeStrategy{
		sim:    newSimulator(tuning, opts),
		camera: camera,
	}
}

func (s *QRCodeStrategy) Method() model.CompletionMethod {
	return model.MethodQRCode
}

func (s *QRCodeStrategy) Capture(ctx context.Context, _ model.Task) (model.CapturedInput, error) {
	data, err := s.camera.ScanBarcode(ctx)
	if err != nil {
		return model.CapturedInput{}, fmt.Errorf("barcode scan: %w", err)
	}
	return model.CapturedInput{QRData: data}, nil
}

func (s *QRCodeStrategy) Verify(ctx context.Context, _ model.Task, in model.CapturedInput) (model.VerificationResult, error) {
	elapsed := s.sim.process(ctx)

	verified := len(in.QRData) > 0

	var message string
	if verified {
		message = s.sim.pick(qrSuccessMessages)
	} else {
		message = s.sim.pick(qrFailureMessages)
	}

	confidence := 0.0
	if verified {
		confidence = 1.0
	}

	return model.VerificationResult{
		Success:        verified,
		Confidence:     confidence,
		Message:        message,
		ProcessingTime: elapsed,
		QRData:         in.QRData,
	}, nil
}
