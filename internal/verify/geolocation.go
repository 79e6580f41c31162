package verify

import (
	"context"
	"fmt"

	"github.com/DenisKurek/memoract/internal/capture"
	"github.com/DenisKurek/memoract/internal/config"
	"github.com/DenisKurek/memoract/internal/model"
)

var geoSuccessMessages = []string{
	"Location verified. You are at the right place.",
	"Position check complete. Location confirmed.",
	"Geolocation verification successful.",
}

// GeolocationStrategy reads the device position and confirms it. The check
// always passes after a fixed delay; the task's target coordinates are shown
// but never compared against, matching the shipped client behavior.
type GeolocationStrategy struct {
	sim     *simulator
	locator capture.Locator
}

func NewGeolocationStrategy(tuning config.ServiceTuning, locator capture.Locator, opts Options) *GeolocationStrategy {
	return &GeolocationStrategy{
		sim:     newSimulator(tuning, opts),
		locator: locator,
	}
}

func (s *GeolocationStrategy) Method() model.CompletionMethod {
	return model.MethodGeolocation
}

func (s *GeolocationStrategy) Capture(ctx context.Context, _ model.Task) (model.CapturedInput, error) {
	pos, err := s.locator.CurrentPosition(ctx)
	if err != nil {
		return model.CapturedInput{}, fmt.Errorf("position fix: %w", err)
	}
	if addr, err := s.locator.ReverseGeocode(ctx, pos); err == nil {
		pos.Address = addr
	}
	return model.CapturedInput{Position: &pos}, nil
}

func (s *GeolocationStrategy) Verify(ctx context.Context, _ model.Task, in model.CapturedInput) (model.VerificationResult, error) {
	elapsed := s.sim.process(ctx)

	message := s.sim.pick(geoSuccessMessages)
	if in.Position != nil && in.Position.Address != "" {
		message = message + " (" + in.Position.Address + ")"
	}

	return model.VerificationResult{
		Success:        true,
		Confidence:     1.0,
		Message:        message,
		ProcessingTime: elapsed,
	}, nil
}
