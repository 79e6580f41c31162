// Package verify holds the pluggable verification backends: one strategy per
// completion method, each pairing a capture step with a confidence-scored
// verify call. The shipped implementations simulate their backends the way
// the production mobile client does; a real backend slots in behind the same
// Strategy interface.
package verify

import (
	"context"
	"errors"

	"github.com/DenisKurek/memoract/internal/capture"
	"github.com/DenisKurek/memoract/internal/config"
	"github.com/DenisKurek/memoract/internal/model"
)

var (
	// ErrServiceUnavailable means the verify call itself could not run. An
	// ordinary negative outcome is a VerificationResult with Success=false,
	// never an error.
	ErrServiceUnavailable = errors.New("verification service unavailable")

	ErrUnknownMethod = errors.New("no verification strategy for completion method")
)

type Strategy interface {
	Method() model.CompletionMethod

	// Capture produces the strategy-specific input for one attempt: a photo
	// handle, a scanned QR string, a position fix, or a face token.
	Capture(ctx context.Context, t model.Task) (model.CapturedInput, error)

	// Verify scores the captured input. A failed check is a normal
	// Success=false result; only an unrunnable call returns an error.
	Verify(ctx context.Context, t model.Task, in model.CapturedInput) (model.VerificationResult, error)
}

type Registry struct {
	byMethod map[model.CompletionMethod]Strategy
}

func NewRegistry(strategies ...Strategy) *Registry {
	r := &Registry{byMethod: map[model.CompletionMethod]Strategy{}}
	for _, s := range strategies {
		r.byMethod[s.Method()] = s
	}
	return r
}

func (r *Registry) For(m model.CompletionMethod) (Strategy, error) {
	s, ok := r.byMethod[m]
	if !ok {
		return nil, ErrUnknownMethod
	}
	return s, nil
}

// NewMockRegistry wires the four simulated strategies from config tuning.
func NewMockRegistry(cfg config.Verification, opts Options) *Registry {
	camera := &capture.SimulatedCamera{}
	locator := &capture.SimulatedLocator{}
	return NewRegistry(
		NewPhotoStrategy(cfg.Photo, camera, opts),
		NewQRCodeStrategy(cfg.QR, camera, opts),
		NewGeolocationStrategy(cfg.Geo, locator, opts),
		NewFaceIDStrategy(cfg.Face, camera, opts),
	)
}
