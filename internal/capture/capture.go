// Package capture abstracts the device-side collaborators a verification
// strategy needs: camera, barcode scanner, and geolocation. Real hardware
// lives on the client; the simulated providers stand in when an attempt is
// started without client-captured input.
package capture

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/DenisKurek/memoract/internal/model"
)

var (
	// ErrPermissionDenied signals the device refused hardware access. It
	// aborts the capture step and returns control to the caller.
	ErrPermissionDenied = errors.New("permission denied")

	ErrNoFix = errors.New("no position fix")
)

type Camera interface {
	TakePhoto(ctx context.Context) (string, error)
	ScanBarcode(ctx context.Context) (string, error)
}

type Locator interface {
	CurrentPosition(ctx context.Context) (model.Location, error)
	ReverseGeocode(ctx context.Context, pos model.Location) (string, error)
	Geocode(ctx context.Context, query string) (model.Location, error)
}

// SimulatedCamera fabricates capture handles the way the source app's
// simulated face capture does: timestamped opaque tokens.
type SimulatedCamera struct {
	Now func() time.Time
}

func (c *SimulatedCamera) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *SimulatedCamera) TakePhoto(_ context.Context) (string, error) {
	return fmt.Sprintf("photo_%d.jpg", c.now().UnixMilli()), nil
}

func (c *SimulatedCamera) ScanBarcode(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

// SimulatedLocator returns a fixed position fix.
type SimulatedLocator struct {
	Fix model.Location
}

func (l *SimulatedLocator) CurrentPosition(_ context.Context) (model.Location, error) {
	return l.Fix, nil
}

func (l *SimulatedLocator) ReverseGeocode(_ context.Context, pos model.Location) (string, error) {
	if pos.Address != "" {
		return pos.Address, nil
	}
	return fmt.Sprintf("%.4f, %.4f", pos.Latitude, pos.Longitude), nil
}

func (l *SimulatedLocator) Geocode(_ context.Context, query string) (model.Location, error) {
	if query == "" {
		return model.Location{}, ErrNoFix
	}
	fix := l.Fix
	fix.Address = query
	return fix, nil
}
