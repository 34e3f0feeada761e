package camera

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"github.com/itohio/fieldvision/internal/clock"
)

// shooterCropStart/shooterCropEnd are the fixed row bounds spec.md
// §4.C gives for the "shooter" camera identity; every other identity
// uses the full frame (spec.md §9: "crop ranges for cameras other than
// 'shooter' ... source uses full frame").
const (
	shooterCropStart = 62
	shooterCropEnd   = 554
)

// Device is the hardware collaborator this package consumes: the
// camera sensor driver itself is out of scope (spec.md §1), so
// Frontend is built against this interface rather than a concrete
// driver. A production binary supplies an adapter over whatever
// capture API the sensor uses (e.g. libcamera, V4L2); tests supply a
// synthetic one.
type Device interface {
	// CaptureRequest blocks until the next frame is available, per
	// spec.md §5's "camera capture (blocking wait for next frame)"
	// suspension point.
	CaptureRequest(ctx context.Context) (RawFrame, error)
}

// RawFrame is what a Device hands back before this package wraps it
// into a Frame with its crop policy applied.
type RawFrame struct {
	CameraID          string
	SensorTimestampUs int64
	DurationUs        int64
	Luma              LumaView

	// Color is the full BGR plane for the same capture, for Devices
	// that can supply one alongside the luminance view (spec.md §4.E's
	// game-piece finder needs colour; the apriltag path only ever
	// touches Luma).
	Color    gocv.Mat
	HasColor bool
}

// Frontend runs one camera's acquisition loop: capture_request ->
// analyze -> release, on its own goroutine (spec.md §5: "one thread
// per camera").
type Frontend struct {
	identity string
	device   Device
	cal      Calibration
	log      zerolog.Logger
}

// New builds a Frontend for one attached camera, already bound to its
// resolved calibration (spec.md §4.C's per-model mode-table lookup has
// already happened by the time a Frontend exists).
func New(identity string, device Device, cal Calibration, log zerolog.Logger) *Frontend {
	return &Frontend{identity: identity, device: device, cal: cal, log: log}
}

// Calibration returns the camera's fixed intrinsic/distortion/extrinsic
// parameters.
func (f *Frontend) Calibration() Calibration { return f.cal }

// Capture runs exactly one capture_request -> crop cycle. The returned
// Frame's buffer is exclusively owned by the caller until Release is
// called; callers must defer Release immediately, covering every exit
// path including a failed analysis (spec.md §4.C, §5).
func (f *Frontend) Capture(ctx context.Context) (*Frame, error) {
	captureStartNs := clock.Now()
	raw, err := f.device.CaptureRequest(ctx)
	captureDurationUs := (clock.Now() - captureStartNs) / 1000
	if err != nil {
		return nil, fmt.Errorf("camera %s: capture: %w", f.identity, err)
	}

	luma := raw.Luma
	if f.identity == "shooter" {
		luma = luma.Region(shooterCropStart, shooterCropEnd)
	}

	return &Frame{
		CameraID:          raw.CameraID,
		SensorTimestampUs: raw.SensorTimestampUs,
		DurationUs:        raw.DurationUs,
		Luma:              luma,
		Color:             raw.Color,
		HasColor:          raw.HasColor,
		CaptureDurationUs: captureDurationUs,
		full:              luma.mat,
	}, nil
}

// Run drives the acquire/analyze/release cycle until ctx is cancelled,
// handing each frame to analyze and guaranteeing release on every exit
// path. This is the shape spec.md §4.C and §5 describe; the analyze
// callback is where tag detection / game-piece finding plug in.
func (f *Frontend) Run(ctx context.Context, analyze func(*Frame)) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		frame, err := f.Capture(ctx)
		if err != nil {
			f.log.Warn().Err(err).Str("camera", f.identity).Msg("capture failed")
			continue
		}

		func() {
			defer frame.Release()
			analyze(frame)
		}()
	}
}
