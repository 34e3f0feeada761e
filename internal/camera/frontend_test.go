package camera

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

type fakeDevice struct {
	frame RawFrame
	err   error
	calls int
}

func (d *fakeDevice) CaptureRequest(ctx context.Context) (RawFrame, error) {
	d.calls++
	if d.err != nil {
		return RawFrame{}, d.err
	}
	return d.frame, nil
}

func newTestFrame(cameraID string, sensorUs, durationUs int64, rows, cols int) RawFrame {
	mat := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8U)
	return RawFrame{
		CameraID:          cameraID,
		SensorTimestampUs: sensorUs,
		DurationUs:        durationUs,
		Luma:              LumaView{mat: mat},
	}
}

func TestCaptureAppliesShooterCrop(t *testing.T) {
	dev := &fakeDevice{frame: newTestFrame("shooter", 1000, 20000, 640, 480)}
	f := New("shooter", dev, Calibration{}, zerolog.Nop())

	frame, err := f.Capture(context.Background())
	require.NoError(t, err)
	defer frame.Release()

	require.Equal(t, shooterCropEnd-shooterCropStart, frame.Luma.mat.Rows())
	require.Equal(t, 480, frame.Luma.mat.Cols())
}

func TestCaptureNonShooterUsesFullFrame(t *testing.T) {
	dev := &fakeDevice{frame: newTestFrame("intake", 1000, 20000, 640, 480)}
	f := New("intake", dev, Calibration{}, zerolog.Nop())

	frame, err := f.Capture(context.Background())
	require.NoError(t, err)
	defer frame.Release()

	require.Equal(t, 640, frame.Luma.mat.Rows())
	require.Equal(t, 480, frame.Luma.mat.Cols())
}

func TestCapturePropagatesDeviceError(t *testing.T) {
	wantErr := errors.New("no frame")
	dev := &fakeDevice{err: wantErr}
	f := New("shooter", dev, Calibration{}, zerolog.Nop())

	_, err := f.Capture(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, wantErr)
}

func TestMidpointTimestampUs(t *testing.T) {
	frame := &Frame{SensorTimestampUs: 100000, DurationUs: 20000}
	require.Equal(t, int64(110000), frame.MidpointTimestampUs())
}

func TestReleaseIsIdempotent(t *testing.T) {
	dev := &fakeDevice{frame: newTestFrame("intake", 0, 0, 10, 10)}
	f := New("intake", dev, Calibration{}, zerolog.Nop())

	frame, err := f.Capture(context.Background())
	require.NoError(t, err)

	frame.Release()
	require.NotPanics(t, func() { frame.Release() })
}

func TestRunStopsOnContextCancel(t *testing.T) {
	dev := &fakeDevice{frame: newTestFrame("intake", 0, 0, 4, 4)}
	f := New("intake", dev, Calibration{}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	seen := 0
	done := make(chan struct{})
	go func() {
		f.Run(ctx, func(fr *Frame) {
			seen++
			if seen >= 2 {
				cancel()
			}
		})
		close(done)
	}()
	<-done
	require.GreaterOrEqual(t, seen, 2)
}
