package camera

import "gocv.io/x/gocv"

// LumaView is a zero-copy grayscale view over a frame's Y-plane: for a
// YUV420 capture the luminance plane is the first
// width*height bytes, so this is a size-truncation of the backing Mat,
// not a copy (spec.md §4.C: "chrominance is dropped by size-truncation,
// not copied.").
type LumaView struct {
	mat gocv.Mat
}

// Mat exposes the underlying grayscale Mat for detector/finder stages
// that need a gocv.Mat directly.
func (l LumaView) Mat() gocv.Mat { return l.mat }

// Bytes returns the raw row-major luminance bytes, for collaborators
// (the apriltag Decoder) that take a plain buffer rather than a
// gocv.Mat (grounded on pkg/vision/writer/write.gocv.go's mat.ToBytes()).
func (l LumaView) Bytes() []byte { return l.mat.ToBytes() }

// Rows and Cols expose the view's dimensions.
func (l LumaView) Rows() int { return l.mat.Rows() }
func (l LumaView) Cols() int { return l.mat.Cols() }

// Region returns a cropped view without copying pixel data, used for
// the per-identity crop policy (spec.md §4.C: rows [62,554) for the
// "shooter" identity, full frame otherwise).
func (l LumaView) Region(rowStart, rowEnd int) LumaView {
	rect := imageRect(l.mat, rowStart, rowEnd)
	return LumaView{mat: l.mat.Region(rect)}
}

// Frame is one acquired camera image: sensor-timestamp, frame
// duration, a luminance view, and the camera that produced it
// (spec.md §3). Its buffer lifetime is scoped to one analysis pass —
// callers must call Release on every exit path, including failure.
//
// Color, when present, is the same capture's full BGR plane — the
// game-piece finder (spec.md §4.E) needs HSV colour, unlike the
// apriltag detector's luminance-only view, so a Device that can supply
// it attaches it here rather than forcing every collaborator through
// the grayscale view.
type Frame struct {
	CameraID          string
	SensorTimestampUs int64
	DurationUs        int64
	Luma              LumaView
	Color             gocv.Mat
	HasColor          bool

	// CaptureDurationUs is how long this frame blocked in
	// CaptureRequest, published as capture_time_ms (spec.md §6).
	CaptureDurationUs int64

	full     gocv.Mat
	released bool
}

// Release returns the mapped camera buffer. Safe to call more than
// once; safe to call after a failed analysis pass.
func (f *Frame) Release() {
	if f.released {
		return
	}
	f.released = true
	if !f.full.Empty() {
		f.full.Close()
	}
	if f.HasColor && !f.Color.Empty() {
		f.Color.Close()
	}
}

// MidpointTimestampUs is the rolling-shutter-corrected effective sensor
// time spec.md §4.D defines: "sensor_timestamp + frame_duration/2".
// Global-shutter sensors should use frame start instead — flagged as a
// TODO in spec.md §9, not implemented here since this frontend only
// ever sees rolling-shutter sensors in production.
func (f *Frame) MidpointTimestampUs() int64 {
	return f.SensorTimestampUs + f.DurationUs/2
}
