package camera

import "errors"

var (
	// ErrUnknownModel is fatal at startup per spec.md §7: no default
	// sensor mode is invented for an unrecognised camera model.
	ErrUnknownModel = errors.New("camera: unknown sensor model")
	// ErrNoCameras is reported, then the frontend idles — not fatal,
	// so tests and bring-up without hardware attached still run
	// (spec.md §7: "Hardware absent ... not fatal so tests can run.").
	ErrNoCameras = errors.New("camera: no cameras detected")
)
