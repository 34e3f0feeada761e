// Package camera implements the multi-camera frontend (spec.md §4.C):
// per-model sensor-mode selection, a capture->analyze->release cycle
// whose buffer lifetime is scoped so release always runs, and a
// zero-copy luminance view of each acquired frame.
package camera

import (
	"encoding/binary"
	"math"

	"github.com/itohio/fieldvision/internal/geometry"
)

// Calibration is a camera's fixed per-unit parameters: the intrinsic
// matrix, radial/tangential distortion and the robot-relative
// extrinsic transform (spec.md §3).
type Calibration struct {
	Intrinsic   [3][3]float32
	Distortion  [5]float32 // k1, k2, p1, p2, k3
	Extrinsic   geometry.Transform3
	FullWidth   int
	FullHeight  int
	WorkWidth   int
	WorkHeight  int
}

// Project maps a camera-frame 3-D point through the pinhole intrinsic
// matrix to a pixel coordinate. Distortion is not applied here —
// per spec.md §4.D, only the four detected tag corners get undistorted,
// not the whole frame, so distortion application lives beside that
// 8-point undistort step (internal/apriltag) rather than here.
func (c Calibration) Project(x, y, z float32) (px, py float32, ok bool) {
	if z <= 0 {
		return 0, 0, false
	}
	u := c.Intrinsic[0][0]*(x/z) + c.Intrinsic[0][2]
	v := c.Intrinsic[1][1]*(y/z) + c.Intrinsic[1][2]
	return u, v, true
}

// Marshal packs the intrinsic matrix followed by the distortion vector
// as 14 little-endian float32 values, the raw layout a startup
// CalibSender publish carries (spec.md §6's "per-camera calibration,
// once at startup"). The downstream controller already knows this
// fixed row-major/k1..k3 ordering, so no self-describing header is
// needed.
func (c Calibration) Marshal() []byte {
	buf := make([]byte, 14*4)
	idx := 0
	for r := 0; r < 3; r++ {
		for col := 0; col < 3; col++ {
			binary.LittleEndian.PutUint32(buf[idx*4:], math.Float32bits(c.Intrinsic[r][col]))
			idx++
		}
	}
	for _, d := range c.Distortion {
		binary.LittleEndian.PutUint32(buf[idx*4:], math.Float32bits(d))
		idx++
	}
	return buf
}

// ModeTable maps a camera model id to its fixed (resolution, intrinsic,
// distortion) entry, per spec.md §4.C: "selects a sensor-mode table
// entry keyed by model id". Compiled constants, not config files
// (spec.md §6).
type ModeTable map[string]Calibration

// Lookup returns the mode-table entry for a model id, or ErrUnknownModel
// if the table doesn't carry it — a fatal, not-a-default condition per
// spec.md §7: "Unknown model: fatal at startup; no defaults invented."
func (t ModeTable) Lookup(modelID string) (Calibration, error) {
	cal, ok := t[modelID]
	if !ok {
		return Calibration{}, ErrUnknownModel
	}
	return cal, nil
}
