package telemetry

import (
	"encoding/binary"
	"fmt"

	"github.com/itohio/fieldvision/internal/geometry"
)

// Blip24 is a per-tag pose detection: tag identity plus the camera->tag
// SE(3) transform, spec.md §6's "struct array of Blip24". Its wire
// layout is fixed little-endian, matching the on-robot struct decoder
// (not a schema'd format like protobuf) — grounded on
// pkg/vision/reader/reader.gocv.go's binary.Read magic-header pattern.
type Blip24 struct {
	ID        int32
	Rotation  geometry.Rotation3
	Translate geometry.Vector3
}

// blip24Size is the encoded size in bytes: 4 (id) + 9*4 (rotation) +
// 3*4 (translation).
const blip24Size = 4 + 9*4 + 3*4

// MarshalBinary encodes a Blip24 into the fixed little-endian layout.
func (b Blip24) MarshalBinary() ([]byte, error) {
	buf := make([]byte, blip24Size)
	off := 0
	binary.LittleEndian.PutUint32(buf[off:], uint32(b.ID))
	off += 4
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			binary.LittleEndian.PutUint32(buf[off:], float32bits(b.Rotation[i][j]))
			off += 4
		}
	}
	binary.LittleEndian.PutUint32(buf[off:], float32bits(b.Translate.X))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], float32bits(b.Translate.Y))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], float32bits(b.Translate.Z))
	return buf, nil
}

// UnmarshalBinary decodes a Blip24 from its fixed little-endian layout.
func (b *Blip24) UnmarshalBinary(buf []byte) error {
	if len(buf) < blip24Size {
		return fmt.Errorf("telemetry: Blip24 buffer too short: %d < %d", len(buf), blip24Size)
	}
	off := 0
	b.ID = int32(binary.LittleEndian.Uint32(buf[off:]))
	off += 4
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			b.Rotation[i][j] = float32frombits(binary.LittleEndian.Uint32(buf[off:]))
			off += 4
		}
	}
	b.Translate.X = float32frombits(binary.LittleEndian.Uint32(buf[off:]))
	off += 4
	b.Translate.Y = float32frombits(binary.LittleEndian.Uint32(buf[off:]))
	off += 4
	b.Translate.Z = float32frombits(binary.LittleEndian.Uint32(buf[off:]))
	return nil
}

// Blip25 is a raw pixel-level fiducial observation (spec.md §6,
// "<name>/blips25" / GLOSSARY), used upstream of pose estimation by the
// smoother's bearing-only apriltag factor.
type Blip25 struct {
	ID       int32
	PX, PY   float32
	CameraID int32
}

const blip25Size = 4 + 4 + 4 + 4

// MarshalBinary encodes a Blip25 into its fixed little-endian layout.
func (b Blip25) MarshalBinary() ([]byte, error) {
	buf := make([]byte, blip25Size)
	binary.LittleEndian.PutUint32(buf[0:], uint32(b.ID))
	binary.LittleEndian.PutUint32(buf[4:], float32bits(b.PX))
	binary.LittleEndian.PutUint32(buf[8:], float32bits(b.PY))
	binary.LittleEndian.PutUint32(buf[12:], uint32(b.CameraID))
	return buf, nil
}

// UnmarshalBinary decodes a Blip25 from its fixed little-endian layout.
func (b *Blip25) UnmarshalBinary(buf []byte) error {
	if len(buf) < blip25Size {
		return fmt.Errorf("telemetry: Blip25 buffer too short: %d < %d", len(buf), blip25Size)
	}
	b.ID = int32(binary.LittleEndian.Uint32(buf[0:]))
	b.PX = float32frombits(binary.LittleEndian.Uint32(buf[4:]))
	b.PY = float32frombits(binary.LittleEndian.Uint32(buf[8:]))
	b.CameraID = int32(binary.LittleEndian.Uint32(buf[12:]))
	return nil
}

// MarshalBlip24Array encodes a struct array, matching the "struct
// array of Blip24" topic payload spec.md §6 describes.
func MarshalBlip24Array(vs []Blip24) ([]byte, error) {
	out := make([]byte, 0, len(vs)*blip24Size)
	for _, v := range vs {
		b, err := v.MarshalBinary()
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

// UnmarshalBlip24Array decodes a struct array of Blip24.
func UnmarshalBlip24Array(buf []byte) ([]Blip24, error) {
	if len(buf)%blip24Size != 0 {
		return nil, fmt.Errorf("telemetry: Blip24 array buffer misaligned: %d", len(buf))
	}
	out := make([]Blip24, len(buf)/blip24Size)
	for i := range out {
		if err := out[i].UnmarshalBinary(buf[i*blip24Size:]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// MarshalBlip25Array encodes a struct array of Blip25.
func MarshalBlip25Array(vs []Blip25) ([]byte, error) {
	out := make([]byte, 0, len(vs)*blip25Size)
	for _, v := range vs {
		b, err := v.MarshalBinary()
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

// UnmarshalBlip25Array decodes a struct array of Blip25, preserving
// duplicates as spec.md §4.B requires of receivers.
func UnmarshalBlip25Array(buf []byte) ([]Blip25, error) {
	if len(buf)%blip25Size != 0 {
		return nil, fmt.Errorf("telemetry: Blip25 array buffer misaligned: %d", len(buf))
	}
	out := make([]Blip25, len(buf)/blip25Size)
	for i := range out {
		if err := out[i].UnmarshalBinary(buf[i*blip25Size:]); err != nil {
			return nil, err
		}
	}
	return out, nil
}
