package telemetry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/itohio/fieldvision/internal/geometry"
)

func TestBlip24RoundTrip(t *testing.T) {
	b := Blip24{ID: 42, Rotation: geometry.RotationZ(0.7), Translate: geometry.Vector3{X: 1, Y: 2, Z: 3}}
	buf, err := b.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, buf, blip24Size)

	var out Blip24
	require.NoError(t, out.UnmarshalBinary(buf))
	require.Equal(t, b.ID, out.ID)
	require.InDelta(t, b.Translate.X, out.Translate.X, 1e-6)
	require.InDelta(t, b.Rotation[0][0], out.Rotation[0][0], 1e-6)
}

func TestBlip25RoundTrip(t *testing.T) {
	b := Blip25{ID: 3, PX: 123.5, PY: 64.25, CameraID: 2}
	buf, err := b.MarshalBinary()
	require.NoError(t, err)

	var out Blip25
	require.NoError(t, out.UnmarshalBinary(buf))
	require.Equal(t, b, out)
}

func TestBlip24ArrayRoundTrip(t *testing.T) {
	in := []Blip24{{ID: 1}, {ID: 2, Translate: geometry.Vector3{X: 1}}}
	buf, err := MarshalBlip24Array(in)
	require.NoError(t, err)
	out, err := UnmarshalBlip24Array(buf)
	require.NoError(t, err)
	require.Equal(t, in, out)
}
