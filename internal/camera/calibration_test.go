package camera

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProjectRejectsNonPositiveDepth(t *testing.T) {
	cal := Calibration{Intrinsic: [3][3]float32{
		{600, 0, 320},
		{0, 600, 240},
		{0, 0, 1},
	}}
	_, _, ok := cal.Project(1, 1, 0)
	require.False(t, ok)
	_, _, ok = cal.Project(1, 1, -1)
	require.False(t, ok)
}

func TestProjectPrincipalPoint(t *testing.T) {
	cal := Calibration{Intrinsic: [3][3]float32{
		{600, 0, 320},
		{0, 600, 240},
		{0, 0, 1},
	}}
	px, py, ok := cal.Project(0, 0, 2)
	require.True(t, ok)
	require.InDelta(t, 320, px, 1e-3)
	require.InDelta(t, 240, py, 1e-3)
}

func TestModeTableLookupUnknownModel(t *testing.T) {
	table := ModeTable{"ov9281": Calibration{FullWidth: 1280}}
	_, err := table.Lookup("imx296")
	require.ErrorIs(t, err, ErrUnknownModel)
}

func TestModeTableLookupKnownModel(t *testing.T) {
	table := ModeTable{"ov9281": Calibration{FullWidth: 1280}}
	cal, err := table.Lookup("ov9281")
	require.NoError(t, err)
	require.Equal(t, 1280, cal.FullWidth)
}
