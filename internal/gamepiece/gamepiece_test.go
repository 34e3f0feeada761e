package gamepiece

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestExtractObservationsCenteredRectangle(t *testing.T) {
	width, height := 200, 200
	mask := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC1)
	defer mask.Close()

	// A 100px-tall, 30px-wide rectangle centered in the frame, aspect
	// ratio 100/30 ~= 3.3, within [2,5].
	rect := image.Rect(width/2-15, height/2-50, width/2+15, height/2+50)
	gocv.Rectangle(&mask, rect, color.RGBA{R: 255, G: 255, B: 255, A: 0}, -1)

	obs := extractObservations(mask, width, height, 0)

	require.Len(t, obs, 1)
	require.InDelta(t, 0, obs[0].TX, 1e-2)
	require.InDelta(t, 0, obs[0].TY, 1e-2)
	require.InDelta(t, objectHeightMeters/100, obs[0].TZ, 1e-4)
}

func TestExtractObservationsRejectsShortContour(t *testing.T) {
	width, height := 200, 200
	mask := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC1)
	defer mask.Close()

	rect := image.Rect(80, 90, 110, 110) // 20px tall, below the 50px floor
	gocv.Rectangle(&mask, rect, color.RGBA{R: 255, G: 255, B: 255, A: 0}, -1)

	obs := extractObservations(mask, width, height, 0)
	require.Empty(t, obs)
}

func TestExtractObservationsRejectsWideAspect(t *testing.T) {
	width, height := 200, 200
	mask := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC1)
	defer mask.Close()

	rect := image.Rect(20, 60, 180, 140) // 80 tall, 160 wide, aspect 0.5
	gocv.Rectangle(&mask, rect, color.RGBA{R: 255, G: 255, B: 255, A: 0}, -1)

	obs := extractObservations(mask, width, height, 0)
	require.Empty(t, obs)
}

func TestCloseInteriorsFillsBackground(t *testing.T) {
	width, height := 50, 50
	mask := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC1)
	defer mask.Close()

	rect := image.Rect(10, 10, 40, 40)
	gocv.Rectangle(&mask, rect, color.RGBA{R: 255, G: 255, B: 255, A: 0}, -1)

	closed := closeInteriors(mask)
	defer closed.Close()

	require.Equal(t, mask.Rows(), closed.Rows())
	require.Equal(t, mask.Cols(), closed.Cols())
}
