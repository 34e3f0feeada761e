// Package gamepiece implements the game-piece finder (spec.md §4.E):
// an HSV colour-band threshold, flood-fill interior closing, contour
// extraction and a per-contour filter, producing a camera-frame
// translation from each surviving contour's pixel height and the
// object's known physical height.
package gamepiece

import (
	"image"
	"image/color"

	"github.com/chewxy/math32"
	"gocv.io/x/gocv"
)

const (
	// objectHeightMeters is the known physical height of the target
	// game piece, from original_source's gamepiece_finder24.py.
	objectHeightMeters = 0.105
	// minContourHeightPx and the aspect bounds are the per-contour
	// filter original_source applies before accepting a detection.
	minContourHeightPx = 50
	minAspect          = 2.0
	maxAspect          = 5.0
)

var (
	lowerHSV = gocv.NewScalar(0, 0, 200, 0)
	upperHSV = gocv.NewScalar(255, 170, 255, 0)
)

// Observation is one detected game piece: its pixel centroid and its
// camera-frame translation, computed from the assumption that the
// object's known physical height fills the contour's pixel height
// (spec.md §4.E).
type Observation struct {
	PixelX, PixelY int
	TX, TY, TZ     float32
}

// Find runs the full threshold -> close -> contour -> filter pipeline
// over an HSV frame.
func Find(hsv gocv.Mat, theta float32) []Observation {
	mask := gocv.NewMat()
	defer mask.Close()
	gocv.InRangeWithParams(hsv, lowerHSV, upperHSV, &mask)

	closed := closeInteriors(mask)
	defer closed.Close()

	return extractObservations(closed, hsv.Cols(), hsv.Rows(), theta)
}

// closeInteriors flood-fills from the top-left corner to identify
// background, then ORs its inverse back onto the threshold mask so
// bright interior holes (e.g. retroreflective highlights) are closed
// (spec.md §4.E: "flood-fill to close bright interiors").
func closeInteriors(mask gocv.Mat) gocv.Mat {
	floodfill := mask.Clone()
	defer floodfill.Close()

	h, w := mask.Rows(), mask.Cols()
	fillMask := gocv.NewMatWithSize(h+2, w+2, gocv.MatTypeCV8UC1)
	defer fillMask.Close()

	gocv.FloodFill(&floodfill, &fillMask, image.Point{0, 0}, color.RGBA{R: 255, G: 255, B: 255, A: 0},
		nil, color.RGBA{}, color.RGBA{}, 4)

	inverted := gocv.NewMat()
	defer inverted.Close()
	gocv.BitwiseNot(floodfill, &inverted)

	closed := gocv.NewMat()
	gocv.BitwiseOr(mask, inverted, &closed)
	return closed
}

// extractObservations median-blurs the closed mask, extracts external
// contours, applies the height/aspect filter, and computes each
// surviving contour's moment centroid and translation.
func extractObservations(closed gocv.Mat, width, height int, theta float32) []Observation {
	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.MedianBlur(closed, &blurred, 5)

	contours := gocv.FindContours(blurred, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	cosTheta := math32.Cos(theta)

	var observations []Observation
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		rect := gocv.BoundingRect(contour)
		cntWidth, cntHeight := float32(rect.Dx()), float32(rect.Dy())

		if cntHeight < minContourHeightPx {
			continue
		}
		if cntWidth == 0 {
			continue
		}
		aspect := cntHeight / cntWidth
		if aspect < minAspect || aspect > maxAspect {
			continue
		}

		m := gocv.Moments(contour, false)
		if m["m00"] == 0 {
			continue
		}
		cx := float32(m["m10"] / m["m00"])
		cy := float32(m["m01"] / m["m00"])

		scale := objectHeightMeters * cosTheta / cntHeight
		observations = append(observations, Observation{
			PixelX: int(cx),
			PixelY: int(cy),
			TX:     (cx - float32(width)/2) * scale,
			TY:     (cy - float32(height)/2) * scale,
			TZ:     objectHeightMeters * cosTheta / cntHeight,
		})
	}
	return observations
}
