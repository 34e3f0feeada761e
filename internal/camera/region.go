package camera

import (
	"image"

	"gocv.io/x/gocv"
)

func imageRect(m gocv.Mat, rowStart, rowEnd int) image.Rectangle {
	height, width := m.Rows(), m.Cols()
	if rowEnd > height {
		rowEnd = height
	}
	if rowStart < 0 {
		rowStart = 0
	}
	return image.Rect(0, rowStart, width, rowEnd)
}
