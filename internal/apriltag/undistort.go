package apriltag

import (
	"encoding/binary"
	"math"

	"github.com/itohio/fieldvision/internal/camera"
	"gocv.io/x/gocv"
)

// undistortPoint inverts the Brown-Conrady radial/tangential
// distortion model for a single pixel via gocv's point-only undistort
// binding (gocv.UndistortPoints) — the Go entry point for OpenCV's
// cv2.undistortPoints, which original_source's tag_finder24_MBR.py
// calls (as cv2.undistortImagePoints) for this exact corner-only
// undistortion step. The teacher's own cmd/calib_mono/main.go:205
// reaches for gocv's full-frame cv.Undistort for the same distortion
// concern; correcting a handful of points is the point-only twin of
// that call rather than materializing and undistorting a whole Mat
// (spec.md §4.D: "much cheaper than undistorting the frame"). Output
// is left in normalized (fx/fy/cx/cy-free) image-plane coordinates —
// P is omitted from the UndistortPoints call — matching what
// homographyCandidates in pose.go expects from this step.
func undistortPoint(px, py float32, cal camera.Calibration) (x, y float32) {
	out := undistortBatch([]float32{px, py}, cal)
	return out[0][0], out[0][1]
}

// undistortCorners maps the four raw detected corners into normalized
// (undistorted, intrinsic-free) image-plane coordinates, in a single
// gocv.UndistortPoints call over all four points at once.
func undistortCorners(corners [8]float32, cal camera.Calibration) [4][2]float32 {
	batch := undistortBatch(corners[:], cal)
	var out [4][2]float32
	copy(out[:], batch)
	return out
}

// undistortBatch runs gocv.UndistortPoints over n (= len(points)/2)
// pixel-coordinate pairs packed as [x0,y0,x1,y1,...].
func undistortBatch(points []float32, cal camera.Calibration) [][2]float32 {
	n := len(points) / 2

	src, err := gocv.NewMatFromBytes(n, 1, gocv.MatTypeCV32FC2, packPoints(points))
	if err != nil {
		return identityNormalized(points, cal)
	}
	defer src.Close()

	cameraMatrix, err := gocv.NewMatFromBytes(3, 3, gocv.MatTypeCV64F, packIntrinsic(cal.Intrinsic))
	if err != nil {
		return identityNormalized(points, cal)
	}
	defer cameraMatrix.Close()

	distCoeffs, err := gocv.NewMatFromBytes(1, 5, gocv.MatTypeCV64F, packDistortion(cal.Distortion))
	if err != nil {
		return identityNormalized(points, cal)
	}
	defer distCoeffs.Close()

	rect := gocv.NewMat()
	defer rect.Close()
	proj := gocv.NewMat()
	defer proj.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	gocv.UndistortPoints(src, &dst, cameraMatrix, distCoeffs, rect, proj)

	return unpackPoints(dst.ToBytes(), n)
}

// identityNormalized is the fallback used only if a Mat can't be
// constructed from a fixed, well-formed byte buffer (never expected in
// practice): plain pinhole normalization with no distortion
// correction, rather than silently dropping the detection.
func identityNormalized(points []float32, cal camera.Calibration) [][2]float32 {
	fx, fy := cal.Intrinsic[0][0], cal.Intrinsic[1][1]
	cx, cy := cal.Intrinsic[0][2], cal.Intrinsic[1][2]
	n := len(points) / 2
	out := make([][2]float32, n)
	for i := 0; i < n; i++ {
		out[i][0] = (points[2*i] - cx) / fx
		out[i][1] = (points[2*i+1] - cy) / fy
	}
	return out
}

func packPoints(points []float32) []byte {
	buf := make([]byte, len(points)*4)
	for i, v := range points {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func unpackPoints(raw []byte, n int) [][2]float32 {
	out := make([][2]float32, n)
	for i := 0; i < n; i++ {
		out[i][0] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*8:]))
		out[i][1] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*8+4:]))
	}
	return out
}

func packIntrinsic(m [3][3]float32) []byte {
	buf := make([]byte, 9*8)
	idx := 0
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			binary.LittleEndian.PutUint64(buf[idx*8:], math.Float64bits(float64(m[r][c])))
			idx++
		}
	}
	return buf
}

func packDistortion(d [5]float32) []byte {
	buf := make([]byte, 5*8)
	for i, v := range d {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(float64(v)))
	}
	return buf
}
