// Package apriltag implements the tag detector + per-tag pose stage
// (spec.md §4.D): corner undistortion, homography-based pose recovery
// with the two-solution reprojection tie-break, and the field map that
// anchors the smoother's bearing factor to world coordinates.
//
// The fiducial bit-decoding algorithm itself (family tag36h11, Hamming
// correction) is an external collaborator's job — out of scope here per
// spec.md §1 — so this package is built against the Decoder interface
// rather than reimplementing it.
package apriltag

// Detection is one raw fiducial hit handed back by a Decoder, before
// this package's undistortion and pose-recovery steps run.
type Detection struct {
	ID      int
	Hamming int
	// Corners are the four tag corners in detected (distorted) pixel
	// coordinates, ordered [x0,y0,x1,y1,x2,y2,x3,y3].
	Corners [8]float32
	// Center is the detection's pixel centroid, used directly as the
	// bearing-only measurement the smoother consumes (spec.md §3's
	// "observed 2-D pixel") — no pose estimation needed for that path.
	Center [2]float32
	// Homography maps unit tag-square coordinates to detected pixel
	// coordinates, as produced by the decoder.
	Homography [3][3]float32
}

// Decoder is the injected fiducial-detection collaborator: given a
// luminance image, it returns every tag36h11 detection it finds,
// Hamming-uncorrected. Rejecting Hamming>0 detections is this
// package's job, not the Decoder's (spec.md §4.D: "Rejects a detection
// if Hamming error > 0").
type Decoder interface {
	Detect(luma []byte, width, height int) ([]Detection, error)
}
