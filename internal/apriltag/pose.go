package apriltag

import (
	"github.com/chewxy/math32"
	"github.com/itohio/fieldvision/internal/camera"
	"github.com/itohio/fieldvision/internal/geometry"
)

// TagSizeMeters is the physical tag edge length used by the pose
// estimator, matching original_source's tag_finder24_MBR.py ("tagsize
// 6.5 inches").
const TagSizeMeters = 0.1651

// tagCorners are the four corner positions in the tag's own frame
// (Z=0 plane), matching the detector's corner ordering.
func tagCorners(size float32) [4][3]float32 {
	h := size / 2
	return [4][3]float32{
		{-h, -h, 0},
		{h, -h, 0},
		{h, h, 0},
		{-h, h, 0},
	}
}

func cross(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func norm(a [3]float32) float32 {
	return math32.Sqrt(a[0]*a[0] + a[1]*a[1] + a[2]*a[2])
}

func scale(a [3]float32, s float32) [3]float32 {
	return [3]float32{a[0] * s, a[1] * s, a[2] * s}
}

func add(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func sub(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func unit(a [3]float32) [3]float32 {
	n := norm(a)
	if n == 0 {
		return a
	}
	return scale(a, 1/n)
}

func applyRotation(r [3][3]float32, v [3]float32) [3]float32 {
	return [3]float32{
		r[0][0]*v[0] + r[0][1]*v[1] + r[0][2]*v[2],
		r[1][0]*v[0] + r[1][1]*v[1] + r[1][2]*v[2],
		r[2][0]*v[0] + r[2][1]*v[1] + r[2][2]*v[2],
	}
}

// poseCandidate is one (rotation, translation) hypothesis for the
// camera-from-tag transform.
type poseCandidate struct {
	R [3][3]float32
	T [3]float32
}

// rotationFromColumns builds a right-handed rotation matrix whose first
// two columns are c1, c2 (assumed already orthonormal) and whose third
// is their cross product.
func rotationFromColumns(c1, c2 [3]float32) [3][3]float32 {
	c3 := cross(c1, c2)
	return [3][3]float32{
		{c1[0], c2[0], c3[0]},
		{c1[1], c2[1], c3[1]},
		{c1[2], c2[2], c3[2]},
	}
}

// twoSolutionsFromHomographyColumns recovers the two rotation
// candidates inherent to any pose recovered from a single planar
// homography (original_source's tag_finder24_MBR.py keeps "both
// homography-derived solutions"). Given the homography's first two
// (generally non-orthonormal, noisy) columns v1, v2, the nearest valid
// rotation has exactly two solutions, related by swapping the sign of
// the bisector component — the classical planar-pose ambiguity.
func twoSolutionsFromHomographyColumns(v1, v2 [3]float32) [2][3][3]float32 {
	b1 := unit(add(v1, v2))
	b2 := unit(sub(v1, v2))
	const invSqrt2 = 0.70710678

	c1a := scale(add(b1, b2), invSqrt2)
	c2a := scale(sub(b1, b2), invSqrt2)

	c1b := scale(sub(b1, b2), invSqrt2)
	c2b := scale(add(b1, b2), invSqrt2)

	return [2][3][3]float32{
		rotationFromColumns(unit(c1a), unit(c2a)),
		rotationFromColumns(unit(c1b), unit(c2b)),
	}
}

// homographyCandidates decomposes a homography (tag-unit-square ->
// pixel) into its two ambiguous (R, T) camera-from-tag candidates.
func homographyCandidates(h [3][3]float32, cal camera.Calibration) [2]poseCandidate {
	fx, fy := cal.Intrinsic[0][0], cal.Intrinsic[1][1]
	cx, cy := cal.Intrinsic[0][2], cal.Intrinsic[1][2]

	// Map the pixel-space homography into normalized-camera-space,
	// per apriltag's homography_to_pose: M = K^-1 * H, column by
	// column.
	col0 := [3]float32{(h[0][0] - cx*h[2][0]) / fx, (h[1][0] - cy*h[2][0]) / fy, h[2][0]}
	col1 := [3]float32{(h[0][1] - cx*h[2][1]) / fx, (h[1][1] - cy*h[2][1]) / fy, h[2][1]}
	col2 := [3]float32{(h[0][2] - cx*h[2][2]) / fx, (h[1][2] - cy*h[2][2]) / fy, h[2][2]}

	s0 := norm(col0)
	s1 := norm(col1)
	s := math32.Sqrt(s0 * s1)
	if s == 0 {
		s = 1
	}

	v1 := scale(col0, 1/s)
	v2 := scale(col1, 1/s)
	t := scale(col2, 1/s)

	// Tag must be in front of the camera.
	if t[2] < 0 {
		v1 = scale(v1, -1)
		v2 = scale(v2, -1)
		t = scale(t, -1)
	}

	rotations := twoSolutionsFromHomographyColumns(v1, v2)
	return [2]poseCandidate{
		{R: rotations[0], T: t},
		{R: rotations[1], T: t},
	}
}

// refineTranslation runs a few Gauss-Newton steps adjusting T (rotation
// held fixed) to minimize the normalized-image-plane reprojection error
// against the undistorted corner observations — the same refinement
// role original_source's estimator performs with a fixed initial
// rotation guess.
func refineTranslation(r [3][3]float32, t [3]float32, corners [4][3]float32, observed [4][2]float32) [3]float32 {
	for iter := 0; iter < 4; iter++ {
		var jtj [3][3]float32
		var jtr [3]float32
		for i := 0; i < 4; i++ {
			p := add(applyRotation(r, corners[i]), t)
			if p[2] <= 1e-6 {
				continue
			}
			invZ := 1 / p[2]
			predX := p[0] * invZ
			predY := p[1] * invZ
			rx := observed[i][0] - predX
			ry := observed[i][1] - predY

			// d(predX)/dT = [invZ, 0, -predX*invZ]
			// d(predY)/dT = [0, invZ, -predY*invZ]
			jx := [3]float32{invZ, 0, -predX * invZ}
			jy := [3]float32{0, invZ, -predY * invZ}

			for a := 0; a < 3; a++ {
				jtr[a] += jx[a]*rx + jy[a]*ry
				for b := 0; b < 3; b++ {
					jtj[a][b] += jx[a]*jx[b] + jy[a]*jy[b]
				}
			}
		}
		for a := 0; a < 3; a++ {
			jtj[a][a] += 1e-6
		}
		delta, ok := solve3(jtj, jtr)
		if !ok {
			break
		}
		t = add(t, delta)
	}
	return t
}

func solve3(a [3][3]float32, b [3]float32) ([3]float32, bool) {
	det := a[0][0]*(a[1][1]*a[2][2]-a[1][2]*a[2][1]) -
		a[0][1]*(a[1][0]*a[2][2]-a[1][2]*a[2][0]) +
		a[0][2]*(a[1][0]*a[2][1]-a[1][1]*a[2][0])
	if math32.Abs(det) < 1e-12 {
		return [3]float32{}, false
	}
	inv := 1 / det
	var x [3]float32
	x[0] = inv * (b[0]*(a[1][1]*a[2][2]-a[1][2]*a[2][1]) -
		a[0][1]*(b[1]*a[2][2]-a[1][2]*b[2]) +
		a[0][2]*(b[1]*a[2][1]-a[1][1]*b[2]))
	x[1] = inv * (a[0][0]*(b[1]*a[2][2]-a[1][2]*b[2]) -
		b[0]*(a[1][0]*a[2][2]-a[1][2]*a[2][0]) +
		a[0][2]*(a[1][0]*b[2]-b[1]*a[2][0]))
	x[2] = inv * (a[0][0]*(a[1][1]*b[2]-b[1]*a[2][1]) -
		a[0][1]*(a[1][0]*b[2]-b[1]*a[2][0]) +
		b[0]*(a[1][0]*a[2][1]-a[1][1]*a[2][0]))
	return x, true
}

func reprojectionError(r [3][3]float32, t [3]float32, corners [4][3]float32, observed [4][2]float32) float32 {
	var sum float32
	for i := 0; i < 4; i++ {
		p := add(applyRotation(r, corners[i]), t)
		if p[2] <= 1e-6 {
			return math32.MaxFloat32
		}
		invZ := 1 / p[2]
		dx := observed[i][0] - p[0]*invZ
		dy := observed[i][1] - p[1]*invZ
		sum += dx*dx + dy*dy
	}
	return sum
}

// estimatePose recovers the camera-from-tag transform given the
// decoder's homography and the already-undistorted corner
// observations, keeping both homography-derived solutions and
// selecting the one with lower reprojection error (spec.md §4.D,
// SUPPLEMENTED from tag_finder24_MBR.py's two-pose branch).
func estimatePose(h [3][3]float32, undistorted [4][2]float32, cal camera.Calibration) geometry.Transform3 {
	corners := tagCorners(TagSizeMeters)
	candidates := homographyCandidates(h, cal)

	var best poseCandidate
	bestErr := float32(math32.MaxFloat32)
	for _, c := range candidates {
		t := refineTranslation(c.R, c.T, corners, undistorted)
		err := reprojectionError(c.R, t, corners, undistorted)
		if err < bestErr {
			bestErr = err
			best = poseCandidate{R: c.R, T: t}
		}
	}

	return geometry.Transform3{
		Rotation:    geometry.Rotation3(best.R),
		Translation: geometry.Vector3{X: best.T[0], Y: best.T[1], Z: best.T[2]},
	}
}
