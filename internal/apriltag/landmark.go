package apriltag

import "github.com/itohio/fieldvision/internal/geometry"

// Landmark is a fiducial with a known world pose, keyed by id
// (spec.md GLOSSARY: "Landmark"). Immutable for the lifetime of a run —
// spec.md's non-goals explicitly exclude landmark creation: "tag world
// poses are given as a static field map."
type Landmark struct {
	ID        int
	WorldPose geometry.Transform3
}

// FieldMap is the read-only set of known tag world poses shared by the
// apriltag detector (for context, if ever needed) and the smoother's
// bearing factor (spec.md §5: "A field map is shared read-only.").
type FieldMap struct {
	landmarks map[int]Landmark
}

// NewFieldMap builds a read-only map from a fixed landmark list.
func NewFieldMap(landmarks []Landmark) *FieldMap {
	m := make(map[int]Landmark, len(landmarks))
	for _, l := range landmarks {
		m[l.ID] = l
	}
	return &FieldMap{landmarks: m}
}

// Lookup returns the landmark for a tag id, or false if the field map
// doesn't carry it (an unmapped tag id is silently ignorable — not
// fatal, not a factor source).
func (f *FieldMap) Lookup(id int) (Landmark, bool) {
	l, ok := f.landmarks[id]
	return l, ok
}
