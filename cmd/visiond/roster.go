package main

import (
	"github.com/itohio/fieldvision/internal/camera"
	"github.com/itohio/fieldvision/internal/geometry"
	"github.com/itohio/fieldvision/internal/identity"
)

// roster is the fixed {serial -> camera/role} table spec.md §6 calls
// for: compiled configuration, not a loaded file. Real serials belong
// to this deployment's specific robots; the placeholder entries below
// stand in for the fleet roster until it is filled in.
var roster = identity.Table{
	"10000000shooter1": {Serial: "10000000shooter1", CameraID: "ov9281", CameraRole: "shooter"},
	"10000000intake01": {Serial: "10000000intake01", CameraID: "ov9281", CameraRole: "intake"},
}

// cameraModeTable is the per-model sensor-mode table camera.ModeTable
// resolves against (spec.md §4.C): fixed resolution, intrinsic and
// distortion constants per model id, not a calibration file.
var cameraModeTable = camera.ModeTable{
	"ov9281": {
		Intrinsic:  [3][3]float32{{600, 0, 320}, {0, 600, 240}, {0, 0, 1}},
		Distortion: [5]float32{-0.05, 0.01, 0, 0, 0},
		Extrinsic:  geometry.Identity3Transform(),
		FullWidth:  1280, FullHeight: 800,
		WorkWidth: 640, WorkHeight: 400,
	},
}
