package apriltag

import (
	"github.com/itohio/fieldvision/internal/camera"
	"github.com/itohio/fieldvision/internal/clock"
	"github.com/itohio/fieldvision/internal/telemetry"
)

// Detector ties a Decoder to one camera's fixed calibration, producing
// the two outputs spec.md §4.D and §6 describe: per-tag poses (Blip24,
// for the downstream controller) and raw pixel observations (Blip25,
// for the smoother's bearing factor).
type Detector struct {
	decoder     Decoder
	cal         camera.Calibration
	cameraIndex int32

	lastReceivedNs int64
}

// New builds a Detector bound to one camera's Decoder and calibration.
func New(decoder Decoder, cal camera.Calibration, cameraIndex int32) *Detector {
	return &Detector{decoder: decoder, cal: cal, cameraIndex: cameraIndex}
}

// Detect runs the decoder over one frame's luminance view, rejects
// uncorrected (Hamming>0) detections, and emits both output forms for
// every surviving detection (spec.md §4.D steps 1-3), alongside the
// four-checkpoint Timing the same section's timing discipline
// requires.
func (d *Detector) Detect(frame *camera.Frame) ([]telemetry.Blip24, []telemetry.Blip25, Timing, error) {
	receivedNs := clock.Now()
	undistortNs := clock.Now()

	detections, err := d.decoder.Detect(frame.Luma.Bytes(), frame.Luma.Cols(), frame.Luma.Rows())
	if err != nil {
		return nil, nil, Timing{}, err
	}
	detectNs := clock.Now()

	blips, pixels := processDetections(detections, d.cal, d.cameraIndex)
	estimateNs := clock.Now()

	return blips, pixels, Timing{
		ReceivedNs:  receivedNs,
		UndistortNs: undistortNs,
		DetectNs:    detectNs,
		EstimateNs:  estimateNs,
	}, nil
}

// Metrics derives the health-topic values spec.md §6 names from a
// Timing snapshot and the frame it was measured against, tracking the
// previous frame's receive time across calls (mirrors
// tag_finder24_MBR.py's self.frame_time bookkeeping) so
// total_time_ms/fps read 0 on the first frame rather than dividing by
// zero.
func (d *Detector) Metrics(timing Timing, frame *camera.Frame) Metrics {
	m := timing.metrics(frame, d.lastReceivedNs)
	d.lastReceivedNs = timing.ReceivedNs
	return m
}

// processDetections applies the Hamming rejection, undistortion and
// pose-recovery steps to a batch of raw detections (spec.md §4.D
// steps 1-3), split out from Detect so it can be exercised without a
// real captured frame.
func processDetections(detections []Detection, cal camera.Calibration, cameraIndex int32) ([]telemetry.Blip24, []telemetry.Blip25) {
	blips := make([]telemetry.Blip24, 0, len(detections))
	pixels := make([]telemetry.Blip25, 0, len(detections))

	for _, det := range detections {
		if det.Hamming > 0 {
			continue
		}

		undistorted := undistortCorners(det.Corners, cal)
		pose := estimatePose(det.Homography, undistorted, cal)

		blips = append(blips, telemetry.Blip24{
			ID:        int32(det.ID),
			Rotation:  pose.Rotation,
			Translate: pose.Translation,
		})
		pixels = append(pixels, telemetry.Blip25{
			ID:       int32(det.ID),
			PX:       det.Center[0],
			PY:       det.Center[1],
			CameraID: cameraIndex,
		})
	}

	return blips, pixels
}
