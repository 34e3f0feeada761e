package apriltag

import "github.com/itohio/fieldvision/internal/camera"

// Timing records the four clock.Now checkpoints spec.md §4.D's
// timing discipline names: received, undistort, detect, estimate.
// Grounded on original_source's tag_finder24_MBR.py, whose
// received_time/undistort_time/detect_time/estimate_time markers are
// recorded in exactly this order: "undistort" is the checkpoint taken
// once the frame's crop policy has been applied (right before the
// decoder runs), not a per-corner undistort timestamp — the
// corner-only undistortion spec.md §4.D describes happens per kept
// detection, inside the detect->estimate span.
type Timing struct {
	ReceivedNs  int64
	UndistortNs int64
	DetectNs    int64
	EstimateNs  int64
}

// Metrics are the derived health-topic values spec.md §6 names:
// capture_time_ms, image_age_ms, total_time_ms, detect_time_ms, plus
// the per-camera fps/latency pair.
type Metrics struct {
	CaptureTimeMs float64
	ImageAgeMs    float64
	TotalTimeMs   float64
	DetectTimeMs  float64
	FPS           float64
	LatencyMs     float64
}

// metrics derives Metrics from this Timing, the frame it was measured
// against, and the previous frame's ReceivedNs (0 on the first frame,
// so total_time_ms/fps report 0 rather than dividing by zero).
func (t Timing) metrics(frame *camera.Frame, prevReceivedNs int64) Metrics {
	imageAgeMs := float64(t.ReceivedNs-frame.SensorTimestampUs*1000) / 1e6
	detectTimeMs := float64(t.DetectNs-t.UndistortNs) / 1e6

	var totalTimeMs, fps float64
	if prevReceivedNs > 0 {
		totalNs := t.ReceivedNs - prevReceivedNs
		totalTimeMs = float64(totalNs) / 1e6
		if totalNs > 0 {
			fps = 1e9 / float64(totalNs)
		}
	}

	return Metrics{
		CaptureTimeMs: float64(frame.CaptureDurationUs) / 1000,
		ImageAgeMs:    imageAgeMs,
		TotalTimeMs:   totalTimeMs,
		DetectTimeMs:  detectTimeMs,
		FPS:           fps,
		LatencyMs:     imageAgeMs,
	}
}
