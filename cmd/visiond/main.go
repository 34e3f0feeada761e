// Command visiond is the on-robot vision process's wiring entry point:
// one goroutine per camera, one gyro-reader goroutine, one smoother
// goroutine, and the telemetry bus every one of them publishes through
// (spec.md §5, SPEC_FULL.md §8). No CLI flags, no config file — every
// parameter is compiled (spec.md §6).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"github.com/itohio/fieldvision/internal/apriltag"
	"github.com/itohio/fieldvision/internal/camera"
	"github.com/itohio/fieldvision/internal/clock"
	"github.com/itohio/fieldvision/internal/gamepiece"
	"github.com/itohio/fieldvision/internal/geometry"
	"github.com/itohio/fieldvision/internal/gyro"
	"github.com/itohio/fieldvision/internal/identity"
	"github.com/itohio/fieldvision/internal/smoother"
	"github.com/itohio/fieldvision/internal/telemetry"
)

// smootherTickInterval is how often the smoother goroutine drains its
// mailbox and re-solves, independent of how fast measurements arrive.
const smootherTickInterval = 20 * time.Millisecond

// gamepieceCameraTiltRad is the fixed camera-mount tilt angle the
// game-piece finder's height->range conversion corrects for.
// original_source's gamepiece_finder24.py hardcodes self.theta = 0;
// no deployed mount is tilted, so this stays 0 rather than inventing a
// per-camera config surface spec.md §6 doesn't call for.
const gamepieceCameraTiltRad = 0

// fieldLandmarks is this field's fixed tag layout (spec.md §3's
// "Landmark ... Immutable for a run"). Real coordinates belong to a
// specific competition field; placeholders stand in here.
var fieldLandmarks = []apriltag.Landmark{
	{ID: 1, WorldPose: geometry.Transform3{Translation: geometry.Vector3{X: 8, Y: 1, Z: 1.3}}},
	{ID: 2, WorldPose: geometry.Transform3{Translation: geometry.Vector3{X: 8, Y: -1, Z: 1.3}}},
}

// newCameraDevice and newDecoder are filled in by a platform-specific
// build (libcamera/V4L2 capture, the fiducial decoder binding): both
// are hardware and third-party-codec integrations out of scope here
// (spec.md §1). A build without the camera or decoder registered logs a
// warning and runs with the camera disabled; a build without
// newGyroSource runs on the fake gyro.
var (
	newCameraDevice func(cameraID string) (camera.Device, error)
	newDecoder      func() (apriltag.Decoder, error)
	newGyroSource   func() (gyro.Source, error)
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Caller().Logger()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	serial, err := identity.ReadSerial()
	if err != nil {
		log.Warn().Err(err).Msg("cpuinfo serial read failed, treating as unknown identity")
	}
	entry, known := roster.Resolve(serial)
	ident := telemetry.Identity{Serial: serial, Known: known}

	bus, err := telemetry.Connect(ident, log)
	if err != nil {
		log.Error().Err(err).Msg("telemetry connect failed")
		os.Exit(1)
	}

	fieldMap := apriltag.NewFieldMap(fieldLandmarks)
	sm := smoother.New(fieldMap, 1_000_000, log)
	sm.Init(geometry.Pose2{})

	if known && entry.CameraID != "" {
		cal, err := cameraModeTable.Lookup(entry.CameraID)
		if err != nil {
			log.Error().Err(err).Str("model", entry.CameraID).Msg("unknown camera model, fatal at startup")
			os.Exit(1)
		}
		runCamera(ctx, entry, cal, bus, sm, log)
	}

	runGyro(ctx, known, bus, sm, log)
	runSmoother(ctx, sm, bus, log)

	<-ctx.Done()
}

// runCamera starts one camera's acquire/detect/publish goroutine
// (spec.md §4.C/§4.D/§4.E, §5's "one thread per camera").
func runCamera(ctx context.Context, entry identity.Entry, cal camera.Calibration, bus *telemetry.Bus, sm *smoother.Smoother, log zerolog.Logger) {
	if newCameraDevice == nil || newDecoder == nil {
		log.Warn().Str("camera", entry.CameraRole).Msg("no camera/decoder backend registered, camera disabled")
		return
	}
	device, err := newCameraDevice(entry.CameraID)
	if err != nil {
		log.Error().Err(err).Msg("camera device open failed")
		return
	}
	decoder, err := newDecoder()
	if err != nil {
		log.Error().Err(err).Msg("decoder init failed")
		return
	}

	frontend := camera.New(entry.CameraRole, device, cal, log)
	detector := apriltag.New(decoder, cal, 0)
	blipSender := bus.NewBlipSender(entry.CameraRole)
	blip25Sender := bus.NewBlip25Sender(entry.CameraRole)
	pieceSender := bus.NewPieceSender("pieces")

	fpsSender := bus.NewDoubleSender(entry.CameraRole + "/fps")
	latencySender := bus.NewDoubleSender(entry.CameraRole + "/latency")
	captureTimeSender := bus.NewDoubleSender("capture_time_ms")
	imageAgeSender := bus.NewDoubleSender("image_age_ms")
	totalTimeSender := bus.NewDoubleSender("total_time_ms")
	detectTimeSender := bus.NewDoubleSender("detect_time_ms")

	calibSender := bus.NewCalibSender(entry.CameraRole + "/calib")
	if err := calibSender.Send(cal.Marshal(), 0); err != nil {
		log.Warn().Err(err).Msg("calibration publish failed")
	}

	go frontend.Run(ctx, func(frame *camera.Frame) {
		blips, pixels, timing, err := detector.Detect(frame)
		if err != nil {
			log.Warn().Err(err).Msg("tag detection failed")
			return
		}

		metrics := detector.Metrics(timing, frame)
		if err := fpsSender.Send(metrics.FPS, 0); err != nil {
			log.Warn().Err(err).Msg("fps publish failed")
		}
		if err := latencySender.Send(metrics.LatencyMs, 0); err != nil {
			log.Warn().Err(err).Msg("latency publish failed")
		}
		if err := captureTimeSender.Send(metrics.CaptureTimeMs, 0); err != nil {
			log.Warn().Err(err).Msg("capture_time_ms publish failed")
		}
		if err := imageAgeSender.Send(metrics.ImageAgeMs, 0); err != nil {
			log.Warn().Err(err).Msg("image_age_ms publish failed")
		}
		if err := totalTimeSender.Send(metrics.TotalTimeMs, 0); err != nil {
			log.Warn().Err(err).Msg("total_time_ms publish failed")
		}
		if err := detectTimeSender.Send(metrics.DetectTimeMs, 0); err != nil {
			log.Warn().Err(err).Msg("detect_time_ms publish failed")
		}

		tUs := frame.MidpointTimestampUs()
		if len(blips) > 0 {
			if err := blipSender.Send(blips, 0); err != nil {
				log.Warn().Err(err).Msg("blip publish failed")
			}
		}
		if len(pixels) > 0 {
			if err := blip25Sender.Send(pixels, 0); err != nil {
				log.Warn().Err(err).Msg("blip25 publish failed")
			}
			for _, px := range pixels {
				sm.Post(smoother.TagPixel{
					LandmarkID:      int(px.ID),
					PX:              px.PX,
					PY:              px.PY,
					TUs:             tUs,
					CameraExtrinsic: cal.Extrinsic,
					Calib:           cal,
				})
			}
		}

		if frame.HasColor {
			hsv := gocv.NewMat()
			gocv.CvtColor(frame.Color, &hsv, gocv.ColorBGRToHSV)
			pieces := gamepiece.Find(hsv, gamepieceCameraTiltRad)
			hsv.Close()

			if len(pieces) > 0 {
				observations := make([]telemetry.PieceObservation, len(pieces))
				for i, p := range pieces {
					observations[i] = telemetry.PieceObservation{PoseT: [3]float32{p.TX, p.TY, p.TZ}}
				}
				if err := pieceSender.Send(observations, 0); err != nil {
					log.Warn().Err(err).Msg("pieces publish failed")
				}
			}
		}
	})
}

// runGyro starts the gyro integration goroutine, folding every sample
// into the smoother as a GyroDelta between the previous and current
// reading (spec.md §4.F/§4.G/§4.H.2).
func runGyro(ctx context.Context, known bool, bus *telemetry.Bus, sm *smoother.Smoother, log zerolog.Logger) {
	var source gyro.Source
	if known && newGyroSource != nil {
		s, err := newGyroSource()
		if err != nil {
			log.Error().Err(err).Msg("gyro source init failed")
		} else {
			source = s
		}
	}
	integrator := gyro.Select(known && source != nil, source)
	_, isFake := integrator.(gyro.FakeIntegrator)

	yawSender := bus.NewDoubleSender("gyro/yaw")
	rateSender := bus.NewDoubleSender("gyro/rate")

	go func() {
		var prev gyro.Sample
		haveSeed := false
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			// FakeIntegrator never blocks on hardware, so pace it by
			// hand to avoid spinning the goroutine at full CPU.
			if isFake {
				select {
				case <-ctx.Done():
					return
				case <-time.After(10 * time.Millisecond):
				}
			}
			sample, err := integrator.Sample(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("gyro sample failed")
				continue
			}
			if err := yawSender.Send(float64(sample.YawRad), gyro.DelayUs()); err != nil {
				log.Warn().Err(err).Msg("gyro yaw publish failed")
			}
			if err := rateSender.Send(float64(sample.RateRadS), gyro.DelayUs()); err != nil {
				log.Warn().Err(err).Msg("gyro rate publish failed")
			}

			if haveSeed && sample.TimestampUs != prev.TimestampUs {
				sm.Post(smoother.GyroDelta{
					T0Us:       prev.TimestampUs,
					T1Us:       sample.TimestampUs,
					DeltaTheta: sample.YawRad - prev.YawRad,
				})
			}
			prev = sample
			haveSeed = true
		}
	}()
}

// runSmoother owns the single goroutine allowed to call Update on sm
// (spec.md §5: "the smoother is not re-entrant"), ticking at a fixed
// interval and publishing the latest pose.
func runSmoother(ctx context.Context, sm *smoother.Smoother, bus *telemetry.Bus, log zerolog.Logger) {
	poseSender := bus.NewPoseSender("pose")

	go func() {
		ticker := time.NewTicker(smootherTickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			if err := sm.Update(); err != nil {
				log.Warn().Err(err).Msg("smoother update failed")
				continue
			}

			keys := sm.Keys()
			if len(keys) == 0 {
				continue
			}
			latestKey := keys[len(keys)-1]
			pose := sm.Result()[latestKey]
			est := telemetry.PoseEstimate{TimestampUs: latestKey, X: pose.X, Y: pose.Y, Theta: pose.Theta}
			if err := poseSender.Send(est, clock.NowUs()-latestKey); err != nil {
				log.Warn().Err(err).Msg("pose publish failed")
			}
		}
	}()
}
