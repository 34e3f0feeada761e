// Package gyro implements the gyro integrator (spec.md §4.F): a
// midpoint-rule Riemann sum over raw angular-rate samples, plus a fake
// integrator for platforms with no IMU attached (original_source's
// gyro_factory.py selects between them by platform).
package gyro

import "context"

// Sample is one integrated gyro reading: the running yaw estimate and
// the instantaneous rate it was derived from, both sensor-timed.
type Sample struct {
	TimestampUs int64
	YawRad      float32
	RateRadS    float32
}

// Source is the injected IMU read collaborator — the actual sensor
// driver (LSM6DSOX over I2C in original_source's real_gyro.py) is
// hardware out of scope here.
type Source interface {
	ReadRateRadS(ctx context.Context) (rateRadS float32, timestampUs int64, err error)
}

// Integrator turns raw rate samples into a running yaw estimate.
type Integrator interface {
	Sample(ctx context.Context) (Sample, error)
}

const (
	// gyroOffset and gyroScale are the hardware-measured correction
	// constants from original_source's real_gyro.py ("experimentally
	// measured ... for 100hz").
	gyroOffset = -0.014935
	gyroScale  = 1.0
	// gyroDelayUs is the sample's effective age: at 100 Hz each
	// reading represents the average signal over the previous 10 ms,
	// treated as a point estimate 5 ms in the past.
	gyroDelayUs = 5000
)

// RealIntegrator integrates a hardware Source's raw rate samples via
// the midpoint-rule Riemann sum, matching real_gyro.py's
// `mid_rate_rad_s = 0.5 * (rate + prev_rate)` exactly.
type RealIntegrator struct {
	source       Source
	yawRad       float32
	prevRateRadS float32
	prevTimeUs   int64
	seeded       bool
}

// NewRealIntegrator builds an Integrator over a hardware Source.
func NewRealIntegrator(source Source) *RealIntegrator {
	return &RealIntegrator{source: source}
}

// Sample reads the next raw rate sample and folds it into the running
// yaw estimate.
func (g *RealIntegrator) Sample(ctx context.Context) (Sample, error) {
	raw, timestampUs, err := g.source.ReadRateRadS(ctx)
	if err != nil {
		return Sample{}, err
	}
	rateRadS := (raw - gyroOffset) * gyroScale

	if !g.seeded {
		g.prevRateRadS = rateRadS
		g.prevTimeUs = timestampUs
		g.seeded = true
	}

	durationS := float32(timestampUs-g.prevTimeUs) / 1e6
	midRateRadS := 0.5 * (rateRadS + g.prevRateRadS)
	g.yawRad += midRateRadS * durationS

	g.prevRateRadS = rateRadS
	g.prevTimeUs = timestampUs

	return Sample{TimestampUs: timestampUs, YawRad: g.yawRad, RateRadS: rateRadS}, nil
}

// DelayUs is the fixed telemetry publish delay for gyro samples
// (spec.md §4.F / original_source's _DELAY_US).
func DelayUs() int64 { return gyroDelayUs }

// FakeIntegrator always yields yaw 0, for platforms with no IMU
// attached (original_source's FakeGyro, selected by gyro_factory.py
// for any non-Raspberry-Pi board).
type FakeIntegrator struct{}

// Sample returns an all-zero sample (yaw, rate and TimestampUs all 0)
// without a hardware read.
func (FakeIntegrator) Sample(ctx context.Context) (Sample, error) {
	return Sample{}, nil
}

// Select chooses RealIntegrator or FakeIntegrator by process role,
// generalising original_source's gyro_factory.py platform switch into
// the identity-driven selection spec.md §6 and §8 describe ("Unknown
// identity ⇒ ... enable fake gyro").
func Select(knownIdentity bool, source Source) Integrator {
	if !knownIdentity {
		return FakeIntegrator{}
	}
	return NewRealIntegrator(source)
}
