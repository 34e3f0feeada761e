package gyro

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	rates      []float32
	timestamps []int64
	idx        int
}

func (s *fakeSource) ReadRateRadS(ctx context.Context) (float32, int64, error) {
	rate, ts := s.rates[s.idx], s.timestamps[s.idx]
	s.idx++
	return rate, ts, nil
}

func TestRealIntegratorSeedsFromFirstSample(t *testing.T) {
	src := &fakeSource{rates: []float32{gyroOffset}, timestamps: []int64{1000}}
	integ := NewRealIntegrator(src)

	sample, err := integ.Sample(context.Background())
	require.NoError(t, err)
	require.Equal(t, float32(0), sample.YawRad)
	require.Equal(t, float32(0), sample.RateRadS)
}

func TestRealIntegratorMidpointIntegration(t *testing.T) {
	// Two samples at a constant corrected rate of 1 rad/s, 1 second apart.
	rate := float32(1.0 + gyroOffset)
	src := &fakeSource{
		rates:      []float32{rate, rate},
		timestamps: []int64{0, 1_000_000},
	}
	integ := NewRealIntegrator(src)

	_, err := integ.Sample(context.Background())
	require.NoError(t, err)
	second, err := integ.Sample(context.Background())
	require.NoError(t, err)

	require.InDelta(t, 1.0, second.YawRad, 1e-4)
}

func TestFakeIntegratorAlwaysZero(t *testing.T) {
	var integ FakeIntegrator
	sample, err := integ.Sample(context.Background())
	require.NoError(t, err)
	require.Equal(t, float32(0), sample.YawRad)
}

func TestSelectPicksFakeForUnknownIdentity(t *testing.T) {
	integ := Select(false, nil)
	_, ok := integ.(FakeIntegrator)
	require.True(t, ok)
}

func TestSelectPicksRealForKnownIdentity(t *testing.T) {
	src := &fakeSource{rates: []float32{0}, timestamps: []int64{0}}
	integ := Select(true, src)
	_, ok := integ.(*RealIntegrator)
	require.True(t, ok)
}
