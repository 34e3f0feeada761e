// Package clock provides the single time base every component in this
// module reads from: a monotonic nanosecond counter measured from a
// per-run origin, and the microsecond index used to key smoother states.
package clock

import (
	"sync"
	"time"
)

var (
	originOnce sync.Once
	origin     time.Time
)

// Now returns a monotonic nanosecond timestamp measured from the
// process-wide origin, which the first call establishes; it is not
// referenced to system boot. Every later call is a lock-free monotonic
// subtraction against it, per the "global now origin" discipline this
// module follows throughout (clock, telemetry, smoother keys all read
// from here).
func Now() int64 {
	originOnce.Do(initOrigin)
	return time.Since(origin).Nanoseconds()
}

// NowUs returns the microsecond index used as a smoother state key:
// the same monotonic count as Now, from the same per-run origin, in
// microseconds, so values fit comfortably in a positive
// 32-bit-friendly range for the lifetime of a run.
func NowUs() int64 {
	originOnce.Do(initOrigin)
	return time.Since(origin).Nanoseconds() / 1000
}

func initOrigin() {
	origin = time.Now()
}

// Reset re-establishes the origin. Exposed only for tests that need a
// deterministic zero point; production code never calls this.
func Reset() {
	originOnce = sync.Once{}
}
