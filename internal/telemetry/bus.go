// Package telemetry implements the timestamp-preserving publish/
// subscribe layer (spec.md §4.B): typed senders and receivers over a
// kv+struct fabric, carrying the sensor-time offset of every sample
// rather than the bus's own clock.
//
// The teacher's own telemetry-bus adapter
// (pkg/core/transport/nats/nats.go) imports github.com/nats-io/nats.go
// directly; this package keeps that choice as the underlying
// transport, wrapped behind a small publisher/subscription pair of
// interfaces so the sender/receiver variants below — and their tests —
// never touch *nats.Conn directly.
package telemetry

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/itohio/fieldvision/internal/clock"
)

var (
	// ErrOverflow reports a dropped sample due to a full receive queue
	// (spec.md §4.B: "Missed samples (overflow) are a reported error
	// kind, not silent loss.").
	ErrOverflow = errors.New("telemetry: receive queue overflow")
	// ErrDelayNegative is returned when a sender is asked to publish
	// with a negative delay; spec.md §4.B makes this a programming
	// error ("violating it is a programming error, not a runtime
	// failure"), so it is surfaced rather than silently clamped.
	ErrDelayNegative = errors.New("telemetry: delay_us must be >= 0")
)

// ProductionServer and LocalServer are the two telemetry endpoints
// spec.md §6 names: production robots connect to the fixed controller
// address, and the UNKNOWN identity path connects to localhost for
// testing.
const (
	ProductionServer = "nats://10.1.0.2:4222"
	LocalServer      = "nats://127.0.0.1:4222"
)

// publisher is the minimal capability telemetry needs from a
// transport connection: publish a byte payload, timestamped, under a
// subject. nats.Conn does not expose per-message timestamps directly
// (NATS core has no timestamp field), so this module layers its own
// 8-byte little-endian microsecond header onto every payload — see
// envelope and splitEnvelope in sender.go.
type publisher interface {
	Publish(subject string, data []byte) error
	Flush() error
}

// subscription is the minimal capability a receiver needs: a
// duplicate-preserving queue of raw messages, with an overflow signal.
type subscription interface {
	Drain() (items [][]byte, overflowed bool)
	Close() error
}

// subscriber connects named subjects to subscriptions; the concrete
// *natsBus implements this against a real NATS connection, and tests
// inject a fake.
type subscriber interface {
	Subscribe(subject string) (subscription, error)
}

// Bus is the telemetry plane's connection handle: it owns the
// publisher/subscriber pair and the namespace (vision/<serial>) every
// topic this process emits is rooted under.
type Bus struct {
	pub       publisher
	sub       subscriber
	namespace string
	runID     uuid.UUID
	log       zerolog.Logger
}

// Identity selects which server a Bus connects to: spec.md §6/§7 — the
// "unknown identity" path connects to localhost for testing, every
// other identity connects to the fixed robot controller address.
type Identity struct {
	Serial string
	Known  bool
}

// natsBus adapts a live *nats.Conn to the publisher/subscriber
// interfaces above, mirroring
// pkg/core/transport/nats/nats.go's connect-then-subscribe shape.
type natsBus struct {
	conn *natsgo.Conn
}

func (n *natsBus) Publish(subject string, data []byte) error {
	return n.conn.Publish(subject, data)
}

func (n *natsBus) Flush() error { return n.conn.Flush() }

func (n *natsBus) Subscribe(subject string) (subscription, error) {
	q := newQueue(queueCapacity)
	sub, err := n.conn.Subscribe(subject, func(msg *natsgo.Msg) {
		q.push(msg.Data)
	})
	if err != nil {
		return nil, err
	}
	return &natsSubscription{sub: sub, q: q}, nil
}

type natsSubscription struct {
	sub *natsgo.Subscription
	q   *sampleQueue
}

func (s *natsSubscription) Drain() (items [][]byte, overflowed bool) {
	return s.q.drainAll()
}

func (s *natsSubscription) Close() error {
	return s.sub.Unsubscribe()
}

// Connect opens a Bus for the given identity, per spec.md §6's server
// selection rule and §4.B's "unknown identity connects to localhost".
func Connect(identity Identity, log zerolog.Logger) (*Bus, error) {
	server := ProductionServer
	if !identity.Known {
		server = LocalServer
	}
	conn, err := natsgo.Connect(server)
	if err != nil {
		return nil, fmt.Errorf("telemetry: connect %s: %w", server, err)
	}
	nb := &natsBus{conn: conn}
	return &Bus{
		pub:       nb,
		sub:       nb,
		namespace: fmt.Sprintf("vision/%s", identity.Serial),
		runID:     uuid.New(),
		log:       log.With().Str("run_id", uuid.New().String()).Logger(),
	}, nil
}

// newBusForTest builds a Bus over injected fakes, used by this
// package's own tests and by other packages' tests that need a
// telemetry double without a live NATS server.
func newBusForTest(pub publisher, sub subscriber, namespace string) *Bus {
	return &Bus{pub: pub, sub: sub, namespace: namespace, runID: uuid.New()}
}

func (b *Bus) topic(name string) string {
	return b.namespace + "/" + name
}

// NowUs is the bus's read of the shared time base, exposed so sender
// helpers can compute "now - delay" without importing clock directly
// in every call site.
func (b *Bus) NowUs() int64 { return clock.NowUs() }
