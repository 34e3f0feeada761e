package telemetry

import (
	"encoding/binary"
	"math"

	"github.com/vmihailenco/msgpack/v5"
)

// envelope prefixes a payload with the sample's sensor-timestamp, since
// NATS core messages carry no timestamp of their own. Every sender
// writes one; every receiver strips one.
func envelope(timestampUs int64, payload []byte) []byte {
	out := make([]byte, 8+len(payload))
	binary.LittleEndian.PutUint64(out, uint64(timestampUs))
	copy(out[8:], payload)
	return out
}

func splitEnvelope(data []byte) (timestampUs int64, payload []byte, ok bool) {
	if len(data) < 8 {
		return 0, nil, false
	}
	return int64(binary.LittleEndian.Uint64(data)), data[8:], true
}

// sendTimestamp computes the publish timestamp spec.md §4.B's contract
// demands: "now_us - delay_us", so consumers index by sensor time, not
// arrival time. delay_us must be non-negative; violating that is a
// programming error (§4.B), surfaced here rather than silently
// clamped.
func sendTimestamp(nowUs, delayUs int64) (int64, error) {
	if delayUs < 0 {
		return 0, ErrDelayNegative
	}
	return nowUs - delayUs, nil
}

// DoubleSender publishes scalar telemetry: <cam-id>/fps,
// <cam-id>/latency, capture_time_ms, gyro/yaw, gyro/rate, etc.
type DoubleSender struct {
	bus   *Bus
	topic string
}

// NewDoubleSender binds a DoubleSender to a topic name under the bus's
// vision/<serial> namespace.
func (b *Bus) NewDoubleSender(name string) *DoubleSender {
	return &DoubleSender{bus: b, topic: b.topic(name)}
}

// Send publishes val with the sensor-time offset delayUs behind now.
func (s *DoubleSender) Send(val float64, delayUs int64) error {
	ts, err := sendTimestamp(s.bus.NowUs(), delayUs)
	if err != nil {
		return err
	}
	bits := math.Float64bits(val)
	payload := make([]byte, 8)
	binary.LittleEndian.PutUint64(payload, bits)
	return s.bus.pub.Publish(s.topic, envelope(ts, payload))
}

// BlipSender publishes the `blips` topic: a struct array of Blip24
// per-tag detections.
type BlipSender struct {
	bus   *Bus
	topic string
}

func (b *Bus) NewBlipSender(name string) *BlipSender {
	return &BlipSender{bus: b, topic: b.topic(name)}
}

func (s *BlipSender) Send(val []Blip24, delayUs int64) error {
	ts, err := sendTimestamp(s.bus.NowUs(), delayUs)
	if err != nil {
		return err
	}
	payload, err := MarshalBlip24Array(val)
	if err != nil {
		return err
	}
	return s.bus.pub.Publish(s.topic, envelope(ts, payload))
}

// Blip25Sender publishes the `<name>/blips25` topic: raw pixel-level
// fiducial observations for upstream smoothing.
type Blip25Sender struct {
	bus   *Bus
	topic string
}

func (b *Bus) NewBlip25Sender(name string) *Blip25Sender {
	return &Blip25Sender{bus: b, topic: b.topic(name)}
}

func (s *Blip25Sender) Send(val []Blip25, delayUs int64) error {
	ts, err := sendTimestamp(s.bus.NowUs(), delayUs)
	if err != nil {
		return err
	}
	payload, err := MarshalBlip25Array(val)
	if err != nil {
		return err
	}
	return s.bus.pub.Publish(s.topic, envelope(ts, payload))
}

// PoseEstimate is the smoother's latest result, the payload of
// <name>/pose.
type PoseEstimate struct {
	TimestampUs int64
	X, Y, Theta float32
}

const poseEstimateSize = 8 + 4 + 4 + 4

func (p PoseEstimate) marshal() []byte {
	buf := make([]byte, poseEstimateSize)
	binary.LittleEndian.PutUint64(buf[0:], uint64(p.TimestampUs))
	binary.LittleEndian.PutUint32(buf[8:], float32bits(p.X))
	binary.LittleEndian.PutUint32(buf[12:], float32bits(p.Y))
	binary.LittleEndian.PutUint32(buf[16:], float32bits(p.Theta))
	return buf
}

func unmarshalPoseEstimate(buf []byte) (PoseEstimate, bool) {
	if len(buf) < poseEstimateSize {
		return PoseEstimate{}, false
	}
	return PoseEstimate{
		TimestampUs: int64(binary.LittleEndian.Uint64(buf[0:])),
		X:           float32frombits(binary.LittleEndian.Uint32(buf[8:])),
		Y:           float32frombits(binary.LittleEndian.Uint32(buf[12:])),
		Theta:       float32frombits(binary.LittleEndian.Uint32(buf[16:])),
	}, true
}

// PoseSender publishes the smoother's latest pose estimate.
type PoseSender struct {
	bus   *Bus
	topic string
}

func (b *Bus) NewPoseSender(name string) *PoseSender {
	return &PoseSender{bus: b, topic: b.topic(name)}
}

func (s *PoseSender) Send(val PoseEstimate, delayUs int64) error {
	ts, err := sendTimestamp(s.bus.NowUs(), delayUs)
	if err != nil {
		return err
	}
	return s.bus.pub.Publish(s.topic, envelope(ts, val.marshal()))
}

// CalibSender publishes a camera's calibration (intrinsic + distortion)
// once at startup, as a raw byte blob whose layout the downstream
// controller already knows how to parse.
type CalibSender struct {
	bus   *Bus
	topic string
}

func (b *Bus) NewCalibSender(name string) *CalibSender {
	return &CalibSender{bus: b, topic: b.topic(name)}
}

func (s *CalibSender) Send(raw []byte, delayUs int64) error {
	ts, err := sendTimestamp(s.bus.NowUs(), delayUs)
	if err != nil {
		return err
	}
	return s.bus.pub.Publish(s.topic, envelope(ts, raw))
}

// PieceObservation is one game-piece's camera-frame translation, the
// per-object shape inside the `pieces` msgpack batch (spec.md §4.E/§6).
// Per spec.md §9's open question on the original's vestigial scalar
// cX/cY topic, only the structured translation is carried here.
type PieceObservation struct {
	PoseT [3]float32 `msgpack:"pose_t"`
}

// PieceBatch is the `pieces` topic's raw msgpack payload shape,
// grounded directly on original_source's gamepiece_finder24.py
// (`objects["objects"] = [...]`, each entry `{"pose_t": [...]}`).
type PieceBatch struct {
	Objects []PieceObservation `msgpack:"objects"`
}

// PieceSender publishes the `pieces` topic: a raw msgpack-encoded
// batch of game-piece centroid translations (spec.md §6: "pieces (raw
// msgpack)").
type PieceSender struct {
	bus   *Bus
	topic string
}

func (b *Bus) NewPieceSender(name string) *PieceSender {
	return &PieceSender{bus: b, topic: b.topic(name)}
}

func (s *PieceSender) Send(observations []PieceObservation, delayUs int64) error {
	ts, err := sendTimestamp(s.bus.NowUs(), delayUs)
	if err != nil {
		return err
	}
	payload, err := msgpack.Marshal(PieceBatch{Objects: observations})
	if err != nil {
		return err
	}
	return s.bus.pub.Publish(s.topic, envelope(ts, payload))
}
