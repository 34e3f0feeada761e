package telemetry

// Sample pairs a received value with the sensor-timestamp it was
// published under, the shape every receiver's Get() returns a list of
// (spec.md §4.B).
type Sample[T any] struct {
	TimestampUs int64
	Value       T
}

// Blip25Receiver drains the `estimatedTagPose`-style pixel-observation
// subscription, preserving duplicates, reporting overflow rather than
// dropping silently.
type Blip25Receiver struct {
	sub subscription
}

// NewBlip25Receiver subscribes to name under the bus's namespace.
func (b *Bus) NewBlip25Receiver(name string) (*Blip25Receiver, error) {
	sub, err := b.sub.Subscribe(b.topic(name))
	if err != nil {
		return nil, err
	}
	return &Blip25Receiver{sub: sub}, nil
}

// Get drains everything received since the last call. A non-nil error
// indicates at least one sample was dropped to queue overflow; the
// caller proceeds with whatever samples were retained, per spec.md
// §4.B and §7 ("Telemetry overflow/disconnect: logged; subscribers
// re-bind on reconnect.").
func (r *Blip25Receiver) Get() ([]Sample[[]Blip25], error) {
	items, overflowed := r.sub.Drain()
	out := make([]Sample[[]Blip25], 0, len(items))
	for _, item := range items {
		ts, payload, ok := splitEnvelope(item)
		if !ok {
			continue
		}
		blips, err := UnmarshalBlip25Array(payload)
		if err != nil {
			continue
		}
		out = append(out, Sample[[]Blip25]{TimestampUs: ts, Value: blips})
	}
	if overflowed {
		return out, ErrOverflow
	}
	return out, nil
}

func (r *Blip25Receiver) Close() error { return r.sub.Close() }

// OdometryPositions is the wire shape of a SwerveModulePositions
// publication: four (distance, angle) pairs.
type OdometryPositions [4][2]float32

const odometryPositionsSize = 4 * 2 * 4

func marshalOdometryPositions(v OdometryPositions) []byte {
	buf := make([]byte, odometryPositionsSize)
	off := 0
	for i := 0; i < 4; i++ {
		for j := 0; j < 2; j++ {
			putFloat32(buf[off:], v[i][j])
			off += 4
		}
	}
	return buf
}

func unmarshalOdometryPositions(buf []byte) (OdometryPositions, bool) {
	if len(buf) < odometryPositionsSize {
		return OdometryPositions{}, false
	}
	var out OdometryPositions
	off := 0
	for i := 0; i < 4; i++ {
		for j := 0; j < 2; j++ {
			out[i][j] = getFloat32(buf[off:])
			off += 4
		}
	}
	return out, true
}

// OdometryReceiver drains the `odometry` subscription.
type OdometryReceiver struct {
	sub subscription
}

func (b *Bus) NewOdometryReceiver(name string) (*OdometryReceiver, error) {
	sub, err := b.sub.Subscribe(b.topic(name))
	if err != nil {
		return nil, err
	}
	return &OdometryReceiver{sub: sub}, nil
}

func (r *OdometryReceiver) Get() ([]Sample[OdometryPositions], error) {
	items, overflowed := r.sub.Drain()
	out := make([]Sample[OdometryPositions], 0, len(items))
	for _, item := range items {
		ts, payload, ok := splitEnvelope(item)
		if !ok {
			continue
		}
		positions, ok := unmarshalOdometryPositions(payload)
		if !ok {
			continue
		}
		out = append(out, Sample[OdometryPositions]{TimestampUs: ts, Value: positions})
	}
	if overflowed {
		return out, ErrOverflow
	}
	return out, nil
}

func (r *OdometryReceiver) Close() error { return r.sub.Close() }

// GyroReceiver drains the `gyro` subscription: (yaw, rate) pairs.
type GyroReceiver struct {
	sub subscription
}

func (b *Bus) NewGyroReceiver(name string) (*GyroReceiver, error) {
	sub, err := b.sub.Subscribe(b.topic(name))
	if err != nil {
		return nil, err
	}
	return &GyroReceiver{sub: sub}, nil
}

// GyroSample is a (yaw, rate) pair, decoded from two little-endian
// float32 values in each message.
type GyroSample struct {
	Yaw, Rate float32
}

func (r *GyroReceiver) Get() ([]Sample[GyroSample], error) {
	items, overflowed := r.sub.Drain()
	out := make([]Sample[GyroSample], 0, len(items))
	for _, item := range items {
		ts, payload, ok := splitEnvelope(item)
		if !ok || len(payload) < 8 {
			continue
		}
		out = append(out, Sample[GyroSample]{
			TimestampUs: ts,
			Value:       GyroSample{Yaw: getFloat32(payload), Rate: getFloat32(payload[4:])},
		})
	}
	if overflowed {
		return out, ErrOverflow
	}
	return out, nil
}

func (r *GyroReceiver) Close() error { return r.sub.Close() }
