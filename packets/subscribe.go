package packets

// SubscriptionOptions packs the options byte that follows each topic
// filter in a SUBSCRIBE payload: {qos: QoS, no_local, retain_as_published,
// retain_handling: 2 bits, reserved: 2 bits zero}.
type SubscriptionOptions struct {
	QoS               QoS
	NoLocal           bool
	RetainAsPublished bool
	RetainHandling    byte // 2 bits
}

// DecodeSubscriptionOptions unpacks a single options byte. The upper two
// bits are reserved and must be zero; a nonzero reserved field is a
// malformed packet (see §9's open question — the original source does
// not enforce this, but a spec-strict implementation must).
func DecodeSubscriptionOptions(b byte) (SubscriptionOptions, error) {
	if b&0xC0 != 0 {
		return SubscriptionOptions{}, ErrMalformedPacket
	}

	opts := SubscriptionOptions{
		QoS:               QoS(b & 0x03),
		NoLocal:           b&0x04 > 0,
		RetainAsPublished: b&0x08 > 0,
		RetainHandling:    (b >> 4) & 0x03,
	}
	if !opts.QoS.Valid() {
		return SubscriptionOptions{}, ErrMalformedPacket
	}
	return opts, nil
}

func (o SubscriptionOptions) encode() byte {
	b := byte(o.QoS & 0x03)
	if o.NoLocal {
		b |= 0x04
	}
	if o.RetainAsPublished {
		b |= 0x08
	}
	b |= (o.RetainHandling & 0x03) << 4
	return b
}

// Subscription pairs a topic filter with the options requested for it.
type Subscription struct {
	Filter  string
	Options SubscriptionOptions
}

// SubscribePacket is the decoded variable header and payload of a
// SUBSCRIBE control packet.
type SubscribePacket struct {
	FixedHeader

	PacketID               uint16
	SubscriptionIdentifier uint32 // 0 if absent; V5-only, not yet wired into dispatch.
	Subscriptions          []Subscription
}

// DecodeSubscribe reads a SUBSCRIBE's variable header and payload from r,
// which must already be positioned just past the fixed header. It fails
// fast (unlike the CONNECT validator) since a malformed SUBSCRIBE has no
// accumulated-violations model in the wire spec.
func DecodeSubscribe(r *Reader, fh FixedHeader) (*SubscribePacket, error) {
	pk := &SubscribePacket{FixedHeader: fh}

	id, err := r.ReadTwoBytes()
	if err != nil {
		return nil, err
	}
	pk.PacketID = id

	for r.Pos() < r.Len() {
		filter, ok, err := r.ReadUTF8String(false)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrMalformedPacket
		}

		optByte, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		opts, err := DecodeSubscriptionOptions(optByte)
		if err != nil {
			return nil, err
		}

		pk.Subscriptions = append(pk.Subscriptions, Subscription{Filter: filter, Options: opts})
	}

	if len(pk.Subscriptions) == 0 {
		return nil, ErrMalformedPacket
	}
	return pk, nil
}

// Encode writes the SUBSCRIBE packet, used by test helpers to build wire
// fixtures.
func (pk *SubscribePacket) Encode(w *Writer) {
	w.StartPacket(FixedHeader{Command: Subscribe})
	w.WriteTwoBytes(pk.PacketID)
	for _, s := range pk.Subscriptions {
		w.WriteUTF8String(s.Filter)
		w.WriteByte(s.Options.encode())
	}
	_ = w.FinishPacket()
}

// SubackPacket is the broker's response to a SUBSCRIBE, carrying one
// reason code per requested filter in request order.
type SubackPacket struct {
	FixedHeader

	PacketID    uint16
	ReasonCodes []ReasonCode
}

// Encode writes the SUBACK packet.
func (pk *SubackPacket) Encode(w *Writer) {
	w.StartPacket(FixedHeader{Command: Suback})
	w.WriteTwoBytes(pk.PacketID)
	for _, rc := range pk.ReasonCodes {
		w.WriteByte(byte(rc))
	}
	_ = w.FinishPacket()
}
