package packets

// UnsubscribePacket is the decoded variable header and payload of an
// UNSUBSCRIBE control packet: a packet id followed by one or more bare
// topic filters (no options byte, unlike SUBSCRIBE).
type UnsubscribePacket struct {
	FixedHeader

	PacketID uint16
	Filters  []string
}

// DecodeUnsubscribe reads an UNSUBSCRIBE's variable header and payload
// from r, which must already be positioned just past the fixed header.
func DecodeUnsubscribe(r *Reader, fh FixedHeader) (*UnsubscribePacket, error) {
	pk := &UnsubscribePacket{FixedHeader: fh}

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
		pk.Filters = append(pk.Filters, filter)
	}

	if len(pk.Filters) == 0 {
		return nil, ErrMalformedPacket
	}
	return pk, nil
}

// Encode writes the UNSUBSCRIBE packet.
func (pk *UnsubscribePacket) Encode(w *Writer) {
	w.StartPacket(FixedHeader{Command: Unsubscribe})
	w.WriteTwoBytes(pk.PacketID)
	for _, f := range pk.Filters {
		w.WriteUTF8String(f)
	}
	_ = w.FinishPacket()
}

// UnsubackPacket is the broker's response to an UNSUBSCRIBE, carrying one
// reason code per requested filter in request order.
type UnsubackPacket struct {
	FixedHeader

	PacketID    uint16
	ReasonCodes []ReasonCode
}

// Encode writes the UNSUBACK packet.
func (pk *UnsubackPacket) Encode(w *Writer) {
	w.StartPacket(FixedHeader{Command: Unsuback})
	w.WriteTwoBytes(pk.PacketID)
	for _, rc := range pk.ReasonCodes {
		w.WriteByte(byte(rc))
	}
	_ = w.FinishPacket()
}
