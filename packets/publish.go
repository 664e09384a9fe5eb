package packets

import "strings"

// PublishPacket is the decoded variable header and payload of a PUBLISH
// control packet. Only QoS 0 dispatch is implemented by the connection
// driver; QoS 1/2 acknowledgement flows remain a Non-goal, but the
// framing below (including the QoS>0 packet id) is fully decoded so a
// PUBLISH at any QoS can still be parsed and forwarded best-effort.
type PublishPacket struct {
	FixedHeader

	TopicName string
	PacketID  uint16 // only present when FixedHeader.Qos > 0
	Payload   []byte
}

// ErrTopicNameInvalid is returned when a PUBLISH topic name contains a
// wildcard character. Wildcards are valid only in subscription filters,
// never in a published topic name.
var ErrTopicNameInvalid = ReasonTopicNameInvalid

// ValidTopicName reports whether t is free of the wildcard characters
// reserved for topic filters.
func ValidTopicName(t string) bool {
	return t != "" && !strings.ContainsAny(t, "+#")
}

// DecodePublish reads a PUBLISH's variable header and payload from r,
// which must already be positioned just past the fixed header. The
// packet id field is read iff fh.Qos is nonzero; the rest of the current
// packet (per r.Remaining) is taken verbatim as the payload.
func DecodePublish(r *Reader, fh FixedHeader) (*PublishPacket, error) {
	pk := &PublishPacket{FixedHeader: fh}

	topic, ok, err := r.ReadUTF8String(false)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrMalformedPacket
	}
	pk.TopicName = topic

	if fh.Qos > AtMostOnce {
		id, err := r.ReadTwoBytes()
		if err != nil {
			return nil, err
		}
		pk.PacketID = id
	}

	payload, err := r.ReadRaw(r.Remaining())
	if err != nil {
		return nil, err
	}
	pk.Payload = payload

	return pk, nil
}

// Encode writes the PUBLISH packet.
func (pk *PublishPacket) Encode(w *Writer) {
	w.StartPacket(pk.FixedHeader)
	w.WriteUTF8String(pk.TopicName)
	if pk.FixedHeader.Qos > AtMostOnce {
		w.WriteTwoBytes(pk.PacketID)
	}
	w.WriteRaw(pk.Payload)
	_ = w.FinishPacket()
}
