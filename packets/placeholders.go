package packets

// PubackPacket, PubrecPacket, PubrelPacket, and PubcompPacket are
// declared so the fixed header's command byte can be framed and skipped
// by the connection driver's dispatch loop, but none of them are
// produced or consumed by this broker: the QoS 1/2 acknowledgement flow
// is a Non-goal. A driver that reads one of these logs and continues.
type PubackPacket struct {
	FixedHeader
	PacketID uint16
}

type PubrecPacket struct {
	FixedHeader
	PacketID uint16
}

type PubrelPacket struct {
	FixedHeader
	PacketID uint16
}

type PubcompPacket struct {
	FixedHeader
	PacketID uint16
}
