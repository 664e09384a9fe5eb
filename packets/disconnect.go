package packets

// DisconnectPacket signals the client is ending the connection cleanly.
// On receipt the connection driver returns from its read loop without
// writing a response (v3.1.1 DISCONNECT carries no acknowledgement).
type DisconnectPacket struct {
	FixedHeader
}
