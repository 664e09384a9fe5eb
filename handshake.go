package mqtt

import (
	"unicode/utf8"

	"github.com/quayside-mqtt/broker/packets"
)

// validClientIDChar restricts client_identifier to the broker's narrower
// policy (looser length bounds than the protocol's own floor, but a
// tighter character set: digits and ASCII letters only).
func validClientIDChar(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}

func allValidClientIDChars(s string) bool {
	for _, r := range s {
		if !validClientIDChar(r) {
			return false
		}
	}
	return true
}

// ParseConnect decodes a CONNECT packet's variable header and payload
// from r, accumulating every handshake violation it finds rather than
// stopping at the first one. r must already be positioned just past the
// fixed header (Start and ReadFixedHeader already ran).
func ParseConnect(r *packets.Reader, fh packets.FixedHeader) *packets.ConnectPacket {
	pk := &packets.ConnectPacket{FixedHeader: fh}

	name, _, _ := r.ReadUTF8String(true)
	pk.ProtocolName = name
	if name != "MQTT" && name != "MQIsdp" {
		pk.AddViolation(packets.ProtocolNameNotMQTT, r.Offset())
	}

	verByte, err := r.ReadByte()
	if err == nil {
		pk.ProtocolByte = verByte
		pk.ProtocolVersion = packets.ProtocolVersionFromByte(verByte)
	}
	if pk.ProtocolVersion == packets.VersionInvalid {
		pk.AddViolation(packets.ProtocolVersionInvalid, r.Offset())
	} else if !pk.ProtocolVersion.Supported() {
		pk.AddViolation(packets.UnsupportedVersion, r.Offset())
	}

	flagsByte, err := r.ReadByte()
	if err == nil {
		pk.Flags = packets.DecodeConnectFlags(flagsByte)
		if pk.Flags.ReservedBit {
			pk.AddViolation(packets.ReservedBitSet, r.Offset())
		}
	}

	keepAlive, _ := r.ReadTwoBytes()
	pk.KeepAlive = keepAlive

	clientID, ok, err := r.ReadUTF8String(true)
	idOffset := r.Offset()
	switch {
	case err == packets.ErrOffsetStringInvalidUTF8:
		pk.AddViolation(packets.ClientIDNotUTF8, idOffset)
	case !ok:
		if !pk.Flags.CleanStart {
			pk.AddViolation(packets.EmptyClientIDWithoutCleanSession, idOffset)
		}
	default:
		pk.ClientIdentifier = clientID
		switch {
		case len(clientID) < 2:
			pk.AddViolation(packets.ClientIDTooShort, idOffset)
		case len(clientID) > 64:
			pk.AddViolation(packets.ClientIDTooLong, idOffset)
		case !allValidClientIDChars(clientID):
			pk.AddViolation(packets.InvalidClientID, idOffset)
		}
		if !utf8.ValidString(clientID) {
			pk.AddViolation(packets.ClientIDNotUTF8, idOffset)
		}
	}

	if pk.Flags.Will {
		if !pk.Flags.WillQoS.Valid() {
			pk.AddViolation(packets.InvalidWillQoS, r.Offset())
		}
		topic, ok, _ := r.ReadUTF8String(false)
		pk.WillTopic = topic
		if !ok {
			pk.AddViolation(packets.WillTopicMustBePresent, r.Offset())
		}

		payload, err := r.ReadBytes()
		pk.WillPayload = payload
		if err == nil && len(payload) == 0 {
			pk.AddViolation(packets.WillMessageMustBePresent, r.Offset())
		}
	} else if pk.Flags.WillQoS != packets.AtMostOnce {
		pk.AddViolation(packets.WillQosMustBeZero, r.Offset())
	}

	if pk.Flags.Password && !pk.Flags.Username {
		pk.AddViolation(packets.PasswordMustNotBeSet, r.Offset())
	}

	if pk.Flags.Username {
		user, ok, _ := r.ReadUTF8String(false)
		pk.Username = user
		if !ok {
			pk.AddViolation(packets.UsernameMustBePresent, r.Offset())
		}
	}

	if pk.Flags.Password {
		pass, ok, _ := r.ReadUTF8String(false)
		pk.Password = pass
		if !ok {
			pk.AddViolation(packets.PasswordMustBePresent, r.Offset())
		}
	}

	if r.Pos() != r.Len() {
		pk.AddViolation(packets.UnexpectedExtraData, r.Pos())
	}

	return pk
}
