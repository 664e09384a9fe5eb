package packets

// ViolationKind tags the specific rule a CONNECT packet broke. The
// handshake validator accumulates these rather than stopping at the
// first one, so a malformed handshake's full set of problems can be
// logged even though only the first violation decides the CONNACK
// reason code.
type ViolationKind int

const (
	ProtocolNameNotMQTT ViolationKind = iota
	ProtocolVersionInvalid
	UnsupportedVersion
	ReservedBitSet
	EmptyClientIDWithoutCleanSession
	ClientIDTooShort
	ClientIDTooLong
	InvalidClientID
	ClientIDNotUTF8
	InvalidWillQoS
	WillTopicMustBePresent
	WillMessageMustBePresent
	WillQosMustBeZero
	PasswordMustNotBeSet
	UsernameMustBePresent
	PasswordMustBePresent
	UnexpectedExtraData
)

// violationNames gives a human-readable label for each ViolationKind, for
// log lines and test assertions.
var violationNames = map[ViolationKind]string{
	ProtocolNameNotMQTT:              "ProtocolNameNotMQTT",
	ProtocolVersionInvalid:           "ProtocolVersionInvalid",
	UnsupportedVersion:               "UnsupportedVersion",
	ReservedBitSet:                   "MalformedPacket",
	EmptyClientIDWithoutCleanSession: "EmptyClientIdWithoutCleanSession",
	ClientIDTooShort:                 "ClientIdTooShort",
	ClientIDTooLong:                  "ClientIdTooLong",
	InvalidClientID:                  "InvalidClientId",
	ClientIDNotUTF8:                  "ClientIdNotUTF8",
	InvalidWillQoS:                   "InvalidWillQoS",
	WillTopicMustBePresent:           "WillTopicMustBePresent",
	WillMessageMustBePresent:         "WillMessageMustBePresent",
	WillQosMustBeZero:                "WillQosMustBeZero",
	PasswordMustNotBeSet:             "PasswordMustNotBeSet",
	UsernameMustBePresent:            "UsernameMustBePresent",
	PasswordMustBePresent:            "PasswordMustBePresent",
	UnexpectedExtraData:              "UnexpectedExtraData",
}

func (k ViolationKind) String() string {
	if n, ok := violationNames[k]; ok {
		return n
	}
	return "Unknown"
}

// Violation is one accumulated handshake rule break, tagged with the byte
// offset (within the CONNECT variable header + payload) at which it was
// detected.
type Violation struct {
	Kind   ViolationKind
	Offset int
}

// ConnectFlags is the decoded bit layout of the CONNECT flags byte:
// [username(7) | password(6) | will_retain(5) | will_qos(4..3) | will(2) | clean_start(1) | reserved(0)].
type ConnectFlags struct {
	Username     bool
	Password     bool
	WillRetain   bool
	WillQoS      QoS
	Will         bool
	CleanStart   bool
	ReservedBit  bool
}

// DecodeConnectFlags masks and shifts the raw flags byte rather than
// relying on a platform bitfield layout.
func DecodeConnectFlags(b byte) ConnectFlags {
	return ConnectFlags{
		Username:    b&0x80 > 0,
		Password:    b&0x40 > 0,
		WillRetain:  b&0x20 > 0,
		WillQoS:     QoS((b >> 3) & 0x03),
		Will:        b&0x04 > 0,
		CleanStart:  b&0x02 > 0,
		ReservedBit: b&0x01 > 0,
	}
}

func (f ConnectFlags) encode() byte {
	var b byte
	if f.Username {
		b |= 0x80
	}
	if f.Password {
		b |= 0x40
	}
	if f.WillRetain {
		b |= 0x20
	}
	b |= byte(f.WillQoS&0x03) << 3
	if f.Will {
		b |= 0x04
	}
	if f.CleanStart {
		b |= 0x02
	}
	return b
}

// ConnectPacket is the decoded variable header and payload of a CONNECT
// control packet, together with every handshake violation the validator
// found while decoding it.
type ConnectPacket struct {
	FixedHeader

	ProtocolName    string
	ProtocolByte    byte
	ProtocolVersion ProtocolVersion
	Flags           ConnectFlags
	KeepAlive       uint16

	ClientIdentifier string

	WillTopic   string
	WillPayload []byte

	Username string
	Password string

	// PropertiesPresent is a placeholder for V5 CONNECT properties (full
	// V5 property parsing is a Non-goal). ParseConnect does not read or
	// skip the V5 properties fields and never sets this field.
	PropertiesPresent bool

	Violations []Violation
}

// Errors returns every recorded handshake violation, in the order found;
// an empty result means none was recorded.
func (pk *ConnectPacket) Errors() []Violation { return pk.Violations }

// AddViolation appends a violation detected at offset.
func (pk *ConnectPacket) AddViolation(kind ViolationKind, offset int) {
	pk.Violations = append(pk.Violations, Violation{Kind: kind, Offset: offset})
}

// ReasonCode classifies the first recorded violation into a CONNACK
// reason code, per the mapping table in the handshake validator's
// specification. An empty violation list maps to CodeSuccess.
func (pk *ConnectPacket) ReasonCode() Reason {
	if len(pk.Violations) == 0 {
		return CodeSuccess
	}

	switch pk.Violations[0].Kind {
	case UsernameMustBePresent, PasswordMustBePresent, PasswordMustNotBeSet:
		return ReasonBadUserNameOrPassword
	case ClientIDNotUTF8, ClientIDTooShort, ClientIDTooLong, InvalidClientID, EmptyClientIDWithoutCleanSession:
		return ReasonClientIdentifierNotValid
	case ProtocolVersionInvalid, UnsupportedVersion:
		return ReasonUnsupportedProtocolVersion
	default:
		return ReasonMalformedPacket
	}
}

// Encode writes the CONNECT variable header and payload via w, mirroring
// the field order the validator reads them in. It is used by test
// helpers and by any future client-side code; the broker itself never
// encodes a CONNECT.
func (pk *ConnectPacket) Encode(w *Writer) {
	w.StartPacket(FixedHeader{Command: Connect})
	w.WriteUTF8String(pk.ProtocolName)
	w.WriteByte(pk.ProtocolByte)
	w.WriteByte(pk.Flags.encode())
	w.WriteTwoBytes(pk.KeepAlive)
	w.WriteUTF8String(pk.ClientIdentifier)
	if pk.Flags.Will {
		w.WriteUTF8String(pk.WillTopic)
		w.WriteBytes(pk.WillPayload)
	}
	if pk.Flags.Username {
		w.WriteUTF8String(pk.Username)
	}
	if pk.Flags.Password {
		w.WriteUTF8String(pk.Password)
	}
	_ = w.FinishPacket()
}
