package packets

// ReasonCode is a one-byte CONNACK/SUBACK/UNSUBACK result code. Values
// below 0x80 indicate success; values at or above 0x80 indicate failure.
type ReasonCode byte

// Reason contains a reason code together with a human-readable string for
// logging, mirroring the teacher's packets.Code.
type Reason struct {
	Code   ReasonCode
	Reason string
}

func (c Reason) String() string { return c.Reason }
func (c Reason) Error() string  { return c.Reason }

// Success returns whether the code is below the failure threshold.
func (c ReasonCode) Success() bool { return c < 0x80 }

var (
	CodeSuccess                = Reason{0x00, "success"}
	CodeGrantedQoS1            = Reason{0x01, "granted qos 1"}
	CodeGrantedQoS2            = Reason{0x02, "granted qos 2"}
	CodeDisconnectWithWill     = Reason{0x04, "disconnect with will message"}
	CodeNoMatchingSubscribers  = Reason{0x10, "no matching subscribers"}
	CodeNoSubscriptionExisted  = Reason{0x11, "no subscription existed"}
	CodeContinueAuthentication = Reason{0x18, "continue authentication"}
	CodeReAuthenticate         = Reason{0x19, "re-authenticate"}

	ReasonUnspecifiedError           = Reason{0x80, "unspecified error"}
	ReasonMalformedPacket             = Reason{0x81, "malformed packet"}
	ReasonProtocolError               = Reason{0x82, "protocol error"}
	ReasonImplementationSpecificError = Reason{0x83, "implementation specific error"}
	ReasonUnsupportedProtocolVersion  = Reason{0x84, "unsupported protocol version"}
	ReasonClientIdentifierNotValid    = Reason{0x85, "client identifier not valid"}
	ReasonBadUserNameOrPassword       = Reason{0x86, "bad username or password"}
	ReasonNotAuthorized               = Reason{0x87, "not authorized"}
	ReasonServerUnavailable           = Reason{0x88, "server unavailable"}
	ReasonServerBusy                  = Reason{0x89, "server busy"}
	ReasonBanned                      = Reason{0x8A, "banned"}
	ReasonServerShuttingDown          = Reason{0x8B, "server shutting down"}
	ReasonBadAuthenticationMethod     = Reason{0x8C, "bad authentication method"}
	ReasonKeepAliveTimeout            = Reason{0x8D, "keep alive timeout"}
	ReasonSessionTakenOver            = Reason{0x8E, "session taken over"}
	ReasonTopicFilterInvalid          = Reason{0x8F, "topic filter invalid"}
	ReasonTopicNameInvalid            = Reason{0x90, "topic name invalid"}
	ReasonPacketIdentifierInUse       = Reason{0x91, "packet identifier in use"}
	ReasonPacketIdentifierNotFound    = Reason{0x92, "packet identifier not found"}
	ReasonReceiveMaximumExceeded      = Reason{0x93, "receive maximum exceeded"}
	ReasonTopicAliasInvalid           = Reason{0x94, "topic alias invalid"}
	ReasonPacketTooLarge              = Reason{0x95, "packet too large"}
	ReasonMessageRateTooHigh          = Reason{0x96, "message rate too high"}
	ReasonQuotaExceeded               = Reason{0x97, "quota exceeded"}
	ReasonAdministrativeAction        = Reason{0x98, "administrative action"}
	ReasonPayloadFormatInvalid        = Reason{0x99, "payload format invalid"}
	ReasonRetainNotSupported          = Reason{0x9A, "retain not supported"}
	ReasonQoSNotSupported             = Reason{0x9B, "qos not supported"}
	ReasonUseAnotherServer            = Reason{0x9C, "use another server"}
	ReasonServerMoved                 = Reason{0x9D, "server moved"}
	ReasonSharedSubscriptionsNotSupported   = Reason{0x9E, "shared subscriptions not supported"}
	ReasonConnectionRateExceeded            = Reason{0x9F, "connection rate exceeded"}
	ReasonMaximumConnectTime                = Reason{0xA0, "maximum connect time"}
	ReasonSubscriptionIdentifiersNotSupported = Reason{0xA1, "subscription identifiers not supported"}
	ReasonWildcardSubscriptionsNotSupported   = Reason{0xA2, "wildcard subscriptions not supported"}
)

// QoSCodes maps a granted QoS level to the SUBACK reason code that
// advertises it.
var QoSCodes = map[QoS]Reason{
	AtMostOnce:  CodeSuccess,
	AtLeastOnce: CodeGrantedQoS1,
	ExactlyOnce: CodeGrantedQoS2,
}

// SubackFailure is the reason code for a filter the broker rejects.
var SubackFailure = ReasonUnspecifiedError
