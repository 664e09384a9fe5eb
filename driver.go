package mqtt

import (
	"errors"
	"io"
	"log/slog"
	"net"

	"github.com/quayside-mqtt/broker/packets"
	"github.com/quayside-mqtt/broker/topics"
)

// drive runs the per-connection loop described by the connection
// driver: read a packet, dispatch it, repeat until DISCONNECT, EOF, or
// an I/O/codec error, then tear down unconditionally. It blocks for the
// lifetime of conn.
func (b *Broker) drive(conn net.Conn) error {
	c := NewClient(conn)
	c.receiveMaximum = min(c.receiveMaximum, b.capabilities.ReceiveMaximum)
	c.maximumPacketSize = min(c.maximumPacketSize, b.capabilities.MaximumPacketSize)
	c.topicAliasMaximum = min(c.topicAliasMaximum, b.capabilities.TopicAliasMaximum)
	go c.writeLoop()

	defer func() {
		b.topics.UnsubscribeAll(c.traceID)
		b.removeClient(c)
		c.Close()
	}()

	for {
		raw, err := c.readPacket()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		r := packets.NewReader(raw)
		if err := r.Start(len(raw)); err != nil {
			b.log.Warn("malformed packet", slog.String("trace", c.traceID), slog.Any("error", err))
			return err
		}

		fh, err := packets.ReadFixedHeader(r)
		if err != nil {
			b.log.Warn("malformed fixed header", slog.String("trace", c.traceID), slog.Any("error", err))
			return err
		}

		if fh.Command == packets.Disconnect {
			return nil
		}

		if err := b.dispatch(c, r, fh); err != nil {
			b.log.Warn("dispatch error", slog.String("trace", c.traceID), slog.String("command", fh.Command.String()), slog.Any("error", err))
			return err
		}

		c.refreshDeadline()
	}
}

// dispatch handles a single non-DISCONNECT packet already positioned
// past its fixed header.
func (b *Broker) dispatch(c *Client, r *packets.Reader, fh packets.FixedHeader) error {
	switch fh.Command {
	case packets.Connect:
		return b.handleConnect(c, r, fh)
	case packets.Subscribe:
		return b.handleSubscribe(c, r, fh)
	case packets.Unsubscribe:
		return b.handleUnsubscribe(c, r, fh)
	case packets.Publish:
		return b.handlePublish(c, r, fh)
	case packets.Pingreq:
		return b.handlePingreq(c)
	case packets.Puback, packets.Pubrec, packets.Pubrel, packets.Pubcomp:
		b.log.Debug("qos1/2 ack received, not implemented", slog.String("trace", c.traceID), slog.String("command", fh.Command.String()))
		return nil
	default:
		b.log.Debug("unhandled command, ignoring", slog.String("trace", c.traceID), slog.String("command", fh.Command.String()))
		return nil
	}
}

func (b *Broker) handleConnect(c *Client, r *packets.Reader, fh packets.FixedHeader) error {
	pk := ParseConnect(r, fh)

	c.identifier = pk.ClientIdentifier
	c.protocolVersion = pk.ProtocolVersion
	c.cleanStart = pk.Flags.CleanStart
	c.keepAlive = pk.KeepAlive
	c.username = pk.Username
	if pk.Flags.Will {
		c.will = &Will{Topic: pk.WillTopic, Payload: pk.WillPayload, Qos: pk.Flags.WillQoS, Retain: pk.Flags.WillRetain}
	}

	reason := pk.ReasonCode()
	if reason.Code == packets.CodeSuccess.Code && !b.auth.Auth(pk.Username, pk.Password) {
		// Framing passed but the auth controller rejects these
		// credentials; report it exactly as the wire-level validator
		// would have, per the auth controller's override rule.
		reason = packets.ReasonBadUserNameOrPassword
	}

	if reason.Code != packets.CodeSuccess.Code {
		if err := c.writeDirect(encodeConnackBytes(pk, reason)); err != nil {
			return err
		}
		return reason
	}

	b.addClient(c)
	c.refreshDeadline()
	return c.writeDirect(encodeConnackBytes(pk, reason))
}

func encodeConnackBytes(pk *packets.ConnectPacket, reason packets.Reason) []byte {
	ack := &packets.ConnackPacket{
		SessionPresent: false,
		ReasonCode:     reason.Code,
		IsV5:           pk.ProtocolVersion.IsV5(),
	}
	w := packets.NewWriter(make([]byte, 0, 8))
	ack.Encode(w)
	return w.Bytes()
}

func (b *Broker) handleSubscribe(c *Client, r *packets.Reader, fh packets.FixedHeader) error {
	pk, err := packets.DecodeSubscribe(r, fh)
	if err != nil {
		return err
	}

	reasons := make([]packets.ReasonCode, len(pk.Subscriptions))
	for i, sub := range pk.Subscriptions {
		if sub.Filter == "" {
			reasons[i] = packets.SubackFailure.Code
			continue
		}

		b.topics.Subscribe(sub.Filter, c, byte(sub.Options.QoS))
		c.mu.Lock()
		c.subscriptions[sub.Filter] = sub.Options.QoS
		c.mu.Unlock()
		reasons[i] = packets.QoSCodes[packets.AtMostOnce].Code

		if !topics.IsWildcardFilter(sub.Filter) {
			if retained, ok := b.topics.Retained(sub.Filter); ok {
				c.Enqueue(retained.Topic, retained.Payload, retained.QoS, true)
			}
		}
	}

	ack := &packets.SubackPacket{FixedHeader: packets.FixedHeader{Command: packets.Suback}, PacketID: pk.PacketID, ReasonCodes: reasons}
	w := packets.NewWriter(make([]byte, 0, 16))
	ack.Encode(w)
	return c.writeDirect(w.Bytes())
}

func (b *Broker) handleUnsubscribe(c *Client, r *packets.Reader, fh packets.FixedHeader) error {
	pk, err := packets.DecodeUnsubscribe(r, fh)
	if err != nil {
		return err
	}

	reasons := make([]packets.ReasonCode, len(pk.Filters))
	for i, filter := range pk.Filters {
		c.mu.Lock()
		_, had := c.subscriptions[filter]
		delete(c.subscriptions, filter)
		c.mu.Unlock()

		if b.topics.Unsubscribe(filter, c.traceID) || had {
			reasons[i] = packets.CodeSuccess.Code
		} else {
			reasons[i] = packets.CodeNoSubscriptionExisted.Code
		}
	}

	ack := &packets.UnsubackPacket{FixedHeader: packets.FixedHeader{Command: packets.Unsuback}, PacketID: pk.PacketID, ReasonCodes: reasons}
	w := packets.NewWriter(make([]byte, 0, 16))
	ack.Encode(w)
	return c.writeDirect(w.Bytes())
}

func (b *Broker) handlePublish(c *Client, r *packets.Reader, fh packets.FixedHeader) error {
	pk, err := packets.DecodePublish(r, fh)
	if err != nil {
		return err
	}
	if !packets.ValidTopicName(pk.TopicName) {
		return packets.ErrTopicNameInvalid
	}

	if fh.Retain {
		b.topics.RetainMessage(pk.TopicName, pk.Payload, byte(packets.AtMostOnce))
	}

	for _, sub := range b.topics.Subscribers(pk.TopicName) {
		sub.Enqueue(pk.TopicName, pk.Payload, byte(packets.AtMostOnce), fh.Retain)
	}
	return nil
}

func (b *Broker) handlePingreq(c *Client) error {
	resp := &packets.PingrespPacket{FixedHeader: packets.FixedHeader{Command: packets.Pingresp}}
	w := packets.NewWriter(make([]byte, 0, 2))
	resp.Encode(w)
	return c.writeDirect(w.Bytes())
}
