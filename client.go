package mqtt

import (
	"bufio"
	"io"
	"net"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/quayside-mqtt/broker/packets"
)

// packetIDLimit is the highest value a packet identifier counter wraps
// at before skipping back past zero, which is never a valid identifier.
const packetIDLimit = 65535

// Will holds the retained will-message fields negotiated during CONNECT.
// It is never implemented beyond storage: the broker records it but does
// not publish it on ungraceful disconnect (deferred per §4.5a).
type Will struct {
	Topic   string
	Payload []byte
	Qos     packets.QoS
	Retain  bool
}

// Client is the broker's live state for one connected session. Its
// fields are touched by the client's own driver goroutine plus, for the
// Enqueue path only, by the topic matcher on behalf of other clients'
// publishes; Enqueue only sends on the buffered outbox channel. The
// mutex below guards the subscriptions map, the packet-id counter and
// the closed flag.
type Client struct {
	id              uint64
	traceID         string
	identifier      string
	protocolVersion packets.ProtocolVersion

	conn net.Conn
	r    *bufio.Reader

	remoteAddr  string
	connectedAt time.Time

	cleanStart            bool
	sessionExpiryInterval uint32
	keepAlive             uint16

	username string
	will     *Will

	receiveMaximum    uint16
	maximumPacketSize uint32
	topicAliasMaximum uint16

	mu            sync.Mutex
	subscriptions map[string]packets.QoS
	packetIDSeq   uint16
	outbox        chan []byte
	closed        bool
	closeOnce     sync.Once
	stopCh        chan struct{}
}

// NewClient wraps an accepted connection; it does not perform the
// handshake or register the client anywhere.
func NewClient(conn net.Conn) *Client {
	return &Client{
		traceID:           xid.New().String(),
		conn:              conn,
		r:                 bufio.NewReader(conn),
		remoteAddr:        conn.RemoteAddr().String(),
		connectedAt:       time.Now(),
		receiveMaximum:    65535,
		maximumPacketSize: packets.MaxRemainingLength,
		subscriptions:     make(map[string]packets.QoS),
		outbox:            make(chan []byte, 32),
		stopCh:            make(chan struct{}),
	}
}

// ID satisfies topics.Subscriber, identifying this client by its
// connection trace id rather than its broker-chosen numeric id or
// client_identifier, neither of which topics needs to know about.
func (c *Client) ID() string { return c.traceID }

// Enqueue satisfies topics.Subscriber. It never blocks the publishing
// client on a slow subscriber: a full outbox drops the message.
func (c *Client) Enqueue(topic string, payload []byte, qos byte, retain bool) {
	fh := packets.FixedHeader{Command: packets.Publish, Retain: retain, Qos: packets.QoS(qos)}
	w := packets.NewWriter(make([]byte, 0, 5+2+len(topic)+len(payload)))
	w.StartPacket(fh)
	w.WriteUTF8String(topic)
	w.WriteRaw(payload)
	if err := w.FinishPacket(); err != nil {
		return
	}

	select {
	case c.outbox <- w.Bytes():
	default:
	}
}

// nextPacketID returns the next packet identifier, skipping zero.
func (c *Client) nextPacketID() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.packetIDSeq++
	if c.packetIDSeq == 0 {
		c.packetIDSeq = 1
	}
	return c.packetIDSeq
}

// writeLoop drains the outbox to the wire until the client is closed.
// It owns all writes to conn so the driver goroutine never races it.
func (c *Client) writeLoop() {
	for {
		select {
		case b := <-c.outbox:
			if _, err := c.conn.Write(b); err != nil {
				c.Close()
				return
			}
		case <-c.stopCh:
			return
		}
	}
}

// writeDirect sends b immediately, bypassing the outbox. Used for
// responses the driver must send synchronously (CONNACK, SUBACK, ...).
func (c *Client) writeDirect(b []byte) error {
	_, err := c.conn.Write(b)
	return err
}

// Close tears down the connection exactly once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.stopCh)
		_ = c.conn.Close()
	})
}

// refreshDeadline arms the read deadline at 1.5x the negotiated
// keep_alive, per §4.5's keep-alive timeout rule. A keep_alive of zero
// disables the deadline entirely.
func (c *Client) refreshDeadline() {
	if c.keepAlive == 0 {
		return
	}
	d := time.Duration(c.keepAlive) * time.Second * 3 / 2
	_ = c.conn.SetReadDeadline(time.Now().Add(d))
}

// readPacket reads one fixed header plus its remaining-length body off
// the wire, returning the raw bytes (header included) ready for
// packets.NewReader. It blocks until a full packet is buffered or the
// deadline trips.
func (c *Client) readPacket() ([]byte, error) {
	first, err := c.r.ReadByte()
	if err != nil {
		return nil, err
	}

	var lenBytes []byte
	for i := 0; i < 4; i++ {
		b, err := c.r.ReadByte()
		if err != nil {
			return nil, err
		}
		lenBytes = append(lenBytes, b)
		if b&0x80 == 0 {
			break
		}
	}

	remaining, _, err := packets.DecodeLength(lenBytes)
	if err != nil {
		return nil, err
	}

	body := make([]byte, remaining)
	if remaining > 0 {
		if _, err := io.ReadFull(c.r, body); err != nil {
			return nil, err
		}
	}

	out := make([]byte, 0, 1+len(lenBytes)+remaining)
	out = append(out, first)
	out = append(out, lenBytes...)
	out = append(out, body...)
	return out, nil
}
