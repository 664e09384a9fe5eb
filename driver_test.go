package mqtt

import (
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quayside-mqtt/broker/packets"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func readN(t *testing.T, conn net.Conn, n int) []byte {
	buf := make([]byte, n)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err := io.ReadFull(conn, buf)
	require.NoError(t, err)
	return buf
}

func TestDriverConnectSubscribePingUnsubscribe(t *testing.T) {
	server, client := net.Pipe()
	b := New(discardLogger())

	done := make(chan error, 1)
	go func() { done <- b.drive(server) }()

	connectBytes := []byte{
		0x10, 0x12,
		0x00, 0x04, 'M', 'Q', 'T', 'T',
		0x04,
		0x02,
		0x00, 0x3C,
		0x00, 0x06, 't', 'e', 's', 't', '0', '1',
	}
	_, err := client.Write(connectBytes)
	require.NoError(t, err)
	require.Equal(t, []byte{0x20, 0x02, 0x00, 0x00}, readN(t, client, 4))

	subscribeBytes := []byte{0x82, 0x08, 0x00, 0x01, 0x00, 0x03, 'a', '/', 'b', 0x00}
	_, err = client.Write(subscribeBytes)
	require.NoError(t, err)
	require.Equal(t, []byte{0x90, 0x03, 0x00, 0x01, 0x00}, readN(t, client, 5))

	_, err = client.Write([]byte{0xC0, 0x00})
	require.NoError(t, err)
	require.Equal(t, []byte{0xD0, 0x00}, readN(t, client, 2))

	unsub := &packets.UnsubscribePacket{PacketID: 1, Filters: []string{"a/b"}}
	w := packets.NewWriter(nil)
	unsub.Encode(w)
	_, err = client.Write(w.Bytes())
	require.NoError(t, err)
	require.Equal(t, []byte{0xB0, 0x03, 0x00, 0x01, 0x00}, readN(t, client, 5))

	_, err = client.Write([]byte{0xE0, 0x00})
	require.NoError(t, err)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("drive did not return after DISCONNECT")
	}
}

func TestDriverRejectsBadHandshake(t *testing.T) {
	server, client := net.Pipe()
	b := New(discardLogger())

	done := make(chan error, 1)
	go func() { done <- b.drive(server) }()

	connectBytes := []byte{
		0x10, 0x0D,
		0x00, 0x04, 'M', 'Q', 'T', 'T',
		0x04,
		0x02,
		0x00, 0x3C,
		0x00, 0x01, 'x',
	}
	_, err := client.Write(connectBytes)
	require.NoError(t, err)

	ack := readN(t, client, 4)
	require.Equal(t, byte(0x20), ack[0])
	require.Equal(t, packets.ReasonClientIdentifierNotValid.Code, packets.ReasonCode(ack[3]))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("drive did not close connection after rejected handshake")
	}
}

func TestDriverPublishDispatchesToSubscriber(t *testing.T) {
	serverA, clientA := net.Pipe()
	serverB, clientB := net.Pipe()
	b := New(discardLogger())

	doneA := make(chan error, 1)
	doneB := make(chan error, 1)
	go func() { doneA <- b.drive(serverA) }()
	go func() { doneB <- b.drive(serverB) }()
	defer func() { clientA.Close(); clientB.Close(); <-doneA; <-doneB }()

	connect := func(c net.Conn, id byte) {
		bytes := []byte{
			0x10, 0x12,
			0x00, 0x04, 'M', 'Q', 'T', 'T',
			0x04, 0x02, 0x00, 0x3C,
			0x00, 0x06, 't', 'e', 's', 't', '0', id,
		}
		_, err := c.Write(bytes)
		require.NoError(t, err)
		require.Equal(t, []byte{0x20, 0x02, 0x00, 0x00}, readN(t, c, 4))
	}
	connect(clientA, '1')
	connect(clientB, '2')

	subscribeBytes := []byte{0x82, 0x08, 0x00, 0x01, 0x00, 0x03, 'a', '/', 'b', 0x00}
	_, err := clientB.Write(subscribeBytes)
	require.NoError(t, err)
	require.Equal(t, []byte{0x90, 0x03, 0x00, 0x01, 0x00}, readN(t, clientB, 5))

	pub := &packets.PublishPacket{
		FixedHeader: packets.FixedHeader{Command: packets.Publish, Qos: packets.AtMostOnce},
		TopicName:   "a/b",
		Payload:     []byte("hi"),
	}
	w := packets.NewWriter(nil)
	pub.Encode(w)
	_, err = clientA.Write(w.Bytes())
	require.NoError(t, err)

	got := readN(t, clientB, len(w.Bytes()))
	require.Equal(t, w.Bytes(), got)
}
