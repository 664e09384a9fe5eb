package listeners

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrInvalidMessage is returned by wsConn.Read when the peer sends a text
// frame; this broker only accepts binary MQTT frames over a websocket.
var ErrInvalidMessage = errors.New("websocket message type not binary")

// Websocket is a listener for establishing MQTT-over-websocket
// connections, upgrading HTTP connections that request the "mqtt"
// subprotocol.
type Websocket struct {
	id      string
	address string
	log     *slog.Logger

	upgrader *websocket.Upgrader
	server   *http.Server

	mu     sync.Mutex
	closed bool
}

// NewWebsocket returns a websocket listener bound to address once
// Init/Serve are called.
func NewWebsocket(id, address string) *Websocket {
	return &Websocket{
		id:      id,
		address: address,
		upgrader: &websocket.Upgrader{
			Subprotocols:    []string{"mqtt"},
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

func (l *Websocket) ID() string      { return l.id }
func (l *Websocket) Address() string { return l.address }

// Init records the logger. The HTTP server that serves the upgrade
// handshake is built and bound by Serve.
func (l *Websocket) Init(log *slog.Logger) error {
	l.log = log
	return nil
}

// Serve starts the HTTP server and blocks until Close is called.
func (l *Websocket) Serve(establish EstablishFunc) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		conn, err := l.upgrader.Upgrade(w, r, nil)
		if err != nil {
			l.log.Warn("websocket upgrade failed", slog.String("listener", l.id), slog.Any("error", err))
			return
		}

		wrapped := &wsConn{Conn: conn}
		if err := establish(wrapped); err != nil {
			l.log.Debug("connection ended", slog.String("listener", l.id), slog.Any("error", err))
		}
	})

	l.server = &http.Server{
		Addr:         l.address,
		Handler:      mux,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	err := l.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Close shuts down the HTTP server.
func (l *Websocket) Close(closeFn CloseFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	if l.server != nil {
		_ = l.server.Close()
	}
	closeFn(l.id)
}

// wsConn adapts a *websocket.Conn to net.Conn: each Write is sent as a
// single binary websocket message, and Read returns the bytes of
// successive binary messages as one stream. It accepts only binary frames.
type wsConn struct {
	*websocket.Conn

	readMu  sync.Mutex
	reader  io.Reader
}

func (c *wsConn) Read(b []byte) (int, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	for c.reader == nil {
		mt, r, err := c.Conn.NextReader()
		if err != nil {
			return 0, err
		}
		if mt != websocket.BinaryMessage {
			return 0, ErrInvalidMessage
		}
		c.reader = r
	}

	n, err := c.reader.Read(b)
	if err == io.EOF {
		c.reader = nil
		err = nil
		if n == 0 {
			return c.Read(b)
		}
	}
	return n, err
}

func (c *wsConn) Write(b []byte) (int, error) {
	if err := c.Conn.WriteMessage(websocket.BinaryMessage, b); err != nil {
		return 0, err
	}
	return len(b), nil
}

func (c *wsConn) Close() error {
	return c.Conn.Close()
}

func (c *wsConn) LocalAddr() net.Addr  { return c.Conn.LocalAddr() }
func (c *wsConn) RemoteAddr() net.Addr { return c.Conn.RemoteAddr() }

func (c *wsConn) SetDeadline(t time.Time) error {
	if err := c.Conn.SetReadDeadline(t); err != nil {
		return err
	}
	return c.Conn.SetWriteDeadline(t)
}

func (c *wsConn) SetReadDeadline(t time.Time) error  { return c.Conn.SetReadDeadline(t) }
func (c *wsConn) SetWriteDeadline(t time.Time) error { return c.Conn.SetWriteDeadline(t) }
