// Package mqtt implements the broker described by this repository: a
// connection driver, CONNECT handshake validator, subscription index,
// and the pluggable listeners and auth seam it depends on.
package mqtt

import (
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/quayside-mqtt/broker/auth"
	"github.com/quayside-mqtt/broker/listeners"
	"github.com/quayside-mqtt/broker/topics"
)

// Capabilities are the server-wide flow-control ceilings a Client's own
// values are clamped to when its connection is accepted.
type Capabilities struct {
	ReceiveMaximum    uint16 `yaml:"receive_maximum"`
	MaximumPacketSize uint32 `yaml:"maximum_packet_size"`
	TopicAliasMaximum uint16 `yaml:"topic_alias_maximum"`
}

// DefaultCapabilities mirrors the Client defaults named in the data
// model: receive_maximum=65535, maximum_packet_size=268435455 (the
// largest remaining-length a variable byte integer can encode),
// topic_alias_maximum=0.
func DefaultCapabilities() Capabilities {
	return Capabilities{
		ReceiveMaximum:    65535,
		MaximumPacketSize: 268435455,
		TopicAliasMaximum: 0,
	}
}

// Broker owns the client table, the subscription index, and the set of
// listeners accepting connections on its behalf.
type Broker struct {
	log          *slog.Logger
	capabilities Capabilities
	auth         auth.Controller

	listeners *listeners.Listeners
	topics    *topics.Tree

	mu      sync.RWMutex
	clients map[string]*Client // keyed by trace id

	nextID uint64
}

// New returns a Broker with Allow-all auth and default capabilities; use
// the With* options to override either before calling Serve.
func New(log *slog.Logger) *Broker {
	if log == nil {
		log = slog.Default()
	}
	return &Broker{
		log:          log,
		capabilities: DefaultCapabilities(),
		auth:         auth.Allow{},
		listeners:    listeners.New(),
		topics:       topics.New(),
		clients:      make(map[string]*Client),
	}
}

// WithAuth replaces the broker's auth controller.
func (b *Broker) WithAuth(c auth.Controller) *Broker {
	b.auth = c
	return b
}

// WithCapabilities replaces the broker's flow-control ceilings.
func (b *Broker) WithCapabilities(c Capabilities) *Broker {
	b.capabilities = c
	return b
}

// AddListener registers l; it is bound when Serve is called.
func (b *Broker) AddListener(l listeners.Listener) {
	b.listeners.Add(l)
}

// Serve initializes and starts every registered listener, routing
// accepted connections into the connection driver. It returns once all
// listeners have been initialized; Serve does not block.
func (b *Broker) Serve() error {
	return b.listeners.ServeAll(b.log, b.establish)
}

// Close tears down every client, then every listener.
func (b *Broker) Close() {
	b.mu.Lock()
	clients := make([]*Client, 0, len(b.clients))
	for _, c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}

	b.listeners.CloseAll(func(id string) {
		b.log.Info("listener closed", slog.String("listener", id))
	})
}

// addClient registers c under its trace id and assigns it a numeric
// connection id. The numeric id is a plain monotonically increasing
// counter, deliberately not derived from trace id or client_identifier.
func (b *Broker) addClient(c *Client) {
	c.id = atomic.AddUint64(&b.nextID, 1)
	b.mu.Lock()
	b.clients[c.traceID] = c
	b.mu.Unlock()
}

// removeClient drops c from the table; it does not touch the
// subscription index — callers do that first via topics.UnsubscribeAll.
func (b *Broker) removeClient(c *Client) {
	b.mu.Lock()
	delete(b.clients, c.traceID)
	b.mu.Unlock()
}

// establish is the listeners.EstablishFunc every Listener calls for each
// accepted connection; it blocks for the lifetime of that connection.
func (b *Broker) establish(conn net.Conn) error {
	return b.drive(conn)
}
