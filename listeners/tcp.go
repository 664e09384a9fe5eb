package listeners

import (
	"log/slog"
	"net"
	"sync"
)

// TCP is a listener for establishing client connections over plain TCP,
// the default transport per §6 (binds to 0.0.0.0:1883 unless configured
// otherwise).
type TCP struct {
	id      string
	address string
	log     *slog.Logger

	mu     sync.Mutex
	listen net.Listener
	done   chan struct{}
	closed bool
}

// NewTCP returns a TCP listener bound to address once Init/Serve are
// called; it does not bind eagerly.
func NewTCP(id, address string) *TCP {
	return &TCP{
		id:      id,
		address: address,
		done:    make(chan struct{}),
	}
}

func (l *TCP) ID() string      { return l.id }
func (l *TCP) Address() string { return l.address }

// Init opens the listening socket.
func (l *TCP) Init(log *slog.Logger) error {
	l.log = log
	ln, err := net.Listen("tcp", l.address)
	if err != nil {
		return err
	}
	l.listen = ln
	return nil
}

// Serve accepts connections until Close is called, handing each one to
// establish in its own goroutine.
func (l *TCP) Serve(establish EstablishFunc) error {
	for {
		conn, err := l.listen.Accept()
		if err != nil {
			select {
			case <-l.done:
				return nil
			default:
				l.log.Warn("tcp accept error", slog.String("listener", l.id), slog.Any("error", err))
				continue
			}
		}

		go func() {
			if err := establish(conn); err != nil {
				l.log.Debug("connection ended", slog.String("listener", l.id), slog.Any("error", err))
			}
		}()
	}
}

// Close stops accepting new connections and then calls closeFn with the
// listener's id. It does not itself close existing client streams — the
// broker's Close tears down its clients before closing listeners.
func (l *TCP) Close(closeFn CloseFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	close(l.done)
	if l.listen != nil {
		_ = l.listen.Close()
	}
	closeFn(l.id)
}
