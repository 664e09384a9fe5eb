package listeners

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestListenersAddGet(t *testing.T) {
	ls := New()
	l := NewMockListener("m1", "localhost:0")
	ls.Add(l)

	require.Equal(t, 1, ls.Len())
	got, ok := ls.Get("m1")
	require.True(t, ok)
	require.Equal(t, l, got)
}

func TestServeAllAndCloseAll(t *testing.T) {
	ls := New()
	l := NewMockListener("m1", "localhost:0")
	ls.Add(l)

	require.NoError(t, ls.ServeAll(discardLogger(), MockEstablisher))

	require.Eventually(t, func() bool {
		l.mu.Lock()
		defer l.mu.Unlock()
		return l.Serving
	}, time.Second, 10*time.Millisecond)

	closed := make(chan struct{})
	go func() {
		ls.CloseAll(MockCloser)
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("CloseAll did not return")
	}
	require.True(t, l.Closed)
}

func TestServeAllPropagatesInitError(t *testing.T) {
	ls := New()
	l := NewMockListener("m1", "localhost:0")
	l.ErrOnInit = true
	ls.Add(l)

	err := ls.ServeAll(discardLogger(), MockEstablisher)
	require.Error(t, err)
}
