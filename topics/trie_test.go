package topics

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeSub struct {
	id  string
	got []string
}

func (f *fakeSub) ID() string { return f.id }
func (f *fakeSub) Enqueue(topic string, payload []byte, qos byte, retain bool) {
	f.got = append(f.got, topic)
}

func idsOf(subs []Subscriber) []string {
	out := make([]string, len(subs))
	for i, s := range subs {
		out[i] = s.ID()
	}
	return out
}

func TestSubscribeLiteralMatch(t *testing.T) {
	tr := New()
	c := &fakeSub{id: "c1"}
	tr.Subscribe("a/b", c, 0)

	require.Contains(t, idsOf(tr.Subscribers("a/b")), "c1")
	require.NotContains(t, idsOf(tr.Subscribers("a/c")), "c1")
}

func TestSubscribeSingleLevelWildcard(t *testing.T) {
	tr := New()
	c := &fakeSub{id: "c1"}
	tr.Subscribe("a/+/c", c, 0)

	require.Contains(t, idsOf(tr.Subscribers("a/b/c")), "c1")
	require.NotContains(t, idsOf(tr.Subscribers("a/b/d")), "c1")
	require.NotContains(t, idsOf(tr.Subscribers("a/b/c/d")), "c1")
}

func TestSubscribeMultiLevelWildcard(t *testing.T) {
	tr := New()
	c := &fakeSub{id: "c1"}
	tr.Subscribe("a/#", c, 0)

	require.Contains(t, idsOf(tr.Subscribers("a")), "c1")
	require.Contains(t, idsOf(tr.Subscribers("a/b")), "c1")
	require.Contains(t, idsOf(tr.Subscribers("a/b/c")), "c1")
	require.NotContains(t, idsOf(tr.Subscribers("x/b")), "c1")
}

func TestUnsubscribeRemovesClient(t *testing.T) {
	tr := New()
	c := &fakeSub{id: "c1"}
	tr.Subscribe("a/b", c, 0)

	require.True(t, tr.Unsubscribe("a/b", "c1"))
	require.NotContains(t, idsOf(tr.Subscribers("a/b")), "c1")

	require.False(t, tr.Unsubscribe("a/b", "c1"))
}

func TestUnsubscribeAllRemovesEveryFilter(t *testing.T) {
	tr := New()
	c := &fakeSub{id: "c1"}
	tr.Subscribe("a/b", c, 0)
	tr.Subscribe("x/y", c, 1)

	tr.UnsubscribeAll("c1")

	require.Empty(t, tr.Subscribers("a/b"))
	require.Empty(t, tr.Subscribers("x/y"))
}

func TestSubscribeDedupesByClientID(t *testing.T) {
	tr := New()
	c := &fakeSub{id: "c1"}
	require.True(t, tr.Subscribe("a/b", c, 0))
	require.False(t, tr.Subscribe("a/b", c, 1))

	require.Len(t, tr.Subscribers("a/b"), 1)
}

func TestRetainMessageStoreAndClear(t *testing.T) {
	tr := New()

	require.Equal(t, 1, tr.RetainMessage("a/b", []byte("hello"), 0))
	msg, ok := tr.Retained("a/b")
	require.True(t, ok)
	require.Equal(t, []byte("hello"), msg.Payload)

	require.Equal(t, -1, tr.RetainMessage("a/b", nil, 0))
	_, ok = tr.Retained("a/b")
	require.False(t, ok)

	require.Equal(t, 0, tr.RetainMessage("a/b", nil, 0))
}

func TestIsWildcardFilter(t *testing.T) {
	require.False(t, IsWildcardFilter("a/b/c"))
	require.True(t, IsWildcardFilter("a/+/c"))
	require.True(t, IsWildcardFilter("a/#"))
}
