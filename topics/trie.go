// Package topics implements the broker's subscription index: a trie over
// "/"-delimited topic levels supporting the "+" (single level) and "#"
// (remaining levels) wildcards in filters.
package topics

import (
	"strings"
	"sync"
)

// Subscriber is a non-owning reference to a connected client, sufficient
// for the matcher to enqueue outgoing messages without touching any other
// Client state. The broker resolves the ID back through its client table
// under its own lock when it needs more than Enqueue.
type Subscriber interface {
	// ID returns the per-connection id this subscriber is registered
	// under (the broker's Client returns its trace id), used to
	// de-duplicate and to remove on unsubscribe/teardown.
	ID() string

	// Enqueue appends a message to the subscriber's outgoing queue. It
	// must not block the caller for long, and it must not mutate any
	// Client state beyond appending to that queue.
	Enqueue(topic string, payload []byte, qos byte, retain bool)
}

// subscriberEntry pairs a Subscriber with the QoS it asked for, so the
// matcher can report (in principle) a granted QoS without the trie
// needing to know anything else about the client.
type subscriberEntry struct {
	sub Subscriber
	qos byte
}

// node is a single level of the trie. children maps a literal level
// string (or "+"/"#") to the child node for that level; subscribers holds
// every client subscribed with a filter that terminates exactly at this
// node. Empty nodes may be left in place (§4's I4 permits but does not
// require pruning) — this implementation does prune, for the plain
// benefit of keeping a long-running broker's trie from growing without
// bound as filters churn; it is not required for correctness.
type node struct {
	children    map[string]*node
	subscribers []subscriberEntry
	parent      *node
	key         string
}

func newNode(key string, parent *node) *node {
	return &node{
		children: make(map[string]*node),
		parent:   parent,
		key:      key,
	}
}

// Tree is the root of the subscription index, plus the trivial
// retained-message store described as "still a hash map of topic →
// message" — a plain map guarded by the tree's own lock is enough, since
// retained-message persistence and eviction policy are out of scope.
type Tree struct {
	mu       sync.RWMutex
	root     *node
	retained map[string]RetainedMessage
}

// RetainedMessage is the trivial retained-message record: the payload and
// QoS of the last PUBLISH with RETAIN set and a non-empty payload sent to
// a topic.
type RetainedMessage struct {
	Topic   string
	Payload []byte
	QoS     byte
}

// New returns an empty subscription tree.
func New() *Tree {
	return &Tree{
		root:     newNode("", nil),
		retained: make(map[string]RetainedMessage),
	}
}

func splitTopic(topic string) []string {
	return strings.Split(topic, "/")
}

// Subscribe registers sub under filter, returning true if this is a new
// registration for that (filter, client id) pair and false if it replaces
// an existing one (the filter already had a subscription from this
// client — its options are updated in place rather than duplicated).
func (t *Tree) Subscribe(filter string, sub Subscriber, qos byte) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := t.walkCreate(filter)
	for i, e := range n.subscribers {
		if e.sub.ID() == sub.ID() {
			n.subscribers[i].qos = qos
			return false
		}
	}
	n.subscribers = append(n.subscribers, subscriberEntry{sub: sub, qos: qos})
	return true
}

func (t *Tree) walkCreate(filter string) *node {
	n := t.root
	for _, level := range splitTopic(filter) {
		child, ok := n.children[level]
		if !ok {
			child = newNode(level, n)
			n.children[level] = child
		}
		n = child
	}
	return n
}

// Unsubscribe removes client's registration under filter, returning true
// if a registration was found and removed. Per I4, this is O(subscribers)
// at the terminal node; empty, childless nodes are then trimmed back up
// toward the root.
func (t *Tree) Unsubscribe(filter string, clientID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := t.walk(filter)
	if n == nil {
		return false
	}

	removed := false
	for i, e := range n.subscribers {
		if e.sub.ID() == clientID {
			n.subscribers = append(n.subscribers[:i], n.subscribers[i+1:]...)
			removed = true
			break
		}
	}

	if removed {
		t.trim(n)
	}
	return removed
}

func (t *Tree) walk(filter string) *node {
	n := t.root
	for _, level := range splitTopic(filter) {
		child, ok := n.children[level]
		if !ok {
			return nil
		}
		n = child
	}
	return n
}

// trim removes n and any now-empty ancestors from their parent's children
// map, stopping at the first node that still has subscribers or children.
func (t *Tree) trim(n *node) {
	for n != nil && n.parent != nil && len(n.subscribers) == 0 && len(n.children) == 0 {
		delete(n.parent.children, n.key)
		n = n.parent
	}
}

// UnsubscribeAll removes every registration for clientID across the whole
// tree, used by client teardown (§4.5a) so a disconnecting client cannot
// leave dangling references in the index.
func (t *Tree) UnsubscribeAll(clientID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.unsubscribeAll(t.root, clientID)
}

func (t *Tree) unsubscribeAll(n *node, clientID string) {
	for i := 0; i < len(n.subscribers); i++ {
		if n.subscribers[i].sub.ID() == clientID {
			n.subscribers = append(n.subscribers[:i], n.subscribers[i+1:]...)
			i--
		}
	}
	for _, child := range n.children {
		t.unsubscribeAll(child, clientID)
	}
	t.trim(n)
}

// Subscribers returns every subscriber whose filter matches topic,
// applying "+" (exactly one level) and "#" (the rest of the topic,
// including zero remaining levels) wildcard semantics. Wildcards are
// valid only in filters, never in topic names passed here.
func (t *Tree) Subscribers(topic string) []Subscriber {
	t.mu.RLock()
	defer t.mu.RUnlock()

	levels := splitTopic(topic)
	var out []subscriberEntry
	t.root.scan(levels, 0, &out)

	result := make([]Subscriber, 0, len(out))
	for _, e := range out {
		result = append(result, e.sub)
	}
	return result
}

func (n *node) scan(levels []string, d int, out *[]subscriberEntry) {
	if d >= len(levels) {
		return
	}

	last := d == len(levels)-1
	for _, key := range [3]string{levels[d], "+", "#"} {
		child, ok := n.children[key]
		if !ok {
			continue
		}

		if key == "#" {
			// "#" must be the last level in a filter and matches zero
			// or more remaining levels, including the current one.
			*out = append(*out, child.subscribers...)
			continue
		}

		if last {
			*out = append(*out, child.subscribers...)
			// A filter like "a/#" must also match the literal topic
			// "a" — its "#" child matches the (now exhausted) remainder.
			if hashChild, ok := child.children["#"]; ok {
				*out = append(*out, hashChild.subscribers...)
			}
			continue
		}

		child.scan(levels, d+1, out)
	}
}

// RetainMessage stores or clears the retained message for topic,
// mirroring the PUBLISH retain semantics: a non-empty payload sets the
// retained message; an empty payload clears it. Returns 1 if a message
// was stored, -1 if a previously retained message was cleared, 0
// otherwise.
func (t *Tree) RetainMessage(topic string, payload []byte, qos byte) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(payload) > 0 {
		t.retained[topic] = RetainedMessage{Topic: topic, Payload: payload, QoS: qos}
		return 1
	}

	if _, ok := t.retained[topic]; ok {
		delete(t.retained, topic)
		return -1
	}
	return 0
}

// Retained returns the retained message for the exact topic, if any.
// Wildcard retained replay is not implemented — only an exact-match
// lookup against a non-wildcard filter is supported, keeping the
// retained store "trivial" as specified.
func (t *Tree) Retained(topic string) (RetainedMessage, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	m, ok := t.retained[topic]
	return m, ok
}

// IsWildcardFilter reports whether filter contains "+" or "#", used to
// decide whether a new subscription is eligible for retained-message
// replay.
func IsWildcardFilter(filter string) bool {
	for _, level := range splitTopic(filter) {
		if level == "+" || level == "#" {
			return true
		}
	}
	return false
}
