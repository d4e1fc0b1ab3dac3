// Package samiti is the inter-agent broadcast hub: named channels agents
// publish structured findings to and subscribe/listen on, backed by bounded
// ring-buffer history with TTL-based expiry.
package samiti

import (
	"errors"
	"strconv"
	"sync"

	"github.com/sriinnu/chitragupta/internal/clock"
	"github.com/sriinnu/chitragupta/internal/ids"
	"github.com/sriinnu/chitragupta/internal/ringbuf"
)

var (
	ErrHubDestroyed        = errors.New("samiti: hub destroyed")
	ErrChannelExists       = errors.New("samiti: channel already exists")
	ErrChannelCapReached   = errors.New("samiti: channel cap reached")
	ErrChannelNotFound     = errors.New("samiti: channel not found")
	ErrSubscriberCapReached = errors.New("samiti: subscriber cap reached")
	ErrMessageTooLarge     = errors.New("samiti: message exceeds size cap")
)

// DefaultChannels are seeded into every new Hub.
var DefaultChannels = []struct{ Name, Description string }{
	{"security", "security-relevant findings and concerns"},
	{"performance", "latency, cost, and resource observations"},
	{"correctness", "logic errors and behavioral regressions"},
	{"style", "naming, structure, and convention feedback"},
	{"alerts", "cross-cutting, attention-now notices"},
}

const (
	defaultMaxChannels    = 64
	maxSubscribersPerChannel = 50
	defaultChannelHistory = 200
)

// Listener receives every message broadcast to the channel it is attached
// to, for as long as the hub is not destroyed.
type Listener func(Message)

type channel struct {
	name        string
	description string
	subscribers map[string]struct{}
	history     *ringbuf.Ring[Message]
	listeners   []Listener
}

// Hub owns a fixed set of named channels and their subscriber lists.
type Hub struct {
	mu          sync.Mutex
	clock       clock.Clock
	maxChannels int
	channels    map[string]*channel
	destroyed   bool
}

// New creates a Hub seeded with the default channels.
func New(clk clock.Clock) *Hub {
	if clk == nil {
		clk = clock.Default
	}
	h := &Hub{
		clock:       clk,
		maxChannels: defaultMaxChannels,
		channels:    make(map[string]*channel),
	}
	for _, dc := range DefaultChannels {
		_ = h.CreateChannel(dc.Name, dc.Description, defaultChannelHistory)
	}
	return h
}

// CreateChannel registers a new named channel. Fails if the name is taken,
// the hub is destroyed, or the per-hub channel cap is reached.
func (h *Hub) CreateChannel(name, description string, maxHistory int) error {
	if maxHistory <= 0 {
		maxHistory = defaultChannelHistory
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.destroyed {
		return ErrHubDestroyed
	}
	if _, exists := h.channels[name]; exists {
		return ErrChannelExists
	}
	if len(h.channels) >= h.maxChannels {
		return ErrChannelCapReached
	}
	h.channels[name] = &channel{
		name:        name,
		description: description,
		subscribers: make(map[string]struct{}),
		history:     ringbuf.New[Message](maxHistory),
	}
	return nil
}

// Subscribe adds agentID to channel's membership. Idempotent; enforces the
// per-channel subscriber cap on first subscription.
func (h *Hub) Subscribe(channelName, agentID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.destroyed {
		return ErrHubDestroyed
	}
	ch, ok := h.channels[channelName]
	if !ok {
		return ErrChannelNotFound
	}
	if _, already := ch.subscribers[agentID]; already {
		return nil
	}
	if len(ch.subscribers) >= maxSubscribersPerChannel {
		return ErrSubscriberCapReached
	}
	ch.subscribers[agentID] = struct{}{}
	return nil
}

// Unsubscribe removes agentID from channel's membership. No-op if absent.
func (h *Hub) Unsubscribe(channelName, agentID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.destroyed {
		return ErrHubDestroyed
	}
	ch, ok := h.channels[channelName]
	if !ok {
		return ErrChannelNotFound
	}
	delete(ch.subscribers, agentID)
	return nil
}

// OnBroadcast registers l to be invoked, in isolation, on every future
// broadcast to channelName. Returns an unsubscribe function.
func (h *Hub) OnBroadcast(channelName string, l Listener) (func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.destroyed {
		return nil, ErrHubDestroyed
	}
	ch, ok := h.channels[channelName]
	if !ok {
		return nil, ErrChannelNotFound
	}
	idx := len(ch.listeners)
	ch.listeners = append(ch.listeners, l)
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if idx < len(ch.listeners) {
			ch.listeners[idx] = nil
		}
	}, nil
}

// Broadcast publishes d to channelName: assigns an id, timestamp, and
// default TTL, appends it to the channel's bounded history, then invokes
// every live listener. A panicking listener does not prevent the others
// from running.
func (h *Hub) Broadcast(channelName string, d Draft) (Message, error) {
	if len(d.Content) > MaxMessageBytes {
		return Message{}, ErrMessageTooLarge
	}

	h.mu.Lock()
	if h.destroyed {
		h.mu.Unlock()
		return Message{}, ErrHubDestroyed
	}
	ch, ok := h.channels[channelName]
	if !ok {
		h.mu.Unlock()
		return Message{}, ErrChannelNotFound
	}

	ttl := d.TTLMillis
	if ttl == 0 {
		ttl = DefaultTTLMillis
	}
	now := h.clock.NowMillis()
	msg := Message{
		Channel:   channelName,
		Sender:    d.Sender,
		Content:   d.Content,
		Severity:  d.Severity,
		Timestamp: now,
		TTLMillis: ttl,
	}
	msg.ID = ids.New("sam", channelName, d.Sender, d.Content, strconv.FormatInt(now, 10))
	ch.history.Push(msg)
	listeners := make([]Listener, len(ch.listeners))
	copy(listeners, ch.listeners)
	h.mu.Unlock()

	for _, l := range listeners {
		if l == nil {
			continue
		}
		invokeListener(l, msg)
	}
	return msg, nil
}

// Listen returns channelName's messages filtered by opts, most-recent-first.
// Expired messages are pruned lazily before filtering.
func (h *Hub) Listen(channelName string, opts ListenOptions) ([]Message, error) {
	h.mu.Lock()
	if h.destroyed {
		h.mu.Unlock()
		return nil, ErrHubDestroyed
	}
	ch, ok := h.channels[channelName]
	if !ok {
		h.mu.Unlock()
		return nil, ErrChannelNotFound
	}
	now := h.clock.NowMillis()
	ch.history.RemoveFunc(func(m Message) bool { return m.expired(now) })
	all := ch.history.ToArray(0)
	h.mu.Unlock()

	out := make([]Message, 0, len(all))
	for _, m := range all {
		if opts.Severity != "" && m.Severity != opts.Severity {
			continue
		}
		if opts.Since > 0 && m.Timestamp < opts.Since {
			continue
		}
		out = append(out, m)
		if opts.Limit > 0 && len(out) >= opts.Limit {
			break
		}
	}
	return out, nil
}

// GetHistory returns channelName's messages unfiltered, oldest-first.
func (h *Hub) GetHistory(channelName string, limit int) ([]Message, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.destroyed {
		return nil, ErrHubDestroyed
	}
	ch, ok := h.channels[channelName]
	if !ok {
		return nil, ErrChannelNotFound
	}
	all := ch.history.ToArrayOldestFirst()
	if limit > 0 && limit < len(all) {
		all = all[len(all)-limit:]
	}
	return all, nil
}

// PruneExpired scans every channel and removes expired messages, returning
// the total count removed.
func (h *Hub) PruneExpired() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.destroyed {
		return 0
	}
	now := h.clock.NowMillis()
	removed := 0
	for _, ch := range h.channels {
		removed += ch.history.RemoveFunc(func(m Message) bool { return m.expired(now) })
	}
	return removed
}

// Destroy makes all further hub operations fail.
func (h *Hub) Destroy() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.destroyed = true
}

func invokeListener(l Listener, m Message) {
	defer func() { _ = recover() }()
	l(m)
}
