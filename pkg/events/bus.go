package events

import (
	"sync"
	"time"
)

// Topic names a stream of events.
type Topic string

const (
	TopicFS           Topic = "fs.changed"
	TopicWindows      Topic = "windows.changed"
	TopicNotification Topic = "notification"
)

// DefaultBufferSize is the channel capacity of each subscription.
const DefaultBufferSize = 64

// Event is one published message.
type Event struct {
	Topic   Topic     `json:"topic"`
	Payload any       `json:"payload,omitempty"`
	Time    time.Time `json:"time"`
}

type subscription struct {
	ch     chan Event
	topics map[Topic]bool
}

func (s *subscription) wants(t Topic) bool {
	return len(s.topics) == 0 || s.topics[t]
}

// Bus manages topic-based subscriptions.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]*subscription
	nextID int
	closed bool
	now    func() time.Time
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]*subscription), now: time.Now}
}

// Subscribe returns a channel receiving events for topics, or for every topic
// when none are given. The returned function cancels the subscription and
// closes the channel.
func (b *Bus) Subscribe(topics ...Topic) (<-chan Event, func()) {
	sub := &subscription{
		ch:     make(chan Event, DefaultBufferSize),
		topics: make(map[Topic]bool, len(topics)),
	}
	for _, t := range topics {
		sub.topics[t] = true
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(sub.ch)
		return sub.ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = sub
	b.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if s, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(s.ch)
			}
		})
	}
}

// Publish sends payload to every subscriber of topic and returns how many
// received it.
func (b *Bus) Publish(topic Topic, payload any) int {
	ev := Event{Topic: topic, Payload: payload, Time: b.now()}

	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := 0
	for _, s := range b.subs {
		if !s.wants(topic) {
			continue
		}
		select {
		case s.ch <- ev:
			delivered++
		default:
		}
	}
	return delivered
}

// Subscribers returns the number of active subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close closes every subscription. Later subscriptions get a closed channel.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, s := range b.subs {
		close(s.ch)
		delete(b.subs, id)
	}
}
