package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxNotifications bounds the notification list.
const DefaultMaxNotifications = 100

// Notification is one entry of the notification panel.
type Notification struct {
	ID      string    `json:"id"`
	AppID   string    `json:"appId"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	Time    time.Time `json:"timestamp"`
	Read    bool      `json:"read"`
}

// Notifier sends fire-and-forget notifications.
type Notifier interface {
	Notify(appID, title, message string) Notification
}

// Center keeps notifications newest first and publishes each one on the bus.
type Center struct {
	mu    sync.Mutex
	items []Notification
	max   int
	bus   *Bus
	now   func() time.Time
}

var _ Notifier = (*Center)(nil)

// NewCenter creates a notification center publishing to bus, which may be nil.
func NewCenter(bus *Bus) *Center {
	return &Center{max: DefaultMaxNotifications, bus: bus, now: time.Now}
}

// Notify records a notification and publishes it.
func (c *Center) Notify(appID, title, message string) Notification {
	n := Notification{
		ID:      uuid.NewString(),
		AppID:   appID,
		Title:   title,
		Message: message,
		Time:    c.now(),
	}

	c.mu.Lock()
	c.items = append([]Notification{n}, c.items...)
	if len(c.items) > c.max {
		c.items = c.items[:c.max]
	}
	c.mu.Unlock()

	if c.bus != nil {
		c.bus.Publish(TopicNotification, n)
	}
	return n
}

// List returns a copy of the notifications, newest first.
func (c *Center) List() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.items))
	copy(out, c.items)
	return out
}

// Unread returns the number of unread notifications.
func (c *Center) Unread() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, it := range c.items {
		if !it.Read {
			n++
		}
	}
	return n
}

// MarkAllRead marks every notification read.
func (c *Center) MarkAllRead() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		c.items[i].Read = true
	}
}

// Clear removes all notifications.
func (c *Center) Clear() {
	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()
}
