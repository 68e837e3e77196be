package notify

import (
	"sync"
	"time"
)

// DefaultTTL is how long a notification stays visible unless dismissed earlier.
const DefaultTTL = 5000 * time.Millisecond

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
)

func (k Kind) Valid() bool {
	switch k {
	case KindSuccess, KindError, KindInfo, KindWarning:
		return true
	}
	return false
}

type Notification struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	Kind      Kind      `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
}

// Timer is the handle returned by the scheduler; time.Timer satisfies it.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run once d has elapsed.
type AfterFunc func(d time.Duration, f func()) Timer

type Option func(*Channel)

func withTTL(ttl time.Duration) Option {
	return func(c *Channel) { c.ttl = ttl }
}

// WithClock replaces the wall clock and the scheduler, mostly for tests.
func WithClock(now func() time.Time, after AfterFunc) Option {
	return func(c *Channel) {
		c.now = now
		c.after = after
	}
}

// Channel is an insertion-ordered collection of self-expiring notifications.
// Duplicated messages produce duplicated entries.
type Channel struct {
	mu     sync.Mutex
	seq    int64
	items  []Notification
	timers map[int64]Timer

	ttl   time.Duration
	now   func() time.Time
	after AfterFunc
}

func NewChannel(opts ...Option) *Channel {
	c := &Channel{
		timers: make(map[int64]Timer),
		ttl:    DefaultTTL,
		now:    time.Now,
		after: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Notify appends a notification and schedules its removal.
// Unknown kinds fall back to KindInfo.
func (c *Channel) Notify(message string, kind Kind) Notification {
	if !kind.Valid() {
		kind = KindInfo
	}

	c.mu.Lock()
	c.seq++
	n := Notification{
		ID:        c.seq,
		Message:   message,
		Kind:      kind,
		CreatedAt: c.now(),
	}
	c.items = append(c.items, n)
	c.mu.Unlock()

	// scheduled outside the lock: a synchronous scheduler may call remove right away
	tmr := c.after(c.ttl, func() { c.remove(n.ID) })

	c.mu.Lock()
	if c.has(n.ID) {
		c.timers[n.ID] = tmr
	}
	c.mu.Unlock()
	return n
}

func (c *Channel) Success(message string) Notification { return c.Notify(message, KindSuccess) }
func (c *Channel) Error(message string) Notification   { return c.Notify(message, KindError) }
func (c *Channel) Info(message string) Notification    { return c.Notify(message, KindInfo) }
func (c *Channel) Warning(message string) Notification { return c.Notify(message, KindWarning) }

// Dismiss removes the notification right away. Unknown ids are ignored.
func (c *Channel) Dismiss(id int64) {
	c.mu.Lock()
	tmr, ok := c.timers[id]
	c.mu.Unlock()
	if ok {
		tmr.Stop()
	}
	c.remove(id)
}

// List returns the live notifications, oldest first.
func (c *Channel) List() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make([]Notification, len(c.items))
	copy(items, c.items)
	return items
}

func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Close stops the pending removals and drops every notification.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, tmr := range c.timers {
		tmr.Stop()
		delete(c.timers, id)
	}
	c.items = nil
}

func (c *Channel) remove(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.timers, id)
	for i, n := range c.items {
		if n.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

func (c *Channel) has(id int64) bool {
	for _, n := range c.items {
		if n.ID == id {
			return true
		}
	}
	return false
}
