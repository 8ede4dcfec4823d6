// Package events is an in-process change feed. Services publish a Change
// after their transaction commits; subscribers (the websocket hub, tests)
// receive it on a buffered channel. Delivery is at-least-once with per-bus
// FIFO ordering, so consumers must dedupe by row id.
package events

import (
	"log"
	"sync"
)

type Action string

const (
	ActionInsert Action = "INSERT"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

type Table string

const (
	TableConversations  Table = "conversations"
	TableDirectMessages Table = "direct_messages"
	TableMessages       Table = "messages"
	TableNotifications  Table = "notifications"
)

// Change describes one committed row mutation. Recipients lists the user
// ids the change concerns; empty means it concerns everyone.
type Change struct {
	Table      Table
	Action     Action
	RowID      string
	Recipients []string
	Payload    any
}

type subscriber struct {
	ch     chan Change
	tables map[Table]struct{}
}

type Bus struct {
	mu     sync.Mutex
	subs   map[int]*subscriber
	nextID int
	buffer int
}

func NewBus() *Bus {
	return &Bus{
		subs:   make(map[int]*subscriber),
		buffer: 64,
	}
}

// Subscribe registers a consumer for the given tables (all tables when none
// are named). The returned cancel func must be called to release the
// subscription; the channel is closed by cancel.
func (b *Bus) Subscribe(tables ...Table) (<-chan Change, func()) {
	sub := &subscriber{ch: make(chan Change, b.buffer)}
	if len(tables) > 0 {
		sub.tables = make(map[Table]struct{}, len(tables))
		for _, table := range tables {
			sub.tables[table] = struct{}{}
		}
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = sub
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if current, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(current.ch)
		}
		b.mu.Unlock()
	}

	return sub.ch, cancel
}

// Publish fans the change out to matching subscribers without blocking the
// publisher. A subscriber that cannot keep up loses the event; that is the
// same contract a dropped realtime connection has, and consumers already
// refetch on reconnect.
func (b *Bus) Publish(change Change) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs {
		if sub.tables != nil {
			if _, ok := sub.tables[change.Table]; !ok {
				continue
			}
		}
		select {
		case sub.ch <- change:
		default:
			log.Printf("events: dropping %s %s for slow subscriber", change.Action, change.Table)
		}
	}
}

// Concerns reports whether the change is addressed to userID. Changes with
// no recipients concern everyone.
func (c Change) Concerns(userID string) bool {
	if len(c.Recipients) == 0 {
		return true
	}
	for _, recipient := range c.Recipients {
		if recipient == userID {
			return true
		}
	}
	return false
}
