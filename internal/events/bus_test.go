package events

import (
	"testing"
	"time"
)

func TestSubscribeReceivesPublishedChange(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe()
	defer cancel()

	published := Change{
		Table:      TableDirectMessages,
		Action:     ActionInsert,
		RowID:      "m-1",
		Recipients: []string{"u-1", "u-2"},
	}
	bus.Publish(published)

	select {
	case got := <-ch:
		if got.Table != TableDirectMessages || got.RowID != "m-1" {
			t.Fatalf("unexpected change: %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("change never arrived")
	}
}

func TestSubscribeFiltersByTable(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe(TableNotifications)
	defer cancel()

	bus.Publish(Change{Table: TableDirectMessages, Action: ActionInsert, RowID: "m-1"})
	bus.Publish(Change{Table: TableNotifications, Action: ActionInsert, RowID: "n-1"})

	select {
	case got := <-ch:
		if got.Table != TableNotifications {
			t.Fatalf("filter let through %s", got.Table)
		}
	case <-time.After(time.Second):
		t.Fatal("notification change never arrived")
	}

	select {
	case got := <-ch:
		t.Fatalf("unexpected second change: %+v", got)
	default:
	}
}

func TestPublishDoesNotBlockOnSlowSubscriber(t *testing.T) {
	bus := NewBus()
	_, cancel := bus.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			bus.Publish(Change{Table: TableMessages, Action: ActionInsert, RowID: "m"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on an unread subscriber")
	}
}

func TestCancelClosesChannel(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe()
	cancel()

	if _, open := <-ch; open {
		t.Fatal("channel still open after cancel")
	}

	// publishing after cancel must not panic on the closed channel
	bus.Publish(Change{Table: TableMessages, Action: ActionInsert, RowID: "m-2"})
}

func TestConcerns(t *testing.T) {
	addressed := Change{Recipients: []string{"u-1", "u-2"}}
	if !addressed.Concerns("u-1") {
		t.Fatal("listed recipient should be concerned")
	}
	if addressed.Concerns("u-3") {
		t.Fatal("unlisted user should not be concerned")
	}

	broadcast := Change{}
	if !broadcast.Concerns("anyone") {
		t.Fatal("change without recipients concerns everyone")
	}
}
