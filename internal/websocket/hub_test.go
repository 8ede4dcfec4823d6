package chatws

import (
	"fmt"
	"sync"
	"testing"

	"github.com/Kalwarein/edu-harmony-link/internal/events"
)

func TestAlreadySeenDedupesRepublishedChange(t *testing.T) {
	client := NewClient(nil, nil, "u-1")

	change := events.Change{
		Table:  events.TableDirectMessages,
		Action: events.ActionInsert,
		RowID:  "m-1",
	}

	if client.alreadySeen(change) {
		t.Fatal("first delivery flagged as seen")
	}
	if !client.alreadySeen(change) {
		t.Fatal("second delivery not deduped")
	}
}

func TestAlreadySeenDistinguishesActions(t *testing.T) {
	client := NewClient(nil, nil, "u-1")

	insert := events.Change{Table: events.TableNotifications, Action: events.ActionInsert, RowID: "n-1"}
	update := events.Change{Table: events.TableNotifications, Action: events.ActionUpdate, RowID: "n-1"}

	if client.alreadySeen(insert) {
		t.Fatal("insert flagged as seen")
	}
	if client.alreadySeen(update) {
		t.Fatal("update deduped against insert for the same row")
	}
}

func TestAlreadySeenRingEvictsOldest(t *testing.T) {
	client := NewClient(nil, nil, "u-1")

	first := events.Change{Table: events.TableMessages, Action: events.ActionInsert, RowID: "row-0"}
	client.alreadySeen(first)

	for i := 1; i <= seenRingSize; i++ {
		client.alreadySeen(events.Change{
			Table:  events.TableMessages,
			Action: events.ActionInsert,
			RowID:  fmt.Sprintf("row-%d", i),
		})
	}

	// the oldest entry fell out of the ring, so it delivers again
	if client.alreadySeen(first) {
		t.Fatal("evicted entry still deduped")
	}
}

func TestErrorWriteAfterEvictionIsDropped(t *testing.T) {
	hub := NewHub(nil)
	client := NewClient(hub, nil, "u-1")
	hub.clients["u-1"] = map[*Client]struct{}{client: {}}

	// back the connection up so the next fan-out evicts it
	for i := 0; i < cap(client.send); i++ {
		if !client.trySend([]byte("backlog")) {
			t.Fatal("buffer filled early")
		}
	}

	change := events.Change{Table: events.TableMessages, Action: events.ActionInsert, RowID: "m-1"}
	hub.sendToUser("u-1", change, []byte("payload"))

	if _, ok := hub.clients["u-1"]; ok {
		t.Fatal("backed-up connection not evicted")
	}

	// the read loop may still be reporting failures on this client after
	// the hub closed its channel; the frame must be dropped, not panic
	writeError(client, "failed to send message")

	if client.trySend([]byte("late")) {
		t.Fatal("send accepted after close")
	}
}

func TestCloseSendIsIdempotent(t *testing.T) {
	client := NewClient(nil, nil, "u-1")

	client.closeSend()
	client.closeSend()

	if client.trySend([]byte("x")) {
		t.Fatal("send accepted after close")
	}
}

func TestConcurrentErrorWritesDuringClose(t *testing.T) {
	client := NewClient(nil, nil, "u-1")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				writeError(client, "failed to send message")
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		client.closeSend()
	}()
	wg.Wait()
}

func TestAlreadySeenIgnoresChangesWithoutRowID(t *testing.T) {
	client := NewClient(nil, nil, "u-1")

	change := events.Change{Table: events.TableMessages, Action: events.ActionUpdate}
	if client.alreadySeen(change) || client.alreadySeen(change) {
		t.Fatal("rowless change must never dedupe")
	}
}
