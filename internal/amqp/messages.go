package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType names what happened to a ledger entry.
type EventType string

const (
	EntryCreated EventType = "entry.created"
	EntryUpdated EventType = "entry.updated"
	EntryDeleted EventType = "entry.deleted"
)

func (t EventType) valid() bool {
	switch t {
	case EntryCreated, EntryUpdated, EntryDeleted:
		return true
	}
	return false
}

// LedgerEvent is a lightweight notification about an entry change.
// It carries ids only; consumers fetch the current entry from storage.
type LedgerEvent struct {
	Type       EventType `json:"type"`
	EntryID    string    `json:"entry_id"`
	CategoryID string    `json:"menu_id"`
	TransferID string    `json:"transfer_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewLedgerEvent stamps an event with the current time
func NewLedgerEvent(t EventType, entryID, categoryID string) LedgerEvent {
	return LedgerEvent{
		Type:       t,
		EntryID:    entryID,
		CategoryID: categoryID,
		Timestamp:  time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes and checks an event body
func LedgerEventFromJSON(data []byte) (LedgerEvent, error) {
	var ev LedgerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return LedgerEvent{}, err
	}
	if !ev.Type.valid() {
		return LedgerEvent{}, fmt.Errorf("unknown event type %q", ev.Type)
	}
	if ev.EntryID == "" {
		return LedgerEvent{}, fmt.Errorf("event %s without entry id", ev.Type)
	}
	return ev, nil
}
