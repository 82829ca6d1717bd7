package game

import (
	"fmt"
	"strings"
)

// Event categories.
const (
	CatClaim    = "claim"
	CatErase    = "erase"
	CatFortify  = "fortify"
	CatAnnotate = "annotate"
	CatUndo     = "undo"
	CatTurn     = "turn"
	CatRoll     = "roll"
	CatRoster   = "roster"
	CatMode     = "mode"
)

// Event is one recorded controller action.
type Event struct {
	Turn     int
	Player   string // acting player, "--" for global events
	Category string
	Key      string // event name within the category
	Value    string // human-readable detail
	NumVal   int    // optional number (pixels painted, tiles, roll)
}

// String formats the event as a fixed-width log line.
//
//	[T=003] Red      claim     capture         (12,40) from Blue
func (e Event) String() string {
	return fmt.Sprintf("[T=%03d] %-8s %-9s %-15s %s",
		e.Turn, e.Player, e.Category, e.Key, e.Value)
}

// EventLog is the append-only record of a session's actions.
type EventLog struct {
	entries []Event
}

// NewEventLog creates an empty log.
func NewEventLog() *EventLog {
	return &EventLog{}
}

// Add records a new event.
func (el *EventLog) Add(turn int, player, category, key, value string, num int) {
	if player == "" {
		player = "--"
	}
	el.entries = append(el.entries, Event{
		Turn:     turn,
		Player:   player,
		Category: category,
		Key:      key,
		Value:    value,
		NumVal:   num,
	})
}

// Entries returns all recorded events.
func (el *EventLog) Entries() []Event {
	return el.entries
}

// Len returns the number of events.
func (el *EventLog) Len() int { return len(el.entries) }

// Filter returns events matching category and/or key ("" matches any).
func (el *EventLog) Filter(category, key string) []Event {
	var out []Event
	for _, e := range el.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		out = append(out, e)
	}
	return out
}

// FilterPlayer returns events for one player.
func (el *EventLog) FilterPlayer(name string) []Event {
	var out []Event
	for _, e := range el.entries {
		if e.Player == name {
			out = append(out, e)
		}
	}
	return out
}

// Count returns how many events match category and key.
func (el *EventLog) Count(category, key string) int {
	return len(el.Filter(category, key))
}

// LastOf returns the most recent event matching category+key.
func (el *EventLog) LastOf(category, key string) (Event, bool) {
	entries := el.Filter(category, key)
	if len(entries) == 0 {
		return Event{}, false
	}
	return entries[len(entries)-1], true
}

// Recent returns up to n of the newest events, oldest first.
func (el *EventLog) Recent(n int) []Event {
	if n <= 0 || n >= len(el.entries) {
		return el.entries
	}
	return el.entries[len(el.entries)-n:]
}

// HasEntry reports whether an event matches category, key and value substring.
func (el *EventLog) HasEntry(category, key, valueSubstr string) bool {
	for _, e := range el.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		if valueSubstr != "" && !strings.Contains(e.Value, valueSubstr) {
			continue
		}
		return true
	}
	return false
}

// Format returns the whole log, one event per line.
func (el *EventLog) Format() string {
	var sb strings.Builder
	for _, e := range el.entries {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
