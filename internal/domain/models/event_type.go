package models

import "sync"

// EventType categorizes a news event. The set is closed at compile time but
// extensible at runtime through RegisterEventType, so unknown feed categories
// can be admitted without a rebuild.
type EventType string

const (
	EventEarnings EventType = "earnings"
	EventDividend EventType = "dividend"
	EventGuidance EventType = "guidance"
	EventAnalyst  EventType = "analyst_rating"
	EventMergers  EventType = "merger_acquisition"
	EventProduct  EventType = "product_launch"
	EventOther    EventType = "other"
)

var (
	eventTypeMu  sync.RWMutex
	eventTypeSet = map[EventType]struct{}{
		EventEarnings: {},
		EventDividend: {},
		EventGuidance: {},
		EventAnalyst:  {},
		EventMergers:  {},
		EventProduct:  {},
		EventOther:    {},
	}
)

// RegisterEventType admits a new category at runtime.
func RegisterEventType(t EventType) {
	eventTypeMu.Lock()
	eventTypeSet[t] = struct{}{}
	eventTypeMu.Unlock()
}

// KnownEventType reports whether t has been registered.
func KnownEventType(t EventType) bool {
	eventTypeMu.RLock()
	_, ok := eventTypeSet[t]
	eventTypeMu.RUnlock()
	return ok
}
