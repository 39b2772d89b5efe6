package crm

import "time"

// Company is the mutable aggregate moving through the pipeline. Stage is the
// authoritative pipeline position; it only ever changes through an accepted
// transition. Events carries the company's chronological log when the store
// attached it, and stays empty otherwise (list views load companies bare).
type Company struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Stage     Stage     `json:"stage"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Events []Event `json:"events,omitempty"`
}

// HasEvent reports whether any event of the given type exists in the attached
// log. Linear scan, no caching: logs are small and every decision recomputes.
func (c *Company) HasEvent(t EventType) bool {
	for _, evt := range c.Events {
		if evt.Type == t {
			return true
		}
	}
	return false
}

// HasRecentEvent reports whether an event of the given type exists no older
// than the window. The window is measured from now (the evaluation clock, not
// event time) and is inclusive at the boundary: an event created exactly
// `days` days ago still counts. A true result can therefore flip to false
// purely through elapsed time.
func (c *Company) HasRecentEvent(t EventType, days int, now time.Time) bool {
	threshold := now.AddDate(0, 0, -days)
	for _, evt := range c.Events {
		if evt.Type == t && !evt.CreatedAt.Before(threshold) {
			return true
		}
	}
	return false
}

// LastEventData returns the payload of the last event of the given type in log
// order, or false if none exists. Log order decides "last": events sharing a
// timestamp resolve by insertion order.
func (c *Company) LastEventData(t EventType) (map[string]any, bool) {
	var data map[string]any
	found := false
	for _, evt := range c.Events {
		if evt.Type == t {
			data = evt.Data
			found = true
		}
	}
	return data, found
}
