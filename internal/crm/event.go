package crm

import "time"

// Event is an immutable fact recorded against a company. Events are append-only:
// once written they are never mutated or deleted, and together they form the
// company's chronological log that every rule decision is derived from.
type Event struct {
	// ID is assigned by the store and breaks ordering ties between events
	// that share a creation timestamp.
	ID int64 `json:"id"`

	CompanyID int64 `json:"company_id"`

	Type EventType `json:"event_type"`

	// Data is the caller-supplied payload: free-form string-keyed fields,
	// empty when the caller supplied none.
	Data map[string]any `json:"event_data"`

	CreatedAt time.Time `json:"created_at"`
}

// StageTransition is the audit record of one accepted advance. Append-only;
// ToStage is always the immediate successor of FromStage.
type StageTransition struct {
	CompanyID int64     `json:"company_id"`
	FromStage Stage     `json:"from_stage"`
	ToStage   Stage     `json:"to_stage"`
	CreatedAt time.Time `json:"created_at"`
}
