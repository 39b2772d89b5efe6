package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/stageline-lab/stageline/internal/crm"
)

// marshalEventData marshals a caller-supplied payload to JSON for storage.
// Nil payloads are stored as the empty object, never SQL NULL.
func marshalEventData(data map[string]any) ([]byte, error) {
	if data == nil {
		data = map[string]any{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event data: %w", err)
	}
	return raw, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanCompanyRow scans a database row into a Company (without events).
// Compatible with both sql.Row (single) and sql.Rows (multiple).
func scanCompanyRow(row scanner) (*crm.Company, error) {
	var c crm.Company
	var stageCode string

	err := row.Scan(&c.ID, &c.Name, &stageCode, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan company row: %w", err)
	}

	stage, err := crm.ParseStage(stageCode)
	if err != nil {
		return nil, fmt.Errorf("company %d: %w", c.ID, err)
	}
	c.Stage = stage

	return &c, nil
}

// scanEventRow scans a database row into an Event, unmarshalling the payload.
func scanEventRow(row scanner) (crm.Event, error) {
	var evt crm.Event
	var typeCode string
	var dataJSON []byte

	err := row.Scan(&evt.ID, &evt.CompanyID, &typeCode, &dataJSON, &evt.CreatedAt)
	if err != nil {
		return crm.Event{}, fmt.Errorf("failed to scan event row: %w", err)
	}

	eventType, err := crm.ParseEventType(typeCode)
	if err != nil {
		return crm.Event{}, fmt.Errorf("event %d: %w", evt.ID, err)
	}
	evt.Type = eventType

	if err := json.Unmarshal(dataJSON, &evt.Data); err != nil {
		return crm.Event{}, fmt.Errorf("failed to unmarshal event data: %w", err)
	}

	return evt, nil
}
