package storage

import (
	"context"
	"errors"

	"github.com/stageline-lab/stageline/internal/crm"
)

// ErrNotFound is returned when a company id does not exist.
var ErrNotFound = errors.New("company not found")

// ErrStageConflict is returned by AdvanceStage when the company no longer sits
// on the expected from-stage, i.e. another writer advanced it first.
var ErrStageConflict = errors.New("company stage changed concurrently")

// CompanyStore is the durable owner of companies, their event logs and the
// transition audit trail. Implementations must serialize writes per company:
// AdvanceStage records the transition and updates the stage as one atomic unit.
type CompanyStore interface {
	// CreateCompany creates a company at the Ice stage and returns its id.
	CreateCompany(ctx context.Context, name string) (int64, error)

	// GetCompany loads a company with its event log attached
	// (created_at ASC, id ASC). Returns ErrNotFound for unknown ids.
	GetCompany(ctx context.Context, id int64) (*crm.Company, error)

	// ListCompanies returns all companies without events, most recently
	// updated first.
	ListCompanies(ctx context.Context) ([]*crm.Company, error)

	// ListCompaniesByStage returns the companies on one stage, events attached.
	ListCompaniesByStage(ctx context.Context, s crm.Stage) ([]*crm.Company, error)

	// ListEvents returns the company's event log, created_at ASC, id ASC.
	ListEvents(ctx context.Context, companyID int64) ([]crm.Event, error)

	// AppendEvent durably appends one event and returns its id. Append-only:
	// events are never updated or deleted.
	AppendEvent(ctx context.Context, companyID int64, t crm.EventType, data map[string]any) (int64, error)

	// AdvanceStage atomically appends a stage transition audit row and moves
	// the company's stage from `from` to `to`. Returns ErrStageConflict when
	// the company is not currently on `from`.
	AdvanceStage(ctx context.Context, companyID int64, from, to crm.Stage) error
}
