package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/stageline-lab/stageline/internal/core/storage"
	"github.com/stageline-lab/stageline/internal/crm"
)

const (
	msgActionRecorded  = "Action recorded"
	msgAlreadyTerminal = "Company is already at its final stage"
	msgStageConflict   = "Company stage changed concurrently, refresh and retry"
)

// Service orchestrates the pipeline operations around the rule engine:
// load, decide, record, re-evaluate, maybe advance. It holds no business rules
// itself; every decision is delegated to the engine.
type Service struct {
	store  storage.CompanyStore
	engine *crm.Engine
}

func NewService(store storage.CompanyStore, engine *crm.Engine) *Service {
	if store == nil {
		panic("pipeline: store must not be nil")
	}
	if engine == nil {
		panic("pipeline: engine must not be nil")
	}
	return &Service{store: store, engine: engine}
}

// Result is the outcome of PerformAction and TryAdvance. Business denials
// (restricted action, blocked advance) are Success=false with a human reason,
// not errors: callers branch on the boolean.
type Result struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	NewStage string `json:"new_stage,omitempty"`
}

// Card is the read model behind a company's card view.
type Card struct {
	Company          *crm.Company    `json:"company"`
	AvailableActions []crm.EventType `json:"available_actions"`
	Restrictions     []crm.EventType `json:"restrictions"`
	Instruction      string          `json:"instruction"`
	Advance          crm.Decision    `json:"advance"`
	Events           []crm.Event     `json:"events"`
	NextStage        *crm.Stage      `json:"next_stage,omitempty"`
	TotalInvoiced    string          `json:"total_invoiced"`
}

// CreateCompany registers a new company at the Ice stage.
func (s *Service) CreateCompany(ctx context.Context, name string) (int64, error) {
	return s.store.CreateCompany(ctx, name)
}

// ListCompanies returns every company without events, most recently updated first.
func (s *Service) ListCompanies(ctx context.Context) ([]*crm.Company, error) {
	return s.store.ListCompanies(ctx)
}

// PerformAction records an action against a company, then re-evaluates the
// exit condition and auto-advances when it holds.
//
// The restriction check runs before the event is written: a denied action
// leaves the log untouched. Once the event is recorded the action has
// succeeded; the advance is a bonus side effect, never a precondition.
// Store failures (including an unknown company) come back as errors.
func (s *Service) PerformAction(ctx context.Context, companyID int64, action crm.EventType, data map[string]any) (Result, error) {
	company, err := s.store.GetCompany(ctx, companyID)
	if err != nil {
		return Result{}, err
	}

	if check := s.engine.CanPerformAction(company, action); !check.Allowed {
		return Result{Success: false, Message: check.Reason}, nil
	}

	eventID, err := s.store.AppendEvent(ctx, companyID, action, data)
	if err != nil {
		return Result{}, err
	}

	// Re-read the log so the advance check sees the just-appended event,
	// not the stale in-memory copy.
	events, err := s.store.ListEvents(ctx, companyID)
	if err != nil {
		return Result{}, err
	}
	company.Events = events

	slog.Info("Recorded action",
		"company_id", companyID,
		"action", action.String(),
		"event_id", eventID)

	if advance := s.engine.CanAdvance(company); advance.Allowed {
		if next, ok := company.Stage.Next(); ok {
			advanced, err := s.advance(ctx, company, next)
			if err != nil {
				return Result{}, err
			}
			if advanced {
				return Result{
					Success:  true,
					Message:  fmt.Sprintf("Action recorded. Company advanced to stage %s (%s)", next, next.Label()),
					NewStage: next.String(),
				}, nil
			}
		}
	}

	return Result{
		Success:  true,
		Message:  msgActionRecorded,
		NewStage: company.Stage.String(),
	}, nil
}

// TryAdvance is the manual, user-initiated advance. It targets exactly the
// next stage, never further, and mutates nothing when the exit condition
// fails. No event is recorded.
func (s *Service) TryAdvance(ctx context.Context, companyID int64) (Result, error) {
	company, err := s.store.GetCompany(ctx, companyID)
	if err != nil {
		return Result{}, err
	}

	next, ok := company.Stage.Next()
	if !ok {
		return Result{Success: false, Message: msgAlreadyTerminal}, nil
	}

	if check := s.engine.CanAdvance(company); !check.Allowed {
		return Result{Success: false, Message: check.Reason}, nil
	}

	if err := s.store.AdvanceStage(ctx, companyID, company.Stage, next); err != nil {
		if errors.Is(err, storage.ErrStageConflict) {
			return Result{Success: false, Message: msgStageConflict}, nil
		}
		return Result{}, err
	}

	slog.Info("Advanced stage",
		"company_id", companyID,
		"from", company.Stage.String(),
		"to", next.String())

	return Result{
		Success:  true,
		Message:  fmt.Sprintf("Advanced: %s → %s", company.Stage.Label(), next.Label()),
		NewStage: next.String(),
	}, nil
}

// CompanyCard assembles the read model for one company's card view.
// Returns storage.ErrNotFound for unknown ids.
func (s *Service) CompanyCard(ctx context.Context, companyID int64) (*Card, error) {
	company, err := s.store.GetCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	card := &Card{
		Company:          company,
		AvailableActions: s.engine.AvailableActions(company.Stage),
		Restrictions:     s.engine.Restrictions(company.Stage),
		Instruction:      s.engine.Instruction(company.Stage),
		Advance:          s.engine.CanAdvance(company),
		Events:           company.Events,
		TotalInvoiced:    totalInvoiced(company.Events).String(),
	}
	if next, ok := company.Stage.Next(); ok {
		card.NextStage = &next
	}
	return card, nil
}

// advance runs the auto-advance branch of PerformAction. Losing the advance
// race is not a failure of the action itself: the event is already durable,
// so a stage conflict only downgrades the result message.
func (s *Service) advance(ctx context.Context, company *crm.Company, next crm.Stage) (bool, error) {
	err := s.store.AdvanceStage(ctx, company.ID, company.Stage, next)
	if err != nil {
		if errors.Is(err, storage.ErrStageConflict) {
			slog.Warn("Auto-advance lost a concurrent update",
				"company_id", company.ID,
				"from", company.Stage.String())
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// totalInvoiced sums the "amount" field of issued invoices. Amounts arrive as
// free-form payload values; malformed or missing ones are skipped.
func totalInvoiced(events []crm.Event) decimal.Decimal {
	total := decimal.Zero
	for _, evt := range events {
		if evt.Type != crm.EventInvoiceIssued {
			continue
		}
		switch amount := evt.Data["amount"].(type) {
		case string:
			if d, err := decimal.NewFromString(amount); err == nil {
				total = total.Add(d)
			}
		case float64:
			total = total.Add(decimal.NewFromFloat(amount))
		}
	}
	return total
}
