package staleness

import (
	"context"
	"log/slog"
	"time"

	"github.com/stageline-lab/stageline/internal/core/storage"
	"github.com/stageline-lab/stageline/internal/crm"
)

// Sweeper periodically scans the Demo Done stage for companies whose conducted
// demo has aged past the advance window. It is an observability aid: it only
// logs, it never mutates company state.
type Sweeper struct {
	interval time.Duration
	store    storage.CompanyStore
	nowFn    func() time.Time
}

// NewSweeper creates a sweeper scanning at the given interval.
func NewSweeper(interval time.Duration, store storage.CompanyStore) *Sweeper {
	return &Sweeper{
		interval: interval,
		store:    store,
		nowFn:    time.Now,
	}
}

// Start begins periodic scanning. Runs until the context is cancelled.
func (s *Sweeper) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("[Sweeper] Starting stale-demo sweeper", "interval", s.interval)

	// Initial sweep so a restart surfaces stale demos immediately.
	s.sweep(ctx)

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-ctx.Done():
			slog.Info("[Sweeper] Stopping (context cancelled)")
			return nil
		}
	}
}

// sweep flags every Demo Done company whose demo was conducted but is no
// longer fresh enough to support an advance. Returns the counts for tests.
func (s *Sweeper) sweep(ctx context.Context) (checked, stale int) {
	companies, err := s.store.ListCompaniesByStage(ctx, crm.StageDemoDone)
	if err != nil {
		slog.Error("[Sweeper] Failed to list Demo Done companies", "error", err)
		return 0, 0
	}

	now := s.nowFn()
	for _, company := range companies {
		if !company.HasEvent(crm.EventDemoConducted) {
			continue
		}
		if company.HasRecentEvent(crm.EventDemoConducted, crm.DemoRecencyDays, now) {
			continue
		}
		stale++
		slog.Warn("[Sweeper] Demo went stale",
			"company_id", company.ID,
			"name", company.Name,
			"window_days", crm.DemoRecencyDays)
	}

	if stale > 0 {
		slog.Info("[Sweeper] Sweep complete",
			"companies_checked", len(companies),
			"stale_demos", stale)
	}
	return len(companies), stale
}
