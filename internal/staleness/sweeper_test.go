package staleness

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stageline-lab/stageline/internal/core/storage"
	"github.com/stageline-lab/stageline/internal/crm"
)

func demoDoneCompany(t *testing.T, store *storage.MemoryStore, name string, demoAge time.Duration) int64 {
	t.Helper()
	ctx := context.Background()

	id, err := store.CreateCompany(ctx, name)
	require.NoError(t, err)

	stage := crm.StageIce
	for stage != crm.StageDemoDone {
		next, ok := stage.Next()
		require.True(t, ok)
		require.NoError(t, store.AdvanceStage(ctx, id, stage, next))
		stage = next
	}

	if demoAge >= 0 {
		_, err = store.AppendEventAt(ctx, id, crm.EventDemoConducted, nil, time.Now().Add(-demoAge))
		require.NoError(t, err)
	}
	return id
}

func TestSweep_FlagsOnlyStaleDemos(t *testing.T) {
	store := storage.NewMemoryStore()
	day := 24 * time.Hour

	demoDoneCompany(t, store, "fresh", 10*day)
	demoDoneCompany(t, store, "stale", 90*day)
	demoDoneCompany(t, store, "no demo", -1)

	// A company outside Demo Done is never scanned.
	outsideID, err := store.CreateCompany(context.Background(), "outside")
	require.NoError(t, err)
	_, err = store.AppendEventAt(context.Background(), outsideID, crm.EventDemoConducted, nil, time.Now().Add(-90*day))
	require.NoError(t, err)

	s := NewSweeper(time.Hour, store)
	checked, stale := s.sweep(context.Background())

	require.Equal(t, 3, checked)
	require.Equal(t, 1, stale)
}

func TestSweep_EmptyStage(t *testing.T) {
	s := NewSweeper(time.Hour, storage.NewMemoryStore())

	checked, stale := s.sweep(context.Background())
	require.Zero(t, checked)
	require.Zero(t, stale)
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	s := NewSweeper(time.Hour, storage.NewMemoryStore())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Start(ctx)
	}()

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop after context cancellation")
	}
}
