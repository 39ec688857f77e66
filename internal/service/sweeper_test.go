package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/distructnote/api/internal/repository"
)

type countingSweepStore struct {
	*repository.MemoryNoteRepository
	sweeps atomic.Int64
}

func (s *countingSweepStore) ExpireOlderThan(ctx context.Context, now time.Time) (int64, error) {
	s.sweeps.Add(1)
	return s.MemoryNoteRepository.ExpireOlderThan(ctx, now)
}

func TestSweeperRunSweepsAndStops(t *testing.T) {
	store := &countingSweepStore{MemoryNoteRepository: repository.NewMemoryNoteRepository()}
	svc := newTestService(store)

	sweeper := NewSweeper(svc, 10*time.Millisecond, nil)

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(runCtx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return store.sweeps.Load() >= 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancellation")
	}
}

func TestSweeperDefaultInterval(t *testing.T) {
	sweeper := NewSweeper(newTestService(repository.NewMemoryNoteRepository()), 0, nil)
	assert.Equal(t, time.Hour, sweeper.interval)
}
