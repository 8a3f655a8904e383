package retention

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockDeleter struct {
	mock.Mock
}

func (m *mockDeleter) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestPruner_Prune(t *testing.T) {
	fixed := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("deletes records older than max age", func(t *testing.T) {
		repo := new(mockDeleter)
		repo.On("DeleteOlderThan", mock.Anything, fixed.Add(-30*24*time.Hour)).Return(int64(5), nil)

		p := NewPruner(repo, discardLogger(), 30*24*time.Hour, time.Minute)
		p.now = func() time.Time { return fixed }

		assert.Equal(t, int64(5), p.Prune(context.Background()))
		repo.AssertExpectations(t)
	})

	t.Run("logs and swallows repository errors", func(t *testing.T) {
		var buf bytes.Buffer
		repo := new(mockDeleter)
		repo.On("DeleteOlderThan", mock.Anything, mock.Anything).Return(int64(0), errors.New("db down"))

		p := NewPruner(repo, slog.New(slog.NewTextHandler(&buf, nil)), time.Hour, time.Minute)

		assert.Zero(t, p.Prune(context.Background()))
		assert.Contains(t, buf.String(), "failed to delete expired verifications")
		assert.Contains(t, buf.String(), "db down")
	})
}

func TestNewPruner_DefaultInterval(t *testing.T) {
	p := NewPruner(new(mockDeleter), discardLogger(), time.Hour, 0)
	assert.Equal(t, time.Hour, p.interval)
}

// countingDeleter records calls without testify so it can be polled concurrently
type countingDeleter struct {
	mu    sync.Mutex
	calls int
}

func (c *countingDeleter) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return 0, nil
}

func (c *countingDeleter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestPruner_StartAndStop(t *testing.T) {
	repo := &countingDeleter{}
	p := NewPruner(repo, discardLogger(), time.Hour, 5*time.Millisecond)

	finished := make(chan struct{})
	go func() {
		p.Start(context.Background())
		close(finished)
	}()

	require.Eventually(t, func() bool { return repo.count() >= 3 }, time.Second, time.Millisecond)

	p.Stop()
	p.Stop()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("pruner did not stop")
	}
}

func TestPruner_StopsOnContextCancel(t *testing.T) {
	repo := &countingDeleter{}
	p := NewPruner(repo, discardLogger(), time.Hour, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		p.Start(ctx)
		close(finished)
	}()

	require.Eventually(t, func() bool { return repo.count() == 1 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("pruner did not stop")
	}
}
