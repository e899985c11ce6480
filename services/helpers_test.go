package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/riserecover/server/models"
	"github.com/riserecover/server/store"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type stubAdvisor struct {
	advice models.Advice
	err    error
	calls  int
	last   AdviceRequest
}

func (s *stubAdvisor) Advise(_ context.Context, req AdviceRequest) (models.Advice, error) {
	s.calls++
	s.last = req
	return s.advice, s.err
}

func newMemoryStore() *store.Store {
	return store.New(store.NewMemoryBackend())
}

func mustRegister(t *testing.T, svc *AccountService, in RegisterInput) models.User {
	t.Helper()
	u, err := svc.Register(context.Background(), in)
	require.NoError(t, err)
	return u
}
