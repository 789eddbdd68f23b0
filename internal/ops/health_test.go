package ops

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/vacay/internal/backend"
	"github.com/hpungsan/vacay/internal/errors"
)

func TestHealthMonitor_States(t *testing.T) {
	var resp *backend.HealthResponse
	var failure error
	fb := &fakeBackend{
		healthFn: func(context.Context) (*backend.HealthResponse, error) {
			return resp, failure
		},
	}
	m := NewHealthMonitor(fb, time.Second, quietLogger())
	require.Equal(t, StateUnknown, m.Status().State)
	require.Equal(t, "Backend: Checking...", m.Status().Label())

	resp = &backend.HealthResponse{LLMLoaded: true}
	st := m.Check(context.Background())
	require.Equal(t, StateOnline, st.State)
	require.True(t, st.Online())
	require.Contains(t, st.Label(), "LLM: Ready")

	resp = &backend.HealthResponse{LLMLoaded: false}
	st = m.Check(context.Background())
	require.Equal(t, StateLoading, st.State)
	require.True(t, st.Online())
	require.Contains(t, st.Label(), "LLM: Loading")

	resp, failure = nil, errors.NewBackendUnavailable(context.DeadlineExceeded)
	st = m.Check(context.Background())
	require.Equal(t, StateOffline, st.State)
	require.False(t, st.Online())
	require.NotEmpty(t, st.Error)
	require.Equal(t, st, m.Status())

	// recovers on the next successful check
	resp, failure = &backend.HealthResponse{LLMLoaded: true}, nil
	require.Equal(t, StateOnline, m.Check(context.Background()).State)
}

func TestHealthMonitor_RunPolls(t *testing.T) {
	var calls atomic.Int32
	fb := &fakeBackend{
		healthFn: func(context.Context) (*backend.HealthResponse, error) {
			calls.Add(1)
			return &backend.HealthResponse{LLMLoaded: true}, nil
		},
	}
	m := NewHealthMonitor(fb, 10*time.Millisecond, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, 5*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
	require.Equal(t, StateOnline, m.Status().State)
}

func TestNewHealthMonitor_DefaultInterval(t *testing.T) {
	m := NewHealthMonitor(&fakeBackend{}, 0, nil)
	require.Equal(t, DefaultHealthInterval, m.interval)
}
