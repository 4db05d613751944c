package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreaker_OpensAfterThresholdAndProbes(t *testing.T) {
	b := NewBreaker("gateway", 2, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	fail := func(context.Context) error { return errors.New("down") }
	ok := func(context.Context) error { return nil }

	require.Error(t, b.Execute(context.Background(), fail))
	assert.Equal(t, BreakerClosed, b.State())
	require.Error(t, b.Execute(context.Background(), fail))
	assert.Equal(t, BreakerOpen, b.State())

	assert.ErrorIs(t, b.Execute(context.Background(), ok), ErrCircuitOpen)

	now = now.Add(2 * time.Minute)
	require.NoError(t, b.Execute(context.Background(), ok))
	assert.Equal(t, BreakerClosed, b.State())
}

func TestBreaker_FailedProbeReopens(t *testing.T) {
	b := NewBreaker("gateway", 1, time.Second)
	now := time.Now()
	b.now = func() time.Time { return now }

	_ = b.Execute(context.Background(), func(context.Context) error { return errors.New("down") })
	assert.Equal(t, BreakerOpen, b.State())

	now = now.Add(2 * time.Second)
	_ = b.Execute(context.Background(), func(context.Context) error { return errors.New("still down") })
	assert.Equal(t, BreakerOpen, b.State())
	assert.ErrorIs(t, b.Execute(context.Background(), func(context.Context) error { return nil }), ErrCircuitOpen)
}
