package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ideaflow/internal/config"
	"github.com/sells-group/ideaflow/internal/resilience"
)

func testWebhook(url string) *WebhookTransport {
	t := NewWebhookTransport(config.MessagingConfig{
		WebhookURL:       url,
		Token:            "secret",
		Timeout:          time.Second,
		BreakerThreshold: 2,
		BreakerCooldown:  time.Minute,
	})
	t.retry.InitialBackoff = time.Millisecond
	t.retry.MaxBackoff = 2 * time.Millisecond
	return t
}

func TestNew(t *testing.T) {
	tr, err := New(config.MessagingConfig{})
	require.NoError(t, err)
	assert.IsType(t, LogTransport{}, tr)

	tr, err = New(config.MessagingConfig{Transport: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryTransport{}, tr)

	_, err = New(config.MessagingConfig{Transport: "webhook"})
	assert.ErrorContains(t, err, "webhook_url")

	_, err = New(config.MessagingConfig{Transport: "pigeon"})
	assert.ErrorContains(t, err, "unknown transport")
}

func TestWebhookTransport_Send(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		var req webhookRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "+212600", req.To)
		assert.Equal(t, "What problem does it solve?", req.Text)
		w.Write([]byte(`{"id":"gw-1"}`)) //nolint:errcheck
	}))
	defer ts.Close()

	d, err := testWebhook(ts.URL).Send(context.Background(), "+212600", "What problem does it solve?")
	require.NoError(t, err)
	assert.Equal(t, "gw-1", d.ID)
}

func TestWebhookTransport_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer ts.Close()

	d, err := testWebhook(ts.URL).Send(context.Background(), "c", "hi")
	require.NoError(t, err)
	assert.NotEmpty(t, d.ID)
	assert.Equal(t, int32(2), calls.Load())
}

func TestWebhookTransport_PermanentStatusAndBreaker(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()

	tr := testWebhook(ts.URL)
	for i := 0; i < 2; i++ {
		_, err := tr.Send(context.Background(), "c", "hi")
		require.Error(t, err)
		assert.False(t, resilience.IsTransient(err))
	}
	assert.Equal(t, int32(2), calls.Load())

	_, err := tr.Send(context.Background(), "c", "hi")
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, int32(2), calls.Load())
}

func TestMemoryTransport(t *testing.T) {
	m := &MemoryTransport{}
	_, ok := m.Last()
	assert.False(t, ok)

	_, err := m.Send(context.Background(), "a", "one")
	require.NoError(t, err)
	_, err = m.Send(context.Background(), "b", "two")
	require.NoError(t, err)

	last, ok := m.Last()
	require.True(t, ok)
	assert.Equal(t, Message{Contact: "b", Text: "two"}, last)
	assert.Len(t, m.Sent(), 2)

	m.Err = errors.New("down")
	_, err = m.Send(context.Background(), "a", "x")
	assert.Error(t, err)
}

func TestLogTransport(t *testing.T) {
	d, err := LogTransport{}.Send(context.Background(), "a", "hello")
	require.NoError(t, err)
	assert.Equal(t, "a", d.Contact)
}
