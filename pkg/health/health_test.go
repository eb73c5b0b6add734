package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passing() CheckFunc {
	return func(_ context.Context) error { return nil }
}

func failing(msg string) CheckFunc {
	return func(_ context.Context) error { return errors.New(msg) }
}

func probe(t *testing.T, endpoint http.HandlerFunc) (int, statusResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	endpoint(w, httptest.NewRequest(http.MethodGet, "/", nil))

	var body statusResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return w.Code, body
}

func TestLiveEndpoint_AllPassing(t *testing.T) {
	s := New()
	s.AddLivenessCheck("one", time.Second, passing())
	s.AddLivenessCheck("two", time.Second, passing())

	code, body := probe(t, s.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Status)
}

func TestLiveEndpoint_FailsAfterThreshold(t *testing.T) {
	s := New()
	s.AddLivenessCheck("db", time.Second, failing("connection refused"))

	ctx := context.Background()
	c := s.liveness[0]

	// Under the threshold the check is still reported healthy.
	c.run(ctx)
	c.run(ctx)
	code, _ := probe(t, s.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code)

	c.run(ctx)
	code, body := probe(t, s.LiveEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "connection refused", body.Checks["db"])
}

func TestCheck_RecoversAfterSuccess(t *testing.T) {
	s := New()
	fail := true
	s.AddReadinessCheck("flaky", time.Second, func(_ context.Context) error {
		if fail {
			return errors.New("down")
		}
		return nil
	})
	s.SetReady(true)

	ctx := context.Background()
	c := s.readiness[0]
	for range failureThreshold {
		c.run(ctx)
	}
	assert.False(t, s.IsReady())

	// A single success restores health.
	fail = false
	c.run(ctx)
	assert.True(t, s.IsReady())
}

func TestReadyEndpoint_ManualGate(t *testing.T) {
	s := New()
	s.AddReadinessCheck("db", time.Second, passing())

	code, body := probe(t, s.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "service is not ready", body.Checks["_readiness"])

	s.SetReady(true)
	code, body = probe(t, s.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Status)

	// Draining: the gate flips readiness off again.
	s.SetReady(false)
	code, _ = probe(t, s.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestStartStop(t *testing.T) {
	s := New()
	ran := make(chan struct{}, 1)
	s.AddLivenessCheck("tick", time.Second, func(_ context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})

	s.Start(context.Background(), 10*time.Millisecond)
	defer s.Stop()

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("check never ran")
	}
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(100000)(context.Background()))
	assert.Error(t, GoroutineCountCheck(0)(context.Background()))
}
