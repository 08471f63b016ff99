package webhookalert_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	webhookalert "github.com/tdex-network/oracle-dispatcher/internal/infrastructure/alert/webhook"
	"github.com/tdex-network/oracle-dispatcher/pkg/heartbeat"
)

const secret = "s3cr3t"

type received struct {
	body   map[string]interface{}
	bearer string
}

type fakeEndpoint struct {
	lock   *sync.Mutex
	status int
	calls  []received
}

func (e *fakeEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	buf, _ := io.ReadAll(r.Body)
	body := make(map[string]interface{})
	_ = json.Unmarshal(buf, &body)

	e.lock.Lock()
	e.calls = append(e.calls, received{
		body:   body,
		bearer: strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "),
	})
	status := e.status
	e.lock.Unlock()

	w.WriteHeader(status)
}

func (e *fakeEndpoint) received() []received {
	e.lock.Lock()
	defer e.lock.Unlock()
	return append([]received{}, e.calls...)
}

type syncBuffer struct {
	lock *sync.Mutex
	buf  *bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.String()
}

type fakeHealth struct{}

func (fakeHealth) Summary() map[string]heartbeat.Status {
	return map[string]heartbeat.Status{"readData": {Alive: false}}
}

func newTestLogger(hook logrus.Hook) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.AddHook(hook)
	return logger
}

func TestHook(t *testing.T) {
	endpoint := &fakeEndpoint{lock: &sync.Mutex{}, status: http.StatusOK}
	srv := httptest.NewServer(endpoint)
	defer srv.Close()

	hook, err := webhookalert.NewHook(webhookalert.Opts{
		Endpoint:      srv.URL,
		Secret:        secret,
		RatePerSecond: 100,
	})
	require.NoError(t, err)
	hook.SetHealthReporter(fakeHealth{})

	logger := newTestLogger(hook)
	logger.WithError(errors.New("ledger unavailable")).
		WithField("task", "feedData").
		Error("task failed")
	logger.Warn("not alerted")
	logger.Info("not alerted")

	hook.Close()

	calls := endpoint.received()
	require.Len(t, calls, 1)

	body := calls[0].body
	require.Equal(t, "[error] task failed", body["text"])
	fields := body["fields"].(map[string]interface{})
	require.Equal(t, "feedData", fields["task"])
	require.Equal(t, "ledger unavailable", fields["error"])
	health := body["health"].(map[string]interface{})
	require.Contains(t, health, "readData")

	token, err := jwt.Parse(calls[0].bearer, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)
	require.Equal(t, jwt.SigningMethodHS256.Alg(), token.Method.Alg())
}

func TestHookUnsecured(t *testing.T) {
	endpoint := &fakeEndpoint{lock: &sync.Mutex{}, status: http.StatusOK}
	srv := httptest.NewServer(endpoint)
	defer srv.Close()

	hook, err := webhookalert.NewHook(webhookalert.Opts{Endpoint: srv.URL})
	require.NoError(t, err)

	newTestLogger(hook).Error("boom")
	hook.Close()

	calls := endpoint.received()
	require.Len(t, calls, 1)
	require.Empty(t, calls[0].bearer)
	require.NotContains(t, calls[0].body, "health")
}

func TestHookDeliveryFailure(t *testing.T) {
	endpoint := &fakeEndpoint{lock: &sync.Mutex{}, status: http.StatusInternalServerError}
	srv := httptest.NewServer(endpoint)
	defer srv.Close()

	errWriter := &syncBuffer{lock: &sync.Mutex{}, buf: &bytes.Buffer{}}
	hook, err := webhookalert.NewHook(webhookalert.Opts{
		Endpoint:      srv.URL,
		RatePerSecond: 100,
		ErrWriter:     errWriter,
	})
	require.NoError(t, err)

	logger := newTestLogger(hook)
	logger.Error("boom")
	hook.Close()

	require.Len(t, endpoint.received(), 1)
	require.Contains(t, errWriter.String(), "failed to deliver alert")

	// alerts fired after close are ignored.
	logger.Error("after close")
	require.Len(t, endpoint.received(), 1)
}

func TestNewHook(t *testing.T) {
	for _, endpoint := range []string{"", "not a url", "/relative", "ftp://host/path"} {
		_, err := webhookalert.NewHook(webhookalert.Opts{Endpoint: endpoint})
		require.ErrorIs(t, err, webhookalert.ErrInvalidEndpoint, endpoint)
	}
}
