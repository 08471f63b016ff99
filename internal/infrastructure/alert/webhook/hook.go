// Package webhookalert forwards error logs to a chat webhook, along with the
// current health summary of the dispatcher.
package webhookalert

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/tdex-network/oracle-dispatcher/internal/core/ports"
	"github.com/tdex-network/oracle-dispatcher/pkg/circuitbreaker"
	"github.com/tdex-network/oracle-dispatcher/pkg/heartbeat"
	"github.com/tdex-network/oracle-dispatcher/pkg/httputil"
	"go.uber.org/ratelimit"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultRate      = 1
	defaultQueueSize = 100
	jwtIssuer        = "oracle-dispatcher"
)

type Opts struct {
	Endpoint string
	// Secret, if not empty, is used to sign a HS256 JWT sent as bearer token.
	Secret  string
	Timeout time.Duration
	// RatePerSecond is the max number of deliveries per second.
	RatePerSecond int
	QueueSize     int
	// ErrWriter receives delivery failures. Defaults to os.Stderr.
	ErrWriter io.Writer
}

type message struct {
	Text   string                      `json:"text"`
	Fields map[string]string           `json:"fields,omitempty"`
	Health map[string]heartbeat.Status `json:"health,omitempty"`
}

// Hook is a logrus hook that posts error, fatal and panic entries to a
// webhook. Error entries are delivered asynchronously and dropped if the
// queue is full. Fatal and panic entries are delivered before returning,
// since the process is about to exit.
type Hook struct {
	endpoint  string
	secret    string
	client    *httputil.Client
	timeout   time.Duration
	breaker   *gobreaker.CircuitBreaker
	limiter   ratelimit.Limiter
	errWriter io.Writer

	lock   *sync.RWMutex
	health ports.HealthReporter

	queue  chan message
	closed bool
	wg     *sync.WaitGroup
}

func NewHook(opts Opts) (*Hook, error) {
	u, err := url.ParseRequestURI(opts.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidEndpoint
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = defaultRate
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.ErrWriter == nil {
		opts.ErrWriter = os.Stderr
	}

	h := &Hook{
		endpoint:  opts.Endpoint,
		secret:    opts.Secret,
		client:    httputil.NewClient(opts.Timeout),
		timeout:   opts.Timeout,
		breaker:   circuitbreaker.NewCircuitBreaker("alert-webhook"),
		limiter:   ratelimit.New(opts.RatePerSecond),
		errWriter: opts.ErrWriter,
		lock:      &sync.RWMutex{},
		queue:     make(chan message, opts.QueueSize),
		wg:        &sync.WaitGroup{},
	}

	h.wg.Add(1)
	go h.deliverLoop()

	return h, nil
}

// SetHealthReporter makes every alert carry the health summary of the given
// reporter.
func (h *Hook) SetHealthReporter(health ports.HealthReporter) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.health = health
}

func (h *Hook) Levels() []log.Level {
	return []log.Level{log.PanicLevel, log.FatalLevel, log.ErrorLevel}
}

func (h *Hook) Fire(entry *log.Entry) error {
	msg := h.newMessage(entry)

	if entry.Level <= log.FatalLevel {
		h.deliver(msg)
		return nil
	}

	h.lock.RLock()
	defer h.lock.RUnlock()

	if h.closed {
		return nil
	}
	select {
	case h.queue <- msg:
	default:
		fmt.Fprintln(h.errWriter, "alert webhook: queue full, dropping alert")
	}
	return nil
}

// Close stops accepting alerts and waits for the queued ones to be
// delivered.
func (h *Hook) Close() {
	h.lock.Lock()
	if !h.closed {
		h.closed = true
		close(h.queue)
	}
	h.lock.Unlock()

	h.wg.Wait()
}

func (h *Hook) deliverLoop() {
	defer h.wg.Done()

	for msg := range h.queue {
		h.limiter.Take()
		h.deliver(msg)
	}
}

func (h *Hook) newMessage(entry *log.Entry) message {
	fields := make(map[string]string, len(entry.Data))
	for k, v := range entry.Data {
		switch val := v.(type) {
		case error:
			fields[k] = val.Error()
		default:
			fields[k] = fmt.Sprint(val)
		}
	}

	msg := message{
		Text:   fmt.Sprintf("[%s] %s", entry.Level.String(), entry.Message),
		Fields: fields,
	}

	h.lock.RLock()
	health := h.health
	h.lock.RUnlock()
	if health != nil {
		msg.Health = health.Summary()
	}
	return msg
}

// deliver never logs, any failure is written to errWriter instead so that it
// can't trigger other alerts.
func (h *Hook) deliver(msg message) {
	body, err := json.Marshal(msg)
	if err != nil {
		fmt.Fprintf(h.errWriter, "alert webhook: failed to encode alert: %s\n", err)
		return
	}

	headers := map[string]string{
		"Content-Type": "application/json",
	}
	if len(h.secret) > 0 {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
			Issuer:   jwtIssuer,
			IssuedAt: time.Now().Unix(),
		})
		tokenString, err := token.SignedString([]byte(h.secret))
		if err != nil {
			fmt.Fprintf(h.errWriter, "alert webhook: failed to sign token: %s\n", err)
			return
		}
		headers["Authorization"] = fmt.Sprintf("Bearer %s", tokenString)
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	if _, err := h.breaker.Execute(func() (interface{}, error) {
		status, resp, err := h.client.Post(ctx, h.endpoint, body, headers)
		if err != nil {
			return nil, err
		}
		return nil, httputil.CheckStatus(status, resp)
	}); err != nil {
		fmt.Fprintf(h.errWriter, "alert webhook: failed to deliver alert: %s\n", err)
	}
}
