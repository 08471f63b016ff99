package ledgerrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/tdex-network/oracle-dispatcher/pkg/circuitbreaker"
	"github.com/tdex-network/oracle-dispatcher/pkg/httputil"
)

const (
	jsonRPCVersion = "2.0"

	// CodeMethodNotFound is the JSON-RPC error code for unknown methods.
	CodeMethodNotFound = -32601
)

type request struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      string        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is an error returned by the ledger node.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	if len(e.Data) > 0 {
		return fmt.Sprintf("rpc error %d: %s (%s)", e.Code, e.Message, string(e.Data))
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// client is a JSON-RPC 2.0 over HTTP client. Transport failures count
// toward its circuit breaker, errors returned by the node do not.
type client struct {
	url     string
	http    *httputil.Client
	breaker *gobreaker.CircuitBreaker
	log     *log.Entry
}

func newClient(addr string, timeout time.Duration) (*client, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURL, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidURL)
	}

	return &client{
		url:     u.String(),
		http:    httputil.NewClient(timeout),
		breaker: circuitbreaker.NewCircuitBreaker("ledger"),
		log:     log.WithField("module", "ledger"),
	}, nil
}

// call invokes method and decodes its result into result, if not nil. A
// null result leaves result untouched.
func (c *client) call(
	ctx context.Context, method string, result interface{}, params ...interface{},
) error {
	if params == nil {
		params = []interface{}{}
	}
	req := request{
		JSONRPC: jsonRPCVersion,
		ID:      uuid.New().String(),
		Method:  method,
		Params:  params,
	}
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("%s: failed to encode request: %w", method, err)
	}

	iResp, err := c.breaker.Execute(func() (interface{}, error) {
		status, respBody, err := c.http.Post(ctx, c.url, body, map[string]string{
			"Content-Type": "application/json",
		})
		if err != nil {
			return nil, err
		}
		// nodes may answer rpc errors with a non 2xx status and a valid body.
		resp := &response{}
		if err := json.Unmarshal(respBody, resp); err != nil {
			if statusErr := httputil.CheckStatus(status, respBody); statusErr != nil {
				return nil, statusErr
			}
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		return resp, nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}

	resp := iResp.(*response)
	if resp.ID != req.ID {
		return fmt.Errorf("%s: %w", method, ErrResponseIDMismatch)
	}
	if resp.Error != nil {
		return fmt.Errorf("%s: %w", method, resp.Error)
	}

	c.log.WithFields(log.Fields{
		"method": method,
		"id":     req.ID,
	}).Trace("rpc call succeeded")

	if result == nil || len(resp.Result) == 0 || string(resp.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(resp.Result, result); err != nil {
		return fmt.Errorf("%s: failed to decode result: %w", method, err)
	}
	return nil
}
