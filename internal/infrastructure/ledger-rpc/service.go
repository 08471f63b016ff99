// Package ledgerrpc implements ports.Ledger on top of the JSON-RPC interface
// exposed by the ledger node.
package ledgerrpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tdex-network/oracle-dispatcher/internal/core/domain"
	"github.com/tdex-network/oracle-dispatcher/internal/core/ports"
	"github.com/tidwall/gjson"
)

const (
	MethodRPCMethods         = "rpc_methods"
	MethodOracleMembers      = "oracle_members"
	MethodOracleNonce        = "oracle_nonce"
	MethodBlockHeight        = "chain_blockHeight"
	MethodLiquidityPool      = "dex_liquidityPool"
	MethodFeedValues         = "oracle_feedValues"
	MethodFeedSignedValues   = "oracle_feedSignedValues"
	MethodFeedSignedValuesAt = "oracle_feedSignedValuesAt"
	MethodSwapBatch          = "dex_swapBatch"

	defaultRequestTimeout = 2 * time.Minute
)

type service struct {
	client *client
}

// NewService returns a ledger talking to the node at addr. The timeout
// bounds every request and must cover block inclusion for submissions.
func NewService(addr string, timeout time.Duration) (ports.Ledger, error) {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	c, err := newClient(addr, timeout)
	if err != nil {
		return nil, err
	}
	return &service{c}, nil
}

// OracleProtocol inspects the methods exposed by the node. Signed
// submissions are preferred over unsigned ones when both are available.
func (s *service) OracleProtocol(ctx context.Context) (domain.OracleProtocol, error) {
	var raw json.RawMessage
	if err := s.client.call(ctx, MethodRPCMethods, &raw); err != nil {
		return domain.OracleProtocol{}, err
	}

	res := gjson.ParseBytes(raw)
	if !res.IsArray() {
		res = res.Get("methods")
	}
	if !res.IsArray() {
		return domain.OracleProtocol{}, fmt.Errorf("%s: %w", MethodRPCMethods, ErrInvalidResult)
	}

	methods := make(map[string]bool)
	for _, m := range res.Array() {
		methods[m.String()] = true
	}

	switch {
	case methods[MethodFeedSignedValuesAt]:
		return domain.OracleProtocol{
			Kind: domain.ProtocolSignedIndexed, RequiresBlockHeight: true,
		}, nil
	case methods[MethodFeedSignedValues]:
		return domain.OracleProtocol{Kind: domain.ProtocolSignedIndexed}, nil
	case methods[MethodFeedValues]:
		return domain.OracleProtocol{Kind: domain.ProtocolUnsignedBatch}, nil
	default:
		return domain.OracleProtocol{}, ports.ErrProtocolUnsupported
	}
}

func (s *service) BlockHeight(ctx context.Context) (uint32, error) {
	var height uint32
	if err := s.client.call(ctx, MethodBlockHeight, &height); err != nil {
		return 0, err
	}
	return height, nil
}

func (s *service) Close() {
	s.client.http.CloseIdleConnections()
}

// submissionError maps a method not found error returned for a submission to
// ports.ErrProtocolMismatch.
func submissionError(err error) error {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) && rpcErr.Code == CodeMethodNotFound {
		return fmt.Errorf("%w: %s", ports.ErrProtocolMismatch, err)
	}
	return err
}
