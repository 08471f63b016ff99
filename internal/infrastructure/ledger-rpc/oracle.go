package ledgerrpc

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/tdex-network/oracle-dispatcher/internal/core/domain"
	"github.com/tdex-network/oracle-dispatcher/internal/core/ports"
	"github.com/tidwall/gjson"
)

func (s *service) OracleMembers(ctx context.Context, oracle string) ([]string, error) {
	members := make([]string, 0)
	if err := s.client.call(ctx, MethodOracleMembers, &members, oracle); err != nil {
		return nil, err
	}
	return members, nil
}

func (s *service) AccountNonce(ctx context.Context, oracle, account string) (uint32, error) {
	var nonce uint32
	if err := s.client.call(ctx, MethodOracleNonce, &nonce, oracle, account); err != nil {
		return 0, err
	}
	return nonce, nil
}

func (s *service) FeedValues(
	ctx context.Context, oracle string, values []domain.OracleValue,
) (ports.InBlock, error) {
	res := inBlock{}
	if err := s.client.call(ctx, MethodFeedValues, &res, oracle, values); err != nil {
		return ports.InBlock{}, submissionError(err)
	}
	if res.TxHash == "" || res.BlockHash == "" {
		return ports.InBlock{}, fmt.Errorf("%s: %w: missing tx or block hash", MethodFeedValues, ErrInvalidResult)
	}
	return ports.InBlock{TxHash: res.TxHash, BlockHash: res.BlockHash}, nil
}

func (s *service) FeedSignedValues(
	ctx context.Context, oracle string, feed ports.SignedFeed,
) (string, error) {
	method := MethodFeedSignedValues
	if feed.BlockHeight != nil {
		method = MethodFeedSignedValuesAt
	}

	params := signedFeed{
		Values:      feed.Values,
		Index:       feed.Index,
		Nonce:       feed.Nonce,
		BlockHeight: feed.BlockHeight,
		Signature:   "0x" + hex.EncodeToString(feed.Signature),
	}

	var raw json.RawMessage
	if err := s.client.call(ctx, method, &raw, oracle, params); err != nil {
		return "", submissionError(err)
	}

	// the ack is either the bare tx hash or an object carrying it.
	res := gjson.ParseBytes(raw)
	txHash := res.String()
	if res.IsObject() {
		txHash = res.Get("txHash").String()
	}
	if txHash == "" {
		return "", fmt.Errorf("%s: %w: missing tx hash", method, ErrInvalidResult)
	}
	return txHash, nil
}
