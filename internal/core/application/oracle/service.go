// Package oracle submits price batches to the on-ledger oracle using the
// protocol negotiated with the ledger.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/oracle-dispatcher/internal/core/domain"
	"github.com/tdex-network/oracle-dispatcher/internal/core/ports"
	"github.com/tdex-network/oracle-dispatcher/pkg/mathutil"
	"github.com/tdex-network/oracle-dispatcher/pkg/signer"
	"github.com/tdex-network/oracle-dispatcher/pkg/stats"
)

// Receipt describes an accepted submission.
type Receipt struct {
	Protocol domain.OracleProtocol
	TxHash   string
	// BlockHash is empty for protocols that only wait for dispatch.
	BlockHash string
	Values    []domain.OracleValue
	// Nonce and Index are set only for signed submissions.
	Nonce uint32
	Index uint32
}

type Service struct {
	ledger ports.Ledger
	signer *signer.Signer
	oracle string

	lock     *sync.Mutex
	protocol domain.OracleProtocol
	log      *log.Entry
}

func NewService(ledger ports.Ledger, s *signer.Signer, oracleName string) (*Service, error) {
	if ledger == nil {
		return nil, ErrMissingLedger
	}
	if s == nil {
		return nil, ErrMissingSigner
	}
	if oracleName == "" {
		return nil, ErrMissingOracleName
	}

	return &Service{
		ledger: ledger,
		signer: s,
		oracle: oracleName,
		lock:   &sync.Mutex{},
		log:    log.WithField("module", "oracle"),
	}, nil
}

// Protocol returns the negotiated protocol, detecting it on first use.
func (s *Service) Protocol(ctx context.Context) (domain.OracleProtocol, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.protocol.IsZero() {
		return s.protocol, nil
	}

	protocol, err := s.ledger.OracleProtocol(ctx)
	if err != nil {
		return domain.OracleProtocol{}, fmt.Errorf("failed to detect oracle protocol: %w", err)
	}
	if protocol.IsZero() {
		return domain.OracleProtocol{}, ports.ErrProtocolUnsupported
	}

	s.log.WithField("protocol", protocol.String()).Info("oracle protocol negotiated")
	s.protocol = protocol
	return protocol, nil
}

func (s *Service) resetProtocol() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.protocol = domain.OracleProtocol{}
}

// Submit feeds the batch to the oracle. An error means nothing is known to
// have been accepted and the caller must not consider the batch fed.
func (s *Service) Submit(ctx context.Context, batch domain.PriceBatch) (Receipt, error) {
	if batch.IsEmpty() {
		return Receipt{}, ErrEmptyBatch
	}

	values, err := toOracleValues(batch)
	if err != nil {
		return Receipt{}, err
	}

	protocol, err := s.Protocol(ctx)
	if err != nil {
		return Receipt{}, err
	}

	var receipt Receipt
	switch protocol.Kind {
	case domain.ProtocolUnsignedBatch:
		receipt, err = s.submitUnsigned(ctx, values)
	case domain.ProtocolSignedIndexed:
		receipt, err = s.submitSigned(ctx, protocol, values)
	default:
		err = ports.ErrProtocolUnsupported
	}

	stats.Submissions.WithLabelValues(protocol.String(), stats.Result(err)).Inc()
	if err != nil {
		if errors.Is(err, ports.ErrProtocolMismatch) {
			s.log.WithError(err).Warn("oracle protocol rejected by ledger, renegotiating on next submission")
			s.resetProtocol()
		}
		return Receipt{}, err
	}

	receipt.Protocol = protocol
	receipt.Values = values
	return receipt, nil
}

func (s *Service) submitUnsigned(
	ctx context.Context, values []domain.OracleValue,
) (Receipt, error) {
	inBlock, err := s.ledger.FeedValues(ctx, s.oracle, values)
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to feed values: %w", err)
	}
	return Receipt{TxHash: inBlock.TxHash, BlockHash: inBlock.BlockHash}, nil
}

func (s *Service) submitSigned(
	ctx context.Context, protocol domain.OracleProtocol, values []domain.OracleValue,
) (Receipt, error) {
	address := s.signer.Address()

	members, err := s.ledger.OracleMembers(ctx, s.oracle)
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to get oracle members: %w", err)
	}
	index := -1
	for i, m := range members {
		if m == address {
			index = i
			break
		}
	}
	if index < 0 {
		return Receipt{}, fmt.Errorf("%w: %s is not a member of oracle %s", ErrNotOperator, address, s.oracle)
	}

	// never cached, every attempt reads the current nonce.
	nonce, err := s.ledger.AccountNonce(ctx, s.oracle, address)
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to get account nonce: %w", err)
	}

	var blockHeight *uint32
	if protocol.RequiresBlockHeight {
		height, err := s.ledger.BlockHeight(ctx)
		if err != nil {
			return Receipt{}, fmt.Errorf("failed to get block height: %w", err)
		}
		blockHeight = &height
	}

	payload, err := encodePayload(nonce, blockHeight, values)
	if err != nil {
		return Receipt{}, err
	}

	feed := ports.SignedFeed{
		Values:      values,
		Index:       uint32(index),
		Nonce:       nonce,
		BlockHeight: blockHeight,
		Signature:   s.signer.Sign(payload),
	}
	txHash, err := s.ledger.FeedSignedValues(ctx, s.oracle, feed)
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to feed signed values: %w", err)
	}

	return Receipt{TxHash: txHash, Nonce: nonce, Index: uint32(index)}, nil
}

func toOracleValues(batch domain.PriceBatch) ([]domain.OracleValue, error) {
	values := make([]domain.OracleValue, 0, len(batch.Quotes))
	for _, q := range batch.Quotes {
		v, err := mathutil.ToBaseUnitString(q.Price)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", q.Symbol, err)
		}
		values = append(values, domain.OracleValue{Currency: q.Currency, Value: v})
	}
	return values, nil
}

func encodePayload(nonce uint32, blockHeight *uint32, values []domain.OracleValue) ([]byte, error) {
	signerValues := make([]signer.Value, 0, len(values))
	for _, v := range values {
		amount, ok := new(big.Int).SetString(v.Value, 10)
		if !ok {
			return nil, fmt.Errorf("%w: %q", mathutil.ErrInvalidBaseUnit, v.Value)
		}
		signerValues = append(signerValues, signer.Value{
			Currency: v.Currency.String(),
			Amount:   amount,
		})
	}
	return signer.EncodePayload(nonce, blockHeight, signerValues)
}
