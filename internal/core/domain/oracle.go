package domain

// ProtocolKind identifies one of the submission protocols an oracle ledger
// may accept.
type ProtocolKind int

const (
	// ProtocolUnsignedBatch feeds values through a transaction signed by the
	// operator account, waiting for inclusion in a block.
	ProtocolUnsignedBatch ProtocolKind = iota + 1
	// ProtocolSignedIndexed feeds values with an explicit operator signature
	// over (nonce, [block height,] values) and the operator's member index.
	ProtocolSignedIndexed
)

// OracleProtocol is the submission protocol negotiated with the ledger.
type OracleProtocol struct {
	Kind ProtocolKind
	// RequiresBlockHeight is meaningful only for ProtocolSignedIndexed.
	RequiresBlockHeight bool
}

func (p OracleProtocol) IsZero() bool {
	return p.Kind == 0
}

func (p OracleProtocol) String() string {
	switch p.Kind {
	case ProtocolUnsignedBatch:
		return "unsigned_batch"
	case ProtocolSignedIndexed:
		if p.RequiresBlockHeight {
			return "signed_indexed_at"
		}
		return "signed_indexed"
	default:
		return "unknown"
	}
}

// OracleValue is a currency value in its 18-decimal base unit integer form.
type OracleValue struct {
	Currency Currency `json:"currency"`
	Value    string   `json:"value"`
}
