package chain

import "context"

// Receipt is the relevant slice of a transaction receipt. BlockNumber is
// nil while the transaction is still pending.
type Receipt struct {
	TxHash      string
	Succeeded   bool
	BlockNumber *uint64
}

// Verification is the derived on-chain confirmation for one transaction.
type Verification struct {
	Succeeded     bool
	BlockNumber   uint64
	Confirmations uint64
}

// Client is a read-only blockchain node client. Implementations must return
// (nil, nil) from TransactionReceipt when the node does not know the
// transaction yet; that is "not yet confirmed", not an error.
type Client interface {
	TransactionReceipt(ctx context.Context, txHash string) (*Receipt, error)
	ChainHeight(ctx context.Context) (uint64, error)
}
