package verifier

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/zephyra-labs/tradeledger/internal/domain/chain"
)

// DefaultTimeout bounds one verification round-trip.
const DefaultTimeout = 5 * time.Second

// Service cross-checks a transaction hash against a blockchain node. It is
// advisory: every failure mode degrades to "verification unavailable" (a nil
// result), never to an error the caller must handle.
type Service struct {
	client  chain.Client
	timeout time.Duration
	logger  zerolog.Logger
}

// NewService creates a verifier around an injected node client.
func NewService(client chain.Client, timeout time.Duration, logger zerolog.Logger) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{
		client:  client,
		timeout: timeout,
		logger:  logger.With().Str("service", "verifier").Logger(),
	}
}

// Verify fetches the receipt and chain height for txHash and derives the
// confirmation count. A nil result means "unknown": the receipt does not
// exist yet, the transaction is still pending, or the provider failed. A nil
// result must never be read as "confirmed false".
func (s *Service) Verify(ctx context.Context, txHash string) *chain.Verification {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	receipt, err := s.client.TransactionReceipt(ctx, txHash)
	if err != nil {
		s.logger.Warn().Err(err).Str("txHash", txHash).Msg("receipt lookup failed; verification unavailable")
		return nil
	}
	if receipt == nil || receipt.BlockNumber == nil {
		return nil
	}

	height, err := s.client.ChainHeight(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Str("txHash", txHash).Msg("chain height lookup failed; verification unavailable")
		return nil
	}

	block := *receipt.BlockNumber
	confirmations := uint64(1)
	if height > block {
		confirmations = height - block + 1
	}
	return &chain.Verification{
		Succeeded:     receipt.Succeeded,
		BlockNumber:   block,
		Confirmations: confirmations,
	}
}
