package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/zephyra-labs/tradeledger/internal/domain/chain"
	"github.com/zephyra-labs/tradeledger/internal/domain/contract"
)

// Verifier cross-checks a transaction hash on-chain. A nil result means the
// verification outcome is unknown; submission proceeds regardless.
type Verifier interface {
	Verify(ctx context.Context, txHash string) *chain.Verification
}

// EventSink is informed after a merge commits. Implementations must not
// block; their failures never surface to the submitter.
type EventSink interface {
	EntryMerged(entry *contract.LogEntry, state *contract.State)
}

// Service is the log-merge engine: it validates candidate entries, folds
// them into per-contract snapshots, and serves snapshot and step-status
// reads. Writes to the same contract address are serialized; distinct
// addresses proceed in parallel.
type Service struct {
	store    contract.Store
	roles    contract.RoleResolver
	verifier Verifier
	sink     EventSink
	locks    *keyedMutex
	logger   zerolog.Logger
}

// NewService creates the ledger service. roles, verifier and sink may be nil
// when the corresponding collaborator is not deployed.
func NewService(
	store contract.Store,
	roles contract.RoleResolver,
	verifier Verifier,
	sink EventSink,
	logger zerolog.Logger,
) *Service {
	return &Service{
		store:    store,
		roles:    roles,
		verifier: verifier,
		sink:     sink,
		locks:    newKeyedMutex(),
		logger:   logger.With().Str("service", "ledger").Logger(),
	}
}

// SubmitInput is one candidate log entry.
type SubmitInput struct {
	Entry         *contract.LogEntry
	VerifyOnChain bool
}

// Submit validates the candidate, optionally verifies it on-chain, merges it
// into the contract's snapshot and commits entry plus snapshot atomically.
// Validation and conflict failures abort before any persistence; store
// failures abort the whole operation and propagate.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*contract.LogEntry, error) {
	if in.Entry == nil {
		return nil, contract.NewValidationError("entry", "is required")
	}
	entry := *in.Entry
	now := time.Now().UTC()
	if err := entry.Normalize(now); err != nil {
		return nil, err
	}

	if in.VerifyOnChain && s.verifier != nil {
		if v := s.verifier.Verify(ctx, entry.TransactionHash); v != nil {
			entry.OnChainInfo = onChainInfo(v)
		} else {
			s.logger.Debug().
				Str("txHash", entry.TransactionHash).
				Msg("on-chain verification unavailable; accepting entry without it")
		}
	}

	unlock := s.locks.lock(entry.ContractAddress)
	defer unlock()

	prior, err := s.store.GetSnapshot(ctx, entry.ContractAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var fallback *contract.Roles
	if prior == nil {
		fallback = s.resolveFallbackRoles(ctx, &entry)
	}

	next, err := contract.Merge(prior, &entry, fallback, now)
	if err != nil {
		return nil, err
	}

	if err := s.store.AppendAndCommit(ctx, entry.ContractAddress, &entry, next); err != nil {
		return nil, fmt.Errorf("failed to commit log entry: %w", err)
	}

	s.logger.Info().
		Str("contract", entry.ContractAddress).
		Str("action", string(entry.Action)).
		Str("actor", entry.ActorAddress).
		Bool("verified", entry.OnChainInfo != nil).
		Msg("log entry merged")

	if s.sink != nil {
		s.sink.EntryMerged(&entry, next)
	}
	return &entry, nil
}

// GetSnapshot returns the latest snapshot for address.
func (s *Service) GetSnapshot(ctx context.Context, address string) (*contract.State, error) {
	address = contract.NormalizeAddress(address)
	state, err := s.store.GetSnapshot(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if state == nil {
		return nil, &contract.NotFoundError{Address: address}
	}
	return state, nil
}

// GetStepStatus replays the stored history and derives the step-completion
// flags plus the most recent action.
func (s *Service) GetStepStatus(ctx context.Context, address string) (*contract.StepReport, error) {
	history, err := s.GetHistory(ctx, address)
	if err != nil {
		return nil, err
	}
	report := contract.DeriveStepStatus(history)
	return &report, nil
}

// GetHistory returns the ordered append-only history for address.
func (s *Service) GetHistory(ctx context.Context, address string) ([]*contract.LogEntry, error) {
	address = contract.NormalizeAddress(address)
	history, err := s.store.GetHistory(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if len(history) == 0 {
		return nil, &contract.NotFoundError{Address: address}
	}
	return history, nil
}

// resolveFallbackRoles consults the role lookup when a first entry does not
// name its parties. Lookup failures are logged and skipped: missing roles
// are a legal state, not a reason to reject the entry.
func (s *Service) resolveFallbackRoles(ctx context.Context, entry *contract.LogEntry) *contract.Roles {
	if s.roles == nil {
		return nil
	}
	exporter, _ := entry.Extra["exporter"].(string)
	importer, _ := entry.Extra["importer"].(string)
	if exporter != "" && importer != "" {
		return nil
	}
	roles, err := s.roles.ResolveRoles(ctx, entry.ContractAddress)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("contract", entry.ContractAddress).
			Msg("role lookup failed; proceeding with submitted fields only")
		return nil
	}
	return roles
}

func onChainInfo(v *chain.Verification) *contract.OnChainInfo {
	status := contract.VerificationSuccess
	if !v.Succeeded {
		status = contract.VerificationFailed
	}
	return &contract.OnChainInfo{
		Status:        status,
		BlockNumber:   v.BlockNumber,
		Confirmations: v.Confirmations,
	}
}
