package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zephyra-labs/tradeledger/internal/domain/chain"
	"github.com/zephyra-labs/tradeledger/internal/domain/contract"
	contractMocks "github.com/zephyra-labs/tradeledger/internal/domain/contract/mocks"
)

type stubVerifier struct {
	result *chain.Verification
	calls  int
}

func (s *stubVerifier) Verify(ctx context.Context, txHash string) *chain.Verification {
	s.calls++
	return s.result
}

type recordingSink struct {
	mu      sync.Mutex
	entries []*contract.LogEntry
	states  []*contract.State
}

func (r *recordingSink) EntryMerged(entry *contract.LogEntry, state *contract.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	r.states = append(r.states, state)
}

func deployInput(address string) SubmitInput {
	return SubmitInput{
		Entry: &contract.LogEntry{
			ContractAddress: address,
			Action:          contract.ActionDeploy,
			TransactionHash: "0xabc",
			ActorAddress:    "0xE",
			Extra:           map[string]any{"exporter": "0xE", "importer": "0xI"},
		},
	}
}

func TestSubmitFirstEntry(t *testing.T) {
	store := new(contractMocks.MockStore)
	sink := &recordingSink{}
	svc := NewService(store, nil, nil, sink, zerolog.Nop())

	store.On("GetSnapshot", mock.Anything, "0xC1").Return(nil, nil)
	store.On("AppendAndCommit", mock.Anything, "0xC1", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			next := args.Get(3).(*contract.State)
			assert.Equal(t, contract.ActionDeploy, next.Status)
			assert.Equal(t, "1", next.CurrentStage)
			assert.Equal(t, "0xE", next.Exporter)
		}).
		Return(nil)

	entry, err := svc.Submit(context.Background(), deployInput("0xC1"))
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.NotZero(t, entry.Timestamp)
	assert.Len(t, sink.entries, 1)
	store.AssertExpectations(t)
}

func TestSubmitValidationFailureSkipsPersistence(t *testing.T) {
	store := new(contractMocks.MockStore)
	svc := NewService(store, nil, nil, nil, zerolog.Nop())

	in := deployInput("0xC1")
	in.Entry.TransactionHash = ""
	_, err := svc.Submit(context.Background(), in)
	require.Error(t, err)
	assert.True(t, contract.IsValidation(err))
	store.AssertNotCalled(t, "AppendAndCommit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitConflictSkipsPersistence(t *testing.T) {
	store := new(contractMocks.MockStore)
	svc := NewService(store, nil, nil, nil, zerolog.Nop())

	prior := &contract.State{
		ContractAddress: "0xC1",
		Exporter:        "0xE",
		Logistics:       []string{"0xL1"},
		Status:          contract.ActionAddLogistic,
		CurrentStage:    "1",
	}
	store.On("GetSnapshot", mock.Anything, "0xC1").Return(prior, nil)

	_, err := svc.Submit(context.Background(), SubmitInput{
		Entry: &contract.LogEntry{
			ContractAddress: "0xC1",
			Action:          contract.ActionAddLogistic,
			TransactionHash: "0x1",
			ActorAddress:    "0xE",
			Extra:           map[string]any{"logistic": "0xL1"},
		},
	})
	require.Error(t, err)
	assert.True(t, contract.IsConflict(err))
	store.AssertNotCalled(t, "AppendAndCommit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitStoreFailurePropagates(t *testing.T) {
	store := new(contractMocks.MockStore)
	sink := &recordingSink{}
	svc := NewService(store, nil, nil, sink, zerolog.Nop())

	store.On("GetSnapshot", mock.Anything, "0xC1").Return(nil, nil)
	store.On("AppendAndCommit", mock.Anything, "0xC1", mock.Anything, mock.Anything).
		Return(errors.New("connection refused"))

	_, err := svc.Submit(context.Background(), deployInput("0xC1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to commit")
	assert.Empty(t, sink.entries)
}

func TestSubmitVerificationAttached(t *testing.T) {
	store := new(contractMocks.MockStore)
	vf := &stubVerifier{result: &chain.Verification{Succeeded: true, BlockNumber: 90, Confirmations: 11}}
	svc := NewService(store, nil, vf, nil, zerolog.Nop())

	store.On("GetSnapshot", mock.Anything, "0xC1").Return(nil, nil)
	store.On("AppendAndCommit", mock.Anything, "0xC1", mock.Anything, mock.Anything).Return(nil)

	in := deployInput("0xC1")
	in.VerifyOnChain = true
	entry, err := svc.Submit(context.Background(), in)
	require.NoError(t, err)
	require.NotNil(t, entry.OnChainInfo)
	assert.Equal(t, contract.VerificationSuccess, entry.OnChainInfo.Status)
	assert.Equal(t, uint64(90), entry.OnChainInfo.BlockNumber)
	assert.Equal(t, uint64(11), entry.OnChainInfo.Confirmations)
	assert.Equal(t, 1, vf.calls)
}

func TestSubmitVerificationUnavailableStillAccepts(t *testing.T) {
	store := new(contractMocks.MockStore)
	vf := &stubVerifier{result: nil}
	svc := NewService(store, nil, vf, nil, zerolog.Nop())

	store.On("GetSnapshot", mock.Anything, "0xC1").Return(nil, nil)
	store.On("AppendAndCommit", mock.Anything, "0xC1", mock.Anything, mock.Anything).Return(nil)

	in := deployInput("0xC1")
	in.VerifyOnChain = true
	entry, err := svc.Submit(context.Background(), in)
	require.NoError(t, err)
	assert.Nil(t, entry.OnChainInfo)
}

func TestSubmitSkipsVerifierWhenNotRequested(t *testing.T) {
	store := new(contractMocks.MockStore)
	vf := &stubVerifier{result: &chain.Verification{Succeeded: true}}
	svc := NewService(store, nil, vf, nil, zerolog.Nop())

	store.On("GetSnapshot", mock.Anything, "0xC1").Return(nil, nil)
	store.On("AppendAndCommit", mock.Anything, "0xC1", mock.Anything, mock.Anything).Return(nil)

	entry, err := svc.Submit(context.Background(), deployInput("0xC1"))
	require.NoError(t, err)
	assert.Nil(t, entry.OnChainInfo)
	assert.Equal(t, 0, vf.calls)
}

func TestSubmitFallbackRoleResolution(t *testing.T) {
	store := new(contractMocks.MockStore)
	roles := new(contractMocks.MockRoleResolver)
	svc := NewService(store, roles, nil, nil, zerolog.Nop())

	store.On("GetSnapshot", mock.Anything, "0xC1").Return(nil, nil)
	roles.On("ResolveRoles", mock.Anything, "0xC1").
		Return(&contract.Roles{Exporter: "0xE", Importer: "0xI"}, nil)
	store.On("AppendAndCommit", mock.Anything, "0xC1", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			next := args.Get(3).(*contract.State)
			assert.Equal(t, "0xE", next.Exporter)
			assert.Equal(t, "0xI", next.Importer)
		}).
		Return(nil)

	_, err := svc.Submit(context.Background(), SubmitInput{
		Entry: &contract.LogEntry{
			ContractAddress: "0xC1",
			Action:          contract.ActionDeploy,
			TransactionHash: "0xabc",
			ActorAddress:    "0xE",
		},
	})
	require.NoError(t, err)
	roles.AssertExpectations(t)
}

func TestSubmitRoleLookupFailureIsNonFatal(t *testing.T) {
	store := new(contractMocks.MockStore)
	roles := new(contractMocks.MockRoleResolver)
	svc := NewService(store, roles, nil, nil, zerolog.Nop())

	store.On("GetSnapshot", mock.Anything, "0xC1").Return(nil, nil)
	roles.On("ResolveRoles", mock.Anything, "0xC1").Return(nil, errors.New("registry down"))
	store.On("AppendAndCommit", mock.Anything, "0xC1", mock.Anything, mock.Anything).Return(nil)

	_, err := svc.Submit(context.Background(), SubmitInput{
		Entry: &contract.LogEntry{
			ContractAddress: "0xC1",
			Action:          contract.ActionDeploy,
			TransactionHash: "0xabc",
			ActorAddress:    "0xE",
		},
	})
	require.NoError(t, err)
}

func TestGetSnapshotNotFound(t *testing.T) {
	store := new(contractMocks.MockStore)
	svc := NewService(store, nil, nil, nil, zerolog.Nop())

	store.On("GetSnapshot", mock.Anything, "0xNope").Return(nil, nil)
	_, err := svc.GetSnapshot(context.Background(), "0xNope")
	require.Error(t, err)
	assert.True(t, contract.IsNotFound(err))
}

func TestGetStepStatus(t *testing.T) {
	store := new(contractMocks.MockStore)
	svc := NewService(store, nil, nil, nil, zerolog.Nop())

	history := []*contract.LogEntry{
		{ContractAddress: "0xC1", Action: contract.ActionDeploy, TransactionHash: "0x1", ActorAddress: "0xE", Timestamp: 1},
		{ContractAddress: "0xC1", Action: contract.ActionDeposit, TransactionHash: "0x2", ActorAddress: "0xI", Timestamp: 2},
	}
	store.On("GetHistory", mock.Anything, "0xC1").Return(history, nil)

	report, err := svc.GetStepStatus(context.Background(), "0xC1")
	require.NoError(t, err)
	assert.True(t, report.StepStatus[contract.ActionDeploy])
	assert.True(t, report.StepStatus[contract.ActionDeposit])
	assert.False(t, report.StepStatus[contract.ActionFinalize])
	assert.Equal(t, contract.ActionDeposit, report.LastAction.Action)
}

func TestGetStepStatusNotFound(t *testing.T) {
	store := new(contractMocks.MockStore)
	svc := NewService(store, nil, nil, nil, zerolog.Nop())

	store.On("GetHistory", mock.Anything, "0xNope").Return([]*contract.LogEntry{}, nil)
	_, err := svc.GetStepStatus(context.Background(), "0xNope")
	require.Error(t, err)
	assert.True(t, contract.IsNotFound(err))
}

// memStore is an atomic in-memory Store used for concurrency tests.
type memStore struct {
	mu        sync.Mutex
	snapshots map[string]*contract.State
	history   map[string][]*contract.LogEntry
}

func newMemStore() *memStore {
	return &memStore{
		snapshots: make(map[string]*contract.State),
		history:   make(map[string][]*contract.LogEntry),
	}
}

func (m *memStore) GetSnapshot(ctx context.Context, address string) (*contract.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshots[address].Clone(), nil
}

func (m *memStore) GetHistory(ctx context.Context, address string) ([]*contract.LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*contract.LogEntry(nil), m.history[address]...), nil
}

func (m *memStore) AppendAndCommit(ctx context.Context, address string, entry *contract.LogEntry, next *contract.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history[address] = append(m.history[address], entry)
	m.snapshots[address] = next.Clone()
	return nil
}

func TestSubmitSerializesSameContract(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil, nil, nil, zerolog.Nop())

	_, err := svc.Submit(context.Background(), deployInput("0xC1"))
	require.NoError(t, err)

	addLogistic := func() error {
		_, err := svc.Submit(context.Background(), SubmitInput{
			Entry: &contract.LogEntry{
				ContractAddress: "0xC1",
				Action:          contract.ActionAddLogistic,
				TransactionHash: "0x2",
				ActorAddress:    "0xE",
				Extra:           map[string]any{"logistic": "0xL2"},
			},
		})
		return err
	}

	errs := make(chan error, 2)
	var start sync.WaitGroup
	start.Add(1)
	for i := 0; i < 2; i++ {
		go func() {
			start.Wait()
			errs <- addLogistic()
		}()
	}
	start.Done()

	var conflicts, successes int
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			assert.True(t, contract.IsConflict(err))
			conflicts++
		} else {
			successes++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)

	state, err := svc.GetSnapshot(context.Background(), "0xC1")
	require.NoError(t, err)
	assert.Equal(t, []string{"0xL2"}, state.Logistics)
}

func TestSubmitDifferentContractsProceedIndependently(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil, nil, nil, zerolog.Nop())

	var wg sync.WaitGroup
	for _, addr := range []string{"0xC1", "0xC2", "0xC3", "0xC4"} {
		wg.Add(1)
		go func(address string) {
			defer wg.Done()
			_, err := svc.Submit(context.Background(), deployInput(address))
			assert.NoError(t, err)
		}(addr)
	}
	wg.Wait()

	for _, addr := range []string{"0xC1", "0xC2", "0xC3", "0xC4"} {
		state, err := svc.GetSnapshot(context.Background(), addr)
		require.NoError(t, err)
		assert.Equal(t, contract.ActionDeploy, state.Status)
	}
}
