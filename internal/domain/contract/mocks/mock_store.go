package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/zephyra-labs/tradeledger/internal/domain/contract"
)

// MockStore is a mock implementation of contract.Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetSnapshot(ctx context.Context, address string) (*contract.State, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contract.State), args.Error(1)
}

func (m *MockStore) GetHistory(ctx context.Context, address string) ([]*contract.LogEntry, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*contract.LogEntry), args.Error(1)
}

func (m *MockStore) AppendAndCommit(ctx context.Context, address string, entry *contract.LogEntry, next *contract.State) error {
	args := m.Called(ctx, address, entry, next)
	return args.Error(0)
}

// MockRoleResolver is a mock implementation of contract.RoleResolver
type MockRoleResolver struct {
	mock.Mock
}

func (m *MockRoleResolver) ResolveRoles(ctx context.Context, address string) (*contract.Roles, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contract.Roles), args.Error(1)
}
