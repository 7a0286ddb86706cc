package contract

import "context"

// Store persists the append-only history and the latest snapshot per
// contract. AppendAndCommit must be atomic: the history append and the
// snapshot replace happen together or not at all.
type Store interface {
	GetSnapshot(ctx context.Context, address string) (*State, error)
	GetHistory(ctx context.Context, address string) ([]*LogEntry, error)
	AppendAndCommit(ctx context.Context, address string, entry *LogEntry, next *State) error
}

// RoleResolver looks up a contract's registered parties. It is consulted
// only when an incoming first entry under-specifies the roles.
type RoleResolver interface {
	ResolveRoles(ctx context.Context, address string) (*Roles, error)
}
