package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zephyra-labs/tradeledger/internal/domain/contract"
)

// PartyRepository implements contract.RoleResolver over the registered
// party table maintained by the contract-management surface.
type PartyRepository struct {
	pool *pgxpool.Pool
}

func NewPartyRepository(pool *pgxpool.Pool) *PartyRepository {
	return &PartyRepository{pool: pool}
}

func (r *PartyRepository) ResolveRoles(ctx context.Context, address string) (*contract.Roles, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT role, party_address FROM contract_parties WHERE contract_address=$1 ORDER BY id ASC
	`, address)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := &contract.Roles{}
	for rows.Next() {
		var role, party string
		if err := rows.Scan(&role, &party); err != nil {
			return nil, err
		}
		switch role {
		case "exporter":
			roles.Exporter = party
		case "importer":
			roles.Importer = party
		case "logistic":
			roles.Logistics = append(roles.Logistics, party)
		}
	}
	return roles, rows.Err()
}
