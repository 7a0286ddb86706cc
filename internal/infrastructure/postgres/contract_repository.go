package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zephyra-labs/tradeledger/internal/domain/contract"
)

// ContractRepository implements contract.Store on Postgres. The append-only
// history lives in contract_log_entries; the latest snapshot per contract in
// contract_snapshots. AppendAndCommit runs both writes in one transaction.
type ContractRepository struct {
	pool *pgxpool.Pool
}

func NewContractRepository(pool *pgxpool.Pool) *ContractRepository {
	return &ContractRepository{pool: pool}
}

func (r *ContractRepository) GetSnapshot(ctx context.Context, address string) (*contract.State, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT contract_address, exporter, importer, logistics, status, current_stage, last_updated
		FROM contract_snapshots WHERE contract_address=$1
	`, address)
	return scanSnapshot(row)
}

func (r *ContractRepository) GetHistory(ctx context.Context, address string) ([]*contract.LogEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT entry_id, contract_address, action, transaction_hash, actor_address, ts, extra, on_chain_info
		FROM contract_log_entries WHERE contract_address=$1 ORDER BY ts ASC, id ASC
	`, address)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []*contract.LogEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, entry)
	}
	return history, rows.Err()
}

func (r *ContractRepository) AppendAndCommit(ctx context.Context, address string, entry *contract.LogEntry, next *contract.State) error {
	extra, err := json.Marshal(entry.Extra)
	if err != nil {
		return fmt.Errorf("failed to encode extra: %w", err)
	}
	var onChain []byte
	if entry.OnChainInfo != nil {
		onChain, err = json.Marshal(entry.OnChainInfo)
		if err != nil {
			return fmt.Errorf("failed to encode onChainInfo: %w", err)
		}
	}
	logistics, err := json.Marshal(next.Logistics)
	if err != nil {
		return fmt.Errorf("failed to encode logistics: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO contract_log_entries
		(entry_id, contract_address, action, transaction_hash, actor_address, ts, extra, on_chain_info)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, entry.EntryID, address, entry.Action, entry.TransactionHash, entry.ActorAddress, entry.Timestamp, extra, onChain); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO contract_snapshots
		(contract_address, exporter, importer, logistics, status, current_stage, last_updated)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (contract_address) DO UPDATE SET
			exporter=EXCLUDED.exporter,
			importer=EXCLUDED.importer,
			logistics=EXCLUDED.logistics,
			status=EXCLUDED.status,
			current_stage=EXCLUDED.current_stage,
			last_updated=EXCLUDED.last_updated
	`, address, next.Exporter, next.Importer, logistics, next.Status, next.CurrentStage, next.LastUpdated); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func scanSnapshot(row pgx.Row) (*contract.State, error) {
	var state contract.State
	var logistics []byte
	if err := row.Scan(&state.ContractAddress, &state.Exporter, &state.Importer, &logistics, &state.Status, &state.CurrentStage, &state.LastUpdated); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if len(logistics) > 0 {
		if err := json.Unmarshal(logistics, &state.Logistics); err != nil {
			return nil, fmt.Errorf("failed to decode logistics: %w", err)
		}
	}
	if state.Logistics == nil {
		state.Logistics = []string{}
	}
	return &state, nil
}

func scanEntry(row pgx.Row) (*contract.LogEntry, error) {
	var entry contract.LogEntry
	var extra, onChain []byte
	if err := row.Scan(&entry.EntryID, &entry.ContractAddress, &entry.Action, &entry.TransactionHash, &entry.ActorAddress, &entry.Timestamp, &extra, &onChain); err != nil {
		return nil, err
	}
	if len(extra) > 0 {
		if err := json.Unmarshal(extra, &entry.Extra); err != nil {
			return nil, fmt.Errorf("failed to decode extra: %w", err)
		}
	}
	if len(onChain) > 0 {
		entry.OnChainInfo = &contract.OnChainInfo{}
		if err := json.Unmarshal(onChain, entry.OnChainInfo); err != nil {
			return nil, fmt.Errorf("failed to decode onChainInfo: %w", err)
		}
	}
	return &entry, nil
}
