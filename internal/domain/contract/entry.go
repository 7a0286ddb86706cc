package contract

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Action tags one recorded lifecycle action. Beyond the fixed vocabulary,
// free-form tags are accepted and recorded verbatim.
type Action string

const (
	ActionDeploy          Action = "deploy"
	ActionDeposit         Action = "deposit"
	ActionApproveImporter Action = "approveImporter"
	ActionApproveExporter Action = "approveExporter"
	ActionFinalize        Action = "finalize"
	ActionAddLogistic     Action = "addLogistic"
	ActionRemoveLogistic  Action = "removeLogistic"
)

// legacy snake_case spellings still arrive from older submitters
var legacyActions = map[Action]Action{
	"approve_importer": ActionApproveImporter,
	"approve_exporter": ActionApproveExporter,
	"add_logistic":     ActionAddLogistic,
	"remove_logistic":  ActionRemoveLogistic,
}

// Canonical maps legacy spellings onto the canonical action tag. Unknown
// tags pass through unchanged.
func (a Action) Canonical() Action {
	if c, ok := legacyActions[a]; ok {
		return c
	}
	return a
}

// VerificationStatus is the on-chain outcome recorded alongside an entry.
type VerificationStatus string

const (
	VerificationSuccess VerificationStatus = "success"
	VerificationFailed  VerificationStatus = "failed"
)

// OnChainInfo is the optional receipt-derived verification attached to an
// entry. Its absence means "unknown", never "failed".
type OnChainInfo struct {
	Status        VerificationStatus `json:"status"`
	BlockNumber   uint64             `json:"blockNumber"`
	Confirmations uint64             `json:"confirmations"`
}

// LogEntry is one immutable recorded fact about a contract. Once persisted
// it is never mutated or deleted; history is append-only, ordered by arrival.
type LogEntry struct {
	EntryID         uuid.UUID      `json:"entryId"`
	ContractAddress string         `json:"contractAddress"`
	Action          Action         `json:"action"`
	TransactionHash string         `json:"transactionHash"`
	ActorAddress    string         `json:"actorAddress"`
	Timestamp       int64          `json:"timestamp"`
	Extra           map[string]any `json:"extra,omitempty"`
	OnChainInfo     *OnChainInfo   `json:"onChainInfo,omitempty"`
}

// Normalize validates required fields and fills server-assigned defaults.
// The timestamp is set to now (milliseconds) when the submitter left it
// unset. Addresses are checksum-normalized when they are full hex addresses.
func (e *LogEntry) Normalize(now time.Time) error {
	e.ContractAddress = strings.TrimSpace(e.ContractAddress)
	e.TransactionHash = strings.TrimSpace(e.TransactionHash)
	e.ActorAddress = strings.TrimSpace(e.ActorAddress)
	e.Action = Action(strings.TrimSpace(string(e.Action))).Canonical()

	if e.ContractAddress == "" {
		return NewValidationError("contractAddress", "is required")
	}
	if e.Action == "" {
		return NewValidationError("action", "is required")
	}
	if e.TransactionHash == "" {
		return NewValidationError("transactionHash", "is required")
	}
	if e.ActorAddress == "" {
		return NewValidationError("actorAddress", "is required")
	}

	// reject entries whose action-specific payload is unusable up front, so
	// nothing malformed reaches the merge
	if _, err := DecodePayload(e.Action, e.Extra); err != nil {
		return err
	}

	e.ContractAddress = NormalizeAddress(e.ContractAddress)
	e.ActorAddress = NormalizeAddress(e.ActorAddress)

	if e.EntryID == uuid.Nil {
		e.EntryID = uuid.New()
	}
	if e.Timestamp == 0 {
		e.Timestamp = now.UnixMilli()
	}
	return nil
}
