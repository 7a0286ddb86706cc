package notify

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/Knetic/govaluate"
	"github.com/rs/zerolog"

	"github.com/zephyra-labs/tradeledger/internal/domain/contract"
	"github.com/zephyra-labs/tradeledger/internal/domain/notification"
)

// Service fans merged-entry events out to the contract's current
// participants, and to administrators when the configured rule matches.
// Delivery is best effort and runs after the state commit; failures are
// logged and never surfaced to the submitter.
type Service struct {
	hub       notification.Broadcaster
	publisher notification.Publisher
	admins    []string
	adminRule string
	logger    zerolog.Logger
}

// NewService creates a notify service. hub and publisher may be nil.
// adminRule is a boolean expression over the event fields (action, stage,
// verified, actor, contract); an empty rule notifies admins on every merge.
func NewService(
	hub notification.Broadcaster,
	publisher notification.Publisher,
	admins []string,
	adminRule string,
	logger zerolog.Logger,
) *Service {
	return &Service{
		hub:       hub,
		publisher: publisher,
		admins:    admins,
		adminRule: adminRule,
		logger:    logger.With().Str("service", "notify").Logger(),
	}
}

// EntryMerged dispatches the fan-out asynchronously.
func (s *Service) EntryMerged(entry *contract.LogEntry, state *contract.State) {
	go s.dispatch(entry, state)
}

func (s *Service) dispatch(entry *contract.LogEntry, state *contract.State) {
	event := notification.NewEvent(
		entry.ContractAddress,
		string(entry.Action),
		entry.ActorAddress,
		state.CurrentStage,
		entry.OnChainInfo != nil && entry.OnChainInfo.Status == contract.VerificationSuccess,
		entry.Timestamp,
	)

	recipients := state.Participants()
	if matched, err := EvaluateRule(s.adminRule, event); err != nil {
		s.logger.Warn().Err(err).Str("rule", s.adminRule).Msg("admin rule evaluation failed; skipping admins")
	} else if matched {
		recipients = appendUnique(recipients, s.admins)
	}

	if s.hub != nil && len(recipients) > 0 {
		data, err := json.Marshal(event)
		if err == nil {
			s.hub.BroadcastToRecipients(recipients, notification.NewSSEMessage("contract.log", data))
		}
	}

	if s.publisher != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn().Err(err).
				Str("contract", event.ContractAddress).
				Str("action", event.Action).
				Msg("event publish failed")
		}
	}
}

// EvaluateRule evaluates a boolean expression against an event. An empty
// rule matches everything; "true"/"false" literals short-circuit.
func EvaluateRule(rule string, event *notification.Event) (bool, error) {
	rule = strings.TrimSpace(rule)
	if rule == "" {
		return true, nil
	}
	switch strings.ToLower(rule) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}

	expr, err := govaluate.NewEvaluableExpression(rule)
	if err != nil {
		return false, err
	}
	result, err := expr.Evaluate(map[string]interface{}{
		"action":   event.Action,
		"stage":    event.Stage,
		"verified": event.Verified,
		"actor":    event.ActorAddress,
		"contract": event.ContractAddress,
	})
	if err != nil {
		return false, err
	}
	b, ok := result.(bool)
	if !ok {
		return false, &ruleTypeError{rule: rule}
	}
	return b, nil
}

type ruleTypeError struct {
	rule string
}

func (e *ruleTypeError) Error() string {
	return "rule did not evaluate to boolean: " + e.rule
}

func appendUnique(base []string, extra []string) []string {
	seen := make(map[string]struct{}, len(base))
	for _, v := range base {
		seen[v] = struct{}{}
	}
	for _, v := range extra {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		base = append(base, v)
	}
	return base
}
