package contract

import "strings"

// Payload is the action-specific content decoded from an entry's extra bag.
// Known actions get a typed payload validated at the boundary; everything
// else falls back to GenericPayload.
type Payload interface {
	isPayload()
}

// DeployPayload seeds the initial contract roles.
type DeployPayload struct {
	Exporter       string
	Importer       string
	Logistics      []string
	RequiredAmount string
}

// DepositPayload carries the deposited amount, informational only.
type DepositPayload struct {
	RequiredAmount string
}

// AddLogisticPayload adds one logistics participant.
type AddLogisticPayload struct {
	Logistic string
}

// RemoveLogisticPayload removes one logistics participant.
type RemoveLogisticPayload struct {
	Logistic string
}

// GenericPayload carries the raw extra bag for free-form actions.
type GenericPayload map[string]any

func (DeployPayload) isPayload()         {}
func (DepositPayload) isPayload()        {}
func (AddLogisticPayload) isPayload()    {}
func (RemoveLogisticPayload) isPayload() {}
func (GenericPayload) isPayload()        {}

// DecodePayload turns the open extra bag into the typed payload for the
// given action, validating action-specific required fields.
func DecodePayload(action Action, extra map[string]any) (Payload, error) {
	switch action.Canonical() {
	case ActionDeploy:
		return DeployPayload{
			Exporter:       stringField(extra, "exporter"),
			Importer:       stringField(extra, "importer"),
			Logistics:      stringSliceField(extra, "logistics"),
			RequiredAmount: stringField(extra, "requiredAmount"),
		}, nil
	case ActionDeposit:
		return DepositPayload{RequiredAmount: stringField(extra, "requiredAmount")}, nil
	case ActionAddLogistic:
		logistic := stringField(extra, "logistic")
		if logistic == "" {
			return nil, NewValidationError("extra.logistic", "is required for addLogistic")
		}
		return AddLogisticPayload{Logistic: NormalizeAddress(logistic)}, nil
	case ActionRemoveLogistic:
		logistic := stringField(extra, "logistic")
		if logistic == "" {
			return nil, NewValidationError("extra.logistic", "is required for removeLogistic")
		}
		return RemoveLogisticPayload{Logistic: NormalizeAddress(logistic)}, nil
	default:
		return GenericPayload(extra), nil
	}
}

// stringField returns a trimmed string value, or "" when the key is absent
// or holds a non-string.
func stringField(extra map[string]any, key string) string {
	if extra == nil {
		return ""
	}
	if v, ok := extra[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// stringSliceField accepts either a JSON array of strings or a single
// comma-separated string.
func stringSliceField(extra map[string]any, key string) []string {
	if extra == nil {
		return nil
	}
	switch v := extra[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, NormalizeAddress(strings.TrimSpace(s)))
			}
		}
		return out
	case []string:
		out := make([]string, 0, len(v))
		for _, s := range v {
			if strings.TrimSpace(s) != "" {
				out = append(out, NormalizeAddress(strings.TrimSpace(s)))
			}
		}
		return out
	case string:
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if strings.TrimSpace(p) != "" {
				out = append(out, NormalizeAddress(strings.TrimSpace(p)))
			}
		}
		return out
	default:
		return nil
	}
}

// stageField returns the stage marker carried by an entry, if any. Only
// string values count; anything else keeps the prior stage.
func stageField(extra map[string]any) (string, bool) {
	if extra == nil {
		return "", false
	}
	s, ok := extra["stage"].(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return strings.TrimSpace(s), true
}
