package contract

import "time"

// Roles is the party set resolved by an external lookup, used only to fill
// gaps when a contract's first entry under-specifies its participants.
type Roles struct {
	Exporter  string
	Importer  string
	Logistics []string
}

// Merge folds one validated entry into the prior snapshot and returns the
// next snapshot. It is a pure function of its inputs: the prior snapshot is
// never mutated, and identical inputs always produce identical output.
//
// fallback is consulted only when prior is nil (first entry for the
// contract) and the entry itself does not name the party; it may be nil.
//
// Merge fails with ConflictError when an addLogistic names a participant
// already present, or a removeLogistic names one that is absent. On failure
// no state is produced and prior is untouched.
func Merge(prior *State, entry *LogEntry, fallback *Roles, now time.Time) (*State, error) {
	payload, err := DecodePayload(entry.Action, entry.Extra)
	if err != nil {
		return nil, err
	}

	var next *State
	if prior == nil {
		next = synthesizeInitial(entry, fallback)
	} else {
		next = prior.Clone()
		if exporter := stringField(entry.Extra, "exporter"); exporter != "" {
			next.Exporter = NormalizeAddress(exporter)
		}
		if importer := stringField(entry.Extra, "importer"); importer != "" {
			next.Importer = NormalizeAddress(importer)
		}
	}

	switch p := payload.(type) {
	case AddLogisticPayload:
		if next.HasLogistic(p.Logistic) {
			return nil, &ConflictError{Reason: "logistic already added: " + p.Logistic}
		}
		next.Logistics = append(next.Logistics, p.Logistic)
	case RemoveLogisticPayload:
		if !next.HasLogistic(p.Logistic) {
			return nil, &ConflictError{Reason: "logistic not found: " + p.Logistic}
		}
		kept := make([]string, 0, len(next.Logistics)-1)
		for _, l := range next.Logistics {
			if l != p.Logistic {
				kept = append(kept, l)
			}
		}
		next.Logistics = kept
	}

	next.Status = entry.Action.Canonical()
	if stage, ok := stageField(entry.Extra); ok {
		next.CurrentStage = stage
	}
	next.LastUpdated = now.UnixMilli()
	return next, nil
}

func synthesizeInitial(entry *LogEntry, fallback *Roles) *State {
	s := &State{
		ContractAddress: entry.ContractAddress,
		Exporter:        NormalizeAddress(stringField(entry.Extra, "exporter")),
		Importer:        NormalizeAddress(stringField(entry.Extra, "importer")),
		Logistics:       stringSliceField(entry.Extra, "logistics"),
		CurrentStage:    DefaultStage,
	}
	if s.Logistics == nil {
		s.Logistics = []string{}
	}
	if fallback != nil {
		if s.Exporter == "" {
			s.Exporter = NormalizeAddress(fallback.Exporter)
		}
		if s.Importer == "" {
			s.Importer = NormalizeAddress(fallback.Importer)
		}
		if len(s.Logistics) == 0 {
			for _, l := range fallback.Logistics {
				if l != "" {
					s.Logistics = append(s.Logistics, NormalizeAddress(l))
				}
			}
		}
	}
	return s
}
