package contract

// StepActions is the fixed lifecycle-step vocabulary. Completion flags
// derive from history and are monotonic: once a step is seen, a later entry
// of a different action never resets it.
var StepActions = []Action{
	ActionDeploy,
	ActionDeposit,
	ActionApproveImporter,
	ActionApproveExporter,
	ActionFinalize,
}

// StepReport is the derived step-completion view of one contract.
type StepReport struct {
	StepStatus map[Action]bool `json:"stepStatus"`
	LastAction *LogEntry       `json:"lastAction"`
}

// DeriveStepStatus scans the ordered history once and flags every lifecycle
// step that has occurred. Legacy snake_case action spellings count toward
// their canonical step. The derivation is read-only and may be recomputed
// from stored history at any time.
func DeriveStepStatus(history []*LogEntry) StepReport {
	status := make(map[Action]bool, len(StepActions))
	for _, a := range StepActions {
		status[a] = false
	}
	for _, entry := range history {
		action := entry.Action.Canonical()
		if _, ok := status[action]; ok {
			status[action] = true
		}
	}
	report := StepReport{StepStatus: status}
	if len(history) > 0 {
		report.LastAction = history[len(history)-1]
	}
	return report
}
