package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func historyOf(actions ...Action) []*LogEntry {
	history := make([]*LogEntry, 0, len(actions))
	for i, a := range actions {
		history = append(history, &LogEntry{
			ContractAddress: "0xC1",
			Action:          a,
			TransactionHash: "0x1",
			ActorAddress:    "0xE",
			Timestamp:       int64(i + 1),
		})
	}
	return history
}

func TestDeriveStepStatus(t *testing.T) {
	report := DeriveStepStatus(historyOf(ActionDeploy, ActionDeposit, ActionApproveImporter))

	assert.Equal(t, map[Action]bool{
		ActionDeploy:          true,
		ActionDeposit:         true,
		ActionApproveImporter: true,
		ActionApproveExporter: false,
		ActionFinalize:        false,
	}, report.StepStatus)
	require.NotNil(t, report.LastAction)
	assert.Equal(t, ActionApproveImporter, report.LastAction.Action)
}

func TestDeriveStepStatusEmptyHistory(t *testing.T) {
	report := DeriveStepStatus(nil)
	assert.Nil(t, report.LastAction)
	for _, a := range StepActions {
		assert.False(t, report.StepStatus[a])
	}
}

func TestDeriveStepStatusLegacySpellings(t *testing.T) {
	report := DeriveStepStatus(historyOf("approve_importer", "approve_exporter"))
	assert.True(t, report.StepStatus[ActionApproveImporter])
	assert.True(t, report.StepStatus[ActionApproveExporter])
}

func TestDeriveStepStatusIgnoresUnknownActions(t *testing.T) {
	report := DeriveStepStatus(historyOf(ActionDeploy, "customInspection"))
	assert.True(t, report.StepStatus[ActionDeploy])
	assert.Len(t, report.StepStatus, len(StepActions))
	assert.Equal(t, Action("customInspection"), report.LastAction.Action)
}

func TestDeriveStepStatusMonotonicOverPrefixes(t *testing.T) {
	history := historyOf(
		ActionDeploy, ActionDeposit, "customInspection", ActionApproveImporter,
		ActionApproveExporter, "stageAdvance", ActionFinalize,
	)
	prev := map[Action]bool{}
	for i := 0; i <= len(history); i++ {
		report := DeriveStepStatus(history[:i])
		for action, wasSet := range prev {
			if wasSet {
				assert.True(t, report.StepStatus[action], "flag %s reset at prefix %d", action, i)
			}
		}
		prev = report.StepStatus
	}
}

func TestDeriveStepStatusIdempotent(t *testing.T) {
	history := historyOf(ActionDeploy, ActionDeposit, ActionFinalize)
	first := DeriveStepStatus(history)
	second := DeriveStepStatus(history)
	assert.Equal(t, first, second)
}
