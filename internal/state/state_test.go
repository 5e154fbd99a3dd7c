package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	it := New("0001")

	assert.Equal(t, "0001", it.CurrentIteration)
	assert.Equal(t, "define", it.CurrentPhase)
	assert.Equal(t, GuardrailStrict, it.FlowGuardrail)
	assert.False(t, it.PrototypeApproved)
	assert.NotNil(t, it.History)
	assert.Empty(t, it.History)

	for _, path := range StepPaths {
		assert.Equal(t, StatusPending, it.StepStatus(path), path)
	}
}

func TestNextIterationID(t *testing.T) {
	tests := []struct {
		cur     string
		want    string
		wantErr bool
	}{
		{cur: "0001", want: "0002"},
		{cur: "0009", want: "0010"},
		{cur: "0099", want: "0100"},
		{cur: "9999", want: "10000"},
		{cur: "abc", wantErr: true},
		{cur: "", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.cur, func(t *testing.T) {
			got, err := NextIterationID(tc.cur)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestStepStatusAndFile(t *testing.T) {
	it := New("0001")
	it.Phases.Prototype.TestPlan = Step{Status: StatusPendingApproval, File: "docs/iterations/0001/test_plan.md"}

	assert.Equal(t, StatusPendingApproval, it.StepStatus("phases.prototype.test_plan"))
	assert.Equal(t, "docs/iterations/0001/test_plan.md", it.StepFile("phases.prototype.test_plan"))

	assert.Equal(t, Status(""), it.StepStatus("phases.prototype.nonsense"))
	assert.Empty(t, it.StepFile("phases.prototype.nonsense"))
}

func TestStepPaths_CoverEveryStep(t *testing.T) {
	it := New("0001")
	for _, path := range StepPaths {
		require.NotNil(t, it.step(path), "StepPaths entry %q must resolve", path)
	}
	assert.Len(t, StepPaths, 11)
}

func TestKnown(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusInProgress, StatusPendingApproval, StatusChangesRequested, StatusCompleted, StatusApproved} {
		assert.True(t, Known(s), string(s))
	}
	assert.False(t, Known("done"))
	assert.False(t, Known(""))
}
