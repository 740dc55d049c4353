package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func objectiveWith(status ObjectiveStatus, target, current *float64) WeeklyObjective {
	o := NewWeeklyObjective()
	o.Status = status
	o.Target = target
	o.Current = current
	return o
}

func setCurrent(t *testing.T, o WeeklyObjective, v float64) (WeeklyObjective, bool) {
	t.Helper()
	updated, celebrate, err := UpdateMetric(o, MetricUpdate{Field: FieldCurrent, Number: f(v)})
	require.NoError(t, err)
	return updated, celebrate
}

func TestNewWeeklyObjective(t *testing.T) {
	o := NewWeeklyObjective()
	assert.NotEqual(t, uuid.Nil, o.ID)
	assert.Equal(t, StatusPending, o.Status)
	assert.Nil(t, o.Target)
	assert.Nil(t, o.Current)
	assert.Nil(t, o.Unit)
	assert.NoError(t, o.Validate())
}

// current が target に到達すると completed になること
func TestUpdateMetric_ReachingTargetCompletes(t *testing.T) {
	for _, target := range []float64{0.5, 1, 3, 10, 1000} {
		o := objectiveWith(StatusPending, f(target), f(0))
		got, celebrate := setCurrent(t, o, target)
		assert.Equal(t, StatusCompleted, got.Status, "target=%v", target)
		assert.True(t, celebrate, "target=%v", target)
	}
}

// current が target 未満なら、直前の状態に関係なく pending になること
func TestUpdateMetric_BelowTargetIsPending(t *testing.T) {
	tests := []struct {
		name    string
		prior   ObjectiveStatus
		target  float64
		current float64
	}{
		{"pending stays pending", StatusPending, 10, 3},
		{"completed reverts", StatusCompleted, 10, 9},
		{"completed reverts to zero", StatusCompleted, 5, 0},
		{"fractional", StatusCompleted, 1, 0.99},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := objectiveWith(tt.prior, f(tt.target), f(tt.target))
			got, celebrate := setCurrent(t, o, tt.current)
			assert.Equal(t, StatusPending, got.Status)
			assert.False(t, celebrate)
		})
	}
}

// 同じ更新を2回適用しても1回と同じ状態になること
func TestUpdateMetric_Idempotent(t *testing.T) {
	for _, current := range []float64{0, 4, 10, 12} {
		o := objectiveWith(StatusPending, f(10), f(2))
		once, _ := setCurrent(t, o, current)
		twice, celebrateAgain := setCurrent(t, once, current)
		assert.Equal(t, once, twice, "current=%v", current)
		assert.False(t, celebrateAgain, "second application must not celebrate (current=%v)", current)
	}
}

func TestUpdateMetric_IncrementToTargetCelebratesOnce(t *testing.T) {
	o := objectiveWith(StatusPending, f(10), f(9))

	celebrations := 0
	got, celebrate := Step(o, 1)
	if celebrate {
		celebrations++
	}
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, 10.0, *got.Current)

	// 目標を超えてもお祝いは1回だけ
	got, celebrate = Step(got, 1)
	if celebrate {
		celebrations++
	}
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, 1, celebrations)
}

func TestUpdateMetric_DecrementRevertsToPending(t *testing.T) {
	o := objectiveWith(StatusCompleted, f(10), f(10))
	got, celebrate := Step(o, -1)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, 9.0, *got.Current)
	assert.False(t, celebrate)
}

func TestUpdateMetric_ZeroTarget(t *testing.T) {
	o := objectiveWith(StatusPending, f(0), nil)
	got, celebrate := setCurrent(t, o, 0)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.True(t, celebrate)
}

// target/unit の変更は状態に影響しないこと
func TestUpdateMetric_OtherFieldsDoNotDerive(t *testing.T) {
	o := objectiveWith(StatusPending, f(10), f(5))

	got, celebrate, err := UpdateMetric(o, MetricUpdate{Field: FieldTarget, Number: f(3)})
	require.NoError(t, err)
	assert.Equal(t, 3.0, *got.Target)
	assert.Equal(t, StatusPending, got.Status)
	assert.False(t, celebrate)

	unit := "pages"
	got, _, err = UpdateMetric(got, MetricUpdate{Field: FieldUnit, Text: &unit})
	require.NoError(t, err)
	require.NotNil(t, got.Unit)
	assert.Equal(t, "pages", *got.Unit)
	assert.Equal(t, StatusPending, got.Status)

	got, _, err = UpdateMetric(got, MetricUpdate{Field: FieldUnit})
	require.NoError(t, err)
	assert.Nil(t, got.Unit)
}

func TestUpdateMetric_NoTargetKeepsStatus(t *testing.T) {
	o := objectiveWith(StatusCompleted, nil, f(1))
	got, celebrate := setCurrent(t, o, 0)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.False(t, celebrate)
}

func TestUpdateMetric_DoesNotAliasInput(t *testing.T) {
	v := 4.0
	o := objectiveWith(StatusPending, f(10), nil)
	got, _, err := UpdateMetric(o, MetricUpdate{Field: FieldCurrent, Number: &v})
	require.NoError(t, err)
	v = 100
	assert.Equal(t, 4.0, *got.Current)
	assert.Nil(t, o.Current, "input objective must not be modified")
}

func TestUpdateMetric_UnknownField(t *testing.T) {
	_, _, err := UpdateMetric(NewWeeklyObjective(), MetricUpdate{Field: "status"})
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestStep_ClampsAtZero(t *testing.T) {
	o := objectiveWith(StatusPending, f(3), nil)
	got, _ := Step(o, -1)
	require.NotNil(t, got.Current)
	assert.Equal(t, 0.0, *got.Current)

	got, _ = Step(objectiveWith(StatusPending, nil, f(2)), -5)
	assert.Equal(t, 0.0, *got.Current)
}

func TestSetStatus(t *testing.T) {
	o, err := SetStatus(NewWeeklyObjective(), StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, o.Status)

	_, err = SetStatus(o, "done")
	assert.Error(t, err)
}
