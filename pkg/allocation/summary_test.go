package allocation

import (
	"errors"
	"testing"

	"github.com/limaJavier/invigilation/pkg/model"
	"github.com/stretchr/testify/assert"
)

func TestFairnessTarget(t *testing.T) {
	target, err := FairnessTarget(10, 3)
	assert.NoError(t, err)
	assert.Equal(t, 4, target)

	target, err = FairnessTarget(9, 3)
	assert.NoError(t, err)
	assert.Equal(t, 3, target)

	target, err = FairnessTarget(0, 3)
	assert.NoError(t, err)
	assert.Equal(t, 0, target)

	_, err = FairnessTarget(5, 0)
	assert.True(t, errors.Is(err, ErrNoTeachersAvailable))
}

func TestClassify(t *testing.T) {
	//** Arrange
	loads := []DutyLoad{
		{Id: "1", DutiesAssigned: 1},
		{Id: "2", DutiesAssigned: 2},
		{Id: "3", DutiesAssigned: 3},
		{Id: "4", DutiesAssigned: 0},
	}

	//** Act
	distribution := Classify(loads, 2)

	//** Assert
	assert.Equal(t, []DutyLoad{{Id: "1", DutiesAssigned: 1}, {Id: "4", DutiesAssigned: 0}}, distribution.BelowAverage)
	assert.Equal(t, []DutyLoad{{Id: "3", DutiesAssigned: 3}}, distribution.AboveAverage)
}

func TestSummarize(t *testing.T) {
	plan := []RoomAllocation{{TeachersRequired: 4}, {TeachersRequired: 3}}

	t.Run("With teachers", func(t *testing.T) {
		//** Arrange
		teachers := []model.Teacher{{Id: "1", Name: "A"}, {Id: "2", Name: "B"}}
		ledger := NewDutyLedger()
		ledger.Record("1", Duty{Date: monday})
		ledger.Record("1", Duty{Date: tuesday})
		ledger.Record("1", Duty{Date: "2025-02-19"})
		ledger.Record("1", Duty{Date: "2025-02-20"})
		ledger.Record("1", Duty{Date: "2025-02-21"})

		//** Act
		summary, loads, distribution := Summarize(plan, teachers, 6, ledger)

		//** Assert
		assert.Equal(t, 7, summary.TotalTeachersRequired)
		assert.Equal(t, 2, summary.TotalAvailableTeachers)
		assert.Equal(t, 4, *summary.AverageDutyPerTeacher)
		assert.False(t, summary.NoTeachersAvailable)
		assert.Equal(t, 2, summary.TotalRoomsAllocated)
		assert.Equal(t, 6, summary.TotalExams)
		assert.Equal(t, []int{5, 0}, []int{loads[0].DutiesAssigned, loads[1].DutiesAssigned})
		assert.Len(t, distribution.AboveAverage, 1)
		assert.Len(t, distribution.BelowAverage, 1)
	})

	t.Run("Without teachers", func(t *testing.T) {
		summary, loads, distribution := Summarize(plan, nil, 2, NewDutyLedger())

		assert.True(t, summary.NoTeachersAvailable)
		assert.Nil(t, summary.AverageDutyPerTeacher)
		assert.Empty(t, loads)
		assert.NotNil(t, distribution.BelowAverage)
		assert.NotNil(t, distribution.AboveAverage)
		assert.Empty(t, distribution.BelowAverage)
	})
}
