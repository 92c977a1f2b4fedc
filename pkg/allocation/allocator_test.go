package allocation

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/google/go-cmp/cmp"
	"github.com/limaJavier/invigilation/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInput() model.Input {
	return model.Input{
		Rooms: []model.Room{
			{Id: "r1", Name: "A-101", Capacity: 60, Building: "A"},
			{Id: "r2", Name: "A-102", Capacity: 40, Building: "A"},
			{Id: "r3", Name: "B-201", Capacity: 20, Building: "B"},
		},
		Exams: []model.Exam{
			{Id: "e1", Department: "CSE", Subject: "Maths", EligibleStudents: 40, Shift: model.ShiftMorning, Date: monday},
			{Id: "e2", Department: "ECE", Subject: "Circuits", EligibleStudents: 30, Shift: model.ShiftMorning, Date: monday},
			{Id: "e3", Department: "ME", Subject: "Mechanics", EligibleStudents: 25, Shift: model.ShiftAfternoon, Date: monday},
			{Id: "e4", Department: "CSE", Subject: "Algorithms", EligibleStudents: 50, Shift: model.ShiftMorning, Date: tuesday},
		},
		Teachers: []model.Teacher{
			newTeacher("1", availableAllWeek(model.AvailabilityBoth)),
			newTeacher("2", availableAllWeek(model.AvailabilityMorning)),
			newTeacher("3", availableAllWeek(model.AvailabilityAfternoon)),
			newTeacher("4", availableAllWeek(model.AvailabilityBoth)),
			newTeacher("5", model.WeeklyAvailability{"monday": model.AvailabilityBoth}),
		},
		Leaves: map[string][]model.Leave{
			"4": {{Date: monday, Reason: "Medical"}},
		},
	}
}

func randomInput(random *rand.Rand) model.Input {
	availabilities := []model.Availability{model.AvailabilityMorning, model.AvailabilityAfternoon, model.AvailabilityBoth}
	weekdays := []string{"monday", "tuesday", "wednesday", "thursday", "friday"}
	dates := []string{"2025-02-17", "2025-02-18", "2025-02-19", "2025-02-20", "2025-02-21"}
	departments := []string{"CSE", "ECE", "ME", "CE", "IT"}

	input := model.Input{Leaves: make(map[string][]model.Leave)}
	for i := range random.Intn(8) {
		input.Rooms = append(input.Rooms, model.Room{Id: fmt.Sprint("r", i), Name: fmt.Sprint("Room ", i), Capacity: random.Intn(120) + 1})
	}
	for i := range random.Intn(15) {
		input.Exams = append(input.Exams, model.Exam{
			Id:               fmt.Sprint("e", i),
			Department:       departments[random.Intn(len(departments))],
			EligibleStudents: random.Intn(90) + 1,
			Shift:            []model.Shift{model.ShiftMorning, model.ShiftAfternoon}[random.Intn(2)],
			Date:             dates[random.Intn(len(dates))],
		})
	}
	for i := range random.Intn(12) {
		availability := make(model.WeeklyAvailability)
		for _, weekday := range weekdays {
			if random.Intn(4) > 0 {
				availability[weekday] = availabilities[random.Intn(len(availabilities))]
			}
		}
		teacher := newTeacher(fmt.Sprint(i), availability)
		input.Teachers = append(input.Teachers, teacher)
		if random.Intn(3) == 0 {
			input.Leaves[teacher.Id] = []model.Leave{{Date: dates[random.Intn(len(dates))]}}
		}
	}
	return input
}

func TestBuild(t *testing.T) {
	t.Run("Sample instance", func(t *testing.T) {
		//** Arrange
		input := sampleInput()
		allocator := NewRetrospectiveAllocator(logr.Discard())

		//** Act
		result, err := allocator.Build(input)

		//** Assert
		require.NoError(t, err)
		assert.True(t, allocator.Verify(result, input))

		// Monday morning: A-101 seats CSE 30 + ECE 30, A-102 seats the remaining CSE 10
		require.Len(t, result.RoomAllocations, 5)
		assert.Equal(t, []DepartmentAllocation{{"CSE", 30}, {"ECE", 30}}, result.RoomAllocations[0].Allocations)
		assert.Equal(t, []DepartmentAllocation{{"CSE", 10}}, result.RoomAllocations[1].Allocations)
		assert.Equal(t, "A-101", result.RoomAllocations[2].Room)
		assert.Equal(t, 25, result.RoomAllocations[2].TotalStudents)

		// 3 + 1 + 2 + 2 + 2 seats over 5 teachers
		assert.Equal(t, 10, result.Summary.TotalTeachersRequired)
		assert.Equal(t, 2, *result.Summary.AverageDutyPerTeacher)
		assert.Equal(t, 4, result.Summary.TotalExams)
		assert.Equal(t, 5, result.Summary.TotalRoomsAllocated)

		// Monday morning: 1, 2, 5 are eligible (4 is on leave)
		assert.Equal(t, []string{"1", "2", "5"}, assignedIds(result.TeacherAssignments[0]))
		assert.Equal(t, StaffingUnstaffed, result.TeacherAssignments[1].Staffing.Status())
		assert.Equal(t, []string{"3"}, assignedIds(result.TeacherAssignments[2]))
		assert.Equal(t, []string{"4", "1"}, assignedIds(result.TeacherAssignments[3]))
		assert.Equal(t, []string{"2"}, assignedIds(result.TeacherAssignments[4]))
		assert.Equal(t, 2, result.Diagnostics.UnderstaffedRooms-result.Diagnostics.UnstaffedRooms)
		assert.Empty(t, result.Diagnostics.DroppedDemand)
		assert.Equal(t, result.Diagnostics.Staffing.SeatsFilled, sumDuties(result.TeacherDutyLoad))
		assert.LessOrEqual(t, result.Diagnostics.Staffing.SeatsFilled, result.Diagnostics.Staffing.UpperBound)
	})

	t.Run("Capacity shortfall is reported, not seated", func(t *testing.T) {
		//** Arrange
		input := sampleInput()
		input.Rooms = input.Rooms[2:]

		//** Act
		result, err := NewRetrospectiveAllocator(logr.Discard()).Build(input)

		//** Assert
		require.NoError(t, err)
		assert.NotEmpty(t, result.Diagnostics.DroppedDemand)
		for _, allocation := range result.RoomAllocations {
			assert.LessOrEqual(t, allocation.TotalStudents, 20)
		}
	})

	t.Run("No teachers available", func(t *testing.T) {
		//** Arrange
		input := sampleInput()
		input.Teachers = nil

		//** Act
		result, err := NewRetrospectiveAllocator(logr.Discard()).Build(input)
		bytes, marshalErr := json.Marshal(result.Summary)

		//** Assert
		require.NoError(t, err)
		require.NoError(t, marshalErr)
		assert.True(t, result.Summary.NoTeachersAvailable)
		assert.Contains(t, string(bytes), `"averageDutyPerTeacher":null`)
		assert.Equal(t, len(result.RoomAllocations), result.Diagnostics.UnstaffedRooms)
		assert.Equal(t, 0, result.Diagnostics.Staffing.UpperBound)
	})

	t.Run("Empty input", func(t *testing.T) {
		result, err := NewRetrospectiveAllocator(logr.Discard()).Build(model.Input{})

		require.NoError(t, err)
		assert.Empty(t, result.RoomAllocations)
		assert.Empty(t, result.TeacherAssignments)
		bytes, err := json.Marshal(result)
		require.NoError(t, err)
		assert.Contains(t, string(bytes), `"roomAllocations":[]`)
		assert.Contains(t, string(bytes), `"belowAverage":[]`)
	})

	t.Run("Random instances are valid and deterministic", func(t *testing.T) {
		random := rand.New(rand.NewSource(1))
		for range 100 {
			for _, strategy := range Strategies() {
				//** Arrange
				input := randomInput(random)
				allocator, err := NewAllocator(strategy, logr.Discard())
				require.NoError(t, err)

				//** Act
				first, err := allocator.Build(input)
				require.NoError(t, err)
				second, err := allocator.Build(input)
				require.NoError(t, err)

				//** Assert
				assert.True(t, allocator.Verify(first, input))
				firstJson, _ := json.Marshal(first)
				secondJson, _ := json.Marshal(second)
				if diff := cmp.Diff(string(firstJson), string(secondJson)); diff != "" {
					t.Errorf("allocation is not deterministic (-first +second):\n%s", diff)
				}
				assert.LessOrEqual(t, first.Diagnostics.Staffing.SeatsFilled, first.Diagnostics.Staffing.UpperBound)
			}
		}
	})
}

func TestBuildReportsSkippedRecords(t *testing.T) {
	//** Arrange
	input := sampleInput()
	input.UnmatchedLeaves = []model.TeacherLeave{{Id: "99", Name: "Nobody", Leaves: []model.Leave{{Date: monday}}}}
	input.RejectedTeachers = []model.RejectedTeacher{{Id: "6", Name: "Teacher 6", Reason: `unknown experience "senior"`}}
	lines := make([]string, 0)
	logger := funcr.New(func(prefix, args string) {
		lines = append(lines, args)
	}, funcr.Options{})

	//** Act
	result, err := NewRetrospectiveAllocator(logger).Build(input)

	//** Assert
	require.NoError(t, err)
	assert.Equal(t, 1, result.Diagnostics.UnmatchedLeaves)
	assert.Equal(t, input.RejectedTeachers, result.Diagnostics.RejectedTeachers)
	logged := strings.Join(lines, "\n")
	assert.Contains(t, logged, "leave record does not match any teacher")
	assert.Contains(t, logged, `"id"="99"`)
	assert.Contains(t, logged, "teacher left out of the roster")
	assert.Contains(t, logged, `"id"="6"`)
}

func TestBuildCapped(t *testing.T) {
	//** Arrange
	input := sampleInput()
	allocator := NewCappedAllocator(logr.Discard())

	//** Act
	result, err := allocator.Build(input)

	//** Assert
	require.NoError(t, err)
	assert.True(t, allocator.Verify(result, input))
	assert.Equal(t, StrategyCapped, result.Diagnostics.Strategy)
	for _, load := range result.TeacherDutyLoad {
		assert.LessOrEqual(t, load.DutiesAssigned, *result.Summary.AverageDutyPerTeacher)
	}
	assert.Empty(t, result.Distribution.AboveAverage)
}

func TestVerify(t *testing.T) {
	input := sampleInput()
	allocator := NewRetrospectiveAllocator(logr.Discard())
	build := func() Result {
		result, err := allocator.Build(input)
		require.NoError(t, err)
		return result
	}

	t.Run("Department cap", func(t *testing.T) {
		result := build()
		result.RoomAllocations[0].Allocations = []DepartmentAllocation{{"CSE", 40}, {"ECE", 20}}
		assert.False(t, allocator.Verify(result, input))
	})

	t.Run("Invigilators required", func(t *testing.T) {
		result := build()
		result.RoomAllocations[0].TeachersRequired = 2
		assert.False(t, allocator.Verify(result, input))
	})

	t.Run("Teacher on leave", func(t *testing.T) {
		result := build()
		result.TeacherAssignments[1].Staffing = Assigned([]AssignedTeacher{{Id: "4"}})
		assert.False(t, allocator.Verify(result, input))
	})

	t.Run("Two duties the same day", func(t *testing.T) {
		result := build()
		result.TeacherAssignments[1].Staffing = Assigned([]AssignedTeacher{{Id: "1"}})
		assert.False(t, allocator.Verify(result, input))
	})

	t.Run("Duty load mismatch", func(t *testing.T) {
		result := build()
		result.TeacherDutyLoad[0].DutiesAssigned++
		assert.False(t, allocator.Verify(result, input))
	})
}

func TestNewAllocator(t *testing.T) {
	_, err := NewAllocator("optimal", logr.Discard())
	assert.Error(t, err)

	allocator, err := NewAllocator(StrategyRetrospective, logr.Discard())
	assert.NoError(t, err)
	assert.NotNil(t, allocator)
}

func sumDuties(loads []DutyLoad) int {
	total := 0
	for _, load := range loads {
		total += load.DutiesAssigned
	}
	return total
}
