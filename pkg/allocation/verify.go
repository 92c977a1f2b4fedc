package allocation

import (
	"github.com/go-logr/logr"
	"github.com/limaJavier/invigilation/pkg/model"
	"github.com/samber/lo"
)

func verify(result Result, input model.Input, logger logr.Logger) bool {
	evaluator := newEligibilityEvaluator(input.Leaves)
	rooms := lo.SliceToMap(input.Rooms, func(room model.Room) (string, model.Room) { return room.Id, room })
	teachers := lo.SliceToMap(input.Teachers, func(teacher model.Teacher) (string, model.Teacher) { return teacher.Id, teacher })

	//** Initialize demand per slot and department
	demand := make(map[[3]string]int)
	for _, exam := range input.Exams {
		demand[[3]string{exam.Date, string(exam.Shift), exam.Department}] += exam.EligibleStudents
	}

	//** Verify room allocations
	roomUsed := make(map[[3]string]bool)
	for _, allocation := range result.RoomAllocations {
		room, ok := rooms[allocation.RoomId]
		roomKey := [3]string{allocation.Date, string(allocation.Shift), allocation.RoomId}
		seated := make(map[string]int)
		for _, department := range allocation.Allocations {
			seated[department.Department] += department.Students
			demand[[3]string{allocation.Date, string(allocation.Shift), department.Department}] -= department.Students
		}
		total := lo.Sum(lo.Values(seated))

		// Check that:
		// - Room exists and its capacity was not altered
		// - Room is used only once per slot
		// - Total matches the department allocations and fits the room
		// - No department exceeds half of the room
		// - Invigilators required match the seated students
		if !ok || room.Capacity != allocation.Capacity ||
			roomUsed[roomKey] ||
			total != allocation.TotalStudents || total == 0 || total > room.Capacity ||
			lo.SomeBy(lo.Values(seated), func(students int) bool { return students > DepartmentCap(room.Capacity) }) ||
			allocation.TeachersRequired != TeachersRequired(total) {
			logger.V(1).Info("invalid room allocation", "date", allocation.Date, "shift", allocation.Shift, "room", allocation.Room)
			return false
		}
		roomUsed[roomKey] = true
	}

	// More students than registered must never be seated
	if lo.SomeBy(lo.Values(demand), func(students int) bool { return students < 0 }) {
		logger.V(1).Info("more students seated than registered")
		return false
	}

	//** Verify duty assignments
	if len(result.TeacherAssignments) != len(result.RoomAllocations) {
		return false
	}
	dutyDates := make(map[[2]string]bool)
	counts := make(map[string]int)
	for i, assignment := range result.TeacherAssignments {
		allocation := result.RoomAllocations[i]
		if assignment.Date != allocation.Date || assignment.Shift != allocation.Shift || assignment.Room != allocation.Room {
			return false
		}

		assigned := assignment.Staffing.Teachers()
		if len(assigned) > allocation.TeachersRequired {
			return false
		}
		for _, assignedTeacher := range assigned {
			teacher, ok := teachers[assignedTeacher.Id]
			dutyKey := [2]string{assignedTeacher.Id, assignment.Date}

			// Check that:
			// - Teacher belongs to the roster
			// - Teacher holds no other duty that date
			// - Teacher's availability covers the shift and the teacher is not on leave
			if !ok || dutyDates[dutyKey] ||
				!evaluator.Available(teacher, assignment.Date, assignment.Shift) ||
				evaluator.OnLeave(teacher, assignment.Date) {
				logger.V(1).Info("invalid duty", "teacher", assignedTeacher.Id, "date", assignment.Date, "room", assignment.Room)
				return false
			}
			dutyDates[dutyKey] = true
			counts[assignedTeacher.Id]++
		}
	}

	//** Verify duty loads
	for _, load := range result.TeacherDutyLoad {
		if counts[load.Id] != load.DutiesAssigned {
			return false
		}
	}
	return true
}
