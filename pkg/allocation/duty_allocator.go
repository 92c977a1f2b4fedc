package allocation

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/go-logr/logr"
	"github.com/limaJavier/invigilation/pkg/model"
	"github.com/samber/lo"
)

// UnassignedMarker is what callers expecting a list of names receive for an unstaffed room
const UnassignedMarker = "Unassigned"

type StaffingStatus string

const (
	StaffingAssigned  StaffingStatus = "assigned"
	StaffingUnstaffed StaffingStatus = "unstaffed"
)

type AssignedTeacher struct {
	Id         string
	Name       string
	Experience model.Experience
}

func (teacher AssignedTeacher) String() string {
	return fmt.Sprintf("%v (%v)", teacher.Name, teacher.Experience)
}

// Staffing is either Assigned(teachers) or Unstaffed; an assigned staffing always holds at least one teacher
type Staffing struct {
	status   StaffingStatus
	teachers []AssignedTeacher
}

func Assigned(teachers []AssignedTeacher) Staffing {
	if len(teachers) == 0 {
		return Unstaffed()
	}
	return Staffing{status: StaffingAssigned, teachers: slices.Clone(teachers)}
}

func Unstaffed() Staffing {
	return Staffing{status: StaffingUnstaffed}
}

func (staffing Staffing) Status() StaffingStatus {
	if staffing.status == "" {
		return StaffingUnstaffed
	}
	return staffing.status
}

func (staffing Staffing) Teachers() []AssignedTeacher {
	return slices.Clone(staffing.teachers)
}

type DutyAssignment struct {
	Date             string
	Shift            model.Shift
	Room             string
	TeachersRequired int
	Staffing         Staffing
}

// Understaffed reports whether fewer teachers than required were assigned, unstaffed rooms included
func (assignment DutyAssignment) Understaffed() bool {
	return len(assignment.Staffing.teachers) < assignment.TeachersRequired
}

func (assignment DutyAssignment) MarshalJSON() ([]byte, error) {
	var teachers any = UnassignedMarker
	teacherIds := make([]string, 0, len(assignment.Staffing.teachers))
	if assignment.Staffing.Status() == StaffingAssigned {
		teachers = lo.Map(assignment.Staffing.teachers, func(teacher AssignedTeacher, _ int) string {
			return teacher.String()
		})
		teacherIds = lo.Map(assignment.Staffing.teachers, func(teacher AssignedTeacher, _ int) string {
			return teacher.Id
		})
	}

	return json.Marshal(struct {
		Date             string         `json:"date"`
		Shift            model.Shift    `json:"shift"`
		Room             string         `json:"room"`
		Teachers         any            `json:"teachers"`
		TeacherIds       []string       `json:"teacherIds"`
		Status           StaffingStatus `json:"status"`
		TeachersRequired int            `json:"teachersRequired"`
	}{
		Date:             assignment.Date,
		Shift:            assignment.Shift,
		Room:             assignment.Room,
		Teachers:         teachers,
		TeacherIds:       teacherIds,
		Status:           assignment.Staffing.Status(),
		TeachersRequired: assignment.TeachersRequired,
	})
}

// AllocateDuties assigns invigilators to every room of the plan, in the plan's order, recording each duty in the ledger as soon as it is given
func AllocateDuties(teachers []model.Teacher, leaves map[string][]model.Leave, plan []RoomAllocation, ledger *DutyLedger) []DutyAssignment {
	return allocateDuties(teachers, newEligibilityEvaluator(leaves), plan, ledger, logr.Discard())
}

func allocateDuties(teachers []model.Teacher, evaluator eligibilityEvaluator, plan []RoomAllocation, ledger *DutyLedger, logger logr.Logger) []DutyAssignment {
	assignments := make([]DutyAssignment, 0, len(plan))

	for _, room := range plan {
		eligible := lo.Filter(teachers, func(teacher model.Teacher, _ int) bool {
			return evaluator.Eligible(teacher, room.Date, room.Shift, ledger)
		})

		assigned := make([]AssignedTeacher, 0, room.TeachersRequired)
		for len(assigned) < room.TeachersRequired && len(eligible) > 0 {
			// Least loaded teacher first, ties keep the roster order
			index := 0
			for i := 1; i < len(eligible); i++ {
				if ledger.Count(eligible[i].Id) < ledger.Count(eligible[index].Id) {
					index = i
				}
			}

			teacher := eligible[index]
			ledger.Record(teacher.Id, Duty{Date: room.Date, Shift: room.Shift, Room: room.Room})
			assigned = append(assigned, AssignedTeacher{
				Id:         teacher.Id,
				Name:       teacher.Name,
				Experience: teacher.Experience,
			})
			eligible = slices.Delete(eligible, index, index+1)
		}

		assignment := DutyAssignment{
			Date:             room.Date,
			Shift:            room.Shift,
			Room:             room.Room,
			TeachersRequired: room.TeachersRequired,
			Staffing:         Assigned(assigned),
		}
		if assignment.Staffing.Status() == StaffingUnstaffed {
			logger.V(1).Info("room left unstaffed", "date", room.Date, "shift", room.Shift, "room", room.Room)
		} else if assignment.Understaffed() {
			logger.V(1).Info("room understaffed", "date", room.Date, "shift", room.Shift, "room", room.Room, "required", room.TeachersRequired, "assigned", len(assigned))
		}
		assignments = append(assignments, assignment)
	}

	return assignments
}
