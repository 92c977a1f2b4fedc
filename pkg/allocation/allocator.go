package allocation

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/limaJavier/invigilation/pkg/model"
	"github.com/samber/lo"
)

type Allocator interface {
	Build(
		input model.Input,
	) (result Result, err error)

	Verify(
		result Result,
		input model.Input,
	) bool
}

type Strategy string

const (
	// Fairness target is only used to classify the final duty loads
	StrategyRetrospective Strategy = "retrospective"
	// Teachers whose duty count reached the fairness target are not eligible anymore
	StrategyCapped Strategy = "capped"
)

var strategies = map[Strategy]func(logr.Logger) Allocator{
	StrategyRetrospective: NewRetrospectiveAllocator,
	StrategyCapped:        NewCappedAllocator,
}

func Strategies() []Strategy {
	return []Strategy{StrategyRetrospective, StrategyCapped}
}

func NewAllocator(strategy Strategy, logger logr.Logger) (Allocator, error) {
	constructor, ok := strategies[strategy]
	if !ok {
		return nil, fmt.Errorf("%v is not a valid strategy", strategy)
	}
	return constructor(logger), nil
}

type Result struct {
	RoomAllocations    []RoomAllocation `json:"roomAllocations"`
	TeacherAssignments []DutyAssignment `json:"teacherAssignments"`
	TeacherDutyLoad    []DutyLoad       `json:"teacherDutyLoad"`
	Summary            Summary          `json:"summary"`
	Distribution       Distribution     `json:"distribution"`
	Diagnostics        Diagnostics      `json:"diagnostics"`
}

type DroppedDemand struct {
	Date       string      `json:"date"`
	Shift      model.Shift `json:"shift"`
	Department string      `json:"dept"`
	Students   int         `json:"students"`
}

type StaffingDiagnostics struct {
	SeatsRequired int `json:"seatsRequired"`
	SeatsFilled   int `json:"seatsFilled"`
	UpperBound    int `json:"upperBound"` // Most seats any assignment could fill
}

type Diagnostics struct {
	Strategy          Strategy                `json:"strategy"`
	DroppedDemand     []DroppedDemand         `json:"droppedDemand"`
	Staffing          StaffingDiagnostics     `json:"staffing"`
	UnstaffedRooms    int                     `json:"unstaffedRooms"`
	UnderstaffedRooms int                     `json:"understaffedRooms"`
	UnmatchedLeaves   int                     `json:"unmatchedLeaves"`
	RejectedTeachers  []model.RejectedTeacher `json:"rejectedTeachers"`
}

type greedyAllocator struct {
	strategy Strategy
	logger   logr.Logger
}

func NewRetrospectiveAllocator(logger logr.Logger) Allocator {
	return &greedyAllocator{strategy: StrategyRetrospective, logger: logger}
}

func NewCappedAllocator(logger logr.Logger) Allocator {
	return &greedyAllocator{strategy: StrategyCapped, logger: logger}
}

func (allocator *greedyAllocator) Build(input model.Input) (Result, error) {
	for _, leave := range input.UnmatchedLeaves {
		allocator.logger.Info("leave record does not match any teacher, ignoring it", "id", leave.Id, "name", leave.Name)
	}
	for _, teacher := range input.RejectedTeachers {
		allocator.logger.Info("teacher left out of the roster", "id", teacher.Id, "name", teacher.Name, "reason", teacher.Reason)
	}

	//** Pack rooms slot by slot
	plan := make([]RoomAllocation, 0)
	dropped := make([]DroppedDemand, 0)
	for _, slot := range GroupBySlot(input.Exams) {
		allocations, residual := PackRooms(input.Rooms, slot)
		plan = append(plan, allocations...)
		for _, demand := range residual {
			dropped = append(dropped, DroppedDemand{
				Date:       slot.Date,
				Shift:      slot.Shift,
				Department: demand.Department,
				Students:   demand.Students,
			})
		}
	}
	if len(dropped) > 0 {
		allocator.logger.Info("rooms exhausted before demand, students left unseated",
			"students", lo.SumBy(dropped, func(demand DroppedDemand) int { return demand.Students }))
	}

	//** Assign duties
	totalTeachersRequired := lo.SumBy(plan, func(room RoomAllocation) int { return room.TeachersRequired })
	var evaluator eligibilityEvaluator
	switch allocator.strategy {
	case StrategyCapped:
		// Without teachers the cap is irrelevant since nobody is eligible
		averageDuty, _ := FairnessTarget(totalTeachersRequired, len(input.Teachers))
		evaluator = newCappedEligibilityEvaluator(input.Leaves, averageDuty)
	default:
		evaluator = newEligibilityEvaluator(input.Leaves)
	}

	ledger := NewDutyLedger()
	assignments := allocateDuties(input.Teachers, evaluator, plan, ledger, allocator.logger)

	//** Summarize
	summary, loads, distribution := Summarize(plan, input.Teachers, len(input.Exams), ledger)
	if summary.NoTeachersAvailable {
		allocator.logger.Info("no teachers available, every room is unstaffed", "rooms", len(plan))
	}

	upperBound, err := staffingBound(plan, input.Teachers, evaluator)
	if err != nil {
		return Result{}, fmt.Errorf("cannot compute staffing bound: %w", err)
	}

	result := Result{
		RoomAllocations:    plan,
		TeacherAssignments: assignments,
		TeacherDutyLoad:    loads,
		Summary:            summary,
		Distribution:       distribution,
		Diagnostics: Diagnostics{
			Strategy:      allocator.strategy,
			DroppedDemand: dropped,
			Staffing: StaffingDiagnostics{
				SeatsRequired: totalTeachersRequired,
				SeatsFilled:   ledger.Total(),
				UpperBound:    upperBound,
			},
			UnstaffedRooms: lo.CountBy(assignments, func(assignment DutyAssignment) bool {
				return assignment.Staffing.Status() == StaffingUnstaffed
			}),
			UnderstaffedRooms: lo.CountBy(assignments, func(assignment DutyAssignment) bool {
				return assignment.Understaffed()
			}),
			UnmatchedLeaves:  len(input.UnmatchedLeaves),
			RejectedTeachers: append(make([]model.RejectedTeacher, 0, len(input.RejectedTeachers)), input.RejectedTeachers...),
		},
	}

	allocator.logger.Info("allocation finished",
		"strategy", allocator.strategy,
		"rooms", len(plan),
		"seatsRequired", totalTeachersRequired,
		"seatsFilled", result.Diagnostics.Staffing.SeatsFilled,
		"unstaffedRooms", result.Diagnostics.UnstaffedRooms,
	)
	return result, nil
}

func (allocator *greedyAllocator) Verify(result Result, input model.Input) bool {
	return verify(result, input, allocator.logger)
}
