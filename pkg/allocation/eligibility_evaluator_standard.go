package allocation

import (
	"github.com/limaJavier/invigilation/pkg/model"
)

type eligibilityEvaluatorStandard struct {
	leaveDates map[string]map[string]bool // Leave dates per teacher Id
}

func newStandardEvaluator(leaves map[string][]model.Leave) *eligibilityEvaluatorStandard {
	evaluator := eligibilityEvaluatorStandard{
		leaveDates: make(map[string]map[string]bool),
	}
	for teacherId, teacherLeaves := range leaves {
		evaluator.leaveDates[teacherId] = make(map[string]bool)
		for _, leave := range teacherLeaves {
			evaluator.leaveDates[teacherId][leave.Date] = true
		}
	}
	return &evaluator
}

func (evaluator *eligibilityEvaluatorStandard) Available(teacher model.Teacher, date string, shift model.Shift) bool {
	weekday, ok := model.Weekday(date)
	if !ok {
		return false
	}
	// A missing weekday means the teacher is unavailable that day
	availability, ok := teacher.WeeklyAvailability[weekday]
	return ok && availability.Covers(shift)
}

func (evaluator *eligibilityEvaluatorStandard) OnLeave(teacher model.Teacher, date string) bool {
	return evaluator.leaveDates[teacher.Id][date]
}

func (evaluator *eligibilityEvaluatorStandard) Eligible(teacher model.Teacher, date string, shift model.Shift, ledger *DutyLedger) bool {
	// A duty blocks the whole day, not only its shift
	return !ledger.HasDutyOn(teacher.Id, date) &&
		evaluator.Available(teacher, date, shift) &&
		!evaluator.OnLeave(teacher, date)
}

type eligibilityEvaluatorCapped struct {
	*eligibilityEvaluatorStandard
	dutyCap int
}

func (evaluator *eligibilityEvaluatorCapped) Eligible(teacher model.Teacher, date string, shift model.Shift, ledger *DutyLedger) bool {
	return ledger.Count(teacher.Id) < evaluator.dutyCap &&
		evaluator.eligibilityEvaluatorStandard.Eligible(teacher, date, shift, ledger)
}
