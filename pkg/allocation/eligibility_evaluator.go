package allocation

import "github.com/limaJavier/invigilation/pkg/model"

// eligibilityEvaluator decides which teachers may be given a duty on a date and shift
type eligibilityEvaluator interface {
	// Checks whether the teacher's weekly availability covers the shift on the date's weekday
	Available(teacher model.Teacher, date string, shift model.Shift) bool

	// Checks whether the teacher is on leave on the date
	OnLeave(teacher model.Teacher, date string) bool

	// Checks every rule, including the duties already recorded in the ledger
	Eligible(teacher model.Teacher, date string, shift model.Shift, ledger *DutyLedger) bool
}

func newEligibilityEvaluator(leaves map[string][]model.Leave) eligibilityEvaluator {
	return newStandardEvaluator(leaves)
}

// newCappedEligibilityEvaluator additionally excludes teachers whose duty count reached dutyCap
func newCappedEligibilityEvaluator(leaves map[string][]model.Leave, dutyCap int) eligibilityEvaluator {
	return &eligibilityEvaluatorCapped{
		eligibilityEvaluatorStandard: newStandardEvaluator(leaves),
		dutyCap:                      dutyCap,
	}
}
