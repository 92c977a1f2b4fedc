package allocation

import (
	"slices"

	"github.com/limaJavier/invigilation/pkg/model"
	"github.com/samber/lo"
)

// Duty is one invigilation assignment of a teacher
type Duty struct {
	Date  string      `json:"date"`
	Shift model.Shift `json:"shift"`
	Room  string      `json:"room"`
}

// DutyLedger holds the duties recorded for every teacher during one allocation pass.
// A ledger belongs to a single pass; teacher records themselves are never mutated
type DutyLedger struct {
	duties map[string][]Duty
}

func NewDutyLedger() *DutyLedger {
	return &DutyLedger{duties: make(map[string][]Duty)}
}

func (ledger *DutyLedger) Record(teacherId string, duty Duty) {
	ledger.duties[teacherId] = append(ledger.duties[teacherId], duty)
}

func (ledger *DutyLedger) Count(teacherId string) int {
	return len(ledger.duties[teacherId])
}

// Duties returns a copy of the teacher's duties in the order they were recorded
func (ledger *DutyLedger) Duties(teacherId string) []Duty {
	return slices.Clone(ledger.duties[teacherId])
}

func (ledger *DutyLedger) HasDutyOn(teacherId, date string) bool {
	return lo.SomeBy(ledger.duties[teacherId], func(duty Duty) bool {
		return duty.Date == date
	})
}

func (ledger *DutyLedger) Total() int {
	return lo.Sum(lo.MapToSlice(ledger.duties, func(_ string, duties []Duty) int {
		return len(duties)
	}))
}
