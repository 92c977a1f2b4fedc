package allocation

import (
	"github.com/limaJavier/invigilation/pkg/model"
)

// Slot is one exam sitting window
type Slot struct {
	Date  string
	Shift model.Shift
}

// Demand is the number of students of a department still waiting for a seat
type Demand struct {
	Department string `json:"dept"`
	Students   int    `json:"students"`
}

type SlotDemand struct {
	Slot
	Demands []Demand
}

// GroupBySlot partitions exams into (date, shift) slots. Slots keep the order in which they first appear and demands keep the exams' order within each slot
func GroupBySlot(exams []model.Exam) []SlotDemand {
	slots := make([]SlotDemand, 0)
	indices := make(map[Slot]int)

	for _, exam := range exams {
		key := Slot{Date: exam.Date, Shift: exam.Shift}
		index, ok := indices[key]
		if !ok {
			index = len(slots)
			indices[key] = index
			slots = append(slots, SlotDemand{Slot: key, Demands: make([]Demand, 0)})
		}
		slots[index].Demands = append(slots[index].Demands, Demand{
			Department: exam.Department,
			Students:   exam.EligibleStudents,
		})
	}

	return slots
}
