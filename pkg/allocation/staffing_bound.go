package allocation

import (
	"github.com/limaJavier/invigilation/pkg/model"
	"github.com/onsi/gomega/matchers/support/goraph/bipartitegraph"
	"github.com/samber/lo"
)

// seat is one invigilator position of a room allocation
type seat struct {
	room  int
	shift model.Shift
}

// StaffingBound returns the largest number of invigilator seats that any assignment could fill, given availability and leaves.
// Seats of the same date compete for the same teachers since a teacher takes at most one duty per date
func StaffingBound(plan []RoomAllocation, teachers []model.Teacher, leaves map[string][]model.Leave) (int, error) {
	return staffingBound(plan, teachers, newEligibilityEvaluator(leaves))
}

func staffingBound(plan []RoomAllocation, teachers []model.Teacher, evaluator eligibilityEvaluator) (int, error) {
	if len(teachers) == 0 {
		return 0, nil
	}

	//** Group seats per date
	dates := make([]string, 0)
	seatsPerDate := make(map[string][]seat)
	for i, room := range plan {
		if _, ok := seatsPerDate[room.Date]; !ok {
			dates = append(dates, room.Date)
		}
		for range room.TeachersRequired {
			seatsPerDate[room.Date] = append(seatsPerDate[room.Date], seat{room: i, shift: room.Shift})
		}
	}

	// Teachers are referenced by roster index, teacher records are not comparable
	teachersAny := lo.Map(teachers, func(_ model.Teacher, i int) any { return i })

	bound := 0
	for _, date := range dates {
		seats := seatsPerDate[date]
		if len(seats) == 0 {
			continue
		}

		neighbors := func(seatAny any, teacherAny any) (bool, error) {
			position := seatAny.(seat)
			teacher := teachers[teacherAny.(int)]
			return evaluator.Available(teacher, date, position.shift) && !evaluator.OnLeave(teacher, date), nil
		}

		seatsAny := lo.Map(seats, func(position seat, _ int) any { return position })
		graph, err := bipartitegraph.NewBipartiteGraph(seatsAny, teachersAny, neighbors)
		if err != nil {
			return 0, err
		}
		bound += len(graph.LargestMatching())
	}

	return bound, nil
}
