package allocation

import (
	"errors"

	"github.com/limaJavier/invigilation/pkg/model"
	"github.com/samber/lo"
)

var ErrNoTeachersAvailable = errors.New("no teachers available")

type DutyLoad struct {
	Id             string           `json:"id"`
	Name           string           `json:"name"`
	DutiesAssigned int              `json:"dutiesAssigned"`
	Experience     model.Experience `json:"experience"`
}

type Summary struct {
	TotalTeachersRequired  int  `json:"totalTeachersRequired"`
	TotalAvailableTeachers int  `json:"totalAvailableTeachers"`
	AverageDutyPerTeacher  *int `json:"averageDutyPerTeacher"` // nil when there are no teachers
	NoTeachersAvailable    bool `json:"noTeachersAvailable,omitempty"`
	TotalRoomsAllocated    int  `json:"totalRoomsAllocated"`
	TotalExams             int  `json:"totalExams"`
}

type Distribution struct {
	BelowAverage []DutyLoad `json:"belowAverage"`
	AboveAverage []DutyLoad `json:"aboveAverage"`
}

// FairnessTarget is the ceiling of the required invigilator seats divided by the number of teachers
func FairnessTarget(totalTeachersRequired, totalTeachers int) (int, error) {
	if totalTeachers <= 0 {
		return 0, ErrNoTeachersAvailable
	}
	return (totalTeachersRequired + totalTeachers - 1) / totalTeachers, nil
}

func DutyLoads(teachers []model.Teacher, ledger *DutyLedger) []DutyLoad {
	return lo.Map(teachers, func(teacher model.Teacher, _ int) DutyLoad {
		return DutyLoad{
			Id:             teacher.Id,
			Name:           teacher.Name,
			DutiesAssigned: ledger.Count(teacher.Id),
			Experience:     teacher.Experience,
		}
	})
}

// Classify splits loads strictly below and strictly above the target; loads equal to it are in neither list
func Classify(loads []DutyLoad, averageDuty int) Distribution {
	distribution := Distribution{
		BelowAverage: make([]DutyLoad, 0),
		AboveAverage: make([]DutyLoad, 0),
	}
	for _, load := range loads {
		if load.DutiesAssigned < averageDuty {
			distribution.BelowAverage = append(distribution.BelowAverage, load)
		} else if load.DutiesAssigned > averageDuty {
			distribution.AboveAverage = append(distribution.AboveAverage, load)
		}
	}
	return distribution
}

func Summarize(plan []RoomAllocation, teachers []model.Teacher, totalExams int, ledger *DutyLedger) (Summary, []DutyLoad, Distribution) {
	totalTeachersRequired := lo.SumBy(plan, func(room RoomAllocation) int {
		return room.TeachersRequired
	})
	summary := Summary{
		TotalTeachersRequired:  totalTeachersRequired,
		TotalAvailableTeachers: len(teachers),
		TotalRoomsAllocated:    len(plan),
		TotalExams:             totalExams,
	}
	loads := DutyLoads(teachers, ledger)

	averageDuty, err := FairnessTarget(totalTeachersRequired, len(teachers))
	if errors.Is(err, ErrNoTeachersAvailable) {
		summary.NoTeachersAvailable = true
		return summary, loads, Distribution{BelowAverage: make([]DutyLoad, 0), AboveAverage: make([]DutyLoad, 0)}
	}
	summary.AverageDutyPerTeacher = &averageDuty
	return summary, loads, Classify(loads, averageDuty)
}
