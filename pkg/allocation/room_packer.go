package allocation

import (
	"cmp"
	"slices"

	"github.com/limaJavier/invigilation/pkg/model"
	"github.com/samber/lo"
)

type DepartmentAllocation struct {
	Department string `json:"dept"`
	Students   int    `json:"students"`
}

type RoomAllocation struct {
	Date             string                 `json:"date"`
	Shift            model.Shift            `json:"shift"`
	RoomId           string                 `json:"roomId"`
	Room             string                 `json:"room"`
	Capacity         int                    `json:"capacity"`
	Allocations      []DepartmentAllocation `json:"allocations"`
	TotalStudents    int                    `json:"totalStudents"`
	TeachersRequired int                    `json:"teachersRequired"`
}

// DepartmentCap is the largest number of seats a single department may take in a room
func DepartmentCap(capacity int) int {
	if capacity <= 0 {
		return 0
	}
	return (capacity + 1) / 2
}

// TeachersRequired derives the number of invigilators needed for the seated students
func TeachersRequired(totalStudents int) int {
	switch {
	case totalStudents > 60:
		return 4
	case totalStudents > 40:
		return 3
	case totalStudents >= 20:
		return 2
	default:
		return 1
	}
}

// PackRooms fills rooms, largest first, with the slot's demand using a largest-department-first heuristic.
// Demand that does not fit once every room has been used is returned as dropped; it is never seated elsewhere
func PackRooms(rooms []model.Room, slot SlotDemand) (allocations []RoomAllocation, dropped []Demand) {
	allocations = make([]RoomAllocation, 0)

	// Stable on the original order for rooms sharing the same capacity
	sortedRooms := slices.Clone(rooms)
	slices.SortStableFunc(sortedRooms, func(a, b model.Room) int {
		return cmp.Compare(b.Capacity, a.Capacity)
	})

	pending := slices.Clone(slot.Demands)
	for _, room := range sortedRooms {
		if len(pending) == 0 {
			break
		}

		allocation, remaining := packRoom(room, pending)
		pending = remaining
		if allocation.TotalStudents == 0 {
			continue
		}

		allocation.Date = slot.Date
		allocation.Shift = slot.Shift
		allocations = append(allocations, allocation)
	}

	return allocations, pending
}

func packRoom(room model.Room, pending []Demand) (RoomAllocation, []Demand) {
	allocation := RoomAllocation{
		RoomId:      room.Id,
		Room:        room.Name,
		Capacity:    room.Capacity,
		Allocations: make([]DepartmentAllocation, 0),
	}
	departmentCap := DepartmentCap(room.Capacity)
	seated := make(map[string]int) // Seats taken per department in this room
	free := room.Capacity

	for len(pending) > 0 && free > 0 {
		// Largest remaining demand first
		slices.SortStableFunc(pending, func(a, b Demand) int {
			return cmp.Compare(b.Students, a.Students)
		})

		// A department that already reached its cap in this room is skipped, the next largest one is tried instead
		index := slices.IndexFunc(pending, func(demand Demand) bool {
			return seated[demand.Department] < departmentCap
		})
		if index < 0 {
			break
		}

		demand := &pending[index]
		allocated := min(demand.Students, free, departmentCap-seated[demand.Department])
		allocation.Allocations = append(allocation.Allocations, DepartmentAllocation{
			Department: demand.Department,
			Students:   allocated,
		})
		demand.Students -= allocated
		seated[demand.Department] += allocated
		free -= allocated

		if demand.Students == 0 {
			pending = slices.Delete(pending, index, index+1)
		}
	}

	allocation.TotalStudents = lo.SumBy(allocation.Allocations, func(department DepartmentAllocation) int {
		return department.Students
	})
	allocation.TeachersRequired = TeachersRequired(allocation.TotalStudents)
	return allocation, pending
}
