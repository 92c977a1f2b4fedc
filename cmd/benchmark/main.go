package main

import (
	"encoding/csv"
	"fmt"
	"log"
	"math/rand"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/limaJavier/invigilation/pkg/allocation"
	"github.com/limaJavier/invigilation/pkg/model"
	"github.com/samber/lo"
	"github.com/spf13/pflag"
)

const MB float32 = 1024 * 1024

var (
	weekdays    = []string{"monday", "tuesday", "wednesday", "thursday", "friday"}
	departments = []string{"CSE", "ECE", "ME", "CE", "IT", "EEE", "CHE", "BT"}
	shifts      = []model.Shift{model.ShiftMorning, model.ShiftAfternoon}
	experiences = []model.Experience{model.ExperienceNew, model.ExperienceExperienced}
)

type Scenario struct {
	Name     string
	Rooms    int
	Exams    int
	Teachers int
	Days     int
}

type BenchmarkResult struct {
	Strategy      allocation.Strategy
	Scenario      Scenario
	Run           int
	Duration      time.Duration
	Memory        float32
	SeatsRequired int
	SeatsFilled   int
	UpperBound    int
	Unstaffed     int
	Dropped       int
}

func main() {
	scenariosPtr := pflag.String("scenarios", "10:30:20:5,40:150:80:10,100:600:250:20", "Comma separated scenarios, each one as rooms:exams:teachers:days")
	runsPtr := pflag.Int("runs", 3, "Runs per scenario and strategy")
	seedPtr := pflag.Int64("seed", 1, "Seed used to generate the instances")
	outPtr := pflag.String("out", "benchmark_results.csv", "Path to the CSV file where the results will be written")
	pflag.Parse()

	scenarios := make([]Scenario, 0)
	for _, value := range strings.Split(*scenariosPtr, ",") {
		scenario, err := parseScenario(value)
		if err != nil {
			log.Fatalf("invalid scenario: %v", err)
		}
		scenarios = append(scenarios, scenario)
	}

	random := rand.New(rand.NewSource(*seedPtr))
	results := make([]BenchmarkResult, 0, len(scenarios)*len(allocation.Strategies())**runsPtr)
	for _, scenario := range scenarios {
		for run := range *runsPtr {
			input := generateInput(random, scenario)
			for _, strategy := range allocation.Strategies() {
				fmt.Printf("Benchmarking scenario \"%v\" with strategy \"%v\" (run %d)\n", scenario.Name, strategy, run)
				result := measure(strategy, input)
				result.Scenario = scenario
				result.Run = run
				results = append(results, result)
			}
		}
	}

	toCsv(*outPtr, results)
}

func parseScenario(value string) (Scenario, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 4 {
		return Scenario{}, fmt.Errorf("expected rooms:exams:teachers:days, got \"%v\"", value)
	}

	numbers := make([]int, len(parts))
	for i, part := range parts {
		number, err := strconv.Atoi(part)
		if err != nil {
			return Scenario{}, fmt.Errorf("invalid number \"%v\" in \"%v\": %w", part, value, err)
		}
		if number < 0 || (i == 3 && number == 0) {
			return Scenario{}, fmt.Errorf("invalid number \"%v\" in \"%v\"", part, value)
		}
		numbers[i] = number
	}

	return Scenario{
		Name:     strings.TrimSpace(value),
		Rooms:    numbers[0],
		Exams:    numbers[1],
		Teachers: numbers[2],
		Days:     numbers[3],
	}, nil
}

func generateInput(random *rand.Rand, scenario Scenario) model.Input {
	start := time.Date(2025, 2, 17, 0, 0, 0, 0, time.UTC)
	// Exams only take place on weekdays
	dates := make([]string, 0, scenario.Days)
	for day := start; len(dates) < scenario.Days; day = day.AddDate(0, 0, 1) {
		if day.Weekday() != time.Saturday && day.Weekday() != time.Sunday {
			dates = append(dates, day.Format(time.DateOnly))
		}
	}

	input := model.Input{Leaves: make(map[string][]model.Leave)}
	for i := range scenario.Rooms {
		input.Rooms = append(input.Rooms, model.Room{
			Id:       fmt.Sprint("room-", i),
			Name:     fmt.Sprint("Room ", i),
			Capacity: random.Intn(model.MaxRoomCapacity) + model.MinRoomCapacity,
		})
	}
	for i := range scenario.Exams {
		input.Exams = append(input.Exams, model.Exam{
			Id:               fmt.Sprint("exam-", i),
			Department:       departments[random.Intn(len(departments))],
			EligibleStudents: random.Intn(120) + 1,
			Shift:            shifts[random.Intn(len(shifts))],
			Date:             dates[random.Intn(len(dates))],
		})
	}
	availabilities := []model.Availability{model.AvailabilityMorning, model.AvailabilityAfternoon, model.AvailabilityBoth, model.AvailabilityBoth}
	for i := range scenario.Teachers {
		teacher := model.Teacher{
			Id:         fmt.Sprint("teacher-", i),
			Name:       fmt.Sprint("Teacher ", i),
			Experience: experiences[random.Intn(len(experiences))],
			WeeklyAvailability: lo.SliceToMap(weekdays, func(weekday string) (string, model.Availability) {
				return weekday, availabilities[random.Intn(len(availabilities))]
			}),
		}
		input.Teachers = append(input.Teachers, teacher)
		if random.Intn(5) == 0 {
			input.Leaves[teacher.Id] = []model.Leave{{Date: dates[random.Intn(len(dates))], Reason: "Generated"}}
		}
	}
	return input
}

func measure(strategy allocation.Strategy, input model.Input) BenchmarkResult {
	allocator := lo.Must(allocation.NewAllocator(strategy, logr.Discard()))

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	start := time.Now()

	result, err := allocator.Build(input)
	if err != nil {
		log.Fatalf("an error occurred during allocation using strategy \"%v\": %v", strategy, err)
	}

	duration := time.Since(start)
	runtime.ReadMemStats(&after)

	if !allocator.Verify(result, input) {
		log.Fatalf("verification failed using strategy \"%v\"", strategy)
	}

	return BenchmarkResult{
		Strategy:      strategy,
		Duration:      duration,
		Memory:        float32(after.TotalAlloc-before.TotalAlloc) / MB,
		SeatsRequired: result.Diagnostics.Staffing.SeatsRequired,
		SeatsFilled:   result.Diagnostics.Staffing.SeatsFilled,
		UpperBound:    result.Diagnostics.Staffing.UpperBound,
		Unstaffed:     result.Diagnostics.UnstaffedRooms,
		Dropped: lo.SumBy(result.Diagnostics.DroppedDemand, func(demand allocation.DroppedDemand) int {
			return demand.Students
		}),
	}
}

func toCsv(path string, results []BenchmarkResult) {
	file, err := os.Create(path)
	if err != nil {
		log.Panicf("cannot create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(csvHeader()); err != nil {
		log.Panicf("cannot write CSV header: %v", err)
	}
	for _, result := range results {
		if err := writer.Write(csvRecord(result)); err != nil {
			log.Panicf("cannot write CSV record: %v", err)
		}
	}
}

func csvHeader() []string {
	return []string{"Strategy", "Scenario", "Run", "Rooms", "Exams", "Teachers", "Days", "Duration(ms)", "Allocated(MB)", "SeatsRequired", "SeatsFilled", "UpperBound", "UnstaffedRooms", "DroppedStudents"}
}

func csvRecord(result BenchmarkResult) []string {
	return []string{
		string(result.Strategy),
		result.Scenario.Name,
		fmt.Sprintf("%d", result.Run),
		fmt.Sprintf("%d", result.Scenario.Rooms),
		fmt.Sprintf("%d", result.Scenario.Exams),
		fmt.Sprintf("%d", result.Scenario.Teachers),
		fmt.Sprintf("%d", result.Scenario.Days),
		fmt.Sprintf("%.3f", float64(result.Duration.Microseconds())/1000),
		fmt.Sprintf("%.1f", result.Memory),
		fmt.Sprintf("%d", result.SeatsRequired),
		fmt.Sprintf("%d", result.SeatsFilled),
		fmt.Sprintf("%d", result.UpperBound),
		fmt.Sprintf("%d", result.Unstaffed),
		fmt.Sprintf("%d", result.Dropped),
	}
}
