package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/limaJavier/invigilation/pkg/allocation"
	"github.com/limaJavier/invigilation/pkg/model"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

const strategyHelp = `Strategy used to assign duties. Allowed values are:
- "retrospective" (the fairness target is only used to classify duty loads) and
- "capped" (teachers reaching the fairness target get no further duties), where "retrospective" is the default`

var validFormats = []string{"json", "table"}

func main() {
	klogFlags := flag.NewFlagSet("klog", flag.ExitOnError)
	klog.InitFlags(klogFlags)

	root := &cobra.Command{
		Use:          "invigilation",
		Short:        "Seat exam cohorts into rooms and build the invigilation duty roster",
		SilenceUsage: true,
	}
	root.PersistentFlags().AddGoFlagSet(klogFlags)
	root.AddCommand(newAllocateCommand(), newVerifyCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type allocateOptions struct {
	file     string
	out      string
	strategy string
	format   string
}

func newAllocateCommand() *cobra.Command {
	options := allocateOptions{}
	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Build the room plan and duty roster for an input snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAllocate(options, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&options.file, "file", "", "Path to the input file")
	cmd.Flags().StringVar(&options.out, "out", "", "Path to the file where the output will be written; if empty, it'll be written into the Standard Output")
	cmd.Flags().StringVar(&options.strategy, "strategy", string(allocation.StrategyRetrospective), strategyHelp)
	cmd.Flags().StringVar(&options.format, "format", "json", `Output format: "json" or "table", where "json" is the default`)
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runAllocate(options allocateOptions, stdout io.Writer) error {
	format := strings.ToLower(options.format)
	if !slices.Contains(validFormats, format) {
		return fmt.Errorf("%v is not a valid format", format)
	}

	// Extract input
	input, err := model.InputFromJson(options.file)
	if err != nil {
		return fmt.Errorf("cannot parse input file: %w", err)
	}
	logger := klog.Background()

	// Initialize engine
	allocator, err := allocation.NewAllocator(allocation.Strategy(strings.ToLower(options.strategy)), logger)
	if err != nil {
		return err
	}

	// Build allocation
	result, err := allocator.Build(input)
	if err != nil {
		return fmt.Errorf("an error occurred during allocation: %w", err)
	}

	// Verify allocation correctness
	if !allocator.Verify(result, input) {
		return fmt.Errorf("allocation verification failed")
	}

	var output io.Writer = stdout
	if options.out != "" {
		file, err := os.Create(options.out)
		if err != nil {
			return fmt.Errorf("an error occurred while writing to the output file: %w", err)
		}
		defer file.Close()
		output = file
	}

	if format == "table" {
		printTable(output, result)
		return nil
	}
	encoder := json.NewEncoder(output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func newVerifyCommand() *cobra.Command {
	var file, strategy string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Validate an input snapshot and check the allocation it produces against every invariant",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := model.InputFromJson(file)
			if err != nil {
				return fmt.Errorf("cannot parse input file: %w", err)
			}
			allocator, err := allocation.NewAllocator(allocation.Strategy(strings.ToLower(strategy)), klog.Background())
			if err != nil {
				return err
			}
			result, err := allocator.Build(input)
			if err != nil {
				return err
			}
			if !allocator.Verify(result, input) {
				return fmt.Errorf("allocation verification failed")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Well done!")
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Path to the input file")
	cmd.Flags().StringVar(&strategy, "strategy", string(allocation.StrategyRetrospective), strategyHelp)
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func printTable(output io.Writer, result allocation.Result) {
	header := color.New(color.Bold)
	warning := color.New(color.FgYellow)
	failure := color.New(color.FgRed)

	header.Fprintln(output, "Room allocations")
	for i, room := range result.RoomAllocations {
		departments := lo.Map(room.Allocations, func(department allocation.DepartmentAllocation, _ int) string {
			return fmt.Sprintf("%v:%v", department.Department, department.Students)
		})
		fmt.Fprintf(output, "%v %-9v %-12v %3d/%-3d [%v] ", room.Date, room.Shift, room.Room, room.TotalStudents, room.Capacity, strings.Join(departments, " "))

		assignment := result.TeacherAssignments[i]
		switch {
		case assignment.Staffing.Status() == allocation.StaffingUnstaffed:
			failure.Fprintln(output, allocation.UnassignedMarker)
		case assignment.Understaffed():
			warning.Fprintf(output, "%v (%d/%d)\n", teacherNames(assignment), len(assignment.Staffing.Teachers()), assignment.TeachersRequired)
		default:
			fmt.Fprintln(output, teacherNames(assignment))
		}
	}

	for _, dropped := range result.Diagnostics.DroppedDemand {
		failure.Fprintf(output, "%v %v: %d %v students without a seat\n", dropped.Date, dropped.Shift, dropped.Students, dropped.Department)
	}

	fmt.Fprintln(output)
	header.Fprintln(output, "Summary")
	summary := result.Summary
	if summary.NoTeachersAvailable {
		failure.Fprintln(output, "No teachers available")
	} else {
		fmt.Fprintf(output, "Average duty per teacher: %d\n", *summary.AverageDutyPerTeacher)
	}
	fmt.Fprintf(output, "Rooms: %d, exams: %d, seats filled: %d/%d (at most %d fillable)\n",
		summary.TotalRoomsAllocated, summary.TotalExams,
		result.Diagnostics.Staffing.SeatsFilled, result.Diagnostics.Staffing.SeatsRequired, result.Diagnostics.Staffing.UpperBound)
	printLoads(output, "Below average", result.Distribution.BelowAverage, warning)
	printLoads(output, "Above average", result.Distribution.AboveAverage, failure)
}

func printLoads(output io.Writer, title string, loads []allocation.DutyLoad, style *color.Color) {
	if len(loads) == 0 {
		return
	}
	style.Fprintf(output, "%v: ", title)
	fmt.Fprintln(output, strings.Join(lo.Map(loads, func(load allocation.DutyLoad, _ int) string {
		return fmt.Sprintf("%v (%d)", load.Name, load.DutiesAssigned)
	}), ", "))
}

func teacherNames(assignment allocation.DutyAssignment) string {
	return strings.Join(lo.Map(assignment.Staffing.Teachers(), func(teacher allocation.AssignedTeacher, _ int) string {
		return teacher.String()
	}), ", ")
}
