package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"
	"go.uber.org/multierr"
)

const (
	MinRoomCapacity = 1
	MaxRoomCapacity = 200
)

var ErrInvalidInput = errors.New("invalid input")

// Namespace for identifiers derived from record names when a snapshot omits them
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("github.com/limaJavier/invigilation"))

type Shift string

const (
	ShiftMorning   Shift = "morning"
	ShiftAfternoon Shift = "afternoon"
)

func (shift Shift) Valid() bool {
	return shift == ShiftMorning || shift == ShiftAfternoon
}

type Availability string

const (
	AvailabilityMorning   Availability = "morning"
	AvailabilityAfternoon Availability = "afternoon"
	AvailabilityBoth      Availability = "both"
)

// Covers reports whether the availability allows a duty on the given shift. Unknown values cover nothing
func (availability Availability) Covers(shift Shift) bool {
	return availability == AvailabilityBoth || (shift.Valid() && string(availability) == string(shift))
}

type Experience string

const (
	ExperienceNew         Experience = "new"
	ExperienceExperienced Experience = "experienced"
)

func (experience Experience) Valid() bool {
	return experience == ExperienceNew || experience == ExperienceExperienced
}

// WeeklyAvailability maps a lowercase weekday name (e.g. "monday") to the shifts a teacher can cover
type WeeklyAvailability map[string]Availability

type Room struct {
	Id       string `json:"id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
	Building string `json:"building"`
}

type Exam struct {
	Id               string   `json:"id"`
	Name             string   `json:"name"`
	Department       string   `json:"department"`
	Subject          string   `json:"subject"`
	EligibleStudents int      `json:"eligibleStudents"`
	Shift            Shift    `json:"shift"`
	Date             string   `json:"date"`
	StartTime        string   `json:"startTime"`
	EndTime          string   `json:"endTime"`
	Subjects         []string `json:"subjects"`
}

type Teacher struct {
	Id                 string             `json:"id"`
	Name               string             `json:"name"`
	Email              string             `json:"email"`
	Department         string             `json:"department"`
	DateOfJoining      string             `json:"dateOfJoining"`
	Experience         Experience         `json:"experience"`
	WeeklyAvailability WeeklyAvailability `json:"weeklyAvailability"`
}

type Leave struct {
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

// TeacherLeave may reference its teacher either by Id or by Name; processing resolves both to the teacher Id
type TeacherLeave struct {
	Id     string  `json:"id"`
	Name   string  `json:"name"`
	Leaves []Leave `json:"leaves"`
}

type RawInput struct {
	Rooms         []Room         `json:"rooms"`
	Exams         []Exam         `json:"exams"`
	Teachers      []Teacher      `json:"teachers"`
	TeacherLeaves []TeacherLeave `json:"teacherLeaves"`
}

// RejectedTeacher is a teacher record left out of the roster because one of its fields holds an unknown value
type RejectedTeacher struct {
	Id     string `json:"id"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type Input struct {
	Rooms            []Room
	Exams            []Exam
	Teachers         []Teacher
	Leaves           map[string][]Leave // Leaves per teacher Id
	UnmatchedLeaves  []TeacherLeave     // Leave records whose teacher is not part of the roster
	RejectedTeachers []RejectedTeacher
}

func InputFromJson(file string) (Input, error) {
	content, err := os.ReadFile(file)
	if err != nil {
		return Input{}, fmt.Errorf("cannot read input file: %w", err)
	}
	return InputFromReader(bytes.NewReader(content))
}

func InputFromReader(reader io.Reader) (Input, error) {
	var inputJson map[string]any
	if err := json.NewDecoder(reader).Decode(&inputJson); err != nil {
		return Input{}, fmt.Errorf("cannot decode input json: %w", err)
	}

	var rawInput RawInput
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       availabilityHook,
		Result:           &rawInput,
	})
	if err != nil {
		return Input{}, err
	}
	if err := decoder.Decode(inputJson); err != nil {
		return Input{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return ProcessRawInput(rawInput)
}

// availabilityHook turns availability values of unexpected types (numbers, objects, ...) into an empty availability instead of failing the decoding.
// A weekly availability that is not an object at all becomes an empty one, so the teacher is never available
func availabilityHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	switch to {
	case reflect.TypeOf(Availability("")):
		if from.Kind() != reflect.String {
			return "", nil
		}
	case reflect.TypeOf(WeeklyAvailability{}):
		if from.Kind() != reflect.Map {
			return map[string]any{}, nil
		}
	}
	return data, nil
}

func ProcessRawInput(rawInput RawInput) (Input, error) {
	var err error
	input := Input{
		Rooms:           make([]Room, 0, len(rawInput.Rooms)),
		Exams:           make([]Exam, 0, len(rawInput.Exams)),
		Teachers:        make([]Teacher, 0, len(rawInput.Teachers)),
		Leaves:           make(map[string][]Leave),
		UnmatchedLeaves:  make([]TeacherLeave, 0),
		RejectedTeachers: make([]RejectedTeacher, 0),
	}

	//** Manage rooms
	roomIds := make(map[string]bool)
	for i, room := range rawInput.Rooms {
		room.Name = strings.TrimSpace(room.Name)
		room.Building = strings.TrimSpace(room.Building)
		if room.Name == "" {
			err = multierr.Append(err, fmt.Errorf("%w: room #%d has no name", ErrInvalidInput, i))
			continue
		}
		if room.Capacity < MinRoomCapacity || room.Capacity > MaxRoomCapacity {
			err = multierr.Append(err, fmt.Errorf("%w: room \"%v\" capacity %d is outside %d..%d", ErrInvalidInput, room.Name, room.Capacity, MinRoomCapacity, MaxRoomCapacity))
			continue
		}
		if room.Id == "" {
			room.Id = deriveId("room", room.Name)
		}
		if roomIds[room.Id] {
			err = multierr.Append(err, fmt.Errorf("%w: duplicate room id \"%v\"", ErrInvalidInput, room.Id))
			continue
		}
		roomIds[room.Id] = true
		input.Rooms = append(input.Rooms, room)
	}

	//** Manage exams
	for i, exam := range rawInput.Exams {
		exam.Department = strings.TrimSpace(exam.Department)
		exam.Shift = Shift(strings.ToLower(strings.TrimSpace(string(exam.Shift))))
		label := exam.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i)
		}

		if exam.Department == "" {
			err = multierr.Append(err, fmt.Errorf("%w: exam \"%v\" has no department", ErrInvalidInput, label))
			continue
		}
		if exam.EligibleStudents < 1 {
			err = multierr.Append(err, fmt.Errorf("%w: exam \"%v\" must have at least one eligible student: %d", ErrInvalidInput, label, exam.EligibleStudents))
			continue
		}
		if !exam.Shift.Valid() {
			err = multierr.Append(err, fmt.Errorf("%w: exam \"%v\" has an unknown shift \"%v\"", ErrInvalidInput, label, exam.Shift))
			continue
		}
		date, dateErr := NormalizeDate(exam.Date)
		if dateErr != nil {
			err = multierr.Append(err, fmt.Errorf("%w: exam \"%v\": %v", ErrInvalidInput, label, dateErr))
			continue
		}
		exam.Date = date
		if exam.Id == "" {
			exam.Id = deriveId("exam", fmt.Sprintf("%v/%v/%v/%v", exam.Department, exam.Subject, exam.Date, exam.Shift))
		}
		input.Exams = append(input.Exams, exam)
	}

	//** Manage teachers
	seen := make(map[string]bool)
	for i, teacher := range rawInput.Teachers {
		teacher.Name = strings.TrimSpace(teacher.Name)
		teacher.Experience = Experience(strings.ToLower(strings.TrimSpace(string(teacher.Experience))))
		if teacher.Name == "" {
			err = multierr.Append(err, fmt.Errorf("%w: teacher #%d has no name", ErrInvalidInput, i))
			continue
		}
		if teacher.Id == "" {
			teacher.Id = deriveId("teacher", teacher.Name)
		}
		if seen[teacher.Id] {
			err = multierr.Append(err, fmt.Errorf("%w: duplicate teacher id \"%v\"", ErrInvalidInput, teacher.Id))
			continue
		}
		seen[teacher.Id] = true

		// The rest of the roster is still allocated; the record is reported instead
		if !teacher.Experience.Valid() {
			input.RejectedTeachers = append(input.RejectedTeachers, RejectedTeacher{
				Id:     teacher.Id,
				Name:   teacher.Name,
				Reason: fmt.Sprintf("unknown experience \"%v\"", teacher.Experience),
			})
			continue
		}

		// Malformed values are kept as they are, they simply never cover a shift
		availability := make(WeeklyAvailability, len(teacher.WeeklyAvailability))
		for day, value := range teacher.WeeklyAvailability {
			availability[strings.ToLower(strings.TrimSpace(day))] = Availability(strings.ToLower(strings.TrimSpace(string(value))))
		}
		teacher.WeeklyAvailability = availability
		input.Teachers = append(input.Teachers, teacher)
	}

	//** Manage leaves
	byName := lo.SliceToMap(input.Teachers, func(teacher Teacher) (string, string) {
		return teacher.Name, teacher.Id
	})
	for _, teacherLeave := range rawInput.TeacherLeaves {
		teacherId, ok := teacherLeave.Id, seen[teacherLeave.Id]
		if !ok {
			teacherId, ok = byName[strings.TrimSpace(teacherLeave.Name)]
		}
		if !ok {
			input.UnmatchedLeaves = append(input.UnmatchedLeaves, teacherLeave)
			continue
		}

		for _, leave := range teacherLeave.Leaves {
			date, dateErr := NormalizeDate(leave.Date)
			if dateErr != nil {
				err = multierr.Append(err, fmt.Errorf("%w: leave of teacher \"%v\": %v", ErrInvalidInput, teacherId, dateErr))
				continue
			}
			input.Leaves[teacherId] = append(input.Leaves[teacherId], Leave{Date: date, Reason: leave.Reason})
		}
	}

	if err != nil {
		return Input{}, err
	}
	return input, nil
}

// NormalizeDate accepts either a calendar date or an RFC 3339 timestamp and returns the calendar date in the timestamp's own offset
func NormalizeDate(value string) (string, error) {
	value = strings.TrimSpace(value)
	if date, err := time.Parse(time.DateOnly, value); err == nil {
		return date.Format(time.DateOnly), nil
	}
	if timestamp, err := time.Parse(time.RFC3339, value); err == nil {
		return timestamp.Format(time.DateOnly), nil
	}
	return "", fmt.Errorf("invalid date \"%v\"", value)
}

// Weekday returns the lowercase weekday name of a normalized date
func Weekday(date string) (string, bool) {
	parsed, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return "", false
	}
	return strings.ToLower(parsed.Weekday().String()), true
}

func deriveId(kind, name string) string {
	return uuid.NewSHA1(idNamespace, []byte(kind+":"+name)).String()
}
