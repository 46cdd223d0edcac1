// Package models holds the domain types for dispatch schedule generation.
// Everything here is a plain value; the generator treats its inputs as
// read-only and owns the outputs it produces for one run.
package models

import (
	"time"

	"github.com/curiouspeterson/dispatch-scheduler-api/pkg/timeutil"
)

// EmployeeRole identifies what an employee does on shift.
type EmployeeRole string

const (
	RoleDispatcher      EmployeeRole = "dispatcher"
	RoleShiftSupervisor EmployeeRole = "shift_supervisor"
	RoleManagement      EmployeeRole = "management"
)

// CountsAsSupervisor reports whether the role satisfies supervisor-coverage
// requirements. Management covers a period the same way a shift supervisor
// does.
func (r EmployeeRole) CountsAsSupervisor() bool {
	return r == RoleShiftSupervisor || r == RoleManagement
}

// Employee is a schedulable person.
type Employee struct {
	ID                   string       `json:"id"`
	Name                 string       `json:"name"`
	Role                 EmployeeRole `json:"role"`
	WeeklyHoursScheduled float64      `json:"weekly_hours_scheduled"`
}

// ShiftDefinition is a reusable wall-clock shift. EndTime earlier than
// StartTime means the shift runs past midnight into the next calendar day.
type ShiftDefinition struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	StartTime     string  `json:"start_time"` // "HH:MM:SS"
	EndTime       string  `json:"end_time"`   // "HH:MM:SS"
	DurationHours float64 `json:"duration_hours"`
}

// SpansMidnight reports whether the shift crosses into the next calendar
// day. Unparseable times read as non-spanning; they surface as pattern
// data errors during generation instead.
func (s *ShiftDefinition) SpansMidnight() bool {
	start, err1 := timeutil.ParseClock(s.StartTime)
	end, err2 := timeutil.ParseClock(s.EndTime)
	if err1 != nil || err2 != nil {
		return false
	}
	return timeutil.Wraps(start, end)
}

// DurationCategory buckets the shift length into the standard 4/8/10/12
// hour classes. Derived from the duration, never stored.
func (s *ShiftDefinition) DurationCategory() int {
	switch {
	case s.DurationHours <= 4:
		return 4
	case s.DurationHours <= 8:
		return 8
	case s.DurationHours <= 10:
		return 10
	default:
		return 12
	}
}

// DutyPattern is a strictly periodic cycle of shift slots. Each slot names
// a ShiftDefinition ID, or is empty for an off day.
type DutyPattern struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Cycle []string `json:"cycle"`
}

// EmployeePattern binds one employee to one duty pattern. AnchorDate is
// the calendar date that corresponds to cycle slot 0.
type EmployeePattern struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employee_id"`
	PatternID  string    `json:"pattern_id"`
	AnchorDate time.Time `json:"anchor_date"`
}

// StaffingRequirement is a named coverage period with a minimum headcount.
// The period may wrap past midnight.
type StaffingRequirement struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	StartTime          string `json:"start_time"` // "HH:MM:SS"
	EndTime            string `json:"end_time"`   // "HH:MM:SS"
	MinimumEmployees   int    `json:"minimum_employees"`
	SupervisorRequired bool   `json:"supervisor_required"`
}

// PeriodKey is the stable identifier coverage entries are keyed by, e.g.
// "07:00:00-19:00:00".
func (r *StaffingRequirement) PeriodKey() string {
	return r.StartTime + "-" + r.EndTime
}

// AssignmentStatus is the lifecycle state of a generated assignment.
type AssignmentStatus string

const (
	StatusDraft     AssignmentStatus = "draft"
	StatusPublished AssignmentStatus = "published"
)

// ScheduleAssignment places one employee on one shift for one calendar
// date. The generator produces these fresh on every run; merging with
// previously persisted rows is the caller's job.
type ScheduleAssignment struct {
	EmployeeID string           `json:"employee_id"`
	ShiftID    string           `json:"shift_id"`
	Date       time.Time        `json:"date"`
	Status     AssignmentStatus `json:"status"`
}

// CoverageEntry is the required-vs-actual tally for one period on one
// date. OvertimeHours is zero-filled per period; the weekly rollup lands
// on CoverageReport.OvertimeHours instead.
type CoverageEntry struct {
	Required      int     `json:"required"`
	Actual        int     `json:"actual"`
	Supervisors   int     `json:"supervisors"`
	OvertimeHours float64 `json:"overtime_hours"`
}

// CoverageReport is the coverage picture for one calendar date.
// OvertimeHours carries the date-level overtime rollup for the week that
// starts on this date (zero elsewhere).
type CoverageReport struct {
	Date          time.Time                 `json:"date"`
	Periods       map[string]*CoverageEntry `json:"periods"`
	OvertimeHours float64                   `json:"overtime_hours"`
}

// ViolationKind classifies a constraint violation.
type ViolationKind string

const (
	ViolationCoverageDeficit    ViolationKind = "coverage_deficit"
	ViolationMissingSupervisor  ViolationKind = "missing_supervisor"
	ViolationOvertime           ViolationKind = "overtime"
	ViolationPatternConflict    ViolationKind = "pattern_conflict"
	ViolationInvalidPatternData ViolationKind = "invalid_pattern_data"
	// ViolationInvalidRequest marks malformed generation options. It sits
	// outside the data-quality kinds so the pattern-error counters stay
	// honest.
	ViolationInvalidRequest ViolationKind = "invalid_request"
)

// Severity splits violations into non-fatal warnings and run-failing
// errors.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Violation is a single classified constraint finding.
type Violation struct {
	Kind       ViolationKind `json:"kind"`
	Severity   Severity      `json:"severity"`
	Date       time.Time     `json:"date"`
	PeriodKey  string        `json:"period_key,omitempty"`
	EmployeeID string        `json:"employee_id,omitempty"`
	Message    string        `json:"message"`
}

// IsError reports whether the violation fails the run.
func (v Violation) IsError() bool {
	return v.Severity == SeverityError
}

// GenerationResult is everything one generation run produced. Assignments
// and coverage are populated even when Success is false so a caller can
// inspect the non-persisted schedule.
type GenerationResult struct {
	Success     bool                 `json:"success"`
	Assignments []ScheduleAssignment `json:"assignments"`
	Coverage    []CoverageReport     `json:"coverage"`
	Warnings    []Violation          `json:"warnings"`
	Errors      []Violation          `json:"errors"`
}
