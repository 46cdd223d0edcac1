package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curiouspeterson/dispatch-scheduler-api/pkg/models"
)

func findViolations(violations []models.Violation, kind models.ViolationKind) []models.Violation {
	var out []models.Violation
	for _, v := range violations {
		if v.Kind == kind {
			out = append(out, v)
		}
	}
	return out
}

func TestValidatePartialDeficitIsWarning(t *testing.T) {
	coverage := []models.CoverageReport{{
		Date: date(2025, 1, 6),
		Periods: map[string]*models.CoverageEntry{
			"07:00:00-19:00:00": {Required: 4, Actual: 2},
			"19:00:00-07:00:00": {Required: 1, Actual: 1},
		},
	}}

	violations := Validate(coverage, nil, testEmployees(), dayNightRequirements(), testShifts())

	deficits := findViolations(violations, models.ViolationCoverageDeficit)
	require.Len(t, deficits, 1)
	assert.Equal(t, models.SeverityWarning, deficits[0].Severity)
	assert.Equal(t, "07:00:00-19:00:00", deficits[0].PeriodKey)
}

func TestValidateFullDeficitIsError(t *testing.T) {
	coverage := []models.CoverageReport{{
		Date: date(2025, 1, 6),
		Periods: map[string]*models.CoverageEntry{
			"07:00:00-19:00:00": {Required: 4, Actual: 0},
			"19:00:00-07:00:00": {Required: 1, Actual: 1},
		},
	}}

	violations := Validate(coverage, nil, testEmployees(), dayNightRequirements(), testShifts())

	deficits := findViolations(violations, models.ViolationCoverageDeficit)
	require.Len(t, deficits, 1)
	assert.Equal(t, models.SeverityError, deficits[0].Severity, "a fully unstaffed mandatory period is fatal")
}

func TestValidateMissingSupervisorIndependentOfHeadcount(t *testing.T) {
	// Headcount satisfied, supervisor still missing.
	coverage := []models.CoverageReport{{
		Date: date(2025, 1, 6),
		Periods: map[string]*models.CoverageEntry{
			"07:00:00-19:00:00": {Required: 2, Actual: 2, Supervisors: 0},
			"19:00:00-07:00:00": {Required: 1, Actual: 1},
		},
	}}

	violations := Validate(coverage, nil, testEmployees(), dayNightRequirements(), testShifts())

	missing := findViolations(violations, models.ViolationMissingSupervisor)
	require.Len(t, missing, 1)
	assert.Equal(t, models.SeverityWarning, missing[0].Severity)
	assert.Equal(t, "07:00:00-19:00:00", missing[0].PeriodKey)
	assert.Empty(t, findViolations(violations, models.ViolationCoverageDeficit))
}

func TestValidateOvertimeWeeklyBuckets(t *testing.T) {
	// Five 10-hour shifts Mon-Fri in the week of Sunday 2025-01-05.
	shifts := map[string]*models.ShiftDefinition{
		"long": {ID: "long", StartTime: "07:00:00", EndTime: "17:00:00", DurationHours: 10},
	}
	employees := map[string]*models.Employee{
		"e1": {ID: "e1", Role: models.RoleDispatcher, WeeklyHoursScheduled: 40},
	}
	var assignments []models.ScheduleAssignment
	for i := 0; i < 5; i++ {
		assignments = append(assignments, models.ScheduleAssignment{
			EmployeeID: "e1", ShiftID: "long", Date: date(2025, 1, 6).AddDate(0, 0, i),
		})
	}

	violations := Validate(nil, assignments, employees, nil, shifts)

	overtime := findViolations(violations, models.ViolationOvertime)
	require.Len(t, overtime, 1)
	assert.Equal(t, models.SeverityWarning, overtime[0].Severity)
	assert.Equal(t, "e1", overtime[0].EmployeeID)
	assert.Equal(t, date(2025, 1, 5), overtime[0].Date, "violation is dated at the Sunday week start")
}

func TestValidateOvertimeSplitAcrossWeeks(t *testing.T) {
	// 4 shifts in one Sunday-week and 4 in the next: 40 hours each week,
	// no overtime even though the 8-day total is 80.
	shifts := map[string]*models.ShiftDefinition{
		"long": {ID: "long", StartTime: "07:00:00", EndTime: "17:00:00", DurationHours: 10},
	}
	employees := map[string]*models.Employee{
		"e1": {ID: "e1", Role: models.RoleDispatcher, WeeklyHoursScheduled: 40},
	}
	var assignments []models.ScheduleAssignment
	for i := 0; i < 8; i++ {
		assignments = append(assignments, models.ScheduleAssignment{
			// Wed 2025-01-08 through Wed 2025-01-15 spans two Sunday-weeks.
			EmployeeID: "e1", ShiftID: "long", Date: date(2025, 1, 8).AddDate(0, 0, i),
		})
	}

	violations := Validate(nil, assignments, employees, nil, shifts)
	assert.Empty(t, findViolations(violations, models.ViolationOvertime))
}

func TestValidatePartitionGapWarning(t *testing.T) {
	// Only the day half is covered; the night half hides deficits.
	requirements := []models.StaffingRequirement{
		{ID: "r1", Name: "Day", StartTime: "07:00:00", EndTime: "19:00:00", MinimumEmployees: 2},
	}
	coverage := []models.CoverageReport{{
		Date: date(2025, 1, 6),
		Periods: map[string]*models.CoverageEntry{
			"07:00:00-19:00:00": {Required: 2, Actual: 2},
		},
	}}

	violations := Validate(coverage, nil, testEmployees(), requirements, testShifts())

	var gaps []models.Violation
	for _, v := range violations {
		if v.Kind == models.ViolationCoverageDeficit && v.PeriodKey == "" {
			gaps = append(gaps, v)
		}
	}
	// The uncovered night half is reported as two wall-clock ranges:
	// midnight to 07:00 and 19:00 to midnight.
	require.Len(t, gaps, 2)
	for _, g := range gaps {
		assert.Equal(t, models.SeverityWarning, g.Severity)
	}
}

func TestValidateFullPartitionNoGapWarning(t *testing.T) {
	coverage := []models.CoverageReport{{
		Date: date(2025, 1, 6),
		Periods: map[string]*models.CoverageEntry{
			"07:00:00-19:00:00": {Required: 2, Actual: 2},
			"19:00:00-07:00:00": {Required: 1, Actual: 1},
		},
	}}

	violations := Validate(coverage, nil, testEmployees(), dayNightRequirements(), testShifts())
	for _, v := range violations {
		assert.NotEmpty(t, v.PeriodKey, "no gap warnings expected: %s", v.Message)
	}
}
