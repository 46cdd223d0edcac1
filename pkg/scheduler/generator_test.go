package scheduler

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curiouspeterson/dispatch-scheduler-api/pkg/models"
)

func scenarioInput() Input {
	return Input{
		Employees: []models.Employee{
			{ID: "e1", Name: "Avery", Role: models.RoleDispatcher, WeeklyHoursScheduled: 40},
			{ID: "e2", Name: "Blake", Role: models.RoleDispatcher, WeeklyHoursScheduled: 40},
		},
		Shifts: []models.ShiftDefinition{
			{ID: "day", Name: "Day", StartTime: "07:00:00", EndTime: "19:00:00", DurationHours: 12},
		},
		Patterns: []models.DutyPattern{
			{ID: "p1", Name: "2 on 1 off", Cycle: []string{"day", "day", ""}},
		},
		EmployeePatterns: []models.EmployeePattern{
			{ID: "ep1", EmployeeID: "e1", PatternID: "p1", AnchorDate: date(2025, 1, 1)},
			{ID: "ep2", EmployeeID: "e2", PatternID: "p1", AnchorDate: date(2025, 1, 1)},
		},
		Requirements: []models.StaffingRequirement{
			{ID: "r1", Name: "Day", StartTime: "07:00:00", EndTime: "19:00:00", MinimumEmployees: 2, SupervisorRequired: true},
		},
	}
}

func TestGenerateScenario(t *testing.T) {
	g := NewGenerator(scenarioInput())
	result := g.Generate(Options{StartDate: date(2025, 1, 1), EndDate: date(2025, 1, 3)})

	// Both employees work days 1-2 and are off day 3.
	require.Len(t, result.Assignments, 4)
	for _, a := range result.Assignments {
		assert.Equal(t, "day", a.ShiftID)
		assert.Equal(t, models.StatusDraft, a.Status)
		assert.True(t, a.Date.Before(date(2025, 1, 3)))
	}

	require.Len(t, result.Coverage, 3)

	// Days 1-2 meet headcount: no deficit for the period.
	for _, v := range result.Warnings {
		if v.Kind == models.ViolationCoverageDeficit && v.PeriodKey == "07:00:00-19:00:00" {
			t.Errorf("unexpected deficit warning on %v", v.Date)
		}
	}

	// Neither employee is a supervisor: warning on every covered date.
	var supervisorDates []time.Time
	for _, v := range result.Warnings {
		if v.Kind == models.ViolationMissingSupervisor {
			supervisorDates = append(supervisorDates, v.Date)
		}
	}
	assert.Contains(t, supervisorDates, date(2025, 1, 1))
	assert.Contains(t, supervisorDates, date(2025, 1, 2))

	// Day 3 is fully unstaffed on a mandatory period: error, run fails.
	require.Len(t, result.Errors, 1)
	assert.Equal(t, models.ViolationCoverageDeficit, result.Errors[0].Kind)
	assert.Equal(t, date(2025, 1, 3), result.Errors[0].Date)
	assert.False(t, result.Success)
}

func TestGenerateDeterministic(t *testing.T) {
	input := scenarioInput()
	opts := Options{StartDate: date(2025, 1, 1), EndDate: date(2025, 1, 14)}

	r1 := NewGenerator(input).Generate(opts)
	r2 := NewGenerator(input).Generate(opts)
	if !reflect.DeepEqual(r1, r2) {
		t.Fatal("identical inputs must produce identical results")
	}

	// The same generator instance is reusable too.
	g := NewGenerator(input)
	r3 := g.Generate(opts)
	r4 := g.Generate(opts)
	if !reflect.DeepEqual(r3, r4) {
		t.Fatal("repeated Generate calls must produce identical results")
	}
}

func TestGenerateDeterministicFractionalOvertime(t *testing.T) {
	// Fractional weekly excesses from several employees in one week: the
	// date-level rollup sums floats, so the summation order must be fixed
	// or repeated runs diverge in the last bit. Integral hours (as in the
	// other determinism test) sum exactly in any order and would not catch
	// this.
	input := Input{
		Employees: []models.Employee{
			{ID: "e1", Name: "Avery", Role: models.RoleDispatcher, WeeklyHoursScheduled: 24},
			{ID: "e2", Name: "Blake", Role: models.RoleDispatcher, WeeklyHoursScheduled: 30.4},
			{ID: "e3", Name: "Casey", Role: models.RoleDispatcher, WeeklyHoursScheduled: 29.8},
		},
		Shifts: []models.ShiftDefinition{
			{ID: "s1", Name: "Long", StartTime: "07:00:00", EndTime: "18:24:00", DurationHours: 11.4},
			{ID: "s2", Name: "Mid", StartTime: "08:00:00", EndTime: "18:18:00", DurationHours: 10.3},
			{ID: "s3", Name: "Short", StartTime: "09:00:00", EndTime: "19:00:00", DurationHours: 10},
		},
		Patterns: []models.DutyPattern{
			{ID: "p1", Name: "Daily long", Cycle: []string{"s1"}},
			{ID: "p2", Name: "Daily mid", Cycle: []string{"s2"}},
			{ID: "p3", Name: "Daily short", Cycle: []string{"s3"}},
		},
		EmployeePatterns: []models.EmployeePattern{
			{ID: "ep1", EmployeeID: "e1", PatternID: "p1", AnchorDate: date(2025, 1, 5)},
			{ID: "ep2", EmployeeID: "e2", PatternID: "p2", AnchorDate: date(2025, 1, 5)},
			{ID: "ep3", EmployeeID: "e3", PatternID: "p3", AnchorDate: date(2025, 1, 5)},
		},
		Requirements: []models.StaffingRequirement{
			{ID: "r1", Name: "Day", StartTime: "07:00:00", EndTime: "19:00:00", MinimumEmployees: 3},
			{ID: "r2", Name: "Night", StartTime: "19:00:00", EndTime: "07:00:00", MinimumEmployees: 0},
		},
	}
	// Sunday 2025-01-05 through Saturday 2025-01-11: one full week.
	opts := Options{StartDate: date(2025, 1, 5), EndDate: date(2025, 1, 11)}

	base := NewGenerator(input).Generate(opts)
	require.Positive(t, base.Coverage[0].OvertimeHours)
	for i := 0; i < 200; i++ {
		got := NewGenerator(input).Generate(opts)
		if !reflect.DeepEqual(base, got) {
			t.Fatalf("run %d differs from the first; overtime %v vs %v",
				i, got.Coverage[0].OvertimeHours, base.Coverage[0].OvertimeHours)
		}
	}
}

func TestGenerateNoDoubleAssignment(t *testing.T) {
	result := NewGenerator(scenarioInput()).Generate(Options{StartDate: date(2025, 1, 1), EndDate: date(2025, 1, 31)})

	seen := make(map[string]bool)
	for _, a := range result.Assignments {
		key := a.EmployeeID + "|" + a.Date.Format("2006-01-02")
		assert.False(t, seen[key], "duplicate assignment for %s", key)
		seen[key] = true
	}
}

func TestGenerateInvalidOptions(t *testing.T) {
	g := NewGenerator(scenarioInput())

	result := g.Generate(Options{})
	assert.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, models.ViolationInvalidRequest, result.Errors[0].Kind)
	assert.Empty(t, result.Assignments, "no assignments attempted on bad options")

	result = g.Generate(Options{StartDate: date(2025, 1, 10), EndDate: date(2025, 1, 1)})
	assert.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Empty(t, result.Assignments)
}

func TestGenerateInvalidPatternIsolated(t *testing.T) {
	input := scenarioInput()
	input.EmployeePatterns[1].PatternID = "does-not-exist"

	result := NewGenerator(input).Generate(Options{StartDate: date(2025, 1, 1), EndDate: date(2025, 1, 2)})

	assert.False(t, result.Success)

	var patternErrors []models.Violation
	for _, v := range result.Errors {
		if v.Kind == models.ViolationInvalidPatternData {
			patternErrors = append(patternErrors, v)
		}
	}
	require.Len(t, patternErrors, 1)
	assert.Equal(t, "e2", patternErrors[0].EmployeeID)

	// e2 is excluded for the run; e1 is unaffected.
	for _, a := range result.Assignments {
		assert.Equal(t, "e1", a.EmployeeID)
	}
	assert.Len(t, result.Assignments, 2)
}

func TestGenerateUnknownShiftInCycle(t *testing.T) {
	input := scenarioInput()
	input.Patterns = append(input.Patterns, models.DutyPattern{
		ID: "p2", Name: "Broken", Cycle: []string{"ghost"},
	})
	input.EmployeePatterns[1] = models.EmployeePattern{
		ID: "ep2", EmployeeID: "e2", PatternID: "p2", AnchorDate: date(2025, 1, 1),
	}

	result := NewGenerator(input).Generate(Options{StartDate: date(2025, 1, 1), EndDate: date(2025, 1, 1)})

	assert.False(t, result.Success)
	for _, a := range result.Assignments {
		assert.NotEqual(t, "e2", a.EmployeeID)
	}
}

func TestGeneratePatternConflict(t *testing.T) {
	input := scenarioInput()
	input.EmployeePatterns = append(input.EmployeePatterns, models.EmployeePattern{
		ID: "ep3", EmployeeID: "e1", PatternID: "p1", AnchorDate: date(2025, 1, 2),
	})

	result := NewGenerator(input).Generate(Options{StartDate: date(2025, 1, 1), EndDate: date(2025, 1, 2)})

	assert.False(t, result.Success)

	var conflicts []models.Violation
	for _, v := range result.Errors {
		if v.Kind == models.ViolationPatternConflict {
			conflicts = append(conflicts, v)
		}
	}
	require.Len(t, conflicts, 2, "one conflict per date in the window")
	for _, v := range conflicts {
		assert.Equal(t, "e1", v.EmployeeID)
	}

	// Both bindings are excluded: only e2 gets assignments.
	for _, a := range result.Assignments {
		assert.Equal(t, "e2", a.EmployeeID)
	}
}

func TestGenerateOvertimeRollup(t *testing.T) {
	// One employee working 12h every day of a full Sunday-week: 84 hours
	// against 40 scheduled.
	input := Input{
		Employees: []models.Employee{
			{ID: "e1", Name: "Avery", Role: models.RoleDispatcher, WeeklyHoursScheduled: 40},
		},
		Shifts: []models.ShiftDefinition{
			{ID: "day", Name: "Day", StartTime: "07:00:00", EndTime: "19:00:00", DurationHours: 12},
		},
		Patterns: []models.DutyPattern{
			{ID: "daily", Name: "Every day", Cycle: []string{"day"}},
		},
		EmployeePatterns: []models.EmployeePattern{
			{ID: "ep1", EmployeeID: "e1", PatternID: "daily", AnchorDate: date(2025, 1, 5)},
		},
		Requirements: []models.StaffingRequirement{
			{ID: "r1", Name: "Day", StartTime: "07:00:00", EndTime: "19:00:00", MinimumEmployees: 1},
			{ID: "r2", Name: "Night", StartTime: "19:00:00", EndTime: "07:00:00", MinimumEmployees: 0},
		},
	}

	// Sunday 2025-01-05 through Saturday 2025-01-11.
	result := NewGenerator(input).Generate(Options{StartDate: date(2025, 1, 5), EndDate: date(2025, 1, 11)})

	var overtime []models.Violation
	for _, v := range result.Warnings {
		if v.Kind == models.ViolationOvertime {
			overtime = append(overtime, v)
		}
	}
	require.Len(t, overtime, 1)
	assert.Equal(t, date(2025, 1, 5), overtime[0].Date)

	// The 44 excess hours land date-level on the week's first window date.
	require.Len(t, result.Coverage, 7)
	assert.InDelta(t, 44.0, result.Coverage[0].OvertimeHours, 1e-9)
	for _, report := range result.Coverage[1:] {
		assert.Zero(t, report.OvertimeHours)
	}
	for _, report := range result.Coverage {
		for _, entry := range report.Periods {
			assert.Zero(t, entry.OvertimeHours, "per-period overtime stays zero-filled")
		}
	}

	assert.True(t, result.Success, "overtime alone never fails a run")
}
