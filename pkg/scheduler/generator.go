// Package scheduler generates dispatch schedules. It expands recurring
// duty patterns into concrete per-day assignments over a date window,
// aggregates them into coverage reports against staffing requirements,
// and classifies constraint violations. The package is pure: no I/O, no
// clock reads, no process-wide state; identical inputs always yield
// identical results.
package scheduler

import (
	"fmt"
	"sort"
	"time"

	"github.com/curiouspeterson/dispatch-scheduler-api/pkg/models"
	"github.com/curiouspeterson/dispatch-scheduler-api/pkg/timeutil"
)

// Options selects the inclusive date window to generate.
type Options struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// Input is the five read-only collections a generation run consumes. The
// caller fetches these; the generator performs no I/O of its own.
type Input struct {
	Employees        []models.Employee
	Patterns         []models.DutyPattern
	EmployeePatterns []models.EmployeePattern
	Shifts           []models.ShiftDefinition
	Requirements     []models.StaffingRequirement
}

// Generator runs schedule generation over one Input. It holds only
// indexes over the caller's data, so independent generators can run
// concurrently without coordination.
type Generator struct {
	input     Input
	employees map[string]*models.Employee
	shifts    map[string]*models.ShiftDefinition
	expander  *Expander
	bindings  map[string][]*models.EmployeePattern
	order     []string
}

// NewGenerator indexes the input collections for a run.
func NewGenerator(input Input) *Generator {
	g := &Generator{
		input:     input,
		employees: make(map[string]*models.Employee, len(input.Employees)),
		shifts:    make(map[string]*models.ShiftDefinition, len(input.Shifts)),
		expander:  NewExpander(input.Patterns),
		bindings:  make(map[string][]*models.EmployeePattern),
	}
	for i := range input.Employees {
		g.employees[input.Employees[i].ID] = &input.Employees[i]
	}
	for i := range input.Shifts {
		g.shifts[input.Shifts[i].ID] = &input.Shifts[i]
	}
	for i := range input.EmployeePatterns {
		ep := &input.EmployeePatterns[i]
		if _, seen := g.bindings[ep.EmployeeID]; !seen {
			g.order = append(g.order, ep.EmployeeID)
		}
		g.bindings[ep.EmployeeID] = append(g.bindings[ep.EmployeeID], ep)
	}
	// Sorted employee iteration keeps output bit-identical across runs.
	sort.Strings(g.order)
	return g
}

// Generate runs the full pipeline: option validation, per-date pattern
// expansion, per-date coverage aggregation, whole-window constraint
// validation, and result assembly. Data errors (bad patterns, conflicts)
// never abort the run; they mark it unsuccessful so the caller does not
// persist a partially broken schedule.
func (g *Generator) Generate(opts Options) models.GenerationResult {
	if v, ok := checkOptions(opts); !ok {
		return models.GenerationResult{Errors: []models.Violation{v}}
	}
	start := timeutil.DateOnly(opts.StartDate)
	end := timeutil.DateOnly(opts.EndDate)

	var violations []models.Violation

	// Bindings with broken pattern data exclude the employee for the
	// whole run. Conflicting bindings exclude per date below.
	usable := make(map[string][]*models.EmployeePattern, len(g.bindings))
	for _, employeeID := range g.order {
		for _, ep := range g.bindings[employeeID] {
			if err := g.checkBindingData(ep); err != nil {
				violations = append(violations, models.Violation{
					Kind:       models.ViolationInvalidPatternData,
					Severity:   models.SeverityError,
					Date:       start,
					EmployeeID: employeeID,
					Message:    err.Error(),
				})
				continue
			}
			usable[employeeID] = append(usable[employeeID], ep)
		}
	}

	var assignments []models.ScheduleAssignment
	byDate := make(map[time.Time][]models.ScheduleAssignment)
	var dates []time.Time

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
		for _, employeeID := range g.order {
			bound := usable[employeeID]
			if len(bound) == 0 {
				continue
			}
			if len(bound) > 1 {
				violations = append(violations, models.Violation{
					Kind:       models.ViolationPatternConflict,
					Severity:   models.SeverityError,
					Date:       d,
					EmployeeID: employeeID,
					Message:    fmt.Sprintf("%d active duty patterns resolve for this date; all excluded", len(bound)),
				})
				continue
			}
			shiftID, working, err := g.expander.ShiftOn(bound[0], d)
			if err != nil || !working {
				continue
			}
			a := models.ScheduleAssignment{
				EmployeeID: employeeID,
				ShiftID:    shiftID,
				Date:       d,
				Status:     models.StatusDraft,
			}
			assignments = append(assignments, a)
			byDate[d] = append(byDate[d], a)
		}
	}

	coverage := make([]models.CoverageReport, 0, len(dates))
	for _, d := range dates {
		coverage = append(coverage, AggregateDay(d, byDate[d], g.input.Requirements, g.shifts, g.employees))
	}

	violations = append(violations, Validate(coverage, assignments, g.employees, g.input.Requirements, g.shifts)...)

	g.rollUpOvertime(coverage, assignments)

	result := models.GenerationResult{
		Assignments: assignments,
		Coverage:    coverage,
	}
	for _, v := range violations {
		if v.IsError() {
			result.Errors = append(result.Errors, v)
		} else {
			result.Warnings = append(result.Warnings, v)
		}
	}
	result.Success = len(result.Errors) == 0
	return result
}

// checkBindingData validates the pattern a binding points at, including
// that every working slot references a known shift definition.
func (g *Generator) checkBindingData(ep *models.EmployeePattern) error {
	if err := g.expander.CheckBinding(ep); err != nil {
		return err
	}
	for _, shiftID := range g.expander.patterns[ep.PatternID].Cycle {
		if shiftID == "" {
			continue
		}
		if _, ok := g.shifts[shiftID]; !ok {
			return fmt.Errorf("duty pattern %q references unknown shift %q", ep.PatternID, shiftID)
		}
	}
	return nil
}

// rollUpOvertime merges weekly overtime excess into the coverage reports
// as a date-level total on the first window date of each week. Per-period
// overtime stays zero-filled; the metrics consumer only reads aggregates.
func (g *Generator) rollUpOvertime(coverage []models.CoverageReport, assignments []models.ScheduleAssignment) {
	excess := make(map[time.Time]float64)
	for week, byEmployee := range weeklyHours(assignments, g.shifts) {
		ids := make([]string, 0, len(byEmployee))
		for id := range byEmployee {
			ids = append(ids, id)
		}
		// Float addition is not associative; a fixed summation order keeps
		// the total bit-identical across runs.
		sort.Strings(ids)
		for _, id := range ids {
			emp, ok := g.employees[id]
			if !ok {
				continue
			}
			if over := byEmployee[id] - emp.WeeklyHoursScheduled; over > 0 {
				excess[week] += over
			}
		}
	}

	seen := make(map[time.Time]bool, len(excess))
	for i := range coverage {
		week := timeutil.WeekStart(coverage[i].Date)
		if seen[week] {
			continue
		}
		seen[week] = true
		coverage[i].OvertimeHours = excess[week]
	}
}

func checkOptions(opts Options) (models.Violation, bool) {
	fail := func(msg string) (models.Violation, bool) {
		return models.Violation{
			Kind:     models.ViolationInvalidRequest,
			Severity: models.SeverityError,
			Message:  msg,
		}, false
	}
	if opts.StartDate.IsZero() || opts.EndDate.IsZero() {
		return fail("start_date and end_date are required")
	}
	if timeutil.DateOnly(opts.EndDate).Before(timeutil.DateOnly(opts.StartDate)) {
		return fail("start_date must not be after end_date")
	}
	return models.Violation{}, true
}
