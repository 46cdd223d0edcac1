package scheduler

import (
	"time"

	"github.com/curiouspeterson/dispatch-scheduler-api/pkg/models"
	"github.com/curiouspeterson/dispatch-scheduler-api/pkg/timeutil"
)

// AggregateDay computes required-vs-actual coverage for one date's
// assignments against the staffing-requirement periods.
//
// Attribution is by shift start time: an assignment counts toward exactly
// the periods whose interval contains the shift's start. An overnight
// shift is therefore never double-counted across the day/night halves it
// technically touches; periods are authored to match shift start windows.
func AggregateDay(
	date time.Time,
	assignments []models.ScheduleAssignment,
	requirements []models.StaffingRequirement,
	shifts map[string]*models.ShiftDefinition,
	employees map[string]*models.Employee,
) models.CoverageReport {
	report := models.CoverageReport{
		Date:    timeutil.DateOnly(date),
		Periods: make(map[string]*models.CoverageEntry, len(requirements)),
	}

	type period struct {
		key        string
		start, end int
	}
	periods := make([]period, 0, len(requirements))
	for i := range requirements {
		r := &requirements[i]
		key := r.PeriodKey()
		if _, dup := report.Periods[key]; dup {
			// Two requirements over the same interval share one entry; the
			// first defines it. Counting the interval twice would double
			// every in-range assignment.
			continue
		}
		report.Periods[key] = &models.CoverageEntry{Required: r.MinimumEmployees}

		start, err1 := timeutil.ParseClock(r.StartTime)
		end, err2 := timeutil.ParseClock(r.EndTime)
		if err1 != nil || err2 != nil {
			// Misconfigured period: keep the entry visible with zero
			// membership rather than failing the aggregation.
			continue
		}
		periods = append(periods, period{key: key, start: start, end: end})
	}

	for _, a := range assignments {
		shift, ok := shifts[a.ShiftID]
		if !ok {
			continue
		}
		startMin, err := timeutil.ParseClock(shift.StartTime)
		if err != nil {
			continue
		}
		emp := employees[a.EmployeeID]
		for _, p := range periods {
			// A zero-length period (start == end) contains nothing.
			if !timeutil.Contains(p.start, p.end, startMin) {
				continue
			}
			entry := report.Periods[p.key]
			entry.Actual++
			if emp != nil && emp.Role.CountsAsSupervisor() {
				entry.Supervisors++
			}
		}
	}

	return report
}
