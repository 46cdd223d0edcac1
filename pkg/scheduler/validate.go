package scheduler

import (
	"fmt"
	"sort"
	"time"

	"github.com/curiouspeterson/dispatch-scheduler-api/pkg/models"
	"github.com/curiouspeterson/dispatch-scheduler-api/pkg/timeutil"
)

// Validate applies the coverage, supervisor, and overtime rules over a
// full generation window and returns the classified findings. The rules
// are independent: a period can be short-staffed and missing a supervisor
// at once. Validation never mutates or drops assignments; overtime is
// reported, not enforced.
func Validate(
	coverage []models.CoverageReport,
	assignments []models.ScheduleAssignment,
	employees map[string]*models.Employee,
	requirements []models.StaffingRequirement,
	shifts map[string]*models.ShiftDefinition,
) []models.Violation {
	var violations []models.Violation

	reqByKey := make(map[string]*models.StaffingRequirement, len(requirements))
	for i := range requirements {
		reqByKey[requirements[i].PeriodKey()] = &requirements[i]
	}

	for _, report := range coverage {
		keys := make([]string, 0, len(report.Periods))
		for key := range report.Periods {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			entry := report.Periods[key]
			if entry.Actual < entry.Required {
				severity := models.SeverityWarning
				msg := fmt.Sprintf("period %s has %d of %d required employees", key, entry.Actual, entry.Required)
				if entry.Actual == 0 && entry.Required > 0 {
					// A mandatory period with nobody on it makes the run
					// unusable even though generation continues.
					severity = models.SeverityError
					msg = fmt.Sprintf("period %s is completely unstaffed (%d required)", key, entry.Required)
				}
				violations = append(violations, models.Violation{
					Kind:      models.ViolationCoverageDeficit,
					Severity:  severity,
					Date:      report.Date,
					PeriodKey: key,
					Message:   msg,
				})
			}

			if req, ok := reqByKey[key]; ok && req.SupervisorRequired && entry.Supervisors == 0 {
				violations = append(violations, models.Violation{
					Kind:      models.ViolationMissingSupervisor,
					Severity:  models.SeverityWarning,
					Date:      report.Date,
					PeriodKey: key,
					Message:   fmt.Sprintf("period %s requires a supervisor but none is scheduled", key),
				})
			}
		}
	}

	violations = append(violations, overtimeViolations(assignments, employees, shifts)...)

	if len(coverage) > 0 {
		violations = append(violations, partitionGapWarnings(requirements, coverage[0].Date)...)
	}

	return violations
}

// weeklyHours buckets assigned shift hours per employee into calendar
// weeks starting Sunday, matching how the persistence layer derives
// week_start_date. Totals are scoped strictly to the assignments given;
// weeks cut off by the window boundary are not extrapolated.
func weeklyHours(
	assignments []models.ScheduleAssignment,
	shifts map[string]*models.ShiftDefinition,
) map[time.Time]map[string]float64 {
	weeks := make(map[time.Time]map[string]float64)
	for _, a := range assignments {
		shift, ok := shifts[a.ShiftID]
		if !ok {
			continue
		}
		week := timeutil.WeekStart(a.Date)
		if weeks[week] == nil {
			weeks[week] = make(map[string]float64)
		}
		weeks[week][a.EmployeeID] += shift.DurationHours
	}
	return weeks
}

func overtimeViolations(
	assignments []models.ScheduleAssignment,
	employees map[string]*models.Employee,
	shifts map[string]*models.ShiftDefinition,
) []models.Violation {
	weeks := weeklyHours(assignments, shifts)

	starts := make([]time.Time, 0, len(weeks))
	for week := range weeks {
		starts = append(starts, week)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })

	var violations []models.Violation
	for _, week := range starts {
		byEmployee := weeks[week]
		ids := make([]string, 0, len(byEmployee))
		for id := range byEmployee {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			emp, ok := employees[id]
			if !ok {
				continue
			}
			hours := byEmployee[id]
			if hours > emp.WeeklyHoursScheduled {
				violations = append(violations, models.Violation{
					Kind:       models.ViolationOvertime,
					Severity:   models.SeverityWarning,
					Date:       week,
					EmployeeID: id,
					Message: fmt.Sprintf("%.1f hours assigned in week of %s exceeds scheduled %.1f",
						hours, week.Format("2006-01-02"), emp.WeeklyHoursScheduled),
				})
			}
		}
	}
	return violations
}

// partitionGapWarnings checks that the requirement periods cover the
// whole 24-hour day. A gap is only a warning, but without one a deficit
// inside the gap is silently invisible, so it is worth surfacing once per
// run.
func partitionGapWarnings(requirements []models.StaffingRequirement, date time.Time) []models.Violation {
	if len(requirements) == 0 {
		return nil
	}

	var covered [timeutil.MinutesPerDay]bool
	for i := range requirements {
		r := &requirements[i]
		start, err1 := timeutil.ParseClock(r.StartTime)
		end, err2 := timeutil.ParseClock(r.EndTime)
		if err1 != nil || err2 != nil {
			continue
		}
		for m := 0; m < timeutil.MinutesPerDay; m++ {
			if timeutil.Contains(start, end, m) {
				covered[m] = true
			}
		}
	}

	var violations []models.Violation
	for m := 0; m < timeutil.MinutesPerDay; {
		if covered[m] {
			m++
			continue
		}
		gapStart := m
		for m < timeutil.MinutesPerDay && !covered[m] {
			m++
		}
		violations = append(violations, models.Violation{
			Kind:     models.ViolationCoverageDeficit,
			Severity: models.SeverityWarning,
			Date:     date,
			Message: fmt.Sprintf("staffing requirements leave %s-%s uncovered; deficits there cannot be detected",
				timeutil.FormatClock(gapStart), timeutil.FormatClock(m%timeutil.MinutesPerDay)),
		})
	}
	return violations
}
