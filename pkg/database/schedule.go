package database

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/curiouspeterson/dispatch-scheduler-api/pkg/models"
	"github.com/curiouspeterson/dispatch-scheduler-api/pkg/scheduler"
	"github.com/curiouspeterson/dispatch-scheduler-api/pkg/timeutil"
)

// DateFormat is how calendar dates are stored in date columns.
const DateFormat = "2006-01-02"

// Employee represents the employees table.
type Employee struct {
	ID                   string    `gorm:"primaryKey" json:"id"`
	Name                 string    `gorm:"not null" json:"name"`
	Role                 string    `gorm:"not null" json:"role"`
	WeeklyHoursScheduled float64   `gorm:"default:40" json:"weekly_hours_scheduled"`
	CreatedAt            time.Time `json:"created_at"`
}

// ShiftDefinition represents the shift_definitions table. Times are
// wall-clock "HH:MM:SS"; end before start means the shift runs overnight.
type ShiftDefinition struct {
	ID            string  `gorm:"primaryKey" json:"id"`
	Name          string  `gorm:"not null" json:"name"`
	StartTime     string  `gorm:"not null" json:"start_time"`
	EndTime       string  `gorm:"not null" json:"end_time"`
	DurationHours float64 `gorm:"not null" json:"duration_hours"`
}

// DutyPattern represents the duty_patterns table. Cycle is the JSON-encoded
// slot list; empty slots are off days.
type DutyPattern struct {
	ID    string `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"not null" json:"name"`
	Cycle string `gorm:"type:text;not null" json:"cycle"`
}

// EmployeePattern represents the employee_patterns table.
type EmployeePattern struct {
	ID         string `gorm:"primaryKey" json:"id"`
	EmployeeID string `gorm:"index;not null" json:"employee_id"`
	PatternID  string `gorm:"not null" json:"pattern_id"`
	AnchorDate string `gorm:"not null" json:"anchor_date"`
}

// StaffingRequirement represents the staffing_requirements table.
type StaffingRequirement struct {
	ID                 string `gorm:"primaryKey" json:"id"`
	Name               string `gorm:"not null" json:"name"`
	StartTime          string `gorm:"not null" json:"start_time"`
	EndTime            string `gorm:"not null" json:"end_time"`
	MinimumEmployees   int    `gorm:"not null" json:"minimum_employees"`
	SupervisorRequired bool   `gorm:"default:false" json:"supervisor_required"`
}

// ScheduleAssignment represents the schedule_assignments table.
// WeekStartDate (Sunday-based) and DayOfWeek are derived from Date at
// write time so downstream reports can group without date math.
type ScheduleAssignment struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	EmployeeID    string    `gorm:"uniqueIndex:idx_emp_shift_date;not null" json:"employee_id"`
	ShiftID       string    `gorm:"uniqueIndex:idx_emp_shift_date;not null" json:"shift_id"`
	Date          string    `gorm:"uniqueIndex:idx_emp_shift_date;not null" json:"date"`
	WeekStartDate string    `gorm:"index;not null" json:"week_start_date"`
	DayOfWeek     int       `gorm:"not null" json:"day_of_week"`
	Status        string    `gorm:"default:draft" json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// GenerationRun represents the generation_runs table: one row per
// completed run, for usage history and the health reporter.
type GenerationRun struct {
	ID                 string    `gorm:"primaryKey" json:"id"`
	StartDate          string    `gorm:"not null" json:"start_date"`
	EndDate            string    `gorm:"not null" json:"end_date"`
	Success            bool      `json:"success"`
	CoverageDeficits   int       `json:"coverage_deficits"`
	OvertimeViolations int       `json:"overtime_violations"`
	PatternErrors      int       `json:"pattern_errors"`
	DurationMs         int64     `json:"duration_ms"`
	CreatedAt          time.Time `json:"created_at"`
}

// LoadGenerationInput fetches the five input collections and converts
// them into the core's domain types.
func LoadGenerationInput(db *gorm.DB) (scheduler.Input, error) {
	var input scheduler.Input

	var employees []Employee
	if err := db.Order("id").Find(&employees).Error; err != nil {
		return input, fmt.Errorf("loading employees: %w", err)
	}
	for _, e := range employees {
		input.Employees = append(input.Employees, models.Employee{
			ID:                   e.ID,
			Name:                 e.Name,
			Role:                 models.EmployeeRole(e.Role),
			WeeklyHoursScheduled: e.WeeklyHoursScheduled,
		})
	}

	var shifts []ShiftDefinition
	if err := db.Order("id").Find(&shifts).Error; err != nil {
		return input, fmt.Errorf("loading shift definitions: %w", err)
	}
	for _, s := range shifts {
		input.Shifts = append(input.Shifts, models.ShiftDefinition{
			ID:            s.ID,
			Name:          s.Name,
			StartTime:     s.StartTime,
			EndTime:       s.EndTime,
			DurationHours: s.DurationHours,
		})
	}

	var patterns []DutyPattern
	if err := db.Order("id").Find(&patterns).Error; err != nil {
		return input, fmt.Errorf("loading duty patterns: %w", err)
	}
	for _, p := range patterns {
		var cycle []string
		if err := json.Unmarshal([]byte(p.Cycle), &cycle); err != nil {
			// Undecodable cycles travel as empty; the generator reports
			// them as invalid pattern data instead of the fetch failing.
			cycle = nil
		}
		input.Patterns = append(input.Patterns, models.DutyPattern{
			ID:    p.ID,
			Name:  p.Name,
			Cycle: cycle,
		})
	}

	var bindings []EmployeePattern
	if err := db.Order("id").Find(&bindings).Error; err != nil {
		return input, fmt.Errorf("loading employee patterns: %w", err)
	}
	for _, b := range bindings {
		anchor, err := time.ParseInLocation(DateFormat, b.AnchorDate, time.UTC)
		if err != nil {
			return input, fmt.Errorf("employee pattern %s: bad anchor date %q", b.ID, b.AnchorDate)
		}
		input.EmployeePatterns = append(input.EmployeePatterns, models.EmployeePattern{
			ID:         b.ID,
			EmployeeID: b.EmployeeID,
			PatternID:  b.PatternID,
			AnchorDate: anchor,
		})
	}

	var requirements []StaffingRequirement
	if err := db.Order("id").Find(&requirements).Error; err != nil {
		return input, fmt.Errorf("loading staffing requirements: %w", err)
	}
	for _, r := range requirements {
		input.Requirements = append(input.Requirements, models.StaffingRequirement{
			ID:                 r.ID,
			Name:               r.Name,
			StartTime:          r.StartTime,
			EndTime:            r.EndTime,
			MinimumEmployees:   r.MinimumEmployees,
			SupervisorRequired: r.SupervisorRequired,
		})
	}

	return input, nil
}

// AssignmentRow converts a generated assignment to its persisted form,
// deriving week_start_date and day_of_week from the date.
func AssignmentRow(a models.ScheduleAssignment) ScheduleAssignment {
	return ScheduleAssignment{
		EmployeeID:    a.EmployeeID,
		ShiftID:       a.ShiftID,
		Date:          a.Date.Format(DateFormat),
		WeekStartDate: timeutil.WeekStart(a.Date).Format(DateFormat),
		DayOfWeek:     int(a.Date.Weekday()),
		Status:        string(a.Status),
	}
}

// ReplaceAssignments swaps the window's draft rows for the freshly
// generated set in one transaction. Published rows are left alone.
func ReplaceAssignments(db *gorm.DB, start, end time.Time, assignments []models.ScheduleAssignment) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("date >= ? AND date <= ? AND status = ?",
			start.Format(DateFormat), end.Format(DateFormat), string(models.StatusDraft),
		).Delete(&ScheduleAssignment{}).Error; err != nil {
			return fmt.Errorf("clearing draft assignments: %w", err)
		}
		for _, a := range assignments {
			row := AssignmentRow(a)
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("inserting assignment %s/%s/%s: %w", a.EmployeeID, a.ShiftID, row.Date, err)
			}
		}
		return nil
	})
}

// RecordRun appends one run-history row.
func RecordRun(db *gorm.DB, run GenerationRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	return db.Create(&run).Error
}
