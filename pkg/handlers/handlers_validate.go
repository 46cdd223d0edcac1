package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/curiouspeterson/dispatch-scheduler-api/pkg/database"
	"github.com/curiouspeterson/dispatch-scheduler-api/pkg/scheduler"
	"github.com/curiouspeterson/dispatch-scheduler-api/pkg/timeutil"
)

// ValidateInput checks the stored scheduling data structurally without
// running generation: duplicate IDs, unparseable clock values, and cycle
// slots referencing unknown shifts.
func (h *Handler) ValidateInput(c *gin.Context) {
	input, err := database.LoadGenerationInput(h.DB)
	if err != nil {
		logrus.WithError(err).Error("loading generation input")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load scheduling data"})
		return
	}

	issues := inspectInput(input)

	c.JSON(http.StatusOK, gin.H{
		"valid":  len(issues) == 0,
		"issues": issues,
		"stats": gin.H{
			"employee_count":    len(input.Employees),
			"shift_count":       len(input.Shifts),
			"pattern_count":     len(input.Patterns),
			"binding_count":     len(input.EmployeePatterns),
			"requirement_count": len(input.Requirements),
		},
	})
}

func inspectInput(input scheduler.Input) []string {
	var issues []string

	seen := make(map[string]bool)
	for _, e := range input.Employees {
		if seen[e.ID] {
			issues = append(issues, "duplicate employee ID: "+e.ID)
		}
		seen[e.ID] = true
	}

	shiftIDs := make(map[string]bool)
	for _, s := range input.Shifts {
		if shiftIDs[s.ID] {
			issues = append(issues, "duplicate shift ID: "+s.ID)
		}
		shiftIDs[s.ID] = true
		if _, err := timeutil.ParseClock(s.StartTime); err != nil {
			issues = append(issues, fmt.Sprintf("shift %s: bad start time %q", s.ID, s.StartTime))
		}
		if _, err := timeutil.ParseClock(s.EndTime); err != nil {
			issues = append(issues, fmt.Sprintf("shift %s: bad end time %q", s.ID, s.EndTime))
		}
	}

	patternIDs := make(map[string]bool)
	for _, p := range input.Patterns {
		if patternIDs[p.ID] {
			issues = append(issues, "duplicate pattern ID: "+p.ID)
		}
		patternIDs[p.ID] = true
		if len(p.Cycle) == 0 {
			issues = append(issues, fmt.Sprintf("pattern %s: empty cycle", p.ID))
		}
		for i, slot := range p.Cycle {
			if slot != "" && !shiftIDs[slot] {
				issues = append(issues, fmt.Sprintf("pattern %s: slot %d references unknown shift %q", p.ID, i, slot))
			}
		}
	}

	perEmployee := make(map[string]int)
	for _, b := range input.EmployeePatterns {
		if !patternIDs[b.PatternID] {
			issues = append(issues, fmt.Sprintf("employee pattern %s: unknown pattern %q", b.ID, b.PatternID))
		}
		perEmployee[b.EmployeeID]++
	}
	reported := make(map[string]bool)
	for _, b := range input.EmployeePatterns {
		if perEmployee[b.EmployeeID] > 1 && !reported[b.EmployeeID] {
			issues = append(issues, fmt.Sprintf("employee %s has %d active patterns", b.EmployeeID, perEmployee[b.EmployeeID]))
			reported[b.EmployeeID] = true
		}
	}

	for _, r := range input.Requirements {
		start, err1 := timeutil.ParseClock(r.StartTime)
		end, err2 := timeutil.ParseClock(r.EndTime)
		if err1 != nil || err2 != nil {
			issues = append(issues, fmt.Sprintf("requirement %s: bad period %q", r.ID, r.PeriodKey()))
			continue
		}
		if start == end {
			issues = append(issues, fmt.Sprintf("requirement %s: zero-length period %q", r.ID, r.PeriodKey()))
		}
	}

	return issues
}
