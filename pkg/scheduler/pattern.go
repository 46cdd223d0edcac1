package scheduler

import (
	"fmt"
	"time"

	"github.com/curiouspeterson/dispatch-scheduler-api/pkg/models"
	"github.com/curiouspeterson/dispatch-scheduler-api/pkg/timeutil"
)

// Expander resolves which shift, if any, a duty pattern yields on a given
// calendar date. Resolution is pure: the same binding and date always
// produce the same answer.
type Expander struct {
	patterns map[string]*models.DutyPattern
}

// NewExpander indexes the duty patterns for lookup.
func NewExpander(patterns []models.DutyPattern) *Expander {
	idx := make(map[string]*models.DutyPattern, len(patterns))
	for i := range patterns {
		idx[patterns[i].ID] = &patterns[i]
	}
	return &Expander{patterns: idx}
}

// CheckBinding verifies that a binding references a usable pattern: the
// pattern must exist and have a non-empty cycle. Callers exclude the
// employee from the run when this fails.
func (e *Expander) CheckBinding(ep *models.EmployeePattern) error {
	p, ok := e.patterns[ep.PatternID]
	if !ok {
		return fmt.Errorf("duty pattern %q does not exist", ep.PatternID)
	}
	if len(p.Cycle) == 0 {
		return fmt.Errorf("duty pattern %q has an empty cycle", p.ID)
	}
	return nil
}

// ShiftOn resolves the pattern slot for date. The second return is false
// on an off day. Dates before the anchor are valid; floor modulo keeps
// negative offsets on the cycle.
func (e *Expander) ShiftOn(ep *models.EmployeePattern, date time.Time) (string, bool, error) {
	if err := e.CheckBinding(ep); err != nil {
		return "", false, err
	}
	p := e.patterns[ep.PatternID]
	offset := timeutil.DaysBetween(ep.AnchorDate, date)
	shiftID := p.Cycle[floorMod(offset, len(p.Cycle))]
	if shiftID == "" {
		return "", false, nil
	}
	return shiftID, true, nil
}

// floorMod is the non-negative remainder of a/n for positive n.
func floorMod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}
