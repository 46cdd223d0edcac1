package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDurationCategory(t *testing.T) {
	cases := []struct {
		hours float64
		want  int
	}{
		{3.5, 4},
		{4, 4},
		{6, 8},
		{8, 8},
		{10, 10},
		{12, 12},
		{14, 12},
	}
	for _, tc := range cases {
		s := ShiftDefinition{DurationHours: tc.hours}
		assert.Equal(t, tc.want, s.DurationCategory(), "%v hours", tc.hours)
	}
}

func TestSpansMidnight(t *testing.T) {
	day := ShiftDefinition{StartTime: "07:00:00", EndTime: "19:00:00"}
	night := ShiftDefinition{StartTime: "19:00:00", EndTime: "07:00:00"}
	broken := ShiftDefinition{StartTime: "late", EndTime: "later"}

	assert.False(t, day.SpansMidnight())
	assert.True(t, night.SpansMidnight())
	assert.False(t, broken.SpansMidnight())
}

func TestCountsAsSupervisor(t *testing.T) {
	assert.False(t, RoleDispatcher.CountsAsSupervisor())
	assert.True(t, RoleShiftSupervisor.CountsAsSupervisor())
	assert.True(t, RoleManagement.CountsAsSupervisor())
}

func TestPeriodKey(t *testing.T) {
	r := StaffingRequirement{StartTime: "07:00:00", EndTime: "19:00:00"}
	assert.Equal(t, "07:00:00-19:00:00", r.PeriodKey())
}

func TestViolationIsError(t *testing.T) {
	assert.True(t, Violation{Severity: SeverityError}.IsError())
	assert.False(t, Violation{Severity: SeverityWarning}.IsError())
}
