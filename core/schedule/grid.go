package schedule

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ratiba/core"
)

const (
	MinPeriodsPerDay = 4
	MaxPeriodsPerDay = 10
	MaxBreaks        = 4
)

type (
	// Break is a named pause placed after a period, e.g. lunch after period 4.
	Break struct {
		ID              string `json:"id"`
		Name            string `json:"name"`
		AfterPeriod     int    `json:"after_period"`
		DurationMinutes int    `json:"duration_minutes"`
	}

	// PeriodTime maps a period number to its clock times.
	PeriodTime struct {
		Period    int    `json:"period"`
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
	}

	// CalendarGrid is a tenant's recurring weekly period grid. There is at
	// most one per tenant.
	CalendarGrid struct {
		WorkingDays   []Weekday    `json:"working_days"`
		PeriodsPerDay int          `json:"periods_per_day"`
		Breaks        []Break      `json:"breaks"`
		UseClockTimes bool         `json:"use_clock_times"`
		PeriodTimes   []PeriodTime `json:"period_times,omitempty"`
		UpdatedAt     time.Time    `json:"updated_at"` // UTC
	}
)

// Validate checks all grid invariants. It is pure and reports problems as a
// core.ValidationError carrying field errors.
func (g CalendarGrid) Validate() error {
	var flds []core.FieldError
	reportErr := func(field, msg string) {
		flds = append(flds, core.FieldError{Field: field, Error: msg})
	}

	if len(g.WorkingDays) == 0 {
		reportErr("working_days", "at least one working day is required")
	}
	seenDays := make(map[Weekday]bool, len(g.WorkingDays))
	for _, day := range g.WorkingDays {
		if !day.IsValid() {
			reportErr("working_days", fmt.Sprintf("invalid working day %q", day))
			continue
		}
		if seenDays[day] {
			reportErr("working_days", fmt.Sprintf("duplicate working day %q", day))
		}
		seenDays[day] = true
	}

	if g.PeriodsPerDay < MinPeriodsPerDay || g.PeriodsPerDay > MaxPeriodsPerDay {
		reportErr("periods_per_day", fmt.Sprintf("must be between %d and %d", MinPeriodsPerDay, MaxPeriodsPerDay))
	}

	if len(g.Breaks) > MaxBreaks {
		reportErr("breaks", fmt.Sprintf("at most %d breaks are allowed", MaxBreaks))
	}
	seenAfter := make(map[int]bool, len(g.Breaks))
	for _, brk := range g.Breaks {
		if brk.AfterPeriod < 1 || brk.AfterPeriod >= g.PeriodsPerDay {
			reportErr("breaks", fmt.Sprintf("break %q must come after a period between 1 and %d", brk.Name, g.PeriodsPerDay-1))
		}
		if seenAfter[brk.AfterPeriod] {
			reportErr("breaks", fmt.Sprintf("more than one break after period %d", brk.AfterPeriod))
		}
		seenAfter[brk.AfterPeriod] = true
		if brk.DurationMinutes <= 0 {
			reportErr("breaks", fmt.Sprintf("break %q must have a positive duration", brk.Name))
		}
	}

	if g.UseClockTimes {
		flds = append(flds, g.validateClockTimes()...)
	}

	if flds != nil {
		return core.NewValidationError(errors.New("invalid calendar grid"), flds...)
	}
	return nil
}

// validateClockTimes checks that every period has a mapping and that the
// mappings are chronologically increasing and non-overlapping, break gaps
// included.
func (g CalendarGrid) validateClockTimes() []core.FieldError {
	var flds []core.FieldError
	reportErr := func(msg string) {
		flds = append(flds, core.FieldError{Field: "period_times", Error: msg})
	}

	byPeriod := make(map[int]PeriodTime, len(g.PeriodTimes))
	for _, pt := range g.PeriodTimes {
		if pt.Period < 1 || pt.Period > g.PeriodsPerDay {
			reportErr(fmt.Sprintf("mapping for out-of-range period %d", pt.Period))
			continue
		}
		if _, dup := byPeriod[pt.Period]; dup {
			reportErr(fmt.Sprintf("duplicate mapping for period %d", pt.Period))
			continue
		}
		byPeriod[pt.Period] = pt
	}

	breakAfter := make(map[int]int, len(g.Breaks))
	for _, brk := range g.Breaks {
		breakAfter[brk.AfterPeriod] = brk.DurationMinutes
	}

	prevEnd := -1
	for p := 1; p <= g.PeriodsPerDay; p++ {
		pt, ok := byPeriod[p]
		if !ok {
			reportErr(fmt.Sprintf("missing mapping for period %d", p))
			prevEnd = -1
			continue
		}
		start, err := ParseClock(pt.StartTime)
		if err != nil {
			reportErr(fmt.Sprintf("period %d: %v", p, err))
			continue
		}
		end, err := ParseClock(pt.EndTime)
		if err != nil {
			reportErr(fmt.Sprintf("period %d: %v", p, err))
			continue
		}
		if start >= end {
			reportErr(fmt.Sprintf("period %d must end after it starts", p))
			continue
		}
		if prevEnd >= 0 && start < prevEnd {
			reportErr(fmt.Sprintf("period %d overlaps the previous period or break", p))
		}
		prevEnd = end + breakAfter[p]
	}
	return flds
}

// ResolvePeriodTime returns the clock times of a period, if the grid maps them.
func (g CalendarGrid) ResolvePeriodTime(period int) (TimeRange, bool) {
	if !g.UseClockTimes {
		return TimeRange{}, false
	}
	for _, pt := range g.PeriodTimes {
		if pt.Period == period {
			return TimeRange{StartTime: pt.StartTime, EndTime: pt.EndTime}, true
		}
	}
	return TimeRange{}, false
}

func (g CalendarGrid) IsWorkingDay(day Weekday) bool {
	for _, d := range g.WorkingDays {
		if d == day {
			return true
		}
	}
	return false
}

// sortedBreaks returns the grid breaks ordered by placement.
func (g CalendarGrid) sortedBreaks() []Break {
	brks := make([]Break, len(g.Breaks))
	copy(brks, g.Breaks)
	sort.Slice(brks, func(i, j int) bool { return brks[i].AfterPeriod < brks[j].AfterPeriod })
	return brks
}

// UpsertGrid contains the information needed to create or replace the
// tenant's CalendarGrid.
type UpsertGrid struct {
	WorkingDays   []Weekday    `json:"working_days" validate:"required,min=1,dive,weekday"`
	PeriodsPerDay int          `json:"periods_per_day" validate:"required,min=4,max=10"`
	Breaks        []Break      `json:"breaks" validate:"omitempty,max=4"`
	UseClockTimes bool         `json:"use_clock_times"`
	PeriodTimes   []PeriodTime `json:"period_times" validate:"omitempty,dive"`
}

func (ug *UpsertGrid) Validate(validate *validator.Validate) error {
	for i, brk := range ug.Breaks {
		ug.Breaks[i].Name = core.CleanString(brk.Name)
	}
	if err := validate.Struct(ug); err != nil {
		return err
	}
	return ug.grid().Validate()
}

func (ug UpsertGrid) grid() CalendarGrid {
	return CalendarGrid{
		WorkingDays:   ug.WorkingDays,
		PeriodsPerDay: ug.PeriodsPerDay,
		Breaks:        ug.Breaks,
		UseClockTimes: ug.UseClockTimes,
		PeriodTimes:   ug.PeriodTimes,
	}
}
