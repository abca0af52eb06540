package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
)

// A recurring block may span at most this many days; a term is bounded by
// roughly one academic year.
const maxRecurrenceDays = 400

// BlockType classifies what a block reserves time for.
type BlockType string

const (
	BlockExam         BlockType = "exam"
	BlockAssessment   BlockType = "assessment"
	BlockInternalTest BlockType = "internal_test"
	BlockCompetition  BlockType = "competition"
	BlockWorkshop     BlockType = "workshop"
	BlockOther        BlockType = "other"
)

// Strength determines whether a block's conflicts are blocking errors or
// informational warnings. Even hard conflicts are reported, not enforced;
// enforcement is a caller policy.
type Strength string

const (
	StrengthHard Strength = "hard"
	StrengthSoft Strength = "soft"
)

// DateType is how a block's dates are defined.
type DateType string

const (
	DateFixed     DateType = "fixed"
	DateRecurring DateType = "recurring"
)

// TimeType is how a block occupies time within a day.
type TimeType string

const (
	TimeFullDay   TimeType = "full_day"
	TimeRangeType TimeType = "time_range"
	TimePeriods   TimeType = "periods"
)

type (
	// Recurrence defines a weekday pattern over a date range.
	Recurrence struct {
		DayOfWeek Weekday `json:"day_of_week"`
		StartDate Date    `json:"start_date"`
		EndDate   Date    `json:"end_date"`
	}

	// Block is a named reservation of calendar time against a scope.
	Block struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		BlockType BlockType `json:"block_type"`
		Scope     Scope     `json:"scope"`
		Strength  Strength  `json:"strength"`

		DateType   DateType    `json:"date_type"`
		Dates      []Date      `json:"dates,omitempty"`
		Recurrence *Recurrence `json:"recurrence,omitempty"`

		TimeType  TimeType   `json:"time_type"`
		TimeRange *TimeRange `json:"time_range,omitempty"`
		Periods   []int      `json:"periods,omitempty"`

		TermID    string    `json:"term_id,omitempty"`
		IsActive  bool      `json:"is_active"`
		CreatedAt time.Time `json:"created_at"` // UTC
		UpdatedAt time.Time `json:"updated_at"` // UTC
	}
)

// validateShape checks the date/time pattern invariants of a block against
// the owning grid. The grid may be absent when no grid is configured yet;
// period-based blocks then cannot be validated and are rejected.
func validateShape(b *Block, grid *CalendarGrid) error {
	var flds []core.FieldError
	reportErr := func(field, msg string) {
		flds = append(flds, core.FieldError{Field: field, Error: msg})
	}

	switch b.DateType {
	case DateFixed:
		if len(b.Dates) == 0 {
			reportErr("dates", "at least one date is required")
		}
		b.Dates = normalizeDates(b.Dates)
		b.Recurrence = nil
	case DateRecurring:
		if b.Recurrence == nil {
			reportErr("recurrence", "this field is required")
			break
		}
		rec := b.Recurrence
		if !rec.DayOfWeek.IsValid() {
			reportErr("recurrence.day_of_week", fmt.Sprintf("invalid day of week %q", rec.DayOfWeek))
		}
		if rec.StartDate.IsZero() || rec.EndDate.IsZero() {
			reportErr("recurrence", "start_date and end_date are required")
		} else if rec.EndDate.Before(rec.StartDate) {
			reportErr("recurrence.end_date", "must not be before start_date")
		} else if rec.EndDate.Sub(rec.StartDate.Time) > maxRecurrenceDays*24*time.Hour {
			reportErr("recurrence.end_date", fmt.Sprintf("recurrence may span at most %d days", maxRecurrenceDays))
		}
		b.Dates = nil
	}

	switch b.TimeType {
	case TimeFullDay:
		b.TimeRange = nil
		b.Periods = nil
	case TimeRangeType:
		if b.TimeRange == nil {
			reportErr("time_range", "this field is required")
			break
		}
		start, serr := ParseClock(b.TimeRange.StartTime)
		end, eerr := ParseClock(b.TimeRange.EndTime)
		if serr != nil {
			reportErr("time_range.start_time", serr.Error())
		}
		if eerr != nil {
			reportErr("time_range.end_time", eerr.Error())
		}
		if serr == nil && eerr == nil && start >= end {
			reportErr("time_range.end_time", "must be after start_time")
		}
		b.Periods = nil
	case TimePeriods:
		if len(b.Periods) == 0 {
			reportErr("periods", "at least one period is required")
			break
		}
		if grid == nil {
			reportErr("periods", "a calendar grid must be configured before scheduling by periods")
			break
		}
		b.Periods = normalizePeriods(b.Periods)
		for _, p := range b.Periods {
			if p < 1 || p > grid.PeriodsPerDay {
				reportErr("periods", fmt.Sprintf("period %d is not on the grid (1 to %d)", p, grid.PeriodsPerDay))
			}
		}
		b.TimeRange = nil
	}

	if flds != nil {
		return core.NewValidationError(errors.New("invalid block"), flds...)
	}
	return nil
}

func normalizeDates(dates []Date) []Date {
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	out := dates[:0]
	for i, d := range dates {
		if i > 0 && d.Equal(dates[i-1]) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func normalizePeriods(periods []int) []int {
	sort.Ints(periods)
	out := periods[:0]
	for i, p := range periods {
		if i > 0 && p == periods[i-1] {
			continue
		}
		out = append(out, p)
	}
	return out
}

// NewBlock contains information needed to create a new Block.
type NewBlock struct {
	Name      string    `json:"name" validate:"required"`
	BlockType BlockType `json:"block_type" validate:"required,oneof=exam assessment internal_test competition workshop other"`
	ScopeType ScopeType `json:"scope_type" validate:"required,oneof=institution course class batch"`
	ScopeID   string    `json:"scope_id" validate:"required"`
	Strength  Strength  `json:"strength" validate:"required,oneof=hard soft"`

	DateType   DateType    `json:"date_type" validate:"required,oneof=fixed recurring"`
	Dates      []Date      `json:"dates,omitempty"`
	Recurrence *Recurrence `json:"recurrence,omitempty"`

	TimeType  TimeType   `json:"time_type" validate:"required,oneof=full_day time_range periods"`
	TimeRange *TimeRange `json:"time_range,omitempty"`
	Periods   []int      `json:"periods,omitempty"`

	TermID   string `json:"term_id,omitempty"`
	IsActive *bool  `json:"is_active,omitempty"` // defaults to true
}

// Validate checks the block definition shape; scope and term existence are checked
// by the Service.
func (nb *NewBlock) Validate(validate *validator.Validate, grid *CalendarGrid) error {
	nb.Name = core.CleanString(nb.Name)
	nb.ScopeID = core.CleanString(nb.ScopeID)
	nb.TermID = core.CleanString(nb.TermID)

	if err := validate.Struct(nb); err != nil {
		return err
	}
	b := nb.block()
	if err := validateShape(&b, grid); err != nil {
		return err
	}
	nb.Dates = b.Dates
	nb.Recurrence = b.Recurrence
	nb.TimeRange = b.TimeRange
	nb.Periods = b.Periods
	return nil
}

func (nb NewBlock) block() Block {
	isActive := true
	if nb.IsActive != nil {
		isActive = *nb.IsActive
	}
	return Block{
		Name:       nb.Name,
		BlockType:  nb.BlockType,
		Scope:      Scope{Type: nb.ScopeType, ID: nb.ScopeID},
		Strength:   nb.Strength,
		DateType:   nb.DateType,
		Dates:      nb.Dates,
		Recurrence: nb.Recurrence,
		TimeType:   nb.TimeType,
		TimeRange:  nb.TimeRange,
		Periods:    nb.Periods,
		TermID:     nb.TermID,
		IsActive:   isActive,
	}
}

// UpdateBlock defines what information may be provided to modify an existing
// Block. Empty fields keep their current value; changing the date or time
// pattern replaces the pattern payload wholesale.
type UpdateBlock struct {
	Name      string    `json:"name"`
	BlockType BlockType `json:"block_type" validate:"omitempty,oneof=exam assessment internal_test competition workshop other"`
	ScopeType ScopeType `json:"scope_type" validate:"omitempty,oneof=institution course class batch"`
	ScopeID   string    `json:"scope_id"`
	Strength  Strength  `json:"strength" validate:"omitempty,oneof=hard soft"`

	DateType   DateType    `json:"date_type" validate:"omitempty,oneof=fixed recurring"`
	Dates      []Date      `json:"dates,omitempty"`
	Recurrence *Recurrence `json:"recurrence,omitempty"`

	TimeType  TimeType   `json:"time_type" validate:"omitempty,oneof=full_day time_range periods"`
	TimeRange *TimeRange `json:"time_range,omitempty"`
	Periods   []int      `json:"periods,omitempty"`

	TermID *string `json:"term_id,omitempty"` // empty string clears the reference
}

// Validate merges the patch into origBlock and checks the result; the merged
// block is returned for persistence.
func (ub *UpdateBlock) Validate(origBlock Block, validate *validator.Validate, grid *CalendarGrid) (Block, error) {
	if err := validate.Struct(ub); err != nil {
		return Block{}, err
	}

	merged := origBlock
	if name := core.CleanString(ub.Name); name != "" {
		merged.Name = name
	}
	if ub.BlockType != "" {
		merged.BlockType = ub.BlockType
	}
	if ub.ScopeType != "" {
		merged.Scope.Type = ub.ScopeType
	}
	if id := core.CleanString(ub.ScopeID); id != "" {
		merged.Scope.ID = id
	}
	if ub.Strength != "" {
		merged.Strength = ub.Strength
	}
	if ub.DateType != "" {
		merged.DateType = ub.DateType
		merged.Dates = ub.Dates
		merged.Recurrence = ub.Recurrence
	} else {
		if ub.Dates != nil {
			merged.Dates = ub.Dates
		}
		if ub.Recurrence != nil {
			merged.Recurrence = ub.Recurrence
		}
	}
	if ub.TimeType != "" {
		merged.TimeType = ub.TimeType
		merged.TimeRange = ub.TimeRange
		merged.Periods = ub.Periods
	} else {
		if ub.TimeRange != nil {
			merged.TimeRange = ub.TimeRange
		}
		if ub.Periods != nil {
			merged.Periods = ub.Periods
		}
	}
	if ub.TermID != nil {
		merged.TermID = core.CleanString(*ub.TermID)
	}

	if err := validateShape(&merged, grid); err != nil {
		return Block{}, err
	}
	return merged, nil
}

// BlockFilter applies an AND operation on its set fields.
// Search does a case-insensitive match on Block.Name.
type BlockFilter struct {
	Search    string    `query:"search"`
	BlockType BlockType `query:"block_type"`
	Strength  Strength  `query:"strength"`
	ScopeType ScopeType `query:"scope_type"`
	ScopeID   string    `query:"scope_id"`
	TermID    string    `query:"term_id"`
	IsActive  *bool     `query:"is_active"`

	Ordering []core.DBOrdering `query:"-"`
}

func (bf *BlockFilter) IsEmpty() bool {
	return bf.Search == "" && bf.BlockType == "" && bf.Strength == "" &&
		bf.ScopeType == "" && bf.ScopeID == "" && bf.TermID == "" && bf.IsActive == nil
}

func (bf *BlockFilter) Clean() {
	bf.Search = core.CleanString(bf.Search)
	bf.ScopeID = core.CleanString(bf.ScopeID)
	bf.TermID = core.CleanString(bf.TermID)
}
