package schedule

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
)

// Term is a named academic term, e.g. "Term 1 2025".
type Term struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	AcademicYear string    `json:"academic_year"`
	StartDate    Date      `json:"start_date"`
	EndDate      Date      `json:"end_date"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

// CheckTermOverlap rejects a candidate term whose [StartDate, EndDate] range
// intersects (inclusive bounds) another term of the same academic year.
// A term being edited is skipped by id.
func CheckTermOverlap(existing []Term, candidate Term) error {
	for _, t := range existing {
		if t.ID == candidate.ID || t.AcademicYear != candidate.AcademicYear {
			continue
		}
		if candidate.EndDate.Before(t.StartDate) || candidate.StartDate.After(t.EndDate) {
			continue
		}
		return core.NewValidationError(
			errors.New("term dates overlap"),
			core.FieldError{Field: "start_date", Error: fmt.Sprintf("overlaps term %q (%s to %s)", t.Name, t.StartDate, t.EndDate)},
		)
	}
	return nil
}

// NewTerm contains information needed to create a new Term.
type NewTerm struct {
	Name         string `json:"name" validate:"required"`
	AcademicYear string `json:"academic_year" validate:"required"`
	StartDate    Date   `json:"start_date" validate:"required"`
	EndDate      Date   `json:"end_date" validate:"required"`
}

func (nt *NewTerm) Validate(validate *validator.Validate) error {
	nt.Name = core.CleanString(nt.Name)
	nt.AcademicYear = core.CleanString(nt.AcademicYear)

	if err := validate.Struct(nt); err != nil {
		return err
	}
	if !nt.StartDate.Before(nt.EndDate) {
		return core.NewValidationError(
			errors.New("invalid term dates"),
			core.FieldError{Field: "end_date", Error: "must be after start_date"},
		)
	}
	return nil
}

// UpdateTerm defines what information may be provided to modify an existing
// Term. Empty fields keep their current value.
type UpdateTerm struct {
	Name         string `json:"name"`
	AcademicYear string `json:"academic_year"`
	StartDate    Date   `json:"start_date"`
	EndDate      Date   `json:"end_date"`
}

// Validate merges the patch into origTerm and checks the result.
func (ut *UpdateTerm) Validate(origTerm Term, validate *validator.Validate) error {
	if name := core.CleanString(ut.Name); name != "" {
		ut.Name = name
	} else {
		ut.Name = origTerm.Name
	}
	if year := core.CleanString(ut.AcademicYear); year != "" {
		ut.AcademicYear = year
	} else {
		ut.AcademicYear = origTerm.AcademicYear
	}
	if ut.StartDate.IsZero() {
		ut.StartDate = origTerm.StartDate
	}
	if ut.EndDate.IsZero() {
		ut.EndDate = origTerm.EndDate
	}

	nt := NewTerm{
		Name:         ut.Name,
		AcademicYear: ut.AcademicYear,
		StartDate:    ut.StartDate,
		EndDate:      ut.EndDate,
	}
	return nt.Validate(validate)
}
