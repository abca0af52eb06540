package org

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ratiba/core"
)

// The organizational directory: batch ⊂ class ⊂ course ⊂ institution.
// Blocks reserve time against any of these levels.

type (
	Institution struct {
		ID           string    `json:"id"`
		Name         string    `json:"name"`
		ContactEmail string    `json:"contact_email,omitempty"`
		CreatedAt    time.Time `json:"created_at"` // UTC
	}

	Course struct {
		ID            string    `json:"id"`
		InstitutionID string    `json:"institution_id"`
		Name          string    `json:"name"`
		CreatedAt     time.Time `json:"created_at"` // UTC
	}

	Class struct {
		ID        string    `json:"id"`
		CourseID  string    `json:"course_id"`
		Name      string    `json:"name"`
		CreatedAt time.Time `json:"created_at"` // UTC
	}

	Batch struct {
		ID        string    `json:"id"`
		ClassID   string    `json:"class_id"`
		Name      string    `json:"name"`
		CreatedAt time.Time `json:"created_at"` // UTC
	}
)

// NewInstitution contains information needed to create a new Institution.
type NewInstitution struct {
	Name         string `json:"name" validate:"required"`
	ContactEmail string `json:"contact_email" validate:"omitempty,email"`
}

func (ni *NewInstitution) Validate(validate *validator.Validate) error {
	ni.Name = core.CleanString(ni.Name)
	ni.ContactEmail = core.CleanString(ni.ContactEmail, true /* lower */)
	return validate.Struct(ni)
}

type NewCourse struct {
	InstitutionID string `json:"institution_id" validate:"required"`
	Name          string `json:"name" validate:"required"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.InstitutionID = core.CleanString(nc.InstitutionID)
	nc.Name = core.CleanString(nc.Name)
	return validate.Struct(nc)
}

type NewClass struct {
	CourseID string `json:"course_id" validate:"required"`
	Name     string `json:"name" validate:"required"`
}

func (nc *NewClass) Validate(validate *validator.Validate) error {
	nc.CourseID = core.CleanString(nc.CourseID)
	nc.Name = core.CleanString(nc.Name)
	return validate.Struct(nc)
}

type NewBatch struct {
	ClassID string `json:"class_id" validate:"required"`
	Name    string `json:"name" validate:"required"`
}

func (nb *NewBatch) Validate(validate *validator.Validate) error {
	nb.ClassID = core.CleanString(nb.ClassID)
	nb.Name = core.CleanString(nb.Name)
	return validate.Struct(nb)
}
