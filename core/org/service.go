package org

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/schedule"
)

// ErrNotFound is returned when a directory record does not exist.
var ErrNotFound = errors.New("record not found")

type (
	Repository interface {
		QueryInstitutions(ctx context.Context, tenant string) ([]Institution, error)
		GetInstitutionByID(ctx context.Context, tenant, id string) (Institution, error)
		CreateInstitution(ctx context.Context, tenant string, inst Institution) (Institution, error)

		QueryCourses(ctx context.Context, tenant string) ([]Course, error)
		GetCourseByID(ctx context.Context, tenant, id string) (Course, error)
		CreateCourse(ctx context.Context, tenant string, course Course) (Course, error)

		QueryClasses(ctx context.Context, tenant string) ([]Class, error)
		GetClassByID(ctx context.Context, tenant, id string) (Class, error)
		CreateClass(ctx context.Context, tenant string, class Class) (Class, error)

		QueryBatches(ctx context.Context, tenant string) ([]Batch, error)
		GetBatchByID(ctx context.Context, tenant, id string) (Batch, error)
		CreateBatch(ctx context.Context, tenant string, batch Batch) (Batch, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

var _ schedule.ScopeResolver = (*Service)(nil)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

func (svc *Service) QueryInstitutions(ctx context.Context, tenant string) ([]Institution, error) {
	return svc.repo.QueryInstitutions(ctx, tenant)
}

func (svc *Service) GetInstitution(ctx context.Context, tenant, id string) (Institution, error) {
	return svc.repo.GetInstitutionByID(ctx, tenant, id)
}

func (svc *Service) CreateInstitution(ctx context.Context, tenant string, ni NewInstitution) (Institution, error) {
	if err := ni.Validate(svc.validate); err != nil {
		return Institution{}, err
	}
	inst := Institution{
		ID:           uuid.New().String(),
		Name:         ni.Name,
		ContactEmail: ni.ContactEmail,
		CreatedAt:    time.Now().UTC(),
	}
	return svc.repo.CreateInstitution(ctx, tenant, inst)
}

func (svc *Service) QueryCourses(ctx context.Context, tenant string) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, tenant)
}

func (svc *Service) CreateCourse(ctx context.Context, tenant string, nc NewCourse) (Course, error) {
	if err := nc.Validate(svc.validate); err != nil {
		return Course{}, err
	}
	if _, err := svc.repo.GetInstitutionByID(ctx, tenant, nc.InstitutionID); err != nil {
		return Course{}, parentError(err, "institution_id", nc.InstitutionID)
	}
	course := Course{
		ID:            uuid.New().String(),
		InstitutionID: nc.InstitutionID,
		Name:          nc.Name,
		CreatedAt:     time.Now().UTC(),
	}
	return svc.repo.CreateCourse(ctx, tenant, course)
}

func (svc *Service) QueryClasses(ctx context.Context, tenant string) ([]Class, error) {
	return svc.repo.QueryClasses(ctx, tenant)
}

func (svc *Service) CreateClass(ctx context.Context, tenant string, nc NewClass) (Class, error) {
	if err := nc.Validate(svc.validate); err != nil {
		return Class{}, err
	}
	if _, err := svc.repo.GetCourseByID(ctx, tenant, nc.CourseID); err != nil {
		return Class{}, parentError(err, "course_id", nc.CourseID)
	}
	class := Class{
		ID:        uuid.New().String(),
		CourseID:  nc.CourseID,
		Name:      nc.Name,
		CreatedAt: time.Now().UTC(),
	}
	return svc.repo.CreateClass(ctx, tenant, class)
}

func (svc *Service) QueryBatches(ctx context.Context, tenant string) ([]Batch, error) {
	return svc.repo.QueryBatches(ctx, tenant)
}

func (svc *Service) CreateBatch(ctx context.Context, tenant string, nb NewBatch) (Batch, error) {
	if err := nb.Validate(svc.validate); err != nil {
		return Batch{}, err
	}
	if _, err := svc.repo.GetClassByID(ctx, tenant, nb.ClassID); err != nil {
		return Batch{}, parentError(err, "class_id", nb.ClassID)
	}
	batch := Batch{
		ID:        uuid.New().String(),
		ClassID:   nb.ClassID,
		Name:      nb.Name,
		CreatedAt: time.Now().UTC(),
	}
	return svc.repo.CreateBatch(ctx, tenant, batch)
}

// ScopeResolver

// ResolveLineage walks the directory up from the scope to its institution and
// returns the ordered ancestor chain, institution first.
func (svc *Service) ResolveLineage(ctx context.Context, tenant string, scope schedule.Scope) (schedule.Lineage, error) {
	notFound := func(err error) error {
		if errors.Cause(err) == ErrNotFound {
			return schedule.ErrScopeNotFound
		}
		return err
	}

	var lineage schedule.Lineage
	switch scope.Type {
	case schedule.ScopeInstitution:
		if _, err := svc.repo.GetInstitutionByID(ctx, tenant, scope.ID); err != nil {
			return nil, notFound(err)
		}
		lineage = schedule.Lineage{scope.ID}

	case schedule.ScopeCourse:
		course, err := svc.repo.GetCourseByID(ctx, tenant, scope.ID)
		if err != nil {
			return nil, notFound(err)
		}
		lineage = schedule.Lineage{course.InstitutionID, course.ID}

	case schedule.ScopeClass:
		class, err := svc.repo.GetClassByID(ctx, tenant, scope.ID)
		if err != nil {
			return nil, notFound(err)
		}
		course, err := svc.repo.GetCourseByID(ctx, tenant, class.CourseID)
		if err != nil {
			return nil, notFound(err)
		}
		lineage = schedule.Lineage{course.InstitutionID, course.ID, class.ID}

	case schedule.ScopeBatch:
		batch, err := svc.repo.GetBatchByID(ctx, tenant, scope.ID)
		if err != nil {
			return nil, notFound(err)
		}
		class, err := svc.repo.GetClassByID(ctx, tenant, batch.ClassID)
		if err != nil {
			return nil, notFound(err)
		}
		course, err := svc.repo.GetCourseByID(ctx, tenant, class.CourseID)
		if err != nil {
			return nil, notFound(err)
		}
		lineage = schedule.Lineage{course.InstitutionID, course.ID, class.ID, batch.ID}

	default:
		return nil, errors.Errorf("unknown scope type %q", scope.Type)
	}
	return lineage, nil
}

func (svc *Service) InstitutionEmail(ctx context.Context, tenant, institutionID string) (string, error) {
	inst, err := svc.repo.GetInstitutionByID(ctx, tenant, institutionID)
	if err != nil {
		return "", err
	}
	return inst.ContactEmail, nil
}

func parentError(err error, field, id string) error {
	if errors.Cause(err) == ErrNotFound {
		return core.NewValidationError(err, core.FieldError{Field: field, Error: fmt.Sprintf("%q does not exist", id)})
	}
	return errors.Wrapf(err, "getting %s", field)
}
