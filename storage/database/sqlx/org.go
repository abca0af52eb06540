package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ratiba/core/org"
)

type orgRepository struct {
	db *sqlx.DB
}

var _ org.Repository = (*orgRepository)(nil) // interface compliance check

func NewOrgRepository(db *sqlx.DB) *orgRepository {
	return &orgRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to org.ErrNotFound
func (repo orgRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return org.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

type institutionRow struct {
	ID           string    `db:"id"`
	Tenant       string    `db:"tenant"`
	Name         string    `db:"name"`
	ContactEmail null.String `db:"contact_email"`
	CreatedAt    time.Time `db:"created_at"`
}

func (repo orgRepository) QueryInstitutions(ctx context.Context, tenant string) ([]org.Institution, error) {
	var rows []institutionRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM institutions WHERE tenant = $1 ORDER BY name`, tenant)
	if err != nil {
		return nil, errors.Wrap(err, "querying institutions")
	}
	insts := make([]org.Institution, 0, len(rows))
	for _, row := range rows {
		insts = append(insts, org.Institution{
			ID:           row.ID,
			Name:         row.Name,
			ContactEmail: row.ContactEmail.String,
			CreatedAt:    row.CreatedAt,
		})
	}
	return insts, nil
}

func (repo orgRepository) GetInstitutionByID(ctx context.Context, tenant, id string) (org.Institution, error) {
	var row institutionRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM institutions WHERE tenant = $1 AND id = $2`, tenant, id)
	if err != nil {
		return org.Institution{}, repo.trapNoRowsErr(err, "getting institution")
	}
	return org.Institution{
		ID:           row.ID,
		Name:         row.Name,
		ContactEmail: row.ContactEmail.String,
		CreatedAt:    row.CreatedAt,
	}, nil
}

func (repo orgRepository) CreateInstitution(ctx context.Context, tenant string, inst org.Institution) (org.Institution, error) {
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO institutions (id, tenant, name, contact_email, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		inst.ID, tenant, inst.Name, null.NewString(inst.ContactEmail, inst.ContactEmail != ""), inst.CreatedAt.UTC())
	if err != nil {
		return org.Institution{}, errors.Wrap(err, "inserting institution")
	}
	return inst, nil
}

type courseRow struct {
	ID            string    `db:"id"`
	Tenant        string    `db:"tenant"`
	InstitutionID string    `db:"institution_id"`
	Name          string    `db:"name"`
	CreatedAt     time.Time `db:"created_at"`
}

func (repo orgRepository) QueryCourses(ctx context.Context, tenant string) ([]org.Course, error) {
	var rows []courseRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM courses WHERE tenant = $1 ORDER BY name`, tenant)
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]org.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, org.Course{
			ID:            row.ID,
			InstitutionID: row.InstitutionID,
			Name:          row.Name,
			CreatedAt:     row.CreatedAt,
		})
	}
	return courses, nil
}

func (repo orgRepository) GetCourseByID(ctx context.Context, tenant, id string) (org.Course, error) {
	var row courseRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM courses WHERE tenant = $1 AND id = $2`, tenant, id)
	if err != nil {
		return org.Course{}, repo.trapNoRowsErr(err, "getting course")
	}
	return org.Course{
		ID:            row.ID,
		InstitutionID: row.InstitutionID,
		Name:          row.Name,
		CreatedAt:     row.CreatedAt,
	}, nil
}

func (repo orgRepository) CreateCourse(ctx context.Context, tenant string, course org.Course) (org.Course, error) {
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO courses (id, tenant, institution_id, name, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		course.ID, tenant, course.InstitutionID, course.Name, course.CreatedAt.UTC())
	if err != nil {
		return org.Course{}, errors.Wrap(err, "inserting course")
	}
	return course, nil
}

type classRow struct {
	ID        string    `db:"id"`
	Tenant    string    `db:"tenant"`
	CourseID  string    `db:"course_id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

func (repo orgRepository) QueryClasses(ctx context.Context, tenant string) ([]org.Class, error) {
	var rows []classRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM classes WHERE tenant = $1 ORDER BY name`, tenant)
	if err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	classes := make([]org.Class, 0, len(rows))
	for _, row := range rows {
		classes = append(classes, org.Class{
			ID:        row.ID,
			CourseID:  row.CourseID,
			Name:      row.Name,
			CreatedAt: row.CreatedAt,
		})
	}
	return classes, nil
}

func (repo orgRepository) GetClassByID(ctx context.Context, tenant, id string) (org.Class, error) {
	var row classRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM classes WHERE tenant = $1 AND id = $2`, tenant, id)
	if err != nil {
		return org.Class{}, repo.trapNoRowsErr(err, "getting class")
	}
	return org.Class{
		ID:        row.ID,
		CourseID:  row.CourseID,
		Name:      row.Name,
		CreatedAt: row.CreatedAt,
	}, nil
}

func (repo orgRepository) CreateClass(ctx context.Context, tenant string, class org.Class) (org.Class, error) {
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO classes (id, tenant, course_id, name, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		class.ID, tenant, class.CourseID, class.Name, class.CreatedAt.UTC())
	if err != nil {
		return org.Class{}, errors.Wrap(err, "inserting class")
	}
	return class, nil
}

type batchRow struct {
	ID        string    `db:"id"`
	Tenant    string    `db:"tenant"`
	ClassID   string    `db:"class_id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

func (repo orgRepository) QueryBatches(ctx context.Context, tenant string) ([]org.Batch, error) {
	var rows []batchRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM batches WHERE tenant = $1 ORDER BY name`, tenant)
	if err != nil {
		return nil, errors.Wrap(err, "querying batches")
	}
	batches := make([]org.Batch, 0, len(rows))
	for _, row := range rows {
		batches = append(batches, org.Batch{
			ID:        row.ID,
			ClassID:   row.ClassID,
			Name:      row.Name,
			CreatedAt: row.CreatedAt,
		})
	}
	return batches, nil
}

func (repo orgRepository) GetBatchByID(ctx context.Context, tenant, id string) (org.Batch, error) {
	var row batchRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM batches WHERE tenant = $1 AND id = $2`, tenant, id)
	if err != nil {
		return org.Batch{}, repo.trapNoRowsErr(err, "getting batch")
	}
	return org.Batch{
		ID:        row.ID,
		ClassID:   row.ClassID,
		Name:      row.Name,
		CreatedAt: row.CreatedAt,
	}, nil
}

func (repo orgRepository) CreateBatch(ctx context.Context, tenant string, batch org.Batch) (org.Batch, error) {
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO batches (id, tenant, class_id, name, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		batch.ID, tenant, batch.ClassID, batch.Name, batch.CreatedAt.UTC())
	if err != nil {
		return org.Batch{}, errors.Wrap(err, "inserting batch")
	}
	return batch, nil
}
