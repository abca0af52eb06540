package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/ratiba/core/org"
)

type orgRepository struct {
	db *DB
}

var _ org.Repository = (*orgRepository)(nil)

func NewOrgRepository(db *DB) *orgRepository {
	return &orgRepository{db: db}
}

func (repo *orgRepository) QueryInstitutions(_ context.Context, tenant string) ([]org.Institution, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	tables, ok := repo.db.tenants[tenant]
	if !ok {
		return nil, nil
	}
	insts := make([]org.Institution, 0, len(tables.institutions))
	for _, i := range tables.institutions {
		insts = append(insts, *i)
	}
	sort.Slice(insts, func(i, j int) bool { return insts[i].Name < insts[j].Name })
	return insts, nil
}

func (repo *orgRepository) GetInstitutionByID(_ context.Context, tenant, id string) (org.Institution, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if tables, ok := repo.db.tenants[tenant]; ok {
		if i, ok := tables.institutions[id]; ok {
			return *i, nil
		}
	}
	return org.Institution{}, org.ErrNotFound
}

func (repo *orgRepository) CreateInstitution(_ context.Context, tenant string, inst org.Institution) (org.Institution, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.tenant(tenant).institutions[inst.ID] = &inst
	return inst, nil
}

func (repo *orgRepository) QueryCourses(_ context.Context, tenant string) ([]org.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	tables, ok := repo.db.tenants[tenant]
	if !ok {
		return nil, nil
	}
	courses := make([]org.Course, 0, len(tables.courses))
	for _, c := range tables.courses {
		courses = append(courses, *c)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].Name < courses[j].Name })
	return courses, nil
}

func (repo *orgRepository) GetCourseByID(_ context.Context, tenant, id string) (org.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if tables, ok := repo.db.tenants[tenant]; ok {
		if c, ok := tables.courses[id]; ok {
			return *c, nil
		}
	}
	return org.Course{}, org.ErrNotFound
}

func (repo *orgRepository) CreateCourse(_ context.Context, tenant string, course org.Course) (org.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.tenant(tenant).courses[course.ID] = &course
	return course, nil
}

func (repo *orgRepository) QueryClasses(_ context.Context, tenant string) ([]org.Class, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	tables, ok := repo.db.tenants[tenant]
	if !ok {
		return nil, nil
	}
	classes := make([]org.Class, 0, len(tables.classes))
	for _, c := range tables.classes {
		classes = append(classes, *c)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].Name < classes[j].Name })
	return classes, nil
}

func (repo *orgRepository) GetClassByID(_ context.Context, tenant, id string) (org.Class, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if tables, ok := repo.db.tenants[tenant]; ok {
		if c, ok := tables.classes[id]; ok {
			return *c, nil
		}
	}
	return org.Class{}, org.ErrNotFound
}

func (repo *orgRepository) CreateClass(_ context.Context, tenant string, class org.Class) (org.Class, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.tenant(tenant).classes[class.ID] = &class
	return class, nil
}

func (repo *orgRepository) QueryBatches(_ context.Context, tenant string) ([]org.Batch, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	tables, ok := repo.db.tenants[tenant]
	if !ok {
		return nil, nil
	}
	batches := make([]org.Batch, 0, len(tables.batches))
	for _, b := range tables.batches {
		batches = append(batches, *b)
	}
	sort.Slice(batches, func(i, j int) bool { return batches[i].Name < batches[j].Name })
	return batches, nil
}

func (repo *orgRepository) GetBatchByID(_ context.Context, tenant, id string) (org.Batch, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if tables, ok := repo.db.tenants[tenant]; ok {
		if b, ok := tables.batches[id]; ok {
			return *b, nil
		}
	}
	return org.Batch{}, org.ErrNotFound
}

func (repo *orgRepository) CreateBatch(_ context.Context, tenant string, batch org.Batch) (org.Batch, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.tenant(tenant).batches[batch.ID] = &batch
	return batch, nil
}
