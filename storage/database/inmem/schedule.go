package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/ratiba/core/schedule"
)

type scheduleRepository struct {
	db *DB
}

var _ schedule.Repository = (*scheduleRepository)(nil)

func NewScheduleRepository(db *DB) *scheduleRepository {
	return &scheduleRepository{db: db}
}

func (repo *scheduleRepository) GetGrid(_ context.Context, tenant string) (schedule.CalendarGrid, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if tables, ok := repo.db.tenants[tenant]; ok && tables.grid != nil {
		return *tables.grid, nil
	}
	return schedule.CalendarGrid{}, schedule.ErrGridNotFound
}

func (repo *scheduleRepository) UpsertGrid(_ context.Context, tenant string, grid schedule.CalendarGrid) (schedule.CalendarGrid, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.tenant(tenant).grid = &grid
	return grid, nil
}

func (repo *scheduleRepository) QueryTerms(_ context.Context, tenant string) ([]schedule.Term, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	tables, ok := repo.db.tenants[tenant]
	if !ok {
		return nil, nil
	}
	terms := make([]schedule.Term, 0, len(tables.terms))
	for _, t := range tables.terms {
		terms = append(terms, *t)
	}
	sort.Slice(terms, func(i, j int) bool { return terms[i].StartDate.Before(terms[j].StartDate) })
	return terms, nil
}

func (repo *scheduleRepository) GetTermByID(_ context.Context, tenant, id string) (schedule.Term, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if tables, ok := repo.db.tenants[tenant]; ok {
		if t, ok := tables.terms[id]; ok {
			return *t, nil
		}
	}
	return schedule.Term{}, schedule.ErrTermNotFound
}

func (repo *scheduleRepository) CreateTerm(_ context.Context, tenant string, term schedule.Term) (schedule.Term, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.tenant(tenant).terms[term.ID] = &term
	return term, nil
}

func (repo *scheduleRepository) UpdateTerm(_ context.Context, tenant string, term schedule.Term) (schedule.Term, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	tables := repo.db.tenant(tenant)
	if _, ok := tables.terms[term.ID]; !ok {
		return schedule.Term{}, schedule.ErrTermNotFound
	}
	tables.terms[term.ID] = &term
	return term, nil
}

func (repo *scheduleRepository) DeleteTerm(_ context.Context, tenant, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if tables, ok := repo.db.tenants[tenant]; ok {
		delete(tables.terms, id)
	}
	return nil
}

func (repo *scheduleRepository) QueryBlocks(_ context.Context, tenant string) ([]schedule.Block, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.queryBlocks(tenant), nil
}

func (repo *scheduleRepository) queryBlocks(tenant string) []schedule.Block {
	tables, ok := repo.db.tenants[tenant]
	if !ok {
		return nil
	}
	blocks := make([]schedule.Block, 0, len(tables.blocks))
	for _, b := range tables.blocks {
		blocks = append(blocks, *b)
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].CreatedAt.Before(blocks[j].CreatedAt) })
	return blocks
}

func (repo *scheduleRepository) FilterBlocks(_ context.Context, tenant string, filter schedule.BlockFilter) ([]schedule.Block, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	blocks := repo.queryBlocks(tenant)
	if filter.IsEmpty() {
		return blocks, nil
	}

	search := strings.ToLower(filter.Search)
	matched := make([]schedule.Block, 0, len(blocks))
	for _, b := range blocks {
		if search != "" && !strings.Contains(strings.ToLower(b.Name), search) {
			continue
		}
		if filter.BlockType != "" && b.BlockType != filter.BlockType {
			continue
		}
		if filter.Strength != "" && b.Strength != filter.Strength {
			continue
		}
		if filter.ScopeType != "" && b.Scope.Type != filter.ScopeType {
			continue
		}
		if filter.ScopeID != "" && b.Scope.ID != filter.ScopeID {
			continue
		}
		if filter.TermID != "" && b.TermID != filter.TermID {
			continue
		}
		if filter.IsActive != nil && b.IsActive != *filter.IsActive {
			continue
		}
		matched = append(matched, b)
	}
	return matched, nil
}

func (repo *scheduleRepository) GetBlockByID(_ context.Context, tenant, id string) (schedule.Block, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if tables, ok := repo.db.tenants[tenant]; ok {
		if b, ok := tables.blocks[id]; ok {
			return *b, nil
		}
	}
	return schedule.Block{}, schedule.ErrBlockNotFound
}

func (repo *scheduleRepository) CreateBlock(_ context.Context, tenant string, block schedule.Block) (schedule.Block, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.tenant(tenant).blocks[block.ID] = &block
	return block, nil
}

func (repo *scheduleRepository) UpdateBlock(_ context.Context, tenant string, block schedule.Block) (schedule.Block, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	tables := repo.db.tenant(tenant)
	if _, ok := tables.blocks[block.ID]; !ok {
		return schedule.Block{}, schedule.ErrBlockNotFound
	}
	tables.blocks[block.ID] = &block
	return block, nil
}

func (repo *scheduleRepository) DeleteBlock(_ context.Context, tenant, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if tables, ok := repo.db.tenants[tenant]; ok {
		delete(tables.blocks, id)
	}
	return nil
}
