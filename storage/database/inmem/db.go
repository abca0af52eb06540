package inmemdb

import (
	"sync"

	"github.com/trezcool/ratiba/core/org"
	"github.com/trezcool/ratiba/core/schedule"
)

type (
	// DB is an in-memory store keyed by tenant; used in tests and local dev.
	DB struct {
		mutex   sync.RWMutex
		tenants map[string]*tenantTables
	}

	tenantTables struct {
		grid   *schedule.CalendarGrid
		terms  map[string]*schedule.Term
		blocks map[string]*schedule.Block

		institutions map[string]*org.Institution
		courses      map[string]*org.Course
		classes      map[string]*org.Class
		batches      map[string]*org.Batch
	}
)

func Open() (*DB, error) {
	return &DB{tenants: make(map[string]*tenantTables)}, nil
}

// tenant lazily creates a tenant's tables; callers must hold the lock.
func (db *DB) tenant(t string) *tenantTables {
	tables, ok := db.tenants[t]
	if !ok {
		tables = &tenantTables{
			terms:        make(map[string]*schedule.Term),
			blocks:       make(map[string]*schedule.Block),
			institutions: make(map[string]*org.Institution),
			courses:      make(map[string]*org.Course),
			classes:      make(map[string]*org.Class),
			batches:      make(map[string]*org.Batch),
		}
		db.tenants[t] = tables
	}
	return tables
}
