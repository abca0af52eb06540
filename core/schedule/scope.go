package schedule

import (
	"context"
	"errors"
)

// ErrScopeNotFound is returned by a ScopeResolver when a scope id does not
// resolve to an existing institution/course/class/batch.
var ErrScopeNotFound = errors.New("scope not found")

// ScopeType is the organizational level a block applies to.
// The hierarchy is batch ⊂ class ⊂ course ⊂ institution.
type ScopeType string

const (
	ScopeInstitution ScopeType = "institution"
	ScopeCourse      ScopeType = "course"
	ScopeClass       ScopeType = "class"
	ScopeBatch       ScopeType = "batch"
)

func (st ScopeType) IsValid() bool {
	switch st {
	case ScopeInstitution, ScopeCourse, ScopeClass, ScopeBatch:
		return true
	}
	return false
}

// Scope identifies the set of grid-consumers a block applies to.
type Scope struct {
	Type ScopeType `json:"scope_type"`
	ID   string    `json:"scope_id"`
}

// Lineage is the ordered ancestor chain of a scope: institution id first,
// the scope's own id last.
type Lineage []string

// Overlaps reports whether two scopes overlap: one is an ancestor or
// descendant of the other, or they are identical. With lineages this is a
// prefix test.
func (l Lineage) Overlaps(o Lineage) bool {
	if len(l) == 0 || len(o) == 0 {
		return false
	}
	n := len(l)
	if len(o) < n {
		n = len(o)
	}
	for i := 0; i < n; i++ {
		if l[i] != o[i] {
			return false
		}
	}
	return true
}

// ScopeResolver resolves scopes against a tenant's organizational directory.
type ScopeResolver interface {
	ResolveLineage(ctx context.Context, tenant string, scope Scope) (Lineage, error)
	// InstitutionEmail returns the contact email of an institution, or ""
	// when none is set.
	InstitutionEmail(ctx context.Context, tenant, institutionID string) (string, error)
}
