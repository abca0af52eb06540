package schedule

import (
	"context"
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
)

var (
	// errors
	ErrGridNotFound  = errors.New("calendar grid not configured")
	ErrTermNotFound  = errors.New("term not found")
	ErrBlockNotFound = errors.New("block not found")
)

type (
	Repository interface {
		GetGrid(ctx context.Context, tenant string) (CalendarGrid, error)
		UpsertGrid(ctx context.Context, tenant string, grid CalendarGrid) (CalendarGrid, error)

		QueryTerms(ctx context.Context, tenant string) ([]Term, error)
		GetTermByID(ctx context.Context, tenant, id string) (Term, error)
		CreateTerm(ctx context.Context, tenant string, term Term) (Term, error)
		UpdateTerm(ctx context.Context, tenant string, term Term) (Term, error)
		DeleteTerm(ctx context.Context, tenant, id string) error

		QueryBlocks(ctx context.Context, tenant string) ([]Block, error)
		// FilterBlocks applies AND operation on available BlockFilter fields.
		FilterBlocks(ctx context.Context, tenant string, filter BlockFilter) ([]Block, error)
		GetBlockByID(ctx context.Context, tenant, id string) (Block, error)
		CreateBlock(ctx context.Context, tenant string, block Block) (Block, error)
		UpdateBlock(ctx context.Context, tenant string, block Block) (Block, error)
		DeleteBlock(ctx context.Context, tenant, id string) error
	}

	Service struct {
		repo     Repository
		scopes   ScopeResolver
		mailSvc  core.EmailService
		validate *validator.Validate
		conf     *core.Config
	}
)

func NewService(repo Repository, scopes ScopeResolver, mailSvc core.EmailService, validate *validator.Validate, conf *core.Config) *Service {
	return &Service{
		repo:     repo,
		scopes:   scopes,
		mailSvc:  mailSvc,
		validate: validate,
		conf:     conf,
	}
}

// Calendar Grid

func (svc *Service) GetGrid(ctx context.Context, tenant string) (CalendarGrid, error) {
	return svc.repo.GetGrid(ctx, tenant)
}

// UpsertGrid replaces the tenant's calendar grid. Shrinking the period count
// below periods referenced by existing blocks is refused.
func (svc *Service) UpsertGrid(ctx context.Context, tenant string, ug UpsertGrid) (CalendarGrid, error) {
	if err := ug.Validate(svc.validate); err != nil {
		return CalendarGrid{}, err
	}

	blocks, err := svc.repo.QueryBlocks(ctx, tenant)
	if err != nil {
		return CalendarGrid{}, errors.Wrap(err, "querying blocks")
	}
	var refs []string
	for _, b := range blocks {
		if b.TimeType != TimePeriods {
			continue
		}
		for _, p := range b.Periods {
			if p > ug.PeriodsPerDay {
				refs = append(refs, b.ID)
				break
			}
		}
	}
	if refs != nil {
		return CalendarGrid{}, core.NewReferentialError(
			errors.New("blocks reference periods beyond the new grid"), refs)
	}

	grid := ug.grid()
	grid.UpdatedAt = time.Now().UTC()
	return svc.repo.UpsertGrid(ctx, tenant, grid)
}

// Terms

func (svc *Service) QueryTerms(ctx context.Context, tenant string) ([]Term, error) {
	return svc.repo.QueryTerms(ctx, tenant)
}

func (svc *Service) GetTerm(ctx context.Context, tenant, id string) (Term, error) {
	return svc.repo.GetTermByID(ctx, tenant, id)
}

func (svc *Service) CreateTerm(ctx context.Context, tenant string, nt NewTerm) (Term, error) {
	if err := nt.Validate(svc.validate); err != nil {
		return Term{}, err
	}

	now := time.Now().UTC()
	term := Term{
		ID:           uuid.New().String(),
		Name:         nt.Name,
		AcademicYear: nt.AcademicYear,
		StartDate:    nt.StartDate,
		EndDate:      nt.EndDate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	existing, err := svc.repo.QueryTerms(ctx, tenant)
	if err != nil {
		return Term{}, errors.Wrap(err, "querying terms")
	}
	if err = CheckTermOverlap(existing, term); err != nil {
		return Term{}, err
	}
	return svc.repo.CreateTerm(ctx, tenant, term)
}

func (svc *Service) UpdateTerm(ctx context.Context, tenant, id string, ut UpdateTerm) (Term, error) {
	origTerm, err := svc.repo.GetTermByID(ctx, tenant, id)
	if err != nil {
		return Term{}, err
	}
	if err = ut.Validate(origTerm, svc.validate); err != nil {
		return Term{}, err
	}

	term := origTerm
	term.Name = ut.Name
	term.AcademicYear = ut.AcademicYear
	term.StartDate = ut.StartDate
	term.EndDate = ut.EndDate
	term.UpdatedAt = time.Now().UTC()

	existing, err := svc.repo.QueryTerms(ctx, tenant)
	if err != nil {
		return Term{}, errors.Wrap(err, "querying terms")
	}
	if err = CheckTermOverlap(existing, term); err != nil {
		return Term{}, err
	}
	return svc.repo.UpdateTerm(ctx, tenant, term)
}

// ReferencingBlockIDs returns the ids of blocks referencing the given term.
func (svc *Service) ReferencingBlockIDs(ctx context.Context, tenant, termID string) ([]string, error) {
	blocks, err := svc.repo.FilterBlocks(ctx, tenant, BlockFilter{TermID: termID})
	if err != nil {
		return nil, errors.Wrap(err, "filtering blocks by term")
	}
	ids := make([]string, 0, len(blocks))
	for _, b := range blocks {
		ids = append(ids, b.ID)
	}
	sort.Strings(ids)
	return ids, nil
}

func (svc *Service) IsTermReferenced(ctx context.Context, tenant, termID string) (bool, error) {
	ids, err := svc.ReferencingBlockIDs(ctx, tenant, termID)
	if err != nil {
		return false, err
	}
	return len(ids) > 0, nil
}

// DeleteTerm removes a term; it fails with a core.ReferentialError carrying
// the referencing block ids when blocks still reference it. The engine never
// cascades.
func (svc *Service) DeleteTerm(ctx context.Context, tenant, id string) error {
	if _, err := svc.repo.GetTermByID(ctx, tenant, id); err != nil {
		return err
	}
	refs, err := svc.ReferencingBlockIDs(ctx, tenant, id)
	if err != nil {
		return err
	}
	if len(refs) > 0 {
		return core.NewReferentialError(errors.New("term is referenced by blocks"), refs)
	}
	return svc.repo.DeleteTerm(ctx, tenant, id)
}

// Blocks

func (svc *Service) QueryBlocks(ctx context.Context, tenant string) ([]Block, error) {
	return svc.repo.QueryBlocks(ctx, tenant)
}

func (svc *Service) FilterBlocks(ctx context.Context, tenant string, filter BlockFilter) ([]Block, error) {
	filter.Clean()
	return svc.repo.FilterBlocks(ctx, tenant, filter)
}

func (svc *Service) GetBlock(ctx context.Context, tenant, id string) (Block, error) {
	return svc.repo.GetBlockByID(ctx, tenant, id)
}

// CreateBlock validates the definition fully, then commits; there are no partial
// writes. Conflict checking stays advisory: a conflicting block is still
// saved, and hard conflicts are mailed to the institution contact.
func (svc *Service) CreateBlock(ctx context.Context, tenant string, nb NewBlock) (Block, error) {
	grid, err := svc.gridPtr(ctx, tenant)
	if err != nil {
		return Block{}, err
	}
	if err = nb.Validate(svc.validate, grid); err != nil {
		return Block{}, err
	}

	block := nb.block()
	lineage, err := svc.checkReferences(ctx, tenant, block)
	if err != nil {
		return Block{}, err
	}

	now := time.Now().UTC()
	block.ID = uuid.New().String()
	block.CreatedAt = now
	block.UpdatedAt = now

	block, err = svc.repo.CreateBlock(ctx, tenant, block)
	if err != nil {
		return Block{}, err
	}
	svc.notifyHardConflicts(ctx, tenant, block, lineage)
	return block, nil
}

func (svc *Service) UpdateBlock(ctx context.Context, tenant, id string, ub UpdateBlock) (Block, error) {
	origBlock, err := svc.repo.GetBlockByID(ctx, tenant, id)
	if err != nil {
		return Block{}, err
	}
	grid, err := svc.gridPtr(ctx, tenant)
	if err != nil {
		return Block{}, err
	}
	block, err := ub.Validate(origBlock, svc.validate, grid)
	if err != nil {
		return Block{}, err
	}

	lineage, err := svc.checkReferences(ctx, tenant, block)
	if err != nil {
		return Block{}, err
	}

	block.UpdatedAt = time.Now().UTC()
	block, err = svc.repo.UpdateBlock(ctx, tenant, block)
	if err != nil {
		return Block{}, err
	}
	svc.notifyHardConflicts(ctx, tenant, block, lineage)
	return block, nil
}

func (svc *Service) ToggleBlockActive(ctx context.Context, tenant, id string) (Block, error) {
	block, err := svc.repo.GetBlockByID(ctx, tenant, id)
	if err != nil {
		return Block{}, err
	}
	block.IsActive = !block.IsActive
	block.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateBlock(ctx, tenant, block)
}

func (svc *Service) DeleteBlock(ctx context.Context, tenant, id string) error {
	if _, err := svc.repo.GetBlockByID(ctx, tenant, id); err != nil {
		return err
	}
	return svc.repo.DeleteBlock(ctx, tenant, id)
}

// CheckConflicts validates a candidate block definition (not persisted) and returns
// its conflicts against existing active blocks of overlapping scope.
func (svc *Service) CheckConflicts(ctx context.Context, tenant string, nb NewBlock) ([]ConflictReport, error) {
	grid, err := svc.gridPtr(ctx, tenant)
	if err != nil {
		return nil, err
	}
	if err = nb.Validate(svc.validate, grid); err != nil {
		return nil, err
	}

	candidate := nb.block()
	lineage, err := svc.checkReferences(ctx, tenant, candidate)
	if err != nil {
		return nil, err
	}
	return svc.findConflicts(ctx, tenant, grid, candidate, lineage)
}

// Week projection

// WeekView projects grid occupancy for the 7-day window starting weekStart.
func (svc *Service) WeekView(ctx context.Context, tenant string, scope Scope, weekStart Date) (WeekView, error) {
	if !scope.Type.IsValid() || scope.ID == "" {
		return WeekView{}, core.NewValidationError(
			errors.New("invalid scope"),
			core.FieldError{Field: "scope_type", Error: "a valid scope_type and scope_id are required"},
		)
	}
	if weekStart.IsZero() {
		return WeekView{}, core.NewValidationError(
			errors.New("invalid week start"),
			core.FieldError{Field: "week_start", Error: "this field is required"},
		)
	}

	grid, err := svc.repo.GetGrid(ctx, tenant)
	if err != nil {
		return WeekView{}, err
	}
	lineage, err := svc.resolveScope(ctx, tenant, scope)
	if err != nil {
		return WeekView{}, err
	}

	isActive := true
	blocks, err := svc.repo.FilterBlocks(ctx, tenant, BlockFilter{IsActive: &isActive})
	if err != nil {
		return WeekView{}, errors.Wrap(err, "filtering active blocks")
	}
	withLineages, err := svc.attachLineages(ctx, tenant, blocks)
	if err != nil {
		return WeekView{}, err
	}
	// deterministic slot ordering
	sort.Slice(withLineages, func(i, j int) bool {
		if withLineages[i].Name != withLineages[j].Name {
			return withLineages[i].Name < withLineages[j].Name
		}
		return withLineages[i].ID < withLineages[j].ID
	})

	return ProjectWeek(grid, withLineages, scope, lineage, weekStart), nil
}

// helpers

// gridPtr fetches the tenant grid, mapping "not configured" to nil.
func (svc *Service) gridPtr(ctx context.Context, tenant string) (*CalendarGrid, error) {
	grid, err := svc.repo.GetGrid(ctx, tenant)
	if err != nil {
		if errors.Cause(err) == ErrGridNotFound {
			return nil, nil
		}
		return nil, errors.Wrap(err, "getting grid")
	}
	return &grid, nil
}

func (svc *Service) resolveScope(ctx context.Context, tenant string, scope Scope) (Lineage, error) {
	lineage, err := svc.scopes.ResolveLineage(ctx, tenant, scope)
	if err != nil {
		if errors.Cause(err) == ErrScopeNotFound {
			return nil, core.NewValidationError(
				err, core.FieldError{Field: "scope_id", Error: fmt.Sprintf("%s %q does not exist", scope.Type, scope.ID)})
		}
		return nil, errors.Wrap(err, "resolving scope")
	}
	return lineage, nil
}

// checkReferences resolves the block's scope and verifies its term reference.
func (svc *Service) checkReferences(ctx context.Context, tenant string, block Block) (Lineage, error) {
	lineage, err := svc.resolveScope(ctx, tenant, block.Scope)
	if err != nil {
		return nil, err
	}
	if block.TermID != "" {
		if _, err = svc.repo.GetTermByID(ctx, tenant, block.TermID); err != nil {
			if errors.Cause(err) == ErrTermNotFound {
				return nil, core.NewValidationError(
					err, core.FieldError{Field: "term_id", Error: fmt.Sprintf("term %q does not exist", block.TermID)})
			}
			return nil, errors.Wrap(err, "getting term")
		}
	}
	return lineage, nil
}

func (svc *Service) attachLineages(ctx context.Context, tenant string, blocks []Block) ([]BlockWithLineage, error) {
	out := make([]BlockWithLineage, 0, len(blocks))
	for _, b := range blocks {
		lineage, err := svc.scopes.ResolveLineage(ctx, tenant, b.Scope)
		if err != nil {
			if errors.Cause(err) == ErrScopeNotFound {
				// orphaned scope; cannot overlap anything
				continue
			}
			return nil, errors.Wrap(err, "resolving block scope")
		}
		out = append(out, BlockWithLineage{Block: b, Lineage: lineage})
	}
	return out, nil
}

func (svc *Service) findConflicts(ctx context.Context, tenant string, grid *CalendarGrid, candidate Block, lineage Lineage) ([]ConflictReport, error) {
	existing, err := svc.repo.QueryBlocks(ctx, tenant)
	if err != nil {
		return nil, errors.Wrap(err, "querying blocks")
	}
	withLineages, err := svc.attachLineages(ctx, tenant, existing)
	if err != nil {
		return nil, err
	}
	return FindConflicts(grid, candidate, lineage, withLineages), nil
}

// notifyHardConflicts mails a conflict digest to the institution contact when
// a saved block collides with hard blocks. Advisory only; the save stands.
func (svc *Service) notifyHardConflicts(ctx context.Context, tenant string, block Block, lineage Lineage) {
	if svc.mailSvc == nil || len(lineage) == 0 {
		return
	}
	grid, err := svc.gridPtr(ctx, tenant)
	if err != nil {
		return
	}
	reports, err := svc.findConflicts(ctx, tenant, grid, block, lineage)
	if err != nil {
		return
	}
	var hard []ConflictReport
	for _, r := range reports {
		if r.Severity == SeverityError {
			hard = append(hard, r)
		}
	}
	if len(hard) == 0 {
		return
	}

	contact, err := svc.scopes.InstitutionEmail(ctx, tenant, lineage[0])
	if err != nil || contact == "" {
		return
	}

	var body strings.Builder
	fmt.Fprintf(&body, "The block %q was saved with %d hard conflict(s):\n\n", block.Name, len(hard))
	for _, r := range hard {
		fmt.Fprintf(&body, "- %s: %s\n", r.Date, r.Detail)
	}
	body.WriteString("\nReview the timetable and reschedule if needed.\n")

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:          []mail.Address{{Address: contact}},
		Subject:     fmt.Sprintf("Scheduling conflicts for %q", block.Name),
		TextContent: body.String(),
	})
}
