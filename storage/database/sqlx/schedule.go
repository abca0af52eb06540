package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ratiba/core/schedule"
)

type scheduleRepository struct {
	db *sqlx.DB
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db *sqlx.DB) *scheduleRepository {
	return &scheduleRepository{db: db}
}

// Calendar Grid

type gridRow struct {
	Tenant        string      `db:"tenant"`
	WorkingDays   []byte      `db:"working_days"`
	PeriodsPerDay int         `db:"periods_per_day"`
	Breaks        []byte      `db:"breaks"`
	UseClockTimes bool        `db:"use_clock_times"`
	PeriodTimes   null.Bytes  `db:"period_times"`
	UpdatedAt     null.Time   `db:"updated_at"`
}

func (repo scheduleRepository) rowGrid(tenant string, g schedule.CalendarGrid) (gridRow, error) {
	days, err := json.Marshal(g.WorkingDays)
	if err != nil {
		return gridRow{}, errors.Wrap(err, "marshaling working days")
	}
	brks, err := json.Marshal(g.Breaks)
	if err != nil {
		return gridRow{}, errors.Wrap(err, "marshaling breaks")
	}
	row := gridRow{
		Tenant:        tenant,
		WorkingDays:   days,
		PeriodsPerDay: g.PeriodsPerDay,
		Breaks:        brks,
		UseClockTimes: g.UseClockTimes,
		UpdatedAt:     null.TimeFrom(g.UpdatedAt.UTC()),
	}
	if len(g.PeriodTimes) > 0 {
		times, err := json.Marshal(g.PeriodTimes)
		if err != nil {
			return gridRow{}, errors.Wrap(err, "marshaling period times")
		}
		row.PeriodTimes = null.BytesFrom(times)
	}
	return row, nil
}

func (repo scheduleRepository) unrowGrid(row gridRow) (schedule.CalendarGrid, error) {
	grid := schedule.CalendarGrid{
		PeriodsPerDay: row.PeriodsPerDay,
		UseClockTimes: row.UseClockTimes,
		UpdatedAt:     row.UpdatedAt.Time,
	}
	if err := json.Unmarshal(row.WorkingDays, &grid.WorkingDays); err != nil {
		return schedule.CalendarGrid{}, errors.Wrap(err, "unmarshaling working days")
	}
	if err := json.Unmarshal(row.Breaks, &grid.Breaks); err != nil {
		return schedule.CalendarGrid{}, errors.Wrap(err, "unmarshaling breaks")
	}
	if row.PeriodTimes.Valid {
		if err := json.Unmarshal(row.PeriodTimes.Bytes, &grid.PeriodTimes); err != nil {
			return schedule.CalendarGrid{}, errors.Wrap(err, "unmarshaling period times")
		}
	}
	return grid, nil
}

func (repo scheduleRepository) GetGrid(ctx context.Context, tenant string) (schedule.CalendarGrid, error) {
	var row gridRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM calendar_grids WHERE tenant = $1`, tenant)
	if err != nil {
		if err == sql.ErrNoRows {
			return schedule.CalendarGrid{}, schedule.ErrGridNotFound
		}
		return schedule.CalendarGrid{}, errors.Wrap(err, "getting calendar grid")
	}
	return repo.unrowGrid(row)
}

func (repo scheduleRepository) UpsertGrid(ctx context.Context, tenant string, grid schedule.CalendarGrid) (schedule.CalendarGrid, error) {
	row, err := repo.rowGrid(tenant, grid)
	if err != nil {
		return schedule.CalendarGrid{}, err
	}
	_, err = repo.db.NamedExecContext(ctx, `
		INSERT INTO calendar_grids (tenant, working_days, periods_per_day, breaks, use_clock_times, period_times, updated_at)
		VALUES (:tenant, :working_days, :periods_per_day, :breaks, :use_clock_times, :period_times, :updated_at)
		ON CONFLICT (tenant) DO UPDATE SET
			working_days = EXCLUDED.working_days,
			periods_per_day = EXCLUDED.periods_per_day,
			breaks = EXCLUDED.breaks,
			use_clock_times = EXCLUDED.use_clock_times,
			period_times = EXCLUDED.period_times,
			updated_at = EXCLUDED.updated_at`,
		row)
	if err != nil {
		return schedule.CalendarGrid{}, errors.Wrap(err, "upserting calendar grid")
	}
	return grid, nil
}

// Terms

type termRow struct {
	ID           string        `db:"id"`
	Tenant       string        `db:"tenant"`
	Name         string        `db:"name"`
	AcademicYear string        `db:"academic_year"`
	StartDate    schedule.Date `db:"start_date"`
	EndDate      schedule.Date `db:"end_date"`
	CreatedAt    null.Time     `db:"created_at"`
	UpdatedAt    null.Time     `db:"updated_at"`
}

func (repo scheduleRepository) rowTerm(tenant string, t schedule.Term) termRow {
	return termRow{
		ID:           t.ID,
		Tenant:       tenant,
		Name:         t.Name,
		AcademicYear: t.AcademicYear,
		StartDate:    t.StartDate,
		EndDate:      t.EndDate,
		CreatedAt:    null.TimeFrom(t.CreatedAt.UTC()),
		UpdatedAt:    null.TimeFrom(t.UpdatedAt.UTC()),
	}
}

func (repo scheduleRepository) unrowTerm(row termRow) schedule.Term {
	return schedule.Term{
		ID:           row.ID,
		Name:         row.Name,
		AcademicYear: row.AcademicYear,
		StartDate:    row.StartDate,
		EndDate:      row.EndDate,
		CreatedAt:    row.CreatedAt.Time,
		UpdatedAt:    row.UpdatedAt.Time,
	}
}

func (repo scheduleRepository) QueryTerms(ctx context.Context, tenant string) ([]schedule.Term, error) {
	var rows []termRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM terms WHERE tenant = $1 ORDER BY start_date`, tenant)
	if err != nil {
		return nil, errors.Wrap(err, "querying terms")
	}
	terms := make([]schedule.Term, 0, len(rows))
	for _, row := range rows {
		terms = append(terms, repo.unrowTerm(row))
	}
	return terms, nil
}

func (repo scheduleRepository) GetTermByID(ctx context.Context, tenant, id string) (schedule.Term, error) {
	var row termRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM terms WHERE tenant = $1 AND id = $2`, tenant, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return schedule.Term{}, schedule.ErrTermNotFound
		}
		return schedule.Term{}, errors.Wrap(err, "getting term")
	}
	return repo.unrowTerm(row), nil
}

func (repo scheduleRepository) CreateTerm(ctx context.Context, tenant string, term schedule.Term) (schedule.Term, error) {
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO terms (id, tenant, name, academic_year, start_date, end_date, created_at, updated_at)
		VALUES (:id, :tenant, :name, :academic_year, :start_date, :end_date, :created_at, :updated_at)`,
		repo.rowTerm(tenant, term))
	if err != nil {
		return schedule.Term{}, errors.Wrap(err, "inserting term")
	}
	return term, nil
}

func (repo scheduleRepository) UpdateTerm(ctx context.Context, tenant string, term schedule.Term) (schedule.Term, error) {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE terms SET
			name = :name,
			academic_year = :academic_year,
			start_date = :start_date,
			end_date = :end_date,
			updated_at = :updated_at
		WHERE tenant = :tenant AND id = :id`,
		repo.rowTerm(tenant, term))
	if err != nil {
		return schedule.Term{}, errors.Wrap(err, "updating term")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return schedule.Term{}, schedule.ErrTermNotFound
	}
	return term, nil
}

func (repo scheduleRepository) DeleteTerm(ctx context.Context, tenant, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM terms WHERE tenant = $1 AND id = $2`, tenant, id)
	if err != nil {
		return errors.Wrap(err, "deleting term")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return schedule.ErrTermNotFound
	}
	return nil
}

// Blocks

type blockRow struct {
	ID        string `db:"id"`
	Tenant    string `db:"tenant"`
	Name      string `db:"name"`
	BlockType string `db:"block_type"`
	ScopeType string `db:"scope_type"`
	ScopeID   string `db:"scope_id"`
	Strength  string `db:"strength"`

	DateType     string     `db:"date_type"`
	Dates        null.Bytes `db:"dates"`
	RecDay       null.String `db:"rec_day"`
	RecStartDate null.Time  `db:"rec_start_date"`
	RecEndDate   null.Time  `db:"rec_end_date"`

	TimeType   string      `db:"time_type"`
	RangeStart null.String `db:"range_start"`
	RangeEnd   null.String `db:"range_end"`
	Periods    null.Bytes  `db:"periods"`

	TermID    null.String `db:"term_id"`
	IsActive  bool        `db:"is_active"`
	CreatedAt null.Time   `db:"created_at"`
	UpdatedAt null.Time   `db:"updated_at"`
}

func (repo scheduleRepository) rowBlock(tenant string, b schedule.Block) (blockRow, error) {
	row := blockRow{
		ID:        b.ID,
		Tenant:    tenant,
		Name:      b.Name,
		BlockType: string(b.BlockType),
		ScopeType: string(b.Scope.Type),
		ScopeID:   b.Scope.ID,
		Strength:  string(b.Strength),
		DateType:  string(b.DateType),
		TimeType:  string(b.TimeType),
		TermID:    null.NewString(b.TermID, b.TermID != ""),
		IsActive:  b.IsActive,
		CreatedAt: null.TimeFrom(b.CreatedAt.UTC()),
		UpdatedAt: null.TimeFrom(b.UpdatedAt.UTC()),
	}
	if len(b.Dates) > 0 {
		dates, err := json.Marshal(b.Dates)
		if err != nil {
			return blockRow{}, errors.Wrap(err, "marshaling dates")
		}
		row.Dates = null.BytesFrom(dates)
	}
	if b.Recurrence != nil {
		row.RecDay = null.StringFrom(string(b.Recurrence.DayOfWeek))
		row.RecStartDate = null.TimeFrom(b.Recurrence.StartDate.Time)
		row.RecEndDate = null.TimeFrom(b.Recurrence.EndDate.Time)
	}
	if b.TimeRange != nil {
		row.RangeStart = null.StringFrom(b.TimeRange.StartTime)
		row.RangeEnd = null.StringFrom(b.TimeRange.EndTime)
	}
	if len(b.Periods) > 0 {
		periods, err := json.Marshal(b.Periods)
		if err != nil {
			return blockRow{}, errors.Wrap(err, "marshaling periods")
		}
		row.Periods = null.BytesFrom(periods)
	}
	return row, nil
}

func (repo scheduleRepository) unrowBlock(row blockRow) (schedule.Block, error) {
	block := schedule.Block{
		ID:        row.ID,
		Name:      row.Name,
		BlockType: schedule.BlockType(row.BlockType),
		Scope: schedule.Scope{
			Type: schedule.ScopeType(row.ScopeType),
			ID:   row.ScopeID,
		},
		Strength:  schedule.Strength(row.Strength),
		DateType:  schedule.DateType(row.DateType),
		TimeType:  schedule.TimeType(row.TimeType),
		TermID:    row.TermID.String,
		IsActive:  row.IsActive,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
	if row.Dates.Valid {
		if err := json.Unmarshal(row.Dates.Bytes, &block.Dates); err != nil {
			return schedule.Block{}, errors.Wrap(err, "unmarshaling dates")
		}
	}
	if row.RecDay.Valid {
		block.Recurrence = &schedule.Recurrence{
			DayOfWeek: schedule.Weekday(row.RecDay.String),
			StartDate: schedule.DateOf(row.RecStartDate.Time),
			EndDate:   schedule.DateOf(row.RecEndDate.Time),
		}
	}
	if row.RangeStart.Valid {
		block.TimeRange = &schedule.TimeRange{
			StartTime: row.RangeStart.String,
			EndTime:   row.RangeEnd.String,
		}
	}
	if row.Periods.Valid {
		if err := json.Unmarshal(row.Periods.Bytes, &block.Periods); err != nil {
			return schedule.Block{}, errors.Wrap(err, "unmarshaling periods")
		}
	}
	return block, nil
}

func (repo scheduleRepository) unrowBlockSlice(rows []blockRow) ([]schedule.Block, error) {
	blocks := make([]schedule.Block, 0, len(rows))
	for _, row := range rows {
		block, err := repo.unrowBlock(row)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

func (repo scheduleRepository) QueryBlocks(ctx context.Context, tenant string) ([]schedule.Block, error) {
	var rows []blockRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM blocks WHERE tenant = $1 ORDER BY created_at`, tenant)
	if err != nil {
		return nil, errors.Wrap(err, "querying blocks")
	}
	return repo.unrowBlockSlice(rows)
}

func (repo scheduleRepository) FilterBlocks(ctx context.Context, tenant string, filter schedule.BlockFilter) ([]schedule.Block, error) {
	where := []string{"tenant = ?"}
	args := []interface{}{tenant}

	if filter.Search != "" {
		where = append(where, "name ILIKE ?")
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.BlockType != "" {
		where = append(where, "block_type = ?")
		args = append(args, string(filter.BlockType))
	}
	if filter.Strength != "" {
		where = append(where, "strength = ?")
		args = append(args, string(filter.Strength))
	}
	if filter.ScopeType != "" {
		where = append(where, "scope_type = ?")
		args = append(args, string(filter.ScopeType))
	}
	if filter.ScopeID != "" {
		where = append(where, "scope_id = ?")
		args = append(args, filter.ScopeID)
	}
	if filter.TermID != "" {
		where = append(where, "term_id = ?")
		args = append(args, filter.TermID)
	}
	if filter.IsActive != nil {
		where = append(where, "is_active = ?")
		args = append(args, *filter.IsActive)
	}

	orderBy := "created_at"
	if len(filter.Ordering) > 0 {
		orderList := make([]string, 0, len(filter.Ordering))
		for _, ord := range filter.Ordering {
			orderList = append(orderList, ord.String())
		}
		orderBy = strings.Join(orderList, ", ")
	}

	query := repo.db.Rebind(
		"SELECT * FROM blocks WHERE " + strings.Join(where, " AND ") + " ORDER BY " + orderBy)

	var rows []blockRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering blocks")
	}
	return repo.unrowBlockSlice(rows)
}

func (repo scheduleRepository) GetBlockByID(ctx context.Context, tenant, id string) (schedule.Block, error) {
	var row blockRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM blocks WHERE tenant = $1 AND id = $2`, tenant, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return schedule.Block{}, schedule.ErrBlockNotFound
		}
		return schedule.Block{}, errors.Wrap(err, "getting block")
	}
	return repo.unrowBlock(row)
}

func (repo scheduleRepository) CreateBlock(ctx context.Context, tenant string, block schedule.Block) (schedule.Block, error) {
	row, err := repo.rowBlock(tenant, block)
	if err != nil {
		return schedule.Block{}, err
	}
	_, err = repo.db.NamedExecContext(ctx, `
		INSERT INTO blocks (
			id, tenant, name, block_type, scope_type, scope_id, strength,
			date_type, dates, rec_day, rec_start_date, rec_end_date,
			time_type, range_start, range_end, periods,
			term_id, is_active, created_at, updated_at
		) VALUES (
			:id, :tenant, :name, :block_type, :scope_type, :scope_id, :strength,
			:date_type, :dates, :rec_day, :rec_start_date, :rec_end_date,
			:time_type, :range_start, :range_end, :periods,
			:term_id, :is_active, :created_at, :updated_at
		)`,
		row)
	if err != nil {
		return schedule.Block{}, errors.Wrap(err, "inserting block")
	}
	return block, nil
}

func (repo scheduleRepository) UpdateBlock(ctx context.Context, tenant string, block schedule.Block) (schedule.Block, error) {
	row, err := repo.rowBlock(tenant, block)
	if err != nil {
		return schedule.Block{}, err
	}
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE blocks SET
			name = :name,
			block_type = :block_type,
			scope_type = :scope_type,
			scope_id = :scope_id,
			strength = :strength,
			date_type = :date_type,
			dates = :dates,
			rec_day = :rec_day,
			rec_start_date = :rec_start_date,
			rec_end_date = :rec_end_date,
			time_type = :time_type,
			range_start = :range_start,
			range_end = :range_end,
			periods = :periods,
			term_id = :term_id,
			is_active = :is_active,
			updated_at = :updated_at
		WHERE tenant = :tenant AND id = :id`,
		row)
	if err != nil {
		return schedule.Block{}, errors.Wrap(err, "updating block")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return schedule.Block{}, schedule.ErrBlockNotFound
	}
	return block, nil
}

func (repo scheduleRepository) DeleteBlock(ctx context.Context, tenant, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM blocks WHERE tenant = $1 AND id = $2`, tenant, id)
	if err != nil {
		return errors.Wrap(err, "deleting block")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return schedule.ErrBlockNotFound
	}
	return nil
}
