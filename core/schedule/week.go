package schedule

// SlotKind distinguishes the rows of a day's timetable.
type SlotKind string

const (
	SlotPeriod SlotKind = "period"
	SlotBreak  SlotKind = "break"
)

// SlotStatus of a period slot.
type SlotStatus string

const (
	SlotFree     SlotStatus = "free"
	SlotOccupied SlotStatus = "occupied"
)

type (
	// BlockRef is a light reference to a block occupying a slot.
	BlockRef struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		BlockType BlockType `json:"block_type"`
		Strength  Strength  `json:"strength"`
	}

	// Slot is one row of a working day: either a period (free or occupied)
	// or a break.
	Slot struct {
		Kind      SlotKind   `json:"kind"`
		Period    int        `json:"period,omitempty"`
		StartTime string     `json:"start_time,omitempty"`
		EndTime   string     `json:"end_time,omitempty"`
		Break     *Break     `json:"break,omitempty"`
		Status    SlotStatus `json:"status,omitempty"`
		Blocks    []BlockRef `json:"blocks,omitempty"`
	}

	// DayView is one day of a WeekView. A non-working day has Working false
	// and no slots: a holiday row, distinct from a free one.
	DayView struct {
		Date      Date   `json:"date"`
		DayOfWeek string `json:"day_of_week"`
		Working   bool   `json:"working"`
		Slots     []Slot `json:"slots,omitempty"`
	}

	// WeekView is a read-only projection of grid occupancy for one week and
	// one scope.
	WeekView struct {
		Scope     Scope     `json:"scope"`
		WeekStart Date      `json:"week_start"`
		Days      []DayView `json:"days"`
	}
)

// ProjectWeek projects grid occupancy for the 7-day window starting at
// weekStart, for the scope whose lineage is given. Only blocks overlapping
// that scope count; callers pass active blocks only. Pure: identical inputs
// produce identical views.
func ProjectWeek(grid CalendarGrid, blocks []BlockWithLineage, scope Scope, scopeLineage Lineage, weekStart Date) WeekView {
	view := WeekView{
		Scope:     scope,
		WeekStart: weekStart,
		Days:      make([]DayView, 0, 7),
	}

	breaks := grid.sortedBreaks()

	for i := 0; i < 7; i++ {
		date := weekStart.AddDays(i)
		day := DayView{
			Date:      date,
			DayOfWeek: date.DayName(),
		}

		wd := Weekday(date.DayName())
		if !wd.IsValid() || !grid.IsWorkingDay(wd) {
			view.Days = append(view.Days, day)
			continue
		}
		day.Working = true

		// blocks present on this date and scope
		var present []BlockWithLineage
		for _, b := range blocks {
			if !b.IsActive || !scopeLineage.Overlaps(b.Lineage) {
				continue
			}
			if CoversDate(b.Block, date) {
				present = append(present, b)
			}
		}

		brkIdx := 0
		for p := 1; p <= grid.PeriodsPerDay; p++ {
			slot := Slot{Kind: SlotPeriod, Period: p, Status: SlotFree}
			if pt, ok := grid.ResolvePeriodTime(p); ok {
				slot.StartTime = pt.StartTime
				slot.EndTime = pt.EndTime
			}
			for _, b := range present {
				if occupiesPeriod(&grid, b.Block, p) {
					slot.Status = SlotOccupied
					slot.Blocks = append(slot.Blocks, BlockRef{
						ID:        b.ID,
						Name:      b.Name,
						BlockType: b.BlockType,
						Strength:  b.Strength,
					})
				}
			}
			day.Slots = append(day.Slots, slot)

			for brkIdx < len(breaks) && breaks[brkIdx].AfterPeriod == p {
				brk := breaks[brkIdx]
				day.Slots = append(day.Slots, Slot{Kind: SlotBreak, Break: &brk})
				brkIdx++
			}
		}

		view.Days = append(view.Days, day)
	}
	return view
}
