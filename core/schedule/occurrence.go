package schedule

// OccurrenceDates expands a block's date pattern into the concrete list of
// dates it covers, in ascending order. The time pattern is uniform across a
// block's occurrences so a date fully identifies one.
func OccurrenceDates(b Block) []Date {
	switch b.DateType {
	case DateFixed:
		return b.Dates
	case DateRecurring:
		if b.Recurrence == nil {
			return nil
		}
		rec := b.Recurrence
		var dates []Date
		for d := rec.StartDate; !d.After(rec.EndDate); d = d.AddDays(1) {
			if d.Weekday() == rec.DayOfWeek.Time() {
				dates = append(dates, d)
				// jump a week at a time once aligned
				for d = d.AddDays(7); !d.After(rec.EndDate); d = d.AddDays(7) {
					dates = append(dates, d)
				}
				break
			}
		}
		return dates
	}
	return nil
}

// CoversDate reports whether a block occupies the given calendar date.
func CoversDate(b Block, date Date) bool {
	switch b.DateType {
	case DateFixed:
		for _, d := range b.Dates {
			if d.Equal(date) {
				return true
			}
		}
	case DateRecurring:
		if b.Recurrence == nil {
			return false
		}
		rec := b.Recurrence
		return date.Weekday() == rec.DayOfWeek.Time() &&
			!date.Before(rec.StartDate) && !date.After(rec.EndDate)
	}
	return false
}

// timesOverlap reports whether two blocks' time patterns intersect within a
// shared date. When a time_range meets a periods pattern and the grid has no
// clock-time mapping, overlap cannot be disproven and is assumed.
func timesOverlap(grid *CalendarGrid, a, b Block) bool {
	if a.TimeType == TimeFullDay || b.TimeType == TimeFullDay {
		return true
	}

	if a.TimeType == TimeRangeType && b.TimeType == TimeRangeType {
		if a.TimeRange == nil || b.TimeRange == nil {
			return false
		}
		return a.TimeRange.Overlaps(*b.TimeRange)
	}

	if a.TimeType == TimePeriods && b.TimeType == TimePeriods {
		return periodsIntersect(a.Periods, b.Periods)
	}

	// time_range vs periods
	ranged, perioded := a, b
	if a.TimeType == TimePeriods {
		ranged, perioded = b, a
	}
	if ranged.TimeRange == nil {
		return false
	}
	for _, p := range perioded.Periods {
		pt, ok := resolvePeriodTime(grid, p)
		if !ok {
			// no clock times; conservative
			return true
		}
		if ranged.TimeRange.Overlaps(pt) {
			return true
		}
	}
	return false
}

// occupiesPeriod reports whether a block covers the given grid period within
// a date it occurs on. Same conservative fallback as timesOverlap.
func occupiesPeriod(grid *CalendarGrid, b Block, period int) bool {
	switch b.TimeType {
	case TimeFullDay:
		return true
	case TimePeriods:
		for _, p := range b.Periods {
			if p == period {
				return true
			}
		}
		return false
	case TimeRangeType:
		if b.TimeRange == nil {
			return false
		}
		pt, ok := resolvePeriodTime(grid, period)
		if !ok {
			return true
		}
		return b.TimeRange.Overlaps(pt)
	}
	return false
}

func resolvePeriodTime(grid *CalendarGrid, period int) (TimeRange, bool) {
	if grid == nil {
		return TimeRange{}, false
	}
	return grid.ResolvePeriodTime(period)
}

func periodsIntersect(a, b []int) bool {
	set := make(map[int]struct{}, len(a))
	for _, p := range a {
		set[p] = struct{}{}
	}
	for _, p := range b {
		if _, ok := set[p]; ok {
			return true
		}
	}
	return false
}
