package schedule

import (
	"reflect"
	"testing"
)

func TestOccurrenceDates(t *testing.T) {
	tests := []struct {
		name  string
		block Block
		want  []Date
	}{
		{
			name: "fixed dates pass through",
			block: Block{
				DateType: DateFixed,
				Dates:    []Date{NewDate(2025, 2, 10), NewDate(2025, 2, 12)},
			},
			want: []Date{NewDate(2025, 2, 10), NewDate(2025, 2, 12)},
		},
		{
			name: "recurring saturdays of january 2025",
			block: Block{
				DateType: DateRecurring,
				Recurrence: &Recurrence{
					DayOfWeek: Saturday,
					StartDate: NewDate(2025, 1, 1),
					EndDate:   NewDate(2025, 1, 31),
				},
			},
			want: []Date{
				NewDate(2025, 1, 4),
				NewDate(2025, 1, 11),
				NewDate(2025, 1, 18),
				NewDate(2025, 1, 25),
			},
		},
		{
			name: "recurrence starting on its weekday",
			block: Block{
				DateType: DateRecurring,
				Recurrence: &Recurrence{
					DayOfWeek: Saturday,
					StartDate: NewDate(2025, 1, 4),
					EndDate:   NewDate(2025, 1, 18),
				},
			},
			want: []Date{NewDate(2025, 1, 4), NewDate(2025, 1, 11), NewDate(2025, 1, 18)},
		},
		{
			name: "range too short for the weekday",
			block: Block{
				DateType: DateRecurring,
				Recurrence: &Recurrence{
					DayOfWeek: Saturday,
					StartDate: NewDate(2025, 1, 6), // monday
					EndDate:   NewDate(2025, 1, 9), // thursday
				},
			},
			want: nil,
		},
		{
			name:  "recurring without recurrence",
			block: Block{DateType: DateRecurring},
			want:  nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OccurrenceDates(tt.block)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("OccurrenceDates() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCoversDate(t *testing.T) {
	fixed := Block{DateType: DateFixed, Dates: []Date{NewDate(2025, 3, 3)}}
	recurring := Block{
		DateType: DateRecurring,
		Recurrence: &Recurrence{
			DayOfWeek: Monday,
			StartDate: NewDate(2025, 3, 1),
			EndDate:   NewDate(2025, 3, 31),
		},
	}

	tests := []struct {
		name  string
		block Block
		date  Date
		want  bool
	}{
		{name: "fixed hit", block: fixed, date: NewDate(2025, 3, 3), want: true},
		{name: "fixed miss", block: fixed, date: NewDate(2025, 3, 4), want: false},
		{name: "recurring hit", block: recurring, date: NewDate(2025, 3, 10), want: true},
		{name: "recurring wrong weekday", block: recurring, date: NewDate(2025, 3, 11), want: false},
		{name: "recurring outside range", block: recurring, date: NewDate(2025, 4, 7), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CoversDate(tt.block, tt.date); got != tt.want {
				t.Errorf("CoversDate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTimesOverlap(t *testing.T) {
	gridWithTimes := &CalendarGrid{
		WorkingDays:   []Weekday{Monday},
		PeriodsPerDay: 4,
		UseClockTimes: true,
		PeriodTimes: []PeriodTime{
			{Period: 1, StartTime: "08:00", EndTime: "08:45"},
			{Period: 2, StartTime: "08:45", EndTime: "09:30"},
			{Period: 3, StartTime: "09:30", EndTime: "10:15"},
			{Period: 4, StartTime: "10:15", EndTime: "11:00"},
		},
	}
	gridNoTimes := &CalendarGrid{WorkingDays: []Weekday{Monday}, PeriodsPerDay: 4}

	fullDay := Block{TimeType: TimeFullDay}
	morning := Block{TimeType: TimeRangeType, TimeRange: &TimeRange{"08:00", "09:00"}}
	afternoon := Block{TimeType: TimeRangeType, TimeRange: &TimeRange{"14:00", "16:00"}}
	periods12 := Block{TimeType: TimePeriods, Periods: []int{1, 2}}
	periods34 := Block{TimeType: TimePeriods, Periods: []int{3, 4}}

	tests := []struct {
		name string
		grid *CalendarGrid
		a, b Block
		want bool
	}{
		{name: "full day vs anything", grid: gridWithTimes, a: fullDay, b: afternoon, want: true},
		{name: "ranges disjoint", grid: gridWithTimes, a: morning, b: afternoon, want: false},
		{name: "periods disjoint", grid: gridWithTimes, a: periods12, b: periods34, want: false},
		{name: "periods shared", grid: gridWithTimes, a: periods12, b: Block{TimeType: TimePeriods, Periods: []int{2, 3}}, want: true},
		{name: "range vs periods via clock times", grid: gridWithTimes, a: morning, b: periods12, want: true},
		{name: "range vs periods no intersection", grid: gridWithTimes, a: afternoon, b: periods12, want: false},
		{name: "range vs periods without mapping is conservative", grid: gridNoTimes, a: afternoon, b: periods12, want: true},
		{name: "range vs periods nil grid is conservative", grid: nil, a: afternoon, b: periods12, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := timesOverlap(tt.grid, tt.a, tt.b); got != tt.want {
				t.Errorf("timesOverlap() = %v, want %v", got, tt.want)
			}
			if got := timesOverlap(tt.grid, tt.b, tt.a); got != tt.want {
				t.Errorf("timesOverlap() reversed = %v, want %v", got, tt.want)
			}
		})
	}
}
