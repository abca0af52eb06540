package schedule

import (
	"reflect"
	"testing"
)

func TestProjectWeek(t *testing.T) {
	grid := CalendarGrid{
		WorkingDays:   []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday},
		PeriodsPerDay: 4,
		Breaks:        []Break{{ID: "b1", Name: "Lunch", AfterPeriod: 2, DurationMinutes: 45}},
	}
	scope := Scope{Type: ScopeClass, ID: "class1"}
	lineage := Lineage{"inst1", "course1", "class1"}
	weekStart := NewDate(2025, 1, 6) // a monday

	blocks := []BlockWithLineage{
		{
			Block: Block{
				ID:        "blk1",
				Name:      "CAT 1",
				BlockType: BlockInternalTest,
				Strength:  StrengthHard,
				DateType:  DateFixed,
				Dates:     []Date{NewDate(2025, 1, 7)}, // tuesday
				TimeType:  TimePeriods,
				Periods:   []int{2, 3},
				IsActive:  true,
			},
			Lineage: lineage,
		},
	}

	view := ProjectWeek(grid, blocks, scope, lineage, weekStart)

	if len(view.Days) != 7 {
		t.Fatalf("len(Days) = %d, want 7", len(view.Days))
	}
	if !view.WeekStart.Equal(weekStart) || view.Scope != scope {
		t.Errorf("unexpected view header %+v", view)
	}

	// saturday is not a working day here, sunday never is
	for _, i := range []int{5, 6} {
		day := view.Days[i]
		if day.Working || day.Slots != nil {
			t.Errorf("Days[%d] (%s) = working %v with %d slots, want holiday", i, day.DayOfWeek, day.Working, len(day.Slots))
		}
	}

	monday := view.Days[0]
	if !monday.Working {
		t.Fatal("monday should be a working day")
	}
	// 4 periods + 1 break
	if len(monday.Slots) != 5 {
		t.Fatalf("monday has %d slots, want 5", len(monday.Slots))
	}
	if monday.Slots[2].Kind != SlotBreak || monday.Slots[2].Break.Name != "Lunch" {
		t.Errorf("Slots[2] = %+v, want the lunch break after period 2", monday.Slots[2])
	}
	for _, s := range monday.Slots {
		if s.Kind == SlotPeriod && s.Status != SlotFree {
			t.Errorf("monday period %d = %q, want free", s.Period, s.Status)
		}
	}

	tuesday := view.Days[1]
	occupied := map[int]bool{}
	for _, s := range tuesday.Slots {
		if s.Kind != SlotPeriod {
			continue
		}
		if s.Status == SlotOccupied {
			occupied[s.Period] = true
			if len(s.Blocks) != 1 || s.Blocks[0].ID != "blk1" {
				t.Errorf("tuesday period %d blocks = %+v", s.Period, s.Blocks)
			}
		}
	}
	if !occupied[2] || !occupied[3] || occupied[1] || occupied[4] {
		t.Errorf("tuesday occupancy = %v, want periods 2 and 3 only", occupied)
	}

	// projection is pure
	again := ProjectWeek(grid, blocks, scope, lineage, weekStart)
	if !reflect.DeepEqual(view, again) {
		t.Error("ProjectWeek() is not deterministic for identical inputs")
	}
}

func TestProjectWeekScopeFiltering(t *testing.T) {
	grid := CalendarGrid{
		WorkingDays:   []Weekday{Monday},
		PeriodsPerDay: 4,
	}
	weekStart := NewDate(2025, 1, 6)
	classLineage := Lineage{"inst1", "course1", "class1"}

	blocks := []BlockWithLineage{
		{
			Block: Block{
				ID: "inst-wide", Name: "Sports Day", BlockType: BlockOther, Strength: StrengthSoft,
				DateType: DateFixed, Dates: []Date{weekStart}, TimeType: TimeFullDay, IsActive: true,
			},
			Lineage: Lineage{"inst1"},
		},
		{
			Block: Block{
				ID: "other-class", Name: "Their Exam", BlockType: BlockExam, Strength: StrengthHard,
				DateType: DateFixed, Dates: []Date{weekStart}, TimeType: TimeFullDay, IsActive: true,
			},
			Lineage: Lineage{"inst1", "course1", "class2"},
		},
		{
			Block: Block{
				ID: "inactive", Name: "Old Exam", BlockType: BlockExam, Strength: StrengthHard,
				DateType: DateFixed, Dates: []Date{weekStart}, TimeType: TimeFullDay, IsActive: false,
			},
			Lineage: classLineage,
		},
	}

	view := ProjectWeek(grid, blocks, Scope{Type: ScopeClass, ID: "class1"}, classLineage, weekStart)

	monday := view.Days[0]
	for _, s := range monday.Slots {
		if s.Kind != SlotPeriod {
			continue
		}
		if len(s.Blocks) != 1 || s.Blocks[0].ID != "inst-wide" {
			t.Errorf("period %d blocks = %+v, want only the institution-wide block", s.Period, s.Blocks)
		}
	}
}
