package schedule

import "testing"

func TestFindConflicts(t *testing.T) {
	// lineages under one institution
	classLineage := Lineage{"inst1", "course1", "class1"}
	batchLineage := Lineage{"inst1", "course1", "class1", "batch1"}
	otherClassLineage := Lineage{"inst1", "course1", "class2"}

	saturday := NewDate(2025, 1, 4)

	candidate := Block{
		ID:        "cand",
		Name:      "Mock Exams",
		BlockType: BlockExam,
		Strength:  StrengthHard,
		DateType:  DateFixed,
		Dates:     []Date{saturday},
		TimeType:  TimeFullDay,
		IsActive:  true,
	}

	existing := func(id, name string, strength Strength, lineage Lineage, active bool) BlockWithLineage {
		return BlockWithLineage{
			Block: Block{
				ID:        id,
				Name:      name,
				BlockType: BlockInternalTest,
				Strength:  strength,
				DateType:  DateFixed,
				Dates:     []Date{saturday},
				TimeType:  TimeFullDay,
				IsActive:  active,
			},
			Lineage: lineage,
		}
	}

	t.Run("hard on hard is one error report", func(t *testing.T) {
		reports := FindConflicts(nil, candidate, classLineage,
			[]BlockWithLineage{existing("b1", "Unit Test", StrengthHard, batchLineage, true)})
		if len(reports) != 1 {
			t.Fatalf("FindConflicts() returned %d reports, want 1", len(reports))
		}
		r := reports[0]
		if r.Severity != SeverityError {
			t.Errorf("Severity = %q, want %q", r.Severity, SeverityError)
		}
		if r.BlockID != "b1" || !r.Date.Equal(saturday) {
			t.Errorf("unexpected report %+v", r)
		}
	})

	t.Run("soft on soft is informational", func(t *testing.T) {
		soft := candidate
		soft.Strength = StrengthSoft
		reports := FindConflicts(nil, soft, classLineage,
			[]BlockWithLineage{existing("b1", "Unit Test", StrengthSoft, batchLineage, true)})
		if len(reports) != 1 {
			t.Fatalf("FindConflicts() returned %d reports, want 1", len(reports))
		}
		if reports[0].Severity != SeverityInfo {
			t.Errorf("Severity = %q, want %q", reports[0].Severity, SeverityInfo)
		}
	})

	t.Run("one hard side is enough for an error", func(t *testing.T) {
		soft := candidate
		soft.Strength = StrengthSoft
		reports := FindConflicts(nil, soft, classLineage,
			[]BlockWithLineage{existing("b1", "Unit Test", StrengthHard, batchLineage, true)})
		if len(reports) != 1 || reports[0].Severity != SeverityError {
			t.Errorf("FindConflicts() = %+v, want one error report", reports)
		}
	})

	t.Run("sibling scopes never conflict", func(t *testing.T) {
		reports := FindConflicts(nil, candidate, classLineage,
			[]BlockWithLineage{existing("b1", "Unit Test", StrengthHard, otherClassLineage, true)})
		if len(reports) != 0 {
			t.Errorf("FindConflicts() = %+v, want none", reports)
		}
	})

	t.Run("inactive blocks are ignored", func(t *testing.T) {
		reports := FindConflicts(nil, candidate, classLineage,
			[]BlockWithLineage{existing("b1", "Unit Test", StrengthHard, batchLineage, false)})
		if len(reports) != 0 {
			t.Errorf("FindConflicts() = %+v, want none", reports)
		}
	})

	t.Run("self is ignored", func(t *testing.T) {
		self := BlockWithLineage{Block: candidate, Lineage: classLineage}
		reports := FindConflicts(nil, candidate, classLineage, []BlockWithLineage{self})
		if len(reports) != 0 {
			t.Errorf("FindConflicts() = %+v, want none", reports)
		}
	})

	t.Run("reports sorted by date then name", func(t *testing.T) {
		recurring := Block{
			ID:        "cand",
			Name:      "Revision",
			BlockType: BlockOther,
			Strength:  StrengthSoft,
			DateType:  DateRecurring,
			Recurrence: &Recurrence{
				DayOfWeek: Saturday,
				StartDate: NewDate(2025, 1, 1),
				EndDate:   NewDate(2025, 1, 14),
			},
			TimeType: TimeFullDay,
			IsActive: true,
		}
		others := []BlockWithLineage{
			existing("b2", "Zed Test", StrengthSoft, batchLineage, true),
			existing("b1", "Alpha Test", StrengthSoft, batchLineage, true),
		}
		// both existing blocks also cover Jan 11
		for i := range others {
			others[i].Dates = append(others[i].Dates, NewDate(2025, 1, 11))
		}

		reports := FindConflicts(nil, recurring, classLineage, others)
		if len(reports) != 4 {
			t.Fatalf("FindConflicts() returned %d reports, want 4", len(reports))
		}
		wantOrder := []struct {
			date Date
			name string
		}{
			{NewDate(2025, 1, 4), "Alpha Test"},
			{NewDate(2025, 1, 4), "Zed Test"},
			{NewDate(2025, 1, 11), "Alpha Test"},
			{NewDate(2025, 1, 11), "Zed Test"},
		}
		for i, want := range wantOrder {
			if !reports[i].Date.Equal(want.date) || reports[i].BlockName != want.name {
				t.Errorf("reports[%d] = (%s, %q), want (%s, %q)",
					i, reports[i].Date, reports[i].BlockName, want.date, want.name)
			}
		}
	})

	t.Run("disjoint times do not conflict", func(t *testing.T) {
		ranged := candidate
		ranged.TimeType = TimeRangeType
		ranged.TimeRange = &TimeRange{"08:00", "10:00"}
		other := existing("b1", "Afternoon Workshop", StrengthHard, batchLineage, true)
		other.TimeType = TimeRangeType
		other.TimeRange = &TimeRange{"14:00", "16:00"}

		reports := FindConflicts(nil, ranged, classLineage, []BlockWithLineage{other})
		if len(reports) != 0 {
			t.Errorf("FindConflicts() = %+v, want none", reports)
		}
	})
}
