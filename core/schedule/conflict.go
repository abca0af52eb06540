package schedule

import (
	"fmt"
	"sort"
)

// Severity of a conflict report.
type Severity string

const (
	SeverityError Severity = "error" // at least one of the two blocks is hard
	SeverityInfo  Severity = "info"  // two soft blocks; advisory only
)

// ConflictReport describes one occurrence-level collision between a candidate
// block and an existing block.
type ConflictReport struct {
	Date      Date      `json:"date"`
	BlockID   string    `json:"block_id"`
	BlockName string    `json:"block_name"`
	BlockType BlockType `json:"block_type"`
	Strength  Strength  `json:"strength"`
	Severity  Severity  `json:"severity"`
	Detail    string    `json:"detail"`
}

// BlockWithLineage pairs a block with its resolved scope lineage.
type BlockWithLineage struct {
	Block
	Lineage Lineage
}

// FindConflicts reports every occurrence of the candidate block colliding
// with an existing active block of overlapping scope. It never rejects
// anything: even hard conflicts are surfaced for the caller to decide on.
// Reports are ordered by occurrence date ascending, then by the other
// block's name ascending.
func FindConflicts(grid *CalendarGrid, candidate Block, candLineage Lineage, existing []BlockWithLineage) []ConflictReport {
	candDates := OccurrenceDates(candidate)
	if len(candDates) == 0 {
		return nil
	}

	var reports []ConflictReport
	for _, other := range existing {
		if !other.IsActive || other.ID == candidate.ID {
			continue
		}
		if !candLineage.Overlaps(other.Lineage) {
			continue
		}

		severity := SeverityInfo
		if candidate.Strength == StrengthHard || other.Strength == StrengthHard {
			severity = SeverityError
		}

		for _, date := range candDates {
			if !CoversDate(other.Block, date) {
				continue
			}
			if !timesOverlap(grid, candidate, other.Block) {
				continue
			}
			reports = append(reports, ConflictReport{
				Date:      date,
				BlockID:   other.ID,
				BlockName: other.Name,
				BlockType: other.BlockType,
				Strength:  other.Strength,
				Severity:  severity,
				Detail:    conflictDetail(candidate, other.Block),
			})
		}
	}

	sort.SliceStable(reports, func(i, j int) bool {
		if !reports[i].Date.Equal(reports[j].Date) {
			return reports[i].Date.Before(reports[j].Date)
		}
		return reports[i].BlockName < reports[j].BlockName
	})
	return reports
}

func conflictDetail(candidate, other Block) string {
	describe := func(b Block) string {
		switch b.TimeType {
		case TimeFullDay:
			return "the full day"
		case TimeRangeType:
			if b.TimeRange == nil {
				return "an unspecified time range"
			}
			return fmt.Sprintf("%s to %s", b.TimeRange.StartTime, b.TimeRange.EndTime)
		case TimePeriods:
			return fmt.Sprintf("periods %v", b.Periods)
		}
		return ""
	}
	return fmt.Sprintf("%s collides with %q occupying %s", describe(candidate), other.Name, describe(other))
}
