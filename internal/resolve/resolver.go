// Package resolve implements the knowledge-cutoff resolver: for one asset
// timeline and one evaluation date, find the previous and next event without
// using any record that was not yet knowable on that date.
package resolve

import (
	"equity-events-lab/internal/domain"
)

// Resolve returns the previous and next event cells for the given evaluation
// date and event-date field. Both directions share the same knowledge cutoff
// (knowledge_date <= evaluation date) and differ only in how the record's
// event date compares to the evaluation date. Never errors: an empty
// knowable set, or no candidate on a side, yields a null cell.
//
// Pure and side-effect free; safe to call concurrently and in any date order.
func Resolve(tl *domain.Timeline, evalDate domain.Date, eventField string) (prev, next domain.ResolvedCell) {
	prev = Direction(tl, evalDate, eventField, domain.DirectionPrevious)
	next = Direction(tl, evalDate, eventField, domain.DirectionNext)
	return prev, next
}

// Direction resolves a single side. The two sides are one parameterized
// algorithm so the tie-break rule cannot drift between them.
//
// Selection within the knowable set:
//   - previous: greatest event date <= evalDate
//   - next:     smallest event date >  evalDate
//
// Ties on the winning event date prefer the latest knowledge date, then the
// latest timeline position ("the newest report about the same calendar event
// supersedes older ones"). Records whose value for eventField is nil are
// skipped for this field but remain eligible for other fields.
func Direction(tl *domain.Timeline, evalDate domain.Date, eventField string, dir domain.Direction) domain.ResolvedCell {
	cell := domain.ResolvedCell{
		EvaluationDate: evalDate,
		Direction:      dir,
	}
	if tl != nil {
		cell.AssetID = tl.AssetID
	}
	if tl.Len() == 0 {
		return cell
	}

	// Timelines are sorted by knowledge date ascending, so scanning in order
	// and accepting >= / <= on equal event dates leaves the record with the
	// latest knowledge date — and among equal knowledge dates the latest
	// timeline position — as the winner.
	for _, r := range tl.Records {
		if r.KnowledgeDate > evalDate {
			break // everything after this is not yet knowable
		}
		ed, ok := r.EventDates[eventField]
		if !ok || ed == nil {
			continue
		}

		switch dir {
		case domain.DirectionPrevious:
			if *ed > evalDate {
				continue
			}
			if cell.EventDate == nil || *ed >= *cell.EventDate {
				d := *ed
				cell.EventDate = &d
				cell.Record = r
			}
		case domain.DirectionNext:
			if *ed <= evalDate {
				continue
			}
			if cell.EventDate == nil || *ed <= *cell.EventDate {
				d := *ed
				cell.EventDate = &d
				cell.Record = r
			}
		}
	}

	return cell
}
