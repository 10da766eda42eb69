// Package eventstore normalizes raw event records into per-asset,
// knowledge-date-ordered timelines for one resolution pass.
package eventstore

import (
	"errors"
	"fmt"
	"sort"

	"equity-events-lab/internal/domain"
)

// ErrMalformedRecord is returned by Build when a record lacks a declared
// event-date field entirely. A present field with a nil date is legitimate
// ("event not yet known") and does not trigger this error.
var ErrMalformedRecord = errors.New("malformed event record")

// Store holds the immutable per-asset timelines of one resolution pass.
type Store struct {
	timelines map[string]*domain.Timeline
}

// Build partitions records by asset and sorts each partition by knowledge
// date ascending. The sort is stable: records sharing a knowledge date keep
// their input order, which the resolver uses as the final tie-break.
// Every record must carry a key for each required event-date field.
func Build(records []*domain.EventRecord, requiredEventFields []string) (*Store, error) {
	timelines := make(map[string]*domain.Timeline)

	for _, r := range records {
		if r == nil || r.AssetID == "" {
			return nil, fmt.Errorf("%w: nil record or empty asset id", ErrMalformedRecord)
		}
		for _, field := range requiredEventFields {
			if _, ok := r.EventDates[field]; !ok {
				return nil, fmt.Errorf("%w: asset %s record %s lacks field %q",
					ErrMalformedRecord, r.AssetID, r.RecordID, field)
			}
		}

		tl, ok := timelines[r.AssetID]
		if !ok {
			tl = &domain.Timeline{AssetID: r.AssetID}
			timelines[r.AssetID] = tl
		}
		tl.Records = append(tl.Records, r)
	}

	for _, tl := range timelines {
		records := tl.Records
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].KnowledgeDate < records[j].KnowledgeDate
		})
	}

	return &Store{timelines: timelines}, nil
}

// Timeline returns the timeline for an asset, or nil when the asset had no
// records. Callers treat absence as all-null resolution.
func (s *Store) Timeline(assetID string) *domain.Timeline {
	return s.timelines[assetID]
}

// Assets returns the distinct asset ids seen in the input, sorted.
func (s *Store) Assets() []string {
	out := make([]string, 0, len(s.timelines))
	for id := range s.timelines {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
