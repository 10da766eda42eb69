package domain

// EventRecord is one normalized row of a financial event dataset.
// The record became knowable on KnowledgeDate; each named event-date field
// describes when the real-world event occurs (possibly before or after the
// knowledge date, possibly not yet known).
type EventRecord struct {
	RecordID      string             // deterministic dedup key, see idhash
	Dataset       string             // owning dataset, e.g. "cash_dividends"
	AssetID       string             // internal asset identifier
	KnowledgeDate Date               // when this row became observable
	EventDates    map[string]*Date   // event-date field -> day; nil = not yet known
	Payload       map[string]float64 // riding scalar values, e.g. cash_amount
}

// EventDate returns the value of an event-date field. The second result is
// false when the field is absent from the record entirely, which is distinct
// from a present-but-nil "not yet known" value.
func (r *EventRecord) EventDate(field string) (*Date, bool) {
	d, ok := r.EventDates[field]
	return d, ok
}

// PayloadValue returns a payload scalar and whether it is present.
func (r *EventRecord) PayloadValue(field string) (float64, bool) {
	v, ok := r.Payload[field]
	return v, ok
}

// Clone returns a deep copy. Stores copy records on the way in and out so
// timelines stay immutable once built.
func (r *EventRecord) Clone() *EventRecord {
	cp := *r
	if r.EventDates != nil {
		cp.EventDates = make(map[string]*Date, len(r.EventDates))
		for k, v := range r.EventDates {
			if v != nil {
				d := *v
				cp.EventDates[k] = &d
			} else {
				cp.EventDates[k] = nil
			}
		}
	}
	if r.Payload != nil {
		cp.Payload = make(map[string]float64, len(r.Payload))
		for k, v := range r.Payload {
			cp.Payload[k] = v
		}
	}
	return &cp
}

// Timeline is the per-asset record sequence ordered by knowledge date
// ascending. Records sharing a knowledge date keep their input order; slice
// position is the tie-break of last resort during resolution.
// A Timeline is immutable once built.
type Timeline struct {
	AssetID string
	Records []*EventRecord
}

// Len returns the number of records.
func (t *Timeline) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}
