package domain

import "math"

// Direction selects which side of the evaluation date a resolution targets.
type Direction string

// Direction constants.
const (
	DirectionPrevious Direction = "previous"
	DirectionNext     Direction = "next"
)

// ResolvedCell is the outcome of resolving one (asset, evaluation date,
// direction, event-date field) query. A nil EventDate means no qualifying
// record existed as of the evaluation date; that is a normal outcome, not
// an error.
type ResolvedCell struct {
	EvaluationDate Date
	AssetID        string
	Direction      Direction
	EventDate      *Date        // nil = null cell
	Record         *EventRecord // winning record, nil = null cell
}

// IsNull reports whether no qualifying record was found.
func (c ResolvedCell) IsNull() bool {
	return c.EventDate == nil
}

// Value projects a payload field out of the winning record.
// Returns NaN for null cells and for absent payload fields.
func (c ResolvedCell) Value(payloadField string) float64 {
	if c.Record == nil {
		return math.NaN()
	}
	v, ok := c.Record.Payload[payloadField]
	if !ok {
		return math.NaN()
	}
	return v
}

// ColumnOutput selects what a materialized column projects out of each
// resolved cell.
type ColumnOutput string

// ColumnOutput constants.
const (
	OutputEventDate    ColumnOutput = "event_date"
	OutputPayload      ColumnOutput = "payload"
	OutputBusinessDays ColumnOutput = "business_days"
)

// ColumnSpec is the (direction, event-date field, output) triple describing
// one logical column. PayloadField is set only for OutputPayload.
type ColumnSpec struct {
	Direction    Direction
	EventField   string
	Output       ColumnOutput
	PayloadField string
}

// ResolvedColumnCell is one materialized cell flattened for analytic
// storage. Exactly one of EventDate / Value carries the projection,
// depending on the column's output kind; Value is NaN for null cells.
type ResolvedColumnCell struct {
	Dataset    string
	ColumnName string
	AsOfDate   Date
	AssetID    string
	EventDate  *Date
	Value      float64
}
