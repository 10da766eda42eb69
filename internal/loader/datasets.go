package loader

import "equity-events-lab/internal/domain"

// Field names shared by the built-in datasets.
const (
	FieldExDate       = "ex_date"
	FieldPayDate      = "pay_date"
	FieldAnnouncement = "announcement_date"
	FieldCashAmount   = "cash_amount"
)

// Logical column names of the cash dividends dataset.
const (
	ColNextExDate       = "NEXT_EX_DATE"
	ColPreviousExDate   = "PREVIOUS_EX_DATE"
	ColNextPayDate      = "NEXT_PAY_DATE"
	ColPreviousPayDate  = "PREVIOUS_PAY_DATE"
	ColNextAmount       = "NEXT_AMOUNT"
	ColPreviousAmount   = "PREVIOUS_AMOUNT"
	ColPreviousAnnounce = "PREVIOUS_ANNOUNCEMENT"

	ColDaysSincePrevAnnouncement = "DAYS_SINCE_PREV_DIVIDEND_ANNOUNCEMENT"
	ColDaysToNextExDate          = "DAYS_TO_NEXT_EX_DATE"
	ColDaysSincePrevExDate       = "DAYS_SINCE_PREV_EX_DATE"
)

// Logical column names of the earnings dataset.
const (
	ColNextEarnings     = "NEXT_ANNOUNCEMENT"
	ColPreviousEarnings = "PREVIOUS_ANNOUNCEMENT"

	ColDaysToNextEarnings    = "DAYS_TO_NEXT_ANNOUNCEMENT"
	ColDaysSincePrevEarnings = "DAYS_SINCE_PREV_ANNOUNCEMENT"
)

// CashDividends describes the cash dividends dataset. The announcement date
// doubles as the knowledge date: a dividend becomes knowable the day it is
// announced. Amounts ride with the ex-date resolution.
func CashDividends() DatasetConfig {
	return DatasetConfig{
		Name:           "cash_dividends",
		KnowledgeField: FieldAnnouncement,
		EventFields:    []string{FieldExDate, FieldPayDate, FieldAnnouncement},
		PayloadFields:  []string{FieldCashAmount},
		Columns: map[string]domain.ColumnSpec{
			ColNextExDate: {
				Direction:  domain.DirectionNext,
				EventField: FieldExDate,
				Output:     domain.OutputEventDate,
			},
			ColPreviousExDate: {
				Direction:  domain.DirectionPrevious,
				EventField: FieldExDate,
				Output:     domain.OutputEventDate,
			},
			ColNextPayDate: {
				Direction:  domain.DirectionNext,
				EventField: FieldPayDate,
				Output:     domain.OutputEventDate,
			},
			ColPreviousPayDate: {
				Direction:  domain.DirectionPrevious,
				EventField: FieldPayDate,
				Output:     domain.OutputEventDate,
			},
			ColNextAmount: {
				Direction:    domain.DirectionNext,
				EventField:   FieldExDate,
				Output:       domain.OutputPayload,
				PayloadField: FieldCashAmount,
			},
			ColPreviousAmount: {
				Direction:    domain.DirectionPrevious,
				EventField:   FieldExDate,
				Output:       domain.OutputPayload,
				PayloadField: FieldCashAmount,
			},
			ColPreviousAnnounce: {
				Direction:  domain.DirectionPrevious,
				EventField: FieldAnnouncement,
				Output:     domain.OutputEventDate,
			},
			ColDaysSincePrevAnnouncement: {
				Direction:  domain.DirectionPrevious,
				EventField: FieldAnnouncement,
				Output:     domain.OutputBusinessDays,
			},
			ColDaysToNextExDate: {
				Direction:  domain.DirectionNext,
				EventField: FieldExDate,
				Output:     domain.OutputBusinessDays,
			},
			ColDaysSincePrevExDate: {
				Direction:  domain.DirectionPrevious,
				EventField: FieldExDate,
				Output:     domain.OutputBusinessDays,
			},
		},
	}
}

// Earnings describes the earnings announcement dataset. Records carry a
// dedicated knowledge date, since estimated announcement dates circulate
// before the announcement itself.
func Earnings() DatasetConfig {
	return DatasetConfig{
		Name:        "earnings",
		EventFields: []string{FieldAnnouncement},
		Columns: map[string]domain.ColumnSpec{
			ColNextEarnings: {
				Direction:  domain.DirectionNext,
				EventField: FieldAnnouncement,
				Output:     domain.OutputEventDate,
			},
			ColPreviousEarnings: {
				Direction:  domain.DirectionPrevious,
				EventField: FieldAnnouncement,
				Output:     domain.OutputEventDate,
			},
			ColDaysToNextEarnings: {
				Direction:  domain.DirectionNext,
				EventField: FieldAnnouncement,
				Output:     domain.OutputBusinessDays,
			},
			ColDaysSincePrevEarnings: {
				Direction:  domain.DirectionPrevious,
				EventField: FieldAnnouncement,
				Output:     domain.OutputBusinessDays,
			},
		},
	}
}
