package domain

// AssetLifecycle describes when an asset identifier is valid. Supplied by
// the asset-identity collaborator; the engine only checks existence.
type AssetLifecycle struct {
	AssetID   string
	Symbol    string
	StartDate Date
	EndDate   Date
}

// Covers reports whether the asset existed on the given day.
func (a *AssetLifecycle) Covers(d Date) bool {
	return d >= a.StartDate && d <= a.EndDate
}

// TradingDay is one business day of a named calendar, as supplied by the
// calendar service's backing store.
type TradingDay struct {
	CalendarID string
	Day        Date
}
