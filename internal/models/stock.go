package models

// StockEntry is the availability of a single item code at snapshot time.
type StockEntry struct {
	InStock bool    `json:"in_stock"`
	Price   float64 `json:"price,omitempty"`
}

// StockSnapshot is a point-in-time view of menu availability, keyed by
// category and item code. Snapshots are always fetched fresh before a
// mutation or submission decision and never persisted.
type StockSnapshot struct {
	// FetchedAt is the Unix timestamp the snapshot was taken.
	FetchedAt int64

	// Categories maps category name -> item code -> entry.
	Categories map[string]map[string]StockEntry
}

// Available reports whether the given code exists and is in stock within the
// category. Codes missing from the snapshot count as unavailable.
func (s *StockSnapshot) Available(category, code string) bool {
	if s == nil {
		return false
	}
	entry, ok := s.Categories[category][code]
	return ok && entry.InStock
}
