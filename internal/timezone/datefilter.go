package timezone

import "time"

// DateFilter narrows rows by their createdAt timestamp as seen in the
// request's display timezone. Bounds are interpreted as wall-clock values
// in that timezone, so the same query can return different rows for
// clients in different zones.
type DateFilter struct {
	Gte   *time.Time
	Lte   *time.Time
	Month *int // 1 through 12
	Year  *int
}

// IsZero reports whether the filter constrains anything.
func (f DateFilter) IsZero() bool {
	return f.Gte == nil && f.Lte == nil && f.Month == nil && f.Year == nil
}

// Matches reports whether createdAt satisfies the filter in the given zone.
func (f DateFilter) Matches(createdAt time.Time, loc *time.Location) bool {
	local := createdAt.In(loc)
	if f.Month != nil && int(local.Month()) != *f.Month {
		return false
	}
	if f.Year != nil && local.Year() != *f.Year {
		return false
	}
	if f.Gte != nil && local.Before(rebase(*f.Gte, loc)) {
		return false
	}
	if f.Lte != nil && local.After(rebase(*f.Lte, loc)) {
		return false
	}
	return true
}

// rebase reinterprets the bound's wall-clock fields in the display zone.
// A client asking for gte 2024-03-01T00:00:00 means midnight in their own
// zone regardless of the offset the literal was parsed with.
func rebase(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}
