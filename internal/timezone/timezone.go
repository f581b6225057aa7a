// Package timezone resolves the per-request display timezone and applies
// temporal filters to createdAt values in that timezone.
//
// Clients send their UTC offset in minutes through the "timezone" cookie.
// The offset is mapped to a named IANA zone so that DST transitions are
// honored when timestamps are converted. An offset with no matching zone
// falls back to America/New_York.
package timezone

import (
	"context"
	"time"
)

// CookieName is the request cookie carrying the client's UTC offset in
// minutes east of UTC.
const CookieName = "timezone"

// FallbackZone is used when the offset matches no known zone or a zone
// fails to load.
const FallbackZone = "America/New_York"

// candidateZones covers the inhabited UTC offsets, including the half-hour
// and 45-minute zones. Ordering matters only for tie-breaking; the first
// zone whose current offset matches wins.
var candidateZones = []string{
	"Pacific/Midway",
	"Pacific/Honolulu",
	"Pacific/Marquesas",
	"America/Anchorage",
	"America/Los_Angeles",
	"America/Denver",
	"America/Phoenix",
	"America/Chicago",
	"America/New_York",
	"America/Caracas",
	"America/Halifax",
	"America/St_Johns",
	"America/Sao_Paulo",
	"America/Noronha",
	"Atlantic/Cape_Verde",
	"Atlantic/Azores",
	"UTC",
	"Europe/London",
	"Europe/Paris",
	"Europe/Berlin",
	"Europe/Athens",
	"Africa/Cairo",
	"Europe/Moscow",
	"Asia/Tehran",
	"Asia/Dubai",
	"Asia/Kabul",
	"Asia/Karachi",
	"Asia/Kolkata",
	"Asia/Kathmandu",
	"Asia/Dhaka",
	"Asia/Yangon",
	"Asia/Bangkok",
	"Asia/Shanghai",
	"Australia/Eucla",
	"Asia/Tokyo",
	"Australia/Adelaide",
	"Australia/Sydney",
	"Australia/Lord_Howe",
	"Pacific/Guadalcanal",
	"Pacific/Auckland",
	"Pacific/Chatham",
	"Pacific/Tongatapu",
	"Pacific/Kiritimati",
}

// ResolveLocation maps a UTC offset in minutes east of UTC to a named zone
// whose current offset matches. Falls back to America/New_York when no
// candidate matches.
func ResolveLocation(offsetMinutes int) *time.Location {
	return resolveLocationAt(offsetMinutes, time.Now())
}

func resolveLocationAt(offsetMinutes int, now time.Time) *time.Location {
	wantSeconds := offsetMinutes * 60
	for _, name := range candidateZones {
		loc, err := time.LoadLocation(name)
		if err != nil {
			continue
		}
		if _, off := now.In(loc).Zone(); off == wantSeconds {
			return loc
		}
	}
	loc, err := time.LoadLocation(FallbackZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type contextKey struct{}

// WithLocation stores the request's display timezone in the context.
func WithLocation(ctx context.Context, loc *time.Location) context.Context {
	return context.WithValue(ctx, contextKey{}, loc)
}

// FromContext returns the request's display timezone, or the fallback zone
// when none was resolved.
func FromContext(ctx context.Context) *time.Location {
	if loc, ok := ctx.Value(contextKey{}).(*time.Location); ok && loc != nil {
		return loc
	}
	loc, err := time.LoadLocation(FallbackZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
