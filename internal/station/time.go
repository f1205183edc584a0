/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package station resolves the broadcasting station's wall-clock view of
// time. Slots are stored as UTC instants; everything that cares about
// "9 AM every Monday" goes through here so DST transitions shift the UTC
// representation, never the wall clock.
package station

import "time"

// Signature identifies a weekly recurring series by its station-local
// (day-of-week, hour, minute). Matching on UTC components instead would
// break twice a year when the UTC offset changes.
type Signature struct {
	Weekday time.Weekday
	Hour    int
	Minute  int
}

// SignatureOf extracts the series signature of an instant in loc.
func SignatureOf(t time.Time, loc *time.Location) Signature {
	lt := t.In(loc)
	return Signature{Weekday: lt.Weekday(), Hour: lt.Hour(), Minute: lt.Minute()}
}

// WallClock returns the instant rendered in the station zone.
func WallClock(t time.Time, loc *time.Location) time.Time {
	return t.In(loc)
}

// AddWeeks advances an instant by whole calendar weeks in loc, preserving
// the wall-clock components. The result is the same weekday at the same
// local time n weeks later; the absolute spacing is 7 days ± the DST
// offset change, never blindly 7*24h.
func AddWeeks(t time.Time, weeks int, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day()+7*weeks,
		lt.Hour(), lt.Minute(), lt.Second(), lt.Nanosecond(), loc).UTC()
}

// NextMidnight returns the first station-local 00:00:00 strictly after t.
func NextMidnight(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day()+1, 0, 0, 0, 0, loc).UTC()
}

// CrossesMidnight reports whether the interval [start, end) spans a
// station-local date boundary. An interval ending exactly at local
// midnight stays on one calendar date under half-open semantics.
func CrossesMidnight(start, end time.Time, loc *time.Location) bool {
	return NextMidnight(start, loc).Before(end)
}
