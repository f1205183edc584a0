/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import (
	"time"

	"github.com/google/uuid"

	"github.com/friendsincode/huginn_radio/internal/models"
	"github.com/friendsincode/huginn_radio/internal/station"
)

// SeriesLength is the number of weekly occurrences materialized per
// recurring batch, for the initial creation and for each extension.
const SeriesLength = 52

func newSeriesID() string { return uuid.NewString() }

// window is one candidate calendar interval before persistence.
// index is the zero-based week offset within its series.
type window struct {
	start time.Time
	end   time.Time
	index int
}

// weeklyWindows expands an anchor interval into count weekly windows in
// the station zone. Week arithmetic is done on local calendar fields so
// every window keeps the anchor's wall-clock start and end; across a DST
// transition the UTC instants shift while the local times hold.
// offsetStart is the week distance of the first window from the anchor:
// 0 when the anchor itself opens the batch, 1 when appending past it.
// indexStart is the series index recorded on that first window; it is
// independent of the offset because an extension anchors on the latest
// occurrence, not on the series origin.
func weeklyWindows(anchorStart, anchorEnd time.Time, count, offsetStart, indexStart int, loc *time.Location) []window {
	windows := make([]window, 0, count)
	for i := 0; i < count; i++ {
		windows = append(windows, window{
			start: station.AddWeeks(anchorStart, offsetStart+i, loc),
			end:   station.AddWeeks(anchorEnd, offsetStart+i, loc),
			index: indexStart + i,
		})
	}
	return windows
}

// materialize turns a candidate window into persistable slot rows. A
// window spanning a station-local midnight becomes a split pair: two
// contiguous half-open slots sharing a fresh group id, covering the
// window with no gap. Otherwise it becomes a single slot.
func materialize(w window, showID string, sourceURL, seriesID *string, recurring bool, loc *time.Location) []models.ScheduleSlot {
	base := models.ScheduleSlot{
		ShowID:          showID,
		IsRecurring:     recurring,
		SourceURL:       sourceURL,
		SeriesID:        seriesID,
		OccurrenceIndex: w.index,
	}

	if !station.CrossesMidnight(w.start, w.end, loc) {
		slot := base
		slot.ID = uuid.NewString()
		slot.StartTime = w.start
		slot.EndTime = w.end
		return []models.ScheduleSlot{slot}
	}

	midnight := station.NextMidnight(w.start, loc)
	groupID := uuid.NewString()
	firstPos, secondPos := models.SplitFirst, models.SplitSecond

	first := base
	first.ID = uuid.NewString()
	first.StartTime = w.start
	first.EndTime = midnight
	first.SplitGroupID = &groupID
	first.SplitPosition = &firstPos

	second := base
	second.ID = uuid.NewString()
	second.StartTime = midnight
	second.EndTime = w.end
	second.SplitGroupID = &groupID
	second.SplitPosition = &secondPos

	return []models.ScheduleSlot{first, second}
}
