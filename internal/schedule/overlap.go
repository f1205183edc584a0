/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/friendsincode/huginn_radio/internal/models"
)

// findOverlap returns the earliest existing slot whose [start, end)
// interval intersects the candidate window, or nil when the window is
// free. Intervals are half-open, so back-to-back slots sharing a
// boundary instant do not collide. excludeIDs removes slots being
// updated (and their split siblings) from consideration.
func findOverlap(tx *gorm.DB, start, end time.Time, excludeIDs ...string) (*models.ScheduleSlot, error) {
	query := tx.Preload("Show").
		Where("start_time < ? AND end_time > ?", end, start).
		Order("start_time ASC")
	if len(excludeIDs) > 0 {
		query = query.Where("id NOT IN ?", excludeIDs)
	}

	var slot models.ScheduleSlot
	if err := query.First(&slot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &slot, nil
}

// findOverlapOutsideShow is the extension-job variant: a show's own
// occurrences never block its extension, only other programming does.
func findOverlapOutsideShow(tx *gorm.DB, showID string, start, end time.Time) (*models.ScheduleSlot, error) {
	var slot models.ScheduleSlot
	err := tx.Preload("Show").
		Where("show_id <> ?", showID).
		Where("start_time < ? AND end_time > ?", end, start).
		Order("start_time ASC").
		First(&slot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &slot, nil
}

// overlapsStaged checks a candidate against batch slots not yet written
// to the database. Weekly spacing shrinks to 7d minus 1h across a
// spring DST transition, so near-week durations can collide with the
// previous occurrence before anything is persisted; the database check
// alone never sees those rows.
func overlapsStaged(staged []models.ScheduleSlot, start, end time.Time) *models.ScheduleSlot {
	for i := range staged {
		if staged[i].StartTime.Before(end) && staged[i].EndTime.After(start) {
			return &staged[i]
		}
	}
	return nil
}

func conflictFrom(existing *models.ScheduleSlot, occurrence int, start, end time.Time) error {
	title := ""
	if existing.Show != nil {
		title = existing.Show.Title
	}
	return &ConflictError{
		Occurrence: occurrence,
		ShowTitle:  title,
		Start:      start,
		End:        end,
	}
}
