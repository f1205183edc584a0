/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/friendsincode/huginn_radio/internal/events"
	"github.com/friendsincode/huginn_radio/internal/models"
	"github.com/friendsincode/huginn_radio/internal/station"
	"github.com/friendsincode/huginn_radio/internal/telemetry"
)

// DeleteMode selects the deletion scope.
type DeleteMode string

const (
	// DeleteSingle removes only the targeted slot.
	DeleteSingle DeleteMode = "single"
	// DeleteThisAndFuture removes the targeted occurrence and every
	// later occurrence of the same weekly series for the same show.
	DeleteThisAndFuture DeleteMode = "this-and-future"
)

// DeleteOptions modifies DeleteSlot behavior. BothParts extends each
// removal to the split sibling, so a midnight-crossing occurrence goes
// away whole.
type DeleteOptions struct {
	Mode      DeleteMode
	BothParts bool
}

// DeleteSlot removes slots according to opts and returns how many rows
// went away. A missing target is a no-op success: the desired end state
// already holds. Series membership for this-and-future is matched on
// the station-local (weekday, hour, minute) of the target, so two
// different weekly series of the same show on the same day are not
// conflated, and the match survives DST transitions.
func (s *Service) DeleteSlot(ctx context.Context, id string, opts DeleteOptions) (int, error) {
	switch opts.Mode {
	case "", DeleteSingle:
		opts.Mode = DeleteSingle
	case DeleteThisAndFuture:
	default:
		return 0, validationErr("mode", "must be single or this-and-future")
	}

	loc := s.station.Location(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target models.ScheduleSlot
		if err := tx.First(&target, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		if opts.Mode == DeleteThisAndFuture && !target.IsRecurring {
			return validationErr("mode", "this-and-future requires a recurring slot")
		}

		ids, err := s.collectDeletions(tx, &target, opts, loc)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		res := tx.Where("id IN ?", ids).Delete(&models.ScheduleSlot{})
		if res.Error != nil {
			return res.Error
		}
		deleted = int(res.RowsAffected)
		return nil
	})
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		telemetry.SlotsDeletedTotal.Add(float64(deleted))
		s.logger.Info().Str("slot_id", id).Str("mode", string(opts.Mode)).
			Int("deleted", deleted).Msg("slots deleted")
		s.publish(events.EventSlotsDeleted, events.Payload{
			"slot_id": id,
			"count":   deleted,
		})
	}
	return deleted, nil
}

// collectDeletions resolves the target into the full id set to remove.
func (s *Service) collectDeletions(tx *gorm.DB, target *models.ScheduleSlot, opts DeleteOptions, loc *time.Location) ([]string, error) {
	victims := []models.ScheduleSlot{*target}

	if opts.Mode == DeleteThisAndFuture {
		sig := station.SignatureOf(target.StartTime, loc)

		var future []models.ScheduleSlot
		err := tx.Where("show_id = ? AND is_recurring = ? AND start_time > ?",
			target.ShowID, true, target.StartTime).
			Find(&future).Error
		if err != nil {
			return nil, err
		}
		for _, slot := range future {
			if station.SignatureOf(slot.StartTime, loc) == sig {
				victims = append(victims, slot)
			}
		}
	}

	seen := make(map[string]bool, len(victims)*2)
	ids := make([]string, 0, len(victims)*2)
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, v := range victims {
		add(v.ID)
		if opts.BothParts && v.IsSplit() {
			var sibling models.ScheduleSlot
			err := tx.Where("split_group_id = ? AND id <> ?", *v.SplitGroupID, v.ID).
				First(&sibling).Error
			if err == nil {
				add(sibling.ID)
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
		}
	}
	return ids, nil
}
