/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package schedule owns the broadcast calendar: slot creation with
// overlap protection, weekly recurrence expansion, midnight splitting,
// scoped deletion, and the rolling series extension job.
package schedule

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/huginn_radio/internal/events"
	"github.com/friendsincode/huginn_radio/internal/models"
	"github.com/friendsincode/huginn_radio/internal/station"
	"github.com/friendsincode/huginn_radio/internal/telemetry"
)

// Service is the calendar engine. All mutations take mu so the
// overlap check and the write it guards happen as one unit; concurrent
// requests for the same free window cannot both pass the check.
type Service struct {
	db      *gorm.DB
	station *station.Service
	bus     *events.Bus
	logger  zerolog.Logger

	mu sync.Mutex
}

// NewService creates the schedule service. bus may be nil.
func NewService(db *gorm.DB, st *station.Service, bus *events.Bus, logger zerolog.Logger) *Service {
	return &Service{
		db:      db,
		station: st,
		bus:     bus,
		logger:  logger.With().Str("component", "schedule").Logger(),
	}
}

// CreateSlotRequest describes a calendar booking. Start and End are
// instants; recurrence and splitting are derived from the station zone.
type CreateSlotRequest struct {
	ShowID      string
	Start       time.Time
	End         time.Time
	IsRecurring bool
	SourceURL   *string
}

// CreateSlot books a show into the calendar. A non-recurring request
// yields one slot (or a split pair when it spans local midnight); a
// recurring request yields 52 weekly occurrences in a single
// transaction. Any overlap anywhere in the batch rejects the whole
// request, so a recurring series is never partially created.
func (s *Service) CreateSlot(ctx context.Context, req CreateSlotRequest) ([]models.ScheduleSlot, error) {
	if req.ShowID == "" {
		return nil, validationErr("showId", "required")
	}
	if !req.End.After(req.Start) {
		return nil, validationErr("endTime", "must be after startTime")
	}
	if req.IsRecurring && req.End.Sub(req.Start) >= 7*24*time.Hour {
		return nil, validationErr("endTime", "recurring slots must be shorter than one week")
	}

	var show models.Show
	if err := s.db.WithContext(ctx).First(&show, "id = ?", req.ShowID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	loc := s.station.Location(ctx)

	count := 1
	var seriesID *string
	if req.IsRecurring {
		count = SeriesLength
		id := newSeriesID()
		seriesID = &id
	}
	windows := weeklyWindows(req.Start, req.End, count, 0, 0, loc)

	s.mu.Lock()
	defer s.mu.Unlock()

	var created []models.ScheduleSlot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, w := range windows {
			slots := materialize(w, req.ShowID, req.SourceURL, seriesID, req.IsRecurring, loc)
			for _, slot := range slots {
				if prior := overlapsStaged(created, slot.StartTime, slot.EndTime); prior != nil {
					telemetry.OverlapConflictsTotal.Inc()
					return conflictFrom(prior, w.index+1, slot.StartTime, slot.EndTime)
				}
				existing, err := findOverlap(tx, slot.StartTime, slot.EndTime)
				if err != nil {
					return err
				}
				if existing != nil {
					telemetry.OverlapConflictsTotal.Inc()
					return conflictFrom(existing, w.index+1, slot.StartTime, slot.EndTime)
				}
			}
			created = append(created, slots...)
		}
		return tx.CreateInBatches(created, 200).Error
	})
	if err != nil {
		return nil, err
	}

	kind := "single"
	switch {
	case req.IsRecurring:
		kind = "recurring"
	case len(created) > 1:
		kind = "split"
	}
	telemetry.SlotsCreatedTotal.WithLabelValues(kind).Add(float64(len(created)))

	s.logger.Info().
		Str("show_id", req.ShowID).
		Int("slots", len(created)).
		Bool("recurring", req.IsRecurring).
		Msg("slots created")
	s.publish(events.EventSlotsCreated, events.Payload{
		"show_id": req.ShowID,
		"count":   len(created),
	})

	return created, nil
}

// UpdateSlotRequest carries the mutable slot fields.
type UpdateSlotRequest struct {
	Start       time.Time
	End         time.Time
	IsRecurring *bool
	SourceURL   *string
}

// UpdateSlot moves or re-flags one slot. The new interval is checked
// against every other slot, the split sibling included: half-open
// semantics already let the halves touch at the boundary, and anything
// past the boundary is a real double-booking. Updating does not
// re-expand recurrence or re-split.
func (s *Service) UpdateSlot(ctx context.Context, id string, req UpdateSlotRequest) (*models.ScheduleSlot, error) {
	if !req.End.After(req.Start) {
		return nil, validationErr("endTime", "must be after startTime")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var updated models.ScheduleSlot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var slot models.ScheduleSlot
		if err := tx.First(&slot, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		existing, err := findOverlap(tx, req.Start, req.End, slot.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			telemetry.OverlapConflictsTotal.Inc()
			return conflictFrom(existing, 1, req.Start, req.End)
		}

		slot.StartTime = req.Start
		slot.EndTime = req.End
		if req.IsRecurring != nil {
			slot.IsRecurring = *req.IsRecurring
		}
		if req.SourceURL != nil {
			slot.SourceURL = req.SourceURL
		}
		if err := tx.Save(&slot).Error; err != nil {
			return err
		}
		updated = slot
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.EventScheduleUpdate, events.Payload{"slot_id": updated.ID})
	return &updated, nil
}

// GetSlot loads one slot by id.
func (s *Service) GetSlot(ctx context.Context, id string) (*models.ScheduleSlot, error) {
	var slot models.ScheduleSlot
	if err := s.db.WithContext(ctx).First(&slot, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &slot, nil
}

// ListRange returns all slots intersecting [from, to), ordered by start.
func (s *Service) ListRange(ctx context.Context, from, to time.Time) ([]models.ScheduleSlot, error) {
	var slots []models.ScheduleSlot
	err := s.db.WithContext(ctx).
		Where("start_time < ? AND end_time > ?", to, from).
		Order("start_time ASC").
		Find(&slots).Error
	return slots, err
}

// ListShowSlots returns a show's slots ordered by start.
func (s *Service) ListShowSlots(ctx context.Context, showID string) ([]models.ScheduleSlot, error) {
	var slots []models.ScheduleSlot
	err := s.db.WithContext(ctx).
		Where("show_id = ?", showID).
		Order("start_time ASC").
		Find(&slots).Error
	return slots, err
}

func (s *Service) publish(eventType events.EventType, payload events.Payload) {
	if s.bus != nil {
		s.bus.Publish(eventType, payload)
	}
}
