/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/huginn_radio/internal/events"
	"github.com/friendsincode/huginn_radio/internal/models"
	"github.com/friendsincode/huginn_radio/internal/telemetry"
)

// ExtendDue appends another year of weekly occurrences to every
// recurring series whose last materialized occurrence ends within
// horizon of now. Unlike creation, extension is best-effort per
// occurrence: a week that collides with other programming is skipped
// and reported, and the remaining weeks are still appended, so one
// conflict does not stall a series forever.
func (s *Service) ExtendDue(ctx context.Context, now time.Time, horizon time.Duration) (int, error) {
	loc := s.station.Location(ctx)
	deadline := now.Add(horizon)

	var showIDs []string
	err := s.db.WithContext(ctx).Model(&models.ScheduleSlot{}).
		Where("is_recurring = ?", true).
		Distinct("show_id").
		Pluck("show_id", &showIDs).Error
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	telemetry.ExtensionRunsTotal.Inc()

	total := 0
	for _, showID := range showIDs {
		appended, err := s.extendShow(ctx, showID, deadline, loc)
		if err != nil {
			s.logger.Error().Err(err).Str("show_id", showID).Msg("series extension failed")
			continue
		}
		total += appended
	}
	return total, nil
}

func (s *Service) extendShow(ctx context.Context, showID string, deadline time.Time, loc *time.Location) (int, error) {
	var created []models.ScheduleSlot
	skipped := 0

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var latest models.ScheduleSlot
		err := tx.Where("show_id = ? AND is_recurring = ?", showID, true).
			Order("end_time DESC").
			First(&latest).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if latest.EndTime.After(deadline) {
			return nil
		}

		// The anchor is the full occurrence window. When the latest
		// slot is the tail of a split pair the window starts at its
		// sibling, so re-expansion re-derives the split each week.
		anchorStart, anchorEnd := latest.StartTime, latest.EndTime
		if latest.IsSplit() && latest.SplitPosition != nil && *latest.SplitPosition == models.SplitSecond {
			var head models.ScheduleSlot
			err := tx.Where("split_group_id = ? AND id <> ?", *latest.SplitGroupID, latest.ID).
				First(&head).Error
			if err == nil {
				anchorStart = head.StartTime
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		seriesID := latest.SeriesID
		if seriesID == nil {
			id := newSeriesID()
			seriesID = &id
		}

		windows := weeklyWindows(anchorStart, anchorEnd, SeriesLength, 1, latest.OccurrenceIndex+1, loc)
		for _, w := range windows {
			slots := materialize(w, showID, latest.SourceURL, seriesID, true, loc)
			blocked := false
			for _, slot := range slots {
				if prior := overlapsStaged(created, slot.StartTime, slot.EndTime); prior != nil {
					blocked = true
					s.logger.Warn().
						Str("show_id", showID).
						Time("start", slot.StartTime).
						Msg("extension occurrence skipped, overlaps earlier occurrence in batch")
					s.publish(events.EventExtensionSkip, events.Payload{
						"show_id": showID,
						"start":   slot.StartTime,
						"end":     slot.EndTime,
					})
					break
				}
				existing, err := findOverlapOutsideShow(tx, showID, slot.StartTime, slot.EndTime)
				if err != nil {
					return err
				}
				if existing != nil {
					blocked = true
					title := ""
					if existing.Show != nil {
						title = existing.Show.Title
					}
					s.logger.Warn().
						Str("show_id", showID).
						Time("start", slot.StartTime).
						Str("blocking_show", title).
						Msg("extension occurrence skipped, window occupied")
					s.publish(events.EventExtensionSkip, events.Payload{
						"show_id":       showID,
						"start":         slot.StartTime,
						"end":           slot.EndTime,
						"blocking_show": title,
					})
					break
				}
			}
			if blocked {
				skipped++
				continue
			}
			created = append(created, slots...)
		}

		if len(created) == 0 {
			return nil
		}
		return tx.CreateInBatches(created, 200).Error
	})
	if err != nil {
		return 0, err
	}

	if len(created) > 0 || skipped > 0 {
		telemetry.ExtensionSlotsTotal.Add(float64(len(created)))
		s.logger.Info().Str("show_id", showID).
			Int("appended", len(created)).Int("skipped", skipped).
			Msg("recurring series extended")
		s.publish(events.EventSeriesExtended, events.Payload{
			"show_id":  showID,
			"appended": len(created),
			"skipped":  skipped,
		})
	}
	return len(created), nil
}

// ExtensionJob periodically runs ExtendDue so recurring series keep a
// rolling year of future occurrences on the calendar.
type ExtensionJob struct {
	svc      *Service
	interval time.Duration
	horizon  time.Duration
	logger   zerolog.Logger
}

// NewExtensionJob builds the background extension job.
func NewExtensionJob(svc *Service, interval, horizon time.Duration, logger zerolog.Logger) *ExtensionJob {
	return &ExtensionJob{
		svc:      svc,
		interval: interval,
		horizon:  horizon,
		logger:   logger.With().Str("component", "extension_job").Logger(),
	}
}

// Run ticks until ctx is cancelled. One pass runs immediately at
// startup so a long-stopped instance catches up without waiting a day.
func (j *ExtensionJob) Run(ctx context.Context) error {
	j.logger.Info().Dur("interval", j.interval).Dur("horizon", j.horizon).
		Msg("extension job started")

	j.pass(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			j.logger.Info().Msg("extension job stopped")
			return ctx.Err()
		case <-ticker.C:
			j.pass(ctx)
		}
	}
}

func (j *ExtensionJob) pass(ctx context.Context) {
	appended, err := j.svc.ExtendDue(ctx, time.Now(), j.horizon)
	if err != nil {
		j.logger.Error().Err(err).Msg("extension pass failed")
		return
	}
	if appended > 0 {
		j.logger.Info().Int("appended", appended).Msg("extension pass appended occurrences")
	}
}
