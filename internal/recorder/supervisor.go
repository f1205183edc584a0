/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package recorder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/huginn_radio/internal/events"
	"github.com/friendsincode/huginn_radio/internal/models"
	"github.com/friendsincode/huginn_radio/internal/station"
	"github.com/friendsincode/huginn_radio/internal/storage"
	"github.com/friendsincode/huginn_radio/internal/telemetry"
)

// Options tunes the supervisor loop.
type Options struct {
	Poll           time.Duration // slot scan interval
	StopGrace      time.Duration // SIGTERM -> SIGKILL window
	ShutdownDrain  time.Duration // max wait for in-flight captures on shutdown
	RecordingsRoot string
}

// Supervisor drives capture processes from the schedule. All controller
// state is owned by the Run goroutine; process exits arrive over a
// channel rather than mutating shared maps, so the loop needs no locks.
type Supervisor struct {
	db       *gorm.DB
	station  *station.Service
	archive  storage.ObjectStore
	bus      *events.Bus
	launcher Launcher
	prober   Prober
	opts     Options
	logger   zerolog.Logger

	now func() time.Time

	controllers map[string]*controller // slot id -> running capture
	abandoned   map[string]bool        // slots that failed to start; no retry
	exits       chan exitEvent
	stopped     chan struct{} // closed after drain; releases blocked exit forwarders
}

type controller struct {
	slot      models.ScheduleSlot
	show      models.Show
	recording string // recording row id
	proc      Process
	path      string
	startedAt time.Time
}

type exitEvent struct {
	slotID string
	err    error
}

// NewSupervisor builds the recorder supervisor. archive and bus may be
// nil.
func NewSupervisor(db *gorm.DB, st *station.Service, archive storage.ObjectStore, bus *events.Bus, launcher Launcher, prober Prober, opts Options, logger zerolog.Logger) *Supervisor {
	if opts.Poll <= 0 {
		opts.Poll = 10 * time.Second
	}
	if opts.StopGrace <= 0 {
		opts.StopGrace = 15 * time.Second
	}
	if opts.ShutdownDrain <= 0 {
		opts.ShutdownDrain = 30 * time.Second
	}
	return &Supervisor{
		db:          db,
		station:     st,
		archive:     archive,
		bus:         bus,
		launcher:    launcher,
		prober:      prober,
		opts:        opts,
		logger:      logger.With().Str("component", "recorder").Logger(),
		now:         time.Now,
		controllers: make(map[string]*controller),
		abandoned:   make(map[string]bool),
		exits:       make(chan exitEvent, 16),
		stopped:     make(chan struct{}),
	}
}

// Run polls the schedule until ctx is cancelled, then stops every
// in-flight capture and waits for them to finalize.
func (s *Supervisor) Run(ctx context.Context) error {
	s.logger.Info().Dur("poll", s.opts.Poll).Msg("recorder supervisor started")

	if err := s.recoverInterrupted(ctx); err != nil {
		s.logger.Error().Err(err).Msg("failed to sweep interrupted recordings")
	}

	ticker := time.NewTicker(s.opts.Poll)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.drain()
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		case ev := <-s.exits:
			s.handleExit(context.Background(), ev)
		}
	}
}

// recoverInterrupted fails recording rows left non-terminal by a crash
// or restart. Their processes are gone; the rows must not look live.
func (s *Supervisor) recoverInterrupted(ctx context.Context) error {
	res := s.db.WithContext(ctx).Model(&models.Recording{}).
		Where("status IN ?", []models.RecordingStatus{models.RecordingPending, models.RecordingActive}).
		Updates(map[string]any{
			"status": models.RecordingFailed,
			"error":  "interrupted by recorder restart",
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		s.logger.Warn().Int64("count", res.RowsAffected).Msg("failed recordings interrupted by previous shutdown")
	}
	return nil
}

// tick reconciles running captures against the calendar: start what
// went live, stop what ran past its slot end.
func (s *Supervisor) tick(ctx context.Context) {
	telemetry.RecorderTicksTotal.Inc()
	now := s.now()

	for slotID, ctrl := range s.controllers {
		if !now.Before(ctrl.slot.EndTime) {
			s.logger.Info().Str("slot_id", slotID).Msg("slot ended, stopping capture")
			ctrl.proc.Stop(s.opts.StopGrace)
		}
	}

	var live []models.ScheduleSlot
	err := s.db.WithContext(ctx).Preload("Show").
		Where("start_time <= ? AND end_time > ?", now, now).
		Find(&live).Error
	if err != nil {
		s.logger.Error().Err(err).Msg("live slot scan failed")
		return
	}

	for _, slot := range live {
		if s.controllers[slot.ID] != nil || s.abandoned[slot.ID] {
			continue
		}
		if slot.Show == nil || !slot.Show.RecordingEnabled {
			continue
		}
		s.startCapture(ctx, slot, *slot.Show)
	}
}

// startCapture claims the slot with a pending recording row, then
// launches the process. The unique index on recordings.slot_id makes
// the claim the duplicate-start guard: a second supervisor instance, or
// a slot already captured earlier, fails the insert and is skipped.
func (s *Supervisor) startCapture(ctx context.Context, slot models.ScheduleSlot, show models.Show) {
	rec := models.Recording{
		ID:     uuid.NewString(),
		SlotID: slot.ID,
		ShowID: slot.ShowID,
		Status: models.RecordingPending,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		s.abandoned[slot.ID] = true
		s.logger.Debug().Err(err).Str("slot_id", slot.ID).Msg("slot already claimed, skipping")
		return
	}

	source := s.resolveSource(ctx, slot, show)
	if source == "" {
		s.failRecording(ctx, rec.ID, "no capture source configured for slot, show, or station")
		s.abandoned[slot.ID] = true
		s.logger.Error().Str("slot_id", slot.ID).Str("show", show.Title).
			Msg("cannot record: no source url")
		return
	}

	started := s.now()
	path := s.capturePath(show, started)
	proc, err := s.launcher.Launch(ctx, source, path)
	if err != nil {
		s.failRecording(ctx, rec.ID, fmt.Sprintf("launch capture: %v", err))
		s.abandoned[slot.ID] = true
		s.logger.Error().Err(err).Str("slot_id", slot.ID).Msg("capture launch failed")
		return
	}

	err = s.db.WithContext(ctx).Model(&models.Recording{}).
		Where("id = ?", rec.ID).
		Updates(map[string]any{
			"status":     models.RecordingActive,
			"started_at": started,
			"file_path":  path,
		}).Error
	if err != nil {
		s.logger.Error().Err(err).Str("recording_id", rec.ID).Msg("failed to mark recording active")
	}

	s.controllers[slot.ID] = &controller{
		slot:      slot,
		show:      show,
		recording: rec.ID,
		proc:      proc,
		path:      path,
		startedAt: started,
	}
	telemetry.CapturesActive.Inc()

	go func(slotID string, proc Process) {
		err := <-proc.Done()
		select {
		case s.exits <- exitEvent{slotID: slotID, err: err}:
		case <-s.stopped:
		}
	}(slot.ID, proc)

	s.logger.Info().Str("slot_id", slot.ID).Str("show", show.Title).
		Str("path", path).Msg("capture started")
	s.publish(events.EventRecordingStarted, events.Payload{
		"recording_id": rec.ID,
		"slot_id":      slot.ID,
		"show_id":      slot.ShowID,
		"show":         show.Title,
	})
}

// resolveSource picks the capture URL: the slot override wins, then the
// show default, then the station stream.
func (s *Supervisor) resolveSource(ctx context.Context, slot models.ScheduleSlot, show models.Show) string {
	if slot.SourceURL != nil && *slot.SourceURL != "" {
		return *slot.SourceURL
	}
	if show.RecordingSource != "" {
		return show.RecordingSource
	}
	return s.station.DefaultStreamURL(ctx)
}

func (s *Supervisor) capturePath(show models.Show, started time.Time) string {
	name := fmt.Sprintf("%s-%s.mp3", sanitizeName(show.Title), started.UTC().Format("20060102-150405"))
	return filepath.Join(s.opts.RecordingsRoot, show.ID, name)
}

// handleExit finalizes a finished capture. An exit after a requested
// stop is a completion even when ffmpeg reports the terminating signal
// as a non-zero status.
func (s *Supervisor) handleExit(ctx context.Context, ev exitEvent) {
	ctrl := s.controllers[ev.slotID]
	if ctrl == nil {
		return
	}
	delete(s.controllers, ev.slotID)
	telemetry.CapturesActive.Dec()

	if ev.err != nil && !ctrl.proc.StopRequested() {
		msg := fmt.Sprintf("capture process failed: %v", ev.err)
		s.failRecording(ctx, ctrl.recording, msg)
		telemetry.CapturesFinishedTotal.WithLabelValues("failed").Inc()
		s.logger.Error().Str("slot_id", ev.slotID).Str("show", ctrl.show.Title).
			Err(ev.err).Msg("capture failed")
		s.publish(events.EventRecordingFailed, events.Payload{
			"recording_id": ctrl.recording,
			"slot_id":      ev.slotID,
			"show_id":      ctrl.show.ID,
			"show":         ctrl.show.Title,
			"error":        msg,
		})
		return
	}

	s.completeRecording(ctx, ctrl)
}

func (s *Supervisor) completeRecording(ctx context.Context, ctrl *controller) {
	ended := s.now()

	var size int64
	if info, err := os.Stat(ctrl.path); err == nil {
		size = info.Size()
	} else {
		s.logger.Warn().Err(err).Str("path", ctrl.path).Msg("capture file missing at completion")
	}

	duration := ended.Sub(ctrl.startedAt)
	if s.prober != nil {
		if probed, err := s.prober.Duration(ctx, ctrl.path); err == nil {
			duration = probed
		} else {
			s.logger.Warn().Err(err).Str("path", ctrl.path).
				Msg("probe failed, using wall-clock duration")
		}
	}

	archiveKey := s.archiveCapture(ctx, ctrl)

	err := s.db.WithContext(ctx).Model(&models.Recording{}).
		Where("id = ?", ctrl.recording).
		Updates(map[string]any{
			"status":           models.RecordingCompleted,
			"ended_at":         ended,
			"size_bytes":       size,
			"duration_seconds": duration.Seconds(),
			"archive_key":      archiveKey,
		}).Error
	if err != nil {
		s.logger.Error().Err(err).Str("recording_id", ctrl.recording).
			Msg("failed to mark recording completed")
		return
	}

	episode := models.Episode{
		ID:              uuid.NewString(),
		RecordingID:     ctrl.recording,
		ShowID:          ctrl.show.ID,
		Title:           fmt.Sprintf("%s - %s", ctrl.show.Title, ctrl.startedAt.UTC().Format("2006-01-02")),
		Description:     ctrl.show.Description,
		ImageURL:        ctrl.show.ImageURL,
		Explicit:        ctrl.show.Explicit,
		AudioPath:       ctrl.path,
		DurationSeconds: duration.Seconds(),
		SizeBytes:       size,
		PublishedAt:     ended,
	}
	if err := s.db.WithContext(ctx).Create(&episode).Error; err != nil {
		s.logger.Error().Err(err).Str("recording_id", ctrl.recording).
			Msg("failed to create episode")
	} else {
		s.publish(events.EventEpisodePublished, events.Payload{
			"episode_id": episode.ID,
			"show_id":    ctrl.show.ID,
			"title":      episode.Title,
		})
	}

	telemetry.CapturesFinishedTotal.WithLabelValues("completed").Inc()
	s.logger.Info().Str("slot_id", ctrl.slot.ID).Str("show", ctrl.show.Title).
		Int64("size_bytes", size).Dur("duration", duration).
		Msg("capture completed")
	s.publish(events.EventRecordingCompleted, events.Payload{
		"recording_id": ctrl.recording,
		"slot_id":      ctrl.slot.ID,
		"show_id":      ctrl.show.ID,
		"show":         ctrl.show.Title,
	})
}

// archiveCapture uploads the finished file when an object store is
// configured. Archive failure is logged, not fatal: the local file
// remains the source of truth.
func (s *Supervisor) archiveCapture(ctx context.Context, ctrl *controller) string {
	if s.archive == nil {
		return ""
	}
	f, err := os.Open(ctrl.path)
	if err != nil {
		s.logger.Error().Err(err).Str("path", ctrl.path).Msg("archive skipped, cannot open capture")
		return ""
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return ""
	}

	key := fmt.Sprintf("recordings/%s/%s", ctrl.show.ID, filepath.Base(ctrl.path))
	if err := s.archive.Put(ctx, key, f, info.Size(), "audio/mpeg"); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("archive upload failed")
		return ""
	}
	return key
}

func (s *Supervisor) failRecording(ctx context.Context, recordingID, msg string) {
	ended := s.now()
	err := s.db.WithContext(ctx).Model(&models.Recording{}).
		Where("id = ?", recordingID).
		Updates(map[string]any{
			"status":   models.RecordingFailed,
			"ended_at": ended,
			"error":    msg,
		}).Error
	if err != nil {
		s.logger.Error().Err(err).Str("recording_id", recordingID).
			Msg("failed to mark recording failed")
	}
}

// drain stops every running capture and waits for their exits so the
// final database writes happen before the process leaves. Closing
// stopped on the way out releases forwarders for captures the deadline
// left behind, which would otherwise block on the exits buffer forever.
func (s *Supervisor) drain() {
	defer close(s.stopped)
	if len(s.controllers) == 0 {
		return
	}
	s.logger.Info().Int("captures", len(s.controllers)).Msg("draining in-flight captures")

	for _, ctrl := range s.controllers {
		ctrl.proc.Stop(s.opts.StopGrace)
	}

	deadline := time.NewTimer(s.opts.ShutdownDrain)
	defer deadline.Stop()
	for len(s.controllers) > 0 {
		select {
		case ev := <-s.exits:
			s.handleExit(context.Background(), ev)
		case <-deadline.C:
			for slotID, ctrl := range s.controllers {
				s.failRecording(context.Background(), ctrl.recording, "shutdown drain timed out")
				delete(s.controllers, slotID)
				telemetry.CapturesActive.Dec()
			}
			s.logger.Warn().Msg("drain deadline exceeded, remaining captures marked failed")
			return
		}
	}
	s.logger.Info().Msg("all captures drained")
}

func (s *Supervisor) publish(eventType events.EventType, payload events.Payload) {
	if s.bus != nil {
		s.bus.Publish(eventType, payload)
	}
}

func sanitizeName(title string) string {
	out := make([]rune, 0, len(title))
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out = append(out, r)
		case r == ' ', r == '-', r == '_':
			out = append(out, '-')
		}
	}
	if len(out) == 0 {
		return "recording"
	}
	return string(out)
}
