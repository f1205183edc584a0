/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package notifications turns bus events from the unattended background
// jobs into operator-visible alerts.
package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/huginn_radio/internal/events"
	"github.com/friendsincode/huginn_radio/internal/models"
)

// ErrNotFound is returned when the referenced notification does not exist.
var ErrNotFound = errors.New("notification not found")

// Service persists alerts from bus events and serves them to the API.
type Service struct {
	db     *gorm.DB
	bus    *events.Bus
	logger zerolog.Logger
}

// NewService creates the notification service.
func NewService(db *gorm.DB, bus *events.Bus, logger zerolog.Logger) *Service {
	return &Service{
		db:     db,
		bus:    bus,
		logger: logger.With().Str("component", "notifications").Logger(),
	}
}

// Run subscribes to alert-worthy events until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	recordingFailed := s.bus.Subscribe(events.EventRecordingFailed)
	recordingCompleted := s.bus.Subscribe(events.EventRecordingCompleted)
	extensionSkipped := s.bus.Subscribe(events.EventExtensionSkip)

	defer func() {
		s.bus.Unsubscribe(events.EventRecordingFailed, recordingFailed)
		s.bus.Unsubscribe(events.EventRecordingCompleted, recordingCompleted)
		s.bus.Unsubscribe(events.EventExtensionSkip, extensionSkipped)
	}()

	s.logger.Info().Msg("notification service started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("notification service stopping")
			return ctx.Err()

		case payload := <-recordingFailed:
			s.create(ctx, models.SeverityError,
				fmt.Sprintf("Recording failed: %s", str(payload, "show")),
				str(payload, "error"))

		case payload := <-recordingCompleted:
			s.create(ctx, models.SeverityInfo,
				fmt.Sprintf("Recording completed: %s", str(payload, "show")),
				"")

		case payload := <-extensionSkipped:
			s.create(ctx, models.SeverityWarning,
				"Recurring occurrence skipped",
				fmt.Sprintf("extension window is occupied by %s", str(payload, "blocking_show")))
		}
	}
}

func (s *Service) create(ctx context.Context, severity models.NotificationSeverity, title, body string) {
	n := models.Notification{
		ID:       uuid.NewString(),
		Severity: severity,
		Title:    title,
		Body:     body,
	}
	if err := s.db.WithContext(ctx).Create(&n).Error; err != nil {
		s.logger.Error().Err(err).Str("title", title).Msg("failed to persist notification")
	}
}

// List returns notifications newest first. unreadOnly filters out
// acknowledged ones.
func (s *Service) List(ctx context.Context, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}
	var list []models.Notification
	err := q.Find(&list).Error
	return list, err
}

// MarkRead acknowledges one notification.
func (s *Service) MarkRead(ctx context.Context, id string) error {
	now := time.Now()
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND read_at IS NULL", id).
		Update("read_at", now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var n models.Notification
		if err := s.db.WithContext(ctx).First(&n, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
	}
	return nil
}

// MarkAllRead acknowledges every unread notification and returns how
// many were affected.
func (s *Service) MarkAllRead(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("read_at IS NULL").
		Update("read_at", time.Now())
	return res.RowsAffected, res.Error
}

func str(p events.Payload, key string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return ""
}
