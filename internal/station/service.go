/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package station

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/huginn_radio/internal/cache"
	"github.com/friendsincode/huginn_radio/internal/events"
	"github.com/friendsincode/huginn_radio/internal/models"
)

// Service exposes station settings and the configured timezone.
type Service struct {
	db     *gorm.DB
	cache  *cache.Cache
	bus    *events.Bus
	logger zerolog.Logger
}

// NewService creates the station service. cache and bus may be nil.
func NewService(db *gorm.DB, c *cache.Cache, bus *events.Bus, logger zerolog.Logger) *Service {
	return &Service{
		db:     db,
		cache:  c,
		bus:    bus,
		logger: logger.With().Str("component", "station").Logger(),
	}
}

// Settings returns the station settings row, creating a UTC default when
// none exists yet.
func (s *Service) Settings(ctx context.Context) (models.StationSettings, error) {
	if cached, ok := s.cache.GetSettings(ctx); ok {
		return models.StationSettings{
			StationName: cached.StationName,
			Timezone:    cached.Timezone,
			StreamURL:   cached.StreamURL,
		}, nil
	}

	var settings models.StationSettings
	err := s.db.WithContext(ctx).Order("created_at ASC").First(&settings).Error
	if err == gorm.ErrRecordNotFound {
		settings = models.StationSettings{
			ID:       uuid.NewString(),
			Timezone: "UTC",
		}
		if err := s.db.WithContext(ctx).Create(&settings).Error; err != nil {
			return settings, fmt.Errorf("create default settings: %w", err)
		}
	} else if err != nil {
		return settings, err
	}

	s.cache.SetSettings(ctx, cache.CachedSettings{
		StationName: settings.StationName,
		Timezone:    settings.Timezone,
		StreamURL:   settings.StreamURL,
	})

	return settings, nil
}

// UpdateSettings replaces the mutable settings fields.
func (s *Service) UpdateSettings(ctx context.Context, name, timezone, streamURL string) (models.StationSettings, error) {
	if timezone != "" {
		if _, err := time.LoadLocation(timezone); err != nil {
			return models.StationSettings{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
		}
	}

	settings, err := s.Settings(ctx)
	if err != nil {
		return settings, err
	}

	// Settings may have come from cache without an ID; reload the row.
	var row models.StationSettings
	if err := s.db.WithContext(ctx).Order("created_at ASC").First(&row).Error; err != nil {
		return settings, err
	}

	row.StationName = name
	if timezone != "" {
		row.Timezone = timezone
	}
	row.StreamURL = streamURL
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return row, err
	}

	s.cache.InvalidateSettings(ctx)
	if s.bus != nil {
		s.bus.Publish(events.EventSettingsUpdated, events.Payload{
			"timezone":   row.Timezone,
			"stream_url": row.StreamURL,
		})
	}

	return row, nil
}

// Location resolves the configured IANA zone. Missing or invalid zone
// names fall back to UTC silently: a broken setting must never block
// scheduling.
func (s *Service) Location(ctx context.Context) *time.Location {
	settings, err := s.Settings(ctx)
	if err != nil {
		s.logger.Debug().Err(err).Msg("settings unavailable, using UTC")
		return time.UTC
	}
	if settings.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(settings.Timezone)
	if err != nil {
		s.logger.Debug().Str("timezone", settings.Timezone).Msg("invalid station timezone, using UTC")
		return time.UTC
	}
	return loc
}

// DefaultStreamURL returns the station-wide capture source fallback.
func (s *Service) DefaultStreamURL(ctx context.Context) string {
	settings, err := s.Settings(ctx)
	if err != nil {
		return ""
	}
	return settings.StreamURL
}
