/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package api exposes the HTTP surface: show and slot management,
// recordings, episodes, settings, and notifications.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/huginn_radio/internal/auth"
	"github.com/friendsincode/huginn_radio/internal/logbuffer"
	"github.com/friendsincode/huginn_radio/internal/notifications"
	"github.com/friendsincode/huginn_radio/internal/schedule"
	"github.com/friendsincode/huginn_radio/internal/station"
	"github.com/friendsincode/huginn_radio/internal/version"
)

// API exposes HTTP handlers.
type API struct {
	db            *gorm.DB
	jwtSecret     []byte
	schedule      *schedule.Service
	station       *station.Service
	notifications *notifications.Service
	logs          *logbuffer.Buffer
	updates       *version.Checker
	logger        zerolog.Logger
}

// New creates the API router wrapper. logs and updates may be nil; the
// corresponding endpoints then report empty results.
func New(db *gorm.DB, jwtSecret []byte, scheduleSvc *schedule.Service, stationSvc *station.Service, notificationSvc *notifications.Service, logs *logbuffer.Buffer, updates *version.Checker, logger zerolog.Logger) *API {
	return &API{
		db:            db,
		jwtSecret:     jwtSecret,
		schedule:      scheduleSvc,
		station:       stationSvc,
		notifications: notificationSvc,
		logs:          logs,
		updates:       updates,
		logger:        logger.With().Str("component", "api").Logger(),
	}
}

// Routes mounts all endpoints on the router.
func (a *API) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", a.handleHealth)
		r.Get("/version", a.handleVersion)

		// Public calendar view (no auth required)
		r.Get("/schedule", a.handleScheduleRange)

		r.Group(func(pr chi.Router) {
			pr.Use(a.authMiddleware())

			pr.Route("/shows", func(r chi.Router) {
				r.Get("/", a.handleShowsList)
				r.Post("/", a.handleShowsCreate)
				r.Route("/{showID}", func(r chi.Router) {
					r.Get("/", a.handleShowsGet)
					r.Put("/", a.handleShowsUpdate)
					r.Delete("/", a.handleShowsDelete)
					r.Get("/slots", a.handleShowSlots)
				})
			})

			pr.Route("/slots", func(r chi.Router) {
				r.Get("/", a.handleScheduleRange)
				r.Post("/", a.handleSlotsCreate)
				r.Route("/{slotID}", func(r chi.Router) {
					r.Get("/", a.handleSlotsGet)
					r.Put("/", a.handleSlotsUpdate)
					r.Delete("/", a.handleSlotsDelete)
				})
			})

			pr.Route("/recordings", func(r chi.Router) {
				r.Get("/", a.handleRecordingsList)
				r.Get("/{recordingID}", a.handleRecordingsGet)
				r.Post("/{recordingID}/publish", a.handleRecordingPublish)
			})

			pr.Route("/episodes", func(r chi.Router) {
				r.Get("/", a.handleEpisodesList)
				r.Post("/", a.handleEpisodesPublish)
				r.Get("/{episodeID}", a.handleEpisodesGet)
			})

			pr.Route("/settings", func(r chi.Router) {
				r.Get("/", a.handleSettingsGet)
				r.Put("/", a.handleSettingsUpdate)
			})

			pr.Route("/notifications", func(r chi.Router) {
				r.Get("/", a.handleNotificationsList)
				r.Post("/read-all", a.handleNotificationsReadAll)
				r.Post("/{notificationID}/read", a.handleNotificationsRead)
			})

			pr.Route("/logs", func(r chi.Router) {
				r.Get("/", a.handleLogsQuery)
				r.Get("/components", a.handleLogsComponents)
				r.Get("/stats", a.handleLogsStats)
			})
		})
	})
}

func (a *API) authMiddleware() func(http.Handler) http.Handler {
	return auth.Middleware(a.jwtSecret)
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleVersion(w http.ResponseWriter, r *http.Request) {
	if a.updates == nil {
		writeJSON(w, http.StatusOK, version.UpdateInfo{CurrentVersion: version.Version})
		return
	}
	writeJSON(w, http.StatusOK, a.updates.Info())
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// respondServiceError maps schedule engine errors onto HTTP statuses.
func (a *API) respondServiceError(w http.ResponseWriter, err error) {
	var conflict *schedule.ConflictError
	var invalid *schedule.ValidationError
	switch {
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":      "slot_conflict",
			"occurrence": conflict.Occurrence,
			"show":       conflict.ShowTitle,
			"startTime":  conflict.Start,
			"endTime":    conflict.End,
		})
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "validation_failed",
			"field": invalid.Field,
			"detail": invalid.Reason,
		})
	case errors.Is(err, schedule.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	default:
		a.logger.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal_error")
	}
}
