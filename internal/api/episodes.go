/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/friendsincode/huginn_radio/internal/models"
)

type episodePublishRequest struct {
	RecordingID string `json:"recordingId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	Explicit    bool   `json:"explicit"`
}

func (a *API) handleEpisodesList(w http.ResponseWriter, r *http.Request) {
	q := a.db.WithContext(r.Context()).Order("published_at DESC").Limit(200)
	if showID := r.URL.Query().Get("showId"); showID != "" {
		q = q.Where("show_id = ?", showID)
	}

	var episodes []models.Episode
	if err := q.Find(&episodes).Error; err != nil {
		a.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, episodes)
}

func (a *API) handleEpisodesGet(w http.ResponseWriter, r *http.Request) {
	var episode models.Episode
	err := a.db.WithContext(r.Context()).
		First(&episode, "id = ?", chi.URLParam(r, "episodeID")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		a.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, episode)
}

// handleEpisodesPublish manually publishes an episode from a completed
// recording, for captures where auto-publish was not wanted or failed.
// A recording publishes at most once.
func (a *API) handleEpisodesPublish(w http.ResponseWriter, r *http.Request) {
	var req episodePublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if req.RecordingID == "" {
		writeError(w, http.StatusBadRequest, "recording_id_required")
		return
	}
	a.publishEpisode(w, r, req)
}

// handleRecordingPublish is the recording-addressed form of publish.
// The body is optional; metadata defaults come from the recording.
func (a *API) handleRecordingPublish(w http.ResponseWriter, r *http.Request) {
	var req episodePublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	req.RecordingID = chi.URLParam(r, "recordingID")
	a.publishEpisode(w, r, req)
}

func (a *API) publishEpisode(w http.ResponseWriter, r *http.Request, req episodePublishRequest) {
	ctx := r.Context()
	var rec models.Recording
	if err := a.db.WithContext(ctx).First(&rec, "id = ?", req.RecordingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "recording_not_found")
			return
		}
		a.respondServiceError(w, err)
		return
	}
	if rec.Status != models.RecordingCompleted {
		writeError(w, http.StatusConflict, "recording_not_completed")
		return
	}

	var existing int64
	a.db.WithContext(ctx).Model(&models.Episode{}).
		Where("recording_id = ?", rec.ID).Count(&existing)
	if existing > 0 {
		writeError(w, http.StatusConflict, "already_published")
		return
	}

	title := req.Title
	if title == "" {
		title = "Episode " + rec.StartedAt.UTC().Format("2006-01-02")
	}
	episode := models.Episode{
		ID:              uuid.NewString(),
		RecordingID:     rec.ID,
		ShowID:          rec.ShowID,
		Title:           title,
		Description:     req.Description,
		ImageURL:        req.ImageURL,
		Explicit:        req.Explicit,
		AudioPath:       rec.FilePath,
		DurationSeconds: rec.DurationSeconds,
		SizeBytes:       rec.SizeBytes,
		PublishedAt:     time.Now(),
	}
	if err := a.db.WithContext(ctx).Create(&episode).Error; err != nil {
		a.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, episode)
}
