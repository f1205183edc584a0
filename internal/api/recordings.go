/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/friendsincode/huginn_radio/internal/models"
)

func (a *API) handleRecordingsList(w http.ResponseWriter, r *http.Request) {
	q := a.db.WithContext(r.Context()).Order("created_at DESC").Limit(200)
	if showID := r.URL.Query().Get("showId"); showID != "" {
		q = q.Where("show_id = ?", showID)
	}
	if status := r.URL.Query().Get("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var recordings []models.Recording
	if err := q.Find(&recordings).Error; err != nil {
		a.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recordings)
}

func (a *API) handleRecordingsGet(w http.ResponseWriter, r *http.Request) {
	var rec models.Recording
	err := a.db.WithContext(r.Context()).
		First(&rec, "id = ?", chi.URLParam(r, "recordingID")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		a.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
