/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/friendsincode/huginn_radio/internal/models"
)

type showRequest struct {
	Title            string `json:"title"`
	Host             string `json:"host"`
	Description      string `json:"description"`
	Category         string `json:"category"`
	Tags             string `json:"tags"`
	Explicit         bool   `json:"explicit"`
	ImageURL         string `json:"imageUrl"`
	RecordingEnabled bool   `json:"recordingEnabled"`
	RecordingSource  string `json:"recordingSource"`
}

func (req showRequest) toModel() models.Show {
	return models.Show{
		Title:            req.Title,
		Host:             req.Host,
		Description:      req.Description,
		Category:         req.Category,
		Tags:             req.Tags,
		Explicit:         req.Explicit,
		ImageURL:         req.ImageURL,
		RecordingEnabled: req.RecordingEnabled,
		RecordingSource:  req.RecordingSource,
	}
}

func (a *API) handleShowsList(w http.ResponseWriter, r *http.Request) {
	shows, err := a.schedule.ListShows(r.Context())
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shows)
}

func (a *API) handleShowsCreate(w http.ResponseWriter, r *http.Request) {
	var req showRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	show, err := a.schedule.CreateShow(r.Context(), req.toModel())
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, show)
}

func (a *API) handleShowsGet(w http.ResponseWriter, r *http.Request) {
	show, err := a.schedule.GetShow(r.Context(), chi.URLParam(r, "showID"))
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, show)
}

func (a *API) handleShowsUpdate(w http.ResponseWriter, r *http.Request) {
	var req showRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	show, err := a.schedule.UpdateShow(r.Context(), chi.URLParam(r, "showID"), req.toModel())
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, show)
}

func (a *API) handleShowsDelete(w http.ResponseWriter, r *http.Request) {
	if err := a.schedule.DeleteShow(r.Context(), chi.URLParam(r, "showID")); err != nil {
		a.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleShowSlots(w http.ResponseWriter, r *http.Request) {
	slots, err := a.schedule.ListShowSlots(r.Context(), chi.URLParam(r, "showID"))
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}
