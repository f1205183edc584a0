/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/friendsincode/huginn_radio/internal/schedule"
)

type slotCreateRequest struct {
	ShowID      string    `json:"showId"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	IsRecurring bool      `json:"isRecurring"`
	SourceURL   *string   `json:"sourceUrl"`
}

type slotUpdateRequest struct {
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	IsRecurring *bool     `json:"isRecurring"`
	SourceURL   *string   `json:"sourceUrl"`
}

func (a *API) handleSlotsCreate(w http.ResponseWriter, r *http.Request) {
	var req slotCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	created, err := a.schedule.CreateSlot(r.Context(), schedule.CreateSlotRequest{
		ShowID:      req.ShowID,
		Start:       req.StartTime,
		End:         req.EndTime,
		IsRecurring: req.IsRecurring,
		SourceURL:   req.SourceURL,
	})
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleScheduleRange serves the calendar for a window, defaulting to
// the next seven days.
func (a *API) handleScheduleRange(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	from, to := now, now.AddDate(0, 0, 7)

	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_from")
			return
		}
		from = parsed
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_to")
			return
		}
		to = parsed
	}
	if !to.After(from) {
		writeError(w, http.StatusBadRequest, "empty_range")
		return
	}

	slots, err := a.schedule.ListRange(r.Context(), from, to)
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

func (a *API) handleSlotsGet(w http.ResponseWriter, r *http.Request) {
	slot, err := a.schedule.GetSlot(r.Context(), chi.URLParam(r, "slotID"))
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slot)
}

func (a *API) handleSlotsUpdate(w http.ResponseWriter, r *http.Request) {
	var req slotUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	slot, err := a.schedule.UpdateSlot(r.Context(), chi.URLParam(r, "slotID"), schedule.UpdateSlotRequest{
		Start:       req.StartTime,
		End:         req.EndTime,
		IsRecurring: req.IsRecurring,
		SourceURL:   req.SourceURL,
	})
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slot)
}

func (a *API) handleSlotsDelete(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := schedule.DeleteOptions{
		Mode:      schedule.DeleteMode(q.Get("mode")),
		BothParts: q.Get("both_parts") == "true",
	}

	deleted, err := a.schedule.DeleteSlot(r.Context(), chi.URLParam(r, "slotID"), opts)
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}
