/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"encoding/json"
	"net/http"
)

type settingsRequest struct {
	StationName string `json:"stationName"`
	Timezone    string `json:"timezone"`
	StreamURL   string `json:"streamUrl"`
}

type settingsResponse struct {
	StationName string `json:"stationName"`
	Timezone    string `json:"timezone"`
	StreamURL   string `json:"streamUrl"`
}

func (a *API) handleSettingsGet(w http.ResponseWriter, r *http.Request) {
	settings, err := a.station.Settings(r.Context())
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse{
		StationName: settings.StationName,
		Timezone:    settings.Timezone,
		StreamURL:   settings.StreamURL,
	})
}

func (a *API) handleSettingsUpdate(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	settings, err := a.station.UpdateSettings(r.Context(), req.StationName, req.Timezone, req.StreamURL)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_timezone")
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse{
		StationName: settings.StationName,
		Timezone:    settings.Timezone,
		StreamURL:   settings.StreamURL,
	})
}
