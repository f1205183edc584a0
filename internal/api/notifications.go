/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/friendsincode/huginn_radio/internal/notifications"
)

func (a *API) handleNotificationsList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	list, err := a.notifications.List(r.Context(), q.Get("unread") == "true", limit)
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) handleNotificationsRead(w http.ResponseWriter, r *http.Request) {
	err := a.notifications.MarkRead(r.Context(), chi.URLParam(r, "notificationID"))
	if err != nil {
		if errors.Is(err, notifications.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		a.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleNotificationsReadAll(w http.ResponseWriter, r *http.Request) {
	n, err := a.notifications.MarkAllRead(r.Context())
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"marked": n})
}
