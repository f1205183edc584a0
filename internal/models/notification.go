/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import "time"

// NotificationSeverity classifies operational alerts.
type NotificationSeverity string

const (
	SeverityInfo    NotificationSeverity = "info"
	SeverityWarning NotificationSeverity = "warning"
	SeverityError   NotificationSeverity = "error"
)

// Notification is an operational alert surfaced to operators: failed
// captures, skipped extension weeks, storage problems. The recorder and
// extension job run unattended, so this is their channel to humans.
type Notification struct {
	ID        string               `gorm:"type:uuid;primaryKey" json:"id"`
	Severity  NotificationSeverity `gorm:"type:varchar(16);not null" json:"severity"`
	Title     string               `gorm:"type:varchar(255);not null" json:"title"`
	Body      string               `gorm:"type:text" json:"body"`
	ReadAt    *time.Time           `json:"readAt"`
	CreatedAt time.Time            `json:"createdAt"`
}

// TableName returns the table name for GORM.
func (Notification) TableName() string {
	return "notifications"
}

// IsRead reports whether an operator acknowledged the notification.
func (n Notification) IsRead() bool {
	return n.ReadAt != nil
}
