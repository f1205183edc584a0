/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import "time"

// RecordingStatus tracks capture lifecycle.
type RecordingStatus string

const (
	RecordingPending   RecordingStatus = "PENDING"
	RecordingActive    RecordingStatus = "RECORDING"
	RecordingCompleted RecordingStatus = "COMPLETED"
	RecordingFailed    RecordingStatus = "FAILED"
)

// Recording is one capture attempt tied to exactly one schedule slot.
// The status transitions to a terminal state once, on process exit.
type Recording struct {
	ID              string `gorm:"type:uuid;primaryKey" json:"id"`
	SlotID          string `gorm:"type:uuid;uniqueIndex:idx_recordings_slot;not null" json:"slotId"`
	ShowID          string `gorm:"type:uuid;index:idx_recordings_show;not null" json:"showId"`
	FilePath        string `gorm:"type:varchar(512)" json:"filePath"`
	ArchiveKey      string `gorm:"type:varchar(512)" json:"archiveKey"`
	StartedAt       time.Time  `json:"startedAt"`
	EndedAt         *time.Time `json:"endedAt"`
	SizeBytes       int64      `json:"sizeBytes"`
	DurationSeconds float64    `json:"durationSeconds"`
	Status          RecordingStatus `gorm:"type:varchar(16);not null" json:"status"`
	Error           string          `gorm:"type:text" json:"error,omitempty"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// TableName returns the table name for GORM.
func (Recording) TableName() string {
	return "recordings"
}

// IsTerminal reports whether the recording reached a final state.
func (r Recording) IsTerminal() bool {
	return r.Status == RecordingCompleted || r.Status == RecordingFailed
}

// Episode is a publishable unit derived from exactly one completed
// recording. Created manually via the API or automatically by the
// recorder supervisor on successful completion.
type Episode struct {
	ID              string `gorm:"type:uuid;primaryKey" json:"id"`
	RecordingID     string `gorm:"type:uuid;uniqueIndex:idx_episodes_recording;not null" json:"recordingId"`
	ShowID          string `gorm:"type:uuid;index:idx_episodes_show;not null" json:"showId"`
	Title           string `gorm:"type:varchar(255);not null" json:"title"`
	Description     string `gorm:"type:text" json:"description"`
	ImageURL        string `gorm:"type:varchar(512)" json:"imageUrl"`
	Explicit        bool   `json:"explicit"`
	AudioPath       string `gorm:"type:varchar(512)" json:"audioPath"`
	DurationSeconds float64   `json:"durationSeconds"`
	SizeBytes       int64     `json:"sizeBytes"`
	PublishedAt     time.Time `json:"publishedAt"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// TableName returns the table name for GORM.
func (Episode) TableName() string {
	return "episodes"
}
