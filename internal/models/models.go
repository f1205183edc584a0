/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import "time"

// StationSettings is the single station-wide configuration row.
// Timezone is an IANA zone name; callers fall back to UTC when it is
// missing or invalid rather than failing scheduling.
type StationSettings struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	StationName string `gorm:"type:varchar(255)"`
	Timezone    string `gorm:"type:varchar(64);not null;default:'UTC'"`
	StreamURL   string `gorm:"type:varchar(512)"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName returns the table name for GORM.
func (StationSettings) TableName() string {
	return "station_settings"
}

// Show is a program definition. Slots reference it; deleting a show
// cascades its slots.
type Show struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	Title       string `gorm:"type:varchar(255);not null"`
	Host        string `gorm:"type:varchar(255)"`
	Description string `gorm:"type:text"`
	Category    string `gorm:"type:varchar(128)"`
	Tags        string `gorm:"type:varchar(512)"` // comma separated
	Explicit    bool
	ImageURL    string `gorm:"type:varchar(512)"`

	// Recording defaults consumed by the recorder supervisor.
	RecordingEnabled bool
	RecordingSource  string `gorm:"type:varchar(512)"`

	Slots []ScheduleSlot `gorm:"foreignKey:ShowID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for GORM.
func (Show) TableName() string {
	return "shows"
}

// Split pair positions.
const (
	SplitFirst  = "first"
	SplitSecond = "second"
)

// ScheduleSlot is one occupied calendar interval. Times are stored UTC;
// station wall-clock semantics (recurrence signatures, midnight splits)
// are derived through the station time service.
type ScheduleSlot struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	ShowID      string    `gorm:"type:uuid;index:idx_slots_show;not null" json:"showId"`
	StartTime   time.Time `gorm:"index:idx_slots_window;not null" json:"startTime"`
	EndTime     time.Time `gorm:"index:idx_slots_window;not null" json:"endTime"`
	IsRecurring bool      `json:"isRecurring"`
	SourceURL   *string   `gorm:"type:varchar(512)" json:"sourceUrl"`

	// SplitGroupID correlates the two halves of a midnight-crossing
	// occurrence. Exactly two slots share a group id, one per position,
	// and first.EndTime == second.StartTime.
	SplitGroupID  *string `gorm:"type:uuid;index:idx_slots_split" json:"splitGroupId"`
	SplitPosition *string `gorm:"type:varchar(8)" json:"splitPosition"`

	// SeriesID groups the occurrences created by one recurring request.
	// OccurrenceIndex is the zero-based week offset within that series.
	SeriesID        *string `gorm:"type:uuid;index:idx_slots_series" json:"seriesId"`
	OccurrenceIndex int     `json:"occurrenceIndex"`

	Show *Show `gorm:"foreignKey:ShowID" json:"-"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// TableName returns the table name for GORM.
func (ScheduleSlot) TableName() string {
	return "schedule_slots"
}

// Duration returns the slot length.
func (s ScheduleSlot) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// IsSplit reports whether the slot is one half of a midnight-crossing pair.
func (s ScheduleSlot) IsSplit() bool {
	return s.SplitGroupID != nil && *s.SplitGroupID != ""
}
