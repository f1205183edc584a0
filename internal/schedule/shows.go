/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/friendsincode/huginn_radio/internal/models"
)

// CreateShow persists a new program definition.
func (s *Service) CreateShow(ctx context.Context, show models.Show) (*models.Show, error) {
	if show.Title == "" {
		return nil, validationErr("title", "required")
	}
	show.ID = uuid.NewString()
	if err := s.db.WithContext(ctx).Create(&show).Error; err != nil {
		return nil, err
	}
	return &show, nil
}

// GetShow loads one show by id.
func (s *Service) GetShow(ctx context.Context, id string) (*models.Show, error) {
	var show models.Show
	if err := s.db.WithContext(ctx).First(&show, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &show, nil
}

// ListShows returns all shows ordered by title.
func (s *Service) ListShows(ctx context.Context) ([]models.Show, error) {
	var shows []models.Show
	err := s.db.WithContext(ctx).Order("title ASC").Find(&shows).Error
	return shows, err
}

// UpdateShow replaces the mutable show fields.
func (s *Service) UpdateShow(ctx context.Context, id string, update models.Show) (*models.Show, error) {
	if update.Title == "" {
		return nil, validationErr("title", "required")
	}

	var show models.Show
	if err := s.db.WithContext(ctx).First(&show, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	show.Title = update.Title
	show.Host = update.Host
	show.Description = update.Description
	show.Category = update.Category
	show.Tags = update.Tags
	show.Explicit = update.Explicit
	show.ImageURL = update.ImageURL
	show.RecordingEnabled = update.RecordingEnabled
	show.RecordingSource = update.RecordingSource

	if err := s.db.WithContext(ctx).Save(&show).Error; err != nil {
		return nil, err
	}
	return &show, nil
}

// DeleteShow removes a show and every slot booked for it. Missing
// shows are a no-op success.
func (s *Service) DeleteShow(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("show_id = ?", id).Delete(&models.ScheduleSlot{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Show{}, "id = ?", id).Error
	})
}
