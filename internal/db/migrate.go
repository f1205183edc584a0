/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package db

import (
	"fmt"

	"github.com/friendsincode/huginn_radio/internal/models"
	"gorm.io/gorm"
)

// Migrate applies database schema migrations using GORM auto-migrate.
func Migrate(database *gorm.DB) error {
	if err := database.AutoMigrate(
		&models.StationSettings{},
		&models.Show{},
		&models.ScheduleSlot{},
		&models.Recording{},
		&models.Episode{},
		&models.Notification{},
	); err != nil {
		return err
	}

	if err := applyPostgresSlotOverlapGuard(database); err != nil {
		return err
	}

	return nil
}

// applyPostgresSlotOverlapGuard installs a trigger rejecting overlapping
// slots at the storage layer. The schedule service already serializes its
// check-and-insert sequences; the trigger catches writers that bypass it.
func applyPostgresSlotOverlapGuard(database *gorm.DB) error {
	if database.Dialector.Name() != "postgres" {
		return nil
	}

	stmt := `
CREATE OR REPLACE FUNCTION prevent_schedule_slot_overlap()
RETURNS trigger
LANGUAGE plpgsql
AS $$
BEGIN
  IF NEW.end_time <= NEW.start_time THEN
    RAISE EXCEPTION 'schedule slot end must be after start'
      USING ERRCODE = '23514';
  END IF;

  IF EXISTS (
    SELECT 1
    FROM schedule_slots ss
    WHERE ss.id <> NEW.id
      AND tstzrange(ss.start_time, ss.end_time, '[)') && tstzrange(NEW.start_time, NEW.end_time, '[)')
  ) THEN
    RAISE EXCEPTION 'overlapping schedule slots are not allowed'
      USING ERRCODE = '23514';
  END IF;

  RETURN NEW;
END;
$$;

DROP TRIGGER IF EXISTS trg_prevent_schedule_slot_overlap ON schedule_slots;

CREATE TRIGGER trg_prevent_schedule_slot_overlap
BEFORE INSERT OR UPDATE OF start_time, end_time
ON schedule_slots
FOR EACH ROW
EXECUTE FUNCTION prevent_schedule_slot_overlap();
`
	if err := database.Exec(stmt).Error; err != nil {
		return fmt.Errorf("apply postgres slot overlap guard: %w", err)
	}

	return nil
}
