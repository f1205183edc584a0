/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/friendsincode/huginn_radio/internal/models"
	"github.com/friendsincode/huginn_radio/internal/station"
)

func newTestService(t *testing.T, timezone string) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.StationSettings{}, &models.Show{}, &models.ScheduleSlot{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.Create(&models.StationSettings{
		ID:       uuid.NewString(),
		Timezone: timezone,
	}).Error; err != nil {
		t.Fatalf("seed settings: %v", err)
	}

	st := station.NewService(db, nil, nil, zerolog.Nop())
	return NewService(db, st, nil, zerolog.Nop()), db
}

func seedShow(t *testing.T, db *gorm.DB, title string) models.Show {
	t.Helper()
	show := models.Show{ID: uuid.NewString(), Title: title}
	if err := db.Create(&show).Error; err != nil {
		t.Fatalf("seed show: %v", err)
	}
	return show
}

func nyTime(t *testing.T, year int, month time.Month, day, hour, min int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	return time.Date(year, month, day, hour, min, 0, 0, loc).UTC()
}

func countSlots(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&models.ScheduleSlot{}).Count(&n).Error; err != nil {
		t.Fatalf("count slots: %v", err)
	}
	return n
}

func TestCreateSlotSingle(t *testing.T) {
	svc, db := newTestService(t, "America/New_York")
	show := seedShow(t, db, "Morning Drive")
	ctx := context.Background()

	created, err := svc.CreateSlot(ctx, CreateSlotRequest{
		ShowID: show.ID,
		Start:  nyTime(t, 2025, time.January, 6, 9, 0),
		End:    nyTime(t, 2025, time.January, 6, 11, 0),
	})
	if err != nil {
		t.Fatalf("CreateSlot: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("created %d slots, want 1", len(created))
	}
	if created[0].IsSplit() {
		t.Error("same-day slot must not be split")
	}
	if created[0].SeriesID != nil {
		t.Error("non-recurring slot must not carry a series id")
	}
}

func TestCreateSlotValidation(t *testing.T) {
	svc, db := newTestService(t, "UTC")
	show := seedShow(t, db, "Any")
	ctx := context.Background()
	start := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		req  CreateSlotRequest
	}{
		{"missing show", CreateSlotRequest{Start: start, End: start.Add(time.Hour)}},
		{"end before start", CreateSlotRequest{ShowID: show.ID, Start: start, End: start.Add(-time.Hour)}},
		{"zero duration", CreateSlotRequest{ShowID: show.ID, Start: start, End: start}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateSlot(ctx, tt.req); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	t.Run("unknown show", func(t *testing.T) {
		_, err := svc.CreateSlot(ctx, CreateSlotRequest{
			ShowID: uuid.NewString(),
			Start:  start,
			End:    start.Add(time.Hour),
		})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestCreateSlotSplitsAcrossMidnight(t *testing.T) {
	svc, db := newTestService(t, "America/New_York")
	show := seedShow(t, db, "Night Owls")
	ctx := context.Background()

	created, err := svc.CreateSlot(ctx, CreateSlotRequest{
		ShowID: show.ID,
		Start:  nyTime(t, 2025, time.January, 6, 20, 0),
		End:    nyTime(t, 2025, time.January, 7, 1, 0),
	})
	if err != nil {
		t.Fatalf("CreateSlot: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("created %d slots, want split pair", len(created))
	}

	first, second := created[0], created[1]
	if !first.IsSplit() || !second.IsSplit() {
		t.Fatal("both halves must carry a split group")
	}
	if *first.SplitGroupID != *second.SplitGroupID {
		t.Error("halves must share a group id")
	}
	if *first.SplitPosition != models.SplitFirst || *second.SplitPosition != models.SplitSecond {
		t.Errorf("positions = %v/%v", *first.SplitPosition, *second.SplitPosition)
	}
	if !first.EndTime.Equal(second.StartTime) {
		t.Errorf("halves must be contiguous: %v vs %v", first.EndTime, second.StartTime)
	}

	// The boundary is local midnight: 00:00 EST == 05:00 UTC.
	if got := first.EndTime; !got.Equal(nyTime(t, 2025, time.January, 7, 0, 0)) {
		t.Errorf("boundary = %v, want local midnight", got)
	}
	if first.Duration() != 4*time.Hour || second.Duration() != time.Hour {
		t.Errorf("durations = %v/%v, want 4h/1h", first.Duration(), second.Duration())
	}
}

func TestCreateSlotEndingAtMidnightDoesNotSplit(t *testing.T) {
	svc, db := newTestService(t, "America/New_York")
	show := seedShow(t, db, "Evening Block")

	created, err := svc.CreateSlot(context.Background(), CreateSlotRequest{
		ShowID: show.ID,
		Start:  nyTime(t, 2025, time.January, 6, 22, 0),
		End:    nyTime(t, 2025, time.January, 7, 0, 0),
	})
	if err != nil {
		t.Fatalf("CreateSlot: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("created %d slots, want 1: end at midnight is exclusive", len(created))
	}
}

func TestCreateRecurringPreservesWallClockAcrossDST(t *testing.T) {
	svc, db := newTestService(t, "America/New_York")
	show := seedShow(t, db, "Monday Jazz")
	ctx := context.Background()

	created, err := svc.CreateSlot(ctx, CreateSlotRequest{
		ShowID:      show.ID,
		Start:       nyTime(t, 2025, time.January, 6, 9, 0),
		End:         nyTime(t, 2025, time.January, 6, 10, 0),
		IsRecurring: true,
	})
	if err != nil {
		t.Fatalf("CreateSlot: %v", err)
	}
	if len(created) != SeriesLength {
		t.Fatalf("created %d occurrences, want %d", len(created), SeriesLength)
	}

	ny, _ := time.LoadLocation("America/New_York")
	seriesID := created[0].SeriesID
	if seriesID == nil {
		t.Fatal("recurring slots must carry a series id")
	}
	for i, slot := range created {
		local := slot.StartTime.In(ny)
		if local.Weekday() != time.Monday || local.Hour() != 9 {
			t.Fatalf("occurrence %d local start = %v, want Monday 09:00", i, local)
		}
		if slot.SeriesID == nil || *slot.SeriesID != *seriesID {
			t.Fatalf("occurrence %d series id mismatch", i)
		}
		if slot.OccurrenceIndex != i {
			t.Fatalf("occurrence %d index = %d", i, slot.OccurrenceIndex)
		}
	}

	// Week 9 is past 2025-03-09 spring-forward: UTC hour drops 14 -> 13.
	if created[8].StartTime.Hour() != 14 || created[9].StartTime.Hour() != 13 {
		t.Errorf("UTC hours around DST = %d/%d, want 14/13",
			created[8].StartTime.Hour(), created[9].StartTime.Hour())
	}
}

func TestCreateRecurringSplitPairsPerWeek(t *testing.T) {
	svc, db := newTestService(t, "America/New_York")
	show := seedShow(t, db, "Overnight")

	created, err := svc.CreateSlot(context.Background(), CreateSlotRequest{
		ShowID:      show.ID,
		Start:       nyTime(t, 2025, time.January, 6, 23, 0),
		End:         nyTime(t, 2025, time.January, 7, 2, 0),
		IsRecurring: true,
	})
	if err != nil {
		t.Fatalf("CreateSlot: %v", err)
	}
	if len(created) != 2*SeriesLength {
		t.Fatalf("created %d slots, want %d split halves", len(created), 2*SeriesLength)
	}

	groups := make(map[string]int)
	for _, slot := range created {
		if !slot.IsSplit() {
			t.Fatal("every slot in the series must be half of a pair")
		}
		groups[*slot.SplitGroupID]++
	}
	if len(groups) != SeriesLength {
		t.Fatalf("distinct split groups = %d, want %d", len(groups), SeriesLength)
	}
	for id, n := range groups {
		if n != 2 {
			t.Fatalf("group %s has %d members, want 2", id, n)
		}
	}
}

func TestCreateSlotConflictIsAtomic(t *testing.T) {
	svc, db := newTestService(t, "America/New_York")
	jazz := seedShow(t, db, "Monday Jazz")
	news := seedShow(t, db, "News Hour")
	ctx := context.Background()

	// Occupy week 3 of the would-be series.
	if _, err := svc.CreateSlot(ctx, CreateSlotRequest{
		ShowID: news.ID,
		Start:  nyTime(t, 2025, time.January, 27, 9, 30),
		End:    nyTime(t, 2025, time.January, 27, 10, 30),
	}); err != nil {
		t.Fatalf("seed blocking slot: %v", err)
	}
	before := countSlots(t, db)

	_, err := svc.CreateSlot(ctx, CreateSlotRequest{
		ShowID:      jazz.ID,
		Start:       nyTime(t, 2025, time.January, 6, 9, 0),
		End:         nyTime(t, 2025, time.January, 6, 10, 0),
		IsRecurring: true,
	})
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want ConflictError", err)
	}
	if conflict.Occurrence != 4 {
		t.Errorf("conflict occurrence = %d, want 4 (1-based)", conflict.Occurrence)
	}
	if conflict.ShowTitle != "News Hour" {
		t.Errorf("conflict show = %q, want News Hour", conflict.ShowTitle)
	}

	if after := countSlots(t, db); after != before {
		t.Errorf("slot count %d -> %d: failed batch must write nothing", before, after)
	}
}

func TestBackToBackSlotsDoNotConflict(t *testing.T) {
	svc, db := newTestService(t, "UTC")
	a := seedShow(t, db, "A")
	b := seedShow(t, db, "B")
	ctx := context.Background()

	start := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	if _, err := svc.CreateSlot(ctx, CreateSlotRequest{
		ShowID: a.ID, Start: start, End: start.Add(time.Hour),
	}); err != nil {
		t.Fatalf("first slot: %v", err)
	}
	if _, err := svc.CreateSlot(ctx, CreateSlotRequest{
		ShowID: b.ID, Start: start.Add(time.Hour), End: start.Add(2 * time.Hour),
	}); err != nil {
		t.Errorf("adjacent slot rejected: %v", err)
	}
}

func TestUpdateSlot(t *testing.T) {
	svc, db := newTestService(t, "UTC")
	a := seedShow(t, db, "A")
	b := seedShow(t, db, "B")
	ctx := context.Background()

	start := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	created, err := svc.CreateSlot(ctx, CreateSlotRequest{
		ShowID: a.ID, Start: start, End: start.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.CreateSlot(ctx, CreateSlotRequest{
		ShowID: b.ID, Start: start.Add(2 * time.Hour), End: start.Add(3 * time.Hour),
	}); err != nil {
		t.Fatalf("create blocker: %v", err)
	}

	// Moving onto the other show must conflict.
	_, err = svc.UpdateSlot(ctx, created[0].ID, UpdateSlotRequest{
		Start: start.Add(2 * time.Hour),
		End:   start.Add(4 * time.Hour),
	})
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want ConflictError", err)
	}

	// Moving into free space succeeds, and the slot's own interval
	// never blocks itself.
	updated, err := svc.UpdateSlot(ctx, created[0].ID, UpdateSlotRequest{
		Start: start.Add(30 * time.Minute),
		End:   start.Add(90 * time.Minute),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.StartTime.Equal(start.Add(30 * time.Minute)) {
		t.Errorf("start = %v", updated.StartTime)
	}

	if _, err := svc.UpdateSlot(ctx, uuid.NewString(), UpdateSlotRequest{
		Start: start, End: start.Add(time.Hour),
	}); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown slot err = %v, want ErrNotFound", err)
	}
}

func TestUpdateSlotCannotOverlapSplitSibling(t *testing.T) {
	svc, db := newTestService(t, "America/New_York")
	show := seedShow(t, db, "Overnight")
	ctx := context.Background()

	created, err := svc.CreateSlot(ctx, CreateSlotRequest{
		ShowID: show.ID,
		Start:  nyTime(t, 2025, time.January, 6, 22, 0),
		End:    nyTime(t, 2025, time.January, 7, 1, 0),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("created %d slots, want split pair", len(created))
	}
	first, second := created[0], created[1]

	// Moving the first half past local midnight double-books the
	// second half and must be rejected.
	_, err = svc.UpdateSlot(ctx, first.ID, UpdateSlotRequest{
		Start: nyTime(t, 2025, time.January, 6, 23, 0),
		End:   nyTime(t, 2025, time.January, 7, 0, 30),
	})
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want ConflictError", err)
	}

	var stored models.ScheduleSlot
	if err := db.First(&stored, "id = ?", first.ID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if !stored.StartTime.Equal(first.StartTime) || !stored.EndTime.Equal(first.EndTime) {
		t.Error("rejected update still moved the slot")
	}

	// Shrinking the half so it only touches the sibling at the
	// boundary stays legal: intervals are half-open.
	if _, err := svc.UpdateSlot(ctx, first.ID, UpdateSlotRequest{
		Start: nyTime(t, 2025, time.January, 6, 22, 30),
		End:   second.StartTime,
	}); err != nil {
		t.Fatalf("boundary-touching update rejected: %v", err)
	}
}

func TestCreateRecurringRejectsWeekLongDuration(t *testing.T) {
	svc, db := newTestService(t, "UTC")
	show := seedShow(t, db, "Marathon")

	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	_, err := svc.CreateSlot(context.Background(), CreateSlotRequest{
		ShowID:      show.ID,
		Start:       start,
		End:         start.Add(7 * 24 * time.Hour),
		IsRecurring: true,
	})
	var invalid *ValidationError
	if !errors.As(err, &invalid) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if n := countSlots(t, db); n != 0 {
		t.Errorf("%d slots persisted from rejected request", n)
	}
}

func TestCreateRecurringNearWeekDurationConflictsAcrossDST(t *testing.T) {
	svc, db := newTestService(t, "America/New_York")
	show := seedShow(t, db, "Pledge Week")

	// 6d23h30m is under the duration cap, but the 2025-03-09
	// spring-forward squeezes weekly spacing to an hour less than a
	// week, so occurrence 2 starts before occurrence 1 ends. The
	// collision is between rows of the same unwritten batch.
	_, err := svc.CreateSlot(context.Background(), CreateSlotRequest{
		ShowID:      show.ID,
		Start:       nyTime(t, 2025, time.March, 3, 10, 0),
		End:         nyTime(t, 2025, time.March, 10, 10, 30),
		IsRecurring: true,
	})
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want ConflictError", err)
	}
	if conflict.Occurrence != 2 {
		t.Errorf("conflict occurrence = %d, want 2", conflict.Occurrence)
	}
	if n := countSlots(t, db); n != 0 {
		t.Errorf("%d slots persisted from rejected request", n)
	}
}

func TestListRange(t *testing.T) {
	svc, db := newTestService(t, "UTC")
	show := seedShow(t, db, "A")
	ctx := context.Background()

	start := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	if _, err := svc.CreateSlot(ctx, CreateSlotRequest{
		ShowID: show.ID, Start: start, End: start.Add(time.Hour),
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.ListRange(ctx, start.Add(30*time.Minute), start.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("ListRange: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("intersecting query returned %d slots, want 1", len(got))
	}

	got, err = svc.ListRange(ctx, start.Add(time.Hour), start.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("ListRange: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("half-open boundary query returned %d slots, want 0", len(got))
	}
}
