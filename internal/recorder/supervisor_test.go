/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package recorder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/friendsincode/huginn_radio/internal/models"
	"github.com/friendsincode/huginn_radio/internal/station"
)

type fakeProcess struct {
	done      chan error
	requested bool
}

func newFakeProcess() *fakeProcess {
	return &fakeProcess{done: make(chan error, 1)}
}

func (p *fakeProcess) Done() <-chan error       { return p.done }
func (p *fakeProcess) StopRequested() bool      { return p.requested }
func (p *fakeProcess) Stop(grace time.Duration) { p.requested = true }

type fakeLauncher struct {
	proc      *fakeProcess
	launchErr error

	gotSource string
	gotPath   string
	launches  int
}

func (l *fakeLauncher) Launch(ctx context.Context, sourceURL, destPath string) (Process, error) {
	l.launches++
	l.gotSource = sourceURL
	l.gotPath = destPath
	if l.launchErr != nil {
		return nil, l.launchErr
	}
	// Simulate captured bytes so completion has something to stat.
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(destPath, []byte("audio-bytes"), 0o644); err != nil {
		return nil, err
	}
	return l.proc, nil
}

type fakeProber struct {
	duration time.Duration
	err      error
}

func (p *fakeProber) Duration(ctx context.Context, path string) (time.Duration, error) {
	return p.duration, p.err
}

type fixture struct {
	sup      *Supervisor
	db       *gorm.DB
	launcher *fakeLauncher
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(&models.StationSettings{}, &models.Show{}, &models.ScheduleSlot{},
		&models.Recording{}, &models.Episode{})
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.Create(&models.StationSettings{
		ID:        uuid.NewString(),
		Timezone:  "UTC",
		StreamURL: "http://station.example/stream",
	}).Error; err != nil {
		t.Fatalf("seed settings: %v", err)
	}

	launcher := &fakeLauncher{proc: newFakeProcess()}
	st := station.NewService(db, nil, nil, zerolog.Nop())
	sup := NewSupervisor(db, st, nil, nil, launcher, &fakeProber{duration: 42 * time.Minute},
		Options{RecordingsRoot: t.TempDir()}, zerolog.Nop())

	f := &fixture{
		sup:      sup,
		db:       db,
		launcher: launcher,
		now:      time.Date(2025, 1, 6, 9, 30, 0, 0, time.UTC),
	}
	sup.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) seedLiveSlot(t *testing.T, enabled bool, sourceURL *string) models.ScheduleSlot {
	t.Helper()
	show := models.Show{
		ID:               uuid.NewString(),
		Title:            "Morning Drive",
		RecordingEnabled: enabled,
	}
	if err := f.db.Create(&show).Error; err != nil {
		t.Fatalf("seed show: %v", err)
	}
	slot := models.ScheduleSlot{
		ID:        uuid.NewString(),
		ShowID:    show.ID,
		StartTime: f.now.Add(-30 * time.Minute),
		EndTime:   f.now.Add(30 * time.Minute),
		SourceURL: sourceURL,
	}
	if err := f.db.Create(&slot).Error; err != nil {
		t.Fatalf("seed slot: %v", err)
	}
	return slot
}

func (f *fixture) recording(t *testing.T, slotID string) models.Recording {
	t.Helper()
	var rec models.Recording
	if err := f.db.First(&rec, "slot_id = ?", slotID).Error; err != nil {
		t.Fatalf("load recording: %v", err)
	}
	return rec
}

func TestTickStartsCaptureForLiveSlot(t *testing.T) {
	f := newFixture(t)
	src := "http://direct.example/feed"
	slot := f.seedLiveSlot(t, true, &src)

	f.sup.tick(context.Background())

	if f.launcher.launches != 1 {
		t.Fatalf("launches = %d, want 1", f.launcher.launches)
	}
	if f.launcher.gotSource != src {
		t.Errorf("source = %q, want slot override", f.launcher.gotSource)
	}
	if f.sup.controllers[slot.ID] == nil {
		t.Fatal("no controller registered for slot")
	}
	if rec := f.recording(t, slot.ID); rec.Status != models.RecordingActive {
		t.Errorf("status = %s, want RECORDING", rec.Status)
	}

	// A second tick while running must not double-start.
	f.sup.tick(context.Background())
	if f.launcher.launches != 1 {
		t.Errorf("second tick launched again: %d", f.launcher.launches)
	}
}

func TestTickIgnoresRecordingDisabledShows(t *testing.T) {
	f := newFixture(t)
	f.seedLiveSlot(t, false, nil)

	f.sup.tick(context.Background())
	if f.launcher.launches != 0 {
		t.Errorf("launched %d captures for a disabled show", f.launcher.launches)
	}
}

func TestSourceResolutionPrecedence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slotSrc := "http://slot.example"

	slot := models.ScheduleSlot{SourceURL: &slotSrc}
	show := models.Show{RecordingSource: "http://show.example"}

	if got := f.sup.resolveSource(ctx, slot, show); got != slotSrc {
		t.Errorf("slot override lost: %q", got)
	}
	slot.SourceURL = nil
	if got := f.sup.resolveSource(ctx, slot, show); got != "http://show.example" {
		t.Errorf("show default lost: %q", got)
	}
	show.RecordingSource = ""
	if got := f.sup.resolveSource(ctx, slot, show); got != "http://station.example/stream" {
		t.Errorf("station fallback lost: %q", got)
	}
}

func TestNoSourceMarksFailedAndAbandons(t *testing.T) {
	f := newFixture(t)
	if err := f.db.Model(&models.StationSettings{}).Where("1 = 1").
		Update("stream_url", "").Error; err != nil {
		t.Fatalf("clear stream url: %v", err)
	}
	slot := f.seedLiveSlot(t, true, nil)

	f.sup.tick(context.Background())

	if f.launcher.launches != 0 {
		t.Error("launch attempted without a source")
	}
	if rec := f.recording(t, slot.ID); rec.Status != models.RecordingFailed {
		t.Errorf("status = %s, want FAILED", rec.Status)
	}
	if !f.sup.abandoned[slot.ID] {
		t.Error("slot not abandoned; next tick would retry forever")
	}
}

func TestExistingRecordingRowBlocksRestart(t *testing.T) {
	f := newFixture(t)
	slot := f.seedLiveSlot(t, true, nil)

	// A previous attempt already claimed this slot.
	if err := f.db.Create(&models.Recording{
		ID:     uuid.NewString(),
		SlotID: slot.ID,
		ShowID: slot.ShowID,
		Status: models.RecordingFailed,
	}).Error; err != nil {
		t.Fatalf("seed prior recording: %v", err)
	}

	f.sup.tick(context.Background())
	if f.launcher.launches != 0 {
		t.Error("claimed slot was captured again")
	}
}

func TestSlotEndStopsProcessAndCompletes(t *testing.T) {
	f := newFixture(t)
	slot := f.seedLiveSlot(t, true, nil)

	f.sup.tick(context.Background())
	if f.sup.controllers[slot.ID] == nil {
		t.Fatal("capture did not start")
	}

	// Cross the slot boundary; the next tick must request a stop.
	f.now = slot.EndTime.Add(time.Second)
	f.sup.tick(context.Background())
	if !f.launcher.proc.requested {
		t.Fatal("process was not stopped at slot end")
	}

	// ffmpeg reports SIGTERM as an error; a requested stop still
	// finalizes as completed.
	f.sup.handleExit(context.Background(), exitEvent{
		slotID: slot.ID,
		err:    errors.New("exit status 255"),
	})

	rec := f.recording(t, slot.ID)
	if rec.Status != models.RecordingCompleted {
		t.Fatalf("status = %s, want COMPLETED", rec.Status)
	}
	if rec.SizeBytes == 0 {
		t.Error("size not recorded")
	}
	if rec.DurationSeconds != (42 * time.Minute).Seconds() {
		t.Errorf("duration = %v, want probed 42m", rec.DurationSeconds)
	}
	if rec.EndedAt == nil {
		t.Error("ended_at not set")
	}

	var episode models.Episode
	if err := f.db.First(&episode, "recording_id = ?", rec.ID).Error; err != nil {
		t.Fatalf("episode not created: %v", err)
	}
	if episode.AudioPath != rec.FilePath {
		t.Errorf("episode audio = %q, recording file = %q", episode.AudioPath, rec.FilePath)
	}

	if f.sup.controllers[slot.ID] != nil {
		t.Error("controller leaked after completion")
	}
}

func TestUnexpectedExitMarksFailed(t *testing.T) {
	f := newFixture(t)
	slot := f.seedLiveSlot(t, true, nil)

	f.sup.tick(context.Background())
	f.sup.handleExit(context.Background(), exitEvent{
		slotID: slot.ID,
		err:    errors.New("connection reset"),
	})

	rec := f.recording(t, slot.ID)
	if rec.Status != models.RecordingFailed {
		t.Fatalf("status = %s, want FAILED", rec.Status)
	}
	if rec.Error == "" {
		t.Error("failure reason not recorded")
	}

	var episodes int64
	f.db.Model(&models.Episode{}).Count(&episodes)
	if episodes != 0 {
		t.Error("failed capture must not publish an episode")
	}
}

func TestProbeFailureFallsBackToWallClock(t *testing.T) {
	f := newFixture(t)
	f.sup.prober = &fakeProber{err: errors.New("unreadable")}
	slot := f.seedLiveSlot(t, true, nil)

	f.sup.tick(context.Background())
	started := f.now
	f.now = started.Add(25 * time.Minute)
	f.launcher.proc.requested = true
	f.sup.handleExit(context.Background(), exitEvent{slotID: slot.ID})

	rec := f.recording(t, slot.ID)
	if rec.Status != models.RecordingCompleted {
		t.Fatalf("status = %s, want COMPLETED", rec.Status)
	}
	if rec.DurationSeconds != (25 * time.Minute).Seconds() {
		t.Errorf("duration = %v, want wall-clock 25m", rec.DurationSeconds)
	}
}

// hangingLauncher hands out a fresh process per launch; none of them
// exit until the test says so.
type hangingLauncher struct {
	procs []*fakeProcess
}

func (l *hangingLauncher) Launch(ctx context.Context, sourceURL, destPath string) (Process, error) {
	p := newFakeProcess()
	l.procs = append(l.procs, p)
	return p, nil
}

func TestDrainTimeoutReleasesExitForwarders(t *testing.T) {
	f := newFixture(t)
	launcher := &hangingLauncher{}
	f.sup.launcher = launcher
	f.sup.opts.StopGrace = time.Millisecond
	f.sup.opts.ShutdownDrain = 20 * time.Millisecond

	// More captures than the exits buffer holds.
	n := cap(f.sup.exits) + 4
	for i := 0; i < n; i++ {
		f.seedLiveSlot(t, true, nil)
	}

	before := runtime.NumGoroutine()
	f.sup.tick(context.Background())
	if len(launcher.procs) != n {
		t.Fatalf("launched %d captures, want %d", len(launcher.procs), n)
	}

	f.sup.drain()

	// Nothing exited before the deadline, so every row is failed.
	var failed int64
	f.db.Model(&models.Recording{}).
		Where("status = ?", models.RecordingFailed).Count(&failed)
	if failed != int64(n) {
		t.Fatalf("failed rows after drain = %d, want %d", failed, n)
	}

	// The late exits outnumber the buffer; each forwarder must still
	// terminate instead of blocking on the send forever.
	for _, p := range launcher.procs {
		p.done <- errors.New("killed during shutdown")
	}
	deadline := time.Now().Add(2 * time.Second)
	for runtime.NumGoroutine() > before && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := runtime.NumGoroutine(); got > before {
		t.Errorf("%d exit forwarders still running after drain", got-before)
	}
}

func TestRecoverInterrupted(t *testing.T) {
	f := newFixture(t)
	stale := models.Recording{
		ID:     uuid.NewString(),
		SlotID: uuid.NewString(),
		ShowID: uuid.NewString(),
		Status: models.RecordingActive,
	}
	if err := f.db.Create(&stale).Error; err != nil {
		t.Fatalf("seed stale recording: %v", err)
	}

	if err := f.sup.recoverInterrupted(context.Background()); err != nil {
		t.Fatalf("recoverInterrupted: %v", err)
	}

	var rec models.Recording
	if err := f.db.First(&rec, "id = ?", stale.ID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if rec.Status != models.RecordingFailed {
		t.Errorf("status = %s, want FAILED", rec.Status)
	}
	if rec.Error == "" {
		t.Error("interruption reason not recorded")
	}
}
