/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package logbuffer

import (
	"testing"
	"time"
)

func TestRingEviction(t *testing.T) {
	b := New(3)
	for i, msg := range []string{"one", "two", "three", "four"} {
		b.Add(Entry{Timestamp: time.Unix(int64(i), 0), Message: msg})
	}

	all := b.All()
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}
	if all[0].Message != "two" || all[2].Message != "four" {
		t.Fatalf("unexpected order: %q .. %q", all[0].Message, all[2].Message)
	}
}

func TestQueryFilters(t *testing.T) {
	b := New(10)
	b.Add(Entry{Level: "info", Component: "recorder", Message: "capture started"})
	b.Add(Entry{Level: "error", Component: "recorder", Message: "ffmpeg exited"})
	b.Add(Entry{Level: "info", Component: "schedule", Message: "series extended"})

	got := b.Query(QueryParams{Level: "error"})
	if len(got) != 1 || got[0].Message != "ffmpeg exited" {
		t.Fatalf("level filter: got %+v", got)
	}

	got = b.Query(QueryParams{Component: "recorder"})
	if len(got) != 2 {
		t.Fatalf("component filter: expected 2, got %d", len(got))
	}
	if got[0].Message != "ffmpeg exited" {
		t.Fatalf("expected newest first, got %q", got[0].Message)
	}

	got = b.Query(QueryParams{Search: "EXTENDED"})
	if len(got) != 1 || got[0].Component != "schedule" {
		t.Fatalf("search filter: got %+v", got)
	}

	got = b.Query(QueryParams{Limit: 1})
	if len(got) != 1 {
		t.Fatalf("limit: expected 1, got %d", len(got))
	}
}

func TestWriterCapturesZerologJSON(t *testing.T) {
	b := New(10)
	w := NewWriter(b, nil)

	line := []byte(`{"level":"warn","component":"schedule","time":"2025-01-06T09:30:00Z","show_id":"abc","message":"extension skipped"}`)
	if _, err := w.Write(line); err != nil {
		t.Fatalf("write: %v", err)
	}

	all := b.All()
	if len(all) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(all))
	}
	entry := all[0]
	if entry.Level != "warn" || entry.Component != "schedule" || entry.Message != "extension skipped" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.Fields["show_id"] != "abc" {
		t.Fatalf("expected show_id field, got %+v", entry.Fields)
	}
	if !entry.Timestamp.Equal(time.Date(2025, 1, 6, 9, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected timestamp: %v", entry.Timestamp)
	}

	if comps := b.Components(); len(comps) != 1 || comps[0] != "schedule" {
		t.Fatalf("components: %v", comps)
	}
	stats := b.Stats()
	if stats.Count != 1 || stats.LevelCount["warn"] != 1 {
		t.Fatalf("stats: %+v", stats)
	}
}
