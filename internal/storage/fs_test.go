/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package storage

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestFSStoreRoundTrip(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	ctx := context.Background()

	body := "capture bytes"
	if err := store.Put(ctx, "2025/01/show.mp3", strings.NewReader(body), int64(len(body)), "audio/mpeg"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	rc, err := store.Get(ctx, "2025/01/show.mp3")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer rc.Close()
	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != body {
		t.Errorf("round trip = %q, want %q", got, body)
	}

	if err := store.Delete(ctx, "2025/01/show.mp3"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, "2025/01/show.mp3"); err != nil {
		t.Errorf("second delete must be a no-op, got %v", err)
	}
	if _, err := store.Get(ctx, "2025/01/show.mp3"); err == nil {
		t.Error("Get after delete should fail")
	}
}

func TestFSStoreRejectsTraversal(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}

	err = store.Put(context.Background(), "../escape.mp3", strings.NewReader("x"), 1, "audio/mpeg")
	if err == nil {
		t.Error("traversal key must be rejected")
	}
}
