/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"testing"
	"time"
)

func TestLoadRequiresDSN(t *testing.T) {
	t.Setenv("HUGINN_DB_DSN", "")
	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail without HUGINN_DB_DSN")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HUGINN_DB_DSN", "file::memory:?cache=shared")
	t.Setenv("HUGINN_DB_BACKEND", "sqlite")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.HTTPPort != 8080 {
		t.Errorf("HTTPPort = %d, want 8080", cfg.HTTPPort)
	}
	if cfg.RecorderPoll != 10*time.Second {
		t.Errorf("RecorderPoll = %v, want 10s", cfg.RecorderPoll)
	}
	if cfg.ExtensionHorizon != 28*24*time.Hour {
		t.Errorf("ExtensionHorizon = %v, want 4 weeks", cfg.ExtensionHorizon)
	}
	if cfg.FFmpegBin != "ffmpeg" {
		t.Errorf("FFmpegBin = %q, want ffmpeg", cfg.FFmpegBin)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("HUGINN_DB_DSN", "dsn")
	t.Setenv("HUGINN_DB_BACKEND", "oracle")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject unknown database backend")
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name  string
		value string
		def   bool
		want  bool
	}{
		{"true string", "true", false, true},
		{"numeric one", "1", false, true},
		{"yes", "yes", false, true},
		{"false string", "false", true, false},
		{"zero", "0", true, false},
		{"garbage falls back", "maybe", true, true},
		{"unset falls back", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HUGINN_TEST_BOOL", tt.value)
			if got := getEnvBool("HUGINN_TEST_BOOL", tt.def); got != tt.want {
				t.Errorf("getEnvBool(%q, %v) = %v, want %v", tt.value, tt.def, got, tt.want)
			}
		})
	}
}
