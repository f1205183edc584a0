/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package recorder

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Prober measures the playable duration of a capture file.
type Prober interface {
	Duration(ctx context.Context, path string) (time.Duration, error)
}

// FFprobeProber asks ffprobe for the container duration.
type FFprobeProber struct {
	Bin string
}

// NewFFprobeProber creates a prober using the given ffprobe binary.
func NewFFprobeProber(bin string) *FFprobeProber {
	if bin == "" {
		bin = "ffprobe"
	}
	return &FFprobeProber{Bin: bin}
}

// Duration probes the file. Callers fall back to the wall-clock span of
// the capture when probing fails; a truncated file is still publishable.
func (p *FFprobeProber) Duration(ctx context.Context, path string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, p.Bin,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	seconds, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse ffprobe output %q: %w", strings.TrimSpace(string(out)), err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}
