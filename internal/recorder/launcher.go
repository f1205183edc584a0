/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package recorder supervises stream capture for scheduled slots. A
// polling loop starts an ffmpeg process when a recording-enabled slot
// goes live, stops it at the slot boundary, and finalizes the capture
// into a recording row plus a publishable episode.
package recorder

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"
)

// Process is a running capture. Done delivers the process exit exactly
// once; Stop requests a clean shutdown (SIGTERM, then SIGKILL after the
// grace period).
type Process interface {
	Done() <-chan error
	Stop(grace time.Duration)
	StopRequested() bool
}

// Launcher starts capture processes.
type Launcher interface {
	Launch(ctx context.Context, sourceURL, destPath string) (Process, error)
}

// FFmpegLauncher captures a stream URL to a file by remuxing it with
// ffmpeg. The codec is copied, not transcoded, so capture cost is I/O
// bound.
type FFmpegLauncher struct {
	Bin string
}

// NewFFmpegLauncher creates a launcher using the given ffmpeg binary.
func NewFFmpegLauncher(bin string) *FFmpegLauncher {
	if bin == "" {
		bin = "ffmpeg"
	}
	return &FFmpegLauncher{Bin: bin}
}

// Launch starts the capture process and begins draining its exit.
func (l *FFmpegLauncher) Launch(ctx context.Context, sourceURL, destPath string) (Process, error) {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return nil, fmt.Errorf("create capture dir: %w", err)
	}

	cmd := exec.Command(l.Bin,
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-i", sourceURL,
		"-c", "copy",
		destPath,
	)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	p := &ffmpegProcess{
		cmd:    cmd,
		done:   make(chan error, 1),
		exited: make(chan struct{}),
	}
	go func() {
		err := cmd.Wait()
		close(p.exited)
		p.done <- err
	}()
	return p, nil
}

type ffmpegProcess struct {
	cmd       *exec.Cmd
	done      chan error
	exited    chan struct{}
	requested atomic.Bool
}

func (p *ffmpegProcess) Done() <-chan error { return p.done }

func (p *ffmpegProcess) StopRequested() bool { return p.requested.Load() }

// Stop sends SIGTERM so ffmpeg can flush trailers, then SIGKILL if the
// process outlives the grace period. ffmpeg exits non-zero on SIGTERM;
// the requested flag lets the supervisor treat that as a clean stop.
func (p *ffmpegProcess) Stop(grace time.Duration) {
	if !p.requested.CompareAndSwap(false, true) {
		return
	}
	if p.cmd.Process == nil {
		return
	}
	_ = p.cmd.Process.Signal(syscall.SIGTERM)

	go func() {
		timer := time.NewTimer(grace)
		defer timer.Stop()
		select {
		case <-timer.C:
			_ = p.cmd.Process.Kill()
		case <-p.exited:
		}
	}()
}
