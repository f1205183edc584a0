/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/friendsincode/huginn_radio/internal/logbuffer"
)

// Setup configures zerolog for the process. When capture is non-nil,
// every entry is also retained in the ring buffer for the logs API.
func Setup(environment string, capture *logbuffer.Buffer) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level := zerolog.InfoLevel
	if environment == "development" {
		level = zerolog.DebugLevel
	}

	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stdout}
	if capture != nil {
		out = logbuffer.NewWriter(capture, out)
	}

	logger := zerolog.New(out).
		With().Timestamp().Logger().Level(level)
	log.Logger = logger
	return logger
}
