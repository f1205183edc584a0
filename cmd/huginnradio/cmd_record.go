/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/friendsincode/huginn_radio/internal/events"
	"github.com/friendsincode/huginn_radio/internal/recorder"
	"github.com/friendsincode/huginn_radio/internal/station"
	"github.com/friendsincode/huginn_radio/internal/storage"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Run the recorder supervisor standalone",
	Long:  "Run only the capture supervisor against the shared database, for deployments that record on a separate host from the API",
	RunE:  runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)
}

func runRecord(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	database, err := initDatabase()
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	var archive storage.ObjectStore
	if cfg.S3Bucket != "" {
		archive, err = storage.NewS3Store(context.Background(), storage.S3Config{
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			Endpoint:        cfg.S3Endpoint,
			UsePathStyle:    cfg.S3UsePathStyle,
		})
		if err != nil {
			return fmt.Errorf("init s3 archive: %w", err)
		}
	} else {
		archive, err = storage.NewFSStore(cfg.RecordingsRoot + "/archive")
		if err != nil {
			return fmt.Errorf("init archive: %w", err)
		}
	}

	bus := events.NewBus()
	if cfg.NATSURL != "" {
		bridge, err := events.NewNATSBridge(cfg.NATSURL, bus, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("NATS unavailable, events stay in-process")
		} else {
			defer bridge.Close()
		}
	}

	stationSvc := station.NewService(database, nil, bus, logger)
	supervisor := recorder.NewSupervisor(
		database,
		stationSvc,
		archive,
		bus,
		recorder.NewFFmpegLauncher(cfg.FFmpegBin),
		recorder.NewFFprobeProber(cfg.FFprobeBin),
		recorder.Options{
			Poll:           cfg.RecorderPoll,
			StopGrace:      cfg.StopGracePeriod,
			ShutdownDrain:  cfg.ShutdownDrain,
			RecordingsRoot: cfg.RecordingsRoot,
		},
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info().Msg("stopping recorder...")
		cancel()
	}()

	err = supervisor.Run(ctx)
	if err == context.Canceled {
		return nil
	}
	return err
}
