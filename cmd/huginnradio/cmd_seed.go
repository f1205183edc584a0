/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/friendsincode/huginn_radio/internal/db"
	"github.com/friendsincode/huginn_radio/internal/models"
	"github.com/friendsincode/huginn_radio/internal/schedule"
	"github.com/friendsincode/huginn_radio/internal/station"
)

var seedCmd = &cobra.Command{
	Use:   "import",
	Short: "Import shows and slots from a YAML file",
	Long:  "Load a station definition file (settings, shows, slots) into the database, for bootstrapping a fresh instance",
	RunE:  runSeed,
}

var seedFilePath string

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().StringVar(&seedFilePath, "file", "", "Path to the station YAML file (required)")
	_ = seedCmd.MarkFlagRequired("file")
}

// seedFile is the on-disk bootstrap format.
type seedFile struct {
	Station struct {
		Name      string `yaml:"name"`
		Timezone  string `yaml:"timezone"`
		StreamURL string `yaml:"stream_url"`
	} `yaml:"station"`
	Shows []struct {
		Title            string `yaml:"title"`
		Host             string `yaml:"host"`
		Description      string `yaml:"description"`
		Category         string `yaml:"category"`
		RecordingEnabled bool   `yaml:"recording_enabled"`
		RecordingSource  string `yaml:"recording_source"`
		Slots            []struct {
			Start     time.Time `yaml:"start"`
			End       time.Time `yaml:"end"`
			Recurring bool      `yaml:"recurring"`
			SourceURL string    `yaml:"source_url"`
		} `yaml:"slots"`
	} `yaml:"shows"`
}

func runSeed(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	raw, err := os.ReadFile(seedFilePath)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	database, err := initDatabase()
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	ctx := context.Background()
	stationSvc := station.NewService(database, nil, nil, logger)
	scheduleSvc := schedule.NewService(database, stationSvc, nil, logger)

	if seed.Station.Name != "" || seed.Station.Timezone != "" {
		_, err := stationSvc.UpdateSettings(ctx, seed.Station.Name, seed.Station.Timezone, seed.Station.StreamURL)
		if err != nil {
			return fmt.Errorf("apply station settings: %w", err)
		}
	}

	created := 0
	for _, showDef := range seed.Shows {
		show, err := scheduleSvc.CreateShow(ctx, models.Show{
			Title:            showDef.Title,
			Host:             showDef.Host,
			Description:      showDef.Description,
			Category:         showDef.Category,
			RecordingEnabled: showDef.RecordingEnabled,
			RecordingSource:  showDef.RecordingSource,
		})
		if err != nil {
			return fmt.Errorf("create show %q: %w", showDef.Title, err)
		}

		for _, slotDef := range showDef.Slots {
			req := schedule.CreateSlotRequest{
				ShowID:      show.ID,
				Start:       slotDef.Start,
				End:         slotDef.End,
				IsRecurring: slotDef.Recurring,
			}
			if slotDef.SourceURL != "" {
				src := slotDef.SourceURL
				req.SourceURL = &src
			}
			slots, err := scheduleSvc.CreateSlot(ctx, req)
			if err != nil {
				return fmt.Errorf("create slot for %q: %w", showDef.Title, err)
			}
			created += len(slots)
		}
	}

	logger.Info().Int("shows", len(seed.Shows)).Int("slots", created).Msg("seed complete")
	return nil
}
