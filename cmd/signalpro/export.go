package main

import (
	"context"
	"fmt"
	"time"

	"github.com/newthinker/signalpro/internal/export"
	"github.com/newthinker/signalpro/internal/logger"
	"github.com/newthinker/signalpro/internal/storage/archive"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a JSON report to the configured archive",
	RunE:  runExport,
}

var (
	exportTicks int
	exportList  bool
)

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().IntVar(&exportTicks, "ticks", 0, "refresh ticks to apply before exporting")
	exportCmd.Flags().BoolVar(&exportList, "list", false, "list archived reports instead of exporting")
}

func runExport(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	store, err := archive.New(cfg.Archive)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}

	sess, err := newSession(cfg, log)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	defer sess.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	exporter := export.NewExporter(sess, store, export.WithLogger(log), export.WithRetention(cfg.Archive.Retain))

	if exportList {
		paths, err := exporter.Reports(ctx)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		return nil
	}

	for i := 0; i < exportTicks; i++ {
		if _, err := sess.Tick(); err != nil {
			return err
		}
	}

	path, err := exporter.Export(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Report written to %s (%s)\n", path, cfg.Archive.Type)
	return nil
}
