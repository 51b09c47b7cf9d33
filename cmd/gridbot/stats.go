package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"gridbot/internal/analytics"
	"gridbot/internal/config"
	"gridbot/internal/storage"
)

func newStatsCmd(envFile *string) *cobra.Command {
	var (
		logPath string
		date    string
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize one day of recorded turns",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if logPath == "" {
				cfg, err := config.Load(*envFile)
				if err != nil {
					return err
				}
				logPath = cfg.TurnLogPath
			}
			day := time.Now().UTC()
			if date != "" {
				d, err := time.Parse(time.DateOnly, date)
				if err != nil {
					return fmt.Errorf("invalid --date %q, want YYYY-MM-DD: %w", date, err)
				}
				day = d
			}

			rec, err := storage.NewFileRecorder(logPath)
			if err != nil {
				return err
			}
			events, err := rec.LoadTurns()
			if err != nil {
				return err
			}
			stats := analytics.AnalyzeDailyTurns(events, day)

			if asJSON {
				out, err := stats.ToJSON()
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), stats.Summary())
			return err
		},
	}
	cmd.Flags().StringVar(&logPath, "log", "", "turn log to read (defaults to TURN_LOG_PATH)")
	cmd.Flags().StringVar(&date, "date", "", "UTC day to summarize as YYYY-MM-DD (defaults to today)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of text")
	return cmd
}
