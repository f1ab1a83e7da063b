package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ykvlv/prayer-bot/internal/app"
	"github.com/ykvlv/prayer-bot/internal/clock"
	"github.com/ykvlv/prayer-bot/internal/domain"
	"github.com/ykvlv/prayer-bot/internal/timetable"
)

func newTimetableCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "timetable",
		Short: "Print one day of the configured timetable",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			day := time.Now().In(loc)
			if date != "" {
				day, err = time.ParseInLocation(time.DateOnly, date, loc)
				if err != nil {
					return fmt.Errorf("bad --date %q: %w", date, err)
				}
			}

			cache := timetable.NewCache(app.NewSource(cfg, log), clock.Real(), log)
			tt, err := cache.Get(cmd.Context(), day)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", day.Format(time.DateOnly), loc)
			for _, ev := range domain.Events() {
				fmt.Fprintf(out, "%-8s %s\n", ev, tt.Times[ev])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to print, YYYY-MM-DD (default today)")
	return cmd
}
