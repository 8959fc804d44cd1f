package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sma-timetable-portal/internal/filters"
	"github.com/noah-isme/sma-timetable-portal/internal/grid"
	"github.com/noah-isme/sma-timetable-portal/internal/timetable"
	"github.com/noah-isme/sma-timetable-portal/internal/week"
)

type weekOptions struct {
	date   string
	offset int
	view   string
	ids    map[filters.Dimension]*int64
}

func newWeekCmd(a *app) *cobra.Command {
	opts := weekOptions{ids: map[filters.Dimension]*int64{}}
	cmd := &cobra.Command{
		Use:   "week",
		Short: "Print the timetable of one week",
		Example: `  ttctl week --group 42
  ttctl week --date 2025-03-12 --lecturer 7 --view mobile
  ttctl week --offset 1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := opts.store(time.Now, a)
			if err != nil {
				return err
			}
			state := store.State()

			feed := timetable.NewFeed(a.client, timetable.FeedConfig{
				Retries:    a.cfg.API.Retries,
				RetryDelay: a.cfg.API.RetryDelay,
				Logger:     a.logger,
			})
			snap := feed.Load(cmd.Context(), state)
			if snap.Status == timetable.StatusError {
				return fmt.Errorf("load %s: %w", state.Week(), snap.Err)
			}

			g := grid.BuildWith(a.periods, snap.Events, state.WeekStart, a.logger)
			g.MarkToday(time.Now())

			viewport, ok := grid.ParseViewport(opts.view)
			if !ok {
				return fmt.Errorf("unknown view %q", opts.view)
			}
			return render(cmd.OutOrStdout(), g, viewport.Layout())
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.date, "date", "", "any date inside the week, YYYY-MM-DD (defaults to today)")
	flags.IntVar(&opts.offset, "offset", 0, "weeks to move from --date, negative for earlier weeks")
	flags.StringVar(&opts.view, "view", string(grid.ViewportDesktop), "desktop prints a table, mobile a day list")
	for _, d := range []struct {
		dim  filters.Dimension
		name string
	}{
		{filters.DimensionGroup, "group"},
		{filters.DimensionLecturer, "lecturer"},
		{filters.DimensionRoom, "room"},
		{filters.DimensionBuilding, "building"},
		{filters.DimensionStream, "stream"},
		{filters.DimensionWorkKind, "work-kind"},
	} {
		opts.ids[d.dim] = flags.Int64(d.name, 0, d.name+" id")
	}
	return cmd
}

// store applies the flags to a fresh filter store.
func (o weekOptions) store(clock filters.Clock, a *app) (*filters.Store, error) {
	store := filters.NewStore(clock, a.logger)
	if o.date != "" {
		date, err := week.ParseDate(o.date)
		if err != nil {
			return nil, fmt.Errorf("invalid --date %q: %w", o.date, err)
		}
		store.SetWeekDate(date)
	}
	for i := 0; i < o.offset; i++ {
		store.NextWeek()
	}
	for i := 0; i > o.offset; i-- {
		store.PrevWeek()
	}
	for dim, id := range o.ids {
		if id != nil && *id > 0 {
			if err := store.Set(dim, *id); err != nil {
				return nil, err
			}
		}
	}
	return store, nil
}
