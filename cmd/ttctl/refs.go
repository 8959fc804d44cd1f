package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sma-timetable-portal/internal/grid"
)

const minSearchRunes = 2

func newGroupsCmd(a *app) *cobra.Command {
	var activeOnly bool
	cmd := &cobra.Command{
		Use:   "groups",
		Short: "List study groups with their ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			groups, err := a.client.Groups(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tКод\tНазвание")
			for _, g := range groups {
				if activeOnly && !g.Active {
					continue
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\n", g.ID, g.Code, g.Name)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&activeOnly, "active", false, "only active groups")
	return cmd
}

func newSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search lecturers, groups, disciplines, rooms and buildings",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := strings.TrimSpace(strings.Join(args, " "))
			if utf8.RuneCountInString(q) < minSearchRunes {
				return fmt.Errorf("query must be at least %d characters", minSearchRunes)
			}
			res, err := a.client.Search(cmd.Context(), q)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if res.Total() == 0 {
				fmt.Fprintln(out, "Ничего не найдено")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for _, l := range res.Lecturers {
				fmt.Fprintf(tw, "lecturer\t%d\t%s\n", l.ID, l.FIO)
			}
			for _, g := range res.Groups {
				fmt.Fprintf(tw, "group\t%d\t%s\n", g.ID, g.Code)
			}
			for _, d := range res.Disciplines {
				fmt.Fprintf(tw, "discipline\t%d\t%s\n", d.ID, d.Name)
			}
			for _, r := range res.Rooms {
				label := r.Number
				if r.Building != nil {
					label += ", " + r.Building.Name
				}
				fmt.Fprintf(tw, "room\t%d\t%s\n", r.ID, label)
			}
			for _, b := range res.Buildings {
				fmt.Fprintf(tw, "building\t%d\t%s\n", b.ID, b.Name)
			}
			return tw.Flush()
		},
	}
}

func newPeriodsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "periods",
		Short: "Print the bell schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, p := range a.periods {
				fmt.Fprintf(cmd.OutOrStdout(), "%d  %s\n", p.Number, grid.TimeRange(p.Start, p.End))
			}
			return nil
		},
	}
}
