package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/DoyleJ11/veto-backend/internal/engine"
	"github.com/DoyleJ11/veto-backend/internal/store"
	"github.com/DoyleJ11/veto-backend/internal/types"
)

var (
	banColor  = color.New(color.FgRed)
	pickColor = color.New(color.FgGreen)
	turnColor = color.New(color.FgYellow, color.Bold)
	dimColor  = color.New(color.Faint)
)

func ok() string { return pickColor.Sprint("✓") }

func SeriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "series",
		Short: "Create and inspect veto series",
	}
	cmd.AddCommand(seriesCreateCmd(), seriesListCmd(), seriesShowCmd())
	return cmd
}

func seriesCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create [team-a] [team-b]",
		Short: "Create a series in IDLE",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			var teamA, teamB string
			if len(args) > 0 {
				teamA = args[0]
			}
			if len(args) > 1 {
				teamB = args[1]
			}
			s, err := store.NewSeriesStore(e.db, e.cfg.SlayerMode).Create(cmd.Context(), teamA, teamB)
			if err != nil {
				return fmt.Errorf("failed to create series: %w", err)
			}
			fmt.Printf("%s Created series %d: %s vs %s\n", ok(), s.ID, s.TeamA, s.TeamB)
			fmt.Printf("  Join code: %s\n", turnColor.Sprint(s.Code))
			return nil
		},
	}
}

func seriesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List series, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			all, err := store.NewSeriesStore(e.db, e.cfg.SlayerMode).List(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list series: %w", err)
			}
			if len(all) == 0 {
				fmt.Println("No series found")
				return nil
			}

			fmt.Printf("\n%-6s %-8s %-17s %-5s %s\n", "ID", "CODE", "STATE", "TYPE", "TEAMS")
			fmt.Println("──────────────────────────────────────────────────────────────")
			for _, s := range all {
				seriesType := string(s.SeriesType)
				if seriesType == "" {
					seriesType = "-"
				}
				fmt.Printf("%-6d %-8s %-17s %-5s %s vs %s\n", s.ID, s.Code, s.State, seriesType, s.TeamA, s.TeamB)
			}
			fmt.Println()
			return nil
		},
	}
}

func seriesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id-or-code]",
		Short: "Show a series' rounds, bans and next turn",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			st := store.NewSeriesStore(e.db, e.cfg.SlayerMode)
			var s engine.Series
			if id, perr := strconv.ParseUint(args[0], 10, 64); perr == nil {
				s, err = st.Get(cmd.Context(), uint(id))
			} else {
				s, err = st.GetByCode(cmd.Context(), args[0])
			}
			if errors.Is(err, store.ErrSeriesNotFound) {
				return fmt.Errorf("series %q not found", args[0])
			}
			if err != nil {
				return err
			}
			cat, err := st.Catalog(cmd.Context())
			if err != nil {
				return err
			}
			renderSeries(os.Stdout, types.NewSeriesView(s, cat))
			return nil
		},
	}
}

func renderSeries(w io.Writer, v types.SeriesView) {
	fmt.Fprintf(w, "\nSeries %d (%s): %s vs %s\n", v.ID, v.Code, v.TeamA, v.TeamB)
	fmt.Fprintf(w, "  State: %s", v.State)
	if v.SeriesType != "" {
		fmt.Fprintf(w, "  Format: %s (%s)", v.SeriesType, v.Ruleset)
	}
	fmt.Fprintln(w)
	if v.Turn != nil {
		fmt.Fprintf(w, "  Next: %s\n", turnColor.Sprintf("%s (%s) %s %s", v.Turn.TeamName, v.Turn.Team, v.Turn.Action, v.Turn.Kind))
	}

	if len(v.Bans) > 0 {
		fmt.Fprintln(w, "\n  Bans:")
		for _, b := range v.Bans {
			target := b.Map
			if b.ObjectiveMode != "" {
				target = b.Map + " " + b.ObjectiveMode
			}
			fmt.Fprintf(w, "    %d. %s %s\n", b.StepIndex+1, team(v, b.ByTeam), banColor.Sprint(target))
		}
	}

	if len(v.Rounds) > 0 {
		fmt.Fprintln(w, "\n  Rounds:")
		for _, r := range v.Rounds {
			pick := dimColor.Sprint("(open)")
			if r.Map != "" {
				pick = pickColor.Sprint(r.Map + " " + r.Mode)
			}
			fmt.Fprintf(w, "    Game %d  %-9s %-14s %s\n", r.Order+1, r.SlotType, team(v, r.PickedBy), pick)
		}
	}
	fmt.Fprintln(w)
}

func team(v types.SeriesView, t engine.Team) string {
	switch t {
	case engine.TeamA:
		return v.TeamA
	case engine.TeamB:
		return v.TeamB
	default:
		return "-"
	}
}
