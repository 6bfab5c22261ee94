package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"gifsprite/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent add runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				if store == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "History is disabled (history.enabled = false)")
					return nil
				}
				runs, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					if runs == nil {
						runs = []history.Run{}
					}
					return writeJSON(cmd, runs)
				}
				if len(runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						run.CreatedAt.Local().Format(time.DateTime),
						run.SpriteName,
						filepath.Base(run.ArchivePath),
						filepath.Base(run.AnimationPath),
						strconv.Itoa(run.Anchor),
						strconv.Itoa(run.Frames),
						strconv.Itoa(run.AssetsWritten),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{
					{title: "When"},
					{title: "Sprite"},
					{title: "Project"},
					{title: "Animation"},
					{title: "Anchor", right: true},
					{title: "Frames", right: true},
					{title: "New Assets", right: true},
				}, rows))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", history.DefaultLimit, "Maximum number of runs to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
