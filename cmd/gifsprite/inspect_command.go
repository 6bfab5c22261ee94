package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"gifsprite/internal/sb3"
)

type inspectTarget struct {
	Name     string `json:"name"`
	IsStage  bool   `json:"isStage"`
	Costumes int    `json:"costumes"`
}

type inspectOutput struct {
	Archive string          `json:"archive"`
	Entries int             `json:"entries"`
	Targets []inspectTarget `json:"targets"`
	Missing []string        `json:"missing"`
}

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "inspect <project.sb3>",
		Short: "List a project's targets and report missing costume assets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := sb3.Open(args[0])
			if err != nil {
				return err
			}
			defer archive.Close()

			manifest, err := archive.Manifest()
			if err != nil {
				return err
			}
			targets, err := manifest.DecodeTargets()
			if err != nil {
				return err
			}

			report := inspectOutput{
				Archive: archive.Path(),
				Entries: len(archive.Names()),
				Targets: make([]inspectTarget, 0, len(targets)),
				Missing: archive.MissingAssets(targets),
			}
			for _, t := range targets {
				report.Targets = append(report.Targets, inspectTarget{
					Name:     t.Name,
					IsStage:  t.IsStage,
					Costumes: len(t.Costumes),
				})
			}
			if report.Missing == nil {
				report.Missing = []string{}
			}

			if jsonOutput {
				return writeJSON(cmd, report)
			}
			printInspectReport(cmd, report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func printInspectReport(cmd *cobra.Command, report inspectOutput) {
	out := cmd.OutOrStdout()
	status := newStatusPrinter(out)

	rows := make([][]string, 0, len(report.Targets))
	for i, t := range report.Targets {
		rows = append(rows, []string{strconv.Itoa(i), t.Name, yesNo(t.IsStage), strconv.Itoa(t.Costumes)})
	}
	fmt.Fprintln(out, renderTable([]column{
		{title: "#", right: true},
		{title: "Target"},
		{title: "Stage"},
		{title: "Costumes", right: true},
	}, rows))

	if len(report.Missing) == 0 {
		status.line("Assets", statusOK, "all referenced assets present (%d entries)", report.Entries)
		return
	}
	status.line("Assets", statusWarn, "%d referenced asset(s) missing", len(report.Missing))
	for _, name := range report.Missing {
		status.detail(name)
	}
}
