package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"gifsprite/internal/history"
	"gifsprite/internal/logging"
	"gifsprite/internal/preflight"
	"gifsprite/internal/sprite"
)

type addOutput struct {
	RunID   string         `json:"runId"`
	Archive string         `json:"archive"`
	Result  *sprite.Result `json:"result"`
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	var (
		name         string
		anchorFlag   string
		templatePath string
		jsonOutput   bool
	)

	cmd := &cobra.Command{
		Use:   "add <project.sb3> <animation>",
		Short: "Add an animation to a project as a new sprite",
		Long: `Add decodes every frame of the animation, stores each distinct frame once
as a PNG asset named by the MD5 of its pixels, and appends a sprite with one
costume per frame to the project. The project file is replaced atomically.

Anchors place the rotation center on a 3x3 grid:
  0 center        1 top-left     2 top-middle
  3 top-right     4 middle-right 5 bottom-right
  6 bottom-middle 7 bottom-left  8 middle-left`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			anchor := sprite.Anchor(cfg.Assembly.DefaultAnchor)
			if cmd.Flags().Changed("anchor") {
				anchor, err = sprite.ParseAnchor(anchorFlag)
				if err != nil {
					return err
				}
			}

			archivePath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve project path: %w", err)
			}
			animationPath, err := filepath.Abs(args[1])
			if err != nil {
				return fmt.Errorf("resolve animation path: %w", err)
			}

			if strings.TrimSpace(templatePath) == "" {
				templatePath = cfg.Assembly.TemplatePath
			}
			checks := preflight.ForAssembly(cfg, archivePath, animationPath)
			if strings.TrimSpace(templatePath) != cfg.Assembly.TemplatePath {
				checks = append(checks, preflight.CheckReadable("Template", templatePath))
			}
			if failed := preflight.Failed(checks); len(failed) > 0 {
				return preflightError(failed)
			}

			tmpl, err := sprite.LoadTemplate(templatePath)
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			runID := history.NewRunID()
			runCtx := logging.WithRunID(cmd.Context(), runID)
			assembler := sprite.NewAssembler(sprite.Options{
				Template: tmpl,
				LockDir:  ctx.lockDir(),
				Logger:   logger,
			})
			res, err := assembler.Assemble(runCtx, sprite.Request{
				ArchivePath:   archivePath,
				AnimationPath: animationPath,
				SpriteName:    name,
				Anchor:        anchor,
			})
			if err != nil {
				return err
			}

			err = ctx.withHistory(func(store *history.Store) error {
				if store == nil {
					return nil
				}
				_, err := store.Record(runCtx, history.Run{
					ID:            runID,
					ArchivePath:   archivePath,
					AnimationPath: animationPath,
					SpriteName:    res.SpriteName,
					Anchor:        int(res.Anchor),
					Frames:        len(res.Costumes),
					AssetsWritten: res.AssetsWritten,
				})
				return err
			})
			if err != nil {
				// The project is already rewritten at this point.
				logging.WithContext(runCtx, logger).Warn("record run in history failed", logging.Error(err))
			}

			if jsonOutput {
				return writeJSON(cmd, addOutput{RunID: runID, Archive: archivePath, Result: res})
			}
			printAddResult(cmd, archivePath, res)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Sprite name (default: title-cased animation file name)")
	cmd.Flags().StringVarP(&anchorFlag, "anchor", "a", "", "Rotation center anchor, 0-8 or a position name (default from config)")
	cmd.Flags().StringVarP(&templatePath, "template", "t", "", "Sprite template file (JSON or YAML)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func preflightError(failed []preflight.Result) error {
	msgs := make([]string, 0, len(failed))
	for _, r := range failed {
		msgs = append(msgs, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	return errors.New("preflight failed: " + strings.Join(msgs, "; "))
}

func printAddResult(cmd *cobra.Command, archivePath string, res *sprite.Result) {
	out := cmd.OutOrStdout()
	status := newStatusPrinter(out)
	status.line("Sprite", statusOK, "added %q to %s with %d costume(s), %d new asset(s)",
		res.SpriteName, filepath.Base(archivePath), len(res.Costumes), res.AssetsWritten)
	status.line("Anchor", statusInfo, "%d (%s)", int(res.Anchor), res.Anchor)

	rows := make([][]string, 0, len(res.Costumes))
	for i, c := range res.Costumes {
		rows = append(rows, []string{
			strconv.Itoa(i),
			c.Name,
			c.MD5Ext,
			fmt.Sprintf("%dx%d", c.Width, c.Height),
			fmt.Sprintf("%d,%d", c.RotationCenterX, c.RotationCenterY),
			yesNo(c.Reused),
		})
	}
	fmt.Fprintln(out, renderTable([]column{
		{title: "#", right: true},
		{title: "Costume"},
		{title: "Asset"},
		{title: "Size", right: true},
		{title: "Center", right: true},
		{title: "Reused"},
	}, rows))
}
