package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"gifsprite/internal/config"
	"gifsprite/internal/sprite"
)

func newTemplateCommand() *cobra.Command {
	templateCmd := &cobra.Command{
		Use:   "template",
		Short: "Sprite template utilities",
	}
	templateCmd.AddCommand(newTemplateInitCommand())
	return templateCmd
}

func newTemplateInitCommand() *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init <path>",
		Short:       "Write the built-in sprite template to a file for editing",
		Long:        "Writes the built-in template. Paths ending in .yaml or .yml get YAML, anything else JSON.",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := config.ExpandPath(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("resolve template path: %w", err)
			}
			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("template already exists at %s (use --overwrite to replace it)", target)
				}
			}

			data := sprite.DefaultTemplateBytes()
			switch strings.ToLower(filepath.Ext(target)) {
			case ".yaml", ".yml":
				data, err = jsonToYAML(data)
				if err != nil {
					return err
				}
			}

			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create template directory: %w", err)
			}
			if err := os.WriteFile(target, data, 0o644); err != nil {
				return fmt.Errorf("write template: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sprite template to %s\n", target)
			return nil
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite an existing file")
	return cmd
}

// jsonToYAML re-emits a JSON document as block-style YAML, keeping key order.
func jsonToYAML(data []byte) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	clearFlowStyle(&doc)
	out, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("encode template: %w", err)
	}
	return out, nil
}

func clearFlowStyle(n *yaml.Node) {
	if n.Kind == yaml.MappingNode || n.Kind == yaml.SequenceNode {
		if len(n.Content) > 0 {
			n.Style &^= yaml.FlowStyle
		}
	}
	if n.Kind == yaml.ScalarNode && n.Style == yaml.DoubleQuotedStyle && n.Value != "" {
		n.Style = 0
	}
	for _, child := range n.Content {
		clearFlowStyle(child)
	}
}
