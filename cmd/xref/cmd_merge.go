package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/goliatone/go-xref"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newMergeCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "merge FILE...",
		Short: "Merge documents, later files winning, and print the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := xref.LoadFiles(args...)
			if err != nil {
				return err
			}
			return writeRaw(cmd.OutOrStdout(), format, raw)
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", "yaml", "output format: yaml or json")
	return cmd
}

func writeRaw(out io.Writer, format string, raw map[string]any) error {
	switch format {
	case "yaml", "yml":
		encoder := yaml.NewEncoder(out)
		encoder.SetIndent(2)
		if err := encoder.Encode(raw); err != nil {
			return err
		}
		return encoder.Close()
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(raw)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}
