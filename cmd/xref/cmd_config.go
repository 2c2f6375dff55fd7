package main

import (
	"fmt"

	"github.com/goliatone/go-xref"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Work with xref settings files",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check FILE",
		Short: "Validate a settings file and print the effective values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := xref.LoadConfig(args[0])
			if err != nil {
				return err
			}
			level, err := cfg.Level()
			if err != nil {
				return err
			}
			engine := cfg.Engine
			if engine == "" {
				engine = xref.EngineExpr
			}
			enabled := cfg.Activity.Enabled == nil || *cfg.Activity.Enabled
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "engine: %s\n", engine)
			fmt.Fprintf(out, "log_level: %s\n", level)
			fmt.Fprintf(out, "activity: %t\n", enabled)
			return nil
		},
	})
	return cmd
}
