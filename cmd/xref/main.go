package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const appName = "xref"

var rootCmd = &cobra.Command{
	Use:           appName + " [command]",
	Short:         "Inspect xref configuration documents",
	Long:          "Merge raw configuration documents and check xref settings files.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(newMergeCmd())
	rootCmd.AddCommand(newConfigCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
