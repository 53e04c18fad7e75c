package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tessera-lang/tessera/cmd"
)

func main() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "tessera [subcommand]",
	Short:        "tessera ◆\n a structural type resolution and checking engine",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(cmd.ResolveCmd)
	rootCmd.AddCommand(cmd.CheckCmd)
	rootCmd.AddCommand(cmd.ExhaustiveCmd)
}
