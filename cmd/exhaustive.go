package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tessera-lang/tessera/internal/log"
)

var ExhaustiveCmd = &cobra.Command{
	Use:          "exhaustive graph.yaml",
	Short:        "Check discriminant coverage of the tagged unions in a type graph",
	RunE:         runExhaustive,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
}

var (
	exhaustiveLogLevel *int
	exhaustiveDepth    *int
)

func init() {
	exhaustiveLogLevel = ExhaustiveCmd.Flags().IntP("log-level", "l", int(slog.LevelError), "log level")
	exhaustiveDepth = ExhaustiveCmd.Flags().Int("depth", 0, "recursion depth limit (0 keeps the default)")
}

func runExhaustive(cmd *cobra.Command, args []string) error {
	log.SetLevel(slog.Level(*exhaustiveLogLevel))

	g, err := loadGraph(args[0], *exhaustiveDepth)
	if err != nil {
		return err
	}

	incomplete := 0
	for i, q := range g.Exhaustive {
		union, err := g.Session.Resolve(q.Union, g.Env)
		if err != nil {
			return fmt.Errorf("exhaustive #%d: %s", i, formatErr(err))
		}
		result, err := g.Session.CheckExhaustive(union, q.Field, q.Handled)
		if err != nil {
			return fmt.Errorf("exhaustive #%d: %s", i, formatErr(err))
		}
		if result.Exhaustive {
			fmt.Fprintf(cmd.OutOrStdout(), "exhaustive #%d: %s\n", i, colorize("complete", colorGreen))
			continue
		}
		incomplete++
		fmt.Fprintf(cmd.OutOrStdout(), "exhaustive #%d: %s\n", i, colorize("incomplete", colorRed))
		for _, member := range result.Unhandled {
			fmt.Fprintf(cmd.OutOrStdout(), "  unhandled variant: %s\n", member)
		}
	}
	reportWarnings(g.Session)
	if incomplete > 0 {
		return fmt.Errorf("%d of %d unions are not exhaustively handled", incomplete, len(g.Exhaustive))
	}
	return nil
}
