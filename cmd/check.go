package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/tessera-lang/tessera/internal/log"
)

var CheckCmd = &cobra.Command{
	Use:          "check graph.yaml",
	Short:        "Run the assignability checks declared in a type graph",
	RunE:         runCheck,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
}

var (
	checkLogLevel *int
	checkDepth    *int
)

func init() {
	checkLogLevel = CheckCmd.Flags().IntP("log-level", "l", int(slog.LevelError), "log level")
	checkDepth = CheckCmd.Flags().Int("depth", 0, "recursion depth limit (0 keeps the default)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	log.SetLevel(slog.Level(*checkLogLevel))

	g, err := loadGraph(args[0], *checkDepth)
	if err != nil {
		return err
	}

	failed := 0
	for i, check := range g.Checks {
		ok := g.Session.AssignableIn(g.Env, check.Source, check.Target, check.Opts)
		verdict := colorize("ok", colorGreen)
		if !ok {
			verdict = colorize("not assignable", colorRed)
			failed++
		}
		fmt.Fprintf(cmd.OutOrStdout(), "check #%d: %s -> %s: %s\n", i, check.Source, check.Target, verdict)
	}
	reportWarnings(g.Session)
	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(g.Checks))
	}
	return nil
}

const (
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorReset = "\033[0m"
)

func colorize(s, color string) string {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return s
	}
	return color + s + colorReset
}
