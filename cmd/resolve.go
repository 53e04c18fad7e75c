package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/tessera-lang/tessera/graph"
	"github.com/tessera-lang/tessera/internal/log"
	"github.com/tessera-lang/tessera/tesserr"
	"github.com/tessera-lang/tessera/types"
)

var ResolveCmd = &cobra.Command{
	Use:          "resolve graph.yaml [name...]",
	Short:        "Resolve the named type expressions in a type graph",
	RunE:         runResolve,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

var (
	resolveLogLevel *int
	resolveDepth    *int
	resolveDump     *bool
)

func init() {
	resolveLogLevel = ResolveCmd.Flags().IntP("log-level", "l", int(slog.LevelError), "log level")
	resolveDepth = ResolveCmd.Flags().Int("depth", 0, "recursion depth limit (0 keeps the default)")
	resolveDump = ResolveCmd.Flags().Bool("dump", false, "dump the resolved type structure instead of its spelling")
}

func runResolve(cmd *cobra.Command, args []string) error {
	log.SetLevel(slog.Level(*resolveLogLevel))

	g, err := loadGraph(args[0], *resolveDepth)
	if err != nil {
		return err
	}

	wanted := make(map[string]bool, len(args)-1)
	for _, name := range args[1:] {
		wanted[name] = true
	}

	for _, named := range g.Resolve {
		if len(wanted) > 0 && !wanted[named.Name] {
			continue
		}
		resolved, err := g.Session.Resolve(named.Type, g.Env)
		if err != nil {
			return fmt.Errorf("resolving %s: %s", named.Name, formatErr(err))
		}
		if *resolveDump {
			fmt.Fprintf(cmd.OutOrStdout(), "%s:\n%s", named.Name, spew.Sdump(resolved))
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", named.Name, resolved)
	}
	reportWarnings(g.Session)
	return nil
}

func loadGraph(path string, depth int) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open type graph: %w", err)
	}
	defer func() { _ = f.Close() }()

	session := types.NewSession()
	if depth > 0 {
		session.DepthLimit = depth
	}
	return graph.Load(f, session)
}

func reportWarnings(session *types.Session) {
	for _, warning := range session.Warnings.Errors() {
		fmt.Fprintf(os.Stderr, "warning: %s\n", warning.Error())
	}
}

func formatErr(err error) string {
	if te, ok := err.(tesserr.TessError); ok {
		return tesserr.FormatWithCode(te)
	}
	return err.Error()
}
