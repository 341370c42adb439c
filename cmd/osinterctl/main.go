// Command osinterctl administers an osinter deployment: accounts and, for
// local setups, the article index.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/osinter/osinter/internal/app"
	"github.com/osinter/osinter/internal/config"
	logpkg "github.com/osinter/osinter/internal/logger"
	"github.com/osinter/osinter/internal/version"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// run executes one command line. Resources opened by the command are
// released whether it succeeds or not.
func run(args []string, out io.Writer) error {
	e := &env{}
	defer e.close()

	root := newRootCmd(e)
	root.SetArgs(args)
	root.SetOut(out)
	return root.Execute()
}

// env carries the wired application into subcommands.
type env struct {
	name   string
	app    *app.App
	logger *zap.Logger
}

func (e *env) close() {
	if e.app != nil {
		e.app.Close()
	}
	if e.logger != nil {
		_ = e.logger.Sync()
	}
}

func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:           "osinterctl",
		Short:         "Administer osinter accounts and article data",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if e.name == "" {
				e.name = config.GetEnv()
			}
			cfg, err := config.Load(e.name)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if e.logger, err = logpkg.NewLogger(e.name, logpkg.Options{Level: cfg.Logging.Level}); err != nil {
				return err
			}
			if e.app, err = app.New(cfg); err != nil {
				return err
			}
			cmd.SetContext(logpkg.ContextWithLogger(cmd.Context(), e.logger))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&e.name, "env", "", "config environment (default: $ENV or local)")

	root.AddCommand(newUserCmd(e), newArticlesCmd(e))
	return root
}
