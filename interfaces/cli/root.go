// Package cli implements the thoughts command-line interface
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"thoughtgraph/application/commands"
	cbus "thoughtgraph/application/commands/bus"
	qbus "thoughtgraph/application/queries/bus"
	"thoughtgraph/infrastructure/config"
	"thoughtgraph/infrastructure/di"
	"thoughtgraph/infrastructure/session"
	pkgerrors "thoughtgraph/pkg/errors"
)

// app carries the global flags and streams shared by every subcommand
type app struct {
	file       string
	configPath string
	verbose    bool

	logger *zap.Logger
}

// NewRootCommand builds the command tree
func NewRootCommand() *cobra.Command {
	a := &app{logger: zap.NewNop()}
	return a.rootCommand()
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "thoughts",
		Short: "Keep a graph of tagged, cross-referenced thoughts",
		Long: `thoughts stores short notes ("thoughts") in a single file.

Thoughts carry tags and reference each other. Writing [id] inside a
thought's content links it to that thought automatically.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	flags := root.PersistentFlags()
	flags.StringVarP(&a.file, "file", "f", "", "store file (default $THOUGHTS_FILE or ~/.thoughts/thoughts.bin)")
	flags.StringVar(&a.configPath, "config", "", "config file (default $THOUGHTS_CONFIG or ~/.thoughts/config.yaml)")
	flags.BoolVar(&a.verbose, "verbose", false, "enable debug logging")

	root.AddCommand(
		a.initCommand(),
		a.createCommand(),
		a.listCommand(),
		a.viewCommand(),
		a.editCommand(),
		a.deleteCommand(),
		a.tagCommand(),
		a.untagCommand(),
		a.tagsCommand(),
		a.describeTagCommand(),
		a.deleteTagCommand(),
		a.referenceCommand(),
		a.unreferenceCommand(),
		a.refsCommand(),
		a.searchCommand(),
		a.matchCommand(),
		a.rescanCommand(),
		a.visualizeCommand(),
		a.watchCommand(),
		a.statsCommand(),
	)
	return root
}

// Execute runs the CLI and returns the process exit code
func Execute(ctx context.Context, args []string, in io.Reader, out, errw io.Writer) int {
	a := &app{logger: zap.NewNop()}
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errw)

	err := root.ExecuteContext(ctx)
	return pkgerrors.NewErrorHandler(a.logger, a.verbose).Handle(errw, err)
}

// container loads configuration and wires the application
func (a *app) container() (*di.Container, func(), error) {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return nil, nil, err
	}
	cfg.Verbose = a.verbose

	path, err := cfg.ResolveStorePath(a.file)
	if err != nil {
		return nil, nil, err
	}

	c, cleanup, err := di.InitializeContainer(cfg, di.StorePath(path))
	if err != nil {
		return nil, nil, err
	}
	a.logger = c.Logger
	return c, cleanup, nil
}

// withSession opens the store, runs fn and saves whatever fn changed
func (a *app) withSession(cmd *cobra.Command, fn func(ctx context.Context, s *session.Session) error) error {
	c, cleanup, err := a.container()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	s, err := c.OpenSession(ctx)
	if err != nil {
		return err
	}
	if err := fn(ctx, s); err != nil {
		return err
	}
	return s.Save(ctx)
}

// mutate applies one command and prints its summary
func (a *app) mutate(cmd *cobra.Command, c cbus.Command, describe func(*commands.Result) string) error {
	return a.withSession(cmd, func(ctx context.Context, s *session.Session) error {
		result, err := s.Execute(ctx, c)
		if err != nil {
			return err
		}
		a.logger.Debug("Command applied",
			zap.String("command", cbus.CommandName(c)),
			zap.Int("version", result.Version),
			zap.Bool("changed", result.Changed()),
		)
		fmt.Fprintln(cmd.OutOrStdout(), summarize(describe(result), result))
		return nil
	})
}

// ask runs a query against the session and asserts its result type
func ask[T any](ctx context.Context, s *session.Session, q qbus.Query) (T, error) {
	var zero T
	v, err := s.Ask(ctx, q)
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("unexpected result %T for %s", v, qbus.QueryName(q))
	}
	return out, nil
}

// usageError reports bad flags or arguments as validation failures
func usageError(err error) error {
	return pkgerrors.NewValidationError(err.Error())
}

// checkArgs wraps a cobra positional-argument check so its failures exit as
// validation errors
func checkArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, a []string) error {
		if err := check(cmd, a); err != nil {
			return usageError(err)
		}
		return nil
	}
}
