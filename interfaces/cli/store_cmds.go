package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"thoughtgraph/application/queries"
	"thoughtgraph/infrastructure/session"
)

func (a *app) initCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create an empty store",
		Args:  checkArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, cleanup, err := a.container()
			if err != nil {
				return err
			}
			defer cleanup()

			if _, err := c.Repository.Init(cmd.Context(), c.DomainConfig, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "initialized empty store at %s\n", c.Repository.Path())
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing store")
	return cmd
}

func (a *app) watchCommand() *cobra.Command {
	var debounce = session.DefaultDebounce

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Hold the store open and reload it when the file changes",
		Args:  checkArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			return a.withSession(cmd, func(ctx context.Context, s *session.Session) error {
				w, err := s.Watch(debounce, func(version int) {
					fmt.Fprintf(out, "reloaded %s (version %d)\n", s.Path(), version)
				})
				if err != nil {
					return err
				}
				w.Start()
				defer w.Stop()

				fmt.Fprintf(out, "watching %s\n", s.Path())
				<-ctx.Done()
				a.logger.Debug("Watch interrupted", zap.Error(ctx.Err()))
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", debounce, "wait this long after a change before reloading")
	return cmd
}

func (a *app) statsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show store statistics and this run's metrics",
		Args:  checkArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
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
			view, err := ask[*queries.GraphView](ctx, s, queries.GetGraphDataQuery{})
			if err != nil {
				return err
			}
			tags, err := ask[[]queries.TagUsage](ctx, s, queries.ListTagsQuery{})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := renderStats(out, s.Path(), view.Stats, len(tags)); err != nil {
				return err
			}
			if !c.Config.EnableMetrics {
				return nil
			}
			text, err := c.Metrics.WriteText()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%s", text)
			return nil
		},
	}
}
