package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"thoughtgraph/application/commands"
	"thoughtgraph/application/queries"
	"thoughtgraph/domain/core/entities"
	"thoughtgraph/infrastructure/session"
	pkgerrors "thoughtgraph/pkg/errors"
)

func (a *app) searchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "search <terms...>",
		Short: "Search titles and content, best matches first",
		Long: `Search thoughts for the given terms, case-insensitively.

A title match weighs three times a content match.`,
		Args: checkArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(ctx context.Context, s *session.Session) error {
				hits, err := ask[[]queries.SearchHit](ctx, s, queries.SearchQuery{Terms: args})
				if err != nil {
					return err
				}
				return renderHits(cmd.OutOrStdout(), hits)
			})
		},
	}
}

func (a *app) matchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "match <expr...>",
		Short: "List thoughts matching a boolean expression",
		Long: `List thoughts matching a boolean expression.

Leaves:
  tag:<tag>      thoughts holding the tag
  refs:<id>      thoughts referencing <id>
  refby:<id>     thoughts referenced by <id>
  id:<glob>      thoughts whose id matches the glob

Combine leaves with "and", "or", "not" and parentheses.`,
		Example: `  thoughts match 'tag:lang and not refs:go'
  thoughts match 'id:draft-* or (tag:todo and refby:plan)'`,
		Args: checkArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := queries.MatchQuery{Expr: strings.Join(args, " ")}
			return a.withSession(cmd, func(ctx context.Context, s *session.Session) error {
				thoughts, err := ask[[]*entities.Thought](ctx, s, q)
				if err != nil {
					return err
				}
				return renderThoughts(cmd.OutOrStdout(), thoughts)
			})
		},
	}
}

func (a *app) rescanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rescan [id]",
		Short: "Re-derive automatic references from content",
		Long: `Re-derive automatic references from content, for one thought or all.

Mentions of thoughts created after the mentioning thought are linked
only by a rescan.`,
		Args: checkArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			var c commands.RescanReferencesCommand
			scope := "all thoughts"
			if len(args) == 1 {
				c.ID = args[0]
				scope = c.ID
			}
			return a.mutate(cmd, c, func(*commands.Result) string {
				return "rescanned " + scope
			})
		},
	}
}

func (a *app) visualizeCommand() *cobra.Command {
	var (
		q      queries.GetGraphDataQuery
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "visualize",
		Short: "Export the graph as Graphviz DOT or JSON",
		Long: `Export the graph as Graphviz DOT or JSON.

With --focus only the thoughts within --depth hops of the focus are
exported, following references in both directions.`,
		Example: `  thoughts visualize --focus rust --depth 2 | dot -Tsvg > rust.svg`,
		Args:    checkArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "dot" && format != "json" {
				return pkgerrors.NewValidationError(fmt.Sprintf("unknown format %q, want dot or json", format)).
					WithDetail("format", format)
			}
			return a.withSession(cmd, func(ctx context.Context, s *session.Session) error {
				view, err := ask[*queries.GraphView](ctx, s, q)
				if err != nil {
					return err
				}

				var buf bytes.Buffer
				if format == "json" {
					err = writeJSON(&buf, view)
				} else {
					err = writeDOT(&buf, view)
				}
				if err != nil {
					return err
				}

				if output == "" {
					_, err = cmd.OutOrStdout().Write(buf.Bytes())
					return err
				}
				if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
					return pkgerrors.NewIOError("write "+output, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %d nodes and %d edges to %s\n",
					view.Stats.NodeCount, view.Stats.EdgeCount, output)
				return nil
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&q.Focus, "focus", "", "thought to centre the view on")
	flags.IntVar(&q.Depth, "depth", 1, "hops from the focus to include")
	flags.StringVar(&format, "format", "dot", "output format: dot or json")
	flags.StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}
