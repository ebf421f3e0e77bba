package cli

import (
	"context"

	"github.com/spf13/cobra"

	"thoughtgraph/application/commands"
	"thoughtgraph/application/queries"
	qbus "thoughtgraph/application/queries/bus"
	"thoughtgraph/domain/core/entities"
	"thoughtgraph/infrastructure/session"
)

func (a *app) referenceCommand() *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "reference <from> <to>",
		Short: "Add a manual reference, or change its notes",
		Args:  checkArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := commands.AddReferenceCommand{From: args[0], To: args[1], Notes: notes}
			return a.mutate(cmd, c, func(r *commands.Result) string {
				return "referenced " + r.Reference.Key().String()
			})
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "notes on the reference")
	return cmd
}

func (a *app) unreferenceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unreference <from> <to>",
		Short: "Remove a reference",
		Args:  checkArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := commands.RemoveReferenceCommand{From: args[0], To: args[1]}
			return a.mutate(cmd, c, func(*commands.Result) string {
				return "removed reference " + c.From + " -> " + c.To
			})
		},
	}
}

func (a *app) refsCommand() *cobra.Command {
	var incoming bool

	cmd := &cobra.Command{
		Use:   "refs <id>",
		Short: "List references leaving a thought, or reaching it with --incoming",
		Args:  checkArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			var q qbus.Query = queries.OutgoingQuery{ID: args[0]}
			if incoming {
				q = queries.IncomingQuery{ID: args[0]}
			}
			return a.withSession(cmd, func(ctx context.Context, s *session.Session) error {
				refs, err := ask[[]entities.Reference](ctx, s, q)
				if err != nil {
					return err
				}
				return renderReferences(cmd.OutOrStdout(), refs)
			})
		},
	}
	cmd.Flags().BoolVar(&incoming, "incoming", false, "list references pointing at the thought")
	return cmd
}
