package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"thoughtgraph/application/commands"
	"thoughtgraph/application/queries"
	"thoughtgraph/infrastructure/session"
)

func (a *app) tagCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tag <thought> <tag>",
		Short: "Attach a tag to a thought",
		Args:  checkArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := commands.AttachTagCommand{ThoughtID: args[0], TagID: args[1]}
			return a.mutate(cmd, c, func(*commands.Result) string {
				return "tagged " + c.ThoughtID + " with " + c.TagID
			})
		},
	}
}

func (a *app) untagCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "untag <thought> <tag>",
		Short: "Remove a tag from a thought",
		Args:  checkArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := commands.DetachTagCommand{ThoughtID: args[0], TagID: args[1]}
			return a.mutate(cmd, c, func(*commands.Result) string {
				return "removed tag " + c.TagID + " from " + c.ThoughtID
			})
		},
	}
}

func (a *app) tagsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List tags with the number of thoughts holding each",
		Args:  checkArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withSession(cmd, func(ctx context.Context, s *session.Session) error {
				tags, err := ask[[]queries.TagUsage](ctx, s, queries.ListTagsQuery{})
				if err != nil {
					return err
				}
				return renderTags(cmd.OutOrStdout(), tags)
			})
		},
	}

	var description string
	add := &cobra.Command{
		Use:   "add <tag>",
		Short: "Create a tag before any thought uses it",
		Args:  checkArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := commands.AddTagCommand{ID: args[0], Description: description}
			return a.mutate(cmd, c, func(r *commands.Result) string {
				return "created tag " + r.Tag.ID().String()
			})
		},
	}
	add.Flags().StringVar(&description, "description", "", "tag description")
	cmd.AddCommand(add)
	return cmd
}

func (a *app) describeTagCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "describe-tag <tag> <description...>",
		Short: "Set a tag's description",
		Args:  checkArgs(cobra.MinimumNArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := commands.DescribeTagCommand{ID: args[0], Description: strings.Join(args[1:], " ")}
			return a.mutate(cmd, c, func(*commands.Result) string {
				return "described tag " + c.ID
			})
		},
	}
}

func (a *app) deleteTagCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-tag <tag>",
		Short: "Delete a tag and remove it from every thought",
		Args:  checkArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := commands.DeleteTagCommand{ID: args[0]}
			return a.mutate(cmd, c, func(*commands.Result) string {
				return "deleted tag " + c.ID
			})
		},
	}
}
