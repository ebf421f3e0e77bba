package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"thoughtgraph/application/commands"
	"thoughtgraph/application/queries"
	"thoughtgraph/domain/core/entities"
	"thoughtgraph/infrastructure/session"
	pkgerrors "thoughtgraph/pkg/errors"
)

func (a *app) createCommand() *cobra.Command {
	var c commands.CreateThoughtCommand

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a thought",
		Long: `Create a thought. Without --id a generated id is used.

Mentions written as [id] in the content become references to those
thoughts. Use --content - to read the content from stdin.`,
		Args: checkArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			content, err := readContent(cmd, c.Content)
			if err != nil {
				return err
			}
			c.Content = content
			return a.mutate(cmd, c, func(r *commands.Result) string {
				return "created thought " + r.Thought.ID().String()
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&c.ID, "id", "", "thought id")
	flags.StringVar(&c.Title, "title", "", "thought title")
	flags.StringVar(&c.Content, "content", "", `thought content ("-" reads stdin)`)
	flags.StringSliceVar(&c.Tags, "tag", nil, "tag to attach (repeatable)")
	flags.StringSliceVar(&c.References, "ref", nil, "thought to reference (repeatable)")
	flags.BoolVar(&c.SuggestTitle, "suggest-title", false, "derive the title from the first words of the content")
	return cmd
}

func (a *app) listCommand() *cobra.Command {
	var (
		tags   []string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List thoughts, optionally only those holding every given tag",
		Args:  checkArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withSession(cmd, func(ctx context.Context, s *session.Session) error {
				thoughts, err := ask[[]*entities.Thought](ctx, s, queries.ListThoughtsQuery{Tags: tags})
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), thoughtViews(thoughts))
				}
				return renderThoughts(cmd.OutOrStdout(), thoughts)
			})
		},
	}

	cmd.Flags().StringSliceVar(&tags, "tag", nil, "only thoughts holding this tag (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func (a *app) viewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "view <id>",
		Short: "Show a thought with its references",
		Args:  checkArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return a.withSession(cmd, func(ctx context.Context, s *session.Session) error {
				thought, err := ask[*entities.Thought](ctx, s, queries.GetThoughtQuery{ID: id})
				if err != nil {
					return err
				}
				outgoing, err := ask[[]entities.Reference](ctx, s, queries.OutgoingQuery{ID: id})
				if err != nil {
					return err
				}
				incoming, err := ask[[]entities.Reference](ctx, s, queries.IncomingQuery{ID: id})
				if err != nil {
					return err
				}
				renderThought(cmd.OutOrStdout(), thought, outgoing, incoming)
				return nil
			})
		},
	}
}

func (a *app) editCommand() *cobra.Command {
	var (
		title, content string
		c              commands.UpdateThoughtCommand
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a thought's title, content or tags",
		Long: `Change a thought. Only the flags given are applied.

--tag adds tags; with --replace-tags the given tags replace the whole set.
Changing the content re-derives the thought's automatic references.`,
		Args: checkArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.ID = args[0]
			if cmd.Flags().Changed("title") {
				c.Title = &title
			}
			if cmd.Flags().Changed("content") {
				body, err := readContent(cmd, content)
				if err != nil {
					return err
				}
				c.Content = &body
			}
			if c.Title == nil && c.Content == nil && len(c.Tags) == 0 && !c.ReplaceTags {
				return pkgerrors.NewValidationError("nothing to change: give --title, --content, --tag or --replace-tags")
			}
			return a.mutate(cmd, c, func(*commands.Result) string {
				return "updated thought " + c.ID
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&title, "title", "", "new title")
	flags.StringVar(&content, "content", "", `new content ("-" reads stdin)`)
	flags.StringSliceVar(&c.Tags, "tag", nil, "tag to add (repeatable)")
	flags.BoolVar(&c.ReplaceTags, "replace-tags", false, "replace all tags with the --tag values")
	return cmd
}

func (a *app) deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a thought and every reference touching it",
		Args:  checkArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := commands.DeleteThoughtCommand{ID: args[0]}
			return a.mutate(cmd, c, func(*commands.Result) string {
				return "deleted thought " + c.ID
			})
		},
	}
}

// readContent resolves "-" to the command's stdin
func readContent(cmd *cobra.Command, value string) (string, error) {
	if value != "-" {
		return value, nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", pkgerrors.NewIOError("read stdin", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

// summarize appends the side effects of a command to its one-line message
func summarize(msg string, r *commands.Result) string {
	if !r.Changed() {
		return msg + " (no changes)"
	}

	var extra []string
	added, removed := r.AutoReferences()
	if len(added) > 0 {
		extra = append(extra, "auto references added: "+joinKeys(added))
	}
	if len(removed) > 0 {
		extra = append(extra, "auto references removed: "+joinKeys(removed))
	}
	if tags := r.CreatedTags(); len(tags) > 0 {
		extra = append(extra, "tags created: "+strings.Join(tags, ", "))
	}
	if len(extra) == 0 {
		return msg
	}
	return fmt.Sprintf("%s; %s", msg, strings.Join(extra, "; "))
}

func joinKeys(keys []entities.ReferenceKey) string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.String()
	}
	return strings.Join(out, ", ")
}
