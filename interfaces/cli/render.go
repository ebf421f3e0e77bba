package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"thoughtgraph/application/queries"
	"thoughtgraph/domain/core/entities"
	"thoughtgraph/pkg/utils"
)

// thoughtView is the JSON form of a thought
type thoughtView struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Tags      []string `json:"tags"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

func thoughtViews(thoughts []*entities.Thought) []thoughtView {
	out := make([]thoughtView, 0, len(thoughts))
	for _, t := range thoughts {
		out = append(out, thoughtView{
			ID:        t.ID().String(),
			Title:     t.Title(),
			Content:   t.Body(),
			Tags:      tagNames(t),
			CreatedAt: utils.FormatTimestamp(t.CreatedAt()),
			UpdatedAt: utils.FormatTimestamp(t.UpdatedAt()),
		})
	}
	return out
}

func tagNames(t *entities.Thought) []string {
	tags := t.Tags()
	out := make([]string, len(tags))
	for i, tag := range tags {
		out[i] = tag.String()
	}
	return out
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderThoughts(w io.Writer, thoughts []*entities.Thought) error {
	if len(thoughts) == 0 {
		fmt.Fprintln(w, "no thoughts")
		return nil
	}
	now := time.Now()
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Title", "Tags", "Updated")
	for _, t := range thoughts {
		err := table.Append(
			t.ID().String(),
			t.DisplayTitle(),
			strings.Join(tagNames(t), ", "),
			utils.HumanizeAge(t.UpdatedAt(), now),
		)
		if err != nil {
			return err
		}
	}
	return table.Render()
}

func renderThought(w io.Writer, t *entities.Thought, outgoing, incoming []entities.Reference) {
	fmt.Fprintf(w, "%s\n", t.DisplayTitle())
	fmt.Fprintf(w, "  id:      %s\n", t.ID())
	if tags := tagNames(t); len(tags) > 0 {
		fmt.Fprintf(w, "  tags:    %s\n", strings.Join(tags, ", "))
	}
	fmt.Fprintf(w, "  created: %s\n", utils.FormatTimestamp(t.CreatedAt()))
	fmt.Fprintf(w, "  updated: %s\n", utils.FormatTimestamp(t.UpdatedAt()))

	if body := t.Body(); body != "" {
		fmt.Fprintf(w, "\n%s\n", body)
	}

	if len(outgoing) > 0 {
		fmt.Fprintln(w, "\nReferences:")
		for _, ref := range outgoing {
			fmt.Fprintf(w, "  -> %s\n", describeRef(ref.To.String(), ref))
		}
	}
	if len(incoming) > 0 {
		fmt.Fprintln(w, "\nReferenced by:")
		for _, ref := range incoming {
			fmt.Fprintf(w, "  <- %s\n", describeRef(ref.From.String(), ref))
		}
	}
}

func describeRef(other string, ref entities.Reference) string {
	s := fmt.Sprintf("%s (%s)", other, ref.Kind())
	if ref.Notes != "" {
		s += ": " + ref.Notes
	}
	return s
}

func renderReferences(w io.Writer, refs []entities.Reference) error {
	if len(refs) == 0 {
		fmt.Fprintln(w, "no references")
		return nil
	}
	table := tablewriter.NewWriter(w)
	table.Header("From", "To", "Kind", "Notes")
	for _, ref := range refs {
		if err := table.Append(ref.From.String(), ref.To.String(), ref.Kind(), ref.Notes); err != nil {
			return err
		}
	}
	return table.Render()
}

func renderTags(w io.Writer, tags []queries.TagUsage) error {
	if len(tags) == 0 {
		fmt.Fprintln(w, "no tags")
		return nil
	}
	table := tablewriter.NewWriter(w)
	table.Header("Tag", "Description", "Thoughts")
	for _, u := range tags {
		if err := table.Append(u.Tag.ID().String(), u.Tag.Description(), fmt.Sprint(u.Count)); err != nil {
			return err
		}
	}
	return table.Render()
}

func renderHits(w io.Writer, hits []queries.SearchHit) error {
	if len(hits) == 0 {
		fmt.Fprintln(w, "no matches")
		return nil
	}
	table := tablewriter.NewWriter(w)
	table.Header("Score", "ID", "Title")
	for _, h := range hits {
		if err := table.Append(fmt.Sprint(h.Score), h.Thought.ID().String(), h.Thought.DisplayTitle()); err != nil {
			return err
		}
	}
	return table.Render()
}

func renderStats(w io.Writer, path string, stats queries.GraphStats, tagCount int) error {
	table := tablewriter.NewWriter(w)
	table.Header("Statistic", "Value")
	rows := [][]string{
		{"Store", path},
		{"Thoughts", fmt.Sprint(stats.NodeCount)},
		{"Tags", fmt.Sprint(tagCount)},
		{"References", fmt.Sprint(stats.EdgeCount)},
		{"Clusters", fmt.Sprint(stats.ClusterCount)},
		{"Density", fmt.Sprintf("%.4f", stats.Density)},
	}
	for _, row := range rows {
		if err := table.Append(row[0], row[1]); err != nil {
			return err
		}
	}
	return table.Render()
}

// writeDOT renders a graph view for Graphviz. Auto references are dashed.
func writeDOT(w io.Writer, view *queries.GraphView) error {
	var b strings.Builder
	b.WriteString("digraph ThoughtGraph {\n")
	b.WriteString("  node [shape=box, style=filled, fillcolor=lightblue];\n\n")
	for _, n := range view.Nodes {
		fmt.Fprintf(&b, "  %q [label=%q];\n", n.ID, n.Label)
	}
	if len(view.Edges) > 0 {
		b.WriteString("\n")
	}
	for _, e := range view.Edges {
		attrs := []string{fmt.Sprintf("label=%q", e.Label)}
		if e.Auto {
			attrs = append(attrs, "style=dashed")
		}
		fmt.Fprintf(&b, "  %q -> %q [%s];\n", e.Source, e.Target, strings.Join(attrs, ", "))
	}
	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}
