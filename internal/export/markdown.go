package export

import (
	"fmt"
	"io"
	"strings"
)

// MarkdownExporter renders a conversation as a readable report: each turn
// shows the question, the individual answers, the peer rankings and the
// chairman's final answer.
type MarkdownExporter struct{}

func (e *MarkdownExporter) Export(doc Document, w io.Writer) error {
	title := doc.Title
	if title == "" {
		title = "Conversation " + doc.ID
	}
	_, _ = fmt.Fprintf(w, "# %s\n\n", title)
	_, _ = fmt.Fprintf(w, "**ID:** %s  \n", doc.ID)
	if doc.CreatedAt != "" {
		_, _ = fmt.Fprintf(w, "**Created:** %s  \n", doc.CreatedAt)
	}
	if doc.TemplateID != "" {
		_, _ = fmt.Fprintf(w, "**Template:** %s  \n", doc.TemplateID)
	}
	_, _ = fmt.Fprintf(w, "**Turns:** %d\n\n", len(doc.Turns))

	for i, turn := range doc.Turns {
		_, _ = fmt.Fprintf(w, "---\n\n## Turn %d\n\n", i+1)
		if turn.Question != "" {
			_, _ = fmt.Fprintf(w, "**Question:**\n\n%s\n\n", escapeMarkdown(turn.Question))
		}
		if len(turn.Stage1) > 0 {
			_, _ = fmt.Fprintf(w, "### Stage 1: individual responses\n\n")
			for _, r := range turn.Stage1 {
				_, _ = fmt.Fprintf(w, "**%s:**\n\n%s\n\n", r.Model, escapeMarkdown(r.Response))
			}
		}
		if len(turn.Stage2) > 0 {
			_, _ = fmt.Fprintf(w, "### Stage 2: peer rankings\n\n")
			for _, r := range turn.Stage2 {
				order := ""
				if len(r.ParsedRanking) > 0 {
					order = " (" + strings.Join(r.ParsedRanking, " > ") + ")"
				}
				_, _ = fmt.Fprintf(w, "- **%s**%s\n", r.Model, order)
			}
			_, _ = fmt.Fprintln(w)
		}
		if len(turn.Rankings) > 0 {
			_, _ = fmt.Fprintf(w, "| model | average rank | votes |\n|---|---|---|\n")
			for _, agg := range turn.Rankings {
				_, _ = fmt.Fprintf(w, "| %s | %.2f | %d |\n", agg.Model, agg.AverageRank, agg.RankingsCount)
			}
			_, _ = fmt.Fprintln(w)
		}
		if turn.Final != nil {
			_, _ = fmt.Fprintf(w, "### Stage 3: final answer (%s)\n\n%s\n\n", turn.Final.Model, escapeMarkdown(turn.Final.Response))
		}
		for _, key := range []string{"stage1", "stage2", "metadata", "stage3"} {
			if v, ok := turn.Raw[key]; ok {
				_, _ = fmt.Fprintf(w, "### %s (raw)\n\n```json\n%s\n```\n\n", key, v)
			}
		}
	}
	return nil
}

// escapeMarkdown escapes emphasis markers outside fenced code blocks.
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	inCodeBlock := false
	for i, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			continue
		}
		if inCodeBlock {
			continue
		}
		line = strings.ReplaceAll(line, "**", "\\*\\*")
		lines[i] = strings.ReplaceAll(line, "__", "\\_\\_")
	}
	return strings.Join(lines, "\n")
}

func (e *MarkdownExporter) Extension() string {
	return "md"
}
