package tui

import (
	"fmt"
	"strings"

	"councilchat/internal/transcript"
)

func (m *Model) renderTimeline() string {
	if m.activeID == "" {
		return "No conversation selected. Press Ctrl+N for a new one, or pick a starter question (Tab)."
	}
	if m.loadingID == m.activeID && m.transcript.Len() == 0 {
		return m.spinner.View() + " loading conversation..."
	}
	msgs := m.transcript.Messages()
	if len(msgs) == 0 {
		return "No messages yet. Ask the council something."
	}
	width := maxInt(24, m.timeline.Width-2)
	var b strings.Builder
	for _, msg := range msgs {
		switch msg.Role {
		case transcript.RoleUser:
			b.WriteString(m.theme.user.Render("you"))
			b.WriteString("\n")
			b.WriteString(wrapText(compactTimelineMessage(msg.Content, timelineMaxLines, timelineMaxChars), width))
		case transcript.RoleAssistant:
			b.WriteString(m.theme.council.Render("council"))
			b.WriteString("\n")
			b.WriteString(m.renderAssistant(msg, width))
		}
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String())
}

// renderAssistant draws whatever stages have arrived so far, plus a spinner
// for each stage still in flight.
func (m *Model) renderAssistant(msg transcript.Message, width int) string {
	var sections []string
	if msg.Loading.Stage1 {
		sections = append(sections, m.spinner.View()+" Stage 1: collecting individual responses...")
	}
	if msg.Stage1 != nil {
		sections = append(sections, m.renderStage1(msg.Stage1, width))
	}
	if msg.Loading.Stage2 {
		sections = append(sections, m.spinner.View()+" Stage 2: peer rankings...")
	}
	if msg.Stage2 != nil {
		sections = append(sections, m.renderStage2(msg.Stage2, msg.Metadata, width))
	}
	if msg.Loading.Stage3 {
		sections = append(sections, m.spinner.View()+" Stage 3: final synthesis...")
	}
	if msg.Stage3 != nil {
		sections = append(sections, m.renderStage3(msg.Stage3, width))
	}
	if len(sections) == 0 {
		if msg.IsPlaceholder() {
			return m.theme.helpText.Render("waiting for the council...")
		}
		return m.theme.helpText.Render("(no council output)")
	}
	return strings.Join(sections, "\n")
}

func (m *Model) renderStage1(raw []byte, width int) string {
	label := m.theme.stageLabel.Render("Stage 1 · individual responses")
	responses, err := transcript.DecodeStage1(raw)
	if err != nil {
		return label + "\n" + wrapText(compactTimelineMessage(string(raw), 8, 600), width)
	}
	var b strings.Builder
	b.WriteString(label)
	for _, r := range responses {
		b.WriteString("\n")
		b.WriteString(m.theme.member.Render(nullCoalesce(r.Model, "member")))
		b.WriteString("\n")
		b.WriteString(wrapText(compactTimelineMessage(r.Response, timelineMaxLines, timelineMaxChars), width))
	}
	return b.String()
}

func (m *Model) renderStage2(raw, rawMeta []byte, width int) string {
	label := m.theme.stageLabel.Render("Stage 2 · peer rankings")
	rankings, err := transcript.DecodeStage2(raw)
	if err != nil {
		return label + "\n" + wrapText(compactTimelineMessage(string(raw), 8, 600), width)
	}
	var meta transcript.Metadata
	if rawMeta != nil {
		meta, _ = transcript.DecodeMetadata(rawMeta)
	}
	var b strings.Builder
	b.WriteString(label)
	for _, r := range rankings {
		order := make([]string, 0, len(r.ParsedRanking))
		for _, entry := range r.ParsedRanking {
			order = append(order, deanonymize(entry, meta.LabelToModel))
		}
		line := m.theme.member.Render(nullCoalesce(r.Model, "member")) + " "
		if len(order) > 0 {
			line += strings.Join(order, " > ")
		} else {
			line += compactSingleLine(r.Ranking, 160)
		}
		b.WriteString("\n")
		b.WriteString(wrapText(line, width))
	}
	if len(meta.AggregateRankings) > 0 {
		b.WriteString("\n")
		b.WriteString(m.theme.accent.Render("Aggregate ranking"))
		for i, agg := range meta.AggregateRankings {
			b.WriteString(fmt.Sprintf("\n%d. %s  avg %.2f (%d votes)", i+1, agg.Model, agg.AverageRank, agg.RankingsCount))
		}
	}
	return b.String()
}

func (m *Model) renderStage3(raw []byte, width int) string {
	final, err := transcript.DecodeStage3(raw)
	if err != nil {
		return m.theme.stageLabel.Render("Stage 3 · final answer") + "\n" +
			wrapText(compactTimelineMessage(string(raw), timelineMaxLines, timelineMaxChars), width)
	}
	return m.theme.chairman.Render("Stage 3 · final answer ("+nullCoalesce(final.Model, "chairman")+")") + "\n" +
		wrapText(compactTimelineMessage(final.Response, timelineMaxLines, timelineMaxChars), width)
}

// deanonymize maps "Response A" style labels back to model names.
func deanonymize(label string, labelToModel map[string]string) string {
	if name, ok := labelToModel[label]; ok && name != "" {
		return name
	}
	return label
}
