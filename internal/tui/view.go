package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	out := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderContent(),
		m.renderInput(),
		m.renderFooter(),
	)
	if m.quitConfirm {
		out = m.renderQuitModal()
	}
	return m.theme.root.Render(out)
}

func (m *Model) renderHeader() string {
	tabs := []struct {
		id    tabID
		label string
	}{
		{tabChat, "Chat"},
		{tabConversations, "Conversations"},
		{tabPrompts, "Prompts"},
		{tabStarters, "Starters"},
		{tabHelp, "Help"},
	}
	segments := make([]string, 0, len(tabs)+1)
	for _, tab := range tabs {
		style := m.theme.tabInactive
		if tab.id == m.activeTab {
			style = m.theme.tabActive
		}
		segments = append(segments, style.Render(tab.label))
	}
	meta := fmt.Sprintf(" %s · template: %s", m.activeTitle(), nullCoalesce(m.prompt.TemplateID, "blank"))
	segments = append(segments, m.theme.helpText.Render(meta))
	joined := lipgloss.JoinHorizontal(lipgloss.Left, segments...)
	return m.theme.header.Width(maxInt(20, m.width-4)).Render(joined)
}

func (m *Model) activeTitle() string {
	if m.activeID == "" {
		return "no conversation"
	}
	for _, c := range m.conversations {
		if c.ID == m.activeID {
			return compactSingleLine(nullCoalesce(c.Title, "New Conversation"), 48)
		}
	}
	return compactSingleLine(nullCoalesce(m.transcript.Conversation.Title, m.activeID), 48)
}

func (m *Model) renderContent() string {
	contentHeight := maxInt(8, m.height-12)
	contentWidth := maxInt(40, m.width-4)

	switch m.activeTab {
	case tabChat:
		leftWidth, rightWidth := chatPanelWidths(contentWidth)
		left := m.theme.panel.Width(leftWidth).Height(contentHeight).Render(
			m.theme.panelTitle.Render("Council Transcript") + "\n" + m.timeline.View(),
		)
		right := m.theme.panel.Width(rightWidth).Height(contentHeight).Render(
			m.theme.panelTitle.Render("Session") + "\n" + m.renderSidebar(rightWidth-4, contentHeight-2),
		)
		return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	case tabConversations:
		panel := m.theme.panel.Width(contentWidth).Height(contentHeight)
		return panel.Render(m.theme.panelTitle.Render("Conversations") + "\n" + m.renderConversations(contentHeight-2))
	case tabPrompts:
		panel := m.theme.panel.Width(contentWidth).Height(contentHeight)
		return panel.Render(m.theme.panelTitle.Render("Prompt Templates") + "\n" + m.renderTemplates())
	case tabStarters:
		panel := m.theme.panel.Width(contentWidth).Height(contentHeight)
		return panel.Render(m.theme.panelTitle.Render("Starter Questions") + "\n" + m.renderStarters(contentWidth-4))
	case tabHelp:
		panel := m.theme.panel.Width(contentWidth).Height(contentHeight)
		return panel.Render(m.theme.panelTitle.Render("council-chat Help") + "\n" + m.renderHelp())
	default:
		return ""
	}
}

func chatPanelWidths(contentWidth int) (left int, right int) {
	left = int(float64(contentWidth) * 0.7)
	right = contentWidth - left - 1
	if right < 28 {
		right = 28
		left = contentWidth - right - 1
	}
	return left, right
}

func (m *Model) renderSidebar(width, height int) string {
	var b strings.Builder
	state := "idle"
	if m.busy {
		state = m.spinner.View() + " streaming"
	}
	b.WriteString(m.theme.rowKey.Render("State    ") + m.theme.rowValue.Render(state) + "\n")
	b.WriteString(m.theme.rowKey.Render("Template ") + m.theme.rowValue.Render(nullCoalesce(m.prompt.TemplateID, "blank")) + "\n")
	b.WriteString(m.theme.rowKey.Render("Active   ") + m.theme.rowValue.Render(compactSingleLine(nullCoalesce(m.activeID, "-"), maxInt(8, width-9))) + "\n")

	b.WriteString("\n" + m.theme.accent.Render("Recent") + "\n")
	shown := 0
	for _, c := range m.conversations {
		if shown == 6 {
			break
		}
		prefix := "  "
		style := m.theme.helpText
		if c.ID == m.activeID {
			prefix = "▶ "
			style = m.theme.rowPick
		}
		b.WriteString(style.Render(prefix+compactSingleLine(nullCoalesce(c.Title, "New Conversation"), maxInt(8, width-2))) + "\n")
		shown++
	}
	if shown == 0 {
		b.WriteString(m.theme.helpText.Render("  none yet") + "\n")
	}

	b.WriteString("\n" + m.theme.accent.Render("Log") + "\n")
	room := maxInt(1, height-shown-8)
	start := maxInt(0, len(m.logs)-room)
	for _, line := range m.logs[start:] {
		b.WriteString(m.theme.helpText.Render(compactSingleLine(line, maxInt(8, width))) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) renderConversations(height int) string {
	if len(m.conversations) == 0 {
		return m.theme.helpText.Render("No conversations yet. Press n (or Ctrl+N) to create one.")
	}
	var b strings.Builder
	b.WriteString(m.theme.helpText.Render("↑/↓ select · Enter open · n new"))
	b.WriteString("\n\n")
	visible := maxInt(1, height-3)
	start := clampInt(m.listIndex-visible+1, 0, maxInt(0, len(m.conversations)-visible))
	end := minInt(len(m.conversations), start+visible)
	for i := start; i < end; i++ {
		c := m.conversations[i]
		prefix := "  "
		labelStyle := m.theme.rowValue
		if i == m.listIndex {
			prefix = "▶ "
			labelStyle = m.theme.rowPick
		}
		marker := " "
		if c.ID == m.activeID {
			marker = "*"
		}
		line := fmt.Sprintf("%s%s %s  %s", prefix, marker, c.CreatedAt.Short(), nullCoalesce(c.Title, "New Conversation"))
		b.WriteString(labelStyle.Render(line))
		b.WriteString(m.theme.helpText.Render(fmt.Sprintf("  (%d messages)", c.MessageCount)))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) renderTemplates() string {
	if len(m.templates) == 0 {
		return m.theme.helpText.Render("No templates available.")
	}
	var b strings.Builder
	hint := "↑/↓ select · Enter apply to new conversations"
	if m.busy {
		hint = "Templates are locked while the council is answering."
	}
	b.WriteString(m.theme.helpText.Render(hint))
	b.WriteString("\n\n")
	for i, tpl := range m.templates {
		prefix := "  "
		labelStyle := m.theme.rowKey
		if i == m.templateIndex {
			prefix = "▶ "
			labelStyle = m.theme.rowPick
		}
		current := ""
		if tpl.ID == m.prompt.TemplateID {
			current = m.theme.accent.Render("  [active]")
		}
		b.WriteString(prefix + labelStyle.Render(tpl.Name) + current + "\n")
		b.WriteString("   " + m.theme.helpText.Render(tpl.Description) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) renderStarters(width int) string {
	if len(m.starters) == 0 {
		return m.theme.helpText.Render("No starter questions available.")
	}
	var b strings.Builder
	b.WriteString(m.theme.helpText.Render("↑/↓ select · Enter ask in a new conversation"))
	b.WriteString("\n\n")
	for i, q := range m.starters {
		prefix := "  "
		titleStyle := m.theme.rowValue
		if i == m.starterIndex {
			prefix = "▶ "
			titleStyle = m.theme.rowPick
		}
		sev := m.theme.severityStyle(q.Severity).Render(fmt.Sprintf("%-9s", q.Severity))
		b.WriteString(prefix + sev + " " + m.theme.rowKey.Render("["+q.Domain+"]") + " " + titleStyle.Render(q.Title) + "\n")
		b.WriteString("   " + m.theme.helpText.Render(compactSingleLine(q.Preview, maxInt(20, width-4))) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) renderInput() string {
	contentWidth := maxInt(40, m.width-4)
	if m.activeTab != tabChat {
		return m.theme.inputPanel.Width(contentWidth).Render(m.theme.helpText.Render("Input disabled outside Chat tab. Press Esc to return."))
	}
	inputView := m.input.View()
	if m.busy {
		inputView = m.spinner.View() + " council is answering... " + inputView
	}
	return m.theme.inputPanel.Width(contentWidth).Render(inputView)
}

func (m *Model) renderFooter() string {
	contentWidth := maxInt(40, m.width-4)
	statusStyle := m.theme.status
	if strings.Contains(strings.ToLower(m.statusLine), "failed") || strings.Contains(strings.ToLower(m.statusLine), "error") {
		statusStyle = m.theme.errorStatus
	}
	line := statusStyle.Render(compactSingleLine(m.statusLine, 180))
	hints := m.theme.helpText.Render("Keys: Tab switch view · Enter send · Ctrl+N new conversation · PgUp/PgDn scroll · Esc back/quit · Ctrl+C quit")
	return m.theme.footer.Width(contentWidth).Render(line + "\n" + hints)
}

func (m *Model) renderQuitModal() string {
	canvasWidth := maxInt(40, m.width-4)
	canvasHeight := maxInt(12, m.height-4)
	modalWidth := clampInt(int(float64(canvasWidth)*0.56), 32, 78)
	if modalWidth > canvasWidth-2 {
		modalWidth = canvasWidth - 2
	}

	note := "Conversations are stored by the council backend."
	if m.busy {
		note = "A council answer is still streaming and will be abandoned."
	}
	body := strings.Join([]string{
		m.theme.errorStatus.Render("QUIT COUNCIL-CHAT?"),
		"",
		m.theme.helpText.Render(note),
		"",
		m.theme.rowPick.Render("[Y / Enter] Quit") + "    " + m.theme.helpText.Render("[N / Esc] Return"),
	}, "\n")
	panel := m.theme.modalFrame.Width(modalWidth).Render(body)
	return lipgloss.Place(
		canvasWidth,
		canvasHeight,
		lipgloss.Center,
		lipgloss.Center,
		panel,
		lipgloss.WithWhitespaceBackground(lipgloss.Color("#120924")),
	)
}

// renderPanes refreshes the transcript viewport, keeping the reader pinned
// to the bottom unless they scrolled up.
func (m *Model) renderPanes() {
	prevYOffset := m.timeline.YOffset
	prevAtBottom := m.timeline.AtBottom()

	contentHeight := maxInt(8, m.height-12)
	contentWidth := maxInt(40, m.width-4)
	leftWidth, _ := chatPanelWidths(contentWidth)
	m.timeline.Width = maxInt(20, leftWidth-4)
	m.timeline.Height = maxInt(5, contentHeight-3)

	m.timeline.SetContent(m.renderTimeline())
	if prevAtBottom {
		m.timeline.GotoBottom()
	} else {
		m.timeline.SetYOffset(prevYOffset)
	}
}

func (m *Model) resize() {
	contentWidth := maxInt(40, m.width-4)
	m.input.Width = maxInt(20, contentWidth-6)
}

func (m *Model) renderHelp() string {
	lines := []string{
		"Core Keys",
		"- Tab / Shift+Tab: switch views",
		"- Enter (Chat): send to the council; ignored while an answer is streaming",
		"- Ctrl+N: new conversation using the active prompt template",
		"- Transcript scroll: PgUp/PgDn, Up/Down (input empty), Home/End, mouse wheel",
		"- Esc: from other tabs return to Chat; in Chat show the quit prompt",
		"- Ctrl+C: quit",
		"",
		"Council Stages",
		"- Stage 1: every member answers independently",
		"- Stage 2: members rank the anonymised answers; the aggregate ranking follows",
		"- Stage 3: the chairman writes the final answer",
		"",
		"Tabs",
		"- Conversations: Enter opens one, n creates one",
		"- Prompts: Enter sets the template used for new conversations",
		"- Starters: Enter creates a conversation and asks the question at once",
		"",
		"Switching conversations never cancels an answer in progress; it keeps",
		"streaming to its own conversation and the busy flag clears when it ends.",
	}
	return m.theme.helpText.Render(strings.Join(lines, "\n"))
}
