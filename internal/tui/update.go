package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"councilchat/internal/api"
	"councilchat/internal/session"
	"councilchat/internal/transcript"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case conversationsLoadedMsg:
		if msg.err != nil {
			m.logError(msg.err)
			break
		}
		m.conversations = msg.conversations
		m.listIndex = clampInt(m.listIndex, 0, maxInt(0, len(m.conversations)-1))
		if m.statusLine == "starting..." {
			m.statusLine = fmt.Sprintf("ready · %d conversations", len(m.conversations))
		}
		m.renderPanes()
	case conversationLoadedMsg:
		if m.loadingID == msg.id {
			m.loadingID = ""
		}
		if msg.id != m.activeID {
			m.logger.WithField("conversation_id", msg.id).Debug("dropping detail for inactive conversation")
			break
		}
		if msg.err != nil {
			m.logError(msg.err)
			break
		}
		if m.stream != nil && m.stream.ConversationID == msg.id {
			m.logger.WithField("conversation_id", msg.id).Debug("keeping local transcript while streaming")
			break
		}
		m.transcript = transcript.New(msg.conversation)
		m.renderPanes()
	case conversationCreatedMsg:
		if msg.err != nil {
			m.logError(msg.err)
			break
		}
		conv := msg.conversation
		m.conversations = prependSummary(m.conversations, transcript.Summary{ID: conv.ID, CreatedAt: conv.CreatedAt})
		m.listIndex = 0
		m.appendLog("created conversation " + conv.ID)
		m.activeTab = tabChat
		m.input.Focus()
		cmds = append(cmds, m.selectConversation(conv.ID))
		m.renderPanes()
	case startersLoadedMsg:
		if msg.err != nil {
			m.logError(msg.err)
			break
		}
		m.starters = msg.starters
		m.starterIndex = clampInt(m.starterIndex, 0, maxInt(0, len(m.starters)-1))
	case templatesLoadedMsg:
		if msg.err != nil {
			m.logError(msg.err)
			break
		}
		m.templates = msg.templates
		m.templateIndex = clampInt(m.templateIndex, 0, maxInt(0, len(m.templates)-1))
	case templateLoadedMsg:
		if msg.err != nil {
			m.logError(msg.err)
			break
		}
		m.prompt = promptConfig{TemplateID: msg.id, SystemPrompt: msg.prompt}
		m.statusLine = "template: " + msg.id
		m.appendLog("prompt template set to " + msg.id)
	case starterReadyMsg:
		if msg.err != nil {
			m.busy = false
			m.logError(msg.err)
			break
		}
		cmds = append(cmds, m.startStarter(msg))
		m.renderPanes()
	case streamUpdateMsg:
		cmds = append(cmds, m.foldStream(msg))
		m.renderPanes()
	case streamClosedMsg:
		m.logger.WithField("stream_id", msg.streamID).Debug("stream drained")
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.renderPanes()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
		if m.transcriptLoading() {
			m.renderPanes()
		}
	case tea.MouseMsg:
		if m.quitConfirm || m.activeTab != tabChat {
			break
		}
		var cmd tea.Cmd
		m.timeline, cmd = m.timeline.Update(msg)
		cmds = append(cmds, cmd)
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	if msg.String() == "ctrl+c" {
		return m, m.quit()
	}
	if m.quitConfirm {
		switch msg.String() {
		case "y", "Y", "enter":
			return m, m.quit()
		case "n", "N", "esc":
			m.quitConfirm = false
			m.statusLine = "quit canceled"
			m.renderPanes()
		}
		return m, nil
	}

	switch msg.String() {
	case "esc":
		if m.activeTab == tabChat {
			m.beginQuitConfirm()
			return m, nil
		}
		m.switchTab(tabChat)
		return m, nil
	case "tab":
		m.switchTab((m.activeTab + 1) % tabCount)
		return m, nil
	case "shift+tab":
		m.switchTab((m.activeTab + tabCount - 1) % tabCount)
		return m, nil
	case "ctrl+n":
		m.statusLine = "creating conversation..."
		return m, m.createConversationCmd()
	}

	switch m.activeTab {
	case tabChat:
		switch msg.String() {
		case "enter":
			raw := strings.TrimSpace(m.input.Value())
			if raw == "" {
				return m, nil
			}
			cmd := m.sendMessage(raw)
			if cmd != nil {
				m.input.SetValue("")
			}
			return m, cmd
		case "pgup", "ctrl+b":
			m.timeline.LineUp(8)
			return m, nil
		case "pgdown", "ctrl+f":
			m.timeline.LineDown(8)
			return m, nil
		case "up":
			if strings.TrimSpace(m.input.Value()) == "" {
				m.timeline.LineUp(4)
				return m, nil
			}
		case "down":
			if strings.TrimSpace(m.input.Value()) == "" {
				m.timeline.LineDown(4)
				return m, nil
			}
		case "home":
			m.timeline.GotoTop()
			return m, nil
		case "end":
			m.timeline.GotoBottom()
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	case tabConversations:
		switch msg.String() {
		case "up", "k":
			m.listIndex = maxInt(0, m.listIndex-1)
		case "down", "j":
			m.listIndex = minInt(maxInt(0, len(m.conversations)-1), m.listIndex+1)
		case "n":
			m.statusLine = "creating conversation..."
			cmds = append(cmds, m.createConversationCmd())
		case "enter":
			if m.listIndex < len(m.conversations) {
				id := m.conversations[m.listIndex].ID
				m.switchTab(tabChat)
				cmds = append(cmds, m.selectConversation(id))
			}
		}
	case tabPrompts:
		switch msg.String() {
		case "up", "k":
			m.templateIndex = maxInt(0, m.templateIndex-1)
		case "down", "j":
			m.templateIndex = minInt(maxInt(0, len(m.templates)-1), m.templateIndex+1)
		case "enter":
			if m.templateIndex < len(m.templates) {
				cmds = append(cmds, m.selectTemplate(m.templates[m.templateIndex]))
			}
		}
	case tabStarters:
		switch msg.String() {
		case "up", "k":
			m.starterIndex = maxInt(0, m.starterIndex-1)
		case "down", "j":
			m.starterIndex = minInt(maxInt(0, len(m.starters)-1), m.starterIndex+1)
		case "enter":
			if m.starterIndex < len(m.starters) {
				cmds = append(cmds, m.askStarter(m.starters[m.starterIndex]))
			}
		}
	}
	return m, tea.Batch(cmds...)
}

// selectConversation makes id the active conversation.
func (m *Model) selectConversation(id string) tea.Cmd {
	if id == "" || id == m.activeID {
		return nil
	}
	m.activeID = id
	return m.activeChanged()
}

// activeChanged is the single place that decides whether a newly active
// conversation is fetched from the backend. A raised switch guard skips
// exactly one fetch and leaves the locally seeded transcript on screen.
func (m *Model) activeChanged() tea.Cmd {
	id := m.activeID
	if id == "" {
		return nil
	}
	if m.switchGuard.Consume() {
		m.logger.WithField("conversation_id", id).Debug("detail fetch skipped for seeded conversation")
		return nil
	}
	if m.stream != nil && m.stream.ConversationID == id {
		m.logger.WithField("conversation_id", id).Debug("restoring streaming transcript")
		m.transcript = m.streamTranscript
		m.loadingID = ""
		m.renderPanes()
		return nil
	}
	m.transcript = transcript.New(transcript.Conversation{ID: id})
	m.loadingID = id
	m.renderPanes()
	return m.loadConversationCmd(id)
}

// sendMessage is rejected when nothing is active or a send is in flight; the
// busy flag is the only thing preventing two overlapping sends.
func (m *Model) sendMessage(content string) tea.Cmd {
	if m.activeID == "" {
		m.statusLine = "no conversation selected · Ctrl+N to start one"
		return nil
	}
	if m.busy {
		m.statusLine = "council is still answering"
		return nil
	}
	if m.transcript.ID() != m.activeID {
		m.transcript = transcript.New(transcript.Conversation{ID: m.activeID})
	}
	m.busy = true
	m.statusLine = "asking the council..."
	var stream *session.Stream
	m.transcript, stream = m.controller.Start(m.ctx, m.transcript, m.activeID, content)
	m.stream = stream
	m.streamTranscript = m.transcript
	m.renderPanes()
	return waitStream(stream)
}

func (m *Model) askStarter(question api.StarterQuestion) tea.Cmd {
	if m.busy {
		m.statusLine = "council is still answering"
		return nil
	}
	m.busy = true
	m.statusLine = "starting: " + compactSingleLine(question.Title, 80)
	return m.starterCmd(question)
}

// startStarter seeds the freshly created conversation locally and streams
// the starter prompt into it. The guard is raised before the active id
// changes so the detail fetch that would normally follow is skipped.
func (m *Model) startStarter(msg starterReadyMsg) tea.Cmd {
	conv := msg.conversation
	m.conversations = prependSummary(m.conversations, transcript.Summary{
		ID:        conv.ID,
		CreatedAt: conv.CreatedAt,
		Title:     "New Conversation",
	})
	m.listIndex = 0

	m.switchGuard.Raise()
	m.activeID = conv.ID
	conv.Messages = nil
	m.transcript = transcript.New(conv)
	m.prompt = promptConfig{TemplateID: msg.question.TemplateID, SystemPrompt: conv.SystemPrompt}
	fetch := m.activeChanged()

	var stream *session.Stream
	m.transcript, stream = m.controller.Start(m.ctx, m.transcript, conv.ID, msg.prompt)
	m.stream = stream
	m.streamTranscript = m.transcript
	m.switchTab(tabChat)
	m.statusLine = "asking the council..."
	return tea.Batch(fetch, waitStream(stream))
}

func (m *Model) selectTemplate(tpl api.Template) tea.Cmd {
	if m.busy {
		m.statusLine = "template locked while the council is answering"
		return nil
	}
	if tpl.ID == "blank" {
		m.prompt = promptConfig{TemplateID: tpl.ID}
		m.statusLine = "template: blank"
		return nil
	}
	m.statusLine = "loading template " + tpl.ID + "..."
	return m.loadTemplateCmd(tpl.ID)
}

// foldStream applies one stream update. Updates for the current stream fold
// into its own transcript even while another conversation is on screen. Final updates from a stream that has
// already cleared the busy flag are logged and dropped, so a late transport
// error cannot roll back or unlock a newer send.
func (m *Model) foldStream(msg streamUpdateMsg) tea.Cmd {
	upd := msg.update
	current := m.stream != nil && m.stream.ID == msg.stream.ID
	if !current && upd.Final() {
		if upd.Err != nil {
			m.logger.WithError(upd.Err).WithField("stream_id", upd.StreamID).Warn("stream failed after it completed")
		}
		return nil
	}

	var eff session.Effects
	if current && m.transcript.ID() != upd.ConversationID {
		m.streamTranscript, eff = m.controller.Fold(m.streamTranscript, upd)
	} else {
		m.transcript, eff = m.controller.Fold(m.transcript, upd)
		if current {
			m.streamTranscript = m.transcript
		}
	}

	var cmds []tea.Cmd
	if eff.RefreshList {
		cmds = append(cmds, m.loadConversationsCmd())
	}
	if eff.RolledBack {
		m.appendLog("send failed; message removed")
	}
	if eff.Err != nil {
		m.logError(eff.Err)
	}
	if eff.ClearBusy && current {
		m.busy = false
		m.stream = nil
		m.streamTranscript = transcript.Transcript{}
		if eff.Err == nil {
			m.statusLine = "council answered"
		}
	}
	if !upd.Final() {
		cmds = append(cmds, waitStream(msg.stream))
	}
	m.logger.WithFields(logrus.Fields{
		"stream_id": upd.StreamID,
		"event":     upd.Event.Type,
		"applied":   eff.Applied,
	}).Debug("stream update folded")
	return tea.Batch(cmds...)
}

func (m *Model) quit() tea.Cmd {
	if m.stream != nil {
		m.stream.Cancel()
	}
	return tea.Quit
}

func (m *Model) switchTab(tab tabID) {
	m.activeTab = tab
	if tab == tabChat {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
	m.renderPanes()
}

func (m *Model) beginQuitConfirm() {
	m.quitConfirm = true
	m.statusLine = "quit council-chat?"
}

func (m *Model) transcriptLoading() bool {
	last, ok := m.transcript.Last()
	return ok && last.Loading.Any()
}

func (m *Model) appendLog(line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}
	m.logger.Info(trimmed)
	m.logs = append(m.logs, fmt.Sprintf("%s %s", time.Now().Format("15:04:05"), compactSingleLine(trimmed, 220)))
	if len(m.logs) > maxLogLines {
		m.logs = m.logs[len(m.logs)-maxLogLines:]
	}
}

func (m *Model) logError(err error) {
	if err == nil {
		return
	}
	m.logger.WithError(err).Error("operation failed")
	m.logs = append(m.logs, fmt.Sprintf("%s error: %s", time.Now().Format("15:04:05"), compactSingleLine(err.Error(), 220)))
	if len(m.logs) > maxLogLines {
		m.logs = m.logs[len(m.logs)-maxLogLines:]
	}
	m.statusLine = "error: " + compactSingleLine(err.Error(), 160)
}

func prependSummary(list []transcript.Summary, s transcript.Summary) []transcript.Summary {
	out := make([]transcript.Summary, 0, len(list)+1)
	out = append(out, s)
	for _, existing := range list {
		if existing.ID != s.ID {
			out = append(out, existing)
		}
	}
	return out
}
