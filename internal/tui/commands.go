package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"councilchat/internal/api"
	"councilchat/internal/session"
)

func (m Model) loadConversationsCmd() tea.Cmd {
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		list, err := backend.ListConversations(ctx)
		if err != nil {
			return conversationsLoadedMsg{err: fmt.Errorf("list conversations: %w", err)}
		}
		return conversationsLoadedMsg{conversations: list}
	}
}

func (m Model) loadConversationCmd(id string) tea.Cmd {
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		conv, err := backend.GetConversation(ctx, id)
		if err != nil {
			return conversationLoadedMsg{id: id, err: fmt.Errorf("load conversation %s: %w", id, err)}
		}
		return conversationLoadedMsg{id: id, conversation: conv}
	}
}

func (m Model) createConversationCmd() tea.Cmd {
	ctx, backend := m.ctx, m.backend
	req := api.CreateRequest{SystemPrompt: m.prompt.SystemPrompt, TemplateID: m.prompt.TemplateID}
	return func() tea.Msg {
		conv, err := backend.CreateConversation(ctx, req)
		if err != nil {
			return conversationCreatedMsg{err: fmt.Errorf("create conversation: %w", err)}
		}
		return conversationCreatedMsg{conversation: conv}
	}
}

func (m Model) loadStartersCmd() tea.Cmd {
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		list, err := backend.ListStarterQuestions(ctx)
		if err != nil {
			return startersLoadedMsg{err: fmt.Errorf("list starter questions: %w", err)}
		}
		return startersLoadedMsg{starters: list}
	}
}

func (m Model) loadTemplatesCmd() tea.Cmd {
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		list, err := backend.ListTemplates(ctx)
		if err != nil {
			return templatesLoadedMsg{err: fmt.Errorf("list templates: %w", err)}
		}
		return templatesLoadedMsg{templates: list}
	}
}

func (m Model) loadTemplateCmd(id string) tea.Cmd {
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		prompt, err := backend.GetTemplate(ctx, id)
		if err != nil {
			return templateLoadedMsg{id: id, err: fmt.Errorf("load template %s: %w", id, err)}
		}
		return templateLoadedMsg{id: id, prompt: prompt}
	}
}

// starterCmd fetches the question text and creates the conversation it will
// be asked in. The conversation is created with the question's template and
// no explicit system prompt.
func (m Model) starterCmd(question api.StarterQuestion) tea.Cmd {
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		prompt, err := backend.GetStarterQuestion(ctx, question.ID)
		if err != nil {
			return starterReadyMsg{question: question, err: fmt.Errorf("load starter question %s: %w", question.ID, err)}
		}
		conv, err := backend.CreateConversation(ctx, api.CreateRequest{TemplateID: question.TemplateID})
		if err != nil {
			return starterReadyMsg{question: question, err: fmt.Errorf("create conversation: %w", err)}
		}
		return starterReadyMsg{question: question, prompt: prompt, conversation: conv}
	}
}

// waitStream blocks for the next update of stream. It is re-issued after each
// non-final update, so updates reach Update one at a time and in order.
func waitStream(stream *session.Stream) tea.Cmd {
	if stream == nil {
		return nil
	}
	return func() tea.Msg {
		upd, ok := stream.Next()
		if !ok {
			return streamClosedMsg{streamID: stream.ID}
		}
		return streamUpdateMsg{stream: stream, update: upd}
	}
}
