package export

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"councilchat/internal/transcript"
)

func sampleConversation() transcript.Conversation {
	return transcript.Conversation{
		ID:         "conv-1",
		Title:      "Shipping safely",
		TemplateID: "architecture",
		CreatedAt:  transcript.Timestamp{Time: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)},
		Messages: []transcript.Message{
			{Role: transcript.RoleUser, Content: "How do we **ship**?"},
			{
				Role:     transcript.RoleAssistant,
				Stage1:   json.RawMessage(`[{"model":"Atlas","response":"Canary it."}]`),
				Stage2:   json.RawMessage(`[{"model":"Atlas","ranking":"...","parsed_ranking":["Response A"]}]`),
				Metadata: json.RawMessage(`{"aggregate_rankings":[{"model":"Atlas","average_rank":1,"rankings_count":1}]}`),
				Stage3:   json.RawMessage(`{"model":"Chair","response":"Use canaries."}`),
			},
			{Role: transcript.RoleUser, Content: "And rollback?"},
			{Role: transcript.RoleAssistant, Stage1: json.RawMessage(`"free text"`)},
		},
	}
}

func TestNewDocument(t *testing.T) {
	doc := NewDocument(sampleConversation())

	assert.Equal(t, "2025-03-01T12:00:00Z", doc.CreatedAt)
	require.Len(t, doc.Turns, 2)
	first := doc.Turns[0]
	require.Len(t, first.Stage1, 1)
	assert.Equal(t, "Canary it.", first.Stage1[0].Response)
	require.Len(t, first.Rankings, 1)
	require.NotNil(t, first.Final)
	assert.Equal(t, "Chair", first.Final.Model)

	second := doc.Turns[1]
	assert.Empty(t, second.Stage1)
	assert.Equal(t, `"free text"`, second.Raw["stage1"])
}

func TestNewDocumentLeadingAssistant(t *testing.T) {
	doc := NewDocument(transcript.Conversation{ID: "x", Messages: []transcript.Message{
		{Role: transcript.RoleAssistant, Stage3: json.RawMessage(`{"model":"Chair","response":"hi"}`)},
	}})
	require.Len(t, doc.Turns, 1)
	assert.Empty(t, doc.Turns[0].Question)
	assert.NotNil(t, doc.Turns[0].Final)
}

func TestNewExporter(t *testing.T) {
	tests := []struct {
		format  string
		ext     string
		wantErr bool
	}{
		{format: "json", ext: "json"},
		{format: "yaml", ext: "yaml"},
		{format: "yml", ext: "yaml"},
		{format: "md", ext: "md"},
		{format: "markdown", ext: "md"},
		{format: "csv", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			exp, err := NewExporter(tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.ext, exp.Extension())
		})
	}
}

func TestJSONExporter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONExporter{}).Export(NewDocument(sampleConversation()), &buf))

	var back Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, "conv-1", back.ID)
	assert.Len(t, back.Turns, 2)
}

func TestYAMLExporter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&YAMLExporter{}).Export(NewDocument(sampleConversation()), &buf))

	var back map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, "Shipping safely", back["title"])
	assert.Contains(t, buf.String(), "average_rank: 1")
}

func TestMarkdownExporter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&MarkdownExporter{}).Export(NewDocument(sampleConversation()), &buf))
	out := buf.String()

	assert.Contains(t, out, "# Shipping safely")
	assert.Contains(t, out, "How do we \\*\\*ship\\*\\*?")
	assert.Contains(t, out, "| Atlas | 1.00 | 1 |")
	assert.Contains(t, out, "### Stage 3: final answer (Chair)")
	assert.Contains(t, out, "```json\n\"free text\"\n```")
}

func TestEscapeMarkdownKeepsCodeBlocks(t *testing.T) {
	in := "a **b**\n```\nx **y**\n```"
	assert.Equal(t, "a \\*\\*b\\*\\*\n```\nx **y**\n```", escapeMarkdown(in))
}
