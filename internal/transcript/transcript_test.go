package transcript

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded() Transcript {
	return New(Conversation{ID: "conv-1"})
}

func TestAppendPairAddsBothMessages(t *testing.T) {
	tr := seeded().AppendPair(Message{Content: "hello"}, Message{})

	require.Equal(t, 2, tr.Len())
	msgs := tr.Messages()
	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.True(t, msgs[1].IsPlaceholder())
}

func TestAppendPairDoesNotWriteInput(t *testing.T) {
	base := seeded().AppendPair(Message{Content: "one"}, Message{})
	base = base.MutateLastAssistant(func(m *Message) { m.Loading.Stage1 = true })

	next := base.AppendPair(Message{Content: "two"}, Message{})

	prev, _ := base.Last()
	assert.True(t, prev.Loading.Stage1, "input snapshot must keep its flags")
	assert.True(t, prev.Pending)
	msgs := next.Messages()
	assert.False(t, msgs[1].Loading.Any(), "earlier assistant flags are cleared")
	assert.False(t, msgs[1].Pending)
	assert.True(t, msgs[3].IsPlaceholder())
}

func TestMutateLastAssistantNoPlaceholder(t *testing.T) {
	empty := seeded()
	calls := 0
	out := empty.MutateLastAssistant(func(*Message) { calls++ })
	assert.Equal(t, empty, out)
	assert.Zero(t, calls)

	loaded := New(Conversation{ID: "conv-1", Messages: []Message{
		{Role: RoleUser, Content: "q"},
		{Role: RoleAssistant, Stage3: json.RawMessage(`{"response":"a"}`)},
	}})
	out = loaded.MutateLastAssistant(func(m *Message) { m.Stage3 = nil })
	assert.Equal(t, loaded, out)
	assert.Zero(t, calls)
}

func TestMutateLastAssistantCopiesOnWrite(t *testing.T) {
	base := seeded().AppendPair(Message{Content: "q"}, Message{})
	next := base.MutateLastAssistant(func(m *Message) { m.Stage1 = json.RawMessage(`"A"`) })

	before, _ := base.Last()
	after, _ := next.Last()
	assert.Nil(t, before.Stage1)
	assert.JSONEq(t, `"A"`, string(after.Stage1))
}

func TestDropLastPairRemovesUnit(t *testing.T) {
	base := New(Conversation{ID: "conv-1", Messages: []Message{
		{Role: RoleUser, Content: "old"},
		{Role: RoleAssistant},
	}})
	sent := base.AppendPair(Message{Content: "new"}, Message{})

	rolled := sent.DropLastPair()
	assert.Equal(t, base.Len(), rolled.Len())
	assert.Equal(t, base.Messages(), rolled.Messages())
}

func TestDropLastPairRefusesPartialRemoval(t *testing.T) {
	onlyUser := New(Conversation{Messages: []Message{{Role: RoleUser, Content: "x"}}})
	assert.Equal(t, onlyUser, onlyUser.DropLastPair())

	persisted := New(Conversation{Messages: []Message{
		{Role: RoleUser, Content: "q"},
		{Role: RoleAssistant},
	}})
	assert.Equal(t, persisted, persisted.DropLastPair(), "server messages are not placeholders")

	assert.Equal(t, seeded(), seeded().DropLastPair())
}

func TestDecodeStagePayloads(t *testing.T) {
	s1, err := DecodeStage1(json.RawMessage(`[{"model":"Ada","slug":"x/ada","response":"hi"}]`))
	require.NoError(t, err)
	require.Len(t, s1, 1)
	assert.Equal(t, "Ada", s1[0].Model)

	s2, err := DecodeStage2(json.RawMessage(`[{"model":"Ada","ranking":"FINAL RANKING:\n1. Response A","parsed_ranking":["Response A"]}]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"Response A"}, s2[0].ParsedRanking)

	s3, err := DecodeStage3(json.RawMessage(`{"model":"Chair","response":"verdict"}`))
	require.NoError(t, err)
	assert.Equal(t, "verdict", s3.Response)

	meta, err := DecodeMetadata(json.RawMessage(`{"label_to_model":{"Response A":"Ada"},"aggregate_rankings":[{"model":"Ada","average_rank":1.5,"rankings_count":2}]}`))
	require.NoError(t, err)
	assert.Equal(t, "Ada", meta.LabelToModel["Response A"])
	assert.InDelta(t, 1.5, meta.AggregateRankings[0].AverageRank, 0.001)

	_, err = DecodeStage1(json.RawMessage(`"free text"`))
	assert.Error(t, err)
	_, err = DecodeStage3(nil)
	assert.Error(t, err)
}
