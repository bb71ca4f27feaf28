package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"councilchat/internal/api"
	"councilchat/internal/events"
	"councilchat/internal/export"
	"councilchat/internal/session"
	"councilchat/internal/stub"
	"councilchat/internal/transcript"
)

type waitingStreamer struct{}

func (waitingStreamer) SendMessageStream(ctx context.Context, conversationID, content string, onEvent func(events.Event)) error {
	<-ctx.Done()
	return ctx.Err()
}

func newStub(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(stub.New(stub.Options{}).Handler())
	t.Cleanup(srv.Close)
	return srv.URL
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestListEmpty(t *testing.T) {
	url := newStub(t)
	out, _, err := execute(t, "list", "--api-url", url)
	require.NoError(t, err)
	assert.Contains(t, out, "No conversations.")
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	url := newStub(t)
	t.Setenv("COUNCIL_API_URL", "http://127.0.0.1:1")
	_, _, err := execute(t, "list", "--api-url", url)
	assert.NoError(t, err)
}

func TestAskCreatesConversationAndPrintsAnswer(t *testing.T) {
	url := newStub(t)

	out, progress, err := execute(t, "ask", "--api-url", url, "--log-level", "error", "--template", "architecture", "How", "do", "we", "ship?")
	require.NoError(t, err)
	assert.Contains(t, out, "Chair")
	assert.Contains(t, out, "Council verdict")
	assert.Contains(t, progress, "stage 1: 3 responses")
	assert.Contains(t, progress, "stage 2: top ranked")

	list, _, err := execute(t, "list", "--api-url", url)
	require.NoError(t, err)
	assert.Contains(t, list, "How do we ship?")
	assert.Contains(t, list, "2")
}

func TestAskErrorEvent(t *testing.T) {
	url := newStub(t)
	_, _, err := execute(t, "ask", "--api-url", url, "--log-level", "error", stub.ErrorPrefix, "please")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chairman unavailable")
}

func TestAskTransportFailure(t *testing.T) {
	url := newStub(t)
	_, _, err := execute(t, "ask", "--api-url", url, "--log-level", "panic", stub.FailPrefix)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestRunTurnReportsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var progress bytes.Buffer

	_, err := runTurn(ctx, session.NewController(waitingStreamer{}, nil),
		transcript.New(transcript.Conversation{ID: "c"}), "hello", &progress)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, progress.String())
}

func TestAskRejectsConflictingFlags(t *testing.T) {
	url := newStub(t)
	_, _, err := execute(t, "ask", "--api-url", url, "-c", "x", "-t", "pivot", "hello")
	assert.Error(t, err)
}

func TestShowJSON(t *testing.T) {
	url := newStub(t)
	client := api.NewClient(url, 5*time.Second, nil)
	ctx := context.Background()
	conv, err := client.CreateConversation(ctx, api.CreateRequest{})
	require.NoError(t, err)
	require.NoError(t, client.SendMessageStream(ctx, conv.ID, "first question", func(events.Event) {}))

	out, _, err := execute(t, "show", conv.ID, "--api-url", url, "--format", "json")
	require.NoError(t, err)

	var doc export.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, conv.ID, doc.ID)
	require.Len(t, doc.Turns, 1)
	assert.Equal(t, "first question", doc.Turns[0].Question)
	assert.Len(t, doc.Turns[0].Stage1, 3)
	require.NotNil(t, doc.Turns[0].Final)
}

func TestShowUnknownFormat(t *testing.T) {
	url := newStub(t)
	_, _, err := execute(t, "show", "anything", "--api-url", url, "--format", "csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestShowNotFound(t *testing.T) {
	url := newStub(t)
	_, _, err := execute(t, "show", "missing", "--api-url", url)
	assert.ErrorIs(t, err, api.ErrNotFound)
}

func TestTemplatesAndStarters(t *testing.T) {
	url := newStub(t)

	out, _, err := execute(t, "templates", "--api-url", url)
	require.NoError(t, err)
	assert.Contains(t, out, "code_review")

	out, _, err = execute(t, "templates", "architecture", "--api-url", url)
	require.NoError(t, err)
	assert.Contains(t, out, "SCALABILITY")

	out, _, err = execute(t, "starters", "--api-url", url)
	require.NoError(t, err)
	assert.Contains(t, out, "P0-FIRE")

	out, _, err = execute(t, "starters", "queue-backlog", "--api-url", url)
	require.NoError(t, err)
	assert.Contains(t, out, "backlog")
}
