package stub

import (
	"bufio"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCouncilAggregatesRankings(t *testing.T) {
	res := runCouncil("should we cache the session lookups")

	require.Len(t, res.stage1, len(councilMembers))
	require.Len(t, res.stage2, len(councilMembers))
	assert.Equal(t, chairman.Alias, res.stage3.Model)
	assert.Len(t, res.metadata.LabelToModel, len(councilMembers))

	require.Len(t, res.metadata.AggregateRankings, len(councilMembers))
	for _, agg := range res.metadata.AggregateRankings {
		assert.Equal(t, len(councilMembers), agg.RankingsCount)
		assert.InDelta(t, 2.0, agg.AverageRank, 0.001, "rotating ballots give every member the same mean")
	}
	assert.Equal(t, []string{"Response B", "Response C", "Response A"}, res.stage2[1].ParsedRanking)
}

func TestTitleFor(t *testing.T) {
	assert.Equal(t, "one two three four five", titleFor("one two three four five six"))
	assert.Equal(t, "New Conversation", titleFor("   "))
	assert.LessOrEqual(t, len(titleFor(strings.Repeat("x", 80))), 50)
}

func TestStreamUnknownConversation(t *testing.T) {
	srv := httptest.NewServer(New(Options{}).Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/conversations/nope/message/stream", "application/json", strings.NewReader(`{"content":"hi"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStreamWritesEventFrames(t *testing.T) {
	s := New(Options{})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	created, err := http.Post(srv.URL+"/api/conversations", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	created.Body.Close()
	var id string
	s.mu.Lock()
	for k := range s.conversations {
		id = k
	}
	s.mu.Unlock()
	require.NotEmpty(t, id)

	resp, err := http.Post(srv.URL+"/api/conversations/"+id+"/message/stream", "application/json", strings.NewReader(`{"content":"hello council"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	frames := 0
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if strings.HasPrefix(scanner.Text(), "data: ") {
			frames++
		}
	}
	assert.Equal(t, 8, frames)
}
