// Package stub is an in-memory council backend for local runs and tests. It
// speaks the same HTTP and event-stream contract as the real service and
// fabricates deterministic stage results instead of calling models.
package stub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"councilchat/internal/api"
	"councilchat/internal/events"
	"councilchat/internal/transcript"
)

const (
	// Content with this prefix makes the stream request fail before any event.
	FailPrefix = "/fail"
	// Content with this prefix emits an error event after stage 1.
	ErrorPrefix = "/error"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type Options struct {
	StageDelay time.Duration
	Logger     *logrus.Entry
	Now        func() time.Time
}

type Server struct {
	mu            sync.Mutex
	conversations map[string]*transcript.Conversation
	order         []string

	templates  []template
	starters   []starter
	stageDelay time.Duration
	logger     *logrus.Entry
	now        func() time.Time
}

func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		logger = logrus.NewEntry(l)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Server{
		conversations: map[string]*transcript.Conversation{},
		templates:     defaultTemplates,
		starters:      defaultStarters,
		stageDelay:    opts.StageDelay,
		logger:        logger.WithField("component", "stub"),
		now:           now,
	}
}

// Handler returns the Echo instance serving the API.
func (s *Server) Handler() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.WithFields(logrus.Fields{
				"method": v.Method,
				"uri":    v.URI,
				"status": v.Status,
			}).Debug("request")
			return nil
		},
	}))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	g := e.Group("/api")
	g.GET("/conversations", s.listConversations)
	g.POST("/conversations", s.createConversation)
	g.GET("/conversations/:id", s.getConversation)
	g.POST("/conversations/:id/message/stream", s.streamMessage)
	g.GET("/templates", s.listTemplates)
	g.GET("/templates/:id", s.getTemplate)
	g.GET("/starter-questions", s.listStarters)
	g.GET("/starter-questions/:id", s.getStarter)
	return e
}

func (s *Server) listConversations(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]transcript.Summary, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		conv := s.conversations[s.order[i]]
		out = append(out, transcript.Summary{
			ID:           conv.ID,
			CreatedAt:    conv.CreatedAt,
			MessageCount: len(conv.Messages),
			Title:        conv.Title,
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) createConversation(c echo.Context) error {
	var req api.CreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	conv := &transcript.Conversation{
		ID:           uuid.NewString(),
		CreatedAt:    transcript.Timestamp{Time: s.now().UTC()},
		Title:        "New Conversation",
		SystemPrompt: req.SystemPrompt,
		TemplateID:   req.TemplateID,
		Messages:     []transcript.Message{},
	}
	if conv.TemplateID == "" {
		conv.TemplateID = "blank"
	}
	if conv.SystemPrompt == "" {
		conv.SystemPrompt = s.templatePrompt(conv.TemplateID)
	}
	s.mu.Lock()
	s.conversations[conv.ID] = conv
	s.order = append(s.order, conv.ID)
	s.mu.Unlock()
	s.logger.WithField("conversation_id", conv.ID).Info("conversation created")
	return c.JSON(http.StatusOK, conv)
}

func (s *Server) getConversation(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[c.Param("id")]
	if !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "conversation not found"})
	}
	return c.JSON(http.StatusOK, conv)
}

func (s *Server) listTemplates(c echo.Context) error {
	out := make([]api.Template, 0, len(s.templates))
	for _, t := range s.templates {
		out = append(out, t.Template)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getTemplate(c echo.Context) error {
	for _, t := range s.templates {
		if t.ID == c.Param("id") {
			return c.JSON(http.StatusOK, map[string]string{"id": t.ID, "prompt": t.Prompt})
		}
	}
	return c.JSON(http.StatusNotFound, ErrorResponse{Error: "template not found"})
}

func (s *Server) listStarters(c echo.Context) error {
	out := make([]api.StarterQuestion, 0, len(s.starters))
	for _, q := range s.starters {
		out = append(out, q.StarterQuestion)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getStarter(c echo.Context) error {
	for _, q := range s.starters {
		if q.ID == c.Param("id") {
			return c.JSON(http.StatusOK, map[string]string{"id": q.ID, "prompt": q.Prompt})
		}
	}
	return c.JSON(http.StatusNotFound, ErrorResponse{Error: "starter question not found"})
}

func (s *Server) templatePrompt(id string) string {
	for _, t := range s.templates {
		if t.ID == id {
			return t.Prompt
		}
	}
	return ""
}

func (s *Server) streamMessage(c echo.Context) error {
	id := c.Param("id")
	var req struct {
		Content string `json:"content"`
	}
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "content is required"})
	}

	s.mu.Lock()
	conv, ok := s.conversations[id]
	firstMessage := ok && len(conv.Messages) == 0
	s.mu.Unlock()
	if !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "conversation not found"})
	}
	if strings.HasPrefix(req.Content, FailPrefix) {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "council unavailable"})
	}

	ctx := c.Request().Context()
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	emit := func(ev events.Event) error {
		buf, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(res, "data: %s\n\n", buf); err != nil {
			return err
		}
		res.Flush()
		return nil
	}
	pause := func() error {
		if s.stageDelay <= 0 {
			return ctx.Err()
		}
		timer := time.NewTimer(s.stageDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		}
	}

	log := s.logger.WithField("conversation_id", id)
	result := runCouncil(req.Content)
	steps := []events.Event{
		{Type: events.Stage1Start},
		{Type: events.Stage1Complete, Data: mustJSON(result.stage1)},
	}
	if strings.HasPrefix(req.Content, ErrorPrefix) {
		steps = append(steps, events.Event{Type: events.Error, Message: "chairman unavailable"})
	} else {
		steps = append(steps,
			events.Event{Type: events.Stage2Start},
			events.Event{Type: events.Stage2Complete, Data: mustJSON(result.stage2), Metadata: mustJSON(result.metadata)},
			events.Event{Type: events.Stage3Start},
			events.Event{Type: events.Stage3Complete, Data: mustJSON(result.stage3)},
		)
	}
	for _, ev := range steps {
		if ev.Type == events.Stage1Start || ev.Type == events.Stage2Start || ev.Type == events.Stage3Start {
			if err := emit(ev); err != nil {
				return nil
			}
			if err := pause(); err != nil {
				log.WithError(err).Info("client went away")
				return nil
			}
			continue
		}
		if err := emit(ev); err != nil {
			return nil
		}
		if ev.Type == events.Error {
			return nil
		}
	}

	s.mu.Lock()
	conv.Messages = append(conv.Messages,
		transcript.Message{Role: transcript.RoleUser, Content: req.Content},
		transcript.Message{
			Role:     transcript.RoleAssistant,
			Stage1:   mustJSON(result.stage1),
			Stage2:   mustJSON(result.stage2),
			Stage3:   mustJSON(result.stage3),
			Metadata: mustJSON(result.metadata),
		},
	)
	title := conv.Title
	if firstMessage {
		title = titleFor(req.Content)
		conv.Title = title
	}
	s.mu.Unlock()

	if firstMessage {
		if err := emit(events.Event{Type: events.TitleComplete, Data: mustJSON(map[string]string{"title": title})}); err != nil {
			return nil
		}
	}
	_ = emit(events.Event{Type: events.Complete})
	log.Info("council turn streamed")
	return nil
}

type councilResult struct {
	stage1   []transcript.ModelResponse
	stage2   []transcript.Ranking
	stage3   transcript.ModelResponse
	metadata transcript.Metadata
}

// runCouncil fabricates a deterministic three-stage result for query.
func runCouncil(query string) councilResult {
	summary := compact(query, 80)
	var out councilResult
	labelToModel := map[string]string{}
	labels := make([]string, 0, len(councilMembers))
	for i, m := range councilMembers {
		label := fmt.Sprintf("Response %c", 'A'+i)
		labels = append(labels, label)
		labelToModel[label] = m.Alias
		out.stage1 = append(out.stage1, transcript.ModelResponse{
			Model:    m.Alias,
			Slug:     m.Slug,
			Response: fmt.Sprintf("%s's take on %q: start with the smallest reversible step and measure.", m.Alias, summary),
		})
	}

	positions := map[string][]int{}
	for i, m := range councilMembers {
		order := make([]string, len(labels))
		for j := range labels {
			order[j] = labels[(i+j)%len(labels)]
		}
		var text strings.Builder
		text.WriteString("Each response is reasonable.\n\nFINAL RANKING:\n")
		for pos, label := range order {
			fmt.Fprintf(&text, "%d. %s\n", pos+1, label)
			positions[labelToModel[label]] = append(positions[labelToModel[label]], pos+1)
		}
		out.stage2 = append(out.stage2, transcript.Ranking{
			Model:         m.Alias,
			Slug:          m.Slug,
			Ranking:       strings.TrimSpace(text.String()),
			ParsedRanking: order,
		})
	}

	aggregate := make([]transcript.AggregateRank, 0, len(positions))
	for model, pos := range positions {
		sum := 0
		for _, p := range pos {
			sum += p
		}
		aggregate = append(aggregate, transcript.AggregateRank{
			Model:         model,
			AverageRank:   float64(sum) / float64(len(pos)),
			RankingsCount: len(pos),
		})
	}
	sort.Slice(aggregate, func(i, j int) bool {
		if aggregate[i].AverageRank == aggregate[j].AverageRank {
			return aggregate[i].Model < aggregate[j].Model
		}
		return aggregate[i].AverageRank < aggregate[j].AverageRank
	})
	out.metadata = transcript.Metadata{LabelToModel: labelToModel, AggregateRankings: aggregate}
	out.stage3 = transcript.ModelResponse{
		Model:    chairman.Alias,
		Slug:     chairman.Slug,
		Response: fmt.Sprintf("Council verdict on %q: the members agree on an incremental, measured approach.", summary),
	}
	return out
}

func titleFor(content string) string {
	words := strings.Fields(content)
	if len(words) > 5 {
		words = words[:5]
	}
	title := strings.Join(words, " ")
	if len(title) > 50 {
		title = title[:47] + "..."
	}
	if title == "" {
		return "New Conversation"
	}
	return title
}

func compact(text string, limit int) string {
	joined := strings.Join(strings.Fields(text), " ")
	if len(joined) <= limit {
		return joined
	}
	return joined[:limit-3] + "..."
}

func mustJSON(v any) json.RawMessage {
	buf, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("stub: marshal %T: %v", v, err))
	}
	return buf
}

// ListenAndServe serves the stub on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	e := s.Handler()
	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("stub backend listening")
		errCh <- e.Start(addr)
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	}
}
