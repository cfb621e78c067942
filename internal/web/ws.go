package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/mindprep/mindprep/internal/gemini"
	"github.com/mindprep/mindprep/internal/quiz"
)

// clientFrame is a message from the quiz client.
type clientFrame struct {
	Type   string `json:"type"`
	Topic  string `json:"topic,omitempty"`
	Option int    `json:"option"`
}

// serverFrame is a message to the quiz client. Exactly one of the payload
// fields is set, selected by Type.
type serverFrame struct {
	Type     string         `json:"type"`
	Question *quiz.Question `json:"question,omitempty"`
	Position int            `json:"position,omitempty"`
	Total    int            `json:"total,omitempty"`
	Attempt  *quiz.Attempt  `json:"attempt,omitempty"`
	Message  string         `json:"message,omitempty"`
}

// handleQuizSocket runs one quiz conversation per connection. The client
// drives it with start and answer frames; the server replies with question
// frames and, after the last answer, a result frame.
func (s *Server) handleQuizSocket(w http.ResponseWriter, r *http.Request) {
	// The socket carries no cookie-based auth and native app shells send no
	// Origin header at all, so origin checking is off.
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	for {
		var frame clientFrame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			return
		}

		switch frame.Type {
		case "start":
			s.startQuiz(ctx, conn, frame.Topic)
		case "answer":
			s.answerQuiz(ctx, conn, frame.Option)
		default:
			sendError(ctx, conn, "unknown frame type "+frame.Type)
		}
	}
}

func (s *Server) startQuiz(ctx context.Context, conn *websocket.Conn, topic string) {
	if strings.TrimSpace(topic) == "" {
		sendError(ctx, conn, "topic is required")
		return
	}

	allowed, err := s.ledger.Allow(ctx, s.batchSize)
	if err != nil {
		sendError(ctx, conn, "reading daily quota failed")
		return
	}
	if !allowed {
		sendError(ctx, conn, "daily question limit reached, try again tomorrow")
		return
	}

	questions, err := s.generator.GenerateQuestions(ctx, topic, s.batchSize)
	if err != nil {
		sendError(ctx, conn, generationMessage(err))
		return
	}

	if err := s.ledger.Consume(ctx, len(questions)); err != nil {
		slog.Error("failed to record consumed quota", "count", len(questions), "error", err)
	}

	if err := s.controller.Start(questions, topic); err != nil {
		sendError(ctx, conn, "starting quiz failed")
		return
	}
	s.sendCurrent(ctx, conn)
}

func (s *Server) answerQuiz(ctx context.Context, conn *websocket.Conn, option int) {
	if err := s.controller.Answer(option); err != nil {
		switch {
		case errors.Is(err, quiz.ErrNoActiveSession):
			sendError(ctx, conn, "no quiz in progress, send a start frame first")
		case errors.Is(err, quiz.ErrSessionComplete):
			// A session still held after its last answer means an earlier
			// Finish failed to persist; this frame is the retry.
			s.finishQuiz(ctx, conn)
		default:
			sendError(ctx, conn, "recording answer failed")
		}
		return
	}

	if !s.controller.Complete() {
		s.sendCurrent(ctx, conn)
		return
	}
	s.finishQuiz(ctx, conn)
}

func (s *Server) finishQuiz(ctx context.Context, conn *websocket.Conn) {
	attempt, err := s.controller.Finish(ctx)
	if err != nil {
		sendError(ctx, conn, "saving quiz result failed, answer again to retry")
		return
	}
	send(ctx, conn, serverFrame{Type: "result", Attempt: &attempt})
}

func (s *Server) sendCurrent(ctx context.Context, conn *websocket.Conn) {
	question, position, total, err := s.controller.Current()
	if err != nil {
		sendError(ctx, conn, "reading current question failed")
		return
	}
	send(ctx, conn, serverFrame{
		Type:     "question",
		Question: &question,
		Position: position,
		Total:    total,
	})
}

func generationMessage(err error) string {
	switch {
	case errors.Is(err, gemini.ErrNoCredential):
		return "no API key configured, set one in settings"
	case errors.Is(err, gemini.ErrBadResponse):
		return "the model returned an unusable reply, try again"
	default:
		return "question generation failed"
	}
}

func send(ctx context.Context, conn *websocket.Conn, frame serverFrame) {
	if err := wsjson.Write(ctx, conn, frame); err != nil {
		slog.Warn("websocket write failed", "error", err)
	}
}

func sendError(ctx context.Context, conn *websocket.Conn, message string) {
	send(ctx, conn, serverFrame{Type: "error", Message: message})
}
