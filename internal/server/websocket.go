package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/phuslu/log"

	"github.com/ziadkadry99/docrag/internal/history"
	"github.com/ziadkadry99/docrag/internal/rag"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is the incoming WebSocket message format.
type wsRequest struct {
	Type     string `json:"type"` // "ask" or "search"
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

// wsResponse is the outgoing WebSocket message format.
type wsResponse struct {
	Type    string          `json:"type"` // "answer", "results" or "error"
	Answer  *rag.AnswerView `json:"answer,omitempty"`
	Results []rag.HitView   `json:"results,omitempty"`
	Content string          `json:"content,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade")
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("websocket read")
			}
			return
		}

		var req wsRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.sendWS(conn, wsResponse{Type: "error", Content: "invalid message format"})
			continue
		}

		switch req.Type {
		case "ask", "":
			s.wsAsk(conn, r, req)
		case "search":
			s.wsSearch(conn, r, req)
		default:
			s.sendWS(conn, wsResponse{Type: "error", Content: "unknown message type: " + req.Type})
		}
	}
}

func (s *Server) wsAsk(conn *websocket.Conn, r *http.Request, req wsRequest) {
	ans, err := s.ask(r.Context(), req.Question, req.TopK, history.ChannelWS)
	if errors.Is(err, rag.ErrEmptyQuestion) {
		s.sendWS(conn, wsResponse{Type: "error", Content: "question is required"})
		return
	}
	if err != nil {
		s.sendWS(conn, wsResponse{Type: "error", Content: "question failed: " + err.Error()})
		return
	}
	view := rag.NewAnswerView(ans)
	s.sendWS(conn, wsResponse{Type: "answer", Answer: &view})
}

func (s *Server) wsSearch(conn *websocket.Conn, r *http.Request, req wsRequest) {
	if req.Question == "" {
		s.sendWS(conn, wsResponse{Type: "error", Content: "question is required"})
		return
	}
	topK := req.TopK
	if topK <= 0 {
		topK = s.cfg.TopK
	}

	s.mu.RLock()
	ret, err := s.retriever.Retrieve(r.Context(), req.Question, topK)
	s.mu.RUnlock()
	if err != nil {
		s.sendWS(conn, wsResponse{Type: "error", Content: "search failed: " + err.Error()})
		return
	}
	s.sendWS(conn, wsResponse{Type: "results", Results: rag.NewHitViews(ret.Hits), Content: string(ret.Outcome)})
}

func (s *Server) sendWS(conn *websocket.Conn, resp wsResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		log.Warn().Err(err).Msg("websocket write")
	}
}
