package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/wwebgo/wweb/internal/bus"
	"github.com/wwebgo/wweb/internal/outbox"
	"github.com/wwebgo/wweb/internal/session"
	"github.com/wwebgo/wweb/internal/status"
	"github.com/wwebgo/wweb/internal/store"
	"github.com/wwebgo/wweb/internal/wid"
	"go.uber.org/zap"
)

// Server serves the control API for one session daemon over its Unix
// domain socket.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
	socketPath string
	logger     *zap.Logger

	sessionName string
	machine     *status.Machine
	db          *store.DB
	sender      *outbox.Sender
	bus         *bus.Bus
	started     time.Time
	upgrader    websocket.Upgrader
}

// NewServer creates an HTTP server bound to the session's Unix domain
// socket.
func NewServer(p Params, logger *zap.Logger, machine *status.Machine, db *store.DB, sender *outbox.Sender, b *bus.Bus) (*Server, error) {
	socketPath := p.SocketPath
	if socketPath == "" {
		socketPath = session.SocketPath(p.SessionName)
	}

	// Clean stale socket if it exists.
	if _, err := os.Stat(socketPath); err == nil {
		_ = os.Remove(socketPath)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("listen unix socket: %w", err)
	}
	if err := os.Chmod(socketPath, 0600); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("chmod socket: %w", err)
	}

	s := &Server{
		listener:    listener,
		socketPath:  socketPath,
		logger:      logger,
		sessionName: p.SessionName,
		machine:     machine,
		db:          db,
		sender:      sender,
		bus:         b,
		started:     time.Now(),
	}
	s.httpServer = &http.Server{Handler: s.Router()}
	return s, nil
}

// Router builds the route table. Exposed so handlers can be exercised
// without a socket.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/v1/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/v1/chats", s.handleListChats).Methods(http.MethodGet)
	r.HandleFunc("/v1/chats/{wid}/messages", s.handleListMessages).Methods(http.MethodGet)
	r.HandleFunc("/v1/search", s.handleSearch).Methods(http.MethodGet)
	r.HandleFunc("/v1/messages", s.handleSendMessage).Methods(http.MethodPost)
	r.HandleFunc("/v1/events", s.handleEvents).Methods(http.MethodGet)
	return r
}

// Start begins serving requests. Blocks until stopped.
func (s *Server) Start() error {
	s.logger.Info("control server starting", zap.String("socket", s.socketPath))
	if err := s.httpServer.Serve(s.listener); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop performs a graceful shutdown and removes the socket file.
func (s *Server) Stop(ctx context.Context) {
	s.logger.Info("control server stopping")
	_ = s.httpServer.Shutdown(ctx)
	_ = os.Remove(s.socketPath)
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("response encode failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	s.writeJSON(w, code, map[string]string{"error": msg})
}

type statusResponse struct {
	Session string `json:"session"`
	State   string `json:"state"`
	Uptime  string `json:"uptime"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, statusResponse{
		Session: s.sessionName,
		State:   string(s.machine.Current()),
		Uptime:  time.Since(s.started).Round(time.Second).String(),
	})
}

type chatResponse struct {
	WID                string `json:"wid"`
	Name               string `json:"name"`
	IsGroup            bool   `json:"is_group"`
	Archived           bool   `json:"archived"`
	Pinned             bool   `json:"pinned"`
	UnreadCount        int    `json:"unread_count"`
	LastMessageAt      int64  `json:"last_message_at"`
	LastMessagePreview string `json:"last_message_preview"`
}

func (s *Server) handleListChats(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)
	chats, err := s.db.ListChats(limit, offset)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]chatResponse, 0, len(chats))
	for _, c := range chats {
		out = append(out, chatResponse{
			WID:                c.WID,
			Name:               c.Name,
			IsGroup:            c.IsGroup,
			Archived:           c.Archived,
			Pinned:             c.Pinned,
			UnreadCount:        c.UnreadCount,
			LastMessageAt:      c.LastMessageAt,
			LastMessagePreview: c.LastMessagePreview,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

type messageResponse struct {
	MsgID     string `json:"msg_id"`
	ChatWID   string `json:"chat_wid"`
	SenderWID string `json:"sender_wid"`
	FromMe    bool   `json:"from_me"`
	Type      string `json:"type"`
	Body      string `json:"body"`
	Timestamp int64  `json:"timestamp"`
	Ack       int    `json:"ack"`
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	chatWID := mux.Vars(r)["wid"]
	before := int64(queryInt(r, "before", 0))
	limit := queryInt(r, "limit", 50)
	msgs, err := s.db.ListMessages(chatWID, before, limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageResponse{
			MsgID:     m.MsgID,
			ChatWID:   m.ChatWID,
			SenderWID: m.SenderWID,
			FromMe:    m.FromMe,
			Type:      m.MessageType,
			Body:      m.Body,
			Timestamp: m.Timestamp,
			Ack:       m.Ack,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

type searchResponse struct {
	Message messageResponse `json:"message"`
	Snippet string          `json:"snippet"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		s.writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}
	chatWID := r.URL.Query().Get("chat")
	limit := queryInt(r, "limit", 20)
	results, err := s.db.Search(query, chatWID, limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]searchResponse, 0, len(results))
	for _, res := range results {
		out = append(out, searchResponse{
			Message: messageResponse{
				MsgID:     res.Message.MsgID,
				ChatWID:   res.Message.ChatWID,
				SenderWID: res.Message.SenderWID,
				FromMe:    res.Message.FromMe,
				Type:      res.Message.MessageType,
				Body:      res.Message.Body,
				Timestamp: res.Message.Timestamp,
				Ack:       res.Message.Ack,
			},
			Snippet: res.Snippet,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

type sendRequest struct {
	ChatID string `json:"chat_id"`
	Body   string `json:"body"`
}

type sendResponse struct {
	ClientMsgID string `json:"client_msg_id"`
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ChatID == "" || req.Body == "" {
		s.writeError(w, http.StatusBadRequest, "chat_id and body are required")
		return
	}
	chatID, err := wid.Parse(req.ChatID)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	clientMsgID := uuid.NewString()
	if err := s.sender.Queue(clientMsgID, chatID, req.Body); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusAccepted, sendResponse{ClientMsgID: clientMsgID})
}

type eventFrame struct {
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// handleEvents streams bus events over a websocket. An optional namespace
// query parameter prefix-filters the stream.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	namespace := r.URL.Query().Get("namespace")
	events, unsubscribe := s.bus.Subscribe(namespace, 256)
	defer unsubscribe()

	// Drain the read side so close frames are noticed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case evt := <-events:
			frame := eventFrame{Kind: evt.Kind, Timestamp: evt.Timestamp, Payload: evt.Payload}
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
