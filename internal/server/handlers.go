package server

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/kurobon/gitgraph/internal/git"
	"github.com/kurobon/gitgraph/internal/graph"
)

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"message": "pong",
		"system":  "gitgraph",
	})
}

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.graph.Layout())
}

func (s *Server) handleListCommands(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string][]string{"commands": git.GetSupportedCommands()})
}

type remotesResponse struct {
	HasRemotes bool             `json:"hasRemotes"`
	Default    string           `json:"default"`
	Remotes    []git.RemoteInfo `json:"remotes"`
}

func (s *Server) handleListRemotes(w http.ResponseWriter, r *http.Request) {
	remotes, err := s.session.ListRemotes()
	if err != nil {
		s.writeError(w, statusFor(err, http.StatusInternalServerError), err)
		return
	}
	s.writeJSON(w, http.StatusOK, remotesResponse{
		HasRemotes: len(remotes) > 0,
		Default:    s.cfg.Remote,
		Remotes:    remotes,
	})
}

type refreshResponse struct {
	Refreshed bool          `json:"refreshed"`
	Layout    *graph.Layout `json:"layout"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	refreshed, err := s.Refresh(r.Context())
	if err != nil {
		s.writeError(w, statusFor(err, http.StatusInternalServerError), err)
		return
	}
	s.writeJSON(w, http.StatusOK, refreshResponse{Refreshed: refreshed, Layout: s.graph.Layout()})
}

// lookupRef resolves a path parameter holding either a full ref name
// (URL-escaped, e.g. refs%2Fheads%2Fmain) or a display name.
func (s *Server) lookupRef(r *http.Request) (*graph.Ref, error) {
	raw := chi.URLParam(r, "name")
	name, err := url.PathUnescape(raw)
	if err != nil {
		return nil, invalidRequest("bad ref name " + raw)
	}
	if ref, ok := s.graph.Ref(name); ok {
		return ref, nil
	}
	if ref, ok := s.graph.FindRef(name); ok {
		return ref, nil
	}
	return nil, &refError{name: name}
}

type refError struct{ name string }

func (e *refError) Error() string { return e.name + ": " + graph.ErrUnknownRef.Error() }
func (e *refError) Unwrap() error { return graph.ErrUnknownRef }

type actionsResponse struct {
	Ref     string            `json:"ref"`
	Actions graph.SyncActions `json:"actions"`
}

func (s *Server) handleGetActions(w http.ResponseWriter, r *http.Request) {
	ref, err := s.lookupRef(r)
	if err != nil {
		s.writeError(w, statusFor(err, http.StatusInternalServerError), err)
		return
	}
	actions, ok := s.graph.SyncActions(ref.Name)
	if !ok {
		err := &refError{name: ref.Name}
		s.writeError(w, statusFor(err, http.StatusInternalServerError), err)
		return
	}
	s.writeJSON(w, http.StatusOK, actionsResponse{Ref: ref.Name, Actions: actions})
}

func (s *Server) handlePerformAction(w http.ResponseWriter, r *http.Request) {
	ref, err := s.lookupRef(r)
	if err != nil {
		s.writeError(w, statusFor(err, http.StatusInternalServerError), err)
		return
	}
	req := syncActionRequest{Action: chi.URLParam(r, "action")}
	if err := s.validateStruct(&req); err != nil {
		s.writeError(w, statusFor(err, http.StatusBadRequest), err)
		return
	}
	argv, err := s.graph.SyncCommand(ref.Name, req.Action)
	if err != nil {
		s.writeError(w, statusFor(err, http.StatusInternalServerError), err)
		return
	}
	s.runCommand(w, r, argv)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || s.isAllowedOrigin(origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	id := s.hub.Register(conn)
	defer s.hub.Unregister(id)
	s.hub.Send(id, Message{Type: MessageTypeLayout, Data: s.graph.Layout()})

	// Clients only listen; reading detects the disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) isAllowedOrigin(origin string) bool {
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
