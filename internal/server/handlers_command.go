package server

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/kurobon/gitgraph/internal/git"
	"github.com/kurobon/gitgraph/internal/graph"
)

type checkoutRequest struct {
	Name string `json:"name" validate:"required"`
}

type branchRequest struct {
	Name       string `json:"name" validate:"required,refname,max=255"`
	StartPoint string `json:"startPoint"`
	Force      bool   `json:"force"`
}

type deleteBranchRequest struct {
	Name   string `json:"name" validate:"required"`
	Remote bool   `json:"remote"`
	Force  bool   `json:"force"`
}

type tagRequest struct {
	Name       string `json:"name" validate:"required,refname,max=255"`
	StartPoint string `json:"startPoint"`
	Force      bool   `json:"force"`
	Message    string `json:"message"`
}

type deleteTagRequest struct {
	Name string `json:"name" validate:"required"`
}

type resetRequest struct {
	To   string `json:"to" validate:"required"`
	Mode string `json:"mode" validate:"omitempty,oneof=soft mixed hard"`
}

type pushRequest struct {
	Remote       string `json:"remote"`
	LocalBranch  string `json:"localBranch"`
	RemoteBranch string `json:"remoteBranch"`
	Force        bool   `json:"force"`
}

type pullRequest struct {
	Remote string `json:"remote"`
}

type rebaseRequest struct {
	Onto string `json:"onto" validate:"required"`
}

type moveRefRequest struct {
	Ref string `json:"ref" validate:"required"`
	To  string `json:"to" validate:"required"`
}

type syncActionRequest struct {
	Action string `json:"action" validate:"required,oneof=push reset rebase pull"`
}

type commandResponse struct {
	Output string        `json:"output"`
	Layout *graph.Layout `json:"layout"`
}

// runCommand dispatches argv, refreshes the layout so the response reflects the
// mutation, and writes the command output with the new layout.
func (s *Server) runCommand(w http.ResponseWriter, r *http.Request, argv []string) {
	output, err := git.Run(r.Context(), s.session, argv...)
	s.metrics.ObserveCommand(argv[0], err)
	if err != nil {
		s.logger.Warn("command failed", zap.Strings("argv", argv), zap.Error(err))
		s.writeError(w, statusFor(err, http.StatusUnprocessableEntity), err)
		return
	}
	s.logger.Info("command executed", zap.Strings("argv", argv))

	if err := s.refreshNow(r.Context()); err != nil {
		s.logger.Warn("refresh after command failed", zap.Strings("argv", argv), zap.Error(err))
	}
	s.writeJSON(w, http.StatusOK, commandResponse{Output: output, Layout: s.graph.Layout()})
}

// decodeOrFail decodes the request body into v, writing the error response
// itself when decoding or validation fails.
func (s *Server) decodeOrFail(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := s.decode(r, v); err != nil {
		s.writeError(w, statusFor(err, http.StatusBadRequest), err)
		return false
	}
	return true
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if !s.decodeOrFail(w, r, &req) {
		return
	}
	s.runCommand(w, r, []string{"checkout", req.Name})
}

func (s *Server) handleCreateBranch(w http.ResponseWriter, r *http.Request) {
	var req branchRequest
	if !s.decodeOrFail(w, r, &req) {
		return
	}
	argv := []string{"branch"}
	if req.Force {
		argv = append(argv, "-f")
	}
	argv = append(argv, req.Name)
	if req.StartPoint != "" {
		argv = append(argv, req.StartPoint)
	}
	s.runCommand(w, r, argv)
}

func (s *Server) handleDeleteBranch(w http.ResponseWriter, r *http.Request) {
	var req deleteBranchRequest
	if !s.decodeOrFail(w, r, &req) {
		return
	}
	switch {
	case req.Remote:
		s.runCommand(w, r, []string{"branch", "-r", "-d", s.cfg.Remote + "/" + req.Name})
	case req.Force:
		s.runCommand(w, r, []string{"branch", "-D", req.Name})
	default:
		s.runCommand(w, r, []string{"branch", "-d", req.Name})
	}
}

func (s *Server) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if !s.decodeOrFail(w, r, &req) {
		return
	}
	argv := []string{"tag"}
	if req.Force {
		argv = append(argv, "-f")
	}
	if req.Message != "" {
		argv = append(argv, "-m", req.Message)
	}
	argv = append(argv, req.Name)
	if req.StartPoint != "" {
		argv = append(argv, req.StartPoint)
	}
	s.runCommand(w, r, argv)
}

func (s *Server) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	var req deleteTagRequest
	if !s.decodeOrFail(w, r, &req) {
		return
	}
	s.runCommand(w, r, []string{"tag", "-d", req.Name})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if !s.decodeOrFail(w, r, &req) {
		return
	}
	mode := req.Mode
	if mode == "" {
		mode = "hard"
	}
	s.runCommand(w, r, []string{"reset", "--" + mode, req.To})
}

func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	var req pushRequest
	if !s.decodeOrFail(w, r, &req) {
		return
	}
	argv := []string{"push"}
	if req.Force {
		argv = append(argv, "-f")
	}
	remote := req.Remote
	if remote == "" {
		remote = s.cfg.Remote
	}
	argv = append(argv, remote)
	if req.LocalBranch != "" {
		spec := req.LocalBranch
		if req.RemoteBranch != "" {
			spec += ":" + req.RemoteBranch
		}
		argv = append(argv, spec)
	}
	s.runCommand(w, r, argv)
}

func (s *Server) handlePull(w http.ResponseWriter, r *http.Request) {
	var req pullRequest
	if !s.decodeOrFail(w, r, &req) {
		return
	}
	argv := []string{"pull"}
	if req.Remote != "" {
		argv = append(argv, req.Remote)
	}
	s.runCommand(w, r, argv)
}

func (s *Server) handleRebase(w http.ResponseWriter, r *http.Request) {
	var req rebaseRequest
	if !s.decodeOrFail(w, r, &req) {
		return
	}
	s.runCommand(w, r, []string{"rebase", req.Onto})
}

// handleMoveRef moves a ref onto a commit the way dropping it on a node does.
func (s *Server) handleMoveRef(w http.ResponseWriter, r *http.Request) {
	var req moveRefRequest
	if !s.decodeOrFail(w, r, &req) {
		return
	}
	argv, err := s.graph.MoveRefCommand(req.Ref, req.To)
	if err != nil {
		s.writeError(w, statusFor(err, http.StatusInternalServerError), err)
		return
	}
	s.runCommand(w, r, argv)
}
