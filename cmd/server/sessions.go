package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/liamcoop/titanic-whatif/chat"
	"github.com/liamcoop/titanic-whatif/passenger"
)

// session resolves the {sessionId} URL parameter, answering 404 itself when unknown
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*chat.Session, bool) {
	sess, err := s.sessions.Get(chi.URLParam(r, "sessionId"))
	if err != nil {
		respondError(w, http.StatusNotFound, "session not found", err)
		return nil, false
	}
	return sess, true
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, SessionsListResponse{Sessions: s.sessions.List()})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Create()
	respondJSON(w, http.StatusCreated, sess.Snapshot())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(chi.URLParam(r, "sessionId")); err != nil {
		respondError(w, http.StatusNotFound, "session not found", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Chat message handler. An unparsable message is a normal 200 reply carrying guidance.
func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	reply, err := sess.Ask(req.Text)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid message", err)
		return
	}

	respondJSON(w, http.StatusOK, MessageResponse{Reply: reply, Session: sess.Snapshot()})
}

func (s *Server) handleApplyPreset(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	reply, err := sess.ApplyPreset(chi.URLParam(r, "presetKey"))
	if errors.Is(err, chat.ErrUnknownPreset) {
		respondError(w, http.StatusNotFound, "preset not found", err)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to apply preset", err)
		return
	}

	respondJSON(w, http.StatusOK, MessageResponse{Reply: reply, Session: sess.Snapshot()})
}

func (s *Server) handleSetProfile(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	p, ok := decodePassenger(w, r)
	if !ok {
		return
	}

	if err := sess.SetProfile(p); err != nil {
		respondError(w, http.StatusBadRequest, "invalid passenger", err)
		return
	}

	respondJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleSetView(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req ViewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	view, err := chat.ParseView(req.View)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid view", err)
		return
	}
	if err := sess.SetView(view); err != nil {
		respondError(w, http.StatusBadRequest, "invalid view", err)
		return
	}

	respondJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleSetClass(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req ClassRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Pclass == nil {
		respondError(w, http.StatusBadRequest, "invalid class",
			&passenger.ValidationError{Field: passenger.FeaturePclass, Message: "pclass is required"})
		return
	}

	if err := sess.SetClass(passenger.Class(*req.Pclass)); err != nil {
		respondError(w, http.StatusBadRequest, "invalid class", err)
		return
	}

	respondJSON(w, http.StatusOK, sess.Snapshot())
}
