package http

import (
	"net/http"
)

type loginRequest struct {
	Token string `json:"token"`
}

type sessionResponse struct {
	Token string `json:"token"`
	State any    `json:"state"`
}

// handleRegister creates a fresh session and returns its token together
// with the seeded state.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	token, state, err := s.garden.Register(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{Token: token, State: state})
}

// handleLogin restores a previously registered session.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "missing token")
		return
	}

	state, err := s.garden.Login(r.Context(), req.Token)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Token: req.Token, State: state})
}

// handleLogout clears the session's login flag. The persisted state
// survives for a later login.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing session token")
		return
	}
	if err := s.garden.Logout(r.Context(), token); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetState returns the session's full snapshot.
func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing session token")
		return
	}
	state, err := s.garden.State(r.Context(), token)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}
