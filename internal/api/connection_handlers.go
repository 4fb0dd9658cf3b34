package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rflorenc/ng-migrator/internal/models"
	"github.com/rflorenc/ng-migrator/internal/platform"
)

// redacted returns a copy of conn safe to send to clients.
func redacted(conn *models.Connection) models.Connection {
	out := *conn
	out.Password = conn.MaskedPassword()
	if out.APIKey != "" {
		out.APIKey = "••••••••"
	}
	return out
}

func (s *Server) CreateConnection(w http.ResponseWriter, r *http.Request) {
	var conn models.Connection
	if err := json.NewDecoder(r.Body).Decode(&conn); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if conn.Host == "" {
		writeError(w, http.StatusBadRequest, "host is required")
		return
	}
	if conn.Type != "" && conn.Type != "cg" && conn.Type != "ng" {
		writeError(w, http.StatusBadRequest, "type must be cg or ng")
		return
	}
	conn.ApplyDefaults()
	s.Connections.Create(&conn)
	writeJSON(w, http.StatusCreated, redacted(&conn))
}

func (s *Server) ListConnections(w http.ResponseWriter, r *http.Request) {
	conns := s.Connections.List()
	out := make([]models.Connection, 0, len(conns))
	for _, c := range conns {
		out = append(out, redacted(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) GetConnection(w http.ResponseWriter, r *http.Request) {
	conn := s.Connections.Get(chi.URLParam(r, "id"))
	if conn == nil {
		writeError(w, http.StatusNotFound, "connection not found")
		return
	}
	writeJSON(w, http.StatusOK, redacted(conn))
}

func (s *Server) UpdateConnection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var conn models.Connection
	if err := json.NewDecoder(r.Body).Decode(&conn); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	conn.ID = id
	conn.ApplyDefaults()
	if !s.Connections.Update(&conn) {
		writeError(w, http.StatusNotFound, "connection not found")
		return
	}
	writeJSON(w, http.StatusOK, redacted(&conn))
}

func (s *Server) DeleteConnection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.Connections.Delete(id) {
		writeError(w, http.StatusNotFound, "connection not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TestConnection pings the connection, checks its credentials and stores
// the outcome on the connection.
func (s *Server) TestConnection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	conn := s.Connections.Get(id)
	if conn == nil {
		writeError(w, http.StatusNotFound, "connection not found")
		return
	}
	h := platform.CheckHealth(r.Context(), conn, s.Connections)
	resp := map[string]interface{}{
		"ok":          h.PingStatus == "ok" && h.AuthStatus == "ok",
		"ping_status": h.PingStatus,
		"auth_status": h.AuthStatus,
	}
	if h.Version != "" {
		resp["version"] = h.Version
	}
	if h.PingError != "" {
		resp["error"] = h.PingError
	} else if h.AuthError != "" {
		resp["error"] = h.AuthError
	}
	writeJSON(w, http.StatusOK, resp)
}
