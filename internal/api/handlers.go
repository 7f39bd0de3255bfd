// internal/api/handlers.go
package api

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tamzrod/neptun-bridge/internal/registry"
	"github.com/tamzrod/neptun-bridge/internal/status"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}

func (s *Server) handleListHubs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"hubs": s.svc.States()})
}

func (s *Server) handleGetHub(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.State(chi.URLParam(r, "hub"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	s.respond(w, func() (registry.HubState, error) {
		return s.svc.Connect(chi.URLParam(r, "hub"))
	})
}

func (s *Server) handleValve(open bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := parseValve(chi.URLParam(r, "valve"))
		if err != nil {
			writeBadRequest(w, err.Error())
			return
		}
		name := chi.URLParam(r, "hub")
		s.respond(w, func() (registry.HubState, error) {
			if open {
				return s.svc.OpenValve(name, n)
			}
			return s.svc.CloseValve(name, n)
		})
	}
}

func (s *Server) handleAllValves(open bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "hub")
		s.respond(w, func() (registry.HubState, error) {
			if open {
				return s.svc.OpenAllValves(name)
			}
			return s.svc.CloseAllValves(name)
		})
	}
}

// attributeRequest keeps value raw so a missing key can be told apart
// from an explicit null, which is a false flag.
type attributeRequest struct {
	Value json.RawMessage `json:"value"`
}

func (s *Server) handleSetAttribute(w http.ResponseWriter, r *http.Request) {
	var req attributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if len(req.Value) == 0 {
		writeBadRequest(w, "value required")
		return
	}
	var value status.Flag
	if err := json.Unmarshal(req.Value, &value); err != nil {
		writeBadRequest(w, "invalid value")
		return
	}

	name, attr := chi.URLParam(r, "hub"), chi.URLParam(r, "name")
	s.respond(w, func() (registry.HubState, error) {
		return s.svc.SetConfigAttribute(name, attr, bool(value))
	})
}

// respond runs one service call and writes the resulting state or error.
func (s *Server) respond(w http.ResponseWriter, call func() (registry.HubState, error)) {
	st, err := call()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// parseValve accepts "1" as well as "1.0"; fractions are truncated.
func parseValve(raw string) (int, error) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid valve %q", raw)
	}
	return int(f), nil
}
