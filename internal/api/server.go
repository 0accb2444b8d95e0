// Package api exposes the engine over HTTP: task submission, gate
// continuation, task listing, and a per-task SSE event stream.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/example/desktop-assistant/internal/models"
	"github.com/example/desktop-assistant/internal/orchestrator"
)

type Server struct {
	engine *orchestrator.Engine
	log    *zap.Logger
}

func NewServer(engine *orchestrator.Engine, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{engine: engine, log: log}
}

// Handler builds the route table. All responses are JSON except the SSE
// streams on /query and /continue.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /query", s.handleQuery)
	mux.HandleFunc("POST /continue", s.handleContinue)
	mux.HandleFunc("GET /tasks", s.handleListTasks)
	mux.HandleFunc("GET /tasks/{id}", s.handleGetTask)
	return cors(mux)
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type queryRequest struct {
	Input string `json:"input"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Input) == "" {
		writeError(w, http.StatusBadRequest, "input is required")
		return
	}

	task := s.engine.CreateTask(req.Input)
	s.log.Info("task accepted", zap.String("task_id", task.ID))

	if !wantsStream(r) {
		t, err := s.engine.Start(r.Context(), task.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, t)
		return
	}

	events, unsubscribe := s.engine.Subscribe(task.ID)
	defer unsubscribe()
	// the run outlives a dropped client so a gate suspension is reachable
	// later through /continue
	go func() {
		if _, err := s.engine.Start(context.Background(), task.ID); err != nil {
			s.log.Error("task start failed", zap.String("task_id", task.ID), zap.Error(err))
		}
	}()
	s.stream(w, r, task.ID, events)
}

type continueRequest struct {
	TaskID   string `json:"task_id"`
	Decision string `json:"decision"`
	Context  string `json:"context"`
}

func (s *Server) handleContinue(w http.ResponseWriter, r *http.Request) {
	var req continueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.TaskID == "" || req.Decision == "" {
		writeError(w, http.StatusBadRequest, "task_id and decision are required")
		return
	}

	if !wantsStream(r) {
		t, err := s.engine.Resume(r.Context(), req.TaskID, req.Decision, req.Context)
		if err != nil {
			writeError(w, resumeStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, t)
		return
	}

	events, unsubscribe := s.engine.Subscribe(req.TaskID)
	defer unsubscribe()
	done := make(chan error, 1)
	go func() {
		_, err := s.engine.Resume(context.Background(), req.TaskID, req.Decision, req.Context)
		done <- err
	}()
	// surface lookup/state errors before committing to an event stream
	select {
	case err := <-done:
		if err != nil {
			writeError(w, resumeStatus(err), err.Error())
			return
		}
		if t, ok := s.engine.GetTask(req.TaskID); ok {
			writeJSON(w, http.StatusOK, t)
			return
		}
		writeError(w, http.StatusNotFound, "task not found")
		return
	default:
	}
	s.stream(w, r, req.TaskID, events)
}

func resumeStatus(err error) int {
	switch {
	case errors.Is(err, orchestrator.ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, orchestrator.ErrNotAwaitingUser),
		errors.Is(err, orchestrator.ErrConflictingResume):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleListTasks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tasks": s.engine.ListTasks()})
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	t, ok := s.engine.GetTask(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func wantsStream(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}

// stream copies task events to the client as SSE until the task reaches a
// terminal status or suspends at the gate.
func (s *Server) stream(w http.ResponseWriter, r *http.Request, taskID string, events <-chan []byte) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case data, open := <-events:
			if !open {
				return
			}
			if _, err := w.Write([]byte("data: " + string(data) + "\n\n")); err != nil {
				return
			}
			flusher.Flush()
			if streamDone(data) {
				return
			}
		}
	}
}

func streamDone(data []byte) bool {
	var ev struct {
		Event   string `json:"event"`
		Payload struct {
			Status models.Status `json:"status"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(data, &ev); err != nil {
		return false
	}
	if ev.Event == "awaiting_user" {
		return true
	}
	if ev.Event != "task_status" {
		return false
	}
	switch ev.Payload.Status {
	case models.StatusSuccess, models.StatusFailed, models.StatusAwaitingUser:
		return true
	}
	return false
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
