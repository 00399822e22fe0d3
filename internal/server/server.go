// Package server hosts play sessions for browser clients.
//
// Routes:
//
//	POST   /api/sessions          create a session from a level file (YAML or JSON body)
//	GET    /api/sessions          list session ids
//	GET    /api/sessions/{id}     current snapshot
//	DELETE /api/sessions/{id}     close a session
//	GET    /api/sessions/{id}/ws  websocket: events out, actions in
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/cxd309/roadgrid-engine/internal/config"
	"github.com/cxd309/roadgrid-engine/internal/engine"
	"github.com/cxd309/roadgrid-engine/internal/level"
)

const maxLevelBytes = 1 << 20

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// Server keeps the live sessions, each driven by its own room goroutine.
type Server struct {
	cfg    config.Config
	logger *log.Logger
	router chi.Router

	mu    sync.Mutex
	rooms map[string]*room
}

// New builds the server and its routes.
func New(cfg config.Config, logger *log.Logger) *Server {
	s := &Server{cfg: cfg, logger: logger, rooms: map[string]*room{}}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", s.createSession)
		r.Get("/", s.listSessions)
		r.Get("/{id}", s.getSession)
		r.Delete("/{id}", s.deleteSession)
		r.Get("/{id}/ws", s.serveWS)
	})
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close shuts every session down.
func (s *Server) Close() {
	s.mu.Lock()
	rooms := s.rooms
	s.rooms = map[string]*room{}
	s.mu.Unlock()
	for _, rm := range rooms {
		rm.close()
	}
}

type createResponse struct {
	ID       string          `json:"id"`
	Snapshot engine.Snapshot `json:"snapshot"`
	Report   *level.Report   `json:"report"`
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxLevelBytes))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	lvl, report, err := level.Parse(data)
	if err != nil {
		var invalid *level.InvalidError
		if errors.As(err, &invalid) {
			writeJSON(w, http.StatusUnprocessableEntity, invalid.Report)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := uuid.NewString()
	logger := s.logger.With("session", id)
	session, err := engine.NewSession(lvl, s.cfg, engine.WithLogger(logger))
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	rm := newRoom(id, session, time.Duration(s.cfg.TickSeconds*float64(time.Second)), logger)
	snap := session.Snapshot()
	go rm.run()

	s.mu.Lock()
	s.rooms[id] = rm
	s.mu.Unlock()
	s.logger.Info("session created", "session", id, "level", lvl.Name)
	writeJSON(w, http.StatusCreated, createResponse{ID: id, Snapshot: snap, Report: report})
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ids := make([]string, 0, len(s.rooms))
	for id := range s.rooms {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	slices.Sort(ids)
	writeJSON(w, http.StatusOK, ids)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*room, bool) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	rm, ok := s.rooms[id]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
	}
	return rm, ok
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	rm, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var snap engine.Snapshot
	if !rm.do(func(sess *engine.Session) { snap = sess.Snapshot() }) {
		http.Error(w, "session closed", http.StatusGone)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	rm, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	delete(s.rooms, rm.id)
	s.mu.Unlock()
	rm.close()
	s.logger.Info("session closed", "session", rm.id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	rm, ok := s.lookup(w, r)
	if !ok {
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "session", rm.id, "err", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, 256)}
	select {
	case rm.register <- c:
	case <-rm.done:
		conn.Close()
		return
	}
	go c.writer()
	go c.reader(rm)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", ww.Status(), "took", time.Since(start))
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS, POST, DELETE")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
