package server

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rs/cors"

	"github.com/yourorg/wandermate/internal/assistant"
	"github.com/yourorg/wandermate/internal/config"
	"github.com/yourorg/wandermate/internal/export"
	"github.com/yourorg/wandermate/internal/itinerary"
	"github.com/yourorg/wandermate/internal/store"
	"github.com/yourorg/wandermate/pkg/types"
)

// SessionCookie carries the session id.
const SessionCookie = "wandermate_session"

var renderPDF = export.RenderPDF

const (
	msgNoItinerary = "No itinerary found. Please generate an itinerary first."
	msgChatFailed  = "Sorry, I encountered an error. Please try again."
)

var (
	//go:embed ui.html
	uiHTML string

	uiTemplate = template.Must(template.New("ui").Funcs(template.FuncMap{
		"deref": func(f *float64) float64 {
			if f == nil {
				return 0
			}
			return *f
		},
	}).Parse(uiHTML))
)

type Sessions interface {
	CreateSession(ctx context.Context) (*types.SessionState, error)
	GetSession(ctx context.Context, id string) (*types.SessionState, error)
}

type Planner interface {
	Plan(ctx context.Context, sessionID string, req types.TripRequest) *types.PlanContext
}

type Chat interface {
	Reply(ctx context.Context, sessionID, message string) (string, error)
	Clear(ctx context.Context, sessionID string) error
}

// Server wraps the trip page and the JSON API.
type Server struct {
	cfg      *config.Config
	sessions Sessions
	planner  Planner
	chat     Chat
	logger   *slog.Logger
	mux      *http.ServeMux
}

type uiData struct {
	Request types.TripRequest
	Plan    *types.PlanContext
	Days    []types.ParsedDay
}

// New constructs a new Server with routes registered.
func New(cfg *config.Config, sessions Sessions, planner Planner, chat Chat, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if sessions == nil {
		return nil, errors.New("session store is nil")
	}
	if planner == nil || chat == nil {
		return nil, errors.New("planner and chat are required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	srv := &Server{
		cfg:      cfg,
		sessions: sessions,
		planner:  planner,
		chat:     chat,
		logger:   logger,
		mux:      http.NewServeMux(),
	}
	srv.registerRoutes()
	return srv, nil
}

// Handler returns the http handler with CORS and request logging applied.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	if len(s.cfg.Server.AllowedOrigins) > 0 {
		h = cors.New(cors.Options{
			AllowedOrigins:   s.cfg.Server.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Content-Type"},
			AllowCredentials: true,
		}).Handler(h)
	}
	return s.logRequests(h)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      3 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/api/plan", s.handlePlan)
	s.mux.HandleFunc("/api/export/pdf", s.handleExportPDF)
	s.mux.HandleFunc("/api/chat", s.handleChat)
	s.mux.HandleFunc("/api/chat/clear", s.handleChatClear)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		s.renderUI(w, uiData{})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		req := types.TripRequest{
			SourceCity:      strings.TrimSpace(r.PostForm.Get("source_city")),
			DestinationCity: strings.TrimSpace(r.PostForm.Get("destination_city")),
			DepartureDate:   strings.TrimSpace(r.PostForm.Get("departure_date")),
			ReturnDate:      strings.TrimSpace(r.PostForm.Get("return_date")),
		}
		if req.SourceCity == "" || req.DestinationCity == "" {
			http.Error(w, "source_city and destination_city required", http.StatusBadRequest)
			return
		}
		id, err := s.session(w, r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		plan := s.planner.Plan(r.Context(), id, req)
		s.renderUI(w, uiData{Request: req, Plan: plan, Days: itinerary.Parse(plan.Itinerary)})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req types.TripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.SourceCity) == "" || strings.TrimSpace(req.DestinationCity) == "" {
		http.Error(w, "source_city and destination_city required", http.StatusBadRequest)
		return
	}
	id, err := s.session(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, s.planner.Plan(r.Context(), id, req))
}

func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sess := s.existingSession(r)
	if sess == nil || strings.TrimSpace(sess.Itinerary) == "" {
		http.Error(w, msgNoItinerary, http.StatusNotFound)
		return
	}
	meta := export.Meta{
		Destination:   sess.Destination,
		NumDays:       sess.NumDays,
		DepartureDate: sess.DepartureDate,
		ReturnDate:    sess.ReturnDate,
	}
	var buf bytes.Buffer
	if err := renderPDF(&buf, meta, itinerary.Parse(sess.Itinerary)); err != nil {
		s.logger.Error("render pdf failed", "session", sess.ID, "error", err)
		http.Error(w, "could not render pdf", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(meta)+`"`)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "Invalid request method"})
		return
	}
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json", "success": false})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Message is required", "success": false})
		return
	}
	id, err := s.session(w, r)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": msgChatFailed, "success": false})
		return
	}
	reply, err := s.chat.Reply(r.Context(), id, req.Message)
	switch {
	case errors.Is(err, assistant.ErrEmptyMessage):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Message is required", "success": false})
	case err != nil:
		s.logger.Warn("chat failed", "session", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": msgChatFailed, "success": false})
	default:
		writeJSON(w, http.StatusOK, map[string]any{"response": reply, "success": true})
	}
}

func (s *Server) handleChatClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if sess := s.existingSession(r); sess != nil {
		if err := s.chat.Clear(r.Context(), sess.ID); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// session returns the caller's session id, creating the session and
// setting the cookie when it is missing or unknown.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (string, error) {
	if sess := s.existingSession(r); sess != nil {
		return sess.ID, nil
	}
	sess, err := s.sessions.CreateSession(r.Context())
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Server.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return sess.ID, nil
}

func (s *Server) existingSession(r *http.Request) *types.SessionState {
	c, err := r.Cookie(SessionCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	sess, err := s.sessions.GetSession(r.Context(), c.Value)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("load session failed", "error", err)
		}
		return nil
	}
	return sess
}

func (s *Server) renderUI(w http.ResponseWriter, data uiData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := uiTemplate.Execute(w, data); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "elapsed", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
