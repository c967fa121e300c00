package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/raysh454/phishguard/internal/diagnostics"
	"github.com/raysh454/phishguard/internal/logging"
	"github.com/raysh454/phishguard/internal/model"
	"github.com/raysh454/phishguard/internal/scan"
	_ "github.com/raysh454/phishguard/internal/server/docs" // swagger spec
	"github.com/raysh454/phishguard/internal/view"
)

const (
	healthTimeout = 5 * time.Second
	maxBodyBytes  = 64 << 10
	maxLoggedBody = 512
)

// Predictor is what the server needs from the prediction backend client.
type Predictor interface {
	scan.Predictor
	Health(ctx context.Context) (*model.HealthStatus, error)
}

// Journal is the operator diagnostics store. It may be nil.
type Journal interface {
	scan.Recorder
	List(ctx context.Context, f diagnostics.Filter) ([]diagnostics.Entry, error)
	CountByKind(ctx context.Context) (map[scan.FailureKind]int, error)
}

// Server is the HTTP + WebSocket surface for PhishGuard.
type Server struct {
	cfg       Config
	manager   *scan.Manager
	predictor Predictor
	journal   Journal
	router    chi.Router
	upgrader  websocket.Upgrader
	logger    logging.Logger

	// Background scans outlive the request that started them.
	baseCtx    context.Context
	cancelBase context.CancelFunc
}

// NewServer creates a Server with its own session manager. A nil journal
// disables failure journaling and the diagnostics endpoint.
func NewServer(cfg Config, p Predictor, journal Journal) (*Server, error) {
	if p == nil {
		return nil, errors.New("server: predictor is nil")
	}
	def := DefaultConfig()
	if cfg.CookieName == "" {
		cfg.CookieName = def.CookieName
	}
	if cfg.PruneInterval <= 0 {
		cfg.PruneInterval = def.PruneInterval
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("server")
	}

	var rec scan.Recorder
	if journal != nil {
		rec = journal
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	r := chi.NewRouter()
	s := &Server{
		cfg:       cfg,
		manager:   scan.NewManager(cfg.Scan, p, rec, logger),
		predictor: p,
		journal:   journal,
		router:    r,
		logger:    logger.With(logging.Field{Key: "component", Value: "server"}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		baseCtx:    baseCtx,
		cancelBase: cancel,
	}

	go s.manager.Run(baseCtx, cfg.PruneInterval)

	s.routes()
	return s, nil
}

// Manager returns the session manager for advanced use (tests, etc.).
func (s *Server) Manager() *scan.Manager {
	return s.manager
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	// CORS preflight
	r.Options("/api/sessions", s.optionsHandler("GET, POST"))
	r.Options("/api/sessions/{id}", s.optionsHandler("GET, DELETE"))
	r.Options("/api/sessions/{id}/scans", s.optionsHandler("POST"))
	r.Options("/api/diagnostics", s.optionsHandler("GET"))
	r.Options("/healthz", s.optionsHandler("GET"))

	// Browser page
	r.Get("/", s.handlePage)
	r.Post("/scan", s.handlePageScan)

	// Sessions
	r.Post("/api/sessions", s.handleCreateSession)
	r.Get("/api/sessions", s.handleListSessions)
	r.Get("/api/sessions/{id}", s.handleGetSession)
	r.Delete("/api/sessions/{id}", s.handleDeleteSession)
	r.Post("/api/sessions/{id}/scans", s.handleStartScan)

	// Live state
	r.Get("/ws/sessions/{id}", s.handleSessionWS)

	// Operators
	r.Get("/api/diagnostics", s.handleDiagnostics)
	r.Get("/healthz", s.handleHealth)

	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}

	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.Field{Key: "query", Value: q})
	}

	if r.Body != nil && (r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch) {
		bodyBytes, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				s.logger.Warn("request body too large", fields...)
				writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			writeError(w, http.StatusBadRequest, "reading request body")
			return
		}
		fields = append(fields, logging.Field{Key: "body", Value: logBody(bodyBytes)})
		r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
	}

	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// logBody caps what the request log keeps of a body.
func logBody(b []byte) string {
	if len(b) <= maxLoggedBody {
		return string(b)
	}
	return string(b[:maxLoggedBody]) + "...(truncated)"
}

// Close cancels in-flight scans and drops every session.
func (s *Server) Close() {
	s.cancelBase()
	s.manager.Close()
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // allow streaming
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func (s *Server) sessionParam(w http.ResponseWriter, r *http.Request) (*scan.Session, bool) {
	id := chi.URLParam(r, "id")
	sess, err := s.manager.Get(id)
	if err != nil {
		s.logger.Warn("session lookup", logging.Field{Key: "session", Value: id}, logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return sess, true
}

// --- Browser page ---

// cookieSession returns the session bound to the request cookie, creating
// one (and setting the cookie) when there is none or it expired.
func (s *Server) cookieSession(w http.ResponseWriter, r *http.Request) *scan.Session {
	if c, err := r.Cookie(s.cfg.CookieName); err == nil {
		if sess, err := s.manager.Get(c.Value); err == nil {
			return sess
		}
	}
	sess := s.manager.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	sess := s.cookieSession(w, r)

	var buf bytes.Buffer
	if err := view.RenderPage(&buf, sess.Controller.State()); err != nil {
		s.logger.Error("rendering page", logging.Field{Key: "error", Value: err.Error()})
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handlePageScan(w http.ResponseWriter, r *http.Request) {
	sess := s.cookieSession(w, r)
	if err := r.ParseForm(); err != nil {
		s.logger.Warn("parsing scan form", logging.Field{Key: "error", Value: err.Error()})
	}
	st := sess.Controller.Start(s.baseCtx, r.PostFormValue("url"))
	s.logger.Info("page scan submitted", logging.Field{Key: "session", Value: sess.ID}, logging.Field{Key: "phase", Value: string(st.Phase)})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// --- Sessions ---

// handleCreateSession godoc
// @Summary Create a scan session
// @Tags sessions
// @Produce json
// @Success 201 {object} SessionResponse
// @Router /api/sessions [post]
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.manager.Create()
	s.logger.Info("created session", logging.Field{Key: "session", Value: sess.ID})
	writeJSON(w, http.StatusCreated, SessionResponse{ID: sess.ID, State: sess.Controller.State()})
}

// handleListSessions godoc
// @Summary List scan sessions
// @Tags sessions
// @Produce json
// @Success 200 {array} SessionResponse
// @Router /api/sessions [get]
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.manager.List()
	out := make([]SessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, SessionResponse{ID: sess.ID, State: sess.Controller.State()})
	}
	s.logger.Info("listed sessions", logging.Field{Key: "count", Value: len(out)})
	writeJSON(w, http.StatusOK, out)
}

// handleGetSession godoc
// @Summary Get the current view state of a session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} SessionResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/sessions/{id} [get]
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{ID: sess.ID, State: sess.Controller.State()})
}

// handleDeleteSession godoc
// @Summary Delete a session
// @Tags sessions
// @Param id path string true "Session ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /api/sessions/{id} [delete]
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.manager.Delete(id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.logger.Info("deleted session", logging.Field{Key: "session", Value: id})
	writeJSON(w, http.StatusNoContent, nil)
}

// handleStartScan godoc
// @Summary Start a scan in a session
// @Description Returns 202 with the loading state, 200 with the failure state for blank input, or 409 with the current state while a scan is already running.
// @Tags scans
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body ScanRequest true "URL to scan"
// @Success 200 {object} SessionResponse
// @Success 202 {object} SessionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} SessionResponse
// @Router /api/sessions/{id}/scans [post]
func (s *Server) handleStartScan(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionParam(w, r)
	if !ok {
		return
	}

	var body ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.logger.Warn("decoding scan body", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	st, err := sess.Controller.TryStart(s.baseCtx, body.URL)
	resp := SessionResponse{ID: sess.ID, State: st}
	switch {
	case errors.Is(err, scan.ErrBusy):
		writeJSON(w, http.StatusConflict, resp)
	case st.Phase == scan.PhaseFailure:
		writeJSON(w, http.StatusOK, resp)
	default:
		s.logger.Info("started scan", logging.Field{Key: "session", Value: sess.ID}, logging.Field{Key: "generation", Value: st.Generation})
		writeJSON(w, http.StatusAccepted, resp)
	}
}

// --- WebSockets ---

func (s *Server) handleSessionWS(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionParam(w, r)
	if !ok {
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	states, cancel := sess.Controller.Subscribe()
	defer cancel()

	// Clients may submit scans over the socket as {"url": "..."}.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := s.manager.Touch(sess.ID); err != nil {
				return
			}
			var req ScanRequest
			if err := json.Unmarshal(msg, &req); err != nil {
				s.logger.Warn("decoding websocket message", logging.Field{Key: "error", Value: err.Error()})
				continue
			}
			sess.Controller.Start(s.baseCtx, req.URL)
		}
	}()

	for {
		select {
		case <-done:
			return
		case st, ok := <-states:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
				return
			}
			if err := conn.WriteJSON(st); err != nil {
				return
			}
		}
	}
}

// --- Operators ---

// handleDiagnostics godoc
// @Summary List recent failed scans
// @Tags operators
// @Produce json
// @Param limit query int false "Maximum entries" default(50)
// @Param kind query string false "Failure kind" Enums(input, status, transport, timeout, decode)
// @Success 200 {object} DiagnosticsResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/diagnostics [get]
func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeError(w, http.StatusNotFound, "diagnostics disabled")
		return
	}

	f := diagnostics.Filter{Kind: scan.FailureKind(r.URL.Query().Get("kind"))}
	if ls := r.URL.Query().Get("limit"); ls != "" {
		if v, err := strconv.Atoi(ls); err == nil && v > 0 {
			f.Limit = v
		}
	}

	entries, err := s.journal.List(r.Context(), f)
	if err != nil {
		s.logger.Warn("listing diagnostics", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	counts, err := s.journal.CountByKind(r.Context())
	if err != nil {
		s.logger.Warn("counting diagnostics", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := DiagnosticsResponse{Entries: entries, Counts: make(map[string]int, len(counts))}
	for k, n := range counts {
		resp.Counts[string(k)] = n
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleHealth godoc
// @Summary Prediction backend health
// @Tags operators
// @Produce json
// @Success 200 {object} model.HealthStatus
// @Failure 502 {object} ErrorResponse
// @Router /healthz [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	hs, err := s.predictor.Health(ctx)
	if err != nil {
		s.logger.Warn("backend health check", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusBadGateway, "prediction backend unavailable")
		return
	}
	writeJSON(w, http.StatusOK, hs)
}
