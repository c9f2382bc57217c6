package http

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"sync"
	"time"

	"smartexpense/internal/log"
	"smartexpense/internal/middleware/ratelimit"
	"smartexpense/internal/middleware/security"
	"smartexpense/internal/middleware/trace"
	"smartexpense/internal/services"
	"smartexpense/internal/session"
	appweb "smartexpense/web"
)

const staticMaxAge = 3600

// Deps are the collaborators the web front-end needs.
type Deps struct {
	Service        *services.ExpenseService
	Sessions       session.Store
	SessionOptions session.Options
	Logger         *log.Logger
	// RateLimitPerMinute caps POST requests per client; 0 uses the limiter default.
	RateLimitPerMinute int
	// Ready reports whether the session store is usable. Nil means always ready.
	Ready func(ctx context.Context) error
}

// Server is the server-rendered front-end for the expense API.
type Server struct {
	http.Server
	templates *template.Template
	svc       *services.ExpenseService
	sessions  *session.Manager
	logger    *log.Logger
	events    *log.StructuredLogger
	ready     func(ctx context.Context) error
	now       func() time.Time

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	metrics  *appMetrics

	shutdownOnce sync.Once
}

// NewServer parses the embedded templates and wires routes and middleware.
func NewServer(addr string, deps Deps) (*Server, error) {
	if deps.Service == nil || deps.Sessions == nil {
		return nil, errors.New("http server needs an expense service and a session store")
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	t, err := loadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		templates: t,
		svc:       deps.Service,
		sessions:  session.NewManager(deps.Sessions, deps.SessionOptions, logger.Logger),
		logger:    logger,
		events:    log.NewStructuredLogger(logger),
		ready:     deps.Ready,
		now:       time.Now,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimitPerMinute}),
		detector:  security.NewDetector(),
		metrics:   newAppMetrics(),
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	static := security.StaticAssetMiddleware(staticMaxAge)(http.FileServerFS(appweb.StaticFS))
	mux.Handle("GET /static/", static)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("GET /register", s.handleRegisterPage)
	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("POST /logout", s.handleLogout)

	private := func(h http.HandlerFunc) http.Handler {
		return security.NoStore(session.RequireLogin(h))
	}
	mux.Handle("GET /dashboard", private(s.handleDashboard))
	mux.Handle("GET /dashboard/expenses", private(s.handleListExpenses))
	mux.Handle("POST /dashboard/expenses", private(s.handleSaveExpense))
	mux.Handle("GET /dashboard/form", private(s.handleExpenseForm))
	mux.Handle("GET /dashboard/expenses/{id}/edit", private(s.handleEditExpense))
	mux.Handle("DELETE /dashboard/expenses/{id}", private(s.handleDeleteExpense))
	mux.Handle("GET /dashboard/report", private(s.handleReport))

	var h http.Handler = mux
	h = s.sessions.Middleware(h)
	h = s.limiter.Middleware(s.detector.ExtractClientIP, s.rejectRateLimited, http.MethodPost)(h)
	h = s.detector.Middleware(s.logger.Logger.With(log.FieldComponent, log.ComponentSecurity))(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.tracer.Middleware(h)
	h = log.Middleware(s.logger)(h)
	return h
}

func (s *Server) rejectRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldPath, r.URL.Path)
	if isHTMX(r) {
		Notify(http.StatusTooManyRequests, NotificationError, msgTooManyRequests).Write(w)
		return
	}
	http.Error(w, msgTooManyRequests, http.StatusTooManyRequests)
}

// Shutdown stops background goroutines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
