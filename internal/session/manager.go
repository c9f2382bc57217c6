package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const CookieName = "smartexpense_session"

type contextKey struct{}

type Options struct {
	TTL    time.Duration
	Secure bool
}

// Manager binds the session cookie to a Store.
type Manager struct {
	store  Store
	ttl    time.Duration
	secure bool
	logger *slog.Logger
	now    func() time.Time
}

func NewManager(store Store, opts Options, logger *slog.Logger) *Manager {
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:  store,
		ttl:    opts.TTL,
		secure: opts.Secure,
		logger: logger,
		now:    time.Now,
	}
}

// Middleware loads the session named by the cookie and attaches a Holder to the request.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := &Holder{m: m, w: w}
		if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
			sess, err := m.store.Load(r.Context(), c.Value)
			switch {
			case err == nil:
				h.sess = sess
			case errors.Is(err, ErrNotFound):
				m.logger.DebugContext(r.Context(), "Unknown session cookie", "component", "session")
			default:
				m.logger.ErrorContext(r.Context(), "Failed to load session", "component", "session", "error", err)
			}
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, h)))
	})
}

// FromContext returns the request's Holder, or nil outside Manager.Middleware.
func FromContext(ctx context.Context) *Holder {
	h, _ := ctx.Value(contextKey{}).(*Holder)
	return h
}

// RequireLogin sends anonymous requests to /login. HTMX requests get an
// HX-Redirect header instead of a 303 so the whole page navigates.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h := FromContext(r.Context()); h != nil && h.LoggedIn() {
			next.ServeHTTP(w, r)
			return
		}
		RedirectToLogin(w, r)
	})
}

// RedirectToLogin navigates the browser to the login view.
func RedirectToLogin(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/login")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (m *Manager) setCookie(w http.ResponseWriter, id string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func newID() string {
	return uuid.NewString()
}
