package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"smartexpense/internal/api"
	"smartexpense/internal/log"
	"smartexpense/internal/session"
)

// appMetrics counts what the front-end did on behalf of users.
type appMetrics struct {
	uptime          time.Time
	expensesCreated int64
	expensesUpdated int64
	expensesDeleted int64
	sessionsExpired int64
	upstreamErrors  int64
}

func newAppMetrics() *appMetrics {
	return &appMetrics{uptime: time.Now()}
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
		"uptime":    time.Since(s.metrics.uptime).String(),
	})
}

// handleReady checks templates and the session store.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	switch {
	case s.ready == nil:
		checks["sessions"] = "ok"
	default:
		if err := s.ready(ctx); err != nil {
			checks["sessions"] = fmt.Sprintf("failed: %v", err)
			status, httpStatus = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["sessions"] = "ok"
		}
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.limiter.ActiveClients(),
		"status":         "ok",
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": s.now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	traceMetrics := s.tracer.GetMetrics()
	limitMetrics := s.limiter.GetMetrics()
	securityMetrics := s.detector.GetMetrics()

	counters := []struct {
		name, help string
		value      int64
	}{
		{"http_requests_total", "Total number of HTTP requests", traceMetrics.TotalRequests},
		{"http_server_errors_total", "Responses with a 5xx status", traceMetrics.ServerErrors},
		{"expenses_created_total", "Expenses created through the front-end", atomic.LoadInt64(&s.metrics.expensesCreated)},
		{"expenses_updated_total", "Expenses updated through the front-end", atomic.LoadInt64(&s.metrics.expensesUpdated)},
		{"expenses_deleted_total", "Expenses deleted through the front-end", atomic.LoadInt64(&s.metrics.expensesDeleted)},
		{"sessions_expired_total", "Sessions ended by an upstream 401", atomic.LoadInt64(&s.metrics.sessionsExpired)},
		{"upstream_errors_total", "Failed calls to the expense API", atomic.LoadInt64(&s.metrics.upstreamErrors)},
		{"rate_limit_rejected_total", "Requests rejected by the rate limiter", limitMetrics.Rejected},
		{"suspicious_requests_total", "Suspicious requests detected", securityMetrics.SuspiciousRequests},
	}

	w.WriteHeader(http.StatusOK)
	for _, c := range counters {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %d\n\n", c.name, c.help, c.name, c.name, c.value)
	}
	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", limitMetrics.ClientCount)
	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", time.Since(s.metrics.uptime).Seconds())
}

// handleIndex routes to the dashboard or the login view depending on the token.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if h := session.FromContext(r.Context()); h != nil && h.LoggedIn() {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// renderPage writes a full HTML page.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	body, err := renderTemplate(s.templates, name, data)
	if err != nil {
		s.templateFailed(w, r, err)
		return
	}
	NewHTMXResponse().Status(status).HTML(body).Write(w)
}

// renderPartial writes an HTML fragment through b, which may already carry triggers.
func (s *Server) renderPartial(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder, name string, data any) {
	body, err := renderTemplate(s.templates, name, data)
	if err != nil {
		s.templateFailed(w, r, err)
		return
	}
	b.HTML(body).Write(w)
}

func (s *Server) templateFailed(w http.ResponseWriter, r *http.Request, err error) {
	log.FromContext(r.Context()).WithComponent(log.ComponentTemplate).ErrorContext(r.Context(), "Template execution failed",
		log.FieldOperation, log.OpRender,
		log.FieldErrorType, log.ErrorTypeInternal,
		log.FieldError, err)
	if isHTMX(r) {
		Notify(http.StatusInternalServerError, NotificationError, msgSomethingWentWrong).Write(w)
		return
	}
	http.Error(w, msgSomethingWentWrong, http.StatusInternalServerError)
}

// upstreamFailed logs a failed API call and counts it.
func (s *Server) upstreamFailed(r *http.Request, component, op string, err error) {
	atomic.AddInt64(&s.metrics.upstreamErrors, 1)
	errType := log.ErrorTypeUpstream
	if api.IsUnauthorized(err) {
		errType = log.ErrorTypeAuth
	}
	s.events.LogError(r.Context(), "Expense API call failed", err, component, op,
		log.NewFields().WithErrorType(errType))
}

// endSession clears the token after an upstream 401 on a read and sends the
// browser back to the login view with a notice.
func (s *Server) endSession(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	logger := log.FromContext(ctx).WithComponent(log.ComponentAuth)
	logger.InfoContext(ctx, "Session expired upstream", log.FieldOperation, op, log.FieldError, err)
	atomic.AddInt64(&s.metrics.sessionsExpired, 1)

	h := session.FromContext(ctx)
	s.svc.Forget(h.ID())
	if err := h.Logout(ctx); err != nil {
		logger.ErrorContext(ctx, "Failed to clear session", log.FieldError, err)
	}
	if err := h.SetFlash(ctx, msgSessionExpired); err != nil {
		logger.ErrorContext(ctx, "Failed to store flash", log.FieldError, err)
	}
	if isHTMX(r) {
		NewHTMXResponse().Redirect("/login").Write(w)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// failureStatus mirrors upstream client errors and maps the rest to 502.
func failureStatus(err error) int {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		return apiErr.Status
	}
	return http.StatusBadGateway
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
