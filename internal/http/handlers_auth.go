package http

import (
	"errors"
	"net/http"

	"smartexpense/internal/api"
	"smartexpense/internal/core"
	"smartexpense/internal/log"
	"smartexpense/internal/session"
)

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	h := session.FromContext(r.Context())
	if h.LoggedIn() {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	s.renderPage(w, r, http.StatusOK, "login_page", authPage{
		Title: "Login",
		Flash: h.PopFlash(r.Context()),
	})
}

// handleLogin exchanges credentials for a token. On failure nothing is stored
// and the form comes back with the email kept.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	creds := core.Credentials{
		Email:    r.PostForm.Get("email"),
		Password: r.PostForm.Get("password"),
	}

	token, err := s.svc.Login(ctx, creds)
	if err != nil {
		s.upstreamFailed(r, log.ComponentAuth, log.OpLogin, err)
		s.renderPage(w, r, failureStatus(err), "login_page", authPage{
			Title: "Login",
			Error: api.Message(err, msgLoginFailed),
			Email: creds.Email,
		})
		return
	}

	h := session.FromContext(ctx)
	if err := h.Login(ctx, token); err != nil {
		log.FromContext(ctx).WithComponent(log.ComponentSession).ErrorContext(ctx, "Failed to store token",
			log.FieldOperation, log.OpLogin,
			log.FieldErrorType, log.ErrorTypeDatabase,
			log.FieldError, err)
		s.renderPage(w, r, http.StatusInternalServerError, "login_page", authPage{
			Title: "Login",
			Error: msgLoginFailed,
			Email: creds.Email,
		})
		return
	}

	log.FromContext(ctx).WithComponent(log.ComponentAuth).InfoContext(ctx, "User logged in", log.FieldOperation, log.OpLogin)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	if session.FromContext(r.Context()).LoggedIn() {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	s.renderPage(w, r, http.StatusOK, "register_page", authPage{Title: "Register"})
}

// handleRegister creates an account and sends the user to the login view.
// It never logs the user in.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	reg := core.Registration{
		Name:     r.PostForm.Get("name"),
		Email:    r.PostForm.Get("email"),
		Password: r.PostForm.Get("password"),
	}
	page := authPage{Title: "Register", Name: reg.Name, Email: reg.Email}

	_, err := s.svc.Register(ctx, reg)
	switch {
	case errors.Is(err, core.ErrMissingRegistrationFields):
		page.Error = msgFillAllFields
		s.renderPage(w, r, http.StatusUnprocessableEntity, "register_page", page)
		return
	case err != nil:
		s.upstreamFailed(r, log.ComponentAuth, log.OpRegister, err)
		page.Error = api.Message(err, msgRegisterFailed)
		s.renderPage(w, r, failureStatus(err), "register_page", page)
		return
	}

	if err := session.FromContext(ctx).SetFlash(ctx, msgRegistered); err != nil {
		log.FromContext(ctx).WithComponent(log.ComponentSession).WarnContext(ctx, "Failed to store flash", log.FieldError, err)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// handleLogout clears the token. It is safe to call without a session.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h := session.FromContext(ctx)
	s.svc.Forget(h.ID())
	if err := h.Logout(ctx); err != nil {
		log.FromContext(ctx).WithComponent(log.ComponentSession).WarnContext(ctx, "Failed to clear session",
			log.FieldOperation, log.OpLogout,
			log.FieldError, err)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
