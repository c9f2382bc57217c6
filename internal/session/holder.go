package session

import (
	"context"
	"fmt"
	"net/http"
)

// Holder is the per-request view of the token slot. Login and Logout are the
// only operations that change the token.
type Holder struct {
	m    *Manager
	w    http.ResponseWriter
	sess Session
}

// ID is the opaque session id, empty until something has been stored.
func (h *Holder) ID() string { return h.sess.ID }

func (h *Holder) Token() string { return h.sess.Token }

// LoggedIn is true whenever a token is present. Expiry is only discovered
// when the API answers 401.
func (h *Holder) LoggedIn() bool { return h.sess.Token != "" }

// Login stores token in a fresh slot and sets the cookie. Any previous slot is dropped.
func (h *Holder) Login(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("login: empty token")
	}
	if h.sess.ID != "" {
		if err := h.m.store.Delete(ctx, h.sess.ID); err != nil {
			h.m.logger.WarnContext(ctx, "Failed to drop previous session", "component", "session", "error", err)
		}
	}
	next := Session{
		ID:        newID(),
		Token:     token,
		Flash:     h.sess.Flash,
		ExpiresAt: h.m.now().Add(h.m.ttl),
	}
	if err := h.m.store.Save(ctx, next); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	h.sess = next
	h.m.setCookie(h.w, next.ID, next.ExpiresAt)
	return nil
}

// Logout clears the token and deletes the slot. It is idempotent.
func (h *Holder) Logout(ctx context.Context) error {
	id := h.sess.ID
	h.sess = Session{}
	if id == "" {
		return nil
	}
	h.m.clearCookie(h.w)
	if err := h.m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// SetFlash queues a notice for the next page, creating a slot if needed.
func (h *Holder) SetFlash(ctx context.Context, msg string) error {
	if h.sess.ID == "" {
		h.sess.ID = newID()
		h.sess.ExpiresAt = h.m.now().Add(h.m.ttl)
		h.m.setCookie(h.w, h.sess.ID, h.sess.ExpiresAt)
	}
	h.sess.Flash = msg
	if err := h.m.store.Save(ctx, h.sess); err != nil {
		return fmt.Errorf("save flash: %w", err)
	}
	return nil
}

// PopFlash returns and clears the pending notice.
func (h *Holder) PopFlash(ctx context.Context) string {
	msg := h.sess.Flash
	if msg == "" {
		return ""
	}
	h.sess.Flash = ""
	var err error
	if h.sess.Token == "" {
		err = h.m.store.Delete(ctx, h.sess.ID)
	} else {
		err = h.m.store.Save(ctx, h.sess)
	}
	if err != nil {
		h.m.logger.WarnContext(ctx, "Failed to clear flash", "component", "session", "error", err)
	}
	return msg
}
