package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTMXResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Status(http.StatusCreated).
		BodyHTML("<p>ok</p>").
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if w.Body.String() != "<p>ok</p>" {
		t.Errorf("Body = %q", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if w.Header().Get("HX-Trigger") != "" {
		t.Error("HX-Trigger should not be set without triggers")
	}
}

func TestHTMXResponseBuilder_Triggers(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerExpensesChanged("created", 7).
		TriggerNotification(NotificationSuccess, "Saved", 3000).
		Write(w)

	var got map[string]map[string]any
	if err := json.Unmarshal([]byte(w.Header().Get("HX-Trigger")), &got); err != nil {
		t.Fatalf("HX-Trigger is not JSON: %v", err)
	}
	if got[EventExpensesChanged]["action"] != "created" || got[EventExpensesChanged]["id"] != float64(7) {
		t.Errorf("expenses:changed = %v", got[EventExpensesChanged])
	}
	n := got[EventNotification]
	if n["type"] != "success" || n["message"] != "Saved" || n["duration"] != float64(3000) {
		t.Errorf("show-notification = %v", n)
	}
}

func TestNotify(t *testing.T) {
	w := httptest.NewRecorder()
	Notify(http.StatusUnprocessableEntity, NotificationError, "Fill all required fields").Write(w)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Status code = %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("Body should be empty, got %q", w.Body.String())
	}
	trigger := w.Header().Get("HX-Trigger")
	for _, part := range []string{`"show-notification"`, `"type":"error"`, `"duration":5000`, `Fill all required fields`} {
		if !strings.Contains(trigger, part) {
			t.Errorf("HX-Trigger missing %s: %s", part, trigger)
		}
	}
}

func TestRedirect(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().Redirect("/login").Write(w)

	if w.Code != http.StatusOK {
		t.Errorf("Status code = %d", w.Code)
	}
	if got := w.Header().Get("HX-Redirect"); got != "/login" {
		t.Errorf("HX-Redirect = %q", got)
	}
}

func TestErrorResponseEscapes(t *testing.T) {
	tests := []struct {
		name    string
		builder *HTMXResponseBuilder
		status  int
	}{
		{"bad request", BadRequestError("<b>bad</b>"), http.StatusBadRequest},
		{"not found", NotFoundError("<b>bad</b>"), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)
			if w.Code != tt.status {
				t.Errorf("Status code = %d, want %d", w.Code, tt.status)
			}
			if strings.Contains(w.Body.String(), "<b>") {
				t.Errorf("message not escaped: %s", w.Body.String())
			}
		})
	}
}
