// Package http is the server-rendered web front-end.
//
// This file parses query strings, forms and path values into domain inputs.

package http

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"smartexpense/internal/core"
)

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams reads year and month, defaulting to now. The month is
// clamped into 1..12; unparsable values fall back to the defaults.
func ParseMonthParams(query url.Values, now time.Time) MonthParams {
	params := MonthParams{
		Year:  now.Year(),
		Month: int(now.Month()),
	}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			params.Year = y
		}
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			params.Month = m
		}
	}
	params.Month = core.ClampMonth(params.Month)
	return params
}

// ExpenseForm is the submitted expense form. ID is 0 in create mode.
type ExpenseForm struct {
	ID    int64
	Input core.ExpenseInput
}

// ParseExpenseForm reads the expense form fields. A missing or unparsable
// category leaves CategoryID at 0 so validation reports it as missing.
func ParseExpenseForm(form url.Values) (ExpenseForm, error) {
	var f ExpenseForm

	if v := strings.TrimSpace(form.Get("id")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return ExpenseForm{}, fmt.Errorf("invalid expense id %q", v)
		}
		f.ID = id
	}

	if v := strings.TrimSpace(form.Get("category_id")); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.Input.CategoryID = id
		}
	}
	f.Input.Amount = form.Get("amount")
	f.Input.Date = form.Get("date")
	f.Input.Note = form.Get("note")
	f.Input.Normalize()
	return f, nil
}

// PathID reads a positive integer path value.
func PathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

// ParseFormOrFail parses the request form and returns an error response on failure.
// Returns nil on success.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Invalid request")
	}
	return nil
}
