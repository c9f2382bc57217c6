// Package apitest provides an in-memory stand-in for the external expense API,
// shared by the tests of every layer.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"smartexpense/internal/core"
)

type user struct {
	id       int64
	name     string
	email    string
	password string
}

type expense struct {
	core.Expense
}

// Call records one request the fake received.
type Call struct {
	Method        string
	Path          string
	Authorization string
	ContentType   string
	Query         string
}

type Server struct {
	*httptest.Server

	mu         sync.Mutex
	users      map[string]*user
	tokens     map[string]int64
	categories []core.Category
	expenses   map[int64]*expense
	nextUserID int64
	nextExpID  int64
	nextToken  int
	failures   map[string]int
	calls      []Call
}

// NewServer starts the fake with the given categories seeded.
func NewServer(categories ...string) *Server {
	s := &Server{
		users:    make(map[string]*user),
		tokens:   make(map[string]int64),
		expenses: make(map[int64]*expense),
		failures: make(map[string]int),
	}
	for i, name := range categories {
		s.categories = append(s.categories, core.Category{ID: int64(i + 1), Name: name})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/token", s.handleToken)
	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("GET /api/getcategories", s.authed(s.handleCategories))
	mux.HandleFunc("GET /api/getexpenses", s.authed(s.handleExpenses))
	mux.HandleFunc("POST /api/addexpenses", s.authed(s.handleAdd))
	mux.HandleFunc("PUT /api/editexpenses/{id}", s.authed(s.handleEdit))
	mux.HandleFunc("DELETE /api/deleteexpenses/{id}", s.authed(s.handleDelete))
	mux.HandleFunc("GET /api/reports/monthly_summary", s.authed(s.handleSummary))

	s.Server = httptest.NewServer(s.record(mux))
	return s
}

// BaseURL is the API root to hand to api.New.
func (s *Server) BaseURL() string { return s.URL + "/api" }

// AddUser registers an account directly.
func (s *Server) AddUser(name, email, password string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(name, email, password)
}

// Revoke invalidates a token so later calls get 401.
func (s *Server) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}

// FailNext makes the next request to "METHOD /path-prefix" answer with status.
func (s *Server) FailNext(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = status
}

// Calls returns a copy of every request received so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsTo counts requests matching method and path prefix.
func (s *Server) CallsTo(method, pathPrefix string) int {
	n := 0
	for _, c := range s.Calls() {
		if c.Method == method && strings.HasPrefix(c.Path, pathPrefix) {
			n++
		}
	}
	return n
}

// SeedExpense stores an expense for the account with the given email.
func (s *Server) SeedExpense(email string, categoryID int64, amount, date, note string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[email]
	s.nextExpID++
	e := core.Expense{
		ID:         s.nextExpID,
		UserID:     u.id,
		CategoryID: categoryID,
		Amount:     decimal.RequireFromString(amount),
		Date:       date,
	}
	if note != "" {
		e.Note = &note
	}
	s.expenses[e.ID] = &expense{Expense: e}
	return e.ID
}

func (s *Server) addUserLocked(name, email, password string) int64 {
	s.nextUserID++
	s.users[email] = &user{id: s.nextUserID, name: name, email: email, password: password}
	return s.nextUserID
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.Method + " " + r.URL.Path
		s.mu.Lock()
		s.calls = append(s.calls, Call{
			Method:        r.Method,
			Path:          strings.TrimPrefix(r.URL.Path, "/api"),
			Authorization: r.Header.Get("Authorization"),
			ContentType:   r.Header.Get("Content-Type"),
			Query:         r.URL.RawQuery,
		})
		status := 0
		for prefix, code := range s.failures {
			if strings.HasPrefix(route, strings.Replace(prefix, " /", " /api/", 1)) {
				status = code
				delete(s.failures, prefix)
				break
			}
		}
		s.mu.Unlock()

		if status != 0 {
			writeDetail(w, status, "forced failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type authedHandler func(w http.ResponseWriter, r *http.Request, userID int64)

func (s *Server) authed(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		userID, found := s.tokens[token]
		s.mu.Unlock()
		if !ok || !found {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials (token invalid or expired)")
			return
		}
		next(w, r, userID)
	}
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid form")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[r.PostForm.Get("username")]
	if !ok || u.password != r.PostForm.Get("password") {
		writeDetail(w, http.StatusBadRequest, "Incorrect email or password")
		return
	}
	s.nextToken++
	token := "t" + strconv.Itoa(s.nextToken)
	s.tokens[token] = u.id
	writeJSON(w, http.StatusOK, map[string]string{"access_token": token, "token_type": "bearer"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in core.Registration
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Name == "" || in.Email == "" || in.Password == "" {
		writeValidation(w, "field required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[in.Email]; exists {
		writeDetail(w, http.StatusBadRequest, "Email already registered")
		return
	}
	id := s.addUserLocked(in.Name, in.Email, in.Password)
	writeJSON(w, http.StatusOK, core.User{ID: id, Name: in.Name, Email: in.Email})
}

func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request, _ int64) {
	s.mu.Lock()
	out := append([]core.Category(nil), s.categories...)
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleExpenses(w http.ResponseWriter, _ *http.Request, userID int64) {
	writeJSON(w, http.StatusOK, s.listFor(userID))
}

func (s *Server) listFor(userID int64) []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Expense{}
	for _, e := range s.expenses {
		if e.UserID == userID {
			out = append(out, e.Expense)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *Server) decodeInput(w http.ResponseWriter, r *http.Request) (core.ExpenseInput, decimal.Decimal, bool) {
	var in core.ExpenseInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeValidation(w, "invalid body")
		return in, decimal.Zero, false
	}
	amount, err := decimal.NewFromString(in.Amount)
	if err != nil || !amount.IsPositive() {
		writeValidation(w, "Input should be greater than 0")
		return in, decimal.Zero, false
	}
	if len(in.Date) != len("2006-01-02") {
		writeValidation(w, "String should match pattern")
		return in, decimal.Zero, false
	}
	return in, amount, true
}

func (s *Server) hasCategoryLocked(id int64) bool {
	for _, c := range s.categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request, userID int64) {
	in, amount, ok := s.decodeInput(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasCategoryLocked(in.CategoryID) {
		writeDetail(w, http.StatusBadRequest, "category_id not found")
		return
	}
	s.nextExpID++
	e := core.Expense{ID: s.nextExpID, UserID: userID, CategoryID: in.CategoryID, Amount: amount, Date: in.Date}
	if in.Note != "" {
		note := in.Note
		e.Note = &note
	}
	s.expenses[e.ID] = &expense{Expense: e}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) ownedLocked(w http.ResponseWriter, r *http.Request, userID int64) (*expense, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	e, found := s.expenses[id]
	if err != nil || !found || e.UserID != userID {
		writeDetail(w, http.StatusNotFound, "Expense not found")
		return nil, false
	}
	return e, true
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request, userID int64) {
	in, amount, ok := s.decodeInput(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.ownedLocked(w, r, userID)
	if !ok {
		return
	}
	e.CategoryID = in.CategoryID
	e.Amount = amount
	e.Date = in.Date
	note := in.Note
	e.Note = &note
	writeJSON(w, http.StatusOK, e.Expense)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.ownedLocked(w, r, userID)
	if !ok {
		return
	}
	delete(s.expenses, e.ID)
	writeDetail(w, http.StatusOK, "Expense deleted")
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request, userID int64) {
	year := r.URL.Query().Get("year")
	month := r.URL.Query().Get("month")
	if len(month) == 1 {
		month = "0" + month
	}
	prefix := year + "-" + month + "-"

	s.mu.Lock()
	totals := map[string]decimal.Decimal{}
	for _, e := range s.expenses {
		if e.UserID != userID || !strings.HasPrefix(e.Date, prefix) {
			continue
		}
		name := ""
		for _, c := range s.categories {
			if c.ID == e.CategoryID {
				name = c.Name
			}
		}
		totals[name] = totals[name].Add(e.Amount)
	}
	s.mu.Unlock()

	report := core.Report{ExpensesByCategory: []core.CategoryTotal{}}
	for name, amt := range totals {
		report.ExpensesByCategory = append(report.ExpensesByCategory, core.CategoryTotal{CategoryName: name, TotalAmount: amt})
		report.TotalExpenses = report.TotalExpenses.Add(amt)
	}
	sort.Slice(report.ExpensesByCategory, func(i, j int) bool {
		return report.ExpensesByCategory[i].TotalAmount.GreaterThan(report.ExpensesByCategory[j].TotalAmount)
	})
	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeValidation(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"detail": []map[string]string{{"msg": msg}},
	})
}
