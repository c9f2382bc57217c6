package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartexpense/internal/amqp"
	"smartexpense/internal/api"
	"smartexpense/internal/apitest"
	"smartexpense/internal/log"
	"smartexpense/internal/services"
	"smartexpense/internal/session"
)

type harness struct {
	api    *apitest.Server
	srv    *Server
	web    *httptest.Server
	client *http.Client
}

type harnessOption func(*Deps)

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	fake := apitest.NewServer("Food", "Travel")
	t.Cleanup(fake.Close)
	fake.AddUser("Ana", "a@b.com", "x")

	deps := Deps{
		Service:            services.NewExpenseService(api.New(fake.BaseURL(), 5*time.Second), nil, amqp.SourceWeb),
		Sessions:           session.NewMemoryStore(100, time.Hour),
		Logger:             log.New(log.Config{Writer: io.Discard}),
		RateLimitPerMinute: 1000,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	srv, err := NewServer("127.0.0.1:0", deps)
	require.NoError(t, err)
	srv.now = func() time.Time { return time.Date(2024, 5, 17, 9, 0, 0, 0, time.UTC) }
	t.Cleanup(srv.limiter.Stop)

	web := httptest.NewServer(srv.Handler)
	t.Cleanup(web.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &harness{api: fake, srv: srv, web: web, client: client}
}

func (h *harness) do(t *testing.T, method, path string, form url.Values, htmx bool) (*http.Response, string) {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequest(method, h.web.URL+path, body)
	require.NoError(t, err)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	resp, err := h.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	resp, _ := h.do(t, http.MethodPost, "/login", url.Values{"email": {"a@b.com"}, "password": {"x"}}, false)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/dashboard", resp.Header.Get("Location"))
}

func (h *harness) sessionCookie(t *testing.T) string {
	t.Helper()
	u, err := url.Parse(h.web.URL)
	require.NoError(t, err)
	for _, c := range h.client.Jar.Cookies(u) {
		if c.Name == session.CookieName {
			return c.Value
		}
	}
	return ""
}

func expenseForm(kv ...string) url.Values {
	v := url.Values{}
	for i := 0; i < len(kv); i += 2 {
		v.Set(kv[i], kv[i+1])
	}
	return v
}

func TestIndexRedirects(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.do(t, http.MethodGet, "/", nil, false)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	h.login(t)
	resp, _ = h.do(t, http.MethodGet, "/", nil, false)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))
}

func TestDashboardRequiresLogin(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.do(t, http.MethodGet, "/dashboard", nil, false)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp, _ = h.do(t, http.MethodGet, "/dashboard/expenses", nil, true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("HX-Redirect"))
	assert.Zero(t, h.api.CallsTo(http.MethodGet, "/getexpenses"))
}

func TestLoginFailureStoresNothing(t *testing.T) {
	h := newHarness(t)

	resp, body := h.do(t, http.MethodPost, "/login", url.Values{"email": {"a@b.com"}, "password": {"s3cret-guess"}}, false)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Location"))
	assert.Contains(t, body, "Incorrect email or password")
	assert.Contains(t, body, `value="a@b.com"`)
	assert.NotContains(t, body, "s3cret-guess", "the password is never echoed back")
	assert.Empty(t, h.sessionCookie(t))

	resp, _ = h.do(t, http.MethodGet, "/dashboard", nil, false)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestLoginFailureFallbackMessage(t *testing.T) {
	h := newHarness(t)
	h.api.FailNext("POST /token", http.StatusInternalServerError)

	resp, body := h.do(t, http.MethodPost, "/login", url.Values{"email": {"a@b.com"}, "password": {"x"}}, false)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, body, "forced failure")
}

func TestLoginLoadsDashboardWithBearerToken(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	resp, body := h.do(t, http.MethodGet, "/dashboard", nil, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Add Expense")
	assert.Contains(t, body, "No expenses recorded.")
	assert.Contains(t, body, `<option value="1" selected>Food</option>`)
	assert.Contains(t, body, `value="2024"`)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	for _, c := range h.api.Calls() {
		if c.Path == "/getexpenses" {
			assert.Equal(t, "Bearer t1", c.Authorization)
		}
	}
	assert.Equal(t, 1, h.api.CallsTo(http.MethodGet, "/getexpenses"))
}

func TestLogoutMakesDashboardUnreachable(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	resp, _ := h.do(t, http.MethodPost, "/logout", url.Values{}, false)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp, _ = h.do(t, http.MethodGet, "/dashboard", nil, false)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	// Logging out twice is harmless.
	resp, _ = h.do(t, http.MethodPost, "/logout", url.Values{}, false)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestRegister(t *testing.T) {
	h := newHarness(t)

	resp, body := h.do(t, http.MethodPost, "/register", url.Values{"name": {"Bo"}, "email": {"bo@b.com"}}, false)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Please fill all fields")
	assert.Zero(t, h.api.CallsTo(http.MethodPost, "/register"))

	resp, _ = h.do(t, http.MethodPost, "/register", url.Values{"name": {"Bo"}, "email": {"bo@b.com"}, "password": {"pw"}}, false)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	_, body = h.do(t, http.MethodGet, "/login", nil, false)
	assert.Contains(t, body, "Registration successful! Please log in.")

	// The flash is shown once.
	_, body = h.do(t, http.MethodGet, "/login", nil, false)
	assert.NotContains(t, body, "Registration successful!")

	// Registering does not log in.
	resp, _ = h.do(t, http.MethodGet, "/dashboard", nil, false)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, body = h.do(t, http.MethodPost, "/register", url.Values{"name": {"Bo"}, "email": {"bo@b.com"}, "password": {"pw"}}, false)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "Email already registered")
}

func TestSaveMissingFieldsSendsNothing(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	resp, body := h.do(t, http.MethodPost, "/dashboard/expenses", expenseForm("category_id", "1", "amount", "", "date", "2024-05-01"), true)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Empty(t, body)
	assert.Contains(t, resp.Header.Get("HX-Trigger"), "Fill all required fields")
	assert.Zero(t, h.api.CallsTo(http.MethodPost, "/addexpenses"))
}

func TestAddExpenseRefetchesList(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.do(t, http.MethodGet, "/dashboard", nil, false)

	resp, body := h.do(t, http.MethodPost, "/dashboard/expenses",
		expenseForm("category_id", "2", "amount", "50", "date", "2024-05-01", "note", ""), true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("HX-Trigger"), `"expenses:changed"`)
	assert.Contains(t, body, `hx-swap-oob="innerHTML"`)
	assert.Contains(t, body, "₹50.00")
	assert.Contains(t, body, "<td>Travel</td>")
	assert.Contains(t, body, "Add Expense")
	// Category is kept after a create.
	assert.Contains(t, body, `<option value="2" selected>Travel</option>`)

	calls := h.api.Calls()
	for i, c := range calls {
		if c.Method == http.MethodPost && c.Path == "/addexpenses" {
			require.Less(t, i+1, len(calls))
			assert.Equal(t, "/getexpenses", calls[i+1].Path)
			assert.Equal(t, "application/json", c.ContentType)
		}
	}
	assert.Equal(t, 1, h.api.CallsTo(http.MethodPost, "/addexpenses"))
}

func TestAddFailureShowsGenericAlert(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	resp, body := h.do(t, http.MethodPost, "/dashboard/expenses",
		expenseForm("category_id", "1", "amount", "-5", "date", "2024-05-01"), true)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Empty(t, body)
	trigger := resp.Header.Get("HX-Trigger")
	assert.Contains(t, trigger, "Add failed")
	assert.NotContains(t, trigger, "greater than 0")
}

func TestMutationUnauthorizedKeepsSession(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.api.FailNext("POST /addexpenses", http.StatusUnauthorized)

	resp, _ := h.do(t, http.MethodPost, "/dashboard/expenses",
		expenseForm("category_id", "1", "amount", "5", "date", "2024-05-01"), true)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("HX-Redirect"))
	assert.Contains(t, resp.Header.Get("HX-Trigger"), "Add failed")

	resp, _ = h.do(t, http.MethodGet, "/dashboard", nil, false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestEditExpense(t *testing.T) {
	h := newHarness(t)
	id := h.api.SeedExpense("a@b.com", 1, "12.5", "2024-05-02", "lunch")
	h.login(t)

	resp, body := h.do(t, http.MethodGet, "/dashboard/expenses/1/edit", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Edit Expense")
	assert.Contains(t, body, `<input type="hidden" name="id" value="1">`)
	assert.Contains(t, body, `value="12.5"`)
	assert.Contains(t, body, `value="lunch"`)
	assert.Contains(t, body, ">Update</button>")
	assert.Contains(t, body, "Cancel")

	resp, body = h.do(t, http.MethodPost, "/dashboard/expenses",
		expenseForm("id", "1", "category_id", "2", "amount", "20", "date", "2024-05-02", "note", "dinner"), true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, h.api.CallsTo(http.MethodPut, "/editexpenses/1"))
	assert.Zero(t, h.api.CallsTo(http.MethodPost, "/addexpenses"))
	assert.Contains(t, body, "Add Expense")
	assert.Contains(t, body, "₹20.00")
	assert.Contains(t, body, "dinner")
	assert.NotContains(t, body, "lunch")
	assert.Equal(t, int64(1), id)
}

func TestEditUnknownExpense(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	resp, _ := h.do(t, http.MethodGet, "/dashboard/expenses/42/edit", nil, true)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("HX-Trigger"), "Expense not found")

	resp, _ = h.do(t, http.MethodGet, "/dashboard/expenses/abc/edit", nil, true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCancelReturnsCreateForm(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	resp, body := h.do(t, http.MethodGet, "/dashboard/form", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Add Expense")
	assert.NotContains(t, body, `name="id"`)
	assert.NotContains(t, body, "Cancel")
}

func TestDeleteExpense(t *testing.T) {
	h := newHarness(t)
	h.api.SeedExpense("a@b.com", 1, "10", "2024-05-01", "")
	h.api.SeedExpense("a@b.com", 2, "20", "2024-05-02", "")
	h.login(t)

	_, body := h.do(t, http.MethodGet, "/dashboard", nil, false)
	assert.Contains(t, body, `hx-confirm="Delete this expense?"`)

	resp, body := h.do(t, http.MethodDelete, "/dashboard/expenses/1", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, body, `id="expense-1"`)
	assert.Contains(t, body, `id="expense-2"`)
	assert.Contains(t, resp.Header.Get("HX-Trigger"), `"action":"deleted"`)

	resp, _ = h.do(t, http.MethodDelete, "/dashboard/expenses/1", nil, true)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("HX-Trigger"), "Delete failed")
}

func TestDeleteLastExpenseShowsEmptyState(t *testing.T) {
	h := newHarness(t)
	h.api.SeedExpense("a@b.com", 1, "10", "2024-05-01", "")
	h.login(t)

	_, body := h.do(t, http.MethodDelete, "/dashboard/expenses/1", nil, true)
	assert.Contains(t, body, "No expenses recorded.")
}

func TestReadUnauthorizedEndsSession(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.api.Revoke("t1")

	resp, _ := h.do(t, http.MethodGet, "/dashboard/expenses", nil, true)
	assert.Equal(t, "/login", resp.Header.Get("HX-Redirect"))

	_, body := h.do(t, http.MethodGet, "/login", nil, false)
	assert.Contains(t, body, "Session expired. Please login again.")

	resp, _ = h.do(t, http.MethodGet, "/dashboard", nil, false)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestDashboardUnauthorizedRedirects(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.api.Revoke("t1")

	resp, _ := h.do(t, http.MethodGet, "/dashboard", nil, false)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestRefreshUnauthorizedAfterSaveEndsSession(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.api.FailNext("GET /getexpenses", http.StatusUnauthorized)

	resp, _ := h.do(t, http.MethodPost, "/dashboard/expenses",
		expenseForm("category_id", "1", "amount", "5", "date", "2024-05-01"), true)
	assert.Equal(t, "/login", resp.Header.Get("HX-Redirect"))
	assert.Equal(t, 1, h.api.CallsTo(http.MethodPost, "/addexpenses"))
}

func TestRefreshFailureAfterSaveKeepsResult(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.do(t, http.MethodGet, "/dashboard", nil, false)
	h.api.FailNext("GET /getexpenses", http.StatusInternalServerError)

	resp, body := h.do(t, http.MethodPost, "/dashboard/expenses",
		expenseForm("category_id", "1", "amount", "5", "date", "2024-05-01"), true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("HX-Trigger"), "Failed to refresh expenses")
	assert.Contains(t, body, "Add Expense")
	assert.NotContains(t, body, "hx-swap-oob")
}

// lockedBuffer is written from server goroutines while the test reads it.
type lockedBuffer struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestUpstreamFailureLoggedAsErrorWithRequestID(t *testing.T) {
	var logs lockedBuffer
	h := newHarness(t, func(d *Deps) {
		d.Logger = log.New(log.Config{Format: "json", Writer: &logs})
	})
	h.login(t)
	h.api.FailNext("GET /getexpenses", http.StatusInternalServerError)

	resp, _ := h.do(t, http.MethodGet, "/dashboard/expenses", nil, true)
	requestID := resp.Header.Get("X-Request-ID")
	require.NotEmpty(t, requestID)

	var line string
	for _, l := range strings.Split(logs.String(), "\n") {
		if strings.Contains(l, "Expense API call failed") {
			line = l
		}
	}
	require.NotEmpty(t, line, "upstream failure was not logged")
	assert.Contains(t, line, `"level":"ERROR"`)
	assert.Contains(t, line, `"request_id":"`+requestID+`"`)
	assert.Contains(t, line, `"error_type":"`+log.ErrorTypeUpstream+`"`)
}

func TestReport(t *testing.T) {
	h := newHarness(t)
	h.api.SeedExpense("a@b.com", 1, "30", "2024-05-03", "")
	h.api.SeedExpense("a@b.com", 2, "90", "2024-05-04", "")
	h.api.SeedExpense("a@b.com", 2, "7", "2024-04-04", "")
	h.login(t)

	resp, body := h.do(t, http.MethodGet, "/dashboard/report?year=2024&month=5", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, strings.Count(body, "<path "))
	assert.Contains(t, body, "Total: ₹120.00")
	assert.Contains(t, body, `fill="#8884d8"`)
	assert.Less(t, strings.Index(body, "Travel"), strings.Index(body, "Food"))

	calls := h.api.Calls()
	assert.Equal(t, "month=05&year=2024", calls[len(calls)-1].Query)
}

func TestReportClampsMonth(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	h.do(t, http.MethodGet, "/dashboard/report?year=2024&month=13", nil, true)
	calls := h.api.Calls()
	assert.Equal(t, "month=12&year=2024", calls[len(calls)-1].Query)

	h.do(t, http.MethodGet, "/dashboard/report?year=2024&month=0", nil, true)
	calls = h.api.Calls()
	assert.Equal(t, "month=01&year=2024", calls[len(calls)-1].Query)
}

func TestReportEmpty(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	_, body := h.do(t, http.MethodGet, "/dashboard/report?year=2024&month=5", nil, true)
	assert.Contains(t, body, "No report data available for this month.")
	assert.NotContains(t, body, "<svg class=\"pie\"")
	assert.NotContains(t, body, "Total:")
}

func TestReportFailure(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.api.FailNext("GET /reports", http.StatusInternalServerError)

	resp, body := h.do(t, http.MethodGet, "/dashboard/report?year=2024&month=5", nil, true)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Empty(t, body)
	assert.Contains(t, resp.Header.Get("HX-Trigger"), "Failed to fetch report")
}

func TestReportUnauthorizedEndsSession(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.api.Revoke("t1")

	resp, _ := h.do(t, http.MethodGet, "/dashboard/report?year=2024&month=5", nil, true)
	assert.Equal(t, "/login", resp.Header.Get("HX-Redirect"))
}

func TestHealthAndReady(t *testing.T) {
	h := newHarness(t)

	resp, body := h.do(t, http.MethodGet, "/healthz", nil, false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"status":"ok"`)

	resp, body = h.do(t, http.MethodGet, "/readyz", nil, false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"status":"ready"`)

	down := newHarness(t, func(d *Deps) {
		d.Ready = func(context.Context) error { return errors.New("database is locked") }
	})
	resp, body = down.do(t, http.MethodGet, "/readyz", nil, false)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, body, "database is locked")
}

func TestMetrics(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.do(t, http.MethodPost, "/dashboard/expenses", expenseForm("category_id", "1", "amount", "5", "date", "2024-05-01"), true)

	_, body := h.do(t, http.MethodGet, "/metrics", nil, false)
	assert.Contains(t, body, "expenses_created_total 1\n")
	assert.Contains(t, body, "# TYPE http_requests_total counter")
}

func TestRateLimitOnPost(t *testing.T) {
	h := newHarness(t, func(d *Deps) { d.RateLimitPerMinute = 1 })
	form := url.Values{"email": {"a@b.com"}, "password": {"wrong"}}

	resp, _ := h.do(t, http.MethodPost, "/login", form, false)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = h.do(t, http.MethodPost, "/login", form, false)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, 1, h.api.CallsTo(http.MethodPost, "/token"))

	// Reads are not limited.
	resp, _ = h.do(t, http.MethodGet, "/login", nil, false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSecurityHeadersAndStatic(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.do(t, http.MethodGet, "/login", nil, false)
	assert.Contains(t, resp.Header.Get("Content-Security-Policy"), "https://unpkg.com")
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, body := h.do(t, http.MethodGet, "/static/app.js", nil, false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "show-notification")
	assert.Contains(t, body, "window.alert(detail.message)", "error notifications block")
	assert.Equal(t, "public, max-age=3600", resp.Header.Get("Cache-Control"))
}

func TestLoginRotatesSessionID(t *testing.T) {
	h := newHarness(t)
	h.do(t, http.MethodPost, "/register", url.Values{"name": {"Cy"}, "email": {"cy@b.com"}, "password": {"pw"}}, false)
	before := h.sessionCookie(t)
	require.NotEmpty(t, before)

	h.login(t)
	after := h.sessionCookie(t)
	assert.NotEmpty(t, after)
	assert.NotEqual(t, before, after)
}
