package http

import (
	"bytes"
	"fmt"
	"html/template"

	"smartexpense/internal/core"
	appweb "smartexpense/web"
)

// User-facing messages.
const (
	msgLoginFailed        = "Login failed"
	msgRegisterFailed     = "Register failed"
	msgFillAllFields      = "Please fill all fields"
	msgRegistered         = "Registration successful! Please log in."
	msgSessionExpired     = "Session expired. Please login again."
	msgFillRequired       = "Fill all required fields"
	msgAddFailed          = "Add failed"
	msgUpdateFailed       = "Update failed"
	msgDeleteFailed       = "Delete failed"
	msgRefreshFailed      = "Failed to refresh expenses"
	msgLoadFailed         = "Failed to load data"
	msgExpenseNotFound    = "Expense not found"
	msgReportFailed       = "Failed to fetch report"
	msgInvalidRequest     = "Invalid request"
	msgTooManyRequests    = "Too many requests. Please wait a minute."
	msgSomethingWentWrong = "Something went wrong"
)

func loadTemplates() (*template.Template, error) {
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return t, nil
}

func renderTemplate(t *template.Template, name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

type authPage struct {
	Title string
	Flash string
	Error string
	Name  string
	Email string
}

type dashboardPage struct {
	Title  string
	Flash  string
	Error  string
	Form   formView
	List   listView
	Report reportView
}

// formView drives the expense form; ID 0 means create mode.
type formView struct {
	ID         int64
	Editing    bool
	Categories []core.Category
	Input      core.ExpenseInput
}

// newCreateForm preselects the first category when none is chosen.
func newCreateForm(categories []core.Category, categoryID int64) formView {
	if categoryID == 0 && len(categories) > 0 {
		categoryID = categories[0].ID
	}
	return formView{Categories: categories, Input: core.ExpenseInput{CategoryID: categoryID}}
}

func newEditForm(categories []core.Category, e core.Expense) formView {
	return formView{ID: e.ID, Editing: true, Categories: categories, Input: e.Input()}
}

func (f formView) Heading() string {
	if f.Editing {
		return "Edit Expense"
	}
	return "Add Expense"
}

func (f formView) SubmitLabel() string {
	if f.Editing {
		return "Update"
	}
	return "Add"
}

type expenseRow struct {
	ID       int64
	Date     string
	Category string
	Amount   string
	Note     string
}

type listView struct {
	Rows []expenseRow
}

func newListView(expenses []core.Expense, categories []core.Category) listView {
	rows := make([]expenseRow, 0, len(expenses))
	for _, e := range expenses {
		rows = append(rows, expenseRow{
			ID:       e.ID,
			Date:     e.Date,
			Category: core.CategoryName(categories, e.CategoryID),
			Amount:   core.FormatMoney(e.Amount),
			Note:     e.NoteText(),
		})
	}
	return listView{Rows: rows}
}

// savedView is the save response: a fresh form plus, when the re-read worked,
// the list swapped out of band.
type savedView struct {
	Form formView
	List *listView
}

type reportView struct {
	Year   int
	Month  int
	Loaded bool
	Empty  bool
	Total  string
	Slices []PieSlice
}

func newReportView(p MonthParams, r core.Report) reportView {
	return reportView{
		Year:   p.Year,
		Month:  p.Month,
		Loaded: true,
		Empty:  r.IsEmpty(),
		Total:  core.FormatMoney(r.TotalExpenses),
		Slices: PieChart(r),
	}
}

func (v reportView) Size() int { return pieSize }

func (v reportView) Period() string {
	return fmt.Sprintf("%d-%s", v.Year, core.PadMonth(v.Month))
}
