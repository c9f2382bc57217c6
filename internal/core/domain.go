package core

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type (
	User struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}

	Category struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}

	Expense struct {
		ID         int64           `json:"id"`
		UserID     int64           `json:"user_id"`
		CategoryID int64           `json:"category_id"`
		Amount     decimal.Decimal `json:"amount"`
		Date       string          `json:"date"` // YYYY-MM-DD
		Note       *string         `json:"note"`
	}

	// ExpenseInput is the payload for both create and update. Amount travels
	// as the string the user typed; the API owns numeric validation.
	ExpenseInput struct {
		CategoryID int64  `json:"category_id" validate:"required,gt=0"`
		Amount     string `json:"amount" validate:"required"`
		Date       string `json:"date" validate:"required"`
		Note       string `json:"note"`
	}

	Credentials struct {
		Email    string
		Password string
	}

	Registration struct {
		Name     string `json:"name" validate:"required"`
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
)

var (
	ErrMissingExpenseFields      = errors.New("fill all required fields")
	ErrMissingRegistrationFields = errors.New("please fill all fields")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// NoteText returns the note or "" when the API sent null.
func (e Expense) NoteText() string {
	if e.Note == nil {
		return ""
	}
	return *e.Note
}

// Input converts a stored expense back into the form payload used for editing.
func (e Expense) Input() ExpenseInput {
	return ExpenseInput{
		CategoryID: e.CategoryID,
		Amount:     e.Amount.String(),
		Date:       e.Date,
		Note:       e.NoteText(),
	}
}

// Normalize trims surrounding whitespace from the free-text fields.
func (in *ExpenseInput) Normalize() {
	in.Amount = strings.TrimSpace(in.Amount)
	in.Date = strings.TrimSpace(in.Date)
	in.Note = strings.TrimSpace(in.Note)
}

func (in ExpenseInput) Validate() error {
	if err := validate.Struct(in); err != nil {
		return ErrMissingExpenseFields
	}
	return nil
}

func (r *Registration) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
}

func (r Registration) Validate() error {
	if err := validate.Struct(r); err != nil {
		return ErrMissingRegistrationFields
	}
	return nil
}

// FindExpense returns the expense with the given id from an already fetched list.
func FindExpense(expenses []Expense, id int64) (Expense, bool) {
	for _, e := range expenses {
		if e.ID == id {
			return e, true
		}
	}
	return Expense{}, false
}

// CategoryName resolves a category id to its display name, or "" when unknown.
func CategoryName(categories []Category, id int64) string {
	for _, c := range categories {
		if c.ID == id {
			return c.Name
		}
	}
	return ""
}
