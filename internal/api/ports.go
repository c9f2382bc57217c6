package api

import (
	"context"

	"smartexpense/internal/core"
)

// Ports consumed by the services layer. Every call that needs a session takes
// the bearer token explicitly; an empty token sends no Authorization header.
type (
	Authenticator interface {
		Login(ctx context.Context, creds core.Credentials) (token string, err error)
		Register(ctx context.Context, reg core.Registration) (core.User, error)
	}

	TaxonomyReader interface {
		Categories(ctx context.Context, token string) ([]core.Category, error)
	}

	ExpenseLister interface {
		Expenses(ctx context.Context, token string) ([]core.Expense, error)
	}

	ExpenseWriter interface {
		AddExpense(ctx context.Context, token string, in core.ExpenseInput) (core.Expense, error)
		EditExpense(ctx context.Context, token string, id int64, in core.ExpenseInput) (core.Expense, error)
	}

	ExpenseDeleter interface {
		DeleteExpense(ctx context.Context, token string, id int64) error
	}

	ReportReader interface {
		MonthlySummary(ctx context.Context, token string, year, month int) (core.Report, error)
	}

	// Backend bundles every port; *Client implements it.
	Backend interface {
		Authenticator
		TaxonomyReader
		ExpenseLister
		ExpenseWriter
		ExpenseDeleter
		ReportReader
	}
)
