package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"smartexpense/internal/amqp"
	"smartexpense/internal/api"
	"smartexpense/internal/cache"
	"smartexpense/internal/core"
)

const (
	categoryCacheSize = 1000
	categoryCacheTTL  = 10 * time.Minute
)

var ErrExpenseNotFound = errors.New("expense not found")

// ActivityPublisher receives an event after every successful mutation.
type ActivityPublisher interface {
	PublishActivity(ctx context.Context, msg *amqp.ExpenseActivityMessage) error
}

// Dashboard is everything the dashboard view needs on first load.
type Dashboard struct {
	Categories []core.Category
	Expenses   []core.Expense
}

// SaveResult carries the saved record and the list re-read right after it.
type SaveResult struct {
	Expense  core.Expense
	Expenses []core.Expense
	Created  bool
}

// ExpenseService drives the expense API for one client surface. Every mutation
// is followed by a fresh list read; nothing is patched locally.
type ExpenseService struct {
	api       api.Backend
	publisher ActivityPublisher
	source    string
	guard     *Guard

	// categories per session; the client never creates categories
	categories *cache.LRUCache[[]core.Category]
	logger     *slog.Logger
}

// NewExpenseService wires the API client. publisher may be nil.
func NewExpenseService(backend api.Backend, publisher ActivityPublisher, source string) *ExpenseService {
	return &ExpenseService{
		api:        backend,
		publisher:  publisher,
		source:     source,
		guard:      NewGuard(),
		categories: cache.NewLRUCache[[]core.Category](categoryCacheSize, categoryCacheTTL),
		logger:     slog.Default().With("component", "expense_service"),
	}
}

// CategoryCache exposes the per-session category cache for sweeping.
func (s *ExpenseService) CategoryCache() cache.Cleaner {
	return s.categories
}

// Forget drops anything cached for sessionKey.
func (s *ExpenseService) Forget(sessionKey string) {
	s.categories.Delete(sessionKey)
}

// Login exchanges credentials for a token. Credentials are not validated locally.
func (s *ExpenseService) Login(ctx context.Context, creds core.Credentials) (string, error) {
	token, err := s.api.Login(ctx, creds)
	if err != nil {
		return "", err
	}
	s.logger.InfoContext(ctx, "User logged in", "operation", "login")
	return token, nil
}

// Register creates an account. Missing fields fail without contacting the API.
func (s *ExpenseService) Register(ctx context.Context, reg core.Registration) (core.User, error) {
	reg.Normalize()
	if err := reg.Validate(); err != nil {
		return core.User{}, err
	}
	user, err := s.api.Register(ctx, reg)
	if err != nil {
		return core.User{}, err
	}
	s.logger.InfoContext(ctx, "User registered", "operation", "register", "user_id", user.ID)
	return user, nil
}

// LoadDashboard reads categories and expenses concurrently.
func (s *ExpenseService) LoadDashboard(ctx context.Context, sessionKey, token string) (Dashboard, error) {
	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cats, err := s.api.Categories(gctx, token)
		d.Categories = cats
		return err
	})
	g.Go(func() error {
		list, err := s.api.Expenses(gctx, token)
		d.Expenses = list
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	s.categories.Set(sessionKey, d.Categories)
	return d, nil
}

// Categories returns the session's categories, reading the API only on a cache miss.
func (s *ExpenseService) Categories(ctx context.Context, sessionKey, token string) ([]core.Category, error) {
	if cats, ok := s.categories.Get(sessionKey); ok {
		return cats, nil
	}
	cats, err := s.api.Categories(ctx, token)
	if err != nil {
		return nil, err
	}
	s.categories.Set(sessionKey, cats)
	return cats, nil
}

func (s *ExpenseService) Expenses(ctx context.Context, token string) ([]core.Expense, error) {
	return s.api.Expenses(ctx, token)
}

// FindExpense re-reads the list and returns the record with id.
func (s *ExpenseService) FindExpense(ctx context.Context, token string, id int64) (core.Expense, error) {
	list, err := s.api.Expenses(ctx, token)
	if err != nil {
		return core.Expense{}, err
	}
	e, ok := core.FindExpense(list, id)
	if !ok {
		return core.Expense{}, ErrExpenseNotFound
	}
	return e, nil
}

// Save creates (id == 0) or updates an expense, then re-reads the list.
// Identical concurrent submissions under the same sessionKey share one call.
func (s *ExpenseService) Save(ctx context.Context, sessionKey, token string, id int64, in core.ExpenseInput) (SaveResult, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return SaveResult{}, err
	}

	key := fmt.Sprintf("%s:save:%d:%d:%s:%s:%s", sessionKey, id, in.CategoryID, in.Amount, in.Date, in.Note)
	v, err, shared := s.guard.Do(ctx, key, func(ctx context.Context) (any, error) {
		return s.save(ctx, token, id, in)
	})
	if shared {
		s.logger.DebugContext(ctx, "Duplicate save collapsed", "expense_id", id)
	}
	// On a refresh failure the saved record is still returned alongside err.
	res, _ := v.(SaveResult)
	return res, err
}

func (s *ExpenseService) save(ctx context.Context, token string, id int64, in core.ExpenseInput) (SaveResult, error) {
	var (
		saved  core.Expense
		err    error
		action = amqp.ActionUpdated
	)
	if id == 0 {
		action = amqp.ActionCreated
		saved, err = s.api.AddExpense(ctx, token, in)
	} else {
		saved, err = s.api.EditExpense(ctx, token, id, in)
	}
	if err != nil {
		return SaveResult{}, &StepError{Step: StepMutate, Err: err}
	}

	s.logger.InfoContext(ctx, "Expense saved",
		"operation", action,
		"expense_id", saved.ID,
		"category_id", saved.CategoryID)
	s.publish(ctx, action, saved.ID, in)

	list, err := s.api.Expenses(ctx, token)
	if err != nil {
		return SaveResult{Expense: saved, Created: id == 0}, &StepError{Step: StepRefresh, Err: err}
	}
	return SaveResult{Expense: saved, Expenses: list, Created: id == 0}, nil
}

// Delete removes an expense and re-reads the list.
func (s *ExpenseService) Delete(ctx context.Context, sessionKey, token string, id int64) ([]core.Expense, error) {
	key := fmt.Sprintf("%s:delete:%d", sessionKey, id)
	v, err, _ := s.guard.Do(ctx, key, func(ctx context.Context) (any, error) {
		if err := s.api.DeleteExpense(ctx, token, id); err != nil {
			return nil, &StepError{Step: StepMutate, Err: err}
		}
		s.logger.InfoContext(ctx, "Expense deleted", "operation", "delete", "expense_id", id)
		s.publish(ctx, amqp.ActionDeleted, id, core.ExpenseInput{})

		list, err := s.api.Expenses(ctx, token)
		if err != nil {
			return nil, &StepError{Step: StepRefresh, Err: err}
		}
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]core.Expense), nil
}

// Report fetches the monthly summary. The month is clamped into 1..12 first.
func (s *ExpenseService) Report(ctx context.Context, sessionKey, token string, year, month int) (core.Report, error) {
	month = core.ClampMonth(month)
	key := fmt.Sprintf("%s:report:%d:%d", sessionKey, year, month)
	v, err, _ := s.guard.Do(ctx, key, func(ctx context.Context) (any, error) {
		return s.api.MonthlySummary(ctx, token, year, month)
	})
	if err != nil {
		return core.Report{}, err
	}
	return v.(core.Report), nil
}

func (s *ExpenseService) publish(ctx context.Context, action string, expenseID int64, in core.ExpenseInput) {
	if s.publisher == nil {
		return
	}
	msg := amqp.NewExpenseActivityMessage(action, expenseID, s.source)
	msg.CategoryID = in.CategoryID
	msg.Amount = in.Amount
	msg.Date = in.Date
	if err := s.publisher.PublishActivity(ctx, msg); err != nil {
		// The mutation already succeeded upstream.
		s.logger.ErrorContext(ctx, "Failed to publish activity", "action", action, "expense_id", expenseID, "error", err)
	}
}
