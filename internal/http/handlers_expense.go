package http

import (
	"errors"
	"net/http"
	"sync/atomic"

	"smartexpense/internal/amqp"
	"smartexpense/internal/core"
	"smartexpense/internal/log"
	"smartexpense/internal/services"
	"smartexpense/internal/session"
)

// handleExpenseForm returns a blank create form (Cancel).
func (s *Server) handleExpenseForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h := session.FromContext(ctx)

	categories, err := s.svc.Categories(ctx, h.ID(), h.Token())
	if err != nil {
		s.readFailed(w, r, log.ComponentDashboard, log.OpList, err, msgLoadFailed)
		return
	}
	s.renderPartial(w, r, NewHTMXResponse(), "expense_form", newCreateForm(categories, 0))
}

// handleEditExpense switches the form to edit mode for one expense, read
// fresh from the API.
func (s *Server) handleEditExpense(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		Notify(http.StatusBadRequest, NotificationError, msgInvalidRequest).Write(w)
		return
	}
	ctx := r.Context()
	h := session.FromContext(ctx)

	e, err := s.svc.FindExpense(ctx, h.Token(), id)
	switch {
	case errors.Is(err, services.ErrExpenseNotFound):
		Notify(http.StatusNotFound, NotificationError, msgExpenseNotFound).Write(w)
		return
	case err != nil:
		s.readFailed(w, r, log.ComponentDashboard, log.OpUpdate, err, msgLoadFailed)
		return
	}

	categories, err := s.svc.Categories(ctx, h.ID(), h.Token())
	if err != nil {
		s.readFailed(w, r, log.ComponentDashboard, log.OpUpdate, err, msgLoadFailed)
		return
	}
	s.renderPartial(w, r, NewHTMXResponse(), "expense_form", newEditForm(categories, e))
}

// handleSaveExpense creates or updates an expense. Missing fields never reach
// the API. On success the form resets to create mode and the list is
// replaced with a fresh read.
func (s *Server) handleSaveExpense(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	form, err := ParseExpenseForm(r.PostForm)
	if err != nil {
		Notify(http.StatusBadRequest, NotificationError, msgInvalidRequest).Write(w)
		return
	}

	ctx := r.Context()
	h := session.FromContext(ctx)
	op, failMsg := log.OpCreate, msgAddFailed
	if form.ID != 0 {
		op, failMsg = log.OpUpdate, msgUpdateFailed
	}

	res, err := s.svc.Save(ctx, h.ID(), h.Token(), form.ID, form.Input)
	switch {
	case errors.Is(err, core.ErrMissingExpenseFields):
		Notify(http.StatusUnprocessableEntity, NotificationError, msgFillRequired).Write(w)
		return
	case services.EndsSession(err):
		s.endSession(w, r, op, err)
		return
	case err != nil && !services.IsRefreshFailure(err):
		s.upstreamFailed(r, log.ComponentDashboard, op, err)
		Notify(failureStatus(err), NotificationError, failMsg).Write(w)
		return
	}
	refreshErr := err
	s.countSave(res.Created)

	categories, err := s.svc.Categories(ctx, h.ID(), h.Token())
	if err != nil {
		s.readFailed(w, r, log.ComponentDashboard, op, err, msgRefreshFailed)
		return
	}

	action := amqp.ActionUpdated
	if res.Created {
		action = amqp.ActionCreated
	}
	b := NewHTMXResponse().TriggerExpensesChanged(action, res.Expense.ID)
	view := savedView{Form: newCreateForm(categories, form.Input.CategoryID)}
	if refreshErr != nil {
		s.upstreamFailed(r, log.ComponentDashboard, log.OpList, refreshErr)
		b.TriggerErrorNotification(msgRefreshFailed)
	} else {
		list := newListView(res.Expenses, categories)
		view.List = &list
	}
	s.renderPartial(w, r, b, "expense_saved", view)
}

// handleDeleteExpense deletes one expense and returns the re-read list.
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r, "id")
	if err != nil {
		Notify(http.StatusBadRequest, NotificationError, msgInvalidRequest).Write(w)
		return
	}
	ctx := r.Context()
	h := session.FromContext(ctx)

	expenses, err := s.svc.Delete(ctx, h.ID(), h.Token(), id)
	switch {
	case services.EndsSession(err):
		s.endSession(w, r, log.OpDelete, err)
		return
	case services.IsRefreshFailure(err):
		atomic.AddInt64(&s.metrics.expensesDeleted, 1)
		s.upstreamFailed(r, log.ComponentDashboard, log.OpList, err)
		Notify(failureStatus(err), NotificationError, msgRefreshFailed).Write(w)
		return
	case err != nil:
		s.upstreamFailed(r, log.ComponentDashboard, log.OpDelete, err)
		Notify(failureStatus(err), NotificationError, msgDeleteFailed).Write(w)
		return
	}
	atomic.AddInt64(&s.metrics.expensesDeleted, 1)

	categories, err := s.svc.Categories(ctx, h.ID(), h.Token())
	if err != nil {
		s.readFailed(w, r, log.ComponentDashboard, log.OpDelete, err, msgRefreshFailed)
		return
	}
	b := NewHTMXResponse().TriggerExpensesChanged(amqp.ActionDeleted, id)
	s.renderPartial(w, r, b, "expense_list", newListView(expenses, categories))
}

func (s *Server) countSave(created bool) {
	if created {
		atomic.AddInt64(&s.metrics.expensesCreated, 1)
		return
	}
	atomic.AddInt64(&s.metrics.expensesUpdated, 1)
}
