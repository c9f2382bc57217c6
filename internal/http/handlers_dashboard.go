package http

import (
	"net/http"

	"smartexpense/internal/log"
	"smartexpense/internal/services"
	"smartexpense/internal/session"
)

// handleDashboard loads categories and expenses together and renders the
// page with a create form and an unloaded report panel.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h := session.FromContext(ctx)
	month := ParseMonthParams(nil, s.now())

	page := dashboardPage{
		Title:  "Dashboard",
		Flash:  h.PopFlash(ctx),
		Report: reportView{Year: month.Year, Month: month.Month},
	}

	d, err := s.svc.LoadDashboard(ctx, h.ID(), h.Token())
	if err != nil {
		if services.EndsSession(err) {
			s.endSession(w, r, log.OpList, err)
			return
		}
		s.upstreamFailed(r, log.ComponentDashboard, log.OpList, err)
		page.Error = msgLoadFailed
		page.Form = newCreateForm(nil, 0)
		s.renderPage(w, r, http.StatusBadGateway, "dashboard_page", page)
		return
	}

	page.Form = newCreateForm(d.Categories, 0)
	page.List = newListView(d.Expenses, d.Categories)
	s.renderPage(w, r, http.StatusOK, "dashboard_page", page)
}

// handleListExpenses re-reads the list for the Refresh button.
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h := session.FromContext(ctx)

	expenses, err := s.svc.Expenses(ctx, h.Token())
	if err != nil {
		s.readFailed(w, r, log.ComponentDashboard, log.OpList, err, msgLoadFailed)
		return
	}
	categories, err := s.svc.Categories(ctx, h.ID(), h.Token())
	if err != nil {
		s.readFailed(w, r, log.ComponentDashboard, log.OpList, err, msgLoadFailed)
		return
	}
	s.renderPartial(w, r, NewHTMXResponse(), "expense_list", newListView(expenses, categories))
}

// readFailed handles an error from an authenticated read: a 401 ends the
// session, anything else becomes a notification.
func (s *Server) readFailed(w http.ResponseWriter, r *http.Request, component, op string, err error, msg string) {
	if services.EndsSession(err) {
		s.endSession(w, r, op, err)
		return
	}
	s.upstreamFailed(r, component, op, err)
	Notify(failureStatus(err), NotificationError, msg).Write(w)
}
