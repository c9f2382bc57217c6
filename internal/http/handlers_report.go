package http

import (
	"net/http"

	"smartexpense/internal/log"
	"smartexpense/internal/session"
)

// handleReport fetches the monthly summary for the requested period. The
// month is clamped before the call.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h := session.FromContext(ctx)
	p := ParseMonthParams(r.URL.Query(), s.now())

	report, err := s.svc.Report(ctx, h.ID(), h.Token(), p.Year, p.Month)
	if err != nil {
		s.readFailed(w, r, log.ComponentReport, log.OpReport, err, msgReportFailed)
		return
	}

	log.FromContext(ctx).WithComponent(log.ComponentReport).DebugContext(ctx, "Report loaded",
		log.FieldYear, p.Year,
		log.FieldMonth, p.Month,
		log.FieldCount, len(report.ExpensesByCategory))
	s.renderPartial(w, r, NewHTMXResponse(), "report_body", newReportView(p, report))
}
