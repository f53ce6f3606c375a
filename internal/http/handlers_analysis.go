package http

import (
	"net/http"
)

// handleAnalysis serves the monthly report for ?year=&month=, defaulting to
// the current month.
func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	m, err := parseMonthQuery(r, s.ledger.CurrentMonth())
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, clientMessage(err))
		return
	}

	report, err := s.ledger.MonthlyReport(r.Context(), m)
	if err != nil {
		writeError(w, r, "analyze month", err)
		return
	}
	writeJSON(w, r, http.StatusOK, toReportResponse(report))
}

// handleMonthOptions lists the months offered by the month picker, oldest
// first. ?n= bounds the list (default 12).
func (s *Server) handleMonthOptions(w http.ResponseWriter, r *http.Request) {
	n := queryInt(r, "n", 12, 120)
	writeJSON(w, r, http.StatusOK, toMonthOptions(s.ledger.MonthOptions(n)))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	recent := queryInt(r, "recent", s.recentLimit, 100)
	summary, err := s.ledger.Summary(r.Context(), recent)
	if err != nil {
		writeError(w, r, "load summary", err)
		return
	}
	writeJSON(w, r, http.StatusOK, toSummaryResponse(summary))
}
