package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/haslett/library-circulation-go/library/reporting"
)

type overduePayload struct {
	BorrowingID uuid.UUID `json:"borrowingId"`
	Title       string    `json:"title"`
	Member      string    `json:"member"`
	DueDate     time.Time `json:"dueDate"`
	DaysLate    int       `json:"daysLate"`
}

type chartPayload struct {
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
}

type notificationsPayload struct {
	Unread []string `json:"unread"`
	Read   []string `json:"read"`
}

func (s *Server) handleOverdueReport(w http.ResponseWriter, r *http.Request) {
	entries, err := s.reports.OverdueLoans(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	payload := make([]overduePayload, len(entries))
	for i, entry := range entries {
		payload[i] = overduePayload{
			BorrowingID: entry.BorrowingID,
			Title:       entry.BookTitle,
			Member:      entry.MemberName,
			DueDate:     entry.DueDate,
			DaysLate:    entry.DaysLate,
		}
	}

	s.writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleGenreChart(w http.ResponseWriter, r *http.Request) {
	s.serveChart(w, r, s.reports.GenreChart)
}

func (s *Server) handleRevenueChart(w http.ResponseWriter, r *http.Request) {
	s.serveChart(w, r, s.reports.RevenueChart)
}

func (s *Server) handleStatusChart(w http.ResponseWriter, r *http.Request) {
	s.serveChart(w, r, s.reports.StatusChart)
}

func (s *Server) serveChart(w http.ResponseWriter, r *http.Request, load func(context.Context) (reporting.Chart, error)) {
	chart, err := load(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, chartPayload{Labels: chart.Labels, Data: chart.Values})
}

// handleNotifications serves the notification feed. Nothing produces
// notifications server-side, so both buckets are always empty.
func (s *Server) handleNotifications(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, notificationsPayload{
		Unread: []string{},
		Read:   []string{},
	})
}
