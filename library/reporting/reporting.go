// Package reporting is the read-only reporting facade: dashboard
// aggregates, borrowing lists, overdue and chart reports, and fines. It
// applies the derived Overdue classification at read time; no write ever
// persists an overdue transition.
package reporting

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/haslett/library-circulation-go/library"
)

// recentLimit caps the dashboard's recent-borrowings widget.
const recentLimit = 5

// Store is the slice of the relational store the reports need.
type Store interface {
	DashboardKPIs(ctx context.Context) (library.DashboardKPIs, error)
	ListBorrowingSummaries(ctx context.Context, limit uint) ([]library.BorrowingSummary, error)
	ListMemberFines(ctx context.Context, memberID uuid.UUID) ([]library.Fine, error)
	ListOverdueLoans(ctx context.Context, now time.Time) ([]library.OverdueLoan, error)
	CountBooksByGenre(ctx context.Context) ([]library.GenreCount, error)
	CollectedFinesByMonth(ctx context.Context) ([]library.MonthlyRevenue, error)
	CountBorrowingStatuses(ctx context.Context, now time.Time) ([]library.StatusCount, error)
}

// OverdueEntry is one overdue loan with its lateness in whole days.
type OverdueEntry struct {
	library.OverdueLoan
	DaysLate int
}

// Chart is a label/value series shaped for the dashboard chart widgets.
type Chart struct {
	Labels []string
	Values []float64
}

// Service is the reporting facade consumed by the API gateway.
type Service struct {
	store Store
	clock func() time.Time
}

// Option configures a reporting Service.
type Option func(*Service)

// WithClock sets the time source used for the overdue classification.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// NewService creates a reporting Service over the given store.
func NewService(store Store, opts ...Option) *Service {
	service := &Service{
		store: store,
		clock: time.Now,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service
}

// Dashboard returns the KPI aggregates. Store failures propagate as errors,
// never as a silent row of zeros.
func (s *Service) Dashboard(ctx context.Context) (library.DashboardKPIs, error) {
	return s.store.DashboardKPIs(ctx)
}

// RecentBorrowings returns the latest borrowings with the derived display
// status applied.
func (s *Service) RecentBorrowings(ctx context.Context) ([]library.BorrowingSummary, error) {
	return s.listBorrowings(ctx, recentLimit)
}

// AllBorrowings returns every borrowing with the derived display status
// applied.
func (s *Service) AllBorrowings(ctx context.Context) ([]library.BorrowingSummary, error) {
	return s.listBorrowings(ctx, 0)
}

func (s *Service) listBorrowings(ctx context.Context, limit uint) ([]library.BorrowingSummary, error) {
	summaries, err := s.store.ListBorrowingSummaries(ctx, limit)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	for i := range summaries {
		summaries[i].Status = classify(summaries[i], now)
	}

	return summaries, nil
}

// MemberFines returns the fines attached to a member's borrowings.
func (s *Service) MemberFines(ctx context.Context, memberID uuid.UUID) ([]library.Fine, error) {
	return s.store.ListMemberFines(ctx, memberID)
}

// OverdueLoans returns the open loans past their due date with the lateness
// computed against the clock.
func (s *Service) OverdueLoans(ctx context.Context) ([]OverdueEntry, error) {
	now := s.clock()

	loans, err := s.store.ListOverdueLoans(ctx, now)
	if err != nil {
		return nil, err
	}

	entries := make([]OverdueEntry, len(loans))
	for i, loan := range loans {
		entries[i] = OverdueEntry{OverdueLoan: loan, DaysLate: daysLate(loan.DueDate, now)}
	}

	return entries, nil
}

// GenreChart returns the titles-per-genre distribution. Books without a
// genre are grouped under the None label.
func (s *Service) GenreChart(ctx context.Context) (Chart, error) {
	counts, err := s.store.CountBooksByGenre(ctx)
	if err != nil {
		return Chart{}, err
	}

	chart := newChart(len(counts))
	for _, count := range counts {
		label := count.Genre
		if label == "" {
			label = "None"
		}

		chart.Labels = append(chart.Labels, label)
		chart.Values = append(chart.Values, float64(count.Count))
	}

	return chart, nil
}

// RevenueChart returns the collected fine totals per calendar month.
func (s *Service) RevenueChart(ctx context.Context) (Chart, error) {
	revenues, err := s.store.CollectedFinesByMonth(ctx)
	if err != nil {
		return Chart{}, err
	}

	chart := newChart(len(revenues))
	for _, revenue := range revenues {
		chart.Labels = append(chart.Labels, revenue.Month)
		chart.Values = append(chart.Values, revenue.Amount)
	}

	return chart, nil
}

// StatusChart returns the borrowings-per-status distribution with the
// Overdue display status derived against the clock.
func (s *Service) StatusChart(ctx context.Context) (Chart, error) {
	counts, err := s.store.CountBorrowingStatuses(ctx, s.clock())
	if err != nil {
		return Chart{}, err
	}

	chart := newChart(len(counts))
	for _, count := range counts {
		chart.Labels = append(chart.Labels, string(count.Status))
		chart.Values = append(chart.Values, float64(count.Count))
	}

	return chart, nil
}

func newChart(capacity int) Chart {
	return Chart{
		Labels: make([]string, 0, capacity),
		Values: make([]float64, 0, capacity),
	}
}

// daysLate is the whole-day lateness of a due date, never negative.
func daysLate(due, now time.Time) int {
	days := int(now.Sub(due).Hours() / 24)
	if days < 0 {
		days = 0
	}

	return days
}

// classify derives the display status: a stored Borrowed row past its due
// date reads as Overdue.
func classify(summary library.BorrowingSummary, now time.Time) library.BorrowingStatus {
	if summary.Status == library.StatusBorrowed && summary.DueDate.Before(now) {
		return library.StatusOverdue
	}

	return summary.Status
}
