// Package httpapi is the API gateway: it routes HTTP requests to the
// circulation engine, the catalog services and the reporting facade, and
// maps the typed error taxonomy onto user-facing status codes. The core
// packages never decide status codes themselves.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/haslett/library-circulation-go/library"
	"github.com/haslett/library-circulation-go/library/auth"
	"github.com/haslett/library-circulation-go/library/catalog"
	"github.com/haslett/library-circulation-go/library/reporting"
)

// CirculationEngine is the circulation surface consumed by the gateway.
type CirculationEngine interface {
	Issue(ctx context.Context, memberID, bookID uuid.UUID) (uuid.UUID, error)
	Return(ctx context.Context, borrowingID uuid.UUID) error
	Borrowing(ctx context.Context, borrowingID uuid.UUID) (library.Borrowing, error)
}

// Authenticator is the credential-verification surface consumed by the
// gateway.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (auth.Session, error)
}

// Server routes the JSON API.
type Server struct {
	engine  CirculationEngine
	catalog *catalog.Service
	reports *reporting.Service
	auth    Authenticator
	logger  *slog.Logger
}

// NewServer wires the gateway. A nil logger falls back to slog.Default.
func NewServer(
	engine CirculationEngine,
	catalogService *catalog.Service,
	reportingService *reporting.Service,
	authenticator Authenticator,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		engine:  engine,
		catalog: catalogService,
		reports: reportingService,
		auth:    authenticator,
		logger:  logger,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/admin/login", s.handleLogin)

	mux.HandleFunc("GET /api/kpis", s.handleKPIs)
	mux.HandleFunc("GET /api/recent-orders", s.handleRecentOrders)
	mux.HandleFunc("GET /api/all-orders", s.handleAllOrders)

	mux.HandleFunc("GET /api/reports/overdue", s.handleOverdueReport)
	mux.HandleFunc("GET /api/reports/chart", s.handleGenreChart)
	mux.HandleFunc("GET /api/reports/revenue-chart", s.handleRevenueChart)
	mux.HandleFunc("GET /api/reports/status-chart", s.handleStatusChart)
	mux.HandleFunc("GET /api/notifications", s.handleNotifications)

	mux.HandleFunc("POST /api/issue-book", s.handleIssueBook)
	mux.HandleFunc("PUT /api/return-book/{id}", s.handleReturnBook)
	mux.HandleFunc("GET /api/orders/{id}", s.handleGetBorrowing)

	mux.HandleFunc("GET /api/customers", s.handleListMembers)
	mux.HandleFunc("POST /api/customers", s.handleCreateMember)
	mux.HandleFunc("PUT /api/customers/{id}", s.handleUpdateMember)
	mux.HandleFunc("DELETE /api/customers/{id}", s.handleDeleteMember)
	mux.HandleFunc("GET /api/customers/{id}/fines", s.handleMemberFines)

	mux.HandleFunc("GET /api/books", s.handleListBooks)
	mux.HandleFunc("POST /api/books", s.handleCreateBook)
	mux.HandleFunc("PUT /api/books/{id}", s.handleUpdateBook)
	mux.HandleFunc("DELETE /api/books/{id}", s.handleDeleteBook)

	s.routeLabels(mux, "authors", labelRoutes{
		list: func(ctx context.Context) ([]labelPayload, error) {
			authors, err := s.catalog.ListAuthors(ctx)
			if err != nil {
				return nil, err
			}

			labels := make([]labelPayload, len(authors))
			for i, a := range authors {
				labels[i] = labelPayload{ID: a.ID, Name: a.Name}
			}

			return labels, nil
		},
		create: s.catalog.AddAuthor,
		rename: s.catalog.RenameAuthor,
		remove: s.catalog.DeleteAuthor,
	})
	s.routeLabels(mux, "genres", labelRoutes{
		list: func(ctx context.Context) ([]labelPayload, error) {
			genres, err := s.catalog.ListGenres(ctx)
			if err != nil {
				return nil, err
			}

			labels := make([]labelPayload, len(genres))
			for i, g := range genres {
				labels[i] = labelPayload{ID: g.ID, Name: g.Name}
			}

			return labels, nil
		},
		create: s.catalog.AddGenre,
		rename: s.catalog.RenameGenre,
		remove: s.catalog.DeleteGenre,
	})
	s.routeLabels(mux, "publishers", labelRoutes{
		list: func(ctx context.Context) ([]labelPayload, error) {
			publishers, err := s.catalog.ListPublishers(ctx)
			if err != nil {
				return nil, err
			}

			labels := make([]labelPayload, len(publishers))
			for i, p := range publishers {
				labels[i] = labelPayload{ID: p.ID, Name: p.Name}
			}

			return labels, nil
		},
		create: s.catalog.AddPublisher,
		rename: s.catalog.RenamePublisher,
		remove: s.catalog.DeletePublisher,
	})

	return mux
}
