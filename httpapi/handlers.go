package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/haslett/library-circulation-go/library"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool   `json:"success"`
	Role    string `json:"role"`
	Name    string `json:"name"`
	Token   string `json:"token"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	session, loginErr := s.auth.Login(r.Context(), req.Email, req.Password)
	if loginErr != nil {
		s.writeError(w, r, loginErr)
		return
	}

	s.writeJSON(w, http.StatusOK, loginResponse{
		Success: true,
		Role:    session.Role,
		Name:    session.Name,
		Token:   session.Token,
	})
}

type kpisResponse struct {
	TotalBooks     int     `json:"totalBooks"`
	OpenBorrowings int     `json:"totalOrders"`
	CollectedFines float64 `json:"totalRevenue"`
	MemberCount    int     `json:"newCustomers"`
}

func (s *Server) handleKPIs(w http.ResponseWriter, r *http.Request) {
	kpis, err := s.reports.Dashboard(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, kpisResponse{
		TotalBooks:     kpis.TotalCopies,
		OpenBorrowings: kpis.OpenBorrowings,
		CollectedFines: kpis.CollectedFines,
		MemberCount:    kpis.MemberCount,
	})
}

type borrowingSummaryPayload struct {
	ID     uuid.UUID `json:"id"`
	Member string    `json:"member"`
	Date   time.Time `json:"date"`
	Due    time.Time `json:"due"`
	Status string    `json:"status"`
}

func summariesPayload(summaries []library.BorrowingSummary) []borrowingSummaryPayload {
	payload := make([]borrowingSummaryPayload, len(summaries))
	for i, summary := range summaries {
		payload[i] = borrowingSummaryPayload{
			ID:     summary.ID,
			Member: summary.MemberName,
			Date:   summary.BorrowDate,
			Due:    summary.DueDate,
			Status: string(summary.Status),
		}
	}

	return payload
}

func (s *Server) handleRecentOrders(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.reports.RecentBorrowings(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, summariesPayload(summaries))
}

func (s *Server) handleAllOrders(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.reports.AllBorrowings(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, summariesPayload(summaries))
}

type issueRequest struct {
	MemberID uuid.UUID `json:"memberId"`
	BookID   uuid.UUID `json:"bookId"`
}

type issueResponse struct {
	BorrowingID uuid.UUID `json:"borrowingId"`
}

func (s *Server) handleIssueBook(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	borrowingID, issueErr := s.engine.Issue(r.Context(), req.MemberID, req.BookID)
	if issueErr != nil {
		s.writeError(w, r, issueErr)
		return
	}

	s.writeJSON(w, http.StatusCreated, issueResponse{BorrowingID: borrowingID})
}

func (s *Server) handleReturnBook(w http.ResponseWriter, r *http.Request) {
	borrowingID, ok := s.pathID(w, r)
	if !ok {
		return
	}

	if returnErr := s.engine.Return(r.Context(), borrowingID); returnErr != nil {
		s.writeError(w, r, returnErr)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Returned"})
}

type borrowingPayload struct {
	ID         uuid.UUID  `json:"id"`
	MemberID   uuid.UUID  `json:"memberId"`
	BorrowDate time.Time  `json:"borrowDate"`
	DueDate    time.Time  `json:"dueDate"`
	ReturnDate *time.Time `json:"returnDate,omitempty"`
	Status     string     `json:"status"`
}

func (s *Server) handleGetBorrowing(w http.ResponseWriter, r *http.Request) {
	borrowingID, ok := s.pathID(w, r)
	if !ok {
		return
	}

	borrowing, getErr := s.engine.Borrowing(r.Context(), borrowingID)
	if getErr != nil {
		s.writeError(w, r, getErr)
		return
	}

	s.writeJSON(w, http.StatusOK, borrowingPayload{
		ID:         borrowing.ID,
		MemberID:   borrowing.MemberID,
		BorrowDate: borrowing.BorrowDate,
		DueDate:    borrowing.DueDate,
		ReturnDate: borrowing.ReturnDate,
		Status:     string(borrowing.Status),
	})
}

type memberPayload struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"firstname"`
	LastName  string    `json:"lastname"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Status    string    `json:"status"`
}

// defaultMemberPassword seeds accounts registered by staff without a
// password. Only its bcrypt hash is stored.
const defaultMemberPassword = "123456"

type createMemberRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Password  string `json:"password"`
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.catalog.ListMembers(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	payload := make([]memberPayload, len(members))
	for i, member := range members {
		payload[i] = memberPayload{
			ID:        member.ID,
			FirstName: member.FirstName,
			LastName:  member.LastName,
			Email:     member.Email,
			Phone:     member.Phone,
			Address:   member.Address,
			Status:    member.MembershipStatus,
		}
	}

	s.writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	var req createMemberRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	if req.Password == "" {
		req.Password = defaultMemberPassword
	}

	member := library.Member{
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Email:            req.Email,
		Phone:            req.Phone,
		Address:          req.Address,
		MembershipStatus: library.MembershipActive,
	}

	memberID, createErr := s.catalog.RegisterMember(r.Context(), member, req.Password)
	if createErr != nil {
		s.writeError(w, r, createErr)
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]uuid.UUID{"id": memberID})
}

func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	memberID, ok := s.pathID(w, r)
	if !ok {
		return
	}

	var req createMemberRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	member := library.Member{
		ID:        memberID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
	}

	if updateErr := s.catalog.UpdateMember(r.Context(), member); updateErr != nil {
		s.writeError(w, r, updateErr)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Updated"})
}

func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	memberID, ok := s.pathID(w, r)
	if !ok {
		return
	}

	if deleteErr := s.catalog.DeleteMember(r.Context(), memberID); deleteErr != nil {
		s.writeError(w, r, deleteErr)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted"})
}

type finePayload struct {
	ID            uuid.UUID  `json:"id"`
	BorrowingID   uuid.UUID  `json:"borrowingId"`
	Amount        float64    `json:"amount"`
	PaymentStatus string     `json:"paymentStatus"`
	PaymentDate   *time.Time `json:"paymentDate,omitempty"`
}

func (s *Server) handleMemberFines(w http.ResponseWriter, r *http.Request) {
	memberID, ok := s.pathID(w, r)
	if !ok {
		return
	}

	fines, finesErr := s.reports.MemberFines(r.Context(), memberID)
	if finesErr != nil {
		s.writeError(w, r, finesErr)
		return
	}

	payload := make([]finePayload, len(fines))
	for i, fine := range fines {
		payload[i] = finePayload{
			ID:            fine.ID,
			BorrowingID:   fine.BorrowingID,
			Amount:        fine.Amount,
			PaymentStatus: fine.PaymentStatus,
			PaymentDate:   fine.PaymentDate,
		}
	}

	s.writeJSON(w, http.StatusOK, payload)
}

type bookPayload struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	Author          string     `json:"author,omitempty"`
	AuthorID        *uuid.UUID `json:"authorId,omitempty"`
	PublisherID     *uuid.UUID `json:"publisherId,omitempty"`
	Genre           string     `json:"genre"`
	ISBN            string     `json:"isbn"`
	TotalCopies     int        `json:"stock"`
	AvailableCopies int        `json:"available"`
}

type bookRequest struct {
	Title       string     `json:"title"`
	AuthorID    *uuid.UUID `json:"authorId"`
	PublisherID *uuid.UUID `json:"publisherId"`
	Genre       string     `json:"genre"`
	ISBN        string     `json:"isbn"`
	TotalCopies int        `json:"stock"`
}

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	listings, err := s.catalog.ListBooks(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	payload := make([]bookPayload, len(listings))
	for i, listing := range listings {
		payload[i] = bookPayload{
			ID:              listing.ID,
			Title:           listing.Title,
			Author:          listing.AuthorName,
			AuthorID:        listing.AuthorID,
			PublisherID:     listing.PublisherID,
			Genre:           listing.Genre,
			ISBN:            listing.ISBN,
			TotalCopies:     listing.TotalCopies,
			AvailableCopies: listing.AvailableCopies,
		}
	}

	s.writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	book := library.Book{
		Title:       req.Title,
		AuthorID:    req.AuthorID,
		PublisherID: req.PublisherID,
		Genre:       req.Genre,
		ISBN:        req.ISBN,
		TotalCopies: req.TotalCopies,
	}

	bookID, createErr := s.catalog.AddBook(r.Context(), book)
	if createErr != nil {
		s.writeError(w, r, createErr)
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]uuid.UUID{"id": bookID})
}

func (s *Server) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	bookID, ok := s.pathID(w, r)
	if !ok {
		return
	}

	var req bookRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	book := library.Book{
		ID:          bookID,
		Title:       req.Title,
		AuthorID:    req.AuthorID,
		PublisherID: req.PublisherID,
		Genre:       req.Genre,
		ISBN:        req.ISBN,
		TotalCopies: req.TotalCopies,
	}

	if updateErr := s.catalog.UpdateBook(r.Context(), book); updateErr != nil {
		s.writeError(w, r, updateErr)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Updated"})
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	bookID, ok := s.pathID(w, r)
	if !ok {
		return
	}

	if deleteErr := s.catalog.DeleteBook(r.Context(), bookID); deleteErr != nil {
		s.writeError(w, r, deleteErr)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted"})
}

type labelPayload struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type labelRequest struct {
	Name string `json:"name"`
}

// labelRoutes bundles the CRUD functions of one name-only directory
// resource; authors, genres and publishers share the handler wiring.
type labelRoutes struct {
	list   func(ctx context.Context) ([]labelPayload, error)
	create func(ctx context.Context, name string) (uuid.UUID, error)
	rename func(ctx context.Context, id uuid.UUID, name string) error
	remove func(ctx context.Context, id uuid.UUID) error
}

func (s *Server) routeLabels(mux *http.ServeMux, resource string, routes labelRoutes) {
	mux.HandleFunc("GET /api/"+resource, func(w http.ResponseWriter, r *http.Request) {
		labels, err := routes.list(r.Context())
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		s.writeJSON(w, http.StatusOK, labels)
	})

	mux.HandleFunc("POST /api/"+resource, func(w http.ResponseWriter, r *http.Request) {
		var req labelRequest
		if !s.decodeBody(w, r, &req) {
			return
		}

		labelID, createErr := routes.create(r.Context(), req.Name)
		if createErr != nil {
			s.writeError(w, r, createErr)
			return
		}

		s.writeJSON(w, http.StatusCreated, map[string]uuid.UUID{"id": labelID})
	})

	mux.HandleFunc("PUT /api/"+resource+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		labelID, ok := s.pathID(w, r)
		if !ok {
			return
		}

		var req labelRequest
		if !s.decodeBody(w, r, &req) {
			return
		}

		if renameErr := routes.rename(r.Context(), labelID, req.Name); renameErr != nil {
			s.writeError(w, r, renameErr)
			return
		}

		s.writeJSON(w, http.StatusOK, map[string]string{"message": "Updated"})
	})

	mux.HandleFunc("DELETE /api/"+resource+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		labelID, ok := s.pathID(w, r)
		if !ok {
			return
		}

		if removeErr := routes.remove(r.Context(), labelID); removeErr != nil {
			s.writeError(w, r, removeErr)
			return
		}

		s.writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted"})
	})
}
