package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kapitoshk4/library-service-api/library/features/command/borrowbook"
	"github.com/kapitoshk4/library-service-api/library/features/command/returnbook"
	"github.com/kapitoshk4/library-service-api/library/features/query/listborrowings"
	"github.com/kapitoshk4/library-service-api/library/shared/core"
	"github.com/kapitoshk4/library-service-api/librarystore"
)

const msgBookReturned = "Book returned"

type createdBorrowingResponse struct {
	borrowingResponse
	Payment *paymentResponse `json:"payment"`
}

func (s *Server) listBorrowings(c *gin.Context) {
	page, err := parsePage(c)
	if err != nil {
		s.abort(c, err)
		return
	}

	var userIDs []int64
	if raw := c.Query("users"); raw != "" {
		if userIDs, err = listborrowings.ParseUserIDs(raw); err != nil {
			s.abort(c, err)
			return
		}
	}

	requested := listborrowings.BuildQuery(parseIsActive(c), userIDs, page)
	requested.Filter = s.policy.ScopeBorrowings(principalOf(c), requested.Filter)

	result, err := s.handlers.ListBorrowings.Handle(c.Request.Context(), requested)
	if err != nil {
		s.abort(c, err)
		return
	}

	respond(c, http.StatusOK, newListResponse(result.Borrowings, result.Count, toBorrowingResponse))
}

func (s *Server) getBorrowing(c *gin.Context) {
	borrowing, err := s.accessibleBorrowing(c)
	if err != nil {
		s.abort(c, err)
		return
	}

	respond(c, http.StatusOK, toBorrowingResponse(borrowing))
}

func (s *Server) createBorrowing(c *gin.Context) {
	var request borrowingRequest
	if err := bindJSON(c, &request); err != nil {
		s.abort(c, invalidInput(err))
		return
	}

	if request.Book <= 0 {
		s.abort(c, invalidInput(errors.New("book is required")))
		return
	}

	expectedReturnDate, err := parseTimestamp("expected_return_date", request.ExpectedReturnDate)
	if err != nil {
		s.abort(c, err)
		return
	}

	command := borrowbook.BuildCommand(request.Book, principalOf(c).UserID, expectedReturnDate, s.now())

	result, _, err := s.handlers.BorrowBook.Handle(c.Request.Context(), command)
	if err != nil {
		if errors.Is(err, core.ErrBookNotFound) {
			err = invalidInput(core.ErrBookNotFound)
		}

		s.abort(c, err)

		return
	}

	response := createdBorrowingResponse{borrowingResponse: toBorrowingResponse(result.Borrowing)}
	if result.Payment != nil {
		payment := toPaymentResponse(*result.Payment)
		response.Payment = &payment
	}

	respond(c, http.StatusCreated, response)
}

func (s *Server) returnBorrowing(c *gin.Context) {
	borrowing, err := s.accessibleBorrowing(c)
	if err != nil {
		s.abort(c, err)
		return
	}

	if _, _, err = s.handlers.ReturnBook.Handle(c.Request.Context(), returnbook.BuildCommand(borrowing.ID, s.now())); err != nil {
		s.abort(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"status": msgBookReturned})
}

func (s *Server) deleteBorrowing(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		s.abort(c, err)
		return
	}

	if err = s.store.DeleteBorrowing(c.Request.Context(), id); err != nil {
		s.abort(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// accessibleBorrowing loads the borrowing addressed by the path. Rows of other users are reported as not found.
func (s *Server) accessibleBorrowing(c *gin.Context) (librarystore.Borrowing, error) {
	id, err := parseID(c)
	if err != nil {
		return librarystore.Borrowing{}, err
	}

	borrowing, err := s.store.GetBorrowing(c.Request.Context(), id)
	if err != nil {
		return librarystore.Borrowing{}, err
	}

	if !s.policy.CanAccessBorrowing(principalOf(c), borrowing) {
		return librarystore.Borrowing{}, errNotFound
	}

	return borrowing, nil
}
