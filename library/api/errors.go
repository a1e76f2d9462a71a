package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kapitoshk4/library-service-api/library/features/query/listborrowings"
	"github.com/kapitoshk4/library-service-api/library/shared/core"
	"github.com/kapitoshk4/library-service-api/library/shared/shell/auth"
	"github.com/kapitoshk4/library-service-api/librarystore"
)

var (
	errUnauthenticated = errors.New("authentication credentials were not provided")
	errForbidden       = errors.New("you do not have permission to perform this action")
	errInvalidInput    = errors.New("invalid input")
	errNotFound        = errors.New("not found")
)

const internalErrorMessage = "internal server error"

// errorResponse maps an error to a status code. An empty message renders the error itself.
type errorResponse struct {
	err     error
	status  int
	message string
}

// errorResponses is searched in order, the first match wins.
var errorResponses = []errorResponse{
	{err: errUnauthenticated, status: http.StatusUnauthorized},
	{err: auth.ErrInvalidToken, status: http.StatusUnauthorized, message: "invalid token"},
	{err: errForbidden, status: http.StatusForbidden},
	{err: core.ErrProviderUnavailable, status: http.StatusBadGateway, message: "payment provider unavailable, try again later"},
	{err: core.ErrAlreadyReturned, status: http.StatusBadRequest, message: "Book already returned"},
	{err: core.ErrOutOfStock, status: http.StatusBadRequest, message: "The book is currently out of stock."},
	{err: core.ErrUnknownSession, status: http.StatusBadRequest},
	{err: core.ErrDuplicateBorrowing, status: http.StatusBadRequest},
	{err: core.ErrInvalidReturnDate, status: http.StatusBadRequest},
	{err: core.ErrPaymentNotCompleted, status: http.StatusBadRequest},
	{err: core.ErrPaymentAlreadyPaid, status: http.StatusBadRequest},
	{err: listborrowings.ErrInvalidUserIDs, status: http.StatusBadRequest},
	{err: errInvalidInput, status: http.StatusBadRequest},
	{err: core.ErrBookNotFound, status: http.StatusNotFound},
	{err: core.ErrBorrowingNotFound, status: http.StatusNotFound},
	{err: core.ErrPaymentNotFound, status: http.StatusNotFound},
	{err: errNotFound, status: http.StatusNotFound},
	{err: librarystore.ErrNotFound, status: http.StatusNotFound, message: errNotFound.Error()},
}

// statusAndMessage classifies err. Unknown errors are 500 and their text is not exposed.
func statusAndMessage(err error) (int, string) {
	for _, response := range errorResponses {
		if !errors.Is(err, response.err) {
			continue
		}

		switch {
		case response.message != "":
			return response.status, response.message
		case response.err == errInvalidInput:
			return response.status, err.Error()
		default:
			return response.status, response.err.Error()
		}
	}

	return http.StatusInternalServerError, internalErrorMessage
}

// abort renders err and stops the handler chain. Server errors are attached to the gin context
// so the request log carries them.
func (s *Server) abort(c *gin.Context, err error) {
	status, message := statusAndMessage(err)

	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}

	c.Abort()
	respond(c, status, gin.H{"error": message})
}

// inputError is a client mistake in the request payload or query string. Its text is shown to the client.
type inputError struct {
	cause error
}

func (e inputError) Error() string { return e.cause.Error() }
func (e inputError) Unwrap() error { return e.cause }

func (e inputError) Is(target error) bool {
	return target == errInvalidInput
}

func invalidInput(err error) error {
	return inputError{cause: err}
}
