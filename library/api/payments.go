package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kapitoshk4/library-service-api/library/features/command/confirmpayment"
	"github.com/kapitoshk4/library-service-api/library/features/command/renewpayment"
	"github.com/kapitoshk4/library-service-api/library/features/query/listpayments"
	"github.com/kapitoshk4/library-service-api/library/shared/core"
	"github.com/kapitoshk4/library-service-api/librarystore"
)

const (
	msgPaymentConfirmed = "Payment confirmed"
	msgPaymentCanceled  = "Payment was canceled. It can be completed later, the checkout session stays valid for 24 hours."
)

func (s *Server) listPayments(c *gin.Context) {
	page, err := parsePage(c)
	if err != nil {
		s.abort(c, err)
		return
	}

	query := listpayments.Query{Filter: s.policy.ScopePayments(principalOf(c), page)}

	result, err := s.handlers.ListPayments.Handle(c.Request.Context(), query)
	if err != nil {
		s.abort(c, err)
		return
	}

	respond(c, http.StatusOK, newListResponse(result.Payments, result.Count, toPaymentResponse))
}

func (s *Server) getPayment(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		s.abort(c, err)
		return
	}

	ctx := librarystore.WithEventualConsistency(c.Request.Context())

	payment, err := s.store.GetPayment(ctx, id)
	if err != nil {
		s.abort(c, err)
		return
	}

	borrowing, err := s.store.GetBorrowing(ctx, payment.BorrowingID)
	if err != nil {
		s.abort(c, err)
		return
	}

	if !s.policy.CanAccessPayment(principalOf(c), borrowing) {
		s.abort(c, errNotFound)
		return
	}

	respond(c, http.StatusOK, toPaymentResponse(payment))
}

// confirmPayment is the redirect target after a successful checkout.
func (s *Server) confirmPayment(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Query("session_id"))
	if sessionID == "" {
		s.abort(c, invalidInput(errors.New("session_id is required")))
		return
	}

	payment, _, err := s.handlers.ConfirmPayment.Handle(c.Request.Context(), confirmpayment.BuildCommand(sessionID, s.now()))
	if err != nil {
		s.abort(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"status": msgPaymentConfirmed, "payment": toPaymentResponse(payment)})
}

// cancelPayment is the redirect target after an abandoned checkout. It changes nothing.
func (s *Server) cancelPayment(c *gin.Context) {
	respond(c, http.StatusOK, gin.H{"message": msgPaymentCanceled})
}

func (s *Server) renewPayment(c *gin.Context) {
	var request renewRequest
	if err := bindJSON(c, &request); err != nil {
		s.abort(c, invalidInput(err))
		return
	}

	sessionID := strings.TrimSpace(request.SessionID)
	if sessionID == "" {
		s.abort(c, invalidInput(errors.New("session_id is required")))
		return
	}

	if err := s.authorizeSession(c, sessionID); err != nil {
		s.abort(c, err)
		return
	}

	payment, _, err := s.handlers.RenewPayment.Handle(c.Request.Context(), renewpayment.BuildCommand(sessionID, s.now()))
	if err != nil {
		s.abort(c, err)
		return
	}

	respond(c, http.StatusCreated, toPaymentResponse(payment))
}

// authorizeSession checks that the caller may act on the payment of sessionID.
func (s *Server) authorizeSession(c *gin.Context, sessionID string) error {
	ctx := c.Request.Context()

	payment, err := s.store.GetPaymentBySession(ctx, sessionID)
	if errors.Is(err, librarystore.ErrNotFound) {
		return core.ErrUnknownSession
	}

	if err != nil {
		return err
	}

	borrowing, err := s.store.GetBorrowing(ctx, payment.BorrowingID)
	if err != nil {
		return err
	}

	if !s.policy.CanAccessPayment(principalOf(c), borrowing) {
		return errForbidden
	}

	return nil
}
