package postgresengine

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/kapitoshk4/library-service-api/librarystore"
	"github.com/kapitoshk4/library-service-api/librarystore/postgresengine/internal/adapters"
)

// GetPayment returns the payment with the given id or librarystore.ErrNotFound.
func (s Store) GetPayment(ctx context.Context, id int64) (librarystore.Payment, error) {
	var payment librarystore.Payment

	err := s.observe(ctx, operationGetPayment, func(ctx context.Context) error {
		var err error
		payment, err = s.selectOnePayment(ctx, operationGetPayment, goqu.C(colID).Eq(id), false)

		return err
	})

	return payment, err
}

// GetPaymentBySession returns the payment issued for the provider session or librarystore.ErrNotFound.
func (s Store) GetPaymentBySession(ctx context.Context, sessionID string) (librarystore.Payment, error) {
	var payment librarystore.Payment

	err := s.observe(ctx, operationGetPaymentBySession, func(ctx context.Context) error {
		var err error
		payment, err = s.selectOnePayment(ctx, operationGetPaymentBySession, goqu.C(colSessionID).Eq(sessionID), false)

		return err
	})

	return payment, err
}

// LockPaymentBySession returns the payment issued for the provider session and holds a row lock
// until the transaction ends. Concurrent confirm and renew calls for one session serialize on it.
func (s Store) LockPaymentBySession(ctx context.Context, sessionID string) (librarystore.Payment, error) {
	var payment librarystore.Payment

	err := s.observe(ctx, operationLockPaymentBySession, func(ctx context.Context) error {
		var err error
		payment, err = s.selectOnePayment(ctx, operationLockPaymentBySession, goqu.C(colSessionID).Eq(sessionID), true)

		return err
	})

	return payment, err
}

// ListPayments returns one page of payments matching filter together with the total count.
func (s Store) ListPayments(ctx context.Context, filter librarystore.PaymentFilter) ([]librarystore.Payment, int, error) {
	var (
		payments []librarystore.Payment
		total    int
	)

	err := s.observeList(ctx, operationListPayments, func(ctx context.Context) error {
		where := s.paymentFilterExpressions(filter)

		sqlQuery, err := s.buildSelectPaymentsQuery(where, filter.Page, false)
		if err != nil {
			return s.buildFailed(ctx, err)
		}

		payments, err = s.collectPayments(ctx, operationListPayments, sqlQuery)
		if err != nil {
			return err
		}

		countQuery, err := s.buildCountQuery(s.paymentsTable, where)
		if err != nil {
			return s.buildFailed(ctx, err)
		}

		total, err = s.count(ctx, operationListPayments, countQuery)

		return err
	}, func() int { return len(payments) })

	return payments, total, err
}

// ListPaymentsByBorrowing returns every payment of one borrowing, ordered by id.
func (s Store) ListPaymentsByBorrowing(ctx context.Context, borrowingID int64) ([]librarystore.Payment, error) {
	var payments []librarystore.Payment

	err := s.observe(ctx, operationListPaymentsByBorrower, func(ctx context.Context) error {
		where := []exp.Expression{goqu.C(colBorrowingID).Eq(borrowingID)}

		sqlQuery, err := s.buildSelectPaymentsQuery(where, librarystore.Page{}, false)
		if err != nil {
			return s.buildFailed(ctx, err)
		}

		payments, err = s.collectPayments(ctx, operationListPaymentsByBorrower, sqlQuery)

		return err
	})

	return payments, err
}

// ListPendingPayments returns every payment still waiting for the provider.
func (s Store) ListPendingPayments(ctx context.Context) ([]librarystore.Payment, error) {
	var payments []librarystore.Payment

	err := s.observeList(ctx, operationListPendingPayments, func(ctx context.Context) error {
		where := []exp.Expression{goqu.C(colStatus).Eq(string(librarystore.PaymentStatusPending))}

		sqlQuery, err := s.buildSelectPaymentsQuery(where, librarystore.Page{}, false)
		if err != nil {
			return s.buildFailed(ctx, err)
		}

		payments, err = s.collectPayments(ctx, operationListPendingPayments, sqlQuery)

		return err
	}, func() int { return len(payments) })

	return payments, err
}

// InsertPayment stores a new payment. A duplicate session id fails with librarystore.ErrUniqueViolation.
func (s Store) InsertPayment(ctx context.Context, payment librarystore.Payment) (librarystore.Payment, error) {
	var inserted librarystore.Payment

	err := s.observe(ctx, operationInsertPayment, func(ctx context.Context) error {
		sqlQuery, err := s.buildInsertPaymentQuery(payment)
		if err != nil {
			return s.buildFailed(ctx, err)
		}

		inserted, err = s.returningOnePayment(ctx, operationInsertPayment, sqlQuery)

		return err
	})

	return inserted, err
}

// UpdatePaymentStatus sets the status of a payment.
func (s Store) UpdatePaymentStatus(ctx context.Context, id int64, status librarystore.PaymentStatus) (librarystore.Payment, error) {
	var payment librarystore.Payment

	err := s.observe(ctx, operationUpdatePaymentStatus, func(ctx context.Context) error {
		sqlQuery, err := s.buildUpdatePaymentStatusQuery(id, status)
		if err != nil {
			return s.buildFailed(ctx, err)
		}

		payment, err = s.returningOnePayment(ctx, operationUpdatePaymentStatus, sqlQuery)

		return err
	})

	return payment, err
}

// DeletePayment deletes a payment.
func (s Store) DeletePayment(ctx context.Context, id int64) error {
	return s.observe(ctx, operationDeletePayment, func(ctx context.Context) error {
		return s.deleteByID(ctx, operationDeletePayment, s.paymentsTable, id)
	})
}

func (s Store) selectOnePayment(
	ctx context.Context,
	action string,
	where exp.Expression,
	forUpdate bool,
) (librarystore.Payment, error) {
	sqlQuery, err := s.buildSelectPaymentsQuery([]exp.Expression{where}, librarystore.Page{}, forUpdate)
	if err != nil {
		return librarystore.Payment{}, s.buildFailed(ctx, err)
	}

	return s.returningOnePayment(ctx, action, sqlQuery)
}

func (s Store) returningOnePayment(ctx context.Context, action string, sqlQuery sqlQueryString) (librarystore.Payment, error) {
	payments, err := s.collectPayments(ctx, action, sqlQuery)
	if err != nil {
		return librarystore.Payment{}, err
	}

	if len(payments) == 0 {
		return librarystore.Payment{}, librarystore.ErrNotFound
	}

	return payments[0], nil
}

func (s Store) collectPayments(ctx context.Context, action string, sqlQuery sqlQueryString) ([]librarystore.Payment, error) {
	payments := make([]librarystore.Payment, 0)

	err := s.query(ctx, action, sqlQuery, func(rows adapters.DBRows) error {
		payment, err := scanPayment(rows)
		if err != nil {
			return err
		}

		payments = append(payments, payment)

		return nil
	})

	return payments, err
}

// Ensure Store implements librarystore.Store.
var _ librarystore.Store = Store{}
