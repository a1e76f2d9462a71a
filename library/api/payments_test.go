package api_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kapitoshk4/library-service-api/library/api"
	"github.com/kapitoshk4/library-service-api/library/shared/shell/paymentsession"
	"github.com/kapitoshk4/library-service-api/librarystore"
	. "github.com/kapitoshk4/library-service-api/testutil/helper" //nolint:revive
)

func Test_Unit_PaymentSuccess_ConfirmsPaidSession(t *testing.T) {
	// arrange
	f := givenServer(t)
	book := GivenBook(t, f.store, 1, "1.00")
	borrowing := GivenOpenBorrowing(t, f.store, book, reader.UserID, FixedNow, FixedNow.AddDate(0, 0, 2))
	GivenPayment(t, f.store, borrowing, librarystore.PaymentTypePayment, librarystore.PaymentStatusPending,
		"cs_paid", "2.00", FixedNow.Add(paymentsession.SessionLifetime))
	GivenPayment(t, f.store, borrowing, librarystore.PaymentTypeFine, librarystore.PaymentStatusPending,
		"cs_unpaid", "4.00", FixedNow.Add(paymentsession.SessionLifetime))
	f.provider.MarkPaid("cs_paid")
	f.provider.AddOpenSession("cs_unpaid")

	testCases := []struct {
		name           string
		url            string
		expectedStatus int
	}{
		{name: "paid session", url: "/api/payments/success?session_id=cs_paid", expectedStatus: http.StatusOK},
		{name: "confirming twice is harmless", url: "/api/payments/success?session_id=cs_paid", expectedStatus: http.StatusOK},
		{name: "unpaid session", url: "/api/payments/success?session_id=cs_unpaid", expectedStatus: http.StatusBadRequest},
		{name: "unknown session", url: "/api/payments/success?session_id=cs_nope", expectedStatus: http.StatusBadRequest},
		{name: "missing session id", url: "/api/payments/success", expectedStatus: http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			rec := f.do(t, http.MethodGet, tc.url, nil, nil)

			// assert
			assert.Equal(t, tc.expectedStatus, rec.Code, rec.Body.String())
		})
	}

	paid, err := f.store.GetPaymentBySession(t.Context(), "cs_paid")
	require.NoError(t, err)
	assert.Equal(t, librarystore.PaymentStatusPaid, paid.Status)

	unpaid, err := f.store.GetPaymentBySession(t.Context(), "cs_unpaid")
	require.NoError(t, err)
	assert.Equal(t, librarystore.PaymentStatusPending, unpaid.Status)
}

func Test_Unit_PaymentCancel_IsInformational(t *testing.T) {
	f := givenServer(t)

	rec := f.do(t, http.MethodGet, "/api/payments/cancel", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode(t, rec)["message"], "24 hours")
}

func Test_Unit_RenewPayment(t *testing.T) {
	// arrange
	f := givenServer(t)
	book := GivenBook(t, f.store, 1, "1.00")
	borrowing := GivenOpenBorrowing(t, f.store, book, reader.UserID, FixedNow.AddDate(0, 0, -3), FixedNow.AddDate(0, 0, 2))
	GivenPayment(t, f.store, borrowing, librarystore.PaymentTypePayment, librarystore.PaymentStatusExpired,
		"cs_expired", "5.00", FixedNow.AddDate(0, 0, -2))
	GivenPayment(t, f.store, borrowing, librarystore.PaymentTypeFine, librarystore.PaymentStatusPaid,
		"cs_done", "2.00", FixedNow.AddDate(0, 0, -1))

	// act
	foreign := f.do(t, http.MethodPost, "/api/payments/renew", map[string]any{"session_id": "cs_expired"}, &other)
	unknown := f.do(t, http.MethodPost, "/api/payments/renew", map[string]any{"session_id": "cs_nope"}, &reader)
	alreadyPaid := f.do(t, http.MethodPost, "/api/payments/renew", map[string]any{"session_id": "cs_done"}, &reader)
	renewed := f.do(t, http.MethodPost, "/api/payments/renew", map[string]any{"session_id": "cs_expired"}, &reader)

	// assert
	assert.Equal(t, http.StatusForbidden, foreign.Code)
	assert.Equal(t, http.StatusBadRequest, unknown.Code)
	assert.Equal(t, http.StatusBadRequest, alreadyPaid.Code)

	require.Equal(t, http.StatusCreated, renewed.Code, renewed.Body.String())
	payment := decode(t, renewed)
	assert.Equal(t, "PENDING", payment["status"])
	assert.Equal(t, "5.00", payment["money_to_pay"])
	assert.True(t, strings.HasPrefix(payment["session_id"].(string), "cs_test_"))

	_, err := f.store.GetPaymentBySession(t.Context(), "cs_expired")
	assert.ErrorIs(t, err, librarystore.ErrNotFound)
}

func Test_Unit_ListAndGetPayments_ScopeToOwnBorrowings(t *testing.T) {
	// arrange
	f := givenServer(t)
	book := GivenBook(t, f.store, 2, "1.00")
	own := GivenOpenBorrowing(t, f.store, book, reader.UserID, FixedNow, FixedNow.AddDate(0, 0, 2))
	foreign := GivenOpenBorrowing(t, f.store, book, other.UserID, FixedNow, FixedNow.AddDate(0, 0, 3))
	GivenPayment(t, f.store, own, librarystore.PaymentTypePayment, librarystore.PaymentStatusPending,
		"cs_own", "2.00", FixedNow.Add(paymentsession.SessionLifetime))
	foreignPayment := GivenPayment(t, f.store, foreign, librarystore.PaymentTypePayment, librarystore.PaymentStatusPending,
		"cs_foreign", "3.00", FixedNow.Add(paymentsession.SessionLifetime))

	// act
	readerList := f.do(t, http.MethodGet, "/api/payments/", nil, &reader)
	staffList := f.do(t, http.MethodGet, "/api/payments/", nil, &staff)
	foreignGet := f.do(t, http.MethodGet, path("/api/payments/", foreignPayment.ID), nil, &reader)
	staffGet := f.do(t, http.MethodGet, path("/api/payments/", foreignPayment.ID), nil, &staff)

	// assert
	assert.EqualValues(t, 1, decode(t, readerList)["count"])
	assert.EqualValues(t, 2, decode(t, staffList)["count"])
	assert.Equal(t, http.StatusNotFound, foreignGet.Code)
	assert.Equal(t, http.StatusOK, staffGet.Code)
}

func Test_Unit_Requests_AreObserved(t *testing.T) {
	// arrange
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "library_test_total", Help: "test"})
	registry.MustRegister(counter)
	counter.Inc()

	f := givenServer(t, api.WithMetricsGatherer(registry))

	// act
	rec := f.do(t, http.MethodGet, "/api/books/", nil, &reader)
	metrics := f.do(t, http.MethodGet, "/metrics", nil, nil)

	// assert
	assert.NotEmpty(t, rec.Header().Get(api.HeaderRequestID))
	assert.True(t, f.metrics.HasCounterRecordForMetric(api.HTTPRequestsMetric).
		WithLabel("route", "/api/books/").
		WithLabel("status_code", "200").
		Assert())
	assert.Positive(t, f.metrics.CountDurationRecordsForMetric(api.HTTPRequestDurationMetric))
	assert.True(t, f.logger.HasRecord("info", "http request completed"))

	require.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), "library_test_total 1")
}

func Test_Unit_RequestID_IsEchoed(t *testing.T) {
	f := givenServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(api.HeaderRequestID, "req-123")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get(api.HeaderRequestID))
}
