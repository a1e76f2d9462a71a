package api_test

import (
	"bytes"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kapitoshk4/library-service-api/library/api"
	"github.com/kapitoshk4/library-service-api/library/features/command/borrowbook"
	"github.com/kapitoshk4/library-service-api/library/features/command/confirmpayment"
	"github.com/kapitoshk4/library-service-api/library/features/command/renewpayment"
	"github.com/kapitoshk4/library-service-api/library/features/command/returnbook"
	"github.com/kapitoshk4/library-service-api/library/features/query/listborrowings"
	"github.com/kapitoshk4/library-service-api/library/features/query/listpayments"
	"github.com/kapitoshk4/library-service-api/library/shared/shell/auth"
	. "github.com/kapitoshk4/library-service-api/testutil/helper" //nolint:revive
	"github.com/kapitoshk4/library-service-api/testutil/memstore"
)

var (
	reader = auth.Principal{UserID: 7, Email: "reader@library.test"}
	other  = auth.Principal{UserID: 8, Email: "other@library.test"}
	staff  = auth.Principal{UserID: 1, Email: "staff@library.test", Staff: true}
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fixture struct {
	store    *memstore.Store
	provider *CheckoutProviderFake
	issuer   auth.TokenIssuer
	metrics  *MetricsCollectorSpy
	logger   *LoggerSpy
	router   *gin.Engine
}

func givenServer(t *testing.T, options ...api.Option) fixture {
	t.Helper()

	store := memstore.New()
	provider := NewCheckoutProviderFake()
	opener := NewTestOpener(t, provider)

	issuer, err := auth.NewTokenIssuer("test-secret", time.Hour, auth.WithClock(func() time.Time { return FixedNow }))
	require.NoError(t, err, "error in arranging test dependencies")

	metrics := NewMetricsCollectorSpy(true)
	logger := NewLoggerSpy(true)

	handlers := api.Handlers{
		BorrowBook:     borrowbook.NewCommandHandler(store, opener),
		ReturnBook:     returnbook.NewCommandHandler(store),
		ConfirmPayment: confirmpayment.NewCommandHandler(store, provider),
		RenewPayment:   renewpayment.NewCommandHandler(store, opener),
		ListBorrowings: listborrowings.NewQueryHandler(store),
		ListPayments:   listpayments.NewQueryHandler(store),
	}

	options = append([]api.Option{
		api.WithClock(func() time.Time { return FixedNow }),
		api.WithMetrics(metrics),
		api.WithContextualLogger(logger),
	}, options...)

	server, err := api.NewServer(store, handlers, issuer, options...)
	require.NoError(t, err, "error in arranging test dependencies")

	return fixture{
		store:    store,
		provider: provider,
		issuer:   issuer,
		metrics:  metrics,
		logger:   logger,
		router:   server.Router(),
	}
}

// do sends a request as principal, or anonymously when principal is nil.
func (f fixture) do(t *testing.T, method, path string, body any, principal *auth.Principal) *httptest.ResponseRecorder {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = jsoniter.Marshal(body)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	if principal != nil {
		token, err := f.issuer.Issue(*principal)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, jsoniter.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())

	return body
}

func path(format string, id int64) string {
	return format + strconv.FormatInt(id, 10) + "/"
}

func Test_Unit_Healthz_IsPublic(t *testing.T) {
	f := givenServer(t)

	rec := f.do(t, http.MethodGet, "/healthz", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func Test_Unit_Authentication(t *testing.T) {
	// arrange
	f := givenServer(t)

	testCases := []struct {
		name          string
		authorization string
	}{
		{name: "missing header"},
		{name: "wrong scheme", authorization: "Basic abc"},
		{name: "garbage token", authorization: "Bearer not-a-jwt"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/books/", nil)
			if tc.authorization != "" {
				req.Header.Set("Authorization", tc.authorization)
			}

			// act
			rec := httptest.NewRecorder()
			f.router.ServeHTTP(rec, req)

			// assert
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, decode(t, rec), "error")
		})
	}
}

func Test_Unit_Books_StaffOnlyWrites(t *testing.T) {
	// arrange
	f := givenServer(t)
	body := map[string]any{"title": "Dune", "author": "Frank Herbert", "cover": "HARD", "inventory": 3, "daily_fee": "1.50"}

	// act
	forbidden := f.do(t, http.MethodPost, "/api/books/", body, &reader)
	created := f.do(t, http.MethodPost, "/api/books/", body, &staff)

	// assert
	assert.Equal(t, http.StatusForbidden, forbidden.Code)
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())

	book := decode(t, created)
	assert.Equal(t, "Dune", book["title"])
	assert.Equal(t, "1.50", book["daily_fee"])
	assert.EqualValues(t, 3, book["inventory"])
}

func Test_Unit_Books_CreateValidation(t *testing.T) {
	f := givenServer(t)

	testCases := []struct {
		name string
		body map[string]any
	}{
		{name: "missing fields", body: map[string]any{"title": "Dune"}},
		{name: "unknown cover", body: map[string]any{"title": "Dune", "author": "F", "cover": "PAPER", "inventory": 1, "daily_fee": "1.00"}},
		{name: "negative inventory", body: map[string]any{"title": "Dune", "author": "F", "cover": "SOFT", "inventory": -1, "daily_fee": "1.00"}},
		{name: "inventory above column range", body: map[string]any{"title": "Dune", "author": "F", "cover": "SOFT", "inventory": int64(math.MaxInt32) + 1, "daily_fee": "1.00"}},
		{name: "fee with three decimals", body: map[string]any{"title": "Dune", "author": "F", "cover": "SOFT", "inventory": 1, "daily_fee": "1.005"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/api/books/", tc.body, &staff)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func Test_Unit_Books_ListRetrievePatchDelete(t *testing.T) {
	// arrange
	f := givenServer(t)
	book := GivenBook(t, f.store, 2, "1.00")
	GivenBook(t, f.store, 2, "1.00")

	// act
	list := f.do(t, http.MethodGet, "/api/books/?limit=1", nil, &reader)
	retrieved := f.do(t, http.MethodGet, path("/api/books/", book.ID), nil, &reader)
	patched := f.do(t, http.MethodPatch, path("/api/books/", book.ID), map[string]any{"inventory": 9}, &staff)
	deleted := f.do(t, http.MethodDelete, path("/api/books/", book.ID), nil, &staff)
	gone := f.do(t, http.MethodGet, path("/api/books/", book.ID), nil, &reader)

	// assert
	require.Equal(t, http.StatusOK, list.Code)
	listBody := decode(t, list)
	assert.EqualValues(t, 2, listBody["count"])
	assert.Len(t, listBody["results"], 1)

	assert.Equal(t, http.StatusOK, retrieved.Code)
	assert.Equal(t, book.Title, decode(t, retrieved)["title"])

	require.Equal(t, http.StatusOK, patched.Code, patched.Body.String())
	assert.EqualValues(t, 9, decode(t, patched)["inventory"])
	assert.Equal(t, book.Title, decode(t, patched)["title"])

	assert.Equal(t, http.StatusNoContent, deleted.Code)
	assert.Equal(t, http.StatusNotFound, gone.Code)
}

func Test_Unit_CreateBorrowing_ReservesCopyAndReturnsPayment(t *testing.T) {
	// arrange
	f := givenServer(t)
	book := GivenBook(t, f.store, 1, "2.00")
	body := map[string]any{"book": book.ID, "expected_return_date": "2024-03-17T12:00:00Z"}

	// act
	created := f.do(t, http.MethodPost, "/api/borrowings/", body, &reader)
	outOfStock := f.do(t, http.MethodPost, "/api/borrowings/", body, &other)

	// assert
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	borrowing := decode(t, created)
	assert.EqualValues(t, reader.UserID, borrowing["user"])
	payment, ok := borrowing["payment"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "14.00", payment["money_to_pay"])
	assert.Equal(t, "PENDING", payment["status"])

	assert.Equal(t, http.StatusBadRequest, outOfStock.Code)
	assert.Equal(t, "The book is currently out of stock.", decode(t, outOfStock)["error"])

	stored, err := f.store.GetBook(t.Context(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(0), stored.Inventory)
}

func Test_Unit_CreateBorrowing_Rejections(t *testing.T) {
	f := givenServer(t)
	book := GivenBook(t, f.store, 1, "2.00")

	testCases := []struct {
		name           string
		body           map[string]any
		failProvider   bool
		expectedStatus int
	}{
		{name: "unknown book", body: map[string]any{"book": 999, "expected_return_date": "2024-03-17"}, expectedStatus: http.StatusBadRequest},
		{name: "malformed date", body: map[string]any{"book": book.ID, "expected_return_date": "next week"}, expectedStatus: http.StatusBadRequest},
		{name: "return date in the past", body: map[string]any{"book": book.ID, "expected_return_date": "2024-03-01"}, expectedStatus: http.StatusBadRequest},
		{name: "provider down", body: map[string]any{"book": book.ID, "expected_return_date": "2024-03-17"}, failProvider: true, expectedStatus: http.StatusBadGateway},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f.provider.FailCreate(tc.failProvider)
			defer f.provider.FailCreate(false)

			rec := f.do(t, http.MethodPost, "/api/borrowings/", tc.body, &reader)

			assert.Equal(t, tc.expectedStatus, rec.Code, rec.Body.String())
		})
	}

	stored, err := f.store.GetBook(t.Context(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(1), stored.Inventory, "no rejection may consume a copy")
}

func Test_Unit_ListBorrowings_ScopesToPrincipal(t *testing.T) {
	// arrange
	f := givenServer(t)
	book := GivenBook(t, f.store, 5, "1.00")
	GivenOpenBorrowing(t, f.store, book, reader.UserID, FixedNow, FixedNow.AddDate(0, 0, 1))
	GivenOpenBorrowing(t, f.store, book, other.UserID, FixedNow, FixedNow.AddDate(0, 0, 2))
	GivenOpenBorrowing(t, f.store, book, 9, FixedNow, FixedNow.AddDate(0, 0, 3))

	testCases := []struct {
		name           string
		url            string
		principal      auth.Principal
		expectedStatus int
		expectedCount  int
	}{
		{name: "reader sees own", url: "/api/borrowings/", principal: reader, expectedStatus: http.StatusOK, expectedCount: 1},
		{name: "reader cannot widen with users", url: "/api/borrowings/?users=8,9", principal: reader, expectedStatus: http.StatusOK, expectedCount: 1},
		{name: "staff sees all", url: "/api/borrowings/", principal: staff, expectedStatus: http.StatusOK, expectedCount: 3},
		{name: "staff filters users", url: "/api/borrowings/?users=8,9", principal: staff, expectedStatus: http.StatusOK, expectedCount: 2},
		{name: "returned only", url: "/api/borrowings/?is_active=false", principal: staff, expectedStatus: http.StatusOK, expectedCount: 0},
		{name: "invalid users", url: "/api/borrowings/?users=8,x", principal: staff, expectedStatus: http.StatusBadRequest},
		{name: "invalid limit", url: "/api/borrowings/?limit=-1", principal: staff, expectedStatus: http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			rec := f.do(t, http.MethodGet, tc.url, nil, &tc.principal)

			// assert
			require.Equal(t, tc.expectedStatus, rec.Code, rec.Body.String())
			if tc.expectedStatus == http.StatusOK {
				assert.EqualValues(t, tc.expectedCount, decode(t, rec)["count"])
			}
		})
	}
}

func Test_Unit_ReturnBorrowing(t *testing.T) {
	// arrange
	f := givenServer(t)
	book := GivenBook(t, f.store, 0, "1.00")
	borrowing := GivenOpenBorrowing(t, f.store, book, reader.UserID, FixedNow.AddDate(0, 0, -2), FixedNow.AddDate(0, 0, 2))
	url := path("/api/borrowings/", borrowing.ID) + "return/"

	// act
	foreign := f.do(t, http.MethodPost, url, nil, &other)
	first := f.do(t, http.MethodPost, url, nil, &reader)
	second := f.do(t, http.MethodPost, url, nil, &reader)

	// assert
	assert.Equal(t, http.StatusNotFound, foreign.Code)

	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	assert.Equal(t, "Book returned", decode(t, first)["status"])

	assert.Equal(t, http.StatusBadRequest, second.Code)
	assert.Equal(t, "Book already returned", decode(t, second)["error"])

	stored, err := f.store.GetBook(t.Context(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(1), stored.Inventory)
}

func Test_Unit_GetAndDeleteBorrowing(t *testing.T) {
	// arrange
	f := givenServer(t)
	book := GivenBook(t, f.store, 1, "1.00")
	borrowing := GivenOpenBorrowing(t, f.store, book, reader.UserID, FixedNow, FixedNow.AddDate(0, 0, 2))
	url := path("/api/borrowings/", borrowing.ID)

	// act
	own := f.do(t, http.MethodGet, url, nil, &reader)
	foreign := f.do(t, http.MethodGet, url, nil, &other)
	deleteByReader := f.do(t, http.MethodDelete, url, nil, &reader)
	deleteByStaff := f.do(t, http.MethodDelete, url, nil, &staff)

	// assert
	assert.Equal(t, http.StatusOK, own.Code)
	assert.Equal(t, http.StatusNotFound, foreign.Code)
	assert.Equal(t, http.StatusForbidden, deleteByReader.Code)
	assert.Equal(t, http.StatusNoContent, deleteByStaff.Code)
}
