package api

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/kapitoshk4/library-service-api/librarystore"
)

const (
	maxTitleLength  = 255
	maxAuthorLength = 63
	feeDecimals     = 2
	maxPageLimit    = 1000
	dateLayout      = "2006-01-02"
)

type listResponse[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}

func newListResponse[R any, T any](rows []R, count int, toResponse func(R) T) listResponse[T] {
	return listResponse[T]{
		Count: count,
		Results: lo.Map(rows, func(row R, _ int) T {
			return toResponse(row)
		}),
	}
}

type bookResponse struct {
	ID        int64              `json:"id"`
	Title     string             `json:"title"`
	Author    string             `json:"author"`
	Cover     librarystore.Cover `json:"cover"`
	Inventory uint               `json:"inventory"`
	DailyFee  string             `json:"daily_fee"`
}

func toBookResponse(book librarystore.Book) bookResponse {
	return bookResponse{
		ID:        book.ID,
		Title:     book.Title,
		Author:    book.Author,
		Cover:     book.Cover,
		Inventory: book.Inventory,
		DailyFee:  book.DailyFee.StringFixed(feeDecimals),
	}
}

type borrowingResponse struct {
	ID                 int64      `json:"id"`
	BorrowDate         time.Time  `json:"borrow_date"`
	ExpectedReturnDate time.Time  `json:"expected_return_date"`
	ActualReturnDate   *time.Time `json:"actual_return_date"`
	Book               int64      `json:"book"`
	User               int64      `json:"user"`
}

func toBorrowingResponse(borrowing librarystore.Borrowing) borrowingResponse {
	return borrowingResponse{
		ID:                 borrowing.ID,
		BorrowDate:         borrowing.BorrowDate,
		ExpectedReturnDate: borrowing.ExpectedReturnDate,
		ActualReturnDate:   borrowing.ActualReturnDate,
		Book:               borrowing.BookID,
		User:               borrowing.UserID,
	}
}

type paymentResponse struct {
	ID         int64                      `json:"id"`
	Status     librarystore.PaymentStatus `json:"status"`
	Type       librarystore.PaymentType   `json:"type"`
	Borrowing  int64                      `json:"borrowing"`
	SessionID  string                     `json:"session_id"`
	SessionURL string                     `json:"session_url"`
	MoneyToPay string                     `json:"money_to_pay"`
	ExpiresAt  time.Time                  `json:"expires_at"`
	CreatedAt  time.Time                  `json:"created_at"`
}

func toPaymentResponse(payment librarystore.Payment) paymentResponse {
	return paymentResponse{
		ID:         payment.ID,
		Status:     payment.Status,
		Type:       payment.Type,
		Borrowing:  payment.BorrowingID,
		SessionID:  payment.SessionID,
		SessionURL: payment.SessionURL,
		MoneyToPay: payment.MoneyToPay.StringFixed(feeDecimals),
		ExpiresAt:  payment.ExpiresAt,
		CreatedAt:  payment.CreatedAt,
	}
}

// bookRequest is the body of create, replace and partial update. Absent fields are nil.
type bookRequest struct {
	Title     *string             `json:"title"`
	Author    *string             `json:"author"`
	Cover     *librarystore.Cover `json:"cover"`
	Inventory *int64              `json:"inventory"`
	DailyFee  *decimal.Decimal    `json:"daily_fee"`
}

// applyTo copies the present fields onto book. With partial false every field is required.
func (r bookRequest) applyTo(book librarystore.Book, partial bool) (librarystore.Book, error) {
	var problems []string

	if !partial {
		required := []struct {
			name    string
			missing bool
		}{
			{"title", r.Title == nil},
			{"author", r.Author == nil},
			{"cover", r.Cover == nil},
			{"inventory", r.Inventory == nil},
			{"daily_fee", r.DailyFee == nil},
		}

		for _, field := range required {
			if field.missing {
				problems = append(problems, fmt.Sprintf("%s is required", field.name))
			}
		}
	}

	if r.Title != nil {
		book.Title = strings.TrimSpace(*r.Title)
		if book.Title == "" || len(book.Title) > maxTitleLength {
			problems = append(problems, fmt.Sprintf("title must have 1 to %d characters", maxTitleLength))
		}
	}

	if r.Author != nil {
		book.Author = strings.TrimSpace(*r.Author)
		if book.Author == "" || len(book.Author) > maxAuthorLength {
			problems = append(problems, fmt.Sprintf("author must have 1 to %d characters", maxAuthorLength))
		}
	}

	if r.Cover != nil {
		book.Cover = librarystore.Cover(strings.ToUpper(string(*r.Cover)))
		if !book.Cover.Valid() {
			problems = append(problems, "cover must be HARD or SOFT")
		}
	}

	if r.Inventory != nil {
		switch {
		case *r.Inventory < 0:
			problems = append(problems, "inventory must not be negative")
		case *r.Inventory > math.MaxInt32:
			problems = append(problems, fmt.Sprintf("inventory must not exceed %d", math.MaxInt32))
		default:
			book.Inventory = uint(*r.Inventory)
		}
	}

	if r.DailyFee != nil {
		book.DailyFee = *r.DailyFee
		if book.DailyFee.IsNegative() || !book.DailyFee.Equal(book.DailyFee.Truncate(feeDecimals)) {
			problems = append(problems, fmt.Sprintf("daily_fee must be a non negative amount with at most %d decimals", feeDecimals))
		}
	}

	if len(problems) > 0 {
		return librarystore.Book{}, invalidInput(errors.New(strings.Join(problems, "; ")))
	}

	return book, nil
}

type borrowingRequest struct {
	Book               int64  `json:"book"`
	ExpectedReturnDate string `json:"expected_return_date"`
}

type renewRequest struct {
	SessionID string `json:"session_id"`
}

// parseTimestamp accepts RFC 3339 timestamps and plain dates, which mean midnight UTC.
func parseTimestamp(field, raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}

	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, invalidInput(fmt.Errorf("%s must be a date (YYYY-MM-DD) or an RFC 3339 timestamp", field))
	}

	return t, nil
}

func parseID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errNotFound
	}

	return id, nil
}

// parsePage reads limit and offset. A missing limit lists everything.
func parsePage(c *gin.Context) (librarystore.Page, error) {
	var page librarystore.Page

	for name, target := range map[string]*uint{"limit": &page.Limit, "offset": &page.Offset} {
		raw, ok := c.GetQuery(name)
		if !ok || raw == "" {
			continue
		}

		value, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return librarystore.Page{}, invalidInput(fmt.Errorf("%s must be a non negative integer", name))
		}

		*target = uint(value)
	}

	if page.Limit > maxPageLimit {
		page.Limit = maxPageLimit
	}

	return page, nil
}

// parseIsActive reads the is_active filter. Anything other than true or false means no filter.
func parseIsActive(c *gin.Context) *bool {
	switch strings.ToLower(c.Query("is_active")) {
	case "true":
		return lo.ToPtr(true)
	case "false":
		return lo.ToPtr(false)
	default:
		return nil
	}
}
