package helper

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kapitoshk4/library-service-api/library/shared/core"
	"github.com/kapitoshk4/library-service-api/library/shared/shell/checkout"
)

// ErrFakeProviderDown is the cause joined with core.ErrProviderUnavailable by a failing CheckoutProviderFake.
var ErrFakeProviderDown = errors.New("fake checkout provider down")

// CheckoutProviderFake is an in-memory checkout.Provider. Sessions start open and unpaid.
type CheckoutProviderFake struct {
	sessions      map[string]checkout.Session
	createdParams []checkout.CreateSessionParams
	createFails   bool
	getFails      map[string]bool
	nextID        int
	mu            sync.Mutex
}

// NewCheckoutProviderFake creates a CheckoutProviderFake.
func NewCheckoutProviderFake() *CheckoutProviderFake {
	return &CheckoutProviderFake{
		sessions: make(map[string]checkout.Session),
		getFails: make(map[string]bool),
	}
}

func (f *CheckoutProviderFake) CreateSession(
	_ context.Context,
	params checkout.CreateSessionParams,
) (checkout.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createFails {
		return checkout.Session{}, errors.Join(core.ErrProviderUnavailable, ErrFakeProviderDown)
	}

	f.nextID++
	id := fmt.Sprintf("cs_test_%d", f.nextID)

	session := checkout.Session{
		ID:            id,
		URL:           "https://checkout.test/pay/" + id,
		PaymentStatus: checkout.PaymentStatusUnpaid,
		Status:        checkout.SessionStatusOpen,
		ExpiresAt:     params.ExpiresAt,
	}

	f.sessions[id] = session
	f.createdParams = append(f.createdParams, params)

	return session, nil
}

func (f *CheckoutProviderFake) GetSession(_ context.Context, sessionID string) (checkout.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getFails[sessionID] {
		return checkout.Session{}, errors.Join(core.ErrProviderUnavailable, ErrFakeProviderDown)
	}

	session, ok := f.sessions[sessionID]
	if !ok {
		return checkout.Session{}, errors.Join(core.ErrProviderUnavailable, fmt.Errorf("no such session: %s", sessionID))
	}

	return session, nil
}

// FailCreate makes every following CreateSession call fail, or succeed again with false.
func (f *CheckoutProviderFake) FailCreate(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.createFails = fail
}

// FailGet makes GetSession fail for one session.
func (f *CheckoutProviderFake) FailGet(sessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.getFails[sessionID] = true
}

// AddOpenSession registers an open, unpaid session that was created elsewhere.
func (f *CheckoutProviderFake) AddOpenSession(sessionID string) {
	f.update(sessionID, checkout.PaymentStatusUnpaid, checkout.SessionStatusOpen)
}

// MarkPaid makes the provider report the session as paid and complete.
func (f *CheckoutProviderFake) MarkPaid(sessionID string) {
	f.update(sessionID, checkout.PaymentStatusPaid, checkout.SessionStatusComplete)
}

// MarkExpired makes the provider report the session as expired and unpaid.
func (f *CheckoutProviderFake) MarkExpired(sessionID string) {
	f.update(sessionID, checkout.PaymentStatusUnpaid, checkout.SessionStatusExpired)
}

func (f *CheckoutProviderFake) update(sessionID, paymentStatus, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	session := f.sessions[sessionID]
	session.ID = sessionID
	session.PaymentStatus = paymentStatus
	session.Status = status
	f.sessions[sessionID] = session
}

// CreatedParams returns the parameters of every successful CreateSession call.
func (f *CheckoutProviderFake) CreatedParams() []checkout.CreateSessionParams {
	f.mu.Lock()
	defer f.mu.Unlock()

	params := make([]checkout.CreateSessionParams, len(f.createdParams))
	copy(params, f.createdParams)

	return params
}

var _ checkout.Provider = (*CheckoutProviderFake)(nil)
