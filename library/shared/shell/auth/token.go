package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultIssuer = "library-service-api"

var (
	// ErrEmptySecret is returned when a TokenIssuer is created without a signing secret.
	ErrEmptySecret = errors.New("token secret must not be empty")

	// ErrInvalidToken is returned for tokens that are malformed, expired, or signed with another key.
	ErrInvalidToken = errors.New("invalid token")
)

// Principal is the authenticated caller.
type Principal struct {
	UserID int64
	Email  string
	Staff  bool
}

// Claims are the JWT claims of an access token.
type Claims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Staff  bool   `json:"is_staff"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies access tokens with a shared secret.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// TokenOption configures a TokenIssuer.
type TokenOption func(*TokenIssuer)

// WithIssuer sets the iss claim written and required.
func WithIssuer(issuer string) TokenOption {
	return func(t *TokenIssuer) {
		t.issuer = issuer
	}
}

// WithClock replaces time.Now for issuing and verifying tokens.
func WithClock(now func() time.Time) TokenOption {
	return func(t *TokenIssuer) {
		t.now = now
	}
}

// NewTokenIssuer creates a TokenIssuer whose tokens are valid for ttl.
func NewTokenIssuer(secret string, ttl time.Duration, options ...TokenOption) (TokenIssuer, error) {
	if secret == "" {
		return TokenIssuer{}, ErrEmptySecret
	}

	issuer := TokenIssuer{
		secret: []byte(secret),
		issuer: defaultIssuer,
		ttl:    ttl,
		now:    time.Now,
	}

	for _, option := range options {
		option(&issuer)
	}

	return issuer, nil
}

// Issue signs an access token for principal.
func (t TokenIssuer) Issue(principal Principal) (string, error) {
	now := t.now()

	claims := Claims{
		UserID: principal.UserID,
		Email:  principal.Email,
		Staff:  principal.Staff,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   strconv.FormatInt(principal.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Verify parses an access token and returns its principal.
func (t TokenIssuer) Verify(tokenString string) (Principal, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return Principal{}, errors.Join(ErrInvalidToken, err)
	}

	if !token.Valid || claims.UserID <= 0 {
		return Principal{}, ErrInvalidToken
	}

	return Principal{UserID: claims.UserID, Email: claims.Email, Staff: claims.Staff}, nil
}
