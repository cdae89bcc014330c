package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	errMissingSigningSecret = errors.New("signing secret must be provided")
	errMissingUserID        = errors.New("user id claim must be provided")
)

// TokenIssuerConfig configures the JWT issuer.
type TokenIssuerConfig struct {
	SigningSecret []byte
	Issuer        string
	// TokenTTL of zero issues tokens without an expiry.
	TokenTTL time.Duration
	Clock    func() time.Time
}

// Claims are the JWT claims carried by a user token.
type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// TokenIssuer issues and validates user bearer tokens.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	clock  func() time.Time
}

// NewTokenIssuer constructs a TokenIssuer.
func NewTokenIssuer(cfg TokenIssuerConfig) (*TokenIssuer, error) {
	if len(cfg.SigningSecret) == 0 {
		return nil, errMissingSigningSecret
	}
	if cfg.TokenTTL < 0 {
		return nil, fmt.Errorf("token ttl must not be negative, got %s", cfg.TokenTTL)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &TokenIssuer{
		secret: cfg.SigningSecret,
		issuer: strings.TrimSpace(cfg.Issuer),
		ttl:    cfg.TokenTTL,
		clock:  clock,
	}, nil
}

// Issue produces a signed HS256 token for userID.
func (i *TokenIssuer) Issue(userID string) (string, error) {
	if userID == "" {
		return "", errMissingUserID
	}

	now := i.clock().UTC()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    i.issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	if i.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(i.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Validate checks the token's signature, issuer and time claims and returns the user id.
func (i *TokenIssuer) Validate(tokenString string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.clock),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, opts...)
	if err != nil {
		return "", err
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return "", errMissingUserID
	}
	return userID, nil
}
