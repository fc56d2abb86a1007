package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrTokensDisabled = errors.New("token signing is not configured")

// Tokens issues and verifies HS256 bearer tokens whose subject is a user id.
// A nil *Tokens is disabled.
type Tokens struct {
	secret []byte
	ttl    time.Duration
}

// NewTokens returns nil when secret is empty.
func NewTokens(secret string, ttl time.Duration) *Tokens {
	if secret == "" {
		return nil
	}
	return &Tokens{secret: []byte(secret), ttl: ttl}
}

func (t *Tokens) Enabled() bool {
	return t != nil
}

func (t *Tokens) Issue(userID primitive.ObjectID) (string, error) {
	if t == nil {
		return "", ErrTokensDisabled
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.Hex(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Parse verifies the signature and expiry and returns the subject user id.
func (t *Tokens) Parse(token string) (primitive.ObjectID, error) {
	if t == nil {
		return primitive.NilObjectID, ErrTokensDisabled
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return primitive.NilObjectID, err
	}
	return primitive.ObjectIDFromHex(claims.Subject)
}
