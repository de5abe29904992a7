package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const DefaultTTL = 15 * 24 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

// Claims are the registered claims plus the optional scopes granted to the subject.
type Claims struct {
	Scopes []string `json:"scopes,omitempty"`
	jwt.RegisteredClaims
}

// JWTUtil issues and verifies HS256 tokens whose subject is the customer's username.
type JWTUtil struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func New(secret, issuer string, ttl time.Duration) (*JWTUtil, error) {
	if secret == "" {
		return nil, errors.New("jwt secret cannot be empty")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &JWTUtil{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

func (u *JWTUtil) IssueToken(subject string, scopes ...string) (string, error) {
	now := u.now()
	claims := Claims{
		Scopes: scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    u.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(u.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(u.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Subject verifies the signature and expiry of tokenString and returns its subject.
func (u *JWTUtil) Subject(tokenString string) (string, error) {
	claims, err := u.parse(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (u *JWTUtil) Scopes(tokenString string) ([]string, error) {
	claims, err := u.parse(tokenString)
	if err != nil {
		return nil, err
	}
	return claims.Scopes, nil
}

// IsTokenValid reports whether tokenString belongs to username and has not expired.
func (u *JWTUtil) IsTokenValid(tokenString, username string) bool {
	claims, err := u.parse(tokenString)
	if err != nil {
		return false
	}
	if claims.Subject != username {
		return false
	}
	return claims.ExpiresAt != nil && claims.ExpiresAt.After(u.now())
}

func (u *JWTUtil) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return u.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(u.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
