package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a continuity token cannot be decoded.
var ErrInvalidToken = errors.New("invalid continuity token")

const continuityIssuer = "espachat"

// ContinuityCodec signs and verifies continuity tokens. A token only names
// the connection whose identity the client wants back; it is a lookup key,
// never a credential.
type ContinuityCodec struct {
	secret []byte
	ttl    time.Duration
}

// NewContinuityCodec builds a codec. An empty secret is replaced by random
// bytes, which invalidates outstanding tokens on restart.
func NewContinuityCodec(secret string, ttl time.Duration) (*ContinuityCodec, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate token secret: %w", err)
		}
	}
	return &ContinuityCodec{secret: key, ttl: ttl}, nil
}

// Issue returns a signed token naming connID.
func (c *ContinuityCodec) Issue(connID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:  connID,
		Issuer:   continuityIssuer,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if c.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(c.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse validates a token and returns the connection id it names.
func (c *ContinuityCodec) Parse(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithIssuer(continuityIssuer))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}
