package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every verification failure: bad signature,
// malformed token, expired exp, missing subject. Callers get one uniform
// answer so the response cannot leak why a token was rejected.
var ErrInvalidToken = errors.New("invalid token")

// NewToken signs a session token carrying the subject claim and an absolute
// expiry of now + ttl. Only HMAC algorithms are accepted.
func NewToken(subject string, ttl time.Duration, secret []byte, alg string) (string, error) {
	const op = "jwt.NewToken"

	method := jwt.GetSigningMethod(alg)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return "", fmt.Errorf("%s: unsupported signing method %q", op, alg)
	}

	claims := jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(method, claims)

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// ParseToken verifies signature and expiry and returns the subject claim.
// Session tokens are stateless: there is no revocation list, a token stays
// valid until exp regardless of later password changes or deletions.
func ParseToken(tokenStr string, secret []byte) (string, error) {
	claims := jwt.MapClaims{}

	parsedToken, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil || !parsedToken.Valid {
		return "", ErrInvalidToken
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return "", ErrInvalidToken
	}

	return subject, nil
}
