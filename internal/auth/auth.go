package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/sadhef/Ri-carts-sub001/internal/domain"
)

const sessionKey = "auth.session"

// Session is the verified identity behind a request.
type Session struct {
	UserID string
	Email  string
	Admin  bool
}

type Claims struct {
	Email string `json:"email,omitempty"`
	Admin bool   `json:"admin,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for s that expires after ttl.
func IssueToken(secret []byte, s Session, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: s.Email,
		Admin: s.Admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func ParseToken(secret []byte, tokenStr string) (Session, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Session{}, err
	}
	if !token.Valid {
		return Session{}, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return Session{}, errors.New("token has no subject")
	}
	return Session{UserID: claims.Subject, Email: claims.Email, Admin: claims.Admin}, nil
}

// Middleware rejects requests without a valid bearer token and stores the
// session for handlers.
func Middleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abort(c, http.StatusUnauthorized, domain.CodeUnauthorized, "missing authorization")
			return
		}
		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abort(c, http.StatusUnauthorized, domain.CodeUnauthorized, "invalid authorization header")
			return
		}

		session, err := ParseToken(secret, parts[1])
		if err != nil {
			abort(c, http.StatusUnauthorized, domain.CodeUnauthorized, "invalid token")
			return
		}

		c.Set(sessionKey, session)
		c.Next()
	}
}

// RequireAdmin must run after Middleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := SessionFrom(c)
		if !ok {
			abort(c, http.StatusUnauthorized, domain.CodeUnauthorized, "authentication required")
			return
		}
		if !s.Admin {
			abort(c, http.StatusForbidden, domain.CodeForbidden, "admin access required")
			return
		}
		c.Next()
	}
}

func SessionFrom(c *gin.Context) (Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return Session{}, false
	}
	s, ok := v.(Session)
	return s, ok
}

func abort(c *gin.Context, status int, code domain.ErrorCode, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg, "code": code})
}
