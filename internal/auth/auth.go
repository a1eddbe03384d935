// Package auth extracts the caller's identity from bearer tokens issued by
// the identity provider.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/tender-discovery-api/internal/config"
)

// DevHeader carries the caller's email when development identities are on
const DevHeader = "X-User-Email"

const identityKey = "identity"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrNoEmail      = errors.New("token has no email claim")
)

// Claims are the token claims the service reads
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Identity is an authenticated caller
type Identity struct {
	Email       string
	AccessToken string
}

// Verifier validates HS256 bearer tokens
type Verifier struct {
	secret    []byte
	devHeader bool
}

// NewVerifier creates a verifier from configuration
func NewVerifier(cfg *config.AuthConfig) *Verifier {
	return &Verifier{secret: []byte(cfg.JWTSecret), devHeader: cfg.DevHeader}
}

// Sign issues a token for email valid for ttl
func (v *Verifier) Sign(email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Parse validates tokenStr and returns its claims
func (v *Verifier) Parse(tokenStr string) (*Claims, error) {
	if len(v.secret) == 0 {
		return nil, fmt.Errorf("%w: no signing secret configured", ErrInvalidToken)
	}
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(c.Email) == "" {
		return nil, ErrNoEmail
	}
	return c, nil
}

// Middleware attaches the caller's identity when one is presented. A
// malformed or expired token is rejected; no token is anonymous.
func Middleware(v *Verifier, log zerolog.Logger) gin.HandlerFunc {
	log = log.With().Str("component", "auth").Logger()
	return func(c *gin.Context) {
		if token, ok := bearer(c.GetHeader("Authorization")); ok {
			claims, err := v.Parse(token)
			if err != nil {
				log.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("Rejected bearer token")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid bearer token"})
				return
			}
			c.Set(identityKey, Identity{Email: claims.Email, AccessToken: token})
		} else if v.devHeader {
			if email := strings.TrimSpace(c.GetHeader(DevHeader)); email != "" {
				c.Set(identityKey, Identity{Email: email})
			}
		}
		c.Next()
	}
}

// RequireIdentity rejects anonymous callers with 401
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := FromContext(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}
		c.Next()
	}
}

// FromContext returns the identity attached by Middleware
func FromContext(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

func bearer(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
