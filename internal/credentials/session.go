package credentials

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

var (
	// ErrPartialSession is returned when a session carries only one of its two tokens.
	ErrPartialSession = errors.New("session must carry both access and refresh token or neither")

	// ErrNoSession is returned by Token when no one is logged in.
	ErrNoSession = errors.New("no active session")
)

// Principal is the authenticated user as reported by the backend.
// It is display-only; the backend makes every authorization decision.
type Principal struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
}

// Session is the unit of authentication state.
type Session struct {
	AccessToken  string
	RefreshToken string
	Principal    *Principal
}

// IsZero reports whether the session holds no tokens.
func (s Session) IsZero() bool {
	return s.AccessToken == "" && s.RefreshToken == ""
}

// Validate enforces that both tokens are present or both are absent.
func (s Session) Validate() error {
	if (s.AccessToken == "") != (s.RefreshToken == "") {
		return ErrPartialSession
	}
	return nil
}

// OAuth2Token returns the session tokens as a bearer oauth2.Token.
func (s Session) OAuth2Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: s.RefreshToken,
	}
}

func (s Session) clone() Session {
	if s.Principal != nil {
		p := *s.Principal
		s.Principal = &p
	}
	return s
}

// TokenExpiry extracts the exp claim from a JWT without verifying its signature.
// Returns false for opaque tokens or tokens without an expiry.
func TokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
