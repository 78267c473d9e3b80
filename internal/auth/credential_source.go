package auth

import (
	"net/http"
	"strings"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"

	bearerPrefix = "Bearer "
)

// CredentialSource pulls a raw bearer token out of a request.
type CredentialSource interface {
	Extract(r *http.Request) (string, bool)
}

// HeaderSource reads "Authorization: Bearer <token>".
type HeaderSource struct{}

func (HeaderSource) Extract(r *http.Request) (string, bool) {
	return stripBearer(r.Header.Get("Authorization"), true)
}

// CookieSource reads a cookie whose value may carry a "Bearer " prefix.
type CookieSource struct {
	Name string
}

func (s CookieSource) Extract(r *http.Request) (string, bool) {
	name := s.Name
	if name == "" {
		name = AccessTokenCookie
	}
	c, err := r.Cookie(name)
	if err != nil {
		return "", false
	}
	return stripBearer(c.Value, false)
}

// ChainSource tries each source in order and returns the first token found.
type ChainSource []CredentialSource

func (c ChainSource) Extract(r *http.Request) (string, bool) {
	for _, src := range c {
		if token, ok := src.Extract(r); ok {
			return token, true
		}
	}
	return "", false
}

// DefaultCredentialSource prefers the Authorization header over the cookie.
func DefaultCredentialSource() CredentialSource {
	return ChainSource{HeaderSource{}, CookieSource{Name: AccessTokenCookie}}
}

func stripBearer(value string, requirePrefix bool) (string, bool) {
	value = strings.TrimSpace(value)
	if len(value) >= len(bearerPrefix) && strings.EqualFold(value[:len(bearerPrefix)], bearerPrefix) {
		value = strings.TrimSpace(value[len(bearerPrefix):])
	} else if requirePrefix {
		return "", false
	}
	if value == "" {
		return "", false
	}
	return value, true
}
