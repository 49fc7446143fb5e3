package auth

import (
	"net/http"
	"strings"
)

// Source tells where a request credential came from.
type Source int

const (
	SourceNone Source = iota
	SourceHeader
	SourceCookie
)

func (s Source) String() string {
	switch s {
	case SourceHeader:
		return "header"
	case SourceCookie:
		return "cookie"
	default:
		return "none"
	}
}

// ResolveCredential returns the access token a request presents. The
// Authorization bearer header wins over the cookie. SourceNone means the
// request made no attempt to authenticate, which is not an error.
func ResolveCredential(r *http.Request, cookieName string) (string, Source) {
	if token := BearerToken(r.Header.Get("Authorization")); token != "" {
		return token, SourceHeader
	}
	if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
		return cookie.Value, SourceCookie
	}
	return "", SourceNone
}

func BearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
