package auth

import (
	"math"
	"net/http"
	"time"
)

type CookieOptions struct {
	AccessName  string
	RefreshName string
	Secure      bool
	SameSite    http.SameSite
}

func (o CookieOptions) cookie(name, value string, maxAge int, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: o.SameSite,
	}
}

// SetSessionCookies writes both tokens of a pair as HttpOnly cookies.
func (o CookieOptions) SetSessionCookies(w http.ResponseWriter, pair Pair, now time.Time) {
	o.SetAccessCookie(w, pair.Access, pair.AccessExpiresAt, now)
	http.SetCookie(w, o.cookie(o.RefreshName, pair.Refresh, maxAge(pair.RefreshExpiresAt, now), pair.RefreshExpiresAt))
}

func (o CookieOptions) SetAccessCookie(w http.ResponseWriter, token string, expiresAt, now time.Time) {
	http.SetCookie(w, o.cookie(o.AccessName, token, maxAge(expiresAt, now), expiresAt))
}

// ClearSessionCookies expires both cookies on the client.
func (o CookieOptions) ClearSessionCookies(w http.ResponseWriter) {
	http.SetCookie(w, o.cookie(o.AccessName, "", -1, time.Unix(0, 0)))
	http.SetCookie(w, o.cookie(o.RefreshName, "", -1, time.Unix(0, 0)))
}

// maxAge rounds up so a cookie set just after signing keeps the full TTL.
func maxAge(expiresAt, now time.Time) int {
	seconds := int(math.Ceil(expiresAt.Sub(now).Seconds()))
	if seconds < 1 {
		return -1
	}
	return seconds
}
