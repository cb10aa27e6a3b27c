package wakapi

import (
	"context"
	"net/http"
	"time"
)

type credentialsKey struct{}

// WithCredentials returns a context carrying the browser cookies that are
// forwarded on every outbound request made with it.
func WithCredentials(ctx context.Context, cookies []*http.Cookie) context.Context {
	return context.WithValue(ctx, credentialsKey{}, cookies)
}

// CredentialsFrom returns the cookies stored by WithCredentials.
func CredentialsFrom(ctx context.Context) []*http.Cookie {
	cookies, _ := ctx.Value(credentialsKey{}).([]*http.Cookie)
	return cookies
}

// ForwardCredentials is middleware that captures the inbound request's
// cookies, minus Trinetra's own, so service calls made while handling the
// request carry the remote session.
func (c *Client) ForwardCredentials(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		forwarded := c.filterLocal(r.Cookies())
		next.ServeHTTP(w, r.WithContext(WithCredentials(r.Context(), forwarded)))
	})
}

func (c *Client) filterLocal(cookies []*http.Cookie) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(cookies))
	for _, ck := range cookies {
		if _, local := c.local[ck.Name]; local {
			continue
		}
		out = append(out, ck)
	}
	return out
}

// RelayCookies writes remote Set-Cookie values back to the browser, scoped
// to the whole site on the current host.
func RelayCookies(w http.ResponseWriter, cookies []*http.Cookie, secure bool) {
	for _, ck := range cookies {
		http.SetCookie(w, Rescope(ck, secure))
	}
}

// Rescope returns a copy of a remote cookie re-targeted at Trinetra's host
// and root path, defaulting SameSite to Lax.
func Rescope(ck *http.Cookie, secure bool) *http.Cookie {
	out := *ck
	out.Domain = ""
	out.Path = "/"
	out.Raw = ""
	out.Unparsed = nil
	if secure {
		out.Secure = true
	}
	if out.SameSite == http.SameSiteDefaultMode {
		out.SameSite = http.SameSiteLaxMode
	}
	return &out
}

// ExpireCookie deletes a cookie in the browser.
func ExpireCookie(w http.ResponseWriter, name string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
