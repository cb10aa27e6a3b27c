package wakapi

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoRoute is returned for client paths the route table does not map.
var ErrNoRoute = errors.New("no route to remote service")

// Route maps a client-visible path (or path prefix) onto the remote
// service. Exact routes match one path; prefix routes keep the remainder.
type Route struct {
	From  string
	To    string
	Exact bool
}

// routeTable is the single mapping between the paths Trinetra's callers
// use and where the remote service actually serves them.
var routeTable = []Route{
	{From: "/login", To: "/login", Exact: true},
	{From: "/signup", To: "/signup", Exact: true},
	{From: "/logout", To: "/logout", Exact: true},
	{From: "/v1/", To: "/api/v1/"},
	{From: "/compat/", To: "/compat/"},
	{From: "/api/", To: "/api/"},
}

// Rewrite translates a client-visible path into the remote path.
func Rewrite(p string) (string, error) {
	if p == "" || p[0] != '/' {
		p = "/" + p
	}
	if strings.Contains(p, "/../") || strings.HasSuffix(p, "/..") {
		return "", fmt.Errorf("%w: %q", ErrNoRoute, p)
	}
	for _, rt := range routeTable {
		if rt.Exact {
			if p == rt.From {
				return rt.To, nil
			}
			continue
		}
		if strings.HasPrefix(p, rt.From) {
			return rt.To + strings.TrimPrefix(p, rt.From), nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrNoRoute, p)
}
