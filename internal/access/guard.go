// Package access decides whether a principal may run a guarded
// operation.  It holds no state and performs no I/O; the HTTP layer
// turns a Decision into a response.
package access

import (
	"net/http"
	"strings"

	"github.com/iliyamo/event-bookings/internal/model"
)

// Kind classifies an authorization decision.
type Kind int

const (
	Allow Kind = iota
	Unauthenticated
	Unauthorized
)

func (k Kind) String() string {
	switch k {
	case Allow:
		return "allow"
	case Unauthenticated:
		return "unauthenticated"
	case Unauthorized:
		return "unauthorized"
	}
	return "unknown"
}

// Response describes how the boundary must reject a request.
type Response int

const (
	// Proceed means the request was allowed.
	Proceed Response = iota
	// JSONError means a structured error body with Status.
	JSONError
	// RedirectLogin means a redirect to the login entry point.
	RedirectLogin
	// Abort means a fatal request abort with Status.
	Abort
)

// Decision is the result of Authorize.
type Decision struct {
	Kind     Kind
	Response Response
	Status   int
}

// Allowed reports whether the guarded operation may proceed.
func (d Decision) Allowed() bool { return d.Kind == Allow }

// RoleSet is the set of roles permitted for an operation.
type RoleSet map[model.Role]struct{}

// Roles builds a RoleSet.  With no arguments the set is empty and
// rejects every principal.
func Roles(roles ...model.Role) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		s[r] = struct{}{}
	}
	return s
}

// Has reports whether r is in the set.
func (s RoleSet) Has(r model.Role) bool {
	_, ok := s[r]
	return ok
}

// Authorize checks the principal against the allowed roles.  A nil
// principal is always Unauthenticated, whatever the allowed set holds.
func Authorize(p *model.Principal, allowed RoleSet, wantsMachineResponse bool) Decision {
	if p == nil {
		if wantsMachineResponse {
			return Decision{Kind: Unauthenticated, Response: JSONError, Status: http.StatusUnauthorized}
		}
		return Decision{Kind: Unauthenticated, Response: RedirectLogin, Status: http.StatusFound}
	}
	if !allowed.Has(p.Role) {
		if wantsMachineResponse {
			return Decision{Kind: Unauthorized, Response: JSONError, Status: http.StatusForbidden}
		}
		return Decision{Kind: Unauthorized, Response: Abort, Status: http.StatusForbidden}
	}
	return Decision{Kind: Allow, Response: Proceed, Status: http.StatusOK}
}

// WantsJSON is the content negotiation signal for Authorize: the client
// asked for JSON or made an XHR call.
func WantsJSON(r *http.Request) bool {
	if strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest") {
		return true
	}
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mt := strings.ToLower(strings.TrimSpace(strings.SplitN(part, ";", 2)[0]))
		if mt == "application/json" || strings.HasSuffix(mt, "+json") {
			return true
		}
	}
	return false
}
