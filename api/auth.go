/*
auth.go - Identity middleware

PURPOSE:
  Builds the caller's absence.UserContext from request headers and puts
  it on the request context. This is a stand-in for the real directory
  integration (AD/Azure AD), which lives outside this module: whatever
  fronts this service is expected to authenticate the caller and inject
  these headers.

HEADERS:
  X-User-Id       caller identity (string or numeric)
  X-User-Roles    comma-separated role labels (Employee,Manager,...)
  X-Is-Approver   "true" marks the caller as an approver

  Requests with no X-User-Id still pass through: the nil UserContext
  resolves downstream to a zero-permission strategy, so only read-only
  behavior survives.
*/
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/warp/absence-engine/absence"
)

type contextKey string

const userContextKey contextKey = "absence.user"

// Identity extracts caller claims from headers into the request context.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-User-Id"))
		if id == "" {
			next.ServeHTTP(w, r)
			return
		}

		var roles []string
		for _, role := range strings.Split(r.Header.Get("X-User-Roles"), ",") {
			if role = strings.TrimSpace(role); role != "" {
				roles = append(roles, role)
			}
		}

		user := &absence.UserContext{
			ID:         id,
			Roles:      roles,
			IsApprover: strings.EqualFold(r.Header.Get("X-Is-Approver"), "true"),
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userContextKey, user)))
	})
}

// userFrom returns the caller's claims, or nil for anonymous requests.
func userFrom(ctx context.Context) *absence.UserContext {
	u, _ := ctx.Value(userContextKey).(*absence.UserContext)
	return u
}
