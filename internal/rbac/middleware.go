package rbac

import (
	"context"
	"net/http"
	"strings"
)

// Checker resolves permissions for a role. A granted permission ending in
// "*" covers every permission with that prefix; "*" alone covers everything.
type Checker struct {
	perms map[string][]string
}

// NewChecker uses RolePermissions when rp is nil.
func NewChecker(rp map[string][]string) *Checker {
	if rp == nil {
		rp = RolePermissions
	}
	return &Checker{perms: rp}
}

func (c *Checker) Has(role, perm string) bool {
	for _, granted := range c.perms[role] {
		if covers(granted, perm) {
			return true
		}
	}
	return false
}

func (c *Checker) Any(role string, perms ...string) bool {
	for _, p := range perms {
		if c.Has(role, p) {
			return true
		}
	}
	return false
}

func covers(granted, perm string) bool {
	if prefix, wild := strings.CutSuffix(granted, "*"); wild {
		return strings.HasPrefix(perm, prefix)
	}
	return granted == perm
}

type roleKey struct{}

// WithRole records the caller's role (from the JWT) on ctx.
func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, roleKey{}, role)
}

func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(roleKey{}).(string)
	return role
}

var defaultChecker = NewChecker(nil)

// Allowed reports whether the role in ctx grants perm.
func Allowed(ctx context.Context, perm string) bool {
	role := RoleFromContext(ctx)
	return role != "" && defaultChecker.Has(role, perm)
}

// Require enforces a single permission.
func Require(perm string) func(http.Handler) http.Handler {
	return RequireAny(perm)
}

// RequireAny enforces that the role has at least one of the permissions.
func RequireAny(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			if role == "" || !defaultChecker.Any(role, perms...) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
