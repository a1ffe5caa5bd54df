package rbac

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/strataboard/strataboard/internal/shared"
)

// DecisionChecker is the slice of Checker the middleware needs.
type DecisionChecker interface {
	CheckAnyPermission(ctx context.Context, userID int64, permissions []string, scope Scope) (Decision, error)
	CheckAllPermissions(ctx context.Context, userID int64, permissions []string, scope Scope) (Decision, error)
}

// DecisionRecorder receives the outcome of each middleware check, typically
// backed by a metrics counter.
type DecisionRecorder interface {
	RecordAuthzDecision(permission string, allowed bool)
}

// Middleware wires RBAC authorization helpers for HTTP handlers. The tenant
// scope is read from the company_id / project_id query parameters so a check
// made for project A can never be satisfied by an assignment pinned to
// project B.
type Middleware struct {
	Checker  DecisionChecker
	Logger   *slog.Logger
	Recorder DecisionRecorder
}

// RequireAny ensures the current user has at least one of the required
// permissions under the request's scope.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	normalized := normalizePermissions(perms)
	return m.require(normalized, func(ctx context.Context, userID int64, scope Scope) (Decision, error) {
		return m.Checker.CheckAnyPermission(ctx, userID, normalized, scope)
	})
}

// RequireAll ensures the current user has all required permissions under the
// request's scope.
func (m Middleware) RequireAll(perms ...string) func(http.Handler) http.Handler {
	normalized := normalizePermissions(perms)
	return m.require(normalized, func(ctx context.Context, userID int64, scope Scope) (Decision, error) {
		return m.Checker.CheckAllPermissions(ctx, userID, normalized, scope)
	})
}

func (m Middleware) require(perms []string, check func(context.Context, int64, Scope) (Decision, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(perms) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			userID, ok := m.currentUserID(r)
			if !ok {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			scope, err := ScopeFromRequest(r)
			if err != nil {
				http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
				return
			}
			decision, err := check(r.Context(), userID, scope)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("rbac check", slog.Any("error", err))
				}
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			m.record(perms, decision.Allowed)
			if decision.Allowed {
				next.ServeHTTP(w, r)
				return
			}
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

func (m Middleware) record(perms []string, allowed bool) {
	if m.Recorder == nil {
		return
	}
	for _, p := range perms {
		m.Recorder.RecordAuthzDecision(p, allowed)
	}
}

func (m Middleware) currentUserID(r *http.Request) (int64, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0, false
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("rbac parse user id", slog.String("value", raw))
		}
		return 0, false
	}
	return id, true
}

// ActorID extracts the authenticated user id from the request session.
func ActorID(r *http.Request) (int64, bool) {
	return Middleware{}.currentUserID(r)
}

// ScopeFromRequest parses the optional company_id / project_id query
// parameters into a Scope.
func ScopeFromRequest(r *http.Request) (Scope, error) {
	var scope Scope
	if raw := strings.TrimSpace(r.URL.Query().Get("company_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return Scope{}, err
		}
		scope.CompanyID = &id
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("project_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return Scope{}, err
		}
		scope.ProjectID = &id
	}
	return scope, nil
}

func normalizePermissions(perms []string) []string {
	unique := make(map[string]struct{}, len(perms))
	normalized := make([]string, 0, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(strings.ToLower(p))
		if p == "" {
			continue
		}
		if _, ok := unique[p]; ok {
			continue
		}
		unique[p] = struct{}{}
		normalized = append(normalized, p)
	}
	return normalized
}
