package rbac

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/strataboard/strataboard/internal/shared"
)

type stubChecker struct {
	decision  Decision
	lastScope Scope
	lastPerms []string
}

func (s *stubChecker) CheckAnyPermission(ctx context.Context, userID int64, permissions []string, scope Scope) (Decision, error) {
	s.lastScope = scope
	s.lastPerms = permissions
	return s.decision, nil
}

func (s *stubChecker) CheckAllPermissions(ctx context.Context, userID int64, permissions []string, scope Scope) (Decision, error) {
	s.lastScope = scope
	s.lastPerms = permissions
	return s.decision, nil
}

type recordingRecorder struct {
	decisions map[string]bool
}

func (r *recordingRecorder) RecordAuthzDecision(permission string, allowed bool) {
	if r.decisions == nil {
		r.decisions = make(map[string]bool)
	}
	r.decisions[permission] = allowed
}

func requestWithUser(target, userID string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, target, nil)
	sess := &shared.Session{}
	sess.SetUser(userID)
	return r.WithContext(shared.ContextWithSession(r.Context(), sess))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAnyAllows(t *testing.T) {
	checker := &stubChecker{decision: Allow()}
	recorder := &recordingRecorder{}
	mw := Middleware{Checker: checker, Recorder: recorder}

	rec := httptest.NewRecorder()
	mw.RequireAny("users.view")(okHandler()).ServeHTTP(rec, requestWithUser("/users", "42"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if allowed, ok := recorder.decisions["users.view"]; !ok || !allowed {
		t.Fatalf("recorder decisions = %v", recorder.decisions)
	}
}

func TestRequireAnyDeniesWithoutSession(t *testing.T) {
	mw := Middleware{Checker: &stubChecker{decision: Allow()}}

	rec := httptest.NewRecorder()
	mw.RequireAny("users.view")(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestRequireAllDenied(t *testing.T) {
	mw := Middleware{Checker: &stubChecker{decision: Deny("missing permissions: users.edit")}}

	rec := httptest.NewRecorder()
	mw.RequireAll("users.view", "users.edit")(okHandler()).ServeHTTP(rec, requestWithUser("/users", "42"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestRequirePassesRequestScope(t *testing.T) {
	checker := &stubChecker{decision: Allow()}
	mw := Middleware{Checker: checker}

	target := "/billing?project_id=6ba7b810-9dad-11d1-80b4-00c04fd430c8"
	rec := httptest.NewRecorder()
	mw.RequireAny("Billing.View", "billing.view")(okHandler()).ServeHTTP(rec, requestWithUser(target, "42"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if checker.lastScope.ProjectID == nil || checker.lastScope.ProjectID.String() != "6ba7b810-9dad-11d1-80b4-00c04fd430c8" {
		t.Fatalf("scope not propagated: %+v", checker.lastScope)
	}
	if len(checker.lastPerms) != 1 || checker.lastPerms[0] != "billing.view" {
		t.Fatalf("permissions not normalized: %v", checker.lastPerms)
	}
}

func TestRequireRejectsMalformedScope(t *testing.T) {
	mw := Middleware{Checker: &stubChecker{decision: Allow()}}

	rec := httptest.NewRecorder()
	mw.RequireAny("billing.view")(okHandler()).ServeHTTP(rec, requestWithUser("/billing?project_id=not-a-uuid", "42"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
