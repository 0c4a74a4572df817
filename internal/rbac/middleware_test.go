package rbac_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/denimstock/denimstock/internal/rbac"
	"github.com/denimstock/denimstock/internal/shared"
)

func requestAs(t *testing.T, role string) *http.Request {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sessions.Load(context.Background(), req)
	require.NoError(t, err)
	if role != "" {
		sess.SetPrincipal(shared.Principal{UserID: 7, Username: "tester", Role: role})
	}
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func serve(mw func(http.Handler) http.Handler, req *http.Request) (*httptest.ResponseRecorder, shared.Principal) {
	var seen shared.Principal
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = shared.PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, seen
}

func TestRequireAnyRejectsAnonymous(t *testing.T) {
	m := rbac.Middleware{Service: rbac.NewService()}
	rec, _ := serve(m.RequireAny(shared.PermInvoicesView), requestAs(t, ""))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAnyStaffCanManageInvoices(t *testing.T) {
	m := rbac.Middleware{Service: rbac.NewService()}
	rec, principal := serve(m.RequireAny(shared.PermInvoicesManage), requestAs(t, shared.RoleStaff))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, int64(7), principal.UserID)
}

func TestRequireAnyStaffCannotManageUsers(t *testing.T) {
	m := rbac.Middleware{Service: rbac.NewService()}
	rec, _ := serve(m.RequireAny(shared.PermUsersManage), requestAs(t, shared.RoleStaff))
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAllBackupIsOwnerOnly(t *testing.T) {
	m := rbac.Middleware{Service: rbac.NewService()}

	rec, _ := serve(m.RequireAll(shared.PermBackupManage, shared.PermUsersManage), requestAs(t, shared.RoleHR))
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = serve(m.RequireAll(shared.PermBackupManage, shared.PermUsersManage), requestAs(t, shared.RoleOwner))
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestServiceRoles(t *testing.T) {
	svc := rbac.NewService()
	require.True(t, svc.IsAdmin(shared.RoleOwner))
	require.True(t, svc.IsAdmin(shared.RoleHR))
	require.False(t, svc.IsAdmin(shared.RoleStaff))
	require.Empty(t, svc.EffectivePermissions("intruder"))
	require.True(t, rbac.ValidRole(shared.RoleHR))
	require.False(t, rbac.ValidRole("admin"))
	require.Len(t, svc.ListGrants(), 3)
}
