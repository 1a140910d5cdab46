package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"account-service/internal/data/entity"
	"account-service/pkg/token"
	"account-service/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newIssuer(t *testing.T) *token.Issuer {
	t.Helper()
	issuer, err := token.NewIssuer(utils.JWTConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     time.Hour,
		RefreshTTL:    time.Hour,
		RecoveryTTL:   10 * time.Minute,
	})
	require.NoError(t, err)
	return issuer
}

// echoAuthID writes the Auth id the middleware stored in the context.
var echoAuthID = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	authID, _ := utils.GetAuthIDFromContext(r.Context())
	_, _ = w.Write([]byte(authID.String()))
})

func decode(t *testing.T, rec *httptest.ResponseRecorder) utils.Response {
	t.Helper()
	var resp utils.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestAuthenticate(t *testing.T) {
	issuer := newIssuer(t)
	authID := uuid.New()
	access, err := issuer.AccessToken(authID)
	require.NoError(t, err)
	refresh, err := issuer.RefreshToken(authID)
	require.NoError(t, err)

	handler := Authenticate(issuer, zap.NewNop())(echoAuthID)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"refresh token", "Bearer " + refresh.Value, http.StatusUnauthorized},
		{"access token", "Bearer " + access.Value, http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, authID.String(), rec.Body.String())
			} else {
				assert.False(t, decode(t, rec).Success)
			}
		})
	}
}

func TestRecoveryAuthorized(t *testing.T) {
	issuer := newIssuer(t)
	authID := uuid.New()
	access, err := issuer.AccessToken(authID)
	require.NoError(t, err)
	recovery, err := issuer.RecoveryToken(authID)
	require.NoError(t, err)

	handler := RecoveryAuthorized(issuer, zap.NewNop())(echoAuthID)

	req := httptest.NewRequest(http.MethodPut, "/api/auth/reset-password", nil)
	req.Header.Set("Authorization", "Bearer "+access.Value)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPut, "/api/auth/reset-password", nil)
	req.Header.Set("Authorization", "Bearer "+recovery.Value)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, authID.String(), rec.Body.String())
}

// roleRepo answers FindByID from a fixed map; other methods are unused here.
type roleRepo struct {
	auths map[uuid.UUID]*entity.Auth
}

func (r roleRepo) Create(context.Context, *entity.Auth) error { return nil }
func (r roleRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Auth, error) {
	return r.auths[id], nil
}
func (r roleRepo) FindByEmail(context.Context, string) (*entity.Auth, error) { return nil, nil }
func (r roleRepo) FindByGoogleID(context.Context, string) (*entity.Auth, error) { return nil, nil }
func (r roleRepo) Update(context.Context, *entity.Auth) error { return nil }
func (r roleRepo) Delete(context.Context, uuid.UUID) error { return nil }

func TestAdmin(t *testing.T) {
	admin := &entity.Auth{Base: entity.Base{ID: uuid.New()}, Role: entity.RoleAdmin}
	user := &entity.Auth{Base: entity.Base{ID: uuid.New()}, Role: entity.RoleUser}
	repo := roleRepo{auths: map[uuid.UUID]*entity.Auth{admin.ID: admin, user.ID: user}}

	handler := Admin(repo, zap.NewNop())(echoAuthID)

	serve := func(ctx context.Context) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/users/", nil).WithContext(ctx)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusUnauthorized, serve(context.Background()).Code)
	assert.Equal(t, http.StatusForbidden, serve(utils.SetAuthContext(context.Background(), user.ID)).Code)
	assert.Equal(t, http.StatusForbidden, serve(utils.SetAuthContext(context.Background(), uuid.New())).Code)
	assert.Equal(t, http.StatusOK, serve(utils.SetAuthContext(context.Background(), admin.ID)).Code)
}

func TestRecover_WritesEnvelope(t *testing.T) {
	handler := Recover(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	resp := decode(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "Internal server error", resp.Message)
}

func TestCORS_Preflight(t *testing.T) {
	called := false
	handler := CORS()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, called)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestLogger_PassesThrough(t *testing.T) {
	handler := Logger(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "short and stout", rec.Body.String())
}
