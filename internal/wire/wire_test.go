package wire

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"account-service/internal/data/entity"
	"account-service/internal/data/repository/repotest"
	"account-service/pkg/notify"
	"account-service/pkg/token"
	"account-service/pkg/utils"
	"account-service/pkg/webhook"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type discardNotifier struct{}

func (discardNotifier) SendEmailOTP(context.Context, notify.Message) error { return nil }
func (discardNotifier) SendSMSOTP(context.Context, notify.Message) error   { return nil }

type testApp struct {
	router http.Handler
	store  *repotest.MemStore
}

func newTestApp(t *testing.T, webhookCfg utils.WebhookConfig) *testApp {
	t.Helper()

	config := &utils.Config{
		App: utils.AppConfig{Name: "account-service", ExposeOTP: true},
		JWT: utils.JWTConfig{
			AccessSecret:  "access-secret",
			RefreshSecret: "refresh-secret",
			AccessTTL:     96 * time.Hour,
			RefreshTTL:    96 * time.Hour,
			RecoveryTTL:   10 * time.Minute,
		},
		OTP: utils.OTPConfig{
			Length:           6,
			ActivationExpiry: 30 * time.Minute,
			ResendExpiry:     time.Minute,
			RecoveryExpiry:   time.Minute,
		},
		Webhook: webhookCfg,
	}

	issuer, err := token.NewIssuer(config.JWT)
	require.NoError(t, err)

	store := repotest.NewMemStore()
	app := Wiring(Dependencies{
		Repo:     store.Repository(),
		Tokens:   issuer,
		Notifier: discardNotifier{},
		Relay:    webhook.NewRelayFromConfig(config.Webhook, zap.NewNop()),
	}, config, zap.NewNop())

	return &testApp{router: app.Router, store: store}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  json.RawMessage `json:"errors"`
}

func (a *testApp) do(t *testing.T, method, path, bearer string, body any) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func field[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

type sessionData struct {
	AccessToken  *struct{ Token string } `json:"accessToken"`
	RefreshToken *struct{ Token string } `json:"refreshToken"`
}

func (a *testApp) registerAndActivate(t *testing.T, email, password string) string {
	t.Helper()

	code, env := a.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": email, "password": password, "confirmPassword": password, "name": "Ada",
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	otp := field[struct{ OTP string }](t, env).OTP

	code, env = a.do(t, http.MethodPost, "/api/auth/activate", "", map[string]string{"email": email, "otp": otp})
	require.Equal(t, http.StatusOK, code, env.Message)
	return field[sessionData](t, env).AccessToken.Token
}

func TestAuthFlow_EndToEnd(t *testing.T) {
	app := newTestApp(t, utils.WebhookConfig{})

	code, env := app.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "a@x.com", "password": "pw", "confirmPassword": "pw", "name": "Ada",
	})
	require.Equal(t, http.StatusCreated, code)
	assert.True(t, env.Success)
	otp := field[struct{ OTP string }](t, env).OTP
	require.Len(t, otp, 6)

	code, env = app.do(t, http.MethodPost, "/api/auth/activate", "", map[string]string{"email": "a@x.com", "otp": otp})
	require.Equal(t, http.StatusOK, code)
	activated := field[sessionData](t, env)
	require.NotNil(t, activated.AccessToken)
	assert.NotEmpty(t, activated.AccessToken.Token)

	code, env = app.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "a@x.com", "password": "pw"})
	require.Equal(t, http.StatusOK, code)
	session := field[sessionData](t, env)
	assert.NotEmpty(t, session.AccessToken.Token)
	require.NotNil(t, session.RefreshToken)
	assert.NotEmpty(t, session.RefreshToken.Token)

	code, env = app.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "a@x.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, env.Success)
}

func TestRegister_ValidationErrors(t *testing.T) {
	app := newTestApp(t, utils.WebhookConfig{})

	code, env := app.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "not-an-email", "password": "pw", "confirmPassword": "nope", "name": "Ada",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, env.Success)

	var fields map[string]string
	require.NoError(t, json.Unmarshal(env.Errors, &fields))
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "confirmPassword")
}

func TestResendOTP_AlreadyVerified(t *testing.T) {
	app := newTestApp(t, utils.WebhookConfig{})
	app.registerAndActivate(t, "a@x.com", "pw")

	code, env := app.do(t, http.MethodPost, "/api/auth/resend-otp", "", map[string]string{
		"method": "email-activation", "email": "a@x.com",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.True(t, env.Success)
	assert.Equal(t, "null", string(env.Data))
}

func TestRecovery_ResetRequiresRecoveryToken(t *testing.T) {
	app := newTestApp(t, utils.WebhookConfig{})
	access := app.registerAndActivate(t, "a@x.com", "pw")
	reset := map[string]string{"password": "new", "confirmPassword": "new"}

	code, _ := app.do(t, http.MethodPut, "/api/auth/reset-password", "", reset)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = app.do(t, http.MethodPut, "/api/auth/reset-password", access, reset)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env := app.do(t, http.MethodPost, "/api/auth/recovery", "", map[string]string{"email": "a@x.com"})
	require.Equal(t, http.StatusOK, code)
	otp := field[struct{ OTP string }](t, env).OTP

	code, env = app.do(t, http.MethodPost, "/api/auth/recovery-verify", "", map[string]string{"email": "a@x.com", "otp": otp})
	require.Equal(t, http.StatusOK, code)
	recovery := field[struct {
		RecoveryToken struct{ Token string } `json:"recoveryToken"`
	}](t, env).RecoveryToken.Token

	code, _ = app.do(t, http.MethodPut, "/api/auth/reset-password", recovery, map[string]string{"password": "new", "confirmPassword": "other"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = app.do(t, http.MethodPut, "/api/auth/reset-password", recovery, reset)
	require.Equal(t, http.StatusOK, code)

	code, _ = app.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "a@x.com", "password": "new"})
	assert.Equal(t, http.StatusOK, code)
}

func TestProtectedRoutes(t *testing.T) {
	app := newTestApp(t, utils.WebhookConfig{})
	access := app.registerAndActivate(t, "a@x.com", "pw")

	code, _ := app.do(t, http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env := app.do(t, http.MethodGet, "/api/users/me", access, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)

	code, _ = app.do(t, http.MethodGet, "/api/users/", access, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = app.do(t, http.MethodPost, "/api/users/avatar-upload-url", access, map[string]string{"contentType": "image/png"})
	assert.Equal(t, http.StatusInternalServerError, code)

	// Promote to admin and list.
	auth := app.store.AuthByEmail(t, "a@x.com")
	auth.Role = entity.RoleAdmin
	require.NoError(t, app.store.Repository().Auth.Update(context.Background(), auth))

	code, env = app.do(t, http.MethodGet, "/api/users/?page=1&per_page=5", access, nil)
	require.Equal(t, http.StatusOK, code)
	list := field[struct {
		Data       []json.RawMessage
		Pagination struct {
			Total   int64 `json:"total"`
			PerPage int   `json:"per_page"`
		}
	}](t, env)
	assert.Len(t, list.Data, 1)
	assert.Equal(t, int64(1), list.Pagination.Total)
	assert.Equal(t, 5, list.Pagination.PerPage)
}

func TestBlockAndDelete(t *testing.T) {
	app := newTestApp(t, utils.WebhookConfig{})
	access := app.registerAndActivate(t, "a@x.com", "pw")
	authID := app.store.AuthByEmail(t, "a@x.com").ID.String()

	code, _ := app.do(t, http.MethodPost, "/api/users/block/"+authID, "", nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = app.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "a@x.com", "password": "pw"})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = app.do(t, http.MethodPost, "/api/users/unblock/"+authID, "", nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = app.do(t, http.MethodPost, "/api/auth/change-password", access, map[string]string{"oldPassword": "bad", "newPassword": "x"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = app.do(t, http.MethodDelete, "/api/auth/delete", access, nil)
	require.Equal(t, http.StatusOK, code)

	auths, users := app.store.Counts()
	assert.Zero(t, auths)
	assert.Zero(t, users)

	code, _ = app.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "a@x.com", "password": "pw"})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestWebhookRelay(t *testing.T) {
	received := make(chan []byte, 4)
	var upstreamStatus atomic.Int32
	upstreamStatus.Store(http.StatusOK)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received <- body
		w.WriteHeader(int(upstreamStatus.Load()))
	}))
	defer upstream.Close()

	secret := "whsec_test"
	app := newTestApp(t, utils.WebhookConfig{Secret: secret, ForwardURL: upstream.URL, Tolerance: 5 * time.Minute})

	payload := []byte(`{"id":"evt_1",  "type":"charge.succeeded"}`)
	send := func(signature string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/webhook", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(webhook.SignatureHeader, signature)
		rec := httptest.NewRecorder()
		app.router.ServeHTTP(rec, req)
		return rec
	}

	now := time.Now().Unix()

	rec := send(webhook.Header([]byte(secret), now, payload))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, payload, <-received)

	rec = send(webhook.Header([]byte("wrong"), now, payload))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = send(webhook.Header([]byte(secret), now-int64((10*time.Minute).Seconds()), payload))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	upstreamStatus.Store(http.StatusInternalServerError)
	rec = send(webhook.Header([]byte(secret), now, payload))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHealthAndUnknownRoute(t *testing.T) {
	app := newTestApp(t, utils.WebhookConfig{})

	code, env := app.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)

	code, env = app.do(t, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, env.Success)
	assert.Equal(t, "null", string(env.Data))
}
