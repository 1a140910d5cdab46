package adaptor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"account-service/internal/dto/request"
	"account-service/internal/dto/response"
	"account-service/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubAuth returns whatever the test put in it; unset methods fail loudly.
type stubAuth struct {
	register *response.RegisterResponse
	resend   *response.OTPResponse
	err      error
	resetFor uuid.UUID
}

func (s *stubAuth) Register(context.Context, *request.RegisterRequest) (*response.RegisterResponse, error) {
	return s.register, s.err
}
func (s *stubAuth) Activate(context.Context, *request.ActivateRequest) (*response.SessionResponse, error) {
	return nil, errors.New("not stubbed")
}
func (s *stubAuth) Login(context.Context, *request.LoginRequest) (*response.SessionResponse, error) {
	return nil, s.err
}
func (s *stubAuth) SignInWithGoogle(context.Context, *request.GoogleSignInRequest) (*response.SessionResponse, error) {
	return nil, errors.New("not stubbed")
}
func (s *stubAuth) RequestRecovery(context.Context, *request.RecoveryRequest) (*response.OTPResponse, error) {
	return nil, errors.New("not stubbed")
}
func (s *stubAuth) VerifyRecovery(context.Context, *request.VerifyRecoveryRequest) (*response.RecoveryResponse, error) {
	return nil, errors.New("not stubbed")
}
func (s *stubAuth) ResetPassword(_ context.Context, authID uuid.UUID, _ *request.ResetPasswordRequest) error {
	s.resetFor = authID
	return s.err
}
func (s *stubAuth) ResendOTP(context.Context, *request.ResendOTPRequest) (*response.OTPResponse, error) {
	return s.resend, s.err
}
func (s *stubAuth) ChangePassword(context.Context, uuid.UUID, *request.ChangePasswordRequest) error {
	return s.err
}
func (s *stubAuth) RemoveAccount(context.Context, uuid.UUID) error { return s.err }

func post(handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) utils.Response {
	t.Helper()
	var resp utils.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestRegister_StatusDependsOnResent(t *testing.T) {
	stub := &stubAuth{register: &response.RegisterResponse{}}
	h := NewAuthHandler(stub, zap.NewNop())

	rec := post(h.Register, `{}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	stub.register = &response.RegisterResponse{Resent: true}
	rec = post(h.Register, `{}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeEnvelope(t, rec).Success)
}

func TestDecodeJSON_Malformed(t *testing.T) {
	h := NewAuthHandler(&stubAuth{}, zap.NewNop())

	rec := post(h.Login, `{"email":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", decodeEnvelope(t, rec).Message)
}

func TestResendOTP_AlreadyVerifiedIsConflictWithSuccess(t *testing.T) {
	stub := &stubAuth{resend: &response.OTPResponse{AlreadyVerified: true}}
	h := NewAuthHandler(stub, zap.NewNop())

	rec := post(h.ResendOTP, `{}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Data)
}

func TestResetPassword_UsesContextAuthID(t *testing.T) {
	stub := &stubAuth{}
	h := NewAuthHandler(stub, zap.NewNop())

	rec := post(h.ResetPassword, `{}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	authID := uuid.New()
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"password":"a","confirmPassword":"a"}`))
	req = req.WithContext(utils.SetAuthContext(req.Context(), authID))
	rec = httptest.NewRecorder()
	h.ResetPassword(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, authID, stub.resetFor)
}

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", utils.ErrValidation(map[string]string{"email": "Invalid email format"}), http.StatusBadRequest, "Validation failed"},
		{"unauthorized", utils.ErrUnauthorized("Invalid credentials"), http.StatusUnauthorized, "Invalid credentials"},
		{"forbidden", utils.ErrForbidden("Account is blocked"), http.StatusForbidden, "Account is blocked"},
		{"not found", utils.ErrNotFound("Account not found"), http.StatusNotFound, "Account not found"},
		{"conflict", utils.ErrConflict("Email already registered"), http.StatusConflict, "Email already registered"},
		{"internal hides cause", utils.ErrInternal("Failed to hash password", errors.New("bcrypt: boom")), http.StatusInternalServerError, "Internal server error"},
		{"plain error", errors.New("connection reset"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleServiceError(zap.NewNop(), rec, tc.err, "test")

			assert.Equal(t, tc.status, rec.Code)
			resp := decodeEnvelope(t, rec)
			assert.False(t, resp.Success)
			assert.Equal(t, tc.message, resp.Message)
		})
	}

	rec := httptest.NewRecorder()
	handleServiceError(zap.NewNop(), rec, utils.ErrValidation(map[string]string{"email": "Invalid email format"}), "test")
	var body struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Invalid email format", body.Errors["email"])
}
