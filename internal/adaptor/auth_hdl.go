package adaptor

import (
	"net/http"

	"account-service/internal/dto/request"
	"account-service/internal/usecase"
	"account-service/pkg/utils"

	"go.uber.org/zap"
)

type AuthHandler struct {
	service usecase.AuthService
	log     *zap.Logger
}

func NewAuthHandler(service usecase.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		log:     log.With(zap.String("handler", "auth")),
	}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	response, err := h.service.Register(r.Context(), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "register")
		return
	}

	if response.Resent {
		utils.ResponseSuccess(w, "Account pending verification. A new OTP has been sent.", response)
		return
	}
	utils.ResponseCreated(w, "Registration successful. Check your email for the OTP.", response)
}

// Activate handles POST /api/auth/activate
func (h *AuthHandler) Activate(w http.ResponseWriter, r *http.Request) {
	var req request.ActivateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	response, err := h.service.Activate(r.Context(), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "activate")
		return
	}

	utils.ResponseSuccess(w, "Account activated", response)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	response, err := h.service.Login(r.Context(), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "login")
		return
	}

	utils.ResponseSuccess(w, "Login successful", response)
}

// SignInWithGoogle handles POST /api/auth/signin-with-google
func (h *AuthHandler) SignInWithGoogle(w http.ResponseWriter, r *http.Request) {
	var req request.GoogleSignInRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	response, err := h.service.SignInWithGoogle(r.Context(), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "sign in with google")
		return
	}

	utils.ResponseSuccess(w, "Login successful", response)
}

// RequestRecovery handles POST /api/auth/recovery
func (h *AuthHandler) RequestRecovery(w http.ResponseWriter, r *http.Request) {
	var req request.RecoveryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	response, err := h.service.RequestRecovery(r.Context(), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "request recovery")
		return
	}

	utils.ResponseSuccess(w, "Recovery OTP sent", response)
}

// VerifyRecovery handles POST /api/auth/recovery-verify
func (h *AuthHandler) VerifyRecovery(w http.ResponseWriter, r *http.Request) {
	var req request.VerifyRecoveryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	response, err := h.service.VerifyRecovery(r.Context(), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "verify recovery")
		return
	}

	utils.ResponseSuccess(w, "OTP verified. Use the recovery token to reset your password.", response)
}

// ResetPassword handles PUT /api/auth/reset-password (recovery token)
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	authID, ok := utils.GetAuthIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Recovery authorization required")
		return
	}

	var req request.ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.ResetPassword(r.Context(), authID, &req); err != nil {
		handleServiceError(h.log, w, err, "reset password")
		return
	}

	utils.ResponseSuccess(w, "Password has been reset", nil)
}

// ResendOTP handles POST /api/auth/resend-otp
func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req request.ResendOTPRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	response, err := h.service.ResendOTP(r.Context(), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "resend OTP")
		return
	}

	// Not an error: the account is already where the caller wants it.
	if response.AlreadyVerified {
		utils.ResponseJSON(w, http.StatusConflict, true, "Account already verified", nil, nil)
		return
	}

	utils.ResponseSuccess(w, "OTP sent", response)
}

// ChangePassword handles POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	authID, ok := utils.GetAuthIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.ChangePassword(r.Context(), authID, &req); err != nil {
		handleServiceError(h.log, w, err, "change password")
		return
	}

	utils.ResponseSuccess(w, "Password changed", nil)
}

// RemoveAccount handles DELETE /api/auth/delete
func (h *AuthHandler) RemoveAccount(w http.ResponseWriter, r *http.Request) {
	authID, ok := utils.GetAuthIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	if err := h.service.RemoveAccount(r.Context(), authID); err != nil {
		handleServiceError(h.log, w, err, "remove account")
		return
	}

	utils.ResponseSuccess(w, "Account deleted", nil)
}
