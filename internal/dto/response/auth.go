package response

import (
	"time"

	"account-service/internal/data/entity"
)

type AuthResponse struct {
	ID         string      `json:"id"`
	Email      string      `json:"email,omitempty"`
	GoogleID   string      `json:"googleId,omitempty"`
	Role       entity.Role `json:"role"`
	IsVerified bool        `json:"isVerified"`
	IsBlocked  bool        `json:"isBlocked"`
	CreatedAt  time.Time   `json:"createdAt"`
}

type UserResponse struct {
	ID          string    `json:"id"`
	AuthID      string    `json:"authId"`
	Name        string    `json:"name"`
	PhoneNumber *string   `json:"phoneNumber,omitempty"`
	Avatar      *string   `json:"avatar,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionResponse is returned by every flow that signs the caller in.
type SessionResponse struct {
	AccessToken  *TokenResponse `json:"accessToken"`
	RefreshToken *TokenResponse `json:"refreshToken,omitempty"`
	Auth         AuthResponse   `json:"auth"`
	User         *UserResponse  `json:"user,omitempty"`
}

type RegisterResponse struct {
	Auth AuthResponse  `json:"auth"`
	User *UserResponse `json:"user,omitempty"`
	// Resent is set when an unverified registration was retried and only the OTP was reissued.
	Resent bool   `json:"resent"`
	OTP    string `json:"otp,omitempty"`
}

type OTPResponse struct {
	Email     string    `json:"email,omitempty"`
	Method    string    `json:"method,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
	OTP       string    `json:"otp,omitempty"`
	// AlreadyVerified marks an activation resend that was skipped.
	AlreadyVerified bool `json:"-"`
}

type RecoveryResponse struct {
	RecoveryToken TokenResponse `json:"recoveryToken"`
}

type ProfileResponse struct {
	Auth AuthResponse  `json:"auth"`
	User *UserResponse `json:"user"`
}

type AvatarUploadResponse struct {
	UploadURL string            `json:"uploadUrl"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers,omitempty"`
	AvatarURL string            `json:"avatarUrl"`
	ExpiresAt time.Time         `json:"expiresAt"`
}

// Helper converters
func AuthToResponse(auth *entity.Auth) AuthResponse {
	resp := AuthResponse{
		ID:         auth.ID.String(),
		Email:      auth.EmailAddress(),
		Role:       auth.Role,
		IsVerified: auth.IsVerified,
		IsBlocked:  auth.IsBlocked,
		CreatedAt:  auth.CreatedAt,
	}
	if auth.GoogleID != nil {
		resp.GoogleID = *auth.GoogleID
	}
	return resp
}

func UserToResponse(user *entity.User) *UserResponse {
	if user == nil {
		return nil
	}
	return &UserResponse{
		ID:          user.ID.String(),
		AuthID:      user.AuthID.String(),
		Name:        user.Name,
		PhoneNumber: user.PhoneNumber,
		Avatar:      user.Avatar,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}
