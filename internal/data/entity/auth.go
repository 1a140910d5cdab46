package entity

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// OTPKind names the purpose an OTP was issued for.
type OTPKind string

const (
	OTPKindVerification OTPKind = "verification"
	OTPKindRecovery     OTPKind = "recovery"
)

// Auth holds credentials and lifecycle flags for one identity.
type Auth struct {
	Base
	Email                    *string    `db:"email"`
	PasswordHash             *string    `db:"password_hash"`
	GoogleID                 *string    `db:"google_id"`
	Role                     Role       `db:"role"`
	IsVerified               bool       `db:"is_verified"`
	IsBlocked                bool       `db:"is_blocked"`
	VerificationOTP          string     `db:"verification_otp"`
	VerificationOTPExpiresAt *time.Time `db:"verification_otp_expires_at"`
	RecoveryOTP              string     `db:"recovery_otp"`
	RecoveryOTPExpiresAt     *time.Time `db:"recovery_otp_expires_at"`
}

// EmailAddress returns the email or "" for federated-only identities.
func (a *Auth) EmailAddress() string {
	if a.Email == nil {
		return ""
	}
	return *a.Email
}

// Password returns the stored hash or "" when the identity has no password.
func (a *Auth) Password() string {
	if a.PasswordHash == nil {
		return ""
	}
	return *a.PasswordHash
}

// SetOTP replaces the live OTP of kind.
func (a *Auth) SetOTP(kind OTPKind, code string, expiresAt time.Time) {
	switch kind {
	case OTPKindVerification:
		a.VerificationOTP = code
		a.VerificationOTPExpiresAt = &expiresAt
	case OTPKindRecovery:
		a.RecoveryOTP = code
		a.RecoveryOTPExpiresAt = &expiresAt
	}
}

// OTP returns the live code and expiry of kind.
func (a *Auth) OTP(kind OTPKind) (string, *time.Time) {
	if kind == OTPKindRecovery {
		return a.RecoveryOTP, a.RecoveryOTPExpiresAt
	}
	return a.VerificationOTP, a.VerificationOTPExpiresAt
}

// ClearOTP consumes the OTP of kind.
func (a *Auth) ClearOTP(kind OTPKind) {
	switch kind {
	case OTPKindVerification:
		a.VerificationOTP = ""
		a.VerificationOTPExpiresAt = nil
	case OTPKindRecovery:
		a.RecoveryOTP = ""
		a.RecoveryOTPExpiresAt = nil
	}
}
