package request

type RegisterRequest struct {
	Email           string  `json:"email" validate:"required,email"`
	Password        string  `json:"password" validate:"required,bcryptlen"`
	ConfirmPassword string  `json:"confirmPassword" validate:"required,eqfield=Password"`
	Name            string  `json:"name" validate:"required,max=100"`
	PhoneNumber     *string `json:"phoneNumber,omitempty" validate:"omitempty,e164"`
}

type ActivateRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,numeric"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type GoogleSignInRequest struct {
	GoogleID string  `json:"googleId" validate:"required"`
	Name     string  `json:"name" validate:"required,max=100"`
	Email    string  `json:"email" validate:"omitempty,email"`
	Avatar   *string `json:"avatar,omitempty" validate:"omitempty,url"`
}

type RecoveryRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyRecoveryRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,numeric"`
}

type ResetPasswordRequest struct {
	Password        string `json:"password" validate:"required,bcryptlen"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// ResendOTP methods.
const (
	ResendEmailActivation = "email-activation"
	ResendPhoneActivation = "phone-activation"
	ResendEmailRecovery   = "email-recovery"
)

type ResendOTPRequest struct {
	Method string `json:"method" validate:"required,oneof=email-activation phone-activation email-recovery"`
	Email  string `json:"email" validate:"required,email"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,bcryptlen"`
}
