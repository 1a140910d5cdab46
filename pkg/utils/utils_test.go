package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOTP(t *testing.T) {
	for _, length := range []int{4, 6, 10} {
		code, err := GenerateOTP(length)
		require.NoError(t, err)
		assert.Len(t, code, length)
		for _, c := range code {
			assert.True(t, c >= '0' && c <= '9', "non-digit in %q", code)
		}
	}

	code, err := GenerateOTP(0)
	require.NoError(t, err)
	assert.Len(t, code, 6)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("secret")
	require.NoError(t, err)
	assert.NotEqual(t, "secret", hash)

	assert.True(t, CheckPasswordHash("secret", hash))
	assert.False(t, CheckPasswordHash("Secret", hash))
	assert.False(t, CheckPasswordHash("", ""))
}

func TestSecureCompare(t *testing.T) {
	assert.True(t, SecureCompare("123456", "123456"))
	assert.False(t, SecureCompare("123456", "123457"))
	assert.False(t, SecureCompare("123456", "12345"))
}

type signup struct {
	Email           string  `json:"email" validate:"required,email"`
	Password        string  `json:"password" validate:"required,bcryptlen"`
	ConfirmPassword string  `json:"confirmPassword" validate:"required,eqfield=Password"`
	PhoneNumber     *string `json:"phoneNumber,omitempty" validate:"omitempty,e164"`
}

func TestValidateStruct_UsesJSONNames(t *testing.T) {
	phone := "0812"
	errs := ValidateStruct(&signup{Email: "nope", Password: "a", ConfirmPassword: "b", PhoneNumber: &phone})

	assert.Equal(t, "Invalid email format", errs["email"])
	assert.Equal(t, "Must match Password", errs["confirmPassword"])
	assert.Equal(t, "Must be a phone number in E.164 format", errs["phoneNumber"])
	assert.NotContains(t, errs, "password")

	assert.Nil(t, ValidateStruct(&signup{Email: "a@x.com", Password: "pw", ConfirmPassword: "pw"}))

	assert.Equal(t, "a: x; b: y", FormatValidationErrors(map[string]string{"b": "y", "a": "x"}))
	assert.Empty(t, FormatValidationErrors(nil))
}

func TestValidateStruct_PasswordByteLimit(t *testing.T) {
	// 40 two-byte runes: under 72 characters, over 72 bytes.
	long := strings.Repeat("é", 40)
	errs := ValidateStruct(&signup{Email: "a@x.com", Password: long, ConfirmPassword: long})
	assert.Equal(t, "Must be at most 72 bytes", errs["password"])

	exact := strings.Repeat("a", MaxPasswordBytes)
	assert.Nil(t, ValidateStruct(&signup{Email: "a@x.com", Password: exact, ConfirmPassword: exact}))

	_, err := HashPassword(exact)
	assert.NoError(t, err)
}

func TestParseInt(t *testing.T) {
	assert.Equal(t, 10, ParseInt("", 10))
	assert.Equal(t, 3, ParseInt("3", 10))
	assert.Equal(t, 10, ParseInt("abc", 10))
	assert.Equal(t, 10, ParseInt("-2", 10))
	assert.Equal(t, 2, CalculateTotalPages(11, 10))
	assert.Equal(t, 0, CalculateTotalPages(0, 10))
	assert.Equal(t, 20, CalculateOffset(3, 10))
}

func validConfig() *Config {
	return &Config{
		Database: DatabaseConfig{Host: "localhost", Name: "accounts", User: "postgres"},
		JWT: JWTConfig{
			AccessSecret:  "a",
			RefreshSecret: "r",
			AccessTTL:     time.Hour,
			RefreshTTL:    time.Hour,
			RecoveryTTL:   time.Minute,
		},
		OTP: OTPConfig{Length: 6},
	}
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	c := validConfig()
	c.JWT.AccessSecret = ""
	c.OTP.Length = 2
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_ACCESS_SECRET")
	assert.Contains(t, err.Error(), "OTP_LENGTH")
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "accounts")
	t.Setenv("DB_USER", "postgres")
	t.Setenv("JWT_ACCESS_SECRET", "a")
	t.Setenv("JWT_REFRESH_SECRET", "r")
	t.Setenv("OTP_RESEND_EXPIRY", "90s")

	config, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", config.App.Port)
	assert.Equal(t, 30*time.Minute, config.OTP.ActivationExpiry)
	assert.Equal(t, 90*time.Second, config.OTP.ResendExpiry)
	assert.Equal(t, 96*time.Hour, config.JWT.AccessTTL)
	assert.False(t, config.App.ExposeOTP)
	assert.False(t, config.Storage.Enabled())
}

func TestResponseError(t *testing.T) {
	rec := httptest.NewRecorder()
	ResponseError(rec, ErrConflict("Email already registered"))
	assert.Equal(t, http.StatusConflict, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "Email already registered", resp.Message)

	rec = httptest.NewRecorder()
	ResponseError(rec, ErrInternal("Failed to save", errors.New("pq: deadlock")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "deadlock")

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Contains(t, raw, "data")
	assert.NotContains(t, raw, "errors")

	assert.Equal(t, KindNotFound, KindOf(ErrNotFound("x")))
	assert.Equal(t, KindInternal, KindOf(errors.New("x")))
}
