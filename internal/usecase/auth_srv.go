package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"account-service/internal/data/entity"
	"account-service/internal/data/repository"
	"account-service/internal/dto/request"
	"account-service/internal/dto/response"
	"account-service/pkg/notify"
	"account-service/pkg/token"
	"account-service/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthService interface {
	Register(ctx context.Context, req *request.RegisterRequest) (*response.RegisterResponse, error)
	Activate(ctx context.Context, req *request.ActivateRequest) (*response.SessionResponse, error)
	Login(ctx context.Context, req *request.LoginRequest) (*response.SessionResponse, error)
	SignInWithGoogle(ctx context.Context, req *request.GoogleSignInRequest) (*response.SessionResponse, error)
	RequestRecovery(ctx context.Context, req *request.RecoveryRequest) (*response.OTPResponse, error)
	VerifyRecovery(ctx context.Context, req *request.VerifyRecoveryRequest) (*response.RecoveryResponse, error)
	ResetPassword(ctx context.Context, authID uuid.UUID, req *request.ResetPasswordRequest) error
	ResendOTP(ctx context.Context, req *request.ResendOTPRequest) (*response.OTPResponse, error)
	ChangePassword(ctx context.Context, authID uuid.UUID, req *request.ChangePasswordRequest) error
	RemoveAccount(ctx context.Context, authID uuid.UUID) error
}

// TokenIssuer mints the credentials handed out by the auth flows.
type TokenIssuer interface {
	AccessToken(authID uuid.UUID) (token.Token, error)
	RefreshToken(authID uuid.UUID) (token.Token, error)
	RecoveryToken(authID uuid.UUID) (token.Token, error)
}

var errInvalidOTP = utils.ErrUnauthorized("Invalid or expired OTP")

type channel int

const (
	channelEmail channel = iota
	channelSMS
)

type authService struct {
	repo     *repository.Repository
	tokens   TokenIssuer
	notifier notify.Notifier
	config   *utils.Config
	log      *zap.Logger
	now      func() time.Time
}

func NewAuthService(
	repo *repository.Repository,
	tokens TokenIssuer,
	notifier notify.Notifier,
	config *utils.Config,
	log *zap.Logger,
) AuthService {
	return &authService{
		repo:     repo,
		tokens:   tokens,
		notifier: notifier,
		config:   config,
		log:      log.With(zap.String("service", "auth")),
		now:      time.Now,
	}
}

func (s *authService) Register(ctx context.Context, req *request.RegisterRequest) (*response.RegisterResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Register validation failed", zap.Any("errors", errs))
		return nil, utils.ErrValidation(errs)
	}
	email := normalizeEmail(req.Email)

	existing, err := s.repo.Auth.FindByEmail(ctx, email)
	if err != nil {
		return nil, utils.ErrInternal("Failed to check email", err)
	}

	// Retried registration of an unverified email: reissue the code, keep the records.
	if existing != nil {
		if existing.IsVerified {
			return nil, utils.ErrConflict("Email already registered, please login")
		}

		code, expiresAt, err := s.issueOTP(existing, entity.OTPKindVerification, s.config.OTP.ActivationExpiry)
		if err != nil {
			return nil, err
		}
		if err := s.repo.Auth.Update(ctx, existing); err != nil {
			return nil, utils.ErrInternal("Failed to reissue OTP", err)
		}
		if err := s.deliver(ctx, channelEmail, email, notify.PurposeActivation, code, expiresAt); err != nil {
			return nil, err
		}

		user, err := s.repo.User.FindByAuthID(ctx, existing.ID)
		if err != nil {
			return nil, utils.ErrInternal("Failed to load user", err)
		}

		s.log.Info("Verification OTP reissued for pending registration", zap.String("auth_id", existing.ID.String()))
		return &response.RegisterResponse{
			Auth:   response.AuthToResponse(existing),
			User:   response.UserToResponse(user),
			Resent: true,
			OTP:    s.echo(code),
		}, nil
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, utils.ErrInternal("Failed to process password", err)
	}

	now := s.now()
	auth := &entity.Auth{
		Base:         entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Email:        &email,
		PasswordHash: &hash,
		Role:         entity.RoleUser,
	}
	code, expiresAt, err := s.issueOTP(auth, entity.OTPKindVerification, s.config.OTP.ActivationExpiry)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Base:        entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		AuthID:      auth.ID,
		Name:        strings.TrimSpace(req.Name),
		PhoneNumber: req.PhoneNumber,
	}

	err = s.repo.Tx.WithTx(ctx, func(tx *repository.Repository) error {
		if err := tx.Auth.Create(ctx, auth); err != nil {
			return err
		}
		return tx.User.Create(ctx, user)
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, utils.ErrConflict("Email already registered, please login")
		}
		return nil, utils.ErrInternal("Failed to create account", err)
	}

	if err := s.deliver(ctx, channelEmail, email, notify.PurposeActivation, code, expiresAt); err != nil {
		return nil, err
	}

	s.log.Info("Account registered", zap.String("auth_id", auth.ID.String()))
	return &response.RegisterResponse{
		Auth: response.AuthToResponse(auth),
		User: response.UserToResponse(user),
		OTP:  s.echo(code),
	}, nil
}

func (s *authService) Activate(ctx context.Context, req *request.ActivateRequest) (*response.SessionResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Activate validation failed", zap.Any("errors", errs))
		return nil, utils.ErrValidation(errs)
	}

	auth, err := s.findByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}

	if err := s.consumeOTP(auth, entity.OTPKindVerification, req.OTP); err != nil {
		s.log.Warn("Activation OTP rejected", zap.String("auth_id", auth.ID.String()))
		return nil, err
	}
	auth.IsVerified = true
	auth.UpdatedAt = s.now()

	if err := s.repo.Auth.Update(ctx, auth); err != nil {
		return nil, utils.ErrInternal("Failed to activate account", err)
	}

	access, err := s.tokens.AccessToken(auth.ID)
	if err != nil {
		return nil, utils.ErrInternal("Failed to issue token", err)
	}

	user, err := s.repo.User.FindByAuthID(ctx, auth.ID)
	if err != nil {
		return nil, utils.ErrInternal("Failed to load user", err)
	}

	s.log.Info("Account activated", zap.String("auth_id", auth.ID.String()))
	return &response.SessionResponse{
		AccessToken: tokenResponse(access),
		Auth:        response.AuthToResponse(auth),
		User:        response.UserToResponse(user),
	}, nil
}

func (s *authService) Login(ctx context.Context, req *request.LoginRequest) (*response.SessionResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Login validation failed", zap.Any("errors", errs))
		return nil, utils.ErrValidation(errs)
	}

	auth, err := s.findByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}

	// Password first, so the verify and block states are never revealed to a wrong password.
	if !utils.CheckPasswordHash(req.Password, auth.Password()) {
		s.log.Warn("Invalid password", zap.String("auth_id", auth.ID.String()))
		return nil, utils.ErrUnauthorized("Invalid credentials")
	}
	if !auth.IsVerified {
		return nil, utils.ErrUnauthorized("Account is not verified")
	}
	if auth.IsBlocked {
		return nil, utils.ErrForbidden("Account is blocked")
	}

	session, err := s.signIn(ctx, auth)
	if err != nil {
		return nil, err
	}

	s.log.Info("User logged in", zap.String("auth_id", auth.ID.String()))
	return session, nil
}

func (s *authService) SignInWithGoogle(ctx context.Context, req *request.GoogleSignInRequest) (*response.SessionResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Google sign-in validation failed", zap.Any("errors", errs))
		return nil, utils.ErrValidation(errs)
	}

	auth, err := s.repo.Auth.FindByGoogleID(ctx, req.GoogleID)
	if err != nil {
		return nil, utils.ErrInternal("Failed to find account", err)
	}

	if auth == nil {
		auth, err = s.createGoogleAccount(ctx, req)
		if err != nil {
			return nil, err
		}
	} else if auth.IsBlocked {
		s.log.Warn("Blocked account signed in with Google", zap.String("auth_id", auth.ID.String()))
	}

	return s.signIn(ctx, auth)
}

func (s *authService) createGoogleAccount(ctx context.Context, req *request.GoogleSignInRequest) (*entity.Auth, error) {
	var email *string
	if req.Email != "" {
		normalized := normalizeEmail(req.Email)
		taken, err := s.repo.Auth.FindByEmail(ctx, normalized)
		if err != nil {
			return nil, utils.ErrInternal("Failed to check email", err)
		}
		if taken != nil {
			return nil, utils.ErrConflict("Email already belongs to another account")
		}
		email = &normalized
	}

	googleID := req.GoogleID
	now := s.now()
	auth := &entity.Auth{
		Base:       entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Email:      email,
		GoogleID:   &googleID,
		Role:       entity.RoleUser,
		IsVerified: true,
	}
	user := &entity.User{
		Base:   entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		AuthID: auth.ID,
		Name:   strings.TrimSpace(req.Name),
		Avatar: req.Avatar,
	}

	err := s.repo.Tx.WithTx(ctx, func(tx *repository.Repository) error {
		if err := tx.Auth.Create(ctx, auth); err != nil {
			return err
		}
		return tx.User.Create(ctx, user)
	})
	switch {
	case errors.Is(err, repository.ErrEmailTaken):
		return nil, utils.ErrConflict("Email already belongs to another account")
	case errors.Is(err, repository.ErrGoogleIDTaken):
		return nil, utils.ErrConflict("Google account already registered")
	case err != nil:
		return nil, utils.ErrInternal("Failed to create account", err)
	}

	s.log.Info("Account created from Google sign-in", zap.String("auth_id", auth.ID.String()))
	return auth, nil
}

func (s *authService) RequestRecovery(ctx context.Context, req *request.RecoveryRequest) (*response.OTPResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, utils.ErrValidation(errs)
	}

	auth, err := s.findByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}

	code, expiresAt, err := s.issueOTP(auth, entity.OTPKindRecovery, s.config.OTP.RecoveryExpiry)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Auth.Update(ctx, auth); err != nil {
		return nil, utils.ErrInternal("Failed to start recovery", err)
	}
	if err := s.deliver(ctx, channelEmail, auth.EmailAddress(), notify.PurposeRecovery, code, expiresAt); err != nil {
		return nil, err
	}

	s.log.Info("Recovery OTP issued", zap.String("auth_id", auth.ID.String()))
	return &response.OTPResponse{
		Email:     auth.EmailAddress(),
		ExpiresAt: expiresAt,
		OTP:       s.echo(code),
	}, nil
}

func (s *authService) VerifyRecovery(ctx context.Context, req *request.VerifyRecoveryRequest) (*response.RecoveryResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, utils.ErrValidation(errs)
	}

	auth, err := s.findByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}

	if err := s.consumeOTP(auth, entity.OTPKindRecovery, req.OTP); err != nil {
		s.log.Warn("Recovery OTP rejected", zap.String("auth_id", auth.ID.String()))
		return nil, err
	}
	auth.UpdatedAt = s.now()

	if err := s.repo.Auth.Update(ctx, auth); err != nil {
		return nil, utils.ErrInternal("Failed to verify recovery", err)
	}

	recovery, err := s.tokens.RecoveryToken(auth.ID)
	if err != nil {
		return nil, utils.ErrInternal("Failed to issue token", err)
	}

	return &response.RecoveryResponse{RecoveryToken: *tokenResponse(recovery)}, nil
}

func (s *authService) ResetPassword(ctx context.Context, authID uuid.UUID, req *request.ResetPasswordRequest) error {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return utils.ErrValidation(errs)
	}
	if req.Password != req.ConfirmPassword {
		return utils.ErrBadRequest("Passwords do not match")
	}

	auth, err := s.findByID(ctx, authID)
	if err != nil {
		return err
	}

	if err := s.setPassword(ctx, auth, req.Password); err != nil {
		return err
	}

	s.log.Info("Password reset", zap.String("auth_id", auth.ID.String()))
	return nil
}

func (s *authService) ResendOTP(ctx context.Context, req *request.ResendOTPRequest) (*response.OTPResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, utils.ErrValidation(errs)
	}

	auth, err := s.findByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}

	kind := entity.OTPKindVerification
	purpose := notify.PurposeActivation
	via := channelEmail
	to := auth.EmailAddress()

	switch req.Method {
	case request.ResendEmailActivation, request.ResendPhoneActivation:
		if auth.IsVerified {
			return &response.OTPResponse{Method: req.Method, AlreadyVerified: true}, nil
		}
		if req.Method == request.ResendPhoneActivation {
			user, err := s.repo.User.FindByAuthID(ctx, auth.ID)
			if err != nil {
				return nil, utils.ErrInternal("Failed to load user", err)
			}
			if user == nil || user.PhoneNumber == nil || *user.PhoneNumber == "" {
				return nil, utils.ErrBadRequest("No phone number on this account")
			}
			via = channelSMS
			to = *user.PhoneNumber
		}
	case request.ResendEmailRecovery:
		kind = entity.OTPKindRecovery
		purpose = notify.PurposeRecovery
	}

	code, expiresAt, err := s.issueOTP(auth, kind, s.config.OTP.ResendExpiry)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Auth.Update(ctx, auth); err != nil {
		return nil, utils.ErrInternal("Failed to resend OTP", err)
	}
	if err := s.deliver(ctx, via, to, purpose, code, expiresAt); err != nil {
		return nil, err
	}

	s.log.Info("OTP resent", zap.String("auth_id", auth.ID.String()), zap.String("method", req.Method))
	return &response.OTPResponse{
		Email:     auth.EmailAddress(),
		Method:    req.Method,
		ExpiresAt: expiresAt,
		OTP:       s.echo(code),
	}, nil
}

func (s *authService) ChangePassword(ctx context.Context, authID uuid.UUID, req *request.ChangePasswordRequest) error {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return utils.ErrValidation(errs)
	}

	auth, err := s.findByID(ctx, authID)
	if err != nil {
		return err
	}

	if !utils.CheckPasswordHash(req.OldPassword, auth.Password()) {
		s.log.Warn("Change password with wrong old password", zap.String("auth_id", auth.ID.String()))
		return utils.ErrUnauthorized("Old password is incorrect")
	}

	if err := s.setPassword(ctx, auth, req.NewPassword); err != nil {
		return err
	}

	s.log.Info("Password changed", zap.String("auth_id", auth.ID.String()))
	return nil
}

func (s *authService) RemoveAccount(ctx context.Context, authID uuid.UUID) error {
	err := s.repo.Tx.WithTx(ctx, func(tx *repository.Repository) error {
		auth, err := tx.Auth.FindByID(ctx, authID)
		if err != nil {
			return err
		}
		if auth == nil {
			return utils.ErrNotFound("Account not found")
		}

		if err := tx.User.DeleteByAuthID(ctx, authID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return tx.Auth.Delete(ctx, authID)
	})
	if err != nil {
		if utils.KindOf(err) == utils.KindNotFound {
			return err
		}
		return utils.ErrInternal("Failed to remove account", err)
	}

	s.log.Info("Account removed", zap.String("auth_id", authID.String()))
	return nil
}

// ==================== HELPER METHODS ====================

func (s *authService) findByEmail(ctx context.Context, email string) (*entity.Auth, error) {
	auth, err := s.repo.Auth.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, utils.ErrInternal("Failed to find account", err)
	}
	if auth == nil {
		return nil, utils.ErrNotFound("Account not found")
	}
	return auth, nil
}

func (s *authService) findByID(ctx context.Context, authID uuid.UUID) (*entity.Auth, error) {
	auth, err := s.repo.Auth.FindByID(ctx, authID)
	if err != nil {
		return nil, utils.ErrInternal("Failed to find account", err)
	}
	if auth == nil {
		return nil, utils.ErrNotFound("Account not found")
	}
	return auth, nil
}

func (s *authService) setPassword(ctx context.Context, auth *entity.Auth, password string) error {
	hash, err := utils.HashPassword(password)
	if err != nil {
		return utils.ErrInternal("Failed to process password", err)
	}
	auth.PasswordHash = &hash
	auth.UpdatedAt = s.now()

	if err := s.repo.Auth.Update(ctx, auth); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return utils.ErrNotFound("Account not found")
		}
		return utils.ErrInternal("Failed to update password", err)
	}
	return nil
}

// issueOTP replaces the live OTP of kind on auth. The caller persists auth.
func (s *authService) issueOTP(auth *entity.Auth, kind entity.OTPKind, ttl time.Duration) (string, time.Time, error) {
	code, err := utils.GenerateOTP(s.config.OTP.Length)
	if err != nil {
		return "", time.Time{}, utils.ErrInternal("Failed to generate OTP", err)
	}

	now := s.now()
	expiresAt := now.Add(ttl)
	auth.SetOTP(kind, code, expiresAt)
	auth.UpdatedAt = now

	return code, expiresAt, nil
}

// consumeOTP checks code against the live OTP of kind and clears it on match.
func (s *authService) consumeOTP(auth *entity.Auth, kind entity.OTPKind, code string) error {
	stored, expiresAt := auth.OTP(kind)
	if stored == "" || expiresAt == nil {
		return errInvalidOTP
	}
	if !s.now().Before(*expiresAt) {
		return errInvalidOTP
	}
	if !utils.SecureCompare(stored, code) {
		return errInvalidOTP
	}

	auth.ClearOTP(kind)
	return nil
}

func (s *authService) deliver(ctx context.Context, via channel, to string, purpose notify.Purpose, code string, expiresAt time.Time) error {
	msg := notify.Message{To: to, Purpose: purpose, Code: code, ExpiresAt: expiresAt}

	var err error
	if via == channelSMS {
		err = s.notifier.SendSMSOTP(ctx, msg)
	} else {
		err = s.notifier.SendEmailOTP(ctx, msg)
	}
	if err != nil {
		return utils.ErrInternal("Failed to send OTP", err)
	}
	return nil
}

func (s *authService) signIn(ctx context.Context, auth *entity.Auth) (*response.SessionResponse, error) {
	access, err := s.tokens.AccessToken(auth.ID)
	if err != nil {
		return nil, utils.ErrInternal("Failed to issue token", err)
	}
	refresh, err := s.tokens.RefreshToken(auth.ID)
	if err != nil {
		return nil, utils.ErrInternal("Failed to issue token", err)
	}

	user, err := s.repo.User.FindByAuthID(ctx, auth.ID)
	if err != nil {
		return nil, utils.ErrInternal("Failed to load user", err)
	}

	return &response.SessionResponse{
		AccessToken:  tokenResponse(access),
		RefreshToken: tokenResponse(refresh),
		Auth:         response.AuthToResponse(auth),
		User:         response.UserToResponse(user),
	}, nil
}

// echo returns code only when OTPs may be shown to the client.
func (s *authService) echo(code string) string {
	if s.config.App.ExposeOTP {
		return code
	}
	return ""
}

func tokenResponse(t token.Token) *response.TokenResponse {
	return &response.TokenResponse{Token: t.Value, ExpiresAt: t.ExpiresAt}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
