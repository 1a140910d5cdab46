package repository

import (
	"context"
	"errors"
	"fmt"

	"account-service/internal/data/entity"
	"account-service/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrEmailTaken    = errors.New("email already registered")
	ErrGoogleIDTaken = errors.New("google account already linked")
)

type AuthRepository interface {
	Create(ctx context.Context, auth *entity.Auth) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Auth, error)
	FindByEmail(ctx context.Context, email string) (*entity.Auth, error)
	FindByGoogleID(ctx context.Context, googleID string) (*entity.Auth, error)
	Update(ctx context.Context, auth *entity.Auth) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type authRepository struct {
	db  database.DBTX
	log *zap.Logger
}

func NewAuthRepository(db database.DBTX, log *zap.Logger) AuthRepository {
	return &authRepository{
		db:  db,
		log: log.With(zap.String("repository", "auth")),
	}
}

const authColumns = `
	id, email, password_hash, google_id, role, is_verified, is_blocked,
	verification_otp, verification_otp_expires_at,
	recovery_otp, recovery_otp_expires_at, created_at, updated_at`

func scanAuth(row pgx.Row) (*entity.Auth, error) {
	var auth entity.Auth
	err := row.Scan(
		&auth.ID,
		&auth.Email,
		&auth.PasswordHash,
		&auth.GoogleID,
		&auth.Role,
		&auth.IsVerified,
		&auth.IsBlocked,
		&auth.VerificationOTP,
		&auth.VerificationOTPExpiresAt,
		&auth.RecoveryOTP,
		&auth.RecoveryOTPExpiresAt,
		&auth.CreatedAt,
		&auth.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &auth, nil
}

func (r *authRepository) Create(ctx context.Context, auth *entity.Auth) error {
	query := `
		INSERT INTO auths (id, email, password_hash, google_id, role, is_verified, is_blocked,
		                   verification_otp, verification_otp_expires_at,
		                   recovery_otp, recovery_otp_expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.Exec(ctx, query,
		auth.ID,
		auth.Email,
		auth.PasswordHash,
		auth.GoogleID,
		auth.Role,
		auth.IsVerified,
		auth.IsBlocked,
		auth.VerificationOTP,
		auth.VerificationOTPExpiresAt,
		auth.RecoveryOTP,
		auth.RecoveryOTPExpiresAt,
		auth.CreatedAt,
		auth.UpdatedAt,
	)

	if err != nil {
		switch {
		case database.IsUniqueViolation(err, "auths_email_key"):
			return ErrEmailTaken
		case database.IsUniqueViolation(err, "auths_google_id_key"):
			return ErrGoogleIDTaken
		}
		r.log.Error("Failed to create auth",
			zap.Error(err),
			zap.String("auth_id", auth.ID.String()),
		)
		return fmt.Errorf("create auth %s: %w", auth.ID.String(), err)
	}

	return nil
}

func (r *authRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Auth, error) {
	query := `SELECT ` + authColumns + ` FROM auths WHERE id = $1`

	auth, err := scanAuth(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find auth by ID",
			zap.Error(err),
			zap.String("auth_id", id.String()),
		)
		return nil, fmt.Errorf("find auth by ID %s: %w", id.String(), err)
	}

	return auth, nil
}

func (r *authRepository) FindByEmail(ctx context.Context, email string) (*entity.Auth, error) {
	query := `SELECT ` + authColumns + ` FROM auths WHERE LOWER(email) = LOWER($1)`

	auth, err := scanAuth(r.db.QueryRow(ctx, query, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find auth by email",
			zap.Error(err),
			zap.String("email", email),
		)
		return nil, fmt.Errorf("find auth by email %s: %w", email, err)
	}

	return auth, nil
}

func (r *authRepository) FindByGoogleID(ctx context.Context, googleID string) (*entity.Auth, error) {
	query := `SELECT ` + authColumns + ` FROM auths WHERE google_id = $1`

	auth, err := scanAuth(r.db.QueryRow(ctx, query, googleID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find auth by google ID",
			zap.Error(err),
			zap.String("google_id", googleID),
		)
		return nil, fmt.Errorf("find auth by google ID: %w", err)
	}

	return auth, nil
}

func (r *authRepository) Update(ctx context.Context, auth *entity.Auth) error {
	query := `
		UPDATE auths
		SET email = $2, password_hash = $3, google_id = $4, role = $5,
		    is_verified = $6, is_blocked = $7,
		    verification_otp = $8, verification_otp_expires_at = $9,
		    recovery_otp = $10, recovery_otp_expires_at = $11,
		    updated_at = $12
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query,
		auth.ID,
		auth.Email,
		auth.PasswordHash,
		auth.GoogleID,
		auth.Role,
		auth.IsVerified,
		auth.IsBlocked,
		auth.VerificationOTP,
		auth.VerificationOTPExpiresAt,
		auth.RecoveryOTP,
		auth.RecoveryOTPExpiresAt,
		auth.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to update auth",
			zap.Error(err),
			zap.String("auth_id", auth.ID.String()),
		)
		return fmt.Errorf("update auth %s: %w", auth.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("update auth %s: %w", auth.ID.String(), ErrNotFound)
	}

	return nil
}

func (r *authRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM auths WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to delete auth",
			zap.Error(err),
			zap.String("auth_id", id.String()),
		)
		return fmt.Errorf("delete auth %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete auth %s: %w", id.String(), ErrNotFound)
	}

	return nil
}
