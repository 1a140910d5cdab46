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

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByAuthID(ctx context.Context, authID uuid.UUID) (*entity.User, error)
	FindAll(ctx context.Context, limit, offset int) ([]*entity.Account, error)
	CountAll(ctx context.Context) (int64, error)
	Update(ctx context.Context, user *entity.User) error
	DeleteByAuthID(ctx context.Context, authID uuid.UUID) error
}

type userRepository struct {
	db  database.DBTX
	log *zap.Logger
}

func NewUserRepository(db database.DBTX, log *zap.Logger) UserRepository {
	return &userRepository{
		db:  db,
		log: log.With(zap.String("repository", "user")),
	}
}

// Create inserts a new user record into the database
func (ur *userRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (id, auth_id, name, phone_number, avatar, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := ur.db.Exec(ctx, query,
		user.ID,
		user.AuthID,
		user.Name,
		user.PhoneNumber,
		user.Avatar,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		ur.log.Error("Failed to create user",
			zap.Error(err),
			zap.String("auth_id", user.AuthID.String()),
		)
		return fmt.Errorf("create user for auth %s: %w", user.AuthID.String(), err)
	}

	return nil
}

func (ur *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	query := `
		SELECT id, auth_id, name, phone_number, avatar, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var user entity.User
	err := ur.db.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.AuthID,
		&user.Name,
		&user.PhoneNumber,
		&user.Avatar,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		ur.log.Error("Failed to find user by ID",
			zap.Error(err),
			zap.String("user_id", id.String()),
		)
		return nil, fmt.Errorf("find user by ID %s: %w", id.String(), err)
	}

	return &user, nil
}

func (ur *userRepository) FindByAuthID(ctx context.Context, authID uuid.UUID) (*entity.User, error) {
	query := `
		SELECT id, auth_id, name, phone_number, avatar, created_at, updated_at
		FROM users
		WHERE auth_id = $1
	`

	var user entity.User
	err := ur.db.QueryRow(ctx, query, authID).Scan(
		&user.ID,
		&user.AuthID,
		&user.Name,
		&user.PhoneNumber,
		&user.Avatar,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		ur.log.Error("Failed to find user by auth ID",
			zap.Error(err),
			zap.String("auth_id", authID.String()),
		)
		return nil, fmt.Errorf("find user by auth ID %s: %w", authID.String(), err)
	}

	return &user, nil
}

// FindAll retrieves a page of users joined with their credentials, newest first
func (ur *userRepository) FindAll(ctx context.Context, limit, offset int) ([]*entity.Account, error) {
	query := `
		SELECT u.id, u.auth_id, u.name, u.phone_number, u.avatar, u.created_at, u.updated_at,
		       a.id, a.email, a.google_id, a.role, a.is_verified, a.is_blocked, a.created_at, a.updated_at
		FROM users u
		JOIN auths a ON a.id = u.auth_id
		ORDER BY u.created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := ur.db.Query(ctx, query, limit, offset)
	if err != nil {
		ur.log.Error("Failed to get all users",
			zap.Error(err),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find all users limit %d offset %d: %w", limit, offset, err)
	}
	defer rows.Close()

	var accounts []*entity.Account
	for rows.Next() {
		var user entity.User
		var auth entity.Auth
		err := rows.Scan(
			&user.ID,
			&user.AuthID,
			&user.Name,
			&user.PhoneNumber,
			&user.Avatar,
			&user.CreatedAt,
			&user.UpdatedAt,
			&auth.ID,
			&auth.Email,
			&auth.GoogleID,
			&auth.Role,
			&auth.IsVerified,
			&auth.IsBlocked,
			&auth.CreatedAt,
			&auth.UpdatedAt,
		)
		if err != nil {
			ur.log.Error("Failed to scan user row", zap.Error(err))
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		accounts = append(accounts, &entity.Account{Auth: &auth, User: &user})
	}

	if err := rows.Err(); err != nil {
		ur.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate users rows: %w", err)
	}

	return accounts, nil
}

func (ur *userRepository) CountAll(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM users`

	var count int64
	if err := ur.db.QueryRow(ctx, query).Scan(&count); err != nil {
		ur.log.Error("Database error counting users", zap.Error(err))
		return 0, fmt.Errorf("count all users: %w", err)
	}

	return count, nil
}

func (ur *userRepository) Update(ctx context.Context, user *entity.User) error {
	query := `
		UPDATE users
		SET name = $2, phone_number = $3, avatar = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := ur.db.Exec(ctx, query,
		user.ID,
		user.Name,
		user.PhoneNumber,
		user.Avatar,
		user.UpdatedAt,
	)

	if err != nil {
		ur.log.Error("Failed to update user",
			zap.Error(err),
			zap.String("user_id", user.ID.String()),
		)
		return fmt.Errorf("update user %s: %w", user.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("update user %s: %w", user.ID.String(), ErrNotFound)
	}

	return nil
}

func (ur *userRepository) DeleteByAuthID(ctx context.Context, authID uuid.UUID) error {
	query := `DELETE FROM users WHERE auth_id = $1`

	result, err := ur.db.Exec(ctx, query, authID)
	if err != nil {
		ur.log.Error("Failed to delete user",
			zap.Error(err),
			zap.String("auth_id", authID.String()),
		)
		return fmt.Errorf("delete user of auth %s: %w", authID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete user of auth %s: %w", authID.String(), ErrNotFound)
	}

	return nil
}
