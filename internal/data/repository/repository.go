package repository

import (
	"context"
	"fmt"

	"account-service/pkg/database"

	"go.uber.org/zap"
)

// Transactor runs fn against repositories bound to a single database transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	WithTx(ctx context.Context, fn func(tx *Repository) error) error
}

type Repository struct {
	Auth AuthRepository
	User UserRepository
	Tx   Transactor
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		Auth: NewAuthRepository(db, log),
		User: NewUserRepository(db, log),
		Tx:   &pgxTransactor{db: db, log: log},
	}
}

type pgxTransactor struct {
	db  database.PgxIface
	log *zap.Logger
}

func (t *pgxTransactor) WithTx(ctx context.Context, fn func(tx *Repository) error) (err error) {
	tx, err := t.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txRepo := &Repository{
		Auth: NewAuthRepository(tx, t.log),
		User: NewUserRepository(tx, t.log),
	}
	txRepo.Tx = nestedTransactor{repo: txRepo}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				t.log.Error("Failed to rollback transaction", zap.Error(rbErr))
			}
			return
		}
		if err = tx.Commit(ctx); err != nil {
			err = fmt.Errorf("commit transaction: %w", err)
		}
	}()

	return fn(txRepo)
}

// nestedTransactor joins the already open transaction.
type nestedTransactor struct {
	repo *Repository
}

func (n nestedTransactor) WithTx(_ context.Context, fn func(tx *Repository) error) error {
	return fn(n.repo)
}
