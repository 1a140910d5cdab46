// Package repotest provides an in-memory Repository for tests above the storage layer.
package repotest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"account-service/internal/data/entity"
	"account-service/internal/data/repository"

	"github.com/google/uuid"
)

// ErrInjected is returned by User creates while FailUserCreate is set.
var ErrInjected = errors.New("injected store failure")

// MemStore is an in-memory stand-in for the auths and users tables.
type MemStore struct {
	mu    sync.Mutex
	auths map[uuid.UUID]entity.Auth
	users map[uuid.UUID]entity.User

	FailUserCreate bool
}

func NewMemStore() *MemStore {
	return &MemStore{
		auths: make(map[uuid.UUID]entity.Auth),
		users: make(map[uuid.UUID]entity.User),
	}
}

func (m *MemStore) Repository() *repository.Repository {
	repo := &repository.Repository{
		Auth: &authRepo{store: m},
		User: &userRepo{store: m},
	}
	repo.Tx = &transactor{store: m, repo: repo}
	return repo
}

// AuthByEmail returns a copy of the stored Auth; changes reach the store only through Update.
func (m *MemStore) AuthByEmail(t *testing.T, email string) *entity.Auth {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.auths {
		if strings.EqualFold(a.EmailAddress(), email) {
			found := a
			return &found
		}
	}
	t.Fatalf("no auth with email %s", email)
	return nil
}

func (m *MemStore) Counts() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.auths), len(m.users)
}

// transactor snapshots the store and restores it when fn fails.
type transactor struct {
	store *MemStore
	repo  *repository.Repository
}

func (tx *transactor) WithTx(_ context.Context, fn func(tx *repository.Repository) error) error {
	tx.store.mu.Lock()
	auths := make(map[uuid.UUID]entity.Auth, len(tx.store.auths))
	for k, v := range tx.store.auths {
		auths[k] = v
	}
	users := make(map[uuid.UUID]entity.User, len(tx.store.users))
	for k, v := range tx.store.users {
		users[k] = v
	}
	tx.store.mu.Unlock()

	if err := fn(tx.repo); err != nil {
		tx.store.mu.Lock()
		tx.store.auths = auths
		tx.store.users = users
		tx.store.mu.Unlock()
		return err
	}
	return nil
}

type authRepo struct {
	store *MemStore
}

func (r *authRepo) Create(_ context.Context, auth *entity.Auth) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, a := range r.store.auths {
		if auth.Email != nil && strings.EqualFold(a.EmailAddress(), *auth.Email) {
			return repository.ErrEmailTaken
		}
		if auth.GoogleID != nil && a.GoogleID != nil && *a.GoogleID == *auth.GoogleID {
			return repository.ErrGoogleIDTaken
		}
	}
	r.store.auths[auth.ID] = *auth
	return nil
}

func (r *authRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Auth, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	a, ok := r.store.auths[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r *authRepo) FindByEmail(_ context.Context, email string) (*entity.Auth, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, a := range r.store.auths {
		if a.Email != nil && strings.EqualFold(*a.Email, email) {
			return &a, nil
		}
	}
	return nil, nil
}

func (r *authRepo) FindByGoogleID(_ context.Context, googleID string) (*entity.Auth, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, a := range r.store.auths {
		if a.GoogleID != nil && *a.GoogleID == googleID {
			return &a, nil
		}
	}
	return nil, nil
}

func (r *authRepo) Update(_ context.Context, auth *entity.Auth) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.auths[auth.ID]; !ok {
		return fmt.Errorf("update auth %s: %w", auth.ID, repository.ErrNotFound)
	}
	r.store.auths[auth.ID] = *auth
	return nil
}

func (r *authRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.auths[id]; !ok {
		return fmt.Errorf("delete auth %s: %w", id, repository.ErrNotFound)
	}
	delete(r.store.auths, id)
	for uid, u := range r.store.users {
		if u.AuthID == id {
			delete(r.store.users, uid)
		}
	}
	return nil
}

type userRepo struct {
	store *MemStore
}

func (r *userRepo) Create(_ context.Context, user *entity.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.FailUserCreate {
		return ErrInjected
	}
	r.store.users[user.ID] = *user
	return nil
}

func (r *userRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *userRepo) FindByAuthID(_ context.Context, authID uuid.UUID) (*entity.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.users {
		if u.AuthID == authID {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *userRepo) FindAll(_ context.Context, limit, offset int) ([]*entity.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	users := make([]entity.User, 0, len(r.store.users))
	for _, u := range r.store.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })

	accounts := make([]*entity.Account, 0, limit)
	for i := offset; i < len(users) && len(accounts) < limit; i++ {
		u := users[i]
		a := r.store.auths[u.AuthID]
		accounts = append(accounts, &entity.Account{Auth: &a, User: &u})
	}
	return accounts, nil
}

func (r *userRepo) CountAll(_ context.Context) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return int64(len(r.store.users)), nil
}

func (r *userRepo) Update(_ context.Context, user *entity.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.users[user.ID]; !ok {
		return fmt.Errorf("update user %s: %w", user.ID, repository.ErrNotFound)
	}
	r.store.users[user.ID] = *user
	return nil
}

func (r *userRepo) DeleteByAuthID(_ context.Context, authID uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for uid, u := range r.store.users {
		if u.AuthID == authID {
			delete(r.store.users, uid)
			return nil
		}
	}
	return fmt.Errorf("delete user of auth %s: %w", authID, repository.ErrNotFound)
}
