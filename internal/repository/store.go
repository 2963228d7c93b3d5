package repository

import (
	"context"
	"errors"

	"account-manager/internal/domain"
)

var ErrAccountNotFound = errors.New("account not found")

// Store persists the whole account collection. Implementations are chosen
// once at startup.
type Store interface {
	Load(ctx context.Context) ([]domain.Account, error)
	// LoadRaw returns the collection exactly as stored. It only differs from
	// Load when the host applies its own transformation on load.
	LoadRaw(ctx context.Context) ([]domain.Account, error)
	Save(ctx context.Context, accounts []domain.Account) error
	// Delete succeeds when username is not stored.
	Delete(ctx context.Context, username string) error
	// Update fails with ErrAccountNotFound when username is not stored.
	Update(ctx context.Context, account domain.Account) error
}
