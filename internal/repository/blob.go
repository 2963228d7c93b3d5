package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"account-manager/internal/constants"
	"account-manager/internal/domain"

	"github.com/rs/zerolog"
)

var ErrKeyNotFound = errors.New("key not found")

// KV is a minimal byte store. Get returns ErrKeyNotFound for missing keys.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// BlobStore keeps the collection as one JSON array under a single key.
// Read-modify-write sequences are serialized per store.
type BlobStore struct {
	kv     KV
	key    string
	mu     sync.Mutex
	logger zerolog.Logger
}

func NewBlobStore(kv KV, logger zerolog.Logger) *BlobStore {
	return &BlobStore{
		kv:     kv,
		key:    constants.AccountsKey,
		logger: logger.With().Str("component", "blob_store").Logger(),
	}
}

func (s *BlobStore) Load(ctx context.Context) ([]domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(ctx)
}

func (s *BlobStore) LoadRaw(ctx context.Context) ([]domain.Account, error) {
	return s.Load(ctx)
}

func (s *BlobStore) Save(ctx context.Context, accounts []domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(ctx, accounts)
}

func (s *BlobStore) Delete(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.read(ctx)
	if err != nil {
		return err
	}

	kept := accounts[:0]
	for _, acc := range accounts {
		if acc.Username != username {
			kept = append(kept, acc)
		}
	}
	if len(kept) == len(accounts) {
		s.logger.Debug().Str("username", username).Msg("delete of unknown account ignored")
		return nil
	}

	if err := s.write(ctx, kept); err != nil {
		return err
	}
	s.logger.Info().Str("username", username).Msg("account deleted")
	return nil
}

func (s *BlobStore) Update(ctx context.Context, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.read(ctx)
	if err != nil {
		return err
	}

	idx := -1
	for i := range accounts {
		if accounts[i].Username == account.Username {
			idx = i
			break
		}
	}
	if idx == -1 {
		return fmt.Errorf("update %q: %w", account.Username, ErrAccountNotFound)
	}

	accounts[idx] = account
	if err := s.write(ctx, accounts); err != nil {
		return err
	}
	s.logger.Info().Str("username", account.Username).Msg("account updated")
	return nil
}

func (s *BlobStore) read(ctx context.Context) ([]domain.Account, error) {
	data, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, ErrKeyNotFound) {
		return []domain.Account{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read accounts: %w", err)
	}

	var accounts []domain.Account
	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, fmt.Errorf("failed to decode accounts: %w", err)
	}
	if accounts == nil {
		accounts = []domain.Account{}
	}
	return accounts, nil
}

func (s *BlobStore) write(ctx context.Context, accounts []domain.Account) error {
	if accounts == nil {
		accounts = []domain.Account{}
	}
	data, err := json.Marshal(accounts)
	if err != nil {
		return fmt.Errorf("failed to encode accounts: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("failed to write accounts: %w", err)
	}
	return nil
}
