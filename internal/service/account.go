package service

import (
	"context"
	"errors"
	"fmt"

	"account-manager/internal/card"
	"account-manager/internal/constants"
	"account-manager/internal/domain"
	"account-manager/internal/repository"

	"github.com/rs/zerolog"
)

var ErrUsernameRequired = errors.New("username is required")

type AccountService struct {
	store     repository.Store
	refresher *RefreshService
	renderer  *card.Renderer
	logger    zerolog.Logger
}

func NewAccountService(store repository.Store, refresher *RefreshService, renderer *card.Renderer, logger zerolog.Logger) *AccountService {
	return &AccountService{
		store:     store,
		refresher: refresher,
		renderer:  renderer,
		logger:    logger.With().Str("component", "accounts").Logger(),
	}
}

func (s *AccountService) List(ctx context.Context) ([]domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.StoreTimeout)
	defer cancel()

	accounts, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load accounts")
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	return accounts, nil
}

func (s *AccountService) ListRaw(ctx context.Context) ([]domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.StoreTimeout)
	defer cancel()

	accounts, err := s.store.LoadRaw(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load raw accounts")
		return nil, fmt.Errorf("failed to load raw accounts: %w", err)
	}
	return accounts, nil
}

// Sync refreshes stale accounts and saves the collection when anything changed.
func (s *AccountService) Sync(ctx context.Context) ([]domain.Account, RefreshStats, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	accounts, err := s.List(ctx)
	if err != nil {
		return nil, RefreshStats{}, err
	}

	updated, stats := s.refresher.UpdateAccounts(ctx, accounts)
	if stats.Refreshed == 0 {
		s.logger.Debug().Int("accounts", len(accounts)).Msg("all accounts fresh, nothing to save")
		return updated, stats, nil
	}

	if err := s.save(ctx, updated); err != nil {
		return nil, stats, err
	}
	return updated, stats, nil
}

func (s *AccountService) Save(ctx context.Context, accounts []domain.Account) error {
	ctx, cancel := context.WithTimeout(ctx, constants.StoreTimeout)
	defer cancel()

	for _, acc := range accounts {
		if acc.Username == "" {
			return ErrUsernameRequired
		}
	}
	return s.save(ctx, accounts)
}

func (s *AccountService) save(ctx context.Context, accounts []domain.Account) error {
	if err := s.store.Save(ctx, accounts); err != nil {
		s.logger.Error().Err(err).Int("accounts", len(accounts)).Msg("failed to save accounts")
		return fmt.Errorf("failed to save accounts: %w", err)
	}
	s.logger.Info().Int("accounts", len(accounts)).Msg("accounts saved")
	return nil
}

func (s *AccountService) Update(ctx context.Context, account domain.Account) error {
	if account.Username == "" {
		return ErrUsernameRequired
	}

	ctx, cancel := context.WithTimeout(ctx, constants.StoreTimeout)
	defer cancel()

	if err := s.store.Update(ctx, account); err != nil {
		s.logger.Warn().Err(err).Str("username", account.Username).Msg("failed to update account")
		return fmt.Errorf("failed to update account: %w", err)
	}
	return nil
}

func (s *AccountService) Delete(ctx context.Context, username string) error {
	if username == "" {
		return ErrUsernameRequired
	}

	ctx, cancel := context.WithTimeout(ctx, constants.StoreTimeout)
	defer cancel()

	if err := s.store.Delete(ctx, username); err != nil {
		s.logger.Warn().Err(err).Str("username", username).Msg("failed to delete account")
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}

func (s *AccountService) ForceRefresh(ctx context.Context, username string) (domain.Account, error) {
	if username == "" {
		return domain.Account{}, ErrUsernameRequired
	}

	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	accounts, err := s.List(ctx)
	if err != nil {
		return domain.Account{}, err
	}

	var target *domain.Account
	for i := range accounts {
		if accounts[i].Username == username {
			target = &accounts[i]
			break
		}
	}
	if target == nil {
		return domain.Account{}, fmt.Errorf("refresh %q: %w", username, repository.ErrAccountNotFound)
	}

	updated := s.refresher.ForceUpdateAccount(ctx, *target)
	if err := s.Update(ctx, updated); err != nil {
		return domain.Account{}, err
	}
	return updated, nil
}

func (s *AccountService) ForceRefreshAll(ctx context.Context) ([]domain.Account, RefreshStats, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	accounts, err := s.List(ctx)
	if err != nil {
		return nil, RefreshStats{}, err
	}

	updated, stats := s.refresher.ForceUpdateAllAccounts(ctx, accounts)
	if err := s.save(ctx, updated); err != nil {
		return nil, stats, err
	}
	return updated, stats, nil
}

func (s *AccountService) Cards(ctx context.Context, isLoadingElo bool) ([]card.Card, error) {
	accounts, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.renderer.BuildAll(accounts, isLoadingElo), nil
}
