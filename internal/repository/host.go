package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"account-manager/internal/constants"
	"account-manager/internal/domain"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Subjects answered by the host bridge.
const (
	SubjectSaveAccounts    = "save-accounts"
	SubjectLoadAccounts    = "load-accounts"
	SubjectLoadAccountsRaw = "load-accounts-raw"
	SubjectDeleteAccount   = "delete-account"
	SubjectUpdateAccount   = "update-account"
)

var BridgeSubjects = []string{
	SubjectSaveAccounts,
	SubjectLoadAccounts,
	SubjectLoadAccountsRaw,
	SubjectDeleteAccount,
	SubjectUpdateAccount,
}

type BridgeRequest struct {
	Accounts []domain.Account `json:"accounts,omitempty"`
	Account  *domain.Account  `json:"account,omitempty"`
	Username string           `json:"username,omitempty"`
}

type BridgeReply struct {
	Success  bool             `json:"success"`
	Error    string           `json:"error,omitempty"`
	NotFound bool             `json:"notFound,omitempty"`
	Accounts []domain.Account `json:"accounts,omitempty"`
}

// Requester is satisfied by *nats.Conn.
type Requester interface {
	RequestWithContext(ctx context.Context, subj string, data []byte) (*nats.Msg, error)
}

// HostStore forwards every operation to the host process as a single
// request/reply exchange over NATS.
type HostStore struct {
	conn   Requester
	logger zerolog.Logger
}

func NewHostStore(conn Requester, logger zerolog.Logger) *HostStore {
	return &HostStore{conn: conn, logger: logger.With().Str("component", "host_store").Logger()}
}

func (s *HostStore) Load(ctx context.Context) ([]domain.Account, error) {
	return s.load(ctx, SubjectLoadAccounts)
}

func (s *HostStore) LoadRaw(ctx context.Context) ([]domain.Account, error) {
	return s.load(ctx, SubjectLoadAccountsRaw)
}

func (s *HostStore) load(ctx context.Context, subject string) ([]domain.Account, error) {
	reply, err := s.call(ctx, subject, BridgeRequest{})
	if err != nil {
		return nil, err
	}
	if reply.Accounts == nil {
		return []domain.Account{}, nil
	}
	return reply.Accounts, nil
}

func (s *HostStore) Save(ctx context.Context, accounts []domain.Account) error {
	if accounts == nil {
		accounts = []domain.Account{}
	}
	_, err := s.call(ctx, SubjectSaveAccounts, BridgeRequest{Accounts: accounts})
	return err
}

func (s *HostStore) Delete(ctx context.Context, username string) error {
	_, err := s.call(ctx, SubjectDeleteAccount, BridgeRequest{Username: username})
	return err
}

func (s *HostStore) Update(ctx context.Context, account domain.Account) error {
	_, err := s.call(ctx, SubjectUpdateAccount, BridgeRequest{Account: &account})
	return err
}

func (s *HostStore) call(ctx context.Context, subject string, req BridgeRequest) (*BridgeReply, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, constants.BridgeTimeout)
		defer cancel()
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", subject, err)
	}

	msg, err := s.conn.RequestWithContext(ctx, subject, data)
	if err != nil {
		s.logger.Error().Err(err).Str("subject", subject).Msg("host bridge request failed")
		return nil, fmt.Errorf("host bridge %s: %w", subject, err)
	}

	var reply BridgeReply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return nil, fmt.Errorf("failed to decode %s reply: %w", subject, err)
	}
	if !reply.Success {
		if reply.NotFound {
			return nil, fmt.Errorf("host bridge %s: %w", subject, ErrAccountNotFound)
		}
		msg := reply.Error
		if msg == "" {
			msg = "unknown error"
		}
		return nil, fmt.Errorf("host bridge %s: %w", subject, errors.New(msg))
	}
	return &reply, nil
}
