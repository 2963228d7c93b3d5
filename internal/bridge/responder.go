// Package bridge answers host bridge requests on behalf of a local store.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"account-manager/internal/constants"
	"account-manager/internal/domain"
	"account-manager/internal/repository"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

const QueueGroup = "account-bridge"

// Subscriber is satisfied by *nats.Conn.
type Subscriber interface {
	QueueSubscribe(subj, queue string, cb nats.MsgHandler) (*nats.Subscription, error)
}

type Responder struct {
	store  repository.Store
	logger zerolog.Logger
	subs   []*nats.Subscription
}

func NewResponder(store repository.Store, logger zerolog.Logger) *Responder {
	return &Responder{store: store, logger: logger.With().Str("component", "bridge").Logger()}
}

func (r *Responder) Start(conn Subscriber) error {
	for _, subject := range repository.BridgeSubjects {
		sub, err := conn.QueueSubscribe(subject, QueueGroup, r.onMessage)
		if err != nil {
			r.Stop()
			return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
		}
		r.subs = append(r.subs, sub)
	}
	r.logger.Info().Strs("subjects", repository.BridgeSubjects).Msg("host bridge listening")
	return nil
}

func (r *Responder) Stop() error {
	var errs []error
	for _, sub := range r.subs {
		if err := sub.Unsubscribe(); err != nil {
			errs = append(errs, err)
		}
	}
	r.subs = nil
	return errors.Join(errs...)
}

func (r *Responder) onMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), constants.StoreTimeout)
	defer cancel()

	reply := r.Handle(ctx, msg.Subject, msg.Data)
	data, err := json.Marshal(reply)
	if err != nil {
		r.logger.Error().Err(err).Str("subject", msg.Subject).Msg("failed to encode bridge reply")
		return
	}
	if err := msg.Respond(data); err != nil {
		r.logger.Warn().Err(err).Str("subject", msg.Subject).Msg("failed to send bridge reply")
	}
}

// Handle runs one bridge request against the store.
func (r *Responder) Handle(ctx context.Context, subject string, data []byte) repository.BridgeReply {
	var req repository.BridgeRequest
	if len(data) > 0 {
		if err := json.Unmarshal(data, &req); err != nil {
			return failure(fmt.Errorf("malformed request: %w", err))
		}
	}

	log := r.logger.With().Str("subject", subject).Logger()

	var (
		accounts []domain.Account
		err      error
	)
	switch subject {
	case repository.SubjectLoadAccounts:
		accounts, err = r.store.Load(ctx)
	case repository.SubjectLoadAccountsRaw:
		accounts, err = r.store.LoadRaw(ctx)
	case repository.SubjectSaveAccounts:
		err = r.store.Save(ctx, req.Accounts)
	case repository.SubjectDeleteAccount:
		if req.Username == "" {
			err = errors.New("username is required")
			break
		}
		err = r.store.Delete(ctx, req.Username)
	case repository.SubjectUpdateAccount:
		if req.Account == nil {
			err = errors.New("account is required")
			break
		}
		err = r.store.Update(ctx, *req.Account)
	default:
		err = fmt.Errorf("unknown subject %q", subject)
	}

	if err != nil {
		log.Warn().Err(err).Msg("bridge request failed")
		return failure(err)
	}
	log.Debug().Int("accounts", len(accounts)).Msg("bridge request handled")
	return repository.BridgeReply{Success: true, Accounts: accounts}
}

func failure(err error) repository.BridgeReply {
	return repository.BridgeReply{
		Success:  false,
		Error:    err.Error(),
		NotFound: errors.Is(err, repository.ErrAccountNotFound),
	}
}
