package server

import (
	"context"
	"errors"
	"net/http"

	"account-manager/internal/middleware"
	"account-manager/internal/repository"
	"account-manager/internal/service"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
)

const ServicePath = "/accounts.v1.AccountService/"

const (
	ProcedureListAccounts       = ServicePath + "ListAccounts"
	ProcedureSyncAccounts       = ServicePath + "SyncAccounts"
	ProcedureSaveAccounts       = ServicePath + "SaveAccounts"
	ProcedureUpdateAccount      = ServicePath + "UpdateAccount"
	ProcedureDeleteAccount      = ServicePath + "DeleteAccount"
	ProcedureRefreshAccount     = ServicePath + "RefreshAccount"
	ProcedureRefreshAllAccounts = ServicePath + "RefreshAllAccounts"
	ProcedureListCards          = ServicePath + "ListCards"
)

type AccountServer struct {
	accounts *service.AccountService
	logger   zerolog.Logger
}

func NewAccountServer(accounts *service.AccountService, logger zerolog.Logger) *AccountServer {
	return &AccountServer{accounts: accounts, logger: logger}
}

// Handler returns the service path and a handler serving every procedure.
func (s *AccountServer) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(ProcedureListAccounts, connect.NewUnaryHandler(ProcedureListAccounts, s.ListAccounts, opts...))
	mux.Handle(ProcedureSyncAccounts, connect.NewUnaryHandler(ProcedureSyncAccounts, s.SyncAccounts, opts...))
	mux.Handle(ProcedureSaveAccounts, connect.NewUnaryHandler(ProcedureSaveAccounts, s.SaveAccounts, opts...))
	mux.Handle(ProcedureUpdateAccount, connect.NewUnaryHandler(ProcedureUpdateAccount, s.UpdateAccount, opts...))
	mux.Handle(ProcedureDeleteAccount, connect.NewUnaryHandler(ProcedureDeleteAccount, s.DeleteAccount, opts...))
	mux.Handle(ProcedureRefreshAccount, connect.NewUnaryHandler(ProcedureRefreshAccount, s.RefreshAccount, opts...))
	mux.Handle(ProcedureRefreshAllAccounts, connect.NewUnaryHandler(ProcedureRefreshAllAccounts, s.RefreshAllAccounts, opts...))
	mux.Handle(ProcedureListCards, connect.NewUnaryHandler(ProcedureListCards, s.ListCards, opts...))
	return ServicePath, mux
}

func (s *AccountServer) ListAccounts(ctx context.Context, req *connect.Request[ListAccountsRequest]) (*connect.Response[ListAccountsResponse], error) {
	load := s.accounts.List
	if req.Msg.Raw {
		load = s.accounts.ListRaw
	}
	accounts, err := load(ctx)
	if err != nil {
		return nil, s.toConnectError(ctx, err)
	}
	return connect.NewResponse(&ListAccountsResponse{Accounts: accounts}), nil
}

func (s *AccountServer) SyncAccounts(ctx context.Context, req *connect.Request[SyncAccountsRequest]) (*connect.Response[SyncAccountsResponse], error) {
	accounts, stats, err := s.accounts.Sync(ctx)
	if err != nil {
		return nil, s.toConnectError(ctx, err)
	}
	return connect.NewResponse(&SyncAccountsResponse{Accounts: accounts, Summary: summarize(stats)}), nil
}

func (s *AccountServer) SaveAccounts(ctx context.Context, req *connect.Request[SaveAccountsRequest]) (*connect.Response[SaveAccountsResponse], error) {
	if err := s.accounts.Save(ctx, req.Msg.Accounts); err != nil {
		return nil, s.toConnectError(ctx, err)
	}
	return connect.NewResponse(&SaveAccountsResponse{Success: true}), nil
}

func (s *AccountServer) UpdateAccount(ctx context.Context, req *connect.Request[UpdateAccountRequest]) (*connect.Response[UpdateAccountResponse], error) {
	if err := s.accounts.Update(ctx, req.Msg.Account); err != nil {
		return nil, s.toConnectError(ctx, err)
	}
	return connect.NewResponse(&UpdateAccountResponse{}), nil
}

func (s *AccountServer) DeleteAccount(ctx context.Context, req *connect.Request[DeleteAccountRequest]) (*connect.Response[DeleteAccountResponse], error) {
	if err := s.accounts.Delete(ctx, req.Msg.Username); err != nil {
		return nil, s.toConnectError(ctx, err)
	}
	return connect.NewResponse(&DeleteAccountResponse{}), nil
}

func (s *AccountServer) RefreshAccount(ctx context.Context, req *connect.Request[RefreshAccountRequest]) (*connect.Response[RefreshAccountResponse], error) {
	account, err := s.accounts.ForceRefresh(ctx, req.Msg.Username)
	if err != nil {
		return nil, s.toConnectError(ctx, err)
	}
	return connect.NewResponse(&RefreshAccountResponse{Account: account}), nil
}

func (s *AccountServer) RefreshAllAccounts(ctx context.Context, req *connect.Request[RefreshAllAccountsRequest]) (*connect.Response[SyncAccountsResponse], error) {
	accounts, stats, err := s.accounts.ForceRefreshAll(ctx)
	if err != nil {
		return nil, s.toConnectError(ctx, err)
	}
	return connect.NewResponse(&SyncAccountsResponse{Accounts: accounts, Summary: summarize(stats)}), nil
}

func (s *AccountServer) ListCards(ctx context.Context, req *connect.Request[ListCardsRequest]) (*connect.Response[ListCardsResponse], error) {
	cards, err := s.accounts.Cards(ctx, req.Msg.IsLoadingElo)
	if err != nil {
		return nil, s.toConnectError(ctx, err)
	}
	return connect.NewResponse(&ListCardsResponse{Cards: cards}), nil
}

func (s *AccountServer) toConnectError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrAccountNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, service.ErrUsernameRequired):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		s.logger.Error().
			Err(err).
			Str("request_id", middleware.GetRequestID(ctx)).
			Msg("account request failed")
		return connect.NewError(connect.CodeInternal, err)
	}
}
