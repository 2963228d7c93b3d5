package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"account-manager/internal/api"
	"account-manager/internal/card"
	"account-manager/internal/config"
	"account-manager/internal/domain"
	"account-manager/internal/repository"
	"account-manager/internal/service"
	"account-manager/internal/staleness"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
)

type stubFetcher struct{}

func (stubFetcher) FetchPuuid(ctx context.Context, name, tag string) string { return "p-" + name }

func (stubFetcher) FetchElo(ctx context.Context, name, tag string) json.RawMessage {
	return json.RawMessage(`{"tier":"GOLD","rank":"IV","leaguePoints":12}`)
}

func (stubFetcher) FetchChampionMasteries(ctx context.Context, name, tag string) []domain.ChampionMastery {
	return nil
}

func (stubFetcher) FetchSummonerLane(ctx context.Context, name, tag string) *domain.SummonerLaneData {
	return &domain.SummonerLaneData{MainRole: "TOP"}
}

func newTestServer(t *testing.T, seed []domain.Account) *httptest.Server {
	t.Helper()

	store := repository.NewBlobStore(repository.NewMemoryKV(), zerolog.Nop())
	if err := store.Save(context.Background(), seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	policy := staleness.New(24 * time.Hour)
	refresher := service.NewRefreshService(stubFetcher{}, policy, &config.Config{RefreshConcurrency: 2}, zerolog.Nop())
	renderer := card.NewRenderer(policy, api.NewStaticCatalog("15.13.1"), api.FallbackChampionIcon)
	accounts := service.NewAccountService(store, refresher, renderer, zerolog.Nop())

	path, handler := NewAccountServer(accounts, zerolog.Nop()).Handler()
	mux := http.NewServeMux()
	mux.Handle(path, handler)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func call[Req, Res any](t *testing.T, srv *httptest.Server, procedure string, req *Req) (*Res, error) {
	t.Helper()
	client := connect.NewClient[Req, Res](srv.Client(), srv.URL+procedure, connect.WithCodec(JSONCodec{}))
	resp, err := client.CallUnary(context.Background(), connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func TestListAccounts(t *testing.T) {
	srv := newTestServer(t, []domain.Account{{Username: "alice"}, {Username: "bob"}})

	resp, err := call[ListAccountsRequest, ListAccountsResponse](t, srv, ProcedureListAccounts, &ListAccountsRequest{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(resp.Accounts) != 2 || resp.Accounts[0].Username != "alice" {
		t.Errorf("unexpected accounts %+v", resp.Accounts)
	}

	raw, err := call[ListAccountsRequest, ListAccountsResponse](t, srv, ProcedureListAccounts, &ListAccountsRequest{Raw: true})
	if err != nil {
		t.Fatalf("raw: expected no error, got %v", err)
	}
	if len(raw.Accounts) != 2 {
		t.Errorf("raw: unexpected accounts %+v", raw.Accounts)
	}
}

func TestSyncAccounts(t *testing.T) {
	fresh := time.Now().Add(-time.Hour).UnixMilli()
	srv := newTestServer(t, []domain.Account{
		{Username: "alice", SummonerName: "Alice"},
		{Username: "bob", SummonerName: "Bob", LastUpdated: fresh},
	})

	resp, err := call[SyncAccountsRequest, SyncAccountsResponse](t, srv, ProcedureSyncAccounts, &SyncAccountsRequest{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.Summary.Refreshed != 1 || resp.Summary.Skipped != 1 {
		t.Errorf("unexpected summary %+v", resp.Summary)
	}
	if resp.Summary.MissingFields != 1 {
		t.Errorf("expected masteries to be missing, got %+v", resp.Summary)
	}
	if resp.Accounts[0].Puuid != "p-Alice" || resp.Accounts[1].LastUpdated != fresh {
		t.Errorf("unexpected accounts %+v", resp.Accounts)
	}
}

func TestSaveUpdateDelete(t *testing.T) {
	srv := newTestServer(t, nil)

	saved, err := call[SaveAccountsRequest, SaveAccountsResponse](t, srv, ProcedureSaveAccounts, &SaveAccountsRequest{
		Accounts: []domain.Account{{Username: "alice"}, {Username: "bob"}},
	})
	if err != nil || !saved.Success {
		t.Fatalf("save: %v %+v", err, saved)
	}

	if _, err := call[UpdateAccountRequest, UpdateAccountResponse](t, srv, ProcedureUpdateAccount, &UpdateAccountRequest{
		Account: domain.Account{Username: "bob", Region: "EUW1"},
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	if _, err := call[DeleteAccountRequest, DeleteAccountResponse](t, srv, ProcedureDeleteAccount, &DeleteAccountRequest{Username: "alice"}); err != nil {
		t.Fatalf("delete: %v", err)
	}

	resp, err := call[ListAccountsRequest, ListAccountsResponse](t, srv, ProcedureListAccounts, &ListAccountsRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(resp.Accounts) != 1 || resp.Accounts[0].Region != "EUW1" {
		t.Errorf("unexpected accounts %+v", resp.Accounts)
	}
}

func TestErrorCodes(t *testing.T) {
	srv := newTestServer(t, []domain.Account{{Username: "alice"}})

	_, err := call[UpdateAccountRequest, UpdateAccountResponse](t, srv, ProcedureUpdateAccount, &UpdateAccountRequest{
		Account: domain.Account{Username: "ghost"},
	})
	if connect.CodeOf(err) != connect.CodeNotFound {
		t.Errorf("update missing: expected not found, got %v", err)
	}

	_, err = call[RefreshAccountRequest, RefreshAccountResponse](t, srv, ProcedureRefreshAccount, &RefreshAccountRequest{Username: "ghost"})
	if connect.CodeOf(err) != connect.CodeNotFound {
		t.Errorf("refresh missing: expected not found, got %v", err)
	}

	_, err = call[DeleteAccountRequest, DeleteAccountResponse](t, srv, ProcedureDeleteAccount, &DeleteAccountRequest{})
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Errorf("delete without username: expected invalid argument, got %v", err)
	}

	if _, err := call[DeleteAccountRequest, DeleteAccountResponse](t, srv, ProcedureDeleteAccount, &DeleteAccountRequest{Username: "ghost"}); err != nil {
		t.Errorf("delete missing should succeed, got %v", err)
	}
}

func TestRefreshAccountAndAll(t *testing.T) {
	srv := newTestServer(t, []domain.Account{
		{Username: "alice", SummonerName: "Alice", LastUpdated: time.Now().Add(-time.Hour).UnixMilli()},
		{Username: "bob", SummonerName: "Bob"},
	})

	one, err := call[RefreshAccountRequest, RefreshAccountResponse](t, srv, ProcedureRefreshAccount, &RefreshAccountRequest{Username: "alice"})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if one.Account.Puuid != "p-Alice" {
		t.Errorf("expected refreshed puuid, got %+v", one.Account)
	}

	all, err := call[RefreshAllAccountsRequest, SyncAccountsResponse](t, srv, ProcedureRefreshAllAccounts, &RefreshAllAccountsRequest{})
	if err != nil {
		t.Fatalf("refresh all: %v", err)
	}
	if all.Summary.Refreshed != 2 {
		t.Errorf("expected 2 refreshed, got %+v", all.Summary)
	}
}

func TestListCards(t *testing.T) {
	srv := newTestServer(t, []domain.Account{
		{Username: "alice", EloData: json.RawMessage(`{"tier":"DIAMOND","rank":"II","leaguePoints":0}`)},
	})

	resp, err := call[ListCardsRequest, ListCardsResponse](t, srv, ProcedureListCards, &ListCardsRequest{IsLoadingElo: true})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(resp.Cards) != 1 {
		t.Fatalf("expected one card, got %d", len(resp.Cards))
	}
	c := resp.Cards[0]
	if c.TierDisplay != "DIAMOND II" || c.LPDisplay != "" || c.MainRole != card.Fill || c.LoadingRank {
		t.Errorf("unexpected card %+v", c)
	}
}

func TestPlainJSONPost(t *testing.T) {
	srv := newTestServer(t, []domain.Account{{Username: "alice"}})

	resp, err := srv.Client().Post(srv.URL+ProcedureListAccounts, "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out ListAccountsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Accounts) != 1 {
		t.Errorf("unexpected body %+v", out)
	}
}

func TestToConnectError(t *testing.T) {
	s := &AccountServer{logger: zerolog.Nop()}
	ctx := context.Background()

	tests := []struct {
		err  error
		code connect.Code
	}{
		{repository.ErrAccountNotFound, connect.CodeNotFound},
		{service.ErrUsernameRequired, connect.CodeInvalidArgument},
		{context.DeadlineExceeded, connect.CodeDeadlineExceeded},
		{errors.New("boom"), connect.CodeInternal},
	}
	for _, tt := range tests {
		if got := connect.CodeOf(s.toConnectError(ctx, tt.err)); got != tt.code {
			t.Errorf("%v: expected %v, got %v", tt.err, tt.code, got)
		}
	}
}
