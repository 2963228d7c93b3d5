package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"account-manager/internal/domain"
	"account-manager/internal/repository"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

func newTestResponder(t *testing.T) (*Responder, *repository.BlobStore) {
	t.Helper()
	store := repository.NewBlobStore(repository.NewMemoryKV(), zerolog.Nop())
	if err := store.Save(context.Background(), []domain.Account{{Username: "alice"}, {Username: "bob"}}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return NewResponder(store, zerolog.Nop()), store
}

func encode(t *testing.T, req repository.BridgeRequest) []byte {
	t.Helper()
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return data
}

func TestHandle_Load(t *testing.T) {
	r, _ := newTestResponder(t)

	for _, subject := range []string{repository.SubjectLoadAccounts, repository.SubjectLoadAccountsRaw} {
		reply := r.Handle(context.Background(), subject, nil)
		if !reply.Success {
			t.Fatalf("%s: expected success, got %+v", subject, reply)
		}
		if len(reply.Accounts) != 2 {
			t.Errorf("%s: expected 2 accounts, got %d", subject, len(reply.Accounts))
		}
	}
}

func TestHandle_SaveDeleteUpdate(t *testing.T) {
	r, store := newTestResponder(t)
	ctx := context.Background()

	reply := r.Handle(ctx, repository.SubjectSaveAccounts, encode(t, repository.BridgeRequest{
		Accounts: []domain.Account{{Username: "carol"}, {Username: "dave"}},
	}))
	if !reply.Success {
		t.Fatalf("save failed: %+v", reply)
	}

	reply = r.Handle(ctx, repository.SubjectDeleteAccount, encode(t, repository.BridgeRequest{Username: "carol"}))
	if !reply.Success {
		t.Fatalf("delete failed: %+v", reply)
	}

	reply = r.Handle(ctx, repository.SubjectUpdateAccount, encode(t, repository.BridgeRequest{
		Account: &domain.Account{Username: "dave", Puuid: "p-dave"},
	}))
	if !reply.Success {
		t.Fatalf("update failed: %+v", reply)
	}

	got, _ := store.Load(ctx)
	if len(got) != 1 || got[0].Username != "dave" || got[0].Puuid != "p-dave" {
		t.Errorf("unexpected stored accounts %+v", got)
	}
}

func TestHandle_UpdateMissingReportsNotFound(t *testing.T) {
	r, _ := newTestResponder(t)

	reply := r.Handle(context.Background(), repository.SubjectUpdateAccount, encode(t, repository.BridgeRequest{
		Account: &domain.Account{Username: "nobody"},
	}))
	if reply.Success || !reply.NotFound {
		t.Errorf("expected not found failure, got %+v", reply)
	}
}

func TestHandle_BadRequests(t *testing.T) {
	r, _ := newTestResponder(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		subject string
		data    []byte
	}{
		{"malformed", repository.SubjectSaveAccounts, []byte("{")},
		{"delete without username", repository.SubjectDeleteAccount, []byte("{}")},
		{"update without account", repository.SubjectUpdateAccount, []byte("{}")},
		{"unknown subject", "rename-account", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := r.Handle(ctx, tt.subject, tt.data)
			if reply.Success || reply.Error == "" {
				t.Errorf("expected failure with message, got %+v", reply)
			}
		})
	}
}

type fakeSubscriber struct {
	subjects []string
	failOn   string
}

func (f *fakeSubscriber) QueueSubscribe(subj, queue string, cb nats.MsgHandler) (*nats.Subscription, error) {
	if subj == f.failOn {
		return nil, errors.New("connection closed")
	}
	if queue != QueueGroup {
		return nil, errors.New("unexpected queue group " + queue)
	}
	f.subjects = append(f.subjects, subj)
	return &nats.Subscription{Subject: subj}, nil
}

func TestStart_SubscribesAllSubjects(t *testing.T) {
	r, _ := newTestResponder(t)
	sub := &fakeSubscriber{}

	if err := r.Start(sub); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(sub.subjects) != len(repository.BridgeSubjects) {
		t.Errorf("expected %d subscriptions, got %v", len(repository.BridgeSubjects), sub.subjects)
	}
}

func TestStart_FailsOnSubscribeError(t *testing.T) {
	r, _ := newTestResponder(t)
	sub := &fakeSubscriber{failOn: repository.SubjectDeleteAccount}

	if err := r.Start(sub); err == nil {
		t.Fatal("expected error")
	}
}
