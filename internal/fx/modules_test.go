package fx

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"account-manager/internal/config"
	"account-manager/internal/repository"
	"account-manager/internal/server"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

func TestModuleGraph(t *testing.T) {
	if err := fx.ValidateApp(Module, fx.Invoke(func(*server.AccountServer) {})); err != nil {
		t.Fatalf("dependency graph is incomplete: %v", err)
	}
}

func TestProvideLocalKV(t *testing.T) {
	tests := []struct {
		backend string
		want    string
	}{
		{config.BackendMemory, "*repository.MemoryKV"},
		{config.BackendSQLite, "*repository.SQLiteKV"},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			lc := fxtest.NewLifecycle(t)
			cfg := &config.Config{StoreBackend: tt.backend, DBPath: filepath.Join(t.TempDir(), "accounts.db")}

			kv, err := ProvideLocalKV(lc, cfg, zerolog.Nop())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if got := fmt.Sprintf("%T", kv); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}

			lc.RequireStart()
			store := repository.NewBlobStore(kv, zerolog.Nop())
			if _, err := store.Load(context.Background()); err != nil {
				t.Errorf("load: %v", err)
			}
			lc.RequireStop()
		})
	}
}
