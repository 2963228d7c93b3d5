// Command bridge plays the host side of the account bridge: it answers
// save/load/delete/update requests over NATS from a local account store.
package main

import (
	"context"
	"fmt"

	"account-manager/internal/bridge"
	"account-manager/internal/config"
	fxmodules "account-manager/internal/fx"
	"account-manager/internal/logger"
	"account-manager/internal/repository"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		logger.Module,
		config.Module,
		fx.Provide(provideLocalStore),
		fx.Invoke(runBridge),
	).Run()
}

func provideLocalStore(lc fx.Lifecycle, cfg *config.Config, logger zerolog.Logger) (repository.Store, error) {
	if cfg.StoreBackend == config.BackendHost {
		return nil, fmt.Errorf("bridge needs a local STORE_BACKEND, got %q", cfg.StoreBackend)
	}
	kv, err := fxmodules.ProvideLocalKV(lc, cfg, logger)
	if err != nil {
		return nil, err
	}
	return repository.NewBlobStore(kv, logger), nil
}

func runBridge(lc fx.Lifecycle, cfg *config.Config, store repository.Store, logger zerolog.Logger) error {
	conn, err := fxmodules.ConnectNATS(lc, cfg, logger)
	if err != nil {
		return err
	}

	responder := bridge.NewResponder(store, logger)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return responder.Start(conn)
		},
		OnStop: func(ctx context.Context) error {
			return responder.Stop()
		},
	})
	return nil
}
