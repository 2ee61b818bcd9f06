package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/communityboard/board-client/internal/api"
	"github.com/communityboard/board-client/internal/api/authority"
	"github.com/communityboard/board-client/internal/api/handler"
	"github.com/communityboard/board-client/internal/core/domain"
	"github.com/communityboard/board-client/internal/core/ports"
	"github.com/communityboard/board-client/internal/infrastructure/db/memory"
	boardmongo "github.com/communityboard/board-client/internal/infrastructure/db/mongo"
	"github.com/communityboard/board-client/internal/infrastructure/queue"
	"github.com/communityboard/board-client/internal/pkg/config"
	"github.com/communityboard/board-client/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func newStubCommand() *cobra.Command {
	var (
		useMongo bool
		admins   []string
		workers  int
	)

	cmd := &cobra.Command{
		Use:   "stub",
		Args:  cobra.NoArgs,
		Short: "Serve a local stand-in of the board API",
		Long: `Serve a local stand-in of the board API for development and testing.

Accounts live in memory unless --mongo is given. Seed administrators with
--admin username:password.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
			log := logger.Component("stub")
			ctx := cmd.Context()

			var (
				accounts ports.AccountRepository = memory.NewAccountRepository()
				content  ports.ContentRepository = memory.NewContentRepository()
				checks   map[string]handler.Pinger
			)
			if useMongo {
				store, err := boardmongo.Open(ctx, boardmongo.Config{
					URI:         cfg.Stub.MongoURI,
					Database:    cfg.Stub.MongoDB,
					Timeout:     cfg.Stub.MongoTimeout,
					PingTimeout: cfg.Stub.MongoPingTimeout,
				})
				if err != nil {
					return err
				}
				defer func() { _ = store.Close(context.Background()) }()

				accounts = store.Accounts
				content = store.Content
				checks = map[string]handler.Pinger{"mongodb": store.Ping}
				log.Info().Str("database", cfg.Stub.MongoDB).Msg("using mongodb repositories")
			}

			svc := authority.NewService(accounts, content, cfg.Stub.JWTSecret, 24*time.Hour)
			if err := seedAdmins(ctx, svc, admins); err != nil {
				return err
			}

			dispatcher := queue.NewDispatcher(workers, content, logger.Component("dispatcher"))
			dispatcher.Start(ctx)

			e := api.NewRouter(svc, dispatcher, logger.Component("api"), checks)
			addr := ":" + cfg.Stub.Port

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", addr).Msg("stand-in board API listening")
				if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return err
				}
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := e.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("shutdown failed")
			}
			dispatcher.Close()
			log.Info().Msg("stand-in board API stopped")
			return nil
		},
	}

	cmd.Flags().BoolVar(&useMongo, "mongo", false, "persist accounts and content in MongoDB (STUB_MONGO_URI)")
	cmd.Flags().StringSliceVar(&admins, "admin", nil, "seed an administrator as username:password (repeatable)")
	cmd.Flags().IntVar(&workers, "workers", 0, "view counter workers (default 4)")
	return cmd
}

func seedAdmins(ctx context.Context, svc *authority.Service, admins []string) error {
	for _, entry := range admins {
		username, password, ok := strings.Cut(entry, ":")
		if !ok || username == "" || password == "" {
			return fmt.Errorf("invalid --admin %q, want username:password", entry)
		}
		if _, err := svc.Register(ctx, username, password, "", domain.RoleAdmin); err != nil && !errors.Is(err, domain.ErrAccountExists) {
			return fmt.Errorf("seed admin %s: %w", username, err)
		}
	}
	return nil
}
