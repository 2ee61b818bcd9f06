package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/communityboard/board-client/internal/core/ports"
	"github.com/communityboard/board-client/internal/core/service"
	boardredis "github.com/communityboard/board-client/internal/infrastructure/db/redis"
	"github.com/communityboard/board-client/internal/infrastructure/kvstore"
	"github.com/communityboard/board-client/internal/infrastructure/remote"
	"github.com/communityboard/board-client/internal/pkg/config"
	"github.com/communityboard/board-client/pkg/logger"
)

// app is the client control plane wired for one command invocation.
type app struct {
	cfg         *config.Config
	log         zerolog.Logger
	ui          *terminalUI
	session     *service.AuthSession
	interceptor *service.RequestInterceptor
	moderation  *service.ModerationService
	views       *service.ViewCounter
	closers     []func()
}

func loadConfig(opts *rootOptions) *config.Config {
	cfg := config.Load()
	if opts.apiURL != "" {
		cfg.APIURL = opts.apiURL
	}
	if opts.store != "" {
		cfg.Store = opts.store
	}
	logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	return cfg
}

func newApp(ctx context.Context, cfg *config.Config, ui *terminalUI) (*app, error) {
	a := &app{cfg: cfg, log: logger.Component("boardctl"), ui: ui}

	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}

	httpClient := remote.NewHTTPClient(cfg.HTTPTimeout)
	a.session = service.NewAuthSession(store, remote.NewAuthClient(cfg.APIURL, httpClient), logger.Component("session"))
	a.interceptor = service.NewRequestInterceptor(service.InterceptorConfig{
		BaseURL:   cfg.APIURL,
		LoginView: cfg.LoginView,
		Notifier:  ui,
		Navigator: ui,
	}, httpClient, a.session, logger.Component("interceptor"))
	a.closers = append(a.closers, a.interceptor.Close)

	a.moderation = service.NewModerationService(a.interceptor, a.session, ui, logger.Component("moderation"))
	a.views = service.NewViewCounter(a.interceptor, a.session, service.NewViewDedupCache(store, logger.Component("views")), logger.Component("views"))
	return a, nil
}

func (a *app) openStore(ctx context.Context) (ports.KVStore, error) {
	switch a.cfg.Store {
	case config.StoreMemory:
		a.log.Warn().Msg("memory store selected, the session ends with this process")
		return kvstore.NewMemoryStore(), nil
	case config.StoreFile:
		path, err := a.cfg.StateFile()
		if err != nil {
			return nil, err
		}
		return kvstore.NewFileStore(path, logger.Component("store"))
	case config.StoreRedis:
		client, err := boardredis.Connect(ctx, boardredis.Config{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		return kvstore.NewRedisStore(client, a.cfg.Redis.Prefix, logger.Component("store")), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", a.cfg.Store)
	}
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// run builds the app for cmd and hands it to fn.
func run(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, a *app, out io.Writer) error) error {
	cfg := loadConfig(opts)
	ui := newTerminalUI(cmd.InOrStdin(), cmd.OutOrStdout(), opts.assumeYes)

	a, err := newApp(cmd.Context(), cfg, ui)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(cmd.Context(), a, cmd.OutOrStdout())
}
