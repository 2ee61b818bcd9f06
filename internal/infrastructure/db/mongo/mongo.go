package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/communityboard/board-client/internal/core/ports"
)

const (
	defaultTimeout = 10 * time.Second
	appName        = "boardctl-stub"
)

// Config selects the MongoDB deployment behind the stand-in board API.
// Timeout bounds the initial connect and ping; PingTimeout bounds each
// readiness probe afterwards.
type Config struct {
	URI         string
	Database    string
	Timeout     time.Duration
	PingTimeout time.Duration
}

// Store bundles the board repositories sharing one client.
type Store struct {
	client      *mongo.Client
	db          *mongo.Database
	pingTimeout time.Duration

	Accounts *AccountRepository
	Content  ports.ContentRepository
}

// Open connects, verifies the deployment answers and prepares the account
// indexes. The caller owns the returned Store and must Close it.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	pingTimeout := cfg.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = timeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName(appName).
		SetServerSelectionTimeout(timeout)
	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	s := &Store{client: client, db: client.Database(cfg.Database), pingTimeout: pingTimeout}
	if err := s.Ping(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	s.Accounts = NewAccountRepository(s.db)
	s.Content = NewContentRepository(s.db)
	if err := s.Accounts.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo indexes: %w", err)
	}
	return s, nil
}

// Ping runs the server ping command against the board database.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.pingTimeout)
	defer cancel()

	if err := s.db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		return fmt.Errorf("mongo ping %s: %w", s.db.Name(), err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
