// Package telegram is the MTProto transport of the connector: session setup,
// dialog listing, history retrieval and author lookup on top of gotd.
package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
	"github.com/rs/zerolog"

	"github.com/lueurxax/telegram-feed-connector/internal/platform/config"
)

const (
	defaultPageSize    = 100
	maxFloodRetries    = 3
	logFieldChannelID  = "channel_id"
	logFieldSeconds    = "seconds"
	logFieldAttempt    = "attempt"
	floodWaitErrorType = "FLOOD_WAIT"
)

// rpc is the subset of the raw API used by the client.
type rpc interface {
	MessagesGetDialogs(ctx context.Context, request *tg.MessagesGetDialogsRequest) (tg.MessagesDialogsClass, error)
	MessagesGetHistory(ctx context.Context, request *tg.MessagesGetHistoryRequest) (tg.MessagesMessagesClass, error)
	UsersGetUsers(ctx context.Context, id []tg.InputUserClass) ([]tg.UserClass, error)
}

var _ rpc = (*tg.Client)(nil)

// Client is a long-lived Telegram user session shared by every sync pass.
type Client struct {
	cfg      *config.Config
	client   *telegram.Client
	api      rpc
	entities *entityCache
	pageSize int
	logger   *zerolog.Logger
	wait     func(ctx context.Context, d time.Duration) error
}

// New creates a client. A Telethon string session takes precedence over the session file.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*Client, error) {
	storage, err := sessionStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	client := telegram.NewClient(cfg.TGAPIID, cfg.TGAPIHash, telegram.Options{
		SessionStorage: storage,
	})

	pageSize := cfg.HistoryPageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	return &Client{
		cfg:      cfg,
		client:   client,
		api:      client.API(),
		entities: newEntityCache(),
		pageSize: pageSize,
		logger:   logger,
		wait:     sleepContext,
	}, nil
}

func sessionStorage(ctx context.Context, cfg *config.Config) (session.Storage, error) {
	if cfg.TGSessionString == "" {
		return &telegram.FileSessionStorage{Path: cfg.TGSessionPath}, nil
	}

	data, err := session.TelethonSession(cfg.TGSessionString)
	if err != nil {
		return nil, fmt.Errorf("decode string session: %w", err)
	}

	storage := &session.StorageMemory{}
	loader := session.Loader{Storage: storage}

	if err := loader.Save(ctx, data); err != nil {
		return nil, fmt.Errorf("load string session: %w", err)
	}

	return storage, nil
}

// Run keeps the connection open while fn runs.
func (c *Client) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := c.client.Run(ctx, fn); err != nil {
		return fmt.Errorf("telegram client: %w", err)
	}

	return nil
}

// IsAuthorized reports whether the session belongs to a logged-in user.
func (c *Client) IsAuthorized(ctx context.Context) (bool, error) {
	status, err := c.client.Auth().Status(ctx)
	if err != nil {
		return false, fmt.Errorf("auth status: %w", err)
	}

	return status.Authorized, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
