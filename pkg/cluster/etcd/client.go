// Package etcd provides a minimal wrapper around the etcd client for the
// flow-persistence store (pkg/intent): connect once at startup, then
// Get/Put a single document key.
package etcd

import (
	"context"
	"fmt"
	"sync"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
)

// Config holds the etcd client configuration.
type Config struct {
	Endpoints   []string      `mapstructure:"endpoints"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`

	// TLS configuration
	CertFile   string `mapstructure:"cert_file"`
	KeyFile    string `mapstructure:"key_file"`
	CAFile     string `mapstructure:"ca_file"`
	SkipVerify bool   `mapstructure:"skip_verify"`
}

// DefaultConfig returns the default etcd configuration.
func DefaultConfig() Config {
	return Config{
		Endpoints:   []string{"localhost:2379"},
		DialTimeout: 5 * time.Second,
	}
}

// Client wraps the etcd client with the narrow Get/Put/Close surface
// pkg/intent.Store needs to persist its single flow-intent document.
type Client struct {
	client *clientv3.Client
	config Config
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
}

// New creates a new etcd client wrapper.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientConfig := clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
		Username:    cfg.Username,
		Password:    cfg.Password,
	}

	// TODO: Add TLS configuration if provided

	cli, err := clientv3.New(clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}

	c := &Client{
		client: cli,
		config: cfg,
		logger: logger,
	}

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if _, err := cli.Status(ctx, cfg.Endpoints[0]); err != nil {
		cli.Close()
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}

	logger.Info("connected to etcd", zap.Strings("endpoints", cfg.Endpoints))
	return c, nil
}

// Close closes the etcd client connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	return c.client.Close()
}

// Put stores a key-value pair in etcd.
func (c *Client) Put(ctx context.Context, key, value string, opts ...clientv3.OpOption) error {
	_, err := c.client.Put(ctx, key, value, opts...)
	if err != nil {
		return fmt.Errorf("etcd put failed: %w", err)
	}
	return nil
}

// Get retrieves a value by key from etcd.
func (c *Client) Get(ctx context.Context, key string, opts ...clientv3.OpOption) (string, error) {
	resp, err := c.client.Get(ctx, key, opts...)
	if err != nil {
		return "", fmt.Errorf("etcd get failed: %w", err)
	}

	if len(resp.Kvs) == 0 {
		return "", ErrKeyNotFound
	}

	return string(resp.Kvs[0].Value), nil
}
