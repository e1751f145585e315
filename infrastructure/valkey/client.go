// Package valkey envuelve valkey-go con el prefijo de claves de la
// aplicación. El hub de websockets lo usa para pub/sub entre instancias.
package valkey

import (
	"context"
	"fmt"
	"strings"
	"time"

	valkeylib "github.com/valkey-io/valkey-go"
)

// Config describe la conexión a un servidor Valkey.
type Config struct {
	Address   string
	Password  string
	DB        int
	KeyPrefix string
}

// connectTimeout bounds the startup ping; a dead Valkey should fail fast
// instead of hanging app boot.
const connectTimeout = 5 * time.Second

// Client is a connected Valkey handle. Keys built through Key carry the
// configured prefix so several deployments can share one server.
type Client struct {
	inner  valkeylib.Client
	prefix string
}

// NewClient abre la conexión y la verifica con un PING. El llamador es
// dueño del cliente y debe cerrarlo con Close.
func NewClient(cfg Config) (*Client, error) {
	opts := valkeylib.ClientOption{
		InitAddress: []string{cfg.Address},
		SelectDB:    cfg.DB,
		Password:    cfg.Password,
	}

	inner, err := valkeylib.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("valkey: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := inner.Do(ctx, inner.B().Ping().Build()).Error(); err != nil {
		inner.Close()
		return nil, fmt.Errorf("valkey ping %s: %w", cfg.Address, err)
	}

	return &Client{inner: inner, prefix: normalizePrefix(cfg.KeyPrefix)}, nil
}

func normalizePrefix(p string) string {
	if p == "" || strings.HasSuffix(p, ":") {
		return p
	}
	return p + ":"
}

// Inner expone el cliente valkey-go crudo para comandos directos.
func (c *Client) Inner() valkeylib.Client {
	return c.inner
}

// Key une las partes con ":" bajo el prefijo configurado.
func (c *Client) Key(parts ...string) string {
	if len(parts) == 0 {
		return strings.TrimSuffix(c.prefix, ":")
	}
	return c.prefix + strings.Join(parts, ":")
}

func (c *Client) Close() {
	if c.inner != nil {
		c.inner.Close()
	}
}
