package publish

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync"

	"github.com/medallia/speech-api-reference-implementation/internal/httpretry"
)

// DefaultRegistrySize bounds the number of cached OAuth2 clients
const DefaultRegistrySize = 16

// doerFactory builds the authorized transport for one set of credentials
type doerFactory func(ctx context.Context, opts Options) httpretry.HTTPDoer

// ClientRegistry caches authorized transports per set of credentials so that
// batches published with the same client id share one token. Entries are
// evicted oldest first once the registry is full.
type ClientRegistry struct {
	mu      sync.Mutex
	doers   map[string]httpretry.HTTPDoer
	order   []string
	max     int
	factory doerFactory
	logger  *slog.Logger
}

// NewClientRegistry creates a registry holding at most max transports
func NewClientRegistry(max int, retry httpretry.Config, logger *slog.Logger) *ClientRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return newClientRegistry(max, func(ctx context.Context, opts Options) httpretry.HTTPDoer {
		return authorizedDoer(ctx, opts, retry, logger)
	}, logger)
}

func newClientRegistry(max int, factory doerFactory, logger *slog.Logger) *ClientRegistry {
	if max <= 0 {
		max = DefaultRegistrySize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ClientRegistry{
		doers:   make(map[string]httpretry.HTTPDoer),
		max:     max,
		factory: factory,
		logger:  logger,
	}
}

// Client returns a client for opts, reusing the cached transport for its
// credentials when there is one
func (r *ClientRegistry) Client(ctx context.Context, opts Options) *Client {
	key := registryKey(opts)

	r.mu.Lock()
	defer r.mu.Unlock()

	doer, ok := r.doers[key]
	if !ok {
		if len(r.order) >= r.max {
			oldest := r.order[0]
			r.order = r.order[1:]
			delete(r.doers, oldest)
			r.logger.Debug("evicted cached speech API client", "key", oldest[:12])
		}
		doer = r.factory(ctx, opts)
		r.doers[key] = doer
		r.order = append(r.order, key)
		r.logger.Debug("created speech API client", "key", key[:12], "token_url", opts.TokenURL)
	}

	return newClient(opts.APIGateway, doer, r.logger)
}

// Len returns the number of cached transports
func (r *ClientRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.doers)
}

// registryKey is the SHA-256 of the token URL and client credentials
func registryKey(opts Options) string {
	sum := sha256.Sum256([]byte(opts.TokenURL + "|" + opts.ClientID + "|" + opts.ClientSecret))
	return hex.EncodeToString(sum[:])
}
