package transcript

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	loggerpkg "github.com/minhyannv/chatgpt-cli-go/pkg/logger"
)

var (
	// ErrInvalidStoreType is returned by NewStore for an unknown driver.
	ErrInvalidStoreType = errors.New("invalid transcript store type")
	// ErrInvalidConfig is returned when a driver is missing a required option.
	ErrInvalidConfig = errors.New("invalid transcript store configuration")
)

// Store reads and writes session transcripts.
//
// Append is read-modify-write over the whole persisted transcript, so callers
// must not run concurrent writers against one key.
type Store interface {
	// Load returns the transcript for key, or an empty transcript when nothing
	// has been persisted yet. Malformed data is a storage error.
	Load(ctx context.Context, key SessionKey) (Transcript, error)

	// Append adds user then assistant to the persisted transcript in a single
	// write. Either both turns are stored or neither is.
	Append(ctx context.Context, key SessionKey, user, assistant Turn) error

	// Close releases any resources held by the store.
	Close() error
}

// StoreType names a Store driver.
type StoreType string

const (
	StoreTypeFile   StoreType = "file"
	StoreTypeRedis  StoreType = "redis"
	StoreTypeMemory StoreType = "memory"
)

// StoreOption configures NewStore.
type StoreOption func(*storeConfig)

type storeConfig struct {
	root        string
	redisClient *redis.Client
	redisPrefix string
	logger      loggerpkg.Logger
	verbose     bool
}

// WithRoot sets the directory under which the file driver keeps sessions.
func WithRoot(dir string) StoreOption {
	return func(c *storeConfig) {
		c.root = dir
	}
}

// WithRedisClient sets the client for the redis driver.
func WithRedisClient(client *redis.Client) StoreOption {
	return func(c *storeConfig) {
		c.redisClient = client
	}
}

// WithRedisPrefix overrides the "chatlog:" key prefix of the redis driver.
func WithRedisPrefix(prefix string) StoreOption {
	return func(c *storeConfig) {
		c.redisPrefix = prefix
	}
}

// WithLogger injects a logger; verbose enables debug output.
func WithLogger(l loggerpkg.Logger, verbose bool) StoreOption {
	return func(c *storeConfig) {
		c.logger = l
		c.verbose = verbose
	}
}

// NewStore creates a Store for the given driver.
// The file driver requires WithRoot, the redis driver WithRedisClient.
func NewStore(storeType StoreType, opts ...StoreOption) (Store, error) {
	cfg := &storeConfig{
		redisPrefix: defaultRedisPrefix,
		logger:      loggerpkg.NopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = loggerpkg.NopLogger{}
	}

	switch storeType {
	case StoreTypeFile:
		if cfg.root == "" {
			return nil, ErrInvalidConfig
		}
		return &fileStore{root: cfg.root, logger: cfg.logger, verbose: cfg.verbose}, nil
	case StoreTypeRedis:
		if cfg.redisClient == nil {
			return nil, ErrInvalidConfig
		}
		return &redisStore{client: cfg.redisClient, prefix: cfg.redisPrefix, logger: cfg.logger, verbose: cfg.verbose}, nil
	case StoreTypeMemory:
		return NewMemoryStore(), nil
	default:
		return nil, ErrInvalidStoreType
	}
}
