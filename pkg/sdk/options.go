package osinter

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/osinter/osinter/internal/config"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	conf config.Config

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithValkey stores documents in a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.conf.Database.Driver = config.DriverValkey
		c.conf.Database.Addrs = []string{addr}
		c.conf.Database.Password = password
	})
}

// WithRedis stores documents in a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.conf.Database.Driver = config.DriverRedis
		c.conf.Database.Addrs = []string{addr}
		c.conf.Database.Password = password
	})
}

// WithBolt stores documents in a local bbolt file.
func WithBolt(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.conf.Database.Driver = config.DriverBolt
		c.conf.Database.Path = path
	})
}

// WithKeyPrefix namespaces Redis/Valkey keys. Default: "osinter:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.conf.Database.KeyPrefix = prefix
	})
}

// WithElastic searches articles in an Elasticsearch index.
func WithElastic(index string, urls ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.conf.Search.Driver = config.SearchElastic
		c.conf.Search.Index = index
		c.conf.Search.URLs = urls
	})
}

// WithBleve searches articles in a bleve index at path; empty path keeps
// the index in memory. This is the default.
func WithBleve(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.conf.Search.Driver = config.SearchBleve
		c.conf.Search.Path = path
	})
}

// WithSignupCodes restricts signup to holders of one of the codes.
func WithSignupCodes(codes ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.conf.Auth.SignupCodes = codes
	})
}

// WithArgon2 sets the argon2id cost used for new hashes.
// Defaults: time=3, memory=64 MiB, threads=4.
func WithArgon2(time, memoryKiB uint32, threads uint8) Option {
	return optionFunc(func(c *clientConfig) {
		c.conf.Auth.Argon2.Time = time
		c.conf.Auth.Argon2.MemoryKiB = memoryKiB
		c.conf.Auth.Argon2.Threads = threads
	})
}

// WithMaxWriteRetries bounds the load-mutate-store loop. Default: 5.
func WithMaxWriteRetries(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.conf.Repository.MaxWriteRetries = n
	})
}

// WithClustering enables cluster-scoped article search.
func WithClustering() Option {
	return optionFunc(func(c *clientConfig) {
		c.conf.Features.MLClustering = true
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
