package promptdex

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver     string // "redis", "valkey" or "sqlite"
	addrs      []string
	password   string
	sqlitePath string

	embedder            Embedder
	queryInstruction    string
	documentInstruction string

	rrfK          int
	minSimilarity *float64
	hybridWindow  int
	snippetWords  int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithRedis stores templates in Redis with the search module.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = nil
		if addr != "" {
			c.addrs = []string{addr}
		}
		c.password = password
	})
}

// WithValkey stores templates in Valkey. Full-text search uses substring matching.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = nil
		if addr != "" {
			c.addrs = []string{addr}
		}
		c.password = password
	})
}

// WithSQLite stores templates in an embedded SQLite file.
func WithSQLite(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "sqlite"
		c.sqlitePath = path
	})
}

// WithEmbedder sets the text embedding provider used for queries and for
// templates upserted without a vector.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithInstructions sets the prefixes asymmetric embedding models expect on
// queries and documents.
func WithInstructions(query, document string) Option {
	return optionFunc(func(c *clientConfig) {
		c.queryInstruction = query
		c.documentInstruction = document
	})
}

// WithRRFK sets the reciprocal rank fusion constant. Default: 60.
func WithRRFK(k int) Option {
	return optionFunc(func(c *clientConfig) {
		c.rrfK = k
	})
}

// WithMinSimilarity sets the cosine similarity a semantic hit must reach. Default: 0.5.
func WithMinSimilarity(v float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.minSimilarity = &v
	})
}

// WithHybridWindow sets how many candidates each hybrid branch contributes. Default: 100.
func WithHybridWindow(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.hybridWindow = n
	})
}

// WithSnippetWords sets the snippet length in words. Default: 25.
func WithSnippetWords(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.snippetWords = n
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
