package respcache

import "time"

// Config defines the configuration options for the response cache store.
type Config struct {
	// Enabled turns the cache subsystem on. When false every store operation
	// and every cache pipeline stage becomes a no-op.
	Enabled bool `yaml:"enabled" default:"false"`

	// Addrs is the list of Redis server addresses in the format "host:port,host2:port2".
	Addrs string `yaml:"addrs"`

	// Username is the username for the Redis server/cluster.
	Username string `yaml:"username"`

	// Password is the password for the Redis server/cluster.
	Password string `yaml:"password"`

	// IsClusterMode indicates whether the Redis server is a Redis cluster.
	IsClusterMode bool `yaml:"is_cluster_mode"`

	// DefaultExpirationMinutes is the expiration applied when a caller does
	// not provide an explicit TTL.
	DefaultExpirationMinutes int `yaml:"default_expiration_minutes" default:"60"`

	// MaxRetryAttempts is the number of attempts per store operation.
	MaxRetryAttempts uint `yaml:"max_retry_attempts" default:"3"`

	// RetryDelayMs is the delay between retry attempts in milliseconds.
	RetryDelayMs int `yaml:"retry_delay_ms" default:"1000"`

	// ThrowOnError makes store operations return their underlying error
	// instead of degrading to zero values. Defaults to false so that cache
	// failures never fail the surrounding request.
	ThrowOnError bool `yaml:"throw_on_error" default:"false"`
}

// DefaultTTL returns DefaultExpirationMinutes as a duration.
func (c Config) DefaultTTL() time.Duration {
	return time.Duration(c.DefaultExpirationMinutes) * time.Minute
}

// retryDelay returns RetryDelayMs as a duration.
func (c Config) retryDelay() time.Duration {
	return time.Duration(c.RetryDelayMs) * time.Millisecond
}
