package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultComposeJobID       = "lzreceiver.compose.deliver"
	DefaultComposeMaxAttempts = 5
	DefaultRemoteCacheTTL     = 10 * time.Second
)

// RemoteCacheConfig controls the registry lookup cache. Eviction on
// SetRemote is local to the process, so a sender rotated by another
// process stays accepted here until TTL expires.
type RemoteCacheConfig struct {
	Enabled bool          `koanf:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `koanf:"ttl" mapstructure:"ttl"`
}

type ComposeConfig struct {
	JobID       string `koanf:"job_id" mapstructure:"job_id"`
	MaxAttempts int    `koanf:"max_attempts" mapstructure:"max_attempts"`
}

type Config struct {
	ServiceName      string            `koanf:"service_name" mapstructure:"service_name"`
	LocalChainID     uint32            `koanf:"local_chain_id" mapstructure:"local_chain_id"`
	DefaultTransport string            `koanf:"default_transport" mapstructure:"default_transport"`
	RemoteCache      RemoteCacheConfig `koanf:"remote_cache" mapstructure:"remote_cache"`
	Compose          ComposeConfig     `koanf:"compose" mapstructure:"compose"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName:      "lzreceiver",
		DefaultTransport: "endpoint",
		RemoteCache: RemoteCacheConfig{
			TTL: DefaultRemoteCacheTTL,
		},
		Compose: ComposeConfig{
			JobID:       DefaultComposeJobID,
			MaxAttempts: DefaultComposeMaxAttempts,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.RemoteCache.TTL < 0 {
		return fmt.Errorf("core: remote_cache.ttl must not be negative")
	}
	if c.Compose.MaxAttempts < 0 {
		return fmt.Errorf("core: compose.max_attempts must not be negative")
	}
	return nil
}
