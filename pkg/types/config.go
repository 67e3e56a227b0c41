package types

import (
	"errors"
	"time"
)

// Config holds the parameters for opening the storage core.
type Config struct {
	// DataDir is the directory holding the durable database image, the
	// fallback object store file, and the advisory lock.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// CloudFallback allows a cloud-classified kind with no local adapter
	// to be served by the remote client. It never applies to
	// local-classified kinds.
	CloudFallback bool `json:"cloud_fallback" yaml:"cloud_fallback"`

	// DisableLock skips the single-writer advisory lock on the data
	// directory. Two unlocked writers can overwrite each other's image.
	DisableLock bool `json:"disable_lock" yaml:"disable_lock"`

	// Remote configures the hosted-service client. An empty BaseURL
	// leaves cloud kinds without a remote adapter.
	Remote RemoteConfig `json:"remote" yaml:"remote"`
}

// RemoteConfig configures the hosted-service HTTP client.
type RemoteConfig struct {
	BaseURL string        `json:"base_url" yaml:"base_url"`
	APIKey  string        `json:"api_key" yaml:"api_key"`
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// Config validation errors.
var (
	ErrDataDirEmpty = errors.New("data_dir must not be empty")
)

// Validate checks that the Config is well-formed.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return ErrDataDirEmpty
	}
	return nil
}

// DefaultConfig returns a Config with the defaults applied.
func DefaultConfig(dataDir string) Config {
	return Config{
		DataDir:       dataDir,
		CloudFallback: true,
		Remote:        RemoteConfig{Timeout: 15 * time.Second},
	}
}
