package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	CredsDir            string        `json:"creds_dir"            yaml:"creds_dir"`
	DownloadDir         string        `json:"download_dir"         yaml:"download_dir"`
	RequestTimeout      time.Duration `json:"request_timeout"      yaml:"request_timeout"`
	DownloadConcurrency int           `json:"download_concurrency" yaml:"download_concurrency"`
	DownloadRetries     uint64        `json:"download_retries"     yaml:"download_retries"`
	Keyring             bool          `json:"keyring"              yaml:"keyring"`
}

// Default returns the configuration used when no config file is given. Keys
// missing from a config file keep these values.
func Default() Config {
	return Config{
		CredsDir:            defaultCredsDir(),
		DownloadDir:         ".",
		RequestTimeout:      DefaultRequestTimeout,
		DownloadConcurrency: DefaultDownloadConcurrency,
		DownloadRetries:     DefaultDownloadRetries,
		Keyring:             true,
	}
}

func defaultCredsDir() string {
	dir, err := os.UserConfigDir()
	if nil != err {
		return ".pxv"
	}
	return filepath.Join(dir, "pxv")
}

func (cfg *Config) validate() error {
	if cfg.CredsDir == "" {
		return errors.New("credentials dir is empty")
	}

	if cfg.DownloadDir == "" {
		return errors.New("download dir is empty")
	}

	if cfg.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}

	if cfg.DownloadConcurrency < 1 {
		return errors.New("download concurrency must be at least 1")
	}

	return nil
}

func FromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if nil != err {
		return nil, fmt.Errorf("failed to read config file %q: %v", filePath, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); nil != err {
		return nil, fmt.Errorf("failed to unmarshal config file %q: %v", filePath, err)
	}

	if err := cfg.validate(); nil != err {
		return nil, fmt.Errorf("validation failed: %v", err)
	}

	return &cfg, nil
}

func FromString(data string) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal([]byte(data), &cfg); nil != err {
		return nil, fmt.Errorf("failed to unmarshal config: %v", err)
	}

	if err := cfg.validate(); nil != err {
		return nil, fmt.Errorf("validation failed: %v", err)
	}

	return &cfg, nil
}
