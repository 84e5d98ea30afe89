package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	defaultConfigName = ".speech"
	defaultConfigDir  = ".speech"
	envPrefix         = "SPEECH"
)

// Default values
const (
	DefaultParallel     = 4
	MaxParallel         = 50
	DefaultTimeout      = "1h"
	DefaultOutput       = "table"
	DefaultBatchSize    = 1000
	DefaultGlob         = "*"
	DefaultSFTPPort     = 22
	DefaultRegion       = "us-east-1"
	DefaultMaxAttempts  = 3
	DefaultInitialDelay = time.Second
	DefaultMaxDelay     = 30 * time.Second
)

// Manager handles speech configuration
type Manager struct {
	configPath string
	config     *SpeechConfig
	viper      *viper.Viper
}

// NewManager creates a new configuration manager
func NewManager(configPath string) *Manager {
	m := &Manager{
		configPath: configPath,
		viper:      viper.New(),
		config:     &SpeechConfig{},
	}

	// Registering every key lets AutomaticEnv resolve nested values on Unmarshal
	m.viper.SetDefault("parallel", DefaultParallel)
	m.viper.SetDefault("timeout", DefaultTimeout)
	m.viper.SetDefault("output", DefaultOutput)
	m.viper.SetDefault("no-color", false)
	m.viper.SetDefault("no-headers", false)
	m.viper.SetDefault("verbose", false)
	m.viper.SetDefault("retry.max-attempts", DefaultMaxAttempts)
	m.viper.SetDefault("retry.initial-delay", DefaultInitialDelay)
	m.viper.SetDefault("retry.max-delay", DefaultMaxDelay)
	m.viper.SetDefault("publish.data-file", "")
	m.viper.SetDefault("publish.batch-size", DefaultBatchSize)
	m.viper.SetDefault("publish.token-url", "")
	m.viper.SetDefault("publish.api-gateway", "")
	m.viper.SetDefault("publish.client-id", "")
	m.viper.SetDefault("publish.client-secret", "")
	m.viper.SetDefault("transfer.local-folder", "")
	m.viper.SetDefault("transfer.glob", DefaultGlob)
	m.viper.SetDefault("transfer.filenames", "")
	m.viper.SetDefault("transfer.sftp.host", "")
	m.viper.SetDefault("transfer.sftp.port", DefaultSFTPPort)
	m.viper.SetDefault("transfer.sftp.username", "")
	m.viper.SetDefault("transfer.sftp.password", "")
	m.viper.SetDefault("transfer.sftp.folder", "/")
	m.viper.SetDefault("transfer.mmft.endpoint", "")
	m.viper.SetDefault("transfer.mmft.access-key", "")
	m.viper.SetDefault("transfer.mmft.secret-key", "")
	m.viper.SetDefault("transfer.mmft.bucket", "")
	m.viper.SetDefault("transfer.mmft.folder", "/")
	m.viper.SetDefault("transfer.mmft.region", DefaultRegion)

	return m
}

// BindFlag binds a command-line flag to a configuration key.
// A flag set on the command line takes precedence over env and file values.
func (m *Manager) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("no flag to bind for key %q", key)
	}
	return m.viper.BindPFlag(key, flag)
}

// Load loads the speech configuration from file, environment and bound flags
func (m *Manager) Load() (*SpeechConfig, error) {
	if m.configPath != "" {
		path, err := ExpandPath(m.configPath)
		if err != nil {
			return nil, err
		}
		m.viper.SetConfigFile(path)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		// Check ~/.speech/config.yaml, then ~/.speech.yaml
		m.viper.AddConfigPath(filepath.Join(home, defaultConfigDir))
		m.viper.AddConfigPath(home)
		m.viper.SetConfigName(defaultConfigName)
		m.viper.SetConfigType("yaml")
	}

	// SPEECH_PUBLISH_BATCH_SIZE -> publish.batch-size
	m.viper.SetEnvPrefix(envPrefix)
	m.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	m.viper.AutomaticEnv()

	m.config = &SpeechConfig{}

	if err := m.viper.ReadInConfig(); err != nil {
		// A missing config file is fine; everything has a default
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := m.viper.Unmarshal(m.config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	m.applyDefaults()

	return m.config, nil
}

// ConfigFileUsed returns the config file that was read, if any
func (m *Manager) ConfigFileUsed() string {
	return m.viper.ConfigFileUsed()
}

// applyDefaults replaces empty values that slipped through from the file.
// Numeric bounds are left to the validators so an explicit zero is rejected.
func (m *Manager) applyDefaults() {
	if m.config == nil {
		return
	}

	if strings.TrimSpace(m.config.Timeout) == "" {
		m.config.Timeout = DefaultTimeout
	}
	if m.config.Output == "" {
		m.config.Output = DefaultOutput
	}

	if m.config.Retry.MaxAttempts == 0 {
		m.config.Retry.MaxAttempts = DefaultMaxAttempts
	}
	if m.config.Retry.InitialDelay == 0 {
		m.config.Retry.InitialDelay = DefaultInitialDelay
	}
	if m.config.Retry.MaxDelay == 0 {
		m.config.Retry.MaxDelay = DefaultMaxDelay
	}

	if m.config.Transfer.Glob == "" {
		m.config.Transfer.Glob = DefaultGlob
	}
	if m.config.Transfer.SFTP.Port == 0 {
		m.config.Transfer.SFTP.Port = DefaultSFTPPort
	}
	if m.config.Transfer.MMFT.Region == "" {
		m.config.Transfer.MMFT.Region = DefaultRegion
	}
}

// ExpandPath expands environment variables and a leading tilde in path
func ExpandPath(path string) (string, error) {
	path = os.ExpandEnv(path)

	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}

	return filepath.Clean(path), nil
}
