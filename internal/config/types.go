package config

import "time"

// SpeechConfig represents the speech configuration file structure.
// Keys match the command-line flags so that file, environment and flags
// all resolve through the same viper key.
type SpeechConfig struct {
	// Parallel is the number of concurrent workers
	Parallel int `mapstructure:"parallel" yaml:"parallel,omitempty" json:"parallel,omitempty"`

	// Timeout is the overall run timeout in _d_h_m_s form, such as 5h30m
	Timeout string `mapstructure:"timeout" yaml:"timeout,omitempty" json:"timeout,omitempty"`

	// Output is the report format (table, json, yaml)
	Output string `mapstructure:"output" yaml:"output,omitempty" json:"output,omitempty"`

	// NoColor disables colored output
	NoColor bool `mapstructure:"no-color" yaml:"no-color,omitempty" json:"noColor,omitempty"`

	// NoHeaders omits the header row of table reports
	NoHeaders bool `mapstructure:"no-headers" yaml:"no-headers,omitempty" json:"noHeaders,omitempty"`

	// Verbose enables debug logging
	Verbose bool `mapstructure:"verbose" yaml:"verbose,omitempty" json:"verbose,omitempty"`

	// Retry controls retries of remote calls
	Retry RetryConfig `mapstructure:"retry" yaml:"retry,omitempty" json:"retry,omitempty"`

	// Publish holds settings for the publish command
	Publish PublishConfig `mapstructure:"publish" yaml:"publish,omitempty" json:"publish,omitempty"`

	// Transfer holds settings for the transfer command
	Transfer TransferConfig `mapstructure:"transfer" yaml:"transfer,omitempty" json:"transfer,omitempty"`
}

// RetryConfig controls retries with exponential backoff
type RetryConfig struct {
	MaxAttempts  int           `mapstructure:"max-attempts" yaml:"max-attempts,omitempty" json:"maxAttempts,omitempty"`
	InitialDelay time.Duration `mapstructure:"initial-delay" yaml:"initial-delay,omitempty" json:"initialDelay,omitempty"`
	MaxDelay     time.Duration `mapstructure:"max-delay" yaml:"max-delay,omitempty" json:"maxDelay,omitempty"`
}

// PublishConfig contains the Speech API settings
type PublishConfig struct {
	// DataFile is the CSV or JSON metadata file
	DataFile string `mapstructure:"data-file" yaml:"data-file,omitempty" json:"dataFile,omitempty"`

	// BatchSize is the number of records sent per request
	BatchSize int `mapstructure:"batch-size" yaml:"batch-size,omitempty" json:"batchSize,omitempty"`

	// TokenURL is the OAuth2 token endpoint
	TokenURL string `mapstructure:"token-url" yaml:"token-url,omitempty" json:"tokenUrl,omitempty"`

	// APIGateway is the Speech API ingestion URL
	APIGateway string `mapstructure:"api-gateway" yaml:"api-gateway,omitempty" json:"apiGateway,omitempty"`

	ClientID     string `mapstructure:"client-id" yaml:"client-id,omitempty" json:"clientId,omitempty"`
	ClientSecret string `mapstructure:"client-secret" yaml:"client-secret,omitempty" json:"-"`
}

// TransferConfig contains the file transfer settings
type TransferConfig struct {
	// LocalFolder is the source folder when transferring from local disk
	LocalFolder string `mapstructure:"local-folder" yaml:"local-folder,omitempty" json:"localFolder,omitempty"`

	// Glob selects the files to transfer by base name
	Glob string `mapstructure:"glob" yaml:"glob,omitempty" json:"glob,omitempty"`

	// Filenames is where transferred file names are written; empty discards them
	Filenames string `mapstructure:"filenames" yaml:"filenames,omitempty" json:"filenames,omitempty"`

	SFTP SFTPConfig `mapstructure:"sftp" yaml:"sftp,omitempty" json:"sftp,omitempty"`
	MMFT MMFTConfig `mapstructure:"mmft" yaml:"mmft,omitempty" json:"mmft,omitempty"`
}

// SFTPConfig describes the remote SFTP source
type SFTPConfig struct {
	Host     string `mapstructure:"host" yaml:"host,omitempty" json:"host,omitempty"`
	Port     int    `mapstructure:"port" yaml:"port,omitempty" json:"port,omitempty"`
	Username string `mapstructure:"username" yaml:"username,omitempty" json:"username,omitempty"`
	Password string `mapstructure:"password" yaml:"password,omitempty" json:"-"`
	Folder   string `mapstructure:"folder" yaml:"folder,omitempty" json:"folder,omitempty"`
}

// MMFTConfig describes the S3-compatible upload target
type MMFTConfig struct {
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	AccessKey string `mapstructure:"access-key" yaml:"access-key,omitempty" json:"accessKey,omitempty"`
	SecretKey string `mapstructure:"secret-key" yaml:"secret-key,omitempty" json:"-"`
	Bucket    string `mapstructure:"bucket" yaml:"bucket,omitempty" json:"bucket,omitempty"`
	Folder    string `mapstructure:"folder" yaml:"folder,omitempty" json:"folder,omitempty"`
	Region    string `mapstructure:"region" yaml:"region,omitempty" json:"region,omitempty"`
}
