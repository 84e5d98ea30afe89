package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/medallia/speech-api-reference-implementation/internal/util"
)

// timeoutPart matches one "<number><unit>" term, surrounding spaces allowed
var timeoutPart = regexp.MustCompile(`^[ ]*([0-9]+)[ ]*([smhd])[ ]*`)

var timeoutUnits = map[string]time.Duration{
	"s": time.Second,
	"m": time.Minute,
	"h": time.Hour,
	"d": 24 * time.Hour,
}

// ParseTimeout parses a _d_h_m_s time specifier such as "5h30m" or "1d 2h".
// Units are case-insensitive and may repeat; their values add up.
func ParseTimeout(spec string) (time.Duration, error) {
	rest := strings.ToLower(spec)
	if strings.TrimSpace(rest) == "" {
		return 0, invalidTimeout(spec, "no time specifier provided")
	}

	var total time.Duration
	for rest != "" {
		m := timeoutPart.FindStringSubmatch(rest)
		if m == nil {
			return 0, invalidTimeout(spec, "expected a number followed by one of s, m, h, d")
		}

		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0, invalidTimeout(spec, err.Error())
		}
		unit := timeoutUnits[m[2]]
		if n > int64((1<<63-1)/unit) {
			return 0, invalidTimeout(spec, "value out of range")
		}

		total += time.Duration(n) * unit
		rest = rest[len(m[0]):]
	}

	if total <= 0 {
		return 0, invalidTimeout(spec, "must be positive")
	}
	return total, nil
}

func invalidTimeout(spec, reason string) error {
	return fmt.Errorf("%w: %w", util.ErrInvalidConfig,
		util.NewValidationError("timeout", spec, reason))
}

// ValidateParallel checks the worker count bounds
func ValidateParallel(n int) error {
	if n < 1 || n > MaxParallel {
		return fmt.Errorf("%w: %w", util.ErrInvalidConfig,
			util.NewValidationError("parallel", n, fmt.Sprintf("must be between 1 and %d (inclusive)", MaxParallel)))
	}
	return nil
}

// ValidateOutput checks the report format name
func ValidateOutput(format string) error {
	switch format {
	case "table", "json", "yaml":
		return nil
	default:
		return fmt.Errorf("%w: %w", util.ErrInvalidConfig,
			util.NewValidationError("output", format, "must be one of table, json, yaml"))
	}
}

// Validate checks that the publish settings are complete
func (c PublishConfig) Validate() error {
	var errs util.MultiError

	required := []struct {
		field string
		value string
	}{
		{"data-file", c.DataFile},
		{"client-id", c.ClientID},
		{"client-secret", c.ClientSecret},
		{"token-url", c.TokenURL},
		{"api-gateway", c.APIGateway},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs.Add(util.NewValidationError(r.field, nil, "is required"))
		}
	}

	if c.BatchSize < 1 {
		errs.Add(util.NewValidationError("batch-size", c.BatchSize, "must be positive"))
	}

	return wrapInvalid(errs.ErrorOrNil())
}

// Validate checks that the transfer settings describe exactly one source and a target
func (c TransferConfig) Validate() error {
	var errs util.MultiError

	local := strings.TrimSpace(c.LocalFolder) != ""
	remote := strings.TrimSpace(c.SFTP.Host) != ""

	switch {
	case local && remote:
		errs.Add(util.NewValidationError("local-folder", c.LocalFolder, "cannot be combined with sftp-host"))
	case !local && !remote:
		errs.Add(util.NewValidationError("local-folder", nil, "either local-folder or sftp-host is required"))
	case remote:
		if c.SFTP.Username == "" {
			errs.Add(util.NewValidationError("sftp-username", nil, "is required"))
		}
		if c.SFTP.Port < 1 || c.SFTP.Port > 65535 {
			errs.Add(util.NewValidationError("sftp-port", c.SFTP.Port, "must be a valid port"))
		}
	}

	required := []struct {
		field string
		value string
	}{
		{"mmft-endpoint", c.MMFT.Endpoint},
		{"mmft-access-key", c.MMFT.AccessKey},
		{"mmft-secret-key", c.MMFT.SecretKey},
		{"mmft-bucket", c.MMFT.Bucket},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs.Add(util.NewValidationError(r.field, nil, "is required"))
		}
	}

	if strings.TrimSpace(c.Glob) == "" {
		errs.Add(util.NewValidationError("glob", nil, "must not be empty"))
	}

	return wrapInvalid(errs.ErrorOrNil())
}

func wrapInvalid(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", util.ErrInvalidConfig, err)
}
