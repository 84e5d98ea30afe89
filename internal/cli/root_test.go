package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/medallia/speech-api-reference-implementation/internal/util"
	"github.com/medallia/speech-api-reference-implementation/pkg/version"
)

// runCLI executes the root command with an isolated home directory
func runCLI(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	cmd := newRootCmd(a)
	cmd.SetArgs(args)

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(context.Background())
	if err != nil {
		t.Logf("stderr: %s", stderr.String())
	}
	return stdout.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := newRootCmd(&app{})

	if cmd.Use != "speech" {
		t.Errorf("expected use 'speech', got %q", cmd.Use)
	}

	expectedCommands := []string{"version", "completion", "publish", "transfer"}
	for _, cmdName := range expectedCommands {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == cmdName {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected subcommand %q to be registered", cmdName)
		}
	}
}

func TestRootCommandHelp(t *testing.T) {
	output, err := runCLI(t, &app{}, "--help")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"Speech", "publish", "transfer", "version", "completion"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected help to contain %q", want)
		}
	}
}

func TestRootCommandFlagDefaults(t *testing.T) {
	cmd := newRootCmd(&app{})

	tests := []struct {
		flag     string
		expected string
	}{
		{flag: "config", expected: ""},
		{flag: "output", expected: "table"},
		{flag: "verbose", expected: "false"},
		{flag: "no-color", expected: "false"},
		{flag: "no-headers", expected: "false"},
		{flag: "timeout", expected: "1h"},
		{flag: "parallel", expected: "4"},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			flag := cmd.PersistentFlags().Lookup(tt.flag)
			if flag == nil {
				t.Fatalf("flag %q not found", tt.flag)
			}
			if flag.DefValue != tt.expected {
				t.Errorf("expected default value %q, got %q", tt.expected, flag.DefValue)
			}
		})
	}
}

func TestRootCommandShortFlags(t *testing.T) {
	cmd := newRootCmd(&app{})

	shortFlags := map[string]string{
		"o": "output",
		"v": "verbose",
		"p": "parallel",
		"t": "timeout",
	}

	for short, long := range shortFlags {
		shortFlag := cmd.PersistentFlags().ShorthandLookup(short)
		if shortFlag == nil {
			t.Errorf("expected short flag -%s for %s", short, long)
			continue
		}
		if shortFlag.Name != long {
			t.Errorf("expected short flag -%s to map to %s, got %s", short, long, shortFlag.Name)
		}
	}
}

func TestRootCommandSilenceFlags(t *testing.T) {
	cmd := newRootCmd(&app{})

	if !cmd.SilenceUsage {
		t.Error("expected SilenceUsage to be true")
	}
	if !cmd.SilenceErrors {
		t.Error("expected SilenceErrors to be true")
	}
}

func TestFlagsCarryConfigKeys(t *testing.T) {
	cmd := newRootCmd(&app{})

	tests := []struct {
		command string
		flag    string
		key     string
	}{
		{"", "parallel", "parallel"},
		{"publish", "batch-size", "publish.batch-size"},
		{"publish", "client-secret", "publish.client-secret"},
		{"transfer", "sftp-port", "transfer.sftp.port"},
		{"transfer", "mmft-bucket", "transfer.mmft.bucket"},
		{"transfer", "glob", "transfer.glob"},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			fs := cmd.PersistentFlags()
			if tt.command != "" {
				sub, _, err := cmd.Find([]string{tt.command})
				if err != nil {
					t.Fatalf("command %q not found: %v", tt.command, err)
				}
				fs = sub.Flags()
			}

			flag := fs.Lookup(tt.flag)
			if flag == nil {
				t.Fatalf("flag %q not found", tt.flag)
			}
			keys := flag.Annotations[configKeyAnnotation]
			if len(keys) != 1 || keys[0] != tt.key {
				t.Errorf("flag %q bound to %v, want %q", tt.flag, keys, tt.key)
			}
		})
	}
}

func TestInitConfigRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "zero workers", args: []string{"version", "-p", "0"}},
		{name: "too many workers", args: []string{"version", "--parallel", "1000"}},
		{name: "bad timeout", args: []string{"version", "-t", "soon"}},
		{name: "bad output", args: []string{"version", "-o", "xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, &app{}, tt.args...)
			if !errors.Is(err, util.ErrInvalidConfig) {
				t.Fatalf("expected invalid config error, got %v", err)
			}
		})
	}
}

func TestConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "speech.yaml")
	content := "parallel: 7\ntimeout: 2h\npublish:\n  batch-size: 50\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Run("file values", func(t *testing.T) {
		a := &app{}
		if _, err := runCLI(t, a, "--config", cfgPath, "version"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a.cfg.Parallel != 7 {
			t.Errorf("parallel = %d, want 7", a.cfg.Parallel)
		}
		if a.timeout != 2*time.Hour {
			t.Errorf("timeout = %v, want 2h", a.timeout)
		}
		if a.cfg.Publish.BatchSize != 50 {
			t.Errorf("batch size = %d, want 50", a.cfg.Publish.BatchSize)
		}
	})

	t.Run("environment over file", func(t *testing.T) {
		t.Setenv("SPEECH_TIMEOUT", "3h")
		a := &app{}
		if _, err := runCLI(t, a, "--config", cfgPath, "version"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a.timeout != 3*time.Hour {
			t.Errorf("timeout = %v, want 3h", a.timeout)
		}
	})

	t.Run("flag over environment", func(t *testing.T) {
		t.Setenv("SPEECH_PARALLEL", "6")
		a := &app{}
		if _, err := runCLI(t, a, "--config", cfgPath, "-p", "2", "version"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a.cfg.Parallel != 2 {
			t.Errorf("parallel = %d, want 2", a.cfg.Parallel)
		}
	})
}

func TestVersionCommand(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		output, err := runCLI(t, &app{}, "version", "-o", "json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var info version.Info
		if err := json.Unmarshal([]byte(output), &info); err != nil {
			t.Fatalf("invalid JSON output %q: %v", output, err)
		}
		if info.Version != version.Version {
			t.Errorf("version = %q, want %q", info.Version, version.Version)
		}
	})

	t.Run("table", func(t *testing.T) {
		output, err := runCLI(t, &app{}, "version")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"COMPONENT", "Version", "Go Version"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got %q", want, output)
			}
		}
	})

	t.Run("yaml", func(t *testing.T) {
		output, err := runCLI(t, &app{}, "version", "-o", "yaml")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(output, "version: "+version.Version) {
			t.Errorf("unexpected YAML output %q", output)
		}
	})
}
