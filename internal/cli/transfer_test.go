package cli

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/medallia/speech-api-reference-implementation/internal/util"
)

// objectStore fakes the PutObject call of an S3 compatible endpoint
type objectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	server  *httptest.Server
}

func newObjectStore(t *testing.T) *objectStore {
	t.Helper()
	store := &objectStore{objects: make(map[string][]byte)}

	store.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			http.Error(w, "unexpected method", http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		store.mu.Lock()
		store.objects[r.URL.Path] = body
		store.mu.Unlock()

		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(store.server.Close)
	return store
}

func (s *objectStore) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *objectStore) args() []string {
	return []string{
		"--mmft-endpoint", s.server.URL,
		"--mmft-access-key", "access",
		"--mmft-secret-key", "secret",
		"--mmft-bucket", "media",
	}
}

func TestTransferCommandLocalFolder(t *testing.T) {
	store := newObjectStore(t)

	src := t.TempDir()
	for name, content := range map[string]string{
		"a.wav":     "RIFF-a",
		"b.wav":     "RIFF-b",
		"notes.txt": "skip me",
	} {
		if err := os.WriteFile(filepath.Join(src, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(src, "nested.wav"), 0755); err != nil {
		t.Fatal(err)
	}
	names := filepath.Join(t.TempDir(), "names.txt")

	args := append([]string{"transfer",
		"--local-folder", src,
		"--mmft-folder", "/calls/",
		"-g", "*.wav",
		"--filenames", names,
		"-p", "2", "-o", "json",
	}, store.args()...)

	output, err := runCLI(t, &app{}, args...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(output, "Found 2 file(s) to process") {
		t.Errorf("missing file count in %q", output)
	}
	report := parseReport(t, output)
	if report["accepted"] != float64(2) {
		t.Errorf("accepted = %v, want 2", report["accepted"])
	}
	if report["batches"] != float64(2) {
		t.Errorf("batches = %v, want one batch per file", report["batches"])
	}

	keys := store.keys()
	want := []string{"/media/calls/a.wav", "/media/calls/b.wav"}
	if strings.Join(keys, ",") != strings.Join(want, ",") {
		t.Errorf("uploaded keys = %v, want %v", keys, want)
	}
	store.mu.Lock()
	if got := string(store.objects["/media/calls/a.wav"]); got != "RIFF-a" {
		t.Errorf("uploaded content = %q, want RIFF-a", got)
	}
	store.mu.Unlock()

	data, err := os.ReadFile(names)
	if err != nil {
		t.Fatalf("filename log not written: %v", err)
	}
	recorded := strings.Fields(string(data))
	sort.Strings(recorded)
	if strings.Join(recorded, ",") != "a.wav,b.wav" {
		t.Errorf("recorded names = %v, want [a.wav b.wav]", recorded)
	}
}

func TestTransferCommandNoMatches(t *testing.T) {
	store := newObjectStore(t)
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "a.mp3"), []byte("ID3"), 0644); err != nil {
		t.Fatal(err)
	}

	args := append([]string{"transfer", "--local-folder", src, "-g", "*.wav", "-o", "json"}, store.args()...)
	output, err := runCLI(t, &app{}, args...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(output, "Found 0 file(s) to process") {
		t.Errorf("missing file count in %q", output)
	}
	if len(store.keys()) != 0 {
		t.Errorf("expected no uploads, got %v", store.keys())
	}
}

func TestTransferCommandValidation(t *testing.T) {
	store := newObjectStore(t)
	src := t.TempDir()

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{
			name:    "no source",
			args:    store.args(),
			wantErr: util.ErrInvalidConfig,
		},
		{
			name:    "both sources",
			args:    append([]string{"--local-folder", src, "--sftp-host", "sftp.example.com", "--sftp-username", "me"}, store.args()...),
			wantErr: util.ErrInvalidConfig,
		},
		{
			name:    "missing bucket",
			args:    []string{"--local-folder", src, "--mmft-endpoint", store.server.URL, "--mmft-access-key", "a", "--mmft-secret-key", "s"},
			wantErr: util.ErrInvalidConfig,
		},
		{
			name:    "malformed glob",
			args:    append([]string{"--local-folder", src, "-g", "[a-"}, store.args()...),
			wantErr: util.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, &app{}, append([]string{"transfer"}, tt.args...)...)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestTransferCommandMissingFolder(t *testing.T) {
	store := newObjectStore(t)
	missing := filepath.Join(t.TempDir(), "missing")

	args := append([]string{"transfer", "--local-folder", missing}, store.args()...)
	_, err := runCLI(t, &app{}, args...)
	if err == nil || !strings.Contains(err.Error(), "unable to list local folder") {
		t.Fatalf("expected a listing error, got %v", err)
	}
}
