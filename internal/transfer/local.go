package transfer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/medallia/speech-api-reference-implementation/internal/executor"
)

// LocalFetcher reads files from a folder on the local disk
type LocalFetcher struct {
	folder string
}

// NewLocalFetcher creates a fetcher for folder
func NewLocalFetcher(folder string) *LocalFetcher {
	return &LocalFetcher{folder: folder}
}

// List returns the readable regular files directly inside the folder
func (l *LocalFetcher) List(ctx context.Context) ([]File, error) {
	entries, err := os.ReadDir(l.folder)
	if err != nil {
		return nil, fmt.Errorf("unable to list local folder %s: %w", l.folder, err)
	}

	files := make([]File, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !e.Type().IsRegular() {
			continue
		}
		path := filepath.Join(l.folder, e.Name())
		if !readable(path) {
			continue
		}
		files = append(files, File{Name: e.Name(), Path: path})
	}
	return files, nil
}

// Fetch reads the whole file
func (l *LocalFetcher) Fetch(_ context.Context, _ executor.WorkerID, f File) ([]byte, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", f.Path, err)
	}
	return data, nil
}

// Close does nothing
func (l *LocalFetcher) Close() error {
	return nil
}

func readable(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	f.Close()
	return true
}
