package transfer

import (
	"fmt"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/medallia/speech-api-reference-implementation/internal/executor"
	"github.com/medallia/speech-api-reference-implementation/internal/util"
)

// File is one file found on the source side of a transfer
type File struct {
	// Name is the base name, used for matching and as the object name
	Name string

	// Path locates the file on its source
	Path string
}

// ItemID identifies the file in error lines
func (f File) ItemID() string {
	return f.Name
}

// ValidatePattern checks that pattern is a usable glob
func ValidatePattern(pattern string) error {
	if !doublestar.ValidatePattern(pattern) {
		return fmt.Errorf("%w: %w", util.ErrInvalidConfig,
			util.NewValidationError("glob", pattern, "is not a valid glob pattern"))
	}
	return nil
}

// Filter keeps the files whose base name matches pattern. Files listed more
// than once are kept once. The result is sorted by name.
func Filter(files []File, pattern string) ([]File, error) {
	if err := ValidatePattern(pattern); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(files))
	matched := make([]File, 0, len(files))
	for _, f := range files {
		if seen[f.Path] {
			continue
		}
		ok, err := doublestar.Match(pattern, f.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to match %s against %q: %w", f.Name, pattern, err)
		}
		if !ok {
			continue
		}
		seen[f.Path] = true
		matched = append(matched, f)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Name != matched[j].Name {
			return matched[i].Name < matched[j].Name
		}
		return matched[i].Path < matched[j].Path
	})
	return matched, nil
}

// NewFileSource serves files one batch at a time
func NewFileSource(files []File) *executor.SliceSource[File] {
	return executor.NewSliceSource(files)
}

func newFile(path string) File {
	return File{Name: util.ShortName(path), Path: path}
}
