package engine

import (
	"fmt"
	"os"

	"github.com/therealutkarshpriyadarshi/vfx/internal/config"
	"github.com/therealutkarshpriyadarshi/vfx/pkg/models"
)

// Validator checks a source before any codec is opened. It only reads file
// metadata.
type Validator struct {
	formats   map[string]bool
	maxSizeMB float64
}

// NewValidator creates a validator for the given container whitelist and
// size ceiling in megabytes
func NewValidator(formats []string, maxSizeMB float64) *Validator {
	allowed := make(map[string]bool)
	for _, f := range config.NormalizeFormats(formats) {
		allowed[f] = true
	}
	return &Validator{formats: allowed, maxSizeMB: maxSizeMB}
}

// Validate checks existence, then format, then size, and returns the file's
// metadata on success
func (v *Validator) Validate(path string) (os.FileInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrNotFound, path, err)
	}
	if stat.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotFound, path)
	}

	format := models.FormatOf(path)
	if !v.formats[format] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	sizeMB := models.SizeInMB(stat.Size())
	if sizeMB > v.maxSizeMB {
		return nil, &TooLargeError{SizeMB: sizeMB, LimitMB: v.maxSizeMB}
	}

	return stat, nil
}
