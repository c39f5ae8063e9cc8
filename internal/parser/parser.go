package parser

import (
	"errors"
	"fmt"
	"os"

	"github.com/KaramelBytes/sentinel-cli/internal/frame"
)

// Options controls how tabular files are read.
type Options struct {
	// Delimiter for CSV. If 0, sniffs among ',', ';', '\t' from the header line.
	Delimiter rune
	// SheetName selects the XLSX sheet; empty means the first sheet.
	SheetName string
	// MaxRows limits data rows read; 0 means unlimited.
	MaxRows int
}

// Loader reads one file format into a frame.
type Loader interface {
	CanParse(filename string) bool
	Load(path string, opt Options) (*frame.Frame, error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

// LoadFile selects a loader based on filename and reads the file into a frame.
func LoadFile(path string, opt Options) (*frame.Frame, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}
	for _, l := range registry {
		if l.CanParse(path) {
			return l.Load(path, opt)
		}
	}
	return nil, fmt.Errorf("%s: %w", path, ErrUnsupported)
}

func init() {
	Register(csvLoader{})
	Register(xlsxLoader{})
}

// ErrUnsupported indicates a format is not supported.
var ErrUnsupported = errors.New("unsupported dataset format")
