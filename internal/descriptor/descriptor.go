// Package descriptor parses dependency descriptor (.mtb) files.
//
// A descriptor holds one dependency line of three delimited fields:
//
//	<source-url>#<version>#$$ASSET_REPO$$<relative-path>
//
// Lines starting with '#' are comments.
package descriptor

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"

	"github.com/mtb04313/mtb-scripts/internal/config"
	"github.com/mtb04313/mtb-scripts/internal/errors"
)

// NumFields is the number of fields in a dependency line.
const NumFields = 3

// CommentPrefix starts a comment line.
const CommentPrefix = "#"

// Field positions within a dependency line.
const (
	FieldURL = iota
	FieldVersion
	FieldLocation
)

// Descriptor is a parsed dependency descriptor.
type Descriptor struct {
	// File is the descriptor file path, empty when parsed from a reader.
	File string `json:"file,omitempty" yaml:"file,omitempty"`
	// URL is the dependency's source repository.
	URL string `json:"url" yaml:"url"`
	// Version is the tag, branch or commit the workspace should hold.
	Version string `json:"version" yaml:"version"`
	// Path is the location relative to the shared-asset folder, e.g. "/core-lib/release-v1".
	Path string `json:"path" yaml:"path"`
}

// Name returns the last meaningful element of the relative path.
func (d *Descriptor) Name() string {
	parts := strings.FieldsFunc(d.Path, func(r rune) bool { return r == '/' || r == '\\' })
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		// "/core-lib/release-v1" names the library, not the version folder.
		return parts[len(parts)-2]
	}
}

// Parser parses descriptor lines with a given delimiter and marker.
type Parser struct {
	Delimiter string
	Marker    string
}

// NewParser creates a Parser from the descriptor configuration.
func NewParser(cfg config.DescriptorConfig) *Parser {
	p := &Parser{Delimiter: cfg.Delimiter, Marker: cfg.Marker}
	if p.Delimiter == "" {
		p.Delimiter = config.DefaultDelimiter
	}
	if p.Marker == "" {
		p.Marker = config.DefaultMarker
	}
	return p
}

// DefaultParser returns a Parser for the standard .mtb format.
func DefaultParser() *Parser {
	return NewParser(config.DescriptorConfig{})
}

// Parse reads r and returns the first dependency line as a Descriptor.
func (p *Parser) Parse(r io.Reader) (*Descriptor, error) {
	return p.parse(r, "")
}

// ParseLine parses a single dependency line.
func (p *Parser) ParseLine(line string) (*Descriptor, error) {
	return p.parseLine(strings.TrimSpace(line), "")
}

// Load opens and parses the descriptor at path on the OS filesystem.
func (p *Parser) Load(path string) (*Descriptor, error) {
	return p.LoadFs(afero.NewOsFs(), path)
}

// LoadFs opens and parses the descriptor at path on fs.
func (p *Parser) LoadFs(fs afero.Fs, path string) (*Descriptor, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDescriptor, fmt.Sprintf("failed to open descriptor %s", path))
	}
	defer f.Close()

	return p.parse(f, path)
}

func (p *Parser) parse(r io.Reader, path string) (*Descriptor, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		// Only lines whose first byte is the comment prefix are comments.
		// Anything else, a blank line included, is the dependency line.
		line := scanner.Text()
		if strings.HasPrefix(line, CommentPrefix) {
			continue
		}
		return p.parseLine(strings.TrimSpace(line), path)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrDescriptor, "failed to read descriptor")
	}
	return nil, errors.DescriptorEmpty(path)
}

func (p *Parser) parseLine(line, path string) (*Descriptor, error) {
	fields := strings.Split(line, p.Delimiter)
	if len(fields) != NumFields {
		return nil, errors.DescriptorMalformed(path, line,
			fmt.Sprintf("expected %d fields, got %d", NumFields, len(fields)))
	}

	location := fields[FieldLocation]
	if !strings.HasPrefix(location, p.Marker) {
		return nil, errors.DescriptorMalformed(path, line,
			fmt.Sprintf("location %q does not start with %s", location, p.Marker))
	}

	return &Descriptor{
		File:    path,
		URL:     fields[FieldURL],
		Version: fields[FieldVersion],
		Path:    strings.TrimPrefix(location, p.Marker),
	}, nil
}

// Parse parses r with the default parser.
func Parse(r io.Reader) (*Descriptor, error) {
	return DefaultParser().Parse(r)
}

// Load parses the file at path with the default parser.
func Load(path string) (*Descriptor, error) {
	return DefaultParser().Load(path)
}
