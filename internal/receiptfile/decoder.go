package receiptfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Format identifies the encoding of an input document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Decoder turns raw bytes of one format into a File.
type Decoder interface {
	// Decode parses content into a File
	Decode(content []byte) (*File, error)

	// CanDecode returns true if the decoder recognizes content
	CanDecode(content []byte) bool

	// Format returns the handled format
	Format() Format
}

// Registry holds the known decoders.
type Registry struct {
	decoders []Decoder
}

// NewRegistry creates a registry with JSON and YAML support.
// YAML accepts almost anything, so it goes last.
func NewRegistry() *Registry {
	return &Registry{
		decoders: []Decoder{
			jsonDecoder{},
			yamlDecoder{},
		},
	}
}

// Detect picks the decoder for content.
func (r *Registry) Detect(content []byte) (Decoder, error) {
	for _, d := range r.decoders {
		if d.CanDecode(content) {
			return d, nil
		}
	}
	return nil, fmt.Errorf("unrecognized receipt file format")
}

// Parse decodes content with the matching decoder.
func (r *Registry) Parse(content []byte) (*File, error) {
	d, err := r.Detect(content)
	if err != nil {
		return nil, err
	}
	return d.Decode(content)
}

// Load reads and decodes path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read receipt file: %w", err)
	}
	f, err := NewRegistry().Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

type jsonDecoder struct{}

func (jsonDecoder) Format() Format { return FormatJSON }

func (jsonDecoder) CanDecode(content []byte) bool {
	trimmed := bytes.TrimSpace(content)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func (jsonDecoder) Decode(content []byte) (*File, error) {
	var f File
	dec := json.NewDecoder(bytes.NewReader(content))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return &f, nil
}

type yamlDecoder struct{}

func (yamlDecoder) Format() Format { return FormatYAML }

func (yamlDecoder) CanDecode(content []byte) bool {
	return len(bytes.TrimSpace(content)) > 0
}

func (yamlDecoder) Decode(content []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return &f, nil
}
