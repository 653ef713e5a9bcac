package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/giantswarm/patternhost/internal/pattern"
)

// Entry declares one pattern.
type Entry struct {
	ID pattern.ID `yaml:"id"`

	// Enabled defaults to true when omitted.
	Enabled *bool `yaml:"enabled,omitempty"`
}

// IsEnabled reports whether the entry takes part in the desired set.
func (e Entry) IsEnabled() bool {
	return e.Enabled == nil || *e.Enabled
}

// Manifest is the declared pattern list together with the initial
// parameters handed to every pattern.
type Manifest struct {
	Params   pattern.Params `yaml:"params,omitempty"`
	Patterns []Entry        `yaml:"patterns"`
}

// EnabledIDs returns the enabled ids in declaration order.
func (m Manifest) EnabledIDs() []pattern.ID {
	ids := make([]pattern.ID, 0, len(m.Patterns))
	for _, e := range m.Patterns {
		if e.IsEnabled() {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

// Validate checks the manifest for empty ids.
func (m Manifest) Validate() error {
	var errs []error
	for i, e := range m.Patterns {
		if e.ID == "" {
			errs = append(errs, fmt.Errorf("patterns[%d]: id is required", i))
		}
	}
	return errors.Join(errs...)
}

// Parse decodes a manifest. Unknown fields are rejected.
func Parse(data []byte) (Manifest, error) {
	var m Manifest
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return Manifest{}, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return Manifest{}, fmt.Errorf("invalid manifest: %w", err)
	}
	if m.Params == nil {
		m.Params = pattern.Params{}
	}
	return m, nil
}

// Load reads and parses the manifest at path.
func Load(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return Manifest{}, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
