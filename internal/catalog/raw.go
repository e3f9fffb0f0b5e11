package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fouedh91760/a-level-saver-sub001/internal/rules"
)

// Raw is the declarative catalog as written by operators, before validation.
type Raw struct {
	DefaultTemplate string            `json:"default_template,omitempty" yaml:"default_template,omitempty"`
	Escape          string            `json:"escape,omitempty" yaml:"escape,omitempty"`
	States          []RawState        `json:"states" yaml:"states"`
	Intentions      []RawIntention    `json:"intentions" yaml:"intentions"`
	Resolutions     []RawResolution   `json:"resolutions" yaml:"resolutions"`
	Templates       map[string]string `json:"templates,omitempty" yaml:"templates,omitempty"`
	Partials        map[string]string `json:"partials,omitempty" yaml:"partials,omitempty"`
}

// RawState is a state definition as written in the catalog file.
type RawState struct {
	Name        string           `json:"name" yaml:"name"`
	Priority    int              `json:"priority" yaml:"priority"`
	Severity    string           `json:"severity" yaml:"severity"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	Condition   *rules.Condition `json:"condition" yaml:"condition"`
	Flags       map[string]bool  `json:"flags,omitempty" yaml:"flags,omitempty"`
}

// RawIntention accepts either a bare name or {name, description}.
type RawIntention struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (ri *RawIntention) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		ri.Name = node.Value
		return nil
	}
	type plain RawIntention
	return node.Decode((*plain)(ri))
}

// UnmarshalJSON implements json.Unmarshaler.
func (ri *RawIntention) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		ri.Name = name
		return nil
	}
	type plain RawIntention
	return json.Unmarshal(data, (*plain)(ri))
}

// RawResolution is one resolution table row as written in the catalog file.
type RawResolution struct {
	State     string          `json:"state" yaml:"state"`
	Intention string          `json:"intention" yaml:"intention"`
	Template  string          `json:"template" yaml:"template"`
	Flags     map[string]bool `json:"flags,omitempty" yaml:"flags,omitempty"`
}

// Format is the serialization of a raw catalog document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatForPath picks the format from a file extension; anything but .json is YAML.
func FormatForPath(path string) Format {
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Decode parses a raw catalog document. Unknown keys are rejected so typos in the
// catalog fail the load instead of silently disabling a rule.
func Decode(data []byte, format Format) (Raw, error) {
	var raw Raw
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&raw); err != nil {
			return Raw{}, fmt.Errorf("%w: decode json: %v", ErrInvalidCatalog, err)
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&raw); err != nil {
			return Raw{}, fmt.Errorf("%w: decode yaml: %v", ErrInvalidCatalog, err)
		}
	}
	return raw, nil
}

// Merge adds templates and partials found outside the catalog document (separate
// files). A name defined twice is an error.
func (r *Raw) Merge(templates, partials map[string]string) error {
	var err error
	r.Templates, err = mergeBodies("template", r.Templates, templates)
	if err != nil {
		return err
	}
	r.Partials, err = mergeBodies("partial", r.Partials, partials)
	return err
}

func mergeBodies(kind string, dst, src map[string]string) (map[string]string, error) {
	if len(src) == 0 {
		return dst, nil
	}
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	for name, body := range src {
		if _, dup := dst[name]; dup {
			return nil, fmt.Errorf("%w: %s %q defined twice", ErrDuplicateTemplate, kind, name)
		}
		dst[name] = body
	}
	return dst, nil
}
