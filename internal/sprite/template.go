package sprite

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_template.json
var defaultTemplate []byte

// ErrTemplateInvalid indicates a template document lacks the sprite or
// costume shape.
var ErrTemplateInvalid = errors.New("invalid sprite template")

const (
	spriteTemplateKey  = "spriteTemplate"
	costumeTemplateKey = "costumeTemplate"
)

// Template holds the blank sprite and costume shapes. Both are kept as raw
// JSON; every call to NewSprite or NewCostume decodes a fresh copy.
type Template struct {
	sprite  json.RawMessage
	costume json.RawMessage
	source  string
}

// DefaultTemplateBytes returns the built-in Scratch 3 template document.
func DefaultTemplateBytes() []byte {
	out := make([]byte, len(defaultTemplate))
	copy(out, defaultTemplate)
	return out
}

// DefaultTemplate returns the built-in Scratch 3 template.
func DefaultTemplate() *Template {
	tmpl, err := ParseTemplate(defaultTemplate)
	if err != nil {
		panic(fmt.Sprintf("embedded template: %v", err))
	}
	tmpl.source = "built-in"
	return tmpl
}

// LoadTemplate reads a template file. An empty path selects the built-in
// template. Files ending in .yaml or .yml are parsed as YAML, anything else
// as JSON.
func LoadTemplate(path string) (*Template, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultTemplate(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrTemplateInvalid, path, err)
		}
	}

	tmpl, err := ParseTemplate(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	tmpl.source = path
	return tmpl, nil
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// ParseTemplate decodes a JSON template document.
func ParseTemplate(data []byte) (*Template, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTemplateInvalid, err)
	}
	tmpl := &Template{sprite: doc[spriteTemplateKey], costume: doc[costumeTemplateKey]}
	for key, raw := range map[string]json.RawMessage{spriteTemplateKey: tmpl.sprite, costumeTemplateKey: tmpl.costume} {
		if _, err := decodeObject(raw); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrTemplateInvalid, key, err)
		}
	}
	return tmpl, nil
}

// Source describes where the template came from.
func (t *Template) Source() string {
	return t.source
}

// NewSprite returns a fresh sprite descriptor named name with no costumes.
func (t *Template) NewSprite(name string) (map[string]any, error) {
	sprite, err := decodeObject(t.sprite)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTemplateInvalid, spriteTemplateKey, err)
	}
	sprite["name"] = name
	sprite["costumes"] = []any{}
	return sprite, nil
}

// NewCostume returns a fresh copy of the blank costume descriptor.
func (t *Template) NewCostume() (map[string]any, error) {
	costume, err := decodeObject(t.costume)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTemplateInvalid, costumeTemplateKey, err)
	}
	return costume, nil
}

func decodeObject(raw json.RawMessage) (map[string]any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errors.New("missing")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errors.New("not an object")
	}
	return obj, nil
}
