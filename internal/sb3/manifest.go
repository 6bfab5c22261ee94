package sb3

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ManifestName is the fixed archive entry holding the project document.
const ManifestName = "project.json"

var (
	// ErrManifestMissing indicates the archive has no project.json entry.
	ErrManifestMissing = errors.New("project.json not found in archive")
	// ErrManifestInvalid indicates project.json is not a JSON object with a targets array.
	ErrManifestInvalid = errors.New("project.json is not a valid project manifest")
)

// Manifest is a parsed project.json. Top-level fields other than targets and
// every existing target are kept as raw JSON so a rewrite does not disturb
// them.
type Manifest struct {
	fields  map[string]json.RawMessage
	order   []string
	Targets []json.RawMessage
}

// ParseManifest decodes project.json bytes.
func ParseManifest(data []byte) (*Manifest, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifestInvalid, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: top level is not an object", ErrManifestInvalid)
	}

	m := &Manifest{fields: make(map[string]json.RawMessage)}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrManifestInvalid, err)
		}
		key, _ := keyTok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: field %q: %w", ErrManifestInvalid, key, err)
		}
		if _, seen := m.fields[key]; !seen {
			m.order = append(m.order, key)
		}
		m.fields[key] = raw
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifestInvalid, err)
	}

	rawTargets, ok := m.fields["targets"]
	if !ok {
		return nil, fmt.Errorf("%w: missing targets", ErrManifestInvalid)
	}
	if err := json.Unmarshal(rawTargets, &m.Targets); err != nil {
		return nil, fmt.Errorf("%w: targets: %w", ErrManifestInvalid, err)
	}
	if m.Targets == nil {
		m.Targets = []json.RawMessage{}
	}
	return m, nil
}

// AppendTarget serializes target and adds it after the existing targets.
func (m *Manifest) AppendTarget(target any) error {
	raw, err := json.Marshal(target)
	if err != nil {
		return fmt.Errorf("encode target: %w", err)
	}
	m.Targets = append(m.Targets, raw)
	return nil
}

// Marshal encodes the manifest, keeping the original field order.
func (m *Manifest) Marshal() ([]byte, error) {
	targets, err := json.Marshal(m.Targets)
	if err != nil {
		return nil, fmt.Errorf("encode targets: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range m.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		if key == "targets" {
			buf.Write(targets)
			continue
		}
		buf.Write(m.fields[key])
	}
	buf.WriteByte('}')

	var compact bytes.Buffer
	if err := json.Compact(&compact, buf.Bytes()); err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return compact.Bytes(), nil
}

// Target is a read-only view of one manifest target.
type Target struct {
	Name     string    `json:"name"`
	IsStage  bool      `json:"isStage"`
	Costumes []Costume `json:"costumes"`
}

// Costume is a read-only view of one costume entry.
type Costume struct {
	AssetID         string  `json:"assetId"`
	Name            string  `json:"name"`
	MD5Ext          string  `json:"md5ext"`
	RotationCenterX float64 `json:"rotationCenterX"`
	RotationCenterY float64 `json:"rotationCenterY"`
}

// DecodeTargets returns typed views of every target in order.
func (m *Manifest) DecodeTargets() ([]Target, error) {
	targets := make([]Target, 0, len(m.Targets))
	for i, raw := range m.Targets {
		var target Target
		if err := json.Unmarshal(raw, &target); err != nil {
			return nil, fmt.Errorf("%w: target %d: %w", ErrManifestInvalid, i, err)
		}
		targets = append(targets, target)
	}
	return targets, nil
}
