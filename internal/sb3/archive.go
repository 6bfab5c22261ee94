package sb3

import (
	"archive/zip"
	"fmt"
	"io"
)

// Archive is an open, read-only project archive.
type Archive struct {
	path   string
	reader *zip.ReadCloser
}

// Open opens the archive at path for reading.
func Open(path string) (*Archive, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	return &Archive{path: path, reader: reader}, nil
}

// Close releases the underlying file.
func (a *Archive) Close() error {
	if a == nil || a.reader == nil {
		return nil
	}
	return a.reader.Close()
}

// Path returns the archive location.
func (a *Archive) Path() string {
	return a.path
}

// ManifestBytes returns the raw bytes of the last project.json entry.
func (a *Archive) ManifestBytes() ([]byte, error) {
	entry := lastEntry(a.reader.File, ManifestName)
	if entry == nil {
		return nil, fmt.Errorf("%s: %w", a.path, ErrManifestMissing)
	}
	rc, err := entry.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", ManifestName, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ManifestName, err)
	}
	return data, nil
}

// Manifest parses the last project.json entry.
func (a *Archive) Manifest() (*Manifest, error) {
	data, err := a.ManifestBytes()
	if err != nil {
		return nil, err
	}
	return ParseManifest(data)
}

// Has reports whether an entry with the given name exists.
func (a *Archive) Has(name string) bool {
	return lastEntry(a.reader.File, name) != nil
}

// Names lists entry names in archive order, duplicates included.
func (a *Archive) Names() []string {
	names := make([]string, 0, len(a.reader.File))
	for _, f := range a.reader.File {
		names = append(names, f.Name)
	}
	return names
}

// MissingAssets returns md5ext references in the manifest that have no entry.
func (a *Archive) MissingAssets(targets []Target) []string {
	var missing []string
	seen := make(map[string]struct{})
	for _, target := range targets {
		for _, costume := range target.Costumes {
			if costume.MD5Ext == "" {
				continue
			}
			if _, ok := seen[costume.MD5Ext]; ok {
				continue
			}
			seen[costume.MD5Ext] = struct{}{}
			if !a.Has(costume.MD5Ext) {
				missing = append(missing, costume.MD5Ext)
			}
		}
	}
	return missing
}

func lastEntry(files []*zip.File, name string) *zip.File {
	for i := len(files) - 1; i >= 0; i-- {
		if files[i].Name == name {
			return files[i]
		}
	}
	return nil
}

// ReadManifest opens path, returns its manifest, and closes the archive.
func ReadManifest(path string) (*Manifest, error) {
	archive, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer archive.Close()
	return archive.Manifest()
}
