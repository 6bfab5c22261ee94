package sb3

import (
	"archive/zip"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gifsprite/internal/logging"
)

// Writer is one rewrite session over an archive. Entry names written through
// a Writer are unique: repeated names are dropped and logged at debug level.
type Writer struct {
	path    string
	tmp     *os.File
	zw      *zip.Writer
	written map[string]struct{}
	logger  *slog.Logger
	done    bool
}

// Begin opens the archive at path, creates a temporary sibling file, and
// copies every entry except project.json into it without recompressing.
func Begin(path string, logger *slog.Logger) (*Writer, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	src, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	defer src.Close()

	if lastEntry(src.File, ManifestName) == nil {
		return nil, fmt.Errorf("%s: %w", path, ErrManifestMissing)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat archive: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), tempPattern(path))
	if err != nil {
		return nil, fmt.Errorf("create temp archive: %w", err)
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("chmod temp archive: %w", err)
	}

	w := &Writer{
		path:    path,
		tmp:     tmp,
		zw:      zip.NewWriter(tmp),
		written: make(map[string]struct{}, len(src.File)),
		logger:  logger,
	}
	if src.Comment != "" {
		if err := w.zw.SetComment(src.Comment); err != nil {
			w.Abort()
			return nil, fmt.Errorf("copy archive comment: %w", err)
		}
	}

	for _, f := range src.File {
		if f.Name == ManifestName {
			continue
		}
		if !w.claim(f.Name) {
			continue
		}
		if err := w.zw.Copy(f); err != nil {
			w.Abort()
			return nil, fmt.Errorf("copy entry %s: %w", f.Name, err)
		}
	}
	return w, nil
}

// claim reserves name for this session and reports whether it was free.
func (w *Writer) claim(name string) bool {
	if _, ok := w.written[name]; ok {
		w.logger.Debug("skipping duplicate archive entry", logging.String("entry", name))
		return false
	}
	w.written[name] = struct{}{}
	return true
}

// Contains reports whether name has already been copied or written.
func (w *Writer) Contains(name string) bool {
	_, ok := w.written[name]
	return ok
}

// WriteAsset adds a binary asset. It returns false without error when an
// entry with the same name already exists in this session.
func (w *Writer) WriteAsset(name string, data []byte) (bool, error) {
	if w.done {
		return false, errors.New("archive writer already closed")
	}
	if name == ManifestName {
		return false, fmt.Errorf("asset name %q is reserved", name)
	}
	if !w.claim(name) {
		return false, nil
	}
	if err := w.writeEntry(name, data); err != nil {
		return false, err
	}
	return true, nil
}

func (w *Writer) writeEntry(name string, data []byte) error {
	header := &zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: time.Now(),
	}
	header.SetMode(0o644)
	entry, err := w.zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("create entry %s: %w", name, err)
	}
	if _, err := entry.Write(data); err != nil {
		return fmt.Errorf("write entry %s: %w", name, err)
	}
	return nil
}

// Commit writes manifest as the single project.json entry and replaces the
// original archive with the rewritten one.
func (w *Writer) Commit(manifest []byte) error {
	if w.done {
		return errors.New("archive writer already closed")
	}
	if err := w.writeEntry(ManifestName, manifest); err != nil {
		w.Abort()
		return err
	}
	w.done = true
	if err := w.zw.Close(); err != nil {
		w.cleanup()
		return fmt.Errorf("finalize archive: %w", err)
	}
	if err := w.tmp.Sync(); err != nil {
		w.cleanup()
		return fmt.Errorf("sync archive: %w", err)
	}
	if err := w.tmp.Close(); err != nil {
		_ = os.Remove(w.tmp.Name())
		return fmt.Errorf("close temp archive: %w", err)
	}
	if err := os.Rename(w.tmp.Name(), w.path); err != nil {
		_ = os.Remove(w.tmp.Name())
		return fmt.Errorf("replace archive: %w", err)
	}
	return nil
}

// Abort discards the session. The original archive is left untouched. It is
// safe to call after Commit.
func (w *Writer) Abort() {
	if w.done {
		return
	}
	w.done = true
	_ = w.zw.Close()
	w.cleanup()
}

func (w *Writer) cleanup() {
	_ = w.tmp.Close()
	_ = os.Remove(w.tmp.Name())
}
