package testsupport

import (
	"archive/zip"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"
)

// StageManifest is a minimal project.json holding only the stage.
const StageManifest = `{"targets":[{"isStage":true,"name":"Stage","variables":{},"lists":{},"broadcasts":{},"blocks":{},"comments":{},"currentCostume":0,"costumes":[{"assetId":"cd21514d0531fdffb22204e0ec5ed84a","name":"backdrop1","md5ext":"cd21514d0531fdffb22204e0ec5ed84a.svg","dataFormat":"svg","rotationCenterX":240,"rotationCenterY":180}],"sounds":[],"volume":100,"layerOrder":0}],"monitors":[],"extensions":[],"meta":{"semver":"3.0.0","vm":"0.2.0","agent":""}}`

// StageBackdrop is the asset StageManifest references.
const StageBackdrop = "cd21514d0531fdffb22204e0ec5ed84a.svg"

// Entry is one file placed in a test archive.
type Entry struct {
	Name string
	Data []byte
}

// WriteArchive creates a zip archive at path holding entries in order.
func WriteArchive(t testing.TB, path string, entries ...Entry) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, e := range entries {
		w, err := zw.Create(e.Name)
		if err != nil {
			t.Fatalf("create entry %s: %v", e.Name, err)
		}
		if _, err := w.Write(e.Data); err != nil {
			t.Fatalf("write entry %s: %v", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}
	return path
}

// WriteProject creates a project archive with the stage-only manifest and
// its backdrop under dir.
func WriteProject(t testing.TB, dir string) string {
	t.Helper()
	return WriteArchive(t, filepath.Join(dir, "project.sb3"),
		Entry{Name: StageBackdrop, Data: []byte(`<svg xmlns="http://www.w3.org/2000/svg"/>`)},
		Entry{Name: "project.json", Data: []byte(StageManifest)},
	)
}

// ReadEntries returns every entry's contents keyed by name. Repeated names
// keep all copies in archive order.
func ReadEntries(t testing.TB, path string) map[string][][]byte {
	t.Helper()
	r, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open archive %s: %v", path, err)
	}
	defer r.Close()

	out := make(map[string][][]byte)
	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open entry %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			t.Fatalf("read entry %s: %v", f.Name, err)
		}
		out[f.Name] = append(out[f.Name], data)
	}
	return out
}

// SolidFrame returns a w x h paletted frame filled with c.
func SolidFrame(w, h int, c color.Color) *image.Paletted {
	palette := color.Palette{color.Transparent, c}
	img := image.NewPaletted(image.Rect(0, 0, w, h), palette)
	for i := range img.Pix {
		img.Pix[i] = 1
	}
	return img
}

// WriteGIF encodes frames as an animated GIF at path. Frames may be smaller
// than the logical screen; the screen covers the union of their bounds.
func WriteGIF(t testing.TB, path string, frames ...*image.Paletted) string {
	t.Helper()
	if len(frames) == 0 {
		t.Fatal("WriteGIF needs at least one frame")
	}
	anim := &gif.GIF{}
	var screen image.Rectangle
	for _, frame := range frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 10)
		anim.Disposal = append(anim.Disposal, gif.DisposalNone)
		screen = screen.Union(frame.Bounds())
	}
	anim.Config = image.Config{ColorModel: frames[0].Palette, Width: screen.Max.X, Height: screen.Max.Y}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := gif.EncodeAll(f, anim); err != nil {
		t.Fatalf("encode gif: %v", err)
	}
	return path
}

// WritePNG encodes img as a PNG at path.
func WritePNG(t testing.TB, path string, img image.Image) string {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return path
}
