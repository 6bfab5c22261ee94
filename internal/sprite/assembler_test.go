package sprite_test

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"gifsprite/internal/sb3"
	"gifsprite/internal/sprite"
	"gifsprite/internal/testsupport"
)

var (
	red   = color.NRGBA{R: 255, A: 255}
	green = color.NRGBA{G: 255, A: 255}
	blue  = color.NRGBA{B: 255, A: 255}
)

type fixture struct {
	dir       string
	archive   string
	assembler *sprite.Assembler
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	return fixture{
		dir:       dir,
		archive:   testsupport.WriteProject(t, dir),
		assembler: sprite.NewAssembler(sprite.Options{LockDir: filepath.Join(dir, "locks")}),
	}
}

func (f fixture) gif(t *testing.T, name string, colors ...color.Color) string {
	t.Helper()
	frames := make([]*image.Paletted, 0, len(colors))
	for _, c := range colors {
		frames = append(frames, testsupport.SolidFrame(100, 80, c))
	}
	return testsupport.WriteGIF(t, filepath.Join(f.dir, name), frames...)
}

func targets(t *testing.T, archive string) []sb3.Target {
	t.Helper()
	manifest, err := sb3.ReadManifest(archive)
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	out, err := manifest.DecodeTargets()
	if err != nil {
		t.Fatalf("DecodeTargets: %v", err)
	}
	return out
}

func pixelHash(t *testing.T, data []byte) string {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode staged png: %v", err)
	}
	nrgba := image.NewNRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
	draw.Draw(nrgba, nrgba.Rect, img, img.Bounds().Min, draw.Src)
	sum := md5.Sum(nrgba.Pix)
	return hex.EncodeToString(sum[:])
}

func TestAssembleThreeFrameGIF(t *testing.T) {
	f := newFixture(t)
	anim := f.gif(t, "test.gif", red, green, blue)

	res, err := f.assembler.Assemble(context.Background(), sprite.Request{
		ArchivePath:   f.archive,
		AnimationPath: anim,
		SpriteName:    "Test",
		Anchor:        sprite.AnchorTopLeft,
	})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if res.SpriteName != "Test" || len(res.Costumes) != 3 || res.AssetsWritten != 3 || res.TargetCount != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}

	got := targets(t, f.archive)
	if len(got) != 2 {
		t.Fatalf("expected stage plus sprite, got %d targets", len(got))
	}
	if !got[0].IsStage {
		t.Fatal("stage target moved")
	}
	added := got[1]
	if added.Name != "Test" || added.IsStage {
		t.Fatalf("unexpected target: %+v", added)
	}

	entries := testsupport.ReadEntries(t, f.archive)
	if n := len(entries["project.json"]); n != 1 {
		t.Fatalf("expected one project.json, got %d", n)
	}
	if _, ok := entries[testsupport.StageBackdrop]; !ok {
		t.Fatal("stage backdrop dropped")
	}

	wantNames := []string{"Test", "Test2", "Test3"}
	for i, costume := range added.Costumes {
		if costume.Name != wantNames[i] {
			t.Fatalf("costume %d name %q, want %q", i, costume.Name, wantNames[i])
		}
		if costume.RotationCenterX != 0 || costume.RotationCenterY != 0 {
			t.Fatalf("costume %d center (%v,%v), want (0,0)", i, costume.RotationCenterX, costume.RotationCenterY)
		}
		if costume.MD5Ext != costume.AssetID+".png" {
			t.Fatalf("costume %d md5ext %q does not match asset id %q", i, costume.MD5Ext, costume.AssetID)
		}
		data, ok := entries[costume.MD5Ext]
		if !ok {
			t.Fatalf("costume %d asset %s missing from archive", i, costume.MD5Ext)
		}
		if len(data) != 1 {
			t.Fatalf("asset %s stored %d times", costume.MD5Ext, len(data))
		}
		if h := pixelHash(t, data[0]); h != costume.AssetID {
			t.Fatalf("costume %d asset id %s, pixel hash %s", i, costume.AssetID, h)
		}
	}
}

func TestAssembleDeduplicatesIdenticalFrames(t *testing.T) {
	f := newFixture(t)
	anim := f.gif(t, "blink.gif", red, red, red)

	res, err := f.assembler.Assemble(context.Background(), sprite.Request{
		ArchivePath:   f.archive,
		AnimationPath: anim,
		Anchor:        sprite.AnchorCenter,
	})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if res.SpriteName != "Blink" {
		t.Fatalf("derived name %q, want Blink", res.SpriteName)
	}
	if res.AssetsWritten != 1 {
		t.Fatalf("expected 1 asset written, got %d", res.AssetsWritten)
	}
	if !res.Costumes[1].Reused || !res.Costumes[2].Reused {
		t.Fatalf("expected later frames to reuse the first asset: %+v", res.Costumes)
	}

	added := targets(t, f.archive)[1]
	if len(added.Costumes) != 3 {
		t.Fatalf("expected 3 costumes, got %d", len(added.Costumes))
	}
	for _, c := range added.Costumes[1:] {
		if c.AssetID != added.Costumes[0].AssetID {
			t.Fatalf("identical frames produced different ids")
		}
		if c.RotationCenterX != 50 || c.RotationCenterY != 40 {
			t.Fatalf("center (%v,%v), want (50,40)", c.RotationCenterX, c.RotationCenterY)
		}
	}
	entries := testsupport.ReadEntries(t, f.archive)
	if len(entries[added.Costumes[0].MD5Ext]) != 1 {
		t.Fatal("deduplicated asset stored more than once")
	}
}

func TestAssembleTwiceAddsSecondTarget(t *testing.T) {
	f := newFixture(t)
	anim := f.gif(t, "fox.gif", red, blue)
	req := sprite.Request{ArchivePath: f.archive, AnimationPath: anim, SpriteName: "Fox"}

	if _, err := f.assembler.Assemble(context.Background(), req); err != nil {
		t.Fatalf("first Assemble: %v", err)
	}
	res, err := f.assembler.Assemble(context.Background(), req)
	if err != nil {
		t.Fatalf("second Assemble: %v", err)
	}
	if res.AssetsWritten != 0 {
		t.Fatalf("second run wrote %d assets, want 0", res.AssetsWritten)
	}

	got := targets(t, f.archive)
	if len(got) != 3 {
		t.Fatalf("expected 3 targets, got %d", len(got))
	}
	if got[1].Name != "Fox" || got[2].Name != "Fox" {
		t.Fatalf("unexpected names %q, %q", got[1].Name, got[2].Name)
	}

	archive, err := sb3.Open(f.archive)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer archive.Close()
	if missing := archive.MissingAssets(got); len(missing) != 0 {
		t.Fatalf("missing assets: %v", missing)
	}
	if n := len(testsupport.ReadEntries(t, f.archive)["project.json"]); n != 1 {
		t.Fatalf("expected one project.json, got %d", n)
	}
}

func TestAssembleInvalidAnchorLeavesArchiveUntouched(t *testing.T) {
	f := newFixture(t)
	anim := f.gif(t, "fox.gif", red)
	before, err := os.ReadFile(f.archive)
	if err != nil {
		t.Fatal(err)
	}

	for _, anchor := range []sprite.Anchor{-1, 9} {
		_, err = f.assembler.Assemble(context.Background(), sprite.Request{
			ArchivePath:   f.archive,
			AnimationPath: anim,
			Anchor:        anchor,
		})
		if !errors.Is(err, sprite.ErrInvalidAnchor) {
			t.Fatalf("anchor %d: expected ErrInvalidAnchor, got %v", anchor, err)
		}
	}

	after, err := os.ReadFile(f.archive)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Fatal("archive modified despite invalid anchor")
	}
}

func TestAssembleMissingManifest(t *testing.T) {
	dir := t.TempDir()
	archive := testsupport.WriteArchive(t, filepath.Join(dir, "empty.sb3"),
		testsupport.Entry{Name: "readme.txt", Data: []byte("hi")})
	anim := testsupport.WriteGIF(t, filepath.Join(dir, "fox.gif"), testsupport.SolidFrame(4, 4, red))

	_, err := sprite.NewAssembler(sprite.Options{}).Assemble(context.Background(), sprite.Request{
		ArchivePath:   archive,
		AnimationPath: anim,
	})
	if !errors.Is(err, sb3.ErrManifestMissing) {
		t.Fatalf("expected ErrManifestMissing, got %v", err)
	}
}

func TestAssembleInvalidManifest(t *testing.T) {
	dir := t.TempDir()
	archive := testsupport.WriteArchive(t, filepath.Join(dir, "broken.sb3"),
		testsupport.Entry{Name: "project.json", Data: []byte(`{"targets":`)})
	anim := testsupport.WriteGIF(t, filepath.Join(dir, "fox.gif"), testsupport.SolidFrame(4, 4, red))

	_, err := sprite.NewAssembler(sprite.Options{LockDir: t.TempDir()}).Assemble(context.Background(), sprite.Request{
		ArchivePath:   archive,
		AnimationPath: anim,
	})
	if !errors.Is(err, sb3.ErrManifestInvalid) {
		t.Fatalf("expected ErrManifestInvalid, got %v", err)
	}
}

func TestAssembleBadAnimationLeavesArchiveUntouched(t *testing.T) {
	f := newFixture(t)
	bad := filepath.Join(f.dir, "bad.gif")
	if err := os.WriteFile(bad, []byte("GIF89a garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	before, _ := os.ReadFile(f.archive)

	if _, err := f.assembler.Assemble(context.Background(), sprite.Request{
		ArchivePath:   f.archive,
		AnimationPath: bad,
	}); err == nil {
		t.Fatal("expected decode error")
	}
	after, _ := os.ReadFile(f.archive)
	if !bytes.Equal(before, after) {
		t.Fatal("archive modified after decode failure")
	}
	leftovers, _ := filepath.Glob(filepath.Join(f.dir, ".*.tmp"))
	if len(leftovers) != 0 {
		t.Fatalf("temp files left behind: %v", leftovers)
	}
}

func TestAssembleWithoutLockDirLeavesNoSidecar(t *testing.T) {
	dir := t.TempDir()
	projectDir := filepath.Join(dir, "project")
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		t.Fatal(err)
	}
	archive := testsupport.WriteProject(t, projectDir)
	anim := testsupport.WriteGIF(t, filepath.Join(dir, "fox.gif"), testsupport.SolidFrame(4, 4, red))

	if _, err := sprite.NewAssembler(sprite.Options{}).Assemble(context.Background(), sprite.Request{
		ArchivePath:   archive,
		AnimationPath: anim,
	}); err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	entries, err := os.ReadDir(projectDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != filepath.Base(archive) {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("expected only the project archive, got %v", names)
	}
}

func TestAssembleReportsBusyArchive(t *testing.T) {
	f := newFixture(t)
	anim := f.gif(t, "fox.gif", red)
	lockDir := filepath.Join(f.dir, "locks")

	held, err := sb3.AcquireLock(lockDir, f.archive)
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	defer held.Release()

	_, err = f.assembler.Assemble(context.Background(), sprite.Request{
		ArchivePath:   f.archive,
		AnimationPath: anim,
	})
	if !errors.Is(err, sb3.ErrArchiveBusy) {
		t.Fatalf("expected ErrArchiveBusy, got %v", err)
	}
}

func TestAssembleHonorsCancellation(t *testing.T) {
	f := newFixture(t)
	anim := f.gif(t, "fox.gif", red, blue)
	before, _ := os.ReadFile(f.archive)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.assembler.Assemble(ctx, sprite.Request{ArchivePath: f.archive, AnimationPath: anim})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	after, _ := os.ReadFile(f.archive)
	if !bytes.Equal(before, after) {
		t.Fatal("archive modified after cancellation")
	}
}

func TestAssembleRemovesOrphanedTempArchives(t *testing.T) {
	f := newFixture(t)
	anim := f.gif(t, "fox.gif", red)
	orphan := filepath.Join(f.dir, ".project.sb3.999.tmp")
	if err := os.WriteFile(orphan, []byte("partial"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := f.assembler.Assemble(context.Background(), sprite.Request{
		ArchivePath:   f.archive,
		AnimationPath: anim,
	}); err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if _, err := os.Stat(orphan); !os.IsNotExist(err) {
		t.Fatalf("orphaned temp archive survived: %v", err)
	}
}
