package sprite

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gifsprite/internal/logging"
	"gifsprite/internal/sb3"
)

// Request describes one sprite to add to a project.
type Request struct {
	ArchivePath   string
	AnimationPath string
	// SpriteName defaults to the title-cased animation file stem.
	SpriteName string
	Anchor     Anchor
}

// Costume summarizes one costume appended to the sprite.
type Costume struct {
	Name            string `json:"name"`
	AssetID         string `json:"assetId"`
	MD5Ext          string `json:"md5ext"`
	RotationCenterX int    `json:"rotationCenterX"`
	RotationCenterY int    `json:"rotationCenterY"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	// Reused is true when an asset with the same content already existed.
	Reused bool `json:"reused"`
}

// Result reports what Assemble added.
type Result struct {
	SpriteName    string    `json:"spriteName"`
	Anchor        Anchor    `json:"anchor"`
	Format        string    `json:"format"`
	Costumes      []Costume `json:"costumes"`
	AssetsWritten int       `json:"assetsWritten"`
	TargetCount   int       `json:"targetCount"`
}

// Options configures an Assembler.
type Options struct {
	// Template supplies the sprite and costume shapes. Nil selects the
	// built-in template.
	Template *Template
	// LockDir holds archive lock files. Empty places the lock next to the
	// archive as "<archive>.lock"; either way it is removed when Assemble returns.
	LockDir string
	Logger  *slog.Logger
}

// Assembler adds animations to project archives as sprites.
type Assembler struct {
	template *Template
	lockDir  string
	logger   *slog.Logger
}

// NewAssembler constructs an Assembler.
func NewAssembler(opts Options) *Assembler {
	tmpl := opts.Template
	if tmpl == nil {
		tmpl = DefaultTemplate()
	}
	return &Assembler{
		template: tmpl,
		lockDir:  opts.LockDir,
		logger:   logging.NewComponentLogger(opts.Logger, "assembler"),
	}
}

// Assemble decodes req.AnimationPath and appends it to req.ArchivePath as a
// new sprite with one costume per frame. The archive is replaced atomically;
// on error it is left as it was.
func (a *Assembler) Assemble(ctx context.Context, req Request) (*Result, error) {
	if !req.Anchor.Valid() {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidAnchor, int(req.Anchor))
	}
	name := strings.TrimSpace(req.SpriteName)
	if name == "" {
		name = DeriveName(req.AnimationPath)
	}

	ctx = logging.WithArchive(ctx, req.ArchivePath)
	logger := logging.WithContext(ctx, a.logger)

	lock, err := sb3.AcquireLock(a.lockDir, req.ArchivePath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("release archive lock failed", logging.Error(err))
		}
	}()
	sb3.CleanOrphanedTemps(req.ArchivePath, logger)

	manifest, err := sb3.ReadManifest(req.ArchivePath)
	if err != nil {
		return nil, err
	}

	sprite, err := a.template.NewSprite(name)
	if err != nil {
		return nil, err
	}

	anim, err := DecodeAnimation(req.AnimationPath)
	if err != nil {
		return nil, err
	}
	logger.Info("animation decoded",
		logging.String("sprite", name),
		logging.String("format", anim.Format),
		logging.Int("frames", anim.Len()),
		logging.String("anchor", req.Anchor.String()),
	)

	writer, err := sb3.Begin(req.ArchivePath, logger)
	if err != nil {
		return nil, err
	}
	defer writer.Abort()

	result := &Result{SpriteName: name, Anchor: req.Anchor, Format: anim.Format}
	costumes := make([]any, 0, anim.Len())
	for i := 0; i < anim.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		frame, err := anim.Frame(i)
		if err != nil {
			return nil, err
		}
		costume, summary, err := a.buildCostume(name, i, frame, req.Anchor)
		if err != nil {
			return nil, err
		}

		encoded, err := frame.EncodePNG()
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		wrote, err := writer.WriteAsset(summary.MD5Ext, encoded)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		summary.Reused = !wrote
		if wrote {
			result.AssetsWritten++
		}
		logger.Debug("frame staged",
			logging.Int(logging.FieldFrame, i),
			logging.String(logging.FieldAssetID, summary.AssetID),
			logging.Bool("reused", summary.Reused),
		)

		costumes = append(costumes, costume)
		result.Costumes = append(result.Costumes, summary)
	}
	sprite["costumes"] = costumes

	if err := manifest.AppendTarget(sprite); err != nil {
		return nil, err
	}
	data, err := manifest.Marshal()
	if err != nil {
		return nil, err
	}
	if err := writer.Commit(data); err != nil {
		return nil, err
	}
	result.TargetCount = len(manifest.Targets)

	logger.Info("sprite added",
		logging.String("sprite", name),
		logging.Int("costumes", len(result.Costumes)),
		logging.Int("assets_written", result.AssetsWritten),
	)
	return result, nil
}

func (a *Assembler) buildCostume(spriteName string, index int, frame Frame, anchor Anchor) (map[string]any, Costume, error) {
	costume, err := a.template.NewCostume()
	if err != nil {
		return nil, Costume{}, err
	}
	x, y, err := anchor.RotationCenter(frame.Width(), frame.Height())
	if err != nil {
		return nil, Costume{}, err
	}
	summary := Costume{
		Name:            CostumeName(spriteName, index),
		AssetID:         frame.AssetID(),
		RotationCenterX: x,
		RotationCenterY: y,
		Width:           frame.Width(),
		Height:          frame.Height(),
	}
	summary.MD5Ext = summary.AssetID + ".png"

	costume["assetId"] = summary.AssetID
	costume["name"] = summary.Name
	costume["md5ext"] = summary.MD5Ext
	costume["rotationCenterX"] = x
	costume["rotationCenterY"] = y
	return costume, summary, nil
}
