// Package output persists segmentation engine results as batch artifacts:
// one label text file per image under the labels root and one predicted
// image under the images root.
package output

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"github.com/menta2k/sam-annotator/internal/utils"
	"github.com/menta2k/sam-annotator/pkg/layout"
	"github.com/menta2k/sam-annotator/pkg/types"
)

// Config holds output artifact settings.
type Config struct {
	Format   string
	Quality  int
	Lossless bool
}

// Persister writes one engine result to the derived output roots.
type Persister struct {
	dirs   layout.OutputDirs
	config Config
}

// NewPersister creates a persister with default output settings.
func NewPersister(dirs layout.OutputDirs) *Persister {
	return NewPersisterWithConfig(dirs, Config{Format: "jpg", Quality: 90})
}

// NewPersisterWithConfig creates a persister with custom output settings.
func NewPersisterWithConfig(dirs layout.OutputDirs, config Config) *Persister {
	if config.Format == "" {
		config.Format = "jpg"
	}
	if config.Quality == 0 {
		config.Quality = 90
	}
	return &Persister{dirs: dirs, config: config}
}

// Dirs returns the output roots the persister writes into.
func (p *Persister) Dirs() layout.OutputDirs {
	return p.dirs
}

// Persist writes the label file and the predicted image for one result.
// Output directories are created on demand.
func (p *Persister) Persist(res *types.SegmentResult) error {
	if res == nil {
		return fmt.Errorf("nil segmentation result")
	}
	if res.ImagePath == "" {
		return fmt.Errorf("segmentation result has no image path")
	}

	if err := p.writeLabels(res); err != nil {
		return fmt.Errorf("failed to write labels for %s: %w", res.ImagePath, err)
	}
	if err := p.writeImage(res); err != nil {
		return fmt.Errorf("failed to write image for %s: %w", res.ImagePath, err)
	}
	return nil
}

// writeLabels writes <stem>.txt with one engine-encoded line per mask. The
// line schema is owned by the engine's serializer and copied verbatim.
func (p *Persister) writeLabels(res *types.SegmentResult) error {
	if err := utils.EnsureDir(p.dirs.Labels); err != nil {
		return err
	}

	var b strings.Builder
	for _, mask := range res.Masks {
		b.WriteString(mask.LabelLine)
		b.WriteByte('\n')
	}

	path := filepath.Join(p.dirs.Labels, utils.Stem(res.ImagePath)+".txt")
	return os.WriteFile(path, []byte(b.String()), 0644)
}

// writeImage saves the predicted image under the images root, keeping the
// source stem. The engine's pre-rendered artifact is preferred; otherwise a
// contour overlay is drawn onto the source image.
func (p *Persister) writeImage(res *types.SegmentResult) error {
	if err := utils.EnsureDir(p.dirs.Images); err != nil {
		return err
	}

	var img image.Image
	if len(res.Annotated) > 0 {
		decoded, err := imaging.Decode(bytes.NewReader(res.Annotated))
		if err != nil {
			return fmt.Errorf("failed to decode annotated image: %w", err)
		}
		img = decoded
	} else {
		src, err := imaging.Open(res.ImagePath)
		if err != nil {
			return fmt.Errorf("failed to open source image: %w", err)
		}
		img = RenderOverlay(src, res.Masks)
	}

	name := utils.Stem(res.ImagePath) + "." + strings.ToLower(p.config.Format)
	return p.saveImage(img, filepath.Join(p.dirs.Images, name))
}

func (p *Persister) saveImage(img image.Image, path string) error {
	switch strings.ToLower(p.config.Format) {
	case "webp":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		opts := &webp.Options{Lossless: p.config.Lossless, Quality: float32(p.config.Quality)}
		return webp.Encode(f, img, opts)
	case "png":
		return imaging.Save(img, path)
	default: // jpg/jpeg
		return imaging.Save(img, path, imaging.JPEGQuality(p.config.Quality))
	}
}
