// Package sequence provides the image-sequence collaborator: a deterministic,
// lexicographically sorted view over the image files of one folder, with a
// navigation cursor for interactive browsing.
package sequence

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/sam-annotator/internal/utils"
)

// Mode selects how a loaded folder is presented to the engine. The choice is
// made explicitly at construction; there is no shared mutable loader state.
type Mode int

const (
	// Stills presents images as independent single frames.
	Stills Mode = iota
	// Frames presents images as ordered frames of one sequence, the shape
	// the engine's sequence-mode entry point expects. Frame sequences must
	// be dimensionally uniform, enforced by Validate.
	Frames
)

func (m Mode) String() string {
	if m == Frames {
		return "frames"
	}
	return "stills"
}

// defaultExtensions are the recognized image file extensions, matched
// case-insensitively.
var defaultExtensions = []string{"jpg", "jpeg", "png", "bmp", "tiff", "tif", "webp"}

// ImageInfo describes one image in the loaded sequence.
type ImageInfo struct {
	Path     string
	Filename string
	Index    int
	Total    int
	Width    int
	Height   int
	Folder   string
}

// Loader scans a folder for images and exposes them as an ordered sequence.
type Loader struct {
	mode       Mode
	extensions map[string]bool
	folder     string
	paths      []string
	index      int
}

// NewLoader creates a loader recognizing the default image extensions.
func NewLoader(mode Mode) *Loader {
	return NewLoaderWithExtensions(mode, defaultExtensions)
}

// NewLoaderWithExtensions creates a loader with a custom extension set.
// Extensions are given without the dot and matched case-insensitively.
func NewLoaderWithExtensions(mode Mode, extensions []string) *Loader {
	exts := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		exts[strings.ToLower(strings.TrimPrefix(e, "."))] = true
	}
	return &Loader{mode: mode, extensions: exts}
}

// LoadFolder scans folder for recognized image files, sorted
// lexicographically for a deterministic order. Previously loaded state is
// replaced.
func (l *Loader) LoadFolder(folder string) error {
	if !utils.DirExists(folder) {
		return fmt.Errorf("folder does not exist: %s", folder)
	}

	entries, err := os.ReadDir(folder)
	if err != nil {
		return fmt.Errorf("failed to read folder %s: %w", folder, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if l.extensions[utils.GetFileExtension(entry.Name())] {
			paths = append(paths, filepath.Join(folder, entry.Name()))
		}
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return fmt.Errorf("no images found in folder: %s", folder)
	}

	l.folder = folder
	l.paths = paths
	l.index = 0
	log.Info().Str("folder", folder).Int("images", len(paths)).Stringer("mode", l.mode).Msg("Loaded image folder")
	return nil
}

// Mode returns the sequence semantics selected at construction.
func (l *Loader) Mode() Mode {
	return l.mode
}

// Folder returns the loaded folder path, or "" before LoadFolder.
func (l *Loader) Folder() string {
	return l.folder
}

// Count returns the number of loaded images.
func (l *Loader) Count() int {
	return len(l.paths)
}

// Paths returns a copy of the ordered image paths.
func (l *Loader) Paths() []string {
	return append([]string(nil), l.paths...)
}

// First returns the first image path, or "".
func (l *Loader) First() string {
	if len(l.paths) == 0 {
		return ""
	}
	return l.paths[0]
}

// Current returns the image path at the cursor, or "".
func (l *Loader) Current() string {
	if l.index < 0 || l.index >= len(l.paths) {
		return ""
	}
	return l.paths[l.index]
}

// Next advances the cursor. Returns false at the last image.
func (l *Loader) Next() bool {
	if l.index < len(l.paths)-1 {
		l.index++
		return true
	}
	return false
}

// Previous moves the cursor back. Returns false at the first image.
func (l *Loader) Previous() bool {
	if l.index > 0 {
		l.index--
		return true
	}
	return false
}

// SetIndex moves the cursor to an explicit position.
func (l *Loader) SetIndex(index int) bool {
	if index < 0 || index >= len(l.paths) {
		return false
	}
	l.index = index
	return true
}

// LoadImage decodes an image from disk, with an explicit WebP fallback for
// files the registered decoders reject.
func (l *Loader) LoadImage(path string) (image.Image, error) {
	if img, err := imaging.Open(path); err == nil {
		return img, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if img, err := webp.Decode(f); err == nil {
		return img, nil
	}
	if _, err := f.Seek(0, 0); err == nil {
		if img, _, err := image.Decode(f); err == nil {
			return img, nil
		}
	}
	return nil, fmt.Errorf("image: unknown format for %s", path)
}

// Info returns metadata for the image at the cursor, including decoded
// dimensions.
func (l *Loader) Info() (ImageInfo, error) {
	path := l.Current()
	if path == "" {
		return ImageInfo{}, fmt.Errorf("no image loaded")
	}

	img, err := l.LoadImage(path)
	if err != nil {
		return ImageInfo{}, fmt.Errorf("failed to load image %s: %w", path, err)
	}

	bounds := img.Bounds()
	return ImageInfo{
		Path:     path,
		Filename: filepath.Base(path),
		Index:    l.index,
		Total:    len(l.paths),
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Folder:   l.folder,
	}, nil
}

// Validate checks that every image in the sequence decodes. In Frames mode
// all frames must additionally share the same dimensions, the shape point
// propagation across a sequence requires.
func (l *Loader) Validate() error {
	if len(l.paths) == 0 {
		return fmt.Errorf("no images loaded")
	}
	var w, h int
	for i, path := range l.paths {
		img, err := l.LoadImage(path)
		if err != nil {
			return fmt.Errorf("image %d (%s) failed to load: %w", i, path, err)
		}
		if l.mode != Frames {
			continue
		}
		bounds := img.Bounds()
		if i == 0 {
			w, h = bounds.Dx(), bounds.Dy()
			continue
		}
		if bounds.Dx() != w || bounds.Dy() != h {
			return fmt.Errorf("frame %d (%s) is %dx%d, sequence is %dx%d",
				i, path, bounds.Dx(), bounds.Dy(), w, h)
		}
	}
	return nil
}
