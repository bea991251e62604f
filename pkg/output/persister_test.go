package output

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/menta2k/sam-annotator/pkg/layout"
	"github.com/menta2k/sam-annotator/pkg/types"
)

func writeSourceImage(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{100, 100, 100, 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Failed to encode %s: %v", path, err)
	}
}

func testResult(imagePath string) *types.SegmentResult {
	return &types.SegmentResult{
		ImagePath: imagePath,
		Width:     64,
		Height:    48,
		Masks: []types.MaskRecord{
			{
				ClassID:    0,
				Confidence: 0.95,
				Contour:    [][2]float64{{0.1, 0.1}, {0.9, 0.1}, {0.9, 0.9}, {0.1, 0.9}},
				LabelLine:  "0 0.1 0.1 0.9 0.1 0.9 0.9 0.1 0.9",
			},
			{
				ClassID:    1,
				Confidence: 0.80,
				Contour:    [][2]float64{{0.2, 0.2}, {0.5, 0.2}, {0.5, 0.5}},
				LabelLine:  "1 0.2 0.2 0.5 0.2 0.5 0.5",
			},
		},
	}
}

func TestPersistWritesLabelFile(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "frame_001.png")
	writeSourceImage(t, src)

	dirs := layout.OutputDirs{
		Images: filepath.Join(base, "runs"),
		Labels: filepath.Join(base, "labels"),
	}
	p := NewPersister(dirs)

	if err := p.Persist(testResult(src)); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dirs.Labels, "frame_001.txt"))
	if err != nil {
		t.Fatalf("Label file not written: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 label lines, got %d: %q", len(lines), string(data))
	}
	if lines[0] != "0 0.1 0.1 0.9 0.1 0.9 0.9 0.1 0.9" {
		t.Errorf("Label line written non-verbatim: %q", lines[0])
	}
}

func TestPersistWritesOverlayImage(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "frame_001.png")
	writeSourceImage(t, src)

	dirs := layout.OutputDirs{
		Images: filepath.Join(base, "runs"),
		Labels: filepath.Join(base, "labels"),
	}
	p := NewPersisterWithConfig(dirs, Config{Format: "png"})

	if err := p.Persist(testResult(src)); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}

	outPath := filepath.Join(dirs.Images, "frame_001.png")
	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("Predicted image not written: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("Predicted image does not decode: %v", err)
	}
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 48 {
		t.Errorf("Predicted image has wrong size: %v", img.Bounds())
	}
}

func TestPersistEmptyMasks(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "empty.png")
	writeSourceImage(t, src)

	dirs := layout.OutputDirs{
		Images: filepath.Join(base, "runs"),
		Labels: filepath.Join(base, "labels"),
	}
	p := NewPersister(dirs)

	res := &types.SegmentResult{ImagePath: src, Width: 64, Height: 48}
	if err := p.Persist(res); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dirs.Labels, "empty.txt"))
	if err != nil {
		t.Fatalf("Label file not written: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("Expected empty label file, got %q", string(data))
	}
}

func TestPersistMissingSource(t *testing.T) {
	base := t.TempDir()
	dirs := layout.OutputDirs{
		Images: filepath.Join(base, "runs"),
		Labels: filepath.Join(base, "labels"),
	}
	p := NewPersister(dirs)

	res := testResult(filepath.Join(base, "missing.png"))
	if err := p.Persist(res); err == nil {
		t.Error("Expected error when source image is missing")
	}
}

func TestPersistNilResult(t *testing.T) {
	p := NewPersister(layout.OutputDirs{Images: "a", Labels: "b"})
	if err := p.Persist(nil); err == nil {
		t.Error("Expected error for nil result")
	}
}

func TestRenderOverlayBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	masks := []types.MaskRecord{
		{ClassID: 2, Contour: [][2]float64{{-0.5, 0.5}, {1.4, 0.5}, {0.5, 1.8}}},
	}

	// Out-of-range vertices must clamp, not panic.
	out := RenderOverlay(img, masks)
	if out.Bounds().Dx() != 32 || out.Bounds().Dy() != 32 {
		t.Errorf("Overlay changed image size: %v", out.Bounds())
	}
}
