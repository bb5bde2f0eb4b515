package icon

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/muurk/deckplane/internal/logging"
)

// KeySize is the pixel edge length of one key image.
const KeySize = 72

// Renderer resolves an icon spec into PNG bytes for one key.
type Renderer interface {
	// Render produces the key image for spec. inverted selects the
	// pressed-state variant. Render never fails hard: any read or
	// decode problem falls back to a generated placeholder.
	Render(spec string, inverted bool) ([]byte, error)
}

type cacheKey struct {
	spec     string
	inverted bool
}

// FileRenderer is the built-in Renderer: it reads path and asset specs
// from disk, decodes inline specs, and generates placeholder tiles.
// Rendered images are cached per (spec, inverted) pair.
type FileRenderer struct {
	// AssetDir is the directory bare relative icon names resolve against.
	AssetDir string

	mu    sync.RWMutex
	cache map[cacheKey][]byte
}

// NewFileRenderer creates a renderer resolving relative asset names
// against assetDir.
func NewFileRenderer(assetDir string) *FileRenderer {
	return &FileRenderer{
		AssetDir: assetDir,
		cache:    make(map[cacheKey][]byte),
	}
}

// Render implements Renderer.
func (r *FileRenderer) Render(spec string, inverted bool) ([]byte, error) {
	key := cacheKey{spec: spec, inverted: inverted}

	r.mu.RLock()
	if data, ok := r.cache[key]; ok {
		r.mu.RUnlock()
		return data, nil
	}
	r.mu.RUnlock()

	data := r.render(spec, inverted)

	r.mu.Lock()
	r.cache[key] = data
	r.mu.Unlock()

	return data, nil
}

// render resolves one spec without consulting the cache.
func (r *FileRenderer) render(spec string, inverted bool) []byte {
	source := ParseSpec(spec)

	switch source.Kind {
	case SourceInline:
		data, err := base64.StdEncoding.DecodeString(source.Value)
		if err != nil {
			logging.Warn("Undecodable inline icon, using placeholder",
				zap.Error(err),
			)
			return Placeholder(spec, inverted)
		}
		if !validPNG(data) {
			logging.Warn("Inline icon is not a PNG, using placeholder")
			return Placeholder(spec, inverted)
		}
		return data

	case SourcePath:
		return r.readFile(source.Value, spec, inverted)

	case SourceAsset:
		return r.readFile(filepath.Join(r.AssetDir, source.Value), spec, inverted)

	case SourcePlaceholder:
		return Placeholder(source.Value, inverted)

	default:
		return Placeholder(spec, inverted)
	}
}

// readFile loads a PNG from disk, falling back to a placeholder on any
// read or decode failure.
func (r *FileRenderer) readFile(path, spec string, inverted bool) []byte {
	data, err := os.ReadFile(path)
	if err != nil {
		logging.Warn("Failed to read icon file, using placeholder",
			zap.String("path", path),
			zap.Error(err),
		)
		return Placeholder(spec, inverted)
	}
	if !validPNG(data) {
		logging.Warn("Icon file is not a PNG, using placeholder",
			zap.String("path", path),
		)
		return Placeholder(spec, inverted)
	}
	return data
}

// validPNG checks that data decodes as a PNG image.
func validPNG(data []byte) bool {
	_, err := png.DecodeConfig(bytes.NewReader(data))
	return err == nil
}

// Placeholder generates a flat key tile. The device overlays the key
// title text itself, so the placeholder only needs to be a legible
// background; text is kept for the cache key, not drawn.
func Placeholder(text string, inverted bool) []byte {
	bg := color.RGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff}
	edge := color.RGBA{R: 0x56, G: 0x56, B: 0x56, A: 0xff}
	if inverted {
		bg = color.RGBA{R: 0xdd, G: 0xdd, B: 0xdd, A: 0xff}
		edge = color.RGBA{R: 0x9a, G: 0x9a, B: 0x9a, A: 0xff}
	}

	img := image.NewRGBA(image.Rect(0, 0, KeySize, KeySize))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	// 2px border so empty-looking keys are still visibly distinct
	for x := 0; x < KeySize; x++ {
		for _, y := range []int{0, 1, KeySize - 2, KeySize - 1} {
			img.Set(x, y, edge)
			img.Set(y, x, edge)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		// Encoding an in-memory RGBA cannot realistically fail; return
		// an empty image rather than propagate.
		logging.Error("Failed to encode placeholder", zap.Error(err))
		return nil
	}
	return buf.Bytes()
}
