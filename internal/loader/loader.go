// Package loader streams level texture directories into the texture pool.
//
// A level is a directory below the texture root. Every image file of the level is one
// texture, files inside a subdirectory belong to the texture page named like the
// subdirectory, the combined name is the page name followed by the file base name.
// A base name can end in @<hex> to provide the combo id of the texture. The textures
// of the level named common are flagged as common.
package loader

import (
	"errors"
	"fmt"
	"image"
	_ "image/png" // register png decoder
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	_ "github.com/ftrvxmtrx/tga" // register tga decoder
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/texpool/internal/gpu"
	"github.com/retroenv/texpool/internal/registry"
	"github.com/retroenv/texpool/internal/texpool"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register webp decoder
)

// CommonLevel is the name of the level that holds the always loaded textures.
const CommonLevel = "common"

var (
	// ErrLevelLoaded is returned when loading a level twice.
	ErrLevelLoaded = errors.New("level is already loaded")
	// ErrLevelNotLoaded is returned when unloading a level that is not loaded.
	ErrLevelNotLoaded = errors.New("level is not loaded")
)

var supportedExtensions = map[string]struct{}{
	".png":  {},
	".tga":  {},
	".webp": {},
}

// attachment is a texture instance that a level added to the pool.
type attachment struct {
	name   string
	handle gpu.Handle
}

// Loader loads and unloads levels.
type Loader struct {
	logger  *log.Logger
	backend gpu.Backend
	pool    *texpool.Pool
	root    string

	mu     sync.Mutex
	levels map[string][]attachment
}

// New returns a loader that reads levels from the root directory.
func New(logger *log.Logger, backend gpu.Backend, pool *texpool.Pool, root string) *Loader {
	return &Loader{
		logger:  logger,
		backend: backend,
		pool:    pool,
		root:    root,
		levels:  map[string][]attachment{},
	}
}

// Load decodes all textures of the level, uploads them and registers them in the
// pool. It returns the number of textures.
func (l *Loader) Load(level string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.levels[level]; ok {
		return 0, fmt.Errorf("loading '%s': %w", level, ErrLevelLoaded)
	}

	inputs, err := l.Read(level)
	if err != nil {
		return 0, err
	}

	attached := make([]attachment, 0, len(inputs))
	for _, in := range inputs {
		l.pool.Register(in)
		attached = append(attached, attachment{name: in.Name, handle: in.Handle})
	}
	l.levels[level] = attached

	l.logger.Info("Loaded level",
		log.String("level", level),
		log.Int("textures", len(inputs)))
	return len(inputs), nil
}

// Unload detaches every texture that the level added and releases the handles.
func (l *Loader) Unload(level string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	attached, ok := l.levels[level]
	if !ok {
		return fmt.Errorf("unloading '%s': %w", level, ErrLevelNotLoaded)
	}

	for _, a := range attached {
		l.pool.Detach(a.name, a.handle)
		l.backend.Delete(a.handle)
	}
	delete(l.levels, level)

	l.logger.Info("Unloaded level",
		log.String("level", level),
		log.Int("textures", len(attached)))
	return nil
}

// Loaded returns whether the level is loaded.
func (l *Loader) Loaded(level string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.levels[level]
	return ok
}

// Read decodes and uploads all textures of the level without registering them.
func (l *Loader) Read(level string) ([]texpool.Input, error) {
	dir := filepath.Join(l.root, level)
	common := level == CommonLevel

	var inputs []texpool.Input
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if _, ok := supportedExtensions[ext]; !ok {
			l.logger.Debug("Skipping non texture file", log.String("file", path))
			return nil
		}

		in, err := l.readTexture(dir, path)
		if err != nil {
			return err
		}
		in.Common = common
		inputs = append(inputs, in)
		return nil
	})
	if err != nil {
		l.deleteHandles(inputs)
		return nil, fmt.Errorf("reading level '%s': %w", level, err)
	}
	return inputs, nil
}

func (l *Loader) readTexture(dir, path string) (texpool.Input, error) {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return texpool.Input{}, fmt.Errorf("resolving texture path: %w", err)
	}
	pageName := filepath.Dir(rel)
	if pageName == "." {
		pageName = ""
	}

	base := filepath.Base(rel)
	texName, comboID, err := ParseFileName(strings.TrimSuffix(base, filepath.Ext(base)))
	if err != nil {
		return texpool.Input{}, fmt.Errorf("parsing file name '%s': %w", rel, err)
	}

	img, err := DecodeFile(path)
	if err != nil {
		return texpool.Input{}, err
	}
	bounds := img.Bounds()
	if bounds.Dx() > 0xffff || bounds.Dy() > 0xffff {
		return texpool.Input{}, fmt.Errorf("texture '%s' is too large: %dx%d", rel, bounds.Dx(), bounds.Dy())
	}

	handle, err := l.backend.Upload(bounds.Dx(), bounds.Dy(), img.Pix)
	if err != nil {
		return texpool.Input{}, fmt.Errorf("uploading texture '%s': %w", rel, err)
	}

	return texpool.Input{
		Name:     pageName + texName,
		PageName: pageName,
		Handle:   handle,
		Data:     img.Pix,
		W:        uint16(bounds.Dx()),
		H:        uint16(bounds.Dy()),
		ComboID:  comboID,
	}, nil
}

func (l *Loader) deleteHandles(inputs []texpool.Input) {
	for _, in := range inputs {
		l.backend.Delete(in.Handle)
	}
}

// ParseFileName splits a file base name into the texture name and the optional
// hex combo id suffix.
func ParseFileName(base string) (string, uint32, error) {
	name, combo, ok := strings.Cut(base, "@")
	if !ok {
		return base, registry.UnknownComboID, nil
	}
	if name == "" {
		return "", 0, errors.New("empty texture name")
	}

	id, err := strconv.ParseUint(combo, 16, 32)
	if err != nil {
		return "", 0, fmt.Errorf("parsing combo id '%s': %w", combo, err)
	}
	return name, uint32(id), nil
}

// DecodeFile decodes an image file into tightly packed RGBA data.
func DecodeFile(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening texture file: %w", err)
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding texture file '%s': %w", path, err)
	}
	return toNRGBA(img), nil
}

// toNRGBA converts the image to non premultiplied RGBA with the origin at 0,0 and
// no padding between rows.
func toNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	if n, ok := src.(*image.NRGBA); ok && b.Min == (image.Point{}) && n.Stride == 4*b.Dx() {
		return n
	}

	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
