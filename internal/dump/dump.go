// Package dump exports the textures of reported slots as webp images.
package dump

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/texpool/internal/gpu"
	"github.com/retroenv/texpool/internal/report"
	"golang.org/x/image/draw"
)

// DefaultMaxEdge is the longest edge of exported images if none is configured.
const DefaultMaxEdge = 256

// Dumper writes slot textures to a directory.
type Dumper struct {
	logger  *log.Logger
	images  gpu.Imager
	dir     string
	maxEdge int
}

// New returns a dumper that reads texture images from the backend. Larger images are
// scaled down so that their longest edge is maxEdge, 0 selects the default.
func New(logger *log.Logger, images gpu.Imager, dir string, maxEdge int) *Dumper {
	if maxEdge <= 0 {
		maxEdge = DefaultMaxEdge
	}
	return &Dumper{
		logger:  logger,
		images:  images,
		dir:     dir,
		maxEdge: maxEdge,
	}
}

// Write exports every row as <address>_<texture>.webp and returns the number of
// written files. Rows of the same texture handle share one decoded image.
func (d *Dumper) Write(rows []report.Row) (int, error) {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return 0, fmt.Errorf("creating dump directory: %w", err)
	}

	scaled := map[gpu.Handle]image.Image{}
	written := 0
	for _, row := range rows {
		img, ok := scaled[row.Handle]
		if !ok {
			src, found := d.images.Image(row.Handle)
			if !found {
				d.logger.Warn("Texture image not available",
					log.String("name", row.Name()),
					log.Hex("handle", uint64(row.Handle)))
				continue
			}
			img = Thumbnail(src, d.maxEdge)
			scaled[row.Handle] = img
		}

		path := filepath.Join(d.dir, FileName(row))
		if err := writeWebp(path, img); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

// FileName returns the export file name of the row.
func FileName(row report.Row) string {
	name := strings.NewReplacer("/", "_", "\\", "_", " ", "_").Replace(row.Name())
	if row.Paired {
		return fmt.Sprintf("%04x_paired_%s.webp", row.Addr, name)
	}
	return fmt.Sprintf("%04x_%s.webp", row.Addr, name)
}

// Thumbnail returns the image scaled down to fit into a square of the given edge
// length, keeping the aspect ratio. Smaller images are returned unchanged.
func Thumbnail(src image.Image, maxEdge int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxEdge && h <= maxEdge {
		return src
	}

	if w >= h {
		h = max(1, h*maxEdge/w)
		w = maxEdge
	} else {
		w = max(1, w*maxEdge/h)
		h = maxEdge
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

func writeWebp(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file '%s': %w", path, err)
	}

	if err := nativewebp.Encode(f, img, nil); err != nil {
		_ = f.Close()
		return fmt.Errorf("encoding '%s': %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing file '%s': %w", path, err)
	}
	return nil
}
