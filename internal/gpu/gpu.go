// Package gpu defines the graphics handle that the texture pool hands out to
// renderers and the backends that allocate them.
package gpu

import (
	"image"
	"image/color"
)

// Handle is an opaque graphics texture token. Its meaning is defined by the backend
// that created it, for OpenGL it is the texture name.
type Handle uint64

// Backend creates and releases graphics textures.
type Backend interface {
	// Upload creates a texture from RGBA pixel data of the given dimensions.
	Upload(width, height int, rgba []byte) (Handle, error)
	// Delete releases a texture.
	Delete(handle Handle)
}

// Imager is implemented by backends that keep a CPU side copy of their textures.
type Imager interface {
	Image(handle Handle) (*image.NRGBA, bool)
}

const (
	placeholderSize   = 16
	placeholderSquare = 4
)

var (
	placeholderDark  = color.NRGBA{R: 0xff, G: 0x00, B: 0xff, A: 0xff}
	placeholderLight = color.NRGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff}
)

// PlaceholderImage returns the checkerboard that is shown for textures that the game
// references before the loader provided their data.
func PlaceholderImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, placeholderSize, placeholderSize))
	for y := range placeholderSize {
		for x := range placeholderSize {
			c := placeholderLight
			if (x/placeholderSquare+y/placeholderSquare)%2 == 0 {
				c = placeholderDark
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// UploadPlaceholder uploads the placeholder checkerboard using the given backend.
func UploadPlaceholder(backend Backend) (Handle, error) {
	img := PlaceholderImage()
	return backend.Upload(img.Rect.Dx(), img.Rect.Dy(), img.Pix)
}
