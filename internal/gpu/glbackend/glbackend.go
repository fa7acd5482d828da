// Package glbackend implements the gpu backend on top of an OpenGL 3.2 core context.
//
// All methods issue GL calls and must run on the goroutine that owns the context.
package glbackend

import (
	"fmt"
	"image"

	"github.com/go-gl/gl/v3.2-core/gl"
	"github.com/retroenv/texpool/internal/gpu"
)

// Backend creates GL textures.
type Backend struct{}

// New initialises the GL function pointers of the current context.
func New() (*Backend, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("initializing OpenGL: %w", err)
	}
	return &Backend{}, nil
}

// Upload creates a texture from RGBA pixel data. The handle is the GL texture name.
func (b *Backend) Upload(width, height int, rgba []byte) (gpu.Handle, error) {
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("invalid texture dimensions %dx%d", width, height)
	}
	if len(rgba) != 4*width*height {
		return 0, fmt.Errorf("pixel data size %d does not match dimensions %dx%d", len(rgba), width, height)
	}

	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.TexImage2D(gl.TEXTURE_2D, 0,
		gl.RGBA, int32(width), int32(height), 0,
		gl.RGBA, gl.UNSIGNED_BYTE,
		gl.Ptr(rgba))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if errCode := gl.GetError(); errCode != gl.NO_ERROR {
		gl.DeleteTextures(1, &id)
		return 0, fmt.Errorf("uploading texture: GL error 0x%04x", errCode)
	}
	return gpu.Handle(id), nil
}

// Delete releases the GL texture.
func (b *Backend) Delete(handle gpu.Handle) {
	id := uint32(handle)
	gl.DeleteTextures(1, &id)
}

// Image reads the texture back from the GPU.
func (b *Backend) Image(handle gpu.Handle) (*image.NRGBA, bool) {
	id := uint32(handle)
	if !gl.IsTexture(id) {
		return nil, false
	}

	var width, height int32
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.GetTexLevelParameteriv(gl.TEXTURE_2D, 0, gl.TEXTURE_WIDTH, &width)
	gl.GetTexLevelParameteriv(gl.TEXTURE_2D, 0, gl.TEXTURE_HEIGHT, &height)
	if width == 0 || height == 0 {
		gl.BindTexture(gl.TEXTURE_2D, 0)
		return nil, false
	}

	img := image.NewNRGBA(image.Rect(0, 0, int(width), int(height)))
	gl.GetTexImage(gl.TEXTURE_2D, 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return img, true
}
