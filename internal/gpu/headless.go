package gpu

import (
	"fmt"
	"image"
	"sync"
)

// Headless is a backend without a graphics context. It hands out increasing tokens
// and keeps a copy of every texture for inspection.
type Headless struct {
	mu     sync.Mutex
	next   Handle
	images map[Handle]*image.NRGBA
}

// NewHeadless returns a new headless backend. Handle 0 is never issued.
func NewHeadless() *Headless {
	return &Headless{
		next:   1,
		images: make(map[Handle]*image.NRGBA),
	}
}

// Upload stores a copy of the pixel data and returns a new handle.
func (h *Headless) Upload(width, height int, rgba []byte) (Handle, error) {
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("invalid texture dimensions %dx%d", width, height)
	}
	if len(rgba) != 4*width*height {
		return 0, fmt.Errorf("pixel data size %d does not match dimensions %dx%d", len(rgba), width, height)
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	copy(img.Pix, rgba)

	h.mu.Lock()
	defer h.mu.Unlock()
	handle := h.next
	h.next++
	h.images[handle] = img
	return handle, nil
}

// Delete forgets the texture.
func (h *Headless) Delete(handle Handle) {
	h.mu.Lock()
	delete(h.images, handle)
	h.mu.Unlock()
}

// Image returns the stored copy of the texture.
func (h *Headless) Image(handle Handle) (*image.NRGBA, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	img, ok := h.images[handle]
	return img, ok
}

// Len returns the number of live textures.
func (h *Headless) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.images)
}
