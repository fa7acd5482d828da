//go:build texverify

package texpool

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/texpool/internal/gpu"
	"github.com/retroenv/texpool/internal/vram"
)

func TestVerifiedLookup(t *testing.T) {
	assert.True(t, verifyLookups)

	p := newTestPool(t)
	_, err := p.RegisterAndBind(input("lvl-a", 10), 5)
	assert.NoError(t, err)
	p.Register(input("lvl-a", 11))

	handle, ok := p.Lookup(5)
	assert.True(t, ok)
	assert.Equal(t, gpu.Handle(10), handle)

	p.Detach("lvl-a", 10)
	handle, _ = p.Lookup(5)
	assert.Equal(t, gpu.Handle(11), handle)

	p.Detach("lvl-a", 11)
	handle, _ = p.Lookup(5)
	assert.Equal(t, testPlaceholder, handle)

	p.Register(input("lvl-a", 12))
	handle, _ = p.Lookup(5)
	assert.Equal(t, gpu.Handle(12), handle)

	// a slot handle that belongs to no instance of its texture is a pool bug
	tex, _ := p.Texture("lvl-a")
	assert.NoError(t, p.slots.Set(5, vram.Entry{Handle: 99, Source: tex}))
	assert.Panics(t, func() {
		_, _ = p.Lookup(5)
	})
}
