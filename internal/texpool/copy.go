package texpool

import (
	"fmt"

	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/texpool/internal/goaltex"
	"github.com/retroenv/texpool/internal/registry"
	"github.com/retroenv/texpool/internal/vram"
)

// SimulateCopy replays a copy inside VRAM. Only the slot reference moves: the
// destination records its own back-reference to the source texture, later relinks of
// that texture update both addresses independently. The footprint is one block for
// every format.
//
// For the paired format the side table entry is copied, falling back to the primary
// source if the source address has no paired entry. The primary destination slot is
// then only written while it is untouched, like a paired upload.
func (p *Pool) SimulateCopy(dst, src uint32, format goaltex.PSM) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !vram.Valid(dst) || !vram.Valid(src) {
		return fmt.Errorf("copying 0x%x to 0x%x: %w", src, dst, vram.ErrAddressRange)
	}

	entry, ok := p.slots.Get(src)
	if !ok {
		p.logger.Warn("Copying from untouched slot",
			log.Hex("source", src),
			log.Hex("destination", dst))
		return fmt.Errorf("copying 0x%x to 0x%x: %w", src, dst, ErrUntouchedSource)
	}

	tex := entry.Source
	if format.IsPaired() {
		pairedTex := tex
		if pe, ok := p.paired.Get(src); ok {
			pairedTex = pe.Source
		}
		p.writePaired(dst, pairedTex, pairedTex.CanonicalHandle(p.placeholder))
		if !p.primaryFree(dst, tex) {
			return nil
		}
	}

	if err := p.writeSlot(dst, tex, tex.CanonicalHandle(p.placeholder)); err != nil {
		return fmt.Errorf("copying 0x%x to 0x%x: %w", src, dst, err)
	}
	return nil
}

// BindExisting points the VRAM slot at a registered texture. It is used for textures
// that are rendered instead of uploaded by the game.
func (p *Pool) BindExisting(tex *registry.Texture, addr uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bindExisting(tex, addr)
}

// BindSky points both sky texture addresses at the texture.
func (p *Pool) BindSky(tex *registry.Texture) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, addr := range SkyTextureAddrs {
		if err := p.bindExisting(tex, addr); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pool) bindExisting(tex *registry.Texture, addr uint32) error {
	if tex == nil {
		return fmt.Errorf("binding 0x%x: %w", addr, ErrUnknownTexture)
	}
	if known, ok := p.registry.Get(tex.Name()); !ok || known != tex {
		return fmt.Errorf("binding '%s': %w", tex.Name(), ErrUnknownTexture)
	}
	if err := p.writeSlot(addr, tex, tex.CanonicalHandle(p.placeholder)); err != nil {
		return fmt.Errorf("binding '%s': %w", tex.Name(), err)
	}
	return nil
}
