package texpool

import (
	"fmt"

	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/texpool/internal/gpu"
	"github.com/retroenv/texpool/internal/registry"
	"github.com/retroenv/texpool/internal/vram"
)

// Register adds a loaded copy of a texture. Textures that the game already uploaded
// before their data was available stop being placeholders.
func (p *Pool) Register(in Input) *registry.Texture {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.register(in)
}

// RegisterAndBind registers the texture and puts it at the VRAM address, mirroring
// the boot time VRAM layout of the original hardware.
func (p *Pool) RegisterAndBind(in Input, addr uint32) (*registry.Texture, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !vram.Valid(addr) {
		return nil, fmt.Errorf("binding '%s': %w: 0x%x", in.Name, vram.ErrAddressRange, addr)
	}

	tex := p.register(in)
	if err := p.writeSlot(addr, tex, tex.CanonicalHandle(p.placeholder)); err != nil {
		return nil, fmt.Errorf("binding '%s': %w", in.Name, err)
	}
	return tex, nil
}

// Detach removes the loaded copy of the named texture that uses the handle. If it was
// the last copy all addresses referring to the texture fall back to the placeholder.
// They keep their reference, so registering the texture again restores them.
// Unknown names and handles are ignored.
func (p *Pool) Detach(name string, handle gpu.Handle) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tex, ok := p.registry.Get(name)
	if !ok {
		p.logger.Debug("Detaching unknown texture", log.String("name", name))
		return
	}
	if !p.registry.Detach(tex, handle) {
		p.logger.Debug("Detaching texture instance that is not attached",
			log.String("name", name),
			log.Hex("handle", uint64(handle)))
		return
	}

	if meta, _ := tex.Meta(); meta.Common {
		p.logger.Warn("Detaching common texture", log.String("name", name))
	}

	p.relink(tex)
}

func (p *Pool) register(in Input) *registry.Texture {
	tex, created := p.registry.GetOrCreate(in.Name, in.PageName)
	wasPlaceholder := !created && tex.IsPlaceholder()

	p.registry.Attach(tex,
		registry.Instance{Handle: in.Handle, Data: in.Data},
		registry.Meta{W: in.W, H: in.H, ComboID: in.ComboID, Common: in.Common})

	if wasPlaceholder {
		p.logger.Debug("Texture data arrived for placeholder",
			log.String("name", in.Name),
			log.Int("slots", len(tex.Slots())+len(tex.PairedSlots())))
	}

	p.relink(tex)
	return tex
}

// relink points every address that refers to the texture at its current canonical
// handle. It is the only place that changes slot handles without the caller naming
// the address.
func (p *Pool) relink(tex *registry.Texture) {
	handle := tex.CanonicalHandle(p.placeholder)
	for addr := range tex.Slots() {
		p.slots.SetHandle(addr, handle)
	}
	for addr := range tex.PairedSlots() {
		p.paired.SetHandle(addr, handle)
	}
}

// writeSlot points the VRAM slot at the texture, removing the slot from the texture
// that it referred to before.
func (p *Pool) writeSlot(addr uint32, tex *registry.Texture, handle gpu.Handle) error {
	prev, ok := p.slots.Get(addr)
	if err := p.slots.Set(addr, vram.Entry{Handle: handle, Source: tex}); err != nil {
		return err
	}

	if ok && prev.Source != tex {
		p.registry.RemoveSlot(prev.Source, addr)
		p.logger.Debug("Redirecting slot",
			log.Hex("address", addr),
			log.String("from", prev.Source.Name()),
			log.String("to", tex.Name()))
	}
	p.registry.AddSlot(tex, addr)
	return nil
}

// writePaired points the paired format slot at the texture.
func (p *Pool) writePaired(addr uint32, tex *registry.Texture, handle gpu.Handle) {
	prev, ok := p.paired.Set(addr, vram.Entry{Handle: handle, Source: tex})
	if ok && prev.Source != tex {
		p.registry.RemovePairedSlot(prev.Source, addr)
	}
	p.registry.AddPairedSlot(tex, addr)
}

// primaryFree returns whether a paired format write may also take the primary slot:
// the slot is untouched or already refers to the texture.
func (p *Pool) primaryFree(addr uint32, tex *registry.Texture) bool {
	e, ok := p.slots.Get(addr)
	return !ok || e.Source == tex
}
