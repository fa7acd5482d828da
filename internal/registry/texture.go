// Package registry tracks every unique texture identity together with its loaded
// instances and the VRAM addresses that currently refer to it.
package registry

import (
	"sync/atomic"

	"github.com/retroenv/retrogolib/set"
	"github.com/retroenv/texpool/internal/gpu"
)

// ID is the stable identifier of a texture identity. IDs are never reused.
type ID uint32

// UnknownComboID is used when the loader does not know the page and index of a texture.
const UnknownComboID = ^uint32(0)

// Instance is one loaded copy of a texture.
type Instance struct {
	Handle gpu.Handle
	Data   []byte // RGBA pixel data, owned by the loader
}

// Meta contains the static properties of a texture identity.
type Meta struct {
	W       uint16
	H       uint16
	ComboID uint32 // texture page id in the upper 16 bits, texture index in the lower
	Common  bool   // part of the always loaded common textures
}

// Texture is a unique in-game texture, identified by its combined page and texture name.
// A texture without instances is a placeholder.
//
// Name, PageName, Meta, Canonical and IsPlaceholder can be called without holding the
// pool lock, everything else is owned by the pool.
type Texture struct {
	id       ID
	name     string
	pageName string

	meta      atomic.Pointer[Meta]
	canonical atomic.Pointer[Instance]

	instances   []Instance
	slots       set.Set[uint32]
	pairedSlots set.Set[uint32]
}

func newTexture(id ID, name, pageName string) *Texture {
	return &Texture{
		id:          id,
		name:        name,
		pageName:    pageName,
		slots:       set.New[uint32](),
		pairedSlots: set.New[uint32](),
	}
}

// ID returns the stable identifier.
func (t *Texture) ID() ID {
	return t.id
}

// Name returns the combined name.
func (t *Texture) Name() string {
	return t.name
}

// PageName returns the name of the texture page, it can be empty.
func (t *Texture) PageName() string {
	return t.pageName
}

// Meta returns the static properties. ok is false as long as no loader has provided
// the texture.
func (t *Texture) Meta() (Meta, bool) {
	m := t.meta.Load()
	if m == nil {
		return Meta{}, false
	}
	return *m, true
}

// Canonical returns the instance used for lookups, false for placeholders.
func (t *Texture) Canonical() (Instance, bool) {
	inst := t.canonical.Load()
	if inst == nil {
		return Instance{}, false
	}
	return *inst, true
}

// IsPlaceholder returns whether no copy of the texture is loaded.
func (t *Texture) IsPlaceholder() bool {
	return t.canonical.Load() == nil
}

// Data returns the pixel data of the canonical instance, nil for placeholders.
func (t *Texture) Data() []byte {
	inst := t.canonical.Load()
	if inst == nil {
		return nil
	}
	return inst.Data
}

// DataSize returns the size of the RGBA data in bytes.
func (t *Texture) DataSize() int {
	m, _ := t.Meta()
	return 4 * int(m.W) * int(m.H)
}

// Instances returns a copy of the loaded instances, the first one is canonical.
func (t *Texture) Instances() []Instance {
	return append([]Instance(nil), t.instances...)
}

// Slots returns a copy of the VRAM addresses that refer to the texture.
func (t *Texture) Slots() set.Set[uint32] {
	return t.slots.Copy()
}

// PairedSlots returns a copy of the paired format addresses that refer to the texture.
func (t *Texture) PairedSlots() set.Set[uint32] {
	return t.pairedSlots.Copy()
}

// HasSlot returns whether the VRAM address is recorded as referring to the texture.
func (t *Texture) HasSlot(addr uint32) bool {
	return t.slots.Contains(addr)
}

// HasPairedSlot returns whether the paired format address is recorded as referring
// to the texture.
func (t *Texture) HasPairedSlot(addr uint32) bool {
	return t.pairedSlots.Contains(addr)
}

// CanonicalHandle returns the handle of the first instance or the given placeholder.
func (t *Texture) CanonicalHandle(placeholder gpu.Handle) gpu.Handle {
	if len(t.instances) == 0 {
		return placeholder
	}
	return t.instances[0].Handle
}

// HasHandle returns whether one of the loaded instances uses the handle.
func (t *Texture) HasHandle(handle gpu.Handle) bool {
	for _, inst := range t.instances {
		if inst.Handle == handle {
			return true
		}
	}
	return false
}

// publish makes the current first instance visible to lock free readers.
func (t *Texture) publish() {
	if len(t.instances) == 0 {
		t.canonical.Store(nil)
		return
	}
	inst := t.instances[0]
	t.canonical.Store(&inst)
}
