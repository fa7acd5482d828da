package registry

import (
	"sort"

	"github.com/retroenv/texpool/internal/gpu"
)

// Registry maps combined texture names to texture identities.
// It is not safe for concurrent use, the texture pool serializes access.
type Registry struct {
	byName map[string]*Texture
	all    []*Texture // indexed by ID, append only
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		byName: make(map[string]*Texture),
	}
}

// Get returns the texture with the given combined name.
func (r *Registry) Get(name string) (*Texture, bool) {
	tex, ok := r.byName[name]
	return tex, ok
}

// GetOrCreate returns the texture with the given combined name, creating a
// placeholder identity if it does not exist yet.
func (r *Registry) GetOrCreate(name, pageName string) (*Texture, bool) {
	if tex, ok := r.byName[name]; ok {
		return tex, false
	}

	tex := newTexture(ID(len(r.all)), name, pageName)
	r.byName[name] = tex
	r.all = append(r.all, tex)
	return tex, true
}

// ByID returns the texture with the given ID.
func (r *Registry) ByID(id ID) (*Texture, bool) {
	if int(id) >= len(r.all) {
		return nil, false
	}
	return r.all[id], true
}

// Len returns the number of known identities.
func (r *Registry) Len() int {
	return len(r.all)
}

// All returns all identities sorted by name.
func (r *Registry) All() []*Texture {
	textures := append([]*Texture(nil), r.all...)
	sort.Slice(textures, func(i, j int) bool {
		return textures[i].name < textures[j].name
	})
	return textures
}

// Attach appends a loaded instance to the texture. Instances are not compared, equal
// names are assumed to always carry equal data. The static properties are set by the
// first attach only.
func (r *Registry) Attach(tex *Texture, inst Instance, meta Meta) {
	if tex.meta.Load() == nil {
		tex.meta.Store(&meta)
	}
	tex.instances = append(tex.instances, inst)
	tex.publish()
}

// Detach removes the first instance that uses the handle. It returns false if no
// instance matched. A texture that loses its last instance stays registered as
// placeholder so that the addresses referring to it remain reachable.
func (r *Registry) Detach(tex *Texture, handle gpu.Handle) bool {
	for i, existing := range tex.instances {
		if existing.Handle != handle {
			continue
		}
		tex.instances = append(tex.instances[:i], tex.instances[i+1:]...)
		tex.publish()
		return true
	}
	return false
}

// AddSlot records a VRAM address that refers to the texture.
func (r *Registry) AddSlot(tex *Texture, addr uint32) {
	tex.slots.Add(addr)
}

// RemoveSlot forgets a VRAM address of the texture.
func (r *Registry) RemoveSlot(tex *Texture, addr uint32) {
	tex.slots.Remove(addr)
}

// AddPairedSlot records a paired format address that refers to the texture.
func (r *Registry) AddPairedSlot(tex *Texture, addr uint32) {
	tex.pairedSlots.Add(addr)
}

// RemovePairedSlot forgets a paired format address of the texture.
func (r *Registry) RemovePairedSlot(tex *Texture, addr uint32) {
	tex.pairedSlots.Remove(addr)
}
