// Package texpool implements the texture pool that maps the simulated VRAM address
// space to graphics texture handles.
//
// Two actors mutate the pool: the level loader registers and detaches texture data,
// the game simulation replays uploads and copies inside VRAM. Both are serialized by
// a single lock. Renderers only call the lookup functions, which never lock: a slot
// is replaced as a whole and never becomes untouched again, so a lookup racing with a
// mutation returns either the old or the new handle, and both were valid.
package texpool

import (
	"errors"
	"sync"

	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrogolib/set"
	"github.com/retroenv/texpool/internal/gpu"
	"github.com/retroenv/texpool/internal/registry"
	"github.com/retroenv/texpool/internal/vram"
)

// SkyTextureAddrs are the VRAM addresses of the sky and cloud textures, which are
// rendered to texture instead of being loaded.
var SkyTextureAddrs = [2]uint32{8064, 8096}

var (
	// ErrUntouchedSource is returned when copying from a slot that was never written.
	ErrUntouchedSource = errors.New("copy source slot was never written")
	// ErrUnknownTexture is returned when binding a texture that is not registered.
	ErrUnknownTexture = errors.New("texture is not registered")
	// ErrUnsupportedMode is returned for unknown upload modes.
	ErrUnsupportedMode = errors.New("unsupported upload mode")
)

// Config of the pool.
type Config struct {
	Placeholder gpu.Handle // handle used for textures without loaded data
}

// Input describes a texture provided by the loader.
type Input struct {
	Name     string // combined page and texture name
	PageName string
	Handle   gpu.Handle
	Data     []byte // RGBA pixel data, owned by the loader
	W        uint16
	H        uint16
	ComboID  uint32
	Common   bool
}

// Pool is the texture pool.
type Pool struct {
	logger      *log.Logger
	placeholder gpu.Handle

	mu       sync.Mutex // serializes all mutations
	registry *registry.Registry
	slots    *vram.Table
	paired   vram.PairedTable
}

// New creates an empty pool.
func New(logger *log.Logger, cfg Config) *Pool {
	return &Pool{
		logger:      logger,
		placeholder: cfg.Placeholder,
		registry:    registry.New(),
		slots:       &vram.Table{},
	}
}

// Placeholder returns the handle used for textures without loaded data.
func (p *Pool) Placeholder() gpu.Handle {
	return p.placeholder
}

// Lookup returns the handle for the VRAM address, false if the game never wrote
// to it.
func (p *Pool) Lookup(addr uint32) (gpu.Handle, bool) {
	e, ok := p.slots.Get(addr)
	if !ok {
		return 0, false
	}
	if verifyLookups {
		p.verifyLookup(addr, e)
	}
	return e.Handle, true
}

// LookupIdentity returns the texture at the VRAM address, nil if the game never
// wrote to it.
func (p *Pool) LookupIdentity(addr uint32) *registry.Texture {
	e, ok := p.slots.Get(addr)
	if !ok {
		return nil
	}
	return e.Source
}

// LookupPaired returns the handle of the paired format texture at the address.
func (p *Pool) LookupPaired(addr uint32) (gpu.Handle, bool) {
	e, ok := p.paired.Get(addr)
	if !ok {
		return 0, false
	}
	return e.Handle, true
}

// LookupPairedIdentity returns the paired format texture at the address.
func (p *Pool) LookupPairedIdentity(addr uint32) *registry.Texture {
	e, ok := p.paired.Get(addr)
	if !ok {
		return nil
	}
	return e.Source
}

// Texture returns the registered texture with the given combined name.
func (p *Pool) Texture(name string) (*registry.Texture, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.registry.Get(name)
}

// Instances returns a copy of the loaded instances of the texture.
func (p *Pool) Instances(tex *registry.Texture) []registry.Instance {
	p.mu.Lock()
	defer p.mu.Unlock()
	return tex.Instances()
}

// Slots returns a copy of the VRAM addresses that refer to the texture.
func (p *Pool) Slots(tex *registry.Texture) set.Set[uint32] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return tex.Slots()
}

// PairedSlots returns a copy of the paired format addresses that refer to the texture.
func (p *Pool) PairedSlots(tex *registry.Texture) set.Set[uint32] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return tex.PairedSlots()
}

// EachSlot calls fn for every written VRAM slot in address order.
func (p *Pool) EachSlot(fn func(addr uint32, handle gpu.Handle, tex *registry.Texture)) {
	p.slots.Each(func(addr uint32, e vram.Entry) {
		fn(addr, e.Handle, e.Source)
	})
}

// EachPaired calls fn for every paired format slot.
func (p *Pool) EachPaired(fn func(addr uint32, handle gpu.Handle, tex *registry.Texture)) {
	for _, e := range p.paired.Entries() {
		fn(e.Addr, e.Handle, e.Source)
	}
}

// Stats contains counters of the pool state.
type Stats struct {
	Textures     int // known identities
	Placeholders int // identities without loaded instances
	Instances    int
	Slots        int // written VRAM slots
	PairedSlots  int
}

// Stats returns the current counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	var s Stats
	for _, tex := range p.registry.All() {
		s.Textures++
		n := len(tex.Instances())
		s.Instances += n
		if n == 0 {
			s.Placeholders++
		}
	}
	p.slots.Each(func(uint32, vram.Entry) {
		s.Slots++
	})
	s.PairedSlots = len(p.paired.Entries())
	return s
}
