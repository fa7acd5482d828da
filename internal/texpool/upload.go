package texpool

import (
	"fmt"

	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/texpool/internal/goaltex"
	"github.com/retroenv/texpool/internal/vram"
)

// UploadMode selects which part of a texture page an upload transfers.
type UploadMode int

// Upload modes. The page modes select segments the same way the game does, the
// near segments hold the high resolution mips.
const (
	ModeNear     UploadMode = -2 // segments 0 and 1
	ModeAll      UploadMode = -1 // all segments
	ModeSegment0 UploadMode = 0  // segment 0
	ModeSingle   UploadMode = 1  // all mips of the texture at Upload.Index
	ModeFar      UploadMode = 2  // segment 2
)

func (m UploadMode) String() string {
	switch m {
	case ModeNear:
		return "near"
	case ModeAll:
		return "all"
	case ModeSegment0:
		return "segment0"
	case ModeSingle:
		return "single"
	case ModeFar:
		return "far"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// segments returns the page segments that the mode transfers.
func (m UploadMode) segments() ([goaltex.NumSegments]bool, error) {
	switch m {
	case ModeAll, ModeSingle:
		return [goaltex.NumSegments]bool{true, true, true}, nil
	case ModeNear:
		return [goaltex.NumSegments]bool{true, true, false}, nil
	case ModeSegment0:
		return [goaltex.NumSegments]bool{true, false, false}, nil
	case ModeFar:
		return [goaltex.NumSegments]bool{false, false, true}, nil
	default:
		return [goaltex.NumSegments]bool{}, fmt.Errorf("%w: %d", ErrUnsupportedMode, int(m))
	}
}

// Upload describes a texture page upload done by the game.
type Upload struct {
	Memory   []byte // simulated main memory
	Page     uint32 // pointer to the texture page
	Mode     UploadMode
	Index    int    // texture index for ModeSingle
	Sentinel uint32 // pointer value of page entries without texture
}

// uploadTarget is a texture destination resolved from the page descriptors.
type uploadTarget struct {
	name     string
	pageName string
	addr     uint32
	paired   bool
}

// SimulateUpload replays a texture page upload. Every destination address of the
// transferred mips is pointed at the texture with the combined page and texture name.
// Textures the loader did not provide yet are created as placeholders.
//
// A paired format texture is stacked on the texture at its address: it always goes
// to the side table and only takes the primary slot while that is untouched.
//
// The page is decoded completely before the pool is changed, a malformed page
// leaves the pool untouched.
func (p *Pool) SimulateUpload(up Upload) error {
	targets, err := p.decodeUpload(up)
	if err != nil {
		p.logger.Warn("Ignoring texture upload",
			log.Hex("page", up.Page),
			log.Stringer("mode", up.Mode),
			log.Err(err))
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, target := range targets {
		tex, created := p.registry.GetOrCreate(target.name, target.pageName)
		if created {
			p.logger.Debug("Creating placeholder for texture without data",
				log.String("name", target.name),
				log.Hex("address", target.addr))
		}

		handle := tex.CanonicalHandle(p.placeholder)
		if target.paired {
			p.writePaired(target.addr, tex, handle)
			if !p.primaryFree(target.addr, tex) {
				continue
			}
		}
		if err := p.writeSlot(target.addr, tex, handle); err != nil {
			return fmt.Errorf("writing slot for '%s': %w", target.name, err)
		}
	}
	return nil
}

func (p *Pool) decodeUpload(up Upload) ([]uploadTarget, error) {
	segments, err := up.Mode.segments()
	if err != nil {
		return nil, err
	}

	page, err := goaltex.DecodePage(up.Memory, up.Page)
	if err != nil {
		return nil, err
	}
	pageName, err := goaltex.ReadString(up.Memory, page.NamePtr)
	if err != nil {
		return nil, fmt.Errorf("reading page name: %w", err)
	}

	first, last := 0, int(page.Length)
	if up.Mode == ModeSingle {
		if up.Index < 0 || up.Index >= int(page.Length) {
			return nil, fmt.Errorf("texture index %d out of range, page '%s' has %d textures",
				up.Index, pageName, page.Length)
		}
		first, last = up.Index, up.Index+1
	}

	var targets []uploadTarget
	for idx := first; idx < last; idx++ {
		tex, ok, err := page.TryTexture(up.Memory, up.Page, idx, up.Sentinel)
		if err != nil {
			return nil, fmt.Errorf("texture %d of page '%s': %w", idx, pageName, err)
		}
		if !ok {
			continue
		}

		texName, err := goaltex.ReadString(up.Memory, tex.NamePtr)
		if err != nil {
			return nil, fmt.Errorf("reading name of texture %d of page '%s': %w", idx, pageName, err)
		}

		numMips := min(int(tex.NumMips), goaltex.MaxMips)
		for mip := range numMips {
			segment := tex.SegmentOfMip(mip)
			if segment < 0 || segment >= goaltex.NumSegments || !segments[segment] {
				continue
			}

			addr := uint32(tex.Dest[mip])
			if !vram.Valid(addr) {
				p.logger.Warn("Skipping texture destination outside of vram",
					log.String("name", pageName+texName),
					log.Int("mip", mip),
					log.Hex("address", addr))
				continue
			}

			targets = append(targets, uploadTarget{
				name:     pageName + texName,
				pageName: pageName,
				addr:     addr,
				paired:   goaltex.PSM(tex.PSM).IsPaired(),
			})
		}
	}
	return targets, nil
}
