package texpool

import (
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/texpool/internal/goaltex"
	"github.com/retroenv/texpool/internal/gpu"
	"github.com/retroenv/texpool/internal/registry"
)

const testPlaceholder gpu.Handle = 1

func newTestPool(t *testing.T) *Pool {
	t.Helper()
	return New(log.NewTestLogger(t), Config{Placeholder: testPlaceholder})
}

func input(name string, handle gpu.Handle) Input {
	return Input{
		Name:     name,
		PageName: "lvl-",
		Handle:   handle,
		Data:     make([]byte, 4*8*8),
		W:        8,
		H:        8,
		ComboID:  registry.UnknownComboID,
	}
}

func TestRegister(t *testing.T) {
	p := newTestPool(t)

	tex := p.Register(input("lvl-a", 10))
	assert.Len(t, p.Instances(tex), 1)
	assert.False(t, tex.IsPlaceholder())
	assert.Equal(t, 4*8*8, tex.DataSize())

	second := input("lvl-a", 11)
	second.W = 16
	second.ComboID = 0x10002
	again := p.Register(second)
	assert.True(t, tex == again)
	assert.Len(t, p.Instances(tex), 2)

	meta, ok := tex.Meta()
	assert.True(t, ok)
	assert.Equal(t, uint16(8), meta.W)
	assert.Equal(t, registry.UnknownComboID, meta.ComboID)

	canonical, ok := tex.Canonical()
	assert.True(t, ok)
	assert.Equal(t, gpu.Handle(10), canonical.Handle)
}

func TestLookupUntouched(t *testing.T) {
	p := newTestPool(t)
	p.Register(input("lvl-a", 10))

	_, ok := p.Lookup(100)
	assert.False(t, ok)
	assert.True(t, p.LookupIdentity(100) == nil)
	_, ok = p.LookupPaired(100)
	assert.False(t, ok)
	_, ok = p.Lookup(1 << 30)
	assert.False(t, ok)
}

func TestRegisterAndBind(t *testing.T) {
	p := newTestPool(t)

	tex, err := p.RegisterAndBind(input("lvl-a", 10), 40)
	assert.NoError(t, err)
	handle, ok := p.Lookup(40)
	assert.True(t, ok)
	assert.Equal(t, gpu.Handle(10), handle)
	assert.True(t, p.LookupIdentity(40) == tex)
	assert.True(t, p.Slots(tex).Contains(40))

	_, err = p.RegisterAndBind(input("lvl-b", 11), 1<<20)
	assert.Error(t, err)
	_, ok = p.Texture("lvl-b")
	assert.False(t, ok)
}

func TestDetachFallsBackToPlaceholder(t *testing.T) {
	p := newTestPool(t)
	p.Register(input("lvl-a", 10))

	b := newMemBuilder()
	page := b.page(t, "lvl-", pagedTexture{name: "a", tex: pairedTexture(50)})
	assert.NoError(t, p.SimulateUpload(b.upload(page, ModeAll)))
	_, err := p.RegisterAndBind(input("lvl-a", 12), 60)
	assert.NoError(t, err)

	p.Detach("lvl-a", 99)
	handle, _ := p.Lookup(50)
	assert.Equal(t, gpu.Handle(10), handle)

	p.Detach("lvl-a", 10)
	handle, _ = p.Lookup(50)
	assert.Equal(t, gpu.Handle(12), handle)

	p.Detach("lvl-a", 12)
	for _, addr := range []uint32{50, 60} {
		handle, ok := p.Lookup(addr)
		assert.True(t, ok)
		assert.Equal(t, testPlaceholder, handle)
	}
	handle, ok := p.LookupPaired(50)
	assert.True(t, ok)
	assert.Equal(t, testPlaceholder, handle)

	tex, ok := p.Texture("lvl-a")
	assert.True(t, ok)
	assert.True(t, tex.IsPlaceholder())
	assert.True(t, tex.Data() == nil)
	assert.True(t, p.LookupIdentity(50) == tex)

	p.Detach("unknown", 10)
	assert.NoError(t, p.Verify())
}

func TestUploadAliasing(t *testing.T) {
	p := newTestPool(t)
	p.Register(input("lvl-a", 10))

	b := newMemBuilder()
	page := b.page(t, "lvl-",
		pagedTexture{name: "a", tex: mipTexture(2, 100, 200)},
		pagedTexture{name: "a", tex: mipTexture(1, 300)},
	)
	assert.NoError(t, p.SimulateUpload(b.upload(page, ModeAll)))

	for _, addr := range []uint32{100, 200, 300} {
		handle, ok := p.Lookup(addr)
		assert.True(t, ok)
		assert.Equal(t, gpu.Handle(10), handle)
	}
	tex, _ := p.Texture("lvl-a")
	assert.Len(t, p.Slots(tex), 3)
}

func TestUploadModes(t *testing.T) {
	// three mips: mip 0 is in segment 2, mip 1 in segment 1, mip 2 in segment 0
	tests := []struct {
		name     string
		mode     UploadMode
		index    int
		expected []uint32
	}{
		{name: "all", mode: ModeAll, expected: []uint32{300, 310, 320, 400}},
		{name: "far", mode: ModeFar, expected: []uint32{300}},
		{name: "near", mode: ModeNear, expected: []uint32{310, 320, 400}},
		{name: "segment 0", mode: ModeSegment0, expected: []uint32{320, 400}},
		{name: "single", mode: ModeSingle, index: 0, expected: []uint32{300, 310, 320}},
		{name: "single second", mode: ModeSingle, index: 1, expected: []uint32{400}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPool(t)
			b := newMemBuilder()
			page := b.page(t, "lvl-",
				pagedTexture{name: "a", tex: mipTexture(3, 300, 310, 320)},
				pagedTexture{name: "b", tex: mipTexture(1, 400)},
			)
			up := b.upload(page, tt.mode)
			up.Index = tt.index
			assert.NoError(t, p.SimulateUpload(up))

			var written []uint32
			p.EachSlot(func(addr uint32, handle gpu.Handle, tex *registry.Texture) {
				written = append(written, addr)
				assert.Equal(t, testPlaceholder, handle)
			})
			assert.Equal(t, tt.expected, written)
		})
	}
}

func TestUploadErrors(t *testing.T) {
	t.Run("unsupported mode", func(t *testing.T) {
		p := newTestPool(t)
		b := newMemBuilder()
		page := b.page(t, "lvl-", pagedTexture{name: "a", tex: mipTexture(1, 300)})

		err := p.SimulateUpload(b.upload(page, 5))
		assert.True(t, errors.Is(err, ErrUnsupportedMode))
		assert.Equal(t, 0, p.Stats().Slots)
	})

	t.Run("single index out of range", func(t *testing.T) {
		p := newTestPool(t)
		b := newMemBuilder()
		page := b.page(t, "lvl-", pagedTexture{name: "a", tex: mipTexture(1, 300)})

		up := b.upload(page, ModeSingle)
		up.Index = 1
		assert.Error(t, p.SimulateUpload(up))
	})

	t.Run("malformed page leaves pool untouched", func(t *testing.T) {
		p := newTestPool(t)
		b := newMemBuilder()
		page := b.page(t, "lvl-",
			pagedTexture{name: "a", tex: mipTexture(1, 300)},
			pagedTexture{name: "b", tex: mipTexture(1, 400)},
		)
		b.setTexturePtr(page, 1, uint32(len(b.mem)-8))

		assert.Error(t, p.SimulateUpload(b.upload(page, ModeAll)))
		_, ok := p.Lookup(300)
		assert.False(t, ok)
		assert.Equal(t, 0, p.Stats().Textures)
	})
}

func TestUploadSkipsEmptyAndInvalid(t *testing.T) {
	p := newTestPool(t)
	b := newMemBuilder()
	page := b.page(t, "lvl-",
		pagedTexture{empty: true},
		pagedTexture{name: "a", tex: mipTexture(2, 0xffff, 120)},
	)
	assert.NoError(t, p.SimulateUpload(b.upload(page, ModeAll)))

	var written []uint32
	p.EachSlot(func(addr uint32, _ gpu.Handle, _ *registry.Texture) {
		written = append(written, addr)
	})
	assert.Equal(t, []uint32{120}, written)
}

func TestPlaceholderPromotion(t *testing.T) {
	p := newTestPool(t)
	b := newMemBuilder()
	page := b.page(t, "lvl-", pagedTexture{name: "late", tex: mipTexture(1, 70)})
	assert.NoError(t, p.SimulateUpload(b.upload(page, ModeAll)))

	tex := p.LookupIdentity(70)
	assert.True(t, tex != nil)
	assert.Equal(t, "lvl-late", tex.Name())
	assert.Equal(t, "lvl-", tex.PageName())
	assert.True(t, tex.IsPlaceholder())
	_, ok := tex.Meta()
	assert.False(t, ok)

	in := input("lvl-late", 20)
	in.ComboID = 0x00050001
	p.Register(in)
	handle, _ := p.Lookup(70)
	assert.Equal(t, gpu.Handle(20), handle)
	meta, ok := tex.Meta()
	assert.True(t, ok)
	assert.Equal(t, uint32(0x00050001), meta.ComboID)
}

func TestSimulateCopy(t *testing.T) {
	p := newTestPool(t)
	a, err := p.RegisterAndBind(input("lvl-a", 10), 10)
	assert.NoError(t, err)

	assert.NoError(t, p.SimulateCopy(20, 10, 0))
	src, _ := p.Lookup(10)
	dst, _ := p.Lookup(20)
	assert.Equal(t, src, dst)
	assert.True(t, p.LookupIdentity(20) == a)

	// the source slot moves on, the destination keeps its own reference
	_, err = p.RegisterAndBind(input("lvl-b", 11), 10)
	assert.NoError(t, err)
	assert.False(t, p.Slots(a).Contains(10))
	assert.True(t, p.Slots(a).Contains(20))

	p.Detach("lvl-a", 10)
	handle, _ := p.Lookup(20)
	assert.Equal(t, testPlaceholder, handle)
	handle, _ = p.Lookup(10)
	assert.Equal(t, gpu.Handle(11), handle)

	p.Register(input("lvl-a", 12))
	handle, _ = p.Lookup(20)
	assert.Equal(t, gpu.Handle(12), handle)

	err = p.SimulateCopy(30, 500, 0)
	assert.True(t, errors.Is(err, ErrUntouchedSource))
	_, ok := p.Lookup(30)
	assert.False(t, ok)

	assert.Error(t, p.SimulateCopy(1<<20, 10, 0))
	assert.NoError(t, p.Verify())
}

func TestUnloadOrder(t *testing.T) {
	tests := []struct {
		name  string
		order []gpu.Handle
	}{
		{name: "first level first", order: []gpu.Handle{10, 11}},
		{name: "second level first", order: []gpu.Handle{11, 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPool(t)
			_, err := p.RegisterAndBind(input("lvl-a", 10), 5)
			assert.NoError(t, err)
			p.Register(input("lvl-a", 11))

			p.Detach("lvl-a", tt.order[0])
			handle, _ := p.Lookup(5)
			assert.Equal(t, tt.order[1], handle)

			p.Detach("lvl-a", tt.order[1])
			handle, _ = p.Lookup(5)
			assert.Equal(t, testPlaceholder, handle)
			assert.NoError(t, p.Verify())
		})
	}
}

func TestPairedUpload(t *testing.T) {
	p := newTestPool(t)
	p.Register(input("lvl-a", 10))
	p.Register(input("lvl-b", 11))

	b := newMemBuilder()
	paired := b.page(t, "lvl-", pagedTexture{name: "a", tex: pairedTexture(80)})
	assert.NoError(t, p.SimulateUpload(b.upload(paired, ModeAll)))

	handle, ok := p.Lookup(80)
	assert.True(t, ok)
	assert.Equal(t, gpu.Handle(10), handle)
	handle, ok = p.LookupPaired(80)
	assert.True(t, ok)
	assert.Equal(t, gpu.Handle(10), handle)

	// a regular upload to the same address does not touch the side table
	regular := b.page(t, "lvl-", pagedTexture{name: "b", tex: mipTexture(1, 80)})
	assert.NoError(t, p.SimulateUpload(b.upload(regular, ModeAll)))

	handle, _ = p.Lookup(80)
	assert.Equal(t, gpu.Handle(11), handle)
	handle, _ = p.LookupPaired(80)
	assert.Equal(t, gpu.Handle(10), handle)

	a, _ := p.Texture("lvl-a")
	assert.True(t, p.LookupPairedIdentity(80) == a)
	assert.False(t, p.Slots(a).Contains(80))
	assert.True(t, p.PairedSlots(a).Contains(80))
	assert.NoError(t, p.Verify())
}

func TestPairedUploadStacked(t *testing.T) {
	low := mipTexture(1, 80)
	low.PSM = uint8(goaltex.PSMT4HL)
	high := pairedTexture(80)

	tests := []struct {
		name     string
		textures []pagedTexture
	}{
		{name: "low first", textures: []pagedTexture{{name: "low", tex: low}, {name: "high", tex: high}}},
		{name: "high first", textures: []pagedTexture{{name: "high", tex: high}, {name: "low", tex: low}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPool(t)
			p.Register(input("lvl-low", 10))
			p.Register(input("lvl-high", 11))

			b := newMemBuilder()
			page := b.page(t, "lvl-", tt.textures...)
			assert.NoError(t, p.SimulateUpload(b.upload(page, ModeAll)))

			handle, ok := p.Lookup(80)
			assert.True(t, ok)
			assert.Equal(t, gpu.Handle(10), handle)
			handle, ok = p.LookupPaired(80)
			assert.True(t, ok)
			assert.Equal(t, gpu.Handle(11), handle)

			highTex, _ := p.Texture("lvl-high")
			assert.False(t, p.Slots(highTex).Contains(80))
			assert.NoError(t, p.Verify())
		})
	}
}

func TestCopyPairedKeepsPrimary(t *testing.T) {
	p := newTestPool(t)
	p.Register(input("lvl-a", 10))
	_, err := p.RegisterAndBind(input("lvl-b", 11), 81)
	assert.NoError(t, err)

	b := newMemBuilder()
	page := b.page(t, "lvl-", pagedTexture{name: "a", tex: pairedTexture(80)})
	assert.NoError(t, p.SimulateUpload(b.upload(page, ModeAll)))

	assert.NoError(t, p.SimulateCopy(81, 80, goaltex.PSMT4HH))
	handle, _ := p.Lookup(81)
	assert.Equal(t, gpu.Handle(11), handle)
	handle, _ = p.LookupPaired(81)
	assert.Equal(t, gpu.Handle(10), handle)

	// a regular copy still redirects the primary slot
	assert.NoError(t, p.SimulateCopy(81, 80, goaltex.PSMT4HL))
	handle, _ = p.Lookup(81)
	assert.Equal(t, gpu.Handle(10), handle)
	assert.NoError(t, p.Verify())
}

func TestCopyPaired(t *testing.T) {
	p := newTestPool(t)
	p.Register(input("lvl-a", 10))
	_, err := p.RegisterAndBind(input("lvl-b", 11), 90)
	assert.NoError(t, err)

	b := newMemBuilder()
	page := b.page(t, "lvl-", pagedTexture{name: "a", tex: pairedTexture(80)})
	assert.NoError(t, p.SimulateUpload(b.upload(page, ModeAll)))

	assert.NoError(t, p.SimulateCopy(81, 80, goaltex.PSMT4HH))
	handle, _ := p.LookupPaired(81)
	assert.Equal(t, gpu.Handle(10), handle)

	// without a paired source entry the primary source is used
	assert.NoError(t, p.SimulateCopy(91, 90, goaltex.PSMT4HH))
	handle, _ = p.LookupPaired(91)
	assert.Equal(t, gpu.Handle(11), handle)

	assert.NoError(t, p.SimulateCopy(92, 80, 0))
	_, ok := p.LookupPaired(92)
	assert.False(t, ok)
	assert.NoError(t, p.Verify())
}

func TestBindExisting(t *testing.T) {
	p := newTestPool(t)
	sky := p.Register(input("sky", 30))

	assert.NoError(t, p.BindSky(sky))
	for _, addr := range SkyTextureAddrs {
		handle, ok := p.Lookup(addr)
		assert.True(t, ok)
		assert.Equal(t, gpu.Handle(30), handle)
	}

	assert.NoError(t, p.BindExisting(sky, 7))
	assert.True(t, p.LookupIdentity(7) == sky)

	other := newTestPool(t)
	foreign := other.Register(input("sky", 31))
	err := p.BindExisting(foreign, 8)
	assert.True(t, errors.Is(err, ErrUnknownTexture))
	err = p.BindExisting(nil, 8)
	assert.True(t, errors.Is(err, ErrUnknownTexture))
	assert.Error(t, p.BindExisting(sky, 1<<20))
}

func TestDetachCommon(t *testing.T) {
	p := newTestPool(t)
	in := input("common-font", 40)
	in.Common = true
	_, err := p.RegisterAndBind(in, 3)
	assert.NoError(t, err)

	p.Detach("common-font", 40)
	handle, _ := p.Lookup(3)
	assert.Equal(t, testPlaceholder, handle)
}

func TestStats(t *testing.T) {
	p := newTestPool(t)
	_, err := p.RegisterAndBind(input("lvl-a", 10), 1)
	assert.NoError(t, err)
	p.Register(input("lvl-a", 11))

	b := newMemBuilder()
	page := b.page(t, "lvl-", pagedTexture{name: "missing", tex: pairedTexture(2)})
	assert.NoError(t, p.SimulateUpload(b.upload(page, ModeAll)))

	assert.Equal(t, Stats{
		Textures:     2,
		Placeholders: 1,
		Instances:    2,
		Slots:        2,
		PairedSlots:  1,
	}, p.Stats())
}
