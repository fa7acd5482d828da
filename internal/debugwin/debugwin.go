// Package debugwin implements an imgui window that lists the written VRAM slots of
// a texture pool. The window is drawn into the imgui frame of the host renderer,
// texture handles are used as imgui texture ids for the previews.
package debugwin

import (
	"fmt"

	"github.com/inkyblackness/imgui-go/v4"
	"github.com/retroenv/texpool/internal/registry"
	"github.com/retroenv/texpool/internal/report"
	"github.com/retroenv/texpool/internal/texpool"
)

const (
	windowTitle = "Texture Pool"
	numColumns  = 5
	previewSize = 128
)

// Window is the texture pool debug window.
type Window struct {
	pool *texpool.Pool
	open bool

	filterText string
	filter     report.Filter
	filterErr  error

	rows []report.Row
}

// New returns an open window for the pool.
func New(pool *texpool.Pool) *Window {
	return &Window{
		pool: pool,
		open: true,
	}
}

// Open returns whether the window is shown.
func (win *Window) Open() bool {
	return win.open
}

// SetOpen shows or hides the window.
func (win *Window) SetOpen(open bool) {
	win.open = open
}

// Draw draws the window, it has to be called between imgui.NewFrame and imgui.Render.
func (win *Window) Draw() {
	if !win.open {
		return
	}

	imgui.SetNextWindowSizeV(imgui.Vec2{X: 640, Y: 480}, imgui.ConditionFirstUseEver)
	if imgui.BeginV(windowTitle, &win.open, imgui.WindowFlagsNone) {
		win.draw()
	}
	imgui.End()
}

func (win *Window) draw() {
	text := win.filterText
	if imgui.InputText("Filter", &text) {
		win.SetFilter(text)
	}
	if win.filterErr != nil {
		imgui.Text(win.filterErr.Error())
	}

	win.refresh()
	imgui.Text(summary(win.rows))
	imgui.Spacing()

	if len(win.rows) == 0 {
		imgui.Text("No matching slots")
		return
	}

	flgs := imgui.TableFlagsScrollY
	flgs |= imgui.TableFlagsSizingFixedFit
	flgs |= imgui.TableFlagsRowBg
	if !imgui.BeginTableV("##texpoolSlots", numColumns, flgs, imgui.Vec2{}, 0.0) {
		return
	}
	defer imgui.EndTable()

	imgui.TableSetupColumnV("Address", imgui.TableColumnFlagsNone, 0, 0)
	imgui.TableSetupColumnV("Texture", imgui.TableColumnFlagsNone, 0, 1)
	imgui.TableSetupColumnV("Page", imgui.TableColumnFlagsNone, 0, 2)
	imgui.TableSetupColumnV("Handle", imgui.TableColumnFlagsNone, 0, 3)
	imgui.TableSetupColumnV("Flags", imgui.TableColumnFlagsNone, 0, 4)
	imgui.TableHeadersRow()

	// only draw rows that are visible
	var clipper imgui.ListClipper
	clipper.Begin(len(win.rows))
	for clipper.Step() {
		for i := clipper.DisplayStart; i < clipper.DisplayEnd; i++ {
			win.drawRow(win.rows[i])
		}
	}
}

func (win *Window) drawRow(row report.Row) {
	imgui.TableNextRow()

	imgui.TableNextColumn()
	imgui.Text(fmt.Sprintf("%04x", row.Addr))

	imgui.TableNextColumn()
	imgui.Text(row.Name())
	if imgui.IsItemHovered() {
		drawPreview(row)
	}

	imgui.TableNextColumn()
	imgui.Text(row.Texture.PageName())

	imgui.TableNextColumn()
	imgui.Text(fmt.Sprintf("%d", row.Handle))

	imgui.TableNextColumn()
	imgui.Text(flags(row))
}

func drawPreview(row report.Row) {
	imgui.BeginTooltip()
	defer imgui.EndTooltip()

	meta, ok := row.Texture.Meta()
	if !ok {
		imgui.Text("no texture data loaded")
		return
	}

	w, h := previewDimensions(int(meta.W), int(meta.H))
	imgui.Text(fmt.Sprintf("%dx%d combo %08x", meta.W, meta.H, meta.ComboID))
	imgui.Image(imgui.TextureID(row.Handle), imgui.Vec2{X: w, Y: h})
}

// SetFilter sets the name filter expression of the slot list. An invalid expression
// is shown in the window and keeps the previous filter active.
func (win *Window) SetFilter(text string) {
	win.filterText = text
	filter, err := report.NewFilter(text)
	win.filterErr = err
	if err == nil {
		win.filter = filter
	}
}

func (win *Window) refresh() {
	win.rows = report.Rows(win.pool, win.filter)
}

// summary counts the listed slots and their textures. It only reads the rows, the
// window never takes the pool lock.
func summary(rows []report.Row) string {
	textures := make(map[*registry.Texture]struct{})
	var placeholders, slots, paired int
	for _, row := range rows {
		if row.Paired {
			paired++
		} else {
			slots++
		}
		if _, ok := textures[row.Texture]; ok {
			continue
		}
		textures[row.Texture] = struct{}{}
		if row.Texture.IsPlaceholder() {
			placeholders++
		}
	}
	return fmt.Sprintf("textures %d (%d placeholders), slots %d, paired %d",
		len(textures), placeholders, slots, paired)
}

func flags(row report.Row) string {
	s := ""
	if row.Placeholder {
		s += "placeholder "
	}
	if row.Common {
		s += "common "
	}
	if row.Paired {
		s += "paired"
	}
	return s
}

// previewDimensions fits the texture into the preview square keeping its aspect ratio.
func previewDimensions(w, h int) (float32, float32) {
	if w <= 0 || h <= 0 {
		return previewSize, previewSize
	}
	if w >= h {
		return previewSize, previewSize * float32(h) / float32(w)
	}
	return previewSize * float32(w) / float32(h), previewSize
}
