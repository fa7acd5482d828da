// Package report lists the written VRAM slots of a texture pool.
package report

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"text/tabwriter"

	"github.com/retroenv/texpool/internal/gpu"
	"github.com/retroenv/texpool/internal/registry"
	"github.com/retroenv/texpool/internal/texpool"
)

// Row describes one written slot.
type Row struct {
	Addr        uint32
	Handle      gpu.Handle
	Texture     *registry.Texture
	Placeholder bool
	Common      bool
	Paired      bool // entry of the paired format side table
}

// Name returns the combined name of the slot texture.
func (r Row) Name() string {
	return r.Texture.Name()
}

// Filter selects rows by texture name. The zero value matches everything.
type Filter struct {
	re *regexp.Regexp
}

// NewFilter compiles the name filter expression, an empty expression matches all
// textures.
func NewFilter(expr string) (Filter, error) {
	if expr == "" {
		return Filter{}, nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return Filter{}, fmt.Errorf("compiling filter: %w", err)
	}
	return Filter{re: re}, nil
}

// Match returns whether the texture name passes the filter.
func (f Filter) Match(name string) bool {
	return f.re == nil || f.re.MatchString(name)
}

// Rows returns the written slots whose texture matches the filter, ordered by address
// with the paired entry following the primary one.
func Rows(pool *texpool.Pool, filter Filter) []Row {
	var rows []Row
	add := func(paired bool) func(uint32, gpu.Handle, *registry.Texture) {
		return func(addr uint32, handle gpu.Handle, tex *registry.Texture) {
			if !filter.Match(tex.Name()) {
				return
			}
			meta, _ := tex.Meta()
			rows = append(rows, Row{
				Addr:        addr,
				Handle:      handle,
				Texture:     tex,
				Placeholder: handle == pool.Placeholder(),
				Common:      meta.Common,
				Paired:      paired,
			})
		}
	}
	pool.EachSlot(add(false))
	pool.EachPaired(add(true))

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Addr != rows[j].Addr {
			return rows[i].Addr < rows[j].Addr
		}
		return !rows[i].Paired && rows[j].Paired
	})
	return rows
}

// Write prints the rows as aligned table.
func Write(w io.Writer, rows []Row) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ADDRESS\tTEXTURE\tPAGE\tHANDLE\tSIZE\tFLAGS"); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, row := range rows {
		meta, _ := row.Texture.Meta()
		if _, err := fmt.Fprintf(tw, "0x%04x\t%s\t%s\t%d\t%dx%d\t%s\n",
			row.Addr, row.Name(), row.Texture.PageName(), row.Handle, meta.W, meta.H, flags(row)); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}
	return nil
}

func flags(row Row) string {
	var s []byte
	for _, f := range []struct {
		set  bool
		flag byte
	}{
		{row.Placeholder, 'p'},
		{row.Common, 'c'},
		{row.Paired, 'h'},
	} {
		if f.set {
			s = append(s, f.flag)
		}
	}
	if len(s) == 0 {
		return "-"
	}
	return string(s)
}
