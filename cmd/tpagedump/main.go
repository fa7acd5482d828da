// Package main implements a texture page dumper for simulated memory images
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/texpool/internal/goaltex"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

type optionFlags struct {
	memory   string
	pages    []uint32
	sentinel uint32
	quiet    bool
}

func main() {
	options := readArguments()

	if !options.quiet {
		printBanner()
	}

	mem, err := os.ReadFile(options.memory)
	if err != nil {
		fmt.Println(fmt.Errorf("reading memory image: %w", err))
		os.Exit(1)
	}

	for _, page := range options.pages {
		if err := dumpPage(os.Stdout, mem, page, options.sentinel); err != nil {
			fmt.Println(fmt.Errorf("dumping page 0x%08x failed: %w", page, err))
			os.Exit(1)
		}
	}
}

func readArguments() optionFlags {
	flags := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	options := optionFlags{}
	var sentinel string

	flags.StringVar(&options.memory, "m", "", "name of the simulated main memory image file")
	flags.StringVar(&sentinel, "s7", "147", "pointer value of empty texture page entries in hex")
	flags.BoolVar(&options.quiet, "q", false, "perform operations quietly")

	err := flags.Parse(os.Args[1:])
	args := flags.Args()

	if err != nil || len(args) == 0 || options.memory == "" {
		printBanner()
		fmt.Printf("usage: tpagedump -m <memory image> [options] <page pointer hex>...\n\n")
		flags.PrintDefaults()
		os.Exit(1)
	}

	options.sentinel, err = parseHex(sentinel)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	for _, arg := range args {
		ptr, err := parseHex(arg)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		options.pages = append(options.pages, ptr)
	}
	return options
}

func printBanner() {
	fmt.Println("[-----------------------------------------]")
	fmt.Println("[ tpagedump - texture page record dumper ]")
	fmt.Printf("[-----------------------------------------]\n\n")
	fmt.Printf("version: %s\n\n", buildinfo.Version(version, commit, date))
}

func parseHex(s string) (uint32, error) {
	value, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid hex number '%s'", s)
	}
	return uint32(value), nil
}

// dumpPage prints the page header and every texture record of the page.
func dumpPage(w io.Writer, mem []byte, pagePtr, sentinel uint32) error {
	page, err := goaltex.DecodePage(mem, pagePtr)
	if err != nil {
		return err
	}
	name, err := goaltex.ReadString(mem, page.NamePtr)
	if err != nil {
		return fmt.Errorf("reading page name: %w", err)
	}

	if _, err := fmt.Fprintf(w, "page '%s' at 0x%08x\n%s", name, pagePtr, page); err != nil {
		return fmt.Errorf("writing page header: %w", err)
	}

	for idx := range int(page.Length) {
		tex, ok, err := page.TryTexture(mem, pagePtr, idx, sentinel)
		if err != nil {
			return fmt.Errorf("texture %d: %w", idx, err)
		}
		if !ok {
			if _, err := fmt.Fprintf(w, "  %3d: empty\n", idx); err != nil {
				return fmt.Errorf("writing texture: %w", err)
			}
			continue
		}

		if err := dumpTexture(w, mem, idx, tex); err != nil {
			return err
		}
	}
	return nil
}

func dumpTexture(w io.Writer, mem []byte, idx int, tex goaltex.Texture) error {
	texName, err := goaltex.ReadString(mem, tex.NamePtr)
	if err != nil {
		return fmt.Errorf("reading name of texture %d: %w", idx, err)
	}

	numMips := min(int(tex.NumMips), goaltex.MaxMips)
	dests := make([]string, 0, numMips)
	for mip := range numMips {
		dests = append(dests, fmt.Sprintf("%x/s%d", tex.Dest[mip], tex.SegmentOfMip(mip)))
	}

	_, err = fmt.Fprintf(w, "  %3d: %-24s %4dx%-4d %-6s mips %d clut %s@%x dest %s\n",
		idx, texName, tex.W, tex.H, goaltex.PSM(tex.PSM), tex.NumMips,
		goaltex.PSM(tex.ClutPSM), tex.ClutDest, strings.Join(dests, " "))
	if err != nil {
		return fmt.Errorf("writing texture: %w", err)
	}
	return nil
}
