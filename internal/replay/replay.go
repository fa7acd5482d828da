// Package replay drives the texture pool from a trace of level streaming and
// game simulation commands.
//
// A trace has one command per line, # starts a comment:
//
//	load <level>
//	unload <level>
//	upload <page pointer hex> <mode>
//	upload-one <page pointer hex> <texture index>
//	copy <destination> <source> <pixel storage mode>
//	bind <texture name> <address>
//	sky <texture name>
//
// Addresses are decimal or 0x prefixed hex.
package replay

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/texpool/internal/goaltex"
	"github.com/retroenv/texpool/internal/texpool"
)

// ErrSyntax is returned for malformed trace lines.
var ErrSyntax = errors.New("invalid trace command")

// Levels loads and unloads level textures.
type Levels interface {
	Load(level string) (int, error)
	Unload(level string) error
}

// Summary counts the executed commands.
type Summary struct {
	Loads   int
	Unloads int
	Uploads int
	Copies  int
	Binds   int
	Skipped int // copies from untouched slots
}

// Replayer executes traces.
type Replayer struct {
	logger   *log.Logger
	pool     *texpool.Pool
	levels   Levels
	memory   []byte
	sentinel uint32
}

// New returns a replayer that reads texture pages from the memory image. Page
// entries holding the sentinel pointer are empty.
func New(logger *log.Logger, pool *texpool.Pool, levels Levels, memory []byte, sentinel uint32) *Replayer {
	return &Replayer{
		logger:   logger,
		pool:     pool,
		levels:   levels,
		memory:   memory,
		sentinel: sentinel,
	}
}

// Run executes all commands of the trace.
func (r *Replayer) Run(ctx context.Context, trace io.Reader) (Summary, error) {
	var summary Summary
	scanner := bufio.NewScanner(trace)

	for line := 1; scanner.Scan(); line++ {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("replaying trace: %w", err)
		}

		text, _, _ := strings.Cut(scanner.Text(), "#")
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}

		if err := r.execute(fields, &summary); err != nil {
			return summary, fmt.Errorf("line %d: %w", line, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return summary, fmt.Errorf("reading trace: %w", err)
	}
	return summary, nil
}

func (r *Replayer) execute(fields []string, summary *Summary) error {
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "load":
		if err := expectArgs(cmd, args, 1); err != nil {
			return err
		}
		if _, err := r.levels.Load(args[0]); err != nil {
			return err
		}
		summary.Loads++

	case "unload":
		if err := expectArgs(cmd, args, 1); err != nil {
			return err
		}
		if err := r.levels.Unload(args[0]); err != nil {
			return err
		}
		summary.Unloads++

	case "upload", "upload-one":
		if err := r.upload(cmd, args); err != nil {
			return err
		}
		summary.Uploads++

	case "copy":
		skipped, err := r.copy(args)
		if err != nil {
			return err
		}
		if skipped {
			summary.Skipped++
		} else {
			summary.Copies++
		}

	case "bind":
		if err := r.bind(args); err != nil {
			return err
		}
		summary.Binds++

	case "sky":
		if err := expectArgs(cmd, args, 1); err != nil {
			return err
		}
		tex, ok := r.pool.Texture(args[0])
		if !ok {
			return fmt.Errorf("binding sky '%s': %w", args[0], texpool.ErrUnknownTexture)
		}
		if err := r.pool.BindSky(tex); err != nil {
			return err
		}
		summary.Binds++

	default:
		return fmt.Errorf("%w: unknown command '%s'", ErrSyntax, cmd)
	}
	return nil
}

func (r *Replayer) upload(cmd string, args []string) error {
	if err := expectArgs(cmd, args, 2); err != nil {
		return err
	}

	page, err := parseHex(args[0])
	if err != nil {
		return err
	}
	number, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("%w: invalid number '%s'", ErrSyntax, args[1])
	}

	up := texpool.Upload{
		Memory:   r.memory,
		Page:     page,
		Mode:     texpool.UploadMode(number),
		Sentinel: r.sentinel,
	}
	if cmd == "upload-one" {
		up.Mode = texpool.ModeSingle
		up.Index = number
	}

	r.logger.Debug("Uploading texture page",
		log.Hex("page", page),
		log.Stringer("mode", up.Mode))
	return r.pool.SimulateUpload(up)
}

func (r *Replayer) copy(args []string) (bool, error) {
	if err := expectArgs("copy", args, 3); err != nil {
		return false, err
	}

	dst, err := parseAddress(args[0])
	if err != nil {
		return false, err
	}
	src, err := parseAddress(args[1])
	if err != nil {
		return false, err
	}
	psm, err := goaltex.ParsePSM(args[2])
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrSyntax, err)
	}

	err = r.pool.SimulateCopy(dst, src, psm)
	if errors.Is(err, texpool.ErrUntouchedSource) {
		return true, nil
	}
	return false, err
}

func (r *Replayer) bind(args []string) error {
	if err := expectArgs("bind", args, 2); err != nil {
		return err
	}

	addr, err := parseAddress(args[1])
	if err != nil {
		return err
	}
	tex, ok := r.pool.Texture(args[0])
	if !ok {
		return fmt.Errorf("binding '%s': %w", args[0], texpool.ErrUnknownTexture)
	}
	return r.pool.BindExisting(tex, addr)
}

func expectArgs(cmd string, args []string, count int) error {
	if len(args) != count {
		return fmt.Errorf("%w: '%s' expects %d arguments, got %d", ErrSyntax, cmd, count, len(args))
	}
	return nil
}

func parseHex(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	value, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid hex number '%s'", ErrSyntax, s)
	}
	return uint32(value), nil
}

func parseAddress(s string) (uint32, error) {
	value, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid address '%s'", ErrSyntax, s)
	}
	return uint32(value), nil
}
