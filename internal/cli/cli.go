// Package cli handles command line interface logic
package cli

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/retroenv/texpool/internal/options"
)

// ParseFlags parses the command line flags and returns the program options
func ParseFlags() (options.Program, error) {
	return parse(os.Args)
}

func parse(args []string) (options.Program, error) {
	flags := flag.NewFlagSet(args[0], flag.ContinueOnError)
	flags.SetOutput(os.Stderr)
	var opts options.Program
	readOptionFlags(flags, &opts)

	err := flags.Parse(args[1:])
	positional := flags.Args()
	if err != nil || (len(positional) == 0 && opts.Trace == "") {
		return opts, &UsageError{flags: flags}
	}

	if err := validateArgs(positional); err != nil {
		return opts, err
	}
	if len(positional) > 0 {
		opts.Trace = positional[0]
	}

	if err := normalizeOptions(&opts); err != nil {
		return opts, err
	}
	return opts, nil
}

// UsageError represents an error that should show usage information
type UsageError struct {
	flags *flag.FlagSet
	msg   string
}

func (e *UsageError) Error() string {
	return e.msg
}

func (e *UsageError) ShowUsage() {
	fmt.Printf("usage: %s [options] <trace file>\n\n", filepath.Base(os.Args[0]))
	if e.flags != nil {
		e.flags.PrintDefaults()
	}
	fmt.Println()
}

// validateArgs checks if arguments are in correct order
func validateArgs(args []string) error {
	for i, arg := range args {
		if i > 0 && arg[0] == '-' {
			return &UsageError{
				msg: fmt.Sprintf("Potential argument %s found after trace file, please pass the trace file as last argument", arg),
			}
		}
	}
	return nil
}

// normalizeOptions normalizes and validates option values
func normalizeOptions(opts *options.Program) error {
	sentinel := strings.TrimPrefix(strings.ToLower(opts.Sentinel), "0x")
	value, err := strconv.ParseUint(sentinel, 16, 32)
	if err != nil {
		return fmt.Errorf("invalid empty sentinel '%s': %w", opts.Sentinel, err)
	}
	opts.SentinelValue = uint32(value)

	if opts.MaxEdge <= 0 {
		return fmt.Errorf("invalid maximum texture edge %d", opts.MaxEdge)
	}
	if opts.Memory == "" {
		return &UsageError{msg: "no memory image given"}
	}
	return nil
}

func readOptionFlags(flags *flag.FlagSet, opts *options.Program) {
	flags.StringVar(&opts.Memory, "m", "", "name of the simulated main memory image file")
	flags.StringVar(&opts.Textures, "t", "", "texture root directory containing one directory per level")
	flags.StringVar(&opts.Dump, "dump", "", "directory to export the resolved slot textures to as webp files")
	flags.StringVar(&opts.Sentinel, "s7", "147", "pointer value of empty texture page entries in hex")
	flags.StringVar(&opts.Filter, "filter", "", "regular expression to select the textures of the slot report")
	flags.IntVar(&opts.MaxEdge, "maxedge", 256, "longest edge of exported textures, larger ones are scaled down")
	flags.BoolVar(&opts.Verify, "verify", false, "verify the consistency of the texture pool after replaying")
	flags.BoolVar(&opts.NoReport, "noreport", false, "do not print the slot report")
	flags.BoolVar(&opts.Debug, "debug", false, "enable debugging options for extended logging")
	flags.BoolVar(&opts.Quiet, "q", false, "perform operations quietly")
}
