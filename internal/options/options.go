// Package options contains the program options.
package options

// Parameters contains file path options.
type Parameters struct {
	Trace    string `arg:"positional" usage:"trace file to replay"`
	Memory   string `flag:"m" usage:"simulated main memory image"`
	Textures string `flag:"t" usage:"texture root directory containing one directory per level"`
	Dump     string `flag:"dump" usage:"directory to export the resulting slot textures to as webp"`
}

// Flags contains behavior options.
type Flags struct {
	Sentinel string `flag:"s7" usage:"pointer value of empty texture page entries (hex)" default:"147"`
	Filter   string `flag:"filter" usage:"regular expression to select textures of the slot report"`
	MaxEdge  int    `flag:"maxedge" usage:"longest edge of exported textures" default:"256"`
	Verify   bool   `flag:"verify" usage:"verify pool consistency after replaying"`
	NoReport bool   `flag:"noreport" usage:"do not print the slot report"`
	Debug    bool   `flag:"debug" usage:"enable debug logging"`
	Quiet    bool   `flag:"q" usage:"quiet mode"`
}

// Program options of the texture pool tool.
type Program struct {
	Parameters
	Flags

	SentinelValue uint32 // parsed Sentinel
}
