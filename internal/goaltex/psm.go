package goaltex

import (
	"fmt"
	"strconv"
	"strings"
)

// PSM is a pixel storage mode of the graphics synthesizer.
type PSM uint8

// Pixel storage modes used by texture records.
const (
	PSMCT32  PSM = 0x00
	PSMCT24  PSM = 0x01
	PSMCT16  PSM = 0x02
	PSMCT16S PSM = 0x0a
	PSMT8    PSM = 0x13
	PSMT4    PSM = 0x14
	PSMT8H   PSM = 0x1b
	PSMT4HL  PSM = 0x24
	PSMT4HH  PSM = 0x2c // paired format, stacked on top of a PSMT4HL texture
	PSMZ32   PSM = 0x30
)

var psmNames = map[PSM]string{
	PSMCT32:  "ct32",
	PSMCT24:  "ct24",
	PSMCT16:  "ct16",
	PSMCT16S: "ct16s",
	PSMT8:    "mt8",
	PSMT4:    "mt4",
	PSMT8H:   "mt8h",
	PSMT4HL:  "mt4hl",
	PSMT4HH:  "mt4hh",
	PSMZ32:   "z32",
}

func (p PSM) String() string {
	if name, ok := psmNames[p]; ok {
		return name
	}
	return "unknown"
}

// IsPaired returns whether the format stores its texture in the high half of a
// paired layout, these are tracked in a separate table.
func (p PSM) IsPaired() bool {
	return p == PSMT4HH
}

// ParsePSM parses a pixel storage mode given by name or as number.
func ParsePSM(s string) (PSM, error) {
	for psm, name := range psmNames {
		if strings.EqualFold(name, s) {
			return psm, nil
		}
	}

	value, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid pixel storage mode '%s'", s)
	}
	return PSM(value), nil
}
