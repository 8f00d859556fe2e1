package fwcformat

import "github.com/forwardcom-toolchain/fwcas/pkg/utils"

// FrameFields describes the first instruction word's bit layout of a
// descriptor for the ascii-frame display tooling: the routing fields
// plus whichever offset/immediate field lives in the first word.
func FrameFields(f *Format) []utils.AsciiFrameField {
	fields := []utils.AsciiFrameField{
		{Name: "M", Begin: bitM, Width: widthM},
		{Name: "mode", Begin: bitMode, Width: widthMode},
		{Name: "IL", Begin: bitIL, Width: widthIL},
	}

	next := bitIL + widthIL
	switch {
	case f.JumpSize > 0 && f.JumpPos >= next && f.JumpPos < 32:
		width := f.JumpSize * 8
		if f.JumpPos+width > 32 {
			width = 32 - f.JumpPos
		}
		fields = append(fields, utils.AsciiFrameField{Name: "jump offset", Begin: f.JumpPos, Width: width})
	case f.ImmSize > 0 && f.ImmPos >= next && f.ImmPos < 32:
		width := f.ImmSize * 8
		if f.ImmPos+width > 32 {
			width = 32 - f.ImmPos
		}
		fields = append(fields, utils.AsciiFrameField{Name: "immediate", Begin: f.ImmPos, Width: width})
	}

	return fields
}
