// Package dump implements `fwcas dump`: it assembles a program and
// prints the resulting object model (section, symbol, and relocation
// tables plus a hex rendering of the code section) instead of writing
// the file.
package dump

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/forwardcom-toolchain/fwcas/cmd/asm"
	"github.com/forwardcom-toolchain/fwcas/pkg/fwcelf"
	"github.com/forwardcom-toolchain/fwcas/pkg/fwcformat"
	"github.com/forwardcom-toolchain/fwcas/pkg/utils"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	headingColor = color.New(color.FgCyan, color.Bold)
	numberColor  = color.New(color.FgYellow)
	dimColor     = color.New(color.FgHiBlack)
)

// DumpCmd represents the dump command
var DumpCmd = &cobra.Command{
	Use:   "dump program",
	Short: "Assemble a program and dump the object tables",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		obj, _, err := asm.Assemble(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		dumpObject(obj)
	},
}

func dumpObject(obj *fwcelf.Object) {
	headingColor.Println("sections")
	for i, s := range obj.Sections {
		fmt.Printf("  [%2d] type=%-2d flags=%#06x size=%s align=2^%d\n",
			i, s.Type, uint32(s.Flags), numberColor.Sprint(s.Size), s.AlignLog2)
	}

	headingColor.Println("symbols")
	for i, s := range obj.Symbols {
		fmt.Printf("  [%2d] name@%-4d bind=%d type=%d section=%d value=%s\n",
			i, s.Name, s.Bind, s.Type, s.Section, numberColor.Sprint(s.Value))
	}

	headingColor.Println("relocations")
	for i, r := range obj.Relocations {
		fmt.Printf("  [%2d] offset=%-6d section=%d kind=%d size=%d sym=%d addend=%d\n",
			i, r.Offset, r.Section, r.Type.Kind(), r.Type.Size(), r.Sym, r.Addend)
	}

	if len(obj.SectionData) > 1 {
		dumpCode(obj.SectionData[1])
	}
}

func dumpCode(code []byte) {
	headingColor.Println("code")
	for offset := 0; offset+4 <= len(code); offset += 4 {
		word := binary.LittleEndian.Uint32(code[offset:])
		fmt.Printf("  %s  %s  %s\n",
			dimColor.Sprintf("%06x", offset),
			utils.FormatUintHex(uint64(word), 8),
			utils.FormatUintBinary(uint64(word), 32))
	}

	if len(code) >= 8 {
		first := binary.LittleEndian.Uint64(code[:8])
		index := fwcformat.Default.Lookup(first)
		f := fwcformat.Default.Formats[index]
		if frame, err := wordFrame(&f); err == nil {
			headingColor.Println("first instruction word")
			fmt.Print(frame)
		}
	}
}

// wordFrame draws the bit layout of a descriptor's first instruction
// word in the same ascii-frame style the `tools docs` format pages use.
func wordFrame(f *fwcformat.Format) (string, error) {
	return utils.AsciiFrame(fwcformat.FrameFields(f), 32, "bits",
		utils.AsciiFrameUnitLayout_RightToLeft, 2)
}
