// Package formats implements `fwcas formats`: a listing of every
// instruction-format descriptor that round-trips each one through the
// word decoder as a live self-check of the lookup tables.
package formats

import (
	"fmt"

	"github.com/forwardcom-toolchain/fwcas/pkg/fwcformat"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var interactive bool

var (
	okColor       = color.New(color.FgGreen)
	badColor      = color.New(color.FgRed, color.Bold)
	reservedColor = color.New(color.FgHiBlack)
)

// FormatsCmd represents the formats command
var FormatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List instruction format descriptors and verify the decoder round-trip",
	Run: func(cmd *cobra.Command, args []string) {
		if interactive {
			if err := runBrowser(); err != nil {
				cobra.CheckErr(err)
			}
			return
		}
		listFormats()
	},
}

func init() {
	FormatsCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse the table in a TUI")
}

func listFormats() {
	table := fwcformat.Default
	for i := range table.Formats {
		f := &table.Formats[i]

		if f.Category == fwcformat.CategoryReserved {
			reservedColor.Printf("  %03X  reserved\n", f.Form)
			continue
		}

		word := table.CanonicalWord(i)
		got := table.Lookup(word)
		status := okColor.Sprint("ok")
		if table.Formats[got].Form != f.Form {
			status = badColor.Sprintf("decodes to %03X", table.Formats[got].Form)
		}

		fmt.Printf("  %03X  category=%d template=%c words=%d  %s\n",
			f.Form, f.Category, f.Template, f.LengthWords(), status)
	}
}
