package tools

import (
	"fmt"
	"os"
	"strings"

	"github.com/forwardcom-toolchain/fwcas/pkg/fwcdiag"
	"github.com/forwardcom-toolchain/fwcas/pkg/fwcformat"
	"github.com/forwardcom-toolchain/fwcas/pkg/utils"
	"github.com/spf13/cobra"
)

var module string
var supportedModules = map[string]func() string{
	"asm.formats": formatTableDocs,
	"asm.errors":  errorCatalogDocs,
}

var docsCmd = &cobra.Command{
	Use:   "docs module",
	Short: "Show fwcas documentation",
	Long: `Dumps the documentation of the specified fwcas module.
By default the tool dumps the documentation to stdout, but it can be redirected to a file using the --output flag.

Supported modules:
` + strings.Join(utils.Map(utils.Keys(supportedModules), func(module string) string { return "  " + module }), "\n"),
	Args:      cobra.MatchAll(cobra.OnlyValidArgs, cobra.MaximumNArgs(1), cobra.MinimumNArgs(1)),
	ValidArgs: utils.Keys(supportedModules),
	Run: func(cmd *cobra.Command, args []string) {
		module = args[0]
		outputFile, _ := cmd.Flags().GetString("output")
		if outputFile != "" {
			file, err := os.Create(outputFile)
			if err != nil {
				fmt.Println("Error creating file:", err)
				os.Exit(1)
			}
			defer file.Close()
			fmt.Fprintln(file, supportedModules[module]())
		} else {
			fmt.Println(supportedModules[module]())
		}
	},
}

func init() {
	ToolsCmd.AddCommand(docsCmd)
	docsCmd.Flags().StringP("output", "o", "", "Output file. If not specified, the documentation is dumped to stdout.")
}

func formatTableDocs() string {
	var b strings.Builder
	b.WriteString("# Instruction formats\n\n")
	for i := range fwcformat.Default.Formats {
		f := &fwcformat.Default.Formats[i]
		if f.Category == fwcformat.CategoryReserved {
			fmt.Fprintf(&b, "## Format %03X (reserved)\n\n", f.Form)
			continue
		}
		fmt.Fprintf(&b, "## Format %03X\n\nCategory %d, template %c, %d-word encoding.\n\n",
			f.Form, f.Category, f.Template, f.LengthWords())
		if frame, err := utils.AsciiFrame(fwcformat.FrameFields(f), 32, "bits",
			utils.AsciiFrameUnitLayout_RightToLeft, 0); err == nil {
			b.WriteString(frame)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func errorCatalogDocs() string {
	var b strings.Builder
	b.WriteString("# Diagnostics\n\n")
	for _, code := range fwcdiag.Catalog() {
		fmt.Fprintf(&b, "  %3d  %-7s  %s\n", code, code.DefaultSeverity(), code.Text())
	}
	return b.String()
}
